// Error handling tests
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestHostErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *HostError
		want string
	}{
		{"plain", New(ErrGCodeParse, "bad"), "[GCODE_PARSE] bad"},
		{"file", New(ErrIORead, "bad").SetFile("a.gcode"), "[IO_READ] a.gcode: bad"},
		{"file and line", New(ErrGCodeParse, "bad").SetFile("a.gcode").SetLine(7), "[GCODE_PARSE] a.gcode:7: bad"},
		{"line only", New(ErrGCodeParse, "bad").SetLine(3), "[GCODE_PARSE] line 3: bad"},
		{"wrapped", Wrap(fmt.Errorf("boom"), ErrIOWrite, "write failed"), "[IO_WRITE] write failed: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsThroughWrapping(t *testing.T) {
	base := GCodeParseError("G1 Xabc", "bad float")
	wrapped := fmt.Errorf("transform: %w", base)

	if !Is(wrapped, ErrGCodeParse) {
		t.Error("expected wrapped error to match GCODE_PARSE")
	}
	if Is(wrapped, ErrIORead) {
		t.Error("did not expect IO_READ match")
	}
	if Is(fmt.Errorf("plain"), ErrGCodeParse) {
		t.Error("plain error must not match")
	}
}

func TestIOErrors(t *testing.T) {
	err := ReadError("missing.gcode", fs.ErrNotExist)
	if !IsIO(err) {
		t.Error("ReadError should be an IO error")
	}
	if Is(err, ErrGCodeParse) {
		t.Error("ReadError should not be a parse error")
	}
	if !strings.Contains(err.Error(), "missing.gcode") {
		t.Errorf("expected file name in message, got %q", err.Error())
	}
	if err.Unwrap() != fs.ErrNotExist {
		t.Error("expected Unwrap to return the cause")
	}
	if !IsIO(ScanError("dir", fs.ErrPermission)) || !IsIO(WriteError("out", fs.ErrPermission)) {
		t.Error("scan and write errors should be IO errors")
	}
}
