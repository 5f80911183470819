package gcode

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gcode-slowdown/pkg/errors"
	"gcode-slowdown/pkg/log"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a\n", []string{"a"}},
		{"a\nb", []string{"a", "b"}},
		{"a\r\nb\r\n", []string{"a", "b"}},
		{"a\rb", []string{"a", "b"}},
		{"a\n\nb\n", []string{"a", "", "b"}},
		{"\n", []string{""}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, SplitLines(tt.in)); diff != "" {
			t.Errorf("SplitLines(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestTransformGolden(t *testing.T) {
	in, err := os.ReadFile(filepath.Join("testdata", "sample.gcode"))
	if err != nil {
		t.Fatal(err)
	}
	want, err := os.ReadFile(filepath.Join("testdata", "sample_unstring.gcode"))
	if err != nil {
		t.Fatal(err)
	}

	tr := NewTransformer(DefaultOptions(), nil)
	got, stats, err := tr.TransformBytes(in)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(SplitLines(string(want)), SplitLines(string(got))); diff != "" {
		t.Errorf("golden mismatch (-want +got):\n%s", diff)
	}
	if !bytes.Equal(want, got) {
		t.Error("output is not byte-identical to golden file")
	}

	wantStats := Stats{
		Lines:       16,
		Blocks:      5,
		InitBlocks:  1,
		FinalBlocks: 1,
		ShortBlocks: 1,
		LongBlocks:  2,
		Slowdowns:   3,
		BytesIn:     int64(len(in)),
		BytesOut:    int64(len(want)),
		Travel:      stats.Travel, // checked below
	}
	if diff := cmp.Diff(wantStats, stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
	if stats.Travel <= 62 || stats.Travel >= 63 {
		t.Errorf("travel = %v, want 48 + sqrt(200)", stats.Travel)
	}
}

func TestTransformEmpty(t *testing.T) {
	tr := NewTransformer(DefaultOptions(), nil)
	out, stats, err := tr.TransformBytes(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 || stats.Blocks != 0 {
		t.Errorf("expected empty output, got %q (%d blocks)", out, stats.Blocks)
	}
}

func TestTransformPreservesLines(t *testing.T) {
	lines := []string{"G1 X1 Y1", "G1 E-1", "  odd   spacing ", "", "G1 X30 Y1", "G1 E-1", "M84"}
	out, _, err := NewTransformer(DefaultOptions(), nil).Transform(lines)
	if err != nil {
		t.Fatal(err)
	}
	var kept []string
	for _, line := range out {
		if !strings.HasPrefix(line, "G1 F900 ; ") {
			kept = append(kept, line)
		}
	}
	if diff := cmp.Diff(lines, kept); diff != "" {
		t.Errorf("original lines altered (-want +got):\n%s", diff)
	}
	if len(out) != len(lines)+2 {
		t.Errorf("expected 2 injected lines, got %d", len(out)-len(lines))
	}
}

func TestTransformPositionContinuity(t *testing.T) {
	// The final block's travel depends on the init block's exit position.
	lines := []string{"G28", "G1 X100 Y0", "G1 E-1", "G1 X105 Y0", "G1 E-1"}
	out, stats, err := NewTransformer(DefaultOptions(), nil).Transform(lines)
	if err != nil {
		t.Fatal(err)
	}
	if stats.ShortBlocks != 1 {
		t.Fatalf("expected the 5 mm block to be short, stats %+v", stats)
	}
	if out[3] != "G1 F900 ; Small block full slowdown" {
		t.Errorf("unexpected line %q", out[3])
	}
}

type recordingSink struct {
	kinds   []string
	partial int
}

func (r *recordingSink) RecordBlock(kind string, travel float64, inserted bool) {
	r.kinds = append(r.kinds, kind)
}

func (r *recordingSink) RecordPartialMoves(n int) {
	r.partial += n
}

func TestTransformDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New("gcode")
	logger.SetWriter(&buf)
	logger.SetColorize(false)
	logger.SetLevel(log.DEBUG)

	tr := NewTransformer(DefaultOptions(), logger)
	sink := &recordingSink{}
	tr.SetRecorder(sink)

	lines := []string{"G28", "G1 X5", "G1 E-1", "G1 X20 Y20", "G1 E-1", "M106 S0", "G1 E-1", "M84"}
	_, stats, err := tr.Transform(lines)
	if err != nil {
		t.Fatal(err)
	}

	output := buf.String()
	for _, want := range []string{"partial G1 command", "line=2", "init block processed", "block with no position", "final block processed"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in log output:\n%s", want, output)
		}
	}
	if stats.PartialMoves != 1 || sink.partial != 1 {
		t.Errorf("partial moves: stats=%d sink=%d", stats.PartialMoves, sink.partial)
	}
	if diff := cmp.Diff([]string{"init", "long", "short", "final"}, sink.kinds); diff != "" {
		t.Errorf("recorded kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestTransformFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "part.gcode")
	out := filepath.Join(dir, "part_unstring.gcode")
	if err := os.WriteFile(in, []byte("G1 X1 Y0\nG1 E-1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tr := NewTransformer(DefaultOptions(), nil)
	stats, err := tr.TransformFile(context.Background(), in, out)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := "G1 F900 ; Small block full slowdown\nG1 X1 Y0\nG1 E-1\n"
	if string(data) != want {
		t.Errorf("output = %q, want %q", data, want)
	}
	if stats.BytesOut != int64(len(want)) {
		t.Errorf("BytesOut = %d", stats.BytesOut)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Errorf("expected no leftover temp files, got %d entries", len(entries))
	}
}

func TestTransformFileDryRun(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "part.gcode")
	os.WriteFile(in, []byte("G1 X1 Y0\nG1 E-1\n"), 0644)

	stats, err := NewTransformer(DefaultOptions(), nil).TransformFile(context.Background(), in, "")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Slowdowns != 1 {
		t.Errorf("Slowdowns = %d", stats.Slowdowns)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("dry run wrote files: %d entries", len(entries))
	}
}

func TestTransformFileParseErrorWritesNothing(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.gcode")
	out := filepath.Join(dir, "bad_unstring.gcode")
	os.WriteFile(in, []byte("G28\nG1 X1 Y1\nG1 Xnope Y2\n"), 0644)

	_, err := NewTransformer(DefaultOptions(), nil).TransformFile(context.Background(), in, out)
	if !errors.Is(err, errors.ErrGCodeParse) {
		t.Fatalf("expected GCODE_PARSE, got %v", err)
	}
	hostErr, _ := errors.AsHostError(err)
	if hostErr.File != in || hostErr.Line != 3 {
		t.Errorf("error location %s:%d", hostErr.File, hostErr.Line)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("output must not exist after a parse error")
	}
}

func TestTransformFileMissingInput(t *testing.T) {
	_, err := NewTransformer(DefaultOptions(), nil).TransformFile(context.Background(), filepath.Join(t.TempDir(), "none.gcode"), "")
	if !errors.Is(err, errors.ErrIORead) {
		t.Errorf("expected IO_READ, got %v", err)
	}
}

func TestTransformFileCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewTransformer(DefaultOptions(), nil).TransformFile(ctx, "unused.gcode", "")
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
