// Package gcode rewrites sliced 3D-printer programs so the toolhead slows
// down before every filament retraction.
//
// A program is split into blocks that each end on a retraction. For every
// ordinary block a feedrate command is injected so the last Distance
// millimetres of planar travel before the retraction run at Feedrate.
//
// Command recognition is deliberately loose: it matches substrings and
// space-separated tokens the way common slicer output is laid out, and does
// not try to be a full G-code parser.
package gcode

import (
	"strconv"
	"strings"

	"gcode-slowdown/pkg/errors"
)

// Command fragments recognised by the classifier.
const (
	linearMove   = "G1"
	retractMark  = "E-"
	homeCommand  = "G28"
	motorsOff    = "M84"
	commentStart = ";"
)

// missingAxis is the coordinate reported for an axis absent from a move.
const missingAxis = -1.0

// Position is the last known planar toolhead position.
type Position struct {
	X, Y float64
}

// Origin is the position assumed at the start of every program.
var Origin = Position{}

// IsComment reports whether the whole line is a comment.
func IsComment(line string) bool {
	return strings.HasPrefix(line, commentStart)
}

// IsRetraction reports whether line is a G1 move with negative extrusion.
// Both fragments are matched anywhere in the line, comments included.
func IsRetraction(line string) bool {
	return strings.Contains(line, linearMove) && strings.Contains(line, retractMark)
}

// stripComment returns the part of line before the first ';'.
func stripComment(line string) string {
	return strings.SplitN(line, commentStart, 2)[0]
}

// fields splits on single spaces, keeping empty tokens between repeated spaces.
func fields(line string) []string {
	return strings.Split(stripComment(line), " ")
}

// IsXYMoveCommand reports whether line is a non-retracting G1 that names X or Y.
func IsXYMoveCommand(line string) bool {
	if IsComment(line) {
		return false
	}
	if strings.Contains(line, retractMark) {
		return false
	}
	if !strings.HasPrefix(line, linearMove) {
		return false
	}
	for _, tok := range fields(line) {
		if strings.HasPrefix(tok, "X") || strings.HasPrefix(tok, "Y") {
			return true
		}
	}
	return false
}

// ParseXY extracts the X and Y words of a move. When an axis is missing its
// coordinate is -1 and complete is false; callers keep using the value.
// A word whose value is not a number is a parse error.
func ParseXY(line string) (pos Position, complete bool, err error) {
	pos = Position{X: missingAxis, Y: missingAxis}
	var haveX, haveY bool
	for _, tok := range fields(line) {
		switch {
		case strings.HasPrefix(tok, "X"):
			if pos.X, err = parseWord(line, tok); err != nil {
				return Position{}, false, err
			}
			haveX = true
		case strings.HasPrefix(tok, "Y"):
			if pos.Y, err = parseWord(line, tok); err != nil {
				return Position{}, false, err
			}
			haveY = true
		}
	}
	return pos, haveX && haveY, nil
}

func parseWord(line, tok string) (float64, error) {
	raw := strings.TrimSpace(tok[1:])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.GCodeParseError(line, "bad float "+tok[:1]+"="+strconv.Quote(raw))
	}
	return v, nil
}

// containsCommand reports whether any non-comment line contains cmd.
func containsCommand(lines []string, cmd string) bool {
	for _, line := range lines {
		if IsComment(line) {
			continue
		}
		if strings.Contains(line, cmd) {
			return true
		}
	}
	return false
}

// IsInitBlock reports whether the block homes the printer (G28).
func IsInitBlock(b Block) bool {
	return containsCommand(b.Lines, homeCommand)
}

// IsFinalBlock reports whether the block disables the motors (M84).
func IsFinalBlock(b Block) bool {
	return containsCommand(b.Lines, motorsOff)
}
