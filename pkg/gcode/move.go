package gcode

import (
	"math"

	"gcode-slowdown/pkg/errors"
)

// Move is the outcome of executing one line from a known position.
type Move struct {
	To    Position
	Delta float64 // planar distance travelled
	// Partial is set when the move named only one of X and Y.
	Partial bool
}

// ExecuteMove applies line to from. Lines that are not XY moves leave the
// position unchanged and travel nothing.
func ExecuteMove(line string, from Position) (Move, error) {
	if !IsXYMoveCommand(line) {
		return Move{To: from}, nil
	}
	to, complete, err := ParseXY(line)
	if err != nil {
		return Move{To: from}, err
	}
	dx := to.X - from.X
	dy := to.Y - from.Y
	return Move{
		To:      to,
		Delta:   math.Sqrt(dx*dx + dy*dy),
		Partial: !complete,
	}, nil
}

// Travel summarises the XY moves of a block.
type Travel struct {
	Exit     Position
	Distance float64
	// PartialLines are the 0-based program indexes of moves missing an axis.
	PartialLines []int
}

// BlockTotalDistance folds ExecuteMove over the block starting at start.
func BlockTotalDistance(b Block, start Position) (Travel, error) {
	t := Travel{Exit: start}
	for i, line := range b.Lines {
		m, err := ExecuteMove(line, t.Exit)
		if err != nil {
			return Travel{}, withLine(err, b.Start+i)
		}
		if m.Partial {
			t.PartialLines = append(t.PartialLines, b.Start+i)
		}
		t.Exit = m.To
		t.Distance += m.Delta
	}
	return t, nil
}

// withLine records the 0-based program index idx on a HostError.
func withLine(err error, idx int) error {
	if hostErr, ok := errors.AsHostError(err); ok && hostErr.Line == 0 {
		hostErr.SetLine(idx + 1)
	}
	return err
}
