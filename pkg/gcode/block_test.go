package gcode

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func blockLines(blocks []Block) [][]string {
	out := make([][]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.Lines
	}
	return out
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  [][]string
	}{
		{"empty", nil, [][]string{}},
		{"no retraction", []string{"G28", "G1 X1 Y1"}, [][]string{{"G28", "G1 X1 Y1"}}},
		{
			"ends on retraction",
			[]string{"G1 X1 Y1", "G1 E-1", "G1 X2 Y2", "G1 E-1"},
			[][]string{{"G1 X1 Y1", "G1 E-1"}, {"G1 X2 Y2", "G1 E-1"}},
		},
		{
			"trailing partial block",
			[]string{"G1 E-1", "G1 X2 Y2", "M84"},
			[][]string{{"G1 E-1"}, {"G1 X2 Y2", "M84"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := blockLines(Split(tt.lines))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Split mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplitStartOffsets(t *testing.T) {
	blocks := Split([]string{"a", "G1 E-1", "b", "c", "G1 E-1", "d"})
	var starts []int
	for _, b := range blocks {
		starts = append(starts, b.Start)
	}
	if diff := cmp.Diff([]int{0, 2, 5}, starts); diff != "" {
		t.Errorf("block starts mismatch (-want +got):\n%s", diff)
	}
	if blocks[1].End() != 5 {
		t.Errorf("End() = %d, want 5", blocks[1].End())
	}
}

// randomProgram builds a program mixing moves, retractions, comments and
// other commands.
func randomProgram(rng *rand.Rand, n int) []string {
	choices := []func() string{
		func() string { return "G1 X" + strconv.Itoa(rng.Intn(200)) + " Y" + strconv.Itoa(rng.Intn(200)) + " E0.1" },
		func() string { return "G1 X" + strconv.Itoa(rng.Intn(200)) + " Y" + strconv.Itoa(rng.Intn(200)) },
		func() string { return "G1 E-0.8 F2400" },
		func() string { return "; comment" },
		func() string { return "M106 S255" },
		func() string { return "G1 Z0.4" },
	}
	lines := make([]string, n)
	for i := range lines {
		lines[i] = choices[rng.Intn(len(choices))]()
	}
	return lines
}

func TestSplitProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		lines := randomProgram(rng, rng.Intn(60))
		blocks := Split(lines)

		var joined []string
		for i, b := range blocks {
			if len(b.Lines) == 0 {
				t.Fatalf("empty block %d", i)
			}
			if i < len(blocks)-1 && !IsRetraction(b.Lines[len(b.Lines)-1]) {
				t.Fatalf("block %d does not end in a retraction: %q", i, b.Lines)
			}
			joined = append(joined, b.Lines...)
		}
		if diff := cmp.Diff(lines, joined, cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("concatenated blocks differ (-want +got):\n%s", diff)
		}
	}
}

func TestBlockFinalPosition(t *testing.T) {
	b := Block{Lines: []string{"G1 X1 Y2", "G1 X3 Y4", "G1 E-1"}}
	pos, found, err := BlockFinalPosition(b)
	if err != nil {
		t.Fatal(err)
	}
	if !found || pos != (Position{3, 4}) {
		t.Errorf("got %+v found=%v", pos, found)
	}

	pos, found, err = BlockFinalPosition(Block{Lines: []string{"M84"}})
	if err != nil {
		t.Fatal(err)
	}
	if found || pos != Origin {
		t.Errorf("expected origin without position, got %+v found=%v", pos, found)
	}
}
