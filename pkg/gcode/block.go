package gcode

// Block is a contiguous run of program lines. Every block but the last of a
// program ends with a retraction line.
type Block struct {
	// Start is the 0-based index of the first line within the program.
	Start int
	Lines []string
}

// Split segments lines into blocks, closing a block after each retraction.
// A trailing run without a retraction becomes the last block. Concatenating
// the blocks' lines reproduces lines exactly.
func Split(lines []string) []Block {
	var blocks []Block
	start := 0
	for i, line := range lines {
		if IsRetraction(line) {
			blocks = append(blocks, Block{Start: start, Lines: lines[start : i+1 : i+1]})
			start = i + 1
		}
	}
	if start < len(lines) {
		blocks = append(blocks, Block{Start: start, Lines: lines[start:len(lines):len(lines)]})
	}
	return blocks
}

// End returns the index just past the block's last line.
func (b Block) End() int {
	return b.Start + len(b.Lines)
}

// BlockFinalPosition returns the target of the last XY move in the block.
// found is false, and the position is the origin, when the block has none.
func BlockFinalPosition(b Block) (pos Position, found bool, err error) {
	for i := len(b.Lines) - 1; i >= 0; i-- {
		if IsXYMoveCommand(b.Lines[i]) {
			pos, _, err = ParseXY(b.Lines[i])
			if err != nil {
				return Origin, false, withLine(err, b.Start+i)
			}
			return pos, true, nil
		}
	}
	return Origin, false, nil
}
