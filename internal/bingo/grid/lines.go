package grid

// Line identifies one of the 12 winning lines: rows 0-4, columns 5-9,
// main diagonal 10, anti-diagonal 11.
type Line uint8

const (
	LineRow0 Line = iota
	LineRow1
	LineRow2
	LineRow3
	LineRow4
	LineCol0
	LineCol1
	LineCol2
	LineCol3
	LineCol4
	LineDiagMain
	LineDiagAnti
	LineCount
)

// LineSet is a bitset over the 12 lines.
type LineSet uint16

func (s LineSet) Has(l Line) bool {
	return s&(1<<uint(l)) != 0
}

func (s LineSet) With(l Line) LineSet {
	return s | (1 << uint(l))
}

func (s LineSet) Count() int {
	var n int
	for l := Line(0); l < LineCount; l++ {
		if s.Has(l) {
			n++
		}
	}
	return n
}

var lineMasks = buildLineMasks()

func buildLineMasks() [LineCount]Cells {
	var masks [LineCount]Cells
	for i := 0; i < Side; i++ {
		var row, col Cells
		for j := 0; j < Side; j++ {
			row = row.With(i*Side + j)
			col = col.With(j*Side + i)
		}
		masks[LineRow0+Line(i)] = row
		masks[LineCol0+Line(i)] = col
	}

	var main, anti Cells
	for i := 0; i < Side; i++ {
		main = main.With(i*Side + i)
		anti = anti.With(i*Side + (Side - 1 - i))
	}
	masks[LineDiagMain] = main
	masks[LineDiagAnti] = anti

	return masks
}

// Positions returns the five board positions making up the line.
func (l Line) Positions() [Side]int {
	var out [Side]int
	mask := lineMasks[l]
	idx := 0
	for pos := 0; pos < CellCount; pos++ {
		if mask.Has(pos) {
			out[idx] = pos
			idx++
		}
	}
	return out
}

// Completed reports lines fully covered by unlocked that are not already
// recorded. Pure; calling twice with the same input reports nothing new the
// second time.
func Completed(unlocked Cells, already LineSet) []Line {
	var out []Line
	for l := Line(0); l < LineCount; l++ {
		if already.Has(l) {
			continue
		}
		if unlocked&lineMasks[l] == lineMasks[l] {
			out = append(out, l)
		}
	}
	return out
}
