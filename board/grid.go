package board

import (
	"fmt"
	"strings"
)

// Grid is a 4x4 2048 board packed into a uint64. Field i = row*4+col holds
// the rank of that cell in bits [4i, 4i+4); rank 0 is empty and rank r is
// the tile 2^r.
type Grid uint64

const (
	Size      = 4
	NumFields = Size * Size
	MaxRank   = 15
	// GoalRank is the rank of the 2048 tile.
	GoalRank = 11

	fieldBits = 4
	fieldMask = 0xF
	rowBits   = fieldBits * Size
)

// Pack builds a Grid out of sixteen ranks in row-major order. Ranks are
// truncated to four bits.
func Pack(ranks [NumFields]uint8) Grid {
	var g Grid
	for i, r := range ranks {
		g |= Grid(r&fieldMask) << (fieldBits * i)
	}
	return g
}

// Unpack returns the sixteen ranks in row-major order.
func (g Grid) Unpack() [NumFields]uint8 {
	var ranks [NumFields]uint8
	for i := range ranks {
		ranks[i] = g.Field(i)
	}
	return ranks
}

// Field returns the rank stored in field i.
func (g Grid) Field(i int) uint8 {
	return uint8(g>>(fieldBits*i)) & fieldMask
}

// At returns the rank at (row, col).
func (g Grid) At(row, col int) uint8 {
	return g.Field(row*Size + col)
}

// WithField returns a copy of g with field i set to rank.
func (g Grid) WithField(i int, rank uint8) Grid {
	shift := fieldBits * i
	return g&^(Grid(fieldMask)<<shift) | Grid(rank&fieldMask)<<shift
}

func (g Grid) row(r int) uint16 {
	return uint16(g >> (rowBits * r))
}

// Mirror reverses the fields of every row.
func (g Grid) Mirror() Grid {
	return (g&0x000F000F000F000F)<<12 |
		(g&0x00F000F000F000F0)<<4 |
		(g&0x0F000F000F000F00)>>4 |
		(g&0xF000F000F000F000)>>12
}

// Transpose swaps field (row, col) with field (col, row).
func (g Grid) Transpose() Grid {
	a := g&0xF0F00F0FF0F00F0F |
		(g&0x0000F0F00000F0F0)<<12 |
		(g&0x0F0F00000F0F0000)>>12
	return a&0xFF00FF0000FF00FF |
		(a&0x00FF00FF00000000)>>24 |
		(a&0x00000000FF00FF00)<<24
}

// slideLeft applies the left move to every row. It returns the new grid and
// the points scored by merges.
func (g Grid) slideLeft() (Grid, int) {
	var out Grid
	score := 0
	for r := 0; r < Size; r++ {
		row := g.row(r)
		out |= Grid(leftTable[row]) << (rowBits * r)
		score += int(scoreTable[row])
	}
	return out, score
}

func (g Grid) slideRight() (Grid, int) {
	out, score := g.Mirror().slideLeft()
	return out.Mirror(), score
}

func (g Grid) slideUp() (Grid, int) {
	out, score := g.Transpose().slideLeft()
	return out.Transpose(), score
}

func (g Grid) slideDown() (Grid, int) {
	out, score := g.Transpose().slideRight()
	return out.Transpose(), score
}

// EmptyFields counts the fields with rank 0.
func (g Grid) EmptyFields() int {
	n := 0
	for i := 0; i < NumFields; i++ {
		if g.Field(i) == 0 {
			n++
		}
	}
	return n
}

// HighestRank returns the largest rank on the grid.
func (g Grid) HighestRank() uint8 {
	var best uint8
	for i := 0; i < NumFields; i++ {
		best = max(best, g.Field(i))
	}
	return best
}

// CanMove reports whether any direction would change the grid: either a
// field is empty or two equal tiles touch along a row or a column.
func (g Grid) CanMove() bool {
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			v := g.At(row, col)
			if v == 0 {
				return true
			}
			if col+1 < Size && v == g.At(row, col+1) && v < MaxRank {
				return true
			}
			if row+1 < Size && v == g.At(row+1, col) && v < MaxRank {
				return true
			}
		}
	}
	return false
}

// BitString renders the grid as 64 binary digits, most significant first.
func (g Grid) BitString() string {
	return fmt.Sprintf("%064b", uint64(g))
}

// ToDisplayText renders the grid as rows of tile values.
func (g Grid) ToDisplayText() string {
	var sb strings.Builder
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			v := 0
			if r := g.At(row, col); r > 0 {
				v = 1 << r
			}
			fmt.Fprintf(&sb, "%6d", v)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
