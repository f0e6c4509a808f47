// Package board implements the 2048 board: a packed grid, a score, and
// the rules for sliding, merging and spawning tiles.
package board

import (
	"strconv"

	"lukechampine.com/frand"

	"github.com/domino14/mc2048/move"
)

const (
	// SpawnTwoProbability is the chance that a spawned tile is a 2 (rank 1)
	// rather than a 4 (rank 2).
	SpawnTwoProbability = 0.9
)

// Board is a 2048 position. It is mutated in place by its move methods and
// is not safe for concurrent use; share positions between goroutines by
// copying them.
type Board struct {
	grid  Grid
	score int
	rng   RandSource
}

// New creates a board with two random tiles, seeded from OS entropy.
func New() *Board {
	return NewWithSource(frand.New())
}

// NewWithSource creates a board with two random tiles in two distinct
// fields, drawing all of its randomness from rng.
func NewWithSource(rng RandSource) *Board {
	b := &Board{rng: rng}
	first := rng.Intn(NumFields)
	b.grid = b.grid.WithField(first, spawnRank(rng))
	second := rng.Intn(NumFields - 1)
	if second >= first {
		second++
	}
	b.grid = b.grid.WithField(second, spawnRank(rng))
	return b
}

// FromState rehydrates a board from a packed grid and a score. The grid is
// not validated. The board seeds its own source on its first spawn.
func FromState(grid Grid, score int) *Board {
	return &Board{grid: grid, score: score}
}

// Copy returns a board with the same grid and score. The copy gets its own
// independently seeded source.
func (b *Board) Copy() *Board {
	return &Board{grid: b.grid, score: b.score}
}

// CopyWithSource returns a copy of the board that spawns tiles from rng.
func (b *Board) CopyWithSource(rng RandSource) *Board {
	return &Board{grid: b.grid, score: b.score, rng: rng}
}

// SetSource replaces the source the board spawns tiles from.
func (b *Board) SetSource(rng RandSource) {
	b.rng = rng
}

func (b *Board) source() RandSource {
	if b.rng == nil {
		b.rng = frand.New()
	}
	return b.rng
}

func (b *Board) Grid() Grid {
	return b.grid
}

func (b *Board) SetGrid(g Grid) {
	b.grid = g
}

func (b *Board) Score() int {
	return b.score
}

func (b *Board) SetScore(score int) {
	b.score = score
}

// Equal is true if both boards have the same grid and score.
func (b *Board) Equal(other *Board) bool {
	return b.grid == other.grid && b.score == other.score
}

func (b *Board) MoveLeft() bool {
	return b.apply(b.grid.slideLeft())
}

func (b *Board) MoveRight() bool {
	return b.apply(b.grid.slideRight())
}

func (b *Board) MoveUp() bool {
	return b.apply(b.grid.slideUp())
}

func (b *Board) MoveDown() bool {
	return b.apply(b.grid.slideDown())
}

// MakeMove slides the board in direction d. It returns false, leaving the
// board untouched, if nothing would shift or merge.
func (b *Board) MakeMove(d move.Direction) bool {
	switch d {
	case move.Left:
		return b.MoveLeft()
	case move.Right:
		return b.MoveRight()
	case move.Up:
		return b.MoveUp()
	case move.Down:
		return b.MoveDown()
	}
	return false
}

// apply commits a slide and spawns a tile. Merges always change the grid,
// so an unchanged grid means no shift and no merge happened.
func (b *Board) apply(next Grid, gained int) bool {
	if next == b.grid {
		return false
	}
	b.grid = next
	b.score += gained
	b.addTile()
	return true
}

// addTile puts a new tile into a uniformly chosen empty field. It does
// nothing on a full grid.
func (b *Board) addTile() bool {
	empty := b.grid.EmptyFields()
	if empty == 0 {
		return false
	}
	rng := b.source()
	rank := spawnRank(rng)
	target := rng.Intn(empty)
	for i := 0; i < NumFields; i++ {
		if b.grid.Field(i) != 0 {
			continue
		}
		if target == 0 {
			b.grid = b.grid.WithField(i, rank)
			return true
		}
		target--
	}
	return false
}

func spawnRank(rng RandSource) uint8 {
	if rng.Float64() < SpawnTwoProbability {
		return 1
	}
	return 2
}

// IsGameOver is true when no direction would change the grid.
func (b *Board) IsGameOver() bool {
	return !b.grid.CanMove()
}

// ReachedGoal is true once a 2048 tile is on the board.
func (b *Board) ReachedGoal() bool {
	for i := 0; i < NumFields; i++ {
		if b.grid.Field(i) == GoalRank {
			return true
		}
	}
	return false
}

// HighestTile returns the value of the largest tile, or 0 on an empty grid.
func (b *Board) HighestTile() int {
	r := b.grid.HighestRank()
	if r == 0 {
		return 0
	}
	return 1 << r
}

func (b *Board) String() string {
	return b.grid.BitString()
}

func (b *Board) ToDisplayText() string {
	return b.grid.ToDisplayText() + "Score: " + strconv.Itoa(b.score) + "\n"
}
