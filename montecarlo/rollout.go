package montecarlo

import (
	"github.com/domino14/mc2048/board"
	"github.com/domino14/mc2048/move"
)

// DefaultMaxPlies caps a single rollout. Random games end long before this.
const DefaultMaxPlies = 2000

// Rollout plays uniformly random directions from a copy of start until the
// game is over or maxPlies turns have been used, and returns the final
// score. A direction that changes nothing still uses up its turn. All
// randomness, including the spawned tiles, comes from rng, so a fixed rng
// stream and start position give a fixed result.
func Rollout(start *board.Board, maxPlies int, rng board.RandSource) int {
	score, _ := playout(start.CopyWithSource(rng), maxPlies, rng)
	return score
}

// playout mutates b and also returns the number of turns taken.
func playout(b *board.Board, maxPlies int, rng board.RandSource) (int, int) {
	ply := 0
	for ; ply < maxPlies && !b.IsGameOver(); ply++ {
		b.MakeMove(move.Direction(rng.Intn(move.NumDirections)))
	}
	return b.Score(), ply
}
