package board

import (
	"encoding/binary"

	"lukechampine.com/frand"
)

// RandSource is the randomness a Board draws its spawned tiles from.
// *frand.RNG satisfies it. Implementations need not be safe for concurrent
// use; a source belongs to one goroutine at a time.
type RandSource interface {
	Intn(n int) int
	Float64() float64
}

const (
	seededBufSize = 1024
	seededRounds  = 12
)

// NewSeededSource returns a reproducible source keyed by up to four words.
func NewSeededSource(words ...uint64) *frand.RNG {
	if len(words) > 4 {
		panic("at most four seed words are supported")
	}
	var seed [32]byte
	for i, w := range words {
		binary.LittleEndian.PutUint64(seed[8*i:], w)
	}
	return frand.NewCustom(seed[:], seededBufSize, seededRounds)
}
