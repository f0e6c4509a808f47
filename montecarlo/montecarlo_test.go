package montecarlo

import (
	"bytes"
	"context"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/domino14/mc2048/board"
	"github.com/domino14/mc2048/move"
)

// stuckGrid has no legal move in any direction.
var stuckGrid = board.Pack([board.NumFields]uint8{
	1, 2, 1, 2,
	2, 1, 2, 1,
	1, 2, 1, 2,
	2, 1, 2, 1,
})

func newTestRanker(t *testing.T, sims, threads int) *Ranker {
	t.Helper()
	r, err := NewRanker(sims, threads, DefaultMaxPlies)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRolloutTerminalBoard(t *testing.T) {
	is := is.New(t)
	b := board.FromState(stuckGrid, 1234)
	is.Equal(Rollout(b, DefaultMaxPlies, board.NewSeededSource(1)), 1234)
}

func TestRolloutZeroPlies(t *testing.T) {
	is := is.New(t)
	b := board.FromState(board.Grid(0).WithField(0, 1).WithField(1, 1), 0)
	is.Equal(Rollout(b, 0, board.NewSeededSource(1)), 0)
}

func TestRolloutDeterministic(t *testing.T) {
	is := is.New(t)
	start := board.NewWithSource(board.NewSeededSource(42))
	a := Rollout(start, DefaultMaxPlies, board.NewSeededSource(7, 7))
	b := Rollout(start, DefaultMaxPlies, board.NewSeededSource(7, 7))
	is.Equal(a, b)
	is.True(a > 0)
	// The start position is not modified.
	is.Equal(start.Score(), 0)
	is.Equal(start.Grid().EmptyFields(), board.NumFields-2)
}

func TestPlayoutEndsTheGame(t *testing.T) {
	is := is.New(t)
	rng := board.NewSeededSource(3)
	for i := 0; i < 20; i++ {
		g := board.NewWithSource(rng)
		score, plies := playout(g, DefaultMaxPlies, rng)
		is.True(g.IsGameOver())
		is.True(plies < DefaultMaxPlies)
		is.Equal(score, g.Score())
	}
}

func TestPlayoutRespectsCap(t *testing.T) {
	is := is.New(t)
	rng := board.NewSeededSource(4)
	g := board.NewWithSource(rng)
	_, plies := playout(g, 5, rng)
	is.Equal(plies, 5)
}

func TestSplitWork(t *testing.T) {
	is := is.New(t)
	is.Equal(splitWork(400, 20), []int{
		20, 20, 20, 20, 20, 20, 20, 20, 20, 20,
		20, 20, 20, 20, 20, 20, 20, 20, 20, 20})
	is.Equal(splitWork(10, 4), []int{3, 3, 2, 2})
	is.Equal(splitWork(2, 4), []int{1, 1, 0, 0})
}

func TestNewRankerValidation(t *testing.T) {
	is := is.New(t)
	_, err := NewRanker(0, 4, 10)
	is.Equal(err, ErrNoSimulations)
	_, err = NewRanker(10, 0, 10)
	is.Equal(err, ErrNoWorkers)
}

func TestRankTieGoesLeft(t *testing.T) {
	is := is.New(t)
	r := newTestRanker(t, 40, 4)
	b := board.FromState(stuckGrid, 500)

	ranking, err := r.Rank(context.Background(), b)
	is.NoErr(err)
	is.Equal(ranking.Best, move.Left)
	for _, rd := range ranking.Directions {
		is.True(!rd.Changed)
		is.Equal(rd.Rollouts, 40)
		is.Equal(rd.Total, int64(40*500))
	}
	_, ok := ranking.BestChanged()
	is.True(!ok)
}

func TestRankRunsEveryRollout(t *testing.T) {
	is := is.New(t)
	r := newTestRanker(t, 10, 4)
	b := board.NewWithSource(board.NewSeededSource(5))
	ranking, err := r.Rank(context.Background(), b)
	is.NoErr(err)
	is.Equal(len(ranking.Directions), move.NumDirections)
	for i, rd := range ranking.Directions {
		is.Equal(rd.Direction, move.AllDirections[i])
		is.Equal(rd.Rollouts, 10)
		is.True(rd.Total > 0)
	}
	is.Equal(ranking.Rollouts, uint64(40))
	is.True(ranking.Plies > 0)
}

func TestRankDoesNotMutateBoard(t *testing.T) {
	is := is.New(t)
	r := newTestRanker(t, 8, 2)
	b := board.NewWithSource(board.NewSeededSource(6))
	before := b.Copy()
	_, err := r.Rank(context.Background(), b)
	is.NoErr(err)
	is.True(b.Equal(before))
}

func TestRankDeterministicWithSeed(t *testing.T) {
	is := is.New(t)
	b := board.NewWithSource(board.NewSeededSource(11))
	b.MoveLeft()
	b.MoveUp()

	r1 := newTestRanker(t, 60, 3)
	r1.SetSeed(99)
	r2 := newTestRanker(t, 60, 3)
	r2.SetSeed(99)

	first, err := r1.Rank(context.Background(), b)
	is.NoErr(err)
	second, err := r2.Rank(context.Background(), b)
	is.NoErr(err)
	is.Equal(first.Best, second.Best)
	for i := range first.Directions {
		is.Equal(first.Directions[i].Total, second.Directions[i].Total)
	}
	// Scheduling does not matter either: rank again on the same ranker.
	third, err := r1.Rank(context.Background(), b)
	is.NoErr(err)
	for i := range first.Directions {
		is.Equal(first.Directions[i].Total, third.Directions[i].Total)
	}
}

func TestResampleFirstSpawn(t *testing.T) {
	is := is.New(t)
	r := newTestRanker(t, 20, 2)
	r.SetSeed(3)
	r.SetResampleFirstSpawn(true)
	b := board.NewWithSource(board.NewSeededSource(12))
	ranking, err := r.Rank(context.Background(), b)
	is.NoErr(err)
	for _, rd := range ranking.Directions {
		is.Equal(rd.Rollouts, 20)
	}
}

func TestRankCancelledContext(t *testing.T) {
	is := is.New(t)
	r := newTestRanker(t, 8, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Rank(ctx, board.New())
	is.Equal(err, context.Canceled)
}

func TestRankAfterClose(t *testing.T) {
	is := is.New(t)
	r, err := NewRanker(8, 2, 10)
	is.NoErr(err)
	is.NoErr(r.Close())
	_, err = r.Rank(context.Background(), board.New())
	is.True(err != nil)
}

func TestBestMove(t *testing.T) {
	is := is.New(t)
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())

	d, err := BestMove(ctx, board.FromState(stuckGrid, 8), 10, 2)
	is.NoErr(err)
	is.Equal(d, move.Left)

	g := board.Pack([board.NumFields]uint8{
		10, 10, 0, 0,
		1, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
	})
	d, err = BestMove(ctx, board.FromState(g, 0), 100, 4)
	is.NoErr(err)
	is.True(d.Valid())

	_, err = BestMove(ctx, board.New(), 0, 4)
	is.Equal(err, ErrNoSimulations)
}

func TestLogStream(t *testing.T) {
	is := is.New(t)
	r := newTestRanker(t, 4, 2)
	r.SetSeed(1)
	var buf bytes.Buffer
	r.SetLogStream(&buf)
	_, err := r.Rank(context.Background(), board.FromState(stuckGrid, 10))
	is.NoErr(err)

	var logged []struct {
		Best       string `yaml:"best"`
		Directions []struct {
			Direction string `yaml:"direction"`
			Total     int64  `yaml:"total"`
		} `yaml:"directions"`
	}
	is.NoErr(yaml.Unmarshal(buf.Bytes(), &logged))
	is.Equal(len(logged), 1)
	is.Equal(logged[0].Best, "left")
	is.Equal(len(logged[0].Directions), 4)
	is.Equal(logged[0].Directions[3].Direction, "down")
	is.Equal(logged[0].Directions[3].Total, int64(40))
}

func TestRankingHelpers(t *testing.T) {
	is := is.New(t)
	rk := &Ranking{Directions: []RankedDirection{
		{Direction: move.Left, Total: 10, Changed: false},
		{Direction: move.Right, Total: 30, Changed: true},
		{Direction: move.Up, Total: 30, Changed: true},
		{Direction: move.Down, Total: 20, Changed: true},
	}}
	rk.Best = pickBest(rk.Directions)
	is.Equal(rk.Best, move.Right)
	d, ok := rk.BestChanged()
	is.True(ok)
	is.Equal(d, move.Right)
	sorted := rk.Sorted()
	is.Equal(sorted[0].Direction, move.Right)
	is.Equal(sorted[1].Direction, move.Up)
	is.Equal(sorted[3].Direction, move.Left)
	is.Equal(rk.Get(move.Down).Total, int64(20))
	is.True(len(rk.String()) > 0)
}

func BenchmarkRollout(b *testing.B) {
	rng := board.NewSeededSource(1)
	start := board.NewWithSource(rng)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Rollout(start, DefaultMaxPlies, rng)
	}
}
