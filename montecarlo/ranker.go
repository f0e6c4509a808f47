// Package montecarlo picks 2048 moves with flat Monte Carlo search: every
// direction is played once, then many random games are rolled out from
// the result and the direction with the best total score wins.
package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"lukechampine.com/frand"

	"github.com/domino14/mc2048/board"
	"github.com/domino14/mc2048/move"
	"github.com/domino14/mc2048/stats"
	"github.com/domino14/mc2048/worker"
)

// DefaultSimsPerMove is the number of rollouts per direction used by the
// move server.
const DefaultSimsPerMove = 400

var (
	ErrNoSimulations = errors.New("simulations per move must be at least 1")
	ErrNoWorkers     = errors.New("worker count must be at least 1")
)

// partial is what one worker task hands back: the summed score of its
// share of rollouts, plus running stats for reporting.
type partial struct {
	total int64
	plies uint64
	stat  stats.Statistic
}

// Ranker ranks the four directions of a position. Its worker pool is
// reused across calls; Close releases it. A Ranker may rank several
// positions concurrently, but its setters must not be called while it is
// ranking.
type Ranker struct {
	pool        *worker.Pool
	threads     int
	simsPerMove int
	maxPlies    int

	seeded bool
	seed   uint64

	resampleFirstSpawn bool
	logStream          io.Writer
}

// NewRanker creates a ranker that runs simsPerMove rollouts per direction,
// split across threads worker tasks, each capped at maxPlies turns.
func NewRanker(simsPerMove, threads, maxPlies int) (*Ranker, error) {
	if simsPerMove < 1 {
		return nil, ErrNoSimulations
	}
	if threads < 1 {
		return nil, ErrNoWorkers
	}
	if maxPlies < 0 {
		maxPlies = 0
	}
	return &Ranker{
		pool:        worker.NewPool(threads),
		threads:     threads,
		simsPerMove: simsPerMove,
		maxPlies:    maxPlies,
	}, nil
}

func (r *Ranker) Close() error {
	return r.pool.Close()
}

func (r *Ranker) Threads() int {
	return r.threads
}

func (r *Ranker) SimsPerMove() int {
	return r.simsPerMove
}

func (r *Ranker) MaxPlies() int {
	return r.maxPlies
}

// SetSeed makes every ranking reproducible: task sources are derived from
// seed instead of OS entropy.
func (r *Ranker) SetSeed(seed uint64) {
	r.seeded = true
	r.seed = seed
}

// ClearSeed goes back to OS entropy.
func (r *Ranker) ClearSeed() {
	r.seeded = false
}

// SetResampleFirstSpawn makes every rollout apply the candidate move to its
// own copy of the position, so the tile spawned by the candidate move is
// drawn anew for each rollout. By default all rollouts of a direction start
// from one shared successor position.
func (r *Ranker) SetResampleFirstSpawn(b bool) {
	r.resampleFirstSpawn = b
}

// SetLogStream sets a writer that receives every ranking as a YAML document.
func (r *Ranker) SetLogStream(w io.Writer) {
	r.logStream = w
}

// BestMove returns the highest ranked direction for b.
func (r *Ranker) BestMove(ctx context.Context, b *board.Board) (move.Direction, error) {
	ranking, err := r.Rank(ctx, b)
	if err != nil {
		return move.Left, err
	}
	return ranking.Best, nil
}

// Rank plays each direction on a copy of b and rolls out simsPerMove random
// games from it, spread over the worker pool. It blocks until every task
// has finished. b itself is never modified.
func (r *Ranker) Rank(ctx context.Context, b *board.Board) (*Ranking, error) {
	logger := zerolog.Ctx(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tstart := time.Now()
	start := b.Copy()
	shares := splitWork(r.simsPerMove, r.threads)

	logger.Debug().Str("grid", start.String()).Int("score", start.Score()).
		Int("sims", r.simsPerMove).Int("threads", r.threads).Msg("rank-started")

	ranking := &Ranking{Directions: make([]RankedDirection, move.NumDirections)}
	futures := make([][]*worker.Future[partial], move.NumDirections)

	for _, d := range move.AllDirections {
		successor := start.CopyWithSource(r.newSource(d, successorStream))
		ranking.Directions[d] = RankedDirection{
			Direction: d,
			Changed:   successor.MakeMove(d),
		}
		futures[d] = make([]*worker.Future[partial], len(shares))
		for t, n := range shares {
			rng := r.newSource(d, t)
			futures[d][t] = worker.Submit(r.pool, func() (partial, error) {
				return r.runShare(start, successor, d, n, rng), nil
			})
		}
	}

	for _, d := range move.AllDirections {
		rd := &ranking.Directions[d]
		for t, f := range futures[d] {
			p, err := f.Get()
			if err != nil {
				return nil, fmt.Errorf("rollout task %d for %v: %w", t, d, err)
			}
			rd.add(p)
			ranking.Plies += p.plies
		}
		rd.finish()
		ranking.Rollouts += uint64(rd.Rollouts)
		logger.Debug().Stringer("direction", d).Bool("changed", rd.Changed).
			Int64("total", rd.Total).Float64("mean", rd.Mean).Msg("direction-ranked")
	}
	ranking.Best = pickBest(ranking.Directions)
	ranking.Elapsed = time.Since(tstart)

	secs := ranking.Elapsed.Seconds()
	logger.Info().Stringer("best", ranking.Best).Uint64("rollouts", ranking.Rollouts).
		Float64("rps", float64(ranking.Rollouts)/secs).
		Float64("nps", float64(ranking.Plies)/secs).
		Dur("elapsed", ranking.Elapsed).Msg("rank-ended")

	if r.logStream != nil {
		out, err := yaml.Marshal([]*Ranking{ranking})
		if err != nil {
			logger.Error().Err(err).Msg("marshalling ranking")
			return nil, err
		}
		if _, err := r.logStream.Write(out); err != nil {
			logger.Error().Err(err).Msg("writing ranking log")
		}
	}
	return ranking, nil
}

// runShare runs n rollouts for direction d. Each rollout gets a fresh copy
// of the successor position (or of start, with the move re-applied).
func (r *Ranker) runShare(start, successor *board.Board, d move.Direction, n int,
	rng board.RandSource) partial {

	var p partial
	for i := 0; i < n; i++ {
		var g *board.Board
		if r.resampleFirstSpawn {
			g = start.CopyWithSource(rng)
			g.MakeMove(d)
		} else {
			g = successor.CopyWithSource(rng)
		}
		score, plies := playout(g, r.maxPlies, rng)
		p.total += int64(score)
		p.plies += uint64(plies)
		p.stat.Push(float64(score))
	}
	return p
}

// successorStream keys the source used to play the candidate move itself.
const successorStream = -1

func (r *Ranker) newSource(d move.Direction, stream int) board.RandSource {
	if !r.seeded {
		return frand.New()
	}
	return board.NewSeededSource(r.seed, uint64(d), uint64(stream+1))
}

// splitWork divides sims rollouts over threads tasks as evenly as possible.
// The first sims%threads tasks run one extra rollout.
func splitWork(sims, threads int) []int {
	shares := make([]int, threads)
	for t := range shares {
		shares[t] = sims / threads
		if t < sims%threads {
			shares[t]++
		}
	}
	return shares
}

// BestMove ranks b once with a temporary pool of workers threads and
// returns the best direction.
func BestMove(ctx context.Context, b *board.Board, simsPerMove, workers int) (move.Direction, error) {
	r, err := NewRanker(simsPerMove, workers, DefaultMaxPlies)
	if err != nil {
		return move.Left, err
	}
	defer r.Close()
	return r.BestMove(ctx, b)
}
