// Package automatic plays whole games of 2048 with the Monte Carlo ranker
// choosing every move, and collects the results.
package automatic

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/domino14/mc2048/board"
	"github.com/domino14/mc2048/montecarlo"
	"github.com/domino14/mc2048/move"
)

// GameResult describes one finished (or interrupted) game.
type GameResult struct {
	Game        int           `yaml:"game"`
	Score       int           `yaml:"score"`
	Moves       int           `yaml:"moves"`
	HighestTile int           `yaml:"highest_tile"`
	ReachedGoal bool          `yaml:"reached_goal"`
	Finished    bool          `yaml:"finished"`
	FinalState  string        `yaml:"final_state"`
	Elapsed     time.Duration `yaml:"elapsed"`
}

// GameRunner plays games with a shared ranker. If logchan is not nil, a
// CSV line is sent on it for every move played.
type GameRunner struct {
	ranker  *montecarlo.Ranker
	logchan chan string
}

// NewGameRunner just instantiates a game runner.
func NewGameRunner(ranker *montecarlo.Ranker, logchan chan string) *GameRunner {
	return &GameRunner{ranker: ranker, logchan: logchan}
}

// chooseMove returns the ranker's pick, unless that direction leaves the
// board as it is and another one does not. Otherwise a tie between no-op
// directions could stall the game forever.
func chooseMove(ranking *montecarlo.Ranking) move.Direction {
	if ranking.Get(ranking.Best).Changed {
		return ranking.Best
	}
	d, _ := ranking.BestChanged()
	return d
}

// PlayGame plays b to the end. It stops early, returning the result so far
// and the context error, if ctx is done between moves.
func (r *GameRunner) PlayGame(ctx context.Context, gameID int, b *board.Board) (*GameResult, error) {
	logger := zerolog.Ctx(ctx)
	tstart := time.Now()
	res := &GameResult{Game: gameID}

	var err error
	for !b.IsGameOver() {
		if err = ctx.Err(); err != nil {
			break
		}
		var ranking *montecarlo.Ranking
		ranking, err = r.ranker.Rank(ctx, b)
		if err != nil {
			err = fmt.Errorf("game %d, move %d: %w", gameID, res.Moves+1, err)
			break
		}
		d := chooseMove(ranking)
		before := b.Score()
		b.MakeMove(d)
		res.Moves++

		if r.logchan != nil {
			r.logchan <- fmt.Sprintf("%d,%d,%s,%s,%d,%d\n",
				gameID, res.Moves, d, b.String(), b.Score()-before, b.Score())
		}
	}

	res.Score = b.Score()
	res.HighestTile = b.HighestTile()
	res.ReachedGoal = b.ReachedGoal()
	res.Finished = b.IsGameOver()
	res.FinalState = b.String()
	res.Elapsed = time.Since(tstart)
	logger.Debug().Int("game", gameID).Int("score", res.Score).Int("moves", res.Moves).
		Int("highest", res.HighestTile).Bool("finished", res.Finished).Msg("game-ended")
	return res, err
}
