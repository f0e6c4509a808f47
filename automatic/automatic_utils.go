package automatic

// Data collection for automatic games.

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/domino14/mc2048/board"
	"github.com/domino14/mc2048/montecarlo"
	"github.com/domino14/mc2048/stats"
)

var (
	GamesCounter *expvar.Int
	IsPlaying    *expvar.Int
)

func init() {
	GamesCounter = expvar.NewInt("autoplayGames")
	IsPlaying = expvar.NewInt("autoplayIsPlaying")
}

const moveLogHeader = "gameID,turn,move,state,gained,score\n"

// NewBoardFunc returns the starting board of game i.
type NewBoardFunc func(i int) *board.Board

// SeededBoards starts game i from a board whose spawns come from a stream
// keyed by seed and i.
func SeededBoards(seed uint64) NewBoardFunc {
	return func(i int) *board.Board {
		return board.NewWithSource(board.NewSeededSource(seed, uint64(i)))
	}
}

// RandomBoards starts every game from an OS-seeded board.
func RandomBoards(int) *board.Board {
	return board.New()
}

// Summary aggregates game results.
type Summary struct {
	Results     []*GameResult `yaml:"results"`
	Games       int           `yaml:"games"`
	GoalReached int           `yaml:"goal_reached"`
	BestScore   int           `yaml:"best_score"`
	MeanScore   float64       `yaml:"mean_score"`
	StdevScore  float64       `yaml:"stdev_score"`
	MeanMoves   float64       `yaml:"mean_moves"`
	// HighestTiles counts games by the highest tile reached.
	HighestTiles map[int]int `yaml:"highest_tiles"`
}

func summarize(results []*GameResult) *Summary {
	s := &Summary{HighestTiles: map[int]int{}}
	var scores, moves stats.Statistic
	for _, r := range results {
		if r == nil {
			continue
		}
		s.Results = append(s.Results, r)
		s.Games++
		scores.Push(float64(r.Score))
		moves.Push(float64(r.Moves))
		s.HighestTiles[r.HighestTile]++
		if r.ReachedGoal {
			s.GoalReached++
		}
		if r.Score > s.BestScore {
			s.BestScore = r.Score
		}
	}
	s.MeanScore = scores.Mean()
	s.StdevScore = scores.Stdev()
	s.MeanMoves = moves.Mean()
	return s
}

func (s *Summary) String() string {
	var ss strings.Builder
	fmt.Fprintf(&ss, "Games: %d\n", s.Games)
	fmt.Fprintf(&ss, "Score: mean %.1f, stdev %.1f, best %d\n", s.MeanScore, s.StdevScore, s.BestScore)
	fmt.Fprintf(&ss, "Moves per game: %.1f\n", s.MeanMoves)
	fmt.Fprintf(&ss, "Reached 2048: %d/%d\n", s.GoalReached, s.Games)
	tiles := make([]int, 0, len(s.HighestTiles))
	for t := range s.HighestTiles {
		tiles = append(tiles, t)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(tiles)))
	for _, t := range tiles {
		fmt.Fprintf(&ss, "  %6d: %d\n", t, s.HighestTiles[t])
	}
	return ss.String()
}

// WriteYAML writes the summary, including every game result, to w.
func (s *Summary) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(s)
}

// PlayGames plays numGames games, at most parallel at a time, all sharing
// r's ranker. It returns the summary of every game that was started, and
// the first error. An interrupted game is still counted.
func (r *GameRunner) PlayGames(ctx context.Context, numGames, parallel int,
	newBoard NewBoardFunc) (*Summary, error) {

	if parallel < 1 {
		parallel = 1
	}
	logger := zerolog.Ctx(ctx)
	logger.Debug().Msgf("Starting %v games, %v at a time", numGames, parallel)

	results := make([]*GameResult, numGames)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

gameLoop:
	for i := 0; i < numGames; i++ {
		select {
		case <-gctx.Done():
			logger.Info().Msg("Got stop signal, exiting soon...")
			break gameLoop
		default:
		}
		g.Go(func() error {
			IsPlaying.Add(1)
			defer IsPlaying.Add(-1)
			res, err := r.PlayGame(gctx, i, newBoard(i))
			results[i] = res
			GamesCounter.Add(1)
			return err
		})
	}
	err := g.Wait()
	s := summarize(results)
	logger.Info().Int("games", s.Games).Float64("mean-score", s.MeanScore).
		Int("best-score", s.BestScore).Int("goal-reached", s.GoalReached).Msg("autoplay-ended")
	return s, err
}

// StartGames plays numGames games and writes a CSV line per move to
// outputFilename, if given. It refuses to start while another batch is
// playing.
func StartGames(ctx context.Context, ranker *montecarlo.Ranker, numGames, parallel int,
	newBoard NewBoardFunc, outputFilename string) (*Summary, error) {

	if IsPlaying.Value() > 0 {
		return nil, errors.New("games are already being played, please wait till complete")
	}
	GamesCounter.Set(0)

	if outputFilename == "" {
		return NewGameRunner(ranker, nil).PlayGames(ctx, numGames, parallel, newBoard)
	}

	logfile, err := os.Create(outputFilename)
	if err != nil {
		return nil, err
	}
	logChan := make(chan string, 100)
	loggerDone := make(chan struct{})
	go func() {
		defer close(loggerDone)
		logfile.WriteString(moveLogHeader)
		for msg := range logChan {
			logfile.WriteString(msg)
		}
		if err := logfile.Close(); err != nil {
			log.Err(err).Msg("closing-move-log")
		}
		log.Debug().Msg("Exiting move logger goroutine!")
	}()

	s, err := NewGameRunner(ranker, logChan).PlayGames(ctx, numGames, parallel, newBoard)
	close(logChan)
	<-loggerDone
	return s, err
}
