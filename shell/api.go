package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
	"lukechampine.com/frand"

	"github.com/domino14/mc2048/automatic"
	"github.com/domino14/mc2048/board"
	"github.com/domino14/mc2048/config"
	"github.com/domino14/mc2048/montecarlo"
	"github.com/domino14/mc2048/move"
	"github.com/domino14/mc2048/position"
	"github.com/domino14/mc2048/stats"
)

const histogramBins = 15

type Response struct {
	message string
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) Int(key string) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) Bool(key string) bool {
	v := c[key]
	if len(v) == 0 {
		return false
	}
	return strings.ToLower(v[0]) == "true"
}

func msg(message string) *Response {
	return &Response{message: message}
}

// ShellOptions are the ranker settings the shell uses. They start out from
// the config and can be changed with `set`.
type ShellOptions struct {
	sims     int
	threads  int
	maxPlies int
	seed     uint64
	resample bool
	parallel int
}

func NewShellOptions(cfg *config.Config) *ShellOptions {
	return &ShellOptions{
		sims:     cfg.GetInt(config.ConfigSimsPerMove),
		threads:  cfg.GetInt(config.ConfigThreads),
		maxPlies: cfg.GetInt(config.ConfigMaxPlies),
		seed:     cfg.GetUint64(config.ConfigSeed),
		resample: cfg.GetBool(config.ConfigResampleFirstSpawn),
		parallel: 1,
	}
}

var optionKeys = []string{"sims", "threads", "maxplies", "seed", "resample", "parallel"}

func (opts *ShellOptions) Show(key string) (bool, string) {
	switch key {
	case "sims":
		return true, strconv.Itoa(opts.sims)
	case "threads":
		return true, strconv.Itoa(opts.threads)
	case "maxplies":
		return true, strconv.Itoa(opts.maxPlies)
	case "seed":
		if opts.seed == 0 {
			return true, "random"
		}
		return true, strconv.FormatUint(opts.seed, 10)
	case "resample":
		return true, strconv.FormatBool(opts.resample)
	case "parallel":
		return true, strconv.Itoa(opts.parallel)
	default:
		return false, "No such option: " + key
	}
}

func (opts *ShellOptions) ToDisplayText() string {
	out := strings.Builder{}
	out.WriteString("Settings:\n")
	for _, key := range optionKeys {
		_, val := opts.Show(key)
		out.WriteString("  " + key + ": ")
		out.WriteString(val + "\n")
	}
	return out.String()
}

// Set changes one option and returns its new display value.
func (opts *ShellOptions) Set(key string, value string) (string, error) {
	atLeastOne := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		if n < 1 {
			return fmt.Errorf("%s must be at least 1", key)
		}
		*dst = n
		return nil
	}
	var err error
	switch key {
	case "sims":
		err = atLeastOne(&opts.sims)
	case "threads":
		err = atLeastOne(&opts.threads)
	case "parallel":
		err = atLeastOne(&opts.parallel)
	case "maxplies":
		var n int
		n, err = strconv.Atoi(value)
		if err == nil && n < 0 {
			err = errors.New("maxplies must not be negative")
		}
		if err == nil {
			opts.maxPlies = n
		}
	case "seed":
		if value == "random" {
			opts.seed = 0
		} else {
			opts.seed, err = strconv.ParseUint(value, 10, 64)
		}
	case "resample":
		opts.resample, err = strconv.ParseBool(value)
	default:
		return "", errors.New("option " + key + " not recognized")
	}
	if err != nil {
		return "", err
	}
	_, val := opts.Show(key)
	return val, nil
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return msg(sc.options.ToDisplayText()), nil
	}
	opt := cmd.args[0]
	if len(cmd.args) == 1 {
		_, val := sc.options.Show(opt)
		return msg(val), nil
	}
	ret, err := sc.options.Set(opt, cmd.args[1])
	if err != nil {
		return nil, err
	}
	return msg("set " + opt + " to " + ret), nil
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	var sb strings.Builder
	if len(cmd.args) == 0 {
		usage(&sb, "standard")
	} else {
		usageTopic(&sb, cmd.args[0])
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	seed := sc.options.seed
	if s := cmd.options.String("seed"); s != "" {
		var err error
		if seed, err = strconv.ParseUint(s, 10, 64); err != nil {
			return nil, err
		}
	}
	if seed != 0 {
		sc.board = board.NewWithSource(board.NewSeededSource(seed, sc.gamesDealt))
	} else {
		sc.board = board.New()
	}
	sc.gamesDealt++
	sc.history = nil
	return msg(sc.board.ToDisplayText()), nil
}

func (sc *ShellController) load(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: load <64-character state> [score]")
	}
	grid, err := position.ParseGrid(cmd.args[0])
	if err != nil {
		return nil, err
	}
	score := 0
	if len(cmd.args) > 1 {
		if score, err = strconv.Atoi(cmd.args[1]); err != nil {
			return nil, err
		}
		if score < 0 {
			return nil, position.ErrNegativeScore
		}
	}
	sc.board = board.FromState(grid, score)
	sc.history = nil
	return msg(sc.board.ToDisplayText()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	if err := sc.requireBoard(); err != nil {
		return nil, err
	}
	out := sc.board.ToDisplayText()
	if sc.board.IsGameOver() {
		out += "Game over.\n"
	}
	return msg(strings.TrimRight(out, "\n")), nil
}

func (sc *ShellController) state(cmd *shellcmd) (*Response, error) {
	if err := sc.requireBoard(); err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("%s %d", sc.board.String(), sc.board.Score())), nil
}

func (sc *ShellController) move(cmd *shellcmd) (*Response, error) {
	if err := sc.requireBoard(); err != nil {
		return nil, err
	}
	name := cmd.cmd
	if name == "move" {
		if len(cmd.args) == 0 {
			return nil, errors.New("usage: move <left|right|up|down>")
		}
		name = cmd.args[0]
	}
	d, err := move.FromString(name)
	if err != nil {
		return nil, err
	}
	if !sc.play(func(b *board.Board) bool { return b.MakeMove(d) }) {
		return msg(fmt.Sprintf("%v does not change the board", d)), nil
	}
	return sc.show(cmd)
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if len(sc.history) == 0 {
		return nil, errors.New("nothing to undo")
	}
	sc.board = sc.history[len(sc.history)-1]
	sc.history = sc.history[:len(sc.history)-1]
	return sc.show(cmd)
}

func (sc *ShellController) rank(ctx context.Context) (*montecarlo.Ranking, error) {
	r, err := sc.getRanker()
	if err != nil {
		return nil, err
	}
	return r.Rank(ctx, sc.board)
}

func (sc *ShellController) best(cmd *shellcmd) (*Response, error) {
	if err := sc.requireBoard(); err != nil {
		return nil, err
	}
	ranking, err := sc.rank(context.Background())
	if err != nil {
		return nil, err
	}
	if cmd.options.Bool("yaml") {
		out, err := yaml.Marshal(ranking)
		if err != nil {
			return nil, err
		}
		return msg(strings.TrimRight(string(out), "\n")), nil
	}
	return msg(strings.TrimRight(ranking.String(), "\n")), nil
}

// playBest plays the ranker's choice n times, or until the game ends.
func (sc *ShellController) playBest(cmd *shellcmd) (*Response, error) {
	if err := sc.requireBoard(); err != nil {
		return nil, err
	}
	n := 1
	if len(cmd.args) > 0 {
		var err error
		if n, err = strconv.Atoi(cmd.args[0]); err != nil {
			return nil, err
		}
	}
	var played []string
	for i := 0; i < n && !sc.board.IsGameOver(); i++ {
		ranking, err := sc.rank(context.Background())
		if err != nil {
			return nil, err
		}
		d := ranking.Best
		if !ranking.Get(d).Changed {
			d, _ = ranking.BestChanged()
		}
		sc.play(func(b *board.Board) bool { return b.MakeMove(d) })
		played = append(played, d.String())
	}
	resp, err := sc.show(cmd)
	if err != nil {
		return nil, err
	}
	resp.message = "Played: " + strings.Join(played, " ") + "\n" + resp.message
	return resp, nil
}

func (sc *ShellController) autoplay(cmd *shellcmd) (*Response, error) {
	games, err := cmd.options.IntDefault("games", sc.config.GetInt(config.ConfigAutoplayGames))
	if err != nil {
		return nil, err
	}
	parallel, err := cmd.options.IntDefault("parallel", sc.options.parallel)
	if err != nil {
		return nil, err
	}
	logfile := cmd.options.String("file")
	if logfile == "" {
		logfile = sc.config.GetString(config.ConfigAutoplayLog)
	}
	r, err := sc.getRanker()
	if err != nil {
		return nil, err
	}
	newBoard := automatic.RandomBoards
	if sc.options.seed != 0 {
		newBoard = automatic.SeededBoards(sc.options.seed)
	}
	log.Info().Int("games", games).Int("parallel", parallel).Str("file", logfile).Msg("autoplay-started")
	summary, err := automatic.StartGames(context.Background(), r, games, parallel, newBoard, logfile)
	if err != nil {
		return nil, err
	}
	return msg(strings.TrimRight(summary.String(), "\n")), nil
}

// rollouts runs random games from the current position, or from the
// position after -dir is played, and shows how their scores are spread.
func (sc *ShellController) rollouts(cmd *shellcmd) (*Response, error) {
	if err := sc.requireBoard(); err != nil {
		return nil, err
	}
	n, err := cmd.options.IntDefault("n", sc.options.sims)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, errors.New("n must be at least 1")
	}
	var rng board.RandSource = frand.New()
	if sc.options.seed != 0 {
		rng = board.NewSeededSource(sc.options.seed)
	}
	start := sc.board.CopyWithSource(rng)
	header := "Rollouts from the current position"
	if ds := cmd.options.String("dir"); ds != "" {
		d, err := move.FromString(ds)
		if err != nil {
			return nil, err
		}
		start.MakeMove(d)
		header = "Rollouts after " + d.String()
	}

	scores := make([]float64, n)
	var st stats.Statistic
	for i := range scores {
		scores[i] = float64(montecarlo.Rollout(start, sc.options.maxPlies, rng))
		st.Push(scores[i])
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d games):\n", header, n)
	fmt.Fprintf(&sb, "Mean %.2f ± %.2f, stdev %.2f\n", st.Mean(), stats.Z99*st.StandardError(), st.Stdev())
	if st.Stdev() == 0 {
		fmt.Fprintf(&sb, "Every rollout scored %d\n", int(st.Mean()))
	} else if err := histogram.Fprint(&sb, histogram.Hist(histogramBins, scores), histogram.Linear(40)); err != nil {
		return nil, err
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}
