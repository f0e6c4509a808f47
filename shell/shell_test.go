package shell

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/mc2048/config"
)

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"autoplay -file /path/to/log.txt",
			&shellcmd{"autoplay", nil, CmdOptions{"file": {"/path/to/log.txt"}}},
			nil},
		{"move left",
			&shellcmd{"move", []string{"left"}, CmdOptions{}},
			nil},
		{"autoplay -games 5 -file 'my log.csv' ",
			&shellcmd{"autoplay", nil,
				CmdOptions{"games": {"5"}, "file": {"my log.csv"}}},
			nil,
		},
		{"rollouts -n", nil, errWrongOptionSyntax},
	}
	for _, tc := range cases {
		cmd, err := extractFields(tc.line)
		is.Equal(cmd, tc.expCmd)
		is.Equal(err, tc.expErr)
	}
}

func newTestShell(t *testing.T) (*ShellController, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigSimsPerMove, 8)
	cfg.Set(config.ConfigThreads, 2)
	cfg.Set(config.ConfigMaxPlies, 50)
	cfg.Set(config.ConfigSeed, 77)
	var out bytes.Buffer
	sc := newController(cfg, &out)
	t.Cleanup(sc.Cleanup)
	return sc, &out
}

const twoTwos = "0000000000000000000000000000000000000000000000000000000000010001"

func TestLoadMoveUndo(t *testing.T) {
	is := is.New(t)
	sc, out := newTestShell(t)

	is.NoErr(sc.ProcessLine("load " + twoTwos + " 0"))
	is.Equal(sc.board.Grid().Field(0), uint8(1))
	is.Equal(sc.board.Grid().Field(1), uint8(1))

	out.Reset()
	is.NoErr(sc.ProcessLine("l"))
	is.Equal(sc.board.Score(), 4)
	is.Equal(sc.board.Grid().Field(0), uint8(2))
	is.Equal(len(sc.history), 1)
	is.True(strings.Contains(out.String(), "Score: 4"))

	out.Reset()
	is.NoErr(sc.ProcessLine("undo"))
	is.Equal(sc.board.Score(), 0)
	is.Equal(len(sc.history), 0)

	out.Reset()
	is.NoErr(sc.ProcessLine("move up"))
	is.True(strings.Contains(out.String(), "up does not change the board"))
}

func TestErrorsAreShown(t *testing.T) {
	is := is.New(t)
	sc, out := newTestShell(t)

	is.NoErr(sc.ProcessLine("show"))
	is.True(strings.Contains(out.String(), "please start a game first"))

	out.Reset()
	is.NoErr(sc.ProcessLine("load 0101"))
	is.True(strings.Contains(out.String(), "64 characters"))

	out.Reset()
	is.NoErr(sc.ProcessLine("frobnicate"))
	is.True(strings.Contains(out.String(), "unrecognized command"))

	is.Equal(sc.ProcessLine("new; exit; show"), errExit)
}

func TestBestAndPlay(t *testing.T) {
	is := is.New(t)
	sc, out := newTestShell(t)

	is.NoErr(sc.ProcessLine("new"))
	out.Reset()
	is.NoErr(sc.ProcessLine("best"))
	is.True(strings.Contains(out.String(), "Best: "))
	is.True(strings.Contains(out.String(), "99% confidence"))

	out.Reset()
	is.NoErr(sc.ProcessLine("best -yaml true"))
	is.True(strings.Contains(out.String(), "directions:"))

	is.NoErr(sc.ProcessLine("play 3"))
	is.Equal(len(sc.history), 3)
}

func TestSet(t *testing.T) {
	is := is.New(t)
	sc, out := newTestShell(t)

	is.NoErr(sc.ProcessLine("set sims 12"))
	is.Equal(sc.options.sims, 12)
	is.NoErr(sc.ProcessLine("set seed random"))
	is.Equal(sc.options.seed, uint64(0))

	out.Reset()
	is.NoErr(sc.ProcessLine("set threads 0"))
	is.True(strings.Contains(out.String(), "at least 1"))
	is.Equal(sc.options.threads, 2)

	out.Reset()
	is.NoErr(sc.ProcessLine("set"))
	is.True(strings.Contains(out.String(), "sims: 12"))
	is.True(strings.Contains(out.String(), "seed: random"))

	// A changed setting rebuilds the ranker.
	r, err := sc.getRanker()
	is.NoErr(err)
	is.Equal(r.SimsPerMove(), 12)
	is.NoErr(sc.ProcessLine("set sims 5"))
	r2, err := sc.getRanker()
	is.NoErr(err)
	is.Equal(r2.SimsPerMove(), 5)
}

func TestRollouts(t *testing.T) {
	is := is.New(t)
	sc, out := newTestShell(t)
	is.NoErr(sc.ProcessLine("new"))
	out.Reset()
	is.NoErr(sc.ProcessLine("rollouts -n 30 -dir left"))
	is.True(strings.Contains(out.String(), "Rollouts after left (30 games)"))
	is.True(strings.Contains(out.String(), "Mean "))
}

func TestAutoplay(t *testing.T) {
	is := is.New(t)
	sc, out := newTestShell(t)
	is.NoErr(sc.ProcessLine("set sims 2; set maxplies 10"))
	out.Reset()
	is.NoErr(sc.ProcessLine("autoplay -games 2"))
	is.True(strings.Contains(out.String(), "Games: 2"))
}

func TestHelp(t *testing.T) {
	is := is.New(t)
	sc, out := newTestShell(t)
	is.NoErr(sc.ProcessLine("help"))
	is.True(strings.Contains(out.String(), "autoplay"))
	out.Reset()
	is.NoErr(sc.ProcessLine("help best"))
	is.True(strings.Contains(out.String(), "99% confidence"))
	out.Reset()
	is.NoErr(sc.ProcessLine("help nothing"))
	is.True(strings.Contains(out.String(), "no help text"))
}

func TestCompleter(t *testing.T) {
	is := is.New(t)
	c := &ShellCompleter{}
	line := []rune("move ri")
	got, n := c.Do(line, len(line))
	is.Equal(n, 2)
	is.Equal(len(got), 1)
	is.Equal(string(got[0]), "ght")

	line = []rune("au")
	got, _ = c.Do(line, len(line))
	is.Equal(string(got[0]), "toplay")
}
