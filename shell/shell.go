package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/domino14/mc2048/board"
	"github.com/domino14/mc2048/config"
	"github.com/domino14/mc2048/montecarlo"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errExit              = errors.New("exit requested")
)

type ShellController struct {
	l      *readline.Instance
	out    io.Writer
	config *config.Config

	options *ShellOptions
	ranker  *montecarlo.Ranker

	board       *board.Board
	history     []*board.Board
	gamesDealt  uint64

	gitVersion string
}

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

// NewShellController creates an interactive shell on the terminal.
func NewShellController(cfg *config.Config, gitVersion string) *ShellController {
	sc := newController(cfg, os.Stdout)
	sc.gitVersion = gitVersion
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mmc2048>\033[0m ",
		HistoryFile:     "/tmp/mc2048_readline.tmp",
		AutoComplete:    &ShellCompleter{},
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	sc.out = l.Stdout()
	return sc
}

// newController builds a shell without a terminal; output goes to out.
func newController(cfg *config.Config, out io.Writer) *ShellController {
	return &ShellController{
		out:     out,
		config:  cfg,
		options: NewShellOptions(cfg),
	}
}

func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := CmdOptions{}
	for idx := 1; idx < len(fields); idx++ {
		if strings.HasPrefix(fields[idx], "-") && len(fields[idx]) > 1 {
			if idx == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			opt := fields[idx][1:]
			options[opt] = append(options[opt], fields[idx+1])
			idx++
			continue
		}
		args = append(args, fields[idx])
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

// getRanker builds a ranker for the current options, or reuses the last one
// if the options did not change.
func (sc *ShellController) getRanker() (*montecarlo.Ranker, error) {
	o := sc.options
	if sc.ranker != nil && sc.ranker.SimsPerMove() == o.sims &&
		sc.ranker.Threads() == o.threads && sc.ranker.MaxPlies() == o.maxPlies {
		sc.applyRankerOptions(sc.ranker)
		return sc.ranker, nil
	}
	if sc.ranker != nil {
		sc.ranker.Close()
		sc.ranker = nil
	}
	r, err := montecarlo.NewRanker(o.sims, o.threads, o.maxPlies)
	if err != nil {
		return nil, err
	}
	sc.applyRankerOptions(r)
	sc.ranker = r
	return r, nil
}

func (sc *ShellController) applyRankerOptions(r *montecarlo.Ranker) {
	if sc.options.seed != 0 {
		r.SetSeed(sc.options.seed)
	} else {
		r.ClearSeed()
	}
	r.SetResampleFirstSpawn(sc.options.resample)
}

func (sc *ShellController) requireBoard() error {
	if sc.board == nil {
		return errors.New("please start a game first with the `new` or `load` command")
	}
	return nil
}

// play applies f to the current board, keeping the previous position for
// undo.
func (sc *ShellController) play(f func(b *board.Board) bool) bool {
	prev := sc.board.Copy()
	if !f(sc.board) {
		return false
	}
	sc.history = append(sc.history, prev)
	return true
}

func (sc *ShellController) dispatch(cmd *shellcmd) (*Response, error) {
	switch cmd.cmd {
	case "exit", "quit":
		return nil, errExit
	case "help":
		return sc.help(cmd)
	case "new":
		return sc.newGame(cmd)
	case "load":
		return sc.load(cmd)
	case "show":
		return sc.show(cmd)
	case "state":
		return sc.state(cmd)
	case "move", "l", "r", "u", "d", "left", "right", "up", "down":
		return sc.move(cmd)
	case "undo":
		return sc.undo(cmd)
	case "best":
		return sc.best(cmd)
	case "play":
		return sc.playBest(cmd)
	case "autoplay":
		return sc.autoplay(cmd)
	case "rollouts":
		return sc.rollouts(cmd)
	case "set":
		return sc.set(cmd)
	case "version":
		return msg(sc.gitVersion), nil
	default:
		log.Debug().Msgf("you said: %v", strconv.Quote(cmd.cmd))
		return nil, fmt.Errorf("unrecognized command %q; type `help` for a list of commands", cmd.cmd)
	}
}

// ProcessLine runs every ;-separated command in line. It returns errExit
// once an exit command is seen.
func (sc *ShellController) ProcessLine(line string) error {
	for _, part := range strings.Split(line, ";") {
		cmd, err := extractFields(strings.TrimSpace(part))
		if err == errNoData {
			continue
		}
		if err != nil {
			showMessage("Error: "+err.Error(), sc.out)
			continue
		}
		resp, err := sc.dispatch(cmd)
		if err == errExit {
			return err
		}
		if err != nil {
			showMessage("Error: "+err.Error(), sc.out)
			continue
		}
		if resp != nil && resp.message != "" {
			showMessage(resp.message, sc.out)
		}
	}
	return nil
}

// Execute runs the commands in line non-interactively.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	if err := sc.ProcessLine(line); err == errExit {
		sig <- syscall.SIGINT
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {

	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)

		if err := sc.ProcessLine(line); err == errExit {
			sig <- syscall.SIGINT
			break
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Cleanup releases the ranker's workers.
func (sc *ShellController) Cleanup() {
	if sc.ranker != nil {
		sc.ranker.Close()
		sc.ranker = nil
	}
}
