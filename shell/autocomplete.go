package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
)

// ShellCompleter implements readline.AutoCompleter.
type ShellCompleter struct{}

var commandNames = []string{
	"autoplay", "best", "exit", "help", "load", "move", "new", "play",
	"rollouts", "set", "show", "state", "undo", "version",
}

var directionNames = []string{"left", "right", "up", "down"}

var boolValues = []string{"true", "false"}

// Do implements the readline.AutoCompleter interface.
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		// An unterminated quote; fall back to simple space splitting.
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	if !endsWithSpace && len(fields) > 0 {
		prefix = fields[len(fields)-1]
	}
	var lastComplete string
	if endsWithSpace && len(fields) > 0 {
		lastComplete = fields[len(fields)-1]
	} else if len(fields) > 1 {
		lastComplete = fields[len(fields)-2]
	}

	var completions []string
	switch {
	case len(fields) == 0 || (len(fields) == 1 && !endsWithSpace):
		completions = commandNames
	case lastComplete == "-dir" || lastComplete == "move":
		completions = directionNames
	case lastComplete == "-yaml" || lastComplete == "resample":
		completions = boolValues
	case lastComplete == "set":
		completions = optionKeys
	case lastComplete == "help":
		completions = commandNames
	}

	var out [][]rune
	for _, cand := range completions {
		if strings.HasPrefix(cand, prefix) {
			out = append(out, []rune(cand[len(prefix):]))
		}
	}
	return out, len([]rune(prefix))
}
