package automatic

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/domino14/mc2048/move"
	"github.com/domino14/mc2048/position"
	"github.com/domino14/mc2048/stats"
)

// AnalyzeLogFile analyzes a move log written by StartGames and spits out
// statistics on final scores and on how often each direction was played.
func AnalyzeLogFile(filepath string) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	return analyzeLog(file)
}

func analyzeLog(in io.Reader) (string, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = 6

	// Record looks like:
	// gameID,turn,move,state,gained,score
	finalScores := map[int]int{}
	finalTiles := map[int]int{}
	var order []int
	var dirCounts [move.NumDirections]int
	var gained stats.Statistic
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if record[0] == "gameID" {
			// this is the header line
			continue
		}
		gameID, err := strconv.Atoi(record[0])
		if err != nil {
			return "", err
		}
		d, err := move.FromString(record[2])
		if err != nil {
			return "", err
		}
		grid, err := position.ParseGrid(record[3])
		if err != nil {
			return "", err
		}
		g, err := strconv.Atoi(record[4])
		if err != nil {
			return "", err
		}
		score, err := strconv.Atoi(record[5])
		if err != nil {
			return "", err
		}
		if _, ok := finalScores[gameID]; !ok {
			order = append(order, gameID)
		}
		finalScores[gameID] = score
		finalTiles[gameID] = 1 << grid.HighestRank()
		dirCounts[d]++
		gained.Push(float64(g))
	}

	var scores stats.Statistic
	reached := 0
	for _, id := range order {
		scores.Push(float64(finalScores[id]))
		if finalTiles[id] >= 2048 {
			reached++
		}
	}
	nmoves := gained.Iterations()
	out := fmt.Sprintf("Games played: %d\n", len(order))
	if len(order) > 0 {
		out += fmt.Sprintf("Mean Score: %.3f ± %.3f  Stdev: %.3f\n",
			scores.Mean(), stats.Z99*scores.StandardError(), scores.Stdev())
		out += fmt.Sprintf("Reached 2048: %d (%.3f%%)\n", reached,
			100.0*float64(reached)/float64(len(order)))
	}
	out += fmt.Sprintf("Moves played: %d, mean gain per move: %.3f\n", nmoves, gained.Mean())
	for _, d := range move.AllDirections {
		pct := 0.0
		if nmoves > 0 {
			pct = 100.0 * float64(dirCounts[d]) / float64(nmoves)
		}
		out += fmt.Sprintf("  %-6s %d (%.1f%%)\n", d, dirCounts[d], pct)
	}
	return out, nil
}
