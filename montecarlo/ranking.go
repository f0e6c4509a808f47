package montecarlo

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/domino14/mc2048/move"
	"github.com/domino14/mc2048/stats"
)

// RankedDirection holds the rollout results of one candidate direction.
type RankedDirection struct {
	Direction move.Direction `json:"direction" yaml:"direction"`
	// Changed is whether the candidate move altered the board. It is
	// informational; unchanged directions are ranked like any other.
	Changed  bool    `json:"changed" yaml:"changed"`
	Rollouts int     `json:"rollouts" yaml:"rollouts"`
	Total    int64   `json:"total" yaml:"total"`
	Mean     float64 `json:"mean" yaml:"mean"`
	Stdev    float64 `json:"stdev" yaml:"stdev"`
	// CI99 is the half-width of the 99% confidence interval of Mean.
	CI99 float64 `json:"ci99" yaml:"ci99"`

	stat stats.Statistic
}

// Ranking is the outcome of ranking every direction for one position.
type Ranking struct {
	Best       move.Direction    `json:"best" yaml:"best"`
	Directions []RankedDirection `json:"directions" yaml:"directions"`
	Rollouts   uint64            `json:"rollouts" yaml:"rollouts"`
	Plies      uint64            `json:"plies" yaml:"plies"`
	Elapsed    time.Duration     `json:"elapsed" yaml:"elapsed"`
}

func (rd *RankedDirection) add(p partial) {
	rd.Total += p.total
	rd.stat.Merge(&p.stat)
}

func (rd *RankedDirection) finish() {
	rd.Rollouts = rd.stat.Iterations()
	rd.Mean = rd.stat.Mean()
	rd.Stdev = rd.stat.Stdev()
	if rd.Rollouts > 0 {
		rd.CI99 = stats.Z99 * rd.stat.StandardError()
	}
}

// pickBest returns the direction with the strictly greatest total. Ties go
// to the direction listed first.
func pickBest(dirs []RankedDirection) move.Direction {
	return lo.MaxBy(dirs, func(a, b RankedDirection) bool {
		return a.Total > b.Total
	}).Direction
}

// Get returns the entry for direction d.
func (r *Ranking) Get(d move.Direction) RankedDirection {
	for _, rd := range r.Directions {
		if rd.Direction == d {
			return rd
		}
	}
	return RankedDirection{Direction: d}
}

// BestChanged returns the highest ranked direction whose move changed the
// board. ok is false if no direction did.
func (r *Ranking) BestChanged() (d move.Direction, ok bool) {
	changed := lo.Filter(r.Directions, func(rd RankedDirection, _ int) bool {
		return rd.Changed
	})
	if len(changed) == 0 {
		return r.Best, false
	}
	return pickBest(changed), true
}

// Sorted returns the directions ordered from best to worst.
func (r *Ranking) Sorted() []RankedDirection {
	sorted := make([]RankedDirection, len(r.Directions))
	copy(sorted, r.Directions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Total > sorted[j].Total
	})
	return sorted
}

func (r *Ranking) String() string {
	var ss strings.Builder
	fmt.Fprintf(&ss, "%-8s%-9s%-10s%-22s%-12s\n", "Move", "Changed", "Rollouts", "Mean", "Stdev")
	for _, rd := range r.Sorted() {
		changed := "yes"
		if !rd.Changed {
			changed = "no"
		}
		mean := fmt.Sprintf("%.2f±%.2f", rd.Mean, rd.CI99)
		fmt.Fprintf(&ss, "%-8s%-9s%-10d%-22s%-12.2f\n",
			rd.Direction, changed, rd.Rollouts, mean, rd.Stdev)
	}
	fmt.Fprintf(&ss, "Best: %s. Rollouts: %d, plies: %d, time: %v (intervals are 99%% confidence)\n",
		r.Best, r.Rollouts, r.Plies, r.Elapsed.Round(time.Millisecond))
	return ss.String()
}
