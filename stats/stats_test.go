package stats

import (
	"math"
	"testing"

	"github.com/matryer/is"
)

func TestRunningStat(t *testing.T) {
	is := is.New(t)
	type tc struct {
		scores []int
		mean   float64
		stdev  float64
	}
	cases := []tc{
		{[]int{10, 12, 23, 23, 16, 23, 21, 16}, 18, 5.2372293656638},
		{[]int{14, 35, 71, 124, 10, 24, 55, 33, 87, 19}, 47.2, 36.937785531891},
		{[]int{1}, 1, 0},
		{[]int{}, 0, 0},
		{[]int{1, 1}, 1, 0},
	}
	for _, c := range cases {
		s := &Statistic{}
		for _, score := range c.scores {
			s.Push(float64(score))
		}
		is.True(FuzzyEqual(s.Mean(), c.mean))
		is.True(FuzzyEqual(s.Stdev(), c.stdev))

	}
}

func TestMerge(t *testing.T) {
	is := is.New(t)
	all := []float64{14, 35, 71, 124, 10, 24, 55, 33, 87, 19, 3}
	for split := 0; split <= len(all); split++ {
		whole, left, right := &Statistic{}, &Statistic{}, &Statistic{}
		for i, v := range all {
			whole.Push(v)
			if i < split {
				left.Push(v)
			} else {
				right.Push(v)
			}
		}
		left.Merge(right)
		is.Equal(left.Iterations(), whole.Iterations())
		is.True(FuzzyEqual(left.Mean(), whole.Mean()))
		is.True(FuzzyEqual(left.Stdev(), whole.Stdev()))
		is.Equal(left.Last(), whole.Last())

		// Pushing after a merge keeps the running values consistent.
		left.Push(42)
		whole.Push(42)
		is.True(FuzzyEqual(left.Mean(), whole.Mean()))
		is.True(FuzzyEqual(left.Stdev(), whole.Stdev()))
	}
}

func TestZVal(t *testing.T) {
	is := is.New(t)
	is.True(math.Abs(Z95-1.959964) < 1e-5)
	is.True(math.Abs(Z99-2.575829) < 1e-5)
	is.True(Z98 > Z95 && Z98 < Z99)
}
