// Package cooccur measures which products tend to leave stock around the
// same time. Exit dates are widened by one day in each direction so that
// shipments prepared overnight still count as simultaneous.
package cooccur

import (
	"math"
	"sort"
	"time"

	"github.com/stocklens/stocklens/internal/model"
)

// Matrix is a square product-by-product table. Cell (i, j), for a pivot i
// ranked above j, is the share of i's active days on which j was also
// active, rounded to four decimals. Only that direction is populated; the
// diagonal and the follower-to-pivot cells stay 0.
type Matrix struct {
	Products []string    `json:"products"`
	Matrix   [][]float64 `json:"matrix"`
}

// coverage is the cumulative exit share kept when ranking products; the
// long tail below it only adds noise to the table.
const coverage = 0.9

// Analyze builds the co-occurrence matrix for a set of exit events.
//
// Products are ranked by descending share of total exits, ties broken by
// designation, and truncated to the smallest prefix covering at least 90%
// of all exits. Each exit marks the product active on the event day plus
// the days immediately before and after. Days on which fewer than two
// ranked products are active carry no signal and are ignored entirely.
//
// Returns nil when fewer than two products survive the ranking.
func Analyze(exits []model.HistoryEvent) *Matrix {
	ranked := rankProducts(exits)
	if len(ranked) < 2 {
		return nil
	}
	index := make(map[string]int, len(ranked))
	for i, name := range ranked {
		index[name] = i
	}

	activeByDay := make(map[time.Time]map[int]struct{})
	for _, e := range exits {
		i, ok := index[e.Designation]
		if !ok {
			continue
		}
		day := dayOf(e.EventDate)
		for _, d := range []time.Time{day.AddDate(0, 0, -1), day, day.AddDate(0, 0, 1)} {
			set := activeByDay[d]
			if set == nil {
				set = make(map[int]struct{})
				activeByDay[d] = set
			}
			set[i] = struct{}{}
		}
	}

	totals := make([]int, len(ranked))
	pairs := make([][]int, len(ranked))
	for i := range pairs {
		pairs[i] = make([]int, len(ranked))
	}
	for _, set := range activeByDay {
		if len(set) < 2 {
			continue
		}
		present := make([]int, 0, len(set))
		for i := range set {
			present = append(present, i)
		}
		sort.Ints(present)
		for _, i := range present {
			totals[i]++
		}
		// Each pair is counted once, under its higher-ranked member.
		for a := 0; a < len(present); a++ {
			for b := a + 1; b < len(present); b++ {
				pairs[present[a]][present[b]]++
			}
		}
	}

	m := &Matrix{Products: ranked, Matrix: make([][]float64, len(ranked))}
	for i := range ranked {
		row := make([]float64, len(ranked))
		denom := totals[i]
		if denom < 1 {
			denom = 1
		}
		for j := i + 1; j < len(ranked); j++ {
			row[j] = math.Round(float64(pairs[i][j])/float64(denom)*10000) / 10000
		}
		m.Matrix[i] = row
	}
	return m
}

// rankProducts orders designations by descending exit count and keeps the
// smallest prefix whose cumulative share reaches the coverage threshold.
func rankProducts(exits []model.HistoryEvent) []string {
	counts := make(map[string]int)
	for _, e := range exits {
		counts[e.Designation]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(a, b int) bool {
		if counts[names[a]] != counts[names[b]] {
			return counts[names[a]] > counts[names[b]]
		}
		return names[a] < names[b]
	})

	total := len(exits)
	if total == 0 {
		return nil
	}
	cumulative := 0
	for i, name := range names {
		cumulative += counts[name]
		if float64(cumulative) >= coverage*float64(total) {
			return names[:i+1]
		}
	}
	return names
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
