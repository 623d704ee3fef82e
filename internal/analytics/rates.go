package analytics

import (
	"math"
	"sort"

	"github.com/stocklens/stocklens/internal/model"
)

// ProductRate is the per-product movement balance. Rate is exits over
// entries; Share is the product's fraction of all exits in the set.
type ProductRate struct {
	Designation string
	Entries     int
	Exits       int
	Rate        float64
	Share       float64
}

// UtilityRate computes per-product entry and exit counts over the
// filtered events. Products with no entries get a rate of 0 rather than
// a division error. The result is sorted by descending exit count, then
// designation.
func UtilityRate(events []model.HistoryEvent, filter Filter) []ProductRate {
	entries := make(map[string]int)
	exits := make(map[string]int)
	totalExits := 0
	for _, e := range events {
		if !filter(e) {
			continue
		}
		switch e.Direction {
		case model.Entry:
			entries[e.Designation]++
		case model.Exit:
			exits[e.Designation]++
			totalExits++
		}
	}

	names := make(map[string]struct{}, len(entries)+len(exits))
	for name := range entries {
		names[name] = struct{}{}
	}
	for name := range exits {
		names[name] = struct{}{}
	}

	rates := make([]ProductRate, 0, len(names))
	for name := range names {
		r := ProductRate{Designation: name, Entries: entries[name], Exits: exits[name]}
		if r.Entries > 0 {
			r.Rate = math.Round(float64(r.Exits)/float64(r.Entries)*100) / 100
		}
		if totalExits > 0 {
			r.Share = math.Round(float64(r.Exits)/float64(totalExits)*10000) / 10000
		}
		rates = append(rates, r)
	}
	sort.Slice(rates, func(a, b int) bool {
		if rates[a].Exits != rates[b].Exits {
			return rates[a].Exits > rates[b].Exits
		}
		return rates[a].Designation < rates[b].Designation
	})
	return rates
}
