package analytics

import (
	"sort"
	"time"

	"github.com/stocklens/stocklens/internal/model"
)

// ProductAge reports how long a product has been sitting still.
type ProductAge struct {
	Designation string
	Since       time.Time
	Months      int
}

// Obsolescence measures, per product, the months elapsed since it last
// moved out. A product that never exited is aged from its earliest event
// instead. Calendar months, day of month ignored. Sorted by descending
// age, then designation.
func Obsolescence(events []model.HistoryEvent, now time.Time) []ProductAge {
	firstSeen := make(map[string]time.Time)
	lastExit := make(map[string]time.Time)
	for _, e := range events {
		if first, ok := firstSeen[e.Designation]; !ok || e.EventDate.Before(first) {
			firstSeen[e.Designation] = e.EventDate
		}
		if e.Direction == model.Exit {
			if last, ok := lastExit[e.Designation]; !ok || e.EventDate.After(last) {
				lastExit[e.Designation] = e.EventDate
			}
		}
	}

	ages := make([]ProductAge, 0, len(firstSeen))
	for name, first := range firstSeen {
		since := first
		if last, ok := lastExit[name]; ok {
			since = last
		}
		ages = append(ages, ProductAge{
			Designation: name,
			Since:       since,
			Months:      monthsBetween(since, now),
		})
	}
	sort.Slice(ages, func(a, b int) bool {
		if ages[a].Months != ages[b].Months {
			return ages[a].Months > ages[b].Months
		}
		return ages[a].Designation < ages[b].Designation
	})
	return ages
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}
