// Package analytics derives reporting figures from labeled movement
// history: products that never leave, per-product utility rates, stock
// age, and the dataset backing the web view.
package analytics

import (
	"regexp"
	"sort"

	"github.com/stocklens/stocklens/internal/model"
)

// Filter decides whether an event participates in an analysis.
type Filter func(model.HistoryEvent) bool

// KeepAll admits every event.
func KeepAll(model.HistoryEvent) bool { return true }

// disposalLocation matches storage locations that mean the article left
// the fleet rather than the warehouse: dumps, donations and buybacks.
var disposalLocation = regexp.MustCompile(`(?i)^\s*(?:décharge|decharge|dons|don|rachat|reprise|achat)\s*$`)

// SiteExitFilter keeps events of a single site and drops movements into
// disposal locations. Used for the flagship client whose history spans
// several sites.
func SiteExitFilter(site string) Filter {
	return func(e model.HistoryEvent) bool {
		if e.Site != site {
			return false
		}
		return !disposalLocation.MatchString(e.Location)
	}
}

// ZeroExit returns the sorted designations whose filtered events are all
// entries. Products absent from the filtered set are not reported.
func ZeroExit(events []model.HistoryEvent, filter Filter) []string {
	seen := make(map[string]bool)
	exited := make(map[string]bool)
	for _, e := range events {
		if !filter(e) {
			continue
		}
		seen[e.Designation] = true
		if e.Direction == model.Exit {
			exited[e.Designation] = true
		}
	}
	var names []string
	for name := range seen {
		if !exited[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
