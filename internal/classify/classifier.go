// Package classify labels each movement of an article's lifecycle. The raw
// gateway flags only say "entry" or "exit"; the labels distinguish the
// creation of an article, short loan/return cycles, and the final departure.
package classify

import (
	"sort"
	"time"

	"github.com/stocklens/stocklens/internal/model"
)

// Label returns a new, chronologically sorted copy of events with the
// Action field populated. For every entity (article id) group, sorted by
// (event date, fetch order):
//
//  1. the earliest event is Creation — always, and only Creation; later
//     rules never relabel it, so there is exactly one Creation per entity
//     and a single-event entity is Creation even when that event is an exit;
//  2. a date holding both an entry and an exit marks those events as
//     temporary movements;
//  3. an exit immediately followed by an entry is a temporary out/in pair,
//     overriding rule 2's labels;
//  4. a trailing exit that is still unlabeled and alone on its date is the
//     definitive departure.
//
// Everything else keeps the empty label. The function is pure: the input
// slice is not modified.
func Label(events []model.HistoryEvent) []model.HistoryEvent {
	out := make([]model.HistoryEvent, len(events))
	copy(out, events)

	groups := make(map[int][]int)
	for i := range out {
		out[i].Action = model.ActionNone
		groups[out[i].EntityID] = append(groups[out[i].EntityID], i)
	}

	for _, idxs := range groups {
		sortByDateSeq(out, idxs)
		labelEntity(out, idxs)
	}

	chronological := make([]int, len(out))
	for i := range chronological {
		chronological[i] = i
	}
	sortByDateSeq(out, chronological)

	sorted := make([]model.HistoryEvent, len(out))
	for i, idx := range chronological {
		sorted[i] = out[idx]
	}
	return sorted
}

func labelEntity(events []model.HistoryEvent, idxs []int) {
	if len(idxs) == 0 {
		return
	}
	first := idxs[0]
	events[first].Action = model.ActionCreation

	// Rule 2: same-date entry+exit pairs are temporary movements.
	byDay := make(map[time.Time][]int)
	for _, idx := range idxs {
		day := dayOf(events[idx].EventDate)
		byDay[day] = append(byDay[day], idx)
	}
	for _, dayIdxs := range byDay {
		if len(dayIdxs) < 2 {
			continue
		}
		hasEntry, hasExit := false, false
		for _, idx := range dayIdxs {
			switch events[idx].Direction {
			case model.Entry:
				hasEntry = true
			case model.Exit:
				hasExit = true
			}
		}
		if !hasEntry || !hasExit {
			continue
		}
		for _, idx := range dayIdxs {
			if idx == first {
				continue
			}
			switch events[idx].Direction {
			case model.Entry:
				events[idx].Action = model.ActionTemporaryIn
			case model.Exit:
				events[idx].Action = model.ActionTemporaryOut
			}
		}
	}

	// Rule 3: exit immediately followed by an entry.
	for i := 0; i < len(idxs)-1; i++ {
		cur, next := idxs[i], idxs[i+1]
		if events[cur].Direction == model.Exit && events[next].Direction == model.Entry {
			if cur != first {
				events[cur].Action = model.ActionTemporaryOut
			}
			events[next].Action = model.ActionTemporaryIn
		}
	}

	// Rule 4: a trailing, unlabeled exit alone on its date left for good.
	last := idxs[len(idxs)-1]
	if events[last].Direction != model.Exit || events[last].Action != model.ActionNone {
		return
	}
	lastDay := dayOf(events[last].EventDate)
	if len(byDay[lastDay]) == 1 {
		events[last].Action = model.ActionDefinitiveOut
	}
}

func sortByDateSeq(events []model.HistoryEvent, idxs []int) {
	sort.SliceStable(idxs, func(a, b int) bool {
		ea, eb := events[idxs[a]], events[idxs[b]]
		if !ea.EventDate.Equal(eb.EventDate) {
			return ea.EventDate.Before(eb.EventDate)
		}
		return ea.Seq < eb.Seq
	})
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
