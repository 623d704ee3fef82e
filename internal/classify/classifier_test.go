package classify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklens/stocklens/internal/model"
)

func ev(entity, day int, dir model.Direction, seq int) model.HistoryEvent {
	return model.HistoryEvent{
		EntityID:  entity,
		EventDate: time.Date(2024, time.March, day, 0, 0, 0, 0, time.UTC),
		Direction: dir,
		Seq:       seq,
	}
}

func actionsOf(events []model.HistoryEvent, entity int) []model.Action {
	var actions []model.Action
	for _, e := range events {
		if e.EntityID == entity {
			actions = append(actions, e.Action)
		}
	}
	return actions
}

func TestLabelEarliestEventIsCreation(t *testing.T) {
	// Input arrives out of order; the chronologically earliest event still
	// gets the creation label.
	got := Label([]model.HistoryEvent{
		ev(1, 5, model.Exit, 1),
		ev(1, 2, model.Entry, 0),
	})

	assert.Equal(t, []model.Action{model.ActionCreation, model.ActionDefinitiveOut}, actionsOf(got, 1))
}

func TestLabelSingleExitIsCreationOnly(t *testing.T) {
	got := Label([]model.HistoryEvent{ev(7, 3, model.Exit, 0)})

	require.Len(t, got, 1)
	assert.Equal(t, model.ActionCreation, got[0].Action)
}

func TestLabelSameDayPairIsTemporary(t *testing.T) {
	got := Label([]model.HistoryEvent{
		ev(1, 1, model.Entry, 0),
		ev(1, 4, model.Exit, 1),
		ev(1, 4, model.Entry, 2),
	})

	assert.Equal(t, []model.Action{
		model.ActionCreation,
		model.ActionTemporaryOut,
		model.ActionTemporaryIn,
	}, actionsOf(got, 1))
}

func TestLabelExitThenEntryPairAcrossDays(t *testing.T) {
	got := Label([]model.HistoryEvent{
		ev(1, 1, model.Entry, 0),
		ev(1, 3, model.Exit, 1),
		ev(1, 8, model.Entry, 2),
	})

	assert.Equal(t, []model.Action{
		model.ActionCreation,
		model.ActionTemporaryOut,
		model.ActionTemporaryIn,
	}, actionsOf(got, 1))
}

func TestLabelTrailingLoneExitIsDefinitive(t *testing.T) {
	got := Label([]model.HistoryEvent{
		ev(1, 1, model.Entry, 0),
		ev(1, 9, model.Exit, 1),
	})

	assert.Equal(t, []model.Action{
		model.ActionCreation,
		model.ActionDefinitiveOut,
	}, actionsOf(got, 1))
}

func TestLabelTrailingExitSharingDateStaysTemporary(t *testing.T) {
	// The last exit shares its date with an entry, so it is part of a
	// temporary cycle, not a departure.
	got := Label([]model.HistoryEvent{
		ev(1, 1, model.Entry, 0),
		ev(1, 6, model.Entry, 1),
		ev(1, 6, model.Exit, 2),
	})

	assert.Equal(t, []model.Action{
		model.ActionCreation,
		model.ActionTemporaryIn,
		model.ActionTemporaryOut,
	}, actionsOf(got, 1))
}

func TestLabelCreationNeverRelabeled(t *testing.T) {
	// The first event is an exit on a day that also holds an entry; rule 2
	// would call it a temporary out, but creation wins.
	got := Label([]model.HistoryEvent{
		ev(1, 2, model.Exit, 0),
		ev(1, 2, model.Entry, 1),
	})

	assert.Equal(t, []model.Action{
		model.ActionCreation,
		model.ActionTemporaryIn,
	}, actionsOf(got, 1))
}

func TestLabelEntitiesAreIndependent(t *testing.T) {
	got := Label([]model.HistoryEvent{
		ev(1, 1, model.Entry, 0),
		ev(2, 1, model.Exit, 1),
		ev(1, 5, model.Exit, 2),
	})

	assert.Equal(t, []model.Action{model.ActionCreation, model.ActionDefinitiveOut}, actionsOf(got, 1))
	assert.Equal(t, []model.Action{model.ActionCreation}, actionsOf(got, 2))
}

func TestLabelOutputIsChronologicalAndInputUntouched(t *testing.T) {
	in := []model.HistoryEvent{
		ev(2, 9, model.Entry, 0),
		ev(1, 1, model.Entry, 1),
		ev(1, 4, model.Exit, 2),
	}
	got := Label(in)

	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].EntityID)
	assert.Equal(t, 1, got[1].EntityID)
	assert.Equal(t, 2, got[2].EntityID)
	for _, e := range in {
		assert.Equal(t, model.ActionNone, e.Action)
	}
}

func TestLabelEmptyInput(t *testing.T) {
	assert.Empty(t, Label(nil))
}
