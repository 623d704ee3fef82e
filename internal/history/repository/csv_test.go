package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklens/stocklens/internal/model"
)

func row(clientID int, designation string, dir model.Direction, day int) model.HistoryEvent {
	return model.HistoryEvent{
		Designation: designation,
		EntityID:    100 + day,
		EventDate:   time.Date(2024, time.February, day, 0, 0, 0, 0, time.UTC),
		Direction:   dir,
		ClientID:    clientID,
	}
}

func TestCSVUpsertIsByteIdenticalWhenRepeated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merged_history.csv")
	store := NewCSV(path)
	rows := []model.HistoryEvent{
		row(1, "chaise_bureau", model.Entry, 1),
		row(1, "chaise_bureau", model.Exit, 3),
	}

	require.NoError(t, store.Upsert(context.Background(), 1, rows))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, store.Upsert(context.Background(), 1, rows))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCSVUpsertReplacesOnlyOwnGeneration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merged_history.csv")
	store := NewCSV(path)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, 1, []model.HistoryEvent{row(1, "chaise", model.Entry, 1)}))
	require.NoError(t, store.Upsert(ctx, 2, []model.HistoryEvent{row(2, "bureau", model.Entry, 2)}))
	require.NoError(t, store.Upsert(ctx, 1, []model.HistoryEvent{
		row(1, "tabouret", model.Entry, 5),
		row(1, "tabouret", model.Exit, 6),
	}))

	rows, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	var byClient = map[int][]string{}
	for _, r := range rows {
		byClient[r.ClientID] = append(byClient[r.ClientID], r.Designation)
	}
	assert.Equal(t, []string{"bureau"}, byClient[2])
	assert.Equal(t, []string{"tabouret", "tabouret"}, byClient[1])
}

func TestCSVUpsertNormalizesDesignation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merged_history.csv")
	store := NewCSV(path)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, 1, []model.HistoryEvent{row(1, "_chaise_visiteur", model.Entry, 1)}))

	rows, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "chaise visiteur", rows[0].Designation)
}

func TestCSVLoadMissingFileIsEmpty(t *testing.T) {
	store := NewCSV(filepath.Join(t.TempDir(), "absent.csv"))

	rows, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCSVRoundTripsDatesAndStock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merged_history.csv")
	store := NewCSV(path)
	ctx := context.Background()

	vol := 1.25
	in := row(3, "armoire", model.Exit, 14)
	in.StockVolume = &vol
	in.Action = model.ActionDefinitiveOut
	require.NoError(t, store.Upsert(ctx, 3, []model.HistoryEvent{in}))

	rows, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, time.Date(2024, time.February, 14, 0, 0, 0, 0, time.UTC), rows[0].EventDate)
	assert.Equal(t, model.ActionDefinitiveOut, rows[0].Action)
	require.NotNil(t, rows[0].StockVolume)
	assert.Equal(t, 1.25, *rows[0].StockVolume)
}
