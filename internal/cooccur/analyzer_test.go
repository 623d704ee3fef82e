package cooccur

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklens/stocklens/internal/model"
)

func exit(designation string, day int) model.HistoryEvent {
	return model.HistoryEvent{
		Designation: designation,
		Direction:   model.Exit,
		EventDate:   time.Date(2024, time.May, day, 0, 0, 0, 0, time.UTC),
	}
}

func TestRankProductsOrdersByShareThenName(t *testing.T) {
	exits := []model.HistoryEvent{
		exit("chaise", 1), exit("chaise", 2), exit("chaise", 3),
		exit("bureau", 1), exit("bureau", 2),
		exit("armoire", 1), exit("armoire", 2),
	}

	// 7 exits, 90% threshold is 6.3: chaise (3) + armoire (2) + bureau (2)
	// reaches 7, so all three survive, alphabetical among the tied pair.
	assert.Equal(t, []string{"chaise", "armoire", "bureau"}, rankProducts(exits))
}

func TestRankProductsTruncatesLongTail(t *testing.T) {
	var exits []model.HistoryEvent
	for i := 0; i < 9; i++ {
		exits = append(exits, exit("chaise", 1+i%3))
	}
	exits = append(exits, exit("rare", 5))

	// chaise alone covers 9/10 = 90%; the tail is dropped.
	assert.Equal(t, []string{"chaise"}, rankProducts(exits))
}

func TestAnalyzeNilWhenFewerThanTwoProducts(t *testing.T) {
	assert.Nil(t, Analyze(nil))
	assert.Nil(t, Analyze([]model.HistoryEvent{exit("chaise", 1), exit("chaise", 2)}))
}

func TestAnalyzeCountsAdjacentDays(t *testing.T) {
	// chaise leaves on day 10, bureau on day 11: the widened windows
	// {9,10,11} and {10,11,12} overlap on two days.
	got := Analyze([]model.HistoryEvent{exit("chaise", 10), exit("bureau", 11)})

	require.NotNil(t, got)
	require.Equal(t, []string{"bureau", "chaise"}, got.Products)
	assert.Equal(t, [][]float64{{0, 1}, {0, 0}}, got.Matrix)
}

func TestAnalyzeIgnoresSingleProductDays(t *testing.T) {
	// Overlap on days 9..11; chaise is alone on days 19..21, which must
	// not dilute its row.
	got := Analyze([]model.HistoryEvent{
		exit("chaise", 10), exit("bureau", 10),
		exit("chaise", 20),
	})

	require.NotNil(t, got)
	require.Equal(t, []string{"chaise", "bureau"}, got.Products)
	assert.Equal(t, [][]float64{{0, 1}, {0, 0}}, got.Matrix)
}

func TestAnalyzeLeavesDiagonalAndLowerTriangleZero(t *testing.T) {
	got := Analyze([]model.HistoryEvent{
		exit("chaise", 10), exit("chaise", 20),
		exit("bureau", 10),
	})

	require.NotNil(t, got)
	require.Equal(t, []string{"chaise", "bureau"}, got.Products)
	for i := range got.Matrix {
		assert.Zero(t, got.Matrix[i][i])
		for j := 0; j < i; j++ {
			assert.Zero(t, got.Matrix[i][j])
		}
	}
	assert.Equal(t, 1.0, got.Matrix[0][1])
}

func TestAnalyzeRowsAreNormalizedPerPivot(t *testing.T) {
	// chaise active {4,5,6,14,15,16}, bureau {4,5,6}, armoire {14,15,16}.
	// Every day holds two ranked products. chaise co-occurs with bureau on
	// half of its days and with armoire on the other half.
	got := Analyze([]model.HistoryEvent{
		exit("chaise", 5), exit("chaise", 15),
		exit("bureau", 5),
		exit("armoire", 15),
	})

	require.NotNil(t, got)
	require.Equal(t, []string{"chaise", "armoire", "bureau"}, got.Products)
	assert.Equal(t, []float64{0, 0.5, 0.5}, got.Matrix[0])
	assert.Equal(t, []float64{0, 0, 0}, got.Matrix[1])
	assert.Equal(t, []float64{0, 0, 0}, got.Matrix[2])
}
