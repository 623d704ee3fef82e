package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/stocklens/stocklens/internal/analytics"
	"github.com/stocklens/stocklens/internal/history/repository"
	"github.com/stocklens/stocklens/internal/model"
)

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeCSV(path string, header []string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func writeZeroExitCSV(path string, designations []string) error {
	records := make([][]string, 0, len(designations))
	for _, name := range designations {
		records = append(records, []string{model.DisplayDesignation(name)})
	}
	return writeCSV(path, []string{"prod_designation"}, records)
}

func writeRatesCSV(path string, rates []analytics.ProductRate) error {
	records := make([][]string, 0, len(rates))
	for _, r := range rates {
		records = append(records, []string{
			model.DisplayDesignation(r.Designation),
			strconv.Itoa(r.Entries),
			strconv.Itoa(r.Exits),
			strconv.FormatFloat(r.Rate, 'f', 2, 64),
			strconv.FormatFloat(r.Share, 'f', 4, 64),
		})
	}
	return writeCSV(path,
		[]string{"prod_designation", "nb_entrees", "nb_sorties", "taux_utilite", "part_sorties"},
		records)
}

func writeInventoryCSV(path string, items []model.InventoryItem) error {
	records := make([][]string, 0, len(items))
	for _, item := range items {
		photo := ""
		if item.PhotoRef != nil {
			photo = *item.PhotoRef
		}
		records = append(records, []string{
			strconv.Itoa(item.ProductID),
			model.DisplayDesignation(item.Designation),
			item.Barcode,
			photo,
		})
	}
	return writeCSV(path, []string{"prod_id", "prod_designation", "code_barre", "photo"}, records)
}

// writeHistoryCSV writes the per-client labeled history using the merged
// store's schema. The file lives in a freshly created directory, so the
// upsert produces exactly one generation.
func writeHistoryCSV(ctx context.Context, path string, clientID int, rows []model.HistoryEvent) error {
	return repository.NewCSV(path).Upsert(ctx, clientID, rows)
}

type stockVolumeDoc struct {
	Metadata stockVolumeMeta  `json:"metadata"`
	Data     []stockVolumeRow `json:"data"`
}

type stockVolumeMeta struct {
	Client       string `json:"client"`
	ClientID     int    `json:"client_id"`
	RunID        string `json:"run_id"`
	GeneratedAt  string `json:"generated_at"`
	ProductCount int    `json:"product_count"`
}

type stockVolumeRow struct {
	ProductID   int      `json:"prod_id"`
	Designation string   `json:"prod_designation"`
	StockVolume *float64 `json:"stock_volume"`
}

func writeStockVolumeJSON(path, runID string, client Client, now time.Time, byProduct map[int]model.InventoryItem, stocks model.StockSnapshot) error {
	rows := make([]stockVolumeRow, 0, len(stocks))
	for productID, volume := range stocks {
		rows = append(rows, stockVolumeRow{
			ProductID:   productID,
			Designation: model.DisplayDesignation(byProduct[productID].Designation),
			StockVolume: volume,
		})
	}
	sort.Slice(rows, func(a, b int) bool { return rows[a].ProductID < rows[b].ProductID })

	return writeJSON(path, stockVolumeDoc{
		Metadata: stockVolumeMeta{
			Client:       client.Name,
			ClientID:     client.ID,
			RunID:        runID,
			GeneratedAt:  now.UTC().Format(time.RFC3339),
			ProductCount: len(rows),
		},
		Data: rows,
	})
}
