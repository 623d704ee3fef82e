package analytics

import (
	"sort"

	"github.com/stocklens/stocklens/internal/model"
)

// WebRow is one product entry of the JSON dataset served to the web view.
type WebRow struct {
	ProductID   int      `json:"prod_id"`
	Designation string   `json:"prod_designation"`
	Barcode     string   `json:"code_barre"`
	Months      int      `json:"obsolescence_mois"`
	Entries     int      `json:"nb_entrees"`
	Exits       int      `json:"nb_sorties"`
	Rate        float64  `json:"taux_utilite"`
	StockVolume *float64 `json:"stock_volume"`
	ImageURL    string   `json:"image_url"`
}

// WebDataset joins the obsolescence and utility figures with the current
// inventory. Only products present in all three survive (inner join on
// the normalized designation); stock volume is attached when known. Rows
// are sorted by designation.
func WebDataset(ages []ProductAge, rates []ProductRate, inventory []model.InventoryItem, stocks model.StockSnapshot) []WebRow {
	ageByName := make(map[string]ProductAge, len(ages))
	for _, a := range ages {
		ageByName[model.NormalizeDesignation(a.Designation)] = a
	}
	rateByName := make(map[string]ProductRate, len(rates))
	for _, r := range rates {
		rateByName[model.NormalizeDesignation(r.Designation)] = r
	}

	var rows []WebRow
	for _, item := range inventory {
		key := model.NormalizeDesignation(item.Designation)
		age, ok := ageByName[key]
		if !ok {
			continue
		}
		rate, ok := rateByName[key]
		if !ok {
			continue
		}
		rows = append(rows, WebRow{
			ProductID:   item.ProductID,
			Designation: model.DisplayDesignation(item.Designation),
			Barcode:     item.Barcode,
			Months:      age.Months,
			Entries:     rate.Entries,
			Exits:       rate.Exits,
			Rate:        rate.Rate,
			StockVolume: stocks[item.ProductID],
			ImageURL:    "images_webp/" + key + ".webp",
		})
	}
	sort.Slice(rows, func(a, b int) bool { return rows[a].Designation < rows[b].Designation })
	return rows
}
