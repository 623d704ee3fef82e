package gateway

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/stocklens/stocklens/internal/model"
)

// envelope is the ASP.NET AJAX response wrapper: the payload is a
// JSON-encoded string under "d".
type envelope struct {
	D string `json:"d"`
}

// flexInt tolerates the gateway's habit of sending numbers as strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		// Postal codes and similar fields occasionally carry junk;
		// coerce to zero rather than failing the whole row.
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

// nullFloat keeps the null/zero distinction the stock endpoint relies on:
// a null or junk volume is "no figure", not an empty warehouse.
type nullFloat struct {
	value float64
	valid bool
}

func (f *nullFloat) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = nullFloat{}
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*f = nullFloat{}
		return nil
	}
	*f = nullFloat{value: v, valid: true}
	return nil
}

// inventoryRow is the wire shape of one fnc_selectInventaire row.
type inventoryRow struct {
	ProductID   flexInt `json:"prod_id"`
	Designation string  `json:"prod_designation"`
	Barcode     string  `json:"code_barre"`
	Photo       string  `json:"photo"`
}

func (r inventoryRow) item() model.InventoryItem {
	item := model.InventoryItem{
		ProductID:   int(r.ProductID),
		Designation: r.Designation,
		Barcode:     r.Barcode,
	}
	if r.Photo != "" {
		photo := r.Photo
		item.PhotoRef = &photo
	}
	return item
}

// HistoryRow is the wire shape of one fnc_selectHistoArticles row.
type HistoryRow struct {
	EntityID        flexInt `json:"art_id"`
	Barcode         string  `json:"art_code_barre"`
	EventDate       string  `json:"empprod_date_insert"`
	Direction       string  `json:"empprod_sortie"`
	Site            string  `json:"sit_nom"`
	Location        string  `json:"empl_libelle"`
	OriginSite      string  `json:"site_origine"`
	Condition       string  `json:"etat_mob_libelle"`
	Comment         string  `json:"art_commentaire"`
	MovedBy         string  `json:"auteur_mouvement"`
	ValidatedBy     string  `json:"usr_validateur"`
	AnomalyCount    flexInt `json:"nb_anomalie"`
	SparePart       flexInt `json:"art_est_piece_detachee"`
	LocationID      flexInt `json:"empl_id"`
	LocationBarcode string  `json:"empl_code_barre"`
	PostalCode      flexInt `json:"empl_code_postal"`
	ClientRef       flexInt `json:"cli_id"`
	CompanyName     string  `json:"cli_raison_sociale"`
}

// historyDateLayouts covers the day-first formats the gateway emits.
var historyDateLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Event converts the wire row into a domain event. ok is false when the
// event date cannot be parsed; such rows are dropped, as the ordering key
// would be meaningless.
func (r HistoryRow) Event() (model.HistoryEvent, bool) {
	date, ok := parseHistoryDate(r.EventDate)
	if !ok {
		return model.HistoryEvent{}, false
	}
	return model.HistoryEvent{
		EntityID:        int(r.EntityID),
		Barcode:         r.Barcode,
		EventDate:       date,
		Direction:       model.Direction(strings.TrimSpace(r.Direction)),
		Site:            r.Site,
		Location:        r.Location,
		OriginSite:      r.OriginSite,
		Condition:       r.Condition,
		Comment:         r.Comment,
		MovedBy:         r.MovedBy,
		ValidatedBy:     r.ValidatedBy,
		AnomalyCount:    int(r.AnomalyCount),
		SparePart:       int(r.SparePart),
		LocationID:      int(r.LocationID),
		LocationBarcode: r.LocationBarcode,
		PostalCode:      int(r.PostalCode),
		ClientRef:       int(r.ClientRef),
		CompanyName:     r.CompanyName,
	}, true
}

func parseHistoryDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range historyDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// stockRow is the wire shape of one fnc_selectStockProduit row.
type stockRow struct {
	StockVolume nullFloat `json:"stock_volume"`
}

// decodePayload unwraps the envelope and decodes the doubly-encoded payload.
// A single object payload is promoted to a one-element list, mirroring the
// gateway's inconsistent list-vs-object responses.
func decodePayload[T any](op string, body []byte) ([]T, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &ShapeError{Op: op, Err: err}
	}
	payload := strings.TrimSpace(env.D)
	if payload == "" || payload == "{}" || payload == "[]" || payload == "null" {
		return nil, nil
	}

	var rows []T
	if err := json.Unmarshal([]byte(payload), &rows); err == nil {
		return rows, nil
	}

	var single T
	if err := json.Unmarshal([]byte(payload), &single); err != nil {
		return nil, &ShapeError{Op: op, Err: err}
	}
	return []T{single}, nil
}
