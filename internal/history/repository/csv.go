// Package repository provides the merged-history store backends.
package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/stocklens/stocklens/internal/history"
	"github.com/stocklens/stocklens/internal/model"
)

// mergedHeader is the storage column order. date_mv is the ISO projection
// of empprod_date_insert, kept alongside it for date-range tooling.
var mergedHeader = []string{
	"prod_designation", "art_id", "art_code_barre", "empprod_date_insert",
	"date_mv", "empprod_sortie", "action", "CLIENT", "sit_nom",
	"empl_libelle", "site_origine", "etat_mob_libelle", "art_commentaire",
	"auteur_mouvement", "usr_validateur", "nb_anomalie",
	"art_est_piece_detachee", "prod_id", "empl_id", "empl_code_barre",
	"empl_code_postal", "cli_id", "cli_raison_sociale", "CLIENT_ID",
	"stock_volume",
}

const (
	eventDateLayout = "02/01/2006"
	isoDateLayout   = "2006-01-02"
)

// CSV stores the merged history as a single flat file. An upsert reads
// the current file, drops the client's previous generation, appends the
// new rows and writes the result to a temp file renamed over the
// original. Repeating an identical upsert reproduces the file byte for
// byte.
type CSV struct {
	mu   sync.Mutex
	path string
}

func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

func (s *CSV) Upsert(ctx context.Context, clientID int, rows []model.HistoryEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &history.MergeError{ClientID: clientID, Err: err}
	}

	records, err := s.readRecords()
	if err != nil {
		return &history.MergeError{ClientID: clientID, Err: err}
	}

	kept := records[:0]
	idCol := columnIndex("CLIENT_ID")
	for _, rec := range records {
		if parseIntDefault(rec[idCol]) != clientID {
			kept = append(kept, rec)
		}
	}
	for _, row := range rows {
		kept = append(kept, encodeRecord(row))
	}

	if err := s.writeRecords(kept); err != nil {
		return &history.MergeError{ClientID: clientID, Err: err}
	}
	return nil
}

func (s *CSV) Load(ctx context.Context) ([]history.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := s.readRecords()
	if err != nil {
		return nil, err
	}
	rows := make([]history.Row, 0, len(records))
	for i, rec := range records {
		row := decodeRecord(rec)
		row.Seq = i
		rows = append(rows, row)
	}
	return rows, nil
}

// readRecords returns the data records, header excluded. A missing file
// is an empty store.
func (s *CSV) readRecords() ([][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(mergedHeader)
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[1:], nil
}

func (s *CSV) writeRecords(records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "merged-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(mergedHeader); err != nil {
		tmp.Close()
		return err
	}
	if err := w.WriteAll(records); err != nil {
		tmp.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func encodeRecord(e model.HistoryEvent) []string {
	stock := ""
	if e.StockVolume != nil {
		stock = strconv.FormatFloat(*e.StockVolume, 'f', -1, 64)
	}
	return []string{
		model.DisplayDesignation(e.Designation),
		strconv.Itoa(e.EntityID),
		e.Barcode,
		e.EventDate.Format(eventDateLayout),
		e.EventDate.Format(isoDateLayout),
		string(e.Direction),
		string(e.Action),
		e.ClientName,
		e.Site,
		e.Location,
		e.OriginSite,
		e.Condition,
		e.Comment,
		e.MovedBy,
		e.ValidatedBy,
		strconv.Itoa(e.AnomalyCount),
		strconv.Itoa(e.SparePart),
		strconv.Itoa(e.ProductID),
		strconv.Itoa(e.LocationID),
		e.LocationBarcode,
		strconv.Itoa(e.PostalCode),
		strconv.Itoa(e.ClientRef),
		e.CompanyName,
		strconv.Itoa(e.ClientID),
		stock,
	}
}

func decodeRecord(rec []string) model.HistoryEvent {
	e := model.HistoryEvent{
		Designation:     rec[0],
		EntityID:        parseIntDefault(rec[1]),
		Barcode:         rec[2],
		Direction:       model.Direction(rec[5]),
		Action:          model.Action(rec[6]),
		ClientName:      rec[7],
		Site:            rec[8],
		Location:        rec[9],
		OriginSite:      rec[10],
		Condition:       rec[11],
		Comment:         rec[12],
		MovedBy:         rec[13],
		ValidatedBy:     rec[14],
		AnomalyCount:    parseIntDefault(rec[15]),
		SparePart:       parseIntDefault(rec[16]),
		ProductID:       parseIntDefault(rec[17]),
		LocationID:      parseIntDefault(rec[18]),
		LocationBarcode: rec[19],
		PostalCode:      parseIntDefault(rec[20]),
		ClientRef:       parseIntDefault(rec[21]),
		CompanyName:     rec[22],
		ClientID:        parseIntDefault(rec[23]),
	}
	if t, err := time.Parse(isoDateLayout, rec[4]); err == nil {
		e.EventDate = t
	} else if t, err := time.Parse(eventDateLayout, rec[3]); err == nil {
		e.EventDate = t
	}
	if rec[24] != "" {
		if v, err := strconv.ParseFloat(rec[24], 64); err == nil {
			e.StockVolume = &v
		}
	}
	return e
}

// parseIntDefault coerces the integer columns, falling back to 0 for
// blanks and junk.
func parseIntDefault(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

func columnIndex(name string) int {
	for i, col := range mergedHeader {
		if col == name {
			return i
		}
	}
	return -1
}
