package repository

import (
	"context"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/stocklens/stocklens/internal/history"
	"github.com/stocklens/stocklens/internal/model"
)

const mergedSchema = `
CREATE TABLE IF NOT EXISTS merged_history (
	prod_designation       TEXT NOT NULL,
	art_id                 INTEGER NOT NULL DEFAULT 0,
	art_code_barre         TEXT NOT NULL DEFAULT '',
	empprod_date_insert    TIMESTAMP NOT NULL,
	date_mv                TEXT NOT NULL,
	empprod_sortie         TEXT NOT NULL,
	action                 TEXT NOT NULL DEFAULT '',
	client                 TEXT NOT NULL DEFAULT '',
	sit_nom                TEXT NOT NULL DEFAULT '',
	empl_libelle           TEXT NOT NULL DEFAULT '',
	site_origine           TEXT NOT NULL DEFAULT '',
	etat_mob_libelle       TEXT NOT NULL DEFAULT '',
	art_commentaire        TEXT NOT NULL DEFAULT '',
	auteur_mouvement       TEXT NOT NULL DEFAULT '',
	usr_validateur         TEXT NOT NULL DEFAULT '',
	nb_anomalie            INTEGER NOT NULL DEFAULT 0,
	art_est_piece_detachee INTEGER NOT NULL DEFAULT 0,
	prod_id                INTEGER NOT NULL DEFAULT 0,
	empl_id                INTEGER NOT NULL DEFAULT 0,
	empl_code_barre        TEXT NOT NULL DEFAULT '',
	empl_code_postal       INTEGER NOT NULL DEFAULT 0,
	cli_id                 INTEGER NOT NULL DEFAULT 0,
	cli_raison_sociale     TEXT NOT NULL DEFAULT '',
	client_id              INTEGER NOT NULL DEFAULT 0,
	stock_volume           REAL
);
CREATE INDEX IF NOT EXISTS idx_merged_history_client ON merged_history (client_id);
`

const mergedInsert = `
INSERT INTO merged_history (
	prod_designation, art_id, art_code_barre, empprod_date_insert, date_mv,
	empprod_sortie, action, client, sit_nom, empl_libelle, site_origine,
	etat_mob_libelle, art_commentaire, auteur_mouvement, usr_validateur,
	nb_anomalie, art_est_piece_detachee, prod_id, empl_id, empl_code_barre,
	empl_code_postal, cli_id, cli_raison_sociale, client_id, stock_volume
) VALUES (
	:prod_designation, :art_id, :art_code_barre, :empprod_date_insert,
	strftime('%Y-%m-%d', :empprod_date_insert),
	:empprod_sortie, :action, :client, :sit_nom, :empl_libelle, :site_origine,
	:etat_mob_libelle, :art_commentaire, :auteur_mouvement, :usr_validateur,
	:nb_anomalie, :art_est_piece_detachee, :prod_id, :empl_id, :empl_code_barre,
	:empl_code_postal, :cli_id, :cli_raison_sociale, :client_id, :stock_volume
)`

// SQLite keeps the merged history in a single table. One generation per
// client is enforced transactionally: the client's previous rows are
// deleted and the new ones inserted in the same transaction.
type SQLite struct {
	mu sync.Mutex
	db *sqlx.DB
}

// NewSQLite opens (or creates) the store at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(mergedSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Upsert(ctx context.Context, clientID int, rows []model.HistoryEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &history.MergeError{ClientID: clientID, Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM merged_history WHERE client_id = ?", clientID); err != nil {
		return &history.MergeError{ClientID: clientID, Err: err}
	}
	for i := range rows {
		row := rows[i]
		row.Designation = model.DisplayDesignation(row.Designation)
		if _, err := tx.NamedExecContext(ctx, mergedInsert, row); err != nil {
			return &history.MergeError{ClientID: clientID, Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &history.MergeError{ClientID: clientID, Err: err}
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context) ([]history.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []history.Row
	err := s.db.SelectContext(ctx, &rows, `
		SELECT prod_designation, art_id, art_code_barre, empprod_date_insert,
		       empprod_sortie, action, client, sit_nom, empl_libelle,
		       site_origine, etat_mob_libelle, art_commentaire,
		       auteur_mouvement, usr_validateur, nb_anomalie,
		       art_est_piece_detachee, prod_id, empl_id, empl_code_barre,
		       empl_code_postal, cli_id, cli_raison_sociale, client_id,
		       stock_volume
		FROM merged_history
		ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Seq = i
	}
	return rows, nil
}
