package model

import "time"

// Direction is the raw movement flag carried by the gateway.
type Direction string

const (
	Entry Direction = "E"
	Exit  Direction = "S"
)

// Action is the derived lifecycle label for a movement. The zero value means
// the movement is an ordinary one and carries no label.
type Action string

const (
	ActionNone          Action = ""
	ActionCreation      Action = "C"
	ActionTemporaryIn   Action = "E_mv"
	ActionTemporaryOut  Action = "S_mv"
	ActionDefinitiveOut Action = "S_def"
)

// HistoryEvent is one inventory movement of one article (entity).
// Column names follow the merged-history schema.
type HistoryEvent struct {
	Designation     string    `db:"prod_designation"`
	EntityID        int       `db:"art_id"`
	Barcode         string    `db:"art_code_barre"`
	EventDate       time.Time `db:"empprod_date_insert"`
	Direction       Direction `db:"empprod_sortie"`
	Action          Action    `db:"action"`
	ClientName      string    `db:"client"`
	Site            string    `db:"sit_nom"`
	Location        string    `db:"empl_libelle"`
	OriginSite      string    `db:"site_origine"`
	Condition       string    `db:"etat_mob_libelle"`
	Comment         string    `db:"art_commentaire"`
	MovedBy         string    `db:"auteur_mouvement"`
	ValidatedBy     string    `db:"usr_validateur"`
	AnomalyCount    int       `db:"nb_anomalie"`
	SparePart       int       `db:"art_est_piece_detachee"`
	ProductID       int       `db:"prod_id"`
	LocationID      int       `db:"empl_id"`
	LocationBarcode string    `db:"empl_code_barre"`
	PostalCode      int       `db:"empl_code_postal"`
	ClientRef       int       `db:"cli_id"`
	CompanyName     string    `db:"cli_raison_sociale"`
	ClientID        int       `db:"client_id"`
	StockVolume     *float64  `db:"stock_volume"`

	// Seq is the original fetch order, the tiebreak for same-date events.
	Seq int `db:"-"`
}

// StockSnapshot is the per-run stock volume lookup, keyed by product id.
// A nil volume means the gateway had no stock figure for the product.
type StockSnapshot map[int]*float64
