package model

// InventoryItem is one product row of a client's remote inventory.
type InventoryItem struct {
	ProductID   int     `db:"prod_id" json:"prod_id"`
	Designation string  `db:"prod_designation" json:"prod_designation"`
	Barcode     string  `db:"code_barre" json:"code_barre"`
	PhotoRef    *string `db:"photo" json:"photo"` // Nullable, relative path on the gateway
}
