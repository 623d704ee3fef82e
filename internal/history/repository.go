// Package history holds the cross-client merged movement store. Every
// pipeline run replaces its client's generation of rows while leaving the
// other clients' rows untouched.
package history

import (
	"context"
	"fmt"

	"github.com/stocklens/stocklens/internal/model"
)

// Row is one merged-history record.
type Row = model.HistoryEvent

// Repository is the merged store. Upsert replaces the full generation of
// rows belonging to clientID; Load returns every stored row. Both are
// safe for concurrent use.
type Repository interface {
	Upsert(ctx context.Context, clientID int, rows []model.HistoryEvent) error
	Load(ctx context.Context) ([]Row, error)
}

// MergeError marks a failed store write. It aborts the current client's
// persist stage but never the whole run.
type MergeError struct {
	ClientID int
	Err      error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("history merge for client %d: %v", e.ClientID, e.Err)
}

func (e *MergeError) Unwrap() error { return e.Err }
