package history

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fastprodman/currencybank/internal/bank"
)

// History is append-only: entries are never updated or deleted.
type History interface {
	// Insert stores e and returns it with ID and CreatedAt assigned.
	Insert(ctx context.Context, tx *sqlx.Tx, e bank.HistoryEntry) (bank.HistoryEntry, error)
	// List returns the newest entries of owner first.
	List(ctx context.Context, owner uuid.UUID, limit int) ([]bank.HistoryEntry, error)
}
