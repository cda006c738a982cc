package history

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fastprodman/currencybank/internal/bank"
	"github.com/fastprodman/currencybank/internal/repos/history"
)

var _ history.History = (*historyRepo)(nil)

type historyRepo struct{ db *sqlx.DB }

func New(db *sqlx.DB) *historyRepo {
	return &historyRepo{db: db}
}

func (r *historyRepo) Insert(ctx context.Context, tx *sqlx.Tx, e bank.HistoryEntry) (bank.HistoryEntry, error) {
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO currency_bank_history (uuid, change_amount, change_type, coin_type, note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING history_id, created_time
	`, e.Owner, e.ChangeAmount, e.ChangeType, e.CoinType, e.Note).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return bank.HistoryEntry{}, fmt.Errorf("insert history: %w", err)
	}

	return e, nil
}

func (r *historyRepo) List(ctx context.Context, owner uuid.UUID, limit int) ([]bank.HistoryEntry, error) {
	entries := []bank.HistoryEntry{}

	err := r.db.SelectContext(ctx, &entries, `
		SELECT history_id, uuid, change_amount, change_type, coin_type, note, created_time
		FROM currency_bank_history
		WHERE uuid = $1
		ORDER BY created_time DESC, history_id DESC
		LIMIT $2
	`, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	return entries, nil
}
