package bank

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is one currency_bank row: a player's balance in one coin type.
type Account struct {
	ID               int64           `db:"bank_id" json:"-"`
	Owner            uuid.UUID       `db:"uuid" json:"owner"`
	CoinType         CoinType        `db:"coin_type" json:"coinType"`
	Balance          decimal.Decimal `db:"balance" json:"balance"`
	InterestRate     decimal.Decimal `db:"interest_rate" json:"interestRate"`
	LastInterestTime time.Time       `db:"last_interest_time" json:"lastInterestTime"`
}

// HistoryEntry is one immutable currency_bank_history row.
type HistoryEntry struct {
	ID           int64           `db:"history_id" json:"id"`
	Owner        uuid.UUID       `db:"uuid" json:"owner"`
	ChangeAmount decimal.Decimal `db:"change_amount" json:"changeAmount"`
	ChangeType   ChangeType      `db:"change_type" json:"changeType"`
	CoinType     CoinType        `db:"coin_type" json:"coinType"`
	Note         string          `db:"note" json:"note"`
	CreatedAt    time.Time       `db:"created_time" json:"createdAt"`
}
