package balances

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/currencybank/internal/bank"
)

var ErrAccountNotFound = errors.New("bank account not found")

type Balances interface {
	// Get returns zero when the player has no row for coin.
	Get(ctx context.Context, owner uuid.UUID, coin bank.CoinType) (decimal.Decimal, error)
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]bank.Account, error)
	Owners(ctx context.Context) ([]uuid.UUID, error)

	Increase(ctx context.Context, tx *sqlx.Tx, owner uuid.UUID, coin bank.CoinType, amount decimal.Decimal) (decimal.Decimal, error)
	CreditInterest(
		ctx context.Context,
		tx *sqlx.Tx,
		owner uuid.UUID,
		coin bank.CoinType,
		amount, rate decimal.Decimal,
		at time.Time,
	) (decimal.Decimal, error)
	LockAndGet(ctx context.Context, tx *sqlx.Tx, owner uuid.UUID, coin bank.CoinType) (decimal.Decimal, error)
	Decrease(ctx context.Context, tx *sqlx.Tx, owner uuid.UUID, coin bank.CoinType, amount decimal.Decimal) (decimal.Decimal, error)
}
