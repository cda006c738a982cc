// Package wallet is the boundary to the external player wallet that holds
// spendable coins outside the bank.
package wallet

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/currencybank/internal/bank"
)

// Service moves coins in and out of a player's wallet.
// MinusCoin fails with bank.ErrInsufficientFunds when the wallet is short.
type Service interface {
	GetCoin(ctx context.Context, owner uuid.UUID, coin bank.CoinType) (decimal.Decimal, error)
	AddCoin(ctx context.Context, owner uuid.UUID, coin bank.CoinType, amount decimal.Decimal) error
	MinusCoin(ctx context.Context, owner uuid.UUID, coin bank.CoinType, amount decimal.Decimal) error
}
