// Package mocks provides testify mocks for the wallet boundary.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/fastprodman/currencybank/internal/bank"
)

type Wallet struct {
	mock.Mock
}

func (m *Wallet) GetCoin(ctx context.Context, owner uuid.UUID, coin bank.CoinType) (decimal.Decimal, error) {
	args := m.Called(ctx, owner, coin)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *Wallet) AddCoin(ctx context.Context, owner uuid.UUID, coin bank.CoinType, amount decimal.Decimal) error {
	args := m.Called(ctx, owner, coin, amount)
	return args.Error(0)
}

func (m *Wallet) MinusCoin(ctx context.Context, owner uuid.UUID, coin bank.CoinType, amount decimal.Decimal) error {
	args := m.Called(ctx, owner, coin, amount)
	return args.Error(0)
}

// Amount matches a decimal argument by value rather than representation.
func Amount(s string) any {
	want := decimal.RequireFromString(s)

	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}
