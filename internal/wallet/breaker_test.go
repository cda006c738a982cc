package wallet_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/currencybank/internal/bank"
	"github.com/fastprodman/currencybank/internal/config"
	"github.com/fastprodman/currencybank/internal/metrics"
	"github.com/fastprodman/currencybank/internal/wallet"
	"github.com/fastprodman/currencybank/internal/wallet/mocks"
)

func breakerCfg() config.BreakerConfig {
	return config.BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, Failures: 2}
}

func TestBreaker_OpensOnInfrastructureFailures(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	next := new(mocks.Wallet)
	next.On("MinusCoin", mock.Anything, owner, bank.Gold, mock.Anything).
		Return(errors.New("redis timeout")).Twice()

	m := metrics.New(prometheus.NewRegistry())
	b := wallet.NewBreaker(next, breakerCfg(), m)

	for range 2 {
		err := b.MinusCoin(context.Background(), owner, bank.Gold, decimal.NewFromInt(1))
		require.ErrorContains(t, err, "redis timeout")
	}

	assert.Equal(t, gobreaker.StateOpen, b.State())

	err := b.MinusCoin(context.Background(), owner, bank.Gold, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)

	next.AssertNumberOfCalls(t, "MinusCoin", 2)
	assert.InDelta(t, 3, testutil.ToFloat64(m.WalletCalls.WithLabelValues("minus", "error")), 0)
}

func TestBreaker_BusinessErrorsDoNotTrip(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	next := new(mocks.Wallet)
	next.On("MinusCoin", mock.Anything, owner, bank.Coin, mock.Anything).
		Return(bank.ErrInsufficientFunds)

	b := wallet.NewBreaker(next, breakerCfg(), nil)

	for range 5 {
		err := b.MinusCoin(context.Background(), owner, bank.Coin, decimal.NewFromInt(10))
		require.ErrorIs(t, err, bank.ErrInsufficientFunds)
	}

	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_PassesThroughValues(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	next := new(mocks.Wallet)
	next.On("GetCoin", mock.Anything, owner, bank.Silver).Return(decimal.RequireFromString("7.25"), nil)
	next.On("AddCoin", mock.Anything, owner, bank.Silver, mocks.Amount("3")).Return(nil)

	b := wallet.NewBreaker(next, breakerCfg(), nil)

	got, err := b.GetCoin(context.Background(), owner, bank.Silver)
	require.NoError(t, err)
	assert.Equal(t, "7.25", got.String())

	require.NoError(t, b.AddCoin(context.Background(), owner, bank.Silver, decimal.NewFromInt(3)))
	next.AssertExpectations(t)
}
