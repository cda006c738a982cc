package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/fastprodman/currencybank/internal/bank"
	"github.com/fastprodman/currencybank/internal/config"
	"github.com/fastprodman/currencybank/internal/metrics"
)

var _ Service = (*Breaker)(nil)

// Breaker guards a Service with a circuit breaker. Business rejections and
// caller cancellations never count as failures.
type Breaker struct {
	next    Service
	cb      *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
}

func NewBreaker(next Service, cfg config.BreakerConfig, m *metrics.Metrics) *Breaker {
	failures := cfg.Failures
	if failures == 0 {
		failures = 5
	}

	st := gobreaker.Settings{
		Name:        "wallet",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(st), metrics: m}
}

func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, bank.ErrInsufficientFunds) ||
		errors.Is(err, bank.ErrInvalidAmount) ||
		errors.Is(err, context.Canceled)
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *Breaker) do(op string, fn func() (any, error)) (any, error) {
	v, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("wallet %s: %w", op, err)
	}

	b.metrics.WalletCall(op, err)

	return v, err
}

func (b *Breaker) GetCoin(ctx context.Context, owner uuid.UUID, coin bank.CoinType) (decimal.Decimal, error) {
	v, err := b.do("get", func() (any, error) {
		return b.next.GetCoin(ctx, owner, coin)
	})
	if err != nil {
		return decimal.Zero, err
	}

	return v.(decimal.Decimal), nil
}

func (b *Breaker) AddCoin(ctx context.Context, owner uuid.UUID, coin bank.CoinType, amount decimal.Decimal) error {
	_, err := b.do("add", func() (any, error) {
		return nil, b.next.AddCoin(ctx, owner, coin, amount)
	})

	return err
}

func (b *Breaker) MinusCoin(ctx context.Context, owner uuid.UUID, coin bank.CoinType, amount decimal.Decimal) error {
	_, err := b.do("minus", func() (any, error) {
		return nil, b.next.MinusCoin(ctx, owner, coin, amount)
	})

	return err
}
