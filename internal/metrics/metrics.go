// Package metrics owns the Prometheus collectors of the bank service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/currencybank/internal/bank"
)

const namespace = "currency_bank"

type Metrics struct {
	LedgerOps        *prometheus.CounterVec
	InterestTicks    *prometheus.CounterVec
	InterestCredited *prometheus.CounterVec
	WalletCalls      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LedgerOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_operations_total",
				Help:      "Ledger operations by operation, coin type and result",
			},
			[]string{"op", "coin_type", "result"},
		),
		InterestTicks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "interest_ticks_total",
				Help:      "Interest rule unit executions by unit and result",
			},
			[]string{"unit", "result"},
		),
		InterestCredited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "interest_credited_total",
				Help:      "Sum of interest credited to bank balances by coin type",
			},
			[]string{"coin_type"},
		),
		WalletCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "wallet_calls_total",
				Help:      "Wallet service calls by operation and result",
			},
			[]string{"op", "result"},
		),
	}

	reg.MustRegister(m.LedgerOps, m.InterestTicks, m.InterestCredited, m.WalletCalls)

	return m
}

func (m *Metrics) LedgerOp(op string, coin bank.CoinType, err error) {
	if m == nil {
		return
	}

	m.LedgerOps.WithLabelValues(op, coin.String(), Result(err)).Inc()
}

func (m *Metrics) InterestTick(unit, result string) {
	if m == nil {
		return
	}

	m.InterestTicks.WithLabelValues(unit, result).Inc()
}

func (m *Metrics) Credited(coin bank.CoinType, amount decimal.Decimal) {
	if m == nil {
		return
	}

	f, _ := amount.Float64()
	m.InterestCredited.WithLabelValues(coin.String()).Add(f)
}

func (m *Metrics) WalletCall(op string, err error) {
	if m == nil {
		return
	}

	m.WalletCalls.WithLabelValues(op, Result(err)).Inc()
}

// Result maps an operation error onto a low-cardinality label value.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, bank.ErrInsufficientFunds):
		return "insufficient"
	case errors.Is(err, bank.ErrInvalidAmount), errors.Is(err, bank.ErrUnknownCoinType):
		return "invalid"
	default:
		return "error"
	}
}
