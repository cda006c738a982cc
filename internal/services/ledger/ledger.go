// Package ledger moves coins between player wallets and bank balances and
// credits scheduled interest. Every balance change and its history entry
// commit in one database transaction.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/currencybank/internal/bank"
	"github.com/fastprodman/currencybank/internal/events"
	"github.com/fastprodman/currencybank/internal/infra/pgutils"
	"github.com/fastprodman/currencybank/internal/metrics"
	"github.com/fastprodman/currencybank/internal/repos/balances"
	pgbalances "github.com/fastprodman/currencybank/internal/repos/balances/postgres"
	"github.com/fastprodman/currencybank/internal/repos/history"
	pghistory "github.com/fastprodman/currencybank/internal/repos/history/postgres"
	"github.com/fastprodman/currencybank/internal/wallet"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500

	depositNote  = "bank deposit"
	withdrawNote = "bank withdraw"

	// walletTimeout bounds wallet calls that must finish after the bank
	// transaction regardless of the caller's context.
	walletTimeout = 5 * time.Second
)

type Ledger struct {
	db       *sqlx.DB
	balances balances.Balances
	history  history.History
	wallet   wallet.Service
	events   *events.HistoryPublisher
	metrics  *metrics.Metrics
	log      *slog.Logger
	now      func() time.Time
}

type Option func(*Ledger)

func WithPublisher(p *events.HistoryPublisher) Option {
	return func(l *Ledger) { l.events = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

func WithLogger(log *slog.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(db *sqlx.DB, w wallet.Service, opts ...Option) *Ledger {
	l := &Ledger{
		db:       db,
		balances: pgbalances.New(db),
		history:  pghistory.New(db),
		wallet:   w,
		events:   events.NewHistoryPublisher(nil, ""),
		log:      slog.Default(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func validate(coin bank.CoinType, amount decimal.Decimal) error {
	if !coin.Valid() {
		return fmt.Errorf("%w: %q", bank.ErrUnknownCoinType, coin)
	}

	return bank.CheckAmount(amount)
}

// Deposit moves amount from the player's wallet into the bank and returns the
// new bank balance.
//
// 1) Debit the wallet; on failure nothing local changes.
// 2) Upsert the balance and append history in one transaction.
// 3) If the transaction fails, try to give the coins back to the wallet.
func (l *Ledger) Deposit(ctx context.Context, owner uuid.UUID, coin bank.CoinType, amount decimal.Decimal) (decimal.Decimal, error) {
	balance, err := l.deposit(ctx, owner, coin, amount)
	l.metrics.LedgerOp("deposit", coin, err)

	return balance, err
}

func (l *Ledger) deposit(ctx context.Context, owner uuid.UUID, coin bank.CoinType, amount decimal.Decimal) (decimal.Decimal, error) {
	err := validate(coin, amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("deposit: %w", err)
	}

	err = l.wallet.MinusCoin(ctx, owner, coin, amount)
	if err != nil {
		if errors.Is(err, bank.ErrInsufficientFunds) {
			return decimal.Zero, fmt.Errorf("deposit: wallet: %w", err)
		}

		return decimal.Zero, fmt.Errorf("deposit: %w: %w", bank.ErrWallet, err)
	}

	var (
		balance decimal.Decimal
		entry   bank.HistoryEntry
	)

	err = pgutils.WithTx(ctx, l.db, func(tx *sqlx.Tx) error {
		balance, err = l.balances.Increase(ctx, tx, owner, coin, amount)
		if err != nil {
			return err
		}

		entry, err = l.history.Insert(ctx, tx, bank.HistoryEntry{
			Owner:        owner,
			ChangeAmount: amount,
			ChangeType:   bank.ChangeDeposit,
			CoinType:     coin,
			Note:         depositNote,
		})

		return err
	})
	if err != nil {
		l.refund(owner, coin, amount, err)
		return decimal.Zero, fmt.Errorf("deposit: %w", err)
	}

	l.events.PublishEntry(entry)
	l.log.Info("bank deposit",
		"player", owner,
		"coin_type", coin,
		"amount", amount.String(),
		"balance", balance.String(),
	)

	return balance, nil
}

// refund returns coins debited from the wallet when the bank side failed.
func (l *Ledger) refund(owner uuid.UUID, coin bank.CoinType, amount decimal.Decimal, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), walletTimeout)
	defer cancel()

	err := l.wallet.AddCoin(ctx, owner, coin, amount)
	if err != nil {
		l.log.Error("deposit refund failed; wallet debited without bank credit",
			"player", owner,
			"coin_type", coin,
			"amount", amount.String(),
			"cause", cause,
			"error", err,
		)

		return
	}

	l.log.Warn("deposit refunded to wallet",
		"player", owner,
		"coin_type", coin,
		"amount", amount.String(),
		"cause", cause,
	)
}

// CreditInterest adds amount to the bank balance without touching the wallet
// and records rate and time of the credit.
func (l *Ledger) CreditInterest(
	ctx context.Context,
	owner uuid.UUID,
	coin bank.CoinType,
	amount decimal.Decimal,
	rate decimal.Decimal,
	note string,
) error {
	err := l.creditInterest(ctx, owner, coin, amount, rate, note)
	l.metrics.LedgerOp("interest", coin, err)

	return err
}

func (l *Ledger) creditInterest(
	ctx context.Context,
	owner uuid.UUID,
	coin bank.CoinType,
	amount decimal.Decimal,
	rate decimal.Decimal,
	note string,
) error {
	err := validate(coin, amount)
	if err != nil {
		return fmt.Errorf("credit interest: %w", err)
	}

	var entry bank.HistoryEntry

	err = pgutils.WithTx(ctx, l.db, func(tx *sqlx.Tx) error {
		_, err := l.balances.CreditInterest(ctx, tx, owner, coin, amount, rate, l.now())
		if err != nil {
			return err
		}

		entry, err = l.history.Insert(ctx, tx, bank.HistoryEntry{
			Owner:        owner,
			ChangeAmount: amount,
			ChangeType:   bank.ChangeDeposit,
			CoinType:     coin,
			Note:         note,
		})

		return err
	})
	if err != nil {
		return fmt.Errorf("credit interest: %w", err)
	}

	l.events.PublishEntry(entry)

	return nil
}

// Withdraw moves amount from the bank back into the wallet and returns the
// new bank balance.
//
// The bank debit commits before the wallet credit. If the wallet credit then
// fails the debit stays and ErrWalletCredit is returned.
func (l *Ledger) Withdraw(ctx context.Context, owner uuid.UUID, coin bank.CoinType, amount decimal.Decimal) (decimal.Decimal, error) {
	balance, err := l.withdraw(ctx, owner, coin, amount)
	l.metrics.LedgerOp("withdraw", coin, err)

	return balance, err
}

func (l *Ledger) withdraw(ctx context.Context, owner uuid.UUID, coin bank.CoinType, amount decimal.Decimal) (decimal.Decimal, error) {
	err := validate(coin, amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("withdraw: %w", err)
	}

	var (
		balance decimal.Decimal
		entry   bank.HistoryEntry
	)

	err = pgutils.WithTx(ctx, l.db, func(tx *sqlx.Tx) error {
		current, err := l.balances.LockAndGet(ctx, tx, owner, coin)
		if errors.Is(err, balances.ErrAccountNotFound) {
			return bank.ErrInsufficientFunds
		}

		if err != nil {
			return err
		}

		if current.LessThan(amount) {
			return bank.ErrInsufficientFunds
		}

		balance, err = l.balances.Decrease(ctx, tx, owner, coin, amount)
		if err != nil {
			return err
		}

		entry, err = l.history.Insert(ctx, tx, bank.HistoryEntry{
			Owner:        owner,
			ChangeAmount: amount,
			ChangeType:   bank.ChangeWithdraw,
			CoinType:     coin,
			Note:         withdrawNote,
		})

		return err
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("withdraw: %w", err)
	}

	l.events.PublishEntry(entry)

	// The debit is committed; a caller that went away must not cancel the credit.
	creditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), walletTimeout)
	defer cancel()

	err = l.wallet.AddCoin(creditCtx, owner, coin, amount)
	if err != nil {
		l.log.Error("withdraw committed but wallet credit failed",
			"player", owner,
			"coin_type", coin,
			"amount", amount.String(),
			"history_id", entry.ID,
			"error", err,
		)

		return balance, fmt.Errorf("withdraw: %w: %w", bank.ErrWalletCredit, err)
	}

	l.log.Info("bank withdraw",
		"player", owner,
		"coin_type", coin,
		"amount", amount.String(),
		"balance", balance.String(),
	)

	return balance, nil
}

// GetBalance returns zero when the player has never banked coin.
func (l *Ledger) GetBalance(ctx context.Context, owner uuid.UUID, coin bank.CoinType) (decimal.Decimal, error) {
	if !coin.Valid() {
		return decimal.Zero, fmt.Errorf("get balance: %w: %q", bank.ErrUnknownCoinType, coin)
	}

	balance, err := l.balances.Get(ctx, owner, coin)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

func (l *Ledger) Balances(ctx context.Context, owner uuid.UUID) ([]bank.Account, error) {
	accounts, err := l.balances.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("balances: %w", err)
	}

	return accounts, nil
}

// History returns the newest entries first. limit is clamped to
// (0, MaxHistoryLimit]; zero or negative selects DefaultHistoryLimit.
func (l *Ledger) History(ctx context.Context, owner uuid.UUID, limit int) ([]bank.HistoryEntry, error) {
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	entries, err := l.history.List(ctx, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	return entries, nil
}

// Owners lists every player with at least one bank row.
func (l *Ledger) Owners(ctx context.Context) ([]uuid.UUID, error) {
	owners, err := l.balances.Owners(ctx)
	if err != nil {
		return nil, fmt.Errorf("owners: %w", err)
	}

	return owners, nil
}
