package balances

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/currencybank/internal/bank"
	"github.com/fastprodman/currencybank/internal/infra/pgutils"
	"github.com/fastprodman/currencybank/internal/repos/balances"
)

var _ balances.Balances = (*balancesRepo)(nil)

type balancesRepo struct{ db *sqlx.DB }

func New(db *sqlx.DB) *balancesRepo {
	return &balancesRepo{db: db}
}

func (r *balancesRepo) Get(ctx context.Context, owner uuid.UUID, coin bank.CoinType) (decimal.Decimal, error) {
	var balance decimal.Decimal

	err := r.db.GetContext(ctx, &balance, `
		SELECT balance
		FROM currency_bank
		WHERE uuid = $1
		  AND coin_type = $2
	`, owner, coin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}

		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

func (r *balancesRepo) ListByOwner(ctx context.Context, owner uuid.UUID) ([]bank.Account, error) {
	accounts := []bank.Account{}

	err := r.db.SelectContext(ctx, &accounts, `
		SELECT bank_id, uuid, coin_type, balance, interest_rate, last_interest_time
		FROM currency_bank
		WHERE uuid = $1
		ORDER BY coin_type
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}

	return accounts, nil
}

func (r *balancesRepo) Owners(ctx context.Context) ([]uuid.UUID, error) {
	owners := []uuid.UUID{}

	err := r.db.SelectContext(ctx, &owners, `
		SELECT DISTINCT uuid
		FROM currency_bank
		ORDER BY uuid
	`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}

	return owners, nil
}

// Increase creates the row on first use and adds amount atomically.
func (r *balancesRepo) Increase(
	ctx context.Context,
	tx *sqlx.Tx,
	owner uuid.UUID,
	coin bank.CoinType,
	amount decimal.Decimal,
) (decimal.Decimal, error) {
	var balance decimal.Decimal

	err := tx.GetContext(ctx, &balance, `
		INSERT INTO currency_bank (uuid, coin_type, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (uuid, coin_type)
		DO UPDATE SET balance = currency_bank.balance + EXCLUDED.balance
		RETURNING balance
	`, owner, coin, amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("increase balance: %w", err)
	}

	return balance, nil
}

func (r *balancesRepo) CreditInterest(
	ctx context.Context,
	tx *sqlx.Tx,
	owner uuid.UUID,
	coin bank.CoinType,
	amount, rate decimal.Decimal,
	at time.Time,
) (decimal.Decimal, error) {
	var balance decimal.Decimal

	err := tx.GetContext(ctx, &balance, `
		INSERT INTO currency_bank (uuid, coin_type, balance, interest_rate, last_interest_time)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (uuid, coin_type)
		DO UPDATE SET
			balance            = currency_bank.balance + EXCLUDED.balance,
			interest_rate      = EXCLUDED.interest_rate,
			last_interest_time = EXCLUDED.last_interest_time
		RETURNING balance
	`, owner, coin, amount, rate, at)
	if err != nil {
		return decimal.Zero, fmt.Errorf("credit interest: %w", err)
	}

	return balance, nil
}

func (r *balancesRepo) LockAndGet(
	ctx context.Context,
	tx *sqlx.Tx,
	owner uuid.UUID,
	coin bank.CoinType,
) (decimal.Decimal, error) {
	var balance decimal.Decimal

	err := tx.GetContext(ctx, &balance, `
		SELECT balance
		FROM currency_bank
		WHERE uuid = $1
		  AND coin_type = $2
		FOR UPDATE
	`, owner, coin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, balances.ErrAccountNotFound
		}

		return decimal.Zero, fmt.Errorf("lock/get balance: %w", err)
	}

	return balance, nil
}

// Decrease never drives a balance negative: a short or missing row yields
// bank.ErrInsufficientFunds.
func (r *balancesRepo) Decrease(
	ctx context.Context,
	tx *sqlx.Tx,
	owner uuid.UUID,
	coin bank.CoinType,
	amount decimal.Decimal,
) (decimal.Decimal, error) {
	var balance decimal.Decimal

	err := tx.GetContext(ctx, &balance, `
		UPDATE currency_bank
		SET balance = balance - $3
		WHERE uuid = $1
		  AND coin_type = $2
		  AND balance >= $3
		RETURNING balance
	`, owner, coin, amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pgutils.HasCode(err, pgutils.CodeCheckViolation) {
			return decimal.Zero, bank.ErrInsufficientFunds
		}

		return decimal.Zero, fmt.Errorf("decrease balance: %w", err)
	}

	return balance, nil
}
