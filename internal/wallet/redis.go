package wallet

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/currencybank/internal/bank"
)

//go:embed minus.lua
var minusScript string

const (
	minusOK        = 1
	minusShort     = -1
	minusCorrupted = -2
)

var _ Service = (*RedisWallet)(nil)

// RedisWallet keeps one hash per player (<prefix>:<uuid>, field per coin type)
// and a set of every player it has seen (<prefix>:players).
type RedisWallet struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisWallet(rdb redis.Cmdable, prefix string) *RedisWallet {
	if prefix == "" {
		prefix = "wallet"
	}

	return &RedisWallet{rdb: rdb, prefix: prefix}
}

func (w *RedisWallet) key(owner uuid.UUID) string {
	return w.prefix + ":" + owner.String()
}

// PlayersKey is the set of players that ever held coins.
func (w *RedisWallet) PlayersKey() string {
	return w.prefix + ":players"
}

func (w *RedisWallet) GetCoin(ctx context.Context, owner uuid.UUID, coin bank.CoinType) (decimal.Decimal, error) {
	raw, err := w.rdb.HGet(ctx, w.key(owner), coin.String()).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, nil
	}

	if err != nil {
		return decimal.Zero, fmt.Errorf("get coin: %w", err)
	}

	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse wallet value %q: %w", raw, err)
	}

	return v, nil
}

func (w *RedisWallet) AddCoin(ctx context.Context, owner uuid.UUID, coin bank.CoinType, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return bank.ErrInvalidAmount
	}

	incr, _ := amount.Float64()

	err := w.rdb.HIncrByFloat(ctx, w.key(owner), coin.String(), incr).Err()
	if err != nil {
		return fmt.Errorf("add coin: %w", err)
	}

	err = w.rdb.SAdd(ctx, w.PlayersKey(), owner.String()).Err()
	if err != nil {
		return fmt.Errorf("track player: %w", err)
	}

	return nil
}

// MinusCoin checks and debits atomically inside Redis.
func (w *RedisWallet) MinusCoin(ctx context.Context, owner uuid.UUID, coin bank.CoinType, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return bank.ErrInvalidAmount
	}

	keys := []string{w.key(owner), w.PlayersKey()}

	res, err := w.rdb.Eval(ctx, minusScript, keys, coin.String(), amount.String(), owner.String()).Result()
	if err != nil {
		return fmt.Errorf("minus coin: %w", err)
	}

	parts, ok := res.([]interface{})
	if !ok || len(parts) < 2 {
		return errors.New("minus coin: unexpected script reply")
	}

	status, ok := parts[0].(int64)
	if !ok {
		return errors.New("minus coin: unexpected script status")
	}

	switch status {
	case minusOK:
		return nil
	case minusShort:
		return fmt.Errorf("minus coin: has %v: %w", parts[1], bank.ErrInsufficientFunds)
	case minusCorrupted:
		return fmt.Errorf("minus coin: wallet field %s is not numeric", coin)
	default:
		return fmt.Errorf("minus coin: unknown script status %d", status)
	}
}
