// Package bank holds the domain types shared by the ledger, the interest
// scheduler and the command surface.
package bank

import (
	"fmt"
	"strings"
)

// CoinType is a currency denomination held by the wallet and the bank.
type CoinType string

const (
	Coin   CoinType = "coin"
	Copper CoinType = "copper"
	Silver CoinType = "silver"
	Gold   CoinType = "gold"
)

// CoinTypes lists every supported denomination in display order.
var CoinTypes = []CoinType{Coin, Copper, Silver, Gold}

// ParseCoinType accepts any casing and surrounding whitespace.
func ParseCoinType(s string) (CoinType, error) {
	ct := CoinType(strings.ToLower(strings.TrimSpace(s)))
	if !ct.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCoinType, s)
	}

	return ct, nil
}

func (c CoinType) Valid() bool {
	switch c {
	case Coin, Copper, Silver, Gold:
		return true
	default:
		return false
	}
}

func (c CoinType) String() string { return string(c) }

// UnmarshalText lets CoinType be used directly in env and yaml decoding.
func (c *CoinType) UnmarshalText(text []byte) error {
	ct, err := ParseCoinType(string(text))
	if err != nil {
		return err
	}

	*c = ct

	return nil
}

// ChangeType tags a history entry.
type ChangeType string

const (
	ChangeDeposit  ChangeType = "deposit"
	ChangeWithdraw ChangeType = "withdraw"
)
