package bank

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of decimal places balances and history store.
const AmountScale = 8

// ErrAmountScale marks an amount the database would silently round.
var ErrAmountScale = fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, AmountScale)

// CheckAmount accepts positive amounts representable in AmountScale places.
func CheckAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	if !amount.Equal(amount.Truncate(AmountScale)) {
		return ErrAmountScale
	}

	return nil
}
