package command

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/currencybank/internal/bank"
)

const (
	msgBadNumber   = "Amount must be a valid number."
	msgNotPositive = "Amount must be greater than zero."
)

var msgTooPrecise = fmt.Sprintf("Amount can have at most %d decimal places.", bank.AmountScale)

type coinRequest struct {
	CoinType string `validate:"required,coin"`
}

type amountRequest struct {
	CoinType string          `validate:"required,coin"`
	Amount   decimal.Decimal `validate:"positive,scale"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// decimals reach the rules below as their exact string form
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}

		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("positive", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.IsPositive()
	})

	_ = v.RegisterValidation("scale", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && !errors.Is(bank.CheckAmount(d), bank.ErrAmountScale)
	})

	_ = v.RegisterValidation("coin", func(fl validator.FieldLevel) bool {
		return bank.CoinType(fl.Field().String()).Valid()
	})

	return v
}

// message turns the first validation failure into player-facing text.
func message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid command."
	}

	fe := verrs[0]

	switch fe.Field() {
	case "Amount":
		if fe.Tag() == "scale" {
			return msgTooPrecise
		}

		return msgNotPositive
	case "CoinType":
		return "Unknown coin type. Use " + coinList() + "."
	default:
		return "Invalid " + strings.ToLower(fe.Field()) + "."
	}
}

func coinList() string {
	names := make([]string, 0, len(bank.CoinTypes))
	for _, c := range bank.CoinTypes {
		names = append(names, c.String())
	}

	return strings.Join(names, ", ")
}
