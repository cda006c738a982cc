package bank

import "errors"

var (
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrUnknownCoinType   = errors.New("unknown coin type")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrWallet marks a failed wallet call that happened before any local change.
	ErrWallet = errors.New("wallet service failure")

	// ErrWalletCredit marks a withdraw whose bank debit is committed but whose
	// wallet credit failed. The two sides are not reconciled automatically.
	ErrWalletCredit = errors.New("wallet credit failed after bank debit")
)
