package command

import "github.com/shopspring/decimal"

// Status classifies a Reply. Every outcome, including bad input, is a
// handled reply rather than an error.
type Status string

const (
	StatusOK           Status = "ok"
	StatusInvalid      Status = "invalid"
	StatusInsufficient Status = "insufficient"
	StatusFailed       Status = "failed"
)

type Reply struct {
	Status  Status           `json:"status"`
	Message string           `json:"message"`
	Balance *decimal.Decimal `json:"balance,omitempty"`
	// Upstream marks failures caused by the wallet rather than the bank.
	Upstream bool `json:"-"`
}

func ok(msg string, balance decimal.Decimal) Reply {
	return Reply{Status: StatusOK, Message: msg, Balance: &balance}
}

func invalid(msg string) Reply {
	return Reply{Status: StatusInvalid, Message: msg}
}

func insufficient(msg string) Reply {
	return Reply{Status: StatusInsufficient, Message: msg}
}

func failed(msg string) Reply {
	return Reply{Status: StatusFailed, Message: msg}
}

func failedUpstream(msg string) Reply {
	return Reply{Status: StatusFailed, Message: msg, Upstream: true}
}
