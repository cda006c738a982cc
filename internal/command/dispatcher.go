// Package command implements the player-facing /bank command: argument
// parsing, validation, advisory balance checks and completion.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/currencybank/internal/bank"
	"github.com/fastprodman/currencybank/internal/wallet"
)

const Usage = "Usage: /bank <deposit|withdraw|balance> <coinType> [amount]"

// Bank is the subset of the ledger the commands drive.
type Bank interface {
	Deposit(ctx context.Context, owner uuid.UUID, coin bank.CoinType, amount decimal.Decimal) (decimal.Decimal, error)
	Withdraw(ctx context.Context, owner uuid.UUID, coin bank.CoinType, amount decimal.Decimal) (decimal.Decimal, error)
	GetBalance(ctx context.Context, owner uuid.UUID, coin bank.CoinType) (decimal.Decimal, error)
}

type handler func(ctx context.Context, player uuid.UUID, args []string) Reply

type entry struct {
	usage   string
	minArgs int
	run     handler
}

type Dispatcher struct {
	bank     Bank
	wallet   wallet.Service
	validate *validator.Validate
	log      *slog.Logger
	commands map[string]entry
	names    []string
}

func New(b Bank, w wallet.Service, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	d := &Dispatcher{
		bank:     b,
		wallet:   w,
		validate: newValidator(),
		log:      log,
	}

	d.commands = map[string]entry{
		"deposit":  {usage: "Usage: /bank deposit <coinType> <amount>", minArgs: 3, run: d.deposit},
		"withdraw": {usage: "Usage: /bank withdraw <coinType> <amount>", minArgs: 3, run: d.withdraw},
		"balance":  {usage: "Usage: /bank balance <coinType>", minArgs: 2, run: d.balance},
	}

	d.names = []string{"deposit", "withdraw", "balance"}

	return d
}

// Execute runs one /bank invocation. args excludes the command name itself.
func (d *Dispatcher) Execute(ctx context.Context, player uuid.UUID, args []string) Reply {
	if len(args) < 2 {
		return invalid(Usage)
	}

	e, ok := d.commands[strings.ToLower(args[0])]
	if !ok {
		return invalid("Unknown bank subcommand. Use deposit, withdraw, or balance.")
	}

	if len(args) < e.minArgs {
		return invalid(e.usage)
	}

	return e.run(ctx, player, args[1:])
}

// Complete suggests the next argument: subcommands first, then coin types.
func (d *Dispatcher) Complete(args []string) []string {
	switch len(args) {
	case 1:
		return prefixed(d.names, args[0])
	case 2:
		if _, ok := d.commands[strings.ToLower(args[0])]; !ok {
			return []string{}
		}

		coins := make([]string, 0, len(bank.CoinTypes))
		for _, c := range bank.CoinTypes {
			coins = append(coins, c.String())
		}

		return prefixed(coins, args[1])
	default:
		return []string{}
	}
}

func prefixed(options []string, typed string) []string {
	typed = strings.ToLower(typed)

	out := []string{}
	for _, o := range options {
		if strings.HasPrefix(o, typed) {
			out = append(out, o)
		}
	}

	return out
}

// Commands lists the subcommand names in a stable order.
func (d *Dispatcher) Commands() []string {
	names := append([]string(nil), d.names...)
	sort.Strings(names)

	return names
}

func (d *Dispatcher) parseAmount(args []string) (bank.CoinType, decimal.Decimal, *Reply) {
	coin := strings.ToLower(strings.TrimSpace(args[0]))

	amount, err := decimal.NewFromString(strings.TrimSpace(args[1]))
	if err != nil {
		r := invalid(msgBadNumber)
		return "", decimal.Zero, &r
	}

	err = d.validate.Struct(amountRequest{CoinType: coin, Amount: amount})
	if err != nil {
		r := invalid(message(err))
		return "", decimal.Zero, &r
	}

	return bank.CoinType(coin), amount, nil
}

func (d *Dispatcher) deposit(ctx context.Context, player uuid.UUID, args []string) Reply {
	coin, amount, bad := d.parseAmount(args)
	if bad != nil {
		return *bad
	}

	held, err := d.wallet.GetCoin(ctx, player, coin)
	if err != nil {
		d.log.Error("wallet balance check failed", "player", player, "coin_type", coin, "error", err)
		return failedUpstream("Wallet is unavailable, try again later.")
	}

	if held.LessThan(amount) {
		return insufficient(fmt.Sprintf("You do not have enough %s in your wallet.", coin))
	}

	balance, err := d.bank.Deposit(ctx, player, coin, amount)
	if err != nil {
		return d.fromError(player, coin, "wallet", err)
	}

	return ok(fmt.Sprintf("Deposited %s %s into your bank. Bank balance: %s.", amount, coin, balance), balance)
}

func (d *Dispatcher) withdraw(ctx context.Context, player uuid.UUID, args []string) Reply {
	coin, amount, bad := d.parseAmount(args)
	if bad != nil {
		return *bad
	}

	held, err := d.bank.GetBalance(ctx, player, coin)
	if err != nil {
		d.log.Error("bank balance check failed", "player", player, "coin_type", coin, "error", err)
		return failed("Bank is unavailable, try again later.")
	}

	if held.LessThan(amount) {
		return insufficient(fmt.Sprintf("You do not have enough %s in your bank.", coin))
	}

	balance, err := d.bank.Withdraw(ctx, player, coin, amount)
	if err != nil {
		return d.fromError(player, coin, "bank", err)
	}

	return ok(fmt.Sprintf("Withdrew %s %s from your bank. Bank balance: %s.", amount, coin, balance), balance)
}

func (d *Dispatcher) balance(ctx context.Context, player uuid.UUID, args []string) Reply {
	coin := strings.ToLower(strings.TrimSpace(args[0]))

	err := d.validate.Struct(coinRequest{CoinType: coin})
	if err != nil {
		return invalid(message(err))
	}

	balance, err := d.bank.GetBalance(ctx, player, bank.CoinType(coin))
	if err != nil {
		d.log.Error("balance query failed", "player", player, "coin_type", coin, "error", err)
		return failed("Bank is unavailable, try again later.")
	}

	return ok(fmt.Sprintf("Your bank balance for %s is: %s", coin, balance), balance)
}

// fromError maps an authoritative ledger rejection onto a reply. source names
// the side whose funds were short.
func (d *Dispatcher) fromError(player uuid.UUID, coin bank.CoinType, source string, err error) Reply {
	switch {
	case errors.Is(err, bank.ErrInsufficientFunds):
		return insufficient(fmt.Sprintf("You do not have enough %s in your %s.", coin, source))
	case errors.Is(err, bank.ErrAmountScale):
		return invalid(msgTooPrecise)
	case errors.Is(err, bank.ErrInvalidAmount):
		return invalid(msgNotPositive)
	case errors.Is(err, bank.ErrUnknownCoinType):
		return invalid("Unknown coin type. Use " + coinList() + ".")
	case errors.Is(err, bank.ErrWalletCredit):
		d.log.Error("withdraw left wallet uncredited", "player", player, "coin_type", coin, "error", err)
		return failedUpstream("Your bank was debited but the wallet credit failed. Contact an administrator.")
	case errors.Is(err, bank.ErrWallet):
		d.log.Error("wallet call failed", "player", player, "coin_type", coin, "error", err)
		return failedUpstream("Wallet is unavailable, try again later.")
	default:
		d.log.Error("bank command failed", "player", player, "coin_type", coin, "error", err)
		return failed("Bank is unavailable, try again later.")
	}
}
