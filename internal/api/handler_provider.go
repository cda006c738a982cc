package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/currencybank/internal/bank"
	"github.com/fastprodman/currencybank/internal/command"
	"github.com/fastprodman/currencybank/internal/services/ledger"
)

// Ledger is the bank API the handlers expose.
type Ledger interface {
	Deposit(ctx context.Context, owner uuid.UUID, coin bank.CoinType, amount decimal.Decimal) (decimal.Decimal, error)
	Withdraw(ctx context.Context, owner uuid.UUID, coin bank.CoinType, amount decimal.Decimal) (decimal.Decimal, error)
	GetBalance(ctx context.Context, owner uuid.UUID, coin bank.CoinType) (decimal.Decimal, error)
	Balances(ctx context.Context, owner uuid.UUID) ([]bank.Account, error)
	History(ctx context.Context, owner uuid.UUID, limit int) ([]bank.HistoryEntry, error)
}

// Commands runs /bank command lines on behalf of a player.
type Commands interface {
	Execute(ctx context.Context, player uuid.UUID, args []string) command.Reply
	Complete(args []string) []string
}

// HandlerProvider wraps the ledger and the command dispatcher and exposes
// HTTP handlers.
type HandlerProvider struct {
	ledger Ledger
	cmds   Commands
}

func NewHandler(l Ledger, cmds Commands) *HandlerProvider {
	return &HandlerProvider{ledger: l, cmds: cmds}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parsePlayerID reads `{playerId}` from routes like /players/{playerId}/balances.
func parsePlayerID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "playerId")
	if raw == "" {
		return uuid.Nil, errors.New("missing playerId")
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid playerId: %w", err)
	}

	if id == uuid.Nil {
		return uuid.Nil, errors.New("invalid playerId: nil uuid")
	}

	return id, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if errors.Is(err, io.EOF) {
		return errors.New("empty body")
	}

	if err != nil {
		return errors.New("invalid JSON")
	}

	return nil
}

type moveRequest struct {
	CoinType string `json:"coinType"`
	Amount   string `json:"amount"`
}

func (m moveRequest) parse() (bank.CoinType, decimal.Decimal, error) {
	coin, err := bank.ParseCoinType(m.CoinType)
	if err != nil {
		return "", decimal.Zero, err
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(m.Amount))
	if err != nil {
		return "", decimal.Zero, fmt.Errorf("%w: amount must be a decimal string", bank.ErrInvalidAmount)
	}

	err = bank.CheckAmount(amount)
	if err != nil {
		return "", decimal.Zero, err
	}

	return coin, amount, nil
}

type balanceResponse struct {
	PlayerID uuid.UUID       `json:"playerId"`
	CoinType bank.CoinType   `json:"coinType"`
	Balance  decimal.Decimal `json:"balance"`
}

// statusFor maps ledger errors onto HTTP statuses and client-safe messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, bank.ErrAmountScale):
		return http.StatusBadRequest, "amount has more than 8 decimal places"
	case errors.Is(err, bank.ErrInvalidAmount):
		return http.StatusBadRequest, "amount must be a positive decimal"
	case errors.Is(err, bank.ErrUnknownCoinType):
		return http.StatusBadRequest, "unknown coin type"
	case errors.Is(err, bank.ErrInsufficientFunds):
		return http.StatusConflict, "insufficient funds"
	case errors.Is(err, bank.ErrWalletCredit):
		return http.StatusBadGateway, "bank debited but wallet credit failed"
	case errors.Is(err, bank.ErrWallet):
		return http.StatusBadGateway, "wallet unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func replyStatus(r command.Reply) int {
	switch r.Status {
	case command.StatusOK:
		return http.StatusOK
	case command.StatusInvalid:
		return http.StatusBadRequest
	case command.StatusInsufficient:
		return http.StatusConflict
	default:
		if r.Upstream {
			return http.StatusBadGateway
		}

		return http.StatusInternalServerError
	}
}

// --- Handlers ---

// ListBalancesHandler handles GET /players/{playerId}/balances
func (h *HandlerProvider) ListBalancesHandler(w http.ResponseWriter, r *http.Request) {
	player, err := parsePlayerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerId in path")
		return
	}

	accounts, err := h.ledger.Balances(r.Context(), player)
	if err != nil {
		slog.Error("list balances", "player", player, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"playerId": player,
		"balances": accounts,
	})
}

// GetBalanceHandler handles GET /players/{playerId}/balances/{coinType}
func (h *HandlerProvider) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	player, err := parsePlayerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerId in path")
		return
	}

	coin, err := bank.ParseCoinType(chi.URLParam(r, "coinType"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown coin type")
		return
	}

	bal, err := h.ledger.GetBalance(r.Context(), player, coin)
	if err != nil {
		slog.Error("get balance", "player", player, "coin_type", coin, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")

		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{PlayerID: player, CoinType: coin, Balance: bal})
}

// DepositHandler handles POST /players/{playerId}/deposits
func (h *HandlerProvider) DepositHandler(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.ledger.Deposit)
}

// WithdrawHandler handles POST /players/{playerId}/withdrawals
func (h *HandlerProvider) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.ledger.Withdraw)
}

type moveFunc func(ctx context.Context, owner uuid.UUID, coin bank.CoinType, amount decimal.Decimal) (decimal.Decimal, error)

func (h *HandlerProvider) move(w http.ResponseWriter, r *http.Request, fn moveFunc) {
	player, err := parsePlayerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerId in path")
		return
	}

	var req moveRequest

	err = decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	coin, amount, err := req.parse()
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg)

		return
	}

	bal, err := fn(r.Context(), player, coin, amount)
	if err != nil {
		status, msg := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("bank operation failed", "player", player, "coin_type", coin, "error", err)
		}

		writeError(w, status, msg)

		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{PlayerID: player, CoinType: coin, Balance: bal})
}

// HistoryHandler handles GET /players/{playerId}/history?limit=N
func (h *HandlerProvider) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	player, err := parsePlayerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerId in path")
		return
	}

	limit := ledger.DefaultHistoryLimit

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}

	entries, err := h.ledger.History(r.Context(), player, limit)
	if err != nil {
		slog.Error("history", "player", player, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"playerId": player,
		"entries":  entries,
	})
}

type commandRequest struct {
	Args []string `json:"args"`
}

// CommandHandler handles POST /players/{playerId}/commands
func (h *HandlerProvider) CommandHandler(w http.ResponseWriter, r *http.Request) {
	player, err := parsePlayerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerId in path")
		return
	}

	var req commandRequest

	err = decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply := h.cmds.Execute(r.Context(), player, req.Args)
	writeJSON(w, replyStatus(reply), reply)
}

// CompleteHandler handles GET /players/{playerId}/commands/complete?args=a&args=b
func (h *HandlerProvider) CompleteHandler(w http.ResponseWriter, r *http.Request) {
	_, err := parsePlayerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerId in path")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"suggestions": h.cmds.Complete(r.URL.Query()["args"]),
	})
}
