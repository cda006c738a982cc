package e2etests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/currencybank/internal/bank"
	"github.com/fastprodman/currencybank/internal/wallet"
)

// The suite runs against a live API. BANK_E2E_URL points at it (for example
// http://localhost:8080); BANK_E2E_REDIS_ADDR is the wallet Redis the API uses.
const (
	urlEnv    = "BANK_E2E_URL"
	redisEnv  = "BANK_E2E_REDIS_ADDR"
	prefixEnv = "BANK_E2E_REDIS_KEY_PREFIX"

	timeout   = 5 * time.Second
	waitReady = 20 * time.Second
)

var httpClient = &http.Client{Timeout: timeout}

type env struct {
	baseURL string
	wallet  *wallet.RedisWallet
}

func setup(t *testing.T) env {
	t.Helper()

	base := os.Getenv(urlEnv)
	if base == "" {
		t.Skipf("%s not set; skipping e2e tests", urlEnv)
	}

	addr := os.Getenv(redisEnv)
	if addr == "" {
		t.Skipf("%s not set; skipping e2e tests", redisEnv)
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	e := env{baseURL: base, wallet: wallet.NewRedisWallet(rdb, os.Getenv(prefixEnv))}
	waitUntilReady(t, e.baseURL)

	return e
}

func TestE2E_DepositWithdrawFlow(t *testing.T) {
	e := setup(t)
	player := uuid.New()
	ctx := context.Background()

	require.NoError(t, e.wallet.AddCoin(ctx, player, bank.Coin, decimal.NewFromInt(100)))

	t.Run("initial_bank_balance_zero", func(t *testing.T) {
		requireBalance(t, e, player, bank.Coin, "0")
	})

	t.Run("deposit_moves_coins_into_bank", func(t *testing.T) {
		code, body := postJSON(t, e, player, "deposits", map[string]string{"coinType": "coin", "amount": "60"})
		require.Equal(t, http.StatusOK, code, body)

		requireBalance(t, e, player, bank.Coin, "60")

		left, err := e.wallet.GetCoin(ctx, player, bank.Coin)
		require.NoError(t, err)
		require.True(t, left.Equal(decimal.NewFromInt(40)), "wallet left %s", left)
	})

	t.Run("withdraw_moves_coins_back", func(t *testing.T) {
		code, body := postJSON(t, e, player, "withdrawals", map[string]string{"coinType": "coin", "amount": "25"})
		require.Equal(t, http.StatusOK, code, body)

		requireBalance(t, e, player, bank.Coin, "35")

		left, err := e.wallet.GetCoin(ctx, player, bank.Coin)
		require.NoError(t, err)
		require.True(t, left.Equal(decimal.NewFromInt(65)), "wallet left %s", left)
	})

	t.Run("history_newest_first", func(t *testing.T) {
		var payload struct {
			Entries []bank.HistoryEntry `json:"entries"`
		}

		getJSON(t, e, fmt.Sprintf("/players/%s/history", player), &payload)

		require.Len(t, payload.Entries, 2)
		require.Equal(t, bank.ChangeWithdraw, payload.Entries[0].ChangeType)
		require.Equal(t, bank.ChangeDeposit, payload.Entries[1].ChangeType)
	})

	t.Run("command_surface_balance", func(t *testing.T) {
		code, body := postJSON(t, e, player, "commands", map[string][]string{"args": {"balance", "coin"}})
		require.Equal(t, http.StatusOK, code, body)
		require.Contains(t, body, "Your bank balance for coin is: 35")
	})
}

func TestE2E_RejectionsLeaveStateUnchanged(t *testing.T) {
	e := setup(t)
	player := uuid.New()

	require.NoError(t, e.wallet.AddCoin(context.Background(), player, bank.Gold, decimal.NewFromInt(5)))

	t.Run("deposit_more_than_wallet", func(t *testing.T) {
		code, body := postJSON(t, e, player, "deposits", map[string]string{"coinType": "gold", "amount": "6"})
		require.Equal(t, http.StatusConflict, code, body)
		requireBalance(t, e, player, bank.Gold, "0")
	})

	t.Run("withdraw_more_than_bank", func(t *testing.T) {
		code, body := postJSON(t, e, player, "withdrawals", map[string]string{"coinType": "gold", "amount": "1"})
		require.Equal(t, http.StatusConflict, code, body)
	})

	t.Run("invalid_coin_and_amount", func(t *testing.T) {
		code, _ := postJSON(t, e, player, "deposits", map[string]string{"coinType": "ruby", "amount": "1"})
		require.Equal(t, http.StatusBadRequest, code)

		code, _ = postJSON(t, e, player, "deposits", map[string]string{"coinType": "gold", "amount": "-1"})
		require.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("invalid_player", func(t *testing.T) {
		resp, err := httpClient.Get(e.baseURL + "/players/not-a-uuid/balances/gold")
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

/* -------------------- helpers -------------------- */

func requireBalance(t *testing.T, e env, player uuid.UUID, coin bank.CoinType, want string) {
	t.Helper()

	var payload struct {
		PlayerID uuid.UUID       `json:"playerId"`
		Balance  decimal.Decimal `json:"balance"`
	}

	getJSON(t, e, fmt.Sprintf("/players/%s/balances/%s", player, coin), &payload)

	require.Equal(t, player, payload.PlayerID)
	require.True(t, payload.Balance.Equal(decimal.RequireFromString(want)),
		"%s balance: want %s, got %s", coin, want, payload.Balance)
}

func getJSON(t *testing.T, e env, path string, dst any) {
	t.Helper()

	resp, err := httpClient.Get(e.baseURL + path)
	require.NoError(t, err)

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET %s: want 200, got %d (%s)", path, resp.StatusCode, string(b))
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func postJSON(t *testing.T, e env, player uuid.UUID, route string, body any) (int, string) {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	u := fmt.Sprintf("%s/players/%s/%s", e.baseURL, player, route)

	resp, err := httpClient.Post(u, "application/json", bytes.NewReader(data))
	require.NoError(t, err)

	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)

	return resp.StatusCode, string(b)
}

// waitUntilReady polls /healthz until it answers 200 or waitReady elapses.
func waitUntilReady(t *testing.T, base string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), waitReady)
	defer cancel()

	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("service not ready at %s within %s", base, waitReady)
		case <-tick.C:
			resp, err := httpClient.Get(base + "/healthz")
			if err != nil {
				continue
			}

			_ = resp.Body.Close()

			if resp.StatusCode == http.StatusOK {
				return
			}
		}
	}
}
