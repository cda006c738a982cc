package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/currencybank/internal/bank"
)

type recorder struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (r *recorder) Publish(subject string, data []byte) error {
	r.subjects = append(r.subjects, subject)
	r.payloads = append(r.payloads, data)

	return r.err
}

func TestHistoryPublisher_PublishEntry(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	p := NewHistoryPublisher(rec, "")

	owner := uuid.New()
	p.PublishEntry(bank.HistoryEntry{
		ID:           7,
		Owner:        owner,
		ChangeAmount: decimal.RequireFromString("12.5"),
		ChangeType:   bank.ChangeWithdraw,
		CoinType:     bank.Gold,
		Note:         "bank withdraw",
	})

	require.Equal(t, []string{"bank.history.withdraw"}, rec.subjects)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.payloads[0], &got))
	assert.Equal(t, owner.String(), got["owner"])
	assert.Equal(t, "12.5", got["changeAmount"])
	assert.Equal(t, "gold", got["coinType"])
}

func TestHistoryPublisher_ErrorsAreSwallowed(t *testing.T) {
	t.Parallel()

	p := NewHistoryPublisher(&recorder{err: errors.New("nats down")}, "audit")
	assert.Equal(t, "audit.deposit", p.Subject(bank.ChangeDeposit))

	assert.NotPanics(t, func() {
		p.PublishEntry(bank.HistoryEntry{ChangeType: bank.ChangeDeposit})
	})
}

func TestConnect_EmptyURLIsNop(t *testing.T) {
	t.Parallel()

	pub, closeFn, err := Connect("")
	require.NoError(t, err)
	assert.IsType(t, Nop{}, pub)
	closeFn()
}
