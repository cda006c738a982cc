// Package events publishes committed ledger history so other services can
// follow bank activity.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/fastprodman/currencybank/internal/bank"
)

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Nop discards every message.
type Nop struct{}

func (Nop) Publish(string, []byte) error { return nil }

// HistoryPublisher emits one JSON message per history entry on
// <prefix>.<change type>.
type HistoryPublisher struct {
	pub    Publisher
	prefix string
}

func NewHistoryPublisher(pub Publisher, prefix string) *HistoryPublisher {
	if pub == nil {
		pub = Nop{}
	}

	if prefix == "" {
		prefix = "bank.history"
	}

	return &HistoryPublisher{pub: pub, prefix: prefix}
}

func (p *HistoryPublisher) Subject(ct bank.ChangeType) string {
	return p.prefix + "." + string(ct)
}

// PublishEntry never fails the caller; errors are logged.
func (p *HistoryPublisher) PublishEntry(e bank.HistoryEntry) {
	err := p.publish(e)
	if err != nil {
		slog.Warn("publish history event",
			"player", e.Owner,
			"change_type", e.ChangeType,
			"error", err,
		)
	}
}

func (p *HistoryPublisher) publish(e bank.HistoryEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	err = p.pub.Publish(p.Subject(e.ChangeType), data)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	return nil
}
