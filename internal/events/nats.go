package events

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Connect dials NATS with unlimited reconnects. An empty url yields Nop.
func Connect(url string) (Publisher, func(), error) {
	if url == "" {
		return Nop{}, func() {}, nil
	}

	nc, err := nats.Connect(url,
		nats.Name("currency-bank"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect nats: %w", err)
	}

	closeFn := func() {
		err := nc.Drain()
		if err != nil {
			slog.Warn("nats drain", "error", err)
			nc.Close()
		}
	}

	return nc, closeFn, nil
}
