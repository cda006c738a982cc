// Package players enumerates the players that receive scheduled interest.
package players

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Directory lists known players.
type Directory interface {
	KnownPlayers(ctx context.Context) ([]uuid.UUID, error)
}

// Func adapts a function to Directory.
type Func func(ctx context.Context) ([]uuid.UUID, error)

func (f Func) KnownPlayers(ctx context.Context) ([]uuid.UUID, error) { return f(ctx) }

// WalletSet reads the Redis set the wallet adds every touched player to.
type WalletSet struct {
	rdb redis.Cmdable
	key string
}

func NewWalletSet(rdb redis.Cmdable, key string) *WalletSet {
	return &WalletSet{rdb: rdb, key: key}
}

func (s *WalletSet) KnownPlayers(ctx context.Context) ([]uuid.UUID, error) {
	members, err := s.rdb.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("wallet players: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			slog.Warn("ignoring malformed player id", "set", s.key, "member", m)
			continue
		}

		ids = append(ids, id)
	}

	return ids, nil
}

type union struct {
	sources []Directory
}

// Union merges several directories, dropping duplicates and keeping first-seen
// order. It fails only when every source fails.
func Union(sources ...Directory) Directory {
	return &union{sources: sources}
}

func (u *union) KnownPlayers(ctx context.Context) ([]uuid.UUID, error) {
	var (
		out  []uuid.UUID
		seen = make(map[uuid.UUID]struct{})
		errs []error
	)

	for _, src := range u.sources {
		ids, err := src.KnownPlayers(ctx)
		if err != nil {
			slog.Warn("player source failed", "error", err)
			errs = append(errs, err)

			continue
		}

		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}

			seen[id] = struct{}{}
			out = append(out, id)
		}
	}

	if len(u.sources) > 0 && len(errs) == len(u.sources) {
		return nil, fmt.Errorf("all player sources failed: %w", errors.Join(errs...))
	}

	return out, nil
}
