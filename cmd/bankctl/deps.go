package main

import (
	"context"
	"fmt"

	"github.com/fastprodman/currencybank/internal/config"
	"github.com/fastprodman/currencybank/internal/events"
	"github.com/fastprodman/currencybank/internal/infra/pgutils"
	"github.com/fastprodman/currencybank/internal/infra/redisutil"
	"github.com/fastprodman/currencybank/internal/interest"
	"github.com/fastprodman/currencybank/internal/players"
	"github.com/fastprodman/currencybank/internal/services/ledger"
	"github.com/fastprodman/currencybank/internal/wallet"
	"github.com/fastprodman/currencybank/pkg/envconf"
)

type connConfig struct {
	Postgres config.PostgresConfig
	Redis    config.RedisConfig
	Nats     config.NatsConfig
	Interest config.InterestConfig
	Breaker  config.BreakerConfig
}

// rulesRoot resolves the rules directory from the flag or the environment.
func rulesRoot(opts *rootOptions) (string, error) {
	if opts.rulesDir != "" {
		return opts.rulesDir, nil
	}

	var cfg config.InterestConfig

	err := envconf.Load(&cfg)
	if err != nil {
		return "", fmt.Errorf("load interest config: %w", err)
	}

	return cfg.RulesDir, nil
}

// stack is the set of live services a command needs. close releases every
// connection opened by openStack.
type stack struct {
	ledger  *ledger.Ledger
	wallet  wallet.Service
	players players.Directory
	cfg     connConfig
	close   func()
}

func openStack(ctx context.Context) (*stack, error) {
	var cfg connConfig

	err := envconf.Load(&cfg)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	err = cfg.Breaker.Validate()
	if err != nil {
		return nil, fmt.Errorf("breaker: %w", err)
	}

	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	rdb, err := redisutil.Open(ctx, cfg.Redis)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("open redis: %w", err)
	}

	pub, closeNats, err := events.Connect(cfg.Nats.URL)
	if err != nil {
		_ = rdb.Close()
		_ = db.Close()

		return nil, fmt.Errorf("events: %w", err)
	}

	redisWallet := wallet.NewRedisWallet(rdb, cfg.Redis.KeyPrefix)
	walletSvc := wallet.NewBreaker(redisWallet, cfg.Breaker, nil)

	led := ledger.New(db, walletSvc,
		ledger.WithPublisher(events.NewHistoryPublisher(pub, cfg.Nats.SubjectPrefix)),
	)

	return &stack{
		ledger: led,
		wallet: walletSvc,
		players: players.Union(
			players.NewWalletSet(rdb, redisWallet.PlayersKey()),
			players.Func(led.Owners),
		),
		cfg: cfg,
		close: func() {
			closeNats()
			_ = rdb.Close()
			_ = db.Close()
		},
	}, nil
}

func (s *stack) scheduler(root string) *interest.Scheduler {
	return interest.NewScheduler(interest.NewLoader(root), s.ledger, s.players, interest.Options{
		Period:            s.cfg.Interest.Period,
		RecomputeSchedule: s.cfg.Interest.RecomputeSchedule,
	})
}
