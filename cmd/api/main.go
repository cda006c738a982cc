package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/fastprodman/currencybank/internal/api"
	"github.com/fastprodman/currencybank/internal/command"
	"github.com/fastprodman/currencybank/internal/events"
	"github.com/fastprodman/currencybank/internal/infra/logging"
	"github.com/fastprodman/currencybank/internal/infra/pgutils"
	"github.com/fastprodman/currencybank/internal/infra/redisutil"
	"github.com/fastprodman/currencybank/internal/interest"
	"github.com/fastprodman/currencybank/internal/metrics"
	"github.com/fastprodman/currencybank/internal/players"
	"github.com/fastprodman/currencybank/internal/services/ledger"
	"github.com/fastprodman/currencybank/internal/wallet"
	"github.com/fastprodman/currencybank/pkg/envconf"
	"github.com/fastprodman/currencybank/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

//nolint:funlen
func run(ctx context.Context) (retErr error) {
	_ = godotenv.Load()

	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	err = cfg.validate()
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	log := logging.SetupJSON(cfg.LogLevel, "service", "currency-bank")

	defer func() {
		serr := drain(cfg)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.Add("postgres", func(context.Context) error { return db.Close() })

	rdb, err := redisutil.Open(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("open redis: %w", err)
	}

	shutdownqueue.Add("redis", func(context.Context) error { return rdb.Close() })

	pub, closeNats, err := events.Connect(cfg.Nats.URL)
	if err != nil {
		return fmt.Errorf("events: %w", err)
	}

	shutdownqueue.Add("nats", func(context.Context) error {
		closeNats()
		return nil
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := metrics.New(reg)

	// --- Services ---
	redisWallet := wallet.NewRedisWallet(rdb, cfg.Redis.KeyPrefix)
	walletSvc := wallet.NewBreaker(redisWallet, cfg.Breaker, m)

	led := ledger.New(db, walletSvc,
		ledger.WithPublisher(events.NewHistoryPublisher(pub, cfg.Nats.SubjectPrefix)),
		ledger.WithMetrics(m),
		ledger.WithLogger(logging.Component(log, "ledger")),
	)

	cmds := command.New(led, walletSvc, logging.Component(log, "command"))

	if cfg.Interest.WriteExample {
		path, created, err := interest.EnsureExample(cfg.Interest.RulesDir)
		if err != nil {
			return fmt.Errorf("interest example: %w", err)
		}

		if created {
			log.Info("wrote example interest rules", "path", path)
		}
	}

	sched := interest.NewScheduler(
		interest.NewLoader(cfg.Interest.RulesDir),
		led,
		players.Union(
			players.NewWalletSet(rdb, redisWallet.PlayersKey()),
			players.Func(led.Owners),
		),
		interest.Options{
			Period:            cfg.Interest.Period,
			RecomputeSchedule: cfg.Interest.RecomputeSchedule,
			Metrics:           m,
			Logger:            logging.Component(log, "interest"),
		},
	)

	srv := api.NewServer(cfg.Port, api.NewRouter(
		led,
		cmds,
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	))

	// LIFO: the server stops first, then the scheduler, then the connections.
	shutdownqueue.Add("scheduler", sched.Stop)
	shutdownqueue.Add("http", srv.Stop)

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return srv.Start(gctx) })
	g.Go(func() error { return sched.Start(gctx) })

	<-gctx.Done()
	log.Info("shutting down")

	serr := drain(cfg)
	werr := g.Wait()

	return errors.Join(werr, serr)
}

func drain(cfg *apiConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	return shutdownqueue.Shutdown(ctx)
}
