package interest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/currencybank/internal/bank"
	"github.com/fastprodman/currencybank/internal/cron"
	"github.com/fastprodman/currencybank/internal/metrics"
)

const DefaultPeriod = 24 * time.Hour

// Creditor adds interest to a bank balance without touching the wallet.
type Creditor interface {
	CreditInterest(
		ctx context.Context,
		owner uuid.UUID,
		coin bank.CoinType,
		amount decimal.Decimal,
		rate decimal.Decimal,
		note string,
	) error
}

// PlayerLister enumerates the players that receive interest.
type PlayerLister interface {
	KnownPlayers(ctx context.Context) ([]uuid.UUID, error)
}

type Options struct {
	// Period between fires after the first one. Zero means DefaultPeriod.
	Period time.Duration
	// RecomputeSchedule derives every delay from the unit's cron expression
	// instead of using Period after the first fire.
	RecomputeSchedule bool
	Metrics           *metrics.Metrics
	Logger            *slog.Logger
	Now               func() time.Time
}

// TickReport summarises one execution of a unit.
type TickReport struct {
	Unit     string
	Players  int
	Credited int
	Skipped  int
	Failed   int
}

type Scheduler struct {
	loader    *Loader
	creditor  Creditor
	players   PlayerLister
	period    time.Duration
	recompute bool
	metrics   *metrics.Metrics
	log       *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
	wg      sync.WaitGroup
}

func NewScheduler(loader *Loader, creditor Creditor, players PlayerLister, opts Options) *Scheduler {
	s := &Scheduler{
		loader:    loader,
		creditor:  creditor,
		players:   players,
		period:    opts.Period,
		recompute: opts.RecomputeSchedule,
		metrics:   opts.Metrics,
		log:       opts.Logger,
		now:       opts.Now,
	}

	if s.period <= 0 {
		s.period = DefaultPeriod
	}

	if s.log == nil {
		s.log = slog.Default()
	}

	if s.now == nil {
		s.now = time.Now
	}

	return s
}

// Start discovers the units, launches one timer goroutine per unit and
// blocks until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped || s.done != nil {
		s.mu.Unlock()
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	defer close(done)
	defer cancel()

	// Discovery errors leave the scheduler idle until ctx is done.
	refs, created, err := s.loader.Discover()
	if err != nil {
		s.log.Error("interest units not discovered; scheduler idle", "root", s.loader.Root, "err", err)
		s.metrics.InterestTick(s.loader.Root, "error")
	}

	if created {
		s.log.Info("interest rules directory created", "root", s.loader.Root)
	}

	for _, ref := range refs {
		rs, err := s.loader.Parse(ref)
		if err != nil {
			s.log.Warn("interest unit skipped", "unit", ref.Name, "err", err)
			s.metrics.InterestTick(ref.Name, "invalid")

			continue
		}

		now := s.now()
		delay := rs.Schedule.Delay(now)

		s.log.Info("interest unit scheduled",
			"unit", ref.Name,
			"schedule", rs.Schedule.String(),
			"rules", len(rs.Rules),
			"first_fire", now.Add(delay),
		)

		s.wg.Add(1)
		go s.run(ctx, ref, rs.Schedule, delay)
	}

	<-ctx.Done()
	s.wg.Wait()
	s.log.Info("interest scheduler stopped")

	return nil
}

// Stop cancels every unit timer and waits for in-flight ticks to finish
// or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}

func (s *Scheduler) run(ctx context.Context, ref UnitRef, sched cron.Schedule, delay time.Duration) {
	defer s.wg.Done()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	if s.recompute {
		s.runRecompute(ctx, ref, sched, timer)
		return
	}

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	s.tick(ctx, ref)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, ref)
		}
	}
}

func (s *Scheduler) runRecompute(ctx context.Context, ref UnitRef, sched cron.Schedule, timer *time.Timer) {
	for {
		if rs, ok := s.tick(ctx, ref); ok {
			sched = rs.Schedule
		}

		timer.Reset(sched.Delay(s.now()))

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, ref UnitRef) (RuleSet, bool) {
	rs, err := s.loader.Parse(ref)
	if err != nil {
		s.log.Error("interest tick skipped", "unit", ref.Name, "err", err)
		s.metrics.InterestTick(ref.Name, "invalid")

		return RuleSet{}, false
	}

	report, err := s.apply(ctx, rs)
	if err != nil {
		s.log.Error("interest tick failed", "unit", ref.Name, "err", err)
		s.metrics.InterestTick(ref.Name, "error")

		return rs, true
	}

	result := "ok"
	if report.Failed > 0 {
		result = "partial"
	}

	s.metrics.InterestTick(ref.Name, result)
	s.log.Info("interest tick done",
		"unit", report.Unit,
		"players", report.Players,
		"credited", report.Credited,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)

	return rs, true
}

// ApplyUnit re-reads ref and credits every rule of it to every known player.
// Individual credit failures are counted in the report, not returned.
func (s *Scheduler) ApplyUnit(ctx context.Context, ref UnitRef) (TickReport, error) {
	rs, err := s.loader.Parse(ref)
	if err != nil {
		return TickReport{Unit: ref.Name}, err
	}

	return s.apply(ctx, rs)
}

func (s *Scheduler) apply(ctx context.Context, rs RuleSet) (TickReport, error) {
	report := TickReport{Unit: rs.Unit.Name}

	owners, err := s.players.KnownPlayers(ctx)
	if err != nil {
		return report, fmt.Errorf("list players: %w", err)
	}

	report.Players = len(owners)

	for _, owner := range owners {
		for _, rule := range rs.Rules {
			err = ctx.Err()
			if err != nil {
				return report, fmt.Errorf("apply %s: %w", rs.Unit.Name, err)
			}

			// Zero interest would only write an empty history row.
			amount := rule.Interest()
			if !amount.IsPositive() {
				report.Skipped++
				continue
			}

			note := fmt.Sprintf("scheduled interest: %s (%s%%)", rs.Unit.Name, rule.InterestRate)

			err = s.creditor.CreditInterest(ctx, owner, rule.CoinType, amount, rule.InterestRate, note)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return report, fmt.Errorf("apply %s: %w", rs.Unit.Name, err)
				}

				report.Failed++
				s.log.Error("interest credit failed",
					"unit", rs.Unit.Name,
					"player", owner,
					"coin_type", rule.CoinType,
					"amount", amount.String(),
					"err", err,
				)

				continue
			}

			report.Credited++
			s.metrics.Credited(rule.CoinType, amount)
			s.log.Debug("interest credited",
				"unit", rs.Unit.Name,
				"player", owner,
				"coin_type", rule.CoinType,
				"amount", amount.String(),
			)
		}
	}

	return report, nil
}
