package interest

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/currencybank/internal/bank"
	"github.com/fastprodman/currencybank/internal/metrics"
)

type credit struct {
	Owner  uuid.UUID
	Coin   bank.CoinType
	Amount decimal.Decimal
	Rate   decimal.Decimal
	Note   string
}

type fakeCreditor struct {
	mu      sync.Mutex
	credits []credit
	failFor uuid.UUID
}

func (f *fakeCreditor) CreditInterest(
	_ context.Context,
	owner uuid.UUID,
	coin bank.CoinType,
	amount decimal.Decimal,
	rate decimal.Decimal,
	note string,
) error {
	if owner == f.failFor {
		return errors.New("db down")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.credits = append(f.credits, credit{owner, coin, amount, rate, note})

	return nil
}

func (f *fakeCreditor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.credits)
}

type staticPlayers struct {
	ids []uuid.UUID
	err error
}

func (p staticPlayers) KnownPlayers(context.Context) ([]uuid.UUID, error) {
	return p.ids, p.err
}

const twoRules = `
interest:
  r1: {amount: 100000, coin_type: coin, interest_rate: 2}
  r2: {amount: 50000, coin_type: silver, interest_rate: 1.5}
  r3: {amount: 10, coin_type: gold, interest_rate: 0}
schedule: '* * * * *'
`

func TestScheduler_ApplyUnit(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "daily.yml"), twoRules)

	p1, p2 := uuid.New(), uuid.New()
	cr := &fakeCreditor{}
	s := NewScheduler(NewLoader(root), cr, staticPlayers{ids: []uuid.UUID{p1, p2}}, Options{})

	report, err := s.ApplyUnit(context.Background(), UnitRef{Name: "daily.yml", Path: filepath.Join(root, "daily.yml")})
	require.NoError(t, err)

	assert.Equal(t, TickReport{Unit: "daily.yml", Players: 2, Credited: 4, Skipped: 2}, report)
	require.Len(t, cr.credits, 4)

	first := cr.credits[0]
	assert.Equal(t, p1, first.Owner)
	assert.Equal(t, bank.Coin, first.Coin)
	assert.True(t, first.Amount.Equal(decimal.NewFromInt(2000)), first.Amount.String())
	assert.Equal(t, "scheduled interest: daily.yml (2%)", first.Note)

	second := cr.credits[1]
	assert.Equal(t, bank.Silver, second.Coin)
	assert.True(t, second.Amount.Equal(decimal.NewFromInt(750)), second.Amount.String())
	assert.Equal(t, "scheduled interest: daily.yml (1.5%)", second.Note)
}

func TestScheduler_ApplyUnit_FailingPlayerDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "u.yml"), twoRules)

	bad, good := uuid.New(), uuid.New()
	cr := &fakeCreditor{failFor: bad}
	s := NewScheduler(NewLoader(root), cr, staticPlayers{ids: []uuid.UUID{bad, good}}, Options{})

	report, err := s.ApplyUnit(context.Background(), UnitRef{Name: "u.yml", Path: filepath.Join(root, "u.yml")})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 2, report.Credited)

	for _, c := range cr.credits {
		assert.Equal(t, good, c.Owner)
	}
}

func TestScheduler_ApplyUnit_Errors(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bad.yml"), "interest: {}\n")
	writeFile(t, filepath.Join(root, "ok.yml"), twoRules)

	cr := &fakeCreditor{}
	s := NewScheduler(NewLoader(root), cr, staticPlayers{err: errors.New("redis down")}, Options{})

	_, err := s.ApplyUnit(context.Background(), UnitRef{Name: "bad.yml", Path: filepath.Join(root, "bad.yml")})
	assert.ErrorIs(t, err, ErrConfigParse)

	_, err = s.ApplyUnit(context.Background(), UnitRef{Name: "ok.yml", Path: filepath.Join(root, "ok.yml")})
	assert.ErrorContains(t, err, "redis down")
	assert.Zero(t, cr.count())
}

// nearMinute places the clock just before a minute boundary so that a
// "* * * * *" unit fires almost immediately.
func nearMinute() time.Time {
	return time.Now().Truncate(time.Minute).Add(time.Minute - 20*time.Millisecond)
}

func TestScheduler_StartFiresAndRepeats(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "fast.yml"), twoRules)
	writeFile(t, filepath.Join(root, "broken.yml"), "schedule: nope\n")

	cr := &fakeCreditor{}
	s := NewScheduler(NewLoader(root), cr, staticPlayers{ids: []uuid.UUID{uuid.New()}}, Options{
		Period: 20 * time.Millisecond,
		Now:    nearMinute,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(context.Background()) }()

	// two credits per fire; wait for at least three fires
	require.Eventually(t, func() bool { return cr.count() >= 6 }, 2*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, s.Stop(ctx))
	require.NoError(t, <-errCh)
}

func TestScheduler_RecomputeMode(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "fast.yml"), twoRules)

	cr := &fakeCreditor{}
	s := NewScheduler(NewLoader(root), cr, staticPlayers{ids: []uuid.UUID{uuid.New()}}, Options{
		RecomputeSchedule: true,
		Now:               nearMinute,
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return cr.count() >= 4 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)
}

func TestScheduler_StartCreatesRoot(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "missing")
	s := NewScheduler(NewLoader(root), &fakeCreditor{}, staticPlayers{}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	require.Eventually(t, func() bool {
		refs, created, err := Discover(root)
		return err == nil && !created && len(refs) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)
}

func TestScheduler_StopBeforeStart(t *testing.T) {
	t.Parallel()

	s := NewScheduler(NewLoader(t.TempDir()), &fakeCreditor{}, staticPlayers{}, Options{})
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Start(context.Background()))
}

// Two runs of the same unit produce independent credits that add up.
func TestScheduler_ApplyUnitTwiceAccumulates(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "daily.yml"), twoRules)

	player := uuid.New()
	cr := &fakeCreditor{}
	s := NewScheduler(NewLoader(root), cr, staticPlayers{ids: []uuid.UUID{player}}, Options{})
	ref := UnitRef{Name: "daily.yml", Path: filepath.Join(root, "daily.yml")}

	for range 2 {
		report, err := s.ApplyUnit(context.Background(), ref)
		require.NoError(t, err)
		assert.Equal(t, TickReport{Unit: "daily.yml", Players: 1, Credited: 2, Skipped: 1}, report)
	}

	require.Len(t, cr.credits, 4)

	totals := make(map[bank.CoinType]decimal.Decimal)
	for _, c := range cr.credits {
		assert.Equal(t, player, c.Owner)
		totals[c.Coin] = totals[c.Coin].Add(c.Amount)
	}

	assert.True(t, totals[bank.Coin].Equal(decimal.NewFromInt(4000)), totals[bank.Coin].String())
	assert.True(t, totals[bank.Silver].Equal(decimal.NewFromInt(1500)), totals[bank.Silver].String())
	assert.True(t, cr.credits[0].Amount.Equal(cr.credits[2].Amount))
}

// A rules root that cannot be walked leaves the scheduler idle until
// cancelled instead of failing Start.
func TestScheduler_StartIdlesWhenRootUnusable(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "rules")
	writeFile(t, root, "not a directory")

	m := metrics.New(prometheus.NewRegistry())
	s := NewScheduler(NewLoader(root), &fakeCreditor{}, staticPlayers{}, Options{Metrics: m})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.InterestTicks.WithLabelValues(root, "error")) == 1
	}, time.Second, 5*time.Millisecond)
	require.Never(t, func() bool { return len(errCh) > 0 }, 100*time.Millisecond, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)
}
