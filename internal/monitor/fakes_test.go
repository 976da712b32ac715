package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Jovzzqez008/sol-bot/internal/config"
	"github.com/Jovzzqez008/sol-bot/internal/domain"
	"github.com/Jovzzqez008/sol-bot/internal/observability"
	"github.com/Jovzzqez008/sol-bot/internal/simulation"
	"github.com/Jovzzqez008/sol-bot/internal/storage"
	"github.com/Jovzzqez008/sol-bot/internal/storage/memory"
)

// oracleStep is one scripted oracle response.
type oracleStep struct {
	price float64
	err   error
	panic bool
}

func prices(ps ...float64) []oracleStep {
	steps := make([]oracleStep, len(ps))
	for i, p := range ps {
		steps[i] = oracleStep{price: p}
	}
	return steps
}

// scriptedOracle replays steps in order and repeats the last one.
type scriptedOracle struct {
	mu    sync.Mutex
	steps []oracleStep
	calls int
}

func newScriptedOracle(steps []oracleStep) *scriptedOracle {
	return &scriptedOracle{steps: steps}
}

func (o *scriptedOracle) GetPrice(_ context.Context, _ string) (*domain.PriceQuote, error) {
	o.mu.Lock()
	i := o.calls
	if i >= len(o.steps) {
		i = len(o.steps) - 1
	}
	o.calls++
	step := o.steps[i]
	o.mu.Unlock()

	if step.panic {
		panic("oracle exploded")
	}
	if step.err != nil {
		return nil, step.err
	}
	if step.price == 0 {
		return nil, nil
	}
	return &domain.PriceQuote{Price: step.price, MarketCap: step.price * 1e6, Liquidity: 0}, nil
}

func (o *scriptedOracle) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

// fakeRules fires the configured alerts for every snapshot accepted by when.
type fakeRules struct {
	mu     sync.Mutex
	calls  int
	when   func(domain.Snapshot) bool
	alerts []string
}

func firstCheckRules(names ...string) *fakeRules {
	return &fakeRules{
		when:   func(s domain.Snapshot) bool { return s.ChecksCount == 1 },
		alerts: names,
	}
}

func alwaysRules(names ...string) *fakeRules {
	return &fakeRules{
		when:   func(domain.Snapshot) bool { return true },
		alerts: names,
	}
}

func (r *fakeRules) Evaluate(s domain.Snapshot) []domain.Alert {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()

	if !r.when(s) {
		return nil
	}
	out := make([]domain.Alert, 0, len(r.alerts))
	for _, name := range r.alerts {
		out = append(out, domain.Alert{RuleName: name, GainPercent: s.GainPercent(), PriceAtAlert: s.CurrentPrice})
	}
	return out
}

func (r *fakeRules) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// countingLocks counts lock releases per mint.
type countingLocks struct {
	*memory.MintRegistry
	mu       sync.Mutex
	releases map[string]int
}

func newCountingLocks() *countingLocks {
	return &countingLocks{
		MintRegistry: memory.NewMintRegistry("test-owner", time.Hour),
		releases:     make(map[string]int),
	}
}

func (c *countingLocks) ReleaseMonitor(ctx context.Context, mint string) error {
	c.mu.Lock()
	c.releases[mint]++
	c.mu.Unlock()
	return c.MintRegistry.ReleaseMonitor(ctx, mint)
}

func (c *countingLocks) Released(mint string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.releases[mint]
}

// recordingNotifier counts deliveries and optionally fails them.
type recordingNotifier struct {
	mu    sync.Mutex
	sends []domain.Alert
	texts []string
	err   error
}

func (n *recordingNotifier) Send(_ context.Context, _ domain.Snapshot, a domain.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sends = append(n.sends, a)
	return n.err
}

func (n *recordingNotifier) SendText(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
	return n.err
}

func (n *recordingNotifier) Sends() []domain.Alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Alert(nil), n.sends...)
}

func (n *recordingNotifier) Texts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.texts...)
}

// failingTradeStore rejects every insert.
type failingTradeStore struct {
	storage.TradeEventStore
	mu    sync.Mutex
	calls int
}

func (f *failingTradeStore) Insert(context.Context, *domain.TradeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return errors.New("postgres down")
}

func (f *failingTradeStore) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// flakySimulator fails the first failSells sells.
type flakySimulator struct {
	*simulation.Simulator
	mu        sync.Mutex
	failSells int
	sells     int
}

func (f *flakySimulator) SimulateSell(ctx context.Context, req domain.SellRequest) (*domain.SellFill, error) {
	f.mu.Lock()
	f.sells++
	fail := f.sells <= f.failSells
	f.mu.Unlock()

	if fail {
		return nil, errors.New("route not found")
	}
	return f.Simulator.SimulateSell(ctx, req)
}

func (f *flakySimulator) Sells() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sells
}

// recordingTicks collects enqueued ticks.
type recordingTicks struct {
	mu    sync.Mutex
	ticks []domain.PriceTick
}

func (r *recordingTicks) Enqueue(t domain.PriceTick) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, t)
	return true
}

func (r *recordingTicks) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ticks)
}

// harness wires a scheduler with in-memory collaborators.
type harness struct {
	sched    *Scheduler
	locks    *countingLocks
	trades   *memory.TradeEventStore
	notifier *recordingNotifier
	stats    *observability.Stats
	metrics  *observability.Metrics
}

func testMonitorConfig() config.MonitorConfig {
	return config.MonitorConfig{
		PollInterval:         time.Millisecond,
		MaxMonitorTime:       time.Minute,
		DumpThresholdPercent: -30,
		ProgressLogEvery:     2,
		StepTimeout:          time.Second,
	}
}

func testDryRunConfig() config.DryRunConfig {
	cfg := config.Defaults().DryRun
	cfg.Enabled = true
	cfg.MaxHoldTime = time.Hour
	return cfg
}

func newHarness(t *testing.T, oracle PriceOracle, rules RuleEvaluator, mutate func(*Options)) *harness {
	t.Helper()

	metrics := observability.NewMetrics("test", nil)
	h := &harness{
		locks:    newCountingLocks(),
		trades:   memory.NewTradeEventStore(),
		notifier: &recordingNotifier{},
		metrics:  metrics,
		stats:    observability.NewStats(metrics),
	}

	opts := Options{
		Monitor:   testMonitorConfig(),
		DryRun:    testDryRunConfig(),
		Oracle:    oracle,
		Rules:     rules,
		Simulator: simulation.NewSimulator(domain.ScenarioConfigRealistic, 150),
		Notifier:  h.notifier,
		Locks:     h.locks,
		Trades:    h.trades,
		Stats:     h.stats,
		Logger:    zaptest.NewLogger(t),
	}
	if mutate != nil {
		mutate(&opts)
	}

	h.sched = NewScheduler(opts)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.sched.Shutdown(ctx)
	})
	return h
}

// start locks, registers and hands off a record the way the dispatcher does.
func (h *harness) start(t *testing.T, mint string, initialPrice float64) *domain.AssetRecord {
	t.Helper()

	ok, err := h.locks.LockMonitor(context.Background(), mint)
	require.NoError(t, err)
	require.True(t, ok)

	rec := domain.NewAssetRecord(mint, "SYM", "Name", initialPrice, initialPrice*1e6, time.Now())
	require.NoError(t, h.sched.Registry().Register(rec))
	require.NoError(t, h.sched.Start(rec))
	return rec
}

// waitAll blocks until every task has exited.
func (h *harness) waitAll(t *testing.T) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		h.sched.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("monitor tasks did not finish")
	}
}

// panickingSimulator panics on the first panicBuys buys.
type panickingSimulator struct {
	*simulation.Simulator
	mu        sync.Mutex
	panicBuys int
	buys      int
}

func (p *panickingSimulator) SimulateBuy(ctx context.Context, req domain.BuyRequest) (*domain.BuyFill, error) {
	p.mu.Lock()
	p.buys++
	boom := p.buys <= p.panicBuys
	p.mu.Unlock()

	if boom {
		panic("fill model bug")
	}
	return p.Simulator.SimulateBuy(ctx, req)
}

// panickingNotifier panics on every alert.
type panickingNotifier struct {
	recordingNotifier
}

func (*panickingNotifier) Send(context.Context, domain.Snapshot, domain.Alert) error {
	panic("webhook client bug")
}
