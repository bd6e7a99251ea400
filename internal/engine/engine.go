// Package engine runs the trading loop: drain fills, validate market
// data, recover gaps, and quote through the risk gate. One goroutine
// owns the loop; everything it touches is wired for that.
package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/codec"
	"main/internal/errors"
	"main/internal/exec"
	"main/internal/marketdata"
	"main/internal/obs"
	"main/internal/og"
	"main/internal/resilience"
	"main/internal/risk"
	"main/internal/schema"
	"main/internal/state"
	"main/internal/strategy"
	"main/pkg/exception"
	"main/pkg/fixed"
)

const engineSource uint16 = 1

// Config wires the engine's guards and pacing.
type Config struct {
	MarketID uint64

	Validator marketdata.ValidatorConfig
	Stale     resilience.StaleBreakerConfig
	Recovery  resilience.RecoveryConfig
	Limits    risk.Limits

	// MaxJumpBps trips the flash-crash breaker; zero disables it.
	MaxJumpBps int64

	// MaxPostStaleJumpBps bounds how far the top of book may move
	// across a stale window before the first fresh tick is skipped.
	// Zero means the default, negative disables the guard.
	MaxPostStaleJumpBps int64

	// MinQuoteInterval throttles requoting against the snapshot's local
	// timestamp. Snapshots without a local timestamp are not throttled.
	MinQuoteInterval time.Duration

	// StartupTimeout bounds the wait for the first valid full snapshot.
	StartupTimeout time.Duration

	// PollInterval is the idle sleep when the feed is empty.
	PollInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.StartupTimeout <= 0 {
		c.StartupTimeout = 10 * time.Second
	}
	if c.MaxPostStaleJumpBps == 0 {
		c.MaxPostStaleJumpBps = 200
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 100 * time.Microsecond
	}
	return c
}

// Journal receives fills and denied decisions for persistence. Calls
// must not block.
type Journal interface {
	RecordFill(schema.Fill)
	RecordDecision(schema.RiskDecision)
}

// FillLog receives fills for durable replay, typically the WAL writer.
type FillLog interface {
	TryAppend(header schema.EventHeader, payload []byte) error
}

// Engine owns the tick pipeline. It is not safe for concurrent use;
// Run drives it from a single goroutine.
type Engine struct {
	cfg Config

	validator *marketdata.Validator
	book      *marketdata.Book
	gaps      *resilience.GapDetector
	stale     *resilience.StaleBreaker
	trading   *resilience.TradingBreaker
	recovery  *resilience.Recovery
	position  *state.Position
	risk      *risk.Engine
	strat     strategy.Strategy
	executor  exec.Executor
	orders    *og.Book
	metrics   *obs.Metrics

	journal Journal
	fillLog FillLog

	now func() int64

	nextOrderID uint64
	walSeq      uint64
	lastQuoteTs int64
	lastSeq     atomic.Uint64
	lastEventTs atomic.Int64

	fatal      error
	riskHalted bool

	wasStale     bool
	lastFreshBid schema.Price
	lastFreshAsk schema.Price
}

// New builds an engine around a strategy and an executor.
func New(cfg Config, strat strategy.Strategy, executor exec.Executor) (*Engine, error) {
	if strat == nil || executor == nil {
		return nil, exception.ErrNilInstance
	}
	if err := cfg.Limits.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	gaps := resilience.NewGapDetector()
	return &Engine{
		cfg:       cfg,
		validator: marketdata.NewValidator(cfg.Validator),
		book:      marketdata.NewBook(cfg.MarketID),
		gaps:      gaps,
		stale:     resilience.NewStaleBreaker(cfg.Stale),
		trading:   resilience.NewTradingBreaker(cfg.MaxJumpBps),
		recovery: resilience.NewRecovery(cfg.Recovery, gaps, resilience.NewConnBreaker(resilience.ConnBreakerConfig{
			Name: "resync",
		})),
		position: state.NewPosition(),
		risk:     risk.NewEngine(cfg.Limits),
		strat:    strat,
		executor: executor,
		orders:   og.NewBook(),
		metrics:  obs.NewMetrics(),
		now:      func() int64 { return time.Now().UTC().UnixNano() },
	}, nil
}

// WithJournal attaches a fill and decision journal.
func (e *Engine) WithJournal(j Journal) *Engine {
	e.journal = j
	return e
}

// WithFillLog attaches a durable fill log.
func (e *Engine) WithFillLog(l FillLog) *Engine {
	e.fillLog = l
	return e
}

// WithClock injects the loop clock for deterministic tests and replay.
func (e *Engine) WithClock(now func() int64) *Engine {
	e.now = now
	return e
}

// Position returns the live ledger.
func (e *Engine) Position() *state.Position {
	return e.position
}

// OpenOrders returns the engine's count of live orders.
func (e *Engine) OpenOrders() int {
	return e.orders.Len()
}

// Metrics returns the engine's counters.
func (e *Engine) Metrics() *obs.Metrics {
	return e.metrics
}

// GapStats returns sequence continuity counters.
func (e *Engine) GapStats() resilience.GapStats {
	return e.gaps.Stats()
}

// LastSequence returns the sequence of the last accepted snapshot.
func (e *Engine) LastSequence() uint64 {
	return e.lastSeq.Load()
}

// LastEventTs returns the exchange timestamp of the last accepted
// snapshot.
func (e *Engine) LastEventTs() int64 {
	return e.lastEventTs.Load()
}

// Fatal returns the latched fatal error, nil while the engine is sound.
func (e *Engine) Fatal() error {
	return e.fatal
}

// Halted reports whether signal generation is stopped by a breaker or
// a risk breach. The ledger keeps updating either way.
func (e *Engine) Halted() bool {
	return e.riskHalted || e.trading.Halted()
}

// Resume re-arms the breakers and risk halt after operator review. A
// fatal engine is not resumable.
func (e *Engine) Resume() {
	e.riskHalted = false
	e.trading.Reset()
}

// ProcessTick runs one snapshot through the pipeline. Fills are
// drained unconditionally, even when the snapshot turns out to be
// invalid: money truth does not wait for clean market data. A nil
// return means the tick was handled, whether or not quotes went out.
func (e *Engine) ProcessTick(ctx context.Context, feed resilience.ResyncFeed, snap *schema.MarketSnapshot) error {
	if e.fatal != nil {
		return e.fatal
	}
	start := time.Now()
	defer func() { e.metrics.ObserveTick(time.Since(start)) }()
	e.metrics.IncTick()

	if err := e.drainFills(); err != nil {
		return err
	}

	if verr := e.validator.Validate(snap); verr != nil {
		logs.Warnf("snapshot rejected, seq: %d, kind: %s", verr.Sequence, verr.Kind)
		e.metrics.IncSkippedInvalid()
		return nil
	}

	if gap := e.gaps.Check(snap.Sequence); gap > 0 {
		logs.Warnf("sequence gap, seq: %d, missed: %d, severity: %s",
			snap.Sequence, gap, resilience.Severity(gap))
		if err := e.recovery.Recover(ctx, feed, snap.Sequence); err != nil {
			logs.Errorf("gap recovery failed, err: %v", err)
			e.book.Invalidate()
			e.cancelAll()
			return nil
		}
		e.metrics.IncGapRecovered()
	}

	e.observeSnapshot(snap)
	topChanged := !e.book.Primed() || e.book.TopChanged(snap)
	e.book.Apply(snap)

	e.executor.CheckFills(snap)
	if err := e.drainFills(); err != nil {
		return err
	}

	if !e.book.Primed() {
		// Desynced after a failed recovery. Hold quotes until the next
		// full snapshot rebuilds the depth.
		e.metrics.IncDesyncSkip()
		e.cancelAll()
		return nil
	}
	if !topChanged {
		return nil
	}

	mid := e.book.MidPrice()
	if e.trading.Observe(mid) {
		e.cancelAll()
	}
	if e.Halted() {
		e.metrics.IncHaltTick()
		return nil
	}

	if !e.stale.IsFresh(e.now()) {
		e.metrics.IncStaleSkip()
		e.wasStale = true
		e.cancelAll()
		return nil
	}
	if e.wasStale {
		e.wasStale = false
		if e.postStaleJump(snap) {
			logs.Warnf("price jump across stale window, seq: %d, bid: %d, ask: %d, skipping tick",
				snap.Sequence, snap.BestBidPrice, snap.BestAskPrice)
			e.lastFreshBid = snap.BestBidPrice
			e.lastFreshAsk = snap.BestAskPrice
			e.metrics.IncStaleSkip()
			return nil
		}
		logs.Infof("market data recovered from stale state, seq: %d", snap.Sequence)
	}
	e.lastFreshBid = snap.BestBidPrice
	e.lastFreshAsk = snap.BestAskPrice

	view, total, err := e.markToMarket(mid)
	if err != nil {
		return err
	}

	sig := e.strat.Calculate(snap, view)
	if sig == nil || sig.Action == schema.SignalNoAction {
		return nil
	}
	if sig.Action == schema.SignalCancelAll {
		e.cancelAll()
		return nil
	}

	decision := e.risk.PreTrade(sig, view, total)
	if decision.Action != schema.RiskActionAllow {
		e.metrics.IncQuoteDenied(decision.Reason)
		if e.journal != nil {
			e.journal.RecordDecision(decision)
		}
		return nil
	}

	if e.throttled(snap.LocalTsNano) {
		return nil
	}

	e.requote(sig)
	return nil
}

// Run processes the feed until the context ends or a fatal error
// latches. It refuses to trade before the first valid full snapshot.
func (e *Engine) Run(ctx context.Context, feed resilience.ResyncFeed) error {
	first, err := e.awaitFullSnapshot(ctx, feed)
	if err != nil {
		return err
	}
	if err := e.ProcessTick(ctx, feed, &first); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return nil
		default:
		}

		snap, ok := feed.Poll()
		if !ok {
			// Fills do not wait for market data. A quiet feed still
			// drains the executor queue every pass.
			if err := e.drainFills(); err != nil {
				e.cancelAll()
				return err
			}
			e.stale.MarkEmptyPoll()
			if e.stale.State(e.now()) == resilience.FreshnessOffline {
				e.cancelAll()
			}
			time.Sleep(e.cfg.PollInterval)
			continue
		}
		if err := e.ProcessTick(ctx, feed, &snap); err != nil {
			e.cancelAll()
			return err
		}
	}
}

// awaitFullSnapshot blocks until the feed delivers a valid full
// snapshot. Trading against an incremental book at startup would mean
// quoting into depth we never saw.
func (e *Engine) awaitFullSnapshot(ctx context.Context, feed resilience.ResyncFeed) (schema.MarketSnapshot, error) {
	deadline := time.Now().Add(e.cfg.StartupTimeout)
	for {
		select {
		case <-ctx.Done():
			return schema.MarketSnapshot{}, errors.Wrap(ctx.Err(), "await startup snapshot")
		default:
		}
		if time.Now().After(deadline) {
			return schema.MarketSnapshot{}, exception.ErrStartupTimeout
		}

		snap, ok := feed.Poll()
		if !ok {
			time.Sleep(e.cfg.PollInterval)
			continue
		}
		if !snap.IsFull() {
			continue
		}
		if verr := e.validator.Validate(&snap); verr != nil {
			logs.Warnf("startup snapshot rejected, seq: %d, kind: %s", verr.Sequence, verr.Kind)
			continue
		}
		logs.Infof("startup snapshot accepted, seq: %d", snap.Sequence)
		return snap, nil
	}
}

// drainFills empties the fill queue into the ledger. Any dropped fill
// is fatal: the position can no longer be reconciled with reality.
func (e *Engine) drainFills() error {
	for {
		f, ok := e.executor.PollFill()
		if !ok {
			break
		}
		if err := e.applyFill(f); err != nil {
			return err
		}
	}
	if dropped := e.executor.DroppedFillCount(); dropped > 0 {
		e.fatal = errors.Wrap(exception.ErrFillQueueOverflow, "position state unrecoverable")
		logs.Errorf("fills dropped, count: %d, halting", dropped)
		return e.fatal
	}
	return nil
}

func (e *Engine) applyFill(f schema.Fill) error {
	if err := e.position.ApplyFill(f.Side, f.Price, f.Qty, f.Fee); err != nil {
		if fatal := e.classifyFillError(err); fatal != nil {
			e.fatal = fatal
			return fatal
		}
		logs.Warnf("fill rejected, order: %d, err: %v", f.OrderID, err)
		e.metrics.IncFillError()
		return nil
	}
	e.metrics.IncFillApplied()

	// Advance the engine's own order view. Fills for orders already
	// cancelled on our side are expected and land in the ledger anyway.
	if _, err := e.orders.ApplyFill(f); err != nil && !errors.Is(err, exception.ErrOrderUnknown) {
		logs.Warnf("fill reconcile failed, order: %d, err: %v", f.OrderID, err)
	}

	if e.journal != nil {
		e.journal.RecordFill(f)
	}
	if e.fillLog != nil {
		e.walSeq++
		header := schema.NewHeader(schema.EventFill, engineSource, e.walSeq, f.TsNano, e.now())
		if err := e.fillLog.TryAppend(header, codec.EncodeFill(nil, f)); err != nil {
			logs.Warnf("fill log append failed, order: %d, err: %v", f.OrderID, err)
		}
	}

	view := e.position.Snapshot()
	total, err := e.totalPnL(view)
	if err != nil {
		e.fatal = err
		return err
	}
	if err := e.risk.PostFill(view, total); err != nil {
		var breach *risk.LimitBreach
		if errors.As(err, &breach) {
			logs.Errorf("post-fill limit breach, reason: %s, observed: %d, limit: %d",
				breach.Reason, breach.Observed, breach.Limit)
			e.riskHalted = true
			e.cancelAll()
			return nil
		}
		return err
	}
	return nil
}

// classifyFillError separates fills that are merely malformed from
// ones that prove the ledger is broken.
func (e *Engine) classifyFillError(err error) error {
	if errors.Is(err, exception.ErrInvalidPositionState) {
		return err
	}
	var overflow *fixed.OverflowError
	if errors.As(err, &overflow) {
		return err
	}
	return nil
}

func (e *Engine) markToMarket(mid schema.Price) (state.View, int64, error) {
	unreal, err := e.position.UnrealizedPnL(mid)
	if err != nil {
		e.fatal = err
		return state.View{}, 0, err
	}
	view := e.position.Snapshot()
	total, err := fixed.Add(view.DailyPnL, unreal)
	if err != nil {
		e.fatal = err
		return state.View{}, 0, err
	}
	e.position.UpdateHighWater(total)
	view.HighWaterMark = e.position.HighWaterMark()
	return view, total, nil
}

func (e *Engine) totalPnL(view state.View) (int64, error) {
	mid := e.book.MidPrice()
	if !e.book.Primed() || mid <= 0 {
		return view.DailyPnL, nil
	}
	unreal, err := e.position.UnrealizedPnL(mid)
	if err != nil {
		return 0, err
	}
	return fixed.Add(view.DailyPnL, unreal)
}

func (e *Engine) throttled(localTsNano int64) bool {
	if e.cfg.MinQuoteInterval <= 0 || localTsNano <= 0 {
		return false
	}
	if e.lastQuoteTs > 0 && localTsNano-e.lastQuoteTs < int64(e.cfg.MinQuoteInterval) {
		return true
	}
	return false
}

// postStaleJump reports whether the top of book moved beyond the
// configured bound while the feed was stale.
func (e *Engine) postStaleJump(snap *schema.MarketSnapshot) bool {
	if e.cfg.MaxPostStaleJumpBps <= 0 {
		return false
	}
	if e.lastFreshBid <= 0 || e.lastFreshAsk <= 0 {
		return false
	}
	return resilience.JumpExceedsBps(e.lastFreshBid, snap.BestBidPrice, e.cfg.MaxPostStaleJumpBps) ||
		resilience.JumpExceedsBps(e.lastFreshAsk, snap.BestAskPrice, e.cfg.MaxPostStaleJumpBps)
}

// cancelAll pulls quotes at the venue and clears the engine's own
// order view.
func (e *Engine) cancelAll() {
	e.executor.CancelAll()
	e.orders.CancelAll()
}

func (e *Engine) requote(sig *schema.Signal) {
	e.cancelAll()

	if sig.Action == schema.SignalQuoteBoth || sig.Action == schema.SignalQuoteBid {
		e.submit(schema.OrderSideBuy, sig.BidPrice, sig.BidSize)
	}
	if sig.Action == schema.SignalQuoteBoth || sig.Action == schema.SignalQuoteAsk {
		e.submit(schema.OrderSideSell, sig.AskPrice, sig.AskSize)
	}
	if sig.TsNano > 0 {
		e.lastQuoteTs = sig.TsNano
	}
}

func (e *Engine) submit(side schema.OrderSide, price schema.Price, qty schema.Quantity) {
	e.nextOrderID++
	id := schema.OrderID(e.nextOrderID)
	if err := e.executor.Submit(og.NewOrder(id, e.cfg.MarketID, side, price, qty)); err != nil {
		logs.Errorf("order submit failed, id: %d, side: %s, err: %v", id, side, err)
		return
	}
	// The venue owns the submitted order. The engine keeps its own
	// copy, advanced only by drained fills.
	mine := og.NewOrder(id, e.cfg.MarketID, side, price, qty)
	_ = mine.Acknowledge()
	if err := e.orders.Track(mine); err != nil {
		logs.Warnf("order track failed, id: %d, err: %v", id, err)
	}
	e.metrics.IncQuoteSubmitted()
}

func (e *Engine) observeSnapshot(snap *schema.MarketSnapshot) {
	ts := snap.LocalTsNano
	if ts == 0 {
		ts = snap.ExchangeTsNano
	}
	if ts != 0 {
		e.stale.MarkFresh(ts)
	}
	if snap.ExchangeTsNano > 0 && snap.LocalTsNano > snap.ExchangeTsNano {
		e.metrics.ObserveFeedLatency(time.Duration(snap.LocalTsNano - snap.ExchangeTsNano))
	}
	e.lastSeq.Store(snap.Sequence)
	e.lastEventTs.Store(snap.ExchangeTsNano)
}

func (e *Engine) shutdown() {
	e.cancelAll()
	if err := e.drainFills(); err != nil {
		logs.Errorf("shutdown drain failed, err: %v", err)
	}
	logs.Infof("engine stopped, position: %d, daily_pnl: %d",
		e.position.Quantity(), e.position.DailyPnL())
}
