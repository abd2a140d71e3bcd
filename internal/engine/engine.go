package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gridsim/gridbot/internal/config"
	"github.com/gridsim/gridbot/internal/exchange"
	"github.com/gridsim/gridbot/internal/grid"
	"github.com/gridsim/gridbot/internal/indicators"
	"github.com/gridsim/gridbot/internal/journal"
	"github.com/gridsim/gridbot/internal/monitoring"
	"github.com/gridsim/gridbot/internal/pnl"
	"github.com/gridsim/gridbot/internal/selector"
)

// StateSink receives the point-in-time state projection after every cycle.
type StateSink interface {
	Write(Snapshot) error
}

// Engine owns all mutable trading state and drives the repeating scan
// cycle: refresh pair selection, advance existing grids, then open new
// grids up to the concurrency cap. All writes happen on the cycle
// goroutine; concurrent readers only ever get a Snapshot copy.
type Engine struct {
	cfg        *config.Config
	market     *exchange.MarketData
	selector   *selector.Selector
	builder    *grid.Builder
	accountant *pnl.Accountant
	journal    journal.Journal
	executor   Executor
	health     *monitoring.HealthChecker
	sink       StateSink
	log        zerolog.Logger

	emaFast *indicators.EMA
	emaSlow *indicators.EMA
	atr     *indicators.ATR

	mu            sync.RWMutex
	running       bool
	deposit       float64
	grids         map[string]*grid.Grid
	autoPairs     []string
	rejectReasons map[string]string
	lastPrices    map[string]float64

	startTime time.Time
	serverIP  string
}

// New wires an engine from configuration and its collaborators.
func New(cfg *config.Config, ex exchange.Exchange, jrnl journal.Journal,
	health *monitoring.HealthChecker, sink StateSink, log zerolog.Logger) *Engine {

	market := exchange.NewMarketData(ex, cfg.Trading.Timeframe, log)

	var executor Executor = PaperExecutor{}
	if cfg.Trading.Live {
		executor = NewLiveExecutor(ex, log)
	}

	return &Engine{
		cfg:    cfg,
		market: market,
		selector: selector.New(selector.Config{
			CandleWindow: cfg.Trading.CandleWindow,
			MinCandles:   cfg.Trading.MinCandles,
			ATRPeriod:    cfg.Trading.ATRPeriod,
			PriceCeiling: cfg.Trading.PriceCeiling,
			ATRPctMin:    cfg.Trading.ATRPctMin,
			ATRPctMax:    cfg.Trading.ATRPctMax,
			ATRPctTarget: cfg.Trading.ATRPctTarget,
			MaxPairs:     cfg.Trading.MaxAutoPairs,
		}, market, log),
		builder: grid.NewBuilder(grid.BuilderConfig{
			Leverage:         cfg.Trading.Leverage,
			MaxMarginPerGrid: cfg.Trading.MaxMarginPerGrid,
			Levels:           cfg.Trading.GridLevels,
			MinNotional:      cfg.Trading.MinOrderNotional,
		}),
		accountant: pnl.NewAccountant(cfg.Trading.MakerFee, cfg.Trading.TakerFee),
		journal:    jrnl,
		executor:   executor,
		health:     health,
		sink:       sink,
		log:        log.With().Str("component", "engine").Logger(),

		emaFast: indicators.NewEMA(cfg.Trading.EMAFastPeriod),
		emaSlow: indicators.NewEMA(cfg.Trading.EMASlowPeriod),
		atr:     indicators.NewATR(cfg.Trading.ATRPeriod),

		deposit:       cfg.Trading.Deposit,
		grids:         make(map[string]*grid.Grid),
		rejectReasons: make(map[string]string),
		lastPrices:    make(map[string]float64),

		startTime: time.Now(),
		serverIP:  serverIP(),
	}
}

// Run drives the scan loop until ctx is cancelled. The stop command is
// observed at cycle boundaries only: an in-flight cycle runs to completion.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.ScanEvery())
	defer ticker.Stop()

	e.log.Info().
		Dur("scan_interval", e.cfg.ScanEvery()).
		Bool("live", e.cfg.Trading.Live).
		Msg("grid engine started")

	for {
		select {
		case <-ctx.Done():
			e.log.Info().Msg("grid engine stopped")
			return
		case <-ticker.C:
			if !e.IsRunning() {
				continue
			}
			e.runCycle(ctx)
		}
	}
}

// runCycle performs one scan: selection refresh, update phase, open phase.
// Any per-pair failure is a soft skip; the cycle always completes.
func (e *Engine) runCycle(ctx context.Context) {
	union := e.refreshSelection(ctx)
	e.updateGrids(ctx, union)
	e.openGrids(ctx, union)

	e.mu.RLock()
	active := len(e.grids)
	e.mu.RUnlock()
	monitoring.SetActiveGrids(active)
	monitoring.RecordCycle()
	e.health.MarkCycle()

	if e.sink != nil {
		if err := e.sink.Write(e.Snapshot()); err != nil {
			e.log.Warn().Err(err).Msg("state write failed")
		}
	}
}

// refreshSelection recomputes the auto-selected shortlist and returns the
// active pair universe, manual pairs first, without duplicates.
func (e *Engine) refreshSelection(ctx context.Context) []string {
	if e.cfg.Trading.AutoMode {
		selected, rejects := e.selector.Select(ctx, e.cfg.Trading.AllPairs)
		e.mu.Lock()
		e.autoPairs = selected
		e.rejectReasons = rejects
		e.mu.Unlock()
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	union := make([]string, 0, len(e.cfg.Trading.ManualPairs)+len(e.autoPairs))
	seen := make(map[string]bool)
	for _, pair := range e.cfg.Trading.ManualPairs {
		if !seen[pair] {
			union = append(union, pair)
			seen[pair] = true
		}
	}
	for _, pair := range e.autoPairs {
		if !seen[pair] {
			union = append(union, pair)
			seen[pair] = true
		}
	}
	return union
}

// updateGrids advances or retires every existing grid. It runs fully
// before the open phase so the concurrency cap is checked against
// up-to-date state.
func (e *Engine) updateGrids(ctx context.Context, union []string) {
	active := make(map[string]bool, len(union))
	for _, pair := range union {
		active[pair] = true
	}

	e.mu.RLock()
	pairs := make([]string, 0, len(e.grids))
	for pair := range e.grids {
		pairs = append(pairs, pair)
	}
	e.mu.RUnlock()

	for _, pair := range pairs {
		e.mu.RLock()
		g := e.grids[pair]
		e.mu.RUnlock()
		if g == nil {
			continue
		}

		price, ok := e.market.Price(ctx, pair)
		if !ok {
			monitoring.RecordError("price_fetch")
			continue
		}

		e.mu.Lock()
		e.lastPrices[pair] = price
		e.mu.Unlock()
		e.health.UpdatePrice(price)
		monitoring.UpdatePrice(pair, price)

		if reason := e.retireReason(g, price, active[pair]); reason != "" {
			// Open orders die with the grid. They are discarded, not
			// force-closed: no settlement happens on retirement.
			e.mu.Lock()
			delete(e.grids, pair)
			e.mu.Unlock()
			e.log.Info().
				Str("pair", pair).
				Float64("price", price).
				Str("reason", reason).
				Msg("grid retired")
			continue
		}

		e.advanceOrders(ctx, g, price)
	}
}

// retireReason decides whether a grid is no longer useful at price. An
// empty result keeps the grid alive.
func (e *Engine) retireReason(g *grid.Grid, price float64, stillActive bool) string {
	switch {
	case !stillActive:
		return "pair dropped from selection"
	case !g.Contains(price):
		return "price left grid bounds"
	case g.Drifted(price, e.cfg.Trading.DriftFactor):
		return "price drifted from center"
	default:
		return ""
	}
}

// advanceOrders walks the order ladder of one grid at the sampled price.
func (e *Engine) advanceOrders(ctx context.Context, g *grid.Grid, price float64) {
	for _, o := range g.Orders {
		if !o.Open && o.EntryHit(price) {
			e.openOrder(ctx, g, o)
		} else if o.Open && o.ExitHit(price) {
			e.closeOrder(ctx, g, o)
		}
	}
}

// openOrder transitions a closed level to open, gated on execution.
func (e *Engine) openOrder(ctx context.Context, g *grid.Grid, o *grid.Order) {
	side := exchange.OrderSideBuy
	if o.Side == grid.SideShort {
		side = exchange.OrderSideSell
	}

	if err := e.execute(ctx, g.Pair, string(o.Side), side, o); err != nil {
		return
	}

	e.mu.Lock()
	o.Open = true
	e.mu.Unlock()

	e.log.Debug().
		Str("pair", g.Pair).
		Str("side", string(o.Side)).
		Float64("entry", o.Entry).
		Msg("level opened")
}

// closeOrder realizes one round-trip and flips the level back to closed so
// the same trigger can run again.
func (e *Engine) closeOrder(ctx context.Context, g *grid.Grid, o *grid.Order) {
	side := exchange.OrderSideSell
	if o.Side == grid.SideShort {
		side = exchange.OrderSideBuy
	}

	if err := e.execute(ctx, g.Pair, string(o.Side), side, o); err != nil {
		return
	}

	e.mu.Lock()
	o.Open = false
	realized := e.accountant.Realize(g.Pair, o.Side, o.Entry, o.Exit, o.Qty)
	totalPnL := e.accountant.TotalPnL()
	e.mu.Unlock()

	deal := journal.Deal{
		ID:       journal.NewDealID(),
		Pair:     g.Pair,
		Side:     string(o.Side),
		Entry:    o.Entry,
		Exit:     o.Exit,
		Qty:      o.Qty,
		PnL:      realized,
		Executed: true,
		ClosedAt: time.Now(),
	}
	if err := e.journal.RecordDeal(deal); err != nil {
		e.log.Warn().Err(err).Msg("deal journal write failed")
	}

	monitoring.RecordDeal(g.Pair, string(o.Side), totalPnL)
	e.log.Info().
		Str("pair", g.Pair).
		Str("side", string(o.Side)).
		Float64("entry", o.Entry).
		Float64("exit", o.Exit).
		Float64("pnl", realized).
		Msg("round-trip closed")
}

// execute submits the order leg and journals failures. A non-nil error
// means the caller must not transition the level.
func (e *Engine) execute(ctx context.Context, pair, gridSide string, side exchange.OrderSide, o *grid.Order) error {
	err := e.executor.Execute(ctx, pair, side, o.Qty)
	if err == nil {
		return nil
	}

	monitoring.RecordError("execution")
	e.health.AddError(err.Error())
	e.log.Error().Err(err).
		Str("pair", pair).
		Str("side", string(side)).
		Msg("order execution failed, level unchanged")

	failed := journal.Deal{
		ID:        journal.NewDealID(),
		Pair:      pair,
		Side:      gridSide,
		Entry:     o.Entry,
		Exit:      o.Exit,
		Qty:       o.Qty,
		Executed:  false,
		ExecError: err.Error(),
		ClosedAt:  time.Now(),
	}
	if jerr := e.journal.RecordDeal(failed); jerr != nil {
		e.log.Warn().Err(jerr).Msg("deal journal write failed")
	}
	return err
}

// openGrids builds grids for selected pairs that lack one, stopping at the
// concurrency cap.
func (e *Engine) openGrids(ctx context.Context, union []string) {
	for _, pair := range union {
		e.mu.RLock()
		_, exists := e.grids[pair]
		capacity := len(e.grids) < e.cfg.Trading.MaxGrids
		deposit := e.deposit
		e.mu.RUnlock()

		if !capacity {
			return
		}
		if exists {
			continue
		}

		price, atr, bias, reason := e.analyzePair(ctx, pair)
		if reason != "" {
			e.setRejectReason(pair, reason)
			continue
		}

		g, err := e.builder.Build(pair, price, atr, bias, deposit)
		if err != nil {
			if errors.Is(err, grid.ErrNoViableLevels) {
				e.setRejectReason(pair, "no viable grid levels")
			} else {
				e.setRejectReason(pair, err.Error())
			}
			continue
		}

		e.mu.Lock()
		e.grids[pair] = g
		e.mu.Unlock()

		e.log.Info().
			Str("pair", pair).
			Float64("center", g.Center).
			Float64("step", g.Step).
			Int("levels", len(g.Orders)).
			Str("bias", bias.String()).
			Msg("grid opened")
	}
}

// analyzePair derives the grid inputs for one pair: reference price, ATR,
// and the EMA staircase trend bias. A non-empty reason means skip.
func (e *Engine) analyzePair(ctx context.Context, pair string) (price, atr float64, bias grid.Bias, reason string) {
	candles := e.market.Candles(ctx, pair, e.cfg.Trading.CandleWindow)
	if len(candles) < e.cfg.Trading.MinCandles {
		return 0, 0, grid.BiasFlat, "not enough candles"
	}

	price = candles[len(candles)-1].Close

	atr, err := e.atr.Calculate(candles)
	if err != nil {
		return 0, 0, grid.BiasFlat, "ATR unavailable"
	}

	fast, errFast := e.emaFast.Calculate(candles)
	slow, errSlow := e.emaSlow.Calculate(candles)
	bias = grid.BiasFlat
	if errFast == nil && errSlow == nil {
		switch {
		case price > fast && fast > slow:
			bias = grid.BiasUp
		case price < fast && fast < slow:
			bias = grid.BiasDown
		}
	}

	return price, atr, bias, ""
}

func (e *Engine) setRejectReason(pair, reason string) {
	e.mu.Lock()
	e.rejectReasons[pair] = reason
	e.mu.Unlock()
}

// Start enables the scan cycle. Idempotent.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = true
	e.health.SetRunning(true)
	e.log.Info().Msg("engine started")
}

// Stop disables the scan cycle and clears active grids. Realized PnL and
// deal history survive; open levels are discarded without settlement.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
	e.grids = make(map[string]*grid.Grid)
	e.health.SetRunning(false)
	e.log.Info().Msg("engine stopped, grids cleared")
}

// SetDeposit updates the capital base. Existing grids were sized against
// the old deposit, so they are retired and rebuilt on the next cycle.
func (e *Engine) SetDeposit(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("deposit must be positive, got %.2f", amount)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.deposit = amount
	e.grids = make(map[string]*grid.Grid)
	e.log.Info().Float64("deposit", amount).Msg("deposit updated, grids retired for resizing")
	return nil
}

// IsRunning reports whether the scan cycle is enabled.
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// serverIP resolves the host address, surfaced in state for exchange API
// IP whitelisting.
func serverIP() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	addrs, err := net.LookupHost(host)
	if err != nil || len(addrs) == 0 {
		return "unknown"
	}
	return addrs[0]
}
