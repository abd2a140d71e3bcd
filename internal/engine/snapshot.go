package engine

import (
	"sort"
	"time"

	"github.com/gridsim/gridbot/internal/grid"
	"github.com/gridsim/gridbot/internal/pnl"
)

// GridSummary is the externally visible projection of one active grid.
type GridSummary struct {
	Pair       string  `json:"pair"`
	Center     float64 `json:"center"`
	Low        float64 `json:"low"`
	High       float64 `json:"high"`
	Step       float64 `json:"step"`
	ATR        float64 `json:"atr"`
	Levels     int     `json:"levels"`
	OpenOrders int     `json:"open_orders"`
	LastPrice  float64 `json:"last_price"`
	CreatedAt  string  `json:"created_at"`
}

// Snapshot is a point-in-time copy of engine state. It shares no memory
// with the live structures, so callers may hold or serialize it freely.
type Snapshot struct {
	Timestamp     time.Time            `json:"timestamp"`
	Running       bool                 `json:"running"`
	Live          bool                 `json:"live"`
	Deposit       float64              `json:"deposit"`
	Equity        float64              `json:"equity"`
	TotalPnL      float64              `json:"total_pnl"`
	Deals         int                  `json:"deals"`
	Grids         []GridSummary        `json:"grids"`
	ManualPairs   []string             `json:"manual_pairs"`
	AutoPairs     []string             `json:"auto_pairs"`
	RejectReasons map[string]string    `json:"reject_reasons"`
	PairStats     map[string]pnl.Stats `json:"pair_stats"`
	Uptime        string               `json:"uptime"`
	UptimeMin     float64              `json:"uptime_min"`
	ServerIP      string               `json:"server_ip"`
}

// Snapshot builds a deep copy of the current engine state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	grids := make([]GridSummary, 0, len(e.grids))
	for pair, g := range e.grids {
		grids = append(grids, summarize(g, e.lastPrices[pair]))
	}
	sort.Slice(grids, func(i, j int) bool { return grids[i].Pair < grids[j].Pair })

	manualPairs := make([]string, len(e.cfg.Trading.ManualPairs))
	copy(manualPairs, e.cfg.Trading.ManualPairs)
	autoPairs := make([]string, len(e.autoPairs))
	copy(autoPairs, e.autoPairs)

	rejects := make(map[string]string, len(e.rejectReasons))
	for pair, reason := range e.rejectReasons {
		rejects[pair] = reason
	}

	totalPnL := e.accountant.TotalPnL()

	return Snapshot{
		Timestamp:     time.Now(),
		Running:       e.running,
		Live:          e.cfg.Trading.Live,
		Deposit:       e.deposit,
		Equity:        e.deposit + totalPnL,
		TotalPnL:      totalPnL,
		Deals:         e.accountant.Deals(),
		Grids:         grids,
		ManualPairs:   manualPairs,
		AutoPairs:     autoPairs,
		RejectReasons: rejects,
		PairStats:     e.accountant.PairStats(),
		Uptime:        time.Since(e.startTime).Round(time.Second).String(),
		UptimeMin:     time.Since(e.startTime).Minutes(),
		ServerIP:      e.serverIP,
	}
}

func summarize(g *grid.Grid, lastPrice float64) GridSummary {
	return GridSummary{
		Pair:       g.Pair,
		Center:     g.Center,
		Low:        g.Low,
		High:       g.High,
		Step:       g.Step,
		ATR:        g.ATR,
		Levels:     len(g.Orders),
		OpenOrders: g.OpenOrders(),
		LastPrice:  lastPrice,
		CreatedAt:  g.CreatedAt.Format(time.RFC3339),
	}
}
