package pnl

import (
	"github.com/shopspring/decimal"

	"github.com/gridsim/gridbot/internal/grid"
)

// Stats holds cumulative realized results for one pair.
type Stats struct {
	PnL   float64 `json:"pnl"`
	Deals int     `json:"deals"`
}

// Accountant realizes profit for closed round-trips and keeps aggregate and
// per-pair statistics. Fee arithmetic runs in decimals so repeated small
// fees do not accumulate binary rounding error; results surface as float64
// like the rest of the engine math.
//
// The accountant is not goroutine safe: it is owned and mutated by the
// engine cycle only.
type Accountant struct {
	makerFee decimal.Decimal
	takerFee decimal.Decimal

	totalPnL decimal.Decimal
	deals    int
	pairs    map[string]*Stats
}

// NewAccountant creates an accountant with the given maker/taker fee rates.
func NewAccountant(makerFee, takerFee float64) *Accountant {
	return &Accountant{
		makerFee: decimal.NewFromFloat(makerFee),
		takerFee: decimal.NewFromFloat(takerFee),
		pairs:    make(map[string]*Stats),
	}
}

// Compute returns the net PnL of a round-trip without recording it.
// Gross is the later leg minus the earlier leg, signed by direction; fees
// apply the maker rate to the entry leg and the taker rate to the exit leg.
func (a *Accountant) Compute(side grid.Side, entry, exit, qty float64) float64 {
	entryD := decimal.NewFromFloat(entry)
	exitD := decimal.NewFromFloat(exit)
	qtyD := decimal.NewFromFloat(qty)

	gross := exitD.Sub(entryD).Mul(qtyD)
	if side == grid.SideShort {
		gross = entryD.Sub(exitD).Mul(qtyD)
	}

	fees := entryD.Mul(qtyD).Mul(a.makerFee).Add(exitD.Mul(qtyD).Mul(a.takerFee))

	net, _ := gross.Sub(fees).Float64()
	return net
}

// Realize computes the net PnL of a closed round-trip and folds it into the
// aggregate and per-pair statistics, creating the pair entry on first use.
func (a *Accountant) Realize(pair string, side grid.Side, entry, exit, qty float64) float64 {
	net := a.Compute(side, entry, exit, qty)

	a.totalPnL = a.totalPnL.Add(decimal.NewFromFloat(net))
	a.deals++

	stats, ok := a.pairs[pair]
	if !ok {
		stats = &Stats{}
		a.pairs[pair] = stats
	}
	stats.PnL += net
	stats.Deals++

	return net
}

// TotalPnL returns the cumulative realized PnL.
func (a *Accountant) TotalPnL() float64 {
	total, _ := a.totalPnL.Float64()
	return total
}

// Deals returns the cumulative closed round-trip count.
func (a *Accountant) Deals() int {
	return a.deals
}

// PairStats returns a copy of the per-pair statistics.
func (a *Accountant) PairStats() map[string]Stats {
	out := make(map[string]Stats, len(a.pairs))
	for pair, stats := range a.pairs {
		out[pair] = *stats
	}
	return out
}
