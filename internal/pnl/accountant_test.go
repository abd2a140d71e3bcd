package pnl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gridsim/gridbot/internal/grid"
)

func TestCompute_LongReference(t *testing.T) {
	a := NewAccountant(0.0002, 0.0004)

	// gross = 20, fees = 100*2*0.0002 + 110*2*0.0004 = 0.04 + 0.088 = 0.128
	net := a.Compute(grid.SideLong, 100, 110, 2)
	assert.Equal(t, 19.872, net)
}

func TestCompute_Short(t *testing.T) {
	a := NewAccountant(0.0002, 0.0004)

	// gross = (110-100)*2 = 20, fees = 110*2*0.0002 + 100*2*0.0004 = 0.124
	net := a.Compute(grid.SideShort, 110, 100, 2)
	assert.Equal(t, 19.876, net)
}

func TestCompute_LosingShort(t *testing.T) {
	a := NewAccountant(0, 0)

	net := a.Compute(grid.SideShort, 100, 110, 1)
	assert.Equal(t, -10.0, net)
}

func TestCompute_IsPure(t *testing.T) {
	a := NewAccountant(0.0002, 0.0004)

	first := a.Compute(grid.SideLong, 100, 110, 2)
	second := a.Compute(grid.SideLong, 100, 110, 2)
	assert.Equal(t, first, second)
	assert.Equal(t, 0, a.Deals(), "Compute records nothing")
}

func TestRealize_Aggregates(t *testing.T) {
	a := NewAccountant(0.0002, 0.0004)

	a.Realize("DOGEUSDT", grid.SideLong, 100, 110, 2)
	a.Realize("DOGEUSDT", grid.SideLong, 100, 110, 2)
	a.Realize("TONUSDT", grid.SideShort, 110, 100, 2)

	assert.Equal(t, 3, a.Deals())
	assert.InDelta(t, 2*19.872+19.876, a.TotalPnL(), 1e-9)

	stats := a.PairStats()
	assert.Equal(t, 2, stats["DOGEUSDT"].Deals)
	assert.InDelta(t, 2*19.872, stats["DOGEUSDT"].PnL, 1e-9)
	assert.Equal(t, 1, stats["TONUSDT"].Deals)
}

func TestRealize_NegativePnLStillCountsDeal(t *testing.T) {
	a := NewAccountant(0.0002, 0.0004)

	net := a.Realize("DOGEUSDT", grid.SideLong, 110, 100, 2)
	assert.Negative(t, net)
	assert.Equal(t, 1, a.Deals())
	assert.Negative(t, a.TotalPnL())
}

func TestPairStatsReturnsCopy(t *testing.T) {
	a := NewAccountant(0, 0)
	a.Realize("DOGEUSDT", grid.SideLong, 100, 110, 1)

	stats := a.PairStats()
	stats["DOGEUSDT"] = Stats{PnL: -999, Deals: 99}

	assert.Equal(t, 1, a.PairStats()["DOGEUSDT"].Deals)
}
