package grid

import (
	"errors"
	"fmt"
	"time"
)

// Bias is the trend filter applied when a grid is built. A downward bias
// suppresses long levels, an upward bias suppresses short levels.
type Bias int

const (
	BiasFlat Bias = iota
	BiasUp
	BiasDown
)

func (b Bias) String() string {
	switch b {
	case BiasUp:
		return "up"
	case BiasDown:
		return "down"
	default:
		return "flat"
	}
}

// ErrNoViableLevels is returned when every candidate level falls below the
// minimum notional floor.
var ErrNoViableLevels = errors.New("no grid levels meet the minimum order notional")

// Volatility tiers for step sizing, as step fraction of price. A monotonic
// staircase keyed on ATR percent, deliberately not interpolated.
const (
	stepFractionCalm     = 0.0025 // ATR below 1% of price
	stepFractionNormal   = 0.005  // ATR between 1% and 2%
	stepFractionVolatile = 0.009  // ATR above 2%

	subCentPrice = 0.01
)

// BuilderConfig holds the static sizing parameters of grid construction.
type BuilderConfig struct {
	Leverage         float64
	MaxMarginPerGrid float64
	Levels           int
	MinNotional      float64
}

// Builder constructs grids around a reference price.
type Builder struct {
	cfg BuilderConfig
}

// NewBuilder creates a grid builder.
func NewBuilder(cfg BuilderConfig) *Builder {
	return &Builder{cfg: cfg}
}

// StepSize picks the grid step for the given price and ATR by volatility
// tier.
func (b *Builder) StepSize(price, atr float64) float64 {
	atrPct := atr / price * 100

	switch {
	case atrPct < 1.0:
		return price * stepFractionCalm
	case atrPct <= 2.0:
		return price * stepFractionNormal
	default:
		return price * stepFractionVolatile
	}
}

// Build constructs a grid for pair centered on price, sized against the
// current deposit. Levels whose notional falls below the floor are dropped
// entirely, not deferred.
func (b *Builder) Build(pair string, price, atr float64, bias Bias, deposit float64) (*Grid, error) {
	if price <= 0 {
		return nil, fmt.Errorf("invalid reference price %.8f for %s", price, pair)
	}
	if atr <= 0 {
		return nil, fmt.Errorf("ATR unavailable for %s", pair)
	}

	step := b.StepSize(price, atr)
	perSide := b.cfg.Levels / 2
	if price < subCentPrice {
		// Sub-cent assets get a shallower ladder so single levels still
		// clear the notional floor.
		perSide = max(perSide/2, 2)
	}

	margin := deposit * b.cfg.MaxMarginPerGrid
	qty := margin * b.cfg.Leverage / price / float64(b.cfg.Levels)

	orders := make([]*Order, 0, 2*perSide)
	for i := 1; i <= perSide; i++ {
		if bias != BiasDown {
			entry := price - step*float64(i)
			if entry > 0 && entry*qty >= b.cfg.MinNotional {
				orders = append(orders, &Order{
					Side:  SideLong,
					Entry: entry,
					Exit:  entry + step,
					Qty:   qty,
				})
			}
		}
		if bias != BiasUp {
			entry := price + step*float64(i)
			if entry*qty >= b.cfg.MinNotional {
				orders = append(orders, &Order{
					Side:  SideShort,
					Entry: entry,
					Exit:  entry - step,
					Qty:   qty,
				})
			}
		}
	}

	if len(orders) == 0 {
		return nil, ErrNoViableLevels
	}

	return &Grid{
		Pair:      pair,
		Center:    price,
		Low:       price - step*float64(perSide),
		High:      price + step*float64(perSide),
		Step:      step,
		ATR:       atr,
		Orders:    orders,
		CreatedAt: time.Now(),
	}, nil
}
