package indicators

import (
	"errors"

	"github.com/gridsim/gridbot/pkg/types"
)

// ErrInsufficientData is returned when a price window is shorter than the
// indicator period. Callers treat it as "indicator unavailable" and skip
// the pair for the current cycle.
var ErrInsufficientData = errors.New("insufficient data for indicator calculation")

// EMA represents the Exponential Moving Average technical indicator.
type EMA struct {
	period int
	alpha  float64
}

// NewEMA creates a new EMA indicator.
func NewEMA(period int) *EMA {
	return &EMA{
		period: period,
		alpha:  2.0 / float64(period+1),
	}
}

// Calculate computes the EMA over the close prices of the given candles.
func (e *EMA) Calculate(data []types.OHLCV) (float64, error) {
	closes := make([]float64, len(data))
	for i, candle := range data {
		closes[i] = candle.Close
	}
	return e.CalculateSeries(closes)
}

// CalculateSeries computes the EMA over a raw value series. The first EMA
// value is seeded with the simple average of the first period values, then
// smoothed forward across the remainder of the series.
func (e *EMA) CalculateSeries(values []float64) (float64, error) {
	if len(values) < e.period {
		return 0, ErrInsufficientData
	}

	sum := 0.0
	for _, v := range values[:e.period] {
		sum += v
	}
	ema := sum / float64(e.period)

	for _, v := range values[e.period:] {
		ema = v*e.alpha + ema*(1-e.alpha)
	}

	return ema, nil
}

// GetName returns the indicator name.
func (e *EMA) GetName() string {
	return "EMA"
}

// GetRequiredPeriods returns the minimum number of data points needed.
func (e *EMA) GetRequiredPeriods() int {
	return e.period
}
