package indicators

import (
	"math"

	"github.com/gridsim/gridbot/pkg/types"
)

// ATR represents the Average True Range technical indicator.
// ATR measures volatility as the arithmetic mean of the trailing
// true-range values over the configured period.
type ATR struct {
	period int
}

// NewATR creates a new ATR indicator.
func NewATR(period int) *ATR {
	return &ATR{period: period}
}

// Calculate computes the ATR over the given candles. True range exists only
// from the second candle on, so len(data) must be at least period+1.
func (a *ATR) Calculate(data []types.OHLCV) (float64, error) {
	if len(data) < a.period+1 {
		return 0, ErrInsufficientData
	}

	trueRanges := make([]float64, 0, len(data)-1)
	for i := 1; i < len(data); i++ {
		trueRanges = append(trueRanges, trueRange(data[i], data[i-1].Close))
	}

	sum := 0.0
	for _, tr := range trueRanges[len(trueRanges)-a.period:] {
		sum += tr
	}

	return sum / float64(a.period), nil
}

// trueRange is max(high-low, |high-prevClose|, |low-prevClose|).
func trueRange(candle types.OHLCV, prevClose float64) float64 {
	hl := candle.High - candle.Low
	hc := math.Abs(candle.High - prevClose)
	lc := math.Abs(candle.Low - prevClose)

	return math.Max(hl, math.Max(hc, lc))
}

// GetName returns the indicator name.
func (a *ATR) GetName() string {
	return "ATR"
}

// GetRequiredPeriods returns the minimum number of data points needed.
func (a *ATR) GetRequiredPeriods() int {
	return a.period + 1
}
