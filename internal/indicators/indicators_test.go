package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsim/gridbot/pkg/types"
)

func candlesFromCloses(closes []float64) []types.OHLCV {
	data := make([]types.OHLCV, len(closes))
	for i, c := range closes {
		data[i] = types.OHLCV{Open: c, High: c, Low: c, Close: c}
	}
	return data
}

func TestEMA_HandComputedReference(t *testing.T) {
	ema := NewEMA(3)

	// Seed = mean(1,2,3) = 2, alpha = 0.5.
	// Step 4: 4*0.5 + 2*0.5 = 3. Step 5: 5*0.5 + 3*0.5 = 4.
	value, err := ema.CalculateSeries([]float64{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, 4.0, value)
}

func TestEMA_SeedIsSimpleAverage(t *testing.T) {
	ema := NewEMA(4)

	value, err := ema.CalculateSeries([]float64{2, 4, 6, 8})
	require.NoError(t, err)
	assert.Equal(t, 5.0, value)
}

func TestEMA_InsufficientData(t *testing.T) {
	ema := NewEMA(5)

	_, err := ema.CalculateSeries([]float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestEMA_FromCandles(t *testing.T) {
	ema := NewEMA(3)

	value, err := ema.Calculate(candlesFromCloses([]float64{1, 2, 3, 4, 5}))
	require.NoError(t, err)
	assert.Equal(t, 4.0, value)
}

func TestATR_HandComputedReference(t *testing.T) {
	atr := NewATR(2)

	data := []types.OHLCV{
		{High: 10, Low: 9, Close: 9.5},
		{High: 11, Low: 10, Close: 10.5}, // TR = max(1, 1.5, 0.5) = 1.5
		{High: 12, Low: 10, Close: 11},   // TR = max(2, 1.5, 0.5) = 2
		{High: 11, Low: 9, Close: 10},    // TR = max(2, 0, 2) = 2
	}

	// Mean of the last two true ranges: (2 + 2) / 2.
	value, err := atr.Calculate(data)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, value, 1e-9)
}

func TestATR_GapAboveRange(t *testing.T) {
	atr := NewATR(1)

	data := []types.OHLCV{
		{High: 10, Low: 9, Close: 10},
		{High: 15, Low: 14, Close: 14.5}, // gap: |high-prevClose| = 5 dominates
	}

	value, err := atr.Calculate(data)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, value, 1e-9)
}

func TestATR_InsufficientData(t *testing.T) {
	atr := NewATR(14)

	_, err := atr.Calculate(candlesFromCloses([]float64{1, 2, 3}))
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestATR_Deterministic(t *testing.T) {
	atr := NewATR(3)
	data := []types.OHLCV{
		{High: 5, Low: 4, Close: 4.5},
		{High: 6, Low: 5, Close: 5.5},
		{High: 7, Low: 6, Close: 6.5},
		{High: 8, Low: 7, Close: 7.5},
	}

	first, err := atr.Calculate(data)
	require.NoError(t, err)
	second, err := atr.Calculate(data)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
