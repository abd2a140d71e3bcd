package selector

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsim/gridbot/internal/exchange"
	"github.com/gridsim/gridbot/pkg/types"
)

type fakeExchange struct {
	candles map[string][]types.OHLCV
}

func (f *fakeExchange) Name() string { return "fake" }

func (f *fakeExchange) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]types.OHLCV, error) {
	data, ok := f.candles[symbol]
	if !ok {
		return nil, errors.New("no data")
	}
	return data, nil
}

func (f *fakeExchange) GetTicker(ctx context.Context, symbol string) (*types.Ticker, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeExchange) PlaceMarketOrder(ctx context.Context, symbol string, side exchange.OrderSide, quantity float64) (*types.Order, error) {
	return nil, errors.New("not implemented")
}

// makeCandles produces n flat candles at price with a constant high-low
// range, which makes the ATR equal that range exactly.
func makeCandles(n int, price, candleRange float64) []types.OHLCV {
	data := make([]types.OHLCV, n)
	for i := range data {
		data[i] = types.OHLCV{
			Open:  price,
			High:  price + candleRange/2,
			Low:   price - candleRange/2,
			Close: price,
		}
	}
	return data
}

func testSelector(candles map[string][]types.OHLCV, maxPairs int) *Selector {
	market := exchange.NewMarketData(&fakeExchange{candles: candles}, "15m", zerolog.Nop())
	return New(Config{
		CandleWindow: 120,
		MinCandles:   50,
		ATRPeriod:    14,
		PriceCeiling: 20.0,
		ATRPctMin:    0.4,
		ATRPctMax:    3.0,
		ATRPctTarget: 1.2,
		MaxPairs:     maxPairs,
	}, market, zerolog.Nop())
}

func TestSelect_RanksByDistanceToTarget(t *testing.T) {
	s := testSelector(map[string][]types.OHLCV{
		"NEAR":  makeCandles(120, 1.0, 0.012), // 1.2% ATR, score 0
		"FAR":   makeCandles(120, 1.0, 0.028), // 2.8% ATR, score 1.6
		"CLOSE": makeCandles(120, 1.0, 0.015), // 1.5% ATR, score 0.3
	}, 4)

	selected, rejects := s.Select(context.Background(), []string{"FAR", "NEAR", "CLOSE"})

	assert.Equal(t, []string{"NEAR", "CLOSE", "FAR"}, selected)
	assert.Empty(t, rejects)
}

func TestSelect_ShortlistCap(t *testing.T) {
	s := testSelector(map[string][]types.OHLCV{
		"A": makeCandles(120, 1.0, 0.012),
		"B": makeCandles(120, 1.0, 0.014),
		"C": makeCandles(120, 1.0, 0.020),
	}, 2)

	selected, _ := s.Select(context.Background(), []string{"A", "B", "C"})
	assert.Len(t, selected, 2)
}

func TestSelect_Filters(t *testing.T) {
	s := testSelector(map[string][]types.OHLCV{
		"PRICY":  makeCandles(120, 25.0, 0.3),    // above the 20 ceiling
		"CALM":   makeCandles(120, 1.0, 0.002),   // 0.2% ATR, below band
		"WILD":   makeCandles(120, 1.0, 0.05),    // 5% ATR, above band
		"THIN":   makeCandles(10, 1.0, 0.012),    // not enough history
		"GOOD":   makeCandles(120, 1.0, 0.012),
	}, 4)

	selected, rejects := s.Select(context.Background(),
		[]string{"PRICY", "CALM", "WILD", "THIN", "NODATA", "GOOD"})

	require.Equal(t, []string{"GOOD"}, selected)
	assert.Equal(t, "price too high", rejects["PRICY"])
	assert.Contains(t, rejects["CALM"], "outside band")
	assert.Contains(t, rejects["WILD"], "outside band")
	assert.Equal(t, "not enough candles", rejects["THIN"])
	assert.Equal(t, "not enough candles", rejects["NODATA"])
}

func TestSelect_NeverReturnsFilteredPair(t *testing.T) {
	s := testSelector(map[string][]types.OHLCV{
		"PRICY": makeCandles(120, 50.0, 0.6),
	}, 4)

	selected, _ := s.Select(context.Background(), []string{"PRICY"})
	assert.Empty(t, selected)
}

func TestSelect_StatelessAcrossCycles(t *testing.T) {
	candles := map[string][]types.OHLCV{
		"GOOD": makeCandles(120, 1.0, 0.012),
	}
	s := testSelector(candles, 4)

	first, _ := s.Select(context.Background(), []string{"GOOD"})
	second, _ := s.Select(context.Background(), []string{"GOOD"})
	assert.Equal(t, first, second)
}
