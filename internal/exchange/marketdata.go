package exchange

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gridsim/gridbot/pkg/types"
)

// MarketData is the soft-failing candle and price source used by the engine.
// Any transport or parsing failure yields an empty result instead of an
// error: the caller skips the pair and retries on the next cycle. No retry,
// no backoff.
type MarketData struct {
	exchange Exchange
	interval string
	log      zerolog.Logger
}

// NewMarketData wraps an exchange with the engine-facing fetch contract.
func NewMarketData(ex Exchange, interval string, log zerolog.Logger) *MarketData {
	return &MarketData{
		exchange: ex,
		interval: interval,
		log:      log.With().Str("component", "marketdata").Logger(),
	}
}

// Candles returns up to limit candles for pair, oldest first, or nil when
// the data is unavailable this cycle.
func (m *MarketData) Candles(ctx context.Context, pair string, limit int) []types.OHLCV {
	klines, err := m.exchange.GetKlines(ctx, pair, m.interval, limit)
	if err != nil {
		m.log.Warn().Err(err).Str("pair", pair).Msg("candle fetch failed, skipping pair this cycle")
		return nil
	}
	return klines
}

// Price returns the last traded price for pair. The boolean is false when
// the price is unavailable this cycle.
func (m *MarketData) Price(ctx context.Context, pair string) (float64, bool) {
	ticker, err := m.exchange.GetTicker(ctx, pair)
	if err != nil {
		m.log.Warn().Err(err).Str("pair", pair).Msg("price fetch failed, skipping pair this cycle")
		return 0, false
	}
	return ticker.Price, true
}

// Interval reports the sampling interval used for candle requests.
func (m *MarketData) Interval() string {
	return m.interval
}
