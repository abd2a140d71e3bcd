package selector

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/gridsim/gridbot/internal/exchange"
	"github.com/gridsim/gridbot/internal/indicators"
)

// Config holds the selection filters and scoring target.
type Config struct {
	CandleWindow int     // candles fetched per pair
	MinCandles   int     // below this the pair is rejected outright
	ATRPeriod    int     // volatility window
	PriceCeiling float64 // grid trading is tuned for low-priced assets
	ATRPctMin    float64 // volatility band, percent of price
	ATRPctMax    float64
	ATRPctTarget float64 // scoring target inside the band
	MaxPairs     int     // shortlist length
}

// Candidate is a pair that survived all filters.
type Candidate struct {
	Pair   string
	Price  float64
	ATR    float64
	ATRPct float64
	Score  float64
}

// Selector scores the candidate universe by a target-volatility heuristic.
// Selection is fully recomputed every cycle; there is no carry-over state
// and no hysteresis.
type Selector struct {
	cfg    Config
	market *exchange.MarketData
	atr    *indicators.ATR
	log    zerolog.Logger
}

// New creates a pair selector.
func New(cfg Config, market *exchange.MarketData, log zerolog.Logger) *Selector {
	return &Selector{
		cfg:    cfg,
		market: market,
		atr:    indicators.NewATR(cfg.ATRPeriod),
		log:    log.With().Str("component", "selector").Logger(),
	}
}

// Select filters and ranks pairs, returning the shortlist plus the reject
// reason for every pair that did not make it.
func (s *Selector) Select(ctx context.Context, pairs []string) ([]string, map[string]string) {
	rejects := make(map[string]string)
	candidates := make([]Candidate, 0, len(pairs))

	for _, pair := range pairs {
		candidate, reason := s.evaluate(ctx, pair)
		if reason != "" {
			rejects[pair] = reason
			s.log.Debug().Str("pair", pair).Str("reason", reason).Msg("pair rejected")
			continue
		}
		candidates = append(candidates, candidate)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score < candidates[j].Score
	})
	if len(candidates) > s.cfg.MaxPairs {
		candidates = candidates[:s.cfg.MaxPairs]
	}

	selected := make([]string, len(candidates))
	for i, c := range candidates {
		selected[i] = c.Pair
	}
	return selected, rejects
}

// evaluate runs the filter chain for a single pair. An empty reason means
// the pair survived.
func (s *Selector) evaluate(ctx context.Context, pair string) (Candidate, string) {
	candles := s.market.Candles(ctx, pair, s.cfg.CandleWindow)
	if len(candles) < s.cfg.MinCandles {
		return Candidate{}, "not enough candles"
	}

	price := candles[len(candles)-1].Close
	atr, err := s.atr.Calculate(candles)
	if err != nil {
		return Candidate{}, "ATR unavailable"
	}

	if price > s.cfg.PriceCeiling {
		return Candidate{}, "price too high"
	}

	atrPct := atr / price * 100
	if atrPct < s.cfg.ATRPctMin || atrPct > s.cfg.ATRPctMax {
		return Candidate{}, fmt.Sprintf("ATR %.2f%% outside band", atrPct)
	}

	return Candidate{
		Pair:   pair,
		Price:  price,
		ATR:    atr,
		ATRPct: atrPct,
		Score:  math.Abs(atrPct - s.cfg.ATRPctTarget),
	}, ""
}
