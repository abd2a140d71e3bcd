package engine

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gridsim/gridbot/internal/exchange"
)

// Executor submits market orders for grid transitions. The engine gates
// every order state transition on a successful acknowledgment; a failed
// execution leaves the order where it was and is retried when price crosses
// the trigger on a later cycle.
type Executor interface {
	Execute(ctx context.Context, pair string, side exchange.OrderSide, qty float64) error
}

// LiveExecutor sends real market orders through the exchange.
type LiveExecutor struct {
	ex  exchange.Exchange
	log zerolog.Logger
}

// NewLiveExecutor creates an executor bound to a real exchange.
func NewLiveExecutor(ex exchange.Exchange, log zerolog.Logger) *LiveExecutor {
	return &LiveExecutor{
		ex:  ex,
		log: log.With().Str("component", "executor").Logger(),
	}
}

func (l *LiveExecutor) Execute(ctx context.Context, pair string, side exchange.OrderSide, qty float64) error {
	order, err := l.ex.PlaceMarketOrder(ctx, pair, side, qty)
	if err != nil {
		return err
	}

	l.log.Info().
		Str("pair", pair).
		Str("side", string(side)).
		Float64("qty", qty).
		Str("order_id", order.ID).
		Str("status", order.Status).
		Msg("order placed")
	return nil
}

// PaperExecutor acknowledges every order without sending anything. In
// simulation mode the engine still journals the fills, so the paper trail
// matches what live trading would have done.
type PaperExecutor struct{}

func (PaperExecutor) Execute(ctx context.Context, pair string, side exchange.OrderSide, qty float64) error {
	return nil
}
