package exchange

import (
	"context"

	"github.com/gridsim/gridbot/pkg/types"
)

// OrderSide represents the side of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Exchange is the market-data and order-execution collaborator. Market data
// and trading are intentionally the same surface: grid trading only needs
// candles, a last price, and market orders.
type Exchange interface {
	Name() string

	// Market data
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]types.OHLCV, error)
	GetTicker(ctx context.Context, symbol string) (*types.Ticker, error)

	// Trading
	PlaceMarketOrder(ctx context.Context, symbol string, side OrderSide, quantity float64) (*types.Order, error)
}
