package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/gridsim/gridbot/pkg/types"
)

// BybitExchange implements the Exchange interface on top of the official
// Bybit v5 API client, unified trading account endpoints.
type BybitExchange struct {
	client   *bybit_api.Client
	category string
}

// NewBybitExchange creates a new Bybit exchange instance.
func NewBybitExchange(apiKey, secret string, testnet, demo bool) *BybitExchange {
	var baseURL string
	switch {
	case demo:
		baseURL = "https://api-demo.bybit.com"
	case testnet:
		baseURL = bybit_api.TESTNET
	default:
		baseURL = bybit_api.MAINNET
	}

	client := bybit_api.NewBybitHttpClient(apiKey, secret, bybit_api.WithBaseURL(baseURL))

	return &BybitExchange{
		client:   client,
		category: "linear",
	}
}

func (b *BybitExchange) Name() string {
	return "bybit"
}

// GetKlines fetches up to limit candles for symbol, ordered oldest first.
func (b *BybitExchange) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]types.OHLCV, error) {
	params := map[string]interface{}{
		"category": b.category,
		"symbol":   symbol,
		"interval": bybitInterval(interval),
		"limit":    limit,
	}

	result, err := b.client.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get klines: %w", err)
	}

	return parseBybitKlines(result)
}

func parseBybitKlines(response *bybit_api.ServerResponse) ([]types.OHLCV, error) {
	if response.RetCode != 0 {
		return nil, fmt.Errorf("API error: %s (code: %d)", response.RetMsg, response.RetCode)
	}

	resultBytes, err := json.Marshal(response.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal kline result: %w", err)
	}

	var klineResult struct {
		List [][]string `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &klineResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kline result: %w", err)
	}

	// Bybit returns newest first; reverse into chronological order.
	klines := make([]types.OHLCV, 0, len(klineResult.List))
	for i := len(klineResult.List) - 1; i >= 0; i-- {
		row := klineResult.List[i]
		if len(row) < 6 {
			continue
		}

		ts, _ := strconv.ParseInt(row[0], 10, 64)
		open, _ := strconv.ParseFloat(row[1], 64)
		high, _ := strconv.ParseFloat(row[2], 64)
		low, _ := strconv.ParseFloat(row[3], 64)
		closePrice, _ := strconv.ParseFloat(row[4], 64)
		volume, _ := strconv.ParseFloat(row[5], 64)

		klines = append(klines, types.OHLCV{
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
			Timestamp: time.UnixMilli(ts),
		})
	}

	return klines, nil
}

// GetTicker fetches the last traded price for symbol.
func (b *BybitExchange) GetTicker(ctx context.Context, symbol string) (*types.Ticker, error) {
	params := map[string]interface{}{
		"category": b.category,
		"symbol":   symbol,
	}

	result, err := b.client.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticker: %w", err)
	}
	if result.RetCode != 0 {
		return nil, fmt.Errorf("API error: %s (code: %d)", result.RetMsg, result.RetCode)
	}

	resultBytes, err := json.Marshal(result.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ticker result: %w", err)
	}

	var tickerResult struct {
		List []struct {
			Symbol    string `json:"symbol"`
			LastPrice string `json:"lastPrice"`
			Volume24h string `json:"volume24h"`
		} `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &tickerResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ticker result: %w", err)
	}
	if len(tickerResult.List) == 0 {
		return nil, fmt.Errorf("empty ticker result for %s", symbol)
	}

	price, err := strconv.ParseFloat(tickerResult.List[0].LastPrice, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ticker price: %w", err)
	}
	volume, _ := strconv.ParseFloat(tickerResult.List[0].Volume24h, 64)

	return &types.Ticker{
		Symbol:    tickerResult.List[0].Symbol,
		Price:     price,
		Volume:    volume,
		Timestamp: time.Now(),
	}, nil
}

// PlaceMarketOrder submits a market order on the unified account.
func (b *BybitExchange) PlaceMarketOrder(ctx context.Context, symbol string, side OrderSide, quantity float64) (*types.Order, error) {
	bybitSide := "Buy"
	if side == OrderSideSell {
		bybitSide = "Sell"
	}

	params := map[string]interface{}{
		"category":  b.category,
		"symbol":    symbol,
		"side":      bybitSide,
		"orderType": "Market",
		"qty":       strconv.FormatFloat(quantity, 'f', -1, 64),
	}

	result, err := b.client.NewUtaBybitServiceWithParams(params).PlaceOrder(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	if result.RetCode != 0 {
		return nil, fmt.Errorf("order rejected: %s (code: %d)", result.RetMsg, result.RetCode)
	}

	resultBytes, err := json.Marshal(result.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order result: %w", err)
	}

	var orderResult struct {
		OrderID string `json:"orderId"`
	}
	if err := json.Unmarshal(resultBytes, &orderResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order result: %w", err)
	}

	return &types.Order{
		ID:        orderResult.OrderID,
		Symbol:    symbol,
		Side:      string(side),
		Quantity:  quantity,
		Status:    "NEW",
		Timestamp: time.Now(),
	}, nil
}

// bybitInterval maps common timeframe notation to Bybit interval codes.
func bybitInterval(interval string) string {
	switch interval {
	case "1m":
		return "1"
	case "3m":
		return "3"
	case "5m":
		return "5"
	case "15m":
		return "15"
	case "30m":
		return "30"
	case "1h":
		return "60"
	case "2h":
		return "120"
	case "4h":
		return "240"
	case "1d":
		return "D"
	case "1w":
		return "W"
	default:
		return interval
	}
}
