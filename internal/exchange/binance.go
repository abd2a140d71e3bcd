package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/valyala/fastjson"

	"github.com/gridsim/gridbot/pkg/types"
)

const (
	binanceMainnetURL = "https://fapi.binance.com"
	binanceTestnetURL = "https://testnet.binancefuture.com"

	defaultHTTPTimeout = 10 * time.Second
)

// BinanceExchange implements the Exchange interface against the Binance
// USDT-margined futures API. Signed endpoints use the standard HMAC-SHA256
// scheme over the canonical query string.
type BinanceExchange struct {
	apiKey  string
	secret  string
	client  *http.Client
	baseURL string
	parsers fastjson.ParserPool
}

// NewBinanceExchange creates a new Binance exchange instance.
func NewBinanceExchange(apiKey, secret string, testnet bool) *BinanceExchange {
	baseURL := binanceMainnetURL
	if testnet {
		baseURL = binanceTestnetURL
	}

	return &BinanceExchange{
		apiKey: apiKey,
		secret: secret,
		client: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		baseURL: baseURL,
	}
}

func (b *BinanceExchange) Name() string {
	return "binance"
}

// GetKlines fetches up to limit candles for symbol, ordered oldest first.
func (b *BinanceExchange) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]types.OHLCV, error) {
	endpoint := fmt.Sprintf("%s/fapi/v1/klines?symbol=%s&interval=%s&limit=%d",
		b.baseURL, symbol, interval, limit)

	body, err := b.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get klines: %w", err)
	}

	return b.parseKlines(body)
}

func (b *BinanceExchange) parseKlines(body []byte) ([]types.OHLCV, error) {
	parser := b.parsers.Get()
	defer b.parsers.Put(parser)

	root, err := parser.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse klines response: %w", err)
	}

	rows, err := root.Array()
	if err != nil {
		return nil, fmt.Errorf("unexpected klines payload: %w", err)
	}

	klines := make([]types.OHLCV, 0, len(rows))
	for _, row := range rows {
		fields := row.GetArray()
		if len(fields) < 6 {
			continue
		}

		// Kline row: [openTime, open, high, low, close, volume, ...]
		// with prices encoded as strings.
		open, err1 := jsonFloat(fields[1])
		high, err2 := jsonFloat(fields[2])
		low, err3 := jsonFloat(fields[3])
		closePrice, err4 := jsonFloat(fields[4])
		volume, err5 := jsonFloat(fields[5])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			return nil, fmt.Errorf("malformed kline row in response")
		}

		klines = append(klines, types.OHLCV{
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
			Timestamp: time.UnixMilli(fields[0].GetInt64()),
		})
	}

	return klines, nil
}

// GetTicker fetches the last traded price for symbol.
func (b *BinanceExchange) GetTicker(ctx context.Context, symbol string) (*types.Ticker, error) {
	endpoint := fmt.Sprintf("%s/fapi/v1/ticker/price?symbol=%s", b.baseURL, symbol)

	body, err := b.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticker: %w", err)
	}

	parser := b.parsers.Get()
	defer b.parsers.Put(parser)

	root, err := parser.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ticker response: %w", err)
	}

	price, err := strconv.ParseFloat(string(root.GetStringBytes("price")), 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ticker price: %w", err)
	}

	return &types.Ticker{
		Symbol:    string(root.GetStringBytes("symbol")),
		Price:     price,
		Timestamp: time.Now(),
	}, nil
}

// PlaceMarketOrder submits a signed market order.
func (b *BinanceExchange) PlaceMarketOrder(ctx context.Context, symbol string, side OrderSide, quantity float64) (*types.Order, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", string(side))
	params.Set("type", "MARKET")
	params.Set("quantity", strconv.FormatFloat(quantity, 'f', -1, 64))
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))

	query := params.Encode()
	query += "&signature=" + b.sign(query)

	endpoint := fmt.Sprintf("%s/fapi/v1/order?%s", b.baseURL, query)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}
	req.Header.Set("X-MBX-APIKEY", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read order response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("order rejected with status %d: %s", resp.StatusCode, body)
	}

	parser := b.parsers.Get()
	defer b.parsers.Put(parser)

	root, err := parser.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse order response: %w", err)
	}

	return &types.Order{
		ID:        strconv.FormatInt(root.GetInt64("orderId"), 10),
		Symbol:    symbol,
		Side:      string(side),
		Quantity:  quantity,
		Status:    string(root.GetStringBytes("status")),
		Timestamp: time.Now(),
	}, nil
}

// sign computes the HMAC-SHA256 signature over the canonical query string.
func (b *BinanceExchange) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(b.secret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

func (b *BinanceExchange) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func jsonFloat(v *fastjson.Value) (float64, error) {
	if v.Type() == fastjson.TypeString {
		return strconv.ParseFloat(string(v.GetStringBytes()), 64)
	}
	return v.Float64()
}
