package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const klinesPayload = `[
	[1700000000000, "1.10", "1.20", "1.00", "1.15", "1000", 1700000899999],
	[1700000900000, "1.15", "1.25", "1.10", "1.22", "1200", 1700001799999]
]`

func newTestBinance(t *testing.T, handler http.HandlerFunc) *BinanceExchange {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	ex := NewBinanceExchange("test-key", "test-secret", false)
	ex.baseURL = server.URL
	return ex
}

func TestBinanceExchange_GetKlines(t *testing.T) {
	ex := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/klines", r.URL.Path)
		assert.Equal(t, "DOGEUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "15m", r.URL.Query().Get("interval"))
		w.Write([]byte(klinesPayload))
	})

	klines, err := ex.GetKlines(context.Background(), "DOGEUSDT", "15m", 2)
	require.NoError(t, err)
	require.Len(t, klines, 2)

	assert.Equal(t, 1.10, klines[0].Open)
	assert.Equal(t, 1.20, klines[0].High)
	assert.Equal(t, 1.00, klines[0].Low)
	assert.Equal(t, 1.15, klines[0].Close)
	assert.Equal(t, 1000.0, klines[0].Volume)
	assert.Equal(t, 1.22, klines[1].Close)
	assert.True(t, klines[0].Timestamp.Before(klines[1].Timestamp))
}

func TestBinanceExchange_GetKlines_ServerError(t *testing.T) {
	ex := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := ex.GetKlines(context.Background(), "DOGEUSDT", "15m", 2)
	assert.Error(t, err)
}

func TestBinanceExchange_GetKlines_MalformedBody(t *testing.T) {
	ex := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."`))
	})

	_, err := ex.GetKlines(context.Background(), "NOPEUSDT", "15m", 2)
	assert.Error(t, err)
}

func TestBinanceExchange_GetTicker(t *testing.T) {
	ex := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/ticker/price", r.URL.Path)
		w.Write([]byte(`{"symbol":"DOGEUSDT","price":"0.08315"}`))
	})

	ticker, err := ex.GetTicker(context.Background(), "DOGEUSDT")
	require.NoError(t, err)
	assert.Equal(t, "DOGEUSDT", ticker.Symbol)
	assert.Equal(t, 0.08315, ticker.Price)
}

func TestBinanceExchange_PlaceMarketOrder_Signed(t *testing.T) {
	ex := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/fapi/v1/order", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-MBX-APIKEY"))

		query := r.URL.RawQuery
		idx := strings.Index(query, "&signature=")
		require.Positive(t, idx)
		payload, signature := query[:idx], query[idx+len("&signature="):]

		mac := hmac.New(sha256.New, []byte("test-secret"))
		mac.Write([]byte(payload))
		assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), signature)

		assert.Equal(t, "BUY", r.URL.Query().Get("side"))
		assert.Equal(t, "MARKET", r.URL.Query().Get("type"))

		w.Write([]byte(`{"orderId":4567,"status":"FILLED"}`))
	})

	order, err := ex.PlaceMarketOrder(context.Background(), "DOGEUSDT", OrderSideBuy, 120.5)
	require.NoError(t, err)
	assert.Equal(t, "4567", order.ID)
	assert.Equal(t, "FILLED", order.Status)
	assert.Equal(t, 120.5, order.Quantity)
}

func TestBinanceExchange_PlaceMarketOrder_Rejected(t *testing.T) {
	ex := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-2010,"msg":"insufficient balance"}`))
	})

	_, err := ex.PlaceMarketOrder(context.Background(), "DOGEUSDT", OrderSideSell, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
}
