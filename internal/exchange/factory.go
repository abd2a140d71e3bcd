package exchange

import (
	"fmt"
	"strings"
)

// Config holds configuration for creating exchange instances.
type Config struct {
	Name    string         `json:"name" yaml:"name"`
	Binance *BinanceConfig `json:"binance,omitempty" yaml:"binance,omitempty"`
	Bybit   *BybitConfig   `json:"bybit,omitempty" yaml:"bybit,omitempty"`
}

// BinanceConfig holds Binance-specific configuration.
type BinanceConfig struct {
	APIKey    string `json:"api_key" yaml:"api_key"`
	APISecret string `json:"api_secret" yaml:"api_secret"`
	Testnet   bool   `json:"testnet" yaml:"testnet"`
}

// BybitConfig holds Bybit-specific configuration.
type BybitConfig struct {
	APIKey    string `json:"api_key" yaml:"api_key"`
	APISecret string `json:"api_secret" yaml:"api_secret"`
	Testnet   bool   `json:"testnet" yaml:"testnet"`
	Demo      bool   `json:"demo" yaml:"demo"`
}

// New creates an exchange instance based on the provided configuration.
func New(cfg Config) (Exchange, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
	case "binance":
		bc := cfg.Binance
		if bc == nil {
			bc = &BinanceConfig{}
		}
		return NewBinanceExchange(bc.APIKey, bc.APISecret, bc.Testnet), nil
	case "bybit":
		bc := cfg.Bybit
		if bc == nil {
			bc = &BybitConfig{}
		}
		return NewBybitExchange(bc.APIKey, bc.APISecret, bc.Testnet, bc.Demo), nil
	default:
		return nil, fmt.Errorf("unsupported exchange %q (supported: binance, bybit)", cfg.Name)
	}
}
