package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/gridsim/gridbot/internal/exchange"
)

// Config is the full bot configuration. Historical strategy variants are
// expressed as presets over this single structure, not separate code paths.
type Config struct {
	LogLevel string          `json:"log_level" yaml:"log_level"`
	Exchange exchange.Config `json:"exchange" yaml:"exchange"`
	Trading  TradingConfig   `json:"trading" yaml:"trading"`
	Server   ServerConfig    `json:"server" yaml:"server"`
	Journal  JournalConfig   `json:"journal" yaml:"journal"`
	State    StateConfig     `json:"state" yaml:"state"`
	Report   ReportConfig    `json:"report" yaml:"report"`
}

// TradingConfig holds every knob of the grid engine.
type TradingConfig struct {
	AllPairs    []string `json:"all_pairs" yaml:"all_pairs" validate:"min=1,dive,required"`
	ManualPairs []string `json:"manual_pairs" yaml:"manual_pairs"`

	AutoMode     bool   `json:"auto_mode" yaml:"auto_mode"`
	MaxAutoPairs int    `json:"max_auto_pairs" yaml:"max_auto_pairs" validate:"gte=0"`
	Timeframe    string `json:"timeframe" yaml:"timeframe" validate:"required"`
	ScanInterval string `json:"scan_interval" yaml:"scan_interval" validate:"required"`

	Deposit          float64 `json:"deposit" yaml:"deposit" validate:"gt=0"`
	Leverage         float64 `json:"leverage" yaml:"leverage" validate:"gte=1"`
	MaxGrids         int     `json:"max_grids" yaml:"max_grids" validate:"gte=1"`
	MaxMarginPerGrid float64 `json:"max_margin_per_grid" yaml:"max_margin_per_grid" validate:"gt=0,lte=1"`

	MakerFee float64 `json:"maker_fee" yaml:"maker_fee" validate:"gte=0,lt=0.01"`
	TakerFee float64 `json:"taker_fee" yaml:"taker_fee" validate:"gte=0,lt=0.01"`

	MinOrderNotional float64 `json:"min_order_notional" yaml:"min_order_notional" validate:"gte=0"`
	GridLevels       int     `json:"grid_levels" yaml:"grid_levels" validate:"gte=2,lte=40"`
	DriftFactor      float64 `json:"drift_factor" yaml:"drift_factor" validate:"gte=1"`

	ATRPeriod    int     `json:"atr_period" yaml:"atr_period" validate:"gte=1"`
	CandleWindow int     `json:"candle_window" yaml:"candle_window" validate:"gte=2"`
	MinCandles   int     `json:"min_candles" yaml:"min_candles" validate:"gte=2"`
	PriceCeiling float64 `json:"price_ceiling" yaml:"price_ceiling" validate:"gt=0"`
	ATRPctMin    float64 `json:"atr_pct_min" yaml:"atr_pct_min" validate:"gte=0"`
	ATRPctMax    float64 `json:"atr_pct_max" yaml:"atr_pct_max" validate:"gt=0"`
	ATRPctTarget float64 `json:"atr_pct_target" yaml:"atr_pct_target" validate:"gt=0"`

	EMAFastPeriod int `json:"ema_fast_period" yaml:"ema_fast_period" validate:"gte=2"`
	EMASlowPeriod int `json:"ema_slow_period" yaml:"ema_slow_period" validate:"gte=2"`

	Live bool `json:"live" yaml:"live"`
}

// ServerConfig holds the HTTP control/state API settings.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" validate:"required"`
}

// JournalConfig holds deal-log settings.
type JournalConfig struct {
	Type   string `json:"type" yaml:"type" validate:"oneof=sqlite none"`
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// StateConfig holds the on-disk state projection settings.
type StateConfig struct {
	Path string `json:"path" yaml:"path"`
}

// ReportConfig holds session report output settings.
type ReportConfig struct {
	Dir string `json:"dir" yaml:"dir"`
}

// Default returns the baseline configuration, mirroring the reference
// dry-run parameters.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Exchange: exchange.Config{
			Name:    "binance",
			Binance: &exchange.BinanceConfig{Testnet: true},
		},
		Trading: TradingConfig{
			AllPairs: []string{
				"SOLUSDT", "BNBUSDT", "DOGEUSDT", "TRXUSDT", "ADAUSDT",
				"XRPUSDT", "TONUSDT", "ARBUSDT", "OPUSDT",
			},
			ManualPairs:      []string{"DOGEUSDT", "TONUSDT"},
			AutoMode:         true,
			MaxAutoPairs:     4,
			Timeframe:        "15m",
			ScanInterval:     "20s",
			Deposit:          100.0,
			Leverage:         10,
			MaxGrids:         2,
			MaxMarginPerGrid: 0.10,
			MakerFee:         0.0002,
			TakerFee:         0.0004,
			MinOrderNotional: 5.0,
			GridLevels:       8,
			DriftFactor:      3.0,
			ATRPeriod:        14,
			CandleWindow:     120,
			MinCandles:       50,
			PriceCeiling:     20.0,
			ATRPctMin:        0.4,
			ATRPctMax:        3.0,
			ATRPctTarget:     1.2,
			EMAFastPeriod:    7,
			EMASlowPeriod:    25,
			Live:             false,
		},
		Server:  ServerConfig{Addr: ":8080"},
		Journal: JournalConfig{Type: "sqlite", DBPath: "gridbot.db"},
		State:   StateConfig{Path: "state.json"},
		Report:  ReportConfig{Dir: "reports"},
	}
}

// Preset returns a named parameter set. The presets correspond to the
// historical bot variants that differed only in constants.
func Preset(name string) (*Config, error) {
	cfg := Default()
	switch name {
	case "", "default":
	case "conservative":
		cfg.Trading.Leverage = 5
		cfg.Trading.MaxGrids = 1
		cfg.Trading.MaxMarginPerGrid = 0.05
		cfg.Trading.ATRPctMax = 2.0
		cfg.Trading.ScanInterval = "60s"
	case "aggressive":
		cfg.Trading.Leverage = 20
		cfg.Trading.MaxGrids = 4
		cfg.Trading.MaxMarginPerGrid = 0.15
		cfg.Trading.GridLevels = 12
		cfg.Trading.ScanInterval = "10s"
	default:
		return nil, fmt.Errorf("unknown preset %q (known: default, conservative, aggressive)", name)
	}
	return cfg, nil
}

// Load reads a configuration file, YAML or JSON by content, applied on top
// of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overlays credentials and a few operational switches from the
// environment. Secrets never live in config files.
func (c *Config) ApplyEnv() {
	c.Exchange.Name = getEnv("EXCHANGE_NAME", c.Exchange.Name)

	if c.Exchange.Binance == nil {
		c.Exchange.Binance = &exchange.BinanceConfig{}
	}
	c.Exchange.Binance.APIKey = getEnv("BINANCE_API_KEY", c.Exchange.Binance.APIKey)
	c.Exchange.Binance.APISecret = getEnv("BINANCE_API_SECRET", c.Exchange.Binance.APISecret)

	if c.Exchange.Bybit == nil {
		c.Exchange.Bybit = &exchange.BybitConfig{}
	}
	c.Exchange.Bybit.APIKey = getEnv("BYBIT_API_KEY", c.Exchange.Bybit.APIKey)
	c.Exchange.Bybit.APISecret = getEnv("BYBIT_API_SECRET", c.Exchange.Bybit.APISecret)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Trading.Live = getEnvBool("GRID_LIVE", c.Trading.Live)
	c.Trading.Deposit = getEnvFloat("GRID_DEPOSIT", c.Trading.Deposit)
	c.Server.Addr = getEnv("SERVER_ADDR", c.Server.Addr)
}

// Validate checks struct tags plus the cross-field constraints the tags
// cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := time.ParseDuration(c.Trading.ScanInterval); err != nil {
		return fmt.Errorf("invalid scan_interval: %w", err)
	}
	if c.Trading.ATRPctMin >= c.Trading.ATRPctMax {
		return fmt.Errorf("atr_pct_min (%.2f) must be below atr_pct_max (%.2f)",
			c.Trading.ATRPctMin, c.Trading.ATRPctMax)
	}
	if c.Trading.ATRPctTarget < c.Trading.ATRPctMin || c.Trading.ATRPctTarget > c.Trading.ATRPctMax {
		return fmt.Errorf("atr_pct_target (%.2f) must sit inside the volatility band [%.2f, %.2f]",
			c.Trading.ATRPctTarget, c.Trading.ATRPctMin, c.Trading.ATRPctMax)
	}
	if c.Trading.EMAFastPeriod >= c.Trading.EMASlowPeriod {
		return fmt.Errorf("ema_fast_period (%d) must be below ema_slow_period (%d)",
			c.Trading.EMAFastPeriod, c.Trading.EMASlowPeriod)
	}
	if c.Trading.MinCandles > c.Trading.CandleWindow {
		return fmt.Errorf("min_candles (%d) cannot exceed candle_window (%d)",
			c.Trading.MinCandles, c.Trading.CandleWindow)
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal db_path is required for the sqlite journal")
	}

	return nil
}

// ScanEvery returns the parsed scan interval. Validate must have passed.
func (c *Config) ScanEvery() time.Duration {
	d, err := time.ParseDuration(c.Trading.ScanInterval)
	if err != nil {
		return 20 * time.Second
	}
	return d
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}
