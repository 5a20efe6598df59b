package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"fxhedge/internal/forward"
	"fxhedge/internal/logging"
)

// Market data sources.
const (
	SourceSimulated = "simulated"
	SourceChart     = "chart"
	SourceChainlink = "chainlink"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig          `mapstructure:"app"`
	Logging   logging.Config     `mapstructure:"logging"`
	Rates     map[string]float64 `mapstructure:"rates"`
	Market    MarketConfig       `mapstructure:"market"`
	Cache     CacheConfig        `mapstructure:"cache"`
	Analysis  AnalysisConfig     `mapstructure:"analysis"`
	Database  DatabaseConfig     `mapstructure:"database"`
	Scheduler SchedulerConfig    `mapstructure:"scheduler"`
	Alerting  AlertingConfig     `mapstructure:"alerting"`
	Export    ExportConfig       `mapstructure:"export"`
	Server    ServerConfig       `mapstructure:"server"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// MarketConfig selects and parameterises the spot rate source.
type MarketConfig struct {
	Source         string          `mapstructure:"source"`
	Pairs          []string        `mapstructure:"pairs"`
	RequestTimeout time.Duration   `mapstructure:"request_timeout"`
	UserAgent      string          `mapstructure:"user_agent"`
	Chart          ChartConfig     `mapstructure:"chart"`
	Simulated      SimulatedConfig `mapstructure:"simulated"`
	Chainlink      ChainlinkConfig `mapstructure:"chainlink"`
}

// ChartConfig covers the HTTP chart quote API.
type ChartConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// SimulatedConfig drives the offline spot generator.
type SimulatedConfig struct {
	Spots     map[string]float64 `mapstructure:"spots"`
	JitterPct float64            `mapstructure:"jitter_pct"`
	Seed      int64              `mapstructure:"seed"`
}

// ChainlinkConfig covers on-chain aggregator access.
type ChainlinkConfig struct {
	RPCURL string       `mapstructure:"rpc_url"`
	Feeds  []FeedConfig `mapstructure:"feeds"`
}

// FeedConfig maps a pair onto an aggregator contract. Invert is set when the feed
// quotes the reciprocal, e.g. a CAD/USD feed serving USD/CAD.
type FeedConfig struct {
	Pair    string `mapstructure:"pair"`
	Address string `mapstructure:"address"`
	Invert  bool   `mapstructure:"invert"`
}

// CacheConfig enables the Redis quote cache when Addr is set.
type CacheConfig struct {
	RedisAddr string        `mapstructure:"redis_addr"`
	TTL       time.Duration `mapstructure:"ttl"`
	Prefix    string        `mapstructure:"prefix"`
}

// AnalysisConfig holds defaults for the analyze command.
type AnalysisConfig struct {
	Pair       string  `mapstructure:"pair"`
	Notional   float64 `mapstructure:"notional"`
	Tenor      string  `mapstructure:"tenor"`
	HedgeRatio float64 `mapstructure:"hedge_ratio"`
	MarketView string  `mapstructure:"market_view"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// SchedulerConfig governs snapshot cadence.
type SchedulerConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	AlignToSlot     bool          `mapstructure:"align_to_slot"`
	RunImmediately  bool          `mapstructure:"run_immediately"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
}

// AlertingConfig defines forward premium thresholds and routing.
type AlertingConfig struct {
	Enabled      bool           `mapstructure:"enabled"`
	ThresholdPct float64        `mapstructure:"threshold_pct"`
	Tenor        string         `mapstructure:"tenor"`
	Channels     []string       `mapstructure:"channels"`
	Retention    time.Duration  `mapstructure:"retention"`
	Telegram     TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes Telegram alert parameters.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	OutputDir     string `mapstructure:"output_dir"`
	MaxDataPoints int    `mapstructure:"max_data_points"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	RateLimit    int           `mapstructure:"rate_limit"`
	RateWindow   time.Duration `mapstructure:"rate_window"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FXHEDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "fxhedge")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("rates", map[string]float64{
		"USD": 0.0450,
		"EUR": 0.0300,
		"GBP": 0.0475,
		"JPY": 0.0010,
		"CAD": 0.0375,
		"AUD": 0.0400,
		"CHF": 0.0125,
	})

	v.SetDefault("market.source", SourceSimulated)
	v.SetDefault("market.pairs", []string{"EUR/USD", "GBP/USD", "USD/JPY", "USD/CAD", "AUD/USD", "USD/CHF"})
	v.SetDefault("market.request_timeout", "10s")
	v.SetDefault("market.chart.base_url", "https://query1.finance.yahoo.com/v8/finance/chart")
	v.SetDefault("market.simulated.spots", map[string]float64{
		"EUR/USD": 1.0545,
		"GBP/USD": 1.2675,
		"USD/JPY": 149.85,
		"USD/CAD": 1.4320,
		"AUD/USD": 0.6315,
		"USD/CHF": 0.8895,
	})
	v.SetDefault("market.simulated.jitter_pct", 0.5)
	v.SetDefault("market.simulated.seed", int64(0))

	v.SetDefault("cache.ttl", "1m")
	v.SetDefault("cache.prefix", "fxhedge:spot")

	v.SetDefault("analysis.pair", "USD/CAD")
	v.SetDefault("analysis.notional", 5_000_000.0)
	v.SetDefault("analysis.tenor", "6M")
	v.SetDefault("analysis.hedge_ratio", 0.75)
	v.SetDefault("analysis.market_view", "neutral")

	v.SetDefault("scheduler.interval", "1h")
	v.SetDefault("scheduler.align_to_slot", true)
	v.SetDefault("scheduler.run_immediately", true)
	v.SetDefault("scheduler.advisory_lock_key", int64(0x66786864))
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.threshold_pct", 1.0)
	v.SetDefault("alerting.tenor", "1Y")
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.retention", "0s")
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.output_dir", "outputs")
	v.SetDefault("export.max_data_points", 10000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.rate_limit", 60)
	v.SetDefault("server.rate_window", "1m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if len(c.Rates) == 0 {
		return fmt.Errorf("rates must list at least one currency")
	}
	if !c.RateTable().Has(forward.USD) {
		return fmt.Errorf("rates must include %s", forward.USD)
	}
	switch c.Market.Source {
	case SourceSimulated, SourceChart:
	case SourceChainlink:
		if c.Market.Chainlink.RPCURL == "" {
			return fmt.Errorf("market.chainlink.rpc_url is required for the chainlink source")
		}
	default:
		return fmt.Errorf("market.source %q is not one of simulated, chart, chainlink", c.Market.Source)
	}
	if _, err := c.MarketPairs(); err != nil {
		return err
	}
	if c.Market.Simulated.JitterPct < 0 {
		return fmt.Errorf("market.simulated.jitter_pct cannot be negative")
	}
	if _, err := forward.ParseTenor(c.Analysis.Tenor); err != nil {
		return fmt.Errorf("analysis.tenor: %w", err)
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Alerting.ThresholdPct < 0 {
		return fmt.Errorf("alerting.threshold_pct cannot be negative")
	}
	if c.Alerting.Retention < 0 {
		return fmt.Errorf("alerting.retention cannot be negative")
	}
	if _, err := forward.ParseTenor(c.Alerting.Tenor); err != nil {
		return fmt.Errorf("alerting.tenor: %w", err)
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required")
		}
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit cannot be negative")
	}
	return nil
}

// RateTable converts the configured rates into the immutable pricing table.
func (c *Config) RateTable() forward.RateTable {
	return forward.RateTableFromFloats(c.Rates)
}

// MarketPairs parses market.pairs, preserving order.
func (c *Config) MarketPairs() ([]forward.CurrencyPair, error) {
	if len(c.Market.Pairs) == 0 {
		return nil, fmt.Errorf("market.pairs must list at least one pair")
	}
	pairs := make([]forward.CurrencyPair, 0, len(c.Market.Pairs))
	for _, raw := range c.Market.Pairs {
		pair, err := forward.ParsePair(raw)
		if err != nil {
			return nil, fmt.Errorf("market.pairs: %w", err)
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}

// ResolveOutputDir returns either the CLI override or config default.
func (c *Config) ResolveOutputDir(override string) string {
	if override != "" {
		return override
	}
	return c.Export.OutputDir
}
