package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Trading    TradingConfig    `mapstructure:"trading"`
	Risk       RiskConfig       `mapstructure:"risk"`
	Hedge      HedgeConfig      `mapstructure:"hedge"`
	MarketData MarketDataConfig `mapstructure:"market_data"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	NATS       NATSConfig       `mapstructure:"nats"`
	News       NewsConfig       `mapstructure:"news"`
	Broker     BrokerConfig     `mapstructure:"broker"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// AppConfig contains application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"` // development, staging, production
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"` // "json" or "console"
}

// TradingConfig contains the base strategy parameters
type TradingConfig struct {
	StartingCapital  float64 `mapstructure:"starting_capital"`   // 100000.0
	BaseRiskPerTrade float64 `mapstructure:"base_risk_per_trade"` // 0.40 (40% of equity per trade)
	BaseLeverage     float64 `mapstructure:"base_leverage"`       // 4.0
	LongHoldDays     int     `mapstructure:"long_hold_days"`      // 10
	ShortHoldDays    int     `mapstructure:"short_hold_days"`     // 3
	SlippageBps      int     `mapstructure:"slippage_bps"`        // 5
	CommissionBps    int     `mapstructure:"commission_bps"`      // 1
	MaxPositionSize  float64 `mapstructure:"max_position_size"`   // 100000
	MinPositionSize  float64 `mapstructure:"min_position_size"`   // 1000
}

// RiskConfig contains systemic risk analysis settings
type RiskConfig struct {
	Basket              []string `mapstructure:"basket"`                // financial reference tickers
	FundamentalsBasket  int      `mapstructure:"fundamentals_basket"`   // leading N basket members for leverage factor
	CorrelationLookback int      `mapstructure:"correlation_lookback"`  // 252 trading days
	LiquidityLookback   int      `mapstructure:"liquidity_lookback"`    // 60 days
	TrendLookbackDays   int      `mapstructure:"trend_lookback_days"`   // 60 days
	MatrixCacheSize     int      `mapstructure:"matrix_cache_size"`     // memoized correlation matrices
	VolatilityIndex     string   `mapstructure:"volatility_index"`      // ^VIX
	YieldSymbol10Y      string   `mapstructure:"yield_symbol_10y"`      // ^TNX
	YieldSymbol3M       string   `mapstructure:"yield_symbol_3m"`       // ^IRX
	SectorIndex         string   `mapstructure:"sector_index"`          // XLF
}

// HedgeConfig identifies the hedge instrument
type HedgeConfig struct {
	Symbol string `mapstructure:"symbol"` // GC=F (gold futures)
}

// MarketDataConfig contains data provider settings
type MarketDataConfig struct {
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`       // per-request bound
	RequestsPerSecond float64       `mapstructure:"requests_per_second"` // Yahoo rate limit
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

// DatabaseConfig contains PostgreSQL settings for the candle store
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	PoolSize int    `mapstructure:"pool_size"`
}

// RedisConfig contains Redis settings
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NATSConfig contains NATS messaging settings
type NATSConfig struct {
	URL          string `mapstructure:"url"`
	EventSubject string `mapstructure:"event_subject"` // index-change events
}

// NewsConfig contains news detection settings
type NewsConfig struct {
	FeedsFile     string        `mapstructure:"feeds_file"`     // YAML list of RSS sources
	CheckInterval time.Duration `mapstructure:"check_interval"` // 30s
	MaxEntryAge   time.Duration `mapstructure:"max_entry_age"`  // ignore stale feed entries
	DedupWindow   time.Duration `mapstructure:"dedup_window"`   // 1h
}

// BrokerConfig contains execution settings
type BrokerConfig struct {
	Mode string `mapstructure:"mode"` // "paper" or "live"
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// TelegramConfig contains alerting settings
type TelegramConfig struct {
	Enabled  bool    `mapstructure:"enabled"`
	BotToken string  `mapstructure:"bot_token"`
	ChatIDs  []int64 `mapstructure:"chat_ids"`
}

// MonitoringConfig contains monitoring settings
type MonitoringConfig struct {
	PrometheusPort int  `mapstructure:"prometheus_port"`
	EnableMetrics  bool `mapstructure:"enable_metrics"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable overrides
	v.AutomaticEnv()
	v.SetEnvPrefix("SPX")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; using defaults and environment variables
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "spx-riskbot")
	v.SetDefault("app.version", "2.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "console")

	// Trading defaults (base strategy)
	v.SetDefault("trading.starting_capital", 100000.0)
	v.SetDefault("trading.base_risk_per_trade", 0.40)
	v.SetDefault("trading.base_leverage", 4.0)
	v.SetDefault("trading.long_hold_days", 10)
	v.SetDefault("trading.short_hold_days", 3)
	v.SetDefault("trading.slippage_bps", 5)
	v.SetDefault("trading.commission_bps", 1)
	v.SetDefault("trading.max_position_size", 100000.0)
	v.SetDefault("trading.min_position_size", 1000.0)

	// Risk analysis defaults
	v.SetDefault("risk.basket", []string{
		"JPM", "BAC", "WFC", "C", "GS", "MS", "AXP", "USB", "PNC", "TFC",
		"COF", "SCHW", "BLK", "CB", "AON", "MMC", "AIG", "MET", "PRU", "ALL",
		"TRV", "PGR", "HIG", "PFG", "LNC", "BEN", "NTRS", "STT", "BK", "STI",
	})
	v.SetDefault("risk.fundamentals_basket", 10)
	v.SetDefault("risk.correlation_lookback", 252)
	v.SetDefault("risk.liquidity_lookback", 60)
	v.SetDefault("risk.trend_lookback_days", 60)
	v.SetDefault("risk.matrix_cache_size", 8)
	v.SetDefault("risk.volatility_index", "^VIX")
	v.SetDefault("risk.yield_symbol_10y", "^TNX")
	v.SetDefault("risk.yield_symbol_3m", "^IRX")
	v.SetDefault("risk.sector_index", "XLF")

	// Hedge instrument
	v.SetDefault("hedge.symbol", "GC=F")

	// Market data defaults
	v.SetDefault("market_data.fetch_timeout", "30s")
	v.SetDefault("market_data.requests_per_second", 4.0)
	v.SetDefault("market_data.cache_ttl", "60s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "spxbot")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.pool_size", 10)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// NATS defaults
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.event_subject", "spxbot.news.events")

	// News defaults
	v.SetDefault("news.feeds_file", "./configs/feeds.yaml")
	v.SetDefault("news.check_interval", "30s")
	v.SetDefault("news.max_entry_age", "2h")
	v.SetDefault("news.dedup_window", "1h")

	// Broker defaults
	v.SetDefault("broker.mode", "paper")
	v.SetDefault("broker.host", "127.0.0.1")
	v.SetDefault("broker.port", 7497)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)

	// Monitoring defaults
	v.SetDefault("monitoring.prometheus_port", 9100)
	v.SetDefault("monitoring.enable_metrics", true)
}

// Validate checks configuration invariants that would otherwise surface as
// confusing downstream failures.
func (c *Config) Validate() error {
	if c.Trading.StartingCapital <= 0 {
		return fmt.Errorf("trading.starting_capital must be positive, got %f", c.Trading.StartingCapital)
	}
	if c.Trading.BaseRiskPerTrade <= 0 || c.Trading.BaseRiskPerTrade > 1 {
		return fmt.Errorf("trading.base_risk_per_trade must be in (0, 1], got %f", c.Trading.BaseRiskPerTrade)
	}
	if c.Trading.BaseLeverage <= 0 {
		return fmt.Errorf("trading.base_leverage must be positive, got %f", c.Trading.BaseLeverage)
	}
	if len(c.Risk.Basket) < 5 {
		return fmt.Errorf("risk.basket needs at least 5 tickers for correlation analysis, got %d", len(c.Risk.Basket))
	}
	if c.Risk.FundamentalsBasket <= 0 || c.Risk.FundamentalsBasket > len(c.Risk.Basket) {
		return fmt.Errorf("risk.fundamentals_basket must be in [1, %d], got %d", len(c.Risk.Basket), c.Risk.FundamentalsBasket)
	}
	if c.Risk.CorrelationLookback < 50 {
		return fmt.Errorf("risk.correlation_lookback must be at least 50 days, got %d", c.Risk.CorrelationLookback)
	}
	if c.Risk.TrendLookbackDays <= 0 {
		return fmt.Errorf("risk.trend_lookback_days must be positive, got %d", c.Risk.TrendLookbackDays)
	}
	if c.Risk.MatrixCacheSize <= 0 {
		return fmt.Errorf("risk.matrix_cache_size must be positive, got %d", c.Risk.MatrixCacheSize)
	}
	if c.Broker.Mode != "paper" && c.Broker.Mode != "live" {
		return fmt.Errorf("broker.mode must be \"paper\" or \"live\", got %q", c.Broker.Mode)
	}
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required when telegram alerts are enabled")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
