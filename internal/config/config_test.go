package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadDefaults verifies that loading without a config file yields the
// documented default strategy parameters.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 100000.0, cfg.Trading.StartingCapital)
	assert.Equal(t, 0.40, cfg.Trading.BaseRiskPerTrade)
	assert.Equal(t, 4.0, cfg.Trading.BaseLeverage)
	assert.Equal(t, 10, cfg.Trading.LongHoldDays)
	assert.Equal(t, 3, cfg.Trading.ShortHoldDays)
	assert.Equal(t, 5, cfg.Trading.SlippageBps)
	assert.Equal(t, 1, cfg.Trading.CommissionBps)

	assert.Len(t, cfg.Risk.Basket, 30)
	assert.Equal(t, 252, cfg.Risk.CorrelationLookback)
	assert.Equal(t, 60, cfg.Risk.TrendLookbackDays)
	assert.Equal(t, "^VIX", cfg.Risk.VolatilityIndex)
	assert.Equal(t, "GC=F", cfg.Hedge.Symbol)
	assert.Equal(t, "paper", cfg.Broker.Mode)

	// Connection accessors, as the binaries use them
	assert.Equal(t, "localhost:6379", cfg.Redis.GetRedisAddr())
	assert.Contains(t, cfg.Database.GetDSN(), "dbname=spxbot")
}

// TestLoadFromFile verifies that YAML values override defaults.
func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
app:
  name: test-bot
  log_level: debug
trading:
  starting_capital: 250000
  base_leverage: 2.0
risk:
  trend_lookback_days: 90
hedge:
  symbol: SI=F
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test-bot", cfg.App.Name)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, 250000.0, cfg.Trading.StartingCapital)
	assert.Equal(t, 2.0, cfg.Trading.BaseLeverage)
	assert.Equal(t, 90, cfg.Risk.TrendLookbackDays)
	assert.Equal(t, "SI=F", cfg.Hedge.Symbol)
	// Unset values keep defaults
	assert.Equal(t, 0.40, cfg.Trading.BaseRiskPerTrade)
}

// TestValidate covers the configuration invariants.
func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Trading: TradingConfig{
				StartingCapital:  100000,
				BaseRiskPerTrade: 0.40,
				BaseLeverage:     4.0,
			},
			Risk: RiskConfig{
				Basket:              []string{"JPM", "BAC", "WFC", "C", "GS", "MS"},
				FundamentalsBasket:  5,
				CorrelationLookback: 252,
				TrendLookbackDays:   60,
				MatrixCacheSize:     8,
			},
			Broker: BrokerConfig{Mode: "paper"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "negative capital",
			mutate:  func(c *Config) { c.Trading.StartingCapital = -1 },
			wantErr: "starting_capital",
		},
		{
			name:    "risk fraction above one",
			mutate:  func(c *Config) { c.Trading.BaseRiskPerTrade = 1.5 },
			wantErr: "base_risk_per_trade",
		},
		{
			name:    "basket too small",
			mutate:  func(c *Config) { c.Risk.Basket = []string{"JPM", "BAC"} },
			wantErr: "at least 5 tickers",
		},
		{
			name:    "fundamentals basket exceeds basket",
			mutate:  func(c *Config) { c.Risk.FundamentalsBasket = 50 },
			wantErr: "fundamentals_basket",
		},
		{
			name:    "short correlation lookback",
			mutate:  func(c *Config) { c.Risk.CorrelationLookback = 10 },
			wantErr: "correlation_lookback",
		},
		{
			name:    "invalid broker mode",
			mutate:  func(c *Config) { c.Broker.Mode = "sandbox" },
			wantErr: "broker.mode",
		},
		{
			name: "telegram enabled without token",
			mutate: func(c *Config) {
				c.Telegram.Enabled = true
				c.Telegram.BotToken = ""
			},
			wantErr: "bot_token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

// TestGetDSN verifies the PostgreSQL connection string format.
func TestGetDSN(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "bot",
		Password: "secret",
		Database: "spxbot",
		SSLMode:  "require",
	}
	assert.Equal(t,
		"host=db.internal port=5433 user=bot password=secret dbname=spxbot sslmode=require",
		db.GetDSN())
}

// TestGetRedisAddr verifies the Redis address format.
func TestGetRedisAddr(t *testing.T) {
	r := RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", r.GetRedisAddr())
}
