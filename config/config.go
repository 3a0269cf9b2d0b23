package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Fraud    FraudConfig    `mapstructure:"fraud"`
	Limits   LimitsConfig   `mapstructure:"limits"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Notifier NotifierConfig `mapstructure:"notifier"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	RunMigrations   bool          `mapstructure:"run_migrations"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// OracleConfig points at the external wallet balance oracle.
type OracleConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// FraudConfig holds the analyzer thresholds. The values are read once
// at startup and passed into the analyzer as an immutable snapshot, so
// tuning is per-environment and tests stay deterministic.
type FraudConfig struct {
	MaxTransactionAmount int64         `mapstructure:"max_transaction_amount"` // minor units
	DailySpendingCap     int64         `mapstructure:"daily_spending_cap"`
	VendorDailyCap       int64         `mapstructure:"vendor_daily_cap"`
	DuplicateWindow      time.Duration `mapstructure:"duplicate_window"`
	RapidWindow          time.Duration `mapstructure:"rapid_window"`
	RapidMaxCount        int           `mapstructure:"rapid_max_count"`
	RapidMinGap          time.Duration `mapstructure:"rapid_min_gap"`
	RapidMaxCloseGaps    int           `mapstructure:"rapid_max_close_gaps"`
	ConcentrationWindow  time.Duration `mapstructure:"concentration_window"`
	ConcentrationMinTx   int           `mapstructure:"concentration_min_tx"`
	ConcentrationRatio   float64       `mapstructure:"concentration_ratio"`
	TimingWindow         time.Duration `mapstructure:"timing_window"`
	TimingMinTx          int           `mapstructure:"timing_min_tx"`
	TimingMaxHours       int           `mapstructure:"timing_max_hours"`
	TimingDominantRatio  float64       `mapstructure:"timing_dominant_ratio"`
}

// LimitsConfig configures the spending limit enforcer.
type LimitsConfig struct {
	// Timezone anchors the daily (midnight) and monthly (first of month)
	// windows. IANA name; "UTC" by default.
	Timezone string `mapstructure:"timezone"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

// NotifierConfig configures best-effort decision event publishing.
type NotifierConfig struct {
	Channel string `mapstructure:"channel"` // redis pub/sub channel
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: RDG_ (Relief
// Disbursement Gateway). Nested keys use underscore: RDG_DATABASE_HOST,
// RDG_FRAUD_DAILY_SPENDING_CAP, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "relief_gateway")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.run_migrations", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("oracle.base_url", "http://localhost:9090")
	v.SetDefault("oracle.timeout", "5s")
	v.SetDefault("fraud.max_transaction_amount", 100_000)
	v.SetDefault("fraud.daily_spending_cap", 200_000)
	v.SetDefault("fraud.vendor_daily_cap", 1_000_000)
	v.SetDefault("fraud.duplicate_window", "5m")
	v.SetDefault("fraud.rapid_window", "1h")
	v.SetDefault("fraud.rapid_max_count", 10)
	v.SetDefault("fraud.rapid_min_gap", "1m")
	v.SetDefault("fraud.rapid_max_close_gaps", 2)
	v.SetDefault("fraud.concentration_window", "720h") // 30 days
	v.SetDefault("fraud.concentration_min_tx", 5)
	v.SetDefault("fraud.concentration_ratio", 0.8)
	v.SetDefault("fraud.timing_window", "168h") // 7 days
	v.SetDefault("fraud.timing_min_tx", 3)
	v.SetDefault("fraud.timing_max_hours", 2)
	v.SetDefault("fraud.timing_dominant_ratio", 0.8)
	v.SetDefault("limits.timezone", "UTC")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "relief-disbursement-gateway")
	v.SetDefault("notifier.channel", "disbursement.decisions")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: RDG_DATABASE_HOST -> database.host
	v.SetEnvPrefix("RDG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required — env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
