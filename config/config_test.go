package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "relief_gateway", cfg.Database.DBName)
	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	assert.True(t, cfg.Database.RunMigrations)

	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, 6379, cfg.Redis.Port)

	assert.Equal(t, "http://localhost:9090", cfg.Oracle.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Oracle.Timeout)

	assert.Equal(t, int64(100_000), cfg.Fraud.MaxTransactionAmount)
	assert.Equal(t, int64(200_000), cfg.Fraud.DailySpendingCap)
	assert.Equal(t, 5*time.Minute, cfg.Fraud.DuplicateWindow)
	assert.Equal(t, time.Hour, cfg.Fraud.RapidWindow)
	assert.Equal(t, 10, cfg.Fraud.RapidMaxCount)
	assert.Equal(t, 30*24*time.Hour, cfg.Fraud.ConcentrationWindow)
	assert.Equal(t, 0.8, cfg.Fraud.ConcentrationRatio)

	assert.Equal(t, "UTC", cfg.Limits.Timezone)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, "relief-disbursement-gateway", cfg.JWT.Issuer)
	assert.Equal(t, "disbursement.decisions", cfg.Notifier.Channel)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
}

func TestLoad_FromYAMLFile(t *testing.T) {
	content := []byte(`
server:
  host: "127.0.0.1"
  port: 9191
  mode: "release"
database:
  host: "db.example.com"
  dbname: "reliefdb"
oracle:
  base_url: "https://ledger.example.org"
  timeout: "2s"
fraud:
  max_transaction_amount: 75000
  daily_spending_cap: 150000
  rapid_max_count: 8
limits:
  timezone: "Asia/Dhaka"
jwt:
  secret: "test-secret"
  expiry: "12h"
log:
  level: "debug"
  pretty: true
`)
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, content, 0644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.Equal(t, "reliefdb", cfg.Database.DBName)
	assert.Equal(t, "https://ledger.example.org", cfg.Oracle.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Oracle.Timeout)
	assert.Equal(t, int64(75000), cfg.Fraud.MaxTransactionAmount)
	assert.Equal(t, int64(150000), cfg.Fraud.DailySpendingCap)
	assert.Equal(t, 8, cfg.Fraud.RapidMaxCount)
	assert.Equal(t, "Asia/Dhaka", cfg.Limits.Timezone)
	assert.Equal(t, 12*time.Hour, cfg.JWT.Expiry)
	assert.True(t, cfg.Log.Pretty)

	// Defaults still apply for unset keys.
	assert.Equal(t, int64(1_000_000), cfg.Fraud.VendorDailyCap)
	assert.Equal(t, "disbursement.decisions", cfg.Notifier.Channel)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("RDG_DATABASE_HOST", "env-db")
	t.Setenv("RDG_FRAUD_DAILY_SPENDING_CAP", "99000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-db", cfg.Database.Host)
	assert.Equal(t, int64(99000), cfg.Fraud.DailySpendingCap)
}
