package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("Fubang Engineering")
	cfg.Store = StoreConfig{Driver: "xlsx", Path: "ledger/ledger.xlsx", Sheet: "流水"}
	cfg.Rates.URL = "https://rates.example/latest"
	cfg.Rates.Defaults = map[string]float64{"RMB": 7.1, "USD": 1}

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default("My Company")

	assert.Equal(t, "My Company", cfg.Business.Name)
	assert.Equal(t, "csv", cfg.Store.Driver)
	assert.Equal(t, "ledger/ledger.csv", cfg.Store.Path)
	assert.Equal(t, time.Hour, cfg.Rates.Refresh)
	assert.Equal(t, 5*time.Second, cfg.Rates.Timeout)
	assert.Empty(t, cfg.Rates.URL)
	assert.Equal(t, 5, cfg.Confirm.Attempts)
	assert.True(t, cfg.Git.AutoCommit)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("business:\n  name: Acme\nrates:\n  refresh: 30m\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Acme", cfg.Business.Name)
	assert.Equal(t, 30*time.Minute, cfg.Rates.Refresh)
	assert.Equal(t, 5*time.Second, cfg.Rates.Timeout)
	assert.Equal(t, "csv", cfg.Store.Driver)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("store: [not, a, map]\n"), 0o644))
	_, err := Load(bad)
	assert.ErrorContains(t, err, "parsing config")

	driver := filepath.Join(dir, "driver.yaml")
	require.NoError(t, os.WriteFile(driver, []byte("store:\n  driver: postgres\n"), 0o644))
	_, err = Load(driver)
	assert.ErrorContains(t, err, `unknown store driver "postgres"`)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty path", func(c *Config) { c.Store.Path = "" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
		{"attempts", func(c *Config) { c.Confirm.Attempts = -1 }},
		{"default rate", func(c *Config) { c.Rates.Defaults = map[string]float64{"VND": 0} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("x")
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default("Test Biz")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: Test Biz")
	assert.Contains(t, contents, "driver: csv")
	assert.Contains(t, contents, "refresh: 1h0m0s")
	assert.Contains(t, contents, "auto_commit: true")
	assert.NotContains(t, contents, "default_handler")
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("CASHBOOK_RATES_URL=https://dotenv.example\nCASHBOOK_STORE_DRIVER=sqlite\nCASHBOOK_STORE_PATH=data/ledger.db\n"), 0o644))

	t.Setenv("CASHBOOK_STORE_DRIVER", "xlsx")
	t.Setenv("CASHBOOK_STORE_PATH", "ledger.xlsx")
	t.Setenv("CASHBOOK_RATES_REFRESH", "15m")
	t.Setenv("CASHBOOK_CONFIRM_ATTEMPTS", "2")
	t.Setenv("CASHBOOK_GIT_AUTO_COMMIT", "false")
	t.Setenv("CASHBOOK_HANDLER", "Alice")

	cfg := Default("x")
	require.NoError(t, ApplyEnv(cfg, dir))

	assert.Equal(t, "xlsx", cfg.Store.Driver, "process env wins over .env")
	assert.Equal(t, "ledger.xlsx", cfg.Store.Path)
	assert.Equal(t, "https://dotenv.example", cfg.Rates.URL)
	assert.Equal(t, 15*time.Minute, cfg.Rates.Refresh)
	assert.Equal(t, 2, cfg.Confirm.Attempts)
	assert.False(t, cfg.Git.AutoCommit)
	assert.Equal(t, "Alice", cfg.Business.DefaultHandler)
}

func TestApplyEnv_NoDotenv(t *testing.T) {
	cfg := Default("x")
	require.NoError(t, ApplyEnv(cfg, t.TempDir()))
	assert.Equal(t, Default("x"), cfg)
}

func TestApplyEnv_Invalid(t *testing.T) {
	t.Setenv("CASHBOOK_RATES_TIMEOUT", "soon")
	err := ApplyEnv(Default("x"), t.TempDir())
	assert.ErrorContains(t, err, "CASHBOOK_RATES_TIMEOUT")
}

func TestApplyEnv_InvalidDriver(t *testing.T) {
	t.Setenv("CASHBOOK_STORE_DRIVER", "mongo")
	err := ApplyEnv(Default("x"), t.TempDir())
	assert.ErrorContains(t, err, "unknown store driver")
}
