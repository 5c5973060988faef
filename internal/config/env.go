package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CASHBOOK_"

// ApplyEnv overrides cfg from CASHBOOK_* variables. Values come from the
// process environment first, then from a .env file in repoRoot if present.
func ApplyEnv(cfg *Config, repoRoot string) error {
	dotenv, err := godotenv.Read(filepath.Join(repoRoot, ".env"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading .env: %w", err)
	}

	lookup := func(key string) (string, bool) {
		key = EnvPrefix + key
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	strs := map[string]*string{
		"BUSINESS_NAME": &cfg.Business.Name,
		"HANDLER":       &cfg.Business.DefaultHandler,
		"STORE_DRIVER":  &cfg.Store.Driver,
		"STORE_PATH":    &cfg.Store.Path,
		"STORE_SHEET":   &cfg.Store.Sheet,
		"RATES_URL":     &cfg.Rates.URL,
		"LOG_LEVEL":     &cfg.Log.Level,
		"LOG_FORMAT":    &cfg.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"RATES_REFRESH":    &cfg.Rates.Refresh,
		"RATES_TIMEOUT":    &cfg.Rates.Timeout,
		"CONFIRM_INTERVAL": &cfg.Confirm.Interval,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = d
	}

	if v, ok := lookup("CONFIRM_ATTEMPTS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sCONFIRM_ATTEMPTS: %w", EnvPrefix, err)
		}
		cfg.Confirm.Attempts = n
	}
	if v, ok := lookup("GIT_AUTO_COMMIT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sGIT_AUTO_COMMIT: %w", EnvPrefix, err)
		}
		cfg.Git.AutoCommit = b
	}

	return cfg.Validate()
}
