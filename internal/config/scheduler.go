package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// WarmerConfig controls the background quote warmer
type WarmerConfig struct {
	// Watchlist holds coin ids kept hot in the quote cache
	Watchlist []string `json:"watchlist"`
	// Interval between refreshes, <= 0 disables the warmer
	Interval time.Duration `json:"interval"`
}

// Enabled reports whether the warmer has anything to do.
func (w WarmerConfig) Enabled() bool {
	return w.Interval > 0 && len(w.Watchlist) > 0
}

// GetWarmerConfig reads the warmer settings from the environment
func GetWarmerConfig() WarmerConfig {
	return WarmerConfig{
		Watchlist: getEnvList("WATCHLIST", nil),
		Interval:  getEnvDuration("WARM_INTERVAL", 0),
	}
}

// helpers
func getEnvString(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blanks
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
