// internal/config/config.go
package config

import (
	"os"
	"strconv"
)

// Config gathers everything read from the environment. A missing .env file
// is fine; the process then relies on OS environment variables.
type Config struct {
	Port        string
	DatabaseURL string
	AMQPURL     string

	CountryCode     string // default country code for bare 10-digit phones
	HourlyLimit     int
	BurstLimit      int
	Workers         int
	TestMode        bool
	DuplicatePolicy string // warn (send to all) or dedupe
	TierPolicy      string // pool or specific
	TemplatePack    string // optional YAML template pack path
	LogLevel        string

	Gateway Gateway
	TextGen TextGen
}

// Gateway holds the outbound SMS provider credentials.
type Gateway struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
}

// Configured reports whether the outbound channel can be used. When false
// and test mode is off, dispatch must refuse to start.
func (g Gateway) Configured() bool {
	return g.AccountSID != "" && g.AuthToken != "" && g.From != ""
}

// TextGen holds the optional text-generation service credentials.
type TextGen struct {
	APIKey  string
	Model   string
	BaseURL string
}

func (t TextGen) Configured() bool { return t.APIKey != "" }

func Load() Config {
	return Config{
		Port:        envStr("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		AMQPURL:     os.Getenv("AMQP_URL"),

		CountryCode:     envStr("DEFAULT_COUNTRY_CODE", "1"),
		HourlyLimit:     envInt("RATE_LIMIT_PER_HOUR", 100),
		BurstLimit:      envInt("RATE_LIMIT_BURST", 10),
		Workers:         envInt("DISPATCH_WORKERS", 4),
		TestMode:        envBool("TEST_MODE", false),
		DuplicatePolicy: envStr("DUPLICATE_POLICY", "warn"),
		TierPolicy:      envStr("TIER_POLICY", "pool"),
		TemplatePack:    os.Getenv("TEMPLATE_PACK"),
		LogLevel:        envStr("LOG_LEVEL", "info"),

		Gateway: Gateway{
			AccountSID: os.Getenv("SMS_ACCOUNT_SID"),
			AuthToken:  os.Getenv("SMS_AUTH_TOKEN"),
			From:       os.Getenv("SMS_FROM_NUMBER"),
			BaseURL:    os.Getenv("SMS_BASE_URL"),
		},
		TextGen: TextGen{
			APIKey:  os.Getenv("TEXTGEN_API_KEY"),
			Model:   os.Getenv("TEXTGEN_MODEL"),
			BaseURL: os.Getenv("TEXTGEN_BASE_URL"),
		},
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
