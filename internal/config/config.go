package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	RefreshInterval time.Duration
	FetchTimeout    time.Duration

	// Upstream API configuration.
	DataGovBaseURL string
	OneMapBaseURL  string
	OneMapToken    string
	OneMapYear     string

	// Theme categories per density bucket.
	ThemesGreen       []string
	ThemesCommercial  []string
	ThemesResidential []string

	// Rule-engine thresholds.
	RuleTempHigh      float64
	RuleTempCritical  float64
	RuleGreenLow      float64
	RuleGreenCritical float64

	// Kafka alert publishing configuration.
	KafkaAlertsEnabled bool
	KafkaBrokers       []string
	KafkaAlertsTopic   string

	// Gemini advisory configuration.
	GeminiEnabled   bool
	GeminiAPIKey    string
	GeminiModel     string
	GeminiCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	refreshInterval, err := parseDurationEnv("REFRESH_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parseDurationEnv("FETCH_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	tempHigh, err := parseFloatEnv("RULE_TEMP_HIGH", 29.5)
	if err != nil {
		return nil, err
	}
	tempCritical, err := parseFloatEnv("RULE_TEMP_CRITICAL", 30.5)
	if err != nil {
		return nil, err
	}
	greenLow, err := parseFloatEnv("RULE_GREEN_LOW", 0.2)
	if err != nil {
		return nil, err
	}
	greenCritical, err := parseFloatEnv("RULE_GREEN_CRITICAL", 0.1)
	if err != nil {
		return nil, err
	}

	kafkaEnabled := os.Getenv("KAFKA_ALERTS_ENABLED") == "true"

	geminiKey := os.Getenv("GEMINI_API_KEY")
	geminiEnabled := geminiKey != ""
	if v := os.Getenv("GEMINI_ENABLED"); v != "" {
		geminiEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		RefreshInterval: refreshInterval,
		FetchTimeout:    fetchTimeout,

		DataGovBaseURL: envOrDefault("DATAGOV_BASE_URL", "https://api-open.data.gov.sg/v2/real-time/api"),
		OneMapBaseURL:  envOrDefault("ONEMAP_BASE_URL", "https://www.onemap.gov.sg/api/public"),
		OneMapToken:    os.Getenv("ONEMAP_TOKEN"),
		OneMapYear:     envOrDefault("ONEMAP_YEAR", "2019"),

		ThemesGreen:       parseList(envOrDefault("THEMES_GREEN", "nationalparks,nparks_parks")),
		ThemesCommercial:  parseList(envOrDefault("THEMES_COMMERCIAL", "hotels")),
		ThemesResidential: parseList(envOrDefault("THEMES_RESIDENTIAL", "kindergartens,ssot_hawkercentres")),

		RuleTempHigh:      tempHigh,
		RuleTempCritical:  tempCritical,
		RuleGreenLow:      greenLow,
		RuleGreenCritical: greenCritical,

		KafkaAlertsEnabled: kafkaEnabled,
		KafkaBrokers:       parseList(os.Getenv("KAFKA_BROKERS")),
		KafkaAlertsTopic:   envOrDefault("KAFKA_ALERTS_TOPIC", "heat-alerts"),

		GeminiEnabled:   geminiEnabled,
		GeminiAPIKey:    geminiKey,
		GeminiModel:     envOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiCacheSize: parseGeminiCacheSize(),
	}

	if cfg.RefreshInterval < time.Minute {
		return nil, errors.New("REFRESH_INTERVAL must be at least 1m")
	}
	if cfg.RuleTempCritical <= cfg.RuleTempHigh {
		return nil, errors.New("RULE_TEMP_CRITICAL must exceed RULE_TEMP_HIGH")
	}
	if cfg.RuleGreenCritical > cfg.RuleGreenLow {
		return nil, errors.New("RULE_GREEN_CRITICAL must not exceed RULE_GREEN_LOW")
	}
	if cfg.KafkaAlertsEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ALERTS_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaAlertsEnabled && cfg.KafkaAlertsTopic == "" {
		return nil, errors.New("KAFKA_ALERTS_TOPIC is required")
	}
	if cfg.GeminiEnabled && cfg.GeminiAPIKey == "" {
		return nil, errors.New("GEMINI_ENABLED is true but GEMINI_API_KEY is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseGeminiCacheSize() int {
	if s := os.Getenv("GEMINI_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 256
}

// parseList splits a comma-separated value, trimming whitespace and dropping
// empty entries.
func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloatEnv(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}
