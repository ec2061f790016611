package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"gopkg.in/yaml.v3"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// NASA NeoWs.
	NASAAPIKey   string
	NeoWsBaseURL string
	NeoWsTimeout time.Duration

	// Feed response cache: "memory", "redis", or "none".
	FeedCache     string
	FeedCacheTTL  time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Watchlist persistence: "sqlite" or "postgres".
	WatchlistDriver string
	DatabaseURL     string

	// Exactly one of AuthJWTSecret (HS256) or AuthJWTPublicKeyFile (RS256).
	AuthJWTSecret        string
	AuthJWTPublicKeyFile string
	AuthIssuer           string
	AuthAudience         string

	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	AlertsEnabled     bool
	KafkaBrokers      []string
	KafkaAlertTopic   string
	AlertScanInterval time.Duration
	AlertWindowDays   int

	ChatMaxMessageLen int
}

// Load reads configuration from environment variables, applying defaults where
// unset. When CONFIG_FILE names a YAML file of KEY: value pairs, its entries
// replace the built-in defaults; environment variables still take precedence.
func Load() (*Config, error) {
	src, err := newSource(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	if v, ok := src.file["SHUTDOWN_TIMEOUT"]; ok && os.Getenv("SHUTDOWN_TIMEOUT") == "" {
		if shutdownTimeout, err = positiveDuration("SHUTDOWN_TIMEOUT", v); err != nil {
			return nil, err
		}
	}

	neowsTimeout, err := src.duration("NEOWS_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := src.duration("FEED_CACHE_TTL", "15m")
	if err != nil {
		return nil, err
	}
	scanInterval, err := src.duration("ALERT_SCAN_INTERVAL", "1h")
	if err != nil {
		return nil, err
	}
	redisDB, err := src.intRange("REDIS_DB", "0", 0, 15)
	if err != nil {
		return nil, err
	}
	burst, err := src.intRange("RATE_LIMIT_BURST", "40", 1, 100_000)
	if err != nil {
		return nil, err
	}
	windowDays, err := src.intRange("ALERT_WINDOW_DAYS", "1", 0, 7)
	if err != nil {
		return nil, err
	}
	chatMax, err := src.intRange("CHAT_MAX_MESSAGE_LEN", "500", 1, 10_000)
	if err != nil {
		return nil, err
	}
	rps, err := strconv.ParseFloat(src.get("RATE_LIMIT_RPS", "20"), 64)
	if err != nil || rps < 0 {
		return nil, errors.New("invalid RATE_LIMIT_RPS: must be a non-negative number")
	}
	alertsEnabled, err := strconv.ParseBool(src.get("ALERTS_ENABLED", "false"))
	if err != nil {
		return nil, errors.New("invalid ALERTS_ENABLED: must be true or false")
	}

	cfg := &Config{
		HTTPAddr:        src.get("HTTP_ADDR", ":8080"),
		LogLevel:        src.get("LOG_LEVEL", "info"),
		LogFormat:       src.get("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		NASAAPIKey:   src.get("NASA_API_KEY", "DEMO_KEY"),
		NeoWsBaseURL: strings.TrimRight(src.get("NEOWS_BASE_URL", "https://api.nasa.gov/neo/rest/v1"), "/"),
		NeoWsTimeout: neowsTimeout,

		FeedCache:     strings.ToLower(src.get("FEED_CACHE", "memory")),
		FeedCacheTTL:  cacheTTL,
		RedisAddr:     src.get("REDIS_ADDR", "localhost:6379"),
		RedisPassword: src.get("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,

		WatchlistDriver: strings.ToLower(src.get("WATCHLIST_DRIVER", "sqlite")),
		DatabaseURL:     src.get("DATABASE_URL", "data/cosmicwatch.db"),

		AuthJWTSecret:        src.get("AUTH_JWT_SECRET", ""),
		AuthJWTPublicKeyFile: src.get("AUTH_JWT_PUBLIC_KEY_FILE", ""),
		AuthIssuer:           src.get("AUTH_ISSUER", ""),
		AuthAudience:         src.get("AUTH_AUDIENCE", ""),

		CORSAllowedOrigins: sharedcfg.ParseBrokers(src.get("CORS_ALLOWED_ORIGINS", "*")),
		RateLimitRPS:       rps,
		RateLimitBurst:     burst,

		AlertsEnabled:     alertsEnabled,
		KafkaBrokers:      sharedcfg.ParseBrokers(src.get("KAFKA_BROKERS", "localhost:9092")),
		KafkaAlertTopic:   src.get("KAFKA_ALERT_TOPIC", "neo-hazard-alerts"),
		AlertScanInterval: scanInterval,
		AlertWindowDays:   windowDays,

		ChatMaxMessageLen: chatMax,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.FeedCache {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("invalid FEED_CACHE %q: must be memory, redis, or none", c.FeedCache)
	}
	if c.FeedCache == "redis" && c.RedisAddr == "" {
		return errors.New("FEED_CACHE is redis but REDIS_ADDR is not set")
	}

	switch c.WatchlistDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid WATCHLIST_DRIVER %q: must be sqlite or postgres", c.WatchlistDriver)
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	switch {
	case c.AuthJWTSecret == "" && c.AuthJWTPublicKeyFile == "":
		return errors.New("AUTH_JWT_SECRET or AUTH_JWT_PUBLIC_KEY_FILE is required")
	case c.AuthJWTSecret != "" && c.AuthJWTPublicKeyFile != "":
		return errors.New("set only one of AUTH_JWT_SECRET and AUTH_JWT_PUBLIC_KEY_FILE")
	}

	if len(c.CORSAllowedOrigins) == 0 {
		return errors.New("CORS_ALLOWED_ORIGINS is required")
	}

	if c.AlertsEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("ALERTS_ENABLED is true but KAFKA_BROKERS is not set")
		}
		if c.KafkaAlertTopic == "" {
			return errors.New("KAFKA_ALERT_TOPIC is required")
		}
	}
	return nil
}

// source resolves a key from the environment, then the config file, then
// the built-in default.
type source struct {
	file map[string]string
}

func newSource(path string) (source, error) {
	if path == "" {
		return source{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return source{}, fmt.Errorf("read CONFIG_FILE: %w", err)
	}
	var file map[string]string
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return source{}, fmt.Errorf("parse CONFIG_FILE %s: %w", path, err)
	}
	return source{file: file}, nil
}

func (s source) get(key, fallback string) string {
	if v, ok := s.file[key]; ok && v != "" {
		fallback = v
	}
	return sharedcfg.EnvOrDefault(key, fallback)
}

func (s source) duration(key, fallback string) (time.Duration, error) {
	return positiveDuration(key, s.get(key, fallback))
}

func (s source) intRange(key, fallback string, minVal, maxVal int) (int, error) {
	n, err := strconv.Atoi(s.get(key, fallback))
	if err != nil || n < minVal || n > maxVal {
		return 0, fmt.Errorf("invalid %s: must be %d-%d", key, minVal, maxVal)
	}
	return n, nil
}

func positiveDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}
