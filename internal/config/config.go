package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all settings for an indexing run, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// ORIS event source.
	OrisBaseURL         string
	OrisTimeout         time.Duration
	OrisConcurrency     int
	OrisEventURL        string // fmt pattern with one %d for the event ID
	ExcludedDisciplines []string

	// Nominatim geocoding.
	NominatimBaseURL   string
	NominatimUserAgent string
	NominatimTimeout   time.Duration
	GeocodeInterval    time.Duration
	GeocodeCacheSize   int

	// Classification and indexing.
	CapitalCity      string
	DistrictPrefixes []string
	CollationLocale  string
	UnknownRegion    string
	UnknownPlace     string
	UnknownMap       string

	// Optional Kafka publication of index entries. Disabled when no brokers are set.
	KafkaBrokers []string
	KafkaTopic   string
}

// KafkaEnabled reports whether index entries should be published.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	orisTimeout, err := parsePositiveDuration("ORIS_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	nominatimTimeout, err := parsePositiveDuration("NOMINATIM_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	geocodeInterval, err := parsePositiveDuration("GEOCODE_INTERVAL", "1s")
	if err != nil {
		return nil, err
	}

	orisConcurrency, err := parseInt("ORIS_CONCURRENCY", 8)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseInt("GEOCODE_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),
		ShutdownTimeout: shutdownTimeout,

		OrisBaseURL:         sharedcfg.EnvOrDefault("ORIS_BASE_URL", "https://oris.orientacnisporty.cz/API/"),
		OrisTimeout:         orisTimeout,
		OrisConcurrency:     orisConcurrency,
		OrisEventURL:        sharedcfg.EnvOrDefault("ORIS_EVENT_URL", "https://oris.orientacnisporty.cz/Zavod?id=%d"),
		ExcludedDisciplines: splitList(os.Getenv("EXCLUDED_DISCIPLINES")),

		NominatimBaseURL:   strings.TrimRight(sharedcfg.EnvOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"), "/"),
		NominatimUserAgent: sharedcfg.EnvOrDefault("NOMINATIM_USER_AGENT", "event-map-index/1.0"),
		NominatimTimeout:   nominatimTimeout,
		GeocodeInterval:    geocodeInterval,
		GeocodeCacheSize:   cacheSize,

		CapitalCity:      sharedcfg.EnvOrDefault("CAPITAL_CITY", "Hlavní město Praha"),
		DistrictPrefixes: splitList(sharedcfg.EnvOrDefault("DISTRICT_PREFIXES", "okres,obvod")),
		CollationLocale:  sharedcfg.EnvOrDefault("COLLATION_LOCALE", "cs"),
		UnknownRegion:    sharedcfg.EnvOrDefault("UNKNOWN_REGION", "unknown region"),
		UnknownPlace:     sharedcfg.EnvOrDefault("UNKNOWN_PLACE", "unknown place"),
		UnknownMap:       sharedcfg.EnvOrDefault("UNKNOWN_MAP", "unknown map"),

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "event-index"),
	}

	if cfg.OrisConcurrency < 1 {
		return nil, errors.New("ORIS_CONCURRENCY must be at least 1")
	}
	if cfg.GeocodeCacheSize < 0 {
		return nil, errors.New("GEOCODE_CACHE_SIZE must not be negative")
	}
	if cfg.NominatimUserAgent == "" {
		return nil, errors.New("NOMINATIM_USER_AGENT is required")
	}
	if strings.Count(cfg.OrisEventURL, "%d") != 1 {
		return nil, errors.New("ORIS_EVENT_URL must contain exactly one %d")
	}
	if cfg.KafkaEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_TOPIC is empty")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
