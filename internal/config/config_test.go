package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserAgent = "map-index-test/0.1 (test@example.com)"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, "https://oris.orientacnisporty.cz/API/", cfg.OrisBaseURL)
	assert.Equal(t, 10*time.Second, cfg.OrisTimeout)
	assert.Equal(t, 8, cfg.OrisConcurrency)
	assert.Equal(t, "https://oris.orientacnisporty.cz/Zavod?id=%d", cfg.OrisEventURL)
	assert.Empty(t, cfg.ExcludedDisciplines)

	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.NominatimBaseURL)
	assert.Equal(t, "event-map-index/1.0", cfg.NominatimUserAgent)
	assert.Equal(t, 10*time.Second, cfg.NominatimTimeout)
	assert.Equal(t, time.Second, cfg.GeocodeInterval)
	assert.Equal(t, 1000, cfg.GeocodeCacheSize)

	assert.Equal(t, "Hlavní město Praha", cfg.CapitalCity)
	assert.Equal(t, []string{"okres", "obvod"}, cfg.DistrictPrefixes)
	assert.Equal(t, "cs", cfg.CollationLocale)
	assert.Equal(t, "unknown region", cfg.UnknownRegion)
	assert.Equal(t, "unknown place", cfg.UnknownPlace)
	assert.Equal(t, "unknown map", cfg.UnknownMap)

	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "event-index", cfg.KafkaTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("ORIS_BASE_URL", "http://localhost:8081/API/")
	t.Setenv("ORIS_TIMEOUT", "3s")
	t.Setenv("ORIS_CONCURRENCY", "2")
	t.Setenv("EXCLUDED_DISCIPLINES", " S, TR ,,")
	t.Setenv("NOMINATIM_BASE_URL", "http://localhost:8082/")
	t.Setenv("NOMINATIM_USER_AGENT", testUserAgent)
	t.Setenv("NOMINATIM_TIMEOUT", "2s")
	t.Setenv("GEOCODE_INTERVAL", "1500ms")
	t.Setenv("GEOCODE_CACHE_SIZE", "0")
	t.Setenv("CAPITAL_CITY", "Praha")
	t.Setenv("DISTRICT_PREFIXES", "okres")
	t.Setenv("COLLATION_LOCALE", "sk")
	t.Setenv("UNKNOWN_REGION", "Neznámý okres")
	t.Setenv("UNKNOWN_PLACE", "Neznámé místo")
	t.Setenv("UNKNOWN_MAP", "Neznámá mapa")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "oris-index")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "http://localhost:8081/API/", cfg.OrisBaseURL)
	assert.Equal(t, 3*time.Second, cfg.OrisTimeout)
	assert.Equal(t, 2, cfg.OrisConcurrency)
	assert.Equal(t, []string{"S", "TR"}, cfg.ExcludedDisciplines)
	assert.Equal(t, "http://localhost:8082", cfg.NominatimBaseURL)
	assert.Equal(t, testUserAgent, cfg.NominatimUserAgent)
	assert.Equal(t, 2*time.Second, cfg.NominatimTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.GeocodeInterval)
	assert.Equal(t, 0, cfg.GeocodeCacheSize)
	assert.Equal(t, "Praha", cfg.CapitalCity)
	assert.Equal(t, []string{"okres"}, cfg.DistrictPrefixes)
	assert.Equal(t, "sk", cfg.CollationLocale)
	assert.Equal(t, "Neznámý okres", cfg.UnknownRegion)
	assert.Equal(t, "Neznámé místo", cfg.UnknownPlace)
	assert.Equal(t, "Neznámá mapa", cfg.UnknownMap)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "oris-index", cfg.KafkaTopic)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidDurations(t *testing.T) {
	for _, key := range []string{"ORIS_TIMEOUT", "NOMINATIM_TIMEOUT", "GEOCODE_INTERVAL"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, "bad")
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
		t.Run(key+" negative", func(t *testing.T) {
			t.Setenv(key, "-1s")
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_InvalidOrisConcurrency(t *testing.T) {
	t.Setenv("ORIS_CONCURRENCY", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ORIS_CONCURRENCY")

	t.Setenv("ORIS_CONCURRENCY", "many")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ORIS_CONCURRENCY")
}

func TestLoad_NegativeCacheSize(t *testing.T) {
	t.Setenv("GEOCODE_CACHE_SIZE", "-1")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEOCODE_CACHE_SIZE")
}

func TestLoad_EventURLNeedsPlaceholder(t *testing.T) {
	t.Setenv("ORIS_EVENT_URL", "https://oris.orientacnisporty.cz/Zavod")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ORIS_EVENT_URL")
}
