// Command mapindex builds printable indexes of the orienteering events a
// competitor entered in ORIS: an event grid with QR codes, a region index
// and a map index, optionally also JSON and a Kafka topic.
//
// Usage:
//
//	mapindex [flags] <registration-number>
//
// Geocoding uses the public Nominatim server at one request per second, so a
// run over a few hundred events takes minutes. Progress is logged and, when
// HTTP_ADDR is set, served on /status.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/event-map-index/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/event-map-index/internal/adapter/kafka"
	"github.com/couchcryptid/event-map-index/internal/adapter/nominatim"
	"github.com/couchcryptid/event-map-index/internal/adapter/oris"
	"github.com/couchcryptid/event-map-index/internal/collation"
	"github.com/couchcryptid/event-map-index/internal/config"
	"github.com/couchcryptid/event-map-index/internal/domain"
	"github.com/couchcryptid/event-map-index/internal/observability"
	"github.com/couchcryptid/event-map-index/internal/pipeline"
	"github.com/couchcryptid/event-map-index/internal/ratelimit"
	"github.com/couchcryptid/event-map-index/internal/render"
)

type options struct {
	regNum      string
	gridPath    string
	regionPath  string
	mapPath     string
	jsonPath    string
	noGeocoding bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("mapindex", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.gridPath, "grid", "event_grid.html", "event grid output path (empty to skip)")
	fs.StringVar(&o.regionPath, "region-index", "region_index.html", "region index output path (empty to skip)")
	fs.StringVar(&o.mapPath, "map-index", "map_index.html", "map index output path (empty to skip)")
	fs.StringVar(&o.jsonPath, "json", "", "JSON export output path")
	fs.BoolVar(&o.noGeocoding, "no-geocoding", false, "skip Nominatim; index by the events' own data only")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: mapindex [flags] <registration-number>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return o, errors.New("exactly one registration number is required")
	}
	o.regNum = fs.Arg(0)
	if o.gridPath == "" && o.regionPath == "" && o.mapPath == "" && o.jsonPath == "" {
		return o, errors.New("all outputs are disabled")
	}
	return o, nil
}

func main() {
	_ = godotenv.Load(".env")

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("invalid arguments", "error", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, logger, metrics); err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			logger.Warn("run cancelled")
		case errors.Is(err, domain.ErrMissingUser):
			logger.Error("user not found", "reg_num", opts.regNum, "error", err)
		default:
			logger.Error("run failed", "error", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, logger *slog.Logger, metrics *observability.Metrics) error {
	collator, err := collation.New(cfg.CollationLocale)
	if err != nil {
		return err
	}

	source := oris.NewSource(
		oris.NewClient(cfg.OrisBaseURL, cfg.OrisTimeout, logger),
		cfg.OrisConcurrency, cfg.ExcludedDisciplines, logger,
	)

	// Left as a nil interface when disabled so the resolver skips geocoding.
	var geocoder domain.Geocoder
	if opts.noGeocoding {
		metrics.GeocodeEnabled.Set(0)
		logger.Info("geocoding disabled")
	} else {
		limiter := ratelimit.New(cfg.GeocodeInterval, nil)
		client := nominatim.NewClient(cfg.NominatimBaseURL, cfg.NominatimUserAgent, cfg.NominatimTimeout, limiter, metrics, logger)
		geocoder = client
		if cfg.GeocodeCacheSize > 0 {
			geocoder = nominatim.NewCachedGeocoder(client, cfg.GeocodeCacheSize, metrics)
		}
		metrics.GeocodeEnabled.Set(1)
		logger.Info("nominatim geocoding enabled",
			"base_url", cfg.NominatimBaseURL,
			"interval", cfg.GeocodeInterval,
			"cache_size", cfg.GeocodeCacheSize,
		)
	}

	// Commits run in sink order: Kafka can fail at publish time, so it goes
	// before the file renames.
	var sinks []pipeline.Sink
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, metrics, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		sinks = append(sinks, writer)
		logger.Info("kafka publication enabled", "topic", cfg.KafkaTopic)
	}
	sinks = append(sinks, render.NewOutput(logger,
		render.WithGrid(opts.gridPath, cfg.OrisEventURL),
		render.WithRegionIndex(opts.regionPath),
		render.WithMapIndex(opts.mapPath),
		render.WithJSON(opts.jsonPath),
	))

	p := pipeline.New(source, geocoder,
		domain.NewClassifier(cfg.CapitalCity, cfg.DistrictPrefixes),
		domain.NewIndexBuilder(collator, domain.Labels{
			UnknownRegion: cfg.UnknownRegion,
			UnknownPlace:  cfg.UnknownPlace,
			UnknownMap:    cfg.UnknownMap,
		}),
		logger, metrics, sinks...)

	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	_, err = p.Run(ctx, opts.regNum)
	return err
}
