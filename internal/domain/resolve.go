package domain

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// Resolver picks a geocoding lookup for each event and runs it.
type Resolver struct {
	geocoder  Geocoder
	hierarchy *Hierarchy
	logger    *slog.Logger
}

// NewResolver creates a Resolver. Pass a nil geocoder to disable lookups;
// every event then resolves to no address.
func NewResolver(geocoder Geocoder, hierarchy *Hierarchy, logger *slog.Logger) *Resolver {
	return &Resolver{
		geocoder:  geocoder,
		hierarchy: hierarchy,
		logger:    logger,
	}
}

// Resolve returns the event's address, or nil when none could be found.
// Coordinates anywhere in the ancestry win over place names; the event's own
// place wins over an ancestor's. At most one geocoder call is made.
//
// Geocoding failures degrade to a nil address. The only error returned is
// the context's, so callers can abort the run without emitting output.
func (r *Resolver) Resolve(ctx context.Context, event Event) (*Address, error) {
	if r.geocoder == nil {
		return nil, nil
	}

	chain, cyclic := r.hierarchy.Ancestry(event)
	if cyclic {
		r.logger.Warn("circular parent chain, ignoring ancestors past the cycle",
			"event_id", event.ID,
			"chain_length", len(chain),
		)
	}

	for _, e := range chain {
		if lat, lon, ok := e.Coordinates(); ok {
			addr, err := r.geocoder.Reverse(ctx, lat, lon)
			return r.degrade(ctx, addr, err,
				"event_id", event.ID,
				"source_event_id", e.ID,
				"lat", lat,
				"lon", lon,
			)
		}
	}

	for _, e := range chain {
		if !e.HasPlace() {
			continue
		}
		place := strings.TrimSpace(e.Place)
		addr, err := r.geocoder.Search(ctx, place)
		return r.degrade(ctx, addr, err,
			"event_id", event.ID,
			"source_event_id", e.ID,
			"place", place,
		)
	}

	r.logger.Debug("no location data in event ancestry", "event_id", event.ID)
	return nil, nil
}

// degrade turns a geocoding error into "no address" unless the run itself
// was cancelled.
func (r *Resolver) degrade(ctx context.Context, addr *Address, err error, attrs ...any) (*Address, error) {
	if err == nil {
		return addr, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	var geoErr *GeocodeError
	if !errors.As(err, &geoErr) {
		r.logger.Warn("unexpected geocoder error", append(attrs, "error", err)...)
		return nil, nil
	}
	r.logger.Warn("geocoding failed", append(attrs, "error", err)...)
	return nil, nil
}
