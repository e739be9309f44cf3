package oris

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/event-map-index/internal/domain"
)

// API is the part of the ORIS API the source uses.
type API interface {
	GetUser(ctx context.Context, regNum string) (*User, error)
	GetUserEventEntries(ctx context.Context, userID int) ([]EventEntry, error)
	GetEvent(ctx context.Context, eventID int) (domain.Event, error)
}

// Source loads the events a user has entered.
type Source struct {
	api         API
	concurrency int
	excluded    map[string]bool
	logger      *slog.Logger
}

// NewSource creates an event source. Events whose discipline short name is
// in excludedDisciplines are dropped (case-insensitive).
func NewSource(api API, concurrency int, excludedDisciplines []string, logger *slog.Logger) *Source {
	if concurrency < 1 {
		concurrency = 1
	}
	excluded := make(map[string]bool, len(excludedDisciplines))
	for _, d := range excludedDisciplines {
		excluded[strings.ToUpper(strings.TrimSpace(d))] = true
	}
	return &Source{api: api, concurrency: concurrency, excluded: excluded, logger: logger}
}

// LoadEvents returns the user's events in entry order, each event once.
// An unknown registration number yields domain.ErrMissingUser and an empty
// result after filtering yields domain.ErrNoEvents.
func (s *Source) LoadEvents(ctx context.Context, regNum string) ([]domain.Event, error) {
	regNum = strings.TrimSpace(regNum)
	if regNum == "" {
		return nil, fmt.Errorf("%w: empty registration number", domain.ErrMissingUser)
	}

	user, err := s.api.GetUser(ctx, regNum)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", regNum, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingUser, regNum)
	}

	entries, err := s.api.GetUserEventEntries(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("get entries of user %d: %w", user.ID, err)
	}

	ids := uniqueEventIDs(entries)
	s.logger.Info("user entries loaded", "reg_num", regNum, "user_id", user.ID, "entries", len(entries), "events", len(ids))

	events := make([]domain.Event, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			e, err := s.api.GetEvent(gctx, id)
			if err != nil {
				return fmt.Errorf("get event %d: %w", id, err)
			}
			events[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	kept := events[:0]
	for _, e := range events {
		if s.excluded[strings.ToUpper(e.Discipline)] {
			s.logger.Debug("event excluded by discipline", "event_id", e.ID, "discipline", e.Discipline)
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("user %s: %w", regNum, domain.ErrNoEvents)
	}
	return kept, nil
}

func uniqueEventIDs(entries []EventEntry) []int {
	seen := make(map[int]bool, len(entries))
	ids := make([]int, 0, len(entries))
	for _, e := range entries {
		if e.EventID == 0 || seen[e.EventID] {
			continue
		}
		seen[e.EventID] = true
		ids = append(ids, e.EventID)
	}
	return ids
}
