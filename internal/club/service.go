// Package club serves the read side of the club: leaderboards, ranks and
// the per-athlete views, composed from the store and the stats core.
package club

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ifitclub/clubstats/internal/stats"
	"github.com/ifitclub/clubstats/internal/store"
)

var (
	// ErrAthleteNotFound is returned when an athlete is not part of the club
	// or not present in a ranked population.
	ErrAthleteNotFound = errors.New("athlete not found")

	// ErrInvalidInput wraps argument errors such as a malformed month.
	ErrInvalidInput = errors.New("invalid input")
)

// Store is the subset of the store the read side depends on.
type Store interface {
	ListAthletes(ctx context.Context) ([]stats.Athlete, error)
	ListProfiles(ctx context.Context) ([]store.AthleteProfile, error)
	GetAthlete(ctx context.Context, id int64) (store.AthleteProfile, error)
	ListActivities(ctx context.Context, athleteID int64, f store.ActivityFilter) ([]stats.Activity, error)
	ListActivitiesPage(ctx context.Context, athleteID int64, limit, offset int) ([]stats.Activity, int64, error)
	ListClubActivities(ctx context.Context, from, to time.Time) ([]stats.Activity, error)
	ActivityMonths(ctx context.Context, athleteID int64) ([]string, error)
	ActivityTypes(ctx context.Context) ([]string, error)
	GetSnapshot(ctx context.Context, athleteID int64) (store.Snapshot, bool, error)
}

// fetchConcurrency bounds concurrent per-athlete activity loads.
const fetchConcurrency = 8

// Service answers club queries.
type Service struct {
	store Store
	loc   *time.Location
	clock func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLocation sets the club's calendar zone. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// NewService creates a club service over st.
func NewService(st Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		loc:   time.UTC,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the current time in the club's zone.
func (s *Service) Now() time.Time {
	return s.clock().In(s.loc)
}

// Location returns the club's calendar zone.
func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) athlete(ctx context.Context, id int64) (store.AthleteProfile, error) {
	p, err := s.store.GetAthlete(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.AthleteProfile{}, fmt.Errorf("athlete %d: %w", id, ErrAthleteNotFound)
		}
		return store.AthleteProfile{}, err
	}
	return p, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
