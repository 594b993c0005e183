// Package store maps database rows to the normalized shapes the stats
// calculators consume, and owns every multi-statement write.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ifitclub/clubstats/internal/db"
	"github.com/ifitclub/clubstats/internal/stats"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps the generated queries with the club's domain types.
type Store struct {
	db      *sql.DB
	queries *db.Queries
}

// New creates a Store over an open database.
func New(sqlDB *sql.DB) *Store {
	return &Store{
		db:      sqlDB,
		queries: db.New(sqlDB),
	}
}

// AthleteProfile is an athlete plus the bookkeeping fields the API shows.
type AthleteProfile struct {
	stats.Athlete
	Sex        string
	Premium    bool
	LastSyncAt *time.Time
}

// ActivityFilter narrows ListActivities. Since bounds the UTC start;
// LocalFrom and LocalTo bound the wall-clock start and win over Since.
type ActivityFilter struct {
	Since     time.Time
	LocalFrom time.Time
	LocalTo   time.Time
	Type      string
}

// ListAthletes returns every athlete in the club ordered by id.
func (s *Store) ListAthletes(ctx context.Context) ([]stats.Athlete, error) {
	rows, err := s.queries.ListAthletes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing athletes: %w", err)
	}
	athletes := make([]stats.Athlete, 0, len(rows))
	for _, row := range rows {
		athletes = append(athletes, ToAthlete(row))
	}
	return athletes, nil
}

// ListProfiles is ListAthletes with bookkeeping fields.
func (s *Store) ListProfiles(ctx context.Context) ([]AthleteProfile, error) {
	rows, err := s.queries.ListAthletes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing athletes: %w", err)
	}
	profiles := make([]AthleteProfile, 0, len(rows))
	for _, row := range rows {
		profiles = append(profiles, toProfile(row))
	}
	return profiles, nil
}

// GetAthlete loads one athlete, returning ErrNotFound when absent.
func (s *Store) GetAthlete(ctx context.Context, id int64) (AthleteProfile, error) {
	row, err := s.queries.GetAthlete(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AthleteProfile{}, fmt.Errorf("athlete %d: %w", id, ErrNotFound)
		}
		return AthleteProfile{}, fmt.Errorf("getting athlete %d: %w", id, err)
	}
	return toProfile(row), nil
}

// ConnectedAthleteIDs lists athletes that hold an OAuth token.
func (s *Store) ConnectedAthleteIDs(ctx context.Context) ([]int64, error) {
	ids, err := s.queries.ListConnectedAthleteIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing connected athletes: %w", err)
	}
	return ids, nil
}

// UpsertAthlete writes the athlete profile, keyed by id.
func (s *Store) UpsertAthlete(ctx context.Context, p AthleteProfile) error {
	var premium int64
	if p.Premium {
		premium = 1
	}
	err := s.queries.UpsertAthlete(ctx, db.UpsertAthleteParams{
		ID:           p.ID,
		Username:     nullString(p.Username),
		FirstName:    nullString(p.FirstName),
		LastName:     nullString(p.LastName),
		ProfileImage: nullString(p.ProfileImage),
		City:         nullString(p.City),
		State:        nullString(p.State),
		Country:      nullString(p.Country),
		Sex:          nullString(p.Sex),
		Weight:       nullFloat(p.WeightKg),
		Premium:      premium,
	})
	if err != nil {
		return fmt.Errorf("upserting athlete %d: %w", p.ID, err)
	}
	return nil
}

// MarkSynced records the completion time of an athlete's latest sync.
func (s *Store) MarkSynced(ctx context.Context, athleteID int64, at time.Time) error {
	err := s.queries.UpdateAthleteLastSync(ctx, db.UpdateAthleteLastSyncParams{
		LastSyncAt: sql.NullTime{Time: at.UTC(), Valid: true},
		ID:         athleteID,
	})
	if err != nil {
		return fmt.Errorf("updating last sync for athlete %d: %w", athleteID, err)
	}
	return nil
}

// ListActivities returns an athlete's activities newest first.
func (s *Store) ListActivities(ctx context.Context, athleteID int64, f ActivityFilter) ([]stats.Activity, error) {
	var (
		rows []db.Activity
		err  error
	)
	switch {
	case !f.LocalFrom.IsZero() || !f.LocalTo.IsZero():
		to := f.LocalTo
		if to.IsZero() {
			to = farFuture
		}
		rows, err = s.queries.ListActivitiesLocalRange(ctx, db.ListActivitiesLocalRangeParams{
			AthleteID: athleteID,
			LocalFrom: wallUTC(f.LocalFrom),
			LocalTo:   wallUTC(to),
		})
	case !f.Since.IsZero():
		rows, err = s.queries.ListActivitiesSince(ctx, db.ListActivitiesSinceParams{
			AthleteID: athleteID,
			StartDate: f.Since.UTC(),
		})
	default:
		rows, err = s.queries.ListActivitiesByAthlete(ctx, athleteID)
	}
	if err != nil {
		return nil, fmt.Errorf("listing activities for athlete %d: %w", athleteID, err)
	}
	return toActivities(rows, stats.NormalizeType(f.Type)), nil
}

// ListActivitiesPage returns one page of an athlete's activities plus the total count.
func (s *Store) ListActivitiesPage(ctx context.Context, athleteID int64, limit, offset int) ([]stats.Activity, int64, error) {
	total, err := s.queries.CountActivitiesByAthlete(ctx, athleteID)
	if err != nil {
		return nil, 0, fmt.Errorf("counting activities for athlete %d: %w", athleteID, err)
	}
	rows, err := s.queries.ListActivitiesPage(ctx, db.ListActivitiesPageParams{
		AthleteID: athleteID,
		Limit:     int64(limit),
		Offset:    int64(offset),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing activity page for athlete %d: %w", athleteID, err)
	}
	return toActivities(rows, ""), total, nil
}

// ListClubActivities returns every athlete's activities whose wall-clock
// start falls in [from, to).
func (s *Store) ListClubActivities(ctx context.Context, from, to time.Time) ([]stats.Activity, error) {
	rows, err := s.queries.ListClubActivitiesLocalRange(ctx, db.ListClubActivitiesLocalRangeParams{
		LocalFrom: wallUTC(from),
		LocalTo:   wallUTC(to),
	})
	if err != nil {
		return nil, fmt.Errorf("listing club activities: %w", err)
	}
	return toActivities(rows, ""), nil
}

// ListAllActivities returns every stored activity ordered by athlete then start.
func (s *Store) ListAllActivities(ctx context.Context) ([]stats.Activity, error) {
	rows, err := s.queries.ListAllActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing all activities: %w", err)
	}
	return toActivities(rows, ""), nil
}

// ActivityMonths lists the distinct YYYY-MM months an athlete has activities in, newest first.
func (s *Store) ActivityMonths(ctx context.Context, athleteID int64) ([]string, error) {
	months, err := s.queries.ListActivityMonths(ctx, athleteID)
	if err != nil {
		return nil, fmt.Errorf("listing activity months: %w", err)
	}
	if months == nil {
		months = []string{}
	}
	return months, nil
}

// ActivityTypes lists the distinct stored activity types, sorted.
func (s *Store) ActivityTypes(ctx context.Context) ([]string, error) {
	types, err := s.queries.ListActivityTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing activity types: %w", err)
	}
	return types, nil
}

// LatestActivityStart returns the newest stored start for an athlete.
// The bool is false when the athlete has no activities.
func (s *Store) LatestActivityStart(ctx context.Context, athleteID int64) (time.Time, bool, error) {
	start, err := s.queries.GetLatestActivityStart(ctx, athleteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("getting latest activity for athlete %d: %w", athleteID, err)
	}
	return start.UTC(), true, nil
}

// UpsertActivity writes an activity keyed by its external id and reports
// whether it was newly created.
func (s *Store) UpsertActivity(ctx context.Context, a stats.Activity) (bool, error) {
	existing, err := s.queries.ActivityExists(ctx, a.ID)
	if err != nil {
		return false, fmt.Errorf("checking activity %d: %w", a.ID, err)
	}
	if err := s.queries.UpsertActivity(ctx, activityParams(a)); err != nil {
		return false, fmt.Errorf("upserting activity %d: %w", a.ID, err)
	}
	return existing == 0, nil
}

// DeleteAthleteCascade removes an athlete and everything stored for them
// in a single transaction.
func (s *Store) DeleteAthleteCascade(ctx context.Context, athleteID int64) error {
	return s.inTx(ctx, func(q *db.Queries) error {
		steps := []struct {
			what string
			fn   func(context.Context, int64) error
		}{
			{"activities", q.DeleteActivitiesByAthlete},
			{"stat totals", q.DeleteActivityStatTotals},
			{"stats snapshot", q.DeleteActivityStats},
			{"sync logs", q.DeleteSyncLogsByAthlete},
			{"tokens", q.DeleteToken},
			{"athlete", q.DeleteAthlete},
		}
		for _, step := range steps {
			if err := step.fn(ctx, athleteID); err != nil {
				return fmt.Errorf("deleting %s for athlete %d: %w", step.what, athleteID, err)
			}
		}
		return nil
	})
}

func (s *Store) inTx(ctx context.Context, fn func(q *db.Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(s.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

var farFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
