package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ifitclub/clubstats/internal/db"
)

// StatTotals is one scope/sport row of an upstream stats snapshot.
type StatTotals struct {
	Scope            string  `json:"scope"`
	Sport            string  `json:"sport"`
	Count            int64   `json:"count"`
	Distance         float64 `json:"distance"`
	MovingTime       int64   `json:"moving_time"`
	ElapsedTime      int64   `json:"elapsed_time"`
	ElevationGain    float64 `json:"elevation_gain"`
	AchievementCount int64   `json:"achievement_count,omitempty"`
}

// Snapshot is the athlete stats summary reported by the upstream provider.
type Snapshot struct {
	AthleteID                 int64        `json:"athlete_id"`
	BiggestRideDistance       *float64     `json:"biggest_ride_distance,omitempty"`
	BiggestClimbElevationGain *float64     `json:"biggest_climb_elevation_gain,omitempty"`
	Totals                    []StatTotals `json:"totals"`
	UpdatedAt                 time.Time    `json:"updated_at"`
}

// ReplaceSnapshot overwrites an athlete's stats snapshot wholesale.
func (s *Store) ReplaceSnapshot(ctx context.Context, snap Snapshot) error {
	return s.inTx(ctx, func(q *db.Queries) error {
		if err := q.DeleteActivityStatTotals(ctx, snap.AthleteID); err != nil {
			return fmt.Errorf("clearing stat totals: %w", err)
		}
		err := q.UpsertActivityStats(ctx, db.UpsertActivityStatsParams{
			AthleteID:                 snap.AthleteID,
			BiggestRideDistance:       nullFloat(snap.BiggestRideDistance),
			BiggestClimbElevationGain: nullFloat(snap.BiggestClimbElevationGain),
		})
		if err != nil {
			return fmt.Errorf("writing stats snapshot: %w", err)
		}
		for _, t := range snap.Totals {
			err := q.InsertActivityStatTotal(ctx, db.InsertActivityStatTotalParams{
				AthleteID:        snap.AthleteID,
				Scope:            t.Scope,
				Sport:            t.Sport,
				Count:            t.Count,
				Distance:         t.Distance,
				MovingTime:       t.MovingTime,
				ElapsedTime:      t.ElapsedTime,
				ElevationGain:    t.ElevationGain,
				AchievementCount: t.AchievementCount,
			})
			if err != nil {
				return fmt.Errorf("writing %s/%s totals: %w", t.Scope, t.Sport, err)
			}
		}
		return nil
	})
}

// GetSnapshot loads an athlete's stats snapshot. The bool is false when
// no snapshot has been stored yet.
func (s *Store) GetSnapshot(ctx context.Context, athleteID int64) (Snapshot, bool, error) {
	row, err := s.queries.GetActivityStats(ctx, athleteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("getting stats snapshot: %w", err)
	}

	totals, err := s.queries.ListActivityStatTotals(ctx, athleteID)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("listing stat totals: %w", err)
	}

	snap := Snapshot{
		AthleteID:                 row.AthleteID,
		BiggestRideDistance:       floatPtr(row.BiggestRideDistance),
		BiggestClimbElevationGain: floatPtr(row.BiggestClimbElevationGain),
		Totals:                    make([]StatTotals, 0, len(totals)),
		UpdatedAt:                 row.UpdatedAt.UTC(),
	}
	for _, t := range totals {
		snap.Totals = append(snap.Totals, StatTotals{
			Scope:            t.Scope,
			Sport:            t.Sport,
			Count:            t.Count,
			Distance:         t.Distance,
			MovingTime:       t.MovingTime,
			ElapsedTime:      t.ElapsedTime,
			ElevationGain:    t.ElevationGain,
			AchievementCount: t.AchievementCount,
		})
	}
	return snap, true, nil
}
