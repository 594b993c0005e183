package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ifitclub/clubstats/internal/db"
)

// Sync log statuses and types.
const (
	SyncStatusStarted   = "started"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"

	SyncTypeFull        = "full"
	SyncTypeIncremental = "incremental"
)

// SyncLog records one sync run. Status moves from started to either
// completed or failed and never back.
type SyncLog struct {
	ID                string     `json:"id"`
	AthleteID         int64      `json:"athlete_id"`
	SyncType          string     `json:"sync_type"`
	Status            string     `json:"status"`
	ActivitiesSynced  int        `json:"activities_synced"`
	NewActivities     int        `json:"new_activities"`
	UpdatedActivities int        `json:"updated_activities"`
	ErrorMessage      string     `json:"error_message,omitempty"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

// SyncResult is the terminal state written to a sync log.
type SyncResult struct {
	Status            string
	ActivitiesSynced  int
	NewActivities     int
	UpdatedActivities int
	Err               error
	CompletedAt       time.Time
}

// CreateSyncLog inserts a started log.
func (s *Store) CreateSyncLog(ctx context.Context, id string, athleteID int64, syncType string, startedAt time.Time) (SyncLog, error) {
	err := s.queries.CreateSyncLog(ctx, db.CreateSyncLogParams{
		ID:        id,
		AthleteID: athleteID,
		SyncType:  syncType,
		Status:    SyncStatusStarted,
		StartedAt: startedAt.UTC(),
	})
	if err != nil {
		return SyncLog{}, fmt.Errorf("creating sync log: %w", err)
	}
	return SyncLog{
		ID:        id,
		AthleteID: athleteID,
		SyncType:  syncType,
		Status:    SyncStatusStarted,
		StartedAt: startedAt.UTC(),
	}, nil
}

// FinishSyncLog writes the terminal status of a sync.
func (s *Store) FinishSyncLog(ctx context.Context, id string, r SyncResult) error {
	var msg sql.NullString
	if r.Err != nil {
		msg = sql.NullString{String: r.Err.Error(), Valid: true}
	}
	err := s.queries.CompleteSyncLog(ctx, db.CompleteSyncLogParams{
		Status:            r.Status,
		ActivitiesSynced:  int64(r.ActivitiesSynced),
		NewActivities:     int64(r.NewActivities),
		UpdatedActivities: int64(r.UpdatedActivities),
		ErrorMessage:      msg,
		CompletedAt:       sql.NullTime{Time: r.CompletedAt.UTC(), Valid: true},
		ID:                id,
	})
	if err != nil {
		return fmt.Errorf("finishing sync log %s: %w", id, err)
	}
	return nil
}

// GetSyncLog loads one sync log by id.
func (s *Store) GetSyncLog(ctx context.Context, id string) (SyncLog, error) {
	row, err := s.queries.GetSyncLog(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SyncLog{}, fmt.Errorf("sync log %s: %w", id, ErrNotFound)
		}
		return SyncLog{}, fmt.Errorf("getting sync log %s: %w", id, err)
	}
	return toSyncLog(row), nil
}

// LatestSyncLog returns the most recently started log for an athlete.
func (s *Store) LatestSyncLog(ctx context.Context, athleteID int64) (SyncLog, bool, error) {
	row, err := s.queries.GetLatestSyncLog(ctx, athleteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SyncLog{}, false, nil
		}
		return SyncLog{}, false, fmt.Errorf("getting latest sync log: %w", err)
	}
	return toSyncLog(row), true, nil
}

// ListSyncLogs returns up to limit logs for an athlete, newest first.
func (s *Store) ListSyncLogs(ctx context.Context, athleteID int64, limit int) ([]SyncLog, error) {
	rows, err := s.queries.ListSyncLogs(ctx, db.ListSyncLogsParams{AthleteID: athleteID, Limit: int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("listing sync logs: %w", err)
	}
	logs := make([]SyncLog, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, toSyncLog(row))
	}
	return logs, nil
}

func toSyncLog(row db.SyncLog) SyncLog {
	l := SyncLog{
		ID:                row.ID,
		AthleteID:         row.AthleteID,
		SyncType:          row.SyncType,
		Status:            row.Status,
		ActivitiesSynced:  int(row.ActivitiesSynced),
		NewActivities:     int(row.NewActivities),
		UpdatedActivities: int(row.UpdatedActivities),
		ErrorMessage:      row.ErrorMessage.String,
		StartedAt:         row.StartedAt.UTC(),
	}
	if row.CompletedAt.Valid {
		t := row.CompletedAt.Time.UTC()
		l.CompletedAt = &t
	}
	return l
}
