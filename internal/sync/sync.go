// Package sync pulls an athlete's profile, stats snapshot and activities from
// the upstream API into the store, recording each run as a SyncLog.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ifitclub/clubstats/internal/store"
	"github.com/ifitclub/clubstats/internal/strava"
)

// Upstream is the subset of the API client a sync needs.
type Upstream interface {
	FetchAthlete(ctx context.Context, accessToken string) (strava.Athlete, error)
	FetchAthleteStats(ctx context.Context, accessToken string, athleteID int64) (strava.AthleteStats, error)
	FetchAllActivities(ctx context.Context, accessToken string, progress strava.ProgressCallback) ([]strava.Activity, error)
	FetchActivitiesSince(ctx context.Context, accessToken string, since time.Time, progress strava.ProgressCallback) ([]strava.Activity, error)
	Deauthorize(ctx context.Context, accessToken string) error
}

// TokenSource hands out a valid access token for an athlete.
type TokenSource interface {
	GetValidAccessToken(ctx context.Context, athleteID int64) (string, error)
}

// Service runs syncs and disconnects.
type Service struct {
	store  *store.Store
	client Upstream
	tokens TokenSource
	log    zerolog.Logger
	now    func() time.Time
}

// NewService creates a new sync service
func NewService(st *store.Store, client Upstream, tokens TokenSource, log zerolog.Logger) *Service {
	return &Service{
		store:  st,
		client: client,
		tokens: tokens,
		log:    log.With().Str("component", "sync").Logger(),
		now:    time.Now,
	}
}

// Start records a started SyncLog for athleteID. The sync is full when asked
// for or when nothing is stored yet, otherwise incremental.
func (s *Service) Start(ctx context.Context, athleteID int64, full bool) (store.SyncLog, error) {
	syncType := store.SyncTypeFull
	if !full {
		_, ok, err := s.store.LatestActivityStart(ctx, athleteID)
		if err != nil {
			return store.SyncLog{}, err
		}
		if ok {
			syncType = store.SyncTypeIncremental
		}
	}
	return s.store.CreateSyncLog(ctx, uuid.NewString(), athleteID, syncType, s.now())
}

// Fail closes a started log without running it.
func (s *Service) Fail(ctx context.Context, logID string, cause error) error {
	return s.store.FinishSyncLog(ctx, logID, store.SyncResult{
		Status:      store.SyncStatusFailed,
		Err:         cause,
		CompletedAt: s.now(),
	})
}

// Execute runs a started sync to completion. Failures are recorded on the
// log, never returned; the final result is.
func (s *Service) Execute(ctx context.Context, entry store.SyncLog) store.SyncResult {
	log := s.log.With().
		Str("sync_id", entry.ID).
		Int64("athlete_id", entry.AthleteID).
		Str("sync_type", entry.SyncType).
		Logger()
	log.Info().Msg("sync started")

	res, err := s.execute(ctx, entry, log)
	res.CompletedAt = s.now()
	if err != nil {
		res.Status = store.SyncStatusFailed
		res.Err = err
		log.Error().Err(err).Int("activities_synced", res.ActivitiesSynced).Msg("sync failed")
	} else {
		res.Status = store.SyncStatusCompleted
		log.Info().
			Int("activities_synced", res.ActivitiesSynced).
			Int("new", res.NewActivities).
			Int("updated", res.UpdatedActivities).
			Msg("sync completed")
	}

	// the log must be closed even when ctx was cancelled mid-sync
	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if ferr := s.store.FinishSyncLog(finishCtx, entry.ID, res); ferr != nil {
		log.Error().Err(ferr).Msg("recording sync result")
	}
	if err == nil {
		if merr := s.store.MarkSynced(finishCtx, entry.AthleteID, res.CompletedAt); merr != nil {
			log.Error().Err(merr).Msg("recording last sync time")
		}
	}
	return res
}

// Run starts and executes a sync inline.
func (s *Service) Run(ctx context.Context, athleteID int64, full bool) (store.SyncLog, error) {
	entry, err := s.Start(ctx, athleteID, full)
	if err != nil {
		return store.SyncLog{}, err
	}
	res := s.Execute(ctx, entry)
	final, err := s.store.GetSyncLog(context.WithoutCancel(ctx), entry.ID)
	if err != nil {
		return entry, err
	}
	return final, res.Err
}

func (s *Service) execute(ctx context.Context, entry store.SyncLog, log zerolog.Logger) (store.SyncResult, error) {
	var res store.SyncResult

	token, err := s.tokens.GetValidAccessToken(ctx, entry.AthleteID)
	if err != nil {
		return res, fmt.Errorf("getting access token: %w", err)
	}

	athlete, err := s.client.FetchAthlete(ctx, token)
	if err != nil {
		return res, err
	}
	if athlete.ID != entry.AthleteID {
		return res, fmt.Errorf("token belongs to athlete %d", athlete.ID)
	}
	if err := s.store.UpsertAthlete(ctx, ToProfile(athlete)); err != nil {
		return res, err
	}

	upstreamStats, err := s.client.FetchAthleteStats(ctx, token, entry.AthleteID)
	if err != nil {
		return res, err
	}
	if err := s.store.ReplaceSnapshot(ctx, ToSnapshot(entry.AthleteID, upstreamStats, s.now())); err != nil {
		return res, err
	}

	progress := func(r strava.FetchResult) {
		log.Debug().Int("page", r.Page).Int("fetched", r.TotalFetched).
			Str("15min_usage", fmt.Sprintf("%d/%d", r.RateLimit.Usage15Min, r.RateLimit.Limit15Min)).
			Msg("fetched activity page")
	}

	var activities []strava.Activity
	if entry.SyncType == store.SyncTypeIncremental {
		since, _, lerr := s.store.LatestActivityStart(ctx, entry.AthleteID)
		if lerr != nil {
			return res, lerr
		}
		activities, err = s.client.FetchActivitiesSince(ctx, token, since, progress)
	} else {
		activities, err = s.client.FetchAllActivities(ctx, token, progress)
	}
	if err != nil {
		return res, err
	}

	for _, a := range activities {
		created, err := s.store.UpsertActivity(ctx, ConvertActivity(a, entry.AthleteID))
		if err != nil {
			return res, fmt.Errorf("saving activity %d (%s): %w", a.ID, a.Name, err)
		}
		res.ActivitiesSynced++
		if created {
			res.NewActivities++
		} else {
			res.UpdatedActivities++
		}
	}
	return res, nil
}

// RegisterAthlete stores the athlete summary returned with a new grant.
func (s *Service) RegisterAthlete(ctx context.Context, a strava.Athlete) error {
	return s.store.UpsertAthlete(ctx, ToProfile(a))
}

// Disconnect revokes upstream access on a best-effort basis, then removes
// the athlete and everything stored for them.
func (s *Service) Disconnect(ctx context.Context, athleteID int64) error {
	if _, err := s.store.GetAthlete(ctx, athleteID); err != nil {
		return err
	}

	log := s.log.With().Int64("athlete_id", athleteID).Logger()
	token, err := s.tokens.GetValidAccessToken(ctx, athleteID)
	if err != nil {
		log.Warn().Err(err).Msg("no usable token, skipping deauthorize")
	} else if err := s.client.Deauthorize(ctx, token); err != nil {
		log.Warn().Err(err).Msg("deauthorize failed, removing local data anyway")
	}

	if err := s.store.DeleteAthleteCascade(ctx, athleteID); err != nil {
		return err
	}
	log.Info().Msg("athlete disconnected")
	return nil
}

// IsAuthError reports whether err means the athlete's grant is unusable.
func IsAuthError(err error) bool {
	return errors.Is(err, strava.ErrUnauthorized)
}
