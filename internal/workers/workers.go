// Package workers runs the background jobs of the serve command: the sync
// executor, the periodic club syncer, the token refresher and the podium
// announcer.
package workers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ifitclub/clubstats/internal/auth"
	"github.com/ifitclub/clubstats/internal/club"
	"github.com/ifitclub/clubstats/internal/db"
	"github.com/ifitclub/clubstats/internal/store"
	"github.com/ifitclub/clubstats/internal/strava"
)

// Submitter queues syncs.
type Submitter interface {
	Submit(ctx context.Context, athleteID int64, full bool) (store.SyncLog, error)
}

// AthleteLister lists athletes holding a grant.
type AthleteLister interface {
	ConnectedAthleteIDs(ctx context.Context) ([]int64, error)
}

// RateLimiter blocks while the upstream rate limit is nearly spent.
type RateLimiter interface {
	WaitForRateLimit(ctx context.Context) error
	GetRateLimit() strava.RateLimitInfo
}

// ActivitySyncer periodically queues an incremental sync for every
// connected athlete.
type ActivitySyncer struct {
	athletes AthleteLister
	executor Submitter
	limiter  RateLimiter
	interval time.Duration
	log      zerolog.Logger
}

// NewActivitySyncer creates a new activity sync worker. limiter may be nil.
func NewActivitySyncer(athletes AthleteLister, executor Submitter, limiter RateLimiter, interval time.Duration, log zerolog.Logger) *ActivitySyncer {
	return &ActivitySyncer{
		athletes: athletes,
		executor: executor,
		limiter:  limiter,
		interval: interval,
		log:      log.With().Str("component", "activity_syncer").Logger(),
	}
}

// Run starts the activity sync worker
func (a *ActivitySyncer) Run(ctx context.Context) error {
	a.log.Info().Dur("interval", a.interval).Msg("activity syncer started")

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.syncAll(ctx)

	for {
		select {
		case <-ctx.Done():
			a.log.Info().Msg("activity syncer stopped")
			return nil
		case <-ticker.C:
			a.syncAll(ctx)
		}
	}
}

func (a *ActivitySyncer) syncAll(ctx context.Context) {
	if a.limiter != nil {
		if err := a.limiter.WaitForRateLimit(ctx); err != nil {
			a.log.Info().Err(err).Msg("club sync cancelled while waiting for rate limit")
			return
		}
	}

	ids, err := a.athletes.ConnectedAthleteIDs(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("failed to list connected athletes")
		return
	}

	queued := 0
	for _, id := range ids {
		_, err := a.executor.Submit(ctx, id, false)
		switch {
		case err == nil:
			queued++
		case errors.Is(err, ErrSyncInProgress):
			a.log.Debug().Int64("athlete_id", id).Msg("sync already running, skipping")
		case errors.Is(err, ErrQueueFull):
			a.log.Warn().Int("queued", queued).Int("remaining", len(ids)-queued).Msg("sync queue full, deferring rest of club to next tick")
			return
		default:
			a.log.Error().Err(err).Int64("athlete_id", id).Msg("failed to queue sync")
		}
	}

	ev := a.log.Info().Int("athletes", len(ids)).Int("queued", queued)
	if a.limiter != nil {
		rl := a.limiter.GetRateLimit()
		ev = ev.
			Str("15min_usage", fmt.Sprintf("%d/%d", rl.Usage15Min, rl.Limit15Min)).
			Str("daily_usage", fmt.Sprintf("%d/%d", rl.UsageDaily, rl.LimitDaily))
	}
	ev.Msg("club sync queued")
}

// TokenStore lists and refreshes stored grants.
type TokenStore interface {
	ListTokens(ctx context.Context) ([]auth.StoredTokens, error)
	RefreshIfExpiring(ctx context.Context, athleteID int64, window time.Duration) (bool, error)
}

// refreshWindow is how close to expiry a token gets refreshed.
const refreshWindow = 10 * time.Minute

// TokenRefresher keeps every athlete's access token fresh.
type TokenRefresher struct {
	storage  TokenStore
	interval time.Duration
	log      zerolog.Logger
}

// NewTokenRefresher creates a new token refresher worker
func NewTokenRefresher(storage TokenStore, interval time.Duration, log zerolog.Logger) *TokenRefresher {
	return &TokenRefresher{
		storage:  storage,
		interval: interval,
		log:      log.With().Str("component", "token_refresher").Logger(),
	}
}

// Run starts the token refresh worker
func (t *TokenRefresher) Run(ctx context.Context) error {
	t.log.Info().Dur("interval", t.interval).Msg("token refresher started")

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.checkAndRefresh(ctx)

	for {
		select {
		case <-ctx.Done():
			t.log.Info().Msg("token refresher stopped")
			return nil
		case <-ticker.C:
			t.checkAndRefresh(ctx)
		}
	}
}

func (t *TokenRefresher) checkAndRefresh(ctx context.Context) {
	tokens, err := t.storage.ListTokens(ctx)
	if err != nil {
		t.log.Error().Err(err).Msg("failed to load tokens for refresh check")
		return
	}

	refreshed, failed := 0, 0
	for _, tok := range tokens {
		ok, err := t.storage.RefreshIfExpiring(ctx, tok.AthleteID, refreshWindow)
		if err != nil {
			failed++
			t.log.Error().Err(err).Int64("athlete_id", tok.AthleteID).Msg("failed to refresh token")
			continue
		}
		if ok {
			refreshed++
		}
	}

	ev := t.log.Debug()
	if refreshed > 0 || failed > 0 {
		ev = t.log.Info()
	}
	ev.Int("tokens", len(tokens)).Int("refreshed", refreshed).Int("failed", failed).Msg("token refresh check")
}

// LeaderboardSource produces club leaderboards.
type LeaderboardSource interface {
	Leaderboard(ctx context.Context, period, typeFilter string) (club.Leaderboard, error)
}

// PodiumPoster publishes a leaderboard's podium.
type PodiumPoster interface {
	Enabled() bool
	AnnouncePodium(ctx context.Context, board club.Leaderboard) error
}

// PodiumAnnouncer posts the weekly podium on a fixed interval.
type PodiumAnnouncer struct {
	boards   LeaderboardSource
	poster   PodiumPoster
	interval time.Duration
	log      zerolog.Logger
}

// NewPodiumAnnouncer creates a new podium announcer worker
func NewPodiumAnnouncer(boards LeaderboardSource, poster PodiumPoster, interval time.Duration, log zerolog.Logger) *PodiumAnnouncer {
	return &PodiumAnnouncer{
		boards:   boards,
		poster:   poster,
		interval: interval,
		log:      log.With().Str("component", "podium_announcer").Logger(),
	}
}

// Run posts on every tick. It returns immediately when the poster is
// disabled. Nothing is posted at startup so restarts do not repeat a post.
func (p *PodiumAnnouncer) Run(ctx context.Context) error {
	if !p.poster.Enabled() {
		p.log.Info().Msg("podium announcer disabled, no telegram chat configured")
		return nil
	}
	p.log.Info().Dur("interval", p.interval).Msg("podium announcer started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("podium announcer stopped")
			return nil
		case <-ticker.C:
			if err := p.Announce(ctx); err != nil {
				p.log.Error().Err(err).Msg("failed to announce podium")
			}
		}
	}
}

// Announce posts the current weekly podium.
func (p *PodiumAnnouncer) Announce(ctx context.Context) error {
	board, err := p.boards.Leaderboard(ctx, "week", "")
	if err != nil {
		return fmt.Errorf("building leaderboard: %w", err)
	}
	return p.poster.AnnouncePodium(ctx, board)
}

// LogDatabaseStats logs current database statistics
func LogDatabaseStats(ctx context.Context, queries *db.Queries, log zerolog.Logger) {
	athletes, err := queries.CountAthletes(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to count athletes")
		return
	}
	count, err := queries.CountActivities(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to count activities")
		return
	}

	if count == 0 {
		log.Info().Int64("athletes", athletes).Int64("total_activities", 0).Msg("database statistics")
		return
	}

	newest, err := queries.GetNewestActivityStart(ctx)
	newestStr := formatDate(newest, err)
	oldest, err := queries.GetOldestActivityStart(ctx)
	oldestStr := formatDate(oldest, err)

	log.Info().
		Int64("athletes", athletes).
		Int64("total_activities", count).
		Str("newest_activity", newestStr).
		Str("oldest_activity", oldestStr).
		Msg("database statistics")
}

func formatDate(t time.Time, err error) string {
	if err != nil || t.IsZero() {
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return "error"
		}
		return "unknown"
	}
	return t.UTC().Format(time.RFC3339)
}
