package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ifitclub/clubstats/internal/store"
	syncsvc "github.com/ifitclub/clubstats/internal/sync"
)

var (
	// ErrSyncInProgress is returned by Submit when the athlete already has a
	// sync queued or running.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrQueueFull is returned by Submit when no job slot is free.
	ErrQueueFull = errors.New("sync queue is full")
)

// Syncer runs the SyncLog lifecycle.
type Syncer interface {
	Start(ctx context.Context, athleteID int64, full bool) (store.SyncLog, error)
	Execute(ctx context.Context, entry store.SyncLog) store.SyncResult
	Fail(ctx context.Context, logID string, cause error) error
}

// SyncExecutor runs syncs on a fixed pool of workers, at most one per
// athlete at a time.
type SyncExecutor struct {
	syncer  Syncer
	workers int
	jobs    chan store.SyncLog
	log     zerolog.Logger

	mu       sync.Mutex
	inFlight map[int64]string
}

// NewSyncExecutor creates an executor with the given pool and queue sizes.
func NewSyncExecutor(syncer Syncer, workers, queueSize int, log zerolog.Logger) *SyncExecutor {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &SyncExecutor{
		syncer:   syncer,
		workers:  workers,
		jobs:     make(chan store.SyncLog, queueSize),
		log:      log.With().Str("component", "sync_executor").Logger(),
		inFlight: make(map[int64]string),
	}
}

// Submit records a started SyncLog and queues it. A duplicate request
// returns the in-flight log id with ErrSyncInProgress.
func (e *SyncExecutor) Submit(ctx context.Context, athleteID int64, full bool) (store.SyncLog, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if id, ok := e.inFlight[athleteID]; ok {
		return store.SyncLog{ID: id, AthleteID: athleteID, Status: store.SyncStatusStarted}, ErrSyncInProgress
	}

	entry, err := e.syncer.Start(ctx, athleteID, full)
	if err != nil {
		return store.SyncLog{}, err
	}

	e.inFlight[athleteID] = entry.ID
	select {
	case e.jobs <- entry:
		e.log.Debug().Str("sync_id", entry.ID).Int64("athlete_id", athleteID).Str("sync_type", entry.SyncType).Msg("sync queued")
		return entry, nil
	default:
		delete(e.inFlight, athleteID)
		if ferr := e.syncer.Fail(context.WithoutCancel(ctx), entry.ID, ErrQueueFull); ferr != nil {
			e.log.Error().Err(ferr).Str("sync_id", entry.ID).Msg("failed to close rejected sync")
		}
		return entry, ErrQueueFull
	}
}

// InProgress returns the id of the athlete's queued or running sync.
func (e *SyncExecutor) InProgress(athleteID int64) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, ok := e.inFlight[athleteID]
	return id, ok
}

// Run starts the workers and blocks until ctx is cancelled. Jobs still
// queued at shutdown are closed as failed.
func (e *SyncExecutor) Run(ctx context.Context) error {
	e.log.Info().Int("workers", e.workers).Int("queue_size", cap(e.jobs)).Msg("sync executor started")

	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < e.workers; i++ {
		g.Go(func() error {
			e.work(gCtx, i)
			return nil
		})
	}
	err := g.Wait()

	e.drain(context.WithoutCancel(ctx))
	e.log.Info().Msg("sync executor stopped")
	return err
}

func (e *SyncExecutor) work(ctx context.Context, worker int) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry := <-e.jobs:
			e.execute(ctx, worker, entry)
		}
	}
}

func (e *SyncExecutor) execute(ctx context.Context, worker int, entry store.SyncLog) {
	defer e.release(entry.AthleteID)

	start := time.Now()
	res := e.syncer.Execute(ctx, entry)

	log := e.log.With().Int("worker", worker).Str("sync_id", entry.ID).Int64("athlete_id", entry.AthleteID).Logger()
	switch {
	case res.Err == nil:
		log.Debug().Dur("took", time.Since(start).Round(time.Millisecond)).Msg("sync job done")
	case syncsvc.IsAuthError(res.Err):
		log.Warn().Err(res.Err).Msg("athlete authorization rejected, reconnect required")
	default:
		log.Debug().Err(res.Err).Msg("sync job failed")
	}
}

func (e *SyncExecutor) release(athleteID int64) {
	e.mu.Lock()
	delete(e.inFlight, athleteID)
	e.mu.Unlock()
}

func (e *SyncExecutor) drain(ctx context.Context) {
	for {
		select {
		case entry := <-e.jobs:
			if err := e.syncer.Fail(ctx, entry.ID, context.Canceled); err != nil {
				e.log.Error().Err(err).Str("sync_id", entry.ID).Msg("failed to close queued sync")
			}
			e.release(entry.AthleteID)
		default:
			return
		}
	}
}
