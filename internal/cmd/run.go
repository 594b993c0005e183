package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/ifitclub/clubstats/internal/db"
	"github.com/ifitclub/clubstats/internal/logging"
	"github.com/ifitclub/clubstats/internal/server"
	"github.com/ifitclub/clubstats/internal/workers"

	_ "modernc.org/sqlite"
)

// RuntimeConfig holds all runtime configuration from CLI flags
type RuntimeConfig struct {
	DBPath               string
	MCPPort              int
	Location             *time.Location
	ClientID             string
	ClientSecret         string
	RedirectURL          string
	StateKey             string
	TelegramToken        string
	TelegramChatID       int64
	SyncInterval         time.Duration
	TokenRefreshInterval time.Duration
	AnnounceInterval     time.Duration
	SyncWorkers          int
	SyncQueueSize        int
	NoSync               bool
}

// Run is the entry point of the serve command. It returns once ctx is
// cancelled and every worker has stopped.
func Run(ctx context.Context, cfg *RuntimeConfig) error {
	log := logging.Logger

	log.Info().
		Str("db_path", cfg.DBPath).
		Int("mcp_port", cfg.MCPPort).
		Str("timezone", cfg.Location.String()).
		Bool("no_sync", cfg.NoSync).
		Dur("sync_interval", cfg.SyncInterval).
		Dur("token_refresh_interval", cfg.TokenRefreshInterval).
		Int("sync_workers", cfg.SyncWorkers).
		Msg("starting clubstats")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := openApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	workers.LogDatabaseStats(ctx, a.queries, log)

	syncing := !cfg.NoSync
	if syncing && cfg.ClientID == "" {
		log.Warn().Msg("no Strava client credentials configured, running without sync")
		syncing = false
	}

	executor := workers.NewSyncExecutor(a.syncs, cfg.SyncWorkers, cfg.SyncQueueSize, logging.Component("executor"))
	announcer := a.announcer()

	// Start background workers with errgroup for graceful shutdown
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return executor.Run(gCtx)
	})

	if syncing {
		log.Info().Msg("starting background workers")

		tokenRefresher := workers.NewTokenRefresher(a.tokens, cfg.TokenRefreshInterval, log)
		g.Go(func() error {
			return tokenRefresher.Run(gCtx)
		})

		activitySyncer := workers.NewActivitySyncer(a.store, executor, a.client, cfg.SyncInterval, log)
		g.Go(func() error {
			return activitySyncer.Run(gCtx)
		})
	} else {
		log.Info().Msg("running in offline mode, skipping Strava API sync")
	}

	podiumAnnouncer := workers.NewPodiumAnnouncer(a.club, announcer, cfg.AnnounceInterval, log)
	g.Go(func() error {
		return podiumAnnouncer.Run(gCtx)
	})

	srv := server.New(server.Deps{
		Club:      a.club,
		Syncs:     executor,
		Logs:      a.store,
		Accounts:  a.syncs,
		Announcer: announcer,
	})

	var serverErr error
	if cfg.MCPPort > 0 {
		serverErr = runHTTPServer(ctx, srv.MCPServer(), cfg.MCPPort)
	} else {
		log.Info().Msg("MCP server running via stdio")
		serverErr = srv.Run(ctx)
	}

	// the server only returns early on failure; stop the workers either way
	cancel()

	log.Info().Msg("waiting for workers to shut down")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Msg("worker error during shutdown")
	} else {
		log.Info().Msg("all workers shut down gracefully")
	}

	return serverErr
}

// openDatabase opens, configures and migrates the SQLite database. With
// exclusive set it fails when another instance holds the database.
func openDatabase(ctx context.Context, path string, exclusive bool) (*sql.DB, error) {
	log := logging.Logger

	log.Info().Str("path", path).Msg("opening database")
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := configureSQLite(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("configuring SQLite: %w", err)
	}

	if exclusive {
		if err := checkDatabaseLock(sqlDB); err != nil {
			sqlDB.Close()
			return nil, err
		}
	}

	results, err := db.Migrate(ctx, sqlDB)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	for _, r := range results {
		log.Debug().Int64("version", r.Source.Version).Str("path", r.Source.Path).Msg("migration applied")
	}
	log.Debug().Int("applied", len(results)).Msg("database migrations completed")

	return sqlDB, nil
}

// runHTTPServer runs the MCP server over HTTP/SSE
func runHTTPServer(ctx context.Context, mcpServer *mcp.Server, port int) error {
	log := logging.Logger

	handler := mcp.NewSSEHandler(func(r *http.Request) *mcp.Server {
		return mcpServer
	}, nil)

	addr := fmt.Sprintf(":%d", port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().
			Str("address", addr).
			Str("endpoint", fmt.Sprintf("http://localhost%s", addr)).
			Msg("MCP server running via HTTP/SSE")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// configureSQLite sets up SQLite for concurrent access
func configureSQLite(sqlDB *sql.DB) error {
	log := logging.Logger

	// WAL lets readers proceed while a sync writes
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := sqlDB.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := sqlDB.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return fmt.Errorf("setting synchronous mode: %w", err)
	}

	if _, err := sqlDB.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("enabling foreign keys: %w", err)
	}

	// a single connection keeps the pragmas above in force for every query
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	log.Debug().
		Str("journal_mode", "WAL").
		Str("busy_timeout", "5000ms").
		Msg("SQLite configured")
	return nil
}

// checkDatabaseLock verifies no other process has the database locked
func checkDatabaseLock(sqlDB *sql.DB) error {
	log := logging.Logger

	_, err := sqlDB.Exec("PRAGMA locking_mode=EXCLUSIVE")
	if err != nil {
		return fmt.Errorf("another instance may be running (database locked): %w", err)
	}

	// the lock is only taken once a transaction starts
	_, err = sqlDB.Exec("BEGIN EXCLUSIVE")
	if err != nil {
		if strings.Contains(err.Error(), "locked") || strings.Contains(err.Error(), "busy") {
			return fmt.Errorf("another instance is already running (database is locked)")
		}
		return fmt.Errorf("checking database lock: %w", err)
	}

	_, err = sqlDB.Exec("COMMIT")
	if err != nil {
		return fmt.Errorf("releasing lock check: %w", err)
	}

	log.Debug().Msg("database lock check passed")
	return nil
}
