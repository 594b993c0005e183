package cmd

import (
	"context"
	"database/sql"

	"github.com/go-telegram/bot"

	"github.com/ifitclub/clubstats/internal/auth"
	"github.com/ifitclub/clubstats/internal/club"
	"github.com/ifitclub/clubstats/internal/db"
	"github.com/ifitclub/clubstats/internal/logging"
	"github.com/ifitclub/clubstats/internal/notify"
	"github.com/ifitclub/clubstats/internal/store"
	"github.com/ifitclub/clubstats/internal/strava"
	syncsvc "github.com/ifitclub/clubstats/internal/sync"
)

// app is the wired service graph shared by every command.
type app struct {
	cfg     *RuntimeConfig
	sqlDB   *sql.DB
	queries *db.Queries
	store   *store.Store
	tokens  *auth.Storage
	client  *strava.Client
	syncs   *syncsvc.Service
	club    *club.Service
}

func openApp(ctx context.Context, cfg *RuntimeConfig, exclusive bool) (*app, error) {
	sqlDB, err := openDatabase(ctx, cfg.DBPath, exclusive)
	if err != nil {
		return nil, err
	}

	queries := db.New(sqlDB)
	st := store.New(sqlDB)
	tokens := auth.NewStorage(queries, cfg.authConfig())
	client := strava.NewClientWithRetryConfig(strava.DefaultRetryConfig())

	return &app{
		cfg:     cfg,
		sqlDB:   sqlDB,
		queries: queries,
		store:   st,
		tokens:  tokens,
		client:  client,
		syncs:   syncsvc.NewService(st, client, tokens, logging.Component("sync")),
		club:    club.NewService(st, club.WithLocation(cfg.Location)),
	}, nil
}

func (a *app) Close() error {
	return a.sqlDB.Close()
}

// announcer returns the podium announcer. It is disabled, never nil, when
// Telegram is not configured or the bot cannot be reached.
func (a *app) announcer() *notify.Announcer {
	log := logging.Component("notify")
	if a.cfg.TelegramToken == "" || a.cfg.TelegramChatID == 0 {
		log.Debug().Msg("telegram not configured, podium announcements disabled")
		return notify.NewAnnouncer(nil, 0, log)
	}

	b, err := bot.New(a.cfg.TelegramToken)
	if err != nil {
		log.Warn().Err(err).Msg("telegram bot unavailable, podium announcements disabled")
		return notify.NewAnnouncer(nil, 0, log)
	}
	return notify.NewAnnouncer(b, a.cfg.TelegramChatID, log)
}

func (c *RuntimeConfig) authConfig() auth.Config {
	return auth.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
	}
}
