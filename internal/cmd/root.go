package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ifitclub/clubstats/internal/logging"
)

var (
	verbosity            int
	logFormat            string
	dbPath               string
	mcpPort              int
	timezone             string
	clientID             string
	clientSecret         string
	redirectURL          string
	stateKey             string
	telegramToken        string
	telegramChat         int64
	syncInterval         time.Duration
	tokenRefreshInterval time.Duration
	announceInterval     time.Duration
	syncWorkers          int
	syncQueueSize        int
	noSync               bool
)

var rootCmd = &cobra.Command{
	Use:   "clubstats",
	Short: "Club stats server - leaderboards and training stats for a fitness club",
	Long: `clubstats keeps a local SQLite copy of every club athlete's Strava activities
and serves leaderboards, per-athlete stats and sync controls over the
Model Context Protocol (MCP) for AI assistants.

The serve command (the default) runs with:
- A queued sync executor with a bounded worker pool
- Periodic incremental syncs for every connected athlete
- Background token refresh to keep every grant valid
- Optional weekly podium posts to a Telegram chat
- The MCP server over HTTP/SSE, or stdio with --port 0

Athletes join with "clubstats connect". Credentials come from flags, the
environment or a .env file in the working directory.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format, err := logging.ParseFormat(logFormat)
		if err != nil {
			return err
		}
		logging.Setup(logging.Level(verbosity), format)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := runtimeConfig()
		if err != nil {
			return err
		}
		return Run(cmd.Context(), cfg)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the workers and the MCP server (default)",
	RunE:  rootCmd.RunE,
}

func init() {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	flags := rootCmd.PersistentFlags()

	flags.CountVarP(&verbosity, "verbose", "v", "increase verbosity (-v for debug, -vv for trace with HTTP headers)")
	flags.StringVar(&logFormat, "log-format", envOr("CLUBSTATS_LOG_FORMAT", "console"), "log output: console or json")

	flags.StringVar(&dbPath, "db", envOr("CLUBSTATS_DB", "clubstats.db"), "path to SQLite database file")
	flags.StringVar(&timezone, "timezone", envOr("CLUBSTATS_TIMEZONE", "UTC"), "IANA zone for the club's calendar (today, weeks, months)")

	flags.StringVar(&clientID, "client-id", os.Getenv("STRAVA_CLIENT_ID"), "Strava API client ID")
	flags.StringVar(&clientSecret, "client-secret", os.Getenv("STRAVA_CLIENT_SECRET"), "Strava API client secret")
	flags.StringVar(&redirectURL, "redirect-url", envOr("STRAVA_REDIRECT_URL", "http://localhost:8089/callback"), "OAuth redirect URL served during connect")
	flags.StringVar(&stateKey, "state-key", os.Getenv("CLUBSTATS_STATE_KEY"), "key for signing OAuth state (random per run when empty)")

	flags.StringVar(&telegramToken, "telegram-token", os.Getenv("TELEGRAM_BOT_TOKEN"), "Telegram bot token for podium posts")
	flags.Int64Var(&telegramChat, "telegram-chat", envInt64("TELEGRAM_CHAT_ID"), "Telegram chat ID for podium posts")

	serveFlags := []*cobra.Command{rootCmd, serveCmd}
	for _, c := range serveFlags {
		f := c.Flags()
		f.IntVarP(&mcpPort, "port", "p", 8080, "MCP server port (0 for stdio mode)")
		f.DurationVar(&syncInterval, "sync-interval", 15*time.Minute, "interval between club syncs")
		f.DurationVar(&tokenRefreshInterval, "token-refresh-interval", 30*time.Minute, "interval between token refresh checks")
		f.DurationVar(&announceInterval, "announce-interval", 7*24*time.Hour, "interval between podium posts")
		f.IntVar(&syncWorkers, "sync-workers", 2, "concurrent sync workers")
		f.IntVar(&syncQueueSize, "sync-queue", 32, "queued syncs before new requests are rejected")
		f.BoolVar(&noSync, "no-sync", false, "serve stored data only, without syncing or refreshing tokens")
	}

	rootCmd.AddCommand(serveCmd, connectCmd, syncCmd, disconnectCmd, leaderboardCmd, exportCmd)
}

// Execute runs the root command. SIGINT and SIGTERM cancel its context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runtimeConfig() (*RuntimeConfig, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid --timezone %q: %w", timezone, err)
	}
	if syncInterval <= 0 || tokenRefreshInterval <= 0 || announceInterval <= 0 {
		return nil, errors.New("intervals must be positive")
	}
	return &RuntimeConfig{
		DBPath:               dbPath,
		MCPPort:              mcpPort,
		Location:             loc,
		ClientID:             clientID,
		ClientSecret:         clientSecret,
		RedirectURL:          redirectURL,
		StateKey:             stateKey,
		TelegramToken:        telegramToken,
		TelegramChatID:       telegramChat,
		SyncInterval:         syncInterval,
		TokenRefreshInterval: tokenRefreshInterval,
		AnnounceInterval:     announceInterval,
		SyncWorkers:          syncWorkers,
		SyncQueueSize:        syncQueueSize,
		NoSync:               noSync,
	}, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt64(key string) int64 {
	v, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
