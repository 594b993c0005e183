package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ifitclub/clubstats/internal/auth"
	"github.com/ifitclub/clubstats/internal/club"
	"github.com/ifitclub/clubstats/internal/export"
	"github.com/ifitclub/clubstats/internal/logging"
	"github.com/ifitclub/clubstats/internal/store"
	"github.com/ifitclub/clubstats/internal/strava"
)

var (
	skipInitialSync bool
	fullSync        bool
	assumeYes       bool
	boardPeriod     string
	boardType       string
	exportDir       string
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect an athlete through the Strava OAuth flow and import their activities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return connectAthlete(ctx, a, cmd.OutOrStdout())
		})
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync <athlete-id>",
	Short: "Sync one athlete's activities now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseAthleteID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if a.cfg.ClientID == "" {
				return errors.New("STRAVA_CLIENT_ID and STRAVA_CLIENT_SECRET are required to sync")
			}
			entry, err := a.syncs.Run(ctx, id, fullSync)
			printSyncLog(cmd.OutOrStdout(), entry)
			return err
		})
	},
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect <athlete-id>",
	Short: "Revoke an athlete's grant and delete all of their data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseAthleteID(args[0])
		if err != nil {
			return err
		}
		if !assumeYes {
			ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), id)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.syncs.Disconnect(ctx, id); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("athlete %d is not in the club", id)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Athlete %d disconnected.\n", id)
			return nil
		})
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Print the club leaderboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			board, err := a.club.Leaderboard(ctx, boardPeriod, boardType)
			if err != nil {
				return err
			}
			return printLeaderboard(cmd.OutOrStdout(), board)
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the leaderboard and all activities to Parquet files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			exporter := export.NewExporter(a.club, a.store, logging.Component("export"))
			res, err := exporter.Export(ctx, exportDir, boardPeriod, boardType)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s rows to %s\n", humanize.Comma(int64(res.LeaderboardRows)), res.LeaderboardPath)
			fmt.Fprintf(out, "Wrote %s rows to %s\n", humanize.Comma(int64(res.ActivityRows)), res.ActivitiesPath)
			return nil
		})
	},
}

func init() {
	connectCmd.Flags().BoolVar(&skipInitialSync, "skip-sync", false, "store the grant without importing activities")
	syncCmd.Flags().BoolVar(&fullSync, "full", false, "re-import every activity instead of only new ones")
	disconnectCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")

	for _, c := range []*cobra.Command{leaderboardCmd, exportCmd} {
		c.Flags().StringVar(&boardPeriod, "period", "week", "leaderboard window: week, month or all")
		c.Flags().StringVar(&boardType, "type", "", "activity type filter, empty for all")
	}
	exportCmd.Flags().StringVarP(&exportDir, "out", "o", "export", "output directory")
}

// withApp opens the database and services for a one-shot command.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := runtimeConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := openApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func connectAthlete(ctx context.Context, a *app, out io.Writer) error {
	log := logging.Logger
	cfg := a.cfg

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return errors.New("STRAVA_CLIENT_ID and STRAVA_CLIENT_SECRET are required; get them from https://www.strava.com/settings/api")
	}

	fmt.Fprintln(out, "\n=== Connect a Strava athlete ===")
	tokens, err := auth.Authenticate(ctx, cfg.authConfig(), auth.NewStateSigner(cfg.StateKey, 0))
	if err != nil {
		return fmt.Errorf("OAuth flow failed: %w", err)
	}

	var athlete strava.Athlete
	if tokens.Athlete != nil {
		athlete = *tokens.Athlete
	} else {
		athlete, err = a.client.FetchAthlete(ctx, tokens.AccessToken)
		if err != nil {
			return fmt.Errorf("fetching athlete: %w", err)
		}
	}

	// the athlete row must exist before the grant that references it
	if err := a.syncs.RegisterAthlete(ctx, athlete); err != nil {
		return fmt.Errorf("registering athlete: %w", err)
	}
	if err := a.tokens.SaveTokens(ctx, athlete.ID, tokens); err != nil {
		return err
	}

	expires := time.Unix(tokens.ExpiresAt, 0)
	log.Info().
		Int64("athlete_id", athlete.ID).
		Str("expires_at", expires.Format(time.RFC3339)).
		Msg("athlete connected")
	fmt.Fprintf(out, "\nConnected %s %s (athlete %d). Token expires %s.\n",
		athlete.FirstName, athlete.LastName, athlete.ID, humanize.Time(expires))

	if skipInitialSync {
		return nil
	}

	fmt.Fprintln(out, "Importing activities...")
	entry, err := a.syncs.Run(ctx, athlete.ID, true)
	printSyncLog(out, entry)
	if err != nil {
		return fmt.Errorf("initial sync: %w", err)
	}
	return nil
}

func printSyncLog(w io.Writer, entry store.SyncLog) {
	if entry.ID == "" {
		return
	}
	fmt.Fprintf(w, "Sync %s (%s): %s, %d synced, %d new, %d updated\n",
		entry.ID, entry.SyncType, entry.Status,
		entry.ActivitiesSynced, entry.NewActivities, entry.UpdatedActivities)
	if entry.ErrorMessage != "" {
		fmt.Fprintf(w, "  error: %s\n", entry.ErrorMessage)
	}
}

func printLeaderboard(w io.Writer, board club.Leaderboard) error {
	fmt.Fprintf(w, "Leaderboard: %s, %s (%d athletes)\n\n", board.Period, board.ActivityType, board.TotalParticipants)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Rank\tAthlete\tScore\tKm\tMinutes\tActivities\tDays\t")
	for _, e := range board.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%s\t%d\t%d\t\n",
			humanize.Ordinal(e.Rank), e.DisplayName, e.Score, e.TotalDistanceKm,
			humanize.Comma(e.TotalTimeMinutes), e.ActivityCount, e.WorkoutDays)
	}
	return tw.Flush()
}

func parseAthleteID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid athlete id %q", s)
	}
	return id, nil
}

// confirm asks the user to type the athlete id back.
func confirm(in io.Reader, out io.Writer, id int64) (bool, error) {
	fmt.Fprintf(out, "This deletes every activity, stat and sync log stored for athlete %d.\n", id)
	fmt.Fprint(out, "Type the athlete id to confirm: ")

	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	return strings.TrimSpace(line) == strconv.FormatInt(id, 10), nil
}
