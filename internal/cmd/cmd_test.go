package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifitclub/clubstats/internal/club"
	"github.com/ifitclub/clubstats/internal/stats"
	"github.com/ifitclub/clubstats/internal/store"
)

func TestParseAthleteID(t *testing.T) {
	t.Parallel()

	id, err := parseAthleteID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "0", "-3", "1.5"} {
		_, err := parseAthleteID(bad)
		assert.Error(t, err, bad)
	}
}

func TestConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"matching id", "42\n", true},
		{"padded id", "  42  \n", true},
		{"wrong id", "41\n", false},
		{"no trailing newline", "42", true},
		{"empty input", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			ok, err := confirm(strings.NewReader(tc.input), &out, 42)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
			assert.Contains(t, out.String(), "athlete 42")
		})
	}
}

func TestPrintLeaderboard(t *testing.T) {
	t.Parallel()

	board := club.Leaderboard{
		Period:            stats.PeriodWeek,
		ActivityType:      "all",
		TotalParticipants: 2,
		Entries: []stats.Entry{
			{Rank: 1, AthleteID: 1, DisplayName: "Ada O.", Score: 13, TotalDistanceKm: 10, TotalTimeMinutes: 1500, ActivityCount: 3, WorkoutDays: 2},
			{Rank: 2, AthleteID: 2, DisplayName: "Ben R.", Score: 4.5, TotalDistanceKm: 5, TotalTimeMinutes: 30, ActivityCount: 1, WorkoutDays: 1},
		},
	}

	var out bytes.Buffer
	require.NoError(t, printLeaderboard(&out, board))

	text := out.String()
	assert.Contains(t, text, "(2 athletes)")
	assert.Contains(t, text, "1st")
	assert.Contains(t, text, "2nd")
	assert.Contains(t, text, "Ada O.")
	assert.Contains(t, text, "1,500")
	assert.Less(t, strings.Index(text, "Ada O."), strings.Index(text, "Ben R."))
}

func TestPrintSyncLog(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	printSyncLog(&out, store.SyncLog{})
	assert.Empty(t, out.String())

	printSyncLog(&out, store.SyncLog{
		ID:               "abc",
		SyncType:         "full",
		Status:           "failed",
		ActivitiesSynced: 3,
		NewActivities:    2,
		ErrorMessage:     "rate limited",
	})
	assert.Contains(t, out.String(), "Sync abc (full): failed, 3 synced, 2 new, 0 updated")
	assert.Contains(t, out.String(), "error: rate limited")
}

func TestOpenDatabase(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "club.db")
	sqlDB, err := openDatabase(context.Background(), path, true)
	require.NoError(t, err)
	defer sqlDB.Close()

	var fk int
	require.NoError(t, sqlDB.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	for _, table := range []string{"athletes", "oauth_tokens", "activities", "activity_stats", "sync_logs"} {
		var name string
		err := sqlDB.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("CLUBSTATS_TEST_STR", "json")
	t.Setenv("CLUBSTATS_TEST_INT", "-1001234")
	t.Setenv("CLUBSTATS_TEST_BAD", "chat")

	assert.Equal(t, "json", envOr("CLUBSTATS_TEST_STR", "console"))
	assert.Equal(t, "console", envOr("CLUBSTATS_TEST_UNSET", "console"))
	assert.Equal(t, int64(-1001234), envInt64("CLUBSTATS_TEST_INT"))
	assert.Zero(t, envInt64("CLUBSTATS_TEST_BAD"))
	assert.Zero(t, envInt64("CLUBSTATS_TEST_UNSET"))
}

// runtimeConfig reads package flag variables, so this test is not parallel.
func TestRuntimeConfig(t *testing.T) {
	oldZone, oldSync := timezone, syncInterval
	t.Cleanup(func() { timezone, syncInterval = oldZone, oldSync })

	timezone = "Europe/Berlin"
	syncInterval = 15 * time.Minute
	tokenRefreshInterval = 30 * time.Minute
	announceInterval = time.Hour
	cfg, err := runtimeConfig()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", cfg.Location.String())
	assert.Equal(t, 15*time.Minute, cfg.SyncInterval)

	timezone = "Mars/Olympus"
	_, err = runtimeConfig()
	assert.ErrorContains(t, err, "invalid --timezone")

	timezone = "UTC"
	syncInterval = 0
	_, err = runtimeConfig()
	assert.ErrorContains(t, err, "intervals must be positive")
}
