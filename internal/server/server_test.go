package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ifitclub/clubstats/internal/club"
	"github.com/ifitclub/clubstats/internal/db"
	"github.com/ifitclub/clubstats/internal/stats"
	"github.com/ifitclub/clubstats/internal/store"
	"github.com/ifitclub/clubstats/internal/workers"

	_ "modernc.org/sqlite"
)

// Wednesday 13 March 2024, 15:00 UTC.
var testNow = time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC)

type fakeQueue struct {
	submitted []int64
	entry     store.SyncLog
	err       error
	running   map[int64]string
}

func (q *fakeQueue) Submit(ctx context.Context, athleteID int64, full bool) (store.SyncLog, error) {
	q.submitted = append(q.submitted, athleteID)
	return q.entry, q.err
}

func (q *fakeQueue) InProgress(athleteID int64) (string, bool) {
	id, ok := q.running[athleteID]
	return id, ok
}

type fakeLogs struct {
	logs []store.SyncLog
	err  error
}

func (l *fakeLogs) LatestSyncLog(ctx context.Context, athleteID int64) (store.SyncLog, bool, error) {
	if l.err != nil {
		return store.SyncLog{}, false, l.err
	}
	if len(l.logs) == 0 {
		return store.SyncLog{}, false, nil
	}
	return l.logs[0], true, nil
}

func (l *fakeLogs) ListSyncLogs(ctx context.Context, athleteID int64, limit int) ([]store.SyncLog, error) {
	if limit < len(l.logs) {
		return l.logs[:limit], l.err
	}
	return l.logs, l.err
}

type fakeAccounts struct {
	disconnected []int64
	err          error
}

func (a *fakeAccounts) Disconnect(ctx context.Context, athleteID int64) error {
	a.disconnected = append(a.disconnected, athleteID)
	return a.err
}

type fakePoster struct {
	enabled bool
	boards  []club.Leaderboard
	err     error
}

func (p *fakePoster) Enabled() bool { return p.enabled }

func (p *fakePoster) AnnouncePodium(ctx context.Context, board club.Leaderboard) error {
	p.boards = append(p.boards, board)
	return p.err
}

type fixture struct {
	srv      *Server
	store    *store.Store
	queue    *fakeQueue
	logs     *fakeLogs
	accounts *fakeAccounts
	poster   *fakePoster
}

// newFixture builds a server over a migrated sqlite store holding three
// athletes: Ada (one 10 km run), Ben (one 5 km walk) and Cy (nothing).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	sqlDB, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "club.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	sqlDB.SetMaxOpenConns(1)
	if _, err := db.Migrate(ctx, sqlDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	st := store.New(sqlDB)
	for _, a := range []stats.Athlete{
		{ID: 1, FirstName: "Ada", LastName: "Obi"},
		{ID: 2, FirstName: "Ben", LastName: "Ray"},
		{ID: 3, FirstName: "Cy", LastName: "Lu"},
	} {
		if err := st.UpsertAthlete(ctx, store.AthleteProfile{Athlete: a}); err != nil {
			t.Fatalf("seed athlete: %v", err)
		}
	}
	yesterday := testNow.AddDate(0, 0, -1)
	for _, a := range []stats.Activity{
		{ID: 100, AthleteID: 1, Name: "Morning Run", Type: "Run", DistanceMeters: 10000, MovingTimeSeconds: 3600, StartTime: yesterday, StartTimeLocal: yesterday},
		{ID: 200, AthleteID: 2, Name: "Evening Walk", Type: "Walk", DistanceMeters: 5000, MovingTimeSeconds: 1800, StartTime: yesterday, StartTimeLocal: yesterday},
	} {
		if _, err := st.UpsertActivity(ctx, a); err != nil {
			t.Fatalf("seed activity: %v", err)
		}
	}

	f := &fixture{
		store:    st,
		queue:    &fakeQueue{running: map[int64]string{}},
		logs:     &fakeLogs{},
		accounts: &fakeAccounts{},
		poster:   &fakePoster{enabled: true},
	}
	f.srv = New(Deps{
		Club:      club.NewService(st, club.WithClock(func() time.Time { return testNow })),
		Syncs:     f.queue,
		Logs:      f.logs,
		Accounts:  f.accounts,
		Announcer: f.poster,
	})
	return f
}

func assertCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	var te *ToolError
	if !errors.As(err, &te) {
		t.Fatalf("expected *ToolError with code %s, got %v", code, err)
	}
	if te.Code != code {
		t.Errorf("expected code %s, got %s (%s)", code, te.Code, te.Message)
	}
}

func TestServerNew(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if f.srv.MCPServer() == nil {
		t.Fatal("expected non-nil MCP server")
	}
	if f.srv.MCPServer() != f.srv.mcp {
		t.Error("expected MCPServer() to return the internal mcp server")
	}
}

func TestGetLeaderboard(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, out, err := f.srv.getLeaderboard(context.Background(), nil, LeaderboardInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Period != "week" || out.ActivityType != "all" {
		t.Errorf("expected week/all, got %s/%s", out.Period, out.ActivityType)
	}
	if out.GeneratedAt != "2024-03-13T15:00:00Z" {
		t.Errorf("unexpected generated_at %q", out.GeneratedAt)
	}
	if len(out.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(out.Entries))
	}
	if out.Entries[0].DisplayName != "Ada Obi" || out.Entries[0].Rank != 1 {
		t.Errorf("expected Ada Obi first, got %+v", out.Entries[0])
	}
	// 10 km + 2 per activity + 1 per hour
	if out.Entries[0].Score != 13 {
		t.Errorf("expected score 13, got %v", out.Entries[0].Score)
	}
	if out.Entries[2].ActivityCount != 0 {
		t.Errorf("expected inactive athlete last, got %+v", out.Entries[2])
	}
	if len(out.Insights) == 0 || out.Insights[0].Type != "leader" {
		t.Errorf("expected a leader insight, got %+v", out.Insights)
	}
}

func TestGetLeaderboardTypeFilter(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, out, err := f.srv.getLeaderboard(context.Background(), nil, LeaderboardInput{Period: "month", Type: "walking"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ActivityType != "Walk" {
		t.Errorf("expected Walk, got %s", out.ActivityType)
	}
	if out.Entries[0].DisplayName != "Ben Ray" {
		t.Errorf("expected Ben Ray to lead walks, got %s", out.Entries[0].DisplayName)
	}
}

func TestGetLeaderboardInvalidPeriod(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, _, err := f.srv.getLeaderboard(context.Background(), nil, LeaderboardInput{Period: "fortnight"})
	assertCode(t, err, ErrInvalidInput)
}

func TestGetAthleteRank(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, out, err := f.srv.getAthleteRank(context.Background(), nil, AthleteRankInput{AthleteID: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Rank != 2 || out.TotalParticipants != 3 {
		t.Errorf("expected rank 2 of 3, got %d of %d", out.Rank, out.TotalParticipants)
	}
	if out.Period != "week" {
		t.Errorf("expected default period week, got %s", out.Period)
	}
	if len(out.Insights) != 1 || out.Insights[0].Type != "podium" {
		t.Errorf("expected podium insight, got %+v", out.Insights)
	}
}

func TestAthleteToolsValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		code ErrorCode
	}{
		{"rank missing id", func() error {
			_, _, err := f.srv.getAthleteRank(ctx, nil, AthleteRankInput{})
			return err
		}, ErrInvalidInput},
		{"rank unknown athlete", func() error {
			_, _, err := f.srv.getAthleteRank(ctx, nil, AthleteRankInput{AthleteID: 99})
			return err
		}, ErrNotFound},
		{"weekly negative weeks", func() error {
			_, _, err := f.srv.getWeeklyStats(ctx, nil, WeeklyStatsInput{AthleteID: 1, Weeks: -1})
			return err
		}, ErrInvalidInput},
		{"monthly unknown athlete", func() error {
			_, _, err := f.srv.getMonthlyStats(ctx, nil, MonthlyStatsInput{AthleteID: 99})
			return err
		}, ErrNotFound},
		{"history bad year", func() error {
			_, _, err := f.srv.getActivityHistory(ctx, nil, ActivityHistoryInput{AthleteID: 1, Year: 20240})
			return err
		}, ErrInvalidInput},
		{"profile unknown athlete", func() error {
			_, _, err := f.srv.getAthleteProfile(ctx, nil, AthleteInput{AthleteID: 99})
			return err
		}, ErrNotFound},
		{"month bad format", func() error {
			_, _, err := f.srv.getMonthActivities(ctx, nil, MonthActivitiesInput{AthleteID: 1, Month: "March"})
			return err
		}, ErrInvalidInput},
		{"list negative page", func() error {
			_, _, err := f.srv.listActivities(ctx, nil, ListActivitiesInput{AthleteID: 1, Page: -2})
			return err
		}, ErrInvalidInput},
		{"home missing id", func() error {
			_, _, err := f.srv.getHome(ctx, nil, AthleteInput{})
			return err
		}, ErrInvalidInput},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assertCode(t, tc.call(), tc.code)
		})
	}
}

func TestGetWeeklyStats(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, out, err := f.srv.getWeeklyStats(context.Background(), nil, WeeklyStatsInput{AthleteID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Buckets) != 4 {
		t.Fatalf("expected 4 default weeks, got %d", len(out.Buckets))
	}
	if out.Summary.TotalActivities != 1 {
		t.Errorf("expected 1 activity in summary, got %d", out.Summary.TotalActivities)
	}
}

func TestGetActivityHistory(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, out, err := f.srv.getActivityHistory(context.Background(), nil, ActivityHistoryInput{AthleteID: 1, Year: 2024})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Year != "2024" || len(out.Activities) != 1 {
		t.Errorf("expected one 2024 activity, got year=%s n=%d", out.Year, len(out.Activities))
	}
	if _, ok := out.TypeBreakdown["Run"]; !ok {
		t.Errorf("expected Run in breakdown, got %v", out.TypeBreakdown)
	}
}

func TestGetHome(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, out, err := f.srv.getHome(context.Background(), nil, AthleteInput{AthleteID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Athlete.FullName != "Ada Obi" {
		t.Errorf("unexpected athlete %q", out.Athlete.FullName)
	}
	if out.Recent.Count != 1 {
		t.Errorf("expected 1 recent activity, got %d", out.Recent.Count)
	}
	if out.WeekRank == nil || out.WeekRank.Rank != 1 {
		t.Errorf("expected week rank 1, got %+v", out.WeekRank)
	}
	if out.Stats.TotalKm != 10 {
		t.Errorf("expected 10 km lifetime, got %v", out.Stats.TotalKm)
	}
}

func TestListActivitiesPagination(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, out, err := f.srv.listActivities(context.Background(), nil, ListActivitiesInput{AthleteID: 1, Limit: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Pagination.Page != 1 || out.Pagination.Total != 1 || out.Pagination.HasMore {
		t.Errorf("unexpected pagination %+v", out.Pagination)
	}
}

func TestListAthletesAndTypes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	_, athletes, err := f.srv.listAthletes(ctx, nil, EmptyInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if athletes.Count != 3 {
		t.Errorf("expected 3 athletes, got %d", athletes.Count)
	}

	_, types, err := f.srv.listActivityTypes(ctx, nil, EmptyInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(types.Types, ",") != "Run,Walk" {
		t.Errorf("expected Run,Walk, got %v", types.Types)
	}
}

func TestSyncAthlete(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.queue.entry = store.SyncLog{ID: "sync-1", AthleteID: 1, Status: store.SyncStatusStarted}

	_, out, err := f.srv.syncAthlete(context.Background(), nil, SyncAthleteInput{AthleteID: 1, Full: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Sync.ID != "sync-1" {
		t.Errorf("expected sync-1, got %s", out.Sync.ID)
	}
	if len(f.queue.submitted) != 1 || f.queue.submitted[0] != 1 {
		t.Errorf("expected athlete 1 submitted, got %v", f.queue.submitted)
	}
	if len(out.SuggestedActions) == 0 || out.SuggestedActions[0].Tool != "get_sync_status" {
		t.Errorf("expected get_sync_status suggestion, got %+v", out.SuggestedActions)
	}
}

func TestSyncAthleteConflict(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.queue.entry = store.SyncLog{ID: "running-sync"}
	f.queue.err = workers.ErrSyncInProgress

	_, _, err := f.srv.syncAthlete(context.Background(), nil, SyncAthleteInput{AthleteID: 1})
	assertCode(t, err, ErrConflict)
	if !strings.Contains(err.Error(), "running-sync") {
		t.Errorf("expected in-flight id in error, got %v", err)
	}
}

func TestSyncAthleteUnknown(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, _, err := f.srv.syncAthlete(context.Background(), nil, SyncAthleteInput{AthleteID: 42})
	assertCode(t, err, ErrNotFound)
	if len(f.queue.submitted) != 0 {
		t.Errorf("expected nothing submitted, got %v", f.queue.submitted)
	}
}

func TestGetSyncStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.queue.running[1] = "sync-9"
	f.logs.logs = []store.SyncLog{{ID: "sync-9", AthleteID: 1, Status: store.SyncStatusStarted}}

	_, out, err := f.srv.getSyncStatus(context.Background(), nil, AthleteInput{AthleteID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.InProgress || out.SyncID != "sync-9" {
		t.Errorf("expected sync-9 in progress, got %+v", out)
	}
	if out.Latest == nil || out.Latest.ID != "sync-9" {
		t.Errorf("expected latest log sync-9, got %+v", out.Latest)
	}
}

func TestGetSyncHistoryDefaultsLimit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	for i := 0; i < 15; i++ {
		f.logs.logs = append(f.logs.logs, store.SyncLog{AthleteID: 1})
	}

	_, out, err := f.srv.getSyncHistory(context.Background(), nil, SyncHistoryInput{AthleteID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Count != defaultSyncHistory {
		t.Errorf("expected %d entries, got %d", defaultSyncHistory, out.Count)
	}
}

func TestDisconnectAthlete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("requires confirm", func(t *testing.T) {
		f := newFixture(t)
		_, _, err := f.srv.disconnectAthlete(ctx, nil, DisconnectInput{AthleteID: 1})
		assertCode(t, err, ErrInvalidInput)
		if len(f.accounts.disconnected) != 0 {
			t.Error("expected no disconnect without confirm")
		}
	})

	t.Run("blocked by running sync", func(t *testing.T) {
		f := newFixture(t)
		f.queue.running[1] = "sync-3"
		_, _, err := f.srv.disconnectAthlete(ctx, nil, DisconnectInput{AthleteID: 1, Confirm: true})
		assertCode(t, err, ErrConflict)
	})

	t.Run("disconnects", func(t *testing.T) {
		f := newFixture(t)
		_, out, err := f.srv.disconnectAthlete(ctx, nil, DisconnectInput{AthleteID: 1, Confirm: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !out.Disconnected || len(f.accounts.disconnected) != 1 {
			t.Errorf("expected one disconnect, got %+v %v", out, f.accounts.disconnected)
		}
	})

	t.Run("unknown athlete", func(t *testing.T) {
		f := newFixture(t)
		f.accounts.err = store.ErrNotFound
		_, _, err := f.srv.disconnectAthlete(ctx, nil, DisconnectInput{AthleteID: 77, Confirm: true})
		assertCode(t, err, ErrNotFound)
	})
}

func TestAnnouncePodium(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, out, err := f.srv.announcePodium(context.Background(), nil, LeaderboardInput{Period: "month"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Posted || out.Period != "month" {
		t.Errorf("unexpected output %+v", out)
	}
	if len(f.poster.boards) != 1 || f.poster.boards[0].Period != stats.PeriodMonth {
		t.Errorf("expected one month board posted, got %+v", f.poster.boards)
	}
}

func TestAnnouncePodiumDisabled(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.poster.enabled = false
	_, _, err := f.srv.announcePodium(context.Background(), nil, LeaderboardInput{})
	assertCode(t, err, ErrInternalError)
}

func TestReadLeaderboardResource(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	read := f.srv.leaderboardReader(stats.PeriodWeek, weekLeaderboardURI)
	res, err := read(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: weekLeaderboardURI}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Contents) != 1 || res.Contents[0].URI != weekLeaderboardURI {
		t.Fatalf("unexpected contents %+v", res.Contents)
	}

	var out LeaderboardOutput
	if err := json.Unmarshal([]byte(res.Contents[0].Text), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.TotalParticipants != 3 || out.Entries[0].AthleteID != 1 {
		t.Errorf("unexpected board %+v", out)
	}
}

func TestReadAthleteProfileResource(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	uri := "club://athletes/2/profile"
	res, err := f.srv.readAthleteProfile(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Contents[0].Text, `"full_name": "Ben Ray"`) {
		t.Errorf("expected Ben Ray profile, got %s", res.Contents[0].Text)
	}
}

func TestAthleteIDFromURI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		uri     string
		want    int64
		wantErr bool
	}{
		{"club://athletes/42/profile", 42, false},
		{"club://athletes/abc/profile", 0, true},
		{"club://athletes/0/profile", 0, true},
		{"club://athletes/42", 0, true},
		{"strava://athletes/42/profile", 0, true},
	}

	for _, tc := range tests {
		got, err := athleteIDFromURI(tc.uri)
		if (err != nil) != tc.wantErr {
			t.Errorf("athleteIDFromURI(%q): unexpected error state %v", tc.uri, err)
			continue
		}
		if got != tc.want {
			t.Errorf("athleteIDFromURI(%q): expected %d, got %d", tc.uri, tc.want, got)
		}
	}
}

func TestPrompts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	res, err := f.srv.weeklyClubReviewPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{
		Arguments: map[string]string{"type": "Run"},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := res.Messages[0].Content.(*mcp.TextContent).Text
	if !strings.Contains(text, `type="Run"`) {
		t.Errorf("expected type argument in prompt, got %s", text)
	}

	_, err = f.srv.athleteCheckinPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{}})
	assertCode(t, err, ErrInvalidInput)
}

func TestToolErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		code ErrorCode
	}{
		{"not found", club.ErrAthleteNotFound, ErrNotFound},
		{"store not found", store.ErrNotFound, ErrNotFound},
		{"invalid", club.ErrInvalidInput, ErrInvalidInput},
		{"in progress", workers.ErrSyncInProgress, ErrConflict},
		{"queue full", workers.ErrQueueFull, ErrInternalError},
		{"passthrough", NewInvalidInputError("bad"), ErrInvalidInput},
		{"other", errors.New("disk I/O error"), ErrDatabaseError},
	}

	for _, tc := range tests {
		if got := toolError("op", 1, tc.err); got.Code != tc.code {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.code, got.Code)
		}
	}
}

func TestLeaderboardInsights(t *testing.T) {
	t.Parallel()

	empty := LeaderboardInsights(club.Leaderboard{Entries: []stats.Entry{{AthleteID: 1}}})
	if len(empty) != 1 || empty[0].Type != "participation" {
		t.Errorf("expected participation insight, got %+v", empty)
	}

	tight := LeaderboardInsights(club.Leaderboard{Entries: []stats.Entry{
		{DisplayName: "A", Score: 10, ActivityCount: 1},
		{DisplayName: "B", Score: 9, ActivityCount: 1},
	}})
	if len(tight) != 2 || !strings.HasPrefix(tight[1].Message, "Tight race") {
		t.Errorf("expected tight race insight, got %+v", tight)
	}
}
