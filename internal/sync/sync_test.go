package sync

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/ifitclub/clubstats/internal/db"
	"github.com/ifitclub/clubstats/internal/store"
	"github.com/ifitclub/clubstats/internal/strava"
)

type mockUpstream struct {
	mock.Mock
}

func (m *mockUpstream) FetchAthlete(ctx context.Context, token string) (strava.Athlete, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(strava.Athlete), args.Error(1)
}

func (m *mockUpstream) FetchAthleteStats(ctx context.Context, token string, athleteID int64) (strava.AthleteStats, error) {
	args := m.Called(ctx, token, athleteID)
	return args.Get(0).(strava.AthleteStats), args.Error(1)
}

func (m *mockUpstream) FetchAllActivities(ctx context.Context, token string, progress strava.ProgressCallback) ([]strava.Activity, error) {
	args := m.Called(ctx, token, mock.Anything)
	return args.Get(0).([]strava.Activity), args.Error(1)
}

func (m *mockUpstream) FetchActivitiesSince(ctx context.Context, token string, since time.Time, progress strava.ProgressCallback) ([]strava.Activity, error) {
	args := m.Called(ctx, token, since, mock.Anything)
	return args.Get(0).([]strava.Activity), args.Error(1)
}

func (m *mockUpstream) Deauthorize(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type staticTokens map[int64]string

func (s staticTokens) GetValidAccessToken(_ context.Context, athleteID int64) (string, error) {
	tok, ok := s[athleteID]
	if !ok {
		return "", errors.New("not connected")
	}
	return tok, nil
}

var syncNow = time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC)

func setupService(t *testing.T, up Upstream, tokens TokenSource) (*Service, *store.Store) {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	_, err = db.Migrate(context.Background(), sqlDB)
	require.NoError(t, err)

	st := store.New(sqlDB)
	svc := NewService(st, up, tokens, zerolog.Nop())
	svc.now = func() time.Time { return syncNow }
	return svc, st
}

func upstreamActivity(id int64, name string, start time.Time) strava.Activity {
	return strava.Activity{
		ID: id, Name: name, Type: "Run", Distance: 5000, MovingTime: 1500, ElapsedTime: 1600,
		StartDate: start, StartDateLocal: start.Add(time.Hour), AverageSpeed: 3.3,
	}
}

func fullStats() strava.AthleteStats {
	ride := 80000.0
	return strava.AthleteStats{
		BiggestRideDistance: &ride,
		AllRunTotals:        strava.ActivityTotal{Count: 12, Distance: 60000},
	}
}

func TestFullSyncRecordsCounts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	up := &mockUpstream{}
	up.On("FetchAthlete", mock.Anything, "tok").Return(strava.Athlete{ID: 7, FirstName: "Ada", City: "Lagos", Weight: 61}, nil)
	up.On("FetchAthleteStats", mock.Anything, "tok", int64(7)).Return(fullStats(), nil)
	up.On("FetchAllActivities", mock.Anything, "tok", mock.Anything).Return([]strava.Activity{
		upstreamActivity(1, "Morning Run", syncNow.Add(-48*time.Hour)),
		upstreamActivity(2, "Evening Run", syncNow.Add(-24*time.Hour)),
	}, nil)

	svc, st := setupService(t, up, staticTokens{7: "tok"})

	entry, err := svc.Start(ctx, 7, false)
	require.NoError(t, err)
	assert.Equal(t, store.SyncTypeFull, entry.SyncType, "nothing stored yet")
	assert.Equal(t, store.SyncStatusStarted, entry.Status)

	res := svc.Execute(ctx, entry)
	require.NoError(t, res.Err)
	assert.Equal(t, store.SyncStatusCompleted, res.Status)
	assert.Equal(t, 2, res.NewActivities)
	assert.Zero(t, res.UpdatedActivities)

	logged, err := st.GetSyncLog(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, store.SyncStatusCompleted, logged.Status)
	assert.Equal(t, 2, logged.ActivitiesSynced)
	require.NotNil(t, logged.CompletedAt)

	profile, err := st.GetAthlete(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.FirstName)
	require.NotNil(t, profile.WeightKg)
	assert.Equal(t, 61.0, *profile.WeightKg)
	require.NotNil(t, profile.LastSyncAt)
	assert.True(t, profile.LastSyncAt.Equal(syncNow))

	snap, ok, err := st.GetSnapshot(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 80000.0, *snap.BiggestRideDistance)
	assert.Len(t, snap.Totals, 9)

	up.AssertExpectations(t)
}

func TestIncrementalSyncCountsUpdates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	latest := syncNow.Add(-24 * time.Hour)
	up := &mockUpstream{}
	up.On("FetchAthlete", mock.Anything, "tok").Return(strava.Athlete{ID: 7}, nil)
	up.On("FetchAthleteStats", mock.Anything, "tok", int64(7)).Return(strava.AthleteStats{}, nil)
	sinceLatest := mock.MatchedBy(func(since time.Time) bool { return since.Equal(latest) })
	up.On("FetchActivitiesSince", mock.Anything, "tok", sinceLatest, mock.Anything).Return([]strava.Activity{
		upstreamActivity(2, "Evening Run (edited)", latest),
		upstreamActivity(3, "Lunch Run", syncNow.Add(-time.Hour)),
	}, nil)

	svc, st := setupService(t, up, staticTokens{7: "tok"})
	_, err := st.UpsertActivity(ctx, ConvertActivity(upstreamActivity(2, "Evening Run", latest), 7))
	require.NoError(t, err)

	entry, err := svc.Run(ctx, 7, false)
	require.NoError(t, err)
	assert.Equal(t, store.SyncTypeIncremental, entry.SyncType)
	assert.Equal(t, store.SyncStatusCompleted, entry.Status)
	assert.Equal(t, 2, entry.ActivitiesSynced)
	assert.Equal(t, 1, entry.NewActivities)
	assert.Equal(t, 1, entry.UpdatedActivities)

	up.AssertNotCalled(t, "FetchAllActivities", mock.Anything, mock.Anything, mock.Anything)
}

func TestForcedFullSync(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, st := setupService(t, &mockUpstream{}, staticTokens{})
	_, err := st.UpsertActivity(ctx, ConvertActivity(upstreamActivity(2, "Run", syncNow), 7))
	require.NoError(t, err)

	entry, err := svc.Start(ctx, 7, true)
	require.NoError(t, err)
	assert.Equal(t, store.SyncTypeFull, entry.SyncType)
}

func TestSyncFailureIsRecorded(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	up := &mockUpstream{}
	up.On("FetchAthlete", mock.Anything, "tok").Return(strava.Athlete{ID: 7}, nil)
	up.On("FetchAthleteStats", mock.Anything, "tok", int64(7)).Return(strava.AthleteStats{}, nil)
	up.On("FetchAllActivities", mock.Anything, "tok", mock.Anything).
		Return([]strava.Activity(nil), strava.ErrRateLimited)

	svc, st := setupService(t, up, staticTokens{7: "tok"})

	entry, err := svc.Run(ctx, 7, true)
	assert.True(t, errors.Is(err, strava.ErrRateLimited))
	assert.Equal(t, store.SyncStatusFailed, entry.Status)
	assert.Equal(t, "rate limited", entry.ErrorMessage)
	require.NotNil(t, entry.CompletedAt)

	profile, err := st.GetAthlete(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, profile.LastSyncAt, "failed syncs do not advance last sync")
}

func TestSyncWithoutTokenFails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	up := &mockUpstream{}
	svc, st := setupService(t, up, staticTokens{})

	entry, err := svc.Start(ctx, 9, false)
	require.NoError(t, err)
	res := svc.Execute(ctx, entry)
	assert.Equal(t, store.SyncStatusFailed, res.Status)

	logged, err := st.GetSyncLog(ctx, entry.ID)
	require.NoError(t, err)
	assert.Contains(t, logged.ErrorMessage, "getting access token")
	up.AssertNotCalled(t, "FetchAthlete", mock.Anything, mock.Anything)
}

func TestSyncRejectsForeignToken(t *testing.T) {
	t.Parallel()

	up := &mockUpstream{}
	up.On("FetchAthlete", mock.Anything, "tok").Return(strava.Athlete{ID: 8}, nil)
	svc, _ := setupService(t, up, staticTokens{7: "tok"})

	_, err := svc.Run(context.Background(), 7, true)
	assert.ErrorContains(t, err, "token belongs to athlete 8")
}

func TestFailClosesStartedLog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, st := setupService(t, &mockUpstream{}, staticTokens{})
	entry, err := svc.Start(ctx, 3, false)
	require.NoError(t, err)

	require.NoError(t, svc.Fail(ctx, entry.ID, errors.New("queue full")))
	logged, err := st.GetSyncLog(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, store.SyncStatusFailed, logged.Status)
	assert.Equal(t, "queue full", logged.ErrorMessage)
}

func TestDisconnect(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	up := &mockUpstream{}
	up.On("Deauthorize", mock.Anything, "tok").Return(errors.New("upstream down"))
	svc, st := setupService(t, up, staticTokens{7: "tok"})

	require.NoError(t, svc.RegisterAthlete(ctx, strava.Athlete{ID: 7, FirstName: "Ada"}))
	_, err := st.UpsertActivity(ctx, ConvertActivity(upstreamActivity(1, "Run", syncNow), 7))
	require.NoError(t, err)

	// deauthorize failures do not block local removal
	require.NoError(t, svc.Disconnect(ctx, 7))
	up.AssertExpectations(t)

	_, err = st.GetAthlete(ctx, 7)
	assert.True(t, errors.Is(err, store.ErrNotFound))
	acts, err := st.ListActivities(ctx, 7, store.ActivityFilter{})
	require.NoError(t, err)
	assert.Empty(t, acts)
}

func TestDisconnectUnknownAthlete(t *testing.T) {
	t.Parallel()

	svc, _ := setupService(t, &mockUpstream{}, staticTokens{})
	err := svc.Disconnect(context.Background(), 404)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestIsAuthError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsAuthError(errors.Join(errors.New("fetching athlete"), strava.ErrUnauthorized)))
	assert.False(t, IsAuthError(strava.ErrRateLimited))
}
