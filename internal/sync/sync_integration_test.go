//go:build integration

package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifitclub/clubstats/internal/club"
	"github.com/ifitclub/clubstats/internal/strava"
)

func TestSyncIntegration(t *testing.T) {
	hr := 145.0
	activities := []strava.Activity{
		{
			ID: 1, Name: "Morning Run", Distance: 5000, MovingTime: 1800, ElapsedTime: 2000,
			TotalElevationGain: 50, Type: "Run", SportType: "Run",
			StartDate:      syncNow.Add(-26 * time.Hour),
			StartDateLocal: syncNow.Add(-25 * time.Hour),
			AverageSpeed:   2.78, HasHeartrate: true, AverageHeartrate: &hr,
		},
		{
			ID: 2, Name: "Evening Ride", Distance: 25000, MovingTime: 3600, ElapsedTime: 4000,
			TotalElevationGain: 200, Type: "Ride", SportType: "Ride",
			StartDate:      syncNow.Add(-50 * time.Hour),
			StartDateLocal: syncNow.Add(-49 * time.Hour),
			AverageSpeed:   6.94,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/athlete", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(strava.Athlete{ID: 7, FirstName: "Ada", LastName: "Obi", City: "Lagos"})
	})
	mux.HandleFunc("/athletes/7/stats", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(strava.AthleteStats{AllRunTotals: strava.ActivityTotal{Count: 1, Distance: 5000}})
	})
	mux.HandleFunc("/athlete/activities", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "100,1000")
		w.Header().Set("X-RateLimit-Usage", "3,30")
		if r.URL.Query().Get("page") == "1" {
			_ = json.NewEncoder(w).Encode(activities)
			return
		}
		_ = json.NewEncoder(w).Encode([]strava.Activity{})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := strava.NewClientWithBaseURL(server.URL).WithRetryConfig(2, 10*time.Millisecond, 50*time.Millisecond)
	svc, st := setupService(t, client, staticTokens{7: "tok"})

	ctx := context.Background()
	entry, err := svc.Run(ctx, 7, false)
	require.NoError(t, err)
	assert.Equal(t, 2, entry.NewActivities)

	views := club.NewService(st, club.WithClock(func() time.Time { return syncNow }))
	board, err := views.Leaderboard(ctx, "week", "")
	require.NoError(t, err)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "Ada Obi", board.Entries[0].DisplayName)
	assert.Equal(t, 2, board.Entries[0].ActivityCount)
	assert.Equal(t, 30.0, board.Entries[0].TotalDistanceKm)
}
