package strava

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClientWithBaseURL(server.URL).WithRetryConfig(3, 5*time.Millisecond, 20*time.Millisecond)
}

func TestNewClient(t *testing.T) {
	client := NewClient()

	assert.Equal(t, baseURL, client.baseURL)
	assert.Equal(t, oauthURL, client.oauthURL)
	require.NotNil(t, client.httpClient)
	assert.Equal(t, defaultMaxRetries, client.httpClient.RetryMax)
}

func TestFetchAllActivities(t *testing.T) {
	page1 := []Activity{
		{ID: 1, Name: "Morning Run", Distance: 5000, Type: "Run"},
		{ID: 2, Name: "Evening Ride", Distance: 20000, Type: "Ride"},
	}
	page2 := []Activity{{ID: 3, Name: "Swim", Distance: 1500, Type: "Swim"}}

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer athlete-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/athlete/activities", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("after"))

		var activities []Activity
		switch r.URL.Query().Get("page") {
		case "1":
			activities = page1
		case "2":
			activities = page2
		default:
			activities = []Activity{}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-RateLimit-Limit", "100,1000")
		w.Header().Set("X-RateLimit-Usage", "5,50")
		_ = json.NewEncoder(w).Encode(activities)
	})

	var progress []FetchResult
	activities, err := client.FetchAllActivities(context.Background(), "athlete-token", func(r FetchResult) {
		progress = append(progress, r)
	})
	require.NoError(t, err)
	assert.Len(t, activities, 3)

	// the trailing empty page is reported too
	require.Len(t, progress, 3)
	assert.Equal(t, 1, progress[0].Page)
	assert.Equal(t, 2, progress[0].TotalFetched)
	assert.Equal(t, 3, progress[1].TotalFetched)
	assert.Empty(t, progress[2].Activities)
	assert.Equal(t, 100, progress[0].RateLimit.Limit15Min)
	assert.Equal(t, 5, progress[0].RateLimit.Usage15Min)
	assert.Equal(t, 1000, client.GetRateLimit().LimitDaily)
}

func TestFetchActivitiesSince(t *testing.T) {
	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1709251200", r.URL.Query().Get("after"))
		assert.Equal(t, "200", r.URL.Query().Get("per_page"))
		if r.URL.Query().Get("page") == "1" {
			_ = json.NewEncoder(w).Encode([]Activity{{ID: 1, Name: "Recent Run", Type: "Run"}})
			return
		}
		_ = json.NewEncoder(w).Encode([]Activity{})
	})

	activities, err := client.FetchActivitiesSince(context.Background(), "tok", since, nil)
	require.NoError(t, err)
	assert.Len(t, activities, 1)
}

func TestFetchUnauthorizedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.FetchAllActivities(context.Background(), "revoked", nil)
	assert.True(t, errors.Is(err, ErrUnauthorized), "got %v", err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchRateLimitedRetries(t *testing.T) {
	var page1Calls atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			if page1Calls.Add(1) <= 2 {
				w.Header().Set("Retry-After", "0")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_ = json.NewEncoder(w).Encode([]Activity{{ID: 1}})
			return
		}
		_ = json.NewEncoder(w).Encode([]Activity{})
	})

	activities, err := client.FetchAllActivities(context.Background(), "tok", nil)
	require.NoError(t, err)
	assert.Len(t, activities, 1)
	assert.Equal(t, int32(3), page1Calls.Load())
}

func TestFetchRateLimitedExhausted(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.Header().Set("X-RateLimit-Limit", "100,1000")
		w.Header().Set("X-RateLimit-Usage", "100,400")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.FetchAthlete(context.Background(), "tok")
	assert.True(t, errors.Is(err, ErrRateLimited), "got %v", err)
	assert.True(t, client.GetRateLimit().IsRateLimited)
}

func TestFetchServerErrorRetries(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(Athlete{ID: 9})
	})

	athlete, err := client.FetchAthlete(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(9), athlete.ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchContextCancellation(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		// never-ending pagination
		_ = json.NewEncoder(w).Encode([]Activity{{ID: 1}})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.FetchAllActivities(ctx, "tok", nil)
	assert.Error(t, err)
}

func TestFetchAthlete(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/athlete", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": 42, "username": "ada", "firstname": "Ada", "lastname": "Obi",
			"profile": "https://img/42.jpg", "city": "Lagos", "state": "LA", "country": "Nigeria",
			"sex": "F", "weight": 61.5, "premium": true
		}`))
	})

	athlete, err := client.FetchAthlete(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, Athlete{
		ID: 42, Username: "ada", FirstName: "Ada", LastName: "Obi", Profile: "https://img/42.jpg",
		City: "Lagos", State: "LA", Country: "Nigeria", Sex: "F", Weight: 61.5, Premium: true,
	}, athlete)
}

func TestFetchAthleteStats(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/athletes/42/stats", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"biggest_ride_distance": 120500.5,
			"biggest_climb_elevation_gain": null,
			"recent_run_totals": {"count": 4, "distance": 32000, "moving_time": 10000, "elapsed_time": 11000, "elevation_gain": 210, "achievement_count": 3},
			"all_ride_totals": {"count": 90, "distance": 4500000, "moving_time": 600000, "elapsed_time": 700000, "elevation_gain": 38000}
		}`))
	})

	st, err := client.FetchAthleteStats(context.Background(), "tok", 42)
	require.NoError(t, err)
	require.NotNil(t, st.BiggestRideDistance)
	assert.Equal(t, 120500.5, *st.BiggestRideDistance)
	assert.Nil(t, st.BiggestClimbElevationGain)

	totals := st.Totals()
	require.Len(t, totals, 9)
	assert.Equal(t, "recent", totals[1].Scope)
	assert.Equal(t, "run", totals[1].Sport)
	assert.Equal(t, int64(4), totals[1].Count)
	assert.Equal(t, int64(3), totals[1].AchievementCount)
	assert.Equal(t, "all", totals[6].Scope)
	assert.Equal(t, "ride", totals[6].Sport)
	assert.Equal(t, 38000.0, totals[6].ElevationGain)
	assert.Zero(t, totals[8].Count)
}

func TestDeauthorize(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/oauth/deauthorize", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "tok", r.PostForm.Get("access_token"))
		_, _ = w.Write([]byte(`{"access_token":"tok"}`))
	})

	assert.NoError(t, client.Deauthorize(context.Background(), "tok"))
}

func TestDeauthorizeUnauthorized(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := client.Deauthorize(context.Background(), "stale")
	assert.True(t, errors.Is(err, ErrUnauthorized), "got %v", err)
}

func TestActivityJSONUnmarshal(t *testing.T) {
	data := `{
		"id": 12345,
		"name": "Morning Run",
		"distance": 5000.5,
		"moving_time": 1800,
		"elapsed_time": 2000,
		"total_elevation_gain": 50.5,
		"type": "Run",
		"sport_type": "TrailRun",
		"start_date": "2024-01-15T08:00:00Z",
		"start_date_local": "2024-01-15T09:00:00Z",
		"timezone": "(GMT+01:00) Europe/Paris",
		"average_speed": 2.78,
		"max_speed": 4.5,
		"has_heartrate": true,
		"average_heartrate": 145.0,
		"max_heartrate": 175.0,
		"kudos_count": 7,
		"athlete": {"id": 42}
	}`

	var a Activity
	require.NoError(t, json.Unmarshal([]byte(data), &a))

	assert.Equal(t, int64(12345), a.ID)
	assert.Equal(t, 5000.5, a.Distance)
	assert.Equal(t, int64(1800), a.MovingTime)
	assert.Equal(t, "TrailRun", a.SportType)
	assert.Equal(t, 9, a.StartDateLocal.Hour())
	require.NotNil(t, a.AverageHeartrate)
	assert.Equal(t, 145.0, *a.AverageHeartrate)
	assert.Nil(t, a.Calories)
	assert.Equal(t, int64(7), a.KudosCount)
	assert.Equal(t, int64(42), a.Athlete.ID)
}

func TestFormatHeadersRedactsCredentials(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer secret")
	h.Set("X-RateLimit-Usage", "1,2")

	out := formatHeaders(h)
	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, `Authorization: "[REDACTED]"`)
	assert.Contains(t, out, `X-Ratelimit-Usage: "1,2"`)
	assert.Equal(t, "{}", formatHeaders(nil))
}
