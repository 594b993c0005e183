package stats

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 {
	return &v
}

func at(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func TestComputeEmpty(t *testing.T) {
	t.Parallel()

	for _, in := range [][]Activity{nil, {}} {
		agg := Compute(in)
		assert.Equal(t, 0, agg.TotalActivities)
		assert.Equal(t, int64(0), agg.TotalDistance)
		assert.Equal(t, 0.0, agg.TotalDistanceKm)
		assert.Equal(t, 0.0, agg.TotalDistanceMiles)
		assert.Equal(t, int64(0), agg.TotalMovingTime)
		assert.Equal(t, "0h 0m", agg.TotalMovingTimeFormatted)
		assert.Equal(t, int64(0), agg.TotalElapsedTime)
		assert.Equal(t, int64(0), agg.TotalElevationGain)
		assert.Equal(t, int64(0), agg.TotalCalories)
		assert.Equal(t, 0.0, agg.AverageSpeed)
		assert.Equal(t, 0.0, agg.MaxSpeed)
		assert.Nil(t, agg.AverageHeartrate)
		assert.Nil(t, agg.MaxHeartrate)
		require.NotNil(t, agg.ByType)
		assert.Empty(t, agg.ByType)
	}
}

func TestComputeSingleRun(t *testing.T) {
	t.Parallel()

	agg := Compute([]Activity{{
		ID:                1,
		Type:              "Run",
		DistanceMeters:    5000,
		MovingTimeSeconds: 1800,
		StartTime:         at(2024, 3, 12, 7),
		StartTimeLocal:    at(2024, 3, 12, 8),
	}})

	assert.Equal(t, 5.0, agg.TotalDistanceKm)
	assert.Equal(t, int64(5000), agg.TotalDistance)
	assert.Equal(t, 3.11, agg.TotalDistanceMiles)
	assert.Equal(t, "30m", agg.TotalMovingTimeFormatted)
	assert.Nil(t, agg.AverageHeartrate)
	assert.Nil(t, agg.MaxHeartrate)
	assert.Equal(t, int64(0), agg.TotalCalories)
	assert.Equal(t, TypeTotals{Count: 1, Distance: 5000, MovingTime: 1800}, agg.ByType["Run"])
}

func TestComputeTotals(t *testing.T) {
	t.Parallel()

	activities := []Activity{
		{
			ID: 1, Type: "Run", DistanceMeters: 10000.4, MovingTimeSeconds: 3600, ElapsedTimeSeconds: 3700,
			ElevationGainMeters: 40.4, AverageSpeed: ptr(2.8), MaxSpeed: ptr(4.123),
			AverageHeartrate: ptr(150), MaxHeartrate: ptr(171.6), Calories: ptr(700.2),
			StartTime: at(2024, 3, 1, 6),
		},
		{
			ID: 2, Type: "Ride", DistanceMeters: 30000, MovingTimeSeconds: 4000, ElapsedTimeSeconds: 4500,
			ElevationGainMeters: 300, AverageSpeed: ptr(7.5), MaxSpeed: ptr(12.5),
			Calories: ptr(900), StartTime: at(2024, 3, 2, 6),
		},
		{
			ID: 3, Type: "Run", DistanceMeters: 5000, MovingTimeSeconds: 1500, ElapsedTimeSeconds: 1400,
			AverageHeartrate: ptr(141), StartTime: at(2024, 3, 3, 6),
		},
	}

	agg := Compute(activities)

	assert.Equal(t, 3, agg.TotalActivities)
	assert.InDelta(t, 45000.4, agg.TotalDistanceMeters, 1e-9)
	assert.Equal(t, int64(45000), agg.TotalDistance)
	assert.Equal(t, 45.0, agg.TotalDistanceKm)
	assert.Equal(t, int64(9100), agg.TotalMovingTime)
	assert.Equal(t, "2h 31m", agg.TotalMovingTimeFormatted)
	// elapsed shorter than moving is accepted as recorded
	assert.Equal(t, int64(9600), agg.TotalElapsedTime)
	assert.Equal(t, int64(340), agg.TotalElevationGain)
	assert.Equal(t, int64(1600), agg.TotalCalories)
	assert.Equal(t, 3.43, agg.AverageSpeed)
	assert.Equal(t, 12.5, agg.MaxSpeed)

	require.NotNil(t, agg.AverageHeartrate)
	assert.Equal(t, 146.0, *agg.AverageHeartrate)
	require.NotNil(t, agg.MaxHeartrate)
	assert.Equal(t, 172.0, *agg.MaxHeartrate)

	assert.Len(t, agg.ByType, 2)
	assert.Equal(t, 2, agg.ByType["Run"].Count)
	assert.InDelta(t, 15000.4, agg.ByType["Run"].Distance, 1e-9)
	assert.Equal(t, int64(5100), agg.ByType["Run"].MovingTime)
	assert.Equal(t, 1, agg.ByType["Ride"].Count)
}

func TestComputeHeartRateOnlyFromReportingActivities(t *testing.T) {
	t.Parallel()

	agg := Compute([]Activity{
		{ID: 1, Type: "Walk", AverageHeartrate: ptr(0), MaxHeartrate: ptr(0)},
		{ID: 2, Type: "Walk", AverageHeartrate: ptr(110), MaxHeartrate: ptr(130)},
		{ID: 3, Type: "Walk"},
	})

	require.NotNil(t, agg.AverageHeartrate)
	assert.Equal(t, 110.0, *agg.AverageHeartrate)
	require.NotNil(t, agg.MaxHeartrate)
	assert.Equal(t, 130.0, *agg.MaxHeartrate)
}

func TestComputeTotalDistanceMatchesSum(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 20; round++ {
		var activities []Activity
		var want float64
		n := rng.Intn(30)
		for i := 0; i < n; i++ {
			d := float64(rng.Intn(40000))
			want += d
			activities = append(activities, Activity{ID: int64(i), Type: "Run", DistanceMeters: d})
		}
		assert.Equal(t, want, Compute(activities).TotalDistanceMeters)
	}
}

func TestComputeOrderIndependent(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	var activities []Activity
	for i := 0; i < 25; i++ {
		activities = append(activities, Activity{
			ID:                  int64(i + 1),
			Type:                []string{"Run", "Walk", "Ride"}[i%3],
			DistanceMeters:      rng.Float64() * 20000,
			MovingTimeSeconds:   int64(rng.Intn(7200)),
			ElevationGainMeters: rng.Float64() * 200,
			AverageSpeed:        ptr(rng.Float64() * 10),
			AverageHeartrate:    ptr(100 + rng.Float64()*60),
			Calories:            ptr(rng.Float64() * 900),
			StartTime:           at(2024, 1, 1, 0).Add(time.Duration(i) * time.Hour),
		})
	}

	want := Compute(activities)
	for i := 0; i < 10; i++ {
		shuffled := append([]Activity(nil), activities...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Compute(shuffled))
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0m"},
		{59, "0m"},
		{60, "1m"},
		{1800, "30m"},
		{3600, "1h 0m"},
		{5400, "1h 30m"},
		{90061, "25h 1m"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.seconds), "seconds=%d", tt.seconds)
	}
}
