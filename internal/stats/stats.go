// Package stats holds the pure aggregation core: totals, calorie estimates,
// calendar buckets and leaderboard ranking. Nothing here performs I/O or logs.
package stats

import (
	"math"
	"sort"
)

const metersPerMile = 1609.34

// TypeTotals is the per activity type breakdown of an Aggregate.
type TypeTotals struct {
	Count         int     `json:"count"`
	Distance      float64 `json:"distance"`
	MovingTime    int64   `json:"moving_time"`
	ElevationGain float64 `json:"elevation_gain"`
}

// Aggregate summarizes a set of activities.
type Aggregate struct {
	TotalActivities          int                   `json:"total_activities"`
	TotalDistanceMeters      float64               `json:"total_distance_meters"`
	TotalDistance            int64                 `json:"total_distance"`
	TotalDistanceKm          float64               `json:"total_distance_km"`
	TotalDistanceMiles       float64               `json:"total_distance_miles"`
	TotalMovingTime          int64                 `json:"total_moving_time"`
	TotalMovingTimeFormatted string                `json:"total_moving_time_formatted"`
	TotalElapsedTime         int64                 `json:"total_elapsed_time"`
	TotalElevationGain       int64                 `json:"total_elevation_gain"`
	TotalCalories            int64                 `json:"total_calories"`
	AverageSpeed             float64               `json:"average_speed"`
	MaxSpeed                 float64               `json:"max_speed"`
	AverageHeartrate         *float64              `json:"average_heartrate"`
	MaxHeartrate             *float64              `json:"max_heartrate"`
	ByType                   map[string]TypeTotals `json:"by_type"`
}

// Compute aggregates activities. An empty input yields zero totals, "0h 0m",
// nil heart rate fields and an empty ByType map.
func Compute(activities []Activity) Aggregate {
	agg := Aggregate{
		TotalMovingTimeFormatted: "0h 0m",
		ByType:                   map[string]TypeTotals{},
	}
	if len(activities) == 0 {
		return agg
	}

	// Summing in a canonical order keeps float totals independent of input order.
	ordered := canonicalOrder(activities)

	var elevation, calories, speedSum, maxSpeed float64
	var hrSum, maxHR float64
	var hrCount int
	for _, a := range ordered {
		agg.TotalDistanceMeters += a.DistanceMeters
		agg.TotalMovingTime += a.MovingTimeSeconds
		agg.TotalElapsedTime += a.ElapsedTimeSeconds
		elevation += a.ElevationGainMeters
		calories += value(a.Calories)
		speedSum += value(a.AverageSpeed)
		if v := value(a.MaxSpeed); v > maxSpeed {
			maxSpeed = v
		}
		if hr := value(a.AverageHeartrate); hr > 0 {
			hrSum += hr
			hrCount++
			if m := value(a.MaxHeartrate); m > maxHR {
				maxHR = m
			}
		}

		t := agg.ByType[a.Type]
		t.Count++
		t.Distance += a.DistanceMeters
		t.MovingTime += a.MovingTimeSeconds
		t.ElevationGain += a.ElevationGainMeters
		agg.ByType[a.Type] = t
	}

	agg.TotalActivities = len(ordered)
	agg.TotalDistance = int64(math.Round(agg.TotalDistanceMeters))
	agg.TotalDistanceKm = round2(agg.TotalDistanceMeters / 1000)
	agg.TotalDistanceMiles = round2(agg.TotalDistanceMeters / metersPerMile)
	agg.TotalMovingTimeFormatted = FormatDuration(agg.TotalMovingTime)
	agg.TotalElevationGain = int64(math.Round(elevation))
	agg.TotalCalories = int64(math.Round(calories))
	agg.AverageSpeed = round2(speedSum / float64(len(ordered)))
	agg.MaxSpeed = round2(maxSpeed)

	if hrCount > 0 {
		avg := math.Round(hrSum / float64(hrCount))
		agg.AverageHeartrate = &avg
		if maxHR > 0 {
			m := math.Round(maxHR)
			agg.MaxHeartrate = &m
		}
	}

	return agg
}

// canonicalOrder returns a copy of activities sorted by start time then id.
func canonicalOrder(activities []Activity) []Activity {
	ordered := make([]Activity, len(activities))
	copy(ordered, activities)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].StartTime.Equal(ordered[j].StartTime) {
			return ordered[i].StartTime.Before(ordered[j].StartTime)
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
