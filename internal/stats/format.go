package stats

import (
	"fmt"
	"strings"
)

// FormatDuration renders seconds as "{h}h {m}m", or "{m}m" under an hour.
func FormatDuration(seconds int64) string {
	if seconds <= 0 {
		return "0m"
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// ActivitySummary is the display shape of a single activity.
type ActivitySummary struct {
	ID                  int64    `json:"id"`
	Name                string   `json:"name"`
	Type                string   `json:"type"`
	SportType           string   `json:"sport_type,omitempty"`
	Category            string   `json:"category"`
	Date                string   `json:"date"`
	StartTimeLocal      string   `json:"start_time_local"`
	Distance            float64  `json:"distance"`
	DistanceKm          float64  `json:"distance_km"`
	MovingTime          int64    `json:"moving_time"`
	MovingTimeFormatted string   `json:"moving_time_formatted"`
	ElapsedTime         int64    `json:"elapsed_time"`
	ElevationGain       float64  `json:"elevation_gain"`
	AverageSpeed        *float64 `json:"average_speed,omitempty"`
	MaxSpeed            *float64 `json:"max_speed,omitempty"`
	AverageHeartrate    *float64 `json:"average_heartrate,omitempty"`
	MaxHeartrate        *float64 `json:"max_heartrate,omitempty"`
	Calories            *float64 `json:"calories,omitempty"`
	KudosCount          int64    `json:"kudos_count"`
}

// Summarize converts an activity to its display shape.
func Summarize(a Activity) ActivitySummary {
	return ActivitySummary{
		ID:                  a.ID,
		Name:                a.Name,
		Type:                a.Type,
		SportType:           a.SportType,
		Category:            Categorize(a),
		Date:                a.LocalDate(),
		StartTimeLocal:      wallClock(a.StartTimeLocal).Format("2006-01-02T15:04:05"),
		Distance:            a.DistanceMeters,
		DistanceKm:          round2(a.DistanceMeters / 1000),
		MovingTime:          a.MovingTimeSeconds,
		MovingTimeFormatted: FormatDuration(a.MovingTimeSeconds),
		ElapsedTime:         a.ElapsedTimeSeconds,
		ElevationGain:       a.ElevationGainMeters,
		AverageSpeed:        a.AverageSpeed,
		MaxSpeed:            a.MaxSpeed,
		AverageHeartrate:    a.AverageHeartrate,
		MaxHeartrate:        a.MaxHeartrate,
		Calories:            a.Calories,
		KudosCount:          a.KudosCount,
	}
}

// Summaries formats activities newest first.
func Summaries(activities []Activity) []ActivitySummary {
	ordered := canonicalOrder(activities)
	out := make([]ActivitySummary, 0, len(ordered))
	for i := len(ordered) - 1; i >= 0; i-- {
		out = append(out, Summarize(ordered[i]))
	}
	return out
}

// Categorize labels walks and runs as morning or evening sessions, using the
// activity name first and the local start hour second.
func Categorize(a Activity) string {
	name := strings.ToLower(a.Name)
	kind := strings.ToLower(a.Type)
	hour := a.StartTimeLocal.Hour()
	hasStart := !a.StartTimeLocal.IsZero()

	isWalk := kind == "walk" || strings.Contains(name, "walk")
	isRun := kind == "run" || strings.Contains(name, "run")

	if strings.Contains(name, "morning") || (hasStart && hour < 12) {
		if isWalk {
			return "Morning Walk"
		}
		if isRun {
			return "Morning Run"
		}
	}
	if strings.Contains(name, "evening") || (hasStart && hour >= 17) {
		if isWalk {
			return "Evening Walk"
		}
		if isRun {
			return "Evening Run"
		}
	}

	if a.Type == "" {
		return "Other"
	}
	return a.Type
}
