package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Period selects the leaderboard look-back window.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// ErrInvalidPeriod is returned by ParsePeriod for unknown period names.
var ErrInvalidPeriod = errors.New("invalid period")

// ParsePeriod accepts week, month and all plus the 7days, 30days and alltime
// aliases. An empty string selects the week.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "week", "7days":
		return PeriodWeek, nil
	case "month", "30days":
		return PeriodMonth, nil
	case "all", "alltime", "all-time":
		return PeriodAll, nil
	default:
		return "", fmt.Errorf("%w: %q (expected week, month or all)", ErrInvalidPeriod, s)
	}
}

// Start returns the inclusive lower bound for the period, or the zero time for PeriodAll.
func (p Period) Start(now time.Time) time.Time {
	switch p {
	case PeriodWeek:
		return now.Add(-7 * 24 * time.Hour)
	case PeriodMonth:
		return now.Add(-30 * 24 * time.Hour)
	default:
		return time.Time{}
	}
}

// typeAliases is keyed by lower-cased filter.
var typeAliases = map[string]string{
	"running":    "Run",
	"walking":    "Walk",
	"cycling":    "Ride",
	"cycle ride": "Ride",
}

// NormalizeType maps a user-facing type filter to a stored activity type.
// The empty result means no type filter.
func NormalizeType(filter string) string {
	filter = strings.TrimSpace(filter)
	if filter == "" || strings.EqualFold(filter, "all") {
		return ""
	}
	if alias, ok := typeAliases[strings.ToLower(filter)]; ok {
		return alias
	}
	return filter
}

// Query parameterizes a leaderboard computation.
type Query struct {
	Period Period
	Type   string
	Now    time.Time
}

// Entry is one ranked athlete.
type Entry struct {
	Rank                     int     `json:"rank"`
	AthleteID                int64   `json:"athlete_id"`
	DisplayName              string  `json:"display_name"`
	City                     string  `json:"city,omitempty"`
	ProfileImage             string  `json:"profile_image,omitempty"`
	TotalDistanceKm          float64 `json:"total_distance_km"`
	TotalTimeMinutes         int64   `json:"total_time_minutes"`
	TotalElevationGainMeters int64   `json:"total_elevation_gain_meters"`
	CaloriesBurned           int64   `json:"calories_burned"`
	ActivityCount            int     `json:"activity_count"`
	WorkoutDays              int     `json:"workout_days"`
	Score                    float64 `json:"score"`

	score float64
}

// Score weights distance in km, two points per activity and one per hour.
func Score(distanceKm float64, activityCount int, movingSeconds int64) float64 {
	return distanceKm + float64(activityCount)*2 + float64(movingSeconds)/3600
}

// Rank scores every athlete over the activities matching q and returns them
// ordered by score descending, ties broken by ascending athlete id. Athletes
// without matching activities are ranked with a zero score.
func Rank(athletes []Athlete, activitiesByAthlete map[int64][]Activity, q Query) []Entry {
	start := q.Period.Start(q.Now)
	typeFilter := NormalizeType(q.Type)

	entries := make([]Entry, 0, len(athletes))
	for _, athlete := range athletes {
		entries = append(entries, score(athlete, activitiesByAthlete[athlete.ID], start, typeFilter))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].AthleteID < entries[j].AthleteID
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func score(athlete Athlete, activities []Activity, start time.Time, typeFilter string) Entry {
	weight := athlete.WeightOrDefault()

	var meters, elevation, calories float64
	var seconds int64
	var count int
	days := map[string]struct{}{}

	for _, a := range activities {
		if !start.IsZero() && a.StartTime.Before(start) {
			continue
		}
		if typeFilter != "" && a.Type != typeFilter {
			continue
		}
		count++
		meters += a.DistanceMeters
		seconds += a.MovingTimeSeconds
		elevation += a.ElevationGainMeters
		calories += EstimateActivityCalories(a, weight)
		days[a.LocalDate()] = struct{}{}
	}

	km := meters / 1000
	s := Score(km, count, seconds)

	return Entry{
		AthleteID:                athlete.ID,
		DisplayName:              athlete.DisplayName(),
		City:                     athlete.City,
		ProfileImage:             athlete.ProfileImage,
		TotalDistanceKm:          round2(km),
		TotalTimeMinutes:         int64(math.Round(float64(seconds) / 60)),
		TotalElevationGainMeters: int64(math.Round(elevation)),
		CaloriesBurned:           int64(math.Round(calories)),
		ActivityCount:            count,
		WorkoutDays:              len(days),
		Score:                    round2(s),
		score:                    s,
	}
}

// Podium splits ranked entries into the first n and the rest.
func Podium(entries []Entry, n int) (top, others []Entry) {
	if n > len(entries) {
		n = len(entries)
	}
	if n < 0 {
		n = 0
	}
	return entries[:n:n], entries[n:]
}

// Position is one athlete's place in a ranked list.
type Position struct {
	Rank              int   `json:"rank"`
	TotalParticipants int   `json:"total_participants"`
	Entry             Entry `json:"entry"`
}

// FindRank locates athleteID in ranked entries.
func FindRank(entries []Entry, athleteID int64) (Position, bool) {
	for _, e := range entries {
		if e.AthleteID == athleteID {
			return Position{Rank: e.Rank, TotalParticipants: len(entries), Entry: e}, true
		}
	}
	return Position{}, false
}
