package stats

import (
	"strings"
	"time"
)

// DefaultWeightKg is used for calorie estimates when an athlete has no recorded weight.
const DefaultWeightKg = 70.0

// Activity is the normalized activity shape the calculators operate on.
// StartTimeLocal holds the athlete's wall-clock start; only its date and
// clock fields are meaningful, its Location is ignored.
type Activity struct {
	ID                  int64
	AthleteID           int64
	Name                string
	Type                string
	SportType           string
	DistanceMeters      float64
	MovingTimeSeconds   int64
	ElapsedTimeSeconds  int64
	ElevationGainMeters float64
	StartTime           time.Time
	StartTimeLocal      time.Time
	AverageSpeed        *float64
	MaxSpeed            *float64
	AverageHeartrate    *float64
	MaxHeartrate        *float64
	Calories            *float64
	KudosCount          int64
}

// Athlete is the normalized athlete shape used for ranking.
type Athlete struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	City         string
	State        string
	Country      string
	ProfileImage string
	WeightKg     *float64
}

// WeightOrDefault returns the athlete's weight, or DefaultWeightKg when unset.
func (a Athlete) WeightOrDefault() float64 {
	if a.WeightKg == nil || *a.WeightKg <= 0 {
		return DefaultWeightKg
	}
	return *a.WeightKg
}

// DisplayName returns "First Last", falling back to the username.
func (a Athlete) DisplayName() string {
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	if name != "" {
		return name
	}
	return a.Username
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// wallClock drops the location of t, keeping its calendar and clock fields.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// LocalDate returns the YYYY-MM-DD calendar date of the activity in the athlete's zone.
func (a Activity) LocalDate() string {
	return a.StartTimeLocal.Format(time.DateOnly)
}
