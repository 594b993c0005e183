package strava

import "time"

// Activity is a summary activity as returned by /athlete/activities.
// Heart rate and calories are omitted upstream when the device did not record them.
type Activity struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Distance           float64   `json:"distance"`
	MovingTime         int64     `json:"moving_time"`
	ElapsedTime        int64     `json:"elapsed_time"`
	TotalElevationGain float64   `json:"total_elevation_gain"`
	Type               string    `json:"type"`
	SportType          string    `json:"sport_type"`
	StartDate          time.Time `json:"start_date"`
	StartDateLocal     time.Time `json:"start_date_local"`
	Timezone           string    `json:"timezone"`
	AverageSpeed       float64   `json:"average_speed"`
	MaxSpeed           float64   `json:"max_speed"`
	HasHeartrate       bool      `json:"has_heartrate"`
	AverageHeartrate   *float64  `json:"average_heartrate,omitempty"`
	MaxHeartrate       *float64  `json:"max_heartrate,omitempty"`
	Calories           *float64  `json:"calories,omitempty"`
	KudosCount         int64     `json:"kudos_count"`
	Athlete            struct {
		ID int64 `json:"id"`
	} `json:"athlete"`
}

// Athlete is the authenticated athlete profile.
type Athlete struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	FirstName string  `json:"firstname"`
	LastName  string  `json:"lastname"`
	Profile   string  `json:"profile"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Country   string  `json:"country"`
	Sex       string  `json:"sex"`
	Weight    float64 `json:"weight"`
	Premium   bool    `json:"premium"`
}

// ActivityTotal is one rolled-up block of /athletes/{id}/stats.
type ActivityTotal struct {
	Count            int64   `json:"count"`
	Distance         float64 `json:"distance"`
	MovingTime       int64   `json:"moving_time"`
	ElapsedTime      int64   `json:"elapsed_time"`
	ElevationGain    float64 `json:"elevation_gain"`
	AchievementCount int64   `json:"achievement_count"`
}

// AthleteStats is the upstream stats summary for an athlete.
type AthleteStats struct {
	BiggestRideDistance       *float64      `json:"biggest_ride_distance"`
	BiggestClimbElevationGain *float64      `json:"biggest_climb_elevation_gain"`
	RecentRideTotals          ActivityTotal `json:"recent_ride_totals"`
	RecentRunTotals           ActivityTotal `json:"recent_run_totals"`
	RecentSwimTotals          ActivityTotal `json:"recent_swim_totals"`
	YTDRideTotals             ActivityTotal `json:"ytd_ride_totals"`
	YTDRunTotals              ActivityTotal `json:"ytd_run_totals"`
	YTDSwimTotals             ActivityTotal `json:"ytd_swim_totals"`
	AllRideTotals             ActivityTotal `json:"all_ride_totals"`
	AllRunTotals              ActivityTotal `json:"all_run_totals"`
	AllSwimTotals             ActivityTotal `json:"all_swim_totals"`
}

// ScopedTotal labels an ActivityTotal with its scope (recent, ytd, all) and sport (ride, run, swim).
type ScopedTotal struct {
	Scope string
	Sport string
	ActivityTotal
}

// Totals flattens the nine rolled-up blocks in a stable order.
func (s AthleteStats) Totals() []ScopedTotal {
	return []ScopedTotal{
		{"recent", "ride", s.RecentRideTotals},
		{"recent", "run", s.RecentRunTotals},
		{"recent", "swim", s.RecentSwimTotals},
		{"ytd", "ride", s.YTDRideTotals},
		{"ytd", "run", s.YTDRunTotals},
		{"ytd", "swim", s.YTDSwimTotals},
		{"all", "ride", s.AllRideTotals},
		{"all", "run", s.AllRunTotals},
		{"all", "swim", s.AllSwimTotals},
	}
}
