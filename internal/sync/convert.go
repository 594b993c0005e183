package sync

import (
	"time"

	"github.com/ifitclub/clubstats/internal/stats"
	"github.com/ifitclub/clubstats/internal/store"
	"github.com/ifitclub/clubstats/internal/strava"
)

// ConvertActivity maps an upstream activity onto the normalized shape.
// Zero speeds and unrecorded heart rate become absent.
func ConvertActivity(a strava.Activity, athleteID int64) stats.Activity {
	out := stats.Activity{
		ID:                  a.ID,
		AthleteID:           athleteID,
		Name:                a.Name,
		Type:                a.Type,
		SportType:           a.SportType,
		DistanceMeters:      a.Distance,
		MovingTimeSeconds:   a.MovingTime,
		ElapsedTimeSeconds:  a.ElapsedTime,
		ElevationGainMeters: a.TotalElevationGain,
		StartTime:           a.StartDate.UTC(),
		StartTimeLocal:      a.StartDateLocal,
		AverageSpeed:        positive(a.AverageSpeed),
		MaxSpeed:            positive(a.MaxSpeed),
		Calories:            a.Calories,
		KudosCount:          a.KudosCount,
	}
	if out.Type == "" {
		out.Type = a.SportType
	}
	if a.HasHeartrate || a.AverageHeartrate != nil {
		out.AverageHeartrate = a.AverageHeartrate
		out.MaxHeartrate = a.MaxHeartrate
	}
	return out
}

// ToProfile maps the upstream athlete onto a stored profile.
func ToProfile(a strava.Athlete) store.AthleteProfile {
	return store.AthleteProfile{
		Athlete: stats.Athlete{
			ID:           a.ID,
			Username:     a.Username,
			FirstName:    a.FirstName,
			LastName:     a.LastName,
			City:         a.City,
			State:        a.State,
			Country:      a.Country,
			ProfileImage: a.Profile,
			WeightKg:     positive(a.Weight),
		},
		Sex:     a.Sex,
		Premium: a.Premium,
	}
}

// ToSnapshot maps the upstream stats summary onto a stored snapshot.
func ToSnapshot(athleteID int64, s strava.AthleteStats, at time.Time) store.Snapshot {
	snap := store.Snapshot{
		AthleteID:                 athleteID,
		BiggestRideDistance:       s.BiggestRideDistance,
		BiggestClimbElevationGain: s.BiggestClimbElevationGain,
		UpdatedAt:                 at.UTC(),
	}
	for _, t := range s.Totals() {
		snap.Totals = append(snap.Totals, store.StatTotals{
			Scope:            t.Scope,
			Sport:            t.Sport,
			Count:            t.Count,
			Distance:         t.Distance,
			MovingTime:       t.MovingTime,
			ElapsedTime:      t.ElapsedTime,
			ElevationGain:    t.ElevationGain,
			AchievementCount: t.AchievementCount,
		})
	}
	return snap
}

func positive(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
