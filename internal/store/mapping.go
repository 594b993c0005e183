package store

import (
	"database/sql"
	"time"

	"github.com/ifitclub/clubstats/internal/db"
	"github.com/ifitclub/clubstats/internal/stats"
)

// ToActivity normalizes a stored activity. Absent optional metrics stay nil.
func ToActivity(row db.Activity) stats.Activity {
	return stats.Activity{
		ID:                  row.ID,
		AthleteID:           row.AthleteID,
		Name:                row.Name,
		Type:                row.Type,
		SportType:           row.SportType.String,
		DistanceMeters:      row.Distance,
		MovingTimeSeconds:   row.MovingTime,
		ElapsedTimeSeconds:  row.ElapsedTime,
		ElevationGainMeters: row.TotalElevationGain,
		StartTime:           row.StartDate.UTC(),
		StartTimeLocal:      wallUTC(row.StartDateLocal),
		AverageSpeed:        floatPtr(row.AverageSpeed),
		MaxSpeed:            floatPtr(row.MaxSpeed),
		AverageHeartrate:    floatPtr(row.AverageHeartrate),
		MaxHeartrate:        floatPtr(row.MaxHeartrate),
		Calories:            floatPtr(row.Calories),
		KudosCount:          row.KudosCount,
	}
}

// ToAthlete normalizes a stored athlete. Missing text fields become "".
func ToAthlete(row db.Athlete) stats.Athlete {
	return stats.Athlete{
		ID:           row.ID,
		Username:     row.Username.String,
		FirstName:    row.FirstName.String,
		LastName:     row.LastName.String,
		City:         row.City.String,
		State:        row.State.String,
		Country:      row.Country.String,
		ProfileImage: row.ProfileImage.String,
		WeightKg:     floatPtr(row.Weight),
	}
}

func toProfile(row db.Athlete) AthleteProfile {
	p := AthleteProfile{
		Athlete: ToAthlete(row),
		Sex:     row.Sex.String,
		Premium: row.Premium != 0,
	}
	if row.LastSyncAt.Valid {
		t := row.LastSyncAt.Time.UTC()
		p.LastSyncAt = &t
	}
	return p
}

func toActivities(rows []db.Activity, typeFilter string) []stats.Activity {
	out := make([]stats.Activity, 0, len(rows))
	for _, row := range rows {
		if typeFilter != "" && row.Type != typeFilter {
			continue
		}
		out = append(out, ToActivity(row))
	}
	return out
}

func activityParams(a stats.Activity) db.UpsertActivityParams {
	return db.UpsertActivityParams{
		ID:                 a.ID,
		AthleteID:          a.AthleteID,
		Name:               a.Name,
		Type:               a.Type,
		SportType:          nullString(a.SportType),
		Distance:           a.DistanceMeters,
		MovingTime:         a.MovingTimeSeconds,
		ElapsedTime:        a.ElapsedTimeSeconds,
		TotalElevationGain: a.ElevationGainMeters,
		StartDate:          a.StartTime.UTC(),
		StartDateLocal:     wallUTC(a.StartTimeLocal),
		AverageSpeed:       nullFloat(a.AverageSpeed),
		MaxSpeed:           nullFloat(a.MaxSpeed),
		AverageHeartrate:   nullFloat(a.AverageHeartrate),
		MaxHeartrate:       nullFloat(a.MaxHeartrate),
		Calories:           nullFloat(a.Calories),
		KudosCount:         a.KudosCount,
	}
}

// wallUTC keeps the wall-clock fields of t and relabels them as UTC so that
// stored local times compare lexically.
func wallUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
