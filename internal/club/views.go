package club

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ifitclub/clubstats/internal/stats"
	"github.com/ifitclub/clubstats/internal/store"
)

const (
	defaultWeeks  = 4
	maxWeeks      = 52
	defaultMonths = 6
	maxMonths     = 24

	defaultLimit = 50
	maxLimit     = 200

	recentDays = 3
)

var fallbackActivityTypes = []string{"Run", "Walk", "Ride", "Swim", "Hike", "Workout", "WeightTraining", "Yoga"}

func clamp(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}

// AthleteCard is the public profile of a club athlete.
type AthleteCard struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username,omitempty"`
	FirstName    string     `json:"first_name,omitempty"`
	LastName     string     `json:"last_name,omitempty"`
	FullName     string     `json:"full_name"`
	ProfileImage string     `json:"profile_image,omitempty"`
	City         string     `json:"city,omitempty"`
	State        string     `json:"state,omitempty"`
	Country      string     `json:"country,omitempty"`
	Sex          string     `json:"sex,omitempty"`
	Premium      bool       `json:"premium"`
	LastSyncAt   *time.Time `json:"last_sync_at,omitempty"`
}

func cardFor(p store.AthleteProfile) AthleteCard {
	return AthleteCard{
		ID:           p.ID,
		Username:     p.Username,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		FullName:     p.DisplayName(),
		ProfileImage: p.ProfileImage,
		City:         p.City,
		State:        p.State,
		Country:      p.Country,
		Sex:          p.Sex,
		Premium:      p.Premium,
		LastSyncAt:   p.LastSyncAt,
	}
}

// Athletes lists every club athlete.
func (s *Service) Athletes(ctx context.Context) ([]AthleteCard, error) {
	profiles, err := s.store.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	cards := make([]AthleteCard, 0, len(profiles))
	for _, p := range profiles {
		cards = append(cards, cardFor(p))
	}
	return cards, nil
}

// PeriodView is a run of calendar buckets with a total over all of them.
type PeriodView struct {
	AthleteID int64           `json:"athlete_id"`
	Buckets   []stats.Bucket  `json:"buckets"`
	Summary   stats.Aggregate `json:"summary"`
}

// Weekly buckets an athlete's activities into the last weeks weeks.
func (s *Service) Weekly(ctx context.Context, athleteID int64, weeks int) (PeriodView, error) {
	weeks = clamp(weeks, defaultWeeks, maxWeeks)
	now := s.Now()
	current := stats.WeekStart(now)
	return s.periodView(ctx, athleteID, current.AddDate(0, 0, -7*(weeks-1)), current.AddDate(0, 0, 7), func(a []stats.Activity) []stats.Bucket {
		return stats.BucketByWeek(a, now, weeks)
	})
}

// Monthly buckets an athlete's activities into the last months months.
func (s *Service) Monthly(ctx context.Context, athleteID int64, months int) (PeriodView, error) {
	months = clamp(months, defaultMonths, maxMonths)
	now := s.Now()
	current := stats.MonthStart(now)
	return s.periodView(ctx, athleteID, current.AddDate(0, -(months-1), 0), current.AddDate(0, 1, 0), func(a []stats.Activity) []stats.Bucket {
		return stats.BucketByMonth(a, now, months)
	})
}

func (s *Service) periodView(ctx context.Context, athleteID int64, from, to time.Time, bucket func([]stats.Activity) []stats.Bucket) (PeriodView, error) {
	if _, err := s.athlete(ctx, athleteID); err != nil {
		return PeriodView{}, err
	}
	activities, err := s.store.ListActivities(ctx, athleteID, store.ActivityFilter{LocalFrom: from, LocalTo: to})
	if err != nil {
		return PeriodView{}, err
	}
	return PeriodView{
		AthleteID: athleteID,
		Buckets:   bucket(activities),
		Summary:   stats.Compute(activities),
	}, nil
}

// HistoryQuery filters an activity history. Zero values mean no filter.
type HistoryQuery struct {
	Year  int
	Type  string
	Limit int
}

// History is a filtered slice of an athlete's activities with totals.
type History struct {
	AthleteID     int64                      `json:"athlete_id"`
	Year          string                     `json:"year"`
	Type          string                     `json:"type"`
	Limit         int                        `json:"limit"`
	Summary       stats.Aggregate            `json:"summary"`
	TypeBreakdown map[string]stats.Aggregate `json:"type_breakdown"`
	Activities    []stats.ActivitySummary    `json:"activities"`
}

// History returns an athlete's newest activities matching q.
func (s *Service) History(ctx context.Context, athleteID int64, q HistoryQuery) (History, error) {
	if _, err := s.athlete(ctx, athleteID); err != nil {
		return History{}, err
	}

	limit := clamp(q.Limit, defaultLimit, maxLimit)
	f := store.ActivityFilter{Type: q.Type}
	year := "all"
	if q.Year > 0 {
		f.LocalFrom = time.Date(q.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		f.LocalTo = f.LocalFrom.AddDate(1, 0, 0)
		year = strconv.Itoa(q.Year)
	}
	typ := stats.NormalizeType(q.Type)
	if typ == "" {
		typ = "all"
	}

	activities, err := s.store.ListActivities(ctx, athleteID, f)
	if err != nil {
		return History{}, err
	}
	if len(activities) > limit {
		activities = activities[:limit]
	}

	byType := map[string][]stats.Activity{}
	for _, a := range activities {
		byType[a.Type] = append(byType[a.Type], a)
	}
	breakdown := make(map[string]stats.Aggregate, len(byType))
	for t, as := range byType {
		breakdown[t] = stats.Compute(as)
	}

	return History{
		AthleteID:     athleteID,
		Year:          year,
		Type:          typ,
		Limit:         limit,
		Summary:       stats.Compute(activities),
		TypeBreakdown: breakdown,
		Activities:    stats.Summaries(activities),
	}, nil
}

// Totals are the lifetime figures shown on the profile and home screens.
// Distance counts runs and walks only; time counts every activity.
type Totals struct {
	TotalActivities    int     `json:"total_activities"`
	TotalKm            float64 `json:"total_km"`
	TotalKmFormatted   string  `json:"total_km_formatted"`
	TotalHours         int64   `json:"total_hours"`
	TotalMinutes       int64   `json:"total_minutes"`
	TotalTimeFormatted string  `json:"total_time_formatted"`
}

func totalsFor(activities []stats.Activity) Totals {
	var meters float64
	var seconds int64
	for _, a := range activities {
		if a.Type == "Run" || a.Type == "Walk" {
			meters += a.DistanceMeters
		}
		seconds += a.MovingTimeSeconds
	}
	km := round2(meters / 1000)
	return Totals{
		TotalActivities:    len(activities),
		TotalKm:            km,
		TotalKmFormatted:   fmt.Sprintf("%.2f km", km),
		TotalHours:         seconds / 3600,
		TotalMinutes:       (seconds % 3600) / 60,
		TotalTimeFormatted: fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60),
	}
}

// Profile is an athlete card plus lifetime totals.
type Profile struct {
	Athlete AthleteCard `json:"athlete"`
	Stats   Totals      `json:"stats"`
}

// Profile returns an athlete's card and lifetime totals.
func (s *Service) Profile(ctx context.Context, athleteID int64) (Profile, error) {
	p, err := s.athlete(ctx, athleteID)
	if err != nil {
		return Profile{}, err
	}
	activities, err := s.store.ListActivities(ctx, athleteID, store.ActivityFilter{})
	if err != nil {
		return Profile{}, err
	}
	return Profile{Athlete: cardFor(p), Stats: totalsFor(activities)}, nil
}

// Calendar describes today in the club's zone.
type Calendar struct {
	Date      int    `json:"date"`
	Day       string `json:"day"`
	Month     string `json:"month"`
	Year      int    `json:"year"`
	Formatted string `json:"formatted"`
}

// RecentActivities are the activities of the last few days.
type RecentActivities struct {
	Count      int                     `json:"count"`
	Period     string                  `json:"period"`
	Activities []stats.ActivitySummary `json:"activities"`
}

// Home is everything the home screen shows.
type Home struct {
	Athlete  AthleteCard      `json:"athlete"`
	Calendar Calendar         `json:"calendar"`
	Stats    Totals           `json:"stats"`
	Recent   RecentActivities `json:"recent_activities"`
	WeekRank *stats.Position  `json:"week_rank,omitempty"`
}

// Home returns the home screen for an athlete.
func (s *Service) Home(ctx context.Context, athleteID int64) (Home, error) {
	p, err := s.athlete(ctx, athleteID)
	if err != nil {
		return Home{}, err
	}
	activities, err := s.store.ListActivities(ctx, athleteID, store.ActivityFilter{})
	if err != nil {
		return Home{}, err
	}

	now := s.Now()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -recentDays)
	var recent []stats.Activity
	for _, a := range activities {
		if !a.StartTimeLocal.Before(since) {
			recent = append(recent, a)
		}
	}

	home := Home{
		Athlete: cardFor(p),
		Calendar: Calendar{
			Date:      now.Day(),
			Day:       now.Weekday().String(),
			Month:     now.Month().String(),
			Year:      now.Year(),
			Formatted: now.Format("Monday, January 2, 2006"),
		},
		Stats: totalsFor(activities),
		Recent: RecentActivities{
			Count:      len(recent),
			Period:     fmt.Sprintf("Last %d days", recentDays),
			Activities: stats.Summaries(recent),
		},
	}

	pos, err := s.AthleteRank(ctx, athleteID, string(stats.PeriodWeek), "")
	if err != nil {
		return Home{}, err
	}
	home.WeekRank = &pos
	return home, nil
}

// MonthView is one calendar month of an athlete's activities.
type MonthView struct {
	Month           string                  `json:"month"`
	MonthName       string                  `json:"month_name"`
	Year            int                     `json:"year"`
	Formatted       string                  `json:"formatted"`
	Summary         stats.Aggregate         `json:"summary"`
	AvailableMonths []string                `json:"available_months"`
	Activities      []stats.ActivitySummary `json:"activities"`
}

// MonthActivities returns the activities of month (YYYY-MM), defaulting to
// the current month.
func (s *Service) MonthActivities(ctx context.Context, athleteID int64, month string) (MonthView, error) {
	var start time.Time
	if month == "" {
		start = stats.MonthStart(s.Now())
	} else {
		parsed, err := time.Parse("2006-01", month)
		if err != nil {
			return MonthView{}, fmt.Errorf("%w: month must be YYYY-MM, got %q", ErrInvalidInput, month)
		}
		start = parsed
	}

	if _, err := s.athlete(ctx, athleteID); err != nil {
		return MonthView{}, err
	}
	activities, err := s.store.ListActivities(ctx, athleteID, store.ActivityFilter{
		LocalFrom: start,
		LocalTo:   start.AddDate(0, 1, 0),
	})
	if err != nil {
		return MonthView{}, err
	}
	months, err := s.store.ActivityMonths(ctx, athleteID)
	if err != nil {
		return MonthView{}, err
	}

	return MonthView{
		Month:           start.Format("2006-01"),
		MonthName:       start.Month().String(),
		Year:            start.Year(),
		Formatted:       start.Format("January 2006"),
		Summary:         stats.Compute(activities),
		AvailableMonths: months,
		Activities:      stats.Summaries(activities),
	}, nil
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	Pages   int64 `json:"pages"`
	HasMore bool  `json:"has_more"`
}

// ActivityPage is one page of an athlete's activities, newest first.
type ActivityPage struct {
	Activities []stats.ActivitySummary `json:"activities"`
	Pagination Pagination              `json:"pagination"`
}

// ListActivities pages through all of an athlete's activities.
func (s *Service) ListActivities(ctx context.Context, athleteID int64, page, limit int) (ActivityPage, error) {
	if page < 1 {
		page = 1
	}
	limit = clamp(limit, defaultLimit, maxLimit)

	if _, err := s.athlete(ctx, athleteID); err != nil {
		return ActivityPage{}, err
	}
	activities, total, err := s.store.ListActivitiesPage(ctx, athleteID, limit, (page-1)*limit)
	if err != nil {
		return ActivityPage{}, err
	}

	summaries := make([]stats.ActivitySummary, 0, len(activities))
	for _, a := range activities {
		summaries = append(summaries, stats.Summarize(a))
	}

	return ActivityPage{
		Activities: summaries,
		Pagination: Pagination{
			Page:    page,
			Limit:   limit,
			Total:   total,
			Pages:   (total + int64(limit) - 1) / int64(limit),
			HasMore: int64(page*limit) < total,
		},
	}, nil
}

// ActivityTypes lists the stored activity types, or a default list when
// nothing is stored yet.
func (s *Service) ActivityTypes(ctx context.Context) ([]string, error) {
	types, err := s.store.ActivityTypes(ctx)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return append([]string(nil), fallbackActivityTypes...), nil
	}
	return types, nil
}

// AthleteStats pairs the upstream stats snapshot with totals computed locally.
type AthleteStats struct {
	AthleteID int64           `json:"athlete_id"`
	Snapshot  *store.Snapshot `json:"snapshot,omitempty"`
	Local     stats.Aggregate `json:"local"`
}

// AthleteStats returns an athlete's upstream snapshot and local totals.
func (s *Service) AthleteStats(ctx context.Context, athleteID int64) (AthleteStats, error) {
	if _, err := s.athlete(ctx, athleteID); err != nil {
		return AthleteStats{}, err
	}
	activities, err := s.store.ListActivities(ctx, athleteID, store.ActivityFilter{})
	if err != nil {
		return AthleteStats{}, err
	}
	out := AthleteStats{AthleteID: athleteID, Local: stats.Compute(activities)}

	snap, ok, err := s.store.GetSnapshot(ctx, athleteID)
	if err != nil {
		return AthleteStats{}, err
	}
	if ok {
		out.Snapshot = &snap
	}
	return out, nil
}
