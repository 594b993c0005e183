package club

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ifitclub/clubstats/internal/stats"
	"github.com/ifitclub/clubstats/internal/store"
)

// Leaderboard is a ranked club population for one period and type filter.
type Leaderboard struct {
	Period            stats.Period  `json:"period"`
	ActivityType      string        `json:"activity_type"`
	GeneratedAt       time.Time     `json:"generated_at"`
	TotalParticipants int           `json:"total_participants"`
	Entries           []stats.Entry `json:"entries"`
}

// Podium returns the top three entries and everyone else.
func (l Leaderboard) Podium() (top, others []stats.Entry) {
	return stats.Podium(l.Entries, 3)
}

// Leaderboard ranks every club athlete for period and typeFilter.
func (s *Service) Leaderboard(ctx context.Context, period, typeFilter string) (Leaderboard, error) {
	p, err := stats.ParsePeriod(period)
	if err != nil {
		return Leaderboard{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := s.Now()
	athletes, err := s.store.ListAthletes(ctx)
	if err != nil {
		return Leaderboard{}, err
	}

	byAthlete, err := s.loadActivities(ctx, athletes, store.ActivityFilter{Since: p.Start(now)})
	if err != nil {
		return Leaderboard{}, err
	}

	entries := stats.Rank(athletes, byAthlete, stats.Query{Period: p, Type: typeFilter, Now: now})

	activityType := stats.NormalizeType(typeFilter)
	if activityType == "" {
		activityType = "all"
	}

	return Leaderboard{
		Period:            p,
		ActivityType:      activityType,
		GeneratedAt:       now,
		TotalParticipants: len(entries),
		Entries:           entries,
	}, nil
}

// loadActivities fetches each athlete's activities concurrently.
func (s *Service) loadActivities(ctx context.Context, athletes []stats.Athlete, f store.ActivityFilter) (map[int64][]stats.Activity, error) {
	results := make([][]stats.Activity, len(athletes))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, a := range athletes {
		g.Go(func() error {
			activities, err := s.store.ListActivities(gCtx, a.ID, f)
			if err != nil {
				return err
			}
			results[i] = activities
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading club activities: %w", err)
	}

	byAthlete := make(map[int64][]stats.Activity, len(athletes))
	for i, a := range athletes {
		byAthlete[a.ID] = results[i]
	}
	return byAthlete, nil
}

// AthleteRank returns one athlete's position on the leaderboard.
func (s *Service) AthleteRank(ctx context.Context, athleteID int64, period, typeFilter string) (stats.Position, error) {
	board, err := s.Leaderboard(ctx, period, typeFilter)
	if err != nil {
		return stats.Position{}, err
	}
	pos, ok := stats.FindRank(board.Entries, athleteID)
	if !ok {
		return stats.Position{}, fmt.Errorf("athlete %d: %w", athleteID, ErrAthleteNotFound)
	}
	return pos, nil
}

// Badges for today's top performers, by position.
var badges = []string{"Today's Leader", "2nd Place", "3rd Place"}

// TopPerformer is one of the day's leaders by distance.
type TopPerformer struct {
	AthleteID     int64   `json:"athlete_id"`
	Name          string  `json:"name"`
	ProfileImage  string  `json:"profile_image,omitempty"`
	TotalDistance float64 `json:"total_distance_km"`
	ActivityCount int     `json:"activity_count"`
	Badge         string  `json:"badge"`
}

// TopPerformersToday returns up to three athletes with the most distance
// on activities started today in the club's zone.
func (s *Service) TopPerformersToday(ctx context.Context) ([]TopPerformer, error) {
	now := s.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	activities, err := s.store.ListClubActivities(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	type total struct {
		athleteID int64
		meters    float64
		count     int
	}
	totals := map[int64]*total{}
	for _, a := range activities {
		t, ok := totals[a.AthleteID]
		if !ok {
			t = &total{athleteID: a.AthleteID}
			totals[a.AthleteID] = t
		}
		t.meters += a.DistanceMeters
		t.count++
	}

	ranked := make([]*total, 0, len(totals))
	for _, t := range totals {
		ranked = append(ranked, t)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].meters != ranked[j].meters {
			return ranked[i].meters > ranked[j].meters
		}
		return ranked[i].athleteID < ranked[j].athleteID
	})

	performers := make([]TopPerformer, 0, len(badges))
	for _, t := range ranked {
		if len(performers) == len(badges) {
			break
		}
		p, err := s.store.GetAthlete(ctx, t.athleteID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		performers = append(performers, TopPerformer{
			AthleteID:     t.athleteID,
			Name:          p.DisplayName(),
			ProfileImage:  p.ProfileImage,
			TotalDistance: round2(t.meters / 1000),
			ActivityCount: t.count,
			Badge:         badges[len(performers)],
		})
	}
	return performers, nil
}
