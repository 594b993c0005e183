package server

import (
	"fmt"

	"github.com/ifitclub/clubstats/internal/club"
	"github.com/ifitclub/clubstats/internal/stats"
)

// Insight represents a single AI-friendly insight about the data
type Insight struct {
	Type    string `json:"type"`    // e.g., "leader", "gap", "participation", "suggestion"
	Message string `json:"message"` // Human-readable insight
}

// SuggestedAction represents a suggested next tool call
type SuggestedAction struct {
	Tool        string `json:"tool"`        // Tool name to call
	Description string `json:"description"` // Why this action is suggested
	Priority    string `json:"priority"`    // "high", "medium", "low"
}

// LeaderboardInsights summarizes who leads a board and how close the race is.
func LeaderboardInsights(board club.Leaderboard) []Insight {
	var insights []Insight

	active := 0
	for _, e := range board.Entries {
		if e.ActivityCount > 0 {
			active++
		}
	}
	if active == 0 {
		return []Insight{{Type: "participation", Message: "Nobody has logged an activity in this period yet"}}
	}

	leader := board.Entries[0]
	insights = append(insights, Insight{
		Type:    "leader",
		Message: fmt.Sprintf("%s leads with %.1f points over %d activities", leader.DisplayName, leader.Score, leader.ActivityCount),
	})

	if len(board.Entries) > 1 && board.Entries[1].ActivityCount > 0 {
		second := board.Entries[1]
		gap := leader.Score - second.Score
		kind := "gap"
		msg := fmt.Sprintf("%s trails by %.1f points", second.DisplayName, gap)
		if gap < 2 {
			msg = fmt.Sprintf("Tight race: %s is only %.1f points behind", second.DisplayName, gap)
		}
		insights = append(insights, Insight{Type: kind, Message: msg})
	}

	if total := len(board.Entries); active < total {
		insights = append(insights, Insight{
			Type:    "participation",
			Message: fmt.Sprintf("%d of %d athletes have been active", active, total),
		})
	}
	return insights
}

// PositionInsights describes an athlete's standing.
func PositionInsights(pos stats.Position) []Insight {
	switch {
	case pos.Rank == 1:
		return []Insight{{Type: "leader", Message: "Top of the club. Keep it up!"}}
	case pos.Rank <= 3:
		return []Insight{{Type: "podium", Message: fmt.Sprintf("On the podium in position %d", pos.Rank)}}
	case pos.TotalParticipants > 0 && pos.Rank*2 <= pos.TotalParticipants:
		return []Insight{{Type: "standing", Message: fmt.Sprintf("In the top half: %d of %d", pos.Rank, pos.TotalParticipants)}}
	default:
		return []Insight{{Type: "suggestion", Message: "Each activity is worth two points on top of distance and time"}}
	}
}

// SuggestNextActions suggests logical next tool calls based on context
func SuggestNextActions(context string) []SuggestedAction {
	suggestions := make([]SuggestedAction, 0)

	switch context {
	case "leaderboard":
		suggestions = append(suggestions,
			SuggestedAction{
				Tool:        "get_athlete_rank",
				Description: "Check one athlete's position",
				Priority:    "medium",
			},
			SuggestedAction{
				Tool:        "get_top_performers",
				Description: "See who is leading today",
				Priority:    "low",
			},
		)
	case "rank":
		suggestions = append(suggestions,
			SuggestedAction{
				Tool:        "get_weekly_stats",
				Description: "See how this athlete's weeks are trending",
				Priority:    "medium",
			},
			SuggestedAction{
				Tool:        "get_leaderboard",
				Description: "View the full club standings",
				Priority:    "low",
			},
		)
	case "athlete":
		suggestions = append(suggestions,
			SuggestedAction{
				Tool:        "get_activity_history",
				Description: "Browse the athlete's activities",
				Priority:    "medium",
			},
			SuggestedAction{
				Tool:        "get_athlete_stats",
				Description: "Compare upstream totals with local data",
				Priority:    "low",
			},
		)
	case "sync":
		suggestions = append(suggestions,
			SuggestedAction{
				Tool:        "get_sync_status",
				Description: "Poll until the sync completes",
				Priority:    "high",
			},
		)
	}

	return suggestions
}
