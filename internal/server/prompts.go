package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ifitclub/clubstats/internal/logging"
)

// registerPrompts registers all MCP prompts for the server
func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(&mcp.Prompt{
		Name:        "weekly_club_review",
		Description: "Summarize the club's week: standings, close races, who is inactive and a short motivational note",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        "type",
				Description: "Activity type to review (e.g., 'Run', 'Walk'). Leave empty for all types.",
				Required:    false,
			},
		},
	}, s.weeklyClubReviewPrompt)

	s.mcp.AddPrompt(&mcp.Prompt{
		Name:        "athlete_checkin",
		Description: "Review one athlete's recent training and their place in the club",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        "athlete_id",
				Description: "The athlete's ID",
				Required:    true,
			},
		},
	}, s.athleteCheckinPrompt)

	logging.Debug("MCP prompts registered", "count", 2)
}

func (s *Server) weeklyClubReviewPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	activityType := ""
	typeDescription := "all activity types"
	if req.Params.Arguments != nil {
		if t, ok := req.Params.Arguments["type"]; ok && t != "" {
			activityType = t
			typeDescription = t + " activities"
		}
	}

	logging.Info("MCP prompt requested", "prompt", "weekly_club_review", "type", activityType)

	promptText := fmt.Sprintf(`Please write a weekly review of our club's training for %s.

Use the following tools to gather data:
1. **get_leaderboard** with period="week" and type="%s" for this week's standings
2. **get_leaderboard** with period="month" and type="%s" to compare against the longer trend
3. **get_top_performers** to see who was active today

Then provide:
- **Podium**: The top three with their points, distance and activity count
- **Close Races**: Pairs of athletes separated by only a few points
- **Movers**: Anyone ranked much higher this week than over the month
- **Quiet Members**: Athletes with no activities this week, mentioned kindly
- **Motivation**: A short note encouraging everyone for the coming week

Remember: score = distance in km + 2 points per activity + 1 point per hour of moving time.`, typeDescription, activityType, activityType)

	return &mcp.GetPromptResult{
		Description: "Weekly club review prompt",
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText},
			},
		},
	}, nil
}

func (s *Server) athleteCheckinPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	athleteID := ""
	if req.Params.Arguments != nil {
		athleteID = req.Params.Arguments["athlete_id"]
	}
	if athleteID == "" {
		return nil, NewInvalidInputError("athlete_id is required")
	}

	logging.Info("MCP prompt requested", "prompt", "athlete_checkin", "athlete_id", athleteID)

	promptText := fmt.Sprintf(`Please check in on athlete %s.

Use the following tools to gather data:
1. **get_home** with athlete_id=%s for their profile, totals and recent activities
2. **get_weekly_stats** with athlete_id=%s and weeks=8 for their weekly trend
3. **get_athlete_rank** with athlete_id=%s and period="week" for their club position

Then provide:
- **This Week**: What they have done and where it puts them in the club
- **Trend**: Whether their weekly volume is rising, steady or falling
- **Consistency**: How many days they trained recently
- **Next Step**: One realistic goal for the coming week

If the data is stale, suggest running sync_athlete first.`, athleteID, athleteID, athleteID, athleteID)

	return &mcp.GetPromptResult{
		Description: "Athlete check-in prompt",
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText},
			},
		},
	}, nil
}
