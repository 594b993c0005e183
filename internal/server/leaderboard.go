package server

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ifitclub/clubstats/internal/club"
	"github.com/ifitclub/clubstats/internal/logging"
	"github.com/ifitclub/clubstats/internal/stats"
)

func (s *Server) registerLeaderboardTools() {
	logging.Debug("Registering tool", "name", "get_leaderboard")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_leaderboard",
		Description: `Rank every club athlete by score for a period, optionally for one activity type.

Use when:
- User asks "Who is leading the club this week?" or "Show the monthly leaderboard"
- User wants the standings for runs, walks or rides only

Parameters:
- period (string): "week" (last 7 days), "month" (last 30 days) or "all". Default: "week".
- type (string): Activity type filter (Run, Walk, Ride, ...). "running", "walking" and "cycling" are accepted. Leave empty for all types.

Returns: Ranked entries with distance, time, elevation, calories, activity count, workout days and score.
Score = distance in km + 2 points per activity + 1 point per hour.

Example: {"period": "month", "type": "Run"}`,
		Annotations: readOnly("Get Leaderboard"),
	}, s.getLeaderboard)

	logging.Debug("Registering tool", "name", "get_athlete_rank")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_athlete_rank",
		Description: `Get one athlete's position on the club leaderboard.

Parameters:
- athlete_id (integer, required): The athlete's ID.
- period (string): "week", "month" or "all". Default: "week".
- type (string): Activity type filter. Leave empty for all types.

Returns: Rank, total participants and the athlete's leaderboard entry.

Example: {"athlete_id": 12345, "period": "week"}`,
		Annotations: readOnly("Get Athlete Rank"),
	}, s.getAthleteRank)

	logging.Debug("Registering tool", "name", "get_top_performers")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_top_performers",
		Description: `Get today's top three athletes by distance, in the club's time zone.

Returns: Up to three performers with distance in km, activity count and a badge.`,
		Annotations: readOnly("Get Top Performers"),
	}, s.getTopPerformers)

	logging.Debug("Registering tool", "name", "list_athletes")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_athletes",
		Description: `List every athlete in the club with their profile card and last sync time.`,
		Annotations: readOnly("List Athletes"),
	}, s.listAthletes)

	logging.Debug("Registering tool", "name", "list_activity_types")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_activity_types",
		Description: `List the activity types present in the club's data, sorted. Falls back to the common types when nothing is stored.`,
		Annotations: readOnly("List Activity Types"),
	}, s.listActivityTypes)
}

// LeaderboardInput - input for the club leaderboard
type LeaderboardInput struct {
	Period string `json:"period,omitempty" jsonschema:"Leaderboard window. Valid values: week (last 7 days), month (last 30 days), all. Default: week."`
	Type   string `json:"type,omitempty" jsonschema:"Filter by activity type. Common values: Run, Walk, Ride, Swim. Leave empty for all types."`
}

type LeaderboardOutput struct {
	Period            string            `json:"period"`
	ActivityType      string            `json:"activity_type"`
	GeneratedAt       string            `json:"generated_at"`
	TotalParticipants int               `json:"total_participants"`
	Entries           []stats.Entry     `json:"entries"`
	Insights          []Insight         `json:"insights,omitempty"`
	SuggestedActions  []SuggestedAction `json:"suggested_actions,omitempty"`
}

// AthleteRankInput - input for a single athlete's rank
type AthleteRankInput struct {
	AthleteID int64  `json:"athlete_id" jsonschema:"The athlete's ID. Required."`
	Period    string `json:"period,omitempty" jsonschema:"Leaderboard window. Valid values: week, month, all. Default: week."`
	Type      string `json:"type,omitempty" jsonschema:"Filter by activity type. Leave empty for all types."`
}

type AthleteRankOutput struct {
	AthleteID         int64             `json:"athlete_id"`
	Period            string            `json:"period"`
	Rank              int               `json:"rank"`
	TotalParticipants int               `json:"total_participants"`
	Entry             stats.Entry       `json:"entry"`
	Insights          []Insight         `json:"insights,omitempty"`
	SuggestedActions  []SuggestedAction `json:"suggested_actions,omitempty"`
}

type EmptyInput struct{}

type TopPerformersOutput struct {
	Date       string              `json:"date"`
	Performers []club.TopPerformer `json:"performers"`
}

type AthletesOutput struct {
	Count    int                `json:"count"`
	Athletes []club.AthleteCard `json:"athletes"`
}

type ActivityTypesOutput struct {
	Types []string `json:"types"`
}

func (s *Server) getLeaderboard(ctx context.Context, req *mcp.CallToolRequest, input LeaderboardInput) (*mcp.CallToolResult, LeaderboardOutput, error) {
	logging.Info("MCP tool call", "tool", "get_leaderboard", "period", input.Period, "type", input.Type)

	board, err := s.club.Leaderboard(ctx, input.Period, input.Type)
	if err != nil {
		logging.Error("get_leaderboard failed", "error", err)
		return nil, LeaderboardOutput{}, toolError("leaderboard query", 0, err)
	}
	return nil, LeaderboardOutput{
		Period:            string(board.Period),
		ActivityType:      board.ActivityType,
		GeneratedAt:       board.GeneratedAt.Format(time.RFC3339),
		TotalParticipants: board.TotalParticipants,
		Entries:           board.Entries,
		Insights:          LeaderboardInsights(board),
		SuggestedActions:  SuggestNextActions("leaderboard"),
	}, nil
}

func (s *Server) getAthleteRank(ctx context.Context, req *mcp.CallToolRequest, input AthleteRankInput) (*mcp.CallToolResult, AthleteRankOutput, error) {
	logging.Info("MCP tool call", "tool", "get_athlete_rank", "athlete_id", input.AthleteID, "period", input.Period)
	if err := requireAthlete(input.AthleteID); err != nil {
		return nil, AthleteRankOutput{}, err
	}

	pos, err := s.club.AthleteRank(ctx, input.AthleteID, input.Period, input.Type)
	if err != nil {
		return nil, AthleteRankOutput{}, toolError("rank query", input.AthleteID, err)
	}
	period, _ := stats.ParsePeriod(input.Period)
	return nil, AthleteRankOutput{
		AthleteID:         input.AthleteID,
		Period:            string(period),
		Rank:              pos.Rank,
		TotalParticipants: pos.TotalParticipants,
		Entry:             pos.Entry,
		Insights:          PositionInsights(pos),
		SuggestedActions:  SuggestNextActions("rank"),
	}, nil
}

func (s *Server) getTopPerformers(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, TopPerformersOutput, error) {
	logging.Info("MCP tool call", "tool", "get_top_performers")

	performers, err := s.club.TopPerformersToday(ctx)
	if err != nil {
		return nil, TopPerformersOutput{}, toolError("top performers query", 0, err)
	}
	if performers == nil {
		performers = []club.TopPerformer{}
	}
	return nil, TopPerformersOutput{
		Date:       s.club.Now().Format("2006-01-02"),
		Performers: performers,
	}, nil
}

func (s *Server) listAthletes(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, AthletesOutput, error) {
	logging.Info("MCP tool call", "tool", "list_athletes")

	cards, err := s.club.Athletes(ctx)
	if err != nil {
		return nil, AthletesOutput{}, toolError("athlete listing", 0, err)
	}
	return nil, AthletesOutput{Count: len(cards), Athletes: cards}, nil
}

func (s *Server) listActivityTypes(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, ActivityTypesOutput, error) {
	logging.Info("MCP tool call", "tool", "list_activity_types")

	types, err := s.club.ActivityTypes(ctx)
	if err != nil {
		return nil, ActivityTypesOutput{}, toolError("activity type listing", 0, err)
	}
	return nil, ActivityTypesOutput{Types: types}, nil
}
