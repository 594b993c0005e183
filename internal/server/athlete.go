package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ifitclub/clubstats/internal/club"
	"github.com/ifitclub/clubstats/internal/logging"
)

func (s *Server) registerAthleteTools() {
	logging.Debug("Registering tool", "name", "get_weekly_stats")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_weekly_stats",
		Description: `Break an athlete's activities into Monday-to-Sunday weeks.

Use when:
- User asks "How have my last few weeks looked?"
- User wants to see whether training volume is trending up or down

Parameters:
- athlete_id (integer, required): The athlete's ID.
- weeks (integer): Number of weeks including the current one. Default: 4, max: 52.

Returns: One bucket per week (oldest first) with totals, plus a summary across all weeks.

Example: {"athlete_id": 12345, "weeks": 8}`,
		Annotations: readOnly("Get Weekly Stats"),
	}, s.getWeeklyStats)

	logging.Debug("Registering tool", "name", "get_monthly_stats")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_monthly_stats",
		Description: `Break an athlete's activities into calendar months.

Parameters:
- athlete_id (integer, required): The athlete's ID.
- months (integer): Number of months including the current one. Default: 6, max: 24.

Returns: One bucket per month (oldest first) with totals, plus a summary.

Example: {"athlete_id": 12345, "months": 12}`,
		Annotations: readOnly("Get Monthly Stats"),
	}, s.getMonthlyStats)

	logging.Debug("Registering tool", "name", "get_activity_history")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_activity_history",
		Description: `List an athlete's newest activities with totals and a per-type breakdown.

Parameters:
- athlete_id (integer, required): The athlete's ID.
- year (integer): Only activities from this calendar year (local time). Omit for all years.
- type (string): Activity type filter. Leave empty for all types.
- limit (integer): Maximum activities to return. Default: 50, max: 200.

Example: {"athlete_id": 12345, "year": 2024, "type": "Run"}`,
		Annotations: readOnly("Get Activity History"),
	}, s.getActivityHistory)

	logging.Debug("Registering tool", "name", "get_athlete_profile")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_athlete_profile",
		Description: `Get an athlete's profile card and lifetime totals.

Distance totals count runs and walks only; time counts every activity.

Example: {"athlete_id": 12345}`,
		Annotations: readOnly("Get Athlete Profile"),
	}, s.getAthleteProfile)

	logging.Debug("Registering tool", "name", "get_home")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_home",
		Description: `Get an athlete's home screen: profile, today's date in the club's zone, lifetime totals,
activities from the last 3 days and this week's leaderboard position.

Example: {"athlete_id": 12345}`,
		Annotations: readOnly("Get Home"),
	}, s.getHome)

	logging.Debug("Registering tool", "name", "get_month_activities")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_month_activities",
		Description: `List an athlete's activities for one calendar month.

Parameters:
- athlete_id (integer, required): The athlete's ID.
- month (string): Month as YYYY-MM. Default: the current month.

Returns: The month's activities, a summary and every month that has activities.

Example: {"athlete_id": 12345, "month": "2024-03"}`,
		Annotations: readOnly("Get Month Activities"),
	}, s.getMonthActivities)

	logging.Debug("Registering tool", "name", "list_activities")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "list_activities",
		Description: `Page through all of an athlete's activities, newest first.

Parameters:
- athlete_id (integer, required): The athlete's ID.
- page (integer): Page number starting at 1. Default: 1.
- limit (integer): Page size. Default: 50, max: 200.

Example: {"athlete_id": 12345, "page": 2, "limit": 20}`,
		Annotations: readOnly("List Activities"),
	}, s.listActivities)

	logging.Debug("Registering tool", "name", "get_athlete_stats")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_athlete_stats",
		Description: `Compare the athlete's upstream stats snapshot (recent, year-to-date and all-time totals
as reported by Strava at the last sync) with totals computed from local activities.

Example: {"athlete_id": 12345}`,
		Annotations: readOnly("Get Athlete Stats"),
	}, s.getAthleteStats)
}

// AthleteInput - input for tools that only need an athlete
type AthleteInput struct {
	AthleteID int64 `json:"athlete_id" jsonschema:"The athlete's ID. Required."`
}

type WeeklyStatsInput struct {
	AthleteID int64 `json:"athlete_id" jsonschema:"The athlete's ID. Required."`
	Weeks     int   `json:"weeks,omitempty" jsonschema:"Number of weeks including the current one. Default: 4, max: 52."`
}

type MonthlyStatsInput struct {
	AthleteID int64 `json:"athlete_id" jsonschema:"The athlete's ID. Required."`
	Months    int   `json:"months,omitempty" jsonschema:"Number of months including the current one. Default: 6, max: 24."`
}

// ActivityHistoryInput - input for a filtered activity history
type ActivityHistoryInput struct {
	AthleteID int64  `json:"athlete_id" jsonschema:"The athlete's ID. Required."`
	Year      int    `json:"year,omitempty" jsonschema:"Calendar year to filter by, e.g. 2024. Omit for all years."`
	Type      string `json:"type,omitempty" jsonschema:"Filter by activity type. Leave empty for all types."`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of activities. Default: 50, max: 200."`
}

type MonthActivitiesInput struct {
	AthleteID int64  `json:"athlete_id" jsonschema:"The athlete's ID. Required."`
	Month     string `json:"month,omitempty" jsonschema:"Month in YYYY-MM format. Default: the current month."`
}

type ListActivitiesInput struct {
	AthleteID int64 `json:"athlete_id" jsonschema:"The athlete's ID. Required."`
	Page      int   `json:"page,omitempty" jsonschema:"Page number starting at 1. Default: 1."`
	Limit     int   `json:"limit,omitempty" jsonschema:"Page size. Default: 50, max: 200."`
}

func (s *Server) getWeeklyStats(ctx context.Context, req *mcp.CallToolRequest, input WeeklyStatsInput) (*mcp.CallToolResult, club.PeriodView, error) {
	logging.Info("MCP tool call", "tool", "get_weekly_stats", "athlete_id", input.AthleteID, "weeks", input.Weeks)
	if err := requireAthlete(input.AthleteID); err != nil {
		return nil, club.PeriodView{}, err
	}
	if input.Weeks < 0 {
		return nil, club.PeriodView{}, NewInvalidInputError("weeks must be positive")
	}

	view, err := s.club.Weekly(ctx, input.AthleteID, input.Weeks)
	if err != nil {
		return nil, club.PeriodView{}, toolError("weekly stats query", input.AthleteID, err)
	}
	return nil, view, nil
}

func (s *Server) getMonthlyStats(ctx context.Context, req *mcp.CallToolRequest, input MonthlyStatsInput) (*mcp.CallToolResult, club.PeriodView, error) {
	logging.Info("MCP tool call", "tool", "get_monthly_stats", "athlete_id", input.AthleteID, "months", input.Months)
	if err := requireAthlete(input.AthleteID); err != nil {
		return nil, club.PeriodView{}, err
	}
	if input.Months < 0 {
		return nil, club.PeriodView{}, NewInvalidInputError("months must be positive")
	}

	view, err := s.club.Monthly(ctx, input.AthleteID, input.Months)
	if err != nil {
		return nil, club.PeriodView{}, toolError("monthly stats query", input.AthleteID, err)
	}
	return nil, view, nil
}

func (s *Server) getActivityHistory(ctx context.Context, req *mcp.CallToolRequest, input ActivityHistoryInput) (*mcp.CallToolResult, club.History, error) {
	logging.Info("MCP tool call", "tool", "get_activity_history", "athlete_id", input.AthleteID, "year", input.Year, "type", input.Type, "limit", input.Limit)
	if err := requireAthlete(input.AthleteID); err != nil {
		return nil, club.History{}, err
	}
	if input.Year < 0 || input.Year > 9999 {
		return nil, club.History{}, NewInvalidInputErrorWithDetails("year is out of range", "use a four digit year such as 2024")
	}

	history, err := s.club.History(ctx, input.AthleteID, club.HistoryQuery{
		Year:  input.Year,
		Type:  input.Type,
		Limit: input.Limit,
	})
	if err != nil {
		return nil, club.History{}, toolError("activity history query", input.AthleteID, err)
	}
	return nil, history, nil
}

func (s *Server) getAthleteProfile(ctx context.Context, req *mcp.CallToolRequest, input AthleteInput) (*mcp.CallToolResult, club.Profile, error) {
	logging.Info("MCP tool call", "tool", "get_athlete_profile", "athlete_id", input.AthleteID)
	if err := requireAthlete(input.AthleteID); err != nil {
		return nil, club.Profile{}, err
	}

	profile, err := s.club.Profile(ctx, input.AthleteID)
	if err != nil {
		return nil, club.Profile{}, toolError("profile query", input.AthleteID, err)
	}
	return nil, profile, nil
}

func (s *Server) getHome(ctx context.Context, req *mcp.CallToolRequest, input AthleteInput) (*mcp.CallToolResult, club.Home, error) {
	logging.Info("MCP tool call", "tool", "get_home", "athlete_id", input.AthleteID)
	if err := requireAthlete(input.AthleteID); err != nil {
		return nil, club.Home{}, err
	}

	home, err := s.club.Home(ctx, input.AthleteID)
	if err != nil {
		logging.Error("get_home failed", "athlete_id", input.AthleteID, "error", err)
		return nil, club.Home{}, toolError("home query", input.AthleteID, err)
	}
	return nil, home, nil
}

func (s *Server) getMonthActivities(ctx context.Context, req *mcp.CallToolRequest, input MonthActivitiesInput) (*mcp.CallToolResult, club.MonthView, error) {
	logging.Info("MCP tool call", "tool", "get_month_activities", "athlete_id", input.AthleteID, "month", input.Month)
	if err := requireAthlete(input.AthleteID); err != nil {
		return nil, club.MonthView{}, err
	}

	view, err := s.club.MonthActivities(ctx, input.AthleteID, input.Month)
	if err != nil {
		return nil, club.MonthView{}, toolError("month activities query", input.AthleteID, err)
	}
	return nil, view, nil
}

func (s *Server) listActivities(ctx context.Context, req *mcp.CallToolRequest, input ListActivitiesInput) (*mcp.CallToolResult, club.ActivityPage, error) {
	logging.Info("MCP tool call", "tool", "list_activities", "athlete_id", input.AthleteID, "page", input.Page, "limit", input.Limit)
	if err := requireAthlete(input.AthleteID); err != nil {
		return nil, club.ActivityPage{}, err
	}
	if input.Page < 0 {
		return nil, club.ActivityPage{}, NewInvalidInputError("page must be 1 or greater")
	}

	page, err := s.club.ListActivities(ctx, input.AthleteID, input.Page, input.Limit)
	if err != nil {
		return nil, club.ActivityPage{}, toolError("activity listing", input.AthleteID, err)
	}
	return nil, page, nil
}

func (s *Server) getAthleteStats(ctx context.Context, req *mcp.CallToolRequest, input AthleteInput) (*mcp.CallToolResult, club.AthleteStats, error) {
	logging.Info("MCP tool call", "tool", "get_athlete_stats", "athlete_id", input.AthleteID)
	if err := requireAthlete(input.AthleteID); err != nil {
		return nil, club.AthleteStats{}, err
	}

	out, err := s.club.AthleteStats(ctx, input.AthleteID)
	if err != nil {
		return nil, club.AthleteStats{}, toolError("athlete stats query", input.AthleteID, err)
	}
	return nil, out, nil
}
