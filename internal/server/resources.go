package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ifitclub/clubstats/internal/logging"
	"github.com/ifitclub/clubstats/internal/stats"
)

const (
	weekLeaderboardURI  = "club://leaderboard/week"
	monthLeaderboardURI = "club://leaderboard/month"
	athletePrefix       = "club://athletes/"
)

// registerResources registers all MCP resources for the server
func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		URI:         weekLeaderboardURI,
		Name:        "week_leaderboard",
		Description: "Club leaderboard over the last 7 days, all activity types",
		MIMEType:    "application/json",
	}, s.leaderboardReader(stats.PeriodWeek, weekLeaderboardURI))

	s.mcp.AddResource(&mcp.Resource{
		URI:         monthLeaderboardURI,
		Name:        "month_leaderboard",
		Description: "Club leaderboard over the last 30 days, all activity types",
		MIMEType:    "application/json",
	}, s.leaderboardReader(stats.PeriodMonth, monthLeaderboardURI))

	s.mcp.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: athletePrefix + "{id}/profile",
		Name:        "athlete_profile",
		Description: "An athlete's profile card and lifetime totals",
		MIMEType:    "application/json",
	}, s.readAthleteProfile)

	logging.Debug("MCP resources registered", "count", 3)
}

func (s *Server) leaderboardReader(period stats.Period, uri string) func(context.Context, *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		logging.Info("MCP resource read", "resource", uri)

		board, err := s.club.Leaderboard(ctx, string(period), "")
		if err != nil {
			logging.Error("leaderboard resource failed", "period", period, "error", err)
			return nil, toolError("leaderboard query", 0, err)
		}
		return jsonResource(uri, LeaderboardOutput{
			Period:            string(board.Period),
			ActivityType:      board.ActivityType,
			GeneratedAt:       board.GeneratedAt.Format(time.RFC3339),
			TotalParticipants: board.TotalParticipants,
			Entries:           board.Entries,
			Insights:          LeaderboardInsights(board),
		})
	}
}

// readAthleteProfile serves club://athletes/{id}/profile
func (s *Server) readAthleteProfile(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	id, err := athleteIDFromURI(uri)
	if err != nil {
		return nil, err
	}

	logging.Info("MCP resource read", "resource", "athlete_profile", "id", id)

	profile, err := s.club.Profile(ctx, id)
	if err != nil {
		return nil, toolError("profile query", id, err)
	}
	return jsonResource(uri, profile)
}

func athleteIDFromURI(uri string) (int64, error) {
	rest, ok := strings.CutPrefix(uri, athletePrefix)
	if !ok {
		return 0, NewInvalidInputErrorWithDetails("invalid athlete URI format", uri)
	}
	idStr, ok := strings.CutSuffix(rest, "/profile")
	if !ok {
		return 0, NewInvalidInputErrorWithDetails("invalid athlete URI format", uri)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewInvalidInputErrorWithDetails("invalid athlete ID", idStr)
	}
	return id, nil
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, NewInternalErrorWithCause(fmt.Sprintf("failed to marshal %s", uri), err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}
