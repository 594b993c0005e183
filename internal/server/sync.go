package server

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ifitclub/clubstats/internal/logging"
	"github.com/ifitclub/clubstats/internal/store"
	"github.com/ifitclub/clubstats/internal/workers"
)

const (
	defaultSyncHistory = 10
	maxSyncHistory     = 100
)

func (s *Server) registerSyncTools() {
	logging.Debug("Registering tool", "name", "sync_athlete")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "sync_athlete",
		Description: `Queue a sync of an athlete's activities from Strava.

Use when:
- User says their latest run is missing
- A newly connected athlete needs a full import

Parameters:
- athlete_id (integer, required): The athlete's ID.
- full (boolean): Re-import every activity instead of only those newer than the last one stored. Default: false.

Returns: The sync log entry in status "started". Poll get_sync_status until it completes.
Fails with CONFLICT when a sync for the athlete is already running.

Example: {"athlete_id": 12345, "full": true}`,
		Annotations: &mcp.ToolAnnotations{
			Title:           "Sync Athlete",
			ReadOnlyHint:    false,
			IdempotentHint:  false,
			OpenWorldHint:   ptr(true),
			DestructiveHint: ptr(false),
		},
	}, s.syncAthlete)

	logging.Debug("Registering tool", "name", "get_sync_status")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_sync_status",
		Description: `Report whether a sync is running for an athlete, with the most recent sync log.

Example: {"athlete_id": 12345}`,
		Annotations: readOnly("Get Sync Status"),
	}, s.getSyncStatus)

	logging.Debug("Registering tool", "name", "get_sync_history")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_sync_history",
		Description: `List an athlete's recent sync runs, newest first.

Parameters:
- athlete_id (integer, required): The athlete's ID.
- limit (integer): Maximum entries. Default: 10, max: 100.`,
		Annotations: readOnly("Get Sync History"),
	}, s.getSyncHistory)

	logging.Debug("Registering tool", "name", "disconnect_athlete")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "disconnect_athlete",
		Description: `Revoke Strava access for an athlete and delete everything stored for them:
profile, tokens, activities, stats snapshot and sync history.

This cannot be undone. Set confirm to true to proceed.

Example: {"athlete_id": 12345, "confirm": true}`,
		Annotations: &mcp.ToolAnnotations{
			Title:           "Disconnect Athlete",
			ReadOnlyHint:    false,
			IdempotentHint:  true,
			OpenWorldHint:   ptr(true),
			DestructiveHint: ptr(true),
		},
	}, s.disconnectAthlete)

	logging.Debug("Registering tool", "name", "announce_podium")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "announce_podium",
		Description: `Post the current leaderboard podium to the club's Telegram chat.

Parameters:
- period (string): "week", "month" or "all". Default: "week".
- type (string): Activity type filter. Leave empty for all types.

Fails with INTERNAL_ERROR when no chat is configured.`,
		Annotations: &mcp.ToolAnnotations{
			Title:           "Announce Podium",
			ReadOnlyHint:    false,
			IdempotentHint:  false,
			OpenWorldHint:   ptr(true),
			DestructiveHint: ptr(false),
		},
	}, s.announcePodium)
}

type SyncAthleteInput struct {
	AthleteID int64 `json:"athlete_id" jsonschema:"The athlete's ID. Required."`
	Full      bool  `json:"full,omitempty" jsonschema:"Re-import every activity. Default: false."`
}

type SyncAthleteOutput struct {
	Sync             store.SyncLog     `json:"sync"`
	SuggestedActions []SuggestedAction `json:"suggested_actions,omitempty"`
}

type SyncStatusOutput struct {
	AthleteID  int64          `json:"athlete_id"`
	InProgress bool           `json:"in_progress"`
	SyncID     string         `json:"sync_id,omitempty"`
	Latest     *store.SyncLog `json:"latest,omitempty"`
}

type SyncHistoryInput struct {
	AthleteID int64 `json:"athlete_id" jsonschema:"The athlete's ID. Required."`
	Limit     int   `json:"limit,omitempty" jsonschema:"Maximum entries. Default: 10, max: 100."`
}

type SyncHistoryOutput struct {
	AthleteID int64           `json:"athlete_id"`
	Count     int             `json:"count"`
	Syncs     []store.SyncLog `json:"syncs"`
}

type DisconnectInput struct {
	AthleteID int64 `json:"athlete_id" jsonschema:"The athlete's ID. Required."`
	Confirm   bool  `json:"confirm" jsonschema:"Must be true. Disconnecting deletes all of the athlete's data."`
}

type DisconnectOutput struct {
	AthleteID    int64 `json:"athlete_id"`
	Disconnected bool  `json:"disconnected"`
}

type AnnounceOutput struct {
	Period       string `json:"period"`
	ActivityType string `json:"activity_type"`
	Posted       bool   `json:"posted"`
	Participants int    `json:"participants"`
}

func (s *Server) syncAthlete(ctx context.Context, req *mcp.CallToolRequest, input SyncAthleteInput) (*mcp.CallToolResult, SyncAthleteOutput, error) {
	logging.Info("MCP tool call", "tool", "sync_athlete", "athlete_id", input.AthleteID, "full", input.Full)
	if err := requireAthlete(input.AthleteID); err != nil {
		return nil, SyncAthleteOutput{}, err
	}
	if _, err := s.club.Profile(ctx, input.AthleteID); err != nil {
		return nil, SyncAthleteOutput{}, toolError("athlete lookup", input.AthleteID, err)
	}

	entry, err := s.syncs.Submit(ctx, input.AthleteID, input.Full)
	if errors.Is(err, workers.ErrSyncInProgress) {
		return nil, SyncAthleteOutput{}, NewConflictError("a sync is already running for this athlete", "sync_id="+entry.ID)
	}
	if err != nil {
		logging.Error("sync_athlete failed", "athlete_id", input.AthleteID, "error", err)
		return nil, SyncAthleteOutput{}, toolError("sync log creation", input.AthleteID, err)
	}

	return nil, SyncAthleteOutput{
		Sync:             entry,
		SuggestedActions: SuggestNextActions("sync"),
	}, nil
}

func (s *Server) getSyncStatus(ctx context.Context, req *mcp.CallToolRequest, input AthleteInput) (*mcp.CallToolResult, SyncStatusOutput, error) {
	logging.Info("MCP tool call", "tool", "get_sync_status", "athlete_id", input.AthleteID)
	if err := requireAthlete(input.AthleteID); err != nil {
		return nil, SyncStatusOutput{}, err
	}

	out := SyncStatusOutput{AthleteID: input.AthleteID}
	out.SyncID, out.InProgress = s.syncs.InProgress(input.AthleteID)

	latest, ok, err := s.logs.LatestSyncLog(ctx, input.AthleteID)
	if err != nil {
		return nil, SyncStatusOutput{}, toolError("sync status query", input.AthleteID, err)
	}
	if ok {
		out.Latest = &latest
	}
	return nil, out, nil
}

func (s *Server) getSyncHistory(ctx context.Context, req *mcp.CallToolRequest, input SyncHistoryInput) (*mcp.CallToolResult, SyncHistoryOutput, error) {
	logging.Info("MCP tool call", "tool", "get_sync_history", "athlete_id", input.AthleteID, "limit", input.Limit)
	if err := requireAthlete(input.AthleteID); err != nil {
		return nil, SyncHistoryOutput{}, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultSyncHistory
	}
	if limit > maxSyncHistory {
		limit = maxSyncHistory
	}

	logs, err := s.logs.ListSyncLogs(ctx, input.AthleteID, limit)
	if err != nil {
		return nil, SyncHistoryOutput{}, toolError("sync history query", input.AthleteID, err)
	}
	if logs == nil {
		logs = []store.SyncLog{}
	}
	return nil, SyncHistoryOutput{AthleteID: input.AthleteID, Count: len(logs), Syncs: logs}, nil
}

func (s *Server) disconnectAthlete(ctx context.Context, req *mcp.CallToolRequest, input DisconnectInput) (*mcp.CallToolResult, DisconnectOutput, error) {
	logging.Info("MCP tool call", "tool", "disconnect_athlete", "athlete_id", input.AthleteID, "confirm", input.Confirm)
	if err := requireAthlete(input.AthleteID); err != nil {
		return nil, DisconnectOutput{}, err
	}
	if !input.Confirm {
		return nil, DisconnectOutput{}, NewInvalidInputErrorWithDetails("disconnect requires confirmation", "set confirm to true")
	}
	if id, running := s.syncs.InProgress(input.AthleteID); running {
		return nil, DisconnectOutput{}, NewConflictError("cannot disconnect while a sync is running", "sync_id="+id)
	}

	if err := s.accounts.Disconnect(ctx, input.AthleteID); err != nil {
		logging.Error("disconnect_athlete failed", "athlete_id", input.AthleteID, "error", err)
		return nil, DisconnectOutput{}, toolError("athlete deletion", input.AthleteID, err)
	}
	return nil, DisconnectOutput{AthleteID: input.AthleteID, Disconnected: true}, nil
}

func (s *Server) announcePodium(ctx context.Context, req *mcp.CallToolRequest, input LeaderboardInput) (*mcp.CallToolResult, AnnounceOutput, error) {
	logging.Info("MCP tool call", "tool", "announce_podium", "period", input.Period, "type", input.Type)
	if s.announcer == nil || !s.announcer.Enabled() {
		return nil, AnnounceOutput{}, NewInternalError("podium announcements are not configured")
	}

	board, err := s.club.Leaderboard(ctx, input.Period, input.Type)
	if err != nil {
		return nil, AnnounceOutput{}, toolError("leaderboard query", 0, err)
	}
	if err := s.announcer.AnnouncePodium(ctx, board); err != nil {
		return nil, AnnounceOutput{}, NewInternalErrorWithCause("posting podium failed", err)
	}
	return nil, AnnounceOutput{
		Period:       string(board.Period),
		ActivityType: board.ActivityType,
		Posted:       true,
		Participants: board.TotalParticipants,
	}, nil
}
