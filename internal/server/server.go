// Package server exposes the club over the Model Context Protocol.
package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ifitclub/clubstats/internal/club"
	"github.com/ifitclub/clubstats/internal/logging"
	"github.com/ifitclub/clubstats/internal/store"
)

// ptr returns a pointer to the given value - useful for optional fields in structs
func ptr[T any](v T) *T {
	return &v
}

// SyncQueue queues syncs and reports the ones in flight.
type SyncQueue interface {
	Submit(ctx context.Context, athleteID int64, full bool) (store.SyncLog, error)
	InProgress(athleteID int64) (string, bool)
}

// SyncLogs reads recorded syncs.
type SyncLogs interface {
	LatestSyncLog(ctx context.Context, athleteID int64) (store.SyncLog, bool, error)
	ListSyncLogs(ctx context.Context, athleteID int64, limit int) ([]store.SyncLog, error)
}

// Disconnector removes an athlete and everything stored for them.
type Disconnector interface {
	Disconnect(ctx context.Context, athleteID int64) error
}

// PodiumPoster publishes a leaderboard's podium.
type PodiumPoster interface {
	Enabled() bool
	AnnouncePodium(ctx context.Context, board club.Leaderboard) error
}

// Deps are the services behind the tools.
type Deps struct {
	Club      *club.Service
	Syncs     SyncQueue
	Logs      SyncLogs
	Accounts  Disconnector
	Announcer PodiumPoster
}

// Server wraps the MCP server and the club services
type Server struct {
	mcp       *mcp.Server
	club      *club.Service
	syncs     SyncQueue
	logs      SyncLogs
	accounts  Disconnector
	announcer PodiumPoster
}

// MCPServer returns the underlying MCP server (for use with HTTP/SSE transport)
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// New creates a new MCP server with the club tools
func New(deps Deps) *Server {
	logging.Info("MCP server initializing", "name", "clubstats", "version", "1.0.0")

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "clubstats",
		Version: "1.0.0",
	}, nil)

	s := &Server{
		mcp:       mcpServer,
		club:      deps.Club,
		syncs:     deps.Syncs,
		logs:      deps.Logs,
		accounts:  deps.Accounts,
		announcer: deps.Announcer,
	}

	logging.Debug("Registering MCP tools")
	s.registerLeaderboardTools()
	s.registerAthleteTools()
	s.registerSyncTools()

	logging.Debug("Registering MCP resources")
	s.registerResources()

	logging.Debug("Registering MCP prompts")
	s.registerPrompts()

	logging.Info("MCP server initialized", "tools_registered", 18, "resources_registered", 3, "prompts_registered", 2)
	return s
}

// Run starts the MCP server over stdio transport
func (s *Server) Run(ctx context.Context) error {
	logging.Info("MCP server starting")
	defer logging.Info("MCP server stopped")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func readOnly(title string) *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		Title:           title,
		ReadOnlyHint:    true,
		IdempotentHint:  true,
		OpenWorldHint:   ptr(false),
		DestructiveHint: ptr(false),
	}
}

func requireAthlete(id int64) error {
	if id <= 0 {
		return NewInvalidInputError("athlete_id is required and must be positive")
	}
	return nil
}
