package mcp

import (
	"context"
	"database/sql"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pvann/faultline/internal/config"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"event_ingest": {
		def:     eventIngestToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleIngest },
	},
	"event_fetch": {
		def:     eventFetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFetch },
	},
	"event_list": {
		def:     eventListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"event_frames": {
		def:     eventFramesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFrames },
	},
	"frame_render": {
		def:     frameRenderToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRenderFrame },
	},
	"frame_resolve_links": {
		def:     frameResolveLinksToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleResolveLinks },
	},
	"event_delete": {
		def:     eventDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"event_purge": {
		def:     eventPurgeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePurge },
	},
	"capability_grant": {
		def:     capabilityGrantToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGrant },
	},
	"capability_revoke": {
		def:     capabilityRevokeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRevoke },
	},
	"capability_list": {
		def:     capabilityListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCapabilities },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with Faultline tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(db *sql.DB, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"faultline",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, cfg *config.Config, version string) error {
	s := NewServer(db, cfg, version)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
