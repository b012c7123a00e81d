package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pvann/faultline/internal/config"
	"github.com/pvann/faultline/internal/errors"
	"github.com/pvann/faultline/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// Request types for each tool

// IngestRequest represents the arguments for event_ingest.
type IngestRequest struct {
	EventJSON string `json:"event_json"`
}

// FetchRequest represents the arguments for event_fetch.
type FetchRequest struct {
	ID string `json:"id"`
}

// ListRequest represents the arguments for event_list.
type ListRequest struct {
	Platform string `json:"platform,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// FramesRequest represents the arguments for event_frames.
type FramesRequest struct {
	ID string `json:"id"`
}

// RenderFrameRequest represents the arguments for frame_render.
type RenderFrameRequest struct {
	ID            string `json:"id"`
	FrameIndex    int    `json:"frame_index"`
	Expanded      bool   `json:"expanded,omitempty"`
	HasComponents bool   `json:"has_components,omitempty"`
}

// ResolveLinksRequest represents the arguments for frame_resolve_links.
type ResolveLinksRequest struct {
	ID         string `json:"id"`
	FrameIndex int    `json:"frame_index"`
	Expanded   bool   `json:"expanded,omitempty"`
}

// DeleteRequest represents the arguments for event_delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// PurgeRequest represents the arguments for event_purge.
type PurgeRequest struct {
	OlderThanDays int `json:"older_than_days"`
}

// CapabilityRequest represents the arguments for capability_grant and
// capability_revoke.
type CapabilityRequest struct {
	Feature string `json:"feature"`
}

// Handler implementations

// HandleIngest handles the event_ingest tool call.
func (h *Handlers) HandleIngest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IngestRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Ingest(ctx, h.db, h.cfg, ops.IngestInput{
		EventJSON: []byte(input.EventJSON),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFetch handles the event_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Fetch(ctx, h.db, ops.FetchInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the event_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.db, ops.ListInput{
		Platform: input.Platform,
		Limit:    input.Limit,
		Offset:   input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFrames handles the event_frames tool call.
func (h *Handlers) HandleFrames(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FramesRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Frames(ctx, h.db, ops.FramesInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRenderFrame handles the frame_render tool call.
func (h *Handlers) HandleRenderFrame(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RenderFrameRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.RenderFrame(ctx, h.db, h.cfg, ops.RenderFrameInput{
		ID:            input.ID,
		FrameIndex:    input.FrameIndex,
		Expanded:      input.Expanded,
		HasComponents: input.HasComponents,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleResolveLinks handles the frame_resolve_links tool call.
func (h *Handlers) HandleResolveLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ResolveLinksRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ResolveLinks(ctx, h.db, h.cfg, ops.ResolveLinksInput{
		ID:         input.ID,
		FrameIndex: input.FrameIndex,
		Expanded:   input.Expanded,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the event_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Delete(ctx, h.db, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePurge handles the event_purge tool call.
func (h *Handlers) HandlePurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PurgeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Purge(ctx, h.db, ops.PurgeInput{OlderThanDays: input.OlderThanDays})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleGrant handles the capability_grant tool call.
func (h *Handlers) HandleGrant(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CapabilityRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Grant(ctx, h.db, h.cfg, ops.GrantInput{Feature: input.Feature})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRevoke handles the capability_revoke tool call.
func (h *Handlers) HandleRevoke(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CapabilityRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Revoke(ctx, h.db, h.cfg, ops.RevokeInput{Feature: input.Feature})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCapabilities handles the capability_list tool call.
func (h *Handlers) HandleCapabilities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Capabilities(ctx, h.db, h.cfg)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var flErr *errors.FaultlineError
	if stderrors.As(err, &flErr) {
		// Keep wrapper context (e.g. "items[2]: ...") in the message
		message := flErr.Message
		if err.Error() != flErr.Error() {
			message = err.Error()
		}
		errorObj := map[string]any{
			"code":    flErr.Code,
			"message": message,
			"status":  flErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if flErr.Code != errors.ErrInternal && flErr.Details != nil {
			errorObj["details"] = flErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
