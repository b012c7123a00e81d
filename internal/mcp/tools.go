package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool definitions. One per operation; schemas mirror the ops input structs.

var eventIngestToolDef = mcp.NewTool("event_ingest",
	mcp.WithDescription("Store a captured error event. Accepts the raw event JSON and returns the assigned ID."),
	mcp.WithString("event_json",
		mcp.Required(),
		mcp.Description("Raw event payload as a JSON string"),
	),
)

var eventFetchToolDef = mcp.NewTool("event_fetch",
	mcp.WithDescription("Fetch a stored event by ID, including its full frame list."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Event ULID"),
	),
)

var eventListToolDef = mcp.NewTool("event_list",
	mcp.WithDescription("List stored events, newest first."),
	mcp.WithString("platform",
		mcp.Description("Filter to one platform (e.g. javascript, cocoa)"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Page size (default 20, max 100)"),
	),
	mcp.WithNumber("offset",
		mcp.Description("Items to skip"),
	),
)

var eventFramesToolDef = mcp.NewTool("event_frames",
	mcp.WithDescription("List an event's stack frames with per-panel diagnostic availability."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Event ULID"),
	),
)

var frameRenderToolDef = mcp.NewTool("frame_render",
	mcp.WithDescription("Compose and render the diagnostic panels for one stack frame."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Event ULID"),
	),
	mcp.WithNumber("frame_index",
		mcp.Required(),
		mcp.Description("Zero-based frame index"),
	),
	mcp.WithBoolean("expanded",
		mcp.Description("Render the full context window instead of the active line only"),
	),
	mcp.WithBoolean("has_components",
		mcp.Description("Surface supports interactive elements"),
	),
)

var frameResolveLinksToolDef = mcp.NewTool("frame_resolve_links",
	mcp.WithDescription("Run the source-link lookups a frame qualifies for and cache the results."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Event ULID"),
	),
	mcp.WithNumber("frame_index",
		mcp.Required(),
		mcp.Description("Zero-based frame index"),
	),
	mcp.WithBoolean("expanded",
		mcp.Description("Use the expanded composition (collapsed frames never qualify)"),
	),
)

var eventDeleteToolDef = mcp.NewTool("event_delete",
	mcp.WithDescription("Delete a stored event and its cached source links."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Event ULID"),
	),
)

var eventPurgeToolDef = mcp.NewTool("event_purge",
	mcp.WithDescription("Delete events older than the given number of days."),
	mcp.WithNumber("older_than_days",
		mcp.Required(),
		mcp.Description("Remove events received more than this many days ago"),
	),
)

var capabilityGrantToolDef = mcp.NewTool("capability_grant",
	mcp.WithDescription("Grant a capability feature to the configured org."),
	mcp.WithString("feature",
		mcp.Required(),
		mcp.Description("Feature name (e.g. integrations-stacktrace-link)"),
	),
)

var capabilityRevokeToolDef = mcp.NewTool("capability_revoke",
	mcp.WithDescription("Revoke a capability feature from the configured org."),
	mcp.WithString("feature",
		mcp.Required(),
		mcp.Description("Feature name"),
	),
)

var capabilityListToolDef = mcp.NewTool("capability_list",
	mcp.WithDescription("List the capability features granted to the configured org."),
)
