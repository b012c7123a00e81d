package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pvann/faultline/internal/capability"
	"github.com/pvann/faultline/internal/config"
	"github.com/pvann/faultline/internal/db"
	"github.com/pvann/faultline/internal/errors"
	"github.com/pvann/faultline/internal/event"
	"github.com/pvann/faultline/internal/framectx"
	"github.com/pvann/faultline/internal/render"
	"github.com/pvann/faultline/internal/sourcelink"
)

// RenderFrameInput contains parameters for the RenderFrame operation.
type RenderFrameInput struct {
	ID         string
	FrameIndex int

	// Expanded selects full-window composition; collapsed frames show only
	// the active line and never qualify for source links.
	Expanded bool

	// HasComponents marks the surface as able to host interactive elements.
	HasComponents bool
}

// LinkState pairs a pending source-link request with any cached resolution.
type LinkState struct {
	Request sourcelink.Request `json:"request"`
	Cached  *db.CachedLink     `json:"cached,omitempty"`
}

// RenderFrameOutput contains the result of the RenderFrame operation.
type RenderFrameOutput struct {
	ID         string                 `json:"id"`
	FrameIndex int                    `json:"frame_index"`
	Expanded   bool                   `json:"expanded"`
	Mode       framectx.Mode          `json:"mode"`
	Panels     []framectx.Descriptor  `json:"panels"`
	Rendered   []render.RenderedPanel `json:"rendered"`

	// Links lists the source-link lookups this frame would issue, with
	// cached results attached where a prior resolution exists.
	Links []LinkState `json:"links,omitempty"`
}

// RenderFrame composes and renders the diagnostic panels for one stack frame.
func RenderFrame(ctx context.Context, database *sql.DB, cfg *config.Config, input RenderFrameInput) (*RenderFrameOutput, error) {
	if err := checkCancelled(ctx, "render_frame"); err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.ID) == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	e, err := db.GetEvent(database, input.ID)
	if err != nil {
		return nil, err
	}
	if input.FrameIndex < 0 || input.FrameIndex >= len(e.Frames) {
		return nil, errors.NewFrameOutOfRange(input.FrameIndex, len(e.Frames))
	}
	f := &e.Frames[input.FrameIndex]

	// Capabilities come from the org's grants
	grants, err := db.GetCapabilities(database, cfg.Org)
	if err != nil {
		return nil, err
	}
	caps := capability.NewStaticSet(grants...)

	comp := framectx.Compose(e, f, framectx.Options{
		Expanded:            input.Expanded,
		Availability:        framectx.FrameAvailability(f),
		EmptySourceNotation: cfg.EmptySourceEnabled(),
		EmptyNotice:         cfg.EmptyNotice,
		HasComponents:       input.HasComponents,
		Capabilities:        caps,
		FirstPartyPrefixes:  cfg.FirstPartyPrefixes,
	})

	out := &RenderFrameOutput{
		ID:         e.ID,
		FrameIndex: input.FrameIndex,
		Expanded:   input.Expanded,
		Mode:       comp.Mode,
		Panels:     comp.Panels,
		Rendered:   render.New(nil).Composition(comp),
	}

	// Attach source-link state for every lookup the composition calls for
	for _, req := range LinkRequests(e, input.FrameIndex, comp) {
		cached, err := db.GetLink(database, e.ID, req.FrameIndex, req.Lineno)
		if err != nil {
			return nil, err
		}
		out.Links = append(out.Links, LinkState{Request: req, Cached: cached})
	}

	return out, nil
}

// LinkRequests derives the source-link lookups a composition calls for.
// Mobile-shortcut frames issue one whole-frame lookup; standard frames issue
// one per link-eligible context line.
func LinkRequests(e *event.Event, frameIndex int, comp framectx.Composition) []sourcelink.Request {
	var reqs []sourcelink.Request
	for _, d := range comp.Panels {
		switch d.Kind {
		case framectx.KindSourceLink:
			reqs = append(reqs, sourcelink.NewRequest(d.SourceLink.Ref, e, frameIndex, 0))
		case framectx.KindContextLines:
			for _, entry := range d.Lines.Entries {
				if entry.LinkEligible {
					reqs = append(reqs, sourcelink.NewRequest(entry.Text, e, frameIndex, entry.Lineno))
				}
			}
		}
	}
	return reqs
}
