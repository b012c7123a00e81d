package ops

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/pvann/faultline/internal/capability"
	"github.com/pvann/faultline/internal/config"
	"github.com/pvann/faultline/internal/db"
	"github.com/pvann/faultline/internal/errors"
	"github.com/pvann/faultline/internal/framectx"
	"github.com/pvann/faultline/internal/sourcelink"
)

// ResolveLinksInput contains parameters for the ResolveLinks operation.
type ResolveLinksInput struct {
	ID            string
	FrameIndex    int
	Expanded      bool
	HasComponents bool
}

// ResolvedLink reports the outcome of one source-link lookup.
type ResolvedLink struct {
	Lineno   int    `json:"lineno"`
	URL      string `json:"url,omitempty"`
	Provider string `json:"provider,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ResolveLinksOutput contains the result of the ResolveLinks operation.
type ResolveLinksOutput struct {
	ID         string         `json:"id"`
	FrameIndex int            `json:"frame_index"`
	Skipped    bool           `json:"skipped,omitempty"`
	Links      []ResolvedLink `json:"links"`
}

// ResolveLinks runs the source-link lookups a frame's composition calls for,
// caching successful resolutions. Lookups run concurrently; results arriving
// after ctx is cancelled are discarded by the dispatcher.
func ResolveLinks(ctx context.Context, database *sql.DB, cfg *config.Config, input ResolveLinksInput) (*ResolveLinksOutput, error) {
	if err := checkCancelled(ctx, "resolve_links"); err != nil {
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

	out := &ResolveLinksOutput{ID: e.ID, FrameIndex: input.FrameIndex}

	// No endpoint configured means lookups are disabled
	if cfg.SourceLinkEndpoint == "" {
		out.Skipped = true
		return out, nil
	}

	grants, err := db.GetCapabilities(database, cfg.Org)
	if err != nil {
		return nil, err
	}

	comp := framectx.Compose(e, f, framectx.Options{
		Expanded:            input.Expanded,
		Availability:        framectx.FrameAvailability(f),
		EmptySourceNotation: cfg.EmptySourceEnabled(),
		EmptyNotice:         cfg.EmptyNotice,
		HasComponents:       input.HasComponents,
		Capabilities:        capability.NewStaticSet(grants...),
		FirstPartyPrefixes:  cfg.FirstPartyPrefixes,
	})

	reqs := LinkRequests(e, input.FrameIndex, comp)
	if len(reqs) == 0 {
		return out, nil
	}

	resolver := &sourcelink.HTTPResolver{
		Endpoint: cfg.SourceLinkEndpoint,
		Timeout:  time.Duration(cfg.SourceLinkTimeoutMS) * time.Millisecond,
	}
	dispatcher := sourcelink.NewDispatcher(resolver, nil)

	var mu sync.Mutex
	results := make([]sourcelink.Result, 0, len(reqs))
	for _, req := range reqs {
		dispatcher.Dispatch(ctx, req, func(res sourcelink.Result) {
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		})
	}
	dispatcher.Wait()

	for _, res := range results {
		link := ResolvedLink{Lineno: res.Request.Lineno}
		switch {
		case res.Err != nil:
			link.Error = res.Err.Error()
		case res.Link != nil:
			link.URL = res.Link.URL
			link.Provider = res.Link.Provider
			if err := db.PutLink(database, e.ID, res.Request.FrameIndex, res.Request.Lineno, res.Link.URL, res.Link.Provider); err != nil {
				return nil, err
			}
		}
		out.Links = append(out.Links, link)
	}
	return out, nil
}
