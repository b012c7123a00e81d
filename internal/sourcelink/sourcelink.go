package sourcelink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pvann/faultline/internal/event"
)

// Request identifies one lookup: a line-text-or-function-name reference plus
// the frame and event it belongs to.
type Request struct {
	// Ref is the lookup key (active line text, or the function name)
	Ref string `json:"ref"`

	// EventID and FrameIndex locate the frame for result routing
	EventID    string `json:"event_id"`
	FrameIndex int    `json:"frame_index"`

	// Lineno is the line the link should point at (0 for whole-frame lookups)
	Lineno int `json:"lineno,omitempty"`

	Platform string `json:"platform"`
	Filename string `json:"filename,omitempty"`
	AbsPath  string `json:"abs_path,omitempty"`
	Module   string `json:"module,omitempty"`
}

// NewRequest builds a Request from a frame and its parent event.
func NewRequest(ref string, e *event.Event, frameIndex, lineno int) Request {
	f := &e.Frames[frameIndex]
	return Request{
		Ref:        ref,
		EventID:    e.ID,
		FrameIndex: frameIndex,
		Lineno:     lineno,
		Platform:   e.Platform,
		Filename:   f.Filename,
		AbsPath:    f.AbsPath,
		Module:     f.Module,
	}
}

// Link is a resolved deep link back to the originating source line.
type Link struct {
	URL      string `json:"url"`
	Provider string `json:"provider,omitempty"`
}

// Resolver resolves a lookup request to a link. Implementations may block on
// the network; they must honor ctx cancellation.
type Resolver interface {
	Resolve(ctx context.Context, req Request) (*Link, error)
}

// HTTPResolver resolves lookups against a configured endpoint.
type HTTPResolver struct {
	// Endpoint receives the request as a JSON POST body
	Endpoint string

	// Timeout bounds one lookup (default 5s)
	Timeout time.Duration

	// Client defaults to http.DefaultClient
	Client *http.Client
}

// Resolve implements Resolver.
func (r *HTTPResolver) Resolve(ctx context.Context, req Request) (*Link, error) {
	if r.Endpoint == "" {
		return nil, fmt.Errorf("no source-link endpoint configured")
	}

	timeout := r.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal lookup request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source-link endpoint returned %d", resp.StatusCode)
	}

	var link Link
	if err := json.NewDecoder(resp.Body).Decode(&link); err != nil {
		return nil, fmt.Errorf("decode source-link response: %w", err)
	}
	if link.URL == "" {
		return nil, fmt.Errorf("source-link endpoint returned no url")
	}
	return &link, nil
}
