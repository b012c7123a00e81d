package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pvann/faultline/internal/db"
	"github.com/pvann/faultline/internal/errors"
	"github.com/pvann/faultline/internal/framectx"
	"github.com/pvann/faultline/internal/platform"
)

// FramesInput contains parameters for the Frames operation.
type FramesInput struct {
	ID string
}

// FrameSummary describes one stack frame and the diagnostic content it carries.
type FrameSummary struct {
	Index        int                   `json:"index"`
	Function     string                `json:"function,omitempty"`
	Filename     string                `json:"filename,omitempty"`
	Module       string                `json:"module,omitempty"`
	Lineno       int                   `json:"lineno,omitempty"`
	InApp        bool                  `json:"in_app"`
	Availability framectx.Availability `json:"availability"`
}

// FramesOutput contains the result of the Frames operation.
type FramesOutput struct {
	ID       string         `json:"id"`
	Platform string         `json:"platform"`
	Mobile   bool           `json:"mobile"`
	Frames   []FrameSummary `json:"frames"`
}

// Frames lists an event's stack frames with their per-panel availability.
func Frames(ctx context.Context, database *sql.DB, input FramesInput) (*FramesOutput, error) {
	if err := checkCancelled(ctx, "frames"); err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.ID) == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	e, err := db.GetEvent(database, input.ID)
	if err != nil {
		return nil, err
	}

	out := &FramesOutput{
		ID:       e.ID,
		Platform: e.Platform,
		Mobile:   platform.Classify(e.Platform, "", nil).IsMobile(),
		Frames:   make([]FrameSummary, 0, len(e.Frames)),
	}
	for i := range e.Frames {
		f := &e.Frames[i]
		out.Frames = append(out.Frames, FrameSummary{
			Index:        i,
			Function:     f.Function,
			Filename:     f.Filename,
			Module:       f.Module,
			Lineno:       f.Lineno,
			InApp:        f.InApp,
			Availability: framectx.FrameAvailability(f),
		})
	}
	return out, nil
}
