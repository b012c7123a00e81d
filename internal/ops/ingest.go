package ops

import (
	"bytes"
	"context"
	"database/sql"
	"time"

	"github.com/pvann/faultline/internal/config"
	"github.com/pvann/faultline/internal/db"
	"github.com/pvann/faultline/internal/errors"
	"github.com/pvann/faultline/internal/event"
)

// IngestInput contains parameters for the Ingest operation.
type IngestInput struct {
	// EventJSON is the raw captured-event payload.
	EventJSON []byte
}

// IngestOutput contains the result of the Ingest operation.
type IngestOutput struct {
	ID         string `json:"id"`
	Platform   string `json:"platform"`
	FrameCount int    `json:"frame_count"`
}

// Ingest decodes a captured error event, assigns it a ULID, and stores it.
func Ingest(ctx context.Context, database *sql.DB, cfg *config.Config, input IngestInput) (*IngestOutput, error) {
	if err := checkCancelled(ctx, "ingest"); err != nil {
		return nil, err
	}

	// Validate payload presence and size
	if len(input.EventJSON) == 0 {
		return nil, errors.NewInvalidRequest("event payload is required")
	}
	if cfg.EventMaxBytes > 0 && len(input.EventJSON) > cfg.EventMaxBytes {
		return nil, errors.NewEventTooLarge(cfg.EventMaxBytes, len(input.EventJSON))
	}

	// Decode into the canonical event shape
	e, err := event.Decode(bytes.NewReader(input.EventJSON))
	if err != nil {
		return nil, errors.NewMalformedEvent(err)
	}

	// Assign identity and timestamps
	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	e.ID = id
	e.Received = time.Now().Unix()

	// Persist
	if err := db.InsertEvent(database, e); err != nil {
		return nil, err
	}

	return &IngestOutput{
		ID:         e.ID,
		Platform:   e.Platform,
		FrameCount: len(e.Frames),
	}, nil
}
