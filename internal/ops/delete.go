package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pvann/faultline/internal/db"
	"github.com/pvann/faultline/internal/errors"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ID string
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// Delete removes a stored event and its cached source links.
func Delete(ctx context.Context, database *sql.DB, input DeleteInput) (*DeleteOutput, error) {
	if err := checkCancelled(ctx, "delete"); err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.ID) == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	deleted, err := db.DeleteEvent(database, input.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, errors.NewNotFound(input.ID)
	}
	return &DeleteOutput{ID: input.ID, Deleted: true}, nil
}

// PurgeInput contains parameters for the Purge operation.
type PurgeInput struct {
	// OlderThanDays removes events received before now minus this many days.
	OlderThanDays int
}

// PurgeOutput contains the result of the Purge operation.
type PurgeOutput struct {
	Purged int `json:"purged"`
}

// Purge removes events older than the given age.
func Purge(ctx context.Context, database *sql.DB, input PurgeInput) (*PurgeOutput, error) {
	if err := checkCancelled(ctx, "purge"); err != nil {
		return nil, err
	}

	if input.OlderThanDays <= 0 {
		return nil, errors.NewInvalidRequest("older_than_days must be positive")
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -input.OlderThanDays).Unix()
	purged, err := db.PurgeEvents(database, cutoff)
	if err != nil {
		return nil, err
	}
	return &PurgeOutput{Purged: purged}, nil
}
