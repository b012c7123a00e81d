package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pvann/faultline/internal/db"
	"github.com/pvann/faultline/internal/errors"
	"github.com/pvann/faultline/internal/event"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID string
}

// FetchOutput contains the result of the Fetch operation.
type FetchOutput struct {
	Event *event.Event `json:"event"`
}

// Fetch retrieves a stored event by ID.
func Fetch(ctx context.Context, database *sql.DB, input FetchInput) (*FetchOutput, error) {
	if err := checkCancelled(ctx, "fetch"); err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.ID) == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	e, err := db.GetEvent(database, input.ID)
	if err != nil {
		return nil, err
	}

	return &FetchOutput{Event: e}, nil
}
