package ops

import (
	"context"
	"database/sql"

	"github.com/pvann/faultline/internal/db"
	"github.com/pvann/faultline/internal/errors"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	// Platform filters events to one platform; empty means all.
	Platform string
	Limit    int
	Offset   int
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []db.EventSummary `json:"items"`
	Pagination Pagination        `json:"pagination"`
}

// List returns stored event summaries, newest first.
func List(ctx context.Context, database *sql.DB, input ListInput) (*ListOutput, error) {
	if err := checkCancelled(ctx, "list"); err != nil {
		return nil, err
	}

	if input.Offset < 0 {
		return nil, errors.NewInvalidRequest("offset must not be negative")
	}
	limit := clampLimit(input.Limit, DefaultListLimit, MaxListLimit)

	items, total, err := db.ListEvents(database, input.Platform, limit, input.Offset)
	if err != nil {
		return nil, err
	}

	return &ListOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  input.Offset,
			HasMore: input.Offset+len(items) < total,
			Total:   total,
		},
	}, nil
}
