package ops

import (
	"context"
	"testing"

	"github.com/pvann/faultline/internal/errors"
)

func TestList_Empty(t *testing.T) {
	database, _ := setupOps(t)

	out, err := List(context.Background(), database, ListInput{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(out.Items) != 0 {
		t.Errorf("Items = %d, want 0", len(out.Items))
	}
	if out.Pagination.Total != 0 {
		t.Errorf("Total = %d, want 0", out.Pagination.Total)
	}
	if out.Pagination.HasMore {
		t.Error("HasMore = true, want false")
	}
}

func TestList_PlatformFilterAndPagination(t *testing.T) {
	database, cfg := setupOps(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := Ingest(ctx, database, cfg, IngestInput{EventJSON: []byte(sampleEventJSON)}); err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}
	}
	if _, err := Ingest(ctx, database, cfg, IngestInput{EventJSON: []byte(mobileEventJSON)}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	out, err := List(ctx, database, ListInput{Platform: "javascript", Limit: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(out.Items) != 2 {
		t.Errorf("Items = %d, want 2", len(out.Items))
	}
	if out.Pagination.Total != 3 {
		t.Errorf("Total = %d, want 3", out.Pagination.Total)
	}
	if !out.Pagination.HasMore {
		t.Error("HasMore = false, want true")
	}
	for _, item := range out.Items {
		if item.Platform != "javascript" {
			t.Errorf("Platform = %q, want %q", item.Platform, "javascript")
		}
	}

	// Second page
	out, err = List(ctx, database, ListInput{Platform: "javascript", Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(out.Items) != 1 {
		t.Errorf("Items = %d, want 1", len(out.Items))
	}
	if out.Pagination.HasMore {
		t.Error("HasMore = true, want false on final page")
	}
}

func TestList_NegativeOffset(t *testing.T) {
	database, _ := setupOps(t)

	_, err := List(context.Background(), database, ListInput{Offset: -1})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("List should return ErrInvalidRequest, got: %v", err)
	}
}
