package ops

import (
	"context"
	"testing"

	"github.com/pvann/faultline/internal/errors"
)

func TestIngest_StoresEvent(t *testing.T) {
	database, cfg := setupOps(t)
	ctx := context.Background()

	out, err := Ingest(ctx, database, cfg, IngestInput{EventJSON: []byte(sampleEventJSON)})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if out.ID == "" {
		t.Error("ID is empty, want assigned ULID")
	}
	if out.Platform != "javascript" {
		t.Errorf("Platform = %q, want %q", out.Platform, "javascript")
	}
	if out.FrameCount != 2 {
		t.Errorf("FrameCount = %d, want 2", out.FrameCount)
	}

	// Round-trip through Fetch
	fetched, err := Fetch(ctx, database, FetchInput{ID: out.ID})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if fetched.Event.Message != "TypeError: x is not a function" {
		t.Errorf("Message = %q, want synthesized exception message", fetched.Event.Message)
	}
	if fetched.Event.Received == 0 {
		t.Error("Received = 0, want ingest timestamp")
	}
}

func TestIngest_EmptyPayload(t *testing.T) {
	database, cfg := setupOps(t)

	_, err := Ingest(context.Background(), database, cfg, IngestInput{})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Ingest should return ErrInvalidRequest, got: %v", err)
	}
}

func TestIngest_TooLarge(t *testing.T) {
	database, cfg := setupOps(t)
	cfg.EventMaxBytes = 10

	_, err := Ingest(context.Background(), database, cfg, IngestInput{EventJSON: []byte(sampleEventJSON)})
	if !errors.Is(err, errors.ErrEventTooLarge) {
		t.Errorf("Ingest should return ErrEventTooLarge, got: %v", err)
	}
}

func TestIngest_Malformed(t *testing.T) {
	database, cfg := setupOps(t)

	tests := []struct {
		name    string
		payload string
	}{
		{"invalid json", `{"platform": "javascript"`},
		{"missing platform", `{"frames": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Ingest(context.Background(), database, cfg, IngestInput{EventJSON: []byte(tt.payload)})
			if !errors.Is(err, errors.ErrMalformedEvent) {
				t.Errorf("Ingest should return ErrMalformedEvent, got: %v", err)
			}
		})
	}
}

func TestIngest_CancelledContext(t *testing.T) {
	database, cfg := setupOps(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Ingest(ctx, database, cfg, IngestInput{EventJSON: []byte(sampleEventJSON)})
	if !errors.Is(err, errors.ErrCancelled) {
		t.Errorf("Ingest should return ErrCancelled, got: %v", err)
	}
}
