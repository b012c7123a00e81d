package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pvann/faultline/internal/event"
)

func TestExport_WritesHeaderAndRecords(t *testing.T) {
	database, cfg := setupOps(t)
	ctx := context.Background()

	ingested, err := Ingest(ctx, database, cfg, IngestInput{EventJSON: []byte(sampleEventJSON)})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if _, err := Ingest(ctx, database, cfg, IngestInput{EventJSON: []byte(mobileEventJSON)}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "events.jsonl")
	out, err := Export(ctx, database, ExportInput{Path: path})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	if out.Count != 2 {
		t.Errorf("Count = %d, want 2", out.Count)
	}
	if out.Path != path {
		t.Errorf("Path = %q, want %q", out.Path, path)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var lines []event.ExportRecord
	for scanner.Scan() {
		var rec event.ExportRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		lines = append(lines, rec)
	}

	if len(lines) != 3 {
		t.Fatalf("line count = %d, want 3 (header + 2 events)", len(lines))
	}
	if !lines[0].FaultlineExport {
		t.Error("first line should be the header record")
	}
	if lines[0].SchemaVersion != exportSchemaVersion {
		t.Errorf("SchemaVersion = %q, want %q", lines[0].SchemaVersion, exportSchemaVersion)
	}

	found := false
	for _, rec := range lines[1:] {
		if rec.ID == ingested.ID {
			found = true
			if len(rec.Frames) != 2 {
				t.Errorf("exported frame count = %d, want 2", len(rec.Frames))
			}
		}
	}
	if !found {
		t.Errorf("exported records do not include event %s", ingested.ID)
	}
}

func TestExport_PlatformFilter(t *testing.T) {
	database, cfg := setupOps(t)
	ctx := context.Background()

	if _, err := Ingest(ctx, database, cfg, IngestInput{EventJSON: []byte(sampleEventJSON)}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if _, err := Ingest(ctx, database, cfg, IngestInput{EventJSON: []byte(mobileEventJSON)}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "cocoa.jsonl")
	out, err := Export(ctx, database, ExportInput{Path: path, Platform: "cocoa"})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if out.Count != 1 {
		t.Errorf("Count = %d, want 1", out.Count)
	}
}

func TestExport_Empty(t *testing.T) {
	database, _ := setupOps(t)

	path := filepath.Join(t.TempDir(), "empty.jsonl")
	out, err := Export(context.Background(), database, ExportInput{Path: path})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if out.Count != 0 {
		t.Errorf("Count = %d, want 0", out.Count)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("export file missing: %v", err)
	}
}

func TestExport_Cancelled(t *testing.T) {
	database, _ := setupOps(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Export(ctx, database, ExportInput{Path: filepath.Join(t.TempDir(), "x.jsonl")})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestImport_RoundTrip(t *testing.T) {
	database, cfg := setupOps(t)
	ctx := context.Background()

	ingested, err := Ingest(ctx, database, cfg, IngestInput{EventJSON: []byte(sampleEventJSON)})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "events.jsonl")
	if _, err := Export(ctx, database, ExportInput{Path: path}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	// Import into a fresh database
	fresh, _ := setupOps(t)
	out, err := Import(ctx, fresh, ImportInput{Path: path})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if out.Imported != 1 {
		t.Errorf("Imported = %d, want 1", out.Imported)
	}
	if len(out.Errors) != 0 {
		t.Errorf("Errors = %v, want none", out.Errors)
	}

	fetched, err := Fetch(ctx, fresh, FetchInput{ID: ingested.ID})
	if err != nil {
		t.Fatalf("Fetch after import failed: %v", err)
	}
	if fetched.Event.Platform != "javascript" {
		t.Errorf("Platform = %q, want %q", fetched.Event.Platform, "javascript")
	}
	if len(fetched.Event.Frames) != 2 {
		t.Errorf("frame count = %d, want 2", len(fetched.Event.Frames))
	}
}

func TestImport_CollisionModes(t *testing.T) {
	database, cfg := setupOps(t)
	ctx := context.Background()

	if _, err := Ingest(ctx, database, cfg, IngestInput{EventJSON: []byte(sampleEventJSON)}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "events.jsonl")
	if _, err := Export(ctx, database, ExportInput{Path: path}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	t.Run("error mode aborts", func(t *testing.T) {
		out, err := Import(ctx, database, ImportInput{Path: path, Mode: ImportModeError})
		if err != nil {
			t.Fatalf("Import failed: %v", err)
		}
		if out.Imported != 0 {
			t.Errorf("Imported = %d, want 0", out.Imported)
		}
		if len(out.Errors) != 1 || out.Errors[0].Code != "ID_COLLISION" {
			t.Errorf("Errors = %v, want one ID_COLLISION", out.Errors)
		}
	})

	t.Run("skip mode keeps stored event", func(t *testing.T) {
		out, err := Import(ctx, database, ImportInput{Path: path, Mode: ImportModeSkip})
		if err != nil {
			t.Fatalf("Import failed: %v", err)
		}
		if out.Skipped != 1 {
			t.Errorf("Skipped = %d, want 1", out.Skipped)
		}
		if out.Imported != 0 {
			t.Errorf("Imported = %d, want 0", out.Imported)
		}
	})

	t.Run("replace mode overwrites", func(t *testing.T) {
		out, err := Import(ctx, database, ImportInput{Path: path, Mode: ImportModeReplace})
		if err != nil {
			t.Fatalf("Import failed: %v", err)
		}
		if out.Imported != 1 {
			t.Errorf("Imported = %d, want 1", out.Imported)
		}
	})
}

func TestImport_Validation(t *testing.T) {
	database, _ := setupOps(t)
	ctx := context.Background()

	t.Run("missing path", func(t *testing.T) {
		if _, err := Import(ctx, database, ImportInput{}); err == nil {
			t.Fatal("expected error for missing path")
		}
	})

	t.Run("invalid mode", func(t *testing.T) {
		_, err := Import(ctx, database, ImportInput{Path: "x.jsonl", Mode: "rename"})
		if err == nil {
			t.Fatal("expected error for invalid mode")
		}
	})

	t.Run("file does not exist", func(t *testing.T) {
		_, err := Import(ctx, database, ImportInput{Path: filepath.Join(t.TempDir(), "missing.jsonl")})
		if err == nil {
			t.Fatal("expected error for missing file")
		}
	})
}

func TestImport_MalformedLines(t *testing.T) {
	database, _ := setupOps(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "bad.jsonl")
	content := `{"_faultline_export":true,"schema_version":"1.0"}
not json at all
{"platform":"javascript","frames":[]}
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write import file: %v", err)
	}

	out, err := Import(ctx, database, ImportInput{Path: path, Mode: ImportModeSkip})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if out.Imported != 0 {
		t.Errorf("Imported = %d, want 0", out.Imported)
	}
	if len(out.Errors) != 2 {
		t.Fatalf("error count = %d, want 2 (parse error + missing id)", len(out.Errors))
	}
	if out.Errors[0].Code != "PARSE_ERROR" {
		t.Errorf("Errors[0].Code = %q, want PARSE_ERROR", out.Errors[0].Code)
	}
	if out.Errors[1].Code != "INVALID_RECORD" {
		t.Errorf("Errors[1].Code = %q, want INVALID_RECORD", out.Errors[1].Code)
	}
}
