package ops

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pvann/faultline/internal/db"
	"github.com/pvann/faultline/internal/errors"
	"github.com/pvann/faultline/internal/event"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on the first collision
	ImportModeReplace ImportMode = "replace" // overwrite on collision
	ImportModeSkip    ImportMode = "skip"    // keep the stored event, skip the record
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError represents an error that occurred during import.
type ImportError struct {
	Line    int    `json:"line"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// maxImportLineBytes bounds one JSONL line; events past this are rejected
// during ingest anyway.
const maxImportLineBytes = 4 << 20

// Import reads events back from a JSONL export file.
func Import(ctx context.Context, database *sql.DB, input ImportInput) (*ImportOutput, error) {
	if err := checkCancelled(ctx, "import"); err != nil {
		return nil, err
	}

	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeReplace && input.Mode != ImportModeSkip {
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace, skip")
	}

	if _, err := os.Stat(input.Path); os.IsNotExist(err) {
		return nil, errors.NewNotFound(input.Path)
	}

	file, err := os.Open(input.Path)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, parseErrors := parseExportFile(file)

	// For mode:error, fail before touching the database
	if input.Mode == ImportModeError && len(parseErrors) > 0 {
		return &ImportOutput{Errors: parseErrors}, nil
	}

	out := &ImportOutput{Errors: parseErrors}
	for _, record := range records {
		exists, err := db.EventExists(database, record.ID)
		if err != nil {
			return nil, err
		}

		if exists {
			switch input.Mode {
			case ImportModeError:
				out.Errors = append(out.Errors, ImportError{
					ID:      record.ID,
					Code:    "ID_COLLISION",
					Message: fmt.Sprintf("event with id %q already exists", record.ID),
				})
				out.Imported = 0
				out.Skipped = 0
				return out, nil
			case ImportModeSkip:
				out.Skipped++
				continue
			case ImportModeReplace:
				if _, err := db.DeleteEvent(database, record.ID); err != nil {
					return nil, err
				}
			}
		}

		e := record.Event
		if err := db.InsertEvent(database, &e); err != nil {
			return nil, err
		}
		out.Imported++
	}

	if out.Errors == nil {
		out.Errors = []ImportError{}
	}
	return out, nil
}

// parseExportFile parses a JSONL export file into records.
func parseExportFile(file *os.File) ([]event.ExportRecord, []ImportError) {
	var records []event.ExportRecord
	var parseErrors []ImportError

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLineBytes)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record event.ExportRecord
		if err := json.Unmarshal(line, &record); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}

		// Skip header line
		if record.FaultlineExport {
			continue
		}

		if record.ID == "" {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "INVALID_RECORD",
				Message: "missing id field",
			})
			continue
		}
		if record.Platform == "" {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				ID:      record.ID,
				Code:    "INVALID_RECORD",
				Message: "missing platform field",
			})
			continue
		}

		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, ImportError{
			Line:    lineNum,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return records, parseErrors
}
