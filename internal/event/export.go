package event

// ExportRecord is one line of a JSONL export file. The header line carries
// only the detection and schema fields; every other line embeds a full event.
type ExportRecord struct {
	// Header detection field - true only for the header line
	FaultlineExport bool `json:"_faultline_export,omitempty"`

	// Header fields (only present in the header line)
	SchemaVersion string `json:"schema_version,omitempty"`
	ExportedAt    int64  `json:"exported_at,omitempty"`

	Event
}

// NewExportRecord wraps an event for export.
func NewExportRecord(e *Event) *ExportRecord {
	return &ExportRecord{Event: *e}
}
