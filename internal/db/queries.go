package db

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/pvann/faultline/internal/errors"
	"github.com/pvann/faultline/internal/event"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.FaultlineError{
	Code:    errors.ErrUniqueConstraint,
	Status:  409,
	Message: "unique constraint violation",
}

// EventSummary is the listing row for one stored event.
type EventSummary struct {
	ID         string `json:"id"`
	Platform   string `json:"platform"`
	Message    string `json:"message,omitempty"`
	FrameCount int    `json:"frame_count"`
	Received   int64  `json:"received"`
}

// InsertEvent stores a normalized event. The full event is kept as a JSON
// payload; listing columns are denormalized alongside it.
func InsertEvent(db *sql.DB, e *event.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		INSERT INTO events (id, platform, message, payload, frame_count, received_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = db.Exec(query, e.ID, e.Platform, nullString(e.Message), string(payload), len(e.Frames), e.Received)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// GetEvent retrieves a stored event by its ULID.
func GetEvent(db *sql.DB, id string) (*event.Event, error) {
	var payload string
	var received int64
	err := db.QueryRow(`SELECT payload, received_at FROM events WHERE id = ?`, id).
		Scan(&payload, &received)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	var e event.Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return nil, errors.NewInternal(err)
	}
	e.ID = id
	e.Received = received
	return &e, nil
}

// ListEvents returns event summaries, newest first, optionally filtered by
// platform, plus the total row count for pagination.
func ListEvents(db *sql.DB, platform string, limit, offset int) ([]EventSummary, int, error) {
	where := ""
	args := []any{}
	if platform != "" {
		where = " WHERE platform = ?"
		args = append(args, platform)
	}

	var total int
	if err := db.QueryRow(`SELECT COUNT(*) FROM events`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `
		SELECT id, platform, message, frame_count, received_at
		FROM events` + where + `
		ORDER BY received_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := db.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	items := make([]EventSummary, 0, limit)
	for rows.Next() {
		var s EventSummary
		var message sql.NullString
		if err := rows.Scan(&s.ID, &s.Platform, &message, &s.FrameCount, &s.Received); err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		s.Message = message.String
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return items, total, nil
}

// StreamForExport returns a cursor over full event payloads, oldest first,
// optionally filtered by platform. Callers must Close the rows.
func StreamForExport(db *sql.DB, platform string) (*sql.Rows, error) {
	where := ""
	args := []any{}
	if platform != "" {
		where = " WHERE platform = ?"
		args = append(args, platform)
	}

	rows, err := db.Query(`
		SELECT id, payload, received_at
		FROM events`+where+`
		ORDER BY received_at ASC, id ASC`, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return rows, nil
}

// ScanEventFromRows decodes one event from a StreamForExport cursor.
func ScanEventFromRows(rows *sql.Rows) (*event.Event, error) {
	var id, payload string
	var received int64
	if err := rows.Scan(&id, &payload, &received); err != nil {
		return nil, err
	}

	var e event.Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return nil, err
	}
	e.ID = id
	e.Received = received
	return &e, nil
}

// EventExists reports whether an event with the given ID is stored.
func EventExists(db *sql.DB, id string) (bool, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM events WHERE id = ?`, id).Scan(&n); err != nil {
		return false, errors.NewInternal(err)
	}
	return n > 0, nil
}

// DeleteEvent removes an event and its cached links.
// Returns false when no row matched.
func DeleteEvent(db *sql.DB, id string) (bool, error) {
	res, err := db.Exec(`DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	if n == 0 {
		return false, nil
	}
	if _, err := db.Exec(`DELETE FROM link_cache WHERE event_id = ?`, id); err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// PurgeEvents removes events received before the cutoff, with their cached
// links. Returns the number of events removed.
func PurgeEvents(db *sql.DB, cutoff int64) (int, error) {
	if _, err := db.Exec(`
		DELETE FROM link_cache WHERE event_id IN
		(SELECT id FROM events WHERE received_at < ?)`, cutoff); err != nil {
		return 0, errors.NewInternal(err)
	}
	res, err := db.Exec(`DELETE FROM events WHERE received_at < ?`, cutoff)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

// GrantCapability enables a feature for an org. Granting twice is a no-op.
func GrantCapability(db *sql.DB, org, feature string) error {
	_, err := db.Exec(`
		INSERT INTO capabilities (org, feature, granted_at) VALUES (?, ?, ?)
		ON CONFLICT(org, feature) DO NOTHING`,
		org, feature, time.Now().Unix())
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// RevokeCapability disables a feature for an org.
// Returns false when the grant did not exist.
func RevokeCapability(db *sql.DB, org, feature string) (bool, error) {
	res, err := db.Exec(`DELETE FROM capabilities WHERE org = ? AND feature = ?`, org, feature)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return n > 0, nil
}

// GetCapabilities returns the enabled feature names for an org, sorted.
func GetCapabilities(db *sql.DB, org string) ([]string, error) {
	rows, err := db.Query(`SELECT feature FROM capabilities WHERE org = ? ORDER BY feature`, org)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var features []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, errors.NewInternal(err)
		}
		features = append(features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return features, nil
}

// CachedLink is one resolved source link.
type CachedLink struct {
	URL      string `json:"url"`
	Provider string `json:"provider,omitempty"`
}

// PutLink stores (or refreshes) a resolved source link for a frame line.
func PutLink(db *sql.DB, eventID string, frameIndex, lineno int, url, provider string) error {
	_, err := db.Exec(`
		INSERT INTO link_cache (event_id, frame_index, lineno, url, provider, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id, frame_index, lineno) DO UPDATE SET
		  url = excluded.url, provider = excluded.provider, resolved_at = excluded.resolved_at`,
		eventID, frameIndex, lineno, url, nullString(provider), time.Now().Unix())
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetLink fetches a cached source link, or nil when none is cached.
func GetLink(db *sql.DB, eventID string, frameIndex, lineno int) (*CachedLink, error) {
	var link CachedLink
	var provider sql.NullString
	err := db.QueryRow(`
		SELECT url, provider FROM link_cache
		WHERE event_id = ? AND frame_index = ? AND lineno = ?`,
		eventID, frameIndex, lineno).Scan(&link.URL, &provider)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	link.Provider = provider.String
	return &link, nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// nullString converts an empty string to NULL.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
