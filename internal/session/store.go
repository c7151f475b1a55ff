package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"scribed/internal/config"
)

// Store manages session persistence backed by SQLite. Mutations must happen
// under the per-session lock (see LockSession) so that a status transition and
// a speaker remap never race on the same record.
type Store struct {
	db    *sql.DB
	path  string
	locks *keyedMutex
}

// Open initializes or connects to the session database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, locks: newKeyedMutex()}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// LockSession acquires the mutex guarding the given session id and returns the
// release function. Different ids lock independently.
func (s *Store) LockSession(id string) func() {
	return s.locks.lock(id)
}

// NewSessionParams carries the caller-supplied fields for session creation.
type NewSessionParams struct {
	Title         string
	Filename      string
	AudioLocation string
}

// Create inserts a new session in the uploading state and returns it.
func (s *Store) Create(ctx context.Context, params NewSessionParams) (*Session, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, errors.New("title is required")
	}
	filename := strings.TrimSpace(params.Filename)
	if filename == "" {
		return nil, errors.New("filename is required")
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sessions (
            id, title, filename, audio_location, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		title,
		filename,
		nullableString(strings.TrimSpace(params.AudioLocation)),
		StatusUploading,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a session by identifier. A missing session yields (nil, nil).
func (s *Store) GetByID(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// Update persists changes to an existing session.
func (s *Store) Update(ctx context.Context, sess *Session) error {
	if sess == nil {
		return errors.New("session is nil")
	}
	segmentsJSON, err := marshalSegments(sess.RawSegments)
	if err != nil {
		return err
	}
	mappingJSON, err := marshalMapping(sess.SpeakerMapping)
	if err != nil {
		return err
	}

	sess.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE sessions
         SET title = ?, filename = ?, audio_location = ?, status = ?, job_ref = ?,
             raw_segments_json = ?, speaker_mapping_json = ?, transcript = ?,
             summary = ?, action_items = ?, error_message = ?, updated_at = ?
         WHERE id = ?`,
		sess.Title,
		sess.Filename,
		nullableString(sess.AudioLocation),
		sess.Status,
		nullableString(sess.JobRef),
		nullableString(segmentsJSON),
		nullableString(mappingJSON),
		nullableString(sess.Transcript),
		nullableString(sess.Summary),
		nullableString(sess.ActionItems),
		nullableString(sess.ErrorMessage),
		sess.UpdatedAt.Format(time.RFC3339Nano),
		sess.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update session %s: no such row", sess.ID)
	}
	return nil
}

// List returns sessions filtered by status set (or all sessions when no status
// is provided), newest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Session, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + sessionColumns + ` FROM sessions`
	orderClause := ` ORDER BY created_at DESC`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// ListActive returns sessions that still need processor attention, oldest first.
func (s *Store) ListActive(ctx context.Context) ([]*Session, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE status IN (?, ?, ?) ORDER BY created_at`,
		StatusUploading,
		StatusTranscribing,
		StatusAnalyzing,
	)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Remove deletes a session by identifier. Removal is unconditional; in-flight
// external jobs are left to complete or expire on their own.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns a count of sessions grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM sessions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("session stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// CheckHealth verifies the database is reachable and structurally sound.
func (s *Store) CheckHealth(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("session database connection unavailable")
	}
	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		return fmt.Errorf("ping session database: %w", err)
	}

	var integrityResult string
	row := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	if err := row.Scan(&integrityResult); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if !strings.EqualFold(integrityResult, "ok") {
		return fmt.Errorf("integrity check reported %q", integrityResult)
	}
	return nil
}

const sessionColumns = "id, title, filename, audio_location, status, job_ref, raw_segments_json, speaker_mapping_json, transcript, summary, action_items, error_message, created_at, updated_at"

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		id            string
		title         string
		filename      string
		audioLocation sql.NullString
		statusStr     string
		jobRef        sql.NullString
		segmentsRaw   sql.NullString
		mappingRaw    sql.NullString
		transcript    sql.NullString
		summary       sql.NullString
		actionItems   sql.NullString
		errorMessage  sql.NullString
		createdRaw    string
		updatedRaw    string
	)

	if err := scanner.Scan(
		&id,
		&title,
		&filename,
		&audioLocation,
		&statusStr,
		&jobRef,
		&segmentsRaw,
		&mappingRaw,
		&transcript,
		&summary,
		&actionItems,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	sess := &Session{
		ID:            id,
		Title:         title,
		Filename:      filename,
		AudioLocation: audioLocation.String,
		Status:        Status(statusStr),
		JobRef:        jobRef.String,
		Transcript:    transcript.String,
		Summary:       summary.String,
		ActionItems:   actionItems.String,
		ErrorMessage:  errorMessage.String,
	}

	if segmentsRaw.Valid && segmentsRaw.String != "" {
		if err := json.Unmarshal([]byte(segmentsRaw.String), &sess.RawSegments); err != nil {
			return nil, fmt.Errorf("decode raw segments for %s: %w", id, err)
		}
	}
	if mappingRaw.Valid && mappingRaw.String != "" {
		if err := json.Unmarshal([]byte(mappingRaw.String), &sess.SpeakerMapping); err != nil {
			return nil, fmt.Errorf("decode speaker mapping for %s: %w", id, err)
		}
	}

	if created, err := parseTimeString(createdRaw); err == nil {
		sess.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		sess.UpdatedAt = updated
	}
	return sess, nil
}

func marshalSegments(segments []Segment) (string, error) {
	if len(segments) == 0 {
		return "", nil
	}
	data, err := json.Marshal(segments)
	if err != nil {
		return "", fmt.Errorf("marshal raw segments: %w", err)
	}
	return string(data), nil
}

func marshalMapping(mapping map[string]string) (string, error) {
	if len(mapping) == 0 {
		return "", nil
	}
	data, err := json.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("marshal speaker mapping: %w", err)
	}
	return string(data), nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
