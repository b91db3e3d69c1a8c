package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"call-auditor-go/internal/logger"
	"call-auditor-go/internal/types"
)

// timeLayout is fixed width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLite is the default single-file store.
type SQLite struct {
	conn *sql.DB
	path string
	log  *logger.Logger
}

// OpenSQLite creates or opens a SQLite database at the given path.
func OpenSQLite(dbPath string, log *logger.Logger) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// a single writer avoids SQLITE_BUSY under concurrent batch imports
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	log = log.Component("storage")
	if err := migrate(conn, log); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &SQLite{conn: conn, path: dbPath, log: log}, nil
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.path
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// rows written by other tools
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}

func (s *SQLite) Save(ctx context.Context, r types.CallAnalysisRecord) error {
	docs, err := encodeDocuments(r)
	if err != nil {
		return err
	}
	var expires sql.NullString
	if r.RecordingExpiresAt != nil {
		expires = sql.NullString{String: formatTime(*r.RecordingExpiresAt), Valid: true}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", recordColumnCount), ", ")
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO call_analyses (`+recordColumns+`) VALUES (`+placeholders+`)`,
		r.CallID, formatTime(r.CallDate), formatTime(r.AuditDate), r.DurationSeconds,
		r.AgentID, r.AgentName, r.CustomerName, r.CustomerPhone, string(r.CallType),
		r.Transcription, r.Language, r.CallSummary, string(r.CustomerSentiment.OverallSentiment),
		string(docs.Sentiment), string(docs.Behavior), string(docs.Compliance), string(docs.Scores),
		r.TotalScore, r.MaxScore, r.OverallPercentage,
		r.CustomerIntent, string(docs.Issues), string(r.ResolutionStatus), r.FollowUpRequired,
		r.AudioFilePath, expires,
	)
	if err != nil {
		return fmt.Errorf("inserting call %s: %w", r.CallID, err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, id string) (types.CallAnalysisRecord, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM call_analyses WHERE call_id = ?`, id)
	r, err := scanSQLiteRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.CallAnalysisRecord{}, ErrNotFound
	}
	return r, err
}

func (s *SQLite) List(ctx context.Context, offset, limit int) ([]types.CallSummary, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+summaryColumns+` FROM call_analyses
		ORDER BY call_date DESC, call_id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []types.CallSummary{}
	for rows.Next() {
		var (
			sum       types.CallSummary
			callDate  string
			sentiment string
			status    string
		)
		if err := rows.Scan(&sum.ID, &sum.AgentName, &sum.CustomerName, &callDate, &sum.Duration,
			&sum.OverallScore, &sentiment, &status); err != nil {
			return nil, err
		}
		if sum.CallDate, err = parseTime(callDate); err != nil {
			return nil, fmt.Errorf("parsing call_date of %s: %w", sum.ID, err)
		}
		sum.Sentiment = types.Sentiment(sentiment)
		sum.ResolutionStatus = types.ResolutionStatus(status)
		if sum.AgentName == "" {
			sum.AgentName = "Unknown"
		}
		if sum.CustomerName == "" {
			sum.CustomerName = "Unknown"
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLite) All(ctx context.Context) ([]types.CallAnalysisRecord, error) {
	return s.query(ctx, `SELECT `+recordColumns+` FROM call_analyses ORDER BY audit_date, call_id`)
}

func (s *SQLite) Since(ctx context.Context, t time.Time) ([]types.CallAnalysisRecord, error) {
	return s.query(ctx, `SELECT `+recordColumns+` FROM call_analyses
		WHERE call_date >= ? ORDER BY audit_date, call_id`, formatTime(t))
}

func (s *SQLite) ExpiredRecordings(ctx context.Context, now time.Time) ([]types.CallAnalysisRecord, error) {
	return s.query(ctx, `SELECT `+recordColumns+` FROM call_analyses
		WHERE audio_file_path != '' AND recording_expires_at IS NOT NULL AND recording_expires_at <= ?
		ORDER BY recording_expires_at`, formatTime(now))
}

func (s *SQLite) Delete(ctx context.Context, id string) (types.CallAnalysisRecord, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return types.CallAnalysisRecord{}, err
	}
	defer tx.Rollback()

	r, err := scanSQLiteRecord(tx.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM call_analyses WHERE call_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.CallAnalysisRecord{}, ErrNotFound
	}
	if err != nil {
		return types.CallAnalysisRecord{}, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM call_analyses WHERE call_id = ?`, id); err != nil {
		return types.CallAnalysisRecord{}, fmt.Errorf("deleting call %s: %w", id, err)
	}
	return r, tx.Commit()
}

func (s *SQLite) ClearAudio(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE call_analyses SET audio_file_path = '', recording_expires_at = NULL WHERE call_id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) query(ctx context.Context, query string, args ...any) ([]types.CallAnalysisRecord, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []types.CallAnalysisRecord{}
	for rows.Next() {
		r, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(row rowScanner) (types.CallAnalysisRecord, error) {
	var (
		r                          types.CallAnalysisRecord
		callDate, auditDate        string
		callType, sentiment        string
		status                     string
		sent, behav, compl, scores string
		issues                     string
		expires                    sql.NullString
	)
	err := row.Scan(
		&r.CallID, &callDate, &auditDate, &r.DurationSeconds,
		&r.AgentID, &r.AgentName, &r.CustomerName, &r.CustomerPhone, &callType,
		&r.Transcription, &r.Language, &r.CallSummary, &sentiment,
		&sent, &behav, &compl, &scores,
		&r.TotalScore, &r.MaxScore, &r.OverallPercentage,
		&r.CustomerIntent, &issues, &status, &r.FollowUpRequired,
		&r.AudioFilePath, &expires,
	)
	if err != nil {
		return r, err
	}
	if r.CallDate, err = parseTime(callDate); err != nil {
		return r, fmt.Errorf("parsing call_date of %s: %w", r.CallID, err)
	}
	if r.AuditDate, err = parseTime(auditDate); err != nil {
		return r, fmt.Errorf("parsing audit_date of %s: %w", r.CallID, err)
	}
	if expires.Valid {
		t, err := parseTime(expires.String)
		if err != nil {
			return r, fmt.Errorf("parsing recording_expires_at of %s: %w", r.CallID, err)
		}
		r.RecordingExpiresAt = &t
	}
	r.CallType = types.CallType(callType)
	r.ResolutionStatus = types.ResolutionStatus(status)

	docs := documents{
		Sentiment:  []byte(sent),
		Behavior:   []byte(behav),
		Compliance: []byte(compl),
		Scores:     []byte(scores),
		Issues:     []byte(issues),
	}
	if err := docs.decodeInto(&r); err != nil {
		return r, err
	}
	return r, nil
}
