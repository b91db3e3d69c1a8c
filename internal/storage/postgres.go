package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"call-auditor-go/internal/logger"
	"call-auditor-go/internal/types"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS call_analyses (
    call_id TEXT PRIMARY KEY,
    call_date TIMESTAMPTZ NOT NULL,
    audit_date TIMESTAMPTZ NOT NULL,
    duration_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
    agent_id TEXT NOT NULL DEFAULT '',
    agent_name TEXT NOT NULL DEFAULT '',
    customer_name TEXT NOT NULL DEFAULT '',
    customer_phone TEXT NOT NULL DEFAULT '',
    call_type TEXT NOT NULL DEFAULT '',
    transcription TEXT NOT NULL DEFAULT '',
    language TEXT NOT NULL DEFAULT 'unknown',
    call_summary TEXT NOT NULL DEFAULT '',
    overall_sentiment TEXT NOT NULL DEFAULT '',
    customer_sentiment JSONB NOT NULL DEFAULT '{}',
    agent_behavior JSONB NOT NULL DEFAULT '{}',
    compliance_risk JSONB NOT NULL DEFAULT '{}',
    question_scores JSONB NOT NULL DEFAULT '[]',
    total_score INTEGER NOT NULL DEFAULT 0,
    max_score INTEGER NOT NULL DEFAULT 0,
    overall_percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
    customer_intent TEXT NOT NULL DEFAULT '',
    key_issues JSONB NOT NULL DEFAULT '[]',
    resolution_status TEXT NOT NULL DEFAULT '',
    follow_up_required BOOLEAN NOT NULL DEFAULT FALSE,
    audio_file_path TEXT NOT NULL DEFAULT '',
    recording_expires_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_call_analyses_audit_date ON call_analyses(audit_date);
CREATE INDEX IF NOT EXISTS idx_call_analyses_call_date ON call_analyses(call_date);
CREATE INDEX IF NOT EXISTS idx_call_analyses_expiry ON call_analyses(recording_expires_at);
`

// Postgres stores records in a pgx connection pool with JSONB documents.
type Postgres struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func OpenPostgres(ctx context.Context, connString string, log *logger.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return &Postgres{pool: pool, log: log.Component("storage")}, nil
}

func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Postgres) Save(ctx context.Context, r types.CallAnalysisRecord) error {
	docs, err := encodeDocuments(r)
	if err != nil {
		return err
	}
	ph := make([]string, recordColumnCount)
	for i := range ph {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO call_analyses (`+recordColumns+`) VALUES (`+strings.Join(ph, ", ")+`)`,
		r.CallID, r.CallDate.UTC(), r.AuditDate.UTC(), r.DurationSeconds,
		r.AgentID, r.AgentName, r.CustomerName, r.CustomerPhone, string(r.CallType),
		r.Transcription, r.Language, r.CallSummary, string(r.CustomerSentiment.OverallSentiment),
		docs.Sentiment, docs.Behavior, docs.Compliance, docs.Scores,
		r.TotalScore, r.MaxScore, r.OverallPercentage,
		r.CustomerIntent, docs.Issues, string(r.ResolutionStatus), r.FollowUpRequired,
		r.AudioFilePath, r.RecordingExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("inserting call %s: %w", r.CallID, err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (types.CallAnalysisRecord, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM call_analyses WHERE call_id = $1`, id)
	r, err := scanPostgresRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.CallAnalysisRecord{}, ErrNotFound
	}
	return r, err
}

func (p *Postgres) List(ctx context.Context, offset, limit int) ([]types.CallSummary, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+summaryColumns+` FROM call_analyses
		ORDER BY call_date DESC, call_id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []types.CallSummary{}
	for rows.Next() {
		var (
			sum               types.CallSummary
			sentiment, status string
		)
		if err := rows.Scan(&sum.ID, &sum.AgentName, &sum.CustomerName, &sum.CallDate, &sum.Duration,
			&sum.OverallScore, &sentiment, &status); err != nil {
			return nil, err
		}
		sum.CallDate = sum.CallDate.UTC()
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

func (p *Postgres) All(ctx context.Context) ([]types.CallAnalysisRecord, error) {
	return p.query(ctx, `SELECT `+recordColumns+` FROM call_analyses ORDER BY audit_date, call_id`)
}

func (p *Postgres) Since(ctx context.Context, t time.Time) ([]types.CallAnalysisRecord, error) {
	return p.query(ctx, `SELECT `+recordColumns+` FROM call_analyses
		WHERE call_date >= $1 ORDER BY audit_date, call_id`, t.UTC())
}

func (p *Postgres) ExpiredRecordings(ctx context.Context, now time.Time) ([]types.CallAnalysisRecord, error) {
	return p.query(ctx, `SELECT `+recordColumns+` FROM call_analyses
		WHERE audio_file_path <> '' AND recording_expires_at IS NOT NULL AND recording_expires_at <= $1
		ORDER BY recording_expires_at`, now.UTC())
}

func (p *Postgres) Delete(ctx context.Context, id string) (types.CallAnalysisRecord, error) {
	row := p.pool.QueryRow(ctx, `DELETE FROM call_analyses WHERE call_id = $1 RETURNING `+recordColumns, id)
	r, err := scanPostgresRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.CallAnalysisRecord{}, ErrNotFound
	}
	return r, err
}

func (p *Postgres) ClearAudio(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE call_analyses SET audio_file_path = '', recording_expires_at = NULL WHERE call_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) query(ctx context.Context, query string, args ...any) ([]types.CallAnalysisRecord, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []types.CallAnalysisRecord{}
	for rows.Next() {
		r, err := scanPostgresRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanPostgresRecord(row pgx.Row) (types.CallAnalysisRecord, error) {
	var (
		r                   types.CallAnalysisRecord
		callType, sentiment string
		status              string
		docs                documents
	)
	err := row.Scan(
		&r.CallID, &r.CallDate, &r.AuditDate, &r.DurationSeconds,
		&r.AgentID, &r.AgentName, &r.CustomerName, &r.CustomerPhone, &callType,
		&r.Transcription, &r.Language, &r.CallSummary, &sentiment,
		&docs.Sentiment, &docs.Behavior, &docs.Compliance, &docs.Scores,
		&r.TotalScore, &r.MaxScore, &r.OverallPercentage,
		&r.CustomerIntent, &docs.Issues, &status, &r.FollowUpRequired,
		&r.AudioFilePath, &r.RecordingExpiresAt,
	)
	if err != nil {
		return r, err
	}
	r.CallDate = r.CallDate.UTC()
	r.AuditDate = r.AuditDate.UTC()
	if r.RecordingExpiresAt != nil {
		t := r.RecordingExpiresAt.UTC()
		r.RecordingExpiresAt = &t
	}
	r.CallType = types.CallType(callType)
	r.ResolutionStatus = types.ResolutionStatus(status)
	if err := docs.decodeInto(&r); err != nil {
		return r, err
	}
	return r, nil
}
