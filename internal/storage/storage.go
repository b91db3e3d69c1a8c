package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"call-auditor-go/internal/logger"
	"call-auditor-go/internal/types"
)

// ErrNotFound is returned when no record exists for the requested id.
var ErrNotFound = errors.New("call analysis not found")

// DefaultPath is used when no database url is configured.
const DefaultPath = "./call_auditor.db"

// Store persists analysis records. Nested structures are stored as embedded
// JSON documents next to the scalar columns.
type Store interface {
	Save(ctx context.Context, r types.CallAnalysisRecord) error
	Get(ctx context.Context, id string) (types.CallAnalysisRecord, error)
	// List returns summaries, most recent call first.
	List(ctx context.Context, offset, limit int) ([]types.CallSummary, error)
	All(ctx context.Context) ([]types.CallAnalysisRecord, error)
	// Since returns records whose call date is at or after t.
	Since(ctx context.Context, t time.Time) ([]types.CallAnalysisRecord, error)
	// Delete removes a record and returns it so the caller can drop its audio.
	Delete(ctx context.Context, id string) (types.CallAnalysisRecord, error)
	// ExpiredRecordings lists records that still reference audio past its expiry.
	ExpiredRecordings(ctx context.Context, now time.Time) ([]types.CallAnalysisRecord, error)
	ClearAudio(ctx context.Context, id string) error
	Close() error
}

// Open picks the backend from the url: postgres:// and postgresql:// go to
// Postgres, everything else is treated as a SQLite path.
func Open(ctx context.Context, url string, log *logger.Logger) (Store, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return OpenPostgres(ctx, url, log)
	case url == "":
		return OpenSQLite(DefaultPath, log)
	default:
		return OpenSQLite(strings.TrimPrefix(url, "sqlite://"), log)
	}
}
