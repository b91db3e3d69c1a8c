package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"call-auditor-go/internal/logger"
	"call-auditor-go/internal/storage"
)

// PurgeExpiredRecordings deletes audio files whose retention has passed and
// clears the reference on the record. The analysis itself is kept. It
// returns how many recordings were purged.
func PurgeExpiredRecordings(ctx context.Context, store storage.Store, now time.Time, log *logger.Logger) (int, error) {
	expired, err := store.ExpiredRecordings(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("listing expired recordings: %w", err)
	}

	purged := 0
	for _, r := range expired {
		entry := log.WithCall(r.CallID).WithField("file", r.AudioFilePath)
		if err := os.Remove(r.AudioFilePath); err != nil && !os.IsNotExist(err) {
			entry.WithField("error", err.Error()).Warn("failed to remove expired recording")
			continue
		}
		if err := store.ClearAudio(ctx, r.CallID); err != nil {
			entry.WithField("error", err.Error()).Warn("failed to clear recording reference")
			continue
		}
		purged++
	}
	return purged, nil
}

// RetentionJob runs PurgeExpiredRecordings; it implements cron.Job.
type RetentionJob struct {
	store   storage.Store
	timeout time.Duration
	now     func() time.Time
	log     *logger.Logger
}

func NewRetentionJob(store storage.Store, log *logger.Logger) *RetentionJob {
	return &RetentionJob{
		store:   store,
		timeout: 5 * time.Minute,
		now:     time.Now,
		log:     log,
	}
}

func (j *RetentionJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	j.log.Debug("running recording retention job")
	n, err := PurgeExpiredRecordings(ctx, j.store, j.now().UTC(), j.log)
	if err != nil {
		j.log.WithError(err).Error("recording retention job failed")
		return
	}
	if n > 0 {
		j.log.WithField("purged", n).Info("expired recordings removed")
	}
}
