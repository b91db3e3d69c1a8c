package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"call-auditor-go/internal/logger"
	"call-auditor-go/internal/storage"
)

type Scheduler struct {
	cron      *cron.Cron
	retention *RetentionJob
	log       *logger.Logger
}

// New registers the retention job on retentionSpec, which accepts a seconds
// field or descriptors such as "@hourly".
func New(store storage.Store, retentionSpec string, log *logger.Logger) (*Scheduler, error) {
	log = log.Component("scheduler")
	c := cron.New(cron.WithSeconds())
	job := NewRetentionJob(store, log)

	if retentionSpec == "" {
		log.Warn("no retention schedule configured; recordings will not be purged")
	} else {
		if _, err := c.AddJob(retentionSpec, job); err != nil {
			return nil, fmt.Errorf("registering retention job (spec: %s): %w", retentionSpec, err)
		}
		log.WithField("spec", retentionSpec).Info("retention job registered")
	}

	return &Scheduler{cron: c, retention: job, log: log}, nil
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop waits up to 10 seconds for running jobs to finish.
func (s *Scheduler) Stop() {
	s.log.Info("stopping scheduler")
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
		s.log.Info("scheduler stopped")
	case <-time.After(10 * time.Second):
		s.log.Warn("scheduler stop timed out; jobs may still be running")
	}
}
