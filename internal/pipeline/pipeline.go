package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"call-auditor-go/internal/logger"
	"call-auditor-go/internal/types"
)

// DefaultWorkers bounds concurrent provider calls when no limit is given.
const DefaultWorkers = 4

// TranscriptProcessor is satisfied by *processor.Processor.
type TranscriptProcessor interface {
	ProcessTranscript(ctx context.Context, in types.CallInput) (types.CallAnalysisRecord, error)
}

// Failure describes one input that could not be analyzed.
type Failure struct {
	Row    int    `json:"row"`
	CallID string `json:"call_id,omitempty"`
	Error  string `json:"error"`
}

// Result holds the outcome of a batch run. IDs follow input order.
type Result struct {
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
	IDs       []string  `json:"ids"`
	Failures  []Failure `json:"failures,omitempty"`
	Duration  string    `json:"duration"`
}

// Run analyzes inputs on at most workers goroutines. Failed items are
// recorded and do not stop the batch; only cancellation of ctx does.
func Run(ctx context.Context, p TranscriptProcessor, inputs []types.CallInput, workers int, log *logger.Logger) (Result, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	log = log.Component("pipeline")
	start := time.Now()

	ids := make([]string, len(inputs))
	errs := make([]error, len(inputs))

	var g errgroup.Group
	g.SetLimit(workers)
	var mu sync.Mutex
	done := 0
	for i := range inputs {
		i := i
		in := inputs[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			rec, err := p.ProcessTranscript(ctx, in)
			if err != nil {
				errs[i] = err
				log.WithFields(logrus.Fields{"row": i + 1, "call_id": in.CallID, "error": err.Error()}).Warn("transcript analysis failed")
			} else {
				ids[i] = rec.CallID
			}
			mu.Lock()
			done++
			if done%25 == 0 {
				log.WithField("done", done).WithField("total", len(inputs)).Info("batch progress")
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	res := Result{IDs: []string{}}
	for i, err := range errs {
		if err != nil {
			res.Failed++
			res.Failures = append(res.Failures, Failure{Row: i + 1, CallID: inputs[i].CallID, Error: err.Error()})
			continue
		}
		res.Processed++
		res.IDs = append(res.IDs, ids[i])
	}
	res.Duration = time.Since(start).Round(time.Millisecond).String()

	log.WithFields(logrus.Fields{
		"processed": res.Processed,
		"failed":    res.Failed,
		"duration":  res.Duration,
	}).Info("batch complete")
	return res, ctx.Err()
}
