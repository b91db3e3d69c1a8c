package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"call-auditor-go/internal/extractor"
	"call-auditor-go/internal/llm"
	"call-auditor-go/internal/logger"
	"call-auditor-go/internal/types"
)

// ErrEmptyTranscript is returned before any provider call when there is no
// text to analyze.
var ErrEmptyTranscript = errors.New("transcript is empty")

// Analyzer turns a transcript into a normalized Analysis with exactly one
// provider call. It holds no per-call state and is safe for concurrent use.
type Analyzer struct {
	provider llm.Provider
	items    []types.QuestionnaireItem
	timeout  time.Duration
	log      *logger.Logger
}

// NewAnalyzer uses the canonical questionnaire when items is empty. A zero
// timeout leaves the deadline to the caller's context.
func NewAnalyzer(provider llm.Provider, items []types.QuestionnaireItem, timeout time.Duration, log *logger.Logger) *Analyzer {
	if len(items) == 0 {
		items = types.Questionnaire()
	}
	return &Analyzer{
		provider: provider,
		items:    items,
		timeout:  timeout,
		log:      log.Component("analyzer"),
	}
}

// Questionnaire returns the items calls are scored against.
func (a *Analyzer) Questionnaire() []types.QuestionnaireItem {
	return append([]types.QuestionnaireItem(nil), a.items...)
}

// Analyze never returns a partially filled Analysis. Provider failures yield
// the default analysis together with an error wrapping llm.ErrTransport;
// malformed provider content is repaired or defaulted and is not an error.
func (a *Analyzer) Analyze(ctx context.Context, transcript string) (types.Analysis, error) {
	if strings.TrimSpace(transcript) == "" {
		return extractor.DefaultAnalysis(a.items), ErrEmptyTranscript
	}

	prompt := extractor.BuildAnalysisPrompt(transcript, a.items)

	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := a.provider.Complete(callCtx, extractor.SystemPrompt, prompt)
	if err != nil {
		if !errors.Is(err, llm.ErrTransport) {
			err = fmt.Errorf("%w: %s: %w", llm.ErrTransport, a.provider.Name(), err)
		}
		a.log.WithError(err).WithField("provider", a.provider.Name()).Error("analysis request failed")
		return extractor.DefaultAnalysis(a.items), err
	}

	analysis, ok := extractor.Normalize(raw, a.items)
	entry := a.log.WithField("provider", a.provider.Name()).WithField("took_ms", time.Since(start).Milliseconds())
	if !ok {
		entry.WithField("response_bytes", len(raw)).Warn("analysis response was not a JSON object; using default analysis")
	} else {
		entry.Debug("analysis response normalized")
	}
	return analysis, nil
}
