package processor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-auditor-go/internal/extractor"
	"call-auditor-go/internal/llm"
	"call-auditor-go/internal/logger"
	"call-auditor-go/internal/storage"
	"call-auditor-go/internal/transcription"
	"call-auditor-go/internal/types"
)

// mockProvider records calls and replays a fixed reply.
type mockProvider struct {
	mu      sync.Mutex
	reply   string
	err     error
	block   bool
	calls   int
	prompts []string
	systems []string
}

func (m *mockProvider) Name() string { return "test" }

func (m *mockProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.prompts = append(m.prompts, prompt)
	m.systems = append(m.systems, system)
	m.mu.Unlock()
	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return m.reply, m.err
}

type failingTranscriber struct{}

func (failingTranscriber) Transcribe(context.Context, string, io.Reader) (types.Transcript, error) {
	return types.Transcript{}, errors.New("stt unavailable")
}

type capturePublisher struct {
	ids []string
	err error
}

func (c *capturePublisher) PublishAnalyzed(_ context.Context, r types.CallAnalysisRecord) error {
	c.ids = append(c.ids, r.CallID)
	return c.err
}

func (c *capturePublisher) Close() error { return nil }

func validReply(t *testing.T) string {
	t.Helper()
	scores := []map[string]any{}
	for _, q := range types.Questionnaire() {
		scores = append(scores, map[string]any{
			"category": q.Category, "question": q.Question, "answer": "Yes",
			"score": q.MaxScore, "max_score": q.MaxScore,
		})
	}
	b, err := json.Marshal(map[string]any{
		"customer_sentiment": map[string]any{
			"overall_sentiment": "Positive", "emotions": []string{"Satisfied"}, "urgency_level": "Low",
			"frustration_indicator": false, "escalation_risk": 10,
			"call_opening_emotion": "Calm", "call_end_emotion": "Satisfied",
		},
		"call_summary":      "Customer asked about a plan upgrade.",
		"customer_intent":   "Upgrade",
		"key_issues":        []string{"Plan upgrade"},
		"resolution_status": "Resolved",
		"question_scores":   scores,
	})
	require.NoError(t, err)
	return string(b)
}

func newAnalyzer(p llm.Provider, timeout time.Duration) *Analyzer {
	return NewAnalyzer(p, nil, timeout, logger.Discard())
}

func TestAnalyzeEmptyTranscriptSkipsProvider(t *testing.T) {
	p := &mockProvider{reply: "{}"}
	a, err := newAnalyzer(p, 0).Analyze(context.Background(), "  \n\t")
	assert.True(t, errors.Is(err, ErrEmptyTranscript))
	assert.Equal(t, extractor.DefaultAnalysis(types.Questionnaire()), a)
	assert.Equal(t, 0, p.calls)
}

func TestAnalyzeSingleProviderCall(t *testing.T) {
	p := &mockProvider{reply: validReply(t)}
	a, err := newAnalyzer(p, time.Second).Analyze(context.Background(), "Agent: hello. Customer: upgrade please.")
	require.NoError(t, err)

	assert.Equal(t, 1, p.calls)
	assert.Equal(t, extractor.SystemPrompt, p.systems[0])
	assert.Contains(t, p.prompts[0], "upgrade please")
	assert.Equal(t, types.SentimentPositive, a.CustomerSentiment.OverallSentiment)
	total, maxScore, pct := types.ScoreTotals(a.QuestionScores)
	assert.Equal(t, 75, total)
	assert.Equal(t, 75, maxScore)
	assert.Equal(t, 100.0, pct)
}

func TestAnalyzeUnparseableResponseIsDefaultNotError(t *testing.T) {
	p := &mockProvider{reply: "I'm sorry, I cannot help with that."}
	a, err := newAnalyzer(p, 0).Analyze(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, extractor.DefaultAnalysis(types.Questionnaire()), a)
}

func TestAnalyzeProviderFailureIsTransportError(t *testing.T) {
	p := &mockProvider{err: errors.New("connection reset")}
	a, err := newAnalyzer(p, 0).Analyze(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrTransport))
	assert.Equal(t, extractor.DefaultAnalysis(types.Questionnaire()), a)
	assert.Equal(t, 1, p.calls)
}

func TestAnalyzeTimeout(t *testing.T) {
	p := &mockProvider{block: true}
	_, err := newAnalyzer(p, 20*time.Millisecond).Analyze(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrTransport))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

type fixture struct {
	proc      *Processor
	store     *storage.SQLite
	provider  *mockProvider
	publisher *capturePublisher
	uploads   string
	now       time.Time
}

func newFixture(t *testing.T, tr transcription.Transcriber) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.OpenSQLite(filepath.Join(dir, "calls.db"), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		store:     store,
		provider:  &mockProvider{reply: validReply(t)},
		publisher: &capturePublisher{},
		uploads:   filepath.Join(dir, "uploads"),
		now:       time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC),
	}
	f.proc = New(tr, newAnalyzer(f.provider, time.Second), store, f.publisher,
		Options{UploadDir: f.uploads, RetentionDays: 30}, logger.Discard())
	f.proc.now = func() time.Time { return f.now }
	return f
}

func uploadedFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestProcessAudio(t *testing.T) {
	f := newFixture(t, transcription.Mock{Text: "Agent: hi. Customer: I want to upgrade."})
	meta := types.CallMetadata{AgentName: "Amy", CustomerName: "Bob", CallType: types.CallIncoming}

	rec, err := f.proc.ProcessAudio(context.Background(), meta, "call.mp3", "audio/mpeg", strings.NewReader("ID3 audio bytes"))
	require.NoError(t, err)

	assert.NotEmpty(t, rec.CallID)
	assert.Equal(t, "Amy", rec.AgentName)
	assert.Equal(t, 100.0, rec.OverallPercentage)
	assert.Equal(t, f.now, rec.AuditDate)
	require.NotNil(t, rec.RecordingExpiresAt)
	assert.Equal(t, f.now.AddDate(0, 0, 30), *rec.RecordingExpiresAt)
	assert.Equal(t, filepath.Join(f.uploads, rec.CallID+".mp3"), rec.AudioFilePath)
	assert.FileExists(t, rec.AudioFilePath)

	stored, err := f.store.Get(context.Background(), rec.CallID)
	require.NoError(t, err)
	assert.Equal(t, rec, stored)
	assert.Equal(t, []string{rec.CallID}, f.publisher.ids)
}

func TestProcessAudioRejectsUnsupportedType(t *testing.T) {
	f := newFixture(t, transcription.Mock{})
	_, err := f.proc.ProcessAudio(context.Background(), types.CallMetadata{}, "notes.txt", "text/plain", strings.NewReader("x"))
	assert.True(t, errors.Is(err, transcription.ErrUnsupportedAudio))
	assert.Empty(t, uploadedFiles(t, f.uploads))
}

func TestProcessAudioCleansUpOnTransportFailure(t *testing.T) {
	f := newFixture(t, transcription.Mock{})
	f.provider.err = errors.New("timeout")

	_, err := f.proc.ProcessAudio(context.Background(), types.CallMetadata{}, "call.wav", "", strings.NewReader("RIFF"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrTransport))
	assert.Empty(t, uploadedFiles(t, f.uploads))

	all, err := f.store.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, f.publisher.ids)
}

func TestProcessAudioCleansUpOnTranscriptionFailure(t *testing.T) {
	f := newFixture(t, failingTranscriber{})
	_, err := f.proc.ProcessAudio(context.Background(), types.CallMetadata{}, "call.wav", "", strings.NewReader("RIFF"))
	assert.ErrorContains(t, err, "stt unavailable")
	assert.Empty(t, uploadedFiles(t, f.uploads))
	assert.Equal(t, 0, f.provider.calls)
}

func TestProcessTranscript(t *testing.T) {
	f := newFixture(t, transcription.Mock{})
	callDate := time.Date(2025, 6, 20, 15, 0, 0, 0, time.UTC)

	rec, err := f.proc.ProcessTranscript(context.Background(), types.CallInput{
		CallID:   "row-12",
		CallDate: &callDate,
		Metadata: types.CallMetadata{AgentName: "Raj"},
		Text:     "Customer: my bill is wrong.",
	})
	require.NoError(t, err)
	assert.Equal(t, "row-12", rec.CallID)
	assert.Equal(t, callDate, rec.CallDate)
	assert.Equal(t, "unknown", rec.Language)
	assert.Empty(t, rec.AudioFilePath)
	assert.Nil(t, rec.RecordingExpiresAt)

	_, err = f.proc.ProcessTranscript(context.Background(), types.CallInput{Text: ""})
	assert.True(t, errors.Is(err, ErrEmptyTranscript))
}

func TestPublishFailureDoesNotFailAnalysis(t *testing.T) {
	f := newFixture(t, transcription.Mock{})
	f.publisher.err = errors.New("broker down")

	rec, err := f.proc.ProcessTranscript(context.Background(), types.CallInput{Text: "hello"})
	require.NoError(t, err)
	_, err = f.store.Get(context.Background(), rec.CallID)
	assert.NoError(t, err)
}
