package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-auditor-go/internal/config"
	"call-auditor-go/internal/logger"
	"call-auditor-go/internal/types"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func record() types.CallAnalysisRecord {
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	return types.CallAnalysisRecord{
		CallID:            "call-7",
		AgentName:         "Amy",
		CallDate:          now,
		AuditDate:         now,
		OverallPercentage: 81.33,
		CustomerSentiment: types.CustomerSentiment{OverallSentiment: types.SentimentNegative, EscalationRisk: 70},
		ComplianceRisk:    types.ComplianceRisk{ComplianceRisk: types.RiskHigh},
		ResolutionStatus:  types.ResolutionFollowUp,
		FollowUpRequired:  true,
	}
}

func TestKafkaPublisherWritesKeyedEvent(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w, log: logger.Discard()}

	require.NoError(t, p.PublishAnalyzed(context.Background(), record()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "call-7", string(w.msgs[0].Key))

	var ev CallAnalyzedEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, types.SentimentNegative, ev.Sentiment)
	assert.Equal(t, 70, ev.EscalationRisk)
	assert.Equal(t, types.RiskHigh, ev.ComplianceRisk)
	assert.True(t, ev.FollowUpRequired)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisherPropagatesWriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &recordingWriter{err: errors.New("broker down")}, log: logger.Discard()}
	assert.EqualError(t, p.PublishAnalyzed(context.Background(), record()), "broker down")
}

func TestNewWithoutBrokersIsNop(t *testing.T) {
	p := New(config.KafkaConfig{Topic: "call-analyses"}, logger.Discard())
	assert.IsType(t, Nop{}, p)
	assert.NoError(t, p.PublishAnalyzed(context.Background(), record()))

	p = New(config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "call-analyses"}, logger.Discard())
	assert.IsType(t, &KafkaPublisher{}, p)
	assert.NoError(t, p.Close())
}
