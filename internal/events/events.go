package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"call-auditor-go/internal/config"
	"call-auditor-go/internal/logger"
	"call-auditor-go/internal/types"
)

// CallAnalyzedEvent is emitted after a record has been stored.
type CallAnalyzedEvent struct {
	CallID            string                 `json:"call_id"`
	AgentID           string                 `json:"agent_id,omitempty"`
	AgentName         string                 `json:"agent_name,omitempty"`
	CallDate          time.Time              `json:"call_date"`
	AuditDate         time.Time              `json:"audit_date"`
	OverallPercentage float64                `json:"overall_percentage"`
	Sentiment         types.Sentiment        `json:"sentiment"`
	EscalationRisk    int                    `json:"escalation_risk"`
	ComplianceRisk    types.RiskLevel        `json:"compliance_risk"`
	ResolutionStatus  types.ResolutionStatus `json:"resolution_status"`
	FollowUpRequired  bool                   `json:"follow_up_required"`
}

func NewCallAnalyzedEvent(r types.CallAnalysisRecord) CallAnalyzedEvent {
	return CallAnalyzedEvent{
		CallID:            r.CallID,
		AgentID:           r.AgentID,
		AgentName:         r.AgentName,
		CallDate:          r.CallDate,
		AuditDate:         r.AuditDate,
		OverallPercentage: r.OverallPercentage,
		Sentiment:         r.CustomerSentiment.OverallSentiment,
		EscalationRisk:    r.CustomerSentiment.EscalationRisk,
		ComplianceRisk:    r.ComplianceRisk.ComplianceRisk,
		ResolutionStatus:  r.ResolutionStatus,
		FollowUpRequired:  r.FollowUpRequired,
	}
}

// Publisher announces finished analyses to downstream consumers.
type Publisher interface {
	PublishAnalyzed(ctx context.Context, r types.CallAnalysisRecord) error
	Close() error
}

// messageWriter is the part of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher sends analysis events to a Kafka topic keyed by call id.
type KafkaPublisher struct {
	writer messageWriter
	log    *logger.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
		log: log.Component("events"),
	}
}

func (p *KafkaPublisher) PublishAnalyzed(ctx context.Context, r types.CallAnalysisRecord) error {
	data, err := json.Marshal(NewCallAnalyzedEvent(r))
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(r.CallID),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}

	p.log.WithCall(r.CallID).Debug("sent call analyzed event")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop drops every event; used when no brokers are configured.
type Nop struct{}

func (Nop) PublishAnalyzed(context.Context, types.CallAnalysisRecord) error { return nil }
func (Nop) Close() error                                                    { return nil }

// New returns a Kafka publisher when brokers are configured and Nop otherwise.
func New(cfg config.KafkaConfig, log *logger.Logger) Publisher {
	if len(cfg.Brokers) == 0 {
		return Nop{}
	}
	return NewKafkaPublisher(cfg.Brokers, cfg.Topic, log)
}
