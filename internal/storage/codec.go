package storage

import (
	"encoding/json"
	"fmt"

	"call-auditor-go/internal/types"
)

const recordColumns = `call_id, call_date, audit_date, duration_seconds,
	agent_id, agent_name, customer_name, customer_phone, call_type,
	transcription, language, call_summary, overall_sentiment,
	customer_sentiment, agent_behavior, compliance_risk, question_scores,
	total_score, max_score, overall_percentage,
	customer_intent, key_issues, resolution_status, follow_up_required,
	audio_file_path, recording_expires_at`

const recordColumnCount = 26

const summaryColumns = `call_id, agent_name, customer_name, call_date, duration_seconds,
	overall_percentage, overall_sentiment, resolution_status`

// documents holds the JSON encoded nested parts of a record.
type documents struct {
	Sentiment  []byte
	Behavior   []byte
	Compliance []byte
	Scores     []byte
	Issues     []byte
}

func encodeDocuments(r types.CallAnalysisRecord) (documents, error) {
	var (
		d   documents
		err error
	)
	if d.Sentiment, err = json.Marshal(r.CustomerSentiment); err != nil {
		return d, fmt.Errorf("encoding customer_sentiment: %w", err)
	}
	if d.Behavior, err = json.Marshal(r.AgentBehavior); err != nil {
		return d, fmt.Errorf("encoding agent_behavior: %w", err)
	}
	if d.Compliance, err = json.Marshal(r.ComplianceRisk); err != nil {
		return d, fmt.Errorf("encoding compliance_risk: %w", err)
	}
	scores := r.QuestionScores
	if scores == nil {
		scores = []types.QuestionScore{}
	}
	if d.Scores, err = json.Marshal(scores); err != nil {
		return d, fmt.Errorf("encoding question_scores: %w", err)
	}
	issues := r.KeyIssues
	if issues == nil {
		issues = []string{}
	}
	if d.Issues, err = json.Marshal(issues); err != nil {
		return d, fmt.Errorf("encoding key_issues: %w", err)
	}
	return d, nil
}

func (d documents) decodeInto(r *types.CallAnalysisRecord) error {
	parts := []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"customer_sentiment", d.Sentiment, &r.CustomerSentiment},
		{"agent_behavior", d.Behavior, &r.AgentBehavior},
		{"compliance_risk", d.Compliance, &r.ComplianceRisk},
		{"question_scores", d.Scores, &r.QuestionScores},
		{"key_issues", d.Issues, &r.KeyIssues},
	}
	for _, p := range parts {
		if len(p.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(p.raw, p.dst); err != nil {
			return fmt.Errorf("decoding %s of %s: %w", p.name, r.CallID, err)
		}
	}
	if r.QuestionScores == nil {
		r.QuestionScores = []types.QuestionScore{}
	}
	if r.KeyIssues == nil {
		r.KeyIssues = []string{}
	}
	if r.CustomerSentiment.Emotions == nil {
		r.CustomerSentiment.Emotions = []types.Emotion{}
	}
	return nil
}
