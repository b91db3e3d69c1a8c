package types

import (
	"math"
	"time"
)

// CustomerSentiment describes how the customer felt during the call.
type CustomerSentiment struct {
	OverallSentiment     Sentiment `json:"overall_sentiment"`
	Emotions             []Emotion `json:"emotions"`
	UrgencyLevel         Urgency   `json:"urgency_level"`
	FrustrationIndicator bool      `json:"frustration_indicator"`
	EscalationRisk       int       `json:"escalation_risk"` // 0-100
	CallOpeningEmotion   Emotion   `json:"call_opening_emotion"`
	CallEndEmotion       Emotion   `json:"call_end_emotion"`
}

type AgentBehavior struct {
	Calmness      bool `json:"calmness"`
	Confidence    bool `json:"confidence"`
	Politeness    bool `json:"politeness"`
	Empathy       bool `json:"empathy"`
	ProperGrammar bool `json:"proper_grammar"`
}

type ComplianceRisk struct {
	FraudSuspected     bool      `json:"fraud_suspected"`
	ComplianceRisk     RiskLevel `json:"compliance_risk"`
	TrustJustification string    `json:"trust_justification"`
}

// QuestionScore is a questionnaire item as scored for one call. Score is
// always within [0, MaxScore].
type QuestionScore struct {
	Category string `json:"category"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Score    int    `json:"score"`
	MaxScore int    `json:"max_score"`
}

// Analysis is the normalized output of a single provider call.
type Analysis struct {
	CustomerSentiment CustomerSentiment `json:"customer_sentiment"`
	AgentBehavior     AgentBehavior     `json:"agent_behavior"`
	ComplianceRisk    ComplianceRisk    `json:"compliance_risk"`
	QuestionScores    []QuestionScore   `json:"question_scores"`
	CallSummary       string            `json:"call_summary"`
	CustomerIntent    string            `json:"customer_intent"`
	KeyIssues         []string          `json:"key_issues"`
	ResolutionStatus  ResolutionStatus  `json:"resolution_status"`
	FollowUpRequired  bool              `json:"follow_up_required"`
}

// CallMetadata is caller supplied information about the participants.
type CallMetadata struct {
	AgentID       string   `json:"agent_id,omitempty"`
	AgentName     string   `json:"agent_name,omitempty"`
	CustomerName  string   `json:"customer_name,omitempty"`
	CustomerPhone string   `json:"customer_phone,omitempty"`
	CallType      CallType `json:"call_type,omitempty"`
}

// Transcript is what the speech-to-text collaborator returns.
type Transcript struct {
	Text            string  `json:"text"`
	Language        string  `json:"language"`
	DurationSeconds float64 `json:"duration"`
}

// CallInput is one transcript queued for analysis, e.g. a spreadsheet row.
type CallInput struct {
	CallID   string       `json:"call_id,omitempty"`
	CallDate *time.Time   `json:"call_date,omitempty"`
	Metadata CallMetadata `json:"metadata"`
	Text     string       `json:"transcript"`
}

// CallAnalysisRecord is the stored audit result of one call.
type CallAnalysisRecord struct {
	CallID          string    `json:"call_id"`
	CallDate        time.Time `json:"call_date"`
	AuditDate       time.Time `json:"audit_date"`
	DurationSeconds float64   `json:"duration_seconds"`

	AgentID       string   `json:"agent_id,omitempty"`
	AgentName     string   `json:"agent_name,omitempty"`
	CustomerName  string   `json:"customer_name,omitempty"`
	CustomerPhone string   `json:"customer_phone,omitempty"`
	CallType      CallType `json:"call_type,omitempty"`

	Transcription string `json:"transcription"`
	Language      string `json:"language"`

	CallSummary       string            `json:"call_summary"`
	CustomerSentiment CustomerSentiment `json:"customer_sentiment"`
	AgentBehavior     AgentBehavior     `json:"agent_behavior"`
	ComplianceRisk    ComplianceRisk    `json:"compliance_risk"`
	QuestionScores    []QuestionScore   `json:"question_scores"`

	TotalScore        int     `json:"total_score"`
	MaxScore          int     `json:"max_score"`
	OverallPercentage float64 `json:"overall_percentage"`

	CustomerIntent   string           `json:"customer_intent"`
	KeyIssues        []string         `json:"key_issues"`
	ResolutionStatus ResolutionStatus `json:"resolution_status"`
	FollowUpRequired bool             `json:"follow_up_required"`

	AudioFilePath      string     `json:"-"`
	RecordingExpiresAt *time.Time `json:"recording_expires_at,omitempty"`
}

// CallSummary is the list view of a record.
type CallSummary struct {
	ID               string           `json:"id"`
	AgentName        string           `json:"agent_name"`
	CustomerName     string           `json:"customer_name"`
	CallDate         time.Time        `json:"call_date"`
	Duration         float64          `json:"duration"`
	OverallScore     float64          `json:"overall_score"`
	Sentiment        Sentiment        `json:"sentiment"`
	ResolutionStatus ResolutionStatus `json:"resolution_status"`
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ScoreTotals sums scores and max scores and derives the overall percentage.
func ScoreTotals(scores []QuestionScore) (total, maxScore int, pct float64) {
	for _, q := range scores {
		total += q.Score
		maxScore += q.MaxScore
	}
	if maxScore > 0 {
		pct = Round2(float64(total) / float64(maxScore) * 100)
	}
	return total, maxScore, pct
}

// NewRecord assembles a record from a finished analysis. Call and audit
// dates default to now when callDate is nil.
func NewRecord(id string, callDate *time.Time, meta CallMetadata, tr Transcript, a Analysis, now time.Time) CallAnalysisRecord {
	now = now.UTC()
	cd := now
	if callDate != nil && !callDate.IsZero() {
		cd = callDate.UTC()
	}
	total, maxScore, pct := ScoreTotals(a.QuestionScores)
	lang := tr.Language
	if lang == "" {
		lang = "unknown"
	}
	return CallAnalysisRecord{
		CallID:            id,
		CallDate:          cd,
		AuditDate:         now,
		DurationSeconds:   tr.DurationSeconds,
		AgentID:           meta.AgentID,
		AgentName:         meta.AgentName,
		CustomerName:      meta.CustomerName,
		CustomerPhone:     meta.CustomerPhone,
		CallType:          meta.CallType,
		Transcription:     tr.Text,
		Language:          lang,
		CallSummary:       a.CallSummary,
		CustomerSentiment: a.CustomerSentiment,
		AgentBehavior:     a.AgentBehavior,
		ComplianceRisk:    a.ComplianceRisk,
		QuestionScores:    a.QuestionScores,
		TotalScore:        total,
		MaxScore:          maxScore,
		OverallPercentage: pct,
		CustomerIntent:    a.CustomerIntent,
		KeyIssues:         a.KeyIssues,
		ResolutionStatus:  a.ResolutionStatus,
		FollowUpRequired:  a.FollowUpRequired,
	}
}

// Summary returns the list view of the record.
func (r CallAnalysisRecord) Summary() CallSummary {
	agent, customer := r.AgentName, r.CustomerName
	if agent == "" {
		agent = "Unknown"
	}
	if customer == "" {
		customer = "Unknown"
	}
	return CallSummary{
		ID:               r.CallID,
		AgentName:        agent,
		CustomerName:     customer,
		CallDate:         r.CallDate,
		Duration:         r.DurationSeconds,
		OverallScore:     r.OverallPercentage,
		Sentiment:        r.CustomerSentiment.OverallSentiment,
		ResolutionStatus: r.ResolutionStatus,
	}
}
