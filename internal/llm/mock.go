package llm

import (
	"context"
	"encoding/json"

	"call-auditor-go/internal/types"
)

// Mock returns a fixed, well-formed analysis. Enabled with USE_MOCK_LLM=true
// for offline demos.
type Mock struct {
	response string
}

func NewMock() *Mock {
	scores := make([]map[string]any, 0, 20)
	for i, q := range types.Questionnaire() {
		score := q.MaxScore
		if i%4 == 3 {
			score = q.MaxScore / 2
		}
		scores = append(scores, map[string]any{
			"category":  q.Category,
			"question":  q.Question,
			"answer":    "Yes",
			"score":     score,
			"max_score": q.MaxScore,
		})
	}
	doc := map[string]any{
		"customer_sentiment": map[string]any{
			"overall_sentiment":     "Mixed",
			"emotions":              []string{"Frustrated", "Cooperative", "Satisfied"},
			"urgency_level":         "Medium",
			"frustration_indicator": true,
			"escalation_risk":       35,
			"call_opening_emotion":  "Frustrated",
			"call_end_emotion":      "Satisfied",
		},
		"agent_behavior": map[string]any{
			"calmness": true, "confidence": true, "politeness": true, "empathy": true, "proper_grammar": true,
		},
		"compliance_risk": map[string]any{
			"fraud_suspected":     false,
			"compliance_risk":     "low",
			"trust_justification": "Customer identity verified before account changes.",
		},
		"call_summary":       "Customer reported a duplicate charge on the latest bill. The agent verified the account and raised a refund request. The customer accepted the resolution timeline.",
		"customer_intent":    "Complaint",
		"key_issues":         []string{"Duplicate charge", "Refund timeline"},
		"resolution_status":  "Resolved",
		"follow_up_required": false,
		"question_scores":    scores,
	}
	b, _ := json.Marshal(doc)
	return &Mock{response: "```json\n" + string(b) + "\n```"}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Complete(ctx context.Context, _, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", transportError(m.Name(), err)
	}
	return m.response, nil
}
