package extractor

import (
	"fmt"
	"strings"

	"call-auditor-go/internal/types"
)

// SystemPrompt is sent as the system instruction with every analysis request.
const SystemPrompt = "You are an expert call center quality auditor. Score calls fairly based only on evidence in the transcription. Always respond with a single valid JSON object and nothing else."

const analysisPrompt = `Analyze this customer service call transcription in full and return ONE JSON object with exactly these sections:

{
  "customer_sentiment": {
    "overall_sentiment": one of %s,
    "emotions": array of at most %d values, each one of %s,
    "urgency_level": one of %s,
    "frustration_indicator": boolean,
    "escalation_risk": integer 0-100 (percentage),
    "call_opening_emotion": one of the emotions above,
    "call_end_emotion": one of the emotions above
  },
  "agent_behavior": {
    "calmness": boolean,
    "confidence": boolean,
    "politeness": boolean,
    "empathy": boolean,
    "proper_grammar": boolean
  },
  "compliance_risk": {
    "fraud_suspected": boolean,
    "compliance_risk": one of %s,
    "trust_justification": brief explanation of the risk assessment
  },
  "call_summary": 2-3 sentences covering the customer's issue, the action taken and the outcome,
  "customer_intent": primary intent (e.g. "Complaint", "Query", "Feedback", "Request"),
  "key_issues": array of specific issues raised,
  "resolution_status": one of %s,
  "follow_up_required": boolean,
  "question_scores": array with one object per question below, in the same order, each with
    "category", "question", "answer" (Yes/No/NA with a short reason), "score" (0 to max_score), "max_score"
}

Questions:
%s

Transcription:
%s

Return ONLY valid JSON. Do not wrap it in backticks and do not add commentary.`

// BuildAnalysisPrompt combines sentiment, behavior, compliance, summary,
// intent and questionnaire scoring into a single request.
func BuildAnalysisPrompt(transcript string, items []types.QuestionnaireItem) string {
	return fmt.Sprintf(analysisPrompt,
		quoted(types.Sentiments),
		types.MaxEmotions,
		quoted(types.Emotions),
		quoted(types.Urgencies),
		quoted(types.RiskLevels),
		quoted(types.ResolutionStatuses),
		QuestionList(items),
		transcript,
	)
}

// QuestionList renders the questionnaire as numbered lines.
func QuestionList(items []types.QuestionnaireItem) string {
	lines := make([]string, 0, len(items))
	for i, q := range items {
		lines = append(lines, fmt.Sprintf("%d. [%s] %s (max: %d points)", i+1, q.Category, q.Question, q.MaxScore))
	}
	return strings.Join(lines, "\n")
}

func quoted[T ~string](vocab []T) string {
	parts := make([]string, len(vocab))
	for i, v := range vocab {
		parts[i] = `"` + string(v) + `"`
	}
	return strings.Join(parts, ", ")
}
