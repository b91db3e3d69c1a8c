package extractor

import "call-auditor-go/internal/types"

const (
	unableToAssess      = "Unable to assess"
	noConcerns          = "No concerns identified"
	summaryUnavailable  = "Summary unavailable"
	unknownIntent       = "Unknown"
	unknownCategory     = "Unknown"
	missingAnswer       = "NA"
	defaultItemMaxScore = 5
)

func defaultSentiment() types.CustomerSentiment {
	return types.CustomerSentiment{
		OverallSentiment:   types.SentimentNeutral,
		Emotions:           []types.Emotion{types.EmotionCalm},
		UrgencyLevel:       types.UrgencyMedium,
		EscalationRisk:     0,
		CallOpeningEmotion: types.EmotionCalm,
		CallEndEmotion:     types.EmotionCalm,
	}
}

// Unparseable behavior is reported optimistically to avoid flagging agents
// on provider noise.
func defaultBehavior() types.AgentBehavior {
	return types.AgentBehavior{
		Calmness:      true,
		Confidence:    true,
		Politeness:    true,
		Empathy:       true,
		ProperGrammar: true,
	}
}

func defaultCompliance() types.ComplianceRisk {
	return types.ComplianceRisk{
		FraudSuspected:     false,
		ComplianceRisk:     types.RiskLow,
		TrustJustification: unableToAssess,
	}
}

func defaultScores(items []types.QuestionnaireItem) []types.QuestionScore {
	out := make([]types.QuestionScore, len(items))
	for i, q := range items {
		out[i] = types.QuestionScore{
			Category: q.Category,
			Question: q.Question,
			Answer:   unableToAssess,
			Score:    0,
			MaxScore: q.MaxScore,
		}
	}
	return out
}

// DefaultAnalysis is the zero-information analysis used when the provider
// response cannot be parsed at all.
func DefaultAnalysis(items []types.QuestionnaireItem) types.Analysis {
	return types.Analysis{
		CustomerSentiment: defaultSentiment(),
		AgentBehavior:     defaultBehavior(),
		ComplianceRisk:    defaultCompliance(),
		QuestionScores:    defaultScores(items),
		CallSummary:       summaryUnavailable,
		CustomerIntent:    unknownIntent,
		KeyIssues:         []string{},
		ResolutionStatus:  types.ResolutionUnknown,
		FollowUpRequired:  false,
	}
}
