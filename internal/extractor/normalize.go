package extractor

import (
	"encoding/json"
	"math"
	"strings"
	"unicode"

	"github.com/spf13/cast"

	"call-auditor-go/internal/types"
)

const fence = "```"

// StripFence removes markdown code fences (commonly output by LLMs) and a
// leading language tag such as "json". The body runs from the first fence to
// the last one. Text without a fence is only trimmed.
func StripFence(raw string) string {
	s := strings.TrimSpace(raw)
	start := strings.Index(s, fence)
	if start == -1 {
		return s
	}
	body := s[start+len(fence):]
	if end := strings.LastIndex(body, fence); end != -1 {
		body = body[:end]
	}
	body = strings.TrimLeft(body, " \t")

	tagless := strings.TrimLeftFunc(body, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_'
	})
	if tagless != body {
		rest := strings.TrimSpace(tagless)
		if strings.HasPrefix(rest, "{") || strings.HasPrefix(rest, "[") {
			body = rest
		}
	}
	return strings.TrimSpace(body)
}

// Normalize maps a raw provider response onto a fully populated Analysis.
// It reports false when the payload is not a JSON object at all, in which
// case the complete default analysis is returned. Any other defect only
// resets the affected field or section.
func Normalize(raw string, items []types.QuestionnaireItem) (types.Analysis, bool) {
	doc, ok := decodeObject(raw)
	if !ok {
		return DefaultAnalysis(items), false
	}

	return types.Analysis{
		CustomerSentiment: parseSentiment(doc),
		AgentBehavior:     parseBehavior(doc),
		ComplianceRisk:    parseCompliance(doc),
		QuestionScores:    parseScores(doc, items),
		CallSummary:       text(doc, "call_summary", summaryUnavailable),
		CustomerIntent:    text(doc, "customer_intent", unknownIntent),
		KeyIssues:         stringList(doc, "key_issues"),
		ResolutionStatus:  resolution(doc),
		FollowUpRequired:  boolean(doc, "follow_up_required", false),
	}, true
}

// decodeObject parses the trimmed response as is and falls back to the
// fence-stripped body, so backticks inside string values are left alone.
func decodeObject(raw string) (map[string]any, bool) {
	for _, candidate := range []string{strings.TrimSpace(raw), StripFence(raw)} {
		var doc map[string]any
		if err := json.Unmarshal([]byte(candidate), &doc); err == nil && doc != nil {
			return doc, true
		}
	}
	return nil, false
}

func parseSentiment(doc map[string]any) types.CustomerSentiment {
	out := defaultSentiment()
	m, ok := doc["customer_sentiment"].(map[string]any)
	if !ok {
		return out
	}
	if v, ok := types.ParseSentiment(str(m, "overall_sentiment")); ok {
		out.OverallSentiment = v
	}
	if arr, ok := m["emotions"].([]any); ok {
		out.Emotions = emotions(arr)
	}
	if v, ok := types.ParseUrgency(str(m, "urgency_level")); ok {
		out.UrgencyLevel = v
	}
	out.FrustrationIndicator = boolean(m, "frustration_indicator", false)
	if n, ok := number(m, "escalation_risk"); ok {
		out.EscalationRisk = clamp(n, 0, 100)
	}
	if v, ok := types.ParseEmotion(str(m, "call_opening_emotion")); ok {
		out.CallOpeningEmotion = v
	}
	if v, ok := types.ParseEmotion(str(m, "call_end_emotion")); ok {
		out.CallEndEmotion = v
	}
	return out
}

// emotions keeps recognised values in order. A non-empty list with nothing
// recognisable falls back to the default; an explicitly empty list stays empty.
func emotions(arr []any) []types.Emotion {
	out := make([]types.Emotion, 0, types.MaxEmotions)
	for _, e := range arr {
		s, ok := e.(string)
		if !ok {
			continue
		}
		if v, ok := types.ParseEmotion(s); ok {
			out = append(out, v)
		}
		if len(out) == types.MaxEmotions {
			break
		}
	}
	if len(out) == 0 && len(arr) > 0 {
		return defaultSentiment().Emotions
	}
	return out
}

func parseBehavior(doc map[string]any) types.AgentBehavior {
	out := defaultBehavior()
	m, ok := doc["agent_behavior"].(map[string]any)
	if !ok {
		return out
	}
	out.Calmness = boolean(m, "calmness", true)
	out.Confidence = boolean(m, "confidence", true)
	out.Politeness = boolean(m, "politeness", true)
	out.Empathy = boolean(m, "empathy", true)
	out.ProperGrammar = boolean(m, "proper_grammar", true)
	return out
}

func parseCompliance(doc map[string]any) types.ComplianceRisk {
	out := defaultCompliance()
	m, ok := doc["compliance_risk"].(map[string]any)
	if !ok {
		return out
	}
	out.FraudSuspected = boolean(m, "fraud_suspected", false)
	if v, ok := types.ParseRiskLevel(str(m, "compliance_risk")); ok {
		out.ComplianceRisk = v
	}
	out.TrustJustification = text(m, "trust_justification", noConcerns)
	return out
}

// parseScores clamps every provider score. Entries that line up with a
// canonical item take the canonical category, question and max score. Each
// canonical item is scored at most once; repeats are dropped.
func parseScores(doc map[string]any, items []types.QuestionnaireItem) []types.QuestionScore {
	arr, ok := doc["question_scores"].([]any)
	if !ok || len(arr) == 0 {
		return defaultScores(items)
	}

	used := make([]bool, len(items))
	out := make([]types.QuestionScore, 0, len(arr))
	for i, e := range arr {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		idx, repeat := canonicalItem(items, used, i, m)
		if repeat {
			continue
		}
		q := types.QuestionScore{
			Category: text(m, "category", unknownCategory),
			Question: text(m, "question", ""),
			Answer:   text(m, "answer", missingAnswer),
			MaxScore: defaultItemMaxScore,
		}
		claimed, hasClaim := number(m, "max_score")
		if hasClaim {
			q.MaxScore = clamp(claimed, 0, math.MaxInt32)
		}
		if idx >= 0 {
			used[idx] = true
			c := items[idx]
			q.Category, q.Question, q.MaxScore = c.Category, c.Question, c.MaxScore
		}

		ceiling := q.MaxScore
		if hasClaim && claimed < float64(ceiling) {
			ceiling = clamp(claimed, 0, ceiling)
		}
		if n, ok := number(m, "score"); ok {
			q.Score = clamp(n, 0, ceiling)
		}
		out = append(out, q)
	}
	if len(out) == 0 {
		return defaultScores(items)
	}
	return out
}

// canonicalItem matches by question text first, then by position when the
// category agrees or is missing. It returns -1 for no match, and repeat is
// set when the question text names an item that was already scored.
func canonicalItem(items []types.QuestionnaireItem, used []bool, idx int, m map[string]any) (match int, repeat bool) {
	question := normalizeText(str(m, "question"))
	if question != "" {
		for j, it := range items {
			if normalizeText(it.Question) == question {
				if used[j] {
					return -1, true
				}
				return j, false
			}
		}
	}
	if idx < len(items) && !used[idx] {
		cat := str(m, "category")
		if cat == "" || strings.EqualFold(strings.TrimSpace(cat), items[idx].Category) {
			return idx, false
		}
	}
	return -1, false
}

func resolution(doc map[string]any) types.ResolutionStatus {
	if v, ok := types.ParseResolution(str(doc, "resolution_status")); ok {
		return v
	}
	return types.ResolutionUnknown
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func text(m map[string]any, key, fallback string) string {
	if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return fallback
}

func stringList(m map[string]any, key string) []string {
	out := []string{}
	arr, ok := m[key].([]any)
	if !ok {
		return out
	}
	for _, v := range arr {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func boolean(m map[string]any, key string, fallback bool) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		if b, err := cast.ToBoolE(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

// number accepts JSON numbers and numeric strings.
func number(m map[string]any, key string) (float64, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, false
	}
	switch v.(type) {
	case float64, string, json.Number:
	default:
		return 0, false
	}
	if s, isStr := v.(string); isStr {
		v = strings.TrimSuffix(strings.TrimSpace(s), "%")
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func clamp(f float64, lo, hi int) int {
	f = math.Round(f)
	if f < float64(lo) {
		return lo
	}
	if f > float64(hi) {
		return hi
	}
	return int(f)
}
