package types

import "strings"

type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentNegative Sentiment = "Negative"
	SentimentMixed    Sentiment = "Mixed"
)

// Sentiments lists the sentiment vocabulary in canonical order.
var Sentiments = []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative, SentimentMixed}

type Urgency string

const (
	UrgencyHigh   Urgency = "High"
	UrgencyMedium Urgency = "Medium"
	UrgencyLow    Urgency = "Low"
)

var Urgencies = []Urgency{UrgencyHigh, UrgencyMedium, UrgencyLow}

type Emotion string

const (
	EmotionCalm        Emotion = "Calm"
	EmotionCooperative Emotion = "Cooperative"
	EmotionConfused    Emotion = "Confused"
	EmotionAngry       Emotion = "Angry"
	EmotionFrustrated  Emotion = "Frustrated"
	EmotionSatisfied   Emotion = "Satisfied"
)

var Emotions = []Emotion{EmotionCalm, EmotionCooperative, EmotionConfused, EmotionAngry, EmotionFrustrated, EmotionSatisfied}

// MaxEmotions caps the emotions recorded per call.
const MaxEmotions = 5

type ResolutionStatus string

const (
	ResolutionResolved          ResolutionStatus = "Resolved"
	ResolutionPartiallyResolved ResolutionStatus = "Partially Resolved"
	ResolutionUnresolved        ResolutionStatus = "Unresolved"
	ResolutionFollowUp          ResolutionStatus = "Requires Follow-up"

	// ResolutionUnknown is only ever produced as a default.
	ResolutionUnknown ResolutionStatus = "Unknown"
)

var ResolutionStatuses = []ResolutionStatus{ResolutionResolved, ResolutionPartiallyResolved, ResolutionUnresolved, ResolutionFollowUp}

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

var RiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh}

type CallType string

const (
	CallIncoming CallType = "incoming"
	CallOutgoing CallType = "outgoing"
)

var CallTypes = []CallType{CallIncoming, CallOutgoing}

// match returns the vocabulary entry equal to s ignoring case and surrounding space.
func match[T ~string](vocab []T, s string) (T, bool) {
	s = strings.TrimSpace(s)
	for _, v := range vocab {
		if strings.EqualFold(string(v), s) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func ParseSentiment(s string) (Sentiment, bool)         { return match(Sentiments, s) }
func ParseUrgency(s string) (Urgency, bool)             { return match(Urgencies, s) }
func ParseEmotion(s string) (Emotion, bool)             { return match(Emotions, s) }
func ParseResolution(s string) (ResolutionStatus, bool) { return match(ResolutionStatuses, s) }
func ParseRiskLevel(s string) (RiskLevel, bool)         { return match(RiskLevels, s) }
func ParseCallType(s string) (CallType, bool)           { return match(CallTypes, s) }
