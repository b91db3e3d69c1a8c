// internal/types/dashboard_models.go
package types

// --------------------------------------------
// Summary metrics for the dashboard header
// --------------------------------------------
type DashboardMetrics struct {
	TotalCalls            int               `json:"total_calls"`
	AvgScore              float64           `json:"avg_score"`
	SentimentDistribution map[string]int    `json:"sentiment_distribution"`
	UrgencyDistribution   map[string]int    `json:"urgency_distribution"`
	EscalationRate        float64           `json:"escalation_rate"`
	AvgCallDuration       float64           `json:"avg_call_duration"`
	TopIssues             []IssueCount      `json:"top_issues"`
	AgentPerformance      []AgentScore      `json:"agent_performance"`
	DailyTrends           []DailyTrendPoint `json:"daily_trends"`
}

type IssueCount struct {
	Issue string `json:"issue"`
	Count int    `json:"count"`
}

type AgentScore struct {
	Agent      string  `json:"agent"`
	AvgScore   float64 `json:"avg_score"`
	TotalCalls int     `json:"total_calls"`
}

type DailyTrendPoint struct {
	Date          string  `json:"date"`
	Calls         int     `json:"calls"`
	AvgScore      float64 `json:"avg_score"`
	PositiveCalls int     `json:"positive_calls"`
	NegativeCalls int     `json:"negative_calls"`
}

// --------------------------------------------
// Chart payloads
// --------------------------------------------

// LabeledChart backs the sentiment pie and urgency donut.
type LabeledChart struct {
	Labels []string          `json:"labels"`
	Values []int             `json:"values"`
	Colors map[string]string `json:"colors"`
}

// HistogramChart backs the escalation risk histogram; colors follow bucket order.
type HistogramChart struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
	Colors []string `json:"colors"`
}

type AgentPerformanceRow struct {
	Agent         string  `json:"agent"`
	AvgScore      float64 `json:"avg_score"`
	TotalCalls    int     `json:"total_calls"`
	PositiveCalls int     `json:"positive_calls"`
	NegativeCalls int     `json:"negative_calls"`
}

type DailyTrendsChart struct {
	Dates     []string  `json:"dates"`
	Calls     []int     `json:"calls"`
	AvgScores []float64 `json:"avg_scores"`
	Positive  []int     `json:"positive"`
	Negative  []int     `json:"negative"`
	Neutral   []int     `json:"neutral"`
}

type CategoryScore struct {
	Category      string  `json:"category"`
	AvgPercentage float64 `json:"avg_percentage"`
	TotalScore    int     `json:"total_score"`
	MaxScore      int     `json:"max_score"`
}
