package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-auditor-go/internal/types"
)

var now = time.Date(2025, 6, 30, 15, 0, 0, 0, time.UTC)

type recOpt func(*types.CallAnalysisRecord)

func rec(opts ...recOpt) types.CallAnalysisRecord {
	r := types.CallAnalysisRecord{
		CallID:    "c",
		CallDate:  now,
		AuditDate: now,
		CustomerSentiment: types.CustomerSentiment{
			OverallSentiment: types.SentimentNeutral,
			UrgencyLevel:     types.UrgencyMedium,
		},
		KeyIssues: []string{},
	}
	for _, o := range opts {
		o(&r)
	}
	return r
}

func agent(name string) recOpt { return func(r *types.CallAnalysisRecord) { r.AgentName = name } }
func score(p float64) recOpt   { return func(r *types.CallAnalysisRecord) { r.OverallPercentage = p } }
func risk(v int) recOpt {
	return func(r *types.CallAnalysisRecord) { r.CustomerSentiment.EscalationRisk = v }
}
func daysAgo(d int) recOpt {
	return func(r *types.CallAnalysisRecord) { r.CallDate = now.AddDate(0, 0, -d) }
}
func sentiment(s types.Sentiment) recOpt {
	return func(r *types.CallAnalysisRecord) { r.CustomerSentiment.OverallSentiment = s }
}
func urgency(u types.Urgency) recOpt {
	return func(r *types.CallAnalysisRecord) { r.CustomerSentiment.UrgencyLevel = u }
}
func issues(i ...string) recOpt { return func(r *types.CallAnalysisRecord) { r.KeyIssues = i } }

func TestPositiveHighRiskCallToday(t *testing.T) {
	records := []types.CallAnalysisRecord{rec(sentiment(types.SentimentPositive), risk(75), score(90))}

	pie := SentimentPie(records)
	assert.Equal(t, []string{"Positive"}, pie.Labels)
	assert.Equal(t, []int{1}, pie.Values)
	assert.Equal(t, "#10B981", pie.Colors["Positive"])

	hist := EscalationHistogram(records)
	assert.Equal(t, []int{0, 0, 0, 1, 0}, hist.Values)
	assert.Equal(t, "60-80%", hist.Labels[3])

	trend := DailyTrends(records, now)
	require.Equal(t, []string{"2025-06-30"}, trend.Dates)
	assert.Equal(t, []int{1}, trend.Calls)
	assert.Equal(t, []int{1}, trend.Positive)
	assert.Equal(t, []int{0}, trend.Neutral)

	m := Summary(records, now)
	require.Len(t, m.DailyTrends, 1)
	assert.Equal(t, 1, m.DailyTrends[0].PositiveCalls)
	assert.Equal(t, 100.0, m.EscalationRate)
}

func TestAgentAverage(t *testing.T) {
	records := []types.CallAnalysisRecord{
		rec(agent("Amy"), score(80)),
		rec(agent("Amy"), score(60), sentiment(types.SentimentNegative)),
	}
	rows := AgentPerformance(records)
	require.Len(t, rows, 1)
	assert.Equal(t, types.AgentPerformanceRow{Agent: "Amy", AvgScore: 70.0, TotalCalls: 2, NegativeCalls: 1}, rows[0])

	m := Summary(records, now)
	assert.Equal(t, []types.AgentScore{{Agent: "Amy", AvgScore: 70.0, TotalCalls: 2}}, m.AgentPerformance)
}

func TestAgentRankingAndTies(t *testing.T) {
	records := []types.CallAnalysisRecord{
		rec(agent("Bea"), score(50)),
		rec(score(90)),
		rec(agent("Cal"), score(50)),
		rec(agent("Dev"), score(70)),
	}
	rows := AgentPerformance(records)
	var names []string
	for _, r := range rows {
		names = append(names, r.Agent)
	}
	assert.Equal(t, []string{"Unknown", "Dev", "Bea", "Cal"}, names)
}

func TestSummaryEmpty(t *testing.T) {
	m := Summary(nil, now)
	assert.Equal(t, 0, m.TotalCalls)
	assert.Zero(t, m.AvgScore)
	assert.Zero(t, m.EscalationRate)
	assert.Zero(t, m.AvgCallDuration)
	assert.Equal(t, map[string]int{"Positive": 0, "Neutral": 0, "Negative": 0, "Mixed": 0}, m.SentimentDistribution)
	assert.Equal(t, map[string]int{"High": 0, "Medium": 0, "Low": 0}, m.UrgencyDistribution)
	assert.NotNil(t, m.TopIssues)
	assert.Empty(t, m.TopIssues)
	assert.Empty(t, m.AgentPerformance)
	assert.Empty(t, m.DailyTrends)
}

func TestViewsEmpty(t *testing.T) {
	assert.Empty(t, SentimentPie(nil).Labels)
	assert.Empty(t, UrgencyDonut(nil).Values)
	assert.Empty(t, AgentPerformance(nil))
	assert.Empty(t, DailyTrends(nil, now).Dates)
	assert.Empty(t, CategoryScores(nil))
	assert.Equal(t, []int{0, 0, 0, 0, 0}, EscalationHistogram(nil).Values)
}

func TestSummaryMetrics(t *testing.T) {
	records := []types.CallAnalysisRecord{
		rec(score(100), risk(51), issues("Billing", "Refund")),
		rec(score(50), risk(50), issues("Refund"), urgency(types.UrgencyHigh)),
		rec(score(0), risk(10), issues("Login", "Billing", "Refund"), sentiment(types.SentimentMixed)),
	}
	records[0].DurationSeconds = 100
	records[1].DurationSeconds = 50

	m := Summary(records, now)
	assert.Equal(t, 3, m.TotalCalls)
	assert.Equal(t, 50.0, m.AvgScore)
	assert.Equal(t, 50.0, m.AvgCallDuration)
	assert.Equal(t, 33.33, m.EscalationRate)
	assert.Equal(t, map[string]int{"Neutral": 2, "Mixed": 1}, m.SentimentDistribution)
	assert.Equal(t, map[string]int{"Medium": 2, "High": 1}, m.UrgencyDistribution)
	assert.Equal(t, []types.IssueCount{
		{Issue: "Refund", Count: 3},
		{Issue: "Billing", Count: 2},
		{Issue: "Login", Count: 1},
	}, m.TopIssues)
}

func TestTopIssuesCappedAtTen(t *testing.T) {
	list := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	m := Summary([]types.CallAnalysisRecord{rec(issues(list...)), rec(issues("l"))}, now)
	require.Len(t, m.TopIssues, 10)
	assert.Equal(t, types.IssueCount{Issue: "l", Count: 2}, m.TopIssues[0])
	assert.Equal(t, "a", m.TopIssues[1].Issue)
}

func TestDailyTrendsWindowAndOrdering(t *testing.T) {
	records := []types.CallAnalysisRecord{
		rec(daysAgo(1), score(80), sentiment(types.SentimentNegative)),
		rec(daysAgo(31), score(10)),
		rec(daysAgo(3), score(40)),
		rec(daysAgo(1), score(61), sentiment(types.SentimentMixed)),
	}
	trend := DailyTrends(records, now)
	assert.Equal(t, []string{"2025-06-27", "2025-06-29"}, trend.Dates)
	assert.Equal(t, []int{1, 2}, trend.Calls)
	assert.Equal(t, []float64{40, 70.5}, trend.AvgScores)
	assert.Equal(t, []int{0, 1}, trend.Negative)
	assert.Equal(t, []int{1, 1}, trend.Neutral)
}

func TestCategoryScores(t *testing.T) {
	r1 := rec()
	r1.QuestionScores = []types.QuestionScore{
		{Category: "Call Opening", Score: 1, MaxScore: 2},
		{Category: "Soft Skills", Score: 5, MaxScore: 5},
		{Category: "Call Opening", Score: 2, MaxScore: 2},
	}
	r2 := rec()
	r2.QuestionScores = []types.QuestionScore{
		{Category: "Soft Skills", Score: 0, MaxScore: 5},
		{Category: "Empty", Score: 0, MaxScore: 0},
	}
	got := CategoryScores([]types.CallAnalysisRecord{r1, r2})
	assert.Equal(t, []types.CategoryScore{
		{Category: "Call Opening", AvgPercentage: 75, TotalScore: 3, MaxScore: 4},
		{Category: "Soft Skills", AvgPercentage: 50, TotalScore: 5, MaxScore: 10},
		{Category: "Empty", AvgPercentage: 0, TotalScore: 0, MaxScore: 0},
	}, got)
}

func TestUrgencyDonutFirstSeenOrder(t *testing.T) {
	records := []types.CallAnalysisRecord{
		rec(urgency(types.UrgencyLow)),
		rec(urgency(types.UrgencyHigh)),
		rec(urgency(types.UrgencyLow)),
	}
	d := UrgencyDonut(records)
	assert.Equal(t, []string{"Low", "High"}, d.Labels)
	assert.Equal(t, []int{2, 1}, d.Values)
	assert.Equal(t, "#EF4444", d.Colors["High"])
}

func TestEscalationBucketBoundaries(t *testing.T) {
	cases := map[int]int{0: 0, 20: 0, 21: 1, 40: 1, 41: 2, 60: 2, 61: 3, 80: 3, 81: 4, 100: 4}
	for in, want := range cases {
		assert.Equal(t, want, EscalationBucket(in), "risk %d", in)
	}
	assert.Equal(t, []int{1, 0, 0, 0, 0}, EscalationHistogram([]types.CallAnalysisRecord{rec(risk(20))}).Values)
}

func TestAggregationIsIdempotent(t *testing.T) {
	records := []types.CallAnalysisRecord{
		rec(agent("Amy"), score(80), issues("Billing")),
		rec(agent("Raj"), score(45), daysAgo(2), sentiment(types.SentimentPositive)),
	}
	snapshot := append([]types.CallAnalysisRecord(nil), records...)

	assert.Equal(t, Summary(records, now), Summary(records, now))
	assert.Equal(t, AgentPerformance(records), AgentPerformance(records))
	assert.Equal(t, SentimentPie(records), SentimentPie(records))
	assert.Equal(t, DailyTrends(records, now), DailyTrends(records, now))
	assert.Equal(t, snapshot, records)
}
