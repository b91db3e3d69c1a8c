package aggregator

import (
	"sort"
	"time"

	"call-auditor-go/internal/types"
)

const (
	// TrendWindow is how far back daily trends reach from now.
	TrendWindow = 30 * 24 * time.Hour
	// EscalationThreshold is the risk above which a call counts as escalating.
	EscalationThreshold = 50

	topIssues = 10
	topAgents = 10
	unknown   = "Unknown"
	dayLayout = "2006-01-02"
)

var SentimentColors = map[string]string{
	string(types.SentimentPositive): "#10B981",
	string(types.SentimentNeutral):  "#6B7280",
	string(types.SentimentNegative): "#EF4444",
	string(types.SentimentMixed):    "#F59E0B",
}

var UrgencyColors = map[string]string{
	string(types.UrgencyHigh):   "#EF4444",
	string(types.UrgencyMedium): "#F59E0B",
	string(types.UrgencyLow):    "#10B981",
}

var (
	EscalationBuckets = []string{"0-20%", "20-40%", "40-60%", "60-80%", "80-100%"}
	EscalationColors  = []string{"#10B981", "#84CC16", "#F59E0B", "#F97316", "#EF4444"}
)

// counter tallies labels and remembers the order they were first seen in.
type counter struct {
	keys   []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}}
}

func (c *counter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.counts[key]++
}

// agentTally accumulates per-agent scores in first-seen order.
type agentTally struct {
	name     string
	total    float64
	calls    int
	positive int
	negative int
}

type dayTally struct {
	calls    int
	total    float64
	positive int
	negative int
	neutral  int
}

func label(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func avg(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return types.Round2(sum / float64(n))
}

func tallyAgents(records []types.CallAnalysisRecord) []*agentTally {
	index := map[string]*agentTally{}
	var order []*agentTally
	for _, r := range records {
		name := label(r.AgentName, unknown)
		t, ok := index[name]
		if !ok {
			t = &agentTally{name: name}
			index[name] = t
			order = append(order, t)
		}
		t.total += r.OverallPercentage
		t.calls++
		switch r.CustomerSentiment.OverallSentiment {
		case types.SentimentPositive:
			t.positive++
		case types.SentimentNegative:
			t.negative++
		}
	}
	// stable, so equal averages keep first-seen order
	sort.SliceStable(order, func(i, j int) bool {
		return avg(order[i].total, order[i].calls) > avg(order[j].total, order[j].calls)
	})
	return order
}

// tallyDays groups records with call_date inside the trend window by UTC day.
func tallyDays(records []types.CallAnalysisRecord, now time.Time) ([]string, map[string]*dayTally) {
	cutoff := now.UTC().Add(-TrendWindow)
	days := map[string]*dayTally{}
	var keys []string
	for _, r := range records {
		if r.CallDate.IsZero() || r.CallDate.Before(cutoff) {
			continue
		}
		day := r.CallDate.UTC().Format(dayLayout)
		d, ok := days[day]
		if !ok {
			d = &dayTally{}
			days[day] = d
			keys = append(keys, day)
		}
		d.calls++
		d.total += r.OverallPercentage
		switch r.CustomerSentiment.OverallSentiment {
		case types.SentimentPositive:
			d.positive++
		case types.SentimentNegative:
			d.negative++
		default:
			d.neutral++
		}
	}
	sort.Strings(keys)
	return keys, days
}

// Summary computes the dashboard header metrics.
func Summary(records []types.CallAnalysisRecord, now time.Time) types.DashboardMetrics {
	m := types.DashboardMetrics{
		SentimentDistribution: map[string]int{},
		UrgencyDistribution:   map[string]int{},
		TopIssues:             []types.IssueCount{},
		AgentPerformance:      []types.AgentScore{},
		DailyTrends:           []types.DailyTrendPoint{},
	}
	if len(records) == 0 {
		for _, s := range types.Sentiments {
			m.SentimentDistribution[string(s)] = 0
		}
		for _, u := range types.Urgencies {
			m.UrgencyDistribution[string(u)] = 0
		}
		return m
	}

	var scoreSum, durationSum float64
	escalating := 0
	issues := newCounter()
	for _, r := range records {
		scoreSum += r.OverallPercentage
		durationSum += r.DurationSeconds
		m.SentimentDistribution[label(string(r.CustomerSentiment.OverallSentiment), unknown)]++
		m.UrgencyDistribution[label(string(r.CustomerSentiment.UrgencyLevel), unknown)]++
		if r.CustomerSentiment.EscalationRisk > EscalationThreshold {
			escalating++
		}
		for _, issue := range r.KeyIssues {
			issues.add(issue)
		}
	}

	n := len(records)
	m.TotalCalls = n
	m.AvgScore = avg(scoreSum, n)
	m.AvgCallDuration = avg(durationSum, n)
	m.EscalationRate = types.Round2(float64(escalating) / float64(n) * 100)

	ranked := append([]string(nil), issues.keys...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return issues.counts[ranked[i]] > issues.counts[ranked[j]]
	})
	if len(ranked) > topIssues {
		ranked = ranked[:topIssues]
	}
	for _, issue := range ranked {
		m.TopIssues = append(m.TopIssues, types.IssueCount{Issue: issue, Count: issues.counts[issue]})
	}

	for i, a := range tallyAgents(records) {
		if i == topAgents {
			break
		}
		m.AgentPerformance = append(m.AgentPerformance, types.AgentScore{
			Agent:      a.name,
			AvgScore:   avg(a.total, a.calls),
			TotalCalls: a.calls,
		})
	}

	keys, days := tallyDays(records, now)
	for _, k := range keys {
		d := days[k]
		m.DailyTrends = append(m.DailyTrends, types.DailyTrendPoint{
			Date:          k,
			Calls:         d.calls,
			AvgScore:      avg(d.total, d.calls),
			PositiveCalls: d.positive,
			NegativeCalls: d.negative,
		})
	}
	return m
}

func labeledChart(c *counter, colors map[string]string) types.LabeledChart {
	chart := types.LabeledChart{
		Labels: []string{},
		Values: []int{},
		Colors: make(map[string]string, len(colors)),
	}
	for k, v := range colors {
		chart.Colors[k] = v
	}
	for _, k := range c.keys {
		chart.Labels = append(chart.Labels, k)
		chart.Values = append(chart.Values, c.counts[k])
	}
	return chart
}

// SentimentPie counts overall sentiment labels in first-seen order.
func SentimentPie(records []types.CallAnalysisRecord) types.LabeledChart {
	c := newCounter()
	for _, r := range records {
		c.add(label(string(r.CustomerSentiment.OverallSentiment), unknown))
	}
	return labeledChart(c, SentimentColors)
}

// UrgencyDonut counts urgency levels in first-seen order.
func UrgencyDonut(records []types.CallAnalysisRecord) types.LabeledChart {
	c := newCounter()
	for _, r := range records {
		c.add(label(string(r.CustomerSentiment.UrgencyLevel), unknown))
	}
	return labeledChart(c, UrgencyColors)
}

// AgentPerformance ranks every agent by average score, best first.
func AgentPerformance(records []types.CallAnalysisRecord) []types.AgentPerformanceRow {
	rows := []types.AgentPerformanceRow{}
	for _, a := range tallyAgents(records) {
		rows = append(rows, types.AgentPerformanceRow{
			Agent:         a.name,
			AvgScore:      avg(a.total, a.calls),
			TotalCalls:    a.calls,
			PositiveCalls: a.positive,
			NegativeCalls: a.negative,
		})
	}
	return rows
}

// DailyTrends lists days inside the trend window that had calls, oldest first.
func DailyTrends(records []types.CallAnalysisRecord, now time.Time) types.DailyTrendsChart {
	chart := types.DailyTrendsChart{
		Dates:     []string{},
		Calls:     []int{},
		AvgScores: []float64{},
		Positive:  []int{},
		Negative:  []int{},
		Neutral:   []int{},
	}
	keys, days := tallyDays(records, now)
	for _, k := range keys {
		d := days[k]
		chart.Dates = append(chart.Dates, k)
		chart.Calls = append(chart.Calls, d.calls)
		chart.AvgScores = append(chart.AvgScores, avg(d.total, d.calls))
		chart.Positive = append(chart.Positive, d.positive)
		chart.Negative = append(chart.Negative, d.negative)
		chart.Neutral = append(chart.Neutral, d.neutral)
	}
	return chart
}

// CategoryScores sums question scores per questionnaire category.
func CategoryScores(records []types.CallAnalysisRecord) []types.CategoryScore {
	type tally struct{ score, max int }
	index := map[string]*tally{}
	var order []string
	for _, r := range records {
		for _, q := range r.QuestionScores {
			cat := label(q.Category, unknown)
			t, ok := index[cat]
			if !ok {
				t = &tally{}
				index[cat] = t
				order = append(order, cat)
			}
			t.score += q.Score
			t.max += q.MaxScore
		}
	}

	out := []types.CategoryScore{}
	for _, cat := range order {
		t := index[cat]
		pct := 0.0
		if t.max > 0 {
			pct = types.Round2(float64(t.score) / float64(t.max) * 100)
		}
		out = append(out, types.CategoryScore{
			Category:      cat,
			AvgPercentage: pct,
			TotalScore:    t.score,
			MaxScore:      t.max,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AvgPercentage > out[j].AvgPercentage })
	return out
}

// EscalationBucket returns the histogram bucket index for a risk value.
// Upper bounds are inclusive: 20 lands in the first bucket.
func EscalationBucket(risk int) int {
	switch {
	case risk <= 20:
		return 0
	case risk <= 40:
		return 1
	case risk <= 60:
		return 2
	case risk <= 80:
		return 3
	default:
		return 4
	}
}

// EscalationHistogram counts records per escalation risk bucket.
func EscalationHistogram(records []types.CallAnalysisRecord) types.HistogramChart {
	values := make([]int, len(EscalationBuckets))
	for _, r := range records {
		values[EscalationBucket(r.CustomerSentiment.EscalationRisk)]++
	}
	return types.HistogramChart{
		Labels: append([]string(nil), EscalationBuckets...),
		Values: values,
		Colors: append([]string(nil), EscalationColors...),
	}
}
