package actionable

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-auditor-go/internal/aggregator"
	"call-auditor-go/internal/types"
)

func TestGenerateNoPattern(t *testing.T) {
	cards := Generate(types.DashboardMetrics{}, nil, nil)
	require.Len(t, cards, 1)
	assert.Equal(t, "No strong pattern detected", cards[0].Insight)
}

func TestGenerateAllSignals(t *testing.T) {
	m := types.DashboardMetrics{TotalCalls: 10, EscalationRate: 40}
	agents := []types.AgentPerformanceRow{
		{Agent: "Amy", AvgScore: 90, TotalCalls: 6},
		{Agent: "Raj", AvgScore: 42.5, TotalCalls: 4},
	}
	categories := []types.CategoryScore{
		{Category: "Soft Skills", AvgPercentage: 88, MaxScore: 100},
		{Category: "Probing", AvgPercentage: 41, MaxScore: 100},
		{Category: "Unscored", AvgPercentage: 0, MaxScore: 0},
	}

	cards := Generate(m, categories, agents)
	require.Len(t, cards, 3)
	assert.Contains(t, cards[0].Insight, "Probing")
	assert.Contains(t, cards[1].Insight, "40%")
	assert.Contains(t, cards[2].Action, "Raj")
}

func TestGenerateHealthyTeam(t *testing.T) {
	m := types.DashboardMetrics{TotalCalls: 3, EscalationRate: 10}
	agents := []types.AgentPerformanceRow{{Agent: "Amy", AvgScore: 82, TotalCalls: 3}}
	cards := Generate(m, []types.CategoryScore{{Category: "Resolution", AvgPercentage: 75, MaxScore: 20}}, agents)
	require.Len(t, cards, 1)
	assert.Equal(t, "Monitor and collect more data", cards[0].Action)
}

func TestGenerateFlagsWeakestAgentBeyondTopTen(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	var records []types.CallAnalysisRecord
	for i := 0; i < 11; i++ {
		pct := 90.0
		if i == 10 {
			pct = 10
		}
		records = append(records, types.CallAnalysisRecord{
			CallID:            fmt.Sprintf("call-%d", i),
			CallDate:          now,
			AgentName:         fmt.Sprintf("agent%02d", i),
			OverallPercentage: pct,
		})
	}

	m := aggregator.Summary(records, now)
	require.Len(t, m.AgentPerformance, 10)

	cards := Generate(m, nil, aggregator.AgentPerformance(records))
	var flagged bool
	for _, c := range cards {
		if strings.Contains(c.Action, "agent10") {
			flagged = true
		}
	}
	assert.True(t, flagged, "weakest agent should get a coaching card: %+v", cards)
}
