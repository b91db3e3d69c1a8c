package actionable

import (
	"fmt"

	"call-auditor-go/internal/types"
)

const (
	weakCategoryPct = 60.0
	weakAgentPct    = 60.0
	escalationRate  = 35.0
)

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

// Generate turns dashboard aggregates into coaching cards. agents must cover
// every agent, not the top-N list carried in m.
func Generate(m types.DashboardMetrics, categories []types.CategoryScore, agents []types.AgentPerformanceRow) []ActionCard {
	var cards []ActionCard

	if worst, ok := weakestCategory(categories); ok && worst.AvgPercentage < weakCategoryPct {
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("Low %s scores (%.0f%% of available points)", worst.Category, worst.AvgPercentage),
			Action:  fmt.Sprintf("Run a focused %s refresher for all agents; add it to call shadowing checklists", worst.Category),
			Impact:  "Lift overall audit scores on the weakest questionnaire area",
		})
	}

	if m.TotalCalls > 0 && m.EscalationRate >= escalationRate {
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("High escalation risk in %.0f%% of calls", m.EscalationRate),
			Action:  "Route high-risk calls to senior agents; review de-escalation scripts with team leads",
			Impact:  "Reduce repeat escalations and support load",
		})
	}

	if lowest, ok := lowestAgent(agents); ok {
		if lowest.AvgScore < weakAgentPct {
			cards = append(cards, ActionCard{
				Insight: fmt.Sprintf("%s averages %.0f%% across %d calls", lowest.Agent, lowest.AvgScore, lowest.TotalCalls),
				Action:  fmt.Sprintf("Schedule one-to-one coaching for %s using their lowest scoring calls", lowest.Agent),
				Impact:  "Close the gap between the weakest agent and the team average",
			})
		}
	}

	if len(cards) == 0 {
		return []ActionCard{{
			Insight: "No strong pattern detected",
			Action:  "Monitor and collect more data",
			Impact:  "Low immediate intervention",
		}}
	}
	return cards
}

func weakestCategory(categories []types.CategoryScore) (types.CategoryScore, bool) {
	var (
		worst types.CategoryScore
		found bool
	)
	for _, c := range categories {
		if c.MaxScore == 0 {
			continue
		}
		if !found || c.AvgPercentage < worst.AvgPercentage {
			worst, found = c, true
		}
	}
	return worst, found
}

func lowestAgent(agents []types.AgentPerformanceRow) (types.AgentPerformanceRow, bool) {
	if len(agents) == 0 {
		return types.AgentPerformanceRow{}, false
	}
	lowest := agents[0]
	for _, a := range agents[1:] {
		if a.AvgScore < lowest.AvgScore {
			lowest = a
		}
	}
	return lowest, true
}
