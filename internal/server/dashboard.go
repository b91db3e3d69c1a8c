package server

import (
	"net/http"

	"call-auditor-go/internal/actionable"
	"call-auditor-go/internal/aggregator"
	"call-auditor-go/internal/types"
)

// records loads the snapshot every dashboard view aggregates over.
func (s *Server) records(w http.ResponseWriter, r *http.Request) ([]types.CallAnalysisRecord, bool) {
	records, err := s.store.All(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return records, true
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	records, ok := s.records(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, aggregator.Summary(records, s.now()))
}

func (s *Server) handleSentimentPie(w http.ResponseWriter, r *http.Request) {
	records, ok := s.records(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, aggregator.SentimentPie(records))
}

func (s *Server) handleAgentPerformance(w http.ResponseWriter, r *http.Request) {
	records, ok := s.records(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, aggregator.AgentPerformance(records))
}

func (s *Server) handleDailyTrends(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	records, err := s.store.Since(r.Context(), now.Add(-aggregator.TrendWindow))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, aggregator.DailyTrends(records, now))
}

func (s *Server) handleCategoryScores(w http.ResponseWriter, r *http.Request) {
	records, ok := s.records(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, aggregator.CategoryScores(records))
}

func (s *Server) handleUrgencyDistribution(w http.ResponseWriter, r *http.Request) {
	records, ok := s.records(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, aggregator.UrgencyDonut(records))
}

func (s *Server) handleEscalationRisk(w http.ResponseWriter, r *http.Request) {
	records, ok := s.records(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, aggregator.EscalationHistogram(records))
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	records, ok := s.records(w, r)
	if !ok {
		return
	}
	cards := actionable.Generate(aggregator.Summary(records, s.now()), aggregator.CategoryScores(records), aggregator.AgentPerformance(records))
	writeJSON(w, http.StatusOK, cards)
}
