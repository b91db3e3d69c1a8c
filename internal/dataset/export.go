package dataset

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"call-auditor-go/internal/types"
)

const (
	callsSheet  = "Calls"
	scoresSheet = "Scores"
)

var callsHeader = []interface{}{
	"Call ID", "Call Date", "Audit Date", "Agent ID", "Agent Name", "Customer Name", "Customer Phone",
	"Call Type", "Duration (s)", "Language", "Overall Sentiment", "Urgency", "Escalation Risk",
	"Compliance Risk", "Fraud Suspected", "Total Score", "Max Score", "Overall %", "Customer Intent",
	"Key Issues", "Resolution Status", "Follow-up Required", "Call Summary", "Transcript",
}

var scoresHeader = []interface{}{"Call ID", "Category", "Question", "Answer", "Score", "Max Score"}

// ExportRecords writes records as an xlsx workbook: one row per call on
// "Calls" and one row per question score on "Scores".
func ExportRecords(w io.Writer, records []types.CallAnalysisRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", callsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(scoresSheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	if err := setRow(f, callsSheet, 1, callsHeader); err != nil {
		return err
	}
	if err := setRow(f, scoresSheet, 1, scoresHeader); err != nil {
		return err
	}

	scoreRow := 2
	for i, r := range records {
		s := r.CustomerSentiment
		row := []interface{}{
			r.CallID, r.CallDate.UTC().Format(time.RFC3339), r.AuditDate.UTC().Format(time.RFC3339),
			r.AgentID, r.AgentName, r.CustomerName, r.CustomerPhone,
			string(r.CallType), r.DurationSeconds, r.Language, string(s.OverallSentiment), string(s.UrgencyLevel),
			s.EscalationRisk, string(r.ComplianceRisk.ComplianceRisk), r.ComplianceRisk.FraudSuspected,
			r.TotalScore, r.MaxScore, r.OverallPercentage, r.CustomerIntent,
			strings.Join(r.KeyIssues, "; "), string(r.ResolutionStatus), r.FollowUpRequired,
			r.CallSummary, r.Transcription,
		}
		if err := setRow(f, callsSheet, i+2, row); err != nil {
			return err
		}
		for _, q := range r.QuestionScores {
			if err := setRow(f, scoresSheet, scoreRow, []interface{}{r.CallID, q.Category, q.Question, q.Answer, q.Score, q.MaxScore}); err != nil {
				return err
			}
			scoreRow++
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
