package dataset

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"call-auditor-go/internal/extractor"
	"call-auditor-go/internal/types"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := r
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "calls.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadTranscriptsHeaderHeuristics(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Call ID", "Agent ID", "Agent", "Customer Name", "Customer Phone", "Direction", "Call Date", "Transcript"},
		{"c-1", "A7", "Amy", "Bob", "+1 555 0100", "Incoming", "2025-06-20", "Customer: my internet is down."},
		{"c-2", "A8", "Raj", "", "", "sideways", "not a date", "Agent: hello"},
		{"c-3", "A9", "Lee", "Kim", "", "", "", "   "},
	})

	inputs, err := LoadTranscripts(path)
	require.NoError(t, err)
	require.Len(t, inputs, 2)

	first := inputs[0]
	assert.Equal(t, "c-1", first.CallID)
	assert.Equal(t, "Customer: my internet is down.", first.Text)
	assert.Equal(t, types.CallMetadata{
		AgentID:       "A7",
		AgentName:     "Amy",
		CustomerName:  "Bob",
		CustomerPhone: "+1 555 0100",
		CallType:      types.CallIncoming,
	}, first.Metadata)
	require.NotNil(t, first.CallDate)
	assert.Equal(t, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC), *first.CallDate)

	second := inputs[1]
	assert.Empty(t, second.Metadata.CallType)
	assert.Nil(t, second.CallDate)
}

func TestLoadTranscriptsRequiresTranscriptColumn(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Call ID", "Agent"},
		{"c-1", "Amy"},
	})
	_, err := LoadTranscripts(path)
	assert.ErrorContains(t, err, "no transcript column")

	path = writeWorkbook(t, [][]interface{}{{"Transcript"}})
	_, err = LoadTranscripts(path)
	assert.ErrorContains(t, err, "no data rows")
}

func TestExportRecordsReadsBack(t *testing.T) {
	callDate := time.Date(2025, 6, 20, 15, 0, 0, 0, time.UTC)
	a := extractor.DefaultAnalysis(types.Questionnaire())
	a.KeyIssues = []string{"Outage", "Refund"}
	rec := types.NewRecord("call-9", &callDate, types.CallMetadata{
		AgentID: "A7", AgentName: "Amy", CustomerName: "Bob", CallType: types.CallOutgoing,
	}, types.Transcript{Text: "Agent: hello", Language: "en", DurationSeconds: 42}, a, callDate.Add(time.Hour))

	var buf bytes.Buffer
	require.NoError(t, ExportRecords(&buf, []types.CallAnalysisRecord{rec}))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Calls", "Scores"}, f.GetSheetList())

	calls, err := f.GetRows("Calls")
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, "Outage; Refund", calls[1][19])

	scores, err := f.GetRows("Scores")
	require.NoError(t, err)
	assert.Len(t, scores, 1+len(types.Questionnaire()))
	assert.Equal(t, "call-9", scores[1][0])

	// the Calls sheet is itself an importable transcript workbook
	inputs, err := ReadTranscripts(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, "call-9", inputs[0].CallID)
	assert.Equal(t, "Agent: hello", inputs[0].Text)
	assert.Equal(t, types.CallOutgoing, inputs[0].Metadata.CallType)
	require.NotNil(t, inputs[0].CallDate)
	assert.Equal(t, callDate, *inputs[0].CallDate)
}

func TestExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportRecords(&buf, nil))
	assert.NotZero(t, buf.Len())
}
