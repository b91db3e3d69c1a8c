package dataset

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"

	"call-auditor-go/internal/types"
)

type columns struct {
	callID, agentID, agentName, customerName, customerPhone, callType, callDate, transcript int
}

// detectColumns maps headers to fields by keyword. More specific keywords are
// checked first so "Agent ID" is not taken for the agent name.
func detectColumns(header []string) columns {
	c := columns{-1, -1, -1, -1, -1, -1, -1, -1}
	set := func(dst *int, i int) {
		if *dst == -1 {
			*dst = i
		}
	}
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "transcript") || l == "text" || strings.Contains(l, "conversation"):
			set(&c.transcript, i)
		case strings.Contains(l, "agent") && strings.Contains(l, "id"):
			set(&c.agentID, i)
		case strings.Contains(l, "agent"):
			set(&c.agentName, i)
		case strings.Contains(l, "phone") || strings.Contains(l, "mobile"):
			set(&c.customerPhone, i)
		case strings.Contains(l, "customer"):
			set(&c.customerName, i)
		case strings.Contains(l, "date") || strings.Contains(l, "time"):
			set(&c.callDate, i)
		case strings.Contains(l, "type") || strings.Contains(l, "direction"):
			set(&c.callType, i)
		case strings.Contains(l, "call id") || strings.Contains(l, "callid") || l == "id":
			set(&c.callID, i)
		}
	}
	return c
}

func cell(row []string, idx int) string {
	if idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

// LoadTranscripts reads call transcripts from the first sheet of an xlsx file.
func LoadTranscripts(path string) ([]types.CallInput, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return readTranscripts(f)
}

// ReadTranscripts is LoadTranscripts for an uploaded workbook.
func ReadTranscripts(r io.Reader) ([]types.CallInput, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return readTranscripts(f)
}

func readTranscripts(f *excelize.File) ([]types.CallInput, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	cols := detectColumns(rows[0])
	if cols.transcript == -1 {
		return nil, fmt.Errorf("no transcript column in header %q", rows[0])
	}

	var out []types.CallInput
	for i, r := range rows {
		if i == 0 {
			continue
		}
		text := cell(r, cols.transcript)
		if text == "" {
			// rows without text carry nothing to audit
			continue
		}
		in := types.CallInput{
			CallID: cell(r, cols.callID),
			Text:   text,
			Metadata: types.CallMetadata{
				AgentID:       cell(r, cols.agentID),
				AgentName:     cell(r, cols.agentName),
				CustomerName:  cell(r, cols.customerName),
				CustomerPhone: cell(r, cols.customerPhone),
			},
		}
		if ct, ok := types.ParseCallType(cell(r, cols.callType)); ok {
			in.Metadata.CallType = ct
		}
		if raw := cell(r, cols.callDate); raw != "" {
			if t, err := cast.ToTimeE(raw); err == nil {
				t = t.UTC()
				in.CallDate = &t
			}
		}
		out = append(out, in)
	}
	return out, nil
}
