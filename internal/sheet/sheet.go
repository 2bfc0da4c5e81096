// Package sheet loads call metadata from the tabular sheet keyed by call
// identifier.
package sheet

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is the metadata carried for one call.
type Row struct {
	CallID   string
	AgentID  string
	Queue    string
	City     string
	CallType string
}

// Load reads the first sheet of an xlsx workbook and maps rows by call
// ID. Column positions are detected from header names; rows without a
// call ID are skipped quietly.
func Load(path string) (map[string]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open sheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("sheet has no data rows")
	}

	idIdx, agentIdx, queueIdx, cityIdx, typeIdx := -1, -1, -1, -1, -1
	for i, h := range rows[0] {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "call id") || strings.Contains(l, "callid") || l == "id":
			if idIdx == -1 {
				idIdx = i
			}
		case strings.Contains(l, "agent"):
			if agentIdx == -1 {
				agentIdx = i
			}
		case strings.Contains(l, "queue"):
			queueIdx = i
		case strings.Contains(l, "city"):
			cityIdx = i
		case strings.Contains(l, "type"):
			if typeIdx == -1 {
				typeIdx = i
			}
		}
	}
	if idIdx == -1 {
		return nil, fmt.Errorf("no call ID column found in header %v", rows[0])
	}

	cell := func(r []string, idx int) string {
		if idx >= 0 && idx < len(r) {
			return strings.TrimSpace(r[idx])
		}
		return ""
	}

	out := make(map[string]Row)
	for i, r := range rows {
		if i == 0 {
			continue
		}
		row := Row{
			CallID:   cell(r, idIdx),
			AgentID:  cell(r, agentIdx),
			Queue:    cell(r, queueIdx),
			City:     cell(r, cityIdx),
			CallType: cell(r, typeIdx),
		}
		if row.CallID == "" {
			continue
		}
		out[row.CallID] = row
	}
	return out, nil
}
