package tui

import (
	"encoding/json"
	"fmt"
	"sort"

	table "github.com/charmbracelet/bubbles/table"

	"geoglobe/internal/geom"
)

const maxAttrColW = 24

// refreshAttrs rebuilds the table columns/rows from the current layer.
func (m *Model) refreshAttrs() {
	cols, rows := layerAttributes(m.layer)
	// If there are no columns or rows, disable attributes view to avoid rendering panics
	if len(cols) == 0 || len(rows) == 0 {
		m.showAttrs = false
		m.status = "no attributes for current layer"
		return
	}
	tcols := make([]table.Column, 0, len(cols)+1)
	tcols = append(tcols, table.Column{Title: "#", Width: 4})
	for _, c := range cols {
		tcols = append(tcols, table.Column{Title: c, Width: min(len(c)+2, maxAttrColW)})
	}
	trows := make([]table.Row, 0, len(rows))
	for i, r := range rows {
		row := make(table.Row, 0, len(r)+1)
		row = append(row, fmt.Sprintf("%d", i+1))
		row = append(row, r...)
		trows = append(trows, row)
	}
	// Avoid transient mismatch: clear rows, set columns, then set rows
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(tcols)
	m.tbl.SetRows(trows)
}

// layerAttributes unions the property keys of every feature, sorted, and
// returns one row per feature.
func layerAttributes(l *geom.Layer) ([]string, [][]string) {
	if l == nil {
		return nil, nil
	}
	seen := map[string]bool{}
	var cols []string
	for _, f := range l.Features {
		for k := range f.Properties {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	if len(cols) == 0 {
		return nil, nil
	}
	sort.Strings(cols)

	rows := make([][]string, 0, len(l.Features))
	for _, f := range l.Features {
		vals := make([]string, 0, len(cols))
		for _, k := range cols {
			vals = append(vals, formatValue(f.Properties[k]))
		}
		rows = append(rows, vals)
	}
	return cols, rows
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprintf("%g", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		bs, _ := json.Marshal(t)
		return string(bs)
	}
}
