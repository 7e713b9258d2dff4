package dataprocessing

import (
	"sort"

	apperrors "fimkit/internal/errors"
	"fimkit/internal/table"
)

// Extract partitions the merged raw table by parameter name, producing
// one table per parameter with a fresh contiguous frame index replacing
// the frame numbers embedded in the row labels. The returned names are
// sorted.
func Extract(m *Merged) (map[string]*table.Table, []string, error) {
	if m == nil || m.Table == nil {
		return nil, nil, apperrors.NewNoRawDataError("no raw data to analyze found")
	}

	// Merged rows are sorted, so each parameter occupies a contiguous
	// run of rows.
	cols := m.Table.Columns()
	params := make(map[string]*table.Table)
	var names []string

	start := 0
	for start < len(m.Rows) {
		name := m.Rows[start].Param
		end := start
		for end < len(m.Rows) && m.Rows[end].Param == name {
			end++
		}

		t := table.New(cols, end-start)
		for r := start; r < end; r++ {
			for c := range cols {
				t.SetIndex(r-start, c, m.Table.AtIndex(r, c))
			}
		}
		params[name] = t
		names = append(names, name)

		start = end
	}

	sort.Strings(names)
	return params, names, nil
}
