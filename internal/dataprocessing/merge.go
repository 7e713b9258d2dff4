package dataprocessing

import (
	"fmt"
	"log/slog"
	"sort"

	apperrors "fimkit/internal/errors"
	"fimkit/internal/table"
)

// Merged holds the outer-joined raw data of all source tables: the
// union of all (parameter, frame) rows, sorted by parameter name and
// numeric frame, with objects renumbered to globally unique labels.
type Merged struct {
	Rows  []RowLabel
	Table *table.Table
}

// Merge concatenates source tables along the object axis.
//
// Rows are outer-joined on their labels so that files covering
// different frame ranges align instead of dropping frames; holes become
// missing values. The join order is repaired by sorting on (parameter,
// integer frame); a plain string sort would rank frame "10" before
// "2". Columns are renumbered to object_0..object_(k-1) in
// concatenation order; original per-file identities are discarded.
func Merge(sources []*SourceTable, log *slog.Logger) (*Merged, error) {
	if log == nil {
		log = slog.Default()
	}
	if len(sources) == 0 {
		return nil, apperrors.NewEmptyInputError("no source tables to merge")
	}

	// Union of row labels across all sources.
	seen := make(map[RowLabel]bool)
	var rows []RowLabel
	for _, src := range sources {
		for _, l := range src.Rows {
			if !seen[l] {
				seen[l] = true
				rows = append(rows, l)
			}
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Param != rows[j].Param {
			return rows[i].Param < rows[j].Param
		}
		return rows[i].Frame < rows[j].Frame
	})
	rowIndex := make(map[RowLabel]int, len(rows))
	for i, l := range rows {
		rowIndex[l] = i
	}

	// Renumber objects across files in concatenation order.
	totalCols := 0
	for _, src := range sources {
		totalCols += len(src.Cols)
	}
	cols := make([]string, totalCols)
	for i := range cols {
		cols[i] = fmt.Sprintf("object_%d", i)
	}

	merged := table.New(cols, len(rows))
	offset := 0
	for _, src := range sources {
		for r, l := range src.Rows {
			row := rowIndex[l]
			for c := range src.Cols {
				merged.SetIndex(row, offset+c, src.Data[r][c])
			}
		}
		offset += len(src.Cols)
	}

	log.Debug("merged raw data",
		slog.Int("sources", len(sources)),
		slog.Int("rows", len(rows)),
		slog.Int("objects", totalCols))

	return &Merged{Rows: rows, Table: merged}, nil
}
