// Package table implements the parameter table, the atomic data unit of
// the pipeline: a frames-by-objects matrix of float64 values where
// missing measurements are NaN.
//
// Derived parameters that produce a single value per object use the
// same type with exactly one row ("per-object" tables); the value sits
// at frame 0.
package table

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Missing is the cell value used for absent measurements.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether a cell value represents a missing
// measurement.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Table is a 2D matrix of measurements: rows are contiguous,
// time-ordered frames (0..n-1), columns are uniquely labelled tracked
// objects. All derived tables (Select, Drop, SliceRows, Clone) copy
// their backing storage; tables never alias each other.
type Table struct {
	cols  []string
	index map[string]int
	data  [][]float64
}

// New creates a table with the given column labels and row count,
// filled with missing values. Column labels must be unique.
func New(cols []string, nRows int) *Table {
	t := &Table{
		cols:  append([]string(nil), cols...),
		index: make(map[string]int, len(cols)),
		data:  make([][]float64, nRows),
	}
	for i, c := range cols {
		if _, dup := t.index[c]; dup {
			panic(fmt.Sprintf("table: duplicate column label %q", c))
		}
		t.index[c] = i
	}
	for r := range t.data {
		row := make([]float64, len(cols))
		for i := range row {
			row[i] = math.NaN()
		}
		t.data[r] = row
	}
	return t
}

// FromRows creates a table from row-major data. The data is copied.
func FromRows(cols []string, rows [][]float64) *Table {
	t := New(cols, len(rows))
	for r, row := range rows {
		if len(row) != len(cols) {
			panic(fmt.Sprintf("table: row %d has %d values, want %d", r, len(row), len(cols)))
		}
		copy(t.data[r], row)
	}
	return t
}

// NRows returns the number of frames.
func (t *Table) NRows() int { return len(t.data) }

// NCols returns the number of object columns.
func (t *Table) NCols() int { return len(t.cols) }

// PerObject reports whether the table holds a single value per object
// (one row) rather than a per-frame series.
func (t *Table) PerObject() bool { return len(t.data) == 1 }

// Columns returns a copy of the column labels in table order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.cols...)
}

// HasColumn reports whether the table has a column with the given label.
func (t *Table) HasColumn(label string) bool {
	_, ok := t.index[label]
	return ok
}

// At returns the cell value for a frame and a column label. It panics
// on unknown labels; column membership is checked by callers that deal
// with user input.
func (t *Table) At(row int, label string) float64 {
	return t.data[row][t.colIndex(label)]
}

// AtIndex returns the cell value by positional indices.
func (t *Table) AtIndex(row, col int) float64 {
	return t.data[row][col]
}

// Set assigns the cell value for a frame and a column label.
func (t *Table) Set(row int, label string, v float64) {
	t.data[row][t.colIndex(label)] = v
}

// SetIndex assigns the cell value by positional indices.
func (t *Table) SetIndex(row, col int, v float64) {
	t.data[row][col] = v
}

func (t *Table) colIndex(label string) int {
	i, ok := t.index[label]
	if !ok {
		panic(fmt.Sprintf("table: unknown column %q", label))
	}
	return i
}

// Column returns a copy of one column's values across all frames.
func (t *Table) Column(label string) []float64 {
	i := t.colIndex(label)
	out := make([]float64, len(t.data))
	for r := range t.data {
		out[r] = t.data[r][i]
	}
	return out
}

// Row returns a copy of one frame's values across all columns.
func (t *Table) Row(row int) []float64 {
	return append([]float64(nil), t.data[row]...)
}

// ValidCount returns the number of non-missing values in a column.
func (t *Table) ValidCount(label string) int {
	i := t.colIndex(label)
	n := 0
	for r := range t.data {
		if !math.IsNaN(t.data[r][i]) {
			n++
		}
	}
	return n
}

// ValidValues returns the non-missing values of a column in frame order.
func (t *Table) ValidValues(label string) []float64 {
	i := t.colIndex(label)
	out := make([]float64, 0, len(t.data))
	for r := range t.data {
		if v := t.data[r][i]; !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Select returns a new table containing the given columns in the given
// order. Labels absent from the table are skipped.
func (t *Table) Select(labels []string) *Table {
	keep := make([]string, 0, len(labels))
	src := make([]int, 0, len(labels))
	for _, l := range labels {
		if i, ok := t.index[l]; ok {
			keep = append(keep, l)
			src = append(src, i)
		}
	}
	out := New(keep, len(t.data))
	for r := range t.data {
		for j, i := range src {
			out.data[r][j] = t.data[r][i]
		}
	}
	return out
}

// Drop returns a new table without the given columns.
func (t *Table) Drop(labels []string) *Table {
	dropped := make(map[string]bool, len(labels))
	for _, l := range labels {
		dropped[l] = true
	}
	keep := make([]string, 0, len(t.cols))
	for _, c := range t.cols {
		if !dropped[c] {
			keep = append(keep, c)
		}
	}
	return t.Select(keep)
}

// SliceRows returns a copy of the frame range [from, to). Bounds are
// clamped to the table.
func (t *Table) SliceRows(from, to int) *Table {
	if from < 0 {
		from = 0
	}
	if to > len(t.data) {
		to = len(t.data)
	}
	if from > to {
		from = to
	}
	out := New(t.cols, to-from)
	for r := from; r < to; r++ {
		copy(out.data[r-from], t.data[r])
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	return t.SliceRows(0, len(t.data))
}

// Scale multiplies every non-missing cell by f, in place.
func (t *Table) Scale(f float64) {
	for r := range t.data {
		for c := range t.data[r] {
			if !math.IsNaN(t.data[r][c]) {
				t.data[r][c] *= f
			}
		}
	}
}

// Sqrt replaces every non-missing cell with its square root, in place.
func (t *Table) Sqrt() {
	for r := range t.data {
		for c := range t.data[r] {
			if !math.IsNaN(t.data[r][c]) {
				t.data[r][c] = math.Sqrt(t.data[r][c])
			}
		}
	}
}

// ColumnMean returns the mean of a column's valid values, or missing
// when the column has none.
func (t *Table) ColumnMean(label string) float64 {
	valid := t.ValidValues(label)
	if len(valid) == 0 {
		return math.NaN()
	}
	return stat.Mean(valid, nil)
}

// ColumnMeans returns the per-column means of valid values, in column
// order.
func (t *Table) ColumnMeans() []float64 {
	out := make([]float64, len(t.cols))
	for i, c := range t.cols {
		out[i] = t.ColumnMean(c)
	}
	return out
}

// ColumnStdDev returns the sample standard deviation of a column's
// valid values, or missing when fewer than two are present.
func (t *Table) ColumnStdDev(label string) float64 {
	valid := t.ValidValues(label)
	if len(valid) < 2 {
		return math.NaN()
	}
	return stat.StdDev(valid, nil)
}
