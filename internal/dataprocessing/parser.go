package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"fimkit/internal/config"
	apperrors "fimkit/internal/errors"
	"fimkit/internal/files"
	"fimkit/internal/table"
)

// RowLabel identifies one row of a raw export table: the measured
// parameter and the frame number encoded as "name(frame)".
type RowLabel struct {
	Param string
	Frame int
}

// String returns the label in its on-disk form.
func (l RowLabel) String() string {
	return fmt.Sprintf("%s(%d)", l.Param, l.Frame)
}

// rowLabelPattern matches "name(frame)" row labels.
var rowLabelPattern = regexp.MustCompile(`^(.*)\((-?\d+)\)$`)

// ParseRowLabel splits a "name(frame)" label into its parts.
func ParseRowLabel(s string) (RowLabel, error) {
	m := rowLabelPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return RowLabel{}, apperrors.NewParsingError(
			fmt.Sprintf("row label %q does not match name(frame)", s), nil)
	}
	frame, err := strconv.Atoi(m[2])
	if err != nil {
		return RowLabel{}, apperrors.NewParsingError(
			fmt.Sprintf("row label %q has a non-integer frame", s), err)
	}
	return RowLabel{Param: m[1], Frame: frame}, nil
}

// SourceTable is the raw content of one export file: one row per
// parameter/frame pair, one column per object tracked in that file.
type SourceTable struct {
	Name string
	Rows []RowLabel
	Cols []string
	Data [][]float64
}

// ParseSource reads one source into a SourceTable. CSV sources use the
// configured delimiter; ".xlsx" sources are read through excelize from
// the first sheet with the same row/column layout.
func ParseSource(src files.Source, cfg config.InputConfig) (*SourceTable, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var records [][]string
	if strings.HasSuffix(strings.ToLower(src.Name), ".xlsx") {
		records, err = readXLSX(rc)
	} else {
		records, err = readCSV(rc, cfg.DelimiterRune())
	}
	if err != nil {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("failed to read source %s", src.Name), err)
	}

	return buildSourceTable(src.Name, records)
}

func readCSV(r io.Reader, delimiter rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

// buildSourceTable converts raw records into a SourceTable. The first
// record is the header (its first cell names the index and is ignored),
// every following record is a "name(frame)" label plus one value per
// object column. Empty cells and "NaN" parse to missing.
func buildSourceTable(name string, records [][]string) (*SourceTable, error) {
	if len(records) < 2 {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("source %s has no data rows", name), nil)
	}

	header := records[0]
	if len(header) < 2 {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("source %s has no object columns", name), nil)
	}
	cols := make([]string, len(header)-1)
	for i, h := range header[1:] {
		cols[i] = strings.TrimSpace(h)
	}

	st := &SourceTable{Name: name, Cols: cols}
	for i, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		label, err := ParseRowLabel(record[0])
		if err != nil {
			return nil, fmt.Errorf("source %s row %d: %w", name, i+1, err)
		}

		row := make([]float64, len(cols))
		for c := range cols {
			row[c] = table.Missing()
			if c+1 >= len(record) {
				continue
			}
			cell := strings.TrimSpace(record[c+1])
			if cell == "" || strings.EqualFold(cell, "nan") {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, apperrors.NewParsingError(
					fmt.Sprintf("source %s row %d column %s: bad value %q", name, i+1, cols[c], cell), err)
			}
			row[c] = v
		}

		st.Rows = append(st.Rows, label)
		st.Data = append(st.Data, row)
	}

	if len(st.Rows) == 0 {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("source %s has no data rows", name), nil)
	}

	return st, nil
}
