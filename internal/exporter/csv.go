package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"fimkit/internal/table"
)

// CSVWriter writes parameter tables as CSV files.
type CSVWriter struct {
	log *slog.Logger

	// BOMPrefix adds a UTF-8 BOM so Excel opens the file correctly.
	BOMPrefix bool
	// Precision is the number of significant digits per value; values
	// <= 0 use the shortest exact representation.
	Precision int
}

// NewCSVWriter creates a CSV writer. A nil logger falls back to
// slog.Default().
func NewCSVWriter(log *slog.Logger) *CSVWriter {
	if log == nil {
		log = slog.Default()
	}
	return &CSVWriter{log: log}
}

// WriteTable writes one table to path: a header row with an empty
// leading cell followed by the object labels, then one row per frame
// with the frame number first. Missing values become empty cells.
// Parent directories are created as needed.
func (w *CSVWriter) WriteTable(path string, t *table.Table) error {
	if t == nil {
		return fmt.Errorf("nil table")
	}

	w.log.Info("writing CSV file",
		slog.String("path", path),
		slog.Int("objects", t.NCols()),
		slog.Int("frames", t.NRows()))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if w.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	cw := csv.NewWriter(file)
	defer cw.Flush()

	header := append([]string{""}, t.Columns()...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, t.NCols()+1)
	for r := 0; r < t.NRows(); r++ {
		record[0] = strconv.Itoa(r)
		for c := 0; c < t.NCols(); c++ {
			record[c+1] = w.formatValue(t.AtIndex(r, c))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r, err)
		}
	}

	return cw.Error()
}

func (w *CSVWriter) formatValue(v float64) string {
	if table.IsMissing(v) {
		return ""
	}
	prec := w.Precision
	if prec <= 0 {
		prec = -1
	}
	return strconv.FormatFloat(v, 'g', prec, 64)
}

// TableProvider is the experiment surface the exporter needs.
type TableProvider interface {
	Parameters() []string
	Parameter(name string) (*table.Table, bool)
}

// ExperimentExporter writes every parameter table of an experiment into
// a directory, one <parameter>.csv file per parameter.
type ExperimentExporter struct {
	writer *CSVWriter
	log    *slog.Logger
}

// NewExperimentExporter creates an exporter around the given writer. A
// nil writer gets a default-configured one.
func NewExperimentExporter(writer *CSVWriter, log *slog.Logger) *ExperimentExporter {
	if log == nil {
		log = slog.Default()
	}
	if writer == nil {
		writer = NewCSVWriter(log)
	}
	return &ExperimentExporter{writer: writer, log: log}
}

// Export writes all parameters of src into dir.
func (e *ExperimentExporter) Export(dir string, src TableProvider) error {
	names := src.Parameters()
	for _, name := range names {
		t, ok := src.Parameter(name)
		if !ok {
			continue
		}
		path := filepath.Join(dir, name+".csv")
		if err := e.writer.WriteTable(path, t); err != nil {
			return fmt.Errorf("failed to export parameter %q: %w", name, err)
		}
	}

	e.log.Info("experiment exported",
		slog.String("dir", dir),
		slog.Int("parameters", len(names)))

	return nil
}
