package dataprocessing

import (
	"log/slog"

	"github.com/montanaflynn/stats"

	"fimkit/internal/table"
)

// ObjectStats holds descriptive statistics for one object's track.
type ObjectStats struct {
	Object string
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// Summarizer computes descriptive statistics over parameter tables.
type Summarizer struct {
	log *slog.Logger
}

// NewSummarizer creates a summarizer.
func NewSummarizer(logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{log: logger}
}

// Describe returns per-object descriptive statistics for a parameter
// table, in column order. Objects without valid values get a zero count
// and missing statistics.
func (s *Summarizer) Describe(t *table.Table) []ObjectStats {
	out := make([]ObjectStats, 0, t.NCols())
	for _, obj := range t.Columns() {
		valid := t.ValidValues(obj)
		st := ObjectStats{
			Object: obj,
			Count:  len(valid),
			Mean:   table.Missing(),
			StdDev: table.Missing(),
			Min:    table.Missing(),
			Q25:    table.Missing(),
			Median: table.Missing(),
			Q75:    table.Missing(),
			Max:    table.Missing(),
		}
		if len(valid) > 0 {
			st.Mean = describeStat(stats.Mean, valid)
			st.StdDev = describeStat(stats.StandardDeviationSample, valid)
			st.Min = describeStat(stats.Min, valid)
			st.Median = describeStat(stats.Median, valid)
			st.Max = describeStat(stats.Max, valid)
			st.Q25 = describePercentile(valid, 25)
			st.Q75 = describePercentile(valid, 75)
		}
		out = append(out, st)
	}

	s.log.Debug("described parameter table",
		slog.Int("objects", t.NCols()),
		slog.Int("frames", t.NRows()))

	return out
}

func describeStat(fn func(stats.Float64Data) (float64, error), data []float64) float64 {
	v, err := fn(data)
	if err != nil {
		return table.Missing()
	}
	return v
}

func describePercentile(data []float64, p float64) float64 {
	v, err := stats.Percentile(data, p)
	if err != nil {
		return table.Missing()
	}
	return v
}
