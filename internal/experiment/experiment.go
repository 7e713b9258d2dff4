// Package experiment orchestrates the pipeline stages into analysis
// objects: an Experiment owns the cleaned parameter tables of one
// recording, a TwoChoiceExperiment adds the two-choice analyses and the
// spatial split, and a Collection aligns several experiments for
// comparison.
package experiment

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"fimkit/internal/config"
	"fimkit/internal/dataprocessing"
	apperrors "fimkit/internal/errors"
	"fimkit/internal/files"
	"fimkit/internal/table"
)

// Options controls Experiment construction.
type Options struct {
	// KeepRaw retains the merged raw table after extraction.
	KeepRaw bool
	// IncludeSubfolders recurses into subdirectories of a directory input.
	IncludeSubfolders bool
	// Logger receives stage progress; nil falls back to slog.Default().
	Logger *slog.Logger
	// Analyses is the ordered catalogue of derived parameters computed
	// after cleaning. A nil registry skips derivation.
	Analyses *dataprocessing.Registry
}

// Experiment holds the cleaned parameter tables of one recording.
// It is fully built by New; cleaning and derivation run exactly once
// during construction.
type Experiment struct {
	cfg      *config.Config
	log      *slog.Logger
	analyses *dataprocessing.Registry

	params   map[string]*table.Table
	names    []string // sorted
	original []string // parameter names present before derivation
	raw      *dataprocessing.Merged
}

// New builds an Experiment from a mixed input (path, directory, reader,
// or nested lists of those): resolve, parse, merge, extract, clean,
// derive. Any stage failure aborts construction; no partial experiment
// is returned.
func New(input any, cfg *config.Config, opts Options) (*Experiment, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	sources, err := files.Resolve(input, files.Options{
		FileFormat:        cfg.Input.FileFormat,
		IncludeSubfolders: opts.IncludeSubfolders,
	})
	if err != nil {
		return nil, err
	}
	log.Info("reading sources", slog.Int("count", len(sources)))

	tables := make([]*dataprocessing.SourceTable, 0, len(sources))
	for _, src := range sources {
		st, err := dataprocessing.ParseSource(src, cfg.Input)
		if err != nil {
			return nil, err
		}
		tables = append(tables, st)
	}

	merged, err := dataprocessing.Merge(tables, log)
	if err != nil {
		return nil, err
	}

	params, names, err := dataprocessing.Extract(merged)
	if err != nil {
		return nil, err
	}

	exp := newEmpty(cfg, log, opts.Analyses)
	exp.params = params
	exp.names = names
	exp.original = append([]string(nil), names...)
	if opts.KeepRaw {
		exp.raw = merged
	}

	if _, err := dataprocessing.NewCleaner(cfg.Cleaning, log).Clean(exp.params, exp.names); err != nil {
		return nil, err
	}

	if err := exp.analyses.Run(exp, log); err != nil {
		return nil, err
	}

	log.Info("experiment built",
		slog.Int("objects", exp.NObjects()),
		slog.Int("frames", exp.NFrames()),
		slog.Int("parameters", len(exp.names)))

	return exp, nil
}

// newEmpty creates an experiment shell that receives its tables from a
// split rather than from input files.
func newEmpty(cfg *config.Config, log *slog.Logger, analyses *dataprocessing.Registry) *Experiment {
	return &Experiment{
		cfg:      cfg,
		log:      log,
		analyses: analyses,
		params:   make(map[string]*table.Table),
	}
}

// Parameter returns the table stored under name.
func (e *Experiment) Parameter(name string) (*table.Table, bool) {
	t, ok := e.params[name]
	return t, ok
}

// Parameters returns the sorted parameter names, base and derived.
func (e *Experiment) Parameters() []string {
	return append([]string(nil), e.names...)
}

// OriginalParameters returns the parameter names present before
// derivation. Splitting re-derives from exactly these.
func (e *Experiment) OriginalParameters() []string {
	return append([]string(nil), e.original...)
}

// SetParameter stores a table under name, keeping the name list sorted.
func (e *Experiment) SetParameter(name string, t *table.Table) {
	if _, exists := e.params[name]; !exists {
		i := sort.SearchStrings(e.names, name)
		e.names = append(e.names, "")
		copy(e.names[i+1:], e.names[i:])
		e.names[i] = name
	}
	e.params[name] = t
}

// Objects returns the sorted union of object labels across all
// parameter tables. The order does not match table column order.
func (e *Experiment) Objects() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range e.names {
		for _, c := range e.params[name].Columns() {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	sort.Strings(out)
	return out
}

// first returns the first-alphabetical parameter table. All tables are
// assumed to share its shape after cleaning; SanityCheck reports when
// they do not.
func (e *Experiment) first() *table.Table {
	if len(e.names) == 0 {
		return nil
	}
	return e.params[e.names[0]]
}

// NObjects returns the number of tracked objects.
func (e *Experiment) NObjects() int {
	if t := e.first(); t != nil {
		return t.NCols()
	}
	return 0
}

// NFrames returns the number of frames.
func (e *Experiment) NFrames() int {
	if t := e.first(); t != nil {
		return t.NRows()
	}
	return 0
}

// Raw returns the merged raw table when construction kept it.
func (e *Experiment) Raw() *dataprocessing.Merged {
	return e.raw
}

// DiscardRaw drops the retained raw table to free memory.
func (e *Experiment) DiscardRaw() {
	e.raw = nil
}

// Mean returns the per-object means of one parameter as a single-row
// table. Per-object parameters are returned as a copy unchanged.
func (e *Experiment) Mean(name string) (*table.Table, error) {
	t, ok := e.params[name]
	if !ok {
		return nil, fmt.Errorf("parameter %q not found", name)
	}
	if t.PerObject() {
		return t.Clone(), nil
	}
	out := table.New(t.Columns(), 1)
	for i, m := range t.ColumnMeans() {
		out.SetIndex(0, i, m)
	}
	return out, nil
}

// MeanAll returns one row per parameter (in Parameters() order) and one
// column per object, holding the per-object mean of each parameter.
// Objects absent from a parameter table hold missing values.
func (e *Experiment) MeanAll() *table.Table {
	objects := e.Objects()
	out := table.New(objects, len(e.names))
	for r, name := range e.names {
		t := e.params[name]
		for _, obj := range objects {
			if !t.HasColumn(obj) {
				continue
			}
			if t.PerObject() {
				out.Set(r, obj, t.At(0, obj))
			} else {
				out.Set(r, obj, t.ColumnMean(obj))
			}
		}
	}
	return out
}

// Object assembles the data of a single object across all parameters:
// one column per parameter. Parameters with a single value per object
// occupy frame 0 only. Unknown labels yield an UNKNOWN_OBJECT error.
func (e *Experiment) Object(label string) (*table.Table, error) {
	known := false
	maxRows := 0
	for _, name := range e.names {
		t := e.params[name]
		if t.HasColumn(label) {
			known = true
		}
		if t.NRows() > maxRows {
			maxRows = t.NRows()
		}
	}
	if !known {
		return nil, apperrors.NewUnknownObjectError(label)
	}

	out := table.New(e.names, maxRows)
	for _, name := range e.names {
		t := e.params[name]
		if !t.HasColumn(label) {
			continue
		}
		for r := 0; r < t.NRows(); r++ {
			out.Set(r, name, t.At(r, label))
		}
	}
	return out, nil
}

// Describe returns per-object descriptive statistics for one parameter.
func (e *Experiment) Describe(name string) ([]dataprocessing.ObjectStats, error) {
	t, ok := e.params[name]
	if !ok {
		return nil, fmt.Errorf("parameter %q not found", name)
	}
	return dataprocessing.NewSummarizer(e.log).Describe(t), nil
}

// SanityCheck inspects the table set for inconsistencies and returns
// them as human-readable issues. Problems are reported as warnings, not
// errors: mild inconsistency across derived parameters is expected.
// Row counts and column sets are checked separately on purpose.
func (e *Experiment) SanityCheck() []string {
	var issues []string

	// Per-frame tables must agree on the frame count. Per-object tables
	// are exempt; a single row is their contract.
	frameCounts := make(map[int][]string)
	for _, name := range e.names {
		t := e.params[name]
		if t.PerObject() {
			continue
		}
		frameCounts[t.NRows()] = append(frameCounts[t.NRows()], name)
	}
	if len(frameCounts) > 1 {
		var parts []string
		for n, names := range frameCounts {
			parts = append(parts, fmt.Sprintf("%d frames: %s", n, strings.Join(names, ", ")))
		}
		sort.Strings(parts)
		issues = append(issues, "varying frame counts across parameters ("+strings.Join(parts, "; ")+")")
	}

	// Every table must carry the full object set.
	objects := e.Objects()
	for _, name := range e.names {
		t := e.params[name]
		var missing []string
		for _, obj := range objects {
			if !t.HasColumn(obj) {
				missing = append(missing, obj)
			}
		}
		if len(missing) > 0 {
			issues = append(issues, fmt.Sprintf("parameter %q is missing objects: %s", name, strings.Join(missing, ", ")))
		}
	}

	// Fully-missing columns should not survive cleaning.
	for _, name := range e.names {
		t := e.params[name]
		for _, obj := range t.Columns() {
			if t.ValidCount(obj) == 0 {
				issues = append(issues, fmt.Sprintf("parameter %q has an empty column for %s", name, obj))
			}
		}
	}

	for _, issue := range issues {
		e.log.Warn("sanity check", slog.String("issue", issue))
	}
	if len(issues) == 0 {
		e.log.Info("sanity check passed")
	}
	return issues
}

// Summary holds the headline numbers of an experiment.
type Summary struct {
	NObjects   int
	NFrames    int
	Parameters []string
}

// Summary returns the experiment's headline numbers.
func (e *Experiment) Summary() Summary {
	return Summary{
		NObjects:   e.NObjects(),
		NFrames:    e.NFrames(),
		Parameters: e.Parameters(),
	}
}

// String summarizes the experiment.
func (e *Experiment) String() string {
	return fmt.Sprintf("Experiment with: %d objects; %d frames. Available parameters: %s",
		e.NObjects(), e.NFrames(), strings.Join(e.names, ", "))
}
