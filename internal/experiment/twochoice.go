package experiment

import (
	"fmt"
	"log/slog"
	"sort"

	"fimkit/internal/config"
	"fimkit/internal/dataprocessing"
	"fimkit/internal/table"
)

// TwoChoiceOptions controls TwoChoiceExperiment construction.
type TwoChoiceOptions struct {
	Options
	// TwoChoiceAnalyses is the second catalogue, run after the base one.
	TwoChoiceAnalyses *dataprocessing.Registry
}

// TwoChoiceExperiment is an Experiment for two-choice assays: a spatial
// boundary separates the recording into two choice regions. It runs a
// second derivation pass and can split its objects into an experiment
// and a control group.
type TwoChoiceExperiment struct {
	Experiment
	twoChoice *dataprocessing.Registry
}

// NewTwoChoice builds a TwoChoiceExperiment: everything New does, plus
// the two-choice derivation pass.
func NewTwoChoice(input any, cfg *config.Config, opts TwoChoiceOptions) (*TwoChoiceExperiment, error) {
	base, err := New(input, cfg, opts.Options)
	if err != nil {
		return nil, err
	}

	tc := &TwoChoiceExperiment{
		Experiment: *base,
		twoChoice:  opts.TwoChoiceAnalyses,
	}
	if err := tc.twoChoice.Run(&tc.Experiment, tc.log); err != nil {
		return nil, err
	}
	return tc, nil
}

// Split partitions the objects into two groups by comparing the
// configured split parameter against the boundary: values <= boundary
// form the lower group, values > boundary the upper group (cells with a
// missing split value fall in neither). Which side is the control group
// is configuration, never auto-resolved.
//
// Each group receives a cell-masked copy of every original (pre-
// derivation) parameter, drops objects whose masked track falls under
// the minimum track length, keeps only objects present in every
// original table, and re-runs the base derivation pass. No re-cleaning
// happens. The groups come back in a Collection under the labels
// "experiment" and "control".
func (e *TwoChoiceExperiment) Split() (*Collection, error) {
	tcParam := e.cfg.TwoChoice.Param
	tcTbl, ok := e.params[tcParam]
	if !ok {
		return nil, fmt.Errorf("two-choice parameter %q not present in data", tcParam)
	}
	boundary := e.cfg.TwoChoice.Boundary

	// When the lower side is the control, the experiment group sits
	// above the boundary, and vice versa.
	lowerIsControl := e.cfg.TwoChoice.ControlSide == 0
	expGroup := e.buildGroup(tcTbl, boundary, lowerIsControl)
	ctrlGroup := e.buildGroup(tcTbl, boundary, !lowerIsControl)

	if err := e.analyses.Run(expGroup, e.log); err != nil {
		return nil, err
	}
	if err := e.analyses.Run(ctrlGroup, e.log); err != nil {
		return nil, err
	}

	col := NewCollection(e.cfg, Options{Logger: e.log, Analyses: e.analyses})
	if err := col.Add(expGroup, "experiment"); err != nil {
		return nil, err
	}
	if err := col.Add(ctrlGroup, "control"); err != nil {
		return nil, err
	}

	e.log.Info("two-choice split finished",
		slog.String("parameter", tcParam),
		slog.Float64("boundary", boundary),
		slog.Int("experiment_objects", expGroup.NObjects()),
		slog.Int("control_objects", ctrlGroup.NObjects()))

	return col, nil
}

// buildGroup assembles one side of the split from masked copies of the
// original parameter tables. upper selects the > boundary side.
func (e *TwoChoiceExperiment) buildGroup(tcTbl *table.Table, boundary float64, upper bool) *Experiment {
	sub := newEmpty(e.cfg, e.log, e.analyses)

	for _, name := range e.original {
		masked := maskByThreshold(e.params[name], tcTbl, boundary, upper)

		// Objects whose masked track is too short drop out of this
		// table; the intersection below reconciles the tables.
		keep := make([]string, 0, masked.NCols())
		for _, obj := range masked.Columns() {
			if masked.ValidCount(obj) >= e.cfg.Cleaning.MinTrackLength {
				keep = append(keep, obj)
			}
		}
		masked = masked.Select(keep)

		sub.SetParameter(name, masked)
		sub.original = append(sub.original, name)
	}

	// Base measurements and derived higher-level measurements can end
	// up with different valid-object sets; only objects present in
	// every original table stay.
	universal := intersectColumns(sub.params, sub.original)
	for _, name := range sub.original {
		sub.params[name] = sub.params[name].Select(universal)
	}

	return sub
}

// maskByThreshold copies data, keeping only cells whose corresponding
// split-parameter value is on the requested side of the boundary.
// Columns and frames are aligned by label and index; cells without a
// split value become missing.
func maskByThreshold(data, tc *table.Table, boundary float64, upper bool) *table.Table {
	out := table.New(data.Columns(), data.NRows())
	for _, obj := range data.Columns() {
		if !tc.HasColumn(obj) {
			continue
		}
		rows := data.NRows()
		if tc.NRows() < rows {
			rows = tc.NRows()
		}
		for r := 0; r < rows; r++ {
			v := tc.At(r, obj)
			if table.IsMissing(v) {
				continue
			}
			if (upper && v > boundary) || (!upper && v <= boundary) {
				out.Set(r, obj, data.At(r, obj))
			}
		}
	}
	return out
}

// intersectColumns returns the sorted set of column labels present in
// every listed table.
func intersectColumns(params map[string]*table.Table, names []string) []string {
	if len(names) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, name := range names {
		for _, c := range params[name].Columns() {
			counts[c]++
		}
	}
	var out []string
	for c, n := range counts {
		if n == len(names) {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}
