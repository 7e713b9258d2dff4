package dataprocessing

import (
	"fmt"
	"log/slog"
	"sort"

	"fimkit/internal/config"
	"fimkit/internal/table"
)

// Cleaner applies the ordered cleaning passes to a parameter table set.
// Pass order matters: unit conversion and gap filling assume the object
// filtering already ran.
type Cleaner struct {
	cfg config.CleaningConfig
	log *slog.Logger
}

// NewCleaner creates a cleaner for the given configuration.
func NewCleaner(cfg config.CleaningConfig, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{cfg: cfg, log: logger}
}

// CleanStats reports what cleaning removed.
type CleanStats struct {
	ObjectsBefore  int
	ObjectsAfter   int
	FramesBefore   int
	FramesAfter    int
	ObjectsDropped int
	FramesDropped  int
}

// Clean runs the cleaning passes over every table in params, in the
// fixed pass order, replacing the map entries with the cleaned tables.
// names lists the parameters in evaluation order (sorted by the
// extractor). The reference parameter must be present; its absence is a
// precondition violation of the extraction stage.
func (c *Cleaner) Clean(params map[string]*table.Table, names []string) (CleanStats, error) {
	if len(names) == 0 {
		return CleanStats{}, nil
	}

	stats := CleanStats{
		ObjectsBefore: params[names[0]].NCols(),
		FramesBefore:  params[names[0]].NRows(),
	}

	ref, ok := params[c.cfg.ReferenceParam]
	if !ok {
		return CleanStats{}, fmt.Errorf("reference parameter %q not present in data", c.cfg.ReferenceParam)
	}

	// Pass 1: objects with an all-missing column in any parameter are
	// dead. Computed once from the full table set before trimming.
	objects := unionColumns(params, names)
	dead := make(map[string]bool)
	for _, obj := range objects {
		for _, name := range names {
			t := params[name]
			if t.HasColumn(obj) && t.ValidCount(obj) == 0 {
				dead[obj] = true
				break
			}
		}
	}

	// Pass 2: track length is measured on the reference parameter only;
	// other parameters may have fewer valid points by construction.
	keep := make([]string, 0, len(objects))
	for _, obj := range objects {
		if dead[obj] {
			continue
		}
		if c.cfg.MinTrackLength > 0 && ref.HasColumn(obj) && ref.ValidCount(obj) < c.cfg.MinTrackLength {
			continue
		}
		keep = append(keep, obj)
	}

	for _, name := range names {
		t := params[name]

		// Pass 3: drop dead and short-track objects everywhere.
		t = t.Select(keep)

		// Pass 4: trim leading/trailing frames.
		if c.cfg.CutTableHead > 0 || c.cfg.CutTableTail > 0 {
			t = t.SliceRows(c.cfg.CutTableHead, t.NRows()-c.cfg.CutTableTail)
		}

		// Pass 5: pixel -> mm. Area parameters scale quadratically, so
		// they are linearized with a square root before the factor.
		if c.cfg.Pixel2MM {
			switch {
			case contains(c.cfg.SpatialParams, name):
				t.Scale(c.cfg.PixelPerMM)
			case contains(c.cfg.AreaParams, name):
				t.Sqrt()
				t.Scale(c.cfg.PixelPerMM)
			}
		}

		// Pass 6: bridge sub-threshold gaps in thresholded parameters.
		if c.cfg.FillGaps && contains(c.cfg.ThresholdedParams, name) {
			fillGaps(t, c.cfg.MaxGapSize)
		}

		params[name] = t
	}

	first := params[names[0]]
	stats.ObjectsAfter = first.NCols()
	stats.FramesAfter = first.NRows()
	stats.ObjectsDropped = stats.ObjectsBefore - stats.ObjectsAfter
	stats.FramesDropped = stats.FramesBefore - stats.FramesAfter

	c.log.Info("data clean-up finished",
		slog.Int("objects_dropped", stats.ObjectsDropped),
		slog.Int("frames_dropped", stats.FramesDropped))

	return stats, nil
}

// fillGaps bridges interior zero-runs in a thresholded (event
// indicator) table. Zero is the sentinel for "below threshold": zeros
// are temporarily treated as missing, each column is forward-filled
// from the most recent valid value for at most maxGap consecutive
// frames, and positions that were originally zero and are still missing
// afterwards revert to zero.
func fillGaps(t *table.Table, maxGap int) {
	nRows, nCols := t.NRows(), t.NCols()
	for c := 0; c < nCols; c++ {
		wasZero := make([]bool, nRows)
		for r := 0; r < nRows; r++ {
			if t.AtIndex(r, c) == 0 {
				wasZero[r] = true
				t.SetIndex(r, c, table.Missing())
			}
		}

		lastValid := table.Missing()
		run := 0
		for r := 0; r < nRows; r++ {
			v := t.AtIndex(r, c)
			if !table.IsMissing(v) {
				lastValid = v
				run = 0
				continue
			}
			run++
			if !table.IsMissing(lastValid) && run <= maxGap {
				t.SetIndex(r, c, lastValid)
			}
		}

		for r := 0; r < nRows; r++ {
			if wasZero[r] && table.IsMissing(t.AtIndex(r, c)) {
				t.SetIndex(r, c, 0)
			}
		}
	}
}

// unionColumns returns the sorted union of column labels across all
// parameter tables.
func unionColumns(params map[string]*table.Table, names []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range names {
		for _, c := range params[name].Columns() {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	sort.Strings(out)
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
