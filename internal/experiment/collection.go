package experiment

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"fimkit/internal/config"
	"fimkit/internal/table"
)

// Collection aggregates experiments (e.g. one per genotype) and aligns
// their common parameters into comparison tables: one column per
// experiment label, one row per object.
type Collection struct {
	cfg  *config.Config
	log  *slog.Logger
	opts Options

	labels  []string
	members map[string]*Experiment
	tables  map[string]*table.Table
}

// NewCollection creates an empty collection. opts applies when Add has
// to wrap raw input into an Experiment.
func NewCollection(cfg *config.Config, opts Options) *Collection {
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Collection{
		cfg:     cfg,
		log:     opts.Logger,
		opts:    opts,
		members: make(map[string]*Experiment),
		tables:  make(map[string]*table.Table),
	}
}

// Add stores an experiment under label and recomputes the comparison
// tables. x may be an *Experiment, a *TwoChoiceExperiment, or any input
// New accepts (file, directory, reader, lists). An empty label gets a
// generated exp_<n> name.
func (c *Collection) Add(x any, label string) error {
	if label == "" {
		label = fmt.Sprintf("exp_%d", len(c.labels)+1)
	}
	if _, exists := c.members[label]; exists {
		return fmt.Errorf("label %q already present in collection", label)
	}

	var exp *Experiment
	switch v := x.(type) {
	case *Experiment:
		exp = v
	case *TwoChoiceExperiment:
		exp = &v.Experiment
	default:
		built, err := New(x, c.cfg, c.opts)
		if err != nil {
			return err
		}
		exp = built
	}

	c.labels = append(c.labels, label)
	c.members[label] = exp
	c.extractData()

	c.log.Info("experiment added to collection",
		slog.String("label", label),
		slog.Int("experiments", len(c.labels)))

	return nil
}

// Labels returns the experiment labels in insertion order.
func (c *Collection) Labels() []string {
	return append([]string(nil), c.labels...)
}

// Experiment returns the member stored under label.
func (c *Collection) Experiment(label string) (*Experiment, bool) {
	e, ok := c.members[label]
	return e, ok
}

// Len returns the number of member experiments.
func (c *Collection) Len() int {
	return len(c.labels)
}

// Parameters returns the sorted union of parameter names across all
// member experiments.
func (c *Collection) Parameters() []string {
	seen := make(map[string]bool)
	var out []string
	for _, label := range c.labels {
		for _, name := range c.members[label].Parameters() {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Parameter returns the comparison table for one parameter: columns are
// experiment labels, rows are per-object values (raw for per-object
// parameters, per-object means for per-frame ones), padded with missing
// values up to the largest experiment.
func (c *Collection) Parameter(name string) (*table.Table, bool) {
	t, ok := c.tables[name]
	return t, ok
}

// extractData recomputes every comparison table from scratch. Runs
// after each insertion; incremental updates are not worth the
// bookkeeping at this scale.
func (c *Collection) extractData() {
	tables := make(map[string]*table.Table)

	for _, name := range c.Parameters() {
		maxRows := 0
		for _, label := range c.labels {
			if t, ok := c.members[label].Parameter(name); ok && t.NCols() > maxRows {
				maxRows = t.NCols()
			}
		}

		cmp := table.New(c.labels, maxRows)
		for _, label := range c.labels {
			t, ok := c.members[label].Parameter(name)
			if !ok {
				continue
			}
			var values []float64
			if t.PerObject() {
				values = t.Row(0)
			} else {
				values = t.ColumnMeans()
			}
			for i, v := range values {
				cmp.Set(i, label, v)
			}
		}
		tables[name] = cmp
	}

	c.tables = tables
}

// MemberSummary is one row of the collection summary.
type MemberSummary struct {
	Label    string
	NObjects int
	NFrames  int
}

// Summary returns per-experiment object and frame counts in insertion
// order.
func (c *Collection) Summary() []MemberSummary {
	out := make([]MemberSummary, 0, len(c.labels))
	for _, label := range c.labels {
		e := c.members[label]
		out = append(out, MemberSummary{
			Label:    label,
			NObjects: e.NObjects(),
			NFrames:  e.NFrames(),
		})
	}
	return out
}

// String summarizes the collection.
func (c *Collection) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Collection with %d experiments:\n", len(c.labels))
	fmt.Fprintf(&b, "%-20s %10s %10s\n", "name", "n_objects", "n_frames")
	for _, s := range c.Summary() {
		fmt.Fprintf(&b, "%-20s %10d %10d\n", s.Label, s.NObjects, s.NFrames)
	}
	fmt.Fprintf(&b, "Available parameters: %s", strings.Join(c.Parameters(), ", "))
	return b.String()
}
