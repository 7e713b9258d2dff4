package dataprocessing

import (
	"fmt"
	"log/slog"

	"fimkit/internal/table"
)

// ParameterSource is the minimal lookup capability a derived-parameter
// formula needs: read access to the current parameter set of an
// experiment.
type ParameterSource interface {
	// Parameter returns the table stored under name, if present.
	Parameter(name string) (*table.Table, bool)
	// Parameters lists the currently known parameter names, sorted.
	Parameters() []string
	// Objects returns the sorted union of object labels.
	Objects() []string
	// NFrames returns the frame count of the experiment.
	NFrames() int
}

// ParameterSink additionally accepts computed parameters.
type ParameterSink interface {
	ParameterSource
	// SetParameter stores a table under name, registering the name if new.
	SetParameter(name string, t *table.Table)
}

// AnalysisFunc computes one derived parameter from the current state of
// an experiment. It may read any already-stored parameter, including
// ones derived earlier in the same pass. Per-frame results have the
// experiment's frame count; per-object results have a single row.
type AnalysisFunc func(src ParameterSource) (*table.Table, error)

// Registration pairs a derived-parameter name with its formula.
type Registration struct {
	Name string
	Fn   AnalysisFunc
}

// Registry is an ordered catalogue of derived-parameter formulas. New
// parameters are added by registration; the engine never knows formula
// semantics.
type Registry struct {
	entries []Registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a formula to the catalogue and returns the registry
// for chaining. Later registrations see the results of earlier ones.
func (r *Registry) Register(name string, fn AnalysisFunc) *Registry {
	r.entries = append(r.entries, Registration{Name: name, Fn: fn})
	return r
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Name
	}
	return out
}

// Len returns the number of registered formulas.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Run invokes every registered formula once, in registration order,
// storing each result before the next formula runs so that later
// formulas can build on earlier ones. A formula error aborts the pass.
func (r *Registry) Run(sink ParameterSink, log *slog.Logger) error {
	if r == nil {
		return nil
	}
	if log == nil {
		log = slog.Default()
	}

	for _, e := range r.entries {
		t, err := e.Fn(sink)
		if err != nil {
			return fmt.Errorf("derived parameter %q failed: %w", e.Name, err)
		}
		sink.SetParameter(e.Name, t)
		log.Debug("derived parameter computed",
			slog.String("parameter", e.Name),
			slog.Int("rows", t.NRows()),
			slog.Int("objects", t.NCols()))
	}

	return nil
}
