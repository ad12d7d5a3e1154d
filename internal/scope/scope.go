// Package scope tracks the names visible while a model is being built:
// global constants, FOR-loop variables that shadow them, and the match
// variables bound inside a single rule.
package scope

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/spacerules/internal/diag"
	"github.com/vk/spacerules/internal/valuerange"
)

var (
	// ErrLoopVariableActive is returned when a loop reuses the name of an
	// enclosing loop that is still open.
	ErrLoopVariableActive = errors.New("loop variable is already in use by an enclosing loop")
	// ErrNotInnermostLoop is returned when a loop operation names a loop that
	// is not the top of the stack.
	ErrNotInnermostLoop = errors.New("not the innermost open loop")
)

// FlagSink receives the global settings carried by reserved constant names.
type FlagSink interface {
	SetPeriodic(r valuerange.Range) error
	SetInstantTransfer(r valuerange.Range) error
}

var (
	periodicNames        = []string{"periodic", "periodicboundaries", "periodic_boundaries", "pbc"}
	instantTransferNames = []string{"instanttransfer", "instant_transfer", "transferoninit", "instanttransferoninit"}
)

type frame struct {
	name     string
	values   []valuerange.Value
	index    int
	shadowed *valuerange.Range
}

// Scope is owned by one parse pass and is not safe for concurrent use.
type Scope struct {
	globals map[string]valuerange.Range
	numeric map[string]float64
	used    map[string]bool

	overrides map[string]valuerange.Value
	applied   map[string]bool

	loops    []*frame
	locals   map[string]bool
	reported map[string]bool // referenced before being bound

	diags *diag.Collector
	flags FlagSink
}

// New returns an empty scope. overrides and flags may be nil.
func New(diags *diag.Collector, overrides map[string]valuerange.Value, flags FlagSink) *Scope {
	if diags == nil {
		diags = diag.NewCollector()
	}
	return &Scope{
		globals:   make(map[string]valuerange.Range),
		numeric:   make(map[string]float64),
		used:      make(map[string]bool),
		overrides: overrides,
		applied:   make(map[string]bool),
		locals:    make(map[string]bool),
		reported:  make(map[string]bool),
		diags:     diags,
		flags:     flags,
	}
}

// Define binds a global constant and returns the range actually stored.
// An override with the same name replaces r. Reserved setting names update
// the FlagSink and are marked used.
func (s *Scope) Define(name string, r valuerange.Range, rng hcl.Range) valuerange.Range {
	if v, ok := s.overrides[name]; ok {
		r = valuerange.Single(v)
		s.applied[name] = true
	}
	if _, exists := s.globals[name]; exists {
		s.diags.Warn(rng, "Constant redefined", fmt.Sprintf("Constant %q is already defined; the new value %s replaces it.", name, r))
	}
	s.set(name, r)

	lower := strings.ToLower(name)
	switch {
	case contains(periodicNames, lower):
		s.used[name] = true
		if s.flags != nil {
			if err := s.flags.SetPeriodic(r); err != nil {
				s.diags.Severe(rng, "Invalid periodic boundary setting", err.Error())
			}
		}
	case contains(instantTransferNames, lower):
		s.used[name] = true
		if s.flags != nil {
			if err := s.flags.SetInstantTransfer(r); err != nil {
				s.diags.Severe(rng, "Invalid instant transfer setting", err.Error())
			}
		}
	}
	return r
}

func (s *Scope) set(name string, r valuerange.Range) {
	s.globals[name] = r
	delete(s.numeric, name)
	if v, ok := r.Value(); ok && r.Kind() == valuerange.KindSingle {
		if f, ok := v.Float(); ok {
			s.numeric[name] = f
		}
	}
}

func (s *Scope) remove(name string) {
	delete(s.globals, name)
	delete(s.numeric, name)
}

// Lookup returns the range bound to name and marks a global constant used.
func (s *Scope) Lookup(name string) (valuerange.Range, bool) {
	r, ok := s.globals[name]
	if ok {
		s.markUsed(name)
	}
	return r, ok
}

// Has reports whether name is bound without marking it used.
func (s *Scope) Has(name string) bool {
	_, ok := s.globals[name]
	return ok
}

// Numeric returns the immediate value of a loop variable or a single-valued
// numeric constant.
func (s *Scope) Numeric(name string) (float64, bool) {
	f, ok := s.numeric[name]
	if ok {
		s.markUsed(name)
	}
	return f, ok
}

// Resolve implements expr.Resolver over Numeric. Names bound in the current
// rule are left unresolved so they stay symbolic.
func (s *Scope) Resolve(name string, _ hcl.Range) (float64, bool) {
	if s.locals[name] {
		return 0, false
	}
	return s.Numeric(name)
}

func (s *Scope) markUsed(name string) {
	if s.loopFrame(name) == nil {
		s.used[name] = true
	}
}

// Defined returns every global constant with its resolved range.
func (s *Scope) Defined() map[string]valuerange.Range {
	out := make(map[string]valuerange.Range, len(s.globals))
	for k, v := range s.globals {
		out[k] = v
	}
	return out
}

// Used returns the sorted names of global constants referenced so far.
func (s *Scope) Used() []string {
	out := make([]string, 0, len(s.used))
	for name := range s.used {
		if _, ok := s.globals[name]; ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// UnusedOverrides returns the sorted override names that never matched a
// constant definition.
func (s *Scope) UnusedOverrides() []string {
	var out []string
	for name := range s.overrides {
		if !s.applied[name] {
			out = append(out, name)
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
