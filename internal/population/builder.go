package population

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/spacerules/internal/diag"
	"github.com/vk/spacerules/internal/species"
	"github.com/vk/spacerules/internal/valuerange"
)

// ErrInvalidMultiplicity is returned for a NaN, infinite or out-of-range
// count.
var ErrInvalidMultiplicity = errors.New("multiplicity must be a finite number within range")

// MaxMultiplicity bounds the magnitude of a single count.
const MaxMultiplicity = math.MaxInt32

// AttrSpec is an attribute given in an init element. Non-single ranges are
// sampled once per instance.
type AttrSpec struct {
	Name   string
	Range  valuerange.Range
	Source hcl.Range
}

type level struct {
	pop     *Population
	ignored bool
}

// Builder accumulates populations level by level. Each nested init list
// pushes a level; popping it yields that list's population. An ignored level
// still accepts calls but records nothing, and every level pushed under it
// is ignored too.
type Builder struct {
	registry *species.Registry
	diags    *diag.Collector
	rng      *rand.Rand
	levels   []*level
}

// NewBuilder returns a builder with one open, non-ignored level.
func NewBuilder(reg *species.Registry, diags *diag.Collector, rng *rand.Rand) *Builder {
	if diags == nil {
		diags = diag.NewCollector()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	b := &Builder{registry: reg, diags: diags, rng: rng}
	b.Push(false)
	return b
}

// Push opens a nested level.
func (b *Builder) Push(ignored bool) {
	b.levels = append(b.levels, &level{pop: New(), ignored: ignored || b.Ignored()})
}

// Pop closes the innermost level and returns what it collected.
func (b *Builder) Pop() *Population {
	n := len(b.levels)
	if n == 0 {
		panic("population: Pop without Push")
	}
	l := b.levels[n-1]
	b.levels = b.levels[:n-1]
	return l.pop
}

// Unwind drops every nested level, keeping the root and what it holds.
func (b *Builder) Unwind() {
	if len(b.levels) > 1 {
		b.levels = b.levels[:1]
	}
}

// Depth is the number of open levels.
func (b *Builder) Depth() int { return len(b.levels) }

// Ignored reports whether the innermost level discards what it receives.
func (b *Builder) Ignored() bool {
	n := len(b.levels)
	return n > 0 && b.levels[n-1].ignored
}

// Current returns the innermost level's population.
func (b *Builder) Current() *Population {
	return b.levels[len(b.levels)-1].pop
}

// Multiplicity converts an evaluated count to an int, truncating toward
// zero with a warning when a fraction is lost. A result below one means the
// element and everything nested in it is ignored.
func (b *Builder) Multiplicity(v float64, rng hcl.Range) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > MaxMultiplicity {
		return 0, diag.Errorf(rng, "count %v: %w", v, ErrInvalidMultiplicity)
	}
	n := math.Trunc(v)
	if n != v {
		b.diags.Warn(rng, "Multiplicity truncated",
			fmt.Sprintf("Multiplicity %s is not an integer; %d is used.", valuerange.Number(v), int(n)))
	}
	return int(n), nil
}

// Add records n copies of e at the innermost level.
func (b *Builder) Add(e Entity, n int) {
	if b.Ignored() {
		return
	}
	b.Current().Add(e, n)
}

// Merge adds p to the innermost level.
func (b *Builder) Merge(p *Population) {
	if b.Ignored() {
		return
	}
	b.Current().Merge(p)
}

// Instantiate validates the given attributes against def and adds n
// instances containing content. Declared attributes that were not given take
// their default when the domain is a single value.
func (b *Builder) Instantiate(def *species.Def, attrs []AttrSpec, content *Population, n int) error {
	b.validate(def, attrs)
	if b.Ignored() || n <= 0 {
		return nil
	}

	given := make(map[string]AttrSpec, len(attrs))
	for _, a := range attrs {
		given[a.Name] = a
	}
	var order []AttrSpec
	random := false
	for _, decl := range def.Attributes {
		spec, ok := given[decl.Name]
		if !ok {
			if decl.Domain.Kind() != valuerange.KindSingle && decl.Domain.Kind() != valuerange.KindVector {
				continue
			}
			spec = AttrSpec{Name: decl.Name, Range: decl.Domain}
		}
		order = append(order, spec)
		random = random || !deterministic(spec.Range)
	}
	for _, a := range attrs {
		if _, ok := def.Attribute(a.Name); !ok {
			order = append(order, a)
			random = random || !deterministic(a.Range)
		}
	}
	if content != nil && content.Len() == 0 {
		content = nil
	}

	instances := 1
	if random {
		instances = n
	}
	for i := 0; i < instances; i++ {
		e := Entity{Species: def.Name, Content: content}
		for _, spec := range order {
			v, err := spec.Range.Sample(b.rng)
			if err != nil {
				return diag.Wrap(spec.Source, fmt.Errorf("attribute %s.%s: %w", def.Name, spec.Name, err))
			}
			e.Attributes = append(e.Attributes, Attr{Name: spec.Name, Value: v})
		}
		if random {
			b.Current().Add(e, 1)
		} else {
			b.Current().Add(e, n)
		}
	}
	return nil
}

// Group adds n composite entities holding content, as written `n [ ... ]`.
func (b *Builder) Group(content *Population, n int) {
	b.Add(Entity{Content: content}, n)
}

// validate checks names and the single values that can be known before
// sampling; sampled members come from the given range by construction.
func (b *Builder) validate(def *species.Def, attrs []AttrSpec) {
	values := make([]species.AttributeValue, 0, len(attrs))
	for _, a := range attrs {
		av := species.AttributeValue{Name: a.Name, Range: a.Source}
		if v, ok := a.Range.Value(); ok {
			av.Value, av.Known = v, true
		}
		values = append(values, av)
	}
	b.registry.ValidateAttributes(def, values)
}

func deterministic(r valuerange.Range) bool {
	return r.Kind() == valuerange.KindSingle || r.Kind() == valuerange.KindVector || r.Size() == 1
}
