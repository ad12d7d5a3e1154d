package species

import (
	"errors"
	"fmt"

	"github.com/agext/levenshtein"
	"github.com/hashicorp/hcl/v2"
	"github.com/vk/spacerules/internal/diag"
	"github.com/vk/spacerules/internal/valuerange"
)

var (
	ErrUnknownSpecies     = errors.New("unknown species")
	ErrDuplicateSpecies   = errors.New("species already declared")
	ErrDuplicateMember    = errors.New("attribute or binding site declared twice")
	ErrUnknownBindingSite = errors.New("unknown binding site")
	ErrRegistrySealed     = errors.New("species declarations are closed")
)

// Ref is a name used somewhere in the source.
type Ref struct {
	Name  string
	Range hcl.Range
}

// AttributeValue is an attribute assignment checked against a declaration.
// Known is false when the value is only decided during simulation.
type AttributeValue struct {
	Name  string
	Value valuerange.Value
	Known bool
	Range hcl.Range
}

// Registry maps species names to declarations in declaration order.
type Registry struct {
	defs   map[string]*Def
	order  []*Def
	sealed bool
	diags  *diag.Collector
}

func NewRegistry(diags *diag.Collector) *Registry {
	if diags == nil {
		diags = diag.NewCollector()
	}
	return &Registry{defs: make(map[string]*Def), diags: diags}
}

// Register adds a declaration. Species, attribute and site names must be
// unique, and nothing may be registered after Seal.
func (r *Registry) Register(def *Def) error {
	if r.sealed {
		return diag.Errorf(def.Range, "species %q: %w", def.Name, ErrRegistrySealed)
	}
	if prev, ok := r.defs[def.Name]; ok {
		return diag.Errorf(def.Range, "species %q (first declared at line %d): %w", def.Name, prev.Range.Start.Line, ErrDuplicateSpecies)
	}
	seen := make(map[string]bool, len(def.Attributes)+len(def.Sites))
	for _, a := range def.Attributes {
		if seen[a.Name] {
			return diag.Errorf(def.Range, "species %q attribute %q: %w", def.Name, a.Name, ErrDuplicateMember)
		}
		seen[a.Name] = true
	}
	sites := make(map[string]bool, len(def.Sites))
	for _, s := range def.Sites {
		if sites[s.Name] {
			return diag.Errorf(def.Range, "species %q binding site %q: %w", def.Name, s.Name, ErrDuplicateMember)
		}
		sites[s.Name] = true
	}
	r.defs[def.Name] = def
	r.order = append(r.order, def)
	return nil
}

// Seal closes the declaration section.
func (r *Registry) Seal() { r.sealed = true }

func (r *Registry) Sealed() bool { return r.sealed }

// Has reports whether name is a declared species.
func (r *Registry) Has(name string) bool {
	_, ok := r.defs[name]
	return ok
}

// Lookup returns the declaration of name.
func (r *Registry) Lookup(name string, rng hcl.Range) (*Def, error) {
	if def, ok := r.defs[name]; ok {
		return def, nil
	}
	names := make([]string, len(r.order))
	for i, d := range r.order {
		names[i] = d.Name
	}
	return nil, diag.Errorf(rng, "species %q: %w%s", name, ErrUnknownSpecies, suggestion(name, names))
}

// All returns the declarations in declaration order.
func (r *Registry) All() []*Def {
	out := make([]*Def, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) warnUndeclared(def *Def, v AttributeValue) {
	r.diags.Warn(v.Range, "Undeclared attribute",
		fmt.Sprintf("Species %q has no attribute %q%s.", def.Name, v.Name, suggestion(v.Name, def.AttributeNames())))
}

// ValidateAttributes warns about undeclared names and about known values
// outside the declared domain. Neither stops the parse.
func (r *Registry) ValidateAttributes(def *Def, values []AttributeValue) {
	for _, v := range values {
		attr, ok := def.Attribute(v.Name)
		if !ok {
			r.warnUndeclared(def, v)
			continue
		}
		if v.Known && !inDomain(attr.Domain, v.Value) {
			r.diags.Warn(v.Range, "Value outside declared domain",
				fmt.Sprintf("Value %s of %s.%s is outside its declared domain %s.", v.Value, def.Name, v.Name, attr.Domain))
		}
	}
}

// ValidateBindingSites fails on the first site not declared on def.
func (r *Registry) ValidateBindingSites(def *Def, refs []Ref) error {
	for _, ref := range refs {
		if _, ok := def.Site(ref.Name); !ok {
			return diag.Errorf(ref.Range, "species %q has no binding site %q: %w%s",
				def.Name, ref.Name, ErrUnknownBindingSite, suggestion(ref.Name, def.SiteNames()))
		}
	}
	return nil
}

// inDomain treats a single-valued domain as a default, so only the kind of
// the value is checked against it.
func inDomain(domain valuerange.Range, v valuerange.Value) bool {
	switch domain.Kind() {
	case valuerange.KindSingle, valuerange.KindVector:
		d, _ := domain.Value()
		if d.Kind() != v.Kind() {
			return false
		}
		if d.Kind() == valuerange.VectorValue {
			dc, _ := d.Components()
			vc, _ := v.Components()
			return len(dc) == len(vc)
		}
		return true
	case valuerange.KindInterval, valuerange.KindStepped, valuerange.KindSet:
		return domain.Contains(v)
	default:
		panic(fmt.Sprintf("species: unknown domain kind %s", domain.Kind()))
	}
}

// suggestion returns a "(did you mean ...?)" hint for the closest candidate
// within edit distance 2, or an empty string.
func suggestion(name string, candidates []string) string {
	best, bestDist := "", 3
	for _, c := range candidates {
		if d := levenshtein.Distance(name, c, nil); d < bestDist {
			best, bestDist = c, d
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}
