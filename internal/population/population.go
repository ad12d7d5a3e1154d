// Package population represents the initial entity population of a model
// and builds it from nested init blocks.
package population

import (
	"sort"
	"strconv"
	"strings"

	"github.com/vk/spacerules/internal/valuerange"
)

// Attr is a concrete attribute value of an entity.
type Attr struct {
	Name  string
	Value valuerange.Value
}

// Entity is one initial entity: a species with concrete attribute values and
// an optional nested population it contains. An empty Species is a composite
// group built from a bracketed list.
type Entity struct {
	Species    string
	Attributes []Attr
	Content    *Population
}

// Key is the canonical identity of the entity. Attribute order does not
// matter; nested content is compared by its own canonical form.
func (e Entity) Key() string {
	var b strings.Builder
	b.WriteString(e.Species)
	if len(e.Attributes) > 0 {
		attrs := make([]Attr, len(e.Attributes))
		copy(attrs, e.Attributes)
		sort.SliceStable(attrs, func(i, j int) bool { return attrs[i].Name < attrs[j].Name })
		parts := make([]string, len(attrs))
		for i, a := range attrs {
			parts[i] = a.Name + "=" + a.Value.String()
		}
		b.WriteString("(" + strings.Join(parts, ", ") + ")")
	}
	if e.Content != nil && e.Content.Len() > 0 {
		b.WriteString("[" + e.Content.String() + "]")
	} else if e.Species == "" {
		b.WriteString("[]")
	}
	return b.String()
}

func (e Entity) String() string { return e.Key() }

// Attribute returns the value of the named attribute.
func (e Entity) Attribute(name string) (valuerange.Value, bool) {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return valuerange.Value{}, false
}

// Entry is one entity with its multiplicity.
type Entry struct {
	Entity Entity
	Count  int
}

// Population is a multiset of entities keyed by Entity.Key. Entries never
// have a count below one.
type Population struct {
	entries map[string]*Entry
}

func New() *Population {
	return &Population{entries: make(map[string]*Entry)}
}

// Add adds n copies of e. Non-positive n is ignored.
func (p *Population) Add(e Entity, n int) {
	if n <= 0 {
		return
	}
	k := e.Key()
	if cur, ok := p.entries[k]; ok {
		cur.Count += n
		return
	}
	p.entries[k] = &Entry{Entity: e, Count: n}
}

// Merge adds every entry of o. Counts of identical entities sum.
func (p *Population) Merge(o *Population) {
	if o == nil {
		return
	}
	for _, e := range o.entries {
		p.Add(e.Entity, e.Count)
	}
}

// Count returns the multiplicity of e.
func (p *Population) Count(e Entity) int {
	if cur, ok := p.entries[e.Key()]; ok {
		return cur.Count
	}
	return 0
}

// CountKey returns the multiplicity of the entity with canonical key k.
func (p *Population) CountKey(k string) int {
	if cur, ok := p.entries[k]; ok {
		return cur.Count
	}
	return 0
}

// Len is the number of distinct entities.
func (p *Population) Len() int {
	if p == nil {
		return 0
	}
	return len(p.entries)
}

// Total is the number of entities counting multiplicity, not nested content.
func (p *Population) Total() int {
	n := 0
	for _, e := range p.entries {
		n += e.Count
	}
	return n
}

// Entries returns the entries sorted by key.
func (p *Population) Entries() []Entry {
	out := make([]Entry, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Entity.Key() < out[j].Entity.Key() })
	return out
}

func (p *Population) String() string {
	entries := p.Entries()
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = strconv.Itoa(e.Count) + " " + e.Entity.Key()
	}
	return strings.Join(parts, " + ")
}
