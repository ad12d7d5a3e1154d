// Package species holds the species declarations of a model: attribute
// domains and binding sites. It validates the references made by rules and
// init blocks.
package species

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/spacerules/internal/valuerange"
)

// Attribute is a declared attribute and its domain. A single-valued domain
// is the attribute's default.
type Attribute struct {
	Name   string
	Domain valuerange.Range
}

// Site is a binding site. A nil Angle means omnidirectional.
type Site struct {
	Name  string
	Angle *float64
}

// Def is one species declaration. It is immutable once registered.
type Def struct {
	Name       string
	Attributes []Attribute
	Sites      []Site
	Range      hcl.Range
}

// Attribute returns the named attribute declaration.
func (d *Def) Attribute(name string) (Attribute, bool) {
	for _, a := range d.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Site returns the named binding site.
func (d *Def) Site(name string) (Site, bool) {
	for _, s := range d.Sites {
		if s.Name == name {
			return s, true
		}
	}
	return Site{}, false
}

func (d *Def) AttributeNames() []string {
	out := make([]string, len(d.Attributes))
	for i, a := range d.Attributes {
		out[i] = a.Name
	}
	return out
}

func (d *Def) SiteNames() []string {
	out := make([]string, len(d.Sites))
	for i, s := range d.Sites {
		out[i] = s.Name
	}
	return out
}

func (d *Def) String() string {
	var b strings.Builder
	b.WriteString(d.Name)
	if len(d.Attributes) > 0 {
		parts := make([]string, len(d.Attributes))
		for i, a := range d.Attributes {
			parts[i] = a.Name + ": " + a.Domain.String()
		}
		b.WriteString("(" + strings.Join(parts, ", ") + ")")
	}
	if len(d.Sites) > 0 {
		parts := make([]string, len(d.Sites))
		for i, s := range d.Sites {
			parts[i] = s.Name
			if s.Angle != nil {
				parts[i] += fmt.Sprintf(": %g", *s.Angle)
			}
		}
		b.WriteString(" sites(" + strings.Join(parts, ", ") + ")")
	}
	return b.String()
}
