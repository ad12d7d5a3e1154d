package scope

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// ClearForNewRule forgets the match variables of the previous rule.
func (s *Scope) ClearForNewRule() {
	clear(s.locals)
	clear(s.reported)
}

// Bind records a match variable of the current rule. Binding a name twice
// warns and the later binding wins.
func (s *Scope) Bind(name string, rng hcl.Range) {
	if s.locals[name] {
		s.diags.Warn(rng, "Duplicate variable binding",
			fmt.Sprintf("Variable %q is already bound in this rule; the later binding wins.", name))
	}
	s.locals[name] = true
}

// IsBound reports whether name is a match variable of the current rule.
func (s *Scope) IsBound(name string) bool {
	return s.locals[name]
}

// CheckReference warns when name is not bound in the current rule. Each
// missing name is reported once per rule; a later Bind of it is not a
// duplicate.
func (s *Scope) CheckReference(name string, rng hcl.Range) bool {
	if s.locals[name] || s.reported[name] {
		return true
	}
	s.diags.Warn(rng, "Undefined rule variable",
		fmt.Sprintf("Variable %q is not defined in current rule; match or assignment will fail.", name))
	s.reported[name] = true
	return false
}
