package scope

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/spacerules/internal/diag"
	"github.com/vk/spacerules/internal/valuerange"
)

// EnterLoop starts or continues the loop over values bound to name.
//
// With no values it reports skip and pushes nothing. If name is already the
// innermost loop its index advances instead of pushing a second frame.
// Otherwise a new frame is pushed, shadowing any global of the same name
// until ExitLoop.
func (s *Scope) EnterLoop(name string, values []valuerange.Value, rng hcl.Range) (skip bool, err error) {
	if len(values) == 0 {
		return true, nil
	}
	if top := s.top(); top != nil && top.name == name {
		return false, s.AdvanceLoop(name)
	}
	if s.loopFrame(name) != nil {
		return false, diag.Errorf(rng, "loop variable %q: %w", name, ErrLoopVariableActive)
	}

	f := &frame{name: name, values: values}
	if prev, ok := s.globals[name]; ok {
		s.diags.Warn(rng, "Loop variable shadows constant",
			fmt.Sprintf("Variable %q is already defined; its value is overridden inside the loop and restored afterwards.", name))
		f.shadowed = &prev
	}
	s.loops = append(s.loops, f)
	s.bindCurrent(f)
	return false, nil
}

// AdvanceLoop moves the innermost loop to its next value.
func (s *Scope) AdvanceLoop(name string) error {
	f := s.top()
	if f == nil || f.name != name {
		return fmt.Errorf("advance loop %q: %w", name, ErrNotInnermostLoop)
	}
	if f.index+1 >= len(f.values) {
		return fmt.Errorf("advance loop %q past its last value", name)
	}
	f.index++
	s.bindCurrent(f)
	return nil
}

// IsLastIteration reports whether the innermost loop, which must be name,
// is bound to its final value.
func (s *Scope) IsLastIteration(name string) bool {
	f := s.top()
	return f != nil && f.name == name && f.index >= len(f.values)-1
}

// ExitLoop pops the innermost loop and restores the constant it shadowed.
func (s *Scope) ExitLoop(name string) error {
	f := s.top()
	if f == nil || f.name != name {
		return fmt.Errorf("exit loop %q: %w", name, ErrNotInnermostLoop)
	}
	s.pop()
	return nil
}

// InLoop reports whether name is the variable of any open loop.
func (s *Scope) InLoop(name string) bool {
	return s.loopFrame(name) != nil
}

// LoopDepth is the number of open loops.
func (s *Scope) LoopDepth() int {
	return len(s.loops)
}

// Unwind pops every open loop and clears rule-local names. It is used on
// error paths so that later statements see a clean scope.
func (s *Scope) Unwind() {
	for len(s.loops) > 0 {
		s.pop()
	}
	s.ClearForNewRule()
}

func (s *Scope) pop() {
	f := s.loops[len(s.loops)-1]
	s.loops = s.loops[:len(s.loops)-1]
	if f.shadowed != nil {
		s.set(f.name, *f.shadowed)
	} else {
		s.remove(f.name)
	}
}

func (s *Scope) bindCurrent(f *frame) {
	s.set(f.name, valuerange.Single(f.values[f.index]))
}

func (s *Scope) top() *frame {
	if len(s.loops) == 0 {
		return nil
	}
	return s.loops[len(s.loops)-1]
}

func (s *Scope) loopFrame(name string) *frame {
	for i := len(s.loops) - 1; i >= 0; i-- {
		if s.loops[i].name == name {
			return s.loops[i]
		}
	}
	return nil
}
