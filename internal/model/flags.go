// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the global settings a model can carry through reserved
// constant names.
package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vk/spacerules/internal/valuerange"
)

// DefaultDimensions is the axis count a scalar periodic setting applies to.
const DefaultDimensions = 3

// Periodic lists, per axis, whether the boundary wraps around.
type Periodic struct {
	Axes []bool
}

func (p *Periodic) String() string {
	parts := make([]string, len(p.Axes))
	for i, a := range p.Axes {
		parts[i] = strconv.FormatBool(a)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Flags are the model's global settings. A nil Periodic means the setting
// was never given.
type Flags struct {
	InstantTransfer bool
	Periodic        *Periodic
}

// SetPeriodic accepts a vector with one component per axis, or a scalar or
// boolean word applied to every axis.
func (f *Flags) SetPeriodic(r valuerange.Range) error {
	v, ok := r.Value()
	if !ok {
		return fmt.Errorf("periodic boundaries need a single value or a vector, got %s", r)
	}
	if components, ok := v.Components(); ok {
		axes := make([]bool, len(components))
		for i, c := range components {
			axes[i] = c != 0
		}
		f.Periodic = &Periodic{Axes: axes}
		return nil
	}
	on, err := truth(v)
	if err != nil {
		return fmt.Errorf("periodic boundaries: %w", err)
	}
	axes := make([]bool, DefaultDimensions)
	for i := range axes {
		axes[i] = on
	}
	f.Periodic = &Periodic{Axes: axes}
	return nil
}

// SetInstantTransfer accepts a number (non-zero is on) or a boolean word.
func (f *Flags) SetInstantTransfer(r valuerange.Range) error {
	v, ok := r.Value()
	if !ok || r.Kind() != valuerange.KindSingle {
		return fmt.Errorf("instant transfer needs a single value, got %s", r)
	}
	on, err := truth(v)
	if err != nil {
		return fmt.Errorf("instant transfer: %w", err)
	}
	f.InstantTransfer = on
	return nil
}

func truth(v valuerange.Value) (bool, error) {
	if x, ok := v.Float(); ok {
		return x != 0, nil
	}
	s, _ := v.Str()
	switch strings.ToLower(s) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%s is not a boolean", v)
	}
	return b, nil
}
