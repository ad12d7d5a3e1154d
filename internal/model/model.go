// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Model structure and the Assemble step that creates
// it at the end of a successful parse.
package model

import (
	"sort"

	"github.com/vk/spacerules/internal/population"
	"github.com/vk/spacerules/internal/rule"
	"github.com/vk/spacerules/internal/species"
	"github.com/vk/spacerules/internal/valuerange"
)

// Input is everything a parse collected.
type Input struct {
	Source     *Source
	Constants  map[string]valuerange.Range
	Used       []string
	Species    []*species.Def
	Rules      []*rule.Rule
	Population *population.Population
	Flags      Flags
}

// Model is immutable once assembled and may be shared freely.
type Model struct {
	name       string
	source     *Source
	constants  map[string]valuerange.Range
	used       []string
	species    []*species.Def
	rules      []*rule.Rule
	population *population.Population
	flags      Flags
}

// Assemble aggregates in into a Model named name.
func Assemble(name string, in Input) *Model {
	constants := make(map[string]valuerange.Range, len(in.Constants))
	for k, v := range in.Constants {
		constants[k] = v
	}
	used := append([]string(nil), in.Used...)
	sort.Strings(used)

	pop := population.New()
	pop.Merge(in.Population)

	flags := in.Flags
	if flags.Periodic != nil {
		flags.Periodic = &Periodic{Axes: append([]bool(nil), flags.Periodic.Axes...)}
	}

	src := in.Source
	if src == nil {
		src = NewSource(name)
	}

	return &Model{
		name:       name,
		source:     src,
		constants:  constants,
		used:       used,
		species:    append([]*species.Def(nil), in.Species...),
		rules:      append([]*rule.Rule(nil), in.Rules...),
		population: pop,
		flags:      flags,
	}
}

func (m *Model) Name() string { return m.name }

// Source returns the file the model was parsed from.
func (m *Model) Source() *Source { return m.source }

// Constants returns a copy of every global constant and its resolved range.
func (m *Model) Constants() map[string]valuerange.Range {
	out := make(map[string]valuerange.Range, len(m.constants))
	for k, v := range m.constants {
		out[k] = v
	}
	return out
}

// DefinedConstants returns the sorted names of all global constants.
func (m *Model) DefinedConstants() []string {
	out := make([]string, 0, len(m.constants))
	for k := range m.constants {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// UsedConstants returns the sorted names of the constants referenced while
// parsing.
func (m *Model) UsedConstants() []string {
	return append([]string(nil), m.used...)
}

// UnusedConstants returns the defined constants that were never referenced.
func (m *Model) UnusedConstants() []string {
	used := make(map[string]bool, len(m.used))
	for _, u := range m.used {
		used[u] = true
	}
	var out []string
	for _, name := range m.DefinedConstants() {
		if !used[name] {
			out = append(out, name)
		}
	}
	return out
}

// Species returns the declarations in declaration order.
func (m *Model) Species() []*species.Def {
	return append([]*species.Def(nil), m.species...)
}

// Rules returns the rules in source order.
func (m *Model) Rules() []*rule.Rule {
	return append([]*rule.Rule(nil), m.rules...)
}

// Population returns the initial population's entries sorted by key.
func (m *Model) Population() []population.Entry {
	return m.population.Entries()
}

// Count returns the initial multiplicity of the entity with canonical key k.
func (m *Model) Count(k string) int {
	return m.population.CountKey(k)
}

func (m *Model) Flags() Flags { return m.flags }
