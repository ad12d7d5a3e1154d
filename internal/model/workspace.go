// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Workspace, the container for every model parsed in
// one run. A run may point at a directory holding many model files; each
// becomes its own Model and the Workspace keeps them in discovery order.
package model

// Workspace represents the models of one run.
type Workspace struct {
	Models []*Model
}

// NewWorkspace creates and returns an initialized Workspace.
func NewWorkspace() *Workspace {
	return &Workspace{
		Models: []*Model{},
	}
}

// Add appends m.
func (w *Workspace) Add(m *Model) {
	w.Models = append(w.Models, m)
}

// Find returns the model with the given name.
func (w *Workspace) Find(name string) (*Model, bool) {
	for _, m := range w.Models {
		if m.Name() == name {
			return m, true
		}
	}
	return nil, false
}
