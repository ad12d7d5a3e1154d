// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines Source, which links a parsed model back to its file on
// disk so reports and diagnostics can name it.
package model

import (
	"path/filepath"
	"strings"
)

// Source is file system metadata for a model.
type Source struct {
	FilePath string
}

func NewSource(filePath string) *Source {
	return &Source{
		FilePath: filePath,
	}
}

// DisplayName is the file name without directory or extension; it names a
// model when no explicit name is given.
func (s *Source) DisplayName() string {
	base := filepath.Base(s.FilePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
