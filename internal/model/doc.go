// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model provides the finished, read-only result of parsing one
// model source: the value handed to the simulator.
//
// # Core Concepts
//
//   - Model: named constants, species declarations, rules, the initial
//     population and the global flags of one source file.
//
//   - Flags: settings carried by reserved constant names, such as periodic
//     boundaries and instant transfer on init.
//
//   - Source: metadata that links a Model back to the file it came from, so
//     reports and diagnostics can name it.
//
//   - Workspace: the models parsed in one run, in the order their files were
//     found.
//
// Assemble performs no validation of its own; everything it receives has
// already been checked by the builders that produced it.
package model
