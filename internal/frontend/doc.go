// Package frontend turns model source text into a model.Model.
//
// # How It Works
//
// Parse lexes the source once and walks the statements in order with a
// recursive-descent parser. Every statement drives one of the builders held
// by the ParseContext:
//
//   - Constants go to the scope, where overrides and reserved setting names
//     are applied.
//   - Species declarations go to the registry, which is sealed when the
//     first rule or init block begins.
//   - Rules drive rule.Builder through its Start, LHS, RHS and Build steps.
//   - Init blocks drive population.Builder, one level per nested list.
//
// # Loops
//
// A `for` element captures the tokens of its body once and replays them
// through a fresh stream for every value, while the scope tracks which value
// is current. Nothing rewinds the outer stream.
//
// # Errors
//
// Warnings and severe diagnostics are collected and returned with the
// model. A hard error stops the parse; with SkipInvalidRules a failing rule
// is reported as a severe diagnostic instead and parsing resumes after the
// rule's terminating ';'. Either way the scope and builders are unwound
// before continuing.
package frontend
