// Package config loads override parameters for model constants.
//
// Overrides come from two places: HCL parameter files holding top-level
// attributes, and `name=value` assignments given on the command line. Both
// are evaluated as HCL expressions without variables and converted to model
// values, so
//
//	N     = 100
//	label = "wild type"
//	pbc   = [1, 1, 0]
//
// yields a number, a string and a vector. A later source replaces an earlier
// one key by key.
package config
