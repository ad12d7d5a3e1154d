// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates CLI flags into the application's internal configuration.
//
// Usage:
//
//	spacerules [options] [MODEL_PATH]
//
// MODEL_PATH is a single model file or a directory searched for .srm files.
// Constants can be overridden with -params (an HCL file of attributes) and
// with repeatable -set name=value flags; -set wins.
package cli
