// Package app contains the core application logic. It defines the App that
// loads override parameters, parses every model file under a path, logs the
// collected diagnostics and writes the model report. It is decoupled from
// any specific entrypoint like the CLI.
package app
