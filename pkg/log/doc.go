// Package log provides the logging abstraction used by driveseq components.
//
// Library code depends only on the Logger interface defined here. A zerolog
// adapter is provided for the CLI and a no-op logger for tests.
//
// # Usage
//
// Wrap an existing zerolog logger:
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//
// Or build a console logger at a given level:
//
//	logger, err := log.NewConsoleLogger(os.Stderr, "debug")
//
// Use the no-op logger in tests:
//
//	logger := log.NewNoopLogger()
//
// # Version
//
// Current version: 1.1.0
// Minimum compatible version: 1.0.0
package log
