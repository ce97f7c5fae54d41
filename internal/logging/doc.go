// Package logging provides opt-in file-based logging with rotation for docidx.
// When the --debug flag is set, comprehensive logs are written to ~/.docidx/logs/
// for debugging and troubleshooting.
//
// By default (without --debug), logging is minimal and goes to stderr only.
package logging
