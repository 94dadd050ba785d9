// Package debug provides debug logging functionality for stashy.
//
// When enabled via the --debug flag or the [debug] config section, it logs
// git calls, patch checks and stash mutations to a file so the TUI output
// stays untouched.
package debug
