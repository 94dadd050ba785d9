// Package app provides the Bubble Tea application model for stashy.
//
// Model owns the selection state: the visible stash list, the cursor, the
// preview text and whether the selected stash applies cleanly. Every change
// happens in Update. Repository calls and the patch dry run run as tea.Cmds
// and report back through the message types in messages.go; results that
// arrive after the selection moved on are dropped by sequence number.
package app
