package app

import (
	"github.com/henri123lemoine/stashy/internal/git"
)

// Message types for the bubbletea app.

// PreviewLoadedMsg is sent when the patch for a selection has been read.
type PreviewLoadedMsg struct {
	Seq   uint64
	Index int
	Patch string
	Err   error
}

// PatchCheckedMsg is sent when the dry run for a selection finishes.
// A nil Err means the patch applies cleanly.
type PatchCheckedMsg struct {
	Seq uint64
	Err error
}

// StashDroppedMsg is sent when a drop completes.
type StashDroppedMsg struct {
	Entry   git.StashEntry
	Outcome git.Outcome
}

// StashAppliedMsg is sent when an apply completes.
type StashAppliedMsg struct {
	Entry git.StashEntry

	// WasClean is the clean flag at the moment apply was requested.
	WasClean bool

	Outcome git.Outcome
}

// StashPoppedMsg is sent when a pop completes.
type StashPoppedMsg struct {
	Entry   git.StashEntry
	Outcome git.Outcome
}

// StashesLoadedMsg is sent when the stash list is reloaded.
type StashesLoadedMsg struct {
	Entries []git.StashEntry
	Err     error
}

// StashRefChangedMsg is sent when the stash ref changed outside stashy.
type StashRefChangedMsg struct{}

// StatusLoadedMsg is sent when the working tree status is loaded.
type StatusLoadedMsg struct {
	Status git.WorkingTree
	Err    error
}
