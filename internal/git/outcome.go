package git

import (
	"errors"
	"fmt"
	"strings"
)

// OutcomeKind classifies the result of a stash mutation.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeNotFound
	OutcomeConflicts
	OutcomeUnknown
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not found"
	case OutcomeConflicts:
		return "conflicts"
	default:
		return "unknown error"
	}
}

// Outcome is the result of a drop, apply or pop.
type Outcome struct {
	Kind OutcomeKind

	// Code is the git exit status, or -1 when git could not be run.
	Code int

	// Message is git's trimmed error output, or the Go error text.
	Message string
}

// OK reports whether the mutation succeeded.
func (o Outcome) OK() bool {
	return o.Kind == OutcomeSuccess
}

// String returns a short description for logs and dialogs.
func (o Outcome) String() string {
	if o.OK() {
		return o.Kind.String()
	}
	if o.Code < 0 {
		if o.Message == "" {
			return o.Kind.String()
		}
		return fmt.Sprintf("%s: %s", o.Kind, o.Message)
	}
	if o.Message == "" {
		return fmt.Sprintf("%s (code %d)", o.Kind, o.Code)
	}
	return fmt.Sprintf("%s (code %d): %s", o.Kind, o.Code, o.Message)
}

// Phrases git prints when the requested stash entry does not exist.
var notFoundMarkers = []string{
	"is not a valid reference",
	"is not a stash-like commit",
	"is not a stash reference",
	"no stash entries found",
	"only has", // "log for 'stash' only has N entries" on older git
}

// Phrases git prints when applying left or would leave conflicts.
var conflictMarkers = []string{
	"conflict",
	"could not restore untracked files",
	"would be overwritten",
}

// outcomeFromError maps a git command result to an Outcome.
func outcomeFromError(err error) Outcome {
	if err == nil {
		return Outcome{Kind: OutcomeSuccess}
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return Outcome{Kind: OutcomeUnknown, Code: -1, Message: err.Error()}
	}

	message := strings.TrimSpace(cmdErr.Stderr)
	if message == "" {
		message = strings.TrimSpace(cmdErr.Stdout)
	}
	if message == "" && cmdErr.Err != nil {
		message = cmdErr.Err.Error()
	}

	output := strings.ToLower(cmdErr.Stderr + "\n" + cmdErr.Stdout)
	switch {
	case containsAny(output, notFoundMarkers):
		return Outcome{Kind: OutcomeNotFound, Code: cmdErr.ExitCode, Message: message}
	case containsAny(output, conflictMarkers):
		return Outcome{Kind: OutcomeConflicts, Code: cmdErr.ExitCode, Message: message}
	default:
		return Outcome{Kind: OutcomeUnknown, Code: cmdErr.ExitCode, Message: message}
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
