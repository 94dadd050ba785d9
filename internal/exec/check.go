// Package exec runs external commands on behalf of the UI.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/henri123lemoine/stashy/internal/debug"
)

// ErrPatchDoesNotApply is returned when the dry run rejects a patch.
var ErrPatchDoesNotApply = errors.New("patch does not apply cleanly")

// Checker reports whether a patch would apply to the working tree.
type Checker interface {
	Check(ctx context.Context, patch string) error
}

// GitChecker checks patches with `git apply --check` in Dir.
type GitChecker struct {
	Dir string

	// Timeout bounds a single check. Zero means no limit.
	Timeout time.Duration
}

// Check implements Checker.
func (c GitChecker) Check(ctx context.Context, patch string) error {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	return CheckPatch(ctx, c.Dir, patch)
}

// CheckPatch feeds patch to `git apply --check` and returns nil iff it exits 0.
// Nothing in the working tree or index is modified.
func CheckPatch(ctx context.Context, dir, patch string) error {
	defer debug.Timed("git apply --check")()

	cmd := exec.CommandContext(ctx, "git", "apply", "--check")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	cmd.Stdin = strings.NewReader(patch)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	detail := strings.TrimSpace(stderr.String())
	if detail == "" {
		detail = err.Error()
	}
	debug.Log("patch check failed: %s", detail)
	return fmt.Errorf("%w: %s", ErrPatchDoesNotApply, detail)
}
