// Package git provides the stash operations stashy runs against a repository.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"

	"github.com/henri123lemoine/stashy/internal/debug"
)

// ErrNotRepository is returned by Open when the directory is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// Repo holds repository information. It is created once by Open and passed
// to everything that needs to talk to git.
type Repo struct {
	// Root is the current worktree root directory.
	Root string

	// GitDir is the common git directory. The stash ref and its reflog live here,
	// shared by all linked worktrees.
	GitDir string

	// objects reads commits for diff rendering. It is nil when go-git could not
	// open the repository, in which case the git CLI is used instead.
	objects *gogit.Repository
}

// Open detects the repository containing dir.
func Open(ctx context.Context, dir string) (*Repo, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = cwd
	}

	root, err := runGitInDir(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, dir)
	}
	root = strings.TrimSpace(root)

	// Get the git common directory (the actual .git dir, not a worktree's .git file)
	gitDir, err := runGitInDir(ctx, root, "rev-parse", "--git-common-dir")
	if err != nil {
		return nil, err
	}
	gitDir = strings.TrimSpace(gitDir)
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(root, gitDir)
	}

	repo := &Repo{
		Root:   root,
		GitDir: filepath.Clean(gitDir),
	}

	objects, err := gogit.PlainOpenWithOptions(root, &gogit.PlainOpenOptions{
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		debug.Log("go-git could not open %s, falling back to git diff: %v", root, err)
	} else {
		repo.objects = objects
	}

	return repo, nil
}

// CommandError is returned when a git command exits unsuccessfully.
type CommandError struct {
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("git %s: %v: %s", strings.Join(e.Args, " "), e.Err, strings.TrimSpace(e.Stderr))
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// gitCmd creates a git command with LC_ALL=C so its output can be parsed.
func gitCmd(ctx context.Context, dir string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	return cmd
}

// runGitInDir executes a git command in a specific directory.
func runGitInDir(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := gitCmd(ctx, dir, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		cmdErr := &CommandError{
			Args:     args,
			ExitCode: -1,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		return "", cmdErr
	}

	return stdout.String(), nil
}
