package git

import (
	"context"
	"strings"
)

// WorkingTree summarizes the state stashes would be applied onto.
type WorkingTree struct {
	Branch     string
	DirtyFiles int
}

// IsDirty reports whether the working tree has uncommitted changes.
func (w WorkingTree) IsDirty() bool {
	return w.DirtyFiles > 0
}

// WorkingTreeStatus returns the current branch and the number of changed paths.
func (r *Repo) WorkingTreeStatus(ctx context.Context) (WorkingTree, error) {
	output, err := runGitInDir(ctx, r.Root, "status", "--porcelain", "--branch")
	if err != nil {
		return WorkingTree{}, err
	}
	return parseStatus(output), nil
}

func parseStatus(output string) WorkingTree {
	var wt WorkingTree
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "## ") {
			wt.Branch = parseBranchHeader(strings.TrimPrefix(line, "## "))
			continue
		}
		wt.DirtyFiles++
	}
	return wt
}

// parseBranchHeader extracts the branch from "main...origin/main [ahead 1]",
// "No commits yet on main" or "HEAD (no branch)".
func parseBranchHeader(header string) string {
	if rest, ok := strings.CutPrefix(header, "No commits yet on "); ok {
		return rest
	}
	if strings.HasPrefix(header, "HEAD (no branch)") {
		return "HEAD"
	}
	if i := strings.Index(header, "..."); i >= 0 {
		header = header[:i]
	}
	if i := strings.Index(header, " "); i >= 0 {
		header = header[:i]
	}
	return header
}
