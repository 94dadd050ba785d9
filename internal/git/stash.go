package git

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/henri123lemoine/stashy/internal/debug"
)

// StashEntry represents a single git stash entry.
type StashEntry struct {
	// Index is the position in the stash stack, 0 being the most recent.
	Index   int
	Message string
	ID      plumbing.Hash
	Created time.Time
}

// Ref returns the stash@{n} reference for the entry.
func (e StashEntry) Ref() string {
	return StashRef(e.Index)
}

// StashRef returns the stash@{n} reference for a stack index.
func StashRef(index int) string {
	return fmt.Sprintf("stash@{%d}", index)
}

// stashListFormat prints commit hash, commit time and reflog subject separated by NUL.
const stashListFormat = "--format=%H%x00%ct%x00%gs"

// ListStashes returns the stash stack, most recent first.
func (r *Repo) ListStashes(ctx context.Context) ([]StashEntry, error) {
	defer debug.Timed("git.ListStashes")()

	output, err := runGitInDir(ctx, r.Root, "stash", "list", stashListFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to list stashes: %w", err)
	}

	return parseStashList(output), nil
}

// parseStashList parses the output of git stash list with stashListFormat.
func parseStashList(output string) []StashEntry {
	output = strings.TrimRight(output, "\n")
	if output == "" {
		return []StashEntry{}
	}

	lines := strings.Split(output, "\n")
	entries := make([]StashEntry, 0, len(lines))
	for _, line := range lines {
		parts := strings.SplitN(line, "\x00", 3)
		if len(parts) != 3 || !plumbing.IsHash(parts[0]) {
			debug.Log("skipping unparseable stash line %q", line)
			continue
		}

		entry := StashEntry{
			Index:   len(entries),
			ID:      plumbing.NewHash(parts[0]),
			Message: parts[2],
		}
		if secs, err := strconv.ParseInt(parts[1], 10, 64); err == nil {
			entry.Created = time.Unix(secs, 0)
		}
		entries = append(entries, entry)
	}

	return entries
}

// Renumber returns entries with Index reset to slice position.
func Renumber(entries []StashEntry) []StashEntry {
	out := make([]StashEntry, len(entries))
	for i, e := range entries {
		e.Index = i
		out[i] = e
	}
	return out
}

// DiffPatch returns the stash's changes against its first parent as a unified patch.
// An untracked-only stash yields an empty string.
func (r *Repo) DiffPatch(ctx context.Context, id plumbing.Hash) (string, error) {
	defer debug.Timed("git.DiffPatch " + id.String())()

	if r.objects != nil {
		patch, err := r.objectPatch(ctx, id)
		if err == nil {
			return patch, nil
		}
		debug.Log("go-git patch for %s failed, using git diff: %v", id, err)
	}

	rev := id.String()
	output, err := runGitInDir(ctx, r.Root, "diff", "--no-color", "--no-ext-diff", "--binary", rev+"^1", rev)
	if err != nil {
		return "", fmt.Errorf("failed to diff stash %s: %w", rev, err)
	}
	return output, nil
}

// objectPatch renders the patch from the object database.
func (r *Repo) objectPatch(ctx context.Context, id plumbing.Hash) (string, error) {
	commit, err := r.objects.CommitObject(id)
	if err != nil {
		return "", fmt.Errorf("failed to resolve stash commit: %w", err)
	}
	if commit.NumParents() == 0 {
		return "", fmt.Errorf("stash commit %s has no parent", id)
	}

	parent, err := commit.Parent(0)
	if err != nil {
		return "", fmt.Errorf("failed to resolve stash parent: %w", err)
	}

	patch, err := parent.PatchContext(ctx, commit)
	if err != nil {
		return "", fmt.Errorf("failed to diff stash: %w", err)
	}

	return patch.String(), nil
}

// Drop removes the stash entry.
func (r *Repo) Drop(ctx context.Context, entry StashEntry) Outcome {
	return r.mutate(ctx, "drop", entry)
}

// Apply applies the stash entry without dropping it.
func (r *Repo) Apply(ctx context.Context, entry StashEntry) Outcome {
	return r.mutate(ctx, "apply", entry)
}

// Pop applies and drops the stash entry.
func (r *Repo) Pop(ctx context.Context, entry StashEntry) Outcome {
	return r.mutate(ctx, "pop", entry)
}

// mutate runs `git stash <op>` on the entry's slot. When the entry has an ID,
// the slot must still hold that commit, otherwise the outcome is NotFound and
// nothing is run.
func (r *Repo) mutate(ctx context.Context, op string, entry StashEntry) Outcome {
	ref := entry.Ref()
	defer debug.Timed("git stash " + op + " " + ref)()

	unlock, err := r.lock(ctx)
	if err != nil {
		o := Outcome{Kind: OutcomeUnknown, Code: -1, Message: err.Error()}
		debug.Logw("stash mutation", "op", op, "ref", ref, "outcome", o.String())
		return o
	}
	defer unlock()

	if !entry.ID.IsZero() {
		if o, ok := r.verifySlot(ctx, entry); !ok {
			debug.Logw("stash mutation", "op", op, "ref", ref, "outcome", o.String())
			return o
		}
	}

	_, err = runGitInDir(ctx, r.Root, "stash", op, ref)
	o := outcomeFromError(err)
	debug.Logw("stash mutation", "op", op, "ref", ref, "outcome", o.String())
	return o
}

// verifySlot checks that stash@{n} still resolves to the entry's commit.
// Must be called with the stash lock held.
func (r *Repo) verifySlot(ctx context.Context, entry StashEntry) (Outcome, bool) {
	ref := entry.Ref()
	output, err := runGitInDir(ctx, r.Root, "rev-parse", "--verify", "--quiet", ref)
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && cmdErr.ExitCode > 0 {
			return Outcome{Kind: OutcomeNotFound, Code: cmdErr.ExitCode, Message: ref + " no longer exists"}, false
		}
		return outcomeFromError(err), false
	}

	current := strings.TrimSpace(output)
	if current != entry.ID.String() {
		return Outcome{
			Kind:    OutcomeNotFound,
			Code:    1,
			Message: fmt.Sprintf("%s is now %s, expected %s", ref, short(current), short(entry.ID.String())),
		}, false
	}
	return Outcome{Kind: OutcomeSuccess}, true
}

func short(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
