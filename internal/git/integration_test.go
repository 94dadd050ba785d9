package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRepo creates a temporary git repo with one commit containing README.md.
func setupTestRepo(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	// Resolve symlinks (macOS /var -> /private/var)
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	runGit(t, dir, "init", "-q")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")
	runGit(t, dir, "config", "commit.gpgsign", "false")

	writeFile(t, dir, "README.md", "# Test\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-q", "-m", "Initial commit")

	return dir
}

// runGit executes a git command in the given directory.
func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\nOutput: %s", args, err, output)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

// pushStash modifies README.md and stashes the change.
func pushStash(t *testing.T, dir, content, message string) {
	t.Helper()
	writeFile(t, dir, "README.md", content)
	runGit(t, dir, "stash", "push", "-q", "-m", message)
}

func openRepo(t *testing.T, dir string) *Repo {
	t.Helper()
	repo, err := Open(context.Background(), dir)
	require.NoError(t, err)
	return repo
}

func TestOpen(t *testing.T) {
	dir := setupTestRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))

	repo := openRepo(t, filepath.Join(dir, "sub"))

	assert.Equal(t, dir, repo.Root)
	assert.Equal(t, filepath.Join(dir, ".git"), repo.GitDir)
	assert.NotNil(t, repo.objects)
}

func TestOpenNotARepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	// Keep git from discovering a repository above the temp dir.
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))

	repo, err := Open(context.Background(), dir)
	require.Error(t, err)
	assert.Nil(t, repo)
	assert.ErrorIs(t, err, ErrNotRepository)
}

func TestListStashes(t *testing.T) {
	dir := setupTestRepo(t)
	repo := openRepo(t, dir)
	ctx := context.Background()

	entries, err := repo.ListStashes(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	pushStash(t, dir, "first\n", "wip: a")
	pushStash(t, dir, "second\n", "wip: b")

	entries, err = repo.ListStashes(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Most recent first.
	assert.Equal(t, 0, entries[0].Index)
	assert.Contains(t, entries[0].Message, "wip: b")
	assert.Equal(t, 1, entries[1].Index)
	assert.Contains(t, entries[1].Message, "wip: a")
	assert.False(t, entries[0].ID.IsZero())
	assert.WithinDuration(t, time.Now(), entries[0].Created, time.Hour)
}

func TestDiffPatch(t *testing.T) {
	dir := setupTestRepo(t)
	pushStash(t, dir, "changed\n", "wip")
	repo := openRepo(t, dir)
	ctx := context.Background()

	entries, err := repo.ListStashes(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	patch, err := repo.DiffPatch(ctx, entries[0].ID)
	require.NoError(t, err)
	assert.Contains(t, patch, "diff --git a/README.md b/README.md")
	assert.Contains(t, patch, "-# Test")
	assert.Contains(t, patch, "+changed")

	// Same content through the CLI fallback.
	repo.objects = nil
	cliPatch, err := repo.DiffPatch(ctx, entries[0].ID)
	require.NoError(t, err)
	assert.Contains(t, cliPatch, "diff --git a/README.md b/README.md")
	assert.Contains(t, cliPatch, "+changed")
}

func TestDiffPatchUntrackedOnly(t *testing.T) {
	dir := setupTestRepo(t)
	writeFile(t, dir, "new.txt", "untracked\n")
	runGit(t, dir, "stash", "push", "-q", "-u", "-m", "untracked only")
	repo := openRepo(t, dir)
	ctx := context.Background()

	entries, err := repo.ListStashes(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	patch, err := repo.DiffPatch(ctx, entries[0].ID)
	require.NoError(t, err)
	assert.Empty(t, patch)
}

func listStashes(t *testing.T, repo *Repo) []StashEntry {
	t.Helper()
	entries, err := repo.ListStashes(context.Background())
	require.NoError(t, err)
	return entries
}

func TestDrop(t *testing.T) {
	dir := setupTestRepo(t)
	pushStash(t, dir, "first\n", "wip: a")
	pushStash(t, dir, "second\n", "wip: b")
	repo := openRepo(t, dir)
	ctx := context.Background()

	entries := listStashes(t, repo)
	require.Len(t, entries, 2)

	outcome := repo.Drop(ctx, entries[0])
	assert.True(t, outcome.OK(), outcome.String())

	entries = listStashes(t, repo)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, "wip: a")

	outcome = repo.Drop(ctx, StashEntry{Index: 5})
	assert.Equal(t, OutcomeNotFound, outcome.Kind, outcome.String())
	assert.Len(t, listStashes(t, repo), 1)
}

func TestDropAfterStackShift(t *testing.T) {
	dir := setupTestRepo(t)
	pushStash(t, dir, "first\n", "wip: a")
	pushStash(t, dir, "second\n", "wip: b")
	repo := openRepo(t, dir)
	ctx := context.Background()

	entries := listStashes(t, repo)
	require.Len(t, entries, 2)
	target := entries[1]
	require.Contains(t, target.Message, "wip: a")

	// Another process pushes, so stash@{1} now holds "wip: b".
	pushStash(t, dir, "third\n", "wip: new")

	outcome := repo.Drop(ctx, target)
	assert.Equal(t, OutcomeNotFound, outcome.Kind, outcome.String())
	assert.Contains(t, outcome.Message, "stash@{1}")

	entries = listStashes(t, repo)
	require.Len(t, entries, 3)
	assert.Contains(t, entries[0].Message, "wip: new")
	assert.Contains(t, entries[1].Message, "wip: b")
	assert.Contains(t, entries[2].Message, "wip: a")
}

func TestMutationOfVanishedSlot(t *testing.T) {
	dir := setupTestRepo(t)
	pushStash(t, dir, "first\n", "wip: a")
	pushStash(t, dir, "second\n", "wip: b")
	repo := openRepo(t, dir)
	ctx := context.Background()

	entries := listStashes(t, repo)
	require.Len(t, entries, 2)
	target := entries[1]

	runGit(t, dir, "stash", "drop", "-q", "stash@{0}")

	for name, mutate := range map[string]func(context.Context, StashEntry) Outcome{
		"drop":  repo.Drop,
		"apply": repo.Apply,
		"pop":   repo.Pop,
	} {
		outcome := mutate(ctx, target)
		assert.Equal(t, OutcomeNotFound, outcome.Kind, "%s: %s", name, outcome.String())
	}

	// Nothing was applied or removed.
	assert.Equal(t, "# Test\n", readFile(t, dir, "README.md"))
	entries = listStashes(t, repo)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, "wip: a")
}

func TestApplyKeepsStash(t *testing.T) {
	dir := setupTestRepo(t)
	pushStash(t, dir, "changed\n", "wip")
	repo := openRepo(t, dir)
	ctx := context.Background()

	entries := listStashes(t, repo)
	require.Len(t, entries, 1)

	outcome := repo.Apply(ctx, entries[0])
	require.True(t, outcome.OK(), outcome.String())
	assert.Equal(t, "changed\n", readFile(t, dir, "README.md"))
	assert.Len(t, listStashes(t, repo), 1)
}

func TestPop(t *testing.T) {
	dir := setupTestRepo(t)
	pushStash(t, dir, "changed\n", "wip")
	repo := openRepo(t, dir)
	ctx := context.Background()

	entries := listStashes(t, repo)
	require.Len(t, entries, 1)

	outcome := repo.Pop(ctx, entries[0])
	require.True(t, outcome.OK(), outcome.String())
	assert.Equal(t, "changed\n", readFile(t, dir, "README.md"))
	assert.Empty(t, listStashes(t, repo))
}

func TestPopConflict(t *testing.T) {
	dir := setupTestRepo(t)
	pushStash(t, dir, "stashed change\n", "wip")

	writeFile(t, dir, "README.md", "committed change\n")
	runGit(t, dir, "commit", "-q", "-am", "diverge")

	repo := openRepo(t, dir)
	ctx := context.Background()

	entries := listStashes(t, repo)
	require.Len(t, entries, 1)

	outcome := repo.Pop(ctx, entries[0])
	assert.False(t, outcome.OK())
	assert.Equal(t, OutcomeConflicts, outcome.Kind, outcome.String())
	assert.NotZero(t, outcome.Code)

	// A conflicting pop keeps the entry.
	assert.Len(t, listStashes(t, repo), 1)
}

func TestMutationWaitsForLock(t *testing.T) {
	dir := setupTestRepo(t)
	pushStash(t, dir, "changed\n", "wip")
	repo := openRepo(t, dir)

	entries := listStashes(t, repo)
	require.Len(t, entries, 1)

	held := flock.New(filepath.Join(repo.GitDir, lockFileName))
	require.NoError(t, held.Lock())
	defer held.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	outcome := repo.Drop(ctx, entries[0])
	assert.Equal(t, OutcomeUnknown, outcome.Kind)
	assert.True(t, strings.Contains(outcome.Message, "lock"), outcome.Message)
	assert.Len(t, listStashes(t, repo), 1)
}

func TestWorkingTreeStatus(t *testing.T) {
	dir := setupTestRepo(t)
	repo := openRepo(t, dir)
	ctx := context.Background()

	wt, err := repo.WorkingTreeStatus(ctx)
	require.NoError(t, err)
	assert.False(t, wt.IsDirty())
	assert.NotEmpty(t, wt.Branch)

	writeFile(t, dir, "README.md", "dirty\n")
	writeFile(t, dir, "other.txt", "new\n")

	wt, err = repo.WorkingTreeStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, wt.DirtyFiles)
}

func TestWatchStash(t *testing.T) {
	dir := setupTestRepo(t)
	pushStash(t, dir, "first\n", "wip: a")
	repo := openRepo(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := repo.WatchStash(ctx)
	require.NoError(t, err)

	runGit(t, dir, "stash", "drop", "-q")

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a stash change notification")
	}

	cancel()
	// The channel is closed once the watcher stops.
	for range changes {
	}
}
