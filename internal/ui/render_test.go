package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/henri123lemoine/stashy/internal/git"
)

func testParams() RenderParams {
	entries := []git.StashEntry{
		{Index: 0, Message: "On main: wip: a", Created: time.Now().Add(-2 * time.Hour)},
		{Index: 1, Message: "On main: wip: b"},
	}
	return RenderParams{
		State:      StateList,
		Entries:    entries,
		Total:      len(entries),
		ListHeight: 5,
		Width:      100,
		Height:     30,
		RepoName:   "project",
		Preview:    "diff --git a/README.md b/README.md",
		ShowHelp:   true,
	}
}

func TestCommandLabels(t *testing.T) {
	tests := []struct {
		clean     bool
		wantApply string
		wantPop   string
	}{
		{true, "a - apply", "p - pop"},
		{false, "a - apply & exit", "(conflicts found)"},
	}

	for _, tt := range tests {
		apply, pop := CommandLabels(tt.clean)
		if apply != tt.wantApply || pop != tt.wantPop {
			t.Errorf("CommandLabels(%v) = (%q, %q), want (%q, %q)", tt.clean, apply, pop, tt.wantApply, tt.wantPop)
		}
	}
}

func TestRenderListRows(t *testing.T) {
	out := Render(testParams())

	for _, want := range []string{"0: On main: wip: a", "1: On main: wip: b", "STASHES", "project", "2 stashes"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q", want)
		}
	}
}

func TestRenderCommandBarFollowsCleanState(t *testing.T) {
	p := testParams()

	p.Clean = true
	p.Check = CheckClean
	out := Render(p)
	if !strings.Contains(out, "a - apply") || !strings.Contains(out, "p - pop") {
		t.Error("clean state should show apply and pop")
	}
	if strings.Contains(out, "apply & exit") || strings.Contains(out, "(conflicts found)") {
		t.Error("clean state should not show dirty labels")
	}
	if !strings.Contains(out, "applies cleanly") {
		t.Error("clean state should be reflected in the preview title")
	}

	p.Clean = false
	p.Check = CheckDirty
	out = Render(p)
	if !strings.Contains(out, "a - apply & exit") || !strings.Contains(out, "(conflicts found)") {
		t.Error("dirty state should show apply & exit and (conflicts found)")
	}
	if strings.Contains(out, "p - pop") {
		t.Error("dirty state should hide the pop action")
	}
}

func TestRenderPendingTitle(t *testing.T) {
	p := testParams()
	p.Check = CheckPending
	p.SpinnerFrame = "*"

	out := Render(p)
	if !strings.Contains(out, "* checking") {
		t.Error("pending check should show the spinner")
	}
	if !strings.Contains(out, "stash@{0}") {
		t.Error("title should name the selected stash")
	}
	if !strings.Contains(out, "2 hours ago") {
		t.Error("title should show the stash age")
	}
}

func TestRenderHelpToggle(t *testing.T) {
	p := testParams()
	p.ShowHelp = false

	out := Render(p)
	if strings.Contains(out, "d - drop") {
		t.Error("command bar should be hidden")
	}
}

func TestRenderHeight(t *testing.T) {
	for _, showHelp := range []bool{true, false} {
		p := testParams()
		p.ShowHelp = showHelp

		out := Render(p)
		if got := strings.Count(out, "\n") + 1; got != p.Height {
			t.Errorf("showHelp=%v: rendered %d lines, want %d", showHelp, got, p.Height)
		}
	}
}

func TestPreviewSize(t *testing.T) {
	w, withHelp := PreviewSize(100, 30, 5, true, false)
	_, withoutHelp := PreviewSize(100, 30, 5, false, false)
	_, withFilter := PreviewSize(100, 30, 5, true, true)

	if w != 96 {
		t.Errorf("width = %d, want 96", w)
	}
	if withoutHelp-withHelp != CommandBarHeight {
		t.Errorf("hiding help should reclaim %d rows, got %d", CommandBarHeight, withoutHelp-withHelp)
	}
	if withHelp-withFilter != FilterBarHeight {
		t.Errorf("filter bar should take %d row, got %d", FilterBarHeight, withHelp-withFilter)
	}

	// Tiny terminals still get a usable pane.
	if _, h := PreviewSize(1, 1, 50, true, true); h < 1 {
		t.Errorf("preview height %d should be at least 1", h)
	}
}

func TestRenderEmptyList(t *testing.T) {
	p := testParams()
	p.Entries = nil
	p.Total = 0
	p.Preview = ""

	out := Render(p)
	if !strings.Contains(out, "No stashes") {
		t.Error("empty list should say so")
	}
	if !strings.Contains(out, "Nothing selected") {
		t.Error("empty list should have no selection")
	}
	if strings.Contains(out, "apply & exit") || strings.Contains(out, "(conflicts found)") {
		t.Error("empty list should not report conflicts")
	}
	if !strings.Contains(out, "a - apply") || !strings.Contains(out, "p - pop") {
		t.Error("empty list should show the plain action labels")
	}
}

func TestRenderFilteredCount(t *testing.T) {
	p := testParams()
	p.Entries = p.Entries[1:]
	p.FilterValue = "b"

	out := Render(p)
	if !strings.Contains(out, "1 of 2 shown") {
		t.Error("header should show the filtered count")
	}
	if !strings.Contains(out, "filter:") || !strings.Contains(out, "(/ to edit)") {
		t.Error("filter value should be shown")
	}
}

func TestRenderError(t *testing.T) {
	p := testParams()
	p.State = StateError
	p.ErrMsg = "Problem dropping stash (not found)"

	out := Render(p)
	if !strings.Contains(out, "Problem dropping stash (not found)") {
		t.Error("dialog should contain the message")
	}
	if strings.Contains(out, "0: On main: wip: a") {
		t.Error("dialog should replace the list")
	}
}

func TestColorizePatchKeepsText(t *testing.T) {
	patch := "diff --git a/x b/x\n@@ -1 +1 @@\n-old\n+new\n\tcontext"
	out := ColorizePatch(patch)

	for _, want := range []string{"diff --git a/x b/x", "@@ -1 +1 @@", "-old", "+new", "    context"} {
		if !strings.Contains(out, want) {
			t.Errorf("ColorizePatch() missing %q", want)
		}
	}
}

func TestClassifyPatch(t *testing.T) {
	lines := []string{
		"diff --git a/q.sql b/q.sql",
		"index 1111111..2222222 100644",
		"--- a/q.sql",
		"+++ b/q.sql",
		"@@ -1,3 +1,3 @@",
		" select 1;",
		"--- old comment",
		"+++ new comment",
		"-plain",
		"+plain",
		"diff --git a/x b/x",
		"--- a/x",
		"+++ b/x",
		"@@ -1 +1 @@",
		"-x",
	}
	want := []patchLine{
		patchHeader, patchHeader, patchHeader, patchHeader,
		patchHunk, patchContext, patchDel, patchAdd, patchDel, patchAdd,
		patchHeader, patchHeader, patchHeader,
		patchHunk, patchDel,
	}

	got := classifyPatch(lines)
	for i := range lines {
		if got[i] != want[i] {
			t.Errorf("line %d %q: got kind %d, want %d", i, lines[i], got[i], want[i])
		}
	}
}
