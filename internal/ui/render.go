package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/henri123lemoine/stashy/internal/git"
)

// State constants (matching app.State)
const (
	StateList = iota
	StateFilter
	StateError
)

// Check constants (matching app.CheckState)
const (
	CheckPending = iota
	CheckClean
	CheckDirty
)

// EmptyStashText is shown in the preview for a stash with no tracked changes.
const EmptyStashText = "Empty stash"

// Layout heights.
const (
	HeaderHeight     = 1
	CommandBarHeight = 2
	FilterBarHeight  = 1

	// previewChrome is the border rows plus the title row of the preview pane.
	previewChrome = 3
	// previewInset is the border columns plus horizontal padding.
	previewInset = 4
)

// MinWidth is the absolute minimum terminal width we try to support.
const MinWidth = 30

// MinHeight is the absolute minimum terminal height we try to support.
const MinHeight = 12

// RenderParams contains all parameters needed for rendering.
type RenderParams struct {
	State      int
	Entries    []git.StashEntry
	Total      int
	Cursor     int
	ListOffset int
	ListHeight int
	Width      int
	Height     int

	RepoName    string
	WorkingTree *git.WorkingTree

	Preview      string
	Check        int
	Clean        bool
	Busy         bool
	SpinnerFrame string

	ShowHelp    bool
	FilterInput string
	FilterValue string

	ErrMsg string
}

// Selected returns the entry under the cursor, or nil when the list is empty.
func (p RenderParams) Selected() *git.StashEntry {
	if p.Cursor < 0 || p.Cursor >= len(p.Entries) {
		return nil
	}
	return &p.Entries[p.Cursor]
}

// ShowFilter reports whether the filter bar takes a row.
func (p RenderParams) ShowFilter() bool {
	return p.State == StateFilter || p.FilterValue != ""
}

// PreviewSize returns the viewport dimensions left for the preview pane.
func PreviewSize(width, height, listHeight int, showHelp, showFilter bool) (int, int) {
	width, height = clampSize(width, height)

	h := height - HeaderHeight - listHeight - previewChrome
	if showHelp {
		h -= CommandBarHeight
	}
	if showFilter {
		h -= FilterBarHeight
	}
	if h < 1 {
		h = 1
	}

	w := width - previewInset
	if w < 1 {
		w = 1
	}
	return w, h
}

// ListTop is the first screen row of the stash list.
func ListTop() int {
	return HeaderHeight
}

// PreviewTop is the first screen row of the preview pane.
func PreviewTop(listHeight int) int {
	return HeaderHeight + listHeight
}

// CommandLabels returns the apply and pop hints for the command bar.
func CommandLabels(clean bool) (apply, pop string) {
	if clean {
		return "a - apply", "p - pop"
	}
	return "a - apply & exit", "(conflicts found)"
}

// Render renders the full UI.
func Render(p RenderParams) string {
	p.Width, p.Height = clampSize(p.Width, p.Height)

	if p.State == StateError {
		return renderError(p)
	}

	sections := []string{
		renderHeader(p),
		renderList(p),
		renderPreview(p),
	}
	if p.ShowFilter() {
		sections = append(sections, renderFilter(p))
	}
	if p.ShowHelp {
		sections = append(sections, renderCommandBar(p))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func clampSize(width, height int) (int, int) {
	// Graceful degradation for small terminals
	if width < MinWidth {
		width = MinWidth
	}
	if height < MinHeight {
		height = MinHeight
	}
	return width, height
}

// renderHeader renders the repository line above the list.
func renderHeader(p RenderParams) string {
	parts := []string{HeaderStyle.Render("STASHES")}
	if p.RepoName != "" {
		parts = append(parts, PathStyle.Render(p.RepoName))
	}
	if wt := p.WorkingTree; wt != nil {
		if wt.Branch != "" {
			parts = append(parts, StashStyle.Render(wt.Branch))
		}
		if wt.IsDirty() {
			parts = append(parts, DirtyStyle.Render(fmt.Sprintf("%s %d changed", SymbolDirty, wt.DirtyFiles)))
		} else {
			parts = append(parts, CleanStyle.Render(SymbolClean+" clean"))
		}
	}

	count := fmt.Sprintf("%d stashes", p.Total)
	if p.Total == 1 {
		count = "1 stash"
	}
	if len(p.Entries) != p.Total {
		count = fmt.Sprintf("%d of %d shown", len(p.Entries), p.Total)
	}
	parts = append(parts, PathStyle.Render(count))

	return lipgloss.NewStyle().MaxWidth(p.Width).Render(strings.Join(parts, "  "))
}

// renderList renders exactly ListHeight rows of "index: message".
func renderList(p RenderParams) string {
	rows := make([]string, 0, p.ListHeight)
	row := lipgloss.NewStyle().Width(p.Width).MaxWidth(p.Width)

	if len(p.Entries) == 0 {
		msg := "No stashes"
		if p.Total > 0 {
			msg = "No stashes match the filter"
		}
		rows = append(rows, row.Inherit(PathStyle).Render(msg))
	}

	for i := p.ListOffset; i < len(p.Entries) && len(rows) < p.ListHeight; i++ {
		entry := p.Entries[i]
		text := fmt.Sprintf("%d: %s", entry.Index, firstLine(entry.Message))
		if i == p.Cursor {
			rows = append(rows, row.Inherit(SelectedStyle).Render(text))
		} else {
			rows = append(rows, row.Inherit(NormalStyle).Render(text))
		}
	}

	for len(rows) < p.ListHeight {
		rows = append(rows, "")
	}

	return strings.Join(rows, "\n")
}

// renderPreview renders the bordered preview pane.
func renderPreview(p RenderParams) string {
	_, h := PreviewSize(p.Width, p.Height, p.ListHeight, p.ShowHelp, p.ShowFilter())

	border := ColorSecondary
	switch p.Check {
	case CheckClean:
		border = ColorSuccess
	case CheckDirty:
		border = ColorDanger
	}

	content := previewTitle(p) + "\n" + p.Preview
	return PreviewStyle.
		BorderForeground(border).
		Width(p.Width - 2).
		Height(h + 1).
		MaxHeight(h + previewChrome).
		Render(content)
}

// previewTitle describes the selected stash and its check state.
func previewTitle(p RenderParams) string {
	entry := p.Selected()
	if entry == nil {
		return PathStyle.Render("Nothing selected")
	}

	parts := []string{StashStyle.Render(entry.Ref())}
	if !entry.Created.IsZero() {
		parts = append(parts, PathStyle.Render(humanize.Time(entry.Created)))
	}

	switch {
	case p.Busy:
		parts = append(parts, PendingStyle.Render(p.SpinnerFrame+" working"))
	case p.Check == CheckPending:
		parts = append(parts, PendingStyle.Render(p.SpinnerFrame+" checking"))
	case p.Check == CheckClean:
		parts = append(parts, CleanStyle.Render(SymbolClean+" applies cleanly"))
	default:
		parts = append(parts, DisabledStyle.Render(SymbolFailed+" conflicts"))
	}

	return strings.Join(parts, " "+SymbolDivider+" ")
}

// renderFilter renders the filter input row.
func renderFilter(p RenderParams) string {
	if p.State == StateFilter {
		return p.FilterInput
	}
	return HelpStyle.Render("filter: ") + p.FilterValue + HelpStyle.Render("  (/ to edit)")
}

// renderCommandBar renders the two-row key hint bar.
func renderCommandBar(p RenderParams) string {
	apply, pop := CommandLabels(p.Clean)
	applyStyle, popStyle := CommandStyle, CommandStyle
	if !p.Clean {
		popStyle = DisabledStyle
	}
	if len(p.Entries) == 0 {
		// Nothing to check, so neither action has a verdict.
		apply, pop = CommandLabels(true)
		applyStyle, popStyle = DisabledStyle, DisabledStyle
	}

	top := commandRow(p.Width,
		CommandStyle.Render("d - drop"),
		applyStyle.Render(apply),
		CommandStyle.Render("q - quit"),
	)
	bottom := commandRow(p.Width,
		HelpStyle.Render("? - toggle help"),
		popStyle.Render(pop),
		HelpStyle.Render("j/k - move"),
	)
	return top + "\n" + bottom
}

// commandRow lays out three cells left, centered and right aligned.
func commandRow(width int, left, center, right string) string {
	colW := width / 3
	lastW := width - 2*colW
	return lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(colW).Align(lipgloss.Left).Render(left),
		lipgloss.NewStyle().Width(colW).Align(lipgloss.Center).Render(center),
		lipgloss.NewStyle().Width(lastW).Align(lipgloss.Right).Render(right),
	)
}

// renderError renders the modal error dialog centered on screen.
func renderError(p RenderParams) string {
	body := ErrorStyle.Render("Error") + "\n\n" +
		p.ErrMsg + "\n\n" +
		HelpStyle.Render("enter/esc to dismiss")

	w := p.Width / 2
	if w < 40 {
		w = min(40, p.Width)
	}

	dialog := DialogStyle.
		Width(w).
		Height(p.Height / 2).
		Render(body)

	return lipgloss.Place(p.Width, p.Height, lipgloss.Center, lipgloss.Center, dialog)
}

type patchLine int

const (
	patchContext patchLine = iota
	patchHeader
	patchHunk
	patchAdd
	patchDel
)

// classifyPatch tags each line of a unified diff. File header prefixes only
// count before the first hunk of each file, so a removed "-- x" line is not
// mistaken for a "--- " header.
func classifyPatch(lines []string) []patchLine {
	kinds := make([]patchLine, len(lines))
	inHunk := false
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "diff --git"):
			inHunk = false
			kinds[i] = patchHeader
		case strings.HasPrefix(line, "@@"):
			inHunk = true
			kinds[i] = patchHunk
		case !inHunk && (strings.HasPrefix(line, "index ") ||
			strings.HasPrefix(line, "+++ ") ||
			strings.HasPrefix(line, "--- ")):
			kinds[i] = patchHeader
		case !inHunk:
			kinds[i] = patchContext
		case strings.HasPrefix(line, "+"):
			kinds[i] = patchAdd
		case strings.HasPrefix(line, "-"):
			kinds[i] = patchDel
		}
	}
	return kinds
}

// ColorizePatch styles a unified diff for the preview pane.
func ColorizePatch(patch string) string {
	lines := strings.Split(strings.ReplaceAll(patch, "\t", "    "), "\n")
	for i, kind := range classifyPatch(lines) {
		switch kind {
		case patchHeader:
			lines[i] = DiffHeaderStyle.Render(lines[i])
		case patchHunk:
			lines[i] = DiffHunkStyle.Render(lines[i])
		case patchAdd:
			lines[i] = DiffAddStyle.Render(lines[i])
		case patchDel:
			lines[i] = DiffDelStyle.Render(lines[i])
		}
	}
	return strings.Join(lines, "\n")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
