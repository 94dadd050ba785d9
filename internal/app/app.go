package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/sahilm/fuzzy"

	"github.com/henri123lemoine/stashy/internal/config"
	"github.com/henri123lemoine/stashy/internal/debug"
	"github.com/henri123lemoine/stashy/internal/exec"
	"github.com/henri123lemoine/stashy/internal/git"
	"github.com/henri123lemoine/stashy/internal/ui"
)

// State represents the current UI state.
type State int

const (
	StateList State = iota
	StateFilter
	StateError
)

// CheckState tracks the dry run for the selected stash.
type CheckState int

const (
	CheckPending CheckState = iota
	CheckClean
	CheckDirty
)

// FatalPopMessage is reported when a pop fails and stashy exits.
const FatalPopMessage = "Stash did not apply cleanly"

// StashService is the repository surface the model needs. *git.Repo implements it.
type StashService interface {
	ListStashes(ctx context.Context) ([]git.StashEntry, error)
	DiffPatch(ctx context.Context, id plumbing.Hash) (string, error)
	Drop(ctx context.Context, entry git.StashEntry) git.Outcome
	Apply(ctx context.Context, entry git.StashEntry) git.Outcome
	Pop(ctx context.Context, entry git.StashEntry) git.Outcome
	WorkingTreeStatus(ctx context.Context) (git.WorkingTree, error)
}

// Model is the main application model.
type Model struct {
	// Configuration
	ctx     context.Context
	config  *config.Config
	svc     StashService
	checker exec.Checker
	watch   <-chan struct{}

	// Data
	entries    []git.StashEntry
	visible    []git.StashEntry
	cursor     int
	listOffset int
	repoName   string
	status     *git.WorkingTree

	// Selection
	previewSeq uint64
	check      CheckState
	clean      bool
	preview    viewport.Model

	// State
	state  State
	busy   bool
	errMsg string

	// Filter
	filterInput textinput.Model

	// UI
	width    int
	height   int
	keys     KeyMap
	showHelp bool
	spinner  spinner.Model

	// Exit behavior
	shouldQuit bool
	exitCode   int
	fatalErr   string
}

// New creates a new Model over entries, with index 0 selected.
// The preview for the selection is requested by Init.
func New(ctx context.Context, cfg *config.Config, svc StashService, checker exec.Checker, entries []git.StashEntry) Model {
	filterInput := textinput.New()
	filterInput.Placeholder = "filter..."
	filterInput.Prompt = "/ "
	filterInput.CharLimit = 50

	m := Model{
		ctx:         ctx,
		config:      cfg,
		svc:         svc,
		checker:     checker,
		entries:     entries,
		keys:        KeyMapFromConfig(&cfg.Keys),
		showHelp:    cfg.UI.ShowHelp,
		filterInput: filterInput,
		preview:     viewport.New(0, 0),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(ui.PendingStyle)),
		state:       StateList,
		previewSeq:  1,
		check:       CheckPending,
	}
	m.applyFilter()
	m.resize()
	return m
}

// WithRepoName sets the repository name shown in the header.
func (m Model) WithRepoName(name string) Model {
	m.repoName = name
	return m
}

// WithStashWatch reloads the list whenever ch fires.
func (m Model) WithStashWatch(ch <-chan struct{}) Model {
	m.watch = ch
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, loadStatus(m.ctx, m.svc)}
	if entry := m.selected(); entry != nil {
		cmds = append(cmds, loadPreview(m.ctx, m.svc, m.previewSeq, *entry))
	}
	if m.watch != nil {
		cmds = append(cmds, waitForStashChange(m.watch))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		// ctrl+c quits from every state
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		if m.state != StateList {
			return m, nil
		}
		return m.handleMouse(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case PreviewLoadedMsg:
		if msg.Seq != m.previewSeq {
			return m, nil
		}
		if msg.Err != nil {
			debug.Log("preview for stash@{%d} failed: %v", msg.Index, msg.Err)
			m.check = CheckDirty
			m.clean = false
			m.preview.SetContent(ui.ErrorStyle.Render(fmt.Sprintf("Could not read stash: %v", msg.Err)))
			return m, nil
		}
		if msg.Patch == "" {
			m.check = CheckClean
			m.clean = true
			m.preview.SetContent(ui.EmptyStashText)
			return m, nil
		}
		m.preview.SetContent(ui.ColorizePatch(msg.Patch))
		return m, checkPatch(m.ctx, m.checker, msg.Seq, msg.Patch)

	case PatchCheckedMsg:
		if msg.Seq != m.previewSeq {
			return m, nil
		}
		if msg.Err != nil {
			debug.Log("dry run failed: %v", msg.Err)
			m.check = CheckDirty
			m.clean = false
			return m, nil
		}
		m.check = CheckClean
		m.clean = true
		return m, nil

	case StashDroppedMsg:
		m.busy = false
		switch msg.Outcome.Kind {
		case git.OutcomeSuccess:
			m.removeEntry(msg.Entry)
			cmd := m.selectStash(m.cursor)
			return m, cmd
		case git.OutcomeNotFound:
			// The stack moved under us; pick up its current shape.
			m.showError("Problem dropping stash (not found)")
			return m, loadStashes(m.ctx, m.svc)
		default:
			if msg.Outcome.Code < 0 {
				m.showError("Unknown problem dropping stash\n\n" + msg.Outcome.Message)
			} else {
				m.showError(fmt.Sprintf("Unknown problem dropping stash (error: %d)\n\n%s", msg.Outcome.Code, msg.Outcome.Message))
			}
		}
		return m, nil

	case StashAppliedMsg:
		m.busy = false
		if !msg.WasClean {
			debug.Log("apply with conflicts finished (%s), exiting", msg.Outcome)
			return m.quit()
		}
		if !msg.Outcome.OK() {
			m.showError(fmt.Sprintf("Problem applying stash (%s)", msg.Outcome))
		}
		cmds := []tea.Cmd{m.selectStash(m.cursor), loadStatus(m.ctx, m.svc)}
		if msg.Outcome.Kind == git.OutcomeNotFound {
			cmds = append(cmds, loadStashes(m.ctx, m.svc))
		}
		return m, tea.Batch(cmds...)

	case StashPoppedMsg:
		m.busy = false
		if !msg.Outcome.OK() {
			debug.Log("pop of %s failed: %s", msg.Entry.Ref(), msg.Outcome)
			m.fatalErr = FatalPopMessage
			m.exitCode = 1
			return m.quit()
		}
		m.removeEntry(msg.Entry)
		cmd := tea.Batch(m.selectStash(m.cursor), loadStatus(m.ctx, m.svc))
		return m, cmd

	case StashRefChangedMsg:
		return m, tea.Batch(
			loadStashes(m.ctx, m.svc),
			loadStatus(m.ctx, m.svc),
			waitForStashChange(m.watch),
		)

	case StashesLoadedMsg:
		if msg.Err != nil {
			debug.Log("reloading stashes failed: %v", msg.Err)
			return m, nil
		}
		cmd := m.replaceEntries(msg.Entries)
		return m, cmd

	case StatusLoadedMsg:
		if msg.Err != nil {
			debug.Log("working tree status failed: %v", msg.Err)
			m.status = nil
			return m, nil
		}
		status := msg.Status
		m.status = &status
		return m, nil
	}

	if m.state == StateFilter {
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKeyPress handles key presses based on current state.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case StateList:
		return m.handleListKeys(msg)
	case StateFilter:
		return m.handleFilterKeys(msg)
	case StateError:
		return m.handleErrorKeys(msg)
	}
	return m, nil
}

// handleListKeys handles key presses in the list view.
func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Up):
		cmd := m.moveCursor(m.cursor - 1)
		return m, cmd
	case key.Matches(msg, m.keys.Down):
		cmd := m.moveCursor(m.cursor + 1)
		return m, cmd
	case key.Matches(msg, m.keys.Home):
		cmd := m.moveCursor(0)
		return m, cmd
	case key.Matches(msg, m.keys.End):
		cmd := m.moveCursor(len(m.visible) - 1)
		return m, cmd
	case key.Matches(msg, m.keys.ScrollUp):
		m.preview.ScrollUp(m.scrollLines())
	case key.Matches(msg, m.keys.ScrollDown):
		m.preview.ScrollDown(m.scrollLines())
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.resize()
	case key.Matches(msg, m.keys.Filter):
		m.state = StateFilter
		m.resize()
		cmd := m.filterInput.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Drop):
		entry := m.selected()
		if entry == nil || m.busy {
			return m, nil
		}
		m.busy = true
		return m, dropStash(m.ctx, m.svc, *entry)
	case key.Matches(msg, m.keys.Apply):
		entry := m.selected()
		if entry == nil || m.busy {
			return m, nil
		}
		m.busy = true
		return m, applyStash(m.ctx, m.svc, *entry, m.clean)
	case key.Matches(msg, m.keys.Pop):
		entry := m.selected()
		if entry == nil || m.busy || !m.clean {
			return m, nil
		}
		m.busy = true
		return m, popStash(m.ctx, m.svc, *entry)
	}
	return m, nil
}

// handleFilterKeys handles key presses in filter mode.
func (m Model) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.state = StateList
		m.filterInput.Reset()
		m.filterInput.Blur()
		m.resize()
		cmd := m.refilter()
		return m, cmd
	case tea.KeyEnter:
		m.state = StateList
		m.filterInput.Blur()
		m.resize()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	refilterCmd := m.refilter()
	return m, tea.Batch(cmd, refilterCmd)
}

// handleErrorKeys dismisses the error dialog; other keys are ignored.
func (m Model) handleErrorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Dismiss) {
		m.state = StateList
		m.errMsg = ""
	}
	return m, nil
}

// handleMouse selects rows on click and routes the wheel by region.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.config.UI.Mouse {
		return m, nil
	}

	top := ui.ListTop()
	inList := msg.Y >= top && msg.Y < ui.PreviewTop(m.listHeight())

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if inList {
			cmd := m.moveCursor(m.cursor - 1)
			return m, cmd
		}
		m.preview.ScrollUp(m.scrollLines())
	case tea.MouseButtonWheelDown:
		if inList {
			cmd := m.moveCursor(m.cursor + 1)
			return m, cmd
		}
		m.preview.ScrollDown(m.scrollLines())
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress || !inList {
			return m, nil
		}
		row := m.listOffset + msg.Y - top
		if row < len(m.visible) {
			cmd := m.moveCursor(row)
			return m, cmd
		}
	}
	return m, nil
}

// moveCursor selects index i if it is in range and not already selected.
func (m *Model) moveCursor(i int) tea.Cmd {
	if i < 0 || i >= len(m.visible) || i == m.cursor {
		return nil
	}
	return m.selectStash(i)
}

// selectStash points the cursor at i and starts loading its preview.
// Results from earlier selections are ignored once previewSeq moves on.
func (m *Model) selectStash(i int) tea.Cmd {
	m.previewSeq++
	m.clean = false
	m.check = CheckPending
	m.preview.SetContent("")
	m.preview.GotoTop()

	if len(m.visible) == 0 {
		m.cursor = 0
		m.listOffset = 0
		return nil
	}

	m.cursor = min(max(i, 0), len(m.visible)-1)
	m.scrollList()

	entry := m.visible[m.cursor]
	debug.Log("select %s", entry.Ref())
	return loadPreview(m.ctx, m.svc, m.previewSeq, entry)
}

// scrollList keeps the cursor inside the list window.
func (m *Model) scrollList() {
	height := m.listHeight()
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+height {
		m.listOffset = m.cursor - height + 1
	}
	if maxOffset := max(len(m.visible)-height, 0); m.listOffset > maxOffset {
		m.listOffset = maxOffset
	}
}

// removeEntry splices target out of the list and renumbers what is left.
func (m *Model) removeEntry(target git.StashEntry) {
	for i, e := range m.entries {
		if sameEntry(e, target) {
			m.entries = append(m.entries[:i:i], m.entries[i+1:]...)
			break
		}
	}
	m.entries = git.Renumber(m.entries)
	m.applyFilter()
}

// replaceEntries swaps in a reloaded list. The selection is reloaded only
// when the stash under the cursor is no longer the same one.
func (m *Model) replaceEntries(entries []git.StashEntry) tea.Cmd {
	prev := m.selected()
	var prevEntry git.StashEntry
	if prev != nil {
		prevEntry = *prev
	}

	m.entries = entries
	m.applyFilter()

	if cur := m.selected(); prev == nil || cur == nil || !sameEntry(*cur, prevEntry) {
		return m.selectStash(m.cursor)
	}
	m.scrollList()
	return nil
}

// refilter recomputes the visible list and reselects if the cursor now
// points at a different stash.
func (m *Model) refilter() tea.Cmd {
	prev := m.selected()
	var prevEntry git.StashEntry
	if prev != nil {
		prevEntry = *prev
	}

	m.applyFilter()

	cur := m.selected()
	if prev != nil && cur != nil && sameEntry(*cur, prevEntry) {
		m.scrollList()
		return nil
	}
	return m.selectStash(m.cursor)
}

// stashSource implements fuzzy.Source for stash message matching.
type stashSource []git.StashEntry

func (s stashSource) String(i int) string {
	return s[i].Message
}

func (s stashSource) Len() int {
	return len(s)
}

// applyFilter filters stashes by the filter input, keeping stack order.
func (m *Model) applyFilter() {
	filter := m.filterInput.Value()
	if filter == "" {
		m.visible = m.entries
	} else {
		matched := make(map[int]bool)
		for _, match := range fuzzy.FindFrom(filter, stashSource(m.entries)) {
			matched[match.Index] = true
		}

		m.visible = nil
		for i, e := range m.entries {
			if matched[i] {
				m.visible = append(m.visible, e)
			}
		}
	}

	// Ensure cursor is in bounds
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// sameEntry compares stashes by commit ID, falling back to the index when
// an ID is unknown.
func sameEntry(a, b git.StashEntry) bool {
	if !a.ID.IsZero() && !b.ID.IsZero() {
		return a.ID == b.ID
	}
	return a.Index == b.Index && a.Message == b.Message
}

func (m *Model) selected() *git.StashEntry {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return nil
	}
	return &m.visible[m.cursor]
}

func (m *Model) showError(msg string) {
	debug.Log("error dialog: %s", msg)
	m.state = StateError
	m.errMsg = msg
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.shouldQuit = true
	return m, tea.Quit
}

// resize fits the preview viewport to the space the layout leaves.
func (m *Model) resize() {
	w, h := ui.PreviewSize(m.width, m.height, m.listHeight(), m.showHelp, m.showFilter())
	m.preview.Width = w
	m.preview.Height = h
}

func (m *Model) showFilter() bool {
	return m.state == StateFilter || m.filterInput.Value() != ""
}

func (m *Model) listHeight() int {
	if m.config.UI.ListHeight < 1 {
		return config.DefaultConfig().UI.ListHeight
	}
	return m.config.UI.ListHeight
}

func (m *Model) scrollLines() int {
	if m.config.UI.ScrollLines < 1 {
		return config.DefaultConfig().UI.ScrollLines
	}
	return m.config.UI.ScrollLines
}

// View renders the UI.
func (m Model) View() string {
	if m.shouldQuit {
		return ""
	}
	return ui.Render(ui.RenderParams{
		State:        int(m.state),
		Entries:      m.visible,
		Total:        len(m.entries),
		Cursor:       m.cursor,
		ListOffset:   m.listOffset,
		ListHeight:   m.listHeight(),
		Width:        m.width,
		Height:       m.height,
		RepoName:     m.repoName,
		WorkingTree:  m.status,
		Preview:      m.preview.View(),
		Check:        int(m.check),
		Clean:        m.clean,
		Busy:         m.busy,
		SpinnerFrame: m.spinner.View(),
		ShowHelp:     m.showHelp,
		FilterInput:  m.filterInput.View(),
		FilterValue:  m.filterInput.Value(),
		ErrMsg:       m.errMsg,
	})
}

// ShouldQuit returns true if the app should quit.
func (m Model) ShouldQuit() bool {
	return m.shouldQuit
}

// ExitCode returns the process exit code requested by the model.
func (m Model) ExitCode() int {
	return m.exitCode
}

// FatalError returns the message to print after a fatal exit, if any.
func (m Model) FatalError() string {
	return m.fatalErr
}

// Commands

func loadPreview(ctx context.Context, svc StashService, seq uint64, entry git.StashEntry) tea.Cmd {
	return func() tea.Msg {
		patch, err := svc.DiffPatch(ctx, entry.ID)
		return PreviewLoadedMsg{Seq: seq, Index: entry.Index, Patch: patch, Err: err}
	}
}

func checkPatch(ctx context.Context, checker exec.Checker, seq uint64, patch string) tea.Cmd {
	return func() tea.Msg {
		return PatchCheckedMsg{Seq: seq, Err: checker.Check(ctx, patch)}
	}
}

func dropStash(ctx context.Context, svc StashService, entry git.StashEntry) tea.Cmd {
	return func() tea.Msg {
		return StashDroppedMsg{Entry: entry, Outcome: svc.Drop(ctx, entry)}
	}
}

func applyStash(ctx context.Context, svc StashService, entry git.StashEntry, wasClean bool) tea.Cmd {
	return func() tea.Msg {
		return StashAppliedMsg{Entry: entry, WasClean: wasClean, Outcome: svc.Apply(ctx, entry)}
	}
}

func popStash(ctx context.Context, svc StashService, entry git.StashEntry) tea.Cmd {
	return func() tea.Msg {
		return StashPoppedMsg{Entry: entry, Outcome: svc.Pop(ctx, entry)}
	}
}

func loadStashes(ctx context.Context, svc StashService) tea.Cmd {
	return func() tea.Msg {
		entries, err := svc.ListStashes(ctx)
		return StashesLoadedMsg{Entries: entries, Err: err}
	}
}

func loadStatus(ctx context.Context, svc StashService) tea.Cmd {
	return func() tea.Msg {
		status, err := svc.WorkingTreeStatus(ctx)
		return StatusLoadedMsg{Status: status, Err: err}
	}
}

func waitForStashChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return StashRefChangedMsg{}
	}
}
