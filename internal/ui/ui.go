package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/setlist/internal/catalog"
	"github.com/desertthunder/setlist/internal/formatter"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/playlist"
	"github.com/desertthunder/setlist/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistView ViewState = iota
	SearchView
	ConfirmView
	HistoryView
)

// resultRows is how many search results are shown at once.
const resultRows = 10

// ModelOpts holds the dependencies of a [Model].
type ModelOpts struct {
	Session  *tasks.Session
	Catalog  catalog.Source
	Extra    []models.Song                // custom songs merged into the catalog
	Progress <-chan tasks.ProgressUpdate // the channel given to the session, if any
	Copy     func(string) error          // defaults to the system clipboard
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	session  *tasks.Session
	source   catalog.Source
	extra    []models.Song
	progress <-chan tasks.ProgressUpdate
	copy     func(string) error

	width  int
	height int
	cursor int

	reorder      *playlist.Reorder
	keyboardDrag bool

	input        textinput.Model
	fuzzy        bool
	loaded       bool
	results      catalog.Result
	resultCursor int

	pending     *tasks.PendingAdd
	historyList list.Model

	status    string
	statusErr bool
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}

	input := textinput.New()
	input.Placeholder = "number or title"
	input.Prompt = "Search: "
	input.CharLimit = 80

	history := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	history.Title = "Saved lists"
	history.SetFilteringEnabled(false)
	history.SetShowHelp(false)
	history.KeyMap.Quit.SetEnabled(false)

	m := &Model{
		ctx:         ctx,
		view:        PlaylistView,
		session:     opts.Session,
		source:      opts.Catalog,
		extra:       opts.Extra,
		progress:    opts.Progress,
		copy:        opts.Copy,
		input:       input,
		results:     catalog.Result{Songs: []models.Song{}},
		historyList: history,
		help:        help.New(),
		keys:        newKeyMap(),
	}
	m.reorder = opts.Session.Reorder(m.layout())
	return m
}

// Init starts loading the catalog and listening for progress updates.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadCatalog(), m.waitForProgress())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.historyList.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.view {
		case PlaylistView:
			return m.handlePlaylistKeys(msg)
		case SearchView:
			return m.handleSearchKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case HistoryView:
			return m.handleHistoryKeys(msg)
		}

	case tea.MouseMsg:
		if m.view == PlaylistView {
			return m.handleMouse(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	if m.view == HistoryView {
		var cmd tea.Cmd
		m.historyList, cmd = m.historyList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgCatalogLoaded:
		data := msg.data.(catalogLoaded)
		if data.err != nil {
			m.setError(data.err)
			return m, nil
		}
		m.loaded = true
		m.setStatus(fmt.Sprintf("%d songs in the catalog", data.count))
		m.refreshResults()

	case MsgPrepared:
		data := msg.data.(prepared)
		if data.err != nil {
			m.setError(data.err)
			return m, nil
		}
		if data.pending.Conflict != nil {
			m.pending = data.pending
			m.view = ConfirmView
			return m, nil
		}
		m.commit(data.pending, nil)

	case MsgSaved:
		data := msg.data.(saved)
		if data.err != nil {
			m.setError(data.err)
			return m, nil
		}
		m.setStatus("saved as " + data.id)
		m.persist()

	case MsgHistoryFetched:
		data := msg.data.(historyFetched)
		if data.err != nil {
			m.setError(data.err)
			return m, nil
		}
		m.view = HistoryView
		cmd := m.historyList.SetItems(historyItems(data.entries))
		if len(data.entries) == 0 {
			m.setStatus("no saved lists for this group")
		}
		return m, cmd

	case MsgEntryLoaded:
		data := msg.data.(entryLoaded)
		if data.err != nil {
			m.setError(data.err)
			return m, nil
		}
		m.reorder.Cancel()
		m.keyboardDrag = false
		m.view = PlaylistView
		m.cursor = 0
		m.setStatus("loaded list of " + data.entry.Date.Format("02/01/2006"))
		m.persist()

	case MsgEntryDeleted:
		data := msg.data.(entryDeleted)
		if data.err != nil {
			m.setError(data.err)
			return m, nil
		}
		m.setStatus("deleted " + data.id)
		return m, m.fetchHistory()

	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		if update.Message != "" && !m.statusErr {
			m.status = update.Message
		}
		return m, m.waitForProgress()
	}

	return m, nil
}

func (m *Model) handlePlaylistKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.reorder.State() == playlist.Dragging {
		return m.handleDragKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.search):
		m.view = SearchView
		m.input.SetValue("")
		m.refreshResults()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.remove):
		if song, err := m.session.Remove(m.cursor); err != nil {
			m.setError(err)
		} else {
			m.moveCursor(0)
			m.setStatus("removed " + song.Display())
			m.persist()
		}
	case key.Matches(msg, m.keys.grab):
		m.startDrag(m.cursor, true)
	case key.Matches(msg, m.keys.save):
		m.setStatus("saving...")
		return m, m.save()
	case key.Matches(msg, m.keys.history):
		return m, m.fetchHistory()
	case key.Matches(msg, m.keys.clear):
		m.session.Clear()
		m.cursor = 0
		m.setStatus("list cleared")
		m.persist()
	case key.Matches(msg, m.keys.copy):
		m.copyText()
	case key.Matches(msg, m.keys.nextWeek):
		m.shiftDate(7)
	case key.Matches(msg, m.keys.prevWeek):
		m.shiftDate(-7)
	}
	return m, nil
}

func (m *Model) handleDragKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.reorder.Cancel()
		m.keyboardDrag = false
		m.setStatus("move cancelled")
	case key.Matches(msg, m.keys.enter), key.Matches(msg, m.keys.grab):
		m.finishDrag()
	case key.Matches(msg, m.keys.up):
		m.hoverBy(-1)
	case key.Matches(msg, m.keys.down):
		m.hoverBy(1)
	}
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	pos := float64(msg.Y) + 0.5

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || m.reorder.State() == playlist.Dragging {
			return m, nil
		}
		if i, ok := m.layout().IndexAt(pos); ok {
			m.cursor = i
			m.startDrag(i, false)
		}
	case tea.MouseActionMotion:
		if !m.keyboardDrag {
			if i, ok := m.reorder.Hover(pos); ok {
				m.cursor = i
			}
		}
	case tea.MouseActionRelease:
		if !m.keyboardDrag {
			m.finishDrag()
		}
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.view = PlaylistView
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		if m.resultCursor < len(m.results.Songs) {
			return m, m.prepare(m.results.Songs[m.resultCursor])
		}
		return m, nil
	case tea.KeyUp, tea.KeyCtrlP:
		m.resultCursor = max(0, m.resultCursor-1)
		return m, nil
	case tea.KeyDown, tea.KeyCtrlN:
		m.resultCursor = min(max(0, len(m.results.Songs)-1), m.resultCursor+1)
		return m, nil
	case tea.KeyTab:
		m.fuzzy = !m.fuzzy
		m.refreshResults()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.refreshResults()
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.commit(m.pending, func(models.Song, playlist.Conflict) bool { return true })
	case key.Matches(msg, m.keys.no):
		m.setStatus("not added: " + m.pending.Song.Display())
		m.pending = nil
		m.view = SearchView
	}
	return m, nil
}

func (m *Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.view = PlaylistView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.historyList.SelectedItem().(historyItem); ok {
			return m, m.loadEntry(item.entry.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if item, ok := m.historyList.SelectedItem().(historyItem); ok {
			return m, m.deleteEntry(item.entry.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.historyList, cmd = m.historyList.Update(msg)
	return m, cmd
}

// header is the text above the list rows. Its height positions the rows for mouse hit testing.
func (m *Model) header() string {
	snap := m.session.Snapshot()

	group := snap.GroupID
	if group == "" {
		group = "no group"
	}
	info := fmt.Sprintf("%s • %s • %d songs", group, snap.Date.Format("Mon 02/01/2006"), len(snap.Items))
	if snap.Dirty {
		info += styles.warn.Render(" • unsaved")
	}
	return styles.title.Render("Louvores") + "\n" + info + "\n"
}

// layout maps terminal rows to list indices: one row per song, directly under the header.
func (m *Model) layout() playlist.Layout {
	return playlist.UniformLayout(m.session.Count(), float64(lipgloss.Height(m.header())), 1)
}

func (m *Model) rowCenter(i int) float64 {
	return float64(lipgloss.Height(m.header())+i) + 0.5
}

func (m *Model) startDrag(source int, keyboard bool) {
	m.reorder.SetLocator(m.layout())
	if err := m.reorder.Start(source); err != nil {
		if !errors.Is(err, playlist.ErrIndexOutOfRange) {
			m.setError(err)
		}
		return
	}
	m.keyboardDrag = keyboard
	m.reorder.Hover(m.rowCenter(source))
	if keyboard {
		m.setStatus("moving: ↑/↓ to choose, enter to drop, esc to cancel")
	}
}

func (m *Model) hoverBy(delta int) {
	current, ok := m.reorder.HoverIndex()
	if !ok {
		current = m.reorder.Source()
	}
	next := min(max(0, current+delta), m.session.Count()-1)
	if i, ok := m.reorder.Hover(m.rowCenter(next)); ok {
		m.cursor = i
	}
}

func (m *Model) finishDrag() {
	target, hasTarget := m.reorder.HoverIndex()
	m.keyboardDrag = false

	moved, err := m.reorder.End()
	if err != nil {
		m.setError(err)
		return
	}
	if moved && hasTarget {
		m.cursor = target
		m.setStatus("moved to position " + fmt.Sprint(target+1))
		m.persist()
	}
}

func (m *Model) moveCursor(delta int) {
	m.cursor = min(max(0, m.cursor+delta), max(0, m.session.Count()-1))
}

func (m *Model) refreshResults() {
	m.resultCursor = 0
	if !m.loaded {
		m.results = catalog.Result{Songs: []models.Song{}}
		return
	}

	search := m.session.Search
	if m.fuzzy {
		search = m.session.FuzzySearch
	}
	res, err := search(m.input.Value(), resultRows)
	if err != nil {
		m.setError(err)
		return
	}
	m.results = res
}

func (m *Model) commit(p *tasks.PendingAdd, confirm playlist.ConfirmFunc) {
	m.pending = nil
	m.view = SearchView

	if err := m.session.Commit(p, confirm); err != nil {
		m.setError(err)
		return
	}
	m.cursor = m.session.Count() - 1
	if p.RecencyErr != nil {
		m.setError(fmt.Errorf("added %s without a recency check: %w", p.Song.Display(), p.RecencyErr))
	} else {
		m.setStatus("added " + p.Song.Display())
	}
	m.persist()
}

func (m *Model) shiftDate(days int) {
	m.session.SetDate(m.session.Date().AddDate(0, 0, days))
	m.setStatus("service date " + m.session.Date().Format("02/01/2006"))
	m.persist()
}

func (m *Model) copyText() {
	data, err := formatter.ExportToText(m.session.Snapshot())
	if err != nil {
		m.setError(err)
		return
	}
	if err := m.copy(string(data)); err != nil {
		m.setError(fmt.Errorf("copy failed: %w", err))
		return
	}
	m.setStatus("list copied to the clipboard")
}

func (m *Model) persist() {
	if err := m.session.Persist(m.ctx); err != nil {
		m.setError(err)
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

func (m *Model) loadCatalog() tea.Cmd {
	if m.source == nil {
		return nil
	}
	return func() tea.Msg {
		n, err := m.session.LoadCatalog(m.ctx, m.source, m.extra...)
		return catalogLoadedMsg(n, err)
	}
}

func (m *Model) prepare(song models.Song) tea.Cmd {
	return func() tea.Msg {
		pending, err := m.session.Prepare(m.ctx, song)
		return preparedMsg(pending, err)
	}
}

func (m *Model) save() tea.Cmd {
	return func() tea.Msg {
		id, err := m.session.Save(m.ctx)
		return savedMsg(id, err)
	}
}

func (m *Model) fetchHistory() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.session.History(m.ctx)
		return historyFetchedMsg(entries, err)
	}
}

func (m *Model) loadEntry(id string) tea.Cmd {
	return func() tea.Msg {
		entry, err := m.session.LoadEntry(m.ctx, id)
		return entryLoadedMsg(entry, err)
	}
}

func (m *Model) deleteEntry(id string) tea.Cmd {
	return func() tea.Msg {
		return entryDeletedMsg(id, m.session.DeleteEntry(m.ctx, id))
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	if m.progress == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case update, ok := <-m.progress:
			if !ok {
				return nil
			}
			return progressUpdateMsg(update)
		case <-m.ctx.Done():
			return nil
		}
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	var helpKeys []key.Binding

	switch m.view {
	case PlaylistView:
		body = m.renderPlaylist()
		if m.reorder.State() == playlist.Dragging {
			helpKeys = []key.Binding{m.keys.up, m.keys.down, m.keys.enter, m.keys.back}
		} else {
			helpKeys = []key.Binding{m.keys.search, m.keys.grab, m.keys.remove, m.keys.save, m.keys.history, m.keys.copy, m.keys.quit}
		}
	case SearchView:
		body = m.renderSearch()
		helpKeys = []key.Binding{m.keys.enter, m.keys.fuzzy, m.keys.back}
	case ConfirmView:
		body = m.renderConfirm()
		helpKeys = []key.Binding{m.keys.yes, m.keys.no}
	case HistoryView:
		body = m.historyList.View()
		helpKeys = []key.Binding{m.keys.enter, m.keys.remove, m.keys.back}
	}

	status := m.status
	if m.statusErr {
		status = styles.err.Render(status)
	} else if status != "" {
		status = styles.help.Render(status)
	}

	return fmt.Sprintf("%s\n\n%s\n%s", body, status, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderPlaylist() string {
	items := m.session.Snapshot().Items

	var rows []string
	if len(items) == 0 {
		rows = append(rows, styles.help.Render("(empty list, press / to add a song)"))
	}

	dragging := m.reorder.State() == playlist.Dragging
	hover, hasHover := m.reorder.HoverIndex()

	for i, song := range items {
		row := fmt.Sprintf("%2d. %s (%s)", i+1, song.Display(), song.Origin.Label())
		switch {
		case dragging && i == m.reorder.Source():
			row = "  " + styles.drag.Render(row)
		case dragging && hasHover && i == hover:
			row = "▸ " + styles.selected.Render(row)
		case !dragging && i == m.cursor:
			row = "> " + styles.selected.Render(row)
		default:
			row = "  " + row
		}
		rows = append(rows, row)
	}

	return m.header() + "\n" + strings.Join(rows, "\n")
}

func (m *Model) renderSearch() string {
	mode := "substring"
	if m.fuzzy {
		mode = "fuzzy"
	}
	lines := []string{styles.title.Render("Add a song") + styles.help.Render(" ("+mode+")"), m.input.View(), ""}

	switch {
	case !m.loaded:
		lines = append(lines, styles.help.Render("loading catalog..."))
	case len(m.results.Songs) == 0 && strings.TrimSpace(m.input.Value()) != "":
		lines = append(lines, styles.help.Render("no matches"))
	}

	for i, song := range m.results.Songs {
		row := fmt.Sprintf("%s (%s)", song.Display(), song.Origin.Label())
		if i == m.resultCursor {
			row = "> " + styles.selected.Render(row)
		} else {
			row = "  " + row
		}
		lines = append(lines, row)
	}
	if m.results.Truncated() {
		lines = append(lines, styles.help.Render(fmt.Sprintf("  … %d more", m.results.Total-len(m.results.Songs))))
	}

	return strings.Join(lines, "\n")
}

func (m *Model) renderConfirm() string {
	if m.pending == nil || m.pending.Conflict == nil {
		return ""
	}
	title := styles.warn.Render("Recently sung")
	info := fmt.Sprintf("\n%s was %s.\nAdd it anyway?", m.pending.Song.Display(), m.pending.Conflict.Message())
	return title + "\n" + info
}
