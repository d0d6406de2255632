package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/plzip/internal/formatter"
	"github.com/desertthunder/plzip/internal/shared"
	"github.com/desertthunder/plzip/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LinkView ViewState = iota
	TrackListView
	CandidateView
)

const progressBuffer = 16

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	session    *tasks.Session
	exportDir  string
	logger     *log.Logger
	view       ViewState
	width      int
	height     int
	input      textinput.Model
	trackList  list.Model
	candidates list.Model
	picking    string
	spinner    spinner.Model
	status     string
	saved      *tasks.DownloadResult
	err        error
	help       help.Model
	keys       keyMap
}

// NewModel creates a new TUI model over session. Exports are written to exportDir.
func NewModel(ctx context.Context, session *tasks.Session, exportDir string, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.Default()
	}

	input := textinput.New()
	input.Placeholder = "https://open.spotify.com/playlist/..."
	input.Prompt = "Link: "
	input.CharLimit = 512
	input.Width = 60
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	tracks := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	tracks.DisableQuitKeybindings()
	candidates := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	candidates.DisableQuitKeybindings()
	candidates.SetFilteringEnabled(false)

	return &Model{
		ctx:        ctx,
		session:    session,
		exportDir:  exportDir,
		logger:     logger,
		view:       LinkView,
		input:      input,
		trackList:  tracks,
		candidates: candidates,
		spinner:    sp,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init starts the cursor blink of the link input.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		m.candidates.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.view {
		case LinkView:
			return m.handleLinkKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case CandidateView:
			return m.handleCandidateKeys(msg)
		}

	case spinner.TickMsg:
		if !m.session.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateActive(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		data := msg.data.(progressData)
		if data.update.Phase != tasks.Done {
			m.status = data.update.Message
		}
		return m, data.next

	case MsgSearchDone:
		data := msg.data.(searchData)
		if errors.Is(data.err, shared.ErrSuperseded) {
			return m, nil
		}
		if data.err != nil {
			m.err = data.err
			m.status = ""
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("Found %s (%d tracks)", data.snap.Name(), data.snap.Len())
		m.refreshTracks()
		m.view = TrackListView
		m.input.Blur()
		return m, nil

	case MsgDownloadDone:
		data := msg.data.(downloadData)
		if data.err != nil {
			m.err = data.err
			m.status = ""
			return m, nil
		}
		m.err = nil
		m.saved = data.result
		m.status = fmt.Sprintf("Saved %s (%d bytes)", data.result.Path, data.result.Size)
		if data.result.MissingSources > 0 {
			m.status += fmt.Sprintf(", %d tracks had no source", data.result.MissingSources)
		}
		return m, nil

	case MsgExportDone:
		data := msg.data.(exportData)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.status = "Exported " + data.path
		return m, nil
	}
	return m, nil
}

func (m *Model) handleLinkKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.enter):
		link := strings.TrimSpace(m.input.Value())
		if link == "" {
			return m, nil
		}
		m.err = nil
		return m, m.startSearch(link)
	case key.Matches(msg, m.keys.back):
		if m.session.Current() != nil {
			m.view = TrackListView
			m.input.Blur()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.trackList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.trackList, cmd = m.trackList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.trackList.SelectedItem().(trackItem); ok {
			m.openCandidates(item)
		}
		return m, nil
	case key.Matches(msg, m.keys.search):
		m.view = LinkView
		m.input.SetValue("")
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.remove):
		if item, ok := m.trackList.SelectedItem().(trackItem); ok {
			m.removeTrack(item.match.Source.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.download):
		m.err = nil
		return m, m.startDownload()
	case key.Matches(msg, m.keys.export):
		return m, m.export()
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleCandidateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = TrackListView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.candidates.SelectedItem().(candidateItem); ok {
			if _, err := m.session.Select(m.picking, item.index); err != nil {
				m.err = err
			} else {
				m.err = nil
			}
			m.refreshTracks()
		}
		m.view = TrackListView
		return m, nil
	}

	var cmd tea.Cmd
	m.candidates, cmd = m.candidates.Update(msg)
	return m, cmd
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case LinkView:
		m.input, cmd = m.input.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	case CandidateView:
		m.candidates, cmd = m.candidates.Update(msg)
	}
	return m, cmd
}

// refreshTracks rebuilds the track list from the current snapshot, keeping the cursor in range.
func (m *Model) refreshTracks() {
	snap := m.session.Current()
	if snap == nil {
		m.trackList.SetItems(nil)
		return
	}

	result := snap.Result()
	items := make([]list.Item, 0, len(result.Matches))
	for _, match := range result.Matches {
		sel, _ := snap.Selected(match.Source.ID)
		items = append(items, trackItem{match: match, selected: sel})
	}

	cursor := m.trackList.Index()
	m.trackList.SetItems(items)
	m.trackList.Title = fmt.Sprintf("%s (%d tracks)", snap.Name(), snap.Len())
	if n := len(items); n > 0 && cursor >= n {
		m.trackList.Select(n - 1)
	}
}

func (m *Model) openCandidates(item trackItem) {
	snap := m.session.Current()
	if snap == nil {
		return
	}
	match, ok := snap.Result().Match(item.match.Source.ID)
	if !ok {
		return
	}
	sel, _ := snap.Selected(match.Source.ID)

	items := make([]list.Item, 0, len(match.Candidates))
	for i, c := range match.Candidates {
		items = append(items, candidateItem{index: i, candidate: c, selected: i == sel})
	}
	m.candidates.SetItems(items)
	m.candidates.Select(sel)
	m.candidates.Title = fmt.Sprintf("Candidates for %s", match.Source.Title)
	m.picking = match.Source.ID
	m.view = CandidateView
}

func (m *Model) removeTrack(trackID string) {
	snap, err := m.session.Remove(trackID)
	if err != nil {
		m.err = err
		return
	}
	m.refreshTracks()
	m.status = fmt.Sprintf("Removed track, %d left", snap.Len())
}

// startSearch runs a search in the background and listens for its progress.
func (m *Model) startSearch(link string) tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, progressBuffer)
	done := make(chan Msg, 1)

	go func() {
		snap, err := m.session.Search(m.ctx, link, progress)
		done <- searchDoneMsg(snap, err)
		close(progress)
	}()

	return tea.Batch(m.spinner.Tick, waitFor(progress, done))
}

// startDownload downloads the current snapshot in the background and listens for its progress.
func (m *Model) startDownload() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, progressBuffer)
	done := make(chan Msg, 1)

	go func() {
		result, err := m.session.Download(m.ctx, progress)
		done <- downloadDoneMsg(result, err)
		close(progress)
	}()

	return tea.Batch(m.spinner.Tick, waitFor(progress, done))
}

// waitFor delivers the next progress update, or the completion message once progress is closed.
func waitFor(progress <-chan tasks.ProgressUpdate, done <-chan Msg) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update, waitFor(progress, done))
	}
}

func (m *Model) export() tea.Cmd {
	snap := m.session.Current()
	if snap == nil {
		return nil
	}
	dir := m.exportDir
	return func() tea.Msg {
		name := fmt.Sprintf("%s_tracks.md", formatter.SafeFileName(snap.Name()))
		path, err := formatter.WriteExport("md", snap.Result(), snap.Selection(), filepath.Join(dir, name))
		return exportDoneMsg(path, err)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case LinkView:
		body = m.renderLink()
	case TrackListView:
		body = m.renderTrackList()
	case CandidateView:
		body = m.renderCandidates()
	}
	return fmt.Sprintf("%s\n\n%s", body, m.renderStatus())
}

func (m *Model) renderLink() string {
	title := styles.title.Render("plzip")
	helpKeys := []key.Binding{key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search"))}
	if m.session.Current() != nil {
		helpKeys = append(helpKeys, m.keys.back)
	}
	helpKeys = append(helpKeys, key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")))
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.input.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderTrackList() string {
	selectKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "candidates"))
	helpKeys := []key.Binding{selectKey, m.keys.remove, m.keys.download, m.keys.export, m.keys.search, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderCandidates() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.candidates.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderStatus() string {
	var lines []string
	if m.session.Busy() {
		lines = append(lines, fmt.Sprintf("%s %s", m.spinner.View(), m.status))
	} else if m.status != "" {
		lines = append(lines, styles.ok.Render(m.status))
	}
	if m.err != nil {
		lines = append(lines, styles.err.Render("Error: "+m.err.Error()))
	}
	return strings.Join(lines, "\n")
}
