package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matthewsinclair/arca-notionex/internal/sync"
)

// ReviewAction represents the outcome of a conflict review session.
type ReviewAction int

const (
	// ReviewActionNone means no action was taken (user quit).
	ReviewActionNone ReviewAction = iota
	// ReviewActionApply means the user chose resolutions to apply.
	ReviewActionApply
	// ReviewActionCancel means the user cancelled the review.
	ReviewActionCancel
)

// ReviewResult contains the outcome of the review interaction.
// Resolutions maps document paths to the strategy chosen for them;
// documents absent from the map stay conflicted.
type ReviewResult struct {
	Action      ReviewAction
	Resolutions map[string]sync.Strategy
}

// reviewPhase represents the current phase of the review.
type reviewPhase int

const (
	phaseList reviewPhase = iota
	phaseDetail
)

// reviewKeyMap defines the key bindings for conflict review.
type reviewKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Select   key.Binding
	Local    key.Binding
	Remote   key.Binding
	Newest   key.Binding
	Clear    key.Binding
	Confirm  key.Binding
	Back     key.Binding
	Help     key.Binding
	Quit     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

func defaultReviewKeyMap() reviewKeyMap {
	return reviewKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "view details"),
		),
		Local: key.NewBinding(
			key.WithKeys("l", "1"),
			key.WithHelp("l/1", "keep local"),
		),
		Remote: key.NewBinding(
			key.WithKeys("r", "2"),
			key.WithHelp("r/2", "take remote"),
		),
		Newest: key.NewBinding(
			key.WithKeys("n", "3"),
			key.WithHelp("n/3", "newest wins"),
		),
		Clear: key.NewBinding(
			key.WithKeys("x", "4"),
			key.WithHelp("x/4", "leave conflicted"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "apply resolutions"),
		),
		Back: key.NewBinding(
			key.WithKeys("b", "esc"),
			key.WithHelp("b/esc", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "page down"),
		),
	}
}

// ConflictListModel is the BubbleTea model for reviewing pull conflicts.
type ConflictListModel struct {
	entries     []sync.ConflictEntry
	resolutions map[string]sync.Strategy
	table       table.Model
	viewport    viewport.Model
	keys        reviewKeyMap
	result      ReviewResult
	phase       reviewPhase
	cursor      int
	showHelp    bool
	confirmMode bool
	width       int
	height      int
	quitting    bool
	ready       bool
}

// Styles for the conflict review TUI.
var reviewStyles = struct {
	Help       lipgloss.Style
	Status     lipgloss.Style
	Info       lipgloss.Style
	Confirm    lipgloss.Style
	Resolved   lipgloss.Style
	Unresolved lipgloss.Style
	Section    lipgloss.Style
}{
	Help:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Status:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1),
	Info:       lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Italic(true),
	Confirm:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true).Padding(0, 1),
	Resolved:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	Unresolved: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	Section:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(1, 0),
}

const reviewTimeLayout = "2006-01-02 15:04"

// NewConflictListModel creates a new conflict review model.
func NewConflictListModel(entries []sync.ConflictEntry) ConflictListModel {
	resolutions := make(map[string]sync.Strategy)

	columns := []table.Column{
		{Title: "Status", Width: 6},
		{Title: "Document", Width: 30},
		{Title: "State", Width: 14},
		{Title: "Local edited", Width: 16},
		{Title: "Remote edited", Width: 16},
		{Title: "Match", Width: 6},
		{Title: "Resolution", Width: 12},
	}

	rows := make([]table.Row, len(entries))
	for i, entry := range entries {
		rows[i] = buildReviewRow(entry, "")
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return ConflictListModel{
		entries:     entries,
		resolutions: resolutions,
		table:       t,
		keys:        defaultReviewKeyMap(),
		phase:       phaseList,
	}
}

func buildReviewRow(entry sync.ConflictEntry, resolution string) table.Row {
	status := "○"
	if resolution != "" {
		status = "✓"
	}

	resStr := "-"
	if resolution != "" {
		resStr = resolution
	}

	return table.Row{
		status,
		truncateText(entry.Path, 30),
		string(entry.Status),
		entry.LocalModifiedAt.Format(reviewTimeLayout),
		entry.RemoteEditedAt.Format(reviewTimeLayout),
		formatSimilarity(entry.Similarity),
		resStr,
	}
}

// formatSimilarity renders a content similarity score as a percentage.
// Entries without a score show a dash.
func formatSimilarity(score float64) string {
	if score <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", score*100)
}

// Init implements tea.Model.
func (m ConflictListModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ConflictListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.phase {
	case phaseList:
		return m.updateList(msg)
	case phaseDetail:
		return m.updateDetail(msg)
	}
	return m, nil
}

func (m ConflictListModel) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		newHeight := max(msg.Height-10, 5)
		m.table.SetHeight(newHeight)

	case tea.KeyMsg:
		// Handle confirmation mode first
		if m.confirmMode {
			switch msg.String() {
			case "y", "Y":
				m.result = ReviewResult{
					Action:      ReviewActionApply,
					Resolutions: m.resolutions,
				}
				m.quitting = true
				return m, tea.Quit
			case "n", "N", "esc":
				m.confirmMode = false
				return m, nil
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.result = ReviewResult{Action: ReviewActionNone}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, m.keys.Select):
			if len(m.entries) > 0 {
				m.cursor = m.table.Cursor()
				m.phase = phaseDetail
				m.ready = false
				return m, nil
			}

		case key.Matches(msg, m.keys.Local):
			m.resolveAt(m.table.Cursor(), sync.StrategyLocalWins)
			return m, nil

		case key.Matches(msg, m.keys.Remote):
			m.resolveAt(m.table.Cursor(), sync.StrategyRemoteWins)
			return m, nil

		case key.Matches(msg, m.keys.Newest):
			m.resolveAt(m.table.Cursor(), sync.StrategyNewestWins)
			return m, nil

		case key.Matches(msg, m.keys.Clear):
			m.clearAt(m.table.Cursor())
			return m, nil

		case key.Matches(msg, m.keys.Confirm):
			if len(m.resolutions) > 0 {
				m.confirmMode = true
				return m, nil
			}

		case key.Matches(msg, m.keys.Back):
			m.result = ReviewResult{Action: ReviewActionCancel}
			m.quitting = true
			return m, tea.Quit
		}
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m ConflictListModel) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4
		footerHeight := 4
		viewportHeight := max(msg.Height-headerHeight-footerHeight, 5)

		if !m.ready {
			m.viewport = viewport.New(msg.Width-2, viewportHeight)
			m.viewport.SetContent(m.buildDetailContent())
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 2
			m.viewport.Height = viewportHeight
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.result = ReviewResult{Action: ReviewActionNone}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, m.keys.Back):
			m.phase = phaseList
			return m, nil

		case key.Matches(msg, m.keys.Local):
			m.resolveAt(m.cursor, sync.StrategyLocalWins)
			m.viewport.SetContent(m.buildDetailContent())
			return m, nil

		case key.Matches(msg, m.keys.Remote):
			m.resolveAt(m.cursor, sync.StrategyRemoteWins)
			m.viewport.SetContent(m.buildDetailContent())
			return m, nil

		case key.Matches(msg, m.keys.Newest):
			m.resolveAt(m.cursor, sync.StrategyNewestWins)
			m.viewport.SetContent(m.buildDetailContent())
			return m, nil

		case key.Matches(msg, m.keys.Clear):
			m.clearAt(m.cursor)
			m.viewport.SetContent(m.buildDetailContent())
			return m, nil
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *ConflictListModel) resolveAt(idx int, strategy sync.Strategy) {
	if idx < 0 || idx >= len(m.entries) {
		return
	}
	m.resolutions[m.entries[idx].Path] = strategy
	m.updateTableRow(idx)
}

func (m *ConflictListModel) clearAt(idx int) {
	if idx < 0 || idx >= len(m.entries) {
		return
	}
	delete(m.resolutions, m.entries[idx].Path)
	m.updateTableRow(idx)
}

func (m *ConflictListModel) updateTableRow(idx int) {
	entry := m.entries[idx]
	resolution := ""
	if res, ok := m.resolutions[entry.Path]; ok {
		resolution = string(res)
	}

	rows := m.table.Rows()
	if idx < len(rows) {
		rows[idx] = buildReviewRow(entry, resolution)
		m.table.SetRows(rows)
	}
}

// statusExplanation describes what a conflict state means for the
// document under review.
func statusExplanation(status sync.ConflictStatus) string {
	switch status {
	case sync.StatusLocalNewer:
		return "Only the local file has changed since the last sync. " +
			"Taking the remote version would discard that edit."
	case sync.StatusBothModified:
		return "The local file and the remote page have both changed " +
			"since the last sync. One side must win; content is never merged."
	case sync.StatusRemoteNewer:
		return "Only the remote page has changed since the last sync."
	case sync.StatusNewPage:
		return "The remote page has no local counterpart yet."
	default:
		return "The document and its remote page are in sync."
	}
}

func (m ConflictListModel) buildDetailContent() string {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return "No conflict selected"
	}

	entry := m.entries[m.cursor]
	width := max(m.width-4, 40)
	var b strings.Builder

	b.WriteString(reviewStyles.Section.Render("Conflict Details"))
	b.WriteString("\n")
	b.WriteString("  " + formatDetail("Document: ", entry.Path, width))
	b.WriteString("\n")
	if entry.PageID != "" {
		b.WriteString(fmt.Sprintf("  Page:     %s\n", entry.PageID))
	}
	b.WriteString(fmt.Sprintf("  State:    %s\n", entry.Status))
	b.WriteString(fmt.Sprintf("  Local edited:  %s\n", entry.LocalModifiedAt.Format(reviewTimeLayout)))
	b.WriteString(fmt.Sprintf("  Remote edited: %s\n", entry.RemoteEditedAt.Format(reviewTimeLayout)))
	if entry.Similarity > 0 {
		b.WriteString(fmt.Sprintf("  Content match: %s\n", formatSimilarity(entry.Similarity)))
	}

	b.WriteString("\n")
	b.WriteString(Styles.Normal.Render(wrapText(statusExplanation(entry.Status), width)))
	b.WriteString("\n")

	if res, ok := m.resolutions[entry.Path]; ok {
		b.WriteString("\n")
		b.WriteString(reviewStyles.Resolved.Render(fmt.Sprintf("  Resolution: %s", res)))
		b.WriteString("\n")
	} else {
		b.WriteString("\n")
		b.WriteString(reviewStyles.Unresolved.Render("  Unresolved"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(reviewStyles.Info.Render("Press: l=keep local, r=take remote, n=newest wins, x=leave conflicted"))

	return b.String()
}

// View implements tea.Model.
func (m ConflictListModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.phase {
	case phaseDetail:
		return m.viewDetail()
	default:
		return m.viewList()
	}
}

func (m ConflictListModel) viewList() string {
	var b strings.Builder

	b.WriteString(Styles.Title.Render("Review Pull Conflicts"))
	b.WriteString("\n\n")

	b.WriteString(reviewStyles.Info.Render("Documents without a resolution stay conflicted and keep their local content"))
	b.WriteString("\n\n")

	if m.confirmMode {
		b.WriteString(m.table.View())
		b.WriteString("\n\n")
		remaining := len(m.entries) - len(m.resolutions)
		confirmMsg := fmt.Sprintf("Apply %d resolution(s), leaving %d conflicted? (y/n)",
			len(m.resolutions), remaining)
		b.WriteString(reviewStyles.Confirm.Render(confirmMsg))
		return b.String()
	}

	b.WriteString(m.table.View())
	b.WriteString("\n")

	resolved := len(m.resolutions)
	total := len(m.entries)
	status := fmt.Sprintf("%d/%d resolved", resolved, total)
	if resolved > 0 {
		status += " • Press y to apply"
	}
	b.WriteString(reviewStyles.Status.Render(status))
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(m.renderFullHelp())
	} else {
		b.WriteString(m.renderShortHelp())
	}

	return b.String()
}

func (m ConflictListModel) viewDetail() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder

	path := ""
	if m.cursor >= 0 && m.cursor < len(m.entries) {
		path = m.entries[m.cursor].Path
	}
	b.WriteString(Styles.Title.Render(fmt.Sprintf("Conflict: %s", path)))
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	scrollPercent := int(m.viewport.ScrollPercent() * 100)
	b.WriteString(reviewStyles.Status.Render(fmt.Sprintf("Scroll: %d%%", scrollPercent)))
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(m.renderDetailHelp())
	} else {
		b.WriteString(m.renderDetailShortHelp())
	}

	return b.String()
}

func (m ConflictListModel) renderShortHelp() string {
	keys := []string{
		"↑/↓ navigate",
		"enter details",
		"l local",
		"r remote",
		"n newest",
		"x clear",
		"? help",
		"q quit",
	}
	return reviewStyles.Help.Render(strings.Join(keys, " • "))
}

func (m ConflictListModel) renderFullHelp() string {
	help := `Navigation:
  ↑/k      Move up
  ↓/j      Move down
  Enter    View conflict details

Resolution:
  l/1      Keep the local file
  r/2      Take the remote page
  n/3      Let the newest edit win
  x/4      Leave conflicted

Actions:
  y        Apply chosen resolutions
  b/Esc    Cancel review

General:
  ?        Toggle full help
  q        Quit without applying`
	return reviewStyles.Help.Render(help)
}

func (m ConflictListModel) renderDetailShortHelp() string {
	keys := []string{
		"↑/↓ scroll",
		"l local",
		"r remote",
		"n newest",
		"x clear",
		"b back",
		"? help",
	}
	return reviewStyles.Help.Render(strings.Join(keys, " • "))
}

func (m ConflictListModel) renderDetailHelp() string {
	help := `Navigation:
  ↑/k      Scroll up
  ↓/j      Scroll down
  PgUp     Page up
  PgDown   Page down

Resolution:
  l/1      Keep the local file
  r/2      Take the remote page
  n/3      Let the newest edit win
  x/4      Leave conflicted

Actions:
  b/Esc    Go back to the list

General:
  ?        Toggle full help
  q        Quit without applying`
	return reviewStyles.Help.Render(help)
}

// Result returns the result of the user interaction.
func (m ConflictListModel) Result() ReviewResult {
	return m.result
}

// RunConflictReview runs the interactive conflict review and returns
// the chosen resolutions.
func RunConflictReview(entries []sync.ConflictEntry) (ReviewResult, error) {
	if len(entries) == 0 {
		return ReviewResult{}, nil
	}

	mdl := NewConflictListModel(entries)
	finalModel, err := Run(mdl, tea.WithAltScreen())
	if err != nil {
		return ReviewResult{}, err
	}

	if m, ok := finalModel.(ConflictListModel); ok {
		return m.Result(), nil
	}

	return ReviewResult{}, nil
}
