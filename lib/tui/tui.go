// Package tui is the terminal view behind `ircloop watch`: a table of session
// snapshots above a scrolling log of inbound events.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-i2p/logger"

	"github.com/go-i2p/ircloop/lib/session"
)

var log = logger.GetGoI2PLogger()

const (
	DefaultRefresh = 250 * time.Millisecond
	DefaultBacklog = 500
)

// Source is the part of session.Manager the view reads and acts on.
type Source interface {
	Sessions() []session.Status
	Resync(id session.ID) error
}

// Feed yields buffered events without blocking. *session.Subscription
// satisfies it.
type Feed interface {
	Drain() []session.Event
	Dropped() uint64
}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Resync key.Binding
	Pause  key.Binding
	Clear  key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Resync: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "resync")),
		Pause:  key.NewBinding(key.WithKeys("p", " "), key.WithHelp("p", "pause")),
		Clear:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Resync, k.Pause, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Resync, k.Pause, k.Clear},
		{k.Help, k.Quit},
	}
}

type refreshMsg time.Time

type resyncDoneMsg struct {
	name string
	err  error
}

// Model is a bubbletea model over a Source and an event Feed.
type Model struct {
	src     Source
	feed    Feed
	refresh time.Duration
	backlog int
	theme   theme
	keys    keyMap
	help    help.Model

	rows     []session.Status
	events   []string
	cursor   int
	width    int
	height   int
	status   string
	failed   bool
	paused   bool
	quitting bool
}

// New returns a model refreshing from src and feed every refresh period.
// feed may be nil.
func New(src Source, feed Feed, refresh time.Duration) Model {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	return Model{
		src:     src,
		feed:    feed,
		refresh: refresh,
		backlog: DefaultBacklog,
		theme:   newTheme(),
		keys:    newKeyMap(),
		help:    help.New(),
		width:   100,
		height:  30,
		rows:    src.Sessions(),
	}
}

// Run starts a full-screen program and blocks until the user quits or ctx is
// done.
func Run(ctx context.Context, src Source, feed Feed, refresh time.Duration) error {
	p := tea.NewProgram(New(src, feed, refresh), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		log.WithFields(logger.Fields{
			"at":     "Run",
			"reason": err.Error(),
		}).Error("watch view failed")
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case refreshMsg:
		m.pull()
		return m, m.tickCmd()

	case resyncDoneMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("resync %s: %v", msg.name, msg.err), true)
		} else {
			m.setStatus("resync requested for "+msg.name, false)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Resync):
		if st, ok := m.selected(); ok {
			return m, m.resyncCmd(st)
		}
	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
		if m.paused {
			m.setStatus("event log paused", false)
		} else {
			m.setStatus("event log resumed", false)
		}
	case key.Matches(msg, m.keys.Clear):
		m.events = nil
		m.setStatus("event log cleared", false)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) resyncCmd(st session.Status) tea.Cmd {
	src := m.src
	return func() tea.Msg {
		return resyncDoneMsg{name: st.Name, err: src.Resync(st.ID)}
	}
}

// pull refreshes the table and appends drained events to the log. Events are
// drained while paused so the feed does not overflow; they are just not kept.
func (m *Model) pull() {
	m.rows = m.src.Sessions()
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
	if m.feed == nil {
		return
	}
	events := m.feed.Drain()
	if m.paused {
		return
	}
	for _, ev := range events {
		m.events = append(m.events, FormatEvent(ev))
	}
	if over := len(m.events) - m.backlog; over > 0 {
		m.events = append([]string(nil), m.events[over:]...)
	}
}

func (m Model) selected() (session.Status, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return session.Status{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) setStatus(text string, failed bool) {
	m.status = text
	m.failed = failed
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	width := max(m.width-4, 20)

	header := m.theme.header.Render(fmt.Sprintf("ircloop  %d sessions  %s", len(m.rows), m.summary()))
	table := m.theme.panel.Width(width).Render(m.renderTable())

	logLines := max(m.height-lipgloss.Height(header)-lipgloss.Height(table)-6, 3)
	events := m.theme.panel.Width(width).Render(m.renderEvents(logLines))

	footer := m.theme.footer.Render(m.help.View(m.keys))
	if m.status != "" {
		style := m.theme.muted
		if m.failed {
			style = m.theme.failure
		}
		footer = lipgloss.JoinVertical(lipgloss.Left, style.Padding(0, 1).Render(m.status), footer)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, table, events, footer)
}

func (m Model) summary() string {
	counts := make(map[session.Phase]int)
	for _, st := range m.rows {
		counts[st.Phase]++
	}
	var parts []string
	for p := session.Disconnected; p <= session.Registered; p++ {
		if n := counts[p]; n > 0 {
			parts = append(parts, m.theme.phaseStyle(p).Render(fmt.Sprintf("%d %s", n, p)))
		}
	}
	return strings.Join(parts, "  ")
}

const rowFormat = "%-16s %-19s %-28s %-8s %-10s %-12s %s"

func (m Model) renderTable() string {
	var b strings.Builder
	b.WriteString(m.theme.title.Render("Sessions"))
	b.WriteString("\n")
	b.WriteString(m.theme.column.Render(fmt.Sprintf(rowFormat,
		"NAME", "PHASE", "ENDPOINT", "JOINED", "RX/TX", "IDLE", "LAST ERROR")))
	if len(m.rows) == 0 {
		b.WriteString("\n")
		b.WriteString(m.theme.muted.Render("no sessions declared"))
		return b.String()
	}
	for i, st := range m.rows {
		b.WriteString("\n")
		line := m.renderRow(st)
		if i == m.cursor {
			line = m.theme.selected.Render(line)
		}
		b.WriteString(line)
	}
	if st, ok := m.selected(); ok {
		b.WriteString("\n\n")
		b.WriteString(m.theme.muted.Render(detail(st)))
	}
	return b.String()
}

func (m Model) renderRow(st session.Status) string {
	phase := fmt.Sprintf("%-19s", st.Phase)
	lastErr := st.LastError
	if lastErr == "" {
		lastErr = "-"
	}
	return fmt.Sprintf("%-16s ", truncate(st.Name, 16)) +
		m.theme.phaseStyle(st.Phase).Render(phase) +
		fmt.Sprintf(" %-28s %-8s %-10s %-12s %s",
			truncate(st.Endpoint.String(), 28),
			fmt.Sprintf("%d/%d", len(st.Joined), len(st.Channels)),
			fmt.Sprintf("%d/%d", st.Received, st.Sent),
			st.Idle.Truncate(time.Second).String(),
			truncate(lastErr, 40),
		)
}

func detail(st session.Status) string {
	parts := []string{"nick " + st.Nick}
	if len(st.Channels) > 0 {
		parts = append(parts, "channels "+strings.Join(st.Channels, ","))
	}
	if len(st.Capabilities) > 0 {
		parts = append(parts, "caps "+strings.Join(st.Capabilities, ","))
	}
	if !st.ConnectedAt.IsZero() {
		parts = append(parts, "up "+time.Since(st.ConnectedAt).Truncate(time.Second).String())
	}
	if st.ClockSkew != 0 {
		parts = append(parts, "skew "+st.ClockSkew.Truncate(time.Millisecond).String())
	}
	if st.Queued > 0 {
		parts = append(parts, fmt.Sprintf("queued %d", st.Queued))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderEvents(lines int) string {
	title := "Events"
	if m.feed != nil {
		if n := m.feed.Dropped(); n > 0 {
			title = fmt.Sprintf("Events (%d dropped)", n)
		}
	}
	if m.paused {
		title += " [paused]"
	}
	var b strings.Builder
	b.WriteString(m.theme.title.Render(title))
	start := max(len(m.events)-lines, 0)
	for _, line := range m.events[start:] {
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

// FormatEvent renders ev as one log line, stamped with the server time when
// the message carried one.
func FormatEvent(ev session.Event) string {
	at := ev.Received
	if !ev.ServerTime.IsZero() {
		at = ev.ServerTime
	}
	var b strings.Builder
	b.WriteString(at.Local().Format("15:04:05"))
	b.WriteString(" ")
	b.WriteString(ev.Name)
	b.WriteString(" ")
	if ev.Message.Source != "" {
		b.WriteString(ev.Message.Source)
		b.WriteString(" ")
	}
	b.WriteString(ev.Message.Command)
	for _, p := range ev.Message.Params {
		b.WriteString(" ")
		b.WriteString(p)
	}
	return truncate(b.String(), 160)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
