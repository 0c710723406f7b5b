// Package ui provides optional terminal interfaces.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/taskman/internal/task"
)

// DefaultRefreshInterval is how often the viewer reloads the task file.
const DefaultRefreshInterval = 2 * time.Second

// Source is the read side of a task store.
type Source interface {
	Load(ctx context.Context) ([]task.Task, error)
	Path() string
}

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

type tuiConfig struct {
	refresh time.Duration
	output  io.Writer
}

// WithRefreshInterval sets how often the viewer reloads the task file.
// Zero disables periodic reloads.
func WithRefreshInterval(d time.Duration) TUIOption {
	return func(c *tuiConfig) {
		c.refresh = d
	}
}

// WithOutput sets the terminal the viewer renders to.
func WithOutput(w io.Writer) TUIOption {
	return func(c *tuiConfig) {
		c.output = w
	}
}

// RunTUI starts the read-only task viewer and blocks until the user quits
// or ctx is canceled.
func RunTUI(ctx context.Context, src Source, opts ...TUIOption) error {
	c := &tuiConfig{
		refresh: DefaultRefreshInterval,
		output:  os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if !IsTTY(c.output) {
		return fmt.Errorf("tui requires a TTY")
	}

	model := newTUIModel(ctx, src, c.refresh)
	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithOutput(c.output),
	)
	finalModel, err := program.Run()
	if err != nil {
		return err
	}
	if m, ok := finalModel.(*tuiModel); ok && m.loadErr != nil {
		return m.loadErr
	}
	return nil
}

type tuiModel struct {
	ctx          context.Context
	src          Source
	tickInterval time.Duration

	loadErr  error
	tasks    []task.Task
	counts   map[string]int
	statuses []string
	loadedAt time.Time

	filter   string // empty shows every task
	showHelp bool
}

type tickMsg time.Time

type loadedMsg struct {
	tasks []task.Task
	err   error
	at    time.Time
}

func newTUIModel(ctx context.Context, src Source, interval time.Duration) *tuiModel {
	return &tuiModel{
		ctx:          ctx,
		src:          src,
		tickInterval: interval,
	}
}

func (m *tuiModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadCmd()}
	if m.tickInterval > 0 {
		cmds = append(cmds, tickCmd(m.tickInterval))
	}
	return tea.Batch(cmds...)
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "r", "f5":
			return m, m.loadCmd()
		case "h", "?":
			m.showHelp = !m.showHelp
		case "tab", "f":
			m.filter = nextFilter(m.statuses, m.filter)
		case "0":
			m.filter = ""
		}
	case tickMsg:
		return m, tea.Batch(m.loadCmd(), tickCmd(m.tickInterval))
	case loadedMsg:
		m.apply(msg)
	}
	return m, nil
}

func (m *tuiModel) View() string {
	var b strings.Builder
	writeTitle(&b)

	if m.showHelp {
		writeHelp(&b)
		writeFooter(&b, m.tickInterval)
		return b.String()
	}

	if m.loadErr != nil {
		b.WriteString("Error loading task file:\n")
		b.WriteString("  " + m.loadErr.Error() + "\n\n")
		writeFooter(&b, m.tickInterval)
		return b.String()
	}
	if m.counts == nil {
		b.WriteString("Loading...\n\n")
		writeFooter(&b, m.tickInterval)
		return b.String()
	}

	writeOverview(&b, len(m.tasks), m.statuses, m.counts)
	if m.filter != "" {
		b.WriteString(fmt.Sprintf("Filter: %s (0 to clear)\n\n", m.filter))
	}
	shown := m.tasks
	if m.filter != "" {
		shown = task.FilterByStatus(m.tasks, m.filter)
	}
	writeTasks(&b, shown)
	b.WriteString(fmt.Sprintf("File: %s (loaded %s)\n\n", m.src.Path(), m.loadedAt.Format("15:04:05")))
	writeFooter(&b, m.tickInterval)
	return b.String()
}

func (m *tuiModel) loadCmd() tea.Cmd {
	ctx, src := m.ctx, m.src
	return func() tea.Msg {
		tasks, err := src.Load(ctx)
		return loadedMsg{tasks: tasks, err: err, at: time.Now()}
	}
}

func (m *tuiModel) apply(msg loadedMsg) {
	if msg.err != nil {
		m.loadErr = msg.err
		m.tasks = nil
		m.counts = nil
		m.statuses = nil
		return
	}
	m.loadErr = nil
	m.tasks = msg.tasks
	m.counts, m.statuses = task.CountByStatus(msg.tasks)
	m.loadedAt = msg.at
	if m.filter != "" && m.counts[m.filter] == 0 {
		m.filter = ""
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// nextFilter cycles through the known statuses, then back to no filter.
func nextFilter(statuses []string, current string) string {
	if len(statuses) == 0 {
		return ""
	}
	if current == "" {
		return statuses[0]
	}
	for i, s := range statuses {
		if s == current && i+1 < len(statuses) {
			return statuses[i+1]
		}
	}
	return ""
}

func writeTitle(b *strings.Builder) {
	title := "Task Manager"
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
}

func writeOverview(b *strings.Builder, total int, statuses []string, counts map[string]int) {
	b.WriteString(fmt.Sprintf("Tasks: %d\n", total))
	parts := make([]string, 0, len(statuses))
	for _, s := range statuses {
		parts = append(parts, fmt.Sprintf("%s: %d", s, counts[s]))
	}
	if len(parts) > 0 {
		b.WriteString("  " + strings.Join(parts, "  ") + "\n")
	}
	b.WriteString("\n")
}

func writeTasks(b *strings.Builder, tasks []task.Task) {
	if len(tasks) == 0 {
		b.WriteString("  No tasks found.\n\n")
		return
	}
	for _, t := range tasks {
		b.WriteString(fmt.Sprintf("  %3d  %-18s %s\n", t.ID, truncate(t.Status, 18), t.Description))
	}
	b.WriteString("\n")
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  q, esc, ctrl+c  Quit\n")
	b.WriteString("  r, F5           Reload the task file\n")
	b.WriteString("  f, tab          Cycle status filter\n")
	b.WriteString("  0               Clear filter\n")
	b.WriteString("  h, ?            Toggle this help screen\n\n")
}

func writeFooter(b *strings.Builder, interval time.Duration) {
	if interval <= 0 {
		b.WriteString("Press h for help | q to quit\n")
		return
	}
	b.WriteString(fmt.Sprintf("Press h for help | q to quit | Refreshing every %s\n", interval))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
