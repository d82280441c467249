// Package tui is the live prayer board built on Bubble Tea.
//
// The model is passive: the countdown scheduler pushes an UpdateMsg every
// second and the model only renders it. Key presses either quit, flip the
// clock format, or ask the caller to refresh.
package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smokyabdulrahman/passerby/internal/apperr"
	"github.com/smokyabdulrahman/passerby/internal/coordinator"
	"github.com/smokyabdulrahman/passerby/internal/prayer"
	"github.com/smokyabdulrahman/passerby/internal/ticker"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e2e8f0"))
	dateStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748b")).MarginTop(1)
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#fca5a5"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#475569")).
			Padding(0, 1).
			Width(14).
			Align(lipgloss.Center)
	activeCardStyle = cardStyle.
			BorderForeground(lipgloss.Color("#38bdf8")).
			Foreground(lipgloss.Color("#f8fafc")).
			Bold(true)
	graceCardStyle = cardStyle.
			BorderForeground(lipgloss.Color("#4ade80")).
			Foreground(lipgloss.Color("#f8fafc")).
			Bold(true)
)

// UpdateMsg carries one tick: the snapshot and the coordinator state it was
// computed from.
type UpdateMsg struct {
	Snapshot ticker.Snapshot
	View     coordinator.View
}

// ErrMsg reports a failure to show under the board.
type ErrMsg struct{ Err error }

type refreshedMsg struct{ err error }

// Model is the Bubble Tea model for the board.
type Model struct {
	view       coordinator.View
	snap       ticker.Snapshot
	hasSnap    bool
	twelveHour bool
	width      int
	err        error
	refresh    func(context.Context) error
}

// New returns a model showing view until the first UpdateMsg arrives.
// refresh, when set, runs on "r".
func New(view coordinator.View, twelveHour bool, refresh func(context.Context) error) Model {
	return Model{view: view, twelveHour: twelveHour, refresh: refresh}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "t":
			m.twelveHour = !m.twelveHour
		case "r":
			if m.refresh != nil {
				refresh := m.refresh
				return m, func() tea.Msg {
					return refreshedMsg{err: refresh(context.Background())}
				}
			}
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case UpdateMsg:
		m.view = msg.View
		m.snap = msg.Snapshot
		m.hasSnap = true
	case ErrMsg:
		m.err = msg.Err
	case refreshedMsg:
		m.err = msg.err
	}
	return m, nil
}

func (m Model) View() string {
	heading := headingStyle.Render("Prayer Times in " + m.view.Location.String())
	if m.view.Location.Marker != "" {
		heading += " " + m.view.Location.Marker
	}

	sections := []string{heading}
	if d := m.view.Dates.Gregorian; d != "" {
		sections = append(sections, dateStyle.Render(d))
	}
	if d := m.view.Dates.Hijri; d != "" {
		sections = append(sections, dateStyle.Render(d))
	}
	sections = append(sections, "")

	if len(m.view.Prayers) == 0 {
		sections = append(sections, dateStyle.Render("Loading prayer times..."))
	} else {
		sections = append(sections, m.cards())
	}

	if m.err != nil {
		sections = append(sections, errStyle.Render(apperr.Message(m.err)))
	}
	sections = append(sections, helpStyle.Render("r refresh • t 12/24h • q quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

// cards lays the five prayers side by side, or stacked when the terminal is
// too narrow.
func (m Model) cards() string {
	rendered := make([]string, 0, len(m.view.Prayers))
	for _, p := range m.view.Prayers {
		rendered = append(rendered, m.card(p))
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	if m.width > 0 && lipgloss.Width(row) > m.width {
		return lipgloss.JoinVertical(lipgloss.Left, rendered...)
	}
	return row
}

func (m Model) card(p prayer.Time) string {
	clock := p.Clock
	if m.twelveHour {
		clock = prayer.FormatTwelveHour(p.Clock)
	}
	lines := []string{string(p.Name), clock}

	style := cardStyle
	if m.hasSnap && p.Name == m.snap.PrayerName {
		if m.snap.IsGrace {
			style = graceCardStyle
			lines = append(lines, "Now")
		} else {
			style = activeCardStyle
			lines = append(lines, m.snap.Countdown())
		}
	} else {
		lines = append(lines, "")
	}
	return style.Render(strings.Join(lines, "\n"))
}
