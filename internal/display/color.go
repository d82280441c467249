// Package display renders one-shot terminal output: the prayer board and
// aligned listings.
//
// Styling goes through a lipgloss renderer. It respects the NO_COLOR
// environment variable (https://no-color.org/) and is disabled when stdout is
// not a terminal, unless FORCE_COLOR is set.
package display

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

var (
	enabled  bool
	renderer *lipgloss.Renderer
)

func init() {
	SetEnabled(shouldEnable())
}

func shouldEnable() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if _, ok := os.LookupEnv("FORCE_COLOR"); ok {
		return true
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// SetEnabled overrides the auto-detected color state.
// --json and tests force plain output through it.
func SetEnabled(b bool) {
	enabled = b
	renderer = lipgloss.NewRenderer(os.Stdout)
	if b {
		renderer.SetColorProfile(termenv.ANSI)
	} else {
		renderer.SetColorProfile(termenv.Ascii)
	}
}

// Enabled reports whether color output is currently active.
func Enabled() bool {
	return enabled
}

func render(style lipgloss.Style, text string) string {
	if !enabled {
		return text
	}
	return style.Renderer(renderer).Render(text)
}

// Bold returns text rendered in bold.
func Bold(text string) string {
	return render(lipgloss.NewStyle().Bold(true), text)
}

// Dim returns text rendered faint.
func Dim(text string) string {
	return render(lipgloss.NewStyle().Faint(true), text)
}

func Green(text string) string {
	return render(lipgloss.NewStyle().Foreground(lipgloss.Color("2")), text)
}

func Yellow(text string) string {
	return render(lipgloss.NewStyle().Foreground(lipgloss.Color("3")), text)
}

func Cyan(text string) string {
	return render(lipgloss.NewStyle().Foreground(lipgloss.Color("6")), text)
}

func Gray(text string) string {
	return render(lipgloss.NewStyle().Foreground(lipgloss.Color("8")), text)
}

// Accent marks the highlighted prayer (bold cyan).
func Accent(text string) string {
	return render(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")), text)
}

// Grace marks a prayer inside its grace window (bold green).
func Grace(text string) string {
	return render(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")), text)
}

// Boldf formats and bolds a string.
func Boldf(format string, a ...any) string {
	return Bold(fmt.Sprintf(format, a...))
}
