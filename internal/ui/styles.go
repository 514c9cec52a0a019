// Package ui holds terminal styling, tables and interactive prompts for the CLI.
package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

func init() {
	if !ShouldUseColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

var (
	ColorPass   = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#9CCFD8"}
	ColorWarn   = lipgloss.AdaptiveColor{Light: "#B26A00", Dark: "#F6C177"}
	ColorFail   = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#EB6F92"}
	ColorAccent = lipgloss.AdaptiveColor{Light: "#6A1B9A", Dark: "#C4A7E7"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#908CAA"}

	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail).Bold(true)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	TagStyle    = lipgloss.NewStyle().Foreground(ColorAccent)
	HeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	CellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// ShouldUseColor honours NO_COLOR and CLICOLOR_FORCE, otherwise colours only
// when stdout is a terminal.
func ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("CLICOLOR_FORCE") != "" {
		return true
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// IsInteractive reports whether both stdin and stdout are terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func RenderPass(s string) string   { return PassStyle.Render(s) }
func RenderWarn(s string) string   { return WarnStyle.Render(s) }
func RenderFail(s string) string   { return FailStyle.Render(s) }
func RenderAccent(s string) string { return AccentStyle.Render(s) }
func RenderMuted(s string) string  { return MutedStyle.Render(s) }

// RenderTags joins tag names, or a muted placeholder when there are none.
func RenderTags(tags []string) string {
	if len(tags) == 0 {
		return RenderMuted("(untagged)")
	}
	styled := make([]string, len(tags))
	for i, t := range tags {
		styled[i] = TagStyle.Render(t)
	}
	return strings.Join(styled, ", ")
}

// Table renders rows under a header line with a rounded border.
func Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(MutedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle
			}
			return CellStyle
		})
	return t.String()
}
