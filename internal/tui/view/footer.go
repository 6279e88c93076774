package view

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// FooterViewState holds the strings needed to render the footer section.
type FooterViewState struct {
	Width      int
	StatsLine  string
	PromptLine string // replaces the status line while the prompt is open
	StatusLine string
	HelpLine   string
}

// FooterHeight returns how many lines RenderFooter draws for state.
func FooterHeight(state FooterViewState) int {
	return len(footerLines(state))
}

// RenderFooter renders stats, prompt or status, and help lines, each cut to
// the footer width.
func RenderFooter(state FooterViewState) string {
	lines := footerLines(state)
	if state.Width > 0 {
		for i, line := range lines {
			lines[i] = ansi.Truncate(line, state.Width, "…")
		}
	}
	return strings.Join(lines, "\n")
}

func footerLines(state FooterViewState) []string {
	middle := state.StatusLine
	if state.PromptLine != "" {
		middle = state.PromptLine
	}
	lines := []string{state.StatsLine, middle}
	for _, help := range strings.Split(state.HelpLine, "\n") {
		if help != "" {
			lines = append(lines, help)
		}
	}
	return lines
}
