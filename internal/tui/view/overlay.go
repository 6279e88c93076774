package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// FitLines cuts or pads content to exactly width columns and height lines.
func FitLines(content string, width, height int) []string {
	lines := strings.Split(content, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, line := range lines {
		switch w := lipgloss.Width(line); {
		case w > width:
			lines[i] = ansi.Cut(line, 0, width)
		case w < width:
			lines[i] = line + strings.Repeat(" ", width-w)
		}
	}
	return lines
}

// RenderModalOverlay centers modal and splices it over base.
func RenderModalOverlay(base, modal string, width, height int, modalBg lipgloss.Color) string {
	if width <= 0 || height <= 0 || modal == "" {
		return base
	}

	modalLines := strings.Split(strings.TrimRight(modal, "\n"), "\n")
	modalW := min(lipgloss.Width(modal), width)
	modalH := min(len(modalLines), height)
	top := max((height-modalH)/2, 0)
	left := max((width-modalW)/2, 0)

	fill := lipgloss.NewStyle().Background(modalBg)
	lines := FitLines(base, width, height)
	for i := 0; i < modalH; i++ {
		line := modalLines[i]
		if w := lipgloss.Width(line); w > modalW {
			line = ansi.Cut(line, 0, modalW)
		} else if w < modalW {
			line += fill.Render(strings.Repeat(" ", modalW-w))
		}
		line = ApplyModalBackgroundResets(line, modalBg) + ansi.ResetStyle

		row := top + i
		lines[row] = ansi.Cut(lines[row], 0, left) + line + ansi.Cut(lines[row], left+modalW, width)
	}
	return strings.Join(lines, "\n")
}

// ApplyModalBackgroundResets reapplies modal background after ANSI resets.
func ApplyModalBackgroundResets(line string, modalBg lipgloss.Color) string {
	bgSeq := ModalBackgroundSeq(modalBg)
	if bgSeq == "" {
		return line
	}
	line = strings.ReplaceAll(line, ansi.ResetStyle, ansi.ResetStyle+bgSeq)
	line = strings.ReplaceAll(line, "\x1b[0m", "\x1b[0m"+bgSeq)
	line = strings.ReplaceAll(line, "\x1b[49m", "\x1b[49m"+bgSeq)
	return line
}

// ModalBackgroundSeq returns the background escape sequence for the modal color.
func ModalBackgroundSeq(modalBg lipgloss.Color) string {
	if modalBg == "" {
		return ""
	}
	return ansi.Style{}.BackgroundColor(ansi.HexColor(string(modalBg))).String()
}
