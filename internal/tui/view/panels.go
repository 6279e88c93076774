package view

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// PanelStyles groups styles for modal bodies.
type PanelStyles struct {
	BodyStyle   lipgloss.Style
	LabelStyle  lipgloss.Style
	SelectStyle lipgloss.Style
	HardStyle   lipgloss.Style
	SoftStyle   lipgloss.Style
}

// DetailField is one labelled line of the session detail panel.
type DetailField struct {
	Label string
	Value string
}

// RenderDetailBody renders labelled fields aligned on the longest label.
// Fields with an empty value are skipped.
func RenderDetailBody(fields []DetailField, styles PanelStyles) string {
	width := 0
	for _, f := range fields {
		if f.Value != "" {
			width = max(width, len(f.Label))
		}
	}

	var lines []string
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		label := f.Label + ":" + strings.Repeat(" ", width-len(f.Label)+1)
		lines = append(lines, styles.LabelStyle.Render(label)+styles.BodyStyle.Render(f.Value))
	}
	return strings.Join(lines, "\n")
}

// ConflictLine is one conflict of a rejected placement.
type ConflictLine struct {
	Kind    string
	Message string
	Hard    bool
}

// ConflictPanelModel contains what the conflict panel shows.
type ConflictPanelModel struct {
	Placement    string // the rejected time, e.g. "Tue Jun 11 09:30"
	Conflicts    []ConflictLine
	Alternatives []string
	Selected     int
	Checking     bool
}

// RenderConflictBody renders the conflicts of a placement and the numbered
// alternatives with the selected one highlighted.
func RenderConflictBody(m ConflictPanelModel, styles PanelStyles) string {
	var lines []string
	lines = append(lines, styles.BodyStyle.Render("Cannot place at "+m.Placement))
	lines = append(lines, "")
	for _, c := range m.Conflicts {
		marker := styles.SoftStyle.Render("! " + c.Kind)
		if c.Hard {
			marker = styles.HardStyle.Render("✗ " + c.Kind)
		}
		lines = append(lines, marker+styles.BodyStyle.Render("  "+c.Message))
	}

	lines = append(lines, "")
	if len(m.Alternatives) == 0 {
		lines = append(lines, styles.LabelStyle.Render("No free slot nearby."))
	} else {
		lines = append(lines, styles.LabelStyle.Render("Nearest free slots:"))
		for i, alt := range m.Alternatives {
			line := " " + strconv.Itoa(i+1) + ". " + alt + " "
			if i == m.Selected {
				lines = append(lines, styles.SelectStyle.Render(line))
				continue
			}
			lines = append(lines, styles.BodyStyle.Render(line))
		}
	}
	if m.Checking {
		lines = append(lines, "", styles.LabelStyle.Render("Checking…"))
	}
	return strings.Join(lines, "\n")
}
