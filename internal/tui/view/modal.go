// Package view provides rendering helpers for the TUI.
package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ModalStyles groups the styles needed to render modal frames.
type ModalStyles struct {
	ModalHeaderStyle lipgloss.Style
	ModalTitleStyle  lipgloss.Style
	ModalFooterStyle lipgloss.Style
	ModalBodyStyle   lipgloss.Style
	ModalStyle       lipgloss.Style
}

// KeyHint is one "key action" pair shown under a modal.
type KeyHint struct {
	Key    string
	Action string
}

// RenderModalFrame renders a modal with the provided title, body, and footer.
func RenderModalFrame(title, body, footer string, styles ModalStyles) string {
	var b strings.Builder

	b.WriteString(styles.ModalHeaderStyle.Render(styles.ModalTitleStyle.Render(title)))
	if body != "" {
		b.WriteString("\n\n")
		b.WriteString(body)
	}
	if footer != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.ModalFooterStyle.Render(footer))
	}

	return styles.ModalStyle.Render(b.String())
}

// RenderKeyHints renders hints as "[key] action" separated in the body style.
func RenderKeyHints(styles ModalStyles, hints ...KeyHint) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, "["+h.Key+"] "+h.Action)
	}
	return strings.Join(parts, styles.ModalBodyStyle.Render("  "))
}
