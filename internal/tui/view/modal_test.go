package view

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRenderKeyHints_UsesModalBodySeparator(t *testing.T) {
	styles := ModalStyles{
		ModalBodyStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	}

	got := RenderKeyHints(styles, KeyHint{Key: "Enter", Action: "take"}, KeyHint{Key: "Esc", Action: "cancel"})
	sep := styles.ModalBodyStyle.Render("  ")
	if !strings.Contains(got, sep) {
		t.Fatalf("expected hint separator to use modal body style")
	}
	if !strings.Contains(got, "[Enter] take") || !strings.Contains(got, "[Esc] cancel") {
		t.Fatalf("unexpected hints %q", got)
	}
}

func TestRenderModalFrame(t *testing.T) {
	got := RenderModalFrame("Session", "body", "footer", ModalStyles{})
	for _, want := range []string{"Session", "body", "footer"} {
		if !strings.Contains(got, want) {
			t.Errorf("frame missing %q:\n%s", want, got)
		}
	}
	if strings.Index(got, "Session") > strings.Index(got, "body") {
		t.Error("title must precede the body")
	}
}
