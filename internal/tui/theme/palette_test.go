package theme

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestNewPalette_SessionShades(t *testing.T) {
	base := &Theme{
		Bg:          "#101010",
		BgHighlight: "#202020",
		BgSelection: "#303030",
		Fg:          "#ffffff",
		FgMuted:     "#aaaaaa",
		Accent:      "#ff0000",
		Booked:      "#112233",
		Open:        "#445566",
		Blocked:     "#666666",
		Conflict:    "#cc2222",
		Warning:     "#888888",
		Current:     "#777777",
	}

	palette := NewPalette(base)

	if palette.BookedBg != lipgloss.Color(scaleColor(base.Booked, 0.50, 40)) {
		t.Fatalf("BookedBg = %q, want %q", palette.BookedBg, scaleColor(base.Booked, 0.50, 40))
	}
	if palette.BookedBgAlt != lipgloss.Color(alternateShade(string(palette.BookedBg), false)) {
		t.Fatalf("BookedBgAlt = %q, want alternate of %q", palette.BookedBgAlt, palette.BookedBg)
	}
	if palette.OpenBg != lipgloss.Color(scaleColor(base.Open, 0.30, 30)) {
		t.Fatalf("OpenBg = %q, want %q", palette.OpenBg, scaleColor(base.Open, 0.30, 30))
	}
}

func TestScaleColor(t *testing.T) {
	tests := []struct {
		name   string
		hex    string
		factor float64
		floor  uint8
		want   string
	}{
		{name: "halves channels", hex: "#c8c8c8", factor: 0.5, floor: 0, want: "#646464"},
		{name: "keeps floor", hex: "#102030", factor: 0.5, floor: 40, want: "#282828"},
		{name: "invalid hex unchanged", hex: "blue", factor: 0.5, floor: 40, want: "blue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scaleColor(tt.hex, tt.factor, tt.floor); got != tt.want {
				t.Errorf("scaleColor(%q) = %q, want %q", tt.hex, got, tt.want)
			}
		})
	}
}

func TestNewPalette_ModalFallbacks(t *testing.T) {
	base := &Theme{
		Bg:          "#101010",
		BgHighlight: "#202020",
		BgSelection: "#303030",
		Fg:          "#ffffff",
		FgMuted:     "#aaaaaa",
		Accent:      "#ff0000",
		Booked:      "#00ff00",
		Open:        "#0000ff",
		Current:     "#ffff00",
		Warning:     "#ff00ff",
	}

	palette := NewPalette(base)
	if palette.Modal.Bg != lipgloss.Color(base.BgHighlight) {
		t.Fatalf("Modal.Bg = %q, want %q", palette.Modal.Bg, base.BgHighlight)
	}
	if palette.Modal.Border.Dark != base.Accent {
		t.Fatalf("Modal.Border.Dark = %q, want %q", palette.Modal.Border.Dark, base.Accent)
	}
	if palette.Modal.Backdrop != lipgloss.Color(base.BgSelection) {
		t.Fatalf("Modal.Backdrop = %q, want %q", palette.Modal.Backdrop, base.BgSelection)
	}
}

func TestNewPalette_LightThemeInvertsShades(t *testing.T) {
	base := &Theme{
		Bg:          "#f5f5f5",
		BgHighlight: "#eeeeee",
		BgSelection: "#e0e0e0",
		Fg:          "#222222",
		FgMuted:     "#555555",
		Accent:      "#2f6feb",
		Booked:      "#1d8a8a",
		Open:        "#2f8f2f",
		Blocked:     "#8a8a8a",
		Conflict:    "#c62828",
		Current:     "#c97b00",
		Warning:     "#c2410c",
	}

	palette := NewPalette(base)
	if relativeLuminance(string(palette.BookedBg)) <= relativeLuminance(base.Booked) {
		t.Fatalf("BookedBg luminance = %f, want greater than Booked", relativeLuminance(string(palette.BookedBg)))
	}
	if relativeLuminance(string(palette.OpenBg)) <= relativeLuminance(base.Open) {
		t.Fatalf("OpenBg luminance = %f, want greater than Open", relativeLuminance(string(palette.OpenBg)))
	}
}

func TestChooseTextColorPrefersContrast(t *testing.T) {
	bg := "#f0f0f0"
	lightText := "#ffffff"
	darkText := "#111111"

	if got := chooseTextColor(bg, lightText, darkText); got != darkText {
		t.Fatalf("chooseTextColor(%q, %q, %q) = %q, want %q", bg, lightText, darkText, got, darkText)
	}
}
