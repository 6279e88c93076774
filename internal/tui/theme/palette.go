// Package theme provides color themes for the TUI.
package theme

import (
	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Palette holds precomputed colors derived from a Theme.
type Palette struct {
	Bg          lipgloss.Color
	BgHighlight lipgloss.Color
	BgSelection lipgloss.Color
	Fg          lipgloss.Color
	FgMuted     lipgloss.Color
	Accent      lipgloss.Color
	Booked      lipgloss.Color
	Open        lipgloss.Color
	Blocked     lipgloss.Color
	Conflict    lipgloss.Color
	Warning     lipgloss.Color
	Current     lipgloss.Color

	// Session block backgrounds. Alt shades separate adjacent sessions.
	BookedBg     lipgloss.Color
	BookedBgAlt  lipgloss.Color
	BookedPastBg lipgloss.Color
	OpenBg       lipgloss.Color
	BlockedBg    lipgloss.Color
	ConflictBg   lipgloss.Color

	TextOnAccent   lipgloss.Color
	TextOnWarning  lipgloss.Color
	TextOnConflict lipgloss.Color
	TextOnBooked   lipgloss.Color
	TextOnOpen     lipgloss.Color

	Modal ModalColors
}

// ModalColors holds modal-specific colors derived from a Theme.
type ModalColors struct {
	Bg          lipgloss.Color
	Border      lipgloss.AdaptiveColor
	Text        lipgloss.AdaptiveColor
	Muted       lipgloss.AdaptiveColor
	Highlight   lipgloss.AdaptiveColor
	Panel       lipgloss.AdaptiveColor
	ReverseText lipgloss.AdaptiveColor
	Backdrop    lipgloss.Color
}

// NewPalette derives a Palette from the provided Theme.
func NewPalette(t *Theme) *Palette {
	if t == nil {
		t, _ = Load("mocha")
	}

	light := isLightTheme(t.Bg)
	bookedBg := blockBg(t.Booked, t.Bg, light)

	modal := t.Modal()
	modalBg := coalesce(modal.BaseBg, t.BgHighlight, t.Bg)
	modalText := coalesce(modal.TextPrimary, t.Fg)

	return &Palette{
		Bg:          lipgloss.Color(t.Bg),
		BgHighlight: lipgloss.Color(t.BgHighlight),
		BgSelection: lipgloss.Color(t.BgSelection),
		Fg:          lipgloss.Color(t.Fg),
		FgMuted:     lipgloss.Color(t.FgMuted),
		Accent:      lipgloss.Color(t.Accent),
		Booked:      lipgloss.Color(t.Booked),
		Open:        lipgloss.Color(t.Open),
		Blocked:     lipgloss.Color(t.Blocked),
		Conflict:    lipgloss.Color(t.Conflict),
		Warning:     lipgloss.Color(t.Warning),
		Current:     lipgloss.Color(t.Current),

		BookedBg:     lipgloss.Color(bookedBg),
		BookedBgAlt:  lipgloss.Color(alternateShade(bookedBg, light)),
		BookedPastBg: lipgloss.Color(pastBg(t.Booked, t.Bg, light)),
		OpenBg:       lipgloss.Color(pastBg(t.Open, t.Bg, light)),
		BlockedBg:    lipgloss.Color(pastBg(t.Blocked, t.Bg, light)),
		ConflictBg:   lipgloss.Color(blockBg(t.Conflict, t.Bg, light)),

		TextOnAccent:   lipgloss.Color(chooseTextColor(t.Accent, t.Bg, t.Fg)),
		TextOnWarning:  lipgloss.Color(chooseTextColor(t.Warning, t.Bg, t.Fg)),
		TextOnConflict: lipgloss.Color(chooseTextColor(t.Conflict, t.Bg, t.Fg)),
		TextOnBooked:   lipgloss.Color(chooseTextColor(bookedBg, t.Bg, t.Fg)),
		TextOnOpen:     lipgloss.Color(chooseTextColor(t.Open, t.Bg, t.Fg)),

		Modal: ModalColors{
			Bg:          lipgloss.Color(modalBg),
			Border:      adaptiveColor(coalesce(modal.ModalBorder, t.Accent)),
			Text:        adaptiveColor(modalText),
			Muted:       adaptiveColor(coalesce(modal.TextMuted, t.FgMuted)),
			Highlight:   adaptiveColor(coalesce(modal.Highlight, t.BgSelection, t.Accent)),
			Panel:       adaptiveColor(coalesce(t.BgSelection, t.BgHighlight, t.Bg)),
			ReverseText: lipgloss.AdaptiveColor{Dark: modalBg, Light: modalText},
			Backdrop:    lipgloss.Color(coalesce(t.BgSelection, t.BgHighlight, t.Bg)),
		},
	}
}

func isLightTheme(bg string) bool {
	return relativeLuminance(bg) > 0.55
}

// blockBg is the background of an active session block.
func blockBg(accent, bg string, light bool) string {
	if light {
		return blendColors(accent, bg, 0.75)
	}
	return scaleColor(accent, 0.50, 40)
}

// pastBg is the background of past sessions and secondary blocks.
func pastBg(accent, bg string, light bool) string {
	if light {
		return blendColors(accent, bg, 0.88)
	}
	return scaleColor(accent, 0.30, 30)
}

// scaleColor darkens hex by factor, keeping each channel at or above floor
// so blocks stay visible on dark backgrounds.
func scaleColor(hex string, factor float64, floor uint8) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	r, g, b := c.RGB255()
	scale := func(v uint8) uint8 {
		return max(uint8(float64(v)*factor), floor)
	}
	return colorful.Color{
		R: float64(scale(r)) / 255,
		G: float64(scale(g)) / 255,
		B: float64(scale(b)) / 255,
	}.Hex()
}

// alternateShade creates a subtle alternate shade for adjacent sessions.
func alternateShade(hex string, light bool) string {
	if light {
		return blendColors(hex, "#000000", 0.10)
	}
	return blendColors(hex, "#ffffff", 0.30)
}

func adaptiveColor(hex string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Dark: hex, Light: hex}
}

func chooseTextColor(bg, lightText, darkText string) string {
	if contrastRatio(bg, lightText) >= contrastRatio(bg, darkText) {
		return lightText
	}
	return darkText
}

func contrastRatio(a, b string) float64 {
	l1 := relativeLuminance(a)
	l2 := relativeLuminance(b)
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

func relativeLuminance(hex string) float64 {
	c, err := colorful.Hex(hex)
	if err != nil {
		return 0
	}
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// blendColors mixes a towards b by ratio in RGB space.
func blendColors(a, b string, ratio float64) string {
	ca, err := colorful.Hex(a)
	if err != nil {
		return a
	}
	cb, err := colorful.Hex(b)
	if err != nil {
		return a
	}
	ratio = min(max(ratio, 0), 1)
	return ca.BlendRgb(cb, ratio).Clamped().Hex()
}
