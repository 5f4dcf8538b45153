package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/nexus/internal/settings"
)

type palette struct {
	primary   lipgloss.Color
	secondary lipgloss.Color
	accent    lipgloss.Color
	muted     lipgloss.Color
	success   lipgloss.Color
	warning   lipgloss.Color
	err       lipgloss.Color
	fg        lipgloss.Color
	subtle    lipgloss.Color
	highlight lipgloss.Color
}

var darkPalette = palette{
	primary:   lipgloss.Color("#6C63FF"),
	secondary: lipgloss.Color("#2EC4B6"),
	accent:    lipgloss.Color("#FF6B6B"),
	muted:     lipgloss.Color("#666666"),
	success:   lipgloss.Color("#2ECC71"),
	warning:   lipgloss.Color("#F39C12"),
	err:       lipgloss.Color("#E74C3C"),
	fg:        lipgloss.Color("#C0CAF5"),
	subtle:    lipgloss.Color("#414868"),
	highlight: lipgloss.Color("#7AA2F7"),
}

var lightPalette = palette{
	primary:   lipgloss.Color("#4B44CC"),
	secondary: lipgloss.Color("#14897E"),
	accent:    lipgloss.Color("#D64545"),
	muted:     lipgloss.Color("#8A8A8A"),
	success:   lipgloss.Color("#1E8E4E"),
	warning:   lipgloss.Color("#B96F00"),
	err:       lipgloss.Color("#C0392B"),
	fg:        lipgloss.Color("#24283B"),
	subtle:    lipgloss.Color("#C8CCDA"),
	highlight: lipgloss.Color("#2E5CB8"),
}

// styles is the rendered look for one combination of theme and background.
type styles struct {
	pal palette

	activeTab   lipgloss.Style
	inactiveTab lipgloss.Style

	panel       lipgloss.Style
	activePanel lipgloss.Style
	banner      lipgloss.Style

	big       lipgloss.Style
	title     lipgloss.Style
	subtitle  lipgloss.Style
	accent    lipgloss.Style
	success   lipgloss.Style
	warning   lipgloss.Style
	err       lipgloss.Style
	muted     lipgloss.Style
	highlight lipgloss.Style

	header lipgloss.Style
	footer lipgloss.Style

	selectedItem lipgloss.Style
	normalItem   lipgloss.Style

	gradient []lipgloss.Color
}

// gradientSteps is how many colors the background strip is drawn with.
const gradientSteps = 24

func newStyles(s settings.Settings) styles {
	p := darkPalette
	if !s.Dark {
		p = lightPalette
	}

	var grad []lipgloss.Color
	for _, hex := range settings.Palette(s.Background, gradientSteps) {
		grad = append(grad, lipgloss.Color(hex))
	}

	// Text drawn on the background strip follows the contrast rule, not the
	// theme.
	bannerFg := lipgloss.Color("#1A1B26")
	if s.UseLightText {
		bannerFg = lipgloss.Color("#FFFFFF")
	}

	return styles{
		pal: p,

		activeTab: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.primary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(p.primary).
			Padding(0, 2),
		inactiveTab: lipgloss.NewStyle().
			Foreground(p.muted).
			Padding(0, 2),

		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.subtle).
			Padding(0, 1),
		activePanel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.primary).
			Padding(0, 1),
		banner: lipgloss.NewStyle().
			Bold(true).
			Foreground(bannerFg),

		big: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.primary),
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.fg),
		subtitle:  lipgloss.NewStyle().Foreground(p.muted),
		accent:    lipgloss.NewStyle().Foreground(p.accent),
		success:   lipgloss.NewStyle().Foreground(p.success),
		warning:   lipgloss.NewStyle().Foreground(p.warning),
		err:       lipgloss.NewStyle().Foreground(p.err),
		muted:     lipgloss.NewStyle().Foreground(p.muted),
		highlight: lipgloss.NewStyle().Foreground(p.highlight),

		header: lipgloss.NewStyle().Padding(0, 1),
		footer: lipgloss.NewStyle().
			Foreground(p.muted).
			Padding(0, 1),

		selectedItem: lipgloss.NewStyle().
			Foreground(p.primary).
			Bold(true),
		normalItem: lipgloss.NewStyle().Foreground(p.fg),

		gradient: grad,
	}
}

// strip paints text over the background gradient, one color per column band.
func (st styles) strip(text string, width int) string {
	if width <= 0 || len(st.gradient) == 0 {
		return text
	}
	runes := []rune(text)
	pad := max(0, (width-len(runes))/2)
	line := make([]rune, width)
	for i := range line {
		line[i] = ' '
		if j := i - pad; j >= 0 && j < len(runes) {
			line[i] = runes[j]
		}
	}

	var b strings.Builder
	for i, r := range line {
		c := st.gradient[i*len(st.gradient)/width]
		b.WriteString(st.banner.Background(c).Render(string(r)))
	}
	return b.String()
}
