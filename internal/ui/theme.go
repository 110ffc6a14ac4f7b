package ui

import (
	"image/color"

	"autoscripter/internal/settings"

	"charm.land/lipgloss/v2"
)

type Theme struct {
	Header         lipgloss.Style
	Status         lipgloss.Style
	PanelTitle     lipgloss.Style
	PanelBorder    lipgloss.Style
	FocusBorder    lipgloss.Style
	PanelBody      lipgloss.Style
	Overlay        lipgloss.Style
	OverlayTitle   lipgloss.Style
	Accent         lipgloss.Style
	Pass           lipgloss.Style
	Fail           lipgloss.Style
	Pending        lipgloss.Style
	Muted          lipgloss.Style
	Info           lipgloss.Style
	TerminalBorder lipgloss.Style

	Dark     bool
	BarStart color.Color
	BarEnd   color.Color
}

func DefaultTheme() Theme {
	return ThemeFor(settings.ThemeDark)
}

// ThemeFor maps a settings theme to a palette. Unknown names fall back to
// dark, since the settings store accepts any value.
func ThemeFor(theme settings.Theme) Theme {
	switch theme {
	case settings.ThemeLight:
		return lightTheme()
	case settings.ThemeMonokai:
		return monokaiTheme()
	case settings.ThemeNord:
		return nordTheme()
	default:
		return darkTheme()
	}
}

func darkTheme() Theme {
	amber := lipgloss.Color("#FFC857")
	mint := lipgloss.Color("#67F0A8")
	brick := lipgloss.Color("#FF6F91")
	ink := lipgloss.Color("#0E1420")
	slate := lipgloss.Color("#1B2740")
	powder := lipgloss.Color("#EAF2FF")
	blue := lipgloss.Color("#5EEBFF")
	border := lipgloss.Color("#4B5F8A")

	return Theme{
		Header: lipgloss.NewStyle().
			Background(ink).
			Foreground(powder).
			Padding(0, 1),
		Status: lipgloss.NewStyle().
			Background(slate).
			Foreground(powder).
			Padding(0, 1),
		PanelTitle: lipgloss.NewStyle().
			Foreground(blue).
			Bold(true),
		PanelBorder: lipgloss.NewStyle().
			Foreground(border),
		FocusBorder: lipgloss.NewStyle().
			Foreground(blue),
		PanelBody: lipgloss.NewStyle().
			Foreground(powder),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Background(ink).
			Foreground(powder).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().
			Foreground(blue).
			Bold(true),
		Accent: lipgloss.NewStyle().
			Foreground(blue).
			Bold(true),
		Pass: lipgloss.NewStyle().
			Foreground(mint).
			Bold(true),
		Fail: lipgloss.NewStyle().
			Foreground(brick).
			Bold(true),
		Pending: lipgloss.NewStyle().
			Foreground(amber),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CAAC6")),
		Info: lipgloss.NewStyle().
			Foreground(blue),
		TerminalBorder: lipgloss.NewStyle().
			Foreground(border),
		Dark:     true,
		BarStart: lipgloss.Color("#5EC2FF"),
		BarEnd:   lipgloss.Color("#79E6A6"),
	}
}

func lightTheme() Theme {
	honey := lipgloss.Color("#B7791F")
	sage := lipgloss.Color("#2F855A")
	rose := lipgloss.Color("#C53030")
	paper := lipgloss.Color("#F7F8FB")
	mist := lipgloss.Color("#E2E8F0")
	ink := lipgloss.Color("#1A202C")
	sky := lipgloss.Color("#2B6CB0")

	return Theme{
		Header:      lipgloss.NewStyle().Background(mist).Foreground(ink).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(mist).Foreground(ink).Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(sky).Bold(true),
		PanelBorder: lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0")),
		FocusBorder: lipgloss.NewStyle().Foreground(sky),
		PanelBody:   lipgloss.NewStyle().Foreground(ink),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(sky).
			Background(paper).
			Foreground(ink).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().Foreground(sky).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(sky).Bold(true),
		Pass:         lipgloss.NewStyle().Foreground(sage).Bold(true),
		Fail:         lipgloss.NewStyle().Foreground(rose).Bold(true),
		Pending:      lipgloss.NewStyle().Foreground(honey),
		Muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("#718096")),
		Info:         lipgloss.NewStyle().Foreground(sky),
		TerminalBorder: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A0AEC0")),
		BarStart: lipgloss.Color("#3182CE"),
		BarEnd:   lipgloss.Color("#38A169"),
	}
}

func monokaiTheme() Theme {
	yellow := lipgloss.Color("#E6DB74")
	green := lipgloss.Color("#A6E22E")
	pink := lipgloss.Color("#F92672")
	orange := lipgloss.Color("#FD971F")
	bg := lipgloss.Color("#272822")
	bar := lipgloss.Color("#3E3D32")
	fg := lipgloss.Color("#F8F8F2")
	cyan := lipgloss.Color("#66D9EF")

	return Theme{
		Header:      lipgloss.NewStyle().Background(bg).Foreground(fg).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(bar).Foreground(fg).Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(orange).Bold(true),
		PanelBorder: lipgloss.NewStyle().Foreground(lipgloss.Color("#75715E")),
		FocusBorder: lipgloss.NewStyle().Foreground(pink),
		PanelBody:   lipgloss.NewStyle().Foreground(fg),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(pink).
			Background(bg).
			Foreground(fg).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().Foreground(pink).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(cyan).Bold(true),
		Pass:         lipgloss.NewStyle().Foreground(green).Bold(true),
		Fail:         lipgloss.NewStyle().Foreground(pink).Bold(true),
		Pending:      lipgloss.NewStyle().Foreground(yellow),
		Muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("#75715E")),
		Info:         lipgloss.NewStyle().Foreground(cyan),
		TerminalBorder: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#49483E")),
		Dark:     true,
		BarStart: orange,
		BarEnd:   green,
	}
}

func nordTheme() Theme {
	frost := lipgloss.Color("#88C0D0")
	green := lipgloss.Color("#A3BE8C")
	red := lipgloss.Color("#BF616A")
	yellow := lipgloss.Color("#EBCB8B")
	night := lipgloss.Color("#2E3440")
	polar := lipgloss.Color("#3B4252")
	snow := lipgloss.Color("#ECEFF4")

	return Theme{
		Header:      lipgloss.NewStyle().Background(night).Foreground(snow).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(polar).Foreground(snow).Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(frost).Bold(true),
		PanelBorder: lipgloss.NewStyle().Foreground(lipgloss.Color("#4C566A")),
		FocusBorder: lipgloss.NewStyle().Foreground(frost),
		PanelBody:   lipgloss.NewStyle().Foreground(snow),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(frost).
			Background(night).
			Foreground(snow).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().Foreground(frost).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(lipgloss.Color("#81A1C1")).Bold(true),
		Pass:         lipgloss.NewStyle().Foreground(green).Bold(true),
		Fail:         lipgloss.NewStyle().Foreground(red).Bold(true),
		Pending:      lipgloss.NewStyle().Foreground(yellow),
		Muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("#7B88A1")),
		Info:         lipgloss.NewStyle().Foreground(frost),
		TerminalBorder: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#434C5E")),
		Dark:     true,
		BarStart: lipgloss.Color("#5E81AC"),
		BarEnd:   frost,
	}
}
