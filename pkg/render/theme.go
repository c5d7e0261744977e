package render

import "github.com/charmbracelet/lipgloss"

// Theme defines the styles used for terminal echoes.
type Theme struct {
	Name   string
	Link   lipgloss.Style
	Header lipgloss.Style
	Border lipgloss.Style
	Muted  lipgloss.Style
}

// DefaultTheme returns a vibrant color theme.
func DefaultTheme() Theme {
	return Theme{
		Name:   "default",
		Link:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true), // blue
		Header: lipgloss.NewStyle().Bold(true),
		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("242")), // gray
		Muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	}
}

// OrcaTheme returns a muted, professional theme.
func OrcaTheme() Theme {
	return Theme{
		Name:   "orca",
		Link:   lipgloss.NewStyle().Foreground(lipgloss.Color("75")), // pale blue
		Header: lipgloss.NewStyle().Foreground(lipgloss.Color("108")).Bold(true),
		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("245")), // lighter gray
		Muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// MonoTheme returns a theme with no styling at all.
func MonoTheme() Theme {
	return Theme{
		Name:   "mono",
		Link:   lipgloss.NewStyle(),
		Header: lipgloss.NewStyle(),
		Border: lipgloss.NewStyle(),
		Muted:  lipgloss.NewStyle(),
	}
}

// ThemeByName returns a theme by name, defaulting to DefaultTheme.
func ThemeByName(name string) Theme {
	switch name {
	case "orca":
		return OrcaTheme()
	case "mono":
		return MonoTheme()
	default:
		return DefaultTheme()
	}
}
