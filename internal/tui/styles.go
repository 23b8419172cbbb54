package tui

import (
	"github.com/charmbracelet/lipgloss"

	"preupgrade/internal/reportview"
)

// Styles is the colour scheme of the viewer.
type Styles struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Selected lipgloss.Style
	Label    lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
	Help     lipgloss.Style
	HelpKey  lipgloss.Style
	Rule     lipgloss.Style

	Danger  lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Muted   lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true),
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
		Selected: lipgloss.NewStyle().Reverse(true),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color("110")),
		Status:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		Help:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		HelpKey:  lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		Rule:     lipgloss.NewStyle().Foreground(lipgloss.Color("238")),

		Danger:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
	}
}

// Tone maps a cell tone onto its style.
func (s Styles) Tone(t reportview.Tone) lipgloss.Style {
	switch t {
	case reportview.ToneDanger:
		return s.Danger
	case reportview.ToneWarning:
		return s.Warning
	case reportview.ToneInfo:
		return s.Info
	case reportview.ToneMuted:
		return s.Muted
	}
	return lipgloss.NewStyle()
}
