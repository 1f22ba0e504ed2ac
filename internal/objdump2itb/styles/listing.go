package styles

import (
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
)

// Listing styles used by the text rendering of an instruction table.
var (
	FunctionStyle = lipgloss.NewStyle().
			Foreground(charmtone.Zest).
			Bold(true)

	SourceStyle = lipgloss.NewStyle().
			Foreground(charmtone.Malibu)

	AnnotationStyle = lipgloss.NewStyle().
			Foreground(charmtone.Squid).
			Italic(true)

	AddressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4F4F4F"))

	OpcodeStyle = lipgloss.NewStyle().
			Foreground(charmtone.Smoke)

	MenuStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
)
