package vis

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/colorfulnotion/a64map/mra"
)

// Legend renders every class name on its palette color.
func Legend(p Palette) string {
	parts := make([]string, 0, len(p.Colors))
	for id, c := range p.Colors {
		style := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color(HexString(c))).
			Padding(0, 1)
		parts = append(parts, style.Render(mra.IDToClass(uint8(id))))
	}
	return strings.Join(parts, " ")
}
