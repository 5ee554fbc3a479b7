package components

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/zonedash/internal/ui/theme"
)

// CardContentWidth is the widest content line that fits a Card of width.
func CardContentWidth(width int) int {
	return max(width-6, 4)
}

// Card wraps content in a rounded-border box with a title line. width is
// the outer width including the border.
func Card(title, content string, width int) string {
	body := content
	if title != "" {
		body = theme.Label.Render(strings.ToUpper(title)) + "\n" + content
	}
	return theme.Card.Width(max(width-2, 6)).Render(body)
}

// StatCard renders a single labeled value with an optional caption.
func StatCard(label, value, caption string, width int) string {
	content := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render(value)
	if caption != "" {
		content += "\n" + theme.Hint.Render(caption)
	}
	return Card(label, content, width)
}

// Row joins rendered blocks left to right with a one column gap.
func Row(blocks ...string) string {
	parts := make([]string, 0, 2*len(blocks))
	for i, b := range blocks {
		if i > 0 {
			parts = append(parts, " ")
		}
		parts = append(parts, b)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// Columns splits width into n equal columns separated by a one column gap.
func Columns(width, n int) int {
	if n <= 0 {
		return width
	}
	return max((width-(n-1))/n, 8)
}
