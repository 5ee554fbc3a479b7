package components

import (
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/zonedash/internal/ui/theme"
)

// Spinner wraps bubbles/spinner with a label.
type Spinner struct {
	Model spinner.Model
	Label string
}

// NewSpinner creates a spinner showing label next to the animation.
func NewSpinner(label string) Spinner {
	return Spinner{
		Model: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.Secondary)),
		),
		Label: label,
	}
}

// Tick starts the animation.
func (s Spinner) Tick() tea.Cmd {
	return s.Model.Tick
}

// Update advances the animation.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	var cmd tea.Cmd
	s.Model, cmd = s.Model.Update(msg)
	return s, cmd
}

// View renders the current frame and label.
func (s Spinner) View() string {
	return s.Model.View() + " " + lipgloss.NewStyle().Foreground(theme.TextDim).Render(s.Label)
}
