package chart

import (
	"fmt"
	"math"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/zonedash/internal/skills"
	"github.com/abhisek/zonedash/internal/ui/theme"
)

// NoSkillsMessage is shown when there are no skills to plot.
const NoSkillsMessage = "No skills data available"

// RadarAxis is one skill axis. Angle starts at the top (-π/2) and turns
// clockwise; X and Y are the point on the unit circle scaled by Ratio.
type RadarAxis struct {
	Label string
	Value float64
	Ratio float64
	Angle float64
	X, Y  float64
}

// RadarView describes a skills radar chart.
type RadarView struct {
	Axes    []RadarAxis
	Max     float64
	Message string
}

// Radar lays out one axis per skill, scaled to the largest value.
func Radar(s skills.Series) RadarView {
	if s.Empty() {
		return RadarView{Message: NoSkillsMessage}
	}
	v := RadarView{Max: s.Max()}
	n := s.Len()
	for i := range n {
		angle := 2*math.Pi*float64(i)/float64(n) - math.Pi/2
		ratio := 0.0
		if v.Max > 0 {
			ratio = s.Values[i] / v.Max
		}
		v.Axes = append(v.Axes, RadarAxis{
			Label: s.Labels[i],
			Value: s.Values[i],
			Ratio: ratio,
			Angle: angle,
			X:     math.Cos(angle) * ratio,
			Y:     math.Sin(angle) * ratio,
		})
	}
	return v
}

// Empty reports whether there is nothing to plot.
func (v RadarView) Empty() bool {
	return len(v.Axes) == 0
}

// Render draws each axis as a horizontal bar, longest first.
func (v RadarView) Render(width int) string {
	if v.Empty() {
		return lipgloss.NewStyle().Foreground(theme.TextDim).Render(v.Message)
	}

	labelWidth := 0
	for _, a := range v.Axes {
		labelWidth = max(labelWidth, len(a.Label))
	}
	valueWidth := 6
	barWidth := max(width-labelWidth-valueWidth-2, 4)

	labelStyle := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	barStyle := lipgloss.NewStyle().Foreground(theme.Primary)
	restStyle := lipgloss.NewStyle().Foreground(theme.Border)
	valueStyle := lipgloss.NewStyle().Foreground(theme.TextDim)

	lines := make([]string, 0, len(v.Axes))
	for _, a := range v.Axes {
		filled := int(math.Round(a.Ratio * float64(barWidth)))
		lines = append(lines,
			labelStyle.Render(fmt.Sprintf("%-*s", labelWidth, a.Label))+" "+
				barStyle.Render(strings.Repeat("█", filled))+
				restStyle.Render(strings.Repeat("░", barWidth-filled))+" "+
				valueStyle.Render(fmt.Sprintf("%*s", valueWidth-1, formatSkill(a.Value))))
	}
	return strings.Join(lines, "\n")
}

func formatSkill(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d%%", int64(v))
	}
	return fmt.Sprintf("%.1f%%", v)
}
