package chart

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/zonedash/internal/stats"
	"github.com/abhisek/zonedash/internal/ui/theme"
	"github.com/abhisek/zonedash/internal/xp"
)

// NoAuditMessage is shown when neither audits done nor received exist.
const NoAuditMessage = "No audit data available"

// NoProjectsMessage is shown when there are no project results.
const NoProjectsMessage = "No project results yet"

// Slice is one input value of a donut.
type Slice struct {
	Label string
	Value float64
	Text  string // legend value; defaults to the number
	Color color.Color
}

// DonutSlice is a laid-out slice. Angles are in radians, clockwise from
// the top.
type DonutSlice struct {
	Slice
	Ratio      float64
	StartAngle float64
	EndAngle   float64
}

// Percent returns the slice share rounded to a whole percent.
func (s DonutSlice) Percent() int {
	return int(math.Round(s.Ratio * 100))
}

// DonutView describes a donut chart.
type DonutView struct {
	Slices  []DonutSlice
	Total   float64
	Center  string
	Caption string
	Message string
}

// Donut lays out slices proportionally. A zero total yields an empty view
// with message.
func Donut(center, caption, message string, slices ...Slice) DonutView {
	v := DonutView{Center: center, Caption: caption}
	for _, s := range slices {
		if s.Value > 0 {
			v.Total += s.Value
		}
	}
	if v.Total <= 0 {
		v.Message = message
		return v
	}

	angle := 0.0
	for _, s := range slices {
		value := math.Max(s.Value, 0)
		ratio := value / v.Total
		end := angle + ratio*2*math.Pi
		v.Slices = append(v.Slices, DonutSlice{Slice: s, Ratio: ratio, StartAngle: angle, EndAngle: end})
		angle = end
	}
	return v
}

// AuditDonut shows audits done against received with the ratio in the
// centre.
func AuditDonut(a stats.Audit) DonutView {
	return Donut(a.String(), "Done/Received", NoAuditMessage,
		Slice{Label: "DONE", Value: float64(a.Done), Text: xp.Format(a.Done), Color: theme.Secondary},
		Slice{Label: "RECEIVED", Value: float64(a.Received), Text: xp.Format(a.Received), Color: theme.Primary},
	)
}

// OutcomeDonut shows passed against failed projects with the success rate
// in the centre.
func OutcomeDonut(c stats.ProjectCounts) DonutView {
	failed := c.Total - c.Passed
	return Donut(fmt.Sprintf("%d%%", c.SuccessRate()), "Success rate", NoProjectsMessage,
		Slice{Label: "PASS", Value: float64(c.Passed), Color: theme.Success},
		Slice{Label: "FAIL", Value: float64(failed), Color: theme.Error},
	)
}

// Empty reports whether there is nothing to plot.
func (v DonutView) Empty() bool {
	return len(v.Slices) == 0
}

// Render draws the donut as a proportional ring bar followed by the centre
// value and a legend.
func (v DonutView) Render(width int) string {
	if v.Empty() {
		return lipgloss.NewStyle().Foreground(theme.TextDim).Render(v.Message)
	}
	barWidth := max(width, 8)

	var ring strings.Builder
	used := 0
	for i, s := range v.Slices {
		n := int(math.Round(s.Ratio * float64(barWidth)))
		if i == len(v.Slices)-1 {
			n = barWidth - used
		}
		n = min(max(n, 0), barWidth-used)
		used += n
		ring.WriteString(lipgloss.NewStyle().Foreground(s.Color).Render(strings.Repeat("█", n)))
	}

	center := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render(v.Center) +
		"  " + lipgloss.NewStyle().Foreground(theme.TextDim).Render(v.Caption)

	legend := make([]string, 0, len(v.Slices))
	for _, s := range v.Slices {
		text := s.Text
		if text == "" {
			text = fmt.Sprintf("%g", s.Value)
		}
		legend = append(legend,
			lipgloss.NewStyle().Foreground(s.Color).Render("■")+" "+
				lipgloss.NewStyle().Foreground(theme.Text).Render(fmt.Sprintf("%s (%s, %d%%)", s.Label, text, s.Percent())))
	}

	return ring.String() + "\n" + center + "\n" + strings.Join(legend, "   ")
}
