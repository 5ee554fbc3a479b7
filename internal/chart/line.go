// Package chart turns derived series into chart descriptions and renders
// them as terminal text. Building a view is pure; rendering only adds
// styling.
package chart

import (
	"math"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/zonedash/internal/ui/theme"
	"github.com/abhisek/zonedash/internal/xp"
)

// YTickIntervals is the number of intervals on the y axis; the axis gets
// one more label than this.
const YTickIntervals = 5

// MaxXLabels caps the x axis labels before thinning.
const MaxXLabels = 10

const (
	yAxisWidth = 9 // "999.9 KB " plus the axis rune
	xLabelGap  = 2
)

// Tick is an axis label at a cell position.
type Tick struct {
	Pos   int
	Label string
}

// LinePoint is one point of the progression, scaled to plot cells. Row 0
// is the bottom of the plot.
type LinePoint struct {
	Col   int
	Row   int
	Label string
	Date  time.Time
	Value int64
}

// LineView describes a cumulative line chart.
type LineView struct {
	PlotWidth  int
	PlotHeight int
	Max        int64
	Points     []LinePoint
	YTicks     []Tick
	XLabels    []Tick
	Message    string
}

// NoDataMessage is shown for an empty progression window.
const NoDataMessage = "No XP data available for this time range"

// Line scales s into a plot of width x height cells including axes and the
// tooltip line.
func Line(s xp.Series, width, height int) LineView {
	v := LineView{
		PlotWidth:  max(width-yAxisWidth, 4),
		PlotHeight: max(height-3, 2), // x axis, x labels, tooltip
	}
	if s.Empty() {
		v.Message = NoDataMessage
		return v
	}
	v.Max = s.Max()

	n := s.Len()
	for i := range n {
		col := 0
		if n > 1 {
			col = int(math.Round(float64(i) * float64(v.PlotWidth-1) / float64(n-1)))
		}
		row := 0
		if v.Max > 0 {
			row = int(math.Round(float64(s.Cumulative[i]) / float64(v.Max) * float64(v.PlotHeight-1)))
		}
		v.Points = append(v.Points, LinePoint{
			Col:   col,
			Row:   row,
			Label: s.Labels[i],
			Date:  s.Dates[i],
			Value: s.Cumulative[i],
		})
	}

	for k := 0; k <= YTickIntervals; k++ {
		frac := float64(k) / YTickIntervals
		v.YTicks = append(v.YTicks, Tick{
			Pos:   int(math.Round(frac * float64(v.PlotHeight-1))),
			Label: xp.Format(int64(math.Round(frac * float64(v.Max)))),
		})
	}

	v.XLabels = thinLabels(v.Points, v.PlotWidth)
	return v
}

// thinLabels keeps every step-th label so labels fit the plot width and
// there are at most about MaxXLabels of them.
func thinLabels(points []LinePoint, plotWidth int) []Tick {
	n := len(points)
	if n == 0 {
		return nil
	}
	labelWidth := 0
	for _, p := range points {
		labelWidth = max(labelWidth, len(p.Label))
	}
	fit := max(plotWidth/(labelWidth+xLabelGap), 1)
	step := max(1, n/MaxXLabels, (n+fit-1)/fit)

	var ticks []Tick
	next := 0
	for i := 0; i < n; i += step {
		p := points[i]
		if p.Col < next {
			continue
		}
		ticks = append(ticks, Tick{Pos: p.Col, Label: p.Label})
		next = p.Col + len(p.Label) + xLabelGap
	}
	return ticks
}

// Empty reports whether there is nothing to plot.
func (v LineView) Empty() bool {
	return len(v.Points) == 0
}

// ClampCursor keeps cursor within the points.
func (v LineView) ClampCursor(cursor int) int {
	return min(max(cursor, 0), max(len(v.Points)-1, 0))
}

// Tooltip describes the point under cursor.
func (v LineView) Tooltip(cursor int) string {
	if v.Empty() {
		return ""
	}
	p := v.Points[v.ClampCursor(cursor)]
	return p.Date.Format("Jan 2, 2006") + ": " + xp.Format(p.Value)
}

// Render draws the chart. cursor selects the highlighted point; pass -1
// for none.
func (v LineView) Render(cursor int) string {
	if v.Empty() {
		return lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Width(v.PlotWidth + yAxisWidth).
			Align(lipgloss.Center).
			Render(v.Message)
	}

	grid := make([][]rune, v.PlotHeight)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", v.PlotWidth))
	}
	set := func(col, row int, ch rune) {
		if row >= 0 && row < v.PlotHeight && col >= 0 && col < v.PlotWidth {
			grid[v.PlotHeight-1-row][col] = ch
		}
	}

	for i := 1; i < len(v.Points); i++ {
		a, b := v.Points[i-1], v.Points[i]
		for col := a.Col + 1; col < b.Col; col++ {
			t := float64(col-a.Col) / float64(b.Col-a.Col)
			set(col, int(math.Round(float64(a.Row)+t*float64(b.Row-a.Row))), '·')
		}
	}
	for _, p := range v.Points {
		set(p.Col, p.Row, '•')
	}

	selected := -1
	if cursor >= 0 {
		selected = v.ClampCursor(cursor)
	}

	lineStyle := lipgloss.NewStyle().Foreground(theme.Secondary)
	cursorStyle := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	axisStyle := lipgloss.NewStyle().Foreground(theme.TextDim)

	tickAt := make(map[int]string, len(v.YTicks))
	for _, t := range v.YTicks {
		tickAt[t.Pos] = t.Label
	}

	var b strings.Builder
	for r := 0; r < v.PlotHeight; r++ {
		row := v.PlotHeight - 1 - r
		label := tickAt[row]
		b.WriteString(axisStyle.Render(padLeft(label, yAxisWidth-1) + "│"))

		line := grid[r]
		if selected >= 0 && v.Points[selected].Row == row {
			c := v.Points[selected].Col
			b.WriteString(lineStyle.Render(string(line[:c])))
			b.WriteString(cursorStyle.Render("●"))
			b.WriteString(lineStyle.Render(string(line[c+1:])))
		} else {
			b.WriteString(lineStyle.Render(string(line)))
		}
		b.WriteByte('\n')
	}

	b.WriteString(axisStyle.Render(strings.Repeat(" ", yAxisWidth-1) + "└" + strings.Repeat("─", v.PlotWidth)))
	b.WriteByte('\n')

	labels := []rune(strings.Repeat(" ", v.PlotWidth))
	for _, t := range v.XLabels {
		for i, ch := range t.Label {
			if t.Pos+i < len(labels) {
				labels[t.Pos+i] = ch
			}
		}
	}
	b.WriteString(axisStyle.Render(strings.Repeat(" ", yAxisWidth) + string(labels)))

	if selected >= 0 {
		b.WriteByte('\n')
		b.WriteString(strings.Repeat(" ", yAxisWidth))
		b.WriteString(cursorStyle.Render(v.Tooltip(selected)))
	}
	return b.String()
}

func padLeft(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return strings.Repeat(" ", width-n) + s
	}
	return s
}
