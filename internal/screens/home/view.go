package home

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/dustin/go-humanize"

	"github.com/abhisek/zonedash/internal/chart"
	"github.com/abhisek/zonedash/internal/record"
	"github.com/abhisek/zonedash/internal/stats"
	"github.com/abhisek/zonedash/internal/ui/components"
	"github.com/abhisek/zonedash/internal/ui/layout"
	"github.com/abhisek/zonedash/internal/ui/theme"
	"github.com/abhisek/zonedash/internal/xp"
)

const (
	// ErrorPrompt is shown when a load fails.
	ErrorPrompt = "Error loading data. Please try again."

	chartHeight = 14
	maxPending  = 5
)

func (h *HomeScreen) View(width, height int) string {
	if h.snap == nil {
		if h.errMsg != "" {
			return renderError(width, height, h.errMsg)
		}
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, h.spinner.View())
	}

	var sections []string
	if banner := h.renderStatus(); banner != "" {
		sections = append(sections, banner)
	}
	sections = append(sections, h.renderDashboard(width)...)

	return h.scrollWindow(strings.Join(sections, "\n"), height)
}

func (h *HomeScreen) renderStatus() string {
	switch {
	case h.loading:
		s := h.spinner
		s.Label = "Reloading dashboard data..."
		return s.View()
	case h.errMsg != "":
		return theme.ErrorText.Render(ErrorPrompt+" "+h.errMsg) + "  " +
			theme.Hint.Render("press r to reload")
	case h.snap.Cached:
		return theme.Hint.Render("Showing saved data from " + humanize.RelTime(h.snap.LoadedAt, h.now(), "ago", "from now"))
	}
	return ""
}

func renderError(width, height int, msg string) string {
	content := theme.ErrorText.Render(ErrorPrompt) + "\n\n" +
		theme.Hint.Render(msg) + "\n\n" +
		lipgloss.NewStyle().Foreground(theme.Text).Render("Press r to reload or l to log out.")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Align(lipgloss.Center).Render(content))
}

func (h *HomeScreen) renderDashboard(width int) []string {
	compact := layout.IsCompactWidth(width)
	snap := h.snap

	var rows []string

	// Headline numbers.
	if snap.Stats.OK() {
		rows = append(rows, h.renderStatCards(snap.Stats.Value, width, compact))
	} else {
		rows = append(rows, components.Card("Stats", unavailable(snap.Stats.Err), width))
	}

	col := components.Columns(width, 3)
	if compact {
		col = width
	}

	// Profile, rank and current project.
	profile := h.renderProfile(col)
	if snap.Stats.OK() {
		d := snap.Stats.Value
		rows = append(rows, row(compact, profile, renderRank(d, col), renderCurrentProject(d.CurrentProject, col)))
	} else {
		rows = append(rows, profile)
	}

	// XP progression.
	rows = append(rows, h.renderProgression(width))

	// Skills and the two donuts.
	rows = append(rows, row(compact,
		components.Card("Skills", widgetOr(snap.Skills.Err, func() string {
			return chart.Radar(snap.Skills.Value).Render(components.CardContentWidth(col))
		}), col),
		components.Card("Audits", widgetOr(snap.Audit.Err, func() string {
			return chart.AuditDonut(snap.Audit.Value).Render(components.CardContentWidth(col))
		}), col),
		components.Card("Project results", widgetOr(snap.Outcomes.Err, func() string {
			return chart.OutcomeDonut(snap.Outcomes.Value).Render(components.CardContentWidth(col))
		}), col),
	))

	// Pending projects and recent activity.
	col = components.Columns(width, 2)
	if compact {
		col = width
	}
	pending := components.Card("Pending projects", widgetOr(snap.Pending.Err, func() string {
		return renderPending(snap.Pending.Value)
	}), col)
	activity := components.Card("Recent activity", widgetOr(snap.Stats.Err, func() string {
		return h.renderActivity(snap.Stats.Value.RecentActivity)
	}), col)
	rows = append(rows, row(compact, pending, activity))

	return rows
}

// row lays blocks side by side, or stacks them on narrow terminals.
func row(compact bool, blocks ...string) string {
	if compact {
		return lipgloss.JoinVertical(lipgloss.Left, blocks...)
	}
	return components.Row(blocks...)
}

func (h *HomeScreen) renderStatCards(d stats.Derived, width int, compact bool) string {
	n := 4
	if compact {
		n = 2
	}
	col := components.Columns(width, n)
	cards := []string{
		components.StatCard("Total XP", d.TotalXPDisplay, humanize.Comma(d.TotalXP)+" bytes", col),
		components.StatCard("Projects completed", fmt.Sprint(d.ProjectsCompleted), fmt.Sprintf("of %d projects", d.ProjectsTotal), col),
		components.StatCard("Success rate", fmt.Sprintf("%d%%", d.SuccessRatePercent), fmt.Sprintf("%d passed, %d failed", d.ProjectsPassed, d.ProjectsFailed), col),
		components.StatCard("Audit ratio", d.Audit.String(), "done "+xp.Format(d.Audit.Done)+" / received "+xp.Format(d.Audit.Received), col),
	}
	if compact {
		return lipgloss.JoinVertical(lipgloss.Left, components.Row(cards[:2]...), components.Row(cards[2:]...))
	}
	return components.Row(cards...)
}

func (h *HomeScreen) renderProfile(width int) string {
	p := h.snap.Dataset.Profile
	avatar := theme.ButtonActive.Render(p.Initial())
	name := theme.Value.Render(p.FullName())

	lines := []string{
		avatar + " " + name,
		theme.Hint.Render("@" + p.Login),
		"",
		field("Email", p.Email),
		field("Phone", p.Phone),
		field("Country", p.Country),
	}
	return components.Card("Profile", strings.Join(lines, "\n"), width)
}

func field(label, value string) string {
	return theme.Label.Render(label+": ") + theme.Body.Render(record.Field(value))
}

func renderRank(d stats.Derived, width int) string {
	lines := []string{
		theme.Value.Render(d.CurrentRank.Name),
		theme.Body.Render(fmt.Sprintf("Level %d", d.Level)),
		"",
	}

	label := "MAX"
	if d.LevelsInRank > 0 {
		label = fmt.Sprintf("%d/%d", d.LevelInRank, d.LevelsInRank)
	}
	lines = append(lines, components.NewProgressBar(label, d.ProgressPct, true, components.CardContentWidth(width)).View())

	if d.NextRank != nil {
		lines = append(lines, theme.Hint.Render(fmt.Sprintf("Next: %s at level %d", d.NextRank.Name, d.NextRank.MinLevel)))
	} else {
		lines = append(lines, theme.Hint.Render("Highest rank reached"))
	}
	return components.Card("Rank", strings.Join(lines, "\n"), width)
}

func renderCurrentProject(p *stats.Project, width int) string {
	if p == nil {
		return components.Card("Current project", theme.Hint.Render("No projects yet"), width)
	}
	status := theme.Passed.Render("DONE")
	if !p.Done {
		status = lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render("IN PROGRESS")
	}
	lines := []string{
		theme.Value.Render(p.Name),
		status,
		theme.Hint.Render("started " + p.Elapsed + " ago"),
	}
	return components.Card("Current project", strings.Join(lines, "\n"), width)
}

func (h *HomeScreen) renderProgression(width int) string {
	title := "XP progression · " + xp.RangeFor(h.months).Label
	if h.seriesErr != nil {
		return components.Card(title, h.ranges.View()+"\n\n"+unavailable(h.seriesErr), width)
	}
	line := chart.Line(h.series, components.CardContentWidth(width), chartHeight)
	return components.Card(title, h.ranges.View()+"\n\n"+line.Render(h.cursor), width)
}

func renderPending(projects []stats.Project) string {
	if len(projects) == 0 {
		return theme.Hint.Render("No pending projects")
	}
	var lines []string
	for i, p := range projects {
		if i == maxPending {
			lines = append(lines, theme.Hint.Render(fmt.Sprintf("and %d more", len(projects)-maxPending)))
			break
		}
		lines = append(lines, theme.Body.Render(p.Name)+"  "+theme.Hint.Render(p.Elapsed))
	}
	return strings.Join(lines, "\n")
}

func (h *HomeScreen) renderActivity(items []stats.Activity) string {
	if len(items) == 0 {
		return theme.Hint.Render("No recent activity")
	}
	now := h.now()
	lines := make([]string, 0, len(items))
	for _, a := range items {
		lines = append(lines,
			theme.Body.Render(a.Name)+"  "+
				lipgloss.NewStyle().Foreground(theme.Secondary).Render("+"+xp.Format(a.Amount))+"  "+
				theme.Hint.Render(humanize.RelTime(a.CreatedAt, now, "ago", "from now")))
	}
	return strings.Join(lines, "\n")
}

func widgetOr(err error, render func() string) string {
	if err != nil {
		return unavailable(err)
	}
	return render()
}

func unavailable(err error) string {
	return theme.ErrorText.Render("Unable to display this widget") + "\n" + theme.Hint.Render(err.Error())
}
