// Package home is the dashboard screen shown after sign-in.
package home

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/zonedash/internal/dashboard"
	"github.com/abhisek/zonedash/internal/screen"
	"github.com/abhisek/zonedash/internal/ui/components"
	"github.com/abhisek/zonedash/internal/ui/layout"
	"github.com/abhisek/zonedash/internal/xp"
)

// LoadingMsg tells the screen a load has started.
type LoadingMsg struct{}

// LoadedMsg carries a newly published snapshot.
type LoadedMsg struct {
	Snapshot *dashboard.Snapshot
}

// LoadFailedMsg reports a failed load. The last snapshot, if any, stays on
// screen under the error.
type LoadFailedMsg struct {
	Message string
}

// ReloadMsg asks the app to load the dashboard again.
type ReloadMsg struct{}

// LogoutMsg asks the app to sign out.
type LogoutMsg struct{}

// HistoryMsg asks the app to show the load history.
type HistoryMsg struct{}

type rangeSelectedMsg struct {
	months int
}

// Progressor recomputes the XP series for a time window.
// *dashboard.Loader satisfies it.
type Progressor interface {
	Progression(months int) (xp.Series, error)
}

// HomeScreen renders the dashboard snapshot.
type HomeScreen struct {
	progress Progressor
	now      func() time.Time

	snap      *dashboard.Snapshot
	series    xp.Series
	seriesErr error
	months    int

	ranges  components.Menu
	cursor  int
	scroll  int
	loading bool
	errMsg  string
	spinner components.Spinner
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)

// New creates the dashboard screen. It starts in the loading state until a
// LoadedMsg or LoadFailedMsg arrives.
func New(progress Progressor, months int) *HomeScreen {
	h := &HomeScreen{
		progress: progress,
		now:      time.Now,
		months:   months,
		loading:  true,
		cursor:   -1,
		spinner:  components.NewSpinner("Loading your data..."),
	}
	h.ranges = newRangeTabs(months)
	return h
}

func newRangeTabs(months int) components.Menu {
	ranges := xp.Ranges()
	keys := []string{"1", "3", "6", "y", "a"}
	items := make([]components.MenuItem, 0, len(ranges))
	selected := 0
	for i, r := range ranges {
		if r.Months == months {
			selected = i
		}
		item := components.MenuItem{Label: r.Label}
		if i < len(keys) {
			item.Key = keys[i]
		}
		m := r.Months
		item.Action = func() tea.Cmd {
			return func() tea.Msg { return rangeSelectedMsg{months: m} }
		}
		items = append(items, item)
	}
	return components.NewTabs(items, selected)
}

func (h *HomeScreen) Init() tea.Cmd {
	if h.loading {
		return h.spinner.Tick()
	}
	return nil
}

func (h *HomeScreen) Title() string {
	return "Dashboard"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "1/3/6/y/a", Description: "Range"},
		{Key: "←→", Description: "Inspect"},
		{Key: "↑↓", Description: "Scroll"},
		{Key: "r", Description: "Reload"},
		{Key: "h", Description: "History"},
		{Key: "l", Description: "Logout"},
	}
}

// Snapshot returns the snapshot on screen, or nil.
func (h *HomeScreen) Snapshot() *dashboard.Snapshot {
	return h.snap
}

// Loading reports whether a load is in flight.
func (h *HomeScreen) Loading() bool {
	return h.loading
}

// Months returns the selected XP window.
func (h *HomeScreen) Months() int {
	return h.months
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadingMsg:
		wasLoading := h.loading
		h.loading = true
		h.errMsg = ""
		if wasLoading {
			return h, nil
		}
		return h, h.spinner.Tick()

	case LoadedMsg:
		h.loading = false
		h.errMsg = ""
		h.setSnapshot(msg.Snapshot)
		return h, nil

	case LoadFailedMsg:
		h.loading = false
		h.errMsg = msg.Message
		return h, nil

	case rangeSelectedMsg:
		h.selectRange(msg.months)
		return h, nil

	case tea.KeyMsg:
		return h.handleKey(msg)
	}

	if h.loading {
		var cmd tea.Cmd
		h.spinner, cmd = h.spinner.Update(msg)
		return h, cmd
	}
	return h, nil
}

func (h *HomeScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "r":
		if h.loading {
			return h, nil
		}
		return h, func() tea.Msg { return ReloadMsg{} }
	case "l":
		return h, func() tea.Msg { return LogoutMsg{} }
	case "h":
		return h, func() tea.Msg { return HistoryMsg{} }
	case "left":
		h.moveCursor(-1)
		return h, nil
	case "right":
		h.moveCursor(1)
		return h, nil
	case "home":
		h.cursor = 0
		return h, nil
	case "end":
		h.cursor = max(h.series.Len()-1, 0)
		return h, nil
	case "up", "k":
		h.scroll = max(h.scroll-1, 0)
		return h, nil
	case "down", "j":
		h.scroll++
		return h, nil
	case "pgup":
		h.scroll = max(h.scroll-10, 0)
		return h, nil
	case "pgdown":
		h.scroll += 10
		return h, nil
	}

	var cmd tea.Cmd
	h.ranges, cmd = h.ranges.Update(msg)
	return h, cmd
}

func (h *HomeScreen) setSnapshot(snap *dashboard.Snapshot) {
	h.snap = snap
	if snap == nil {
		return
	}
	h.months = snap.RangeMonths
	h.ranges = newRangeTabs(h.months)
	h.series, h.seriesErr = snap.XP.Value, snap.XP.Err
	h.cursor = h.series.Len() - 1
}

// selectRange recomputes the progression for months from the current
// snapshot without fetching.
func (h *HomeScreen) selectRange(months int) {
	h.months = months
	h.ranges = newRangeTabs(months)
	if h.snap == nil || h.progress == nil {
		return
	}
	h.series, h.seriesErr = h.progress.Progression(months)
	h.cursor = h.series.Len() - 1
}

func (h *HomeScreen) moveCursor(delta int) {
	n := h.series.Len()
	if n == 0 {
		return
	}
	h.cursor = min(max(h.cursor+delta, 0), n-1)
}

// scrollWindow returns the visible slice of content lines and clamps the
// scroll offset.
func (h *HomeScreen) scrollWindow(content string, height int) string {
	lines := strings.Split(content, "\n")
	if height <= 0 || len(lines) <= height {
		h.scroll = 0
		return content
	}
	h.scroll = min(h.scroll, len(lines)-height)
	return strings.Join(lines[h.scroll:h.scroll+height], "\n")
}
