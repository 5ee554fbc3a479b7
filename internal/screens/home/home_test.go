package home

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/zonedash/internal/dashboard"
	"github.com/abhisek/zonedash/internal/record"
	"github.com/abhisek/zonedash/internal/stats"
	"github.com/abhisek/zonedash/internal/xp"
)

var testNow = time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)

// fakeProgressor records the windows asked for and returns a fixed series.
type fakeProgressor struct {
	asked  []int
	series xp.Series
	err    error
}

func (f *fakeProgressor) Progression(months int) (xp.Series, error) {
	f.asked = append(f.asked, months)
	return f.series, f.err
}

func threePoints() xp.Series {
	return xp.Series{
		Labels:     []string{"Jan 1", "Feb 1", "Mar 1"},
		Dates:      []time.Time{testNow.AddDate(0, -2, 0), testNow.AddDate(0, -1, 0), testNow},
		Cumulative: []int64{1000, 3000, 6000},
	}
}

func testSnapshot() *dashboard.Snapshot {
	ds := &record.Dataset{Profile: record.Profile{ID: 1, Login: "jdoe", FirstName: "Jane", LastName: "Doe"}}
	d := stats.Derived{
		TotalXP:            6000,
		TotalXPDisplay:     xp.Format(6000),
		ProjectsCompleted:  3,
		ProjectsTotal:      4,
		ProjectsPassed:     3,
		ProjectsFailed:     1,
		SuccessRatePercent: 75,
		Level:              12,
	}
	d.CurrentRank.Name = "Beginner Developer"
	return &dashboard.Snapshot{
		Generation:  1,
		Dataset:     ds,
		RangeMonths: 6,
		LoadedAt:    testNow,
		Stats:       dashboard.Widget[stats.Derived]{Value: d},
		XP:          dashboard.Widget[xp.Series]{Value: threePoints()},
		Outcomes:    dashboard.Widget[stats.ProjectCounts]{Value: stats.ProjectCounts{Total: 4, Completed: 3, Passed: 3}},
		Pending:     dashboard.Widget[[]stats.Project]{Value: []stats.Project{{Name: "groupie-tracker", Elapsed: "3 DAYS"}}},
	}
}

func newLoaded(t *testing.T, p Progressor) *HomeScreen {
	t.Helper()
	h := New(p, 6)
	h.now = func() time.Time { return testNow }
	h.Update(LoadedMsg{Snapshot: testSnapshot()})
	return h
}

func key(s string) tea.KeyPressMsg {
	switch s {
	case "left":
		return tea.KeyPressMsg{Code: tea.KeyLeft}
	case "right":
		return tea.KeyPressMsg{Code: tea.KeyRight}
	}
	r := []rune(s)[0]
	return tea.KeyPressMsg{Code: r, Text: s}
}

func TestStartsLoading(t *testing.T) {
	h := New(nil, 6)
	if !h.Loading() {
		t.Fatal("expected loading state before the first snapshot")
	}
	if !strings.Contains(h.View(100, 30), "Loading your data") {
		t.Error("expected the loading message")
	}
}

func TestLoadedShowsDashboard(t *testing.T) {
	h := newLoaded(t, nil)
	if h.Loading() {
		t.Error("expected loading cleared")
	}
	view := h.View(140, 200)
	for _, want := range []string{"TOTAL XP", "6.0 KB", "75%", "Jane Doe", "Beginner Developer", "groupie-tracker", "Mar 31, 2025: 6.0 KB"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view", want)
		}
	}
}

func TestLoadFailureWithoutSnapshot(t *testing.T) {
	h := New(nil, 6)
	h.Update(LoadFailedMsg{Message: "network down"})
	view := h.View(100, 30)
	if !strings.Contains(view, ErrorPrompt) || !strings.Contains(view, "network down") {
		t.Errorf("expected the error prompt, got:\n%s", view)
	}

	_, cmd := h.Update(key("r"))
	if cmd == nil {
		t.Fatal("expected a reload command")
	}
	if _, ok := cmd().(ReloadMsg); !ok {
		t.Error("expected ReloadMsg")
	}
}

func TestLoadFailureKeepsSnapshot(t *testing.T) {
	h := newLoaded(t, nil)
	h.Update(LoadingMsg{})
	h.Update(LoadFailedMsg{Message: "timeout"})
	if h.Snapshot() == nil {
		t.Fatal("snapshot should survive a failed reload")
	}
	view := h.View(140, 200)
	if !strings.Contains(view, "timeout") || !strings.Contains(view, "TOTAL XP") {
		t.Error("expected both the error banner and the previous data")
	}
}

func TestReloadIgnoredWhileLoading(t *testing.T) {
	h := New(nil, 6)
	if _, cmd := h.Update(key("r")); cmd != nil {
		t.Error("reload should be ignored while a load is in flight")
	}
}

func TestCursorMovesAndClamps(t *testing.T) {
	h := newLoaded(t, nil)
	if h.cursor != 2 {
		t.Fatalf("expected cursor on the newest point, got %d", h.cursor)
	}
	h.Update(key("right"))
	if h.cursor != 2 {
		t.Errorf("cursor should clamp at the end, got %d", h.cursor)
	}
	h.Update(key("left"))
	h.Update(key("left"))
	h.Update(key("left"))
	if h.cursor != 0 {
		t.Errorf("cursor should clamp at the start, got %d", h.cursor)
	}
	if !strings.Contains(h.View(140, 200), "Jan 31, 2025: 1.0 KB") {
		t.Error("expected the tooltip for the first point")
	}
}

func TestRangeKeyRecomputesProgression(t *testing.T) {
	p := &fakeProgressor{series: xp.Series{
		Labels:     []string{"Mar 1"},
		Dates:      []time.Time{testNow},
		Cumulative: []int64{500},
	}}
	h := newLoaded(t, p)

	_, cmd := h.Update(key("3"))
	if cmd == nil {
		t.Fatal("expected a command from the range key")
	}
	h.Update(cmd())

	if len(p.asked) != 1 || p.asked[0] != 3 {
		t.Fatalf("expected a 3 month recompute, got %v", p.asked)
	}
	if h.Months() != 3 {
		t.Errorf("expected 3 months selected, got %d", h.Months())
	}
	if h.series.Len() != 1 || h.cursor != 0 {
		t.Errorf("expected the new series with the cursor reset, got len %d cursor %d", h.series.Len(), h.cursor)
	}

	_, cmd = h.Update(key("a"))
	h.Update(cmd())
	if p.asked[len(p.asked)-1] != xp.AllTime.Months {
		t.Errorf("expected all time, got %v", p.asked)
	}
}

func TestRangeErrorShowsFallback(t *testing.T) {
	p := &fakeProgressor{err: errors.New("xp widget: boom")}
	h := newLoaded(t, p)
	_, cmd := h.Update(key("1"))
	h.Update(cmd())
	if !strings.Contains(h.View(140, 200), "Unable to display this widget") {
		t.Error("expected the widget fallback message")
	}
}

func TestWidgetFailureIsIsolated(t *testing.T) {
	h := New(nil, 6)
	snap := testSnapshot()
	snap.Skills.Err = errors.New("skills widget: bad data")
	h.Update(LoadedMsg{Snapshot: snap})

	view := h.View(140, 200)
	if !strings.Contains(view, "skills widget: bad data") {
		t.Error("expected the skills error")
	}
	if !strings.Contains(view, "TOTAL XP") {
		t.Error("other widgets should still render")
	}
}

func TestActionKeys(t *testing.T) {
	h := newLoaded(t, nil)
	tests := []struct {
		key  string
		want tea.Msg
	}{
		{"r", ReloadMsg{}},
		{"l", LogoutMsg{}},
		{"h", HistoryMsg{}},
	}
	for _, tt := range tests {
		_, cmd := h.Update(key(tt.key))
		if cmd == nil {
			t.Fatalf("%s: expected a command", tt.key)
		}
		if got := cmd(); got != tt.want {
			t.Errorf("%s: expected %T, got %T", tt.key, tt.want, got)
		}
	}
}

func TestScrollClamps(t *testing.T) {
	h := newLoaded(t, nil)
	for range 500 {
		h.Update(key("j"))
	}
	view := h.View(140, 20)
	if n := strings.Count(view, "\n") + 1; n != 20 {
		t.Errorf("expected 20 visible lines, got %d", n)
	}
	h.Update(key("k"))
	if h.scroll < 0 {
		t.Error("scroll went negative")
	}
}

func TestCachedSnapshotNotice(t *testing.T) {
	h := New(nil, 6)
	h.now = func() time.Time { return testNow.Add(2 * time.Hour) }
	snap := testSnapshot()
	snap.Cached = true
	h.Update(LoadedMsg{Snapshot: snap})
	if !strings.Contains(h.View(140, 200), "Showing saved data from 2 hours ago") {
		t.Error("expected the cached data notice")
	}
}
