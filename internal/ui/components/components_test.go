package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

type pickedMsg struct{ label string }

func pick(label string) func() tea.Cmd {
	return func() tea.Cmd {
		return func() tea.Msg { return pickedMsg{label} }
	}
}

func rangeItems() []MenuItem {
	return []MenuItem{
		{Label: "1M", Key: "1", Action: pick("1M")},
		{Label: "3M", Key: "3", Action: pick("3M")},
		{Label: "All", Key: "a", Action: pick("All")},
	}
}

func TestTabsShortcut(t *testing.T) {
	m := NewTabs(rangeItems(), 0)
	m, cmd := m.Update(tea.KeyPressMsg{Code: 'a', Text: "a"})
	if m.Selected != 2 {
		t.Errorf("expected shortcut to select item 2, got %d", m.Selected)
	}
	if cmd == nil {
		t.Fatal("expected the item action")
	}
	if got := cmd().(pickedMsg); got.label != "All" {
		t.Errorf("expected All, got %q", got.label)
	}
}

func TestTabsIgnoreArrows(t *testing.T) {
	m := NewTabs(rangeItems(), 1)
	m, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if m.Selected != 1 || cmd != nil {
		t.Errorf("tabs should ignore arrows, selected %d", m.Selected)
	}
	if !strings.Contains(m.View(), "[3] 3M") {
		t.Error("expected key labels in the tab row")
	}
}

func TestMenuSkipsDisabled(t *testing.T) {
	items := rangeItems()
	items[1].Disabled = true
	m := NewMenu(items)

	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if m.Selected != 2 {
		t.Errorf("expected disabled item skipped, got %d", m.Selected)
	}
	if _, cmd := m.Update(tea.KeyPressMsg{Code: '3', Text: "3"}); cmd != nil {
		t.Error("disabled shortcut should not activate")
	}
	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should activate the selection")
	}
}

func TestProgressFilled(t *testing.T) {
	tests := []struct {
		percent float64
		want    int
	}{
		{0, 0},
		{50, 10},
		{100, 20},
		{150, 20},
		{-5, 0},
	}
	for _, tt := range tests {
		p := NewProgressBar("", tt.percent, false, 20)
		if got := p.Filled(20); got != tt.want {
			t.Errorf("Filled(%v) = %d, want %d", tt.percent, got, tt.want)
		}
	}
}

func TestProgressView(t *testing.T) {
	p := NewProgressBar("4/10", 40, true, 30)
	v := p.View()
	if !strings.Contains(v, "4/10") || !strings.Contains(v, "40%") {
		t.Errorf("unexpected bar: %q", v)
	}
	if w := lipgloss.Width(v); w > 30 {
		t.Errorf("bar wider than requested: %d", w)
	}
}

func TestCard(t *testing.T) {
	c := StatCard("total xp", "350 KB", "350,000 bytes", 30)
	for _, want := range []string{"TOTAL XP", "350 KB", "350,000 bytes"} {
		if !strings.Contains(c, want) {
			t.Errorf("expected %q in card", want)
		}
	}
	if w := lipgloss.Width(c); w > 30 {
		t.Errorf("card wider than requested: %d", w)
	}
}

func TestColumns(t *testing.T) {
	if got := Columns(100, 4); got != 24 {
		t.Errorf("Columns(100, 4) = %d", got)
	}
	if got := Columns(20, 4); got != 8 {
		t.Errorf("narrow columns should clamp, got %d", got)
	}
	if got := Columns(50, 0); got != 50 {
		t.Errorf("Columns(50, 0) = %d", got)
	}
}
