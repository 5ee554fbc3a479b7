package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/zonedash/internal/ui/theme"
)

// MenuItem represents a single item in a menu. Key is an optional
// shortcut that selects and activates the item directly.
type MenuItem struct {
	Label    string
	Key      string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a list of selectable items, rendered vertically or as a row of
// tabs.
type Menu struct {
	Items      []MenuItem
	Selected   int
	Horizontal bool
}

// NewMenu creates a new menu with the given items.
func NewMenu(items []MenuItem) Menu {
	selected := 0
	for i, item := range items {
		if !item.Disabled {
			selected = i
			break
		}
	}
	return Menu{
		Items:    items,
		Selected: selected,
	}
}

// NewTabs creates a horizontal menu.
func NewTabs(items []MenuItem, selected int) Menu {
	m := NewMenu(items)
	m.Horizontal = true
	m.Select(selected)
	return m
}

// Select moves the selection to i if it is a valid, enabled item.
func (m *Menu) Select(i int) {
	if i >= 0 && i < len(m.Items) && !m.Items[i].Disabled {
		m.Selected = i
	}
}

// Update handles keyboard navigation. Shortcut keys select and activate
// their item; arrows only move when the menu is vertical.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	key := kmsg.String()

	for i, item := range m.Items {
		if item.Key != "" && item.Key == key && !item.Disabled {
			m.Selected = i
			return m, m.activate()
		}
	}

	if m.Horizontal {
		return m, nil
	}

	switch key {
	case "up", "k":
		for i := m.Selected - 1; i >= 0; i-- {
			if !m.Items[i].Disabled {
				m.Selected = i
				break
			}
		}
	case "down", "j":
		for i := m.Selected + 1; i < len(m.Items); i++ {
			if !m.Items[i].Disabled {
				m.Selected = i
				break
			}
		}
	case "enter":
		return m, m.activate()
	}

	return m, nil
}

func (m Menu) activate() tea.Cmd {
	if m.Selected < 0 || m.Selected >= len(m.Items) {
		return nil
	}
	item := m.Items[m.Selected]
	if item.Action == nil || item.Disabled {
		return nil
	}
	return item.Action()
}

// View renders the menu.
func (m Menu) View() string {
	if m.Horizontal {
		parts := make([]string, 0, len(m.Items))
		for i, item := range m.Items {
			label := item.Label
			if item.Key != "" {
				label = "[" + item.Key + "] " + label
			}
			if i == m.Selected {
				parts = append(parts, theme.ButtonActive.Render(label))
			} else {
				parts = append(parts, theme.ButtonInactive.Render(label))
			}
		}
		return strings.Join(parts, " ")
	}

	var s string
	for i, item := range m.Items {
		if i == m.Selected {
			s += lipgloss.NewStyle().
				Foreground(theme.Primary).
				Bold(true).
				Render("  ▸ "+item.Label) + "\n"
		} else {
			s += lipgloss.NewStyle().
				Foreground(theme.Text).
				Render("    "+item.Label) + "\n"
		}
	}
	return s
}
