// Package history lists recent dashboard loads from the local load log.
package history

import (
	"context"
	"fmt"
	"image/color"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/dustin/go-humanize"

	"github.com/abhisek/zonedash/internal/router"
	"github.com/abhisek/zonedash/internal/screen"
	"github.com/abhisek/zonedash/internal/store"
	"github.com/abhisek/zonedash/internal/ui/layout"
	"github.com/abhisek/zonedash/internal/ui/theme"
)

// DefaultLimit is the number of loads shown.
const DefaultLimit = 50

// LoadLister reads load events, newest first. store.EventRepo satisfies it.
type LoadLister interface {
	QueryLoads(ctx context.Context, opts store.QueryOpts) ([]store.LoadEvent, error)
}

type historyLoadedMsg struct {
	Loads []store.LoadEvent
	Err   error
}

// HistoryScreen displays past dashboard loads.
type HistoryScreen struct {
	events   LoadLister
	now      func() time.Time
	loads    []store.LoadEvent
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(events LoadLister) *HistoryScreen {
	return &HistoryScreen{
		events:   events,
		now:      time.Now,
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return func() tea.Msg {
		loads, err := s.events.QueryLoads(context.Background(), store.QueryOpts{Limit: DefaultLimit})
		return historyLoadedMsg{Loads: loads, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "Load history"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.loads = msg.Loads
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.loads)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
			return s, nil
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.loads) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No loads recorded yet.")
	}

	now := s.now()
	var b strings.Builder
	b.WriteString("\n")

	for i, ev := range s.loads {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		line := fmt.Sprintf("%s%-16s  %-8s  #%-4d  %6s  %s",
			prefix,
			ev.Timestamp.Local().Format("Jan 02 15:04:05"),
			Status(ev),
			ev.Generation,
			FormatDuration(ev.DurationMs),
			humanize.RelTime(ev.Timestamp, now, "ago", "from now"),
		)
		if ev.Dropped > 0 {
			line += fmt.Sprintf("  %d dropped", ev.Dropped)
		}

		style := lipgloss.NewStyle().Foreground(statusColor(ev))
		if i == s.selected {
			style = style.Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			detail := "    Loaded without errors"
			switch {
			case ev.ErrorMessage != "":
				detail = "    " + ev.ErrorMessage
			case ev.Stale:
				detail = "    Superseded by a newer load"
			}
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
				lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).Render(detail)))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// Status is the short label of a load outcome.
func Status(ev store.LoadEvent) string {
	switch {
	case ev.Stale:
		return "stale"
	case ev.Success:
		return "ok"
	default:
		return "failed"
	}
}

// FormatDuration renders milliseconds compactly, e.g. "850ms" or "1.2s".
func FormatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", float64(ms)/1000)
}

func statusColor(ev store.LoadEvent) color.Color {
	switch Status(ev) {
	case "ok":
		return theme.Success
	case "stale":
		return theme.Accent
	default:
		return theme.Error
	}
}
