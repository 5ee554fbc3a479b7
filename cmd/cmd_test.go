package cmd

import (
	"bufio"
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/zonedash/internal/dashboard"
	"github.com/abhisek/zonedash/internal/rank"
	"github.com/abhisek/zonedash/internal/record"
	"github.com/abhisek/zonedash/internal/skills"
	"github.com/abhisek/zonedash/internal/stats"
	"github.com/abhisek/zonedash/internal/store"
	"github.com/abhisek/zonedash/internal/xp"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}

func TestReadLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("jdoe\r\nsecret"))
	got, err := readLine(r)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", got)

	got, err = readLine(r)
	require.NoError(t, err)
	assert.Equal(t, "secret", got)

	_, err = readLine(r)
	assert.Error(t, err)
}

func reportSnapshot() *dashboard.Snapshot {
	next := rank.Rank{Name: "Apprentice Developer", MinLevel: 20}
	d := stats.Derived{
		TotalXP:           350000,
		TotalXPDisplay:    xp.Format(350000),
		ProjectsCompleted: 4,
		Level:             15,
		NextRank:          &next,
		ProgressPct:       50,
	}
	d.CurrentRank = rank.Rank{Name: "Beginner Developer", MinLevel: 10}
	return &dashboard.Snapshot{
		Dataset:     &record.Dataset{Profile: record.Profile{Login: "jdoe", FirstName: "Jane", LastName: "Doe"}},
		RangeMonths: 3,
		LoadedAt:    time.Now().Add(-time.Hour),
		Stats:       dashboard.Widget[stats.Derived]{Value: d},
		XP:          dashboard.Widget[xp.Series]{Value: xp.Series{Cumulative: []int64{1000, 12000}}},
		Outcomes:    dashboard.Widget[stats.ProjectCounts]{Value: stats.ProjectCounts{Total: 5, Completed: 4, Passed: 3}},
		Audit:       dashboard.Widget[stats.Audit]{Value: stats.Audit{Done: 2000, Received: 1000, Ratio: 2, Available: true}},
		Skills:      dashboard.Widget[skills.Series]{Err: errors.New("skills widget: boom")},
		Pending:     dashboard.Widget[[]stats.Project]{Value: []stats.Project{{Name: "groupie-tracker"}}},
	}
}

func TestStatsReport(t *testing.T) {
	rep := newStatsReport(reportSnapshot())

	assert.Equal(t, "jdoe", rep.Login)
	assert.Equal(t, "Jane Doe", rep.Name)
	assert.Equal(t, 15, rep.Level)
	assert.Equal(t, "Apprentice Developer", rep.NextRank)
	assert.Equal(t, "Last 3 Months", rep.RangeLabel)
	assert.Equal(t, int64(12000), rep.RangeXP)
	assert.Equal(t, 3, rep.ProjectsPassed)
	assert.Equal(t, 1, rep.ProjectsFailed)
	assert.Equal(t, 75, rep.SuccessRate)
	assert.Empty(t, rep.TopSkills)
	assert.Equal(t, []string{"skills"}, rep.Unavailable)
	assert.Equal(t, []string{"groupie-tracker"}, rep.Pending)
}

func TestWriteStats(t *testing.T) {
	var buf bytes.Buffer
	writeStats(&buf, newStatsReport(reportSnapshot()))
	out := buf.String()

	for _, want := range []string{
		"Jane Doe (jdoe)",
		"Beginner Developer (50% to Apprentice Developer)",
		"350,000 bytes",
		"XP last 3 months",
		"12 KB",
		"4 completed, 3 passed, 1 failed",
		"75%",
		"Unavailable",
		"Fetched 1 hour ago.",
	} {
		assert.Contains(t, out, want)
	}
}

func TestWriteLoads(t *testing.T) {
	var buf bytes.Buffer
	writeLoads(&buf, nil)
	assert.Equal(t, "No loads recorded yet.\n", buf.String())

	buf.Reset()
	writeLoads(&buf, []store.LoadEvent{
		{
			LoadEventData: store.LoadEventData{Generation: 2, Success: true, DurationMs: 850},
			Sequence:      2,
			Timestamp:     time.Now(),
		},
		{
			LoadEventData: store.LoadEventData{Generation: 1, DurationMs: 1500, ErrorMessage: "fetch dashboard: network error"},
			Sequence:      1,
			Timestamp:     time.Now().Add(-time.Minute),
		},
	})
	out := buf.String()
	assert.Contains(t, out, "850ms")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "fetch dashboard: network error")
}
