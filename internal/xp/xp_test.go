package xp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/zonedash/internal/record"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{999, "999 B"},
		{1000, "1.0 KB"},
		{1500, "1.5 KB"},
		{9999, "10.0 KB"},
		{10000, "10 KB"},
		{350000, "350 KB"},
		{999999, "1000 KB"},
		{1000000, "1.0 MB"},
		{2500000000, "2.5 GB"},
		{5000000000000, "5000 GB"},
		{-1500, "-1.5 KB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.amount), "Format(%d)", tt.amount)
	}
}

func TestFormatMagnitudeNeverDecreases(t *testing.T) {
	prev := -1
	for a := int64(0); a < 5_000_000; a = a*3 + 1 {
		m := magnitude(a)
		assert.GreaterOrEqual(t, m, prev, "magnitude dropped at %d", a)
		prev = m
	}
}

var (
	d1 = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	d2 = time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC)
	d3 = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
)

func TestReduceChronologicalCumulative(t *testing.T) {
	points := []Point{
		{Amount: 250, CreatedAt: d2},
		{Amount: 100, CreatedAt: d1},
	}
	s := Reduce(points)

	assert.Equal(t, []int64{100, 350}, s.Cumulative)
	assert.Equal(t, []string{"Jan 10", "Feb 20"}, s.Labels)
	assert.Equal(t, []time.Time{d1, d2}, s.Dates)
	assert.Equal(t, int64(350), s.Total())

	// input untouched, and a second run gives the same result
	assert.Equal(t, d2, points[0].CreatedAt)
	assert.Equal(t, s, Reduce(points))
}

func TestReduceStableOnEqualTimes(t *testing.T) {
	s := Reduce([]Point{
		{Amount: 5, CreatedAt: d1},
		{Amount: 7, CreatedAt: d1},
	})
	assert.Equal(t, []int64{5, 12}, s.Cumulative)
}

func TestReduceEmpty(t *testing.T) {
	s := Reduce(nil)
	assert.True(t, s.Empty())
	assert.Zero(t, s.Total())
	assert.Zero(t, s.Max())
}

func TestWindow(t *testing.T) {
	now := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	points := []Point{{Amount: 1, CreatedAt: d1}, {Amount: 2, CreatedAt: d2}, {Amount: 3, CreatedAt: d3}}

	assert.Len(t, Window(points, 0, now), 3)
	assert.Len(t, Window(points, 3, now), 3)
	assert.Len(t, Window(points, 1, now), 1)

	s := Progression(points, 1, now)
	require.Equal(t, 1, s.Len())
	assert.Equal(t, int64(3), s.Total())

	assert.True(t, Progression(points, 1, now.AddDate(1, 0, 0)).Empty())
}

func TestPointsFrom(t *testing.T) {
	txs := []record.Transaction{{Amount: 10, CreatedAt: d1}, {Amount: 20, CreatedAt: d2}}
	assert.Equal(t, []Point{{10, d1}, {20, d2}}, PointsFrom(txs))
}

func TestRanges(t *testing.T) {
	months := make([]int, 0, 5)
	for _, r := range Ranges() {
		months = append(months, r.Months)
	}
	assert.Equal(t, []int{1, 3, 6, 12, 0}, months)
	assert.Equal(t, "Last 6 Months", RangeFor(DefaultRangeMonths).Label)
	assert.Equal(t, "Last 24 Months", RangeFor(24).Label)
	assert.Equal(t, AllTime, RangeFor(0))
}
