package xp

import (
	"slices"
	"strconv"
	"time"

	"github.com/abhisek/zonedash/internal/record"
)

// LabelLayout formats series labels as short month and day ("Jan 2").
const LabelLayout = "Jan 2"

// Point is a single XP grant.
type Point struct {
	Amount    int64
	CreatedAt time.Time
}

// PointsFrom extracts the XP points from a list of transactions.
func PointsFrom(txs []record.Transaction) []Point {
	points := make([]Point, 0, len(txs))
	for _, t := range txs {
		points = append(points, Point{Amount: t.Amount, CreatedAt: t.CreatedAt})
	}
	return points
}

// Series is the chronological cumulative XP series. Labels, Dates and
// Cumulative are parallel slices.
type Series struct {
	Labels     []string
	Dates      []time.Time
	Cumulative []int64
}

// Empty reports whether the series has no points ("no data in range").
func (s Series) Empty() bool {
	return len(s.Cumulative) == 0
}

// Len returns the number of points.
func (s Series) Len() int {
	return len(s.Cumulative)
}

// Total returns the last cumulative value, or 0 for an empty series.
func (s Series) Total() int64 {
	if s.Empty() {
		return 0
	}
	return s.Cumulative[len(s.Cumulative)-1]
}

// Max returns the largest cumulative value.
func (s Series) Max() int64 {
	var m int64
	for _, v := range s.Cumulative {
		m = max(m, v)
	}
	return m
}

// Reduce sorts points chronologically (stable) and computes the running
// total. It does not modify points.
func Reduce(points []Point) Series {
	sorted := slices.Clone(points)
	slices.SortStableFunc(sorted, func(a, b Point) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	s := Series{
		Labels:     make([]string, 0, len(sorted)),
		Dates:      make([]time.Time, 0, len(sorted)),
		Cumulative: make([]int64, 0, len(sorted)),
	}
	var running int64
	for _, p := range sorted {
		running += p.Amount
		s.Cumulative = append(s.Cumulative, running)
		s.Dates = append(s.Dates, p.CreatedAt)
		s.Labels = append(s.Labels, p.CreatedAt.Format(LabelLayout))
	}
	return s
}

// Window keeps the points created within the last months calendar months
// before now. months <= 0 keeps every point.
func Window(points []Point, months int, now time.Time) []Point {
	if months <= 0 {
		return slices.Clone(points)
	}
	cutoff := now.AddDate(0, -months, 0)
	kept := make([]Point, 0, len(points))
	for _, p := range points {
		if !p.CreatedAt.Before(cutoff) {
			kept = append(kept, p)
		}
	}
	return kept
}

// Progression windows points to the last months and reduces them.
func Progression(points []Point, months int, now time.Time) Series {
	return Reduce(Window(points, months, now))
}

// Range is a selectable time window for the progression chart.
type Range struct {
	Months int
	Label  string
}

// AllTime is the Range that keeps every point.
var AllTime = Range{Months: 0, Label: "All Time"}

// Ranges returns the selectable windows in display order.
func Ranges() []Range {
	return []Range{
		{Months: 1, Label: "Last Month"},
		{Months: 3, Label: "Last 3 Months"},
		{Months: 6, Label: "Last 6 Months"},
		{Months: 12, Label: "Last Year"},
		AllTime,
	}
}

// DefaultRangeMonths is the window selected when the dashboard opens.
const DefaultRangeMonths = 6

// RangeFor returns the Range for months, or a custom one if it is not a
// predefined window.
func RangeFor(months int) Range {
	for _, r := range Ranges() {
		if r.Months == months {
			return r
		}
	}
	return Range{Months: months, Label: "Last " + strconv.Itoa(months) + " Months"}
}
