// Package skills turns skill transaction aggregates into the ranked series
// plotted on the radar chart.
package skills

import (
	"slices"
	"strings"

	"github.com/abhisek/zonedash/internal/record"
)

// MaxSkills caps the number of radar axes.
const MaxSkills = 8

// Series holds parallel label/value slices, highest value first.
type Series struct {
	Labels []string
	Values []float64
}

// Len returns the number of skills in the series.
func (s Series) Len() int {
	return len(s.Labels)
}

// Empty reports whether there are no skills to plot.
func (s Series) Empty() bool {
	return len(s.Labels) == 0
}

// Max returns the largest value in the series.
func (s Series) Max() float64 {
	var m float64
	for _, v := range s.Values {
		m = max(m, v)
	}
	return m
}

// Aggregate keeps skill_ categories, merges duplicates by summing, strips the
// prefix, upper-cases the label and returns the top MaxSkills by amount.
// Equal amounts keep their input order.
func Aggregate(amounts []record.SkillAmount) Series {
	type entry struct {
		label string
		value float64
	}

	index := make(map[string]int)
	var entries []entry
	for _, a := range amounts {
		name, ok := strings.CutPrefix(a.Type, record.SkillPrefix)
		if !ok || name == "" {
			continue
		}
		label := strings.ToUpper(name)
		if i, seen := index[label]; seen {
			entries[i].value += a.Amount
			continue
		}
		index[label] = len(entries)
		entries = append(entries, entry{label: label, value: a.Amount})
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		switch {
		case a.value > b.value:
			return -1
		case a.value < b.value:
			return 1
		}
		return 0
	})
	if len(entries) > MaxSkills {
		entries = entries[:MaxSkills]
	}

	s := Series{
		Labels: make([]string, 0, len(entries)),
		Values: make([]float64, 0, len(entries)),
	}
	for _, e := range entries {
		s.Labels = append(s.Labels, e.label)
		s.Values = append(s.Values, e.value)
	}
	return s
}
