package rank

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyTable is returned when validating a table with no ranks.
var ErrEmptyTable = errors.New("rank table is empty")

// Validate checks that ranks are named uniquely, ordered ascending,
// contiguous and non-overlapping, and that only the last rank is unbounded.
// Returns a combined error describing all problems found, or nil if valid.
func (t Table) Validate() error {
	if len(t) == 0 {
		return ErrEmptyTable
	}

	var errs []string
	names := make(map[string]bool, len(t))

	for i, r := range t {
		if r.Name == "" {
			errs = append(errs, fmt.Sprintf("rank %d has no name", i))
		}
		if names[r.Name] {
			errs = append(errs, fmt.Sprintf("duplicate rank name: %q", r.Name))
		}
		names[r.Name] = true

		if r.MaxLevel != nil && *r.MaxLevel < r.MinLevel {
			errs = append(errs, fmt.Sprintf("rank %q: max level %d below min level %d", r.Name, *r.MaxLevel, r.MinLevel))
		}
		if r.MaxLevel == nil && i != len(t)-1 {
			errs = append(errs, fmt.Sprintf("rank %q is unbounded but is not the last rank", r.Name))
		}

		if i == 0 {
			continue
		}
		prev := t[i-1]
		if prev.MaxLevel == nil {
			continue
		}
		switch want := *prev.MaxLevel + 1; {
		case r.MinLevel < want:
			errs = append(errs, fmt.Sprintf("rank %q overlaps %q at level %d", r.Name, prev.Name, r.MinLevel))
		case r.MinLevel > want:
			errs = append(errs, fmt.Sprintf("gap between %q and %q: levels %d-%d unranked", prev.Name, r.Name, want, r.MinLevel-1))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid rank table:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
