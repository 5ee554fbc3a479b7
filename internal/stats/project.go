package stats

import (
	"fmt"
	"slices"
	"time"

	"github.com/abhisek/zonedash/internal/record"
)

// Project is a project highlighted on the dashboard.
type Project struct {
	Name      string
	Path      string
	CreatedAt time.Time
	Done      bool
	Grade     *float64
	Elapsed   string // age bucket, e.g. "3 DAYS"
}

func projectFrom(p record.Progress, now time.Time) Project {
	return Project{
		Name:      p.Name(),
		Path:      p.Path,
		CreatedAt: p.CreatedAt,
		Done:      p.IsDone,
		Grade:     p.Grade,
		Elapsed:   AgeBucket(p.CreatedAt, now),
	}
}

// PendingProjects returns the project records that are not done, newest
// first. Records with equal timestamps keep their input order.
func PendingProjects(progress []record.Progress, now time.Time) []Project {
	var pending []Project
	for _, p := range progress {
		if p.IsProject() && !p.IsDone {
			pending = append(pending, projectFrom(p, now))
		}
	}
	slices.SortStableFunc(pending, func(a, b Project) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return pending
}

// CurrentProject picks the project to highlight: the most recent pending
// project, or the most recent completed one when nothing is pending.
// On equal timestamps the earliest record in input order wins.
func CurrentProject(progress []record.Progress, now time.Time) *Project {
	if p, ok := latest(progress, func(p record.Progress) bool { return p.IsProject() && !p.IsDone }); ok {
		proj := projectFrom(p, now)
		return &proj
	}
	if p, ok := latest(progress, func(p record.Progress) bool { return p.IsProject() && p.IsDone }); ok {
		proj := projectFrom(p, now)
		return &proj
	}
	return nil
}

func latest(progress []record.Progress, keep func(record.Progress) bool) (record.Progress, bool) {
	var best record.Progress
	found := false
	for _, p := range progress {
		if !keep(p) {
			continue
		}
		if !found || p.CreatedAt.After(best.CreatedAt) {
			best = p
			found = true
		}
	}
	return best, found
}

// AgeBucket classifies the time since createdAt: "TODAY", "1 DAY",
// "N DAYS" (2-6), "N WEEKS" (7-29 days) or "N MONTHS" (30-day months).
func AgeBucket(createdAt, now time.Time) string {
	days := int(now.Sub(createdAt) / (24 * time.Hour))
	switch {
	case days < 1:
		return "TODAY"
	case days == 1:
		return "1 DAY"
	case days < 7:
		return fmt.Sprintf("%d DAYS", days)
	case days < 30:
		return plural(days/7, "WEEK")
	default:
		return plural(days/30, "MONTH")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %sS", n, unit)
}
