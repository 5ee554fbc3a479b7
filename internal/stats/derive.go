// Package stats derives every number shown on the dashboard from the raw
// records of a single load.
package stats

import (
	"math"
	"slices"
	"time"

	"github.com/abhisek/zonedash/internal/rank"
	"github.com/abhisek/zonedash/internal/record"
	"github.com/abhisek/zonedash/internal/skills"
	"github.com/abhisek/zonedash/internal/xp"
)

// DefaultLevel is used when the backend reports no event level.
const DefaultLevel = 1

// RecentActivityLimit caps the recent activity list.
const RecentActivityLimit = 10

// Input is everything Derive needs. Ranks defaults to rank.DefaultTable()
// and Now to time.Now() when zero.
type Input struct {
	Transactions     []record.Transaction // xp transactions
	Progress         []record.Progress
	Up               []record.Transaction
	Down             []record.Transaction
	Skills           []record.SkillAmount
	ServerAuditRatio *float64
	Level            int
	RangeMonths      int
	Ranks            rank.Table
	Now              time.Time
}

// InputFrom builds an Input from a fetched dataset.
func InputFrom(ds *record.Dataset, ranks rank.Table, rangeMonths int, now time.Time) Input {
	return Input{
		Transactions:     ds.XP,
		Progress:         ds.Progress,
		Up:               ds.Up,
		Down:             ds.Down,
		Skills:           ds.Skills,
		ServerAuditRatio: ds.Profile.AuditRatio,
		Level:            ds.Level,
		RangeMonths:      rangeMonths,
		Ranks:            ranks,
		Now:              now,
	}
}

// Activity is one entry of the recent activity list.
type Activity struct {
	Name      string
	Amount    int64
	CreatedAt time.Time
}

// Derived is the full set of dashboard metrics for one load.
type Derived struct {
	TotalXP        int64
	TotalXPDisplay string

	ProjectsCompleted  int
	ProjectsTotal      int
	ProjectsPassed     int
	ProjectsFailed     int
	SuccessRatePercent int

	Audit Audit

	Level        int
	Rank         rank.Progress
	CurrentRank  rank.Rank
	NextRank     *rank.Rank
	ProgressPct  float64
	LevelInRank  int
	LevelsInRank int

	CurrentProject  *Project
	PendingProjects []Project
	RecentActivity  []Activity

	XPSeries    xp.Series
	SkillSeries skills.Series
}

// Derive computes the dashboard metrics. It never mutates its input.
func Derive(in Input) Derived {
	if in.Ranks == nil {
		in.Ranks = rank.DefaultTable()
	}
	if in.Now.IsZero() {
		in.Now = time.Now()
	}

	d := Derived{}

	d.TotalXP = TotalXP(in.Transactions)
	d.TotalXPDisplay = xp.Format(d.TotalXP)

	counts := CountProjects(in.Progress)
	d.ProjectsCompleted = counts.Completed
	d.ProjectsTotal = counts.Total
	d.ProjectsPassed = counts.Passed
	d.ProjectsFailed = counts.Total - counts.Passed
	d.SuccessRatePercent = counts.SuccessRate()

	d.Audit = AuditFrom(in.Up, in.Down, in.ServerAuditRatio)

	d.Level = in.Level
	if d.Level <= 0 {
		d.Level = DefaultLevel
	}
	d.Rank = in.Ranks.Progress(d.Level)
	d.CurrentRank = d.Rank.Current
	d.NextRank = d.Rank.Next
	d.ProgressPct = d.Rank.Percent
	d.LevelInRank = d.Rank.LevelInRank
	d.LevelsInRank = d.Rank.LevelsInRank

	d.PendingProjects = PendingProjects(in.Progress, in.Now)
	d.CurrentProject = CurrentProject(in.Progress, in.Now)
	xpTxs := XPTransactions(in.Transactions)
	d.RecentActivity = RecentActivity(xpTxs, RecentActivityLimit)

	d.XPSeries = xp.Progression(xp.PointsFrom(xpTxs), in.RangeMonths, in.Now)
	d.SkillSeries = skills.Aggregate(in.Skills)

	return d
}

// XPTransactions returns the xp-typed transactions in input order.
func XPTransactions(txs []record.Transaction) []record.Transaction {
	out := make([]record.Transaction, 0, len(txs))
	for _, t := range txs {
		if t.Type == record.TypeXP {
			out = append(out, t)
		}
	}
	return out
}

// TotalXP sums the amounts of xp-typed transactions.
func TotalXP(txs []record.Transaction) int64 {
	var total int64
	for _, t := range txs {
		if t.Type == record.TypeXP {
			total += t.Amount
		}
	}
	return total
}

// ProjectCounts summarizes project progress records.
type ProjectCounts struct {
	Total     int // project records
	Completed int // project records with isDone
	Passed    int // project records with grade > 0
}

// SuccessRate returns round(passed/total*100), or 0 with no projects.
func (c ProjectCounts) SuccessRate() int {
	if c.Total == 0 {
		return 0
	}
	return int(math.Round(float64(c.Passed) / float64(c.Total) * 100))
}

// CountProjects counts project records by completion and pass state.
func CountProjects(progress []record.Progress) ProjectCounts {
	var c ProjectCounts
	for _, p := range progress {
		if !p.IsProject() {
			continue
		}
		c.Total++
		if p.IsDone {
			c.Completed++
		}
		if p.Passed() {
			c.Passed++
		}
	}
	return c
}

// RecentActivity returns the limit most recent transactions, newest first.
func RecentActivity(txs []record.Transaction, limit int) []Activity {
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b record.Transaction) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]Activity, 0, len(sorted))
	for _, t := range sorted {
		out = append(out, Activity{Name: t.Name(), Amount: t.Amount, CreatedAt: t.CreatedAt})
	}
	return out
}
