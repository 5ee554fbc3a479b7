package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/abhisek/zonedash/internal/config"
	"github.com/abhisek/zonedash/internal/dashboard"
	"github.com/abhisek/zonedash/internal/xp"
)

var errNotSignedIn = errors.New("not signed in; run `zonedash login` first")

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print your dashboard statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		months, _ := cmd.Flags().GetInt("range")
		asJSON, _ := cmd.Flags().GetBool("json")
		cached, _ := cmd.Flags().GetBool("cached")

		var opts []dashboard.Option
		if cmd.Flags().Changed("range") {
			if !config.ValidRange(months) {
				return fmt.Errorf("--range must be one of 0, 1, 3, 6, 12 (got %d)", months)
			}
			opts = append(opts, dashboard.WithRangeMonths(months))
		}

		e, err := setup(cmd, os.Stderr, opts...)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		s, err := e.sessions.Restore(ctx)
		if err != nil {
			return err
		}
		if s == nil {
			return errNotSignedIn
		}

		var snap *dashboard.Snapshot
		if cached {
			snap, err = e.loader.LoadCached(ctx, s.UserID)
		} else {
			snap, err = e.loader.Load(ctx, s.Token)
		}
		if err != nil {
			return fmt.Errorf("load dashboard: %w", err)
		}

		rep := newStatsReport(snap)
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}
		writeStats(cmd.OutOrStdout(), rep)
		return nil
	},
}

func init() {
	statsCmd.Flags().Int("range", xp.DefaultRangeMonths, "XP progression window in months (0 = all time)")
	statsCmd.Flags().Bool("json", false, "Print as JSON")
	statsCmd.Flags().Bool("cached", false, "Use the last saved data instead of fetching")
}

// statsReport is the printable summary of a snapshot. Fields of widgets that
// failed to compute are left zero and named in Unavailable.
type statsReport struct {
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	LoadedAt    time.Time `json:"loadedAt"`
	Cached      bool      `json:"cached"`
	Level       int       `json:"level"`
	Rank        string    `json:"rank"`
	NextRank    string    `json:"nextRank,omitempty"`
	RankPercent float64   `json:"rankPercent"`

	TotalXP        int64  `json:"totalXp"`
	TotalXPDisplay string `json:"totalXpDisplay"`
	RangeLabel     string `json:"range"`
	RangeXP        int64  `json:"rangeXp"`

	ProjectsCompleted int `json:"projectsCompleted"`
	ProjectsPassed    int `json:"projectsPassed"`
	ProjectsFailed    int `json:"projectsFailed"`
	SuccessRate       int `json:"successRate"`

	AuditRatio    string `json:"auditRatio"`
	AuditDone     int64  `json:"auditDone"`
	AuditReceived int64  `json:"auditReceived"`

	TopSkills []skillValue `json:"topSkills,omitempty"`
	Pending   []string     `json:"pending,omitempty"`

	Unavailable []string `json:"unavailable,omitempty"`
}

type skillValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

const topSkills = 5

func newStatsReport(snap *dashboard.Snapshot) statsReport {
	rep := statsReport{
		LoadedAt:    snap.LoadedAt,
		Cached:      snap.Cached,
		RangeLabel:  xp.RangeFor(snap.RangeMonths).Label,
		Unavailable: snap.Failed(),
	}
	if snap.Dataset != nil {
		rep.Login = snap.Dataset.Profile.Login
		rep.Name = snap.Dataset.Profile.FullName()
	}

	if snap.Stats.OK() {
		d := snap.Stats.Value
		rep.Level = d.Level
		rep.Rank = d.CurrentRank.Name
		if d.NextRank != nil {
			rep.NextRank = d.NextRank.Name
		}
		rep.RankPercent = d.ProgressPct
		rep.TotalXP = d.TotalXP
		rep.TotalXPDisplay = d.TotalXPDisplay
		rep.ProjectsCompleted = d.ProjectsCompleted
	}
	if snap.XP.OK() {
		rep.RangeXP = snap.XP.Value.Total()
	}
	if snap.Outcomes.OK() {
		c := snap.Outcomes.Value
		rep.ProjectsPassed = c.Passed
		rep.ProjectsFailed = c.Completed - c.Passed
		rep.SuccessRate = c.SuccessRate()
	}
	if snap.Audit.OK() {
		a := snap.Audit.Value
		rep.AuditRatio = a.String()
		rep.AuditDone = a.Done
		rep.AuditReceived = a.Received
	}
	if snap.Skills.OK() {
		s := snap.Skills.Value
		for i := 0; i < s.Len() && i < topSkills; i++ {
			rep.TopSkills = append(rep.TopSkills, skillValue{Name: s.Labels[i], Value: s.Values[i]})
		}
	}
	if snap.Pending.OK() {
		for _, p := range snap.Pending.Value {
			rep.Pending = append(rep.Pending, p.Name)
		}
	}
	return rep
}

func writeStats(w io.Writer, r statsReport) {
	title := r.Login
	if r.Name != "" && r.Name != r.Login {
		title = fmt.Sprintf("%s (%s)", r.Name, r.Login)
	}
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("─", 48))

	row := func(label, value string) {
		fmt.Fprintf(w, "%-18s %s\n", label, value)
	}
	rank := r.Rank
	if r.NextRank != "" {
		rank = fmt.Sprintf("%s (%.0f%% to %s)", r.Rank, r.RankPercent, r.NextRank)
	}
	row("Level", fmt.Sprintf("%d", r.Level))
	row("Rank", rank)
	row("Total XP", fmt.Sprintf("%s (%s bytes)", r.TotalXPDisplay, humanize.Comma(r.TotalXP)))
	row("XP "+strings.ToLower(r.RangeLabel), xp.Format(r.RangeXP))
	row("Projects", fmt.Sprintf("%d completed, %d passed, %d failed", r.ProjectsCompleted, r.ProjectsPassed, r.ProjectsFailed))
	row("Success rate", fmt.Sprintf("%d%%", r.SuccessRate))
	row("Audit ratio", fmt.Sprintf("%s (done %s, received %s)", r.AuditRatio, xp.Format(r.AuditDone), xp.Format(r.AuditReceived)))

	if len(r.TopSkills) > 0 {
		names := make([]string, len(r.TopSkills))
		for i, s := range r.TopSkills {
			names[i] = fmt.Sprintf("%s %g%%", s.Name, s.Value)
		}
		row("Top skills", strings.Join(names, ", "))
	}
	if len(r.Pending) > 0 {
		row("In progress", strings.Join(r.Pending, ", "))
	}
	if len(r.Unavailable) > 0 {
		row("Unavailable", strings.Join(r.Unavailable, ", "))
	}

	when := humanize.Time(r.LoadedAt)
	if r.Cached {
		fmt.Fprintf(w, "\nSaved data from %s.\n", when)
	} else {
		fmt.Fprintf(w, "\nFetched %s.\n", when)
	}
}
