package stats

import (
	"testing"
	"time"

	"github.com/abhisek/zonedash/internal/rank"
	"github.com/abhisek/zonedash/internal/record"
)

var testNow = time.Date(2025, time.March, 31, 18, 0, 0, 0, time.UTC)

func daysAgo(d int) time.Time {
	return testNow.Add(-time.Duration(d) * 24 * time.Hour)
}

func grade(v float64) *float64 { return &v }

func project(name string, done bool, g *float64, created time.Time) record.Progress {
	return record.Progress{
		Grade:     g,
		CreatedAt: created,
		IsDone:    done,
		Path:      "/kisumu/module/" + name,
		Object:    record.Object{Name: name, Type: record.ObjectTypeProject},
	}
}

func TestDeriveEndToEndXP(t *testing.T) {
	in := Input{
		Transactions: []record.Transaction{
			{Type: record.TypeXP, Amount: 250, CreatedAt: daysAgo(2), Path: "/kisumu/module/ascii-art"},
			{Type: record.TypeXP, Amount: 100, CreatedAt: daysAgo(10), Path: "/kisumu/module/go-reloaded"},
		},
		Now: testNow,
	}

	d := Derive(in)

	if d.TotalXP != 350 {
		t.Errorf("TotalXP = %d, want 350", d.TotalXP)
	}
	if d.TotalXPDisplay != "350 B" {
		t.Errorf("TotalXPDisplay = %q, want %q", d.TotalXPDisplay, "350 B")
	}
	got := d.XPSeries.Cumulative
	if len(got) != 2 || got[0] != 100 || got[1] != 350 {
		t.Errorf("XPSeries = %v, want [100 350]", got)
	}
	if len(d.RecentActivity) != 2 || d.RecentActivity[0].Name != "ascii-art" {
		t.Errorf("RecentActivity = %+v, want ascii-art first", d.RecentActivity)
	}
}

func TestTotalXPIgnoresOtherTypes(t *testing.T) {
	txs := []record.Transaction{
		{Type: record.TypeXP, Amount: 10},
		{Type: record.TypeUp, Amount: 1000},
		{Type: "skill_go", Amount: 50},
		{Type: record.TypeXP, Amount: 5},
	}
	if got := TotalXP(txs); got != 15 {
		t.Errorf("TotalXP = %d, want 15", got)
	}
}

func TestDeriveSeriesMatchesTotalXP(t *testing.T) {
	d := Derive(Input{
		Transactions: []record.Transaction{
			{Type: record.TypeXP, Amount: 100, CreatedAt: daysAgo(10)},
			{Type: record.TypeUp, Amount: 1000, CreatedAt: daysAgo(5)},
			{Type: record.TypeXP, Amount: 250, CreatedAt: daysAgo(2)},
		},
		Now: testNow,
	})

	if d.TotalXP != 350 {
		t.Errorf("TotalXP = %d, want 350", d.TotalXP)
	}
	if got := d.XPSeries.Total(); got != d.TotalXP {
		t.Errorf("series total = %d, want %d", got, d.TotalXP)
	}
	if n := d.XPSeries.Len(); n != 2 {
		t.Errorf("series has %d points, want 2", n)
	}
	for _, a := range d.RecentActivity {
		if a.Amount == 1000 {
			t.Error("recent activity should only list xp grants")
		}
	}
}

func TestDeriveAuditRatio(t *testing.T) {
	in := Input{
		Up:   []record.Transaction{{Type: record.TypeUp, Amount: 12}, {Type: record.TypeUp, Amount: 8}},
		Down: []record.Transaction{{Type: record.TypeDown, Amount: 10}},
		Now:  testNow,
	}

	d := Derive(in)

	if !d.Audit.Available {
		t.Fatal("expected ratio to be available")
	}
	if d.Audit.Ratio != 2.0 {
		t.Errorf("Ratio = %v, want 2.0", d.Audit.Ratio)
	}
	if d.Audit.Done != 20 || d.Audit.Received != 10 {
		t.Errorf("Done/Received = %d/%d, want 20/10", d.Audit.Done, d.Audit.Received)
	}
	if d.Audit.String() != "2.0" {
		t.Errorf("String() = %q, want 2.0", d.Audit.String())
	}
}

func TestAuditRatioUnavailable(t *testing.T) {
	a := AuditFrom([]record.Transaction{{Amount: 20}}, nil, nil)
	if a.Available {
		t.Errorf("expected unavailable ratio, got %v", a.Ratio)
	}
	if a.String() != "N/A" {
		t.Errorf("String() = %q, want N/A", a.String())
	}
}

func TestAuditRatioPrefersServer(t *testing.T) {
	server := 1.37
	a := AuditFrom(
		[]record.Transaction{{Amount: 20}},
		[]record.Transaction{{Amount: 10}},
		&server,
	)
	if !a.FromServer || a.Ratio != 1.37 {
		t.Errorf("expected server ratio 1.37, got %+v", a)
	}
	if a.Format(2) != "1.37" {
		t.Errorf("Format(2) = %q", a.Format(2))
	}
}

func TestDeriveRank(t *testing.T) {
	d := Derive(Input{Level: 35, Now: testNow})

	if d.CurrentRank.Name != "Assistant Developer" {
		t.Errorf("CurrentRank = %q, want Assistant Developer", d.CurrentRank.Name)
	}
	if d.NextRank == nil || d.NextRank.Name != "Basic Developer" {
		t.Errorf("NextRank = %v, want Basic Developer", d.NextRank)
	}
	if d.ProgressPct != 50 {
		t.Errorf("ProgressPct = %v, want 50", d.ProgressPct)
	}
}

func TestDeriveMissingLevelDefaults(t *testing.T) {
	d := Derive(Input{Now: testNow})
	if d.Level != DefaultLevel {
		t.Errorf("Level = %d, want %d", d.Level, DefaultLevel)
	}
	if d.CurrentRank.Name != "Aspiring Developer" {
		t.Errorf("CurrentRank = %q", d.CurrentRank.Name)
	}
}

func TestDeriveCustomRanks(t *testing.T) {
	table := rank.Table{
		{Name: "Rookie", MinLevel: 0, MaxLevel: intPtr(4)},
		{Name: "Pro", MinLevel: 5},
	}
	d := Derive(Input{Level: 7, Ranks: table, Now: testNow})
	if d.CurrentRank.Name != "Pro" || d.NextRank != nil || d.ProgressPct != 100 {
		t.Errorf("got %q next=%v pct=%v", d.CurrentRank.Name, d.NextRank, d.ProgressPct)
	}
}

func intPtr(v int) *int { return &v }

func TestCountProjects(t *testing.T) {
	progress := []record.Progress{
		project("a", true, grade(1), daysAgo(30)),
		project("b", true, grade(0), daysAgo(20)),
		project("c", false, nil, daysAgo(3)),
		{IsDone: true, Grade: grade(1), Object: record.Object{Type: "exercise"}},
	}

	c := CountProjects(progress)

	if c.Total != 3 || c.Completed != 2 || c.Passed != 1 {
		t.Errorf("counts = %+v, want total 3 completed 2 passed 1", c)
	}
	if c.SuccessRate() != 33 {
		t.Errorf("SuccessRate = %d, want 33", c.SuccessRate())
	}
	if (ProjectCounts{}).SuccessRate() != 0 {
		t.Error("SuccessRate with no projects should be 0")
	}
}

func TestCurrentProjectPrefersPending(t *testing.T) {
	progress := []record.Progress{
		project("done-new", true, grade(1), daysAgo(1)),
		project("pending-old", false, nil, daysAgo(8)),
		project("pending-new", false, nil, daysAgo(2)),
	}

	cur := CurrentProject(progress, testNow)
	if cur == nil || cur.Name != "pending-new" {
		t.Fatalf("CurrentProject = %+v, want pending-new", cur)
	}
	if cur.Elapsed != "2 DAYS" {
		t.Errorf("Elapsed = %q, want 2 DAYS", cur.Elapsed)
	}
}

func TestCurrentProjectFallsBackToCompleted(t *testing.T) {
	progress := []record.Progress{
		project("old", true, grade(1), daysAgo(40)),
		project("new", true, grade(1), daysAgo(4)),
	}
	cur := CurrentProject(progress, testNow)
	if cur == nil || cur.Name != "new" || !cur.Done {
		t.Fatalf("CurrentProject = %+v, want new", cur)
	}

	if CurrentProject(nil, testNow) != nil {
		t.Error("expected nil current project with no records")
	}
}

func TestCurrentProjectTieKeepsFirst(t *testing.T) {
	at := daysAgo(3)
	progress := []record.Progress{
		project("first", true, grade(1), at),
		project("second", true, grade(1), at),
	}
	cur := CurrentProject(progress, testNow)
	if cur == nil || cur.Name != "first" {
		t.Fatalf("CurrentProject = %+v, want first", cur)
	}
}

func TestPendingProjects(t *testing.T) {
	progress := []record.Progress{
		project("mid", false, nil, daysAgo(7)),
		project("done", true, grade(1), daysAgo(0)),
		project("newest", false, nil, daysAgo(0)),
		project("oldest", false, nil, daysAgo(65)),
	}

	pending := PendingProjects(progress, testNow)

	want := []struct{ name, elapsed string }{
		{"newest", "TODAY"},
		{"mid", "1 WEEK"},
		{"oldest", "2 MONTHS"},
	}
	if len(pending) != len(want) {
		t.Fatalf("got %d pending, want %d", len(pending), len(want))
	}
	for i, w := range want {
		if pending[i].Name != w.name || pending[i].Elapsed != w.elapsed {
			t.Errorf("pending[%d] = %s/%s, want %s/%s", i, pending[i].Name, pending[i].Elapsed, w.name, w.elapsed)
		}
	}
}

func TestAgeBucket(t *testing.T) {
	tests := []struct {
		created time.Time
		want    string
	}{
		{testNow, "TODAY"},
		{testNow.Add(-23 * time.Hour), "TODAY"},
		{testNow.Add(2 * time.Hour), "TODAY"},
		{daysAgo(1), "1 DAY"},
		{daysAgo(2), "2 DAYS"},
		{daysAgo(6), "6 DAYS"},
		{daysAgo(7), "1 WEEK"},
		{daysAgo(13), "1 WEEK"},
		{daysAgo(14), "2 WEEKS"},
		{daysAgo(29), "4 WEEKS"},
		{daysAgo(30), "1 MONTH"},
		{daysAgo(59), "1 MONTH"},
		{daysAgo(60), "2 MONTHS"},
		{daysAgo(400), "13 MONTHS"},
	}
	for _, tt := range tests {
		if got := AgeBucket(tt.created, testNow); got != tt.want {
			t.Errorf("AgeBucket(%s) = %q, want %q", testNow.Sub(tt.created), got, tt.want)
		}
	}
}

func TestDeriveSkillsAndSuccess(t *testing.T) {
	in := Input{
		Progress: []record.Progress{
			project("a", true, grade(1), daysAgo(3)),
			project("b", false, grade(0), daysAgo(1)),
		},
		Skills: []record.SkillAmount{
			{Type: "skill_go", Amount: 40},
			{Type: "skill_html", Amount: 15},
		},
		Now: testNow,
	}

	d := Derive(in)

	if d.SuccessRatePercent != 50 {
		t.Errorf("SuccessRatePercent = %d, want 50", d.SuccessRatePercent)
	}
	if d.ProjectsCompleted != 1 || d.ProjectsFailed != 1 {
		t.Errorf("completed/failed = %d/%d, want 1/1", d.ProjectsCompleted, d.ProjectsFailed)
	}
	if d.SkillSeries.Len() != 2 || d.SkillSeries.Labels[0] != "GO" {
		t.Errorf("SkillSeries = %+v", d.SkillSeries)
	}
	if d.XPSeries.Empty() != true {
		t.Error("expected empty XP series without transactions")
	}
}

func TestDeriveDoesNotMutateInput(t *testing.T) {
	txs := []record.Transaction{
		{Type: record.TypeXP, Amount: 5, CreatedAt: daysAgo(1)},
		{Type: record.TypeXP, Amount: 9, CreatedAt: daysAgo(9)},
	}
	progress := []record.Progress{
		project("x", false, nil, daysAgo(1)),
		project("y", false, nil, daysAgo(5)),
	}
	Derive(Input{Transactions: txs, Progress: progress, Now: testNow})

	if txs[0].Amount != 5 || progress[0].Object.Name != "x" {
		t.Error("Derive reordered or mutated its input")
	}
}
