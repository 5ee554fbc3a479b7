package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/zonedash/internal/graphql"
	"github.com/abhisek/zonedash/internal/record"
	"github.com/abhisek/zonedash/internal/store"
)

var testNow = time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func grade(v float64) *float64 { return &v }

func testDataset(xpAmounts ...int64) *record.Dataset {
	ds := &record.Dataset{
		Profile: record.Profile{ID: 42, Login: "jdoe"},
		Level:   23,
		Up:      []record.Transaction{{Type: record.TypeUp, Amount: 30}},
		Down:    []record.Transaction{{Type: record.TypeDown, Amount: 20}},
		Progress: []record.Progress{
			{Grade: grade(1), IsDone: true, CreatedAt: testNow.AddDate(0, 0, -20), Object: record.Object{Name: "ascii-art", Type: record.ObjectTypeProject}},
			{IsDone: false, CreatedAt: testNow.AddDate(0, 0, -3), Object: record.Object{Name: "groupie-tracker", Type: record.ObjectTypeProject}},
		},
		Skills: []record.SkillAmount{{Type: "skill_go", Amount: 55}, {Type: "skill_js", Amount: 20}},
	}
	for i, a := range xpAmounts {
		ds.XP = append(ds.XP, record.Transaction{
			Type:      record.TypeXP,
			Amount:    a,
			CreatedAt: testNow.AddDate(0, -i*2, 0),
			Path:      "/kisumu/module/p",
		})
	}
	return ds
}

// fakeFetcher returns queued results in order. A result with a non-nil
// gate blocks until the gate is closed.
type fakeFetcher struct {
	mu      sync.Mutex
	results []fetchResult
	started chan struct{}
}

type fetchResult struct {
	ds   *record.Dataset
	err  error
	gate chan struct{}
}

func (f *fakeFetcher) FetchDashboard(ctx context.Context, token string) (*record.Dataset, error) {
	f.mu.Lock()
	r := f.results[0]
	f.results = f.results[1:]
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if r.gate != nil {
		<-r.gate
	}
	return r.ds, r.err
}

func TestMachineHappyPath(t *testing.T) {
	m := NewMachine()
	steps := []struct {
		ev   Event
		want Phase
	}{
		{SubmitLogin, Authenticating},
		{LoginSucceeded, Authenticated},
		{StartLoad, Loading},
		{LoadSucceeded, Ready},
		{StartLoad, Loading},
		{LoadFailed, LoadError},
		{StartLoad, Loading},
		{LoadSucceeded, Ready},
		{Logout, Unauthenticated},
	}
	for _, s := range steps {
		got, err := m.Fire(s.ev, "")
		require.NoError(t, err, "event %s", s.ev)
		assert.Equal(t, s.want, got, "after %s", s.ev)
	}
}

func TestMachineLoginFailureKeepsMessage(t *testing.T) {
	m := NewMachine()
	_, err := m.Fire(SubmitLogin, "")
	require.NoError(t, err)

	p, err := m.Fire(LoginFailed, "invalid credentials")
	require.NoError(t, err)
	assert.Equal(t, Unauthenticated, p)
	assert.Equal(t, "invalid credentials", m.Message())

	_, err = m.Fire(SubmitLogin, "")
	require.NoError(t, err)
	assert.Empty(t, m.Message())
}

func TestMachineIllegalTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup []Event
		ev    Event
	}{
		{"load before login", nil, StartLoad},
		{"logout when signed out", nil, Logout},
		{"success without load", []Event{SessionRestored}, LoadSucceeded},
		{"login while loading", []Event{SessionRestored, StartLoad}, SubmitLogin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine()
			for _, ev := range tt.setup {
				_, err := m.Fire(ev, "")
				require.NoError(t, err)
			}
			before := m.Phase()
			_, err := m.Fire(tt.ev, "")
			assert.ErrorIs(t, err, ErrIllegalTransition)
			assert.Equal(t, before, m.Phase())
		})
	}
}

func TestPhaseAndEventStrings(t *testing.T) {
	assert.Equal(t, "load-error", LoadError.String())
	assert.Equal(t, "session-expired", SessionExpired.String())
	assert.Equal(t, "phase(99)", Phase(99).String())
}

func TestLoadPublishesSnapshot(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{{ds: testDataset(100, 250)}}}
	l := NewLoader(f, WithClock(clock))

	assert.Nil(t, l.Current())

	snap, err := l.Load(context.Background(), "tok")
	require.NoError(t, err)
	require.Same(t, snap, l.Current())

	assert.Equal(t, uint64(1), snap.Generation)
	assert.Empty(t, snap.Failed())
	assert.Equal(t, int64(350), snap.Stats.Value.TotalXP)
	assert.Equal(t, "Apprentice Developer", snap.Stats.Value.CurrentRank.Name)
	assert.Equal(t, []int64{250, 350}, snap.XP.Value.Cumulative)
	assert.Equal(t, []string{"GO", "JS"}, snap.Skills.Value.Labels)
	assert.Equal(t, "1.5", snap.Audit.Value.String())
	assert.Equal(t, 2, snap.Outcomes.Value.Total)
	require.Len(t, snap.Pending.Value, 1)
	assert.Equal(t, "3 DAYS", snap.Pending.Value[0].Elapsed)
}

func TestLoadFetchErrorKeepsPreviousSnapshot(t *testing.T) {
	authErr := &graphql.ErrAuth{Status: 401}
	f := &fakeFetcher{results: []fetchResult{
		{ds: testDataset(10)},
		{err: authErr},
	}}
	l := NewLoader(f, WithClock(clock))

	first, err := l.Load(context.Background(), "tok")
	require.NoError(t, err)

	_, err = l.Load(context.Background(), "tok")
	var target *graphql.ErrAuth
	require.True(t, errors.As(err, &target))
	assert.Same(t, first, l.Current())
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	f := &fakeFetcher{
		results: []fetchResult{
			{ds: testDataset(1), gate: gate},
			{ds: testDataset(2)},
		},
		started: make(chan struct{}, 2),
	}
	l := NewLoader(f, WithClock(clock))

	type result struct {
		snap *Snapshot
		err  error
	}
	slow := make(chan result, 1)
	go func() {
		s, err := l.Load(context.Background(), "tok")
		slow <- result{s, err}
	}()
	<-f.started

	fresh, err := l.Load(context.Background(), "tok")
	require.NoError(t, err)
	<-f.started

	close(gate)
	r := <-slow
	assert.ErrorIs(t, r.err, ErrStaleLoad)
	assert.Nil(t, r.snap)

	require.Same(t, fresh, l.Current())
	assert.Equal(t, int64(2), l.Current().Stats.Value.TotalXP)
}

func TestStaleFailedLoadIsDiscarded(t *testing.T) {
	s, err := store.Open("file:dashboard_stale_fail?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	gate := make(chan struct{})
	f := &fakeFetcher{
		results: []fetchResult{
			{err: &graphql.ErrNetwork{Op: "graphql query", Status: 502}, gate: gate},
			{ds: testDataset(2)},
		},
		started: make(chan struct{}, 2),
	}
	l := NewLoader(f, WithClock(clock), WithEventRepo(s.EventRepo()))

	slow := make(chan error, 1)
	go func() {
		_, err := l.Load(context.Background(), "old-token")
		slow <- err
	}()
	<-f.started

	fresh, err := l.Load(context.Background(), "new-token")
	require.NoError(t, err)
	<-f.started

	close(gate)
	slowErr := <-slow
	assert.ErrorIs(t, slowErr, ErrStaleLoad)
	var netErr *graphql.ErrNetwork
	assert.ErrorAs(t, slowErr, &netErr)
	require.Same(t, fresh, l.Current())

	events, err := s.EventRepo().QueryLoads(context.Background(), store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].Stale)
	assert.Empty(t, events[0].ErrorMessage)
}

func TestProgressionRecomputesWindow(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{{ds: testDataset(10, 20, 30, 40)}}}
	l := NewLoader(f, WithClock(clock), WithRangeMonths(3))

	_, err := l.Progression(1)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	snap, err := l.Load(context.Background(), "tok")
	require.NoError(t, err)
	// Points at 0, -2, -4, -6 months; a 3 month window keeps two.
	assert.Equal(t, 2, snap.XP.Value.Len())

	all, err := l.Progression(0)
	require.NoError(t, err)
	assert.Equal(t, 4, all.Len())
	assert.Equal(t, int64(100), all.Total())
	assert.Equal(t, 0, l.RangeMonths())
}

func TestComputeIsolatesPanics(t *testing.T) {
	w := compute("boom", func() int { panic("bad data") })
	require.Error(t, w.Err)
	assert.Contains(t, w.Err.Error(), "boom widget")
	assert.Zero(t, w.Value)

	ok := compute("fine", func() int { return 7 })
	assert.True(t, ok.OK())
	assert.Equal(t, 7, ok.Value)
}

type fakeProfiles struct{ saved []record.Profile }

func (f *fakeProfiles) SaveProfile(_ context.Context, p record.Profile) error {
	f.saved = append(f.saved, p)
	return nil
}

func TestLoadRecordsToStore(t *testing.T) {
	s, err := store.Open("file:dashboard_load?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ds := testDataset(100)
	ds.Dropped = map[string]int{"xp": 2}
	f := &fakeFetcher{results: []fetchResult{
		{ds: ds},
		{err: &graphql.ErrQuery{Messages: []string{"bad arg"}}},
	}}
	profiles := &fakeProfiles{}
	l := NewLoader(f,
		WithClock(clock),
		WithEventRepo(s.EventRepo()),
		WithSnapshotRepo(s.SnapshotRepo(), 3),
		WithProfileSaver(profiles),
	)

	ctx := context.Background()
	_, err = l.Load(ctx, "tok")
	require.NoError(t, err)
	_, err = l.Load(ctx, "tok")
	require.Error(t, err)

	events, err := s.EventRepo().QueryLoads(ctx, store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.False(t, events[0].Success)
	assert.Equal(t, "graphql: bad arg", events[0].ErrorMessage)
	assert.True(t, events[1].Success)
	assert.Equal(t, 2, events[1].Dropped)
	assert.Equal(t, 42, events[1].UserID)

	require.Len(t, profiles.saved, 1)
	assert.Equal(t, "jdoe", profiles.saved[0].Login)

	// A fresh loader can rebuild the dashboard from the stored snapshot.
	cached := NewLoader(&fakeFetcher{}, WithClock(clock), WithSnapshotRepo(s.SnapshotRepo(), 3))
	snap, err := cached.LoadCached(ctx, 42)
	require.NoError(t, err)
	assert.True(t, snap.Cached)
	assert.Equal(t, int64(100), snap.Stats.Value.TotalXP)

	_, err = cached.LoadCached(ctx, 7)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}
