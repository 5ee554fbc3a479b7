package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/zonedash/internal/rank"
	"github.com/abhisek/zonedash/internal/record"
	"github.com/abhisek/zonedash/internal/skills"
	"github.com/abhisek/zonedash/internal/stats"
	"github.com/abhisek/zonedash/internal/store"
	"github.com/abhisek/zonedash/internal/xp"
)

var (
	// ErrStaleLoad is returned by Load when a newer load started before it
	// finished. The stale result is discarded.
	ErrStaleLoad = errors.New("load superseded by a newer load")

	// ErrNoSnapshot is returned when no load has completed yet.
	ErrNoSnapshot = errors.New("no dashboard data loaded")
)

// Fetcher performs the mandatory dashboard fetch. *graphql.Client
// satisfies it.
type Fetcher interface {
	FetchDashboard(ctx context.Context, token string) (*record.Dataset, error)
}

// ProfileSaver records the profile of a successful load.
// *session.Manager satisfies it.
type ProfileSaver interface {
	SaveProfile(ctx context.Context, p record.Profile) error
}

// Widget is the result of one independently computed dashboard widget.
// A failed widget carries Err and the zero Value.
type Widget[T any] struct {
	Value T
	Err   error
}

// OK reports whether the widget computed successfully.
func (w Widget[T]) OK() bool {
	return w.Err == nil
}

// Snapshot is an immutable, fully computed dashboard. A new load publishes
// a new Snapshot; existing ones are never modified.
type Snapshot struct {
	Generation  uint64
	Dataset     *record.Dataset
	RangeMonths int
	LoadedAt    time.Time
	Duration    time.Duration
	Cached      bool // built from a stored snapshot, not a fetch

	Stats    Widget[stats.Derived]
	XP       Widget[xp.Series]
	Skills   Widget[skills.Series]
	Audit    Widget[stats.Audit]
	Outcomes Widget[stats.ProjectCounts]
	Pending  Widget[[]stats.Project]
}

// Failed returns the names of widgets that failed to compute.
func (s *Snapshot) Failed() []string {
	var names []string
	for _, w := range []struct {
		name string
		err  error
	}{
		{"stats", s.Stats.Err},
		{"xp", s.XP.Err},
		{"skills", s.Skills.Err},
		{"audit", s.Audit.Err},
		{"outcomes", s.Outcomes.Err},
		{"pending", s.Pending.Err},
	} {
		if w.err != nil {
			names = append(names, w.name)
		}
	}
	return names
}

// Loader fetches, derives and publishes dashboard snapshots.
type Loader struct {
	fetch    Fetcher
	ranks    rank.Table
	events   store.EventRepo
	snaps    store.SnapshotRepo
	profiles ProfileSaver
	logger   *slog.Logger
	now      func() time.Time
	keep     int

	rangeMonths atomic.Int64
	gen         atomic.Uint64
	publishMu   sync.Mutex
	current     atomic.Pointer[Snapshot]
}

// Option customizes a Loader.
type Option func(*Loader)

// WithRanks sets the rank table. Defaults to rank.DefaultTable().
func WithRanks(t rank.Table) Option {
	return func(l *Loader) { l.ranks = t }
}

// WithEventRepo records every load in the store's load log.
func WithEventRepo(r store.EventRepo) Option {
	return func(l *Loader) { l.events = r }
}

// WithSnapshotRepo saves the raw dataset of every successful load and
// keeps the newest keep snapshots.
func WithSnapshotRepo(r store.SnapshotRepo, keep int) Option {
	return func(l *Loader) {
		l.snaps = r
		l.keep = keep
	}
}

// WithProfileSaver saves the fetched profile after a successful load.
func WithProfileSaver(p ProfileSaver) Option {
	return func(l *Loader) { l.profiles = p }
}

// WithLogger sets the loader's logger.
func WithLogger(lg *slog.Logger) Option {
	return func(l *Loader) { l.logger = lg }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// WithRangeMonths sets the initial XP progression window.
func WithRangeMonths(months int) Option {
	return func(l *Loader) { l.rangeMonths.Store(int64(months)) }
}

// NewLoader creates a Loader that fetches through f.
func NewLoader(f Fetcher, opts ...Option) *Loader {
	l := &Loader{
		fetch:  f,
		ranks:  rank.DefaultTable(),
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	l.rangeMonths.Store(xp.DefaultRangeMonths)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Current returns the last published snapshot, or nil.
func (l *Loader) Current() *Snapshot {
	return l.current.Load()
}

// RangeMonths returns the XP window used by new snapshots.
func (l *Loader) RangeMonths() int {
	return int(l.rangeMonths.Load())
}

// Load fetches the dashboard data and publishes a new snapshot. If another
// Load starts before this one finishes, this one returns ErrStaleLoad and
// leaves the newer snapshot in place.
func (l *Loader) Load(ctx context.Context, token string) (*Snapshot, error) {
	gen := l.gen.Add(1)
	start := l.now()
	l.logger.Debug("load started", "generation", gen)

	ds, err := l.fetch.FetchDashboard(ctx, token)
	if err != nil {
		if latest := l.gen.Load(); latest != gen {
			l.logger.Info("discarding stale failed load", "generation", gen, "latest", latest, "error", err)
			l.record(ctx, gen, 0, start, nil, ErrStaleLoad)
			return nil, fmt.Errorf("%w: fetch dashboard: %w", ErrStaleLoad, err)
		}
		l.record(ctx, gen, 0, start, nil, err)
		return nil, fmt.Errorf("fetch dashboard: %w", err)
	}

	snap := l.build(gen, ds)
	snap.LoadedAt = l.now()
	snap.Duration = snap.LoadedAt.Sub(start)

	if !l.publish(snap) {
		l.logger.Info("discarding stale load", "generation", gen, "latest", l.gen.Load())
		l.record(ctx, gen, ds.Profile.ID, start, ds, ErrStaleLoad)
		return nil, ErrStaleLoad
	}

	l.record(ctx, gen, ds.Profile.ID, start, ds, nil)
	if failed := snap.Failed(); len(failed) > 0 {
		l.logger.Warn("widgets failed", "generation", gen, "widgets", failed)
	}
	l.persist(ctx, ds)
	return snap, nil
}

// LoadCached publishes a snapshot built from the newest stored dataset of
// userID without touching the network.
func (l *Loader) LoadCached(ctx context.Context, userID int) (*Snapshot, error) {
	if l.snaps == nil {
		return nil, ErrNoSnapshot
	}
	stored, err := l.snaps.Latest(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cached snapshot: %w", err)
	}
	if stored == nil {
		return nil, ErrNoSnapshot
	}

	gen := l.gen.Add(1)
	ds := stored.Data
	snap := l.build(gen, &ds)
	snap.LoadedAt = stored.Timestamp
	snap.Cached = true
	if !l.publish(snap) {
		return nil, ErrStaleLoad
	}
	return snap, nil
}

// Progression recomputes the XP series of the current snapshot for a new
// window and makes it the window for later loads.
func (l *Loader) Progression(months int) (xp.Series, error) {
	l.rangeMonths.Store(int64(months))
	snap := l.Current()
	if snap == nil {
		return xp.Series{}, ErrNoSnapshot
	}
	w := compute("xp", func() xp.Series {
		return xp.Progression(xp.PointsFrom(snap.Dataset.XP), months, l.now())
	})
	return w.Value, w.Err
}

// build fans the widget computations out over the immutable dataset and
// joins them into a snapshot.
func (l *Loader) build(gen uint64, ds *record.Dataset) *Snapshot {
	months := l.RangeMonths()
	now := l.now()
	snap := &Snapshot{Generation: gen, Dataset: ds, RangeMonths: months}

	// Each goroutine writes only its own field.
	var g errgroup.Group
	g.Go(func() error {
		snap.Stats = compute("stats", func() stats.Derived {
			return stats.Derive(stats.InputFrom(ds, l.ranks, months, now))
		})
		return nil
	})
	g.Go(func() error {
		snap.XP = compute("xp", func() xp.Series {
			return xp.Progression(xp.PointsFrom(ds.XP), months, now)
		})
		return nil
	})
	g.Go(func() error {
		snap.Skills = compute("skills", func() skills.Series {
			return skills.Aggregate(ds.Skills)
		})
		return nil
	})
	g.Go(func() error {
		snap.Audit = compute("audit", func() stats.Audit {
			return stats.AuditFrom(ds.Up, ds.Down, ds.Profile.AuditRatio)
		})
		return nil
	})
	g.Go(func() error {
		snap.Outcomes = compute("outcomes", func() stats.ProjectCounts {
			return stats.CountProjects(ds.Progress)
		})
		return nil
	})
	g.Go(func() error {
		snap.Pending = compute("pending", func() []stats.Project {
			return stats.PendingProjects(ds.Progress, now)
		})
		return nil
	})
	_ = g.Wait()

	if _, ok := l.ranks.Lookup(snap.Stats.Value.Level); snap.Stats.OK() && !ok {
		l.logger.Warn("level outside rank table, using last rank", "level", snap.Stats.Value.Level)
	}
	return snap
}

// publish stores snap unless a newer load has started or a newer snapshot
// is already published.
func (l *Loader) publish(snap *Snapshot) bool {
	l.publishMu.Lock()
	defer l.publishMu.Unlock()

	if l.gen.Load() != snap.Generation {
		return false
	}
	if cur := l.current.Load(); cur != nil && cur.Generation > snap.Generation {
		return false
	}
	l.current.Store(snap)
	return true
}

func (l *Loader) record(ctx context.Context, gen uint64, userID int, start time.Time, ds *record.Dataset, loadErr error) {
	if l.events == nil {
		return
	}
	ev := store.LoadEventData{
		UserID:     userID,
		Generation: gen,
		Success:    loadErr == nil || errors.Is(loadErr, ErrStaleLoad),
		Stale:      errors.Is(loadErr, ErrStaleLoad),
		DurationMs: l.now().Sub(start).Milliseconds(),
	}
	if loadErr != nil && !ev.Stale {
		ev.ErrorMessage = loadErr.Error()
	}
	if ds != nil {
		for _, n := range ds.Dropped {
			ev.Dropped += n
		}
	}
	if err := l.events.AppendLoad(ctx, ev); err != nil {
		l.logger.Error("record load event", "error", err)
	}
}

func (l *Loader) persist(ctx context.Context, ds *record.Dataset) {
	if l.profiles != nil {
		if err := l.profiles.SaveProfile(ctx, ds.Profile); err != nil {
			l.logger.Warn("save profile", "error", err)
		}
	}
	if l.snaps == nil {
		return
	}
	if err := l.snaps.Save(ctx, &store.Snapshot{UserID: ds.Profile.ID, Data: *ds}); err != nil {
		l.logger.Error("save snapshot", "error", err)
		return
	}
	if l.keep > 0 {
		if err := l.snaps.Prune(ctx, l.keep); err != nil {
			l.logger.Error("prune snapshots", "error", err)
		}
	}
}

// compute runs fn, turning a panic into the widget's error.
func compute[T any](name string, fn func() T) (w Widget[T]) {
	defer func() {
		if r := recover(); r != nil {
			w = Widget[T]{Err: fmt.Errorf("%s widget: %v", name, r)}
		}
	}()
	return Widget[T]{Value: fn()}
}
