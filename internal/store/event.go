package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// sequenceCounter hands out the monotonic sequence shared by snapshots and
// load events, so a snapshot can be matched to the load that produced it
// even when wall clocks tie.
//
// Uses raw SQL because ent's builders have no atomic counter. The mutex
// serializes within the process; the RETURNING clause makes the increment
// atomic at the database level.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// newSequenceCounter creates a counter and ensures the tracking table exists.
func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

// eventRepo implements EventRepo with ent's SQL builders.
type eventRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
}

func (r *eventRepo) AppendLoad(ctx context.Context, data LoadEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(LoadEventsTable.Name).
		Columns("id", "sequence", "timestamp", "user_id", "generation",
			"success", "stale", "duration_ms", "dropped", "error_message").
		Values(uuid.NewString(), seqNum, time.Now().UTC(), data.UserID, int64(data.Generation),
			data.Success, data.Stale, data.DurationMs, data.Dropped, data.ErrorMessage).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save load event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLoads(ctx context.Context, opts QueryOpts) ([]LoadEvent, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select("id", "sequence", "timestamp", "user_id", "generation",
			"success", "stale", "duration_ms", "dropped", "error_message").
		From(entsql.Table(LoadEventsTable.Name)).
		OrderBy(entsql.Desc("sequence"))

	if opts.After > 0 {
		sel.Where(entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		sel.Where(entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE("timestamp", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE("timestamp", opts.To.UTC()))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	query, args := sel.Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query load events: %w", err)
	}
	defer rows.Close()

	var events []LoadEvent
	for rows.Next() {
		var (
			e   LoadEvent
			gen int64
		)
		if err := rows.Scan(&e.ID, &e.Sequence, &e.Timestamp, &e.UserID, &gen,
			&e.Success, &e.Stale, &e.DurationMs, &e.Dropped, &e.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan load event: %w", err)
		}
		e.Generation = uint64(gen)
		events = append(events, e)
	}
	return events, rows.Err()
}
