package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// snapshotRepo implements SnapshotRepo with ent's SQL builders.
type snapshotRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
}

func (r *snapshotRepo) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap.Data)
	if err != nil {
		return fmt.Errorf("marshal snapshot data: %w", err)
	}

	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now().UTC()
	}
	if snap.Sequence == 0 {
		if snap.Sequence, err = r.seq.Next(ctx); err != nil {
			return err
		}
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(SnapshotsTable.Name).
		Columns("id", "sequence", "user_id", "timestamp", "data").
		Values(snap.ID, snap.Sequence, snap.UserID, snap.Timestamp, string(data)).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepo) Latest(ctx context.Context, userID int) (*Snapshot, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select("id", "sequence", "user_id", "timestamp", "data").
		From(entsql.Table(SnapshotsTable.Name)).
		OrderBy(entsql.Desc("sequence")).
		Limit(1)
	if userID != 0 {
		sel.Where(entsql.EQ("user_id", userID))
	}
	query, args := sel.Query()

	var (
		s   Snapshot
		raw []byte
	)
	found, err := scanOne(ctx, r.drv, query, args, &s.ID, &s.Sequence, &s.UserID, &s.Timestamp, &raw)
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	if !found {
		return nil, nil
	}
	if err := json.Unmarshal(raw, &s.Data); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot data: %w", err)
	}
	return &s, nil
}

func (r *snapshotRepo) Prune(ctx context.Context, keep int) error {
	// Find the sequence of the first snapshot past the keep window.
	query, args := entsql.Dialect(dialect.SQLite).
		Select("sequence").
		From(entsql.Table(SnapshotsTable.Name)).
		OrderBy(entsql.Desc("sequence")).
		Offset(keep).
		Limit(1).
		Query()

	var threshold int64
	found, err := scanOne(ctx, r.drv, query, args, &threshold)
	if err != nil {
		return fmt.Errorf("query snapshots for prune: %w", err)
	}
	if !found {
		return nil // fewer than keep snapshots exist
	}

	query, args = entsql.Dialect(dialect.SQLite).
		Delete(SnapshotsTable.Name).
		Where(entsql.LTE("sequence", threshold)).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}
