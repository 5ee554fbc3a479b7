package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// kvRepo implements KVRepo with ent's SQL builders.
type kvRepo struct {
	drv *entsql.Driver
}

func (r *kvRepo) Get(ctx context.Context, key string) (string, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select("value").
		From(entsql.Table(KvTable.Name)).
		Where(entsql.EQ("name", key)).
		Limit(1).
		Query()

	var value string
	found, err := scanOne(ctx, r.drv, query, args, &value)
	if err != nil {
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	if !found {
		return "", ErrNotFound
	}
	return value, nil
}

func (r *kvRepo) Set(ctx context.Context, key, value string) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(KvTable.Name).
		Columns("name", "value", "updated_at").
		Values(key, value, time.Now().UTC()).
		OnConflict(
			entsql.ConflictColumns("name"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (r *kvRepo) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	in := make([]any, len(keys))
	for i, k := range keys {
		in[i] = k
	}
	query, args := entsql.Dialect(dialect.SQLite).
		Delete(KvTable.Name).
		Where(entsql.In("name", in...)).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("delete keys: %w", err)
	}
	return nil
}

// scanOne runs query and scans the first row into dest. It reports whether
// a row was found.
func scanOne(ctx context.Context, drv *entsql.Driver, query string, args []any, dest ...any) (bool, error) {
	rows := &entsql.Rows{}
	if err := drv.Query(ctx, query, args, rows); err != nil {
		return false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return false, rows.Err()
	}
	if err := rows.Scan(dest...); err != nil {
		return false, err
	}
	return true, rows.Err()
}
