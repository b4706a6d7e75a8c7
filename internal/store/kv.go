package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/lingoz/internal/persist"
)

// KVRepo stores JSON blobs by key. It implements persist.Adapter; every
// failure is reported as *persist.ErrStorageUnavailable.
type KVRepo struct {
	db *sql.DB
}

var _ persist.Adapter = (*KVRepo)(nil)

func unavailable(op, key string, err error) error {
	return &persist.ErrStorageUnavailable{Op: op, Key: key, Err: err}
}

// Load returns the blob stored under key, or nil if there is none.
func (r *KVRepo) Load(ctx context.Context, key string) (json.RawMessage, error) {
	query, args := builder().Select("value").
		From(entsql.Table(tableKV)).
		Where(entsql.EQ("key", key)).
		Query()

	var value string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("load", key, err)
	}
	return json.RawMessage(value), nil
}

// Save upserts the blob under key.
func (r *KVRepo) Save(ctx context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return unavailable("save", key, fmt.Errorf("value is not valid JSON"))
	}

	query, args := builder().Insert(tableKV).
		Columns("key", "value", "updated_at").
		Values(key, string(value), time.Now().UTC().UnixMilli()).
		OnConflict(
			entsql.ConflictColumns("key"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return unavailable("save", key, err)
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (r *KVRepo) Remove(ctx context.Context, key string) error {
	query, args := builder().Delete(tableKV).
		Where(entsql.EQ("key", key)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return unavailable("remove", key, err)
	}
	return nil
}

// Keys lists stored keys that start with prefix, sorted.
func (r *KVRepo) Keys(ctx context.Context, prefix string) ([]string, error) {
	sel := builder().Select("key").From(entsql.Table(tableKV))
	if prefix != "" {
		sel = sel.Where(entsql.HasPrefix("key", prefix))
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("keys", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, unavailable("keys", prefix, err)
		}
		// LIKE is case-insensitive in SQLite; recheck the exact prefix.
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("keys", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}
