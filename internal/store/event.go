package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

const (
	tableKV      = "kv"
	tableAnswers = "answer_events"
	tableAwards  = "award_events"
	tableLLM     = "llm_request_events"
)

// sequenceCounter hands out the global sequence shared by every event
// table, so answers, awards and LLM calls can be ordered against each other
// even though each lives in its own table.
//
// The mutex serializes within the process; UPDATE ... RETURNING makes the
// increment atomic in the database.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// newSequenceCounter expects the global_sequence row created by migrate.
func newSequenceCounter(db *sql.DB) *sequenceCounter {
	return &sequenceCounter{db: db}
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
