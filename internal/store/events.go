package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo on top of ent's SQL builder and the global
// sequence counter.
type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

// insert appends one event row, stamping it with the next sequence number
// and the current time.
func (r *eventRepo) insert(ctx context.Context, table string, columns []string, values []any) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}

	query, args := builder().Insert(table).
		Columns(append([]string{"sequence", "timestamp"}, columns...)...).
		Values(append([]any{seqNum, time.Now().UTC().UnixMilli()}, values...)...).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

func (r *eventRepo) AppendAnswer(ctx context.Context, data AnswerEventData) error {
	err := r.insert(ctx, tableAnswers,
		[]string{"session_id", "lesson_id", "block_id", "item_id", "response", "expected", "correct"},
		[]any{data.SessionID, data.LessonID, data.BlockID, data.ItemID, data.Response, data.Expected, data.Correct},
	)
	if err != nil {
		return fmt.Errorf("save answer event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendAward(ctx context.Context, data AwardEventData) error {
	err := r.insert(ctx, tableAwards,
		[]string{"session_id", "lesson_id", "token", "points"},
		[]any{data.SessionID, data.LessonID, data.Token, data.Points},
	)
	if err != nil {
		return fmt.Errorf("save award event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	err := r.insert(ctx, tableLLM,
		[]string{
			"provider", "model", "purpose", "input_tokens", "output_tokens",
			"latency_ms", "success", "error_message", "request_body", "response_body",
		},
		[]any{
			data.Provider, data.Model, data.Purpose, data.InputTokens, data.OutputTokens,
			data.LatencyMs, data.Success, data.ErrorMessage, data.RequestBody, data.ResponseBody,
		},
	)
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

// applyOpts narrows an event selector by sequence, time and limit.
func applyOpts(s *entsql.Selector, opts QueryOpts) *entsql.Selector {
	s = s.OrderBy(entsql.Desc("sequence"))
	if opts.After > 0 {
		s = s.Where(entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		s = s.Where(entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		s = s.Where(entsql.GTE("timestamp", opts.From.UTC().UnixMilli()))
	}
	if !opts.To.IsZero() {
		s = s.Where(entsql.LTE("timestamp", opts.To.UTC().UnixMilli()))
	}
	if opts.Limit > 0 {
		s = s.Limit(opts.Limit)
	}
	return s
}

func (r *eventRepo) QueryAnswers(ctx context.Context, opts QueryOpts) ([]AnswerEventRecord, error) {
	sel := builder().Select(
		"id", "sequence", "timestamp", "session_id", "lesson_id",
		"block_id", "item_id", "response", "expected", "correct",
	).From(entsql.Table(tableAnswers))
	if opts.LessonID != "" {
		sel = sel.Where(entsql.EQ("lesson_id", opts.LessonID))
	}
	query, args := applyOpts(sel, opts).Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query answer events: %w", err)
	}
	defer rows.Close()

	var records []AnswerEventRecord
	for rows.Next() {
		var (
			rec AnswerEventRecord
			ms  int64
		)
		if err := rows.Scan(
			&rec.ID, &rec.Sequence, &ms, &rec.SessionID, &rec.LessonID,
			&rec.BlockID, &rec.ItemID, &rec.Response, &rec.Expected, &rec.Correct,
		); err != nil {
			return nil, fmt.Errorf("scan answer event: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ms).UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *eventRepo) LessonStats(ctx context.Context) ([]LessonStat, error) {
	byLesson := make(map[string]*LessonStat)
	get := func(id string) *LessonStat {
		st, ok := byLesson[id]
		if !ok {
			st = &LessonStat{LessonID: id}
			byLesson[id] = st
		}
		return st
	}

	query, args := builder().Select(
		"lesson_id",
		entsql.Count("*"),
		"COALESCE("+entsql.Sum("correct")+", 0)",
		entsql.Max("timestamp"),
	).From(entsql.Table(tableAnswers)).GroupBy("lesson_id").Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query lesson answers: %w", err)
	}
	for rows.Next() {
		var (
			id               string
			answers, correct int
			last             int64
		)
		if err := rows.Scan(&id, &answers, &correct, &last); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan lesson answers: %w", err)
		}
		st := get(id)
		st.Answers = answers
		st.Correct = correct
		st.LastSeen = time.UnixMilli(last).UTC()
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query lesson answers: %w", err)
	}

	query, args = builder().Select(
		"lesson_id",
		"COALESCE("+entsql.Sum("points")+", 0)",
		entsql.Max("timestamp"),
	).From(entsql.Table(tableAwards)).GroupBy("lesson_id").Query()

	rows, err = r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query lesson awards: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id     string
			points int
			last   int64
		)
		if err := rows.Scan(&id, &points, &last); err != nil {
			return nil, fmt.Errorf("scan lesson awards: %w", err)
		}
		st := get(id)
		st.Points = points
		if t := time.UnixMilli(last).UTC(); t.After(st.LastSeen) {
			st.LastSeen = t
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query lesson awards: %w", err)
	}

	stats := make([]LessonStat, 0, len(byLesson))
	for _, st := range byLesson {
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].LessonID < stats[j].LessonID })
	return stats, nil
}

var llmColumns = []string{
	"id", "sequence", "timestamp", "provider", "model", "purpose",
	"input_tokens", "output_tokens", "latency_ms", "success",
	"error_message", "request_body", "response_body",
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLLMEvent(s scanner) (LLMRequestEventRecord, error) {
	var (
		rec LLMRequestEventRecord
		ms  int64
	)
	err := s.Scan(
		&rec.ID, &rec.Sequence, &ms, &rec.Provider, &rec.Model, &rec.Purpose,
		&rec.InputTokens, &rec.OutputTokens, &rec.LatencyMs, &rec.Success,
		&rec.ErrorMessage, &rec.RequestBody, &rec.ResponseBody,
	)
	rec.Timestamp = time.UnixMilli(ms).UTC()
	return rec, err
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error) {
	sel := builder().Select(llmColumns...).From(entsql.Table(tableLLM))
	if opts.Purpose != "" {
		sel = sel.Where(entsql.EQ("purpose", opts.Purpose))
	}
	query, args := applyOpts(sel, opts).Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var records []LLMRequestEventRecord
	for rows.Next() {
		rec, err := scanLLMEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan LLM event: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error) {
	query, args := builder().Select(llmColumns...).
		From(entsql.Table(tableLLM)).
		Where(entsql.EQ("id", id)).
		Query()

	rec, err := scanLLMEvent(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get LLM event %d: %w", id, err)
	}
	return &rec, nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error) {
	query, args := builder().Select(
		"purpose",
		entsql.Count("*"),
		"COALESCE("+entsql.Sum("input_tokens")+", 0)",
		"COALESCE("+entsql.Sum("output_tokens")+", 0)",
		"COALESCE("+entsql.Avg("latency_ms")+", 0)",
	).From(entsql.Table(tableLLM)).
		GroupBy("purpose").
		OrderBy("purpose").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM usage: %w", err)
	}
	defer rows.Close()

	var stats []LLMUsageStats
	for rows.Next() {
		var (
			st  LLMUsageStats
			avg float64
		)
		if err := rows.Scan(&st.Purpose, &st.Calls, &st.InputTokens, &st.OutputTokens, &avg); err != nil {
			return nil, fmt.Errorf("scan LLM usage: %w", err)
		}
		st.AvgLatencyMs = int64(avg)
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error) {
	query, args := builder().Select(
		"model",
		entsql.Count("*"),
		"COALESCE("+entsql.Sum("input_tokens")+", 0)",
		"COALESCE("+entsql.Sum("output_tokens")+", 0)",
	).From(entsql.Table(tableLLM)).
		Where(entsql.EQ("success", true)).
		GroupBy("model").
		OrderBy("model").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query model usage: %w", err)
	}
	defer rows.Close()

	var usage []LLMModelUsage
	for rows.Next() {
		var mu LLMModelUsage
		if err := rows.Scan(&mu.Model, &mu.Calls, &mu.InputTokens, &mu.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan model usage: %w", err)
		}
		usage = append(usage, mu)
	}
	return usage, rows.Err()
}
