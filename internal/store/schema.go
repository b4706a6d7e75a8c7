package store

// schema holds the DDL applied by migrate, in order. Every statement is
// idempotent so Open can run it on each start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS kv (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at INTEGER NOT NULL
)`,

	// Single-row counter shared by every event table.
	`CREATE TABLE IF NOT EXISTS global_sequence (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  next_val INTEGER NOT NULL DEFAULT 1
)`,
	`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`,

	`CREATE TABLE IF NOT EXISTS answer_events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  sequence INTEGER NOT NULL UNIQUE,
  timestamp INTEGER NOT NULL,              -- unix millis, UTC
  session_id TEXT NOT NULL,
  lesson_id TEXT NOT NULL,
  block_id TEXT NOT NULL,
  item_id TEXT NOT NULL,
  response TEXT NOT NULL DEFAULT '',
  expected TEXT NOT NULL DEFAULT '',
  correct INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE INDEX IF NOT EXISTS answer_events_lesson ON answer_events (lesson_id)`,

	`CREATE TABLE IF NOT EXISTS award_events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  sequence INTEGER NOT NULL UNIQUE,
  timestamp INTEGER NOT NULL,
  session_id TEXT NOT NULL,
  lesson_id TEXT NOT NULL,
  token TEXT NOT NULL,
  points INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS award_events_lesson ON award_events (lesson_id)`,

	`CREATE TABLE IF NOT EXISTS llm_request_events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  sequence INTEGER NOT NULL UNIQUE,
  timestamp INTEGER NOT NULL,
  provider TEXT NOT NULL,
  model TEXT NOT NULL,
  purpose TEXT NOT NULL,                   -- explain, review
  input_tokens INTEGER NOT NULL DEFAULT 0,
  output_tokens INTEGER NOT NULL DEFAULT 0,
  latency_ms INTEGER NOT NULL DEFAULT 0,
  success INTEGER NOT NULL,
  error_message TEXT NOT NULL DEFAULT '',
  request_body TEXT NOT NULL DEFAULT '',
  response_body TEXT NOT NULL DEFAULT ''
)`,
	`CREATE INDEX IF NOT EXISTS llm_request_events_purpose ON llm_request_events (purpose)`,
}
