package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit    int       // max results (0 = unlimited)
	After    int64     // sequence > After
	Before   int64     // sequence < Before
	From     time.Time // timestamp >= From
	To       time.Time // timestamp <= To
	LessonID string    // only events for this lesson (answers, awards)
	Purpose  string    // only LLM events with this purpose
}

// AnswerEventData captures one scored submission.
type AnswerEventData struct {
	SessionID string
	LessonID  string
	BlockID   string
	ItemID    string
	Response  string
	Expected  string
	Correct   bool
}

// AnswerEventRecord is a stored answer event.
type AnswerEventRecord struct {
	AnswerEventData
	ID        int
	Sequence  int64
	Timestamp time.Time
}

// AwardEventData captures a granted award token.
type AwardEventData struct {
	SessionID string
	LessonID  string
	Token     string
	Points    int
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	LLMRequestEventData
	ID        int
	Sequence  int64
	Timestamp time.Time
}

// LLMUsageStats aggregates LLM usage for one purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates LLM usage for one model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// LessonStat summarizes practice on one lesson page.
type LessonStat struct {
	LessonID string
	Answers  int
	Correct  int
	Points   int
	LastSeen time.Time
}

// Accuracy returns Correct/Answers, or 0 with no answers.
func (s LessonStat) Accuracy() float64 {
	if s.Answers == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Answers)
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendAnswer records a scored submission.
	AppendAnswer(ctx context.Context, data AnswerEventData) error

	// AppendAward records an award token grant.
	AppendAward(ctx context.Context, data AwardEventData) error

	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryAnswers returns answer events, newest first.
	QueryAnswers(ctx context.Context, opts QueryOpts) ([]AnswerEventRecord, error)

	// LessonStats summarizes answers and awards per lesson, ordered by
	// lesson id.
	LessonStats(ctx context.Context) ([]LessonStat, error)

	// QueryLLMEvents returns LLM events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns one LLM event by id, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	// LLMUsageByPurpose aggregates token usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)

	// LLMUsageByModel aggregates token usage per model.
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}
