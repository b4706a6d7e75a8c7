package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func retryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 1 * time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		Multiplier:  2.0,
	}
}

var (
	okReply   = MockResponse{Content: json.RawMessage(`{"ok":true}`)}
	downReply = MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}}
	badReply  = MockResponse{Err: &ErrInvalidResponse{Content: json.RawMessage(`bad`), Err: errors.New("bad")}}
)

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		replies   []MockResponse
		attempts  int
		wantErr   bool
		wantCalls int
	}{
		{"first attempt succeeds", []MockResponse{okReply}, 3, false, 1},
		{"transient then success", []MockResponse{downReply, okReply}, 3, false, 2},
		{"all attempts fail", []MockResponse{downReply, downReply, downReply, okReply}, 3, true, 3},
		{"truncation not retried", []MockResponse{{Err: &ErrMaxTokensExceeded{}}, okReply}, 3, true, 1},
		{"invalid response retried once", []MockResponse{badReply, badReply, okReply}, 3, true, 2},
		{"rate limit honours retry-after", []MockResponse{{Err: &ErrRateLimit{RetryAfter: time.Millisecond}}, okReply}, 3, false, 2},
		{"zero attempts still calls once", []MockResponse{downReply, okReply}, 0, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.replies...)
			cfg := retryConfig()
			cfg.MaxAttempts = tt.attempts

			resp, err := WithRetry(mock, cfg).Generate(context.Background(), Request{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && string(resp.Content) != `{"ok":true}` {
				t.Errorf("content = %s", resp.Content)
			}
			if mock.CallCount() != tt.wantCalls {
				t.Errorf("calls = %d, want %d", mock.CallCount(), tt.wantCalls)
			}
		})
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	mock := NewMockProvider(downReply, downReply, okReply)
	cfg := retryConfig()
	cfg.InitialWait = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WithRetry(mock, cfg).Generate(ctx, Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestRetry_BackoffCapped(t *testing.T) {
	r := &RetryProvider{config: RetryConfig{InitialWait: time.Second, MaxWait: 2 * time.Second, Multiplier: 10}}
	for attempt := range 4 {
		wait := r.backoff(attempt, errors.New("x"))
		if wait > 2400*time.Millisecond {
			t.Errorf("attempt %d waited %s, above cap plus jitter", attempt, wait)
		}
	}
}
