package llm

import (
	"context"
	"encoding/json"
	"sync"
)

const mockModel = "mock"

// MockResponse is one scripted reply.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider replays scripted replies in order and records every
// request. Once the script runs out it answers with Reply, or fails with
// ErrProviderUnavailable when Reply is nil.
type MockProvider struct {
	Reply func(Request) MockResponse

	mu     sync.Mutex
	script []MockResponse
	Calls  []Request
}

// NewMockProvider returns a MockProvider that replays responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{script: responses}
}

// NewOfflineProvider returns a provider that answers every request with a
// placeholder document shaped like the request schema. It lets the tutor
// be exercised without network access.
func NewOfflineProvider() *MockProvider {
	return &MockProvider{Reply: placeholderReply}
}

func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	var next MockResponse
	switch {
	case len(m.script) > 0:
		next, m.script = m.script[0], m.script[1:]
	case m.Reply != nil:
		next = m.Reply(req)
	default:
		next.Err = &ErrProviderUnavailable{}
	}
	m.mu.Unlock()

	if next.Err != nil {
		return nil, next.Err
	}
	return &Response{Content: next.Content, Usage: next.Usage, Model: mockModel, StopReason: "end"}, nil
}

func (m *MockProvider) ModelID() string { return mockModel }

// AddResponse appends to the script.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	m.script = append(m.script, resp)
	m.mu.Unlock()
}

// CallCount returns how many requests were made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// placeholderReply fills every top-level schema property with an empty
// value of its type and strings with a fixed note.
func placeholderReply(req Request) MockResponse {
	doc := map[string]any{}
	if req.Schema != nil {
		props, _ := req.Schema.Definition["properties"].(map[string]any)
		for name, p := range props {
			prop, _ := p.(map[string]any)
			typ, _ := prop["type"].(string)
			switch typ {
			case "string":
				doc[name] = "(offline tutor)"
			case "array":
				doc[name] = []any{}
			case "integer", "number":
				doc[name] = 0
			case "boolean":
				doc[name] = false
			case "object":
				doc[name] = map[string]any{}
			}
		}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return MockResponse{Err: err}
	}
	return MockResponse{Content: raw}
}
