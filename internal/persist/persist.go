// Package persist defines the best-effort key-value contract used to keep
// score and preferences between runs.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Adapter stores small JSON blobs by key. No durability or transactional
// guarantees are implied.
type Adapter interface {
	// Load returns the stored value, or nil when the key is absent.
	Load(ctx context.Context, key string) (json.RawMessage, error)

	// Save stores value under key, replacing any previous value.
	Save(ctx context.Context, key string, value json.RawMessage) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// ErrStorageUnavailable indicates the backing store could not be read or
// written.
type ErrStorageUnavailable struct {
	Op  string
	Key string
	Err error
}

func (e *ErrStorageUnavailable) Error() string {
	return fmt.Sprintf("storage unavailable (%s %q): %v", e.Op, e.Key, e.Err)
}

func (e *ErrStorageUnavailable) Unwrap() error { return e.Err }

// Memory is an in-process Adapter.
type Memory struct {
	mu   sync.Mutex
	data map[string]json.RawMessage
}

// NewMemory returns an empty in-memory adapter.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]json.RawMessage)}
}

func (m *Memory) Load(_ context.Context, key string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append(json.RawMessage(nil), v...), nil
}

func (m *Memory) Save(_ context.Context, key string, value json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append(json.RawMessage(nil), value...)
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys returns the number of stored keys.
func (m *Memory) Keys() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
