package persist

import (
	"context"
	"encoding/json"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Resilient wraps an Adapter so storage failures never reach the caller.
// After the first failure it stops touching the inner adapter and keeps
// serving from an in-memory copy for the rest of the process.
type Resilient struct {
	inner Adapter
	mem   *Memory

	mu       sync.Mutex
	degraded bool
}

// NewResilient wraps inner. A nil inner starts degraded.
func NewResilient(inner Adapter) *Resilient {
	return &Resilient{
		inner:    inner,
		mem:      NewMemory(),
		degraded: inner == nil,
	}
}

// Degraded reports whether the adapter fell back to memory.
func (r *Resilient) Degraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.degraded
}

func (r *Resilient) fail(op, key string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.degraded {
		return
	}
	r.degraded = true
	log.WithFields(log.Fields{"op": op, "key": key}).
		WithError(err).
		Warn("persistence unavailable, continuing in memory")
}

func (r *Resilient) Load(ctx context.Context, key string) (json.RawMessage, error) {
	if !r.Degraded() {
		v, err := r.inner.Load(ctx, key)
		if err == nil {
			if v != nil {
				_ = r.mem.Save(ctx, key, v)
			}
			return v, nil
		}
		r.fail("load", key, err)
	}
	return r.mem.Load(ctx, key)
}

func (r *Resilient) Save(ctx context.Context, key string, value json.RawMessage) error {
	_ = r.mem.Save(ctx, key, value)
	if !r.Degraded() {
		if err := r.inner.Save(ctx, key, value); err != nil {
			r.fail("save", key, err)
		}
	}
	return nil
}

func (r *Resilient) Remove(ctx context.Context, key string) error {
	_ = r.mem.Remove(ctx, key)
	if !r.Degraded() {
		if err := r.inner.Remove(ctx, key); err != nil {
			r.fail("remove", key, err)
		}
	}
	return nil
}
