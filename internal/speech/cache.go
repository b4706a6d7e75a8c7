package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Cache stores synthesized audio on disk so each phrase is synthesized once
// per engine, accent and rate.
type Cache struct {
	inner Synthesizer
	dir   string
	mu    sync.Mutex
}

// NewCache wraps inner with a cache rooted at dir.
func NewCache(inner Synthesizer, dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create tts cache dir: %w", err)
	}
	return &Cache{inner: inner, dir: dir}, nil
}

func (c *Cache) Name() string { return c.inner.Name() }

func (c *Cache) key(req Request) string {
	h := sha256.Sum256([]byte(c.inner.Name() + "|" + req.LanguageTag + "|" +
		strconv.FormatFloat(req.Rate, 'f', 2, 64) + "|" + req.Text))
	return hex.EncodeToString(h[:16])
}

func (c *Cache) path(req Request) string {
	return filepath.Join(c.dir, c.key(req)+".audio")
}

func (c *Cache) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	p := c.path(req)
	if data, err := os.ReadFile(p); err == nil {
		return data, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if data, err := os.ReadFile(p); err == nil {
		return data, nil
	}

	data, err := c.inner.Synthesize(ctx, req)
	if err != nil {
		// Failures are not cached.
		return nil, err
	}
	if err := c.write(p, data); err != nil {
		log.WithField("path", p).WithError(err).Warn("write tts cache")
	}
	return data, nil
}

// write stores data at p through a temp file in the cache dir, so a
// concurrent reader never sees a partial entry.
func (c *Cache) write(p string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, p); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
