package lessons

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/mod/semver"
)

//go:embed content/*.yaml
var builtin embed.FS

// Registry indexes lessons by id.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]*Lesson
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Lesson)}
}

// canonicalVersion turns "1.2" or "v1.2.0" into a semver string. Invalid
// versions compare lowest.
func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// Register adds l. When a lesson with the same id is already registered
// the one with the higher version wins; on a tie the newcomer wins so
// local packs can override built-in ones. It reports whether l was kept.
func (r *Registry) Register(l *Lesson) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.byID[l.ID]; ok {
		if semver.Compare(canonicalVersion(l.Version), canonicalVersion(cur.Version)) < 0 {
			log.WithFields(log.Fields{
				"lesson": l.ID, "kept": cur.Version, "ignored": l.Version, "source": l.Source,
			}).Info("older lesson version ignored")
			return false
		}
	}
	r.byID[l.ID] = l
	return true
}

// Get returns the lesson with the given id.
func (r *Registry) Get(id string) (*Lesson, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.byID[id]
	return l, ok
}

// All returns every lesson ordered by Order, then ID.
func (r *Registry) All() []*Lesson {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Lesson, 0, len(r.byID))
	for _, l := range r.byID {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of registered lessons.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Next returns the lesson after id in All order, or false at the end.
func (r *Registry) Next(id string) (*Lesson, bool) {
	all := r.All()
	for i, l := range all {
		if l.ID == id && i+1 < len(all) {
			return all[i+1], true
		}
	}
	return nil, false
}

// Builtin parses the lessons embedded in the binary.
func Builtin() ([]*Lesson, error) {
	return LoadFS(builtin, "content")
}

// Load builds a registry from the built-in lessons plus any packs in
// dirs. Missing directories are skipped.
func Load(dirs ...string) (*Registry, error) {
	r := NewRegistry()

	lessons, err := Builtin()
	if err != nil {
		return nil, fmt.Errorf("load built-in lessons: %w", err)
	}
	for _, l := range lessons {
		r.Register(l)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			log.WithField("dir", dir).Debug("lessons dir does not exist")
			continue
		}
		extra, err := LoadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("load lessons from %s: %w", dir, err)
		}
		for _, l := range extra {
			r.Register(l)
		}
	}
	return r, nil
}
