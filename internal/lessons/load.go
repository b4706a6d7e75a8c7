package lessons

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/lingoz/internal/exercise"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "schema://lesson.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func lessonSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parse lesson schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("add lesson schema: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// ErrInvalidLesson reports a pack that failed to parse or validate.
type ErrInvalidLesson struct {
	Source string
	Err    error
}

func (e *ErrInvalidLesson) Error() string {
	return fmt.Sprintf("invalid lesson %s: %v", e.Source, e.Err)
}

func (e *ErrInvalidLesson) Unwrap() error { return e.Err }

// Parse decodes and validates one YAML lesson pack.
func Parse(data []byte, source string) (*Lesson, error) {
	invalid := func(err error) error {
		return &ErrInvalidLesson{Source: source, Err: err}
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, invalid(fmt.Errorf("decode yaml: %w", err))
	}
	if err := validateSchema(doc); err != nil {
		return nil, invalid(err)
	}

	var l Lesson
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, invalid(fmt.Errorf("decode lesson: %w", err))
	}
	l.Source = source
	applyDefaults(&l)

	if err := Validate(&l); err != nil {
		return nil, invalid(err)
	}
	return &l, nil
}

// validateSchema round-trips the YAML document through JSON so the
// validator sees JSON types.
func validateSchema(doc any) error {
	schema, err := lessonSchema()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert to json: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("convert to json: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func applyDefaults(l *Lesson) {
	if l.Version == "" {
		l.Version = "1.0.0"
	}
	for i := range l.Blocks {
		b := &l.Blocks[i]
		if b.Points == 0 {
			b.Points = 1
		}
		if b.Kind == KindMatch && len(b.Categories) == 0 {
			for _, it := range b.Items {
				if !slices.Contains(b.Categories, it.Answer) {
					b.Categories = append(b.Categories, it.Answer)
				}
			}
		}
	}
}

// Validate performs the structural checks the schema cannot express.
// Returns a combined error describing all problems found, or nil if valid.
func Validate(l *Lesson) error {
	var errs []string

	blockIDs := make(map[string]bool, len(l.Blocks))
	for i := range l.Blocks {
		b := &l.Blocks[i]
		if blockIDs[b.ID] {
			errs = append(errs, fmt.Sprintf("duplicate block ID: %q", b.ID))
		}
		blockIDs[b.ID] = true

		itemIDs := make(map[string]bool, len(b.Items))
		for _, it := range b.Items {
			if itemIDs[it.ID] {
				errs = append(errs, fmt.Sprintf("block %q: duplicate item ID: %q", b.ID, it.ID))
			}
			itemIDs[it.ID] = true
		}

		if b.SetSize > len(b.Items) {
			errs = append(errs, fmt.Sprintf("block %q: set_size %d exceeds %d items", b.ID, b.SetSize, len(b.Items)))
		}

		switch {
		case b.Kind.Scored():
			items, opts, _ := b.Exercise()
			if _, err := exercise.New(items, opts); err != nil {
				errs = append(errs, fmt.Sprintf("block %q: %v", b.ID, err))
			}
			if b.Kind.Placed() {
				for _, it := range b.Items {
					if !slices.Contains(b.Categories, it.Answer) {
						errs = append(errs, fmt.Sprintf("block %q: item %q answer %q is not a category", b.ID, it.ID, it.Answer))
					}
				}
			}
			if b.Kind == KindMCQ {
				for _, it := range b.Items {
					if len(it.Distractors) == 0 {
						errs = append(errs, fmt.Sprintf("block %q: item %q has no distractors", b.ID, it.ID))
					}
				}
			}
		case b.Kind == KindBuilder:
			slots := b.Slots()
			if len(slots) == 0 {
				errs = append(errs, fmt.Sprintf("block %q: template has no slots", b.ID))
			}
			for _, s := range slots {
				if !itemIDs[s] {
					errs = append(errs, fmt.Sprintf("block %q: template slot %q has no item", b.ID, s))
				}
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d problems:\n  %s", len(errs), strings.Join(errs, "\n  "))
	}
	return nil
}

func isPack(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// LoadFS parses every YAML pack under root in fsys.
func LoadFS(fsys fs.FS, root string) ([]*Lesson, error) {
	var out []*Lesson
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isPack(p) {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		l, err := Parse(data, p)
		if err != nil {
			return err
		}
		out = append(out, l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadDir parses every YAML pack in dir and its subdirectories.
func LoadDir(dir string) ([]*Lesson, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve lessons dir: %w", err)
	}
	lessons, err := LoadFS(os.DirFS(abs), ".")
	if err != nil {
		return nil, err
	}
	for _, l := range lessons {
		l.Source = filepath.Join(abs, filepath.FromSlash(l.Source))
	}
	return lessons, nil
}
