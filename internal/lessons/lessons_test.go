package lessons

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abhisek/lingoz/internal/exercise"
)

func TestBuiltinLessonsAreValid(t *testing.T) {
	lessons, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin() error: %v", err)
	}
	if len(lessons) != 6 {
		t.Fatalf("got %d built-in lessons, want 6", len(lessons))
	}

	for _, l := range lessons {
		for i := range l.Blocks {
			b := &l.Blocks[i]
			if !b.Kind.Scored() {
				continue
			}
			items, opts, err := b.Exercise()
			if err != nil {
				t.Errorf("%s/%s: %v", l.ID, b.ID, err)
				continue
			}
			if _, err := exercise.New(items, opts); err != nil {
				t.Errorf("%s/%s: exercise.New: %v", l.ID, b.ID, err)
			}
		}
	}
}

func TestKindDefaults(t *testing.T) {
	tests := []struct {
		kind  Kind
		cmp   exercise.Comparison
		unit  exercise.ScoringUnit
		retry bool
	}{
		{KindMCQ, exercise.ComparisonExact, exercise.PerItem, false},
		{KindFill, exercise.ComparisonSetMembership, exercise.PerItem, true},
		{KindDictation, exercise.ComparisonExact, exercise.PerAttempt, true},
		{KindSort, exercise.ComparisonAllSlotsMatch, exercise.PerItem, false},
		{KindMatch, exercise.ComparisonAllSlotsMatch, exercise.PerItem, false},
	}
	for _, tt := range tests {
		b := Block{Kind: tt.kind}
		got := b.Options()
		if got.Comparison != tt.cmp || got.ScoringUnit != tt.unit || got.AllowRetry != tt.retry {
			t.Errorf("%s options = %+v, want {%s %s %v}", tt.kind, got, tt.cmp, tt.unit, tt.retry)
		}
	}
}

func TestBlockOptions_Overrides(t *testing.T) {
	retry := true
	b := Block{Kind: KindMCQ, Scoring: "per-attempt", AllowRetry: &retry}
	got := b.Options()
	if got.ScoringUnit != exercise.PerAttempt || !got.AllowRetry {
		t.Errorf("options = %+v", got)
	}
}

func TestExerciseItems_AcceptOrder(t *testing.T) {
	items := ExerciseItems([]Item{{ID: "a", Answer: "enquire about", Accept: []string{"inquire about"}}})
	if got := items[0].Accept; len(got) != 2 || got[0] != "enquire about" {
		t.Errorf("Accept = %v, want canonical answer first", got)
	}
}

func TestBuilderTemplate(t *testing.T) {
	b := Block{Kind: KindBuilder, Template: "{opener} have {drink}, please?"}
	if got := strings.Join(b.Slots(), ","); got != "opener,drink" {
		t.Errorf("Slots = %s", got)
	}
	got := b.Fill(map[string]string{"opener": "Could I"})
	if got != "Could I have ___, please?" {
		t.Errorf("Fill = %q", got)
	}
}

const validPack = `
id: extra
title: Extra practice
version: "2.0.0"
blocks:
  - id: quiz
    kind: mcq
    items:
      - id: q1
        prompt: Pick one
        answer: yes
        distractors: [no]
  - id: words
    kind: match
    items:
      - id: a
        prompt: big
        answer: large
      - id: b
        prompt: small
        answer: little
`

func TestParse(t *testing.T) {
	l, err := Parse([]byte(validPack), "extra.yaml")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if l.ID != "extra" || len(l.Blocks) != 2 {
		t.Fatalf("lesson = %+v", l)
	}
	if l.Blocks[0].Points != 1 {
		t.Errorf("default Points = %d, want 1", l.Blocks[0].Points)
	}
	words, _ := l.Block("words")
	if strings.Join(words.Categories, ",") != "large,little" {
		t.Errorf("match categories = %v", words.Categories)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "bad yaml",
			yaml: "id: [",
			want: "decode yaml",
		},
		{
			name: "unknown kind",
			yaml: "id: x\ntitle: X\nblocks:\n  - id: b\n    kind: essay\n    items:\n      - {id: a, answer: a}\n",
			want: "schema validation failed",
		},
		{
			name: "unknown field",
			yaml: "id: x\ntitle: X\ncolour: red\nblocks:\n  - id: b\n    kind: fill\n    items:\n      - {id: a, answer: a}\n",
			want: "schema validation failed",
		},
		{
			name: "mcq without distractors",
			yaml: "id: x\ntitle: X\nblocks:\n  - id: b\n    kind: mcq\n    items:\n      - {id: a, answer: a}\n",
			want: "has no distractors",
		},
		{
			name: "duplicate item",
			yaml: "id: x\ntitle: X\nblocks:\n  - id: b\n    kind: fill\n    items:\n      - {id: a, answer: a}\n      - {id: a, answer: b}\n",
			want: "duplicate item ID",
		},
		{
			name: "sort answer not a category",
			yaml: "id: x\ntitle: X\nblocks:\n  - id: b\n    kind: sort\n    categories: [One]\n    items:\n      - {id: a, answer: Two}\n",
			want: "is not a category",
		},
		{
			name: "builder slot without item",
			yaml: "id: x\ntitle: X\nblocks:\n  - id: b\n    kind: builder\n    template: \"{a} {b}\"\n    items:\n      - {id: a, answer: hi}\n",
			want: `template slot "b"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), "test.yaml")
			if err == nil {
				t.Fatal("expected error")
			}
			var invalid *ErrInvalidLesson
			if !errors.As(err, &invalid) {
				t.Fatalf("expected ErrInvalidLesson, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestRegistry_VersionPrecedence(t *testing.T) {
	r := NewRegistry()
	v1 := &Lesson{ID: "a", Version: "1.2.0"}
	v2 := &Lesson{ID: "a", Version: "v1.10.0"}
	old := &Lesson{ID: "a", Version: "1.9"}

	if !r.Register(v1) {
		t.Fatal("first registration rejected")
	}
	if !r.Register(v2) {
		t.Fatal("newer version rejected")
	}
	if r.Register(old) {
		t.Error("older version accepted")
	}
	got, _ := r.Get("a")
	if got != v2 {
		t.Errorf("Get = %+v, want v1.10.0", got)
	}

	same := &Lesson{ID: "a", Version: "1.10.0"}
	if !r.Register(same) {
		t.Error("equal version should replace")
	}
}

func TestRegistry_OrderAndNext(t *testing.T) {
	r := NewRegistry()
	r.Register(&Lesson{ID: "c", Order: 2})
	r.Register(&Lesson{ID: "b", Order: 1})
	r.Register(&Lesson{ID: "a", Order: 2})

	var ids []string
	for _, l := range r.All() {
		ids = append(ids, l.ID)
	}
	if strings.Join(ids, ",") != "b,a,c" {
		t.Errorf("All = %v, want [b a c]", ids)
	}

	next, ok := r.Next("a")
	if !ok || next.ID != "c" {
		t.Errorf("Next(a) = %v, %v", next, ok)
	}
	if _, ok := r.Next("c"); ok {
		t.Error("Next(last) ok = true")
	}
}

func TestLoad_DirOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	pack := strings.Replace(validPack, "id: extra", "id: numbers", 1)
	pack = strings.Replace(pack, `version: "2.0.0"`, `version: "9.0.0"`, 1)
	if err := os.WriteFile(filepath.Join(dir, "numbers.yaml"), []byte(pack), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := Load(dir, filepath.Join(dir, "missing"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if r.Len() != 6 {
		t.Errorf("Len = %d, want 6", r.Len())
	}
	l, _ := r.Get("numbers")
	if l.Version != "9.0.0" {
		t.Errorf("numbers version = %s, want 9.0.0 from dir", l.Version)
	}
	if !strings.HasSuffix(l.Source, "numbers.yaml") || !filepath.IsAbs(l.Source) {
		t.Errorf("Source = %q", l.Source)
	}
}

func TestLoad_InvalidPackFails(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "bad.yml"), []byte("id: x\n"), 0o644)

	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for invalid pack")
	}
}
