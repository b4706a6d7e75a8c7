package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lingoz/internal/screen"
)

// stubScreen is a minimal screen for testing.
type stubScreen struct {
	title   string
	initRan bool
}

func (s *stubScreen) Init() tea.Cmd {
	s.initRan = true
	return nil
}
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                    { return s.title }
func (s *stubScreen) Title() string                           { return s.title }

func TestPush(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Push(s2)

	if r.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", r.Depth())
	}
	if r.Active().Title() != "second" {
		t.Errorf("expected active 'second', got %q", r.Active().Title())
	}
	if !s2.initRan {
		t.Error("expected Init() to run on pushed screen")
	}
}

func TestPop(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Push(s2)
	r.Pop()

	if r.Depth() != 1 {
		t.Errorf("expected depth 1, got %d", r.Depth())
	}
	if r.Active().Title() != "first" {
		t.Errorf("expected active 'first', got %q", r.Active().Title())
	}
}

func TestPopNoopAtBottom(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	r.Pop()

	if r.Depth() != 1 {
		t.Errorf("expected depth 1 after pop at bottom, got %d", r.Depth())
	}
}

func TestReplace(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Replace(s2)

	if r.Depth() != 1 {
		t.Errorf("expected depth 1 after replace, got %d", r.Depth())
	}
	if r.Active().Title() != "second" {
		t.Errorf("expected active 'second', got %q", r.Active().Title())
	}
	if !s2.initRan {
		t.Error("expected Init() to run on replaced screen")
	}
}

func TestReplaceScreenMsg(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Update(ReplaceScreenMsg{Screen: s2})

	if r.Active().Title() != "second" {
		t.Errorf("expected active 'second', got %q", r.Active().Title())
	}
	if !s2.initRan {
		t.Error("expected Init() to run via ReplaceScreenMsg")
	}
}

func TestReplacePreservesStackDepth(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Push(s2)

	s3 := &stubScreen{title: "third"}
	r.Replace(s3)

	if r.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", r.Depth())
	}
	if r.Active().Title() != "third" {
		t.Errorf("expected active 'third', got %q", r.Active().Title())
	}
}

type resumingScreen struct {
	stubScreen
	resumed int
}

func (s *resumingScreen) Resume() tea.Cmd {
	s.resumed++
	return nil
}

func TestPopResumesScreenBelow(t *testing.T) {
	lesson := &resumingScreen{stubScreen: stubScreen{title: "lesson"}}
	r := New(lesson)

	r.Update(PushScreenMsg{Screen: &stubScreen{title: "quiz"}})
	r.Update(PopScreenMsg{})

	if lesson.resumed != 1 {
		t.Errorf("resumed = %d, want 1", lesson.resumed)
	}
	if r.Active().Title() != "lesson" {
		t.Errorf("expected active 'lesson', got %q", r.Active().Title())
	}
}

type leavingScreen struct {
	stubScreen
	left int
}

func (s *leavingScreen) Leave() { s.left++ }

func TestPopAndReplaceLeaveScreen(t *testing.T) {
	r := New(&stubScreen{title: "home"})

	first := &leavingScreen{stubScreen: stubScreen{title: "first"}}
	r.Push(first)
	second := &leavingScreen{stubScreen: stubScreen{title: "second"}}
	r.Replace(second)
	if first.left != 1 {
		t.Errorf("replaced screen left = %d, want 1", first.left)
	}

	r.Pop()
	if second.left != 1 {
		t.Errorf("popped screen left = %d, want 1", second.left)
	}

	// Popping the root is a no-op and leaves nothing.
	root := &leavingScreen{stubScreen: stubScreen{title: "root"}}
	r2 := New(root)
	r2.Pop()
	if root.left != 0 {
		t.Errorf("root left = %d, want 0", root.left)
	}
}
