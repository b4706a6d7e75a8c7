package home

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lingoz/internal/lessons"
	"github.com/abhisek/lingoz/internal/page"
	"github.com/abhisek/lingoz/internal/persist"
	"github.com/abhisek/lingoz/internal/router"
	"github.com/abhisek/lingoz/internal/screens/lesson"
)

const homeLesson = `
id: greetings
title: Greetings
level: A1
blocks:
  - id: cards
    kind: flashcards
    items:
      - {id: f1, prompt: hello, answer: hi}
`

func testOptions(t *testing.T) Options {
	t.Helper()
	reg := lessons.NewRegistry()
	l, err := lessons.Parse([]byte(homeLesson), "greetings.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	reg.Register(l)

	adapter := persist.NewMemory()
	return Options{
		Lessons: reg,
		Adapter: adapter,
		Open: func(ctx context.Context, l *lessons.Lesson) (*page.Controller, error) {
			return page.Open(ctx, l, page.Deps{Adapter: adapter})
		},
	}
}

func TestHomeScreen_MenuListsLessons(t *testing.T) {
	h := New(testOptions(t))
	if got := len(h.menu.Items); got != 3 {
		t.Fatalf("menu items = %d, want 3", got)
	}
	if h.menu.Items[0].Label != "Greetings" {
		t.Errorf("first item = %q, want Greetings", h.menu.Items[0].Label)
	}
	if !h.menu.Items[1].Disabled {
		t.Error("history should be disabled without an event repo")
	}
}

func TestHomeScreen_ShowsStoredScore(t *testing.T) {
	opts := testOptions(t)
	raw, _ := json.Marshal(persist.PageState{Version: persist.StateVersion, Score: 7})
	if err := opts.Adapter.Save(context.Background(), persist.PageKey("greetings"), raw); err != nil {
		t.Fatal(err)
	}

	h := New(opts)
	if h.Score("greetings") != 7 {
		t.Errorf("Score = %d, want 7", h.Score("greetings"))
	}
	if !strings.Contains(h.menu.Items[0].Detail, "★7") {
		t.Errorf("detail = %q, want stored score", h.menu.Items[0].Detail)
	}
}

func TestHomeScreen_OpenLessonAndResume(t *testing.T) {
	opts := testOptions(t)
	h := New(opts)

	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	push, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected PushScreenMsg")
	}
	ls, ok := push.Screen.(*lesson.LessonScreen)
	if !ok {
		t.Fatalf("pushed %T, want *lesson.LessonScreen", push.Screen)
	}

	// Leaving saves the page, so home counts it as started.
	ls.Leave()
	h.Resume()
	if h.started != 1 {
		t.Errorf("started = %d, want 1", h.started)
	}
}

func TestHomeScreen_Exit(t *testing.T) {
	h := New(testOptions(t))
	h.menu.Select(2)
	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}
