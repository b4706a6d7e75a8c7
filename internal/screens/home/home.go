package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	log "github.com/sirupsen/logrus"

	"github.com/abhisek/lingoz/internal/lessons"
	"github.com/abhisek/lingoz/internal/persist"
	"github.com/abhisek/lingoz/internal/router"
	"github.com/abhisek/lingoz/internal/screen"
	"github.com/abhisek/lingoz/internal/screens/history"
	"github.com/abhisek/lingoz/internal/screens/lesson"
	"github.com/abhisek/lingoz/internal/store"
	"github.com/abhisek/lingoz/internal/ui/components"
	"github.com/abhisek/lingoz/internal/ui/layout"
	"github.com/abhisek/lingoz/internal/ui/theme"
)

// Options wires the home screen.
type Options struct {
	Lessons *lessons.Registry
	Adapter persist.Adapter
	Events  store.EventRepo
	Open    lesson.Opener

	// TutorOff shows a note that explanations need an LLM key.
	TutorOff bool
}

// HomeScreen is the main home screen of the application: every lesson
// with its stored score.
type HomeScreen struct {
	opts    Options
	menu    components.Menu
	scores  map[string]int
	points  int
	started int
	err     error
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ router.Resumer = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(opts Options) *HomeScreen {
	h := &HomeScreen{opts: opts}
	h.refresh()
	return h
}

// refresh reloads stored scores and rebuilds the menu.
func (h *HomeScreen) refresh() {
	ctx := context.Background()
	selected := h.menu.Selected

	h.scores = make(map[string]int)
	h.points, h.started = 0, 0

	var all []*lessons.Lesson
	if h.opts.Lessons != nil {
		all = h.opts.Lessons.All()
	}

	items := make([]components.MenuItem, 0, len(all)+2)
	for _, l := range all {
		score, seen := h.storedScore(ctx, l.ID)
		h.scores[l.ID] = score
		h.points += score
		if seen {
			h.started++
		}

		detail := l.Level
		if seen {
			detail = strings.TrimSpace(fmt.Sprintf("%s ★%d", l.Level, score))
		}
		items = append(items, components.MenuItem{
			Label:  l.Title,
			Detail: detail,
			Action: h.openLesson(l),
		})
	}

	items = append(items,
		components.MenuItem{
			Label:    "HISTORY",
			Disabled: h.opts.Events == nil,
			Action: func() tea.Cmd {
				return func() tea.Msg {
					return router.PushScreenMsg{Screen: history.New(h.opts.Events, h.opts.Lessons)}
				}
			},
		},
		components.MenuItem{Label: "EXIT", Action: func() tea.Cmd { return tea.Quit }},
	)

	h.menu = components.NewMenu(items)
	h.menu.Select(selected)
}

// storedScore reads a lesson's saved score. seen is false when the page
// was never opened.
func (h *HomeScreen) storedScore(ctx context.Context, lessonID string) (score int, seen bool) {
	if h.opts.Adapter == nil {
		return 0, false
	}
	raw, err := h.opts.Adapter.Load(ctx, persist.PageKey(lessonID))
	if err != nil {
		log.WithError(err).WithField("lesson", lessonID).Debug("read stored score")
		return 0, false
	}
	if len(raw) == 0 {
		return 0, false
	}
	st, err := persist.DecodePageState(raw)
	if err != nil {
		return 0, false
	}
	return st.Score, true
}

func (h *HomeScreen) openLesson(l *lessons.Lesson) func() tea.Cmd {
	return func() tea.Cmd {
		if h.opts.Open == nil {
			return nil
		}
		ctl, err := h.opts.Open(context.Background(), l)
		if err != nil {
			log.WithError(err).WithField("lesson", l.ID).Error("open lesson")
			h.err = err
			return nil
		}
		h.err = nil
		next := lesson.New(ctl, h.opts.Lessons, h.opts.Open)
		return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
	}
}

// Score returns the stored score of a lesson as shown on the menu.
func (h *HomeScreen) Score(lessonID string) int {
	return h.scores[lessonID]
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

// Resume reloads scores after a lesson is closed.
func (h *HomeScreen) Resume() tea.Cmd {
	h.refresh()
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	// height is the content area; estimate full terminal height
	// by adding back header (3) + footer (3) + frame gaps
	termHeight := height + 8
	compact := layout.IsCompactHeight(termHeight) || layout.IsCompactWidth(width)

	cw := components.ContentWidth(width)

	var sections []string
	sections = append(sections, renderTitle(cw, compact))
	sections = append(sections, renderStatsBar(len(h.scores), h.started, h.points, cw, compact))

	if len(h.scores) == 0 {
		sections = append(sections, lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).
			Foreground(theme.TextDim).Render("No lessons found."))
	}
	sections = append(sections, components.Card(h.menu.View(), cw))

	if h.opts.TutorOff && !compact {
		sections = append(sections, renderTutorBanner(cw))
	}
	if h.err != nil {
		sections = append(sections, lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).
			Foreground(theme.Error).Render(h.err.Error()))
	}

	return components.PageFrame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "Home"
}
