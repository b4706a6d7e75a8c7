package app

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/abhisek/lingoz/internal/lessons"
	"github.com/abhisek/lingoz/internal/page"
	"github.com/abhisek/lingoz/internal/persist"
	"github.com/abhisek/lingoz/internal/router"
	"github.com/abhisek/lingoz/internal/screen"
	"github.com/abhisek/lingoz/internal/screens/home"
	"github.com/abhisek/lingoz/internal/screens/lesson"
	"github.com/abhisek/lingoz/internal/speech"
	"github.com/abhisek/lingoz/internal/store"
	"github.com/abhisek/lingoz/internal/ui/layout"
)

// Options holds the dependencies for the TUI.
type Options struct {
	Lessons *lessons.Registry
	Adapter persist.Adapter
	Events  store.EventRepo
	Speech  speech.Requester

	// Tutor is nil when no LLM provider is configured.
	Tutor page.Explainer

	Accent string
	Rate   float64
	Strict bool

	// StartLesson opens this lesson directly instead of the home screen.
	StartLesson string
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	width  int
	height int
}

// Opener returns the function that opens lesson pages with opts. Every
// page shares one session id for the run.
func (o Options) Opener() lesson.Opener {
	sessionID := uuid.NewString()
	return func(ctx context.Context, l *lessons.Lesson) (*page.Controller, error) {
		return page.Open(ctx, l, page.Deps{
			Adapter:   o.Adapter,
			Events:    o.Events,
			Speech:    o.Speech,
			Tutor:     o.Tutor,
			SessionID: sessionID,
			Accent:    o.Accent,
			Rate:      o.Rate,
			Strict:    o.Strict,
		})
	}
}

// newAppModel creates a new AppModel with the home screen, plus the start
// lesson on top when one is requested.
func newAppModel(opts Options) (AppModel, error) {
	open := opts.Opener()
	homeScreen := home.New(home.Options{
		Lessons:  opts.Lessons,
		Adapter:  opts.Adapter,
		Events:   opts.Events,
		Open:     open,
		TutorOff: opts.Tutor == nil,
	})
	r := router.New(homeScreen)

	if opts.StartLesson != "" {
		l, ok := opts.Lessons.Get(opts.StartLesson)
		if !ok {
			return AppModel{}, fmt.Errorf("unknown lesson %q", opts.StartLesson)
		}
		ctl, err := open(context.Background(), l)
		if err != nil {
			return AppModel{}, err
		}
		r.Push(lesson.New(ctl, opts.Lessons, open))
	}

	return AppModel{router: r}, nil
}

func (m AppModel) Init() tea.Cmd {
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.leaveAll()
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

// leaveAll pops every screen so open pages are saved before exit.
func (m AppModel) leaveAll() {
	for m.router.Depth() > 1 {
		m.router.Pop()
	}
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	var status layout.Status
	if active != nil {
		title = active.Title()
		if sp, ok := active.(screen.StatusProvider); ok {
			status = sp.Status()
		}
	}

	header := layout.RenderHeader(title, status, m.width)

	var footerHints []layout.KeyHint
	if kp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = append(kp.KeyHints(), layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	} else {
		footerHints = []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(m.height-headerHeight-footerHeight, 0)

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	model, err := newAppModel(opts)
	if err != nil {
		return err
	}

	p := tea.NewProgram(model)
	final, err := p.Run()
	if m, ok := final.(AppModel); ok {
		m.leaveAll()
	}
	if err != nil {
		log.WithError(err).Error("tui exited")
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
