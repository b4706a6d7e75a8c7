package components

import (
	"fmt"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lingoz/internal/ui/theme"
)

// MultiChoice is a multiple-choice selector. The component only tracks the
// cursor; the caller decides correctness and reveals it with Reveal.
type MultiChoice struct {
	Options  []string
	Selected int

	// Chosen is the option index the learner locked in, or -1.
	Chosen int
	// Answer is the correct option, shown once revealed.
	Answer   string
	revealed bool
}

// NewMultiChoice creates a new multiple-choice component.
func NewMultiChoice(options []string) MultiChoice {
	return MultiChoice{Options: options, Chosen: -1}
}

// Update moves the cursor with arrows and picks with number keys. It
// returns the picked option index, or -1.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, int) {
	if m.revealed {
		return m, -1
	}
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, -1
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
	case "enter":
		return m, m.Selected
	default:
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(m.Options) {
			m.Selected = n - 1
			return m, m.Selected
		}
	}
	return m, -1
}

// Reveal locks the choice and marks the correct answer.
func (m *MultiChoice) Reveal(chosen int, answer string) {
	m.revealed = true
	m.Chosen = chosen
	m.Answer = answer
}

// Revealed reports whether the verdict is showing.
func (m MultiChoice) Revealed() bool {
	return m.revealed
}

// View renders the options.
func (m MultiChoice) View() string {
	var b strings.Builder
	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Selected && !m.revealed {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%d)  %s", prefix, i+1, opt)

		switch {
		case m.revealed && opt == m.Answer:
			b.WriteString(theme.Correct.Render(line))
		case m.revealed && i == m.Chosen:
			b.WriteString(theme.Incorrect.Render(line))
		case m.revealed:
			b.WriteString(theme.Dim.Render(line))
		case i == m.Selected:
			b.WriteString(theme.Selected.Render(line))
		default:
			b.WriteString(theme.Unselected.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}
