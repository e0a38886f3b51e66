// Package player is a terminal quiz player built on Bubble Tea.
package player

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/p-n-ai/pai-lessons/internal/quiz"
)

// Options configures the player model.
type Options struct {
	Title   string
	NoColor bool
}

// Model plays one quiz session in the terminal.
type Model struct {
	session *quiz.Session
	title   string
	cursor  int
	keys    keyMap
	help    help.Model
	noColor bool
	err     error
}

// NewModel creates a player for questions. It fails when there are none.
func NewModel(questions []quiz.Question, opts Options) (Model, error) {
	session, err := quiz.NewSession(questions)
	if err != nil {
		return Model{}, err
	}
	h := help.New()
	if opts.NoColor {
		h.Styles = help.Styles{}
	}
	return Model{
		session: session,
		title:   opts.Title,
		keys:    defaultKeyMap(),
		help:    h,
		noColor: opts.NoColor,
	}, nil
}

// Snapshot returns the current quiz state.
func (m Model) Snapshot() quiz.Snapshot {
	return m.session.Snapshot()
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = typed.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(typed)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	phase := m.session.Phase()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Restart):
		m.session.Restart()
		m.cursor = 0
	case phase != quiz.PhaseAnswering:
		if key.Matches(msg, m.keys.Confirm) && phase == quiz.PhaseRevealed {
			m.err = m.session.Advance()
			m.cursor = 0
		}
	case key.Matches(msg, m.keys.Up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.cursor = min(m.cursor+1, len(m.session.Current().Choices)-1)
	case key.Matches(msg, m.keys.Choose):
		choice := int(msg.Runes[0] - 'a')
		if choice < len(m.session.Current().Choices) {
			m.cursor = choice
		}
	case key.Matches(msg, m.keys.Confirm):
		if m.err = m.session.Select(m.cursor); m.err == nil {
			_, m.err = m.session.Submit()
		}
	}
	return m, nil
}
