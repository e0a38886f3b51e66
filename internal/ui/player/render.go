package player

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/p-n-ai/pai-lessons/internal/quiz"
)

var (
	colorTitle   = lipgloss.Color("33")
	colorMuted   = lipgloss.Color("242")
	colorCorrect = lipgloss.Color("42")
	colorWrong   = lipgloss.Color("160")
	colorCursor  = lipgloss.Color("45")
)

func (m Model) View() string {
	snap := m.session.Snapshot()

	var sections []string
	if m.title != "" {
		sections = append(sections, stylize(m.title, m.noColor, lipgloss.NewStyle().Bold(true).Foreground(colorTitle)))
	}
	if snap.Phase == quiz.PhaseComplete {
		sections = append(sections, renderComplete(snap, m.noColor))
	} else {
		sections = append(sections, renderQuestion(snap, m.cursor, m.noColor))
	}
	if m.err != nil {
		sections = append(sections, stylize(m.err.Error(), m.noColor, lipgloss.NewStyle().Foreground(colorWrong)))
	}
	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func renderQuestion(snap quiz.Snapshot, cursor int, noColor bool) string {
	var b strings.Builder
	progress := fmt.Sprintf("Question %d of %d · Score: %d", snap.CurrentIndex+1, snap.Total, snap.Score)
	b.WriteString(stylize(progress, noColor, lipgloss.NewStyle().Foreground(colorMuted)))
	b.WriteString("\n\n")
	b.WriteString(stylize(snap.Question.Prompt, noColor, lipgloss.NewStyle().Bold(true)))
	b.WriteString("\n\n")

	for i, choice := range snap.Question.Choices {
		marker := "  "
		if !snap.Revealed && i == cursor {
			marker = "› "
		}
		line := fmt.Sprintf("%s%c) %s", marker, 'A'+i, choice)

		style := lipgloss.NewStyle()
		switch {
		case snap.Revealed && i == snap.Question.CorrectChoice:
			style = style.Foreground(colorCorrect)
			line += "  ✓"
		case snap.Revealed && snap.Selected != nil && i == *snap.Selected:
			style = style.Foreground(colorWrong)
			line += "  ✗"
		case !snap.Revealed && i == cursor:
			style = style.Foreground(colorCursor)
		}
		b.WriteString(stylize(line, noColor, style))
		b.WriteString("\n")
	}

	if snap.Revealed && snap.Correct != nil {
		b.WriteString("\n")
		if *snap.Correct {
			b.WriteString(stylize("Correct!", noColor, lipgloss.NewStyle().Bold(true).Foreground(colorCorrect)))
		} else {
			b.WriteString(stylize("Incorrect", noColor, lipgloss.NewStyle().Bold(true).Foreground(colorWrong)))
		}
		b.WriteString("\n")
		b.WriteString(stylize(snap.Question.Explanation, noColor, lipgloss.NewStyle().Foreground(colorMuted)))
		b.WriteString("\n")
		next := "Press enter for the next question"
		if snap.CurrentIndex == snap.Total-1 {
			next = "Press enter to finish the quiz"
		}
		b.WriteString(stylize(next, noColor, lipgloss.NewStyle().Foreground(colorMuted)))
		b.WriteString("\n")
	}
	return b.String()
}

func renderComplete(snap quiz.Snapshot, noColor bool) string {
	var b strings.Builder
	b.WriteString(stylize("Quiz Complete!", noColor, lipgloss.NewStyle().Bold(true).Foreground(colorTitle)))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "You scored %d out of %d (%s)\n", snap.Score, snap.Total, snap.Label)
	b.WriteString(snap.Message)
	b.WriteString("\n")
	return b.String()
}

// stylize applies style unless colour is disabled.
func stylize(text string, noColor bool, style lipgloss.Style) string {
	if noColor {
		return text
	}
	return style.Render(text)
}
