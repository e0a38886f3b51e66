package player

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/p-n-ai/pai-lessons/internal/quiz"
)

// Run plays questions until the user quits and returns the final state.
func Run(ctx context.Context, questions []quiz.Question, in io.Reader, out io.Writer, opts Options) (quiz.Snapshot, error) {
	model, err := NewModel(questions, opts)
	if err != nil {
		return quiz.Snapshot{}, err
	}

	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := program.Run()
	if err != nil {
		return quiz.Snapshot{}, fmt.Errorf("running quiz player: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return quiz.Snapshot{}, fmt.Errorf("unexpected model type %T", final)
	}
	return m.Snapshot(), nil
}
