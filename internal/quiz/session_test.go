package quiz_test

import (
	"errors"
	"testing"

	"github.com/p-n-ai/pai-lessons/internal/quiz"
)

func threeQuestions() []quiz.Question {
	return []quiz.Question{
		{Prompt: "Q1", Choices: []string{"right", "wrong"}, Explanation: quiz.DefaultExplanation},
		{Prompt: "Q2", Choices: []string{"right", "wrong"}, Explanation: quiz.DefaultExplanation},
		{Prompt: "Q3", Choices: []string{"right", "wrong"}, Explanation: quiz.DefaultExplanation},
	}
}

func newSession(t *testing.T, questions []quiz.Question) *quiz.Session {
	t.Helper()
	s, err := quiz.NewSession(questions)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return s
}

func answer(t *testing.T, s *quiz.Session, choice int) bool {
	t.Helper()
	if err := s.Select(choice); err != nil {
		t.Fatalf("Select(%d) error = %v", choice, err)
	}
	correct, err := s.Submit()
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	return correct
}

func TestNewSession_NoQuestions(t *testing.T) {
	if _, err := quiz.NewSession(nil); !errors.Is(err, quiz.ErrNoQuestions) {
		t.Errorf("NewSession(nil) error = %v, want ErrNoQuestions", err)
	}
}

func TestNewSession_InvalidQuestion(t *testing.T) {
	tests := []struct {
		name string
		q    quiz.Question
	}{
		{"no prompt", quiz.Question{Choices: []string{"a"}}},
		{"no choices", quiz.Question{Prompt: "Q"}},
		{"correct out of range", quiz.Question{Prompt: "Q", Choices: []string{"a"}, CorrectChoice: 1}},
		{"negative correct", quiz.Question{Prompt: "Q", Choices: []string{"a"}, CorrectChoice: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := quiz.NewSession([]quiz.Question{tt.q}); err == nil {
				t.Error("NewSession() should reject invalid question")
			}
		})
	}
}

func TestSession_StartsAnswering(t *testing.T) {
	s := newSession(t, threeQuestions())

	snap := s.Snapshot()
	if snap.Phase != quiz.PhaseAnswering {
		t.Errorf("Phase = %q, want answering", snap.Phase)
	}
	if snap.CurrentIndex != 0 || snap.Score != 0 || snap.Selected != nil || snap.Revealed {
		t.Errorf("unexpected initial snapshot: %+v", snap)
	}
	if snap.Total != 3 {
		t.Errorf("Total = %d, want 3", snap.Total)
	}
}

func TestSession_ConcreteScenario(t *testing.T) {
	s := newSession(t, threeQuestions())

	if !answer(t, s, 0) {
		t.Error("question 1 should be correct")
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if answer(t, s, 1) {
		t.Error("question 2 should be incorrect")
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if !answer(t, s, 0) {
		t.Error("question 3 should be correct")
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}

	snap := s.Snapshot()
	if snap.Phase != quiz.PhaseComplete {
		t.Errorf("Phase = %q, want complete", snap.Phase)
	}
	if snap.Score != 2 {
		t.Errorf("Score = %d, want 2", snap.Score)
	}
	if snap.Label != quiz.LabelGoodEffort {
		t.Errorf("Label = %q, want %q", snap.Label, quiz.LabelGoodEffort)
	}
	if snap.Message == "" {
		t.Error("Message should be set when complete")
	}
}

func TestSession_SelectIsNoopAfterReveal(t *testing.T) {
	s := newSession(t, threeQuestions())
	answer(t, s, 1)

	if err := s.Select(0); err != nil {
		t.Fatalf("Select() after reveal error = %v, want nil", err)
	}
	if *s.Selected != 1 {
		t.Errorf("Selected = %d, want 1 (unchanged)", *s.Selected)
	}
}

func TestSession_SelectOutOfRange(t *testing.T) {
	s := newSession(t, threeQuestions())

	for _, choice := range []int{-1, 2} {
		if err := s.Select(choice); !errors.Is(err, quiz.ErrChoiceOutOfRange) {
			t.Errorf("Select(%d) error = %v, want ErrChoiceOutOfRange", choice, err)
		}
	}
	if s.Selected != nil {
		t.Error("Selected should stay unset after rejected selections")
	}
}

func TestSession_SubmitGuards(t *testing.T) {
	s := newSession(t, threeQuestions())

	if _, err := s.Submit(); !errors.Is(err, quiz.ErrNoSelection) {
		t.Errorf("Submit() without selection error = %v, want ErrNoSelection", err)
	}

	answer(t, s, 0)
	if _, err := s.Submit(); !errors.Is(err, quiz.ErrAlreadyRevealed) {
		t.Errorf("second Submit() error = %v, want ErrAlreadyRevealed", err)
	}
	if s.Score != 1 {
		t.Errorf("Score = %d, want 1 after double submit", s.Score)
	}
}

func TestSession_AdvanceGuards(t *testing.T) {
	s := newSession(t, threeQuestions()[:1])

	if err := s.Advance(); !errors.Is(err, quiz.ErrNotRevealed) {
		t.Errorf("Advance() before submit error = %v, want ErrNotRevealed", err)
	}

	answer(t, s, 0)
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if err := s.Advance(); !errors.Is(err, quiz.ErrComplete) {
		t.Errorf("Advance() after complete error = %v, want ErrComplete", err)
	}
	if _, err := s.Submit(); !errors.Is(err, quiz.ErrComplete) {
		t.Errorf("Submit() after complete error = %v, want ErrComplete", err)
	}
}

func TestSession_AdvanceClearsSelection(t *testing.T) {
	s := newSession(t, threeQuestions())
	answer(t, s, 1)

	if err := s.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if s.Selected != nil || s.Revealed {
		t.Errorf("after Advance Selected = %v, Revealed = %v; want nil, false", s.Selected, s.Revealed)
	}
	if s.CurrentIndex != 1 {
		t.Errorf("CurrentIndex = %d, want 1", s.CurrentIndex)
	}
}

func TestSession_RevisitDoesNotDoubleCount(t *testing.T) {
	s := newSession(t, threeQuestions())
	answer(t, s, 0)

	for i, choice := range []int{0, 1, 0} {
		if err := s.Revisit(0); err != nil {
			t.Fatalf("Revisit() error = %v", err)
		}
		answer(t, s, choice)
		if s.Score != 1 {
			t.Errorf("attempt %d: Score = %d, want 1", i, s.Score)
		}
	}
}

func TestSession_RevisitOutOfRange(t *testing.T) {
	s := newSession(t, threeQuestions())

	if err := s.Revisit(3); !errors.Is(err, quiz.ErrQuestionOutOfRange) {
		t.Errorf("Revisit(3) error = %v, want ErrQuestionOutOfRange", err)
	}
}

func TestSession_RestartFromComplete(t *testing.T) {
	s := newSession(t, threeQuestions())
	for range 3 {
		answer(t, s, 0)
		if err := s.Advance(); err != nil {
			t.Fatalf("Advance() error = %v", err)
		}
	}
	if s.Phase() != quiz.PhaseComplete {
		t.Fatalf("Phase = %q, want complete", s.Phase())
	}

	s.Restart()

	snap := s.Snapshot()
	if snap.Phase != quiz.PhaseAnswering || snap.CurrentIndex != 0 || snap.Score != 0 {
		t.Errorf("after Restart snapshot = %+v, want answering at 0 with score 0", snap)
	}
	if len(s.Answered) != 0 {
		t.Errorf("Answered = %v, want empty", s.Answered)
	}
	if !answer(t, s, 0) || s.Score != 1 {
		t.Errorf("Score = %d after restart answer, want 1", s.Score)
	}
}

func TestSession_ScoreBoundedAndMonotonic(t *testing.T) {
	s := newSession(t, threeQuestions())
	prev := 0

	check := func(step string) {
		t.Helper()
		if s.Score < prev {
			t.Errorf("%s: Score decreased from %d to %d", step, prev, s.Score)
		}
		if s.Score > len(s.Questions) {
			t.Errorf("%s: Score %d exceeds %d questions", step, s.Score, len(s.Questions))
		}
		prev = s.Score
	}

	for round := range 4 {
		for i := range s.Questions {
			_ = s.Revisit(i)
			_ = s.Select(round % 2)
			check("select")
			_, _ = s.Submit()
			check("submit")
			_ = s.Advance()
			check("advance")
		}
	}
	if s.Score != 3 {
		t.Errorf("Score = %d, want 3", s.Score)
	}
}

func TestSession_SnapshotCorrectness(t *testing.T) {
	s := newSession(t, threeQuestions())
	_ = s.Select(1)

	if snap := s.Snapshot(); snap.Correct != nil {
		t.Error("Correct should be unset before reveal")
	}

	_, _ = s.Submit()
	snap := s.Snapshot()
	if snap.Correct == nil || *snap.Correct {
		t.Errorf("Correct = %v, want false", snap.Correct)
	}
	if snap.Label != "" {
		t.Errorf("Label = %q, want empty before completion", snap.Label)
	}
}

func TestNewSession_CopiesQuestions(t *testing.T) {
	questions := threeQuestions()
	s := newSession(t, questions)

	questions[0].Prompt = "changed"
	if s.Questions[0].Prompt != "Q1" {
		t.Error("session should not share the caller's slice")
	}
}
