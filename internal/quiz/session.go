package quiz

import (
	"errors"
	"fmt"
	"slices"
)

// Phase is where a Session is in answering its current question.
type Phase string

const (
	PhaseAnswering Phase = "answering"
	PhaseRevealed  Phase = "revealed"
	PhaseComplete  Phase = "complete"
)

var (
	ErrNoQuestions        = errors.New("quiz has no questions")
	ErrChoiceOutOfRange   = errors.New("choice out of range")
	ErrQuestionOutOfRange = errors.New("question out of range")
	ErrNoSelection        = errors.New("no choice selected")
	ErrAlreadyRevealed    = errors.New("answer already revealed")
	ErrNotRevealed        = errors.New("answer not revealed yet")
	ErrComplete           = errors.New("quiz already complete")
)

// Session is a learner's progress through a fixed list of questions.
//
// A Session is not safe for concurrent use. Its fields are exported so it can
// be stored between requests; mutate it only through its methods. Answered
// holds the sorted question indices already counted toward Score.
type Session struct {
	Questions    []Question `json:"questions"`
	CurrentIndex int        `json:"current_index"`
	Selected     *int       `json:"selected,omitempty"`
	Revealed     bool       `json:"revealed"`
	Complete     bool       `json:"complete"`
	Score        int        `json:"score"`
	Answered     []int      `json:"answered"`
}

// NewSession starts a session at the first question.
func NewSession(questions []Question) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return &Session{
		Questions: slices.Clone(questions),
		Answered:  []int{},
	}, nil
}

// Phase reports the session's current phase.
func (s *Session) Phase() Phase {
	switch {
	case s.Complete:
		return PhaseComplete
	case s.Revealed:
		return PhaseRevealed
	default:
		return PhaseAnswering
	}
}

// Current returns the question under the cursor.
func (s *Session) Current() Question {
	return s.Questions[s.CurrentIndex]
}

// Select records a pending choice for the current question. It is a no-op
// once the answer has been revealed.
func (s *Session) Select(choice int) error {
	if s.Phase() != PhaseAnswering {
		return nil
	}
	if choice < 0 || choice >= len(s.Current().Choices) {
		return fmt.Errorf("%w: %d", ErrChoiceOutOfRange, choice)
	}
	s.Selected = &choice
	return nil
}

// Submit reveals the current question and reports whether the selected
// choice was correct. Each question adds to Score at most once.
func (s *Session) Submit() (bool, error) {
	switch s.Phase() {
	case PhaseComplete:
		return false, ErrComplete
	case PhaseRevealed:
		return false, ErrAlreadyRevealed
	}
	if s.Selected == nil {
		return false, ErrNoSelection
	}

	correct := *s.Selected == s.Current().CorrectChoice
	if correct {
		if pos, found := slices.BinarySearch(s.Answered, s.CurrentIndex); !found {
			s.Answered = slices.Insert(s.Answered, pos, s.CurrentIndex)
			s.Score++
		}
	}
	s.Revealed = true
	return correct, nil
}

// Advance moves past a revealed question. Advancing from the last question
// completes the session.
func (s *Session) Advance() error {
	switch s.Phase() {
	case PhaseComplete:
		return ErrComplete
	case PhaseAnswering:
		return ErrNotRevealed
	}
	if s.CurrentIndex == len(s.Questions)-1 {
		s.Complete = true
		return nil
	}
	s.CurrentIndex++
	s.Selected = nil
	s.Revealed = false
	return nil
}

// Restart returns to the first question with a zero score.
func (s *Session) Restart() {
	s.CurrentIndex = 0
	s.Selected = nil
	s.Revealed = false
	s.Complete = false
	s.Score = 0
	s.Answered = []int{}
}

// Revisit re-opens question index for answering. Score and Answered are kept,
// so a question that already scored cannot score again.
func (s *Session) Revisit(index int) error {
	if index < 0 || index >= len(s.Questions) {
		return fmt.Errorf("%w: %d", ErrQuestionOutOfRange, index)
	}
	s.CurrentIndex = index
	s.Selected = nil
	s.Revealed = false
	s.Complete = false
	return nil
}

// Snapshot is a render-ready view of a Session.
type Snapshot struct {
	Phase        Phase    `json:"phase"`
	CurrentIndex int      `json:"current_index"`
	Total        int      `json:"total"`
	Question     Question `json:"question"`
	Selected     *int     `json:"selected,omitempty"`
	Revealed     bool     `json:"revealed"`
	Correct      *bool    `json:"correct,omitempty"`
	Score        int      `json:"score"`
	Label        Label    `json:"label,omitempty"`
	Message      string   `json:"message,omitempty"`
}

// Snapshot returns the current state for display.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:        s.Phase(),
		CurrentIndex: s.CurrentIndex,
		Total:        len(s.Questions),
		Question:     s.Current(),
		Revealed:     s.Revealed,
		Score:        s.Score,
	}
	if s.Selected != nil {
		sel := *s.Selected
		snap.Selected = &sel
		if s.Revealed {
			correct := sel == s.Current().CorrectChoice
			snap.Correct = &correct
		}
	}
	if s.Complete {
		snap.Label = LabelFor(s.Score, len(s.Questions))
		snap.Message = snap.Label.Message()
	}
	return snap
}
