package quizsession

import (
	"errors"
	"fmt"

	"github.com/p-n-ai/pai-lessons/internal/quiz"
)

// ActionType names a player input.
type ActionType string

const (
	ActionSelect  ActionType = "select"
	ActionSubmit  ActionType = "submit"
	ActionAdvance ActionType = "advance"
	ActionRestart ActionType = "restart"
	ActionRevisit ActionType = "revisit"
)

var ErrInvalidAction = errors.New("invalid quiz action")

// Action is one player input. Choice is required for select and Index for
// revisit.
type Action struct {
	Type   ActionType `json:"type"`
	Choice *int       `json:"choice,omitempty"`
	Index  *int       `json:"index,omitempty"`
}

// Apply performs a on s and reports whether it completed the quiz.
func Apply(s *quiz.Session, a Action) (bool, error) {
	wasComplete := s.Complete

	var err error
	switch a.Type {
	case ActionSelect:
		if a.Choice == nil {
			return false, fmt.Errorf("%w: select needs a choice", ErrInvalidAction)
		}
		err = s.Select(*a.Choice)
	case ActionSubmit:
		_, err = s.Submit()
	case ActionAdvance:
		err = s.Advance()
	case ActionRestart:
		s.Restart()
	case ActionRevisit:
		if a.Index == nil {
			return false, fmt.Errorf("%w: revisit needs an index", ErrInvalidAction)
		}
		err = s.Revisit(*a.Index)
	default:
		return false, fmt.Errorf("%w: unknown type %q", ErrInvalidAction, a.Type)
	}
	if err != nil {
		return false, err
	}
	return !wasComplete && s.Complete, nil
}

// Apply performs a on the record's session and reports whether a result
// should be recorded. That happens once per attempt: finishing again after a
// revisit reports nothing, while a restart begins a new attempt.
func (r *Record) Apply(a Action) (bool, error) {
	completed, err := Apply(r.Session, a)
	if err != nil {
		return false, err
	}
	if a.Type == ActionRestart {
		r.Recorded = false
	}
	if !completed || r.Recorded {
		return false, nil
	}
	r.Recorded = true
	return true, nil
}

// QuestionView is a question as shown to the learner. The answer key and
// explanation stay hidden until the answer is revealed.
type QuestionView struct {
	Prompt        string   `json:"prompt"`
	Choices       []string `json:"choices"`
	CorrectChoice *int     `json:"correct_choice,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

// View is the client-facing state of a stored session.
type View struct {
	SessionID    string       `json:"session_id"`
	LessonID     string       `json:"lesson_id"`
	Phase        quiz.Phase   `json:"phase"`
	CurrentIndex int          `json:"current_index"`
	Total        int          `json:"total"`
	Question     QuestionView `json:"question"`
	Selected     *int         `json:"selected,omitempty"`
	Revealed     bool         `json:"revealed"`
	Correct      *bool        `json:"correct,omitempty"`
	Score        int          `json:"score"`
	Label        quiz.Label   `json:"label,omitempty"`
	Message      string       `json:"message,omitempty"`
}

// NewView renders rec for a client.
func NewView(rec Record) View {
	snap := rec.Session.Snapshot()
	q := QuestionView{
		Prompt:  snap.Question.Prompt,
		Choices: snap.Question.Choices,
	}
	if snap.Revealed || snap.Phase == quiz.PhaseComplete {
		correct := snap.Question.CorrectChoice
		q.CorrectChoice = &correct
		q.Explanation = snap.Question.Explanation
	}
	return View{
		SessionID:    rec.ID,
		LessonID:     rec.LessonID,
		Phase:        snap.Phase,
		CurrentIndex: snap.CurrentIndex,
		Total:        snap.Total,
		Question:     q,
		Selected:     snap.Selected,
		Revealed:     snap.Revealed,
		Correct:      snap.Correct,
		Score:        snap.Score,
		Label:        snap.Label,
		Message:      snap.Message,
	}
}
