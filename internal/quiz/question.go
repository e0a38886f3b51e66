// Package quiz extracts multiple-choice questions from lesson markdown and
// plays them back one question at a time.
package quiz

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// DefaultExplanation is attached to every extracted question; generated
// lessons carry no per-question rationale.
const DefaultExplanation = "Review the lesson content for more details."

var validate = validator.New()

// Question is one multiple-choice question.
//
// CorrectChoice is always 0 for extracted questions: the generated markdown
// never marks which option is right, so the first option is treated as the
// answer key.
type Question struct {
	Prompt        string   `json:"prompt" validate:"required"`
	Choices       []string `json:"choices" validate:"min=1"`
	CorrectChoice int      `json:"correct_choice" validate:"gte=0"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Validate reports whether q can be played.
func (q Question) Validate() error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("invalid question: %w", err)
	}
	if q.CorrectChoice >= len(q.Choices) {
		return fmt.Errorf("invalid question: correct choice %d out of range [0,%d)", q.CorrectChoice, len(q.Choices))
	}
	return nil
}
