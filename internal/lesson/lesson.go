// Package lesson turns outlines into stored, AI-generated markdown lessons.
package lesson

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	maxTitleRunes        = 100
	maxErrorMessageRunes = 200
)

var (
	ErrNotFound     = errors.New("lesson not found")
	ErrEmptyOutline = errors.New("outline is empty")
	ErrEmptyContent = errors.New("no content generated")
	// ErrGenerating is returned when a lesson already has a generation running.
	ErrGenerating = errors.New("lesson is already generating")
)

// Status is where a lesson is in its generation lifecycle.
type Status string

const (
	StatusGenerating Status = "generating"
	StatusGenerated  Status = "generated"
	StatusError      Status = "error"
)

var validate = validator.New()

// Lesson is one outline and the content generated from it.
type Lesson struct {
	ID           string    `json:"id" validate:"required,uuid"`
	Title        string    `json:"title" validate:"max=100"`
	Outline      string    `json:"outline" validate:"required"`
	Content      string    `json:"content"`
	Status       Status    `json:"status" validate:"oneof=generating generated error"`
	ErrorMessage *string   `json:"error_message" validate:"omitempty,max=200"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Validate checks the lesson's field constraints.
func (l Lesson) Validate() error {
	return validate.Struct(l)
}

// HasContent reports whether there is generated markdown to show.
func (l Lesson) HasContent() bool {
	return l.Status == StatusGenerated && strings.TrimSpace(l.Content) != ""
}

// DisplayTitle falls back to the outline while no title is set.
func (l Lesson) DisplayTitle() string {
	if l.Title != "" {
		return l.Title
	}
	return TitleFromOutline(l.Outline)
}

// TitleFromOutline returns the first 100 runes of the outline, trimmed.
func TitleFromOutline(outline string) string {
	return strings.TrimSpace(truncateRunes(outline, maxTitleRunes))
}

// failureMessage is the error text stored on a failed lesson.
func failureMessage(err error) string {
	return truncateRunes(err.Error(), maxErrorMessageRunes)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
