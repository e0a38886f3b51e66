package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/p-n-ai/pai-lessons/internal/lesson"
	"github.com/p-n-ai/pai-lessons/internal/quiz"
	"github.com/p-n-ai/pai-lessons/internal/quizsession"
)

// errNoQuiz is returned when a lesson's content has no quiz section.
var errNoQuiz = errors.New("lesson has no quiz")

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, lesson.ErrNotFound),
		errors.Is(err, quizsession.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, lesson.ErrEmptyOutline),
		errors.Is(err, quizsession.ErrInvalidAction),
		errors.Is(err, quiz.ErrChoiceOutOfRange),
		errors.Is(err, quiz.ErrQuestionOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, lesson.ErrGenerating),
		errors.Is(err, quiz.ErrNoSelection),
		errors.Is(err, quiz.ErrAlreadyRevealed),
		errors.Is(err, quiz.ErrNotRevealed),
		errors.Is(err, quiz.ErrComplete),
		errors.Is(err, quiz.ErrNoQuestions),
		errors.Is(err, errNoQuiz):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as a JSON error. Unmapped errors are logged and
// reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
