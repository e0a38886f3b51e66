package web

import (
	"encoding/json"
	"net/http"

	"github.com/p-n-ai/pai-lessons/internal/lesson"
	"github.com/p-n-ai/pai-lessons/internal/quiz"
	"github.com/p-n-ai/pai-lessons/internal/quizsession"
)

type quizResponse struct {
	LessonID  string          `json:"lesson_id"`
	Status    lesson.Status   `json:"status"`
	Questions []quiz.Question `json:"questions"`
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	l, questions, err := s.lessons.Quiz(r.Context(), r.PathValue("id"), s.quizCache)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{LessonID: l.ID, Status: l.Status, Questions: questions})
}

// loadQuiz returns a lesson's questions, or errNoQuiz when it has none.
func (s *Server) loadQuiz(r *http.Request, id string) (lesson.Lesson, []quiz.Question, error) {
	l, questions, err := s.lessons.Quiz(r.Context(), id, s.quizCache)
	if err != nil {
		return lesson.Lesson{}, nil, err
	}
	if len(questions) == 0 {
		return l, nil, errNoQuiz
	}
	return l, questions, nil
}

func (s *Server) handleExportQuiz(w http.ResponseWriter, r *http.Request) {
	l, questions, err := s.loadQuiz(r, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	data, err := quizWorkbook(l.DisplayTitle(), questions)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="quiz-`+l.ID+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	l, questions, err := s.loadQuiz(r, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	session, err := quiz.NewSession(questions)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.sessions.Create(r.Context(), l.ID, session)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/quiz/sessions/"+rec.ID)
	writeJSON(w, http.StatusCreated, quizsession.NewView(rec))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	rec, err := s.sessions.Get(r.Context(), r.PathValue("sid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizsession.NewView(rec))
}

func (s *Server) handleSessionAction(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, s.schemas.quizAction)
	if err != nil {
		writeValidationError(w, err)
		return
	}
	var action quizsession.Action
	if err := json.Unmarshal(body, &action); err != nil {
		writeValidationError(w, err)
		return
	}

	rec, err := s.sessions.Get(r.Context(), r.PathValue("sid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	completed, err := rec.Apply(action)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.sessions.Save(r.Context(), rec); err != nil {
		writeError(w, r, err)
		return
	}
	if completed {
		s.lessons.RecordQuizResult(r.Context(), rec.LessonID, rec.Session.Score, len(rec.Session.Questions))
	}
	writeJSON(w, http.StatusOK, quizsession.NewView(rec))
}
