package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/p-n-ai/pai-lessons/internal/lesson"
)

type createLessonRequest struct {
	Outline string `json:"outline"`
}

type listLessonsResponse struct {
	Lessons []lesson.Lesson `json:"lessons"`
}

func (s *Server) handleListLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := s.lessons.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listLessonsResponse{Lessons: lessons})
}

// handleCreateLesson stores the outline and answers before generation
// finishes; clients poll the lesson for its final status.
func (s *Server) handleCreateLesson(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, s.schemas.createLesson)
	if err != nil {
		writeValidationError(w, err)
		return
	}
	var req createLessonRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeValidationError(w, err)
		return
	}

	l, err := s.lessons.Create(r.Context(), req.Outline)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/lessons/"+l.ID)
	writeJSON(w, http.StatusAccepted, l)
}

func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	l, err := s.lessons.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleDeleteLesson(w http.ResponseWriter, r *http.Request) {
	if err := s.lessons.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRegenerateLesson restarts generation. With ?wait=1 it generates in
// the request and returns the finished lesson, including a failed one.
func (s *Server) handleRegenerateLesson(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		l, err := s.lessons.Generate(r.Context(), id)
		if err != nil && l.ID == "" {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
		return
	}

	l, err := s.lessons.Regenerate(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, l)
}
