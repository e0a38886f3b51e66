// Package web serves the lesson JSON API, the quiz player endpoints and the
// server-rendered lesson pages.
package web

import (
	"bufio"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/p-n-ai/pai-lessons/internal/lesson"
	"github.com/p-n-ai/pai-lessons/internal/quiz"
	"github.com/p-n-ai/pai-lessons/internal/quizsession"
)

// Lessons is the lesson behaviour the handlers need. *lesson.Service
// satisfies it.
type Lessons interface {
	Create(ctx context.Context, outline string) (lesson.Lesson, error)
	Regenerate(ctx context.Context, id string) (lesson.Lesson, error)
	Generate(ctx context.Context, id string) (lesson.Lesson, error)
	Get(ctx context.Context, id string) (lesson.Lesson, error)
	List(ctx context.Context) ([]lesson.Lesson, error)
	Delete(ctx context.Context, id string) error
	Quiz(ctx context.Context, id string, cache quiz.JSONCache) (lesson.Lesson, []quiz.Question, error)
	RecordQuizResult(ctx context.Context, id string, score, total int)
}

// HealthChecker is a dependency probed by /readyz.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Config holds dependencies for the web server.
type Config struct {
	Lessons  Lessons
	Sessions quizsession.Store
	// QuizCache is optional. Leave it nil rather than passing a typed nil.
	QuizCache quiz.JSONCache
	// Checks are probed by /readyz, keyed by name.
	Checks map[string]HealthChecker
}

// Server holds the handlers and their dependencies.
type Server struct {
	lessons   Lessons
	sessions  quizsession.Store
	quizCache quiz.JSONCache
	checks    map[string]HealthChecker
	templates *template.Template
	schemas   *schemas
}

// NewServer creates a web server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Lessons == nil {
		return nil, fmt.Errorf("lessons service is required")
	}
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = quizsession.NewMemoryStore(quizsession.DefaultTTL)
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	sch, err := loadSchemas()
	if err != nil {
		return nil, fmt.Errorf("loading schemas: %w", err)
	}

	return &Server{
		lessons:   cfg.Lessons,
		sessions:  sessions,
		quizCache: cfg.QuizCache,
		checks:    cfg.Checks,
		templates: tmpl,
		schemas:   sch,
	}, nil
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("GET /api/lessons", s.handleListLessons)
	mux.HandleFunc("POST /api/lessons", s.handleCreateLesson)
	mux.HandleFunc("GET /api/lessons/{id}", s.handleGetLesson)
	mux.HandleFunc("DELETE /api/lessons/{id}", s.handleDeleteLesson)
	mux.HandleFunc("POST /api/lessons/{id}/generate", s.handleRegenerateLesson)

	mux.HandleFunc("GET /api/lessons/{id}/quiz", s.handleGetQuiz)
	mux.HandleFunc("GET /api/lessons/{id}/quiz.xlsx", s.handleExportQuiz)
	mux.HandleFunc("POST /api/lessons/{id}/quiz/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/lessons/{id}/quiz/ws", s.handleQuizSocket)
	mux.HandleFunc("GET /api/quiz/sessions/{sid}", s.handleGetSession)
	mux.HandleFunc("POST /api/quiz/sessions/{sid}/actions", s.handleSessionAction)

	mux.HandleFunc("GET /{$}", s.handleIndexPage)
	mux.HandleFunc("POST /lessons", s.handleCreateLessonForm)
	mux.HandleFunc("GET /lessons/{id}", s.handleLessonPage)
	mux.HandleFunc("POST /lessons/{id}/delete", s.handleDeleteLessonForm)

	return logRequests(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, check := range s.checks {
		if err := check.HealthCheck(ctx); err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack is needed for websocket upgrades.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(r.ResponseWriter).Hijack()
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if v := recover(); v != nil {
				slog.Error("handler panic", "method", r.Method, "path", r.URL.Path, "panic", v)
				http.Error(rec, "internal server error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(rec, r)

		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
