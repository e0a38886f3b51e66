package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/p-n-ai/pai-lessons/internal/lesson"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Generated markdown is untrusted, so raw HTML in it is not rendered.
var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("monokai"),
		),
	),
)

func parseTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"statusLabel": func(s lesson.Status) string {
			// Casers are stateful, so each call gets its own.
			return cases.Title(language.English).String(string(s))
		},
		"statusClass": func(s lesson.Status) string {
			return "status-" + string(s)
		},
		"timeAgo": timeAgo,
	}
	return template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
}

func renderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// timeAgo formats t relative to now, e.g. "5 minutes ago".
func timeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour") + " ago"
	default:
		return plural(int(d/(24*time.Hour)), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("template error", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type indexPage struct {
	Lessons    []lesson.Lesson
	Generating bool
	Outline    string
	Error      string
}

func (s *Server) indexData(r *http.Request) (indexPage, error) {
	lessons, err := s.lessons.List(r.Context())
	if err != nil {
		return indexPage{}, err
	}
	page := indexPage{Lessons: lessons}
	for _, l := range lessons {
		if l.Status == lesson.StatusGenerating {
			page.Generating = true
			break
		}
	}
	return page, nil
}

func (s *Server) handleIndexPage(w http.ResponseWriter, r *http.Request) {
	page, err := s.indexData(r)
	if err != nil {
		slog.Error("failed to list lessons", "error", err)
		page.Error = "Failed to load lessons."
		s.render(w, http.StatusInternalServerError, "index.html", page)
		return
	}
	s.render(w, http.StatusOK, "index.html", page)
}

func (s *Server) handleCreateLessonForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	outline := r.PostFormValue("outline")

	l, err := s.lessons.Create(r.Context(), outline)
	if err != nil {
		page, listErr := s.indexData(r)
		if listErr != nil {
			slog.Error("failed to list lessons", "error", listErr)
		}
		page.Outline = outline
		page.Error = "Failed to create lesson."
		if errors.Is(err, lesson.ErrEmptyOutline) {
			page.Error = "Please enter a lesson outline."
		}
		s.render(w, statusFor(err), "index.html", page)
		return
	}
	http.Redirect(w, r, "/lessons/"+l.ID, http.StatusSeeOther)
}

func (s *Server) handleDeleteLessonForm(w http.ResponseWriter, r *http.Request) {
	err := s.lessons.Delete(r.Context(), r.PathValue("id"))
	if err != nil && !errors.Is(err, lesson.ErrNotFound) {
		slog.Error("failed to delete lesson", "lesson_id", r.PathValue("id"), "error", err)
		http.Error(w, "failed to delete lesson", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type lessonPage struct {
	Lesson    lesson.Lesson
	Content   template.HTML
	Questions int
	Error     string
}

func (s *Server) handleLessonPage(w http.ResponseWriter, r *http.Request) {
	l, questions, err := s.lessons.Quiz(r.Context(), r.PathValue("id"), s.quizCache)
	if errors.Is(err, lesson.ErrNotFound) {
		s.render(w, http.StatusNotFound, "lesson.html", lessonPage{Error: "Lesson not found"})
		return
	}
	if err != nil {
		slog.Error("failed to load lesson", "lesson_id", r.PathValue("id"), "error", err)
		s.render(w, http.StatusInternalServerError, "lesson.html", lessonPage{Error: "Failed to load lesson"})
		return
	}

	page := lessonPage{Lesson: l, Questions: len(questions)}
	if l.HasContent() {
		html, err := renderMarkdown(l.Content)
		if err != nil {
			slog.Error("failed to render lesson", "lesson_id", l.ID, "error", err)
			page.Error = "Failed to render lesson content"
		}
		page.Content = html
	}
	s.render(w, http.StatusOK, "lesson.html", page)
}
