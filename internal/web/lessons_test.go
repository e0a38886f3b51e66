package web

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/p-n-ai/pai-lessons/internal/ai"
	"github.com/p-n-ai/pai-lessons/internal/lesson"
)

func TestCreateLesson(t *testing.T) {
	env := newTestEnv(t, quizLesson)

	rec := env.do(t, http.MethodPost, "/api/lessons", `{"outline":"  Clouds and rain for grade 3  "}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202; body = %s", rec.Code, rec.Body.String())
	}
	created := decode[lesson.Lesson](t, rec)
	if created.Status != lesson.StatusGenerating {
		t.Errorf("Status = %q, want generating", created.Status)
	}
	if created.Outline != "Clouds and rain for grade 3" {
		t.Errorf("Outline = %q, want trimmed", created.Outline)
	}
	if loc := rec.Header().Get("Location"); loc != "/api/lessons/"+created.ID {
		t.Errorf("Location = %q", loc)
	}

	env.svc.Wait()

	rec = env.do(t, http.MethodGet, "/api/lessons/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decode[lesson.Lesson](t, rec)
	if got.Status != lesson.StatusGenerated || got.Content != quizLesson {
		t.Errorf("lesson = %+v, want generated content", got)
	}
}

func TestCreateLesson_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"outline":`},
		{"empty body", ``},
		{"missing outline", `{}`},
		{"empty outline", `{"outline":""}`},
		{"blank outline", `{"outline":"   "}`},
		{"wrong type", `{"outline":42}`},
		{"unknown field", `{"outline":"x","status":"generated"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, quizLesson)
			rec := env.do(t, http.MethodPost, "/api/lessons", tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
			}
			if resp := decode[errorResponse](t, rec); resp.Error == "" {
				t.Error("error message should be set")
			}
			if env.mock.Calls() != 0 {
				t.Error("provider should not be called for rejected requests")
			}
		})
	}
}

func TestGetLesson_NotFound(t *testing.T) {
	env := newTestEnv(t, quizLesson)

	for _, id := range []string{"missing", "00000000-0000-0000-0000-000000000000"} {
		rec := env.do(t, http.MethodGet, "/api/lessons/"+id, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", id, rec.Code)
		}
		if got := decode[errorResponse](t, rec).Error; got != "lesson not found" {
			t.Errorf("error = %q, want lesson not found", got)
		}
	}
}

func TestListLessons_NewestFirst(t *testing.T) {
	env := newTestEnv(t, quizLesson)
	first := env.generatedLesson(t, "First")
	second := env.generatedLesson(t, "Second")

	rec := env.do(t, http.MethodGet, "/api/lessons", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decode[listLessonsResponse](t, rec)
	if len(resp.Lessons) != 2 || resp.Lessons[0].ID != second.ID || resp.Lessons[1].ID != first.ID {
		t.Errorf("lessons = %+v, want newest first", resp.Lessons)
	}
}

func TestListLessons_EmptyIsArray(t *testing.T) {
	env := newTestEnv(t, quizLesson)

	rec := env.do(t, http.MethodGet, "/api/lessons", "")
	if got := strings.TrimSpace(rec.Body.String()); got != `{"lessons":[]}` {
		t.Errorf("body = %s, want empty array", got)
	}
}

func TestDeleteLesson(t *testing.T) {
	env := newTestEnv(t, quizLesson)
	l := env.generatedLesson(t, "Doomed")

	if rec := env.do(t, http.MethodDelete, "/api/lessons/"+l.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/api/lessons/"+l.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestRegenerateLesson(t *testing.T) {
	env := newTestEnv(t, quizLesson)
	env.mock.Err = errTest
	l := env.generatedLesson(t, "Flaky")
	if l.Status != lesson.StatusError {
		t.Fatalf("Status = %q, want error", l.Status)
	}

	env.mock.Err = nil
	rec := env.do(t, http.MethodPost, "/api/lessons/"+l.ID+"/generate", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if got := decode[lesson.Lesson](t, rec); got.Status != lesson.StatusGenerating {
		t.Errorf("Status = %q, want generating", got.Status)
	}
	env.svc.Wait()

	got, _ := env.svc.Get(t.Context(), l.ID)
	if got.Status != lesson.StatusGenerated {
		t.Errorf("Status = %q, want generated", got.Status)
	}

	if rec := env.do(t, http.MethodPost, "/api/lessons/missing/generate", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing lesson status = %d, want 404", rec.Code)
	}
}

func TestRegenerateLesson_Wait(t *testing.T) {
	env := newTestEnv(t, quizLesson)
	env.mock.Err = errTest
	l := env.generatedLesson(t, "Slow and steady")

	env.mock.Err = nil
	rec := env.do(t, http.MethodPost, "/api/lessons/"+l.ID+"/generate?wait=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decode[lesson.Lesson](t, rec); got.Status != lesson.StatusGenerated || got.Content != quizLesson {
		t.Errorf("lesson = %+v, want generated content", got)
	}

	env.mock.Err = errTest
	rec = env.do(t, http.MethodPost, "/api/lessons/"+l.ID+"/generate?wait=true", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("failed generation status = %d, want 200", rec.Code)
	}
	if got := decode[lesson.Lesson](t, rec); got.Status != lesson.StatusError || got.ErrorMessage == nil {
		t.Errorf("lesson = %+v, want error state", got)
	}

	if rec := env.do(t, http.MethodPost, "/api/lessons/missing/generate?wait=1", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing lesson status = %d, want 404", rec.Code)
	}
}

// heldProvider answers only after release is closed.
type heldProvider struct {
	release chan struct{}
}

func (p heldProvider) Complete(ctx context.Context, _ ai.CompletionRequest) (ai.CompletionResponse, error) {
	select {
	case <-p.release:
		return ai.CompletionResponse{Content: quizLesson}, nil
	case <-ctx.Done():
		return ai.CompletionResponse{}, ctx.Err()
	}
}

func TestRegenerateLesson_WhileGenerating(t *testing.T) {
	provider := heldProvider{release: make(chan struct{})}
	svc := lesson.NewService(lesson.ServiceConfig{AI: provider})
	t.Cleanup(svc.Wait)
	srv, err := NewServer(Config{Lessons: svc})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	env := &testEnv{svc: svc, handler: srv.Handler()}

	l, err := svc.Create(t.Context(), "Busy lesson")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for _, path := range []string{"/generate", "/generate?wait=1"} {
		if rec := env.do(t, http.MethodPost, "/api/lessons/"+l.ID+path, ""); rec.Code != http.StatusConflict {
			t.Errorf("POST %s status = %d, want 409", path, rec.Code)
		}
	}

	close(provider.release)
	svc.Wait()
	if rec := env.do(t, http.MethodPost, "/api/lessons/"+l.ID+"/generate", ""); rec.Code != http.StatusAccepted {
		t.Errorf("status after generation finished = %d, want 202", rec.Code)
	}
}
