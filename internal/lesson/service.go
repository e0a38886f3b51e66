package lesson

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/p-n-ai/pai-lessons/internal/ai"
	"github.com/p-n-ai/pai-lessons/internal/prompt"
	"github.com/p-n-ai/pai-lessons/internal/quiz"
)

const defaultGenerationTimeout = 60 * time.Second

// Completer produces text for a completion request. *ai.Router satisfies it.
type Completer interface {
	Complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error)
}

// ServiceConfig holds dependencies for the lesson service.
type ServiceConfig struct {
	Store   Store
	AI      Completer
	Prompt  *prompt.Template
	Budget  ai.Budget
	Events  EventLogger
	Timeout time.Duration // per generation (default 60s)
}

// Service creates lessons and generates their content in the background.
type Service struct {
	store   Store
	ai      Completer
	prompt  *prompt.Template
	budget  ai.Budget
	events  EventLogger
	timeout time.Duration

	root   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewService creates a lesson service.
func NewService(cfg ServiceConfig) *Service {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	tmpl := cfg.Prompt
	if tmpl == nil {
		tmpl = prompt.Default()
	}
	budget := cfg.Budget
	if budget == nil {
		budget = ai.NewInMemoryBudget(0)
	}
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultGenerationTimeout
	}

	root, cancel := context.WithCancel(context.Background())
	return &Service{
		store:    store,
		ai:       cfg.AI,
		prompt:   tmpl,
		budget:   budget,
		events:   events,
		timeout:  timeout,
		root:     root,
		cancel:   cancel,
		inflight: make(map[string]struct{}),
	}
}

// claim marks id as generating in this process. At most one generation per
// lesson runs at a time.
func (s *Service) claim(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inflight[id]; ok {
		return fmt.Errorf("%w: %s", ErrGenerating, id)
	}
	s.inflight[id] = struct{}{}
	return nil
}

func (s *Service) release(id string) {
	s.mu.Lock()
	delete(s.inflight, id)
	s.mu.Unlock()
}

// Create stores a new lesson in the generating state and starts generating
// its content. It returns without waiting for the AI call.
func (s *Service) Create(ctx context.Context, outline string) (Lesson, error) {
	outline = strings.TrimSpace(outline)
	if outline == "" {
		return Lesson{}, ErrEmptyOutline
	}

	l, err := s.store.Create(ctx, Lesson{
		Title:   TitleFromOutline(outline),
		Outline: outline,
		Status:  StatusGenerating,
	})
	if err != nil {
		return Lesson{}, fmt.Errorf("create lesson: %w", err)
	}

	slog.Info("lesson created", "lesson_id", l.ID, "outline_len", len(outline))
	s.logEvent(ctx, Event{
		LessonID:  l.ID,
		EventType: EventLessonCreated,
		Data:      map[string]any{"outline_len": len(outline)},
	})

	_ = s.claim(l.ID) // fresh IDs are never claimed
	s.startGeneration(l)
	return l, nil
}

// Regenerate resets an existing lesson to generating and starts a new
// background generation. It returns ErrGenerating while a generation for the
// lesson is still running.
func (s *Service) Regenerate(ctx context.Context, id string) (Lesson, error) {
	if err := s.claim(id); err != nil {
		return Lesson{}, err
	}
	if err := s.store.MarkGenerating(ctx, id); err != nil {
		s.release(id)
		return Lesson{}, err
	}
	l, err := s.store.Get(ctx, id)
	if err != nil {
		s.release(id)
		return Lesson{}, err
	}
	s.startGeneration(l)
	return l, nil
}

// startGeneration runs generation in the background. The caller has claimed
// l.ID; the claim is released when generation ends.
func (s *Service) startGeneration(l Lesson) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(l.ID)
		ctx, cancel := context.WithTimeout(s.root, s.timeout)
		defer cancel()
		_, _ = s.generate(ctx, l)
	}()
}

// Generate runs generation for an existing lesson and waits for it. The
// lesson ends up generated or in the error state; the error state is also
// reported through the returned error. Like Regenerate it returns
// ErrGenerating while another generation for the lesson is running.
func (s *Service) Generate(ctx context.Context, id string) (Lesson, error) {
	if err := s.claim(id); err != nil {
		return Lesson{}, err
	}
	defer s.release(id)

	l, err := s.store.Get(ctx, id)
	if err != nil {
		return Lesson{}, err
	}
	if l.Status != StatusGenerating {
		if err := s.store.MarkGenerating(ctx, id); err != nil {
			return Lesson{}, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.generate(ctx, l)
}

func (s *Service) generate(ctx context.Context, l Lesson) (Lesson, error) {
	// Store writes must land even when the generation deadline has passed.
	storeCtx := context.WithoutCancel(ctx)
	started := time.Now()

	content, resp, err := s.complete(ctx, l.Outline)
	if err != nil {
		msg := failureMessage(err)
		slog.Error("lesson generation failed", "lesson_id", l.ID, "error", err)
		if markErr := s.store.MarkFailed(storeCtx, l.ID, msg); markErr != nil {
			slog.Error("failed to store lesson error", "lesson_id", l.ID, "error", markErr)
		}
		s.logEvent(storeCtx, Event{
			LessonID:  l.ID,
			EventType: EventLessonFailed,
			Data:      map[string]any{"error": msg},
		})
		return s.reload(storeCtx, l.ID), err
	}

	title := TitleFromOutline(l.Outline)
	if err := s.store.MarkGenerated(storeCtx, l.ID, title, content); err != nil {
		slog.Error("failed to store lesson content", "lesson_id", l.ID, "error", err)
		return Lesson{}, fmt.Errorf("store lesson content: %w", err)
	}

	questions := len(quiz.Extract(content))
	slog.Info("lesson generated",
		"lesson_id", l.ID,
		"provider", resp.Provider,
		"model", resp.Model,
		"content_len", len(content),
		"quiz_questions", questions,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	s.logEvent(storeCtx, Event{
		LessonID:  l.ID,
		EventType: EventLessonGenerated,
		Data: map[string]any{
			"provider":       resp.Provider,
			"model":          resp.Model,
			"input_tokens":   resp.InputTokens,
			"output_tokens":  resp.OutputTokens,
			"quiz_questions": questions,
		},
	})
	return s.reload(storeCtx, l.ID), nil
}

// complete checks the budget, calls the model and records token usage.
func (s *Service) complete(ctx context.Context, outline string) (string, ai.CompletionResponse, error) {
	if s.ai == nil {
		return "", ai.CompletionResponse{}, ai.ErrNoProviders
	}
	if err := s.budget.Check(ctx); err != nil {
		return "", ai.CompletionResponse{}, err
	}

	req, err := s.prompt.Request(outline)
	if err != nil {
		return "", ai.CompletionResponse{}, err
	}

	resp, err := s.ai.Complete(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", resp, fmt.Errorf("generation timed out after %s: %w", s.timeout, err)
		}
		return "", resp, err
	}

	if err := s.budget.Record(ctx, resp.TotalTokens()); err != nil {
		slog.Warn("failed to record token usage", "error", err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", resp, ErrEmptyContent
	}
	return resp.Content, resp, nil
}

func (s *Service) reload(ctx context.Context, id string) Lesson {
	l, err := s.store.Get(ctx, id)
	if err != nil {
		slog.Warn("failed to reload lesson", "lesson_id", id, "error", err)
	}
	return l
}

// Get returns a lesson by ID.
func (s *Service) Get(ctx context.Context, id string) (Lesson, error) {
	return s.store.Get(ctx, id)
}

// List returns all lessons, newest first.
func (s *Service) List(ctx context.Context) ([]Lesson, error) {
	return s.store.List(ctx)
}

// Delete removes a lesson.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("lesson deleted", "lesson_id", id)
	s.logEvent(ctx, Event{LessonID: id, EventType: EventLessonDeleted})
	return nil
}

// Quiz returns the questions extracted from a lesson's content. Lessons
// without content have no quiz.
func (s *Service) Quiz(ctx context.Context, id string, cache quiz.JSONCache) (Lesson, []quiz.Question, error) {
	l, err := s.store.Get(ctx, id)
	if err != nil {
		return Lesson{}, nil, err
	}
	if !l.HasContent() {
		return l, []quiz.Question{}, nil
	}
	questions := quiz.ExtractCached(ctx, cache, l.Content)
	if questions == nil {
		questions = []quiz.Question{}
	}
	return l, questions, nil
}

// RecordQuizResult logs a completed quiz attempt.
func (s *Service) RecordQuizResult(ctx context.Context, id string, score, total int) {
	label := quiz.LabelFor(score, total)
	slog.Info("quiz completed", "lesson_id", id, "score", score, "total", total, "label", label)
	s.logEvent(ctx, Event{
		LessonID:  id,
		EventType: EventQuizCompleted,
		Data:      map[string]any{"score": score, "total": total, "label": string(label)},
	})
}

// Wait blocks until all background generations have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Shutdown waits for background generations, cancelling them if ctx ends
// first.
func (s *Service) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}

func (s *Service) logEvent(ctx context.Context, event Event) {
	if err := s.events.LogEvent(ctx, event); err != nil {
		slog.Warn("failed to log event", "type", event.EventType, "lesson_id", event.LessonID, "error", err)
	}
}
