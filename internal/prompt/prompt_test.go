package prompt_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/p-n-ai/pai-lessons/internal/prompt"
	"github.com/p-n-ai/pai-lessons/internal/quiz"
)

func TestDefault(t *testing.T) {
	p := prompt.Default()

	if p.MaxOutputTokens != 2000 {
		t.Errorf("MaxOutputTokens = %d, want 2000", p.MaxOutputTokens)
	}
	if p.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", p.Temperature)
	}
	if p.Model != "" {
		t.Errorf("Model = %q, want empty (provider default)", p.Model)
	}
}

func TestRender_IncludesOutline(t *testing.T) {
	text, err := prompt.Default().Render("Photosynthesis for 10 year olds")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if !strings.HasPrefix(text, "Create an engaging, interactive lesson about:\n\nPhotosynthesis for 10 year olds\n") {
		t.Errorf("Render() prefix = %q", text[:80])
	}
	if !strings.Contains(text, `under a "## Quiz" heading`) {
		t.Error("prompt should ask for a Quiz heading")
	}
}

func TestRender_OutlineIsNotInterpreted(t *testing.T) {
	text, err := prompt.Default().Render("{{ .Secret }} <b>bold</b>")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(text, "{{ .Secret }} <b>bold</b>") {
		t.Error("outline should be inserted verbatim")
	}
}

// The example block in the prompt must itself be a quiz the extractor accepts.
func TestDefault_ExampleQuizParses(t *testing.T) {
	text, err := prompt.Default().Render("anything")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	questions := quiz.Extract(text)
	if len(questions) != 2 {
		t.Fatalf("len(questions) = %d, want 2", len(questions))
	}
	if len(questions[0].Choices) != 4 {
		t.Errorf("choices = %d, want 4", len(questions[0].Choices))
	}
}

func TestRequest(t *testing.T) {
	req, err := prompt.Default().Request("Fractions")
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}

	if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Fatalf("Messages = %+v, want one user message", req.Messages)
	}
	if req.MaxTokens != 2000 || req.Temperature != 0.7 {
		t.Errorf("sampling = %d/%v, want 2000/0.7", req.MaxTokens, req.Temperature)
	}
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	p, err := prompt.Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.ID != "lesson-generation" {
		t.Errorf("ID = %q, want lesson-generation", p.ID)
	}
}

func TestLoad_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.yaml")
	doc := "id: short\nmodel: gemini-2.5-flash\nmax_output_tokens: 500\ntemperature: 0.2\ntemplate: \"Teach {{ .Outline }} briefly.\"\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := prompt.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	req, err := p.Request("maps")
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if req.Messages[0].Content != "Teach maps briefly." {
		t.Errorf("Content = %q", req.Messages[0].Content)
	}
	if req.Model != "gemini-2.5-flash" || req.MaxTokens != 500 {
		t.Errorf("req = %+v", req)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "template: [unclosed"},
		{"empty template", "max_output_tokens: 10\ntemplate: \"  \""},
		{"zero tokens", "max_output_tokens: 0\ntemplate: x"},
		{"temperature too high", "max_output_tokens: 10\ntemperature: 3\ntemplate: x"},
		{"bad template", "max_output_tokens: 10\ntemplate: \"{{ .Outline \""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := prompt.Parse([]byte(tt.doc)); err == nil {
				t.Error("Parse() should fail")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := prompt.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestRender_UnknownField(t *testing.T) {
	p, err := prompt.Parse([]byte("max_output_tokens: 10\ntemplate: \"{{ .Topic }}\""))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := p.Render("x"); err == nil {
		t.Error("Render() should fail on unknown fields")
	}
}
