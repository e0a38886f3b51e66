// Package prompt loads the lesson generation prompt. The built-in prompt is
// embedded; a YAML file with the same shape can replace it.
package prompt

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/pai-lessons/internal/ai"
)

//go:embed lesson.yaml
var defaultYAML []byte

// Template is a generation prompt plus the sampling settings it was tuned for.
type Template struct {
	ID              string  `yaml:"id"`
	Model           string  `yaml:"model"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	Temperature     float64 `yaml:"temperature"`
	Body            string  `yaml:"template"`

	tmpl *template.Template
}

// Default returns the embedded prompt.
func Default() *Template {
	t, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded prompt is invalid: %v", err))
	}
	return t
}

// Load reads a prompt from path, or returns Default when path is empty.
func Load(path string) (*Template, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompt: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("prompt %s: %w", path, err)
	}

	slog.Info("prompt loaded", "id", t.ID, "path", path)
	return t, nil
}

// Parse decodes and validates a YAML prompt document.
func Parse(data []byte) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding prompt: %w", err)
	}

	switch {
	case strings.TrimSpace(t.Body) == "":
		return nil, fmt.Errorf("template is empty")
	case t.MaxOutputTokens <= 0:
		return nil, fmt.Errorf("max_output_tokens must be positive, got %d", t.MaxOutputTokens)
	case t.Temperature < 0 || t.Temperature > 2:
		return nil, fmt.Errorf("temperature must be within [0, 2], got %v", t.Temperature)
	}

	tmpl, err := template.New(t.ID).Option("missingkey=error").Parse(t.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	t.tmpl = tmpl
	return &t, nil
}

// Render fills the template with a lesson outline.
func (t *Template) Render(outline string) (string, error) {
	var b strings.Builder
	if err := t.tmpl.Execute(&b, struct{ Outline string }{Outline: outline}); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return b.String(), nil
}

// Request builds the completion request for an outline.
func (t *Template) Request(outline string) (ai.CompletionRequest, error) {
	text, err := t.Render(outline)
	if err != nil {
		return ai.CompletionRequest{}, err
	}
	return ai.CompletionRequest{
		Messages:    []ai.Message{{Role: "user", Content: text}},
		Model:       t.Model,
		MaxTokens:   t.MaxOutputTokens,
		Temperature: t.Temperature,
	}, nil
}
