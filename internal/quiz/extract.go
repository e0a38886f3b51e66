package quiz

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// sectionTitles are the headings that open a quiz section.
var sectionTitles = []string{"Quiz", "Practice Questions", "Test Your Knowledge"}

// Extract scans lesson markdown for a quiz section and returns its questions
// in document order.
//
// A missing or malformed quiz yields no questions; Extract never fails, so a
// lesson without a quiz still renders.
func Extract(markdown string) []Question {
	lines := splitLines(markdown)
	section, ok := quizSection(lines)
	if !ok {
		return nil
	}
	return scanQuestions(section)
}

func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// quizSection returns the lines between the first level 2 or 3 quiz heading
// and the next heading of the same or higher level.
func quizSection(lines []string) ([]string, bool) {
	fold := cases.Fold()
	titles := make([]string, len(sectionTitles))
	for i, t := range sectionTitles {
		titles[i] = fold.String(t)
	}

	start, level := -1, 0
	inFence := false
	for i, line := range lines {
		if isFence(line) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		lvl, text, ok := parseHeading(line)
		if !ok {
			continue
		}
		if start < 0 {
			if (lvl == 2 || lvl == 3) && isQuizTitle(fold.String(text), titles) {
				start, level = i, lvl
			}
			continue
		}
		if lvl <= level {
			return lines[start+1 : i], true
		}
	}
	if start < 0 {
		return nil, false
	}
	return lines[start+1:], true
}

func isFence(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "```") || strings.HasPrefix(t, "~~~")
}

// parseHeading recognises ATX headings ("## Title ##").
func parseHeading(line string) (int, string, bool) {
	t := strings.TrimLeft(line, " \t")
	n := 0
	for n < len(t) && t[n] == '#' {
		n++
	}
	if n == 0 || n > 6 {
		return 0, "", false
	}
	rest := t[n:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return 0, "", false
	}
	text := strings.TrimSpace(rest)
	if trimmed := strings.TrimRight(text, "#"); trimmed != text {
		if trimmed == "" || strings.HasSuffix(trimmed, " ") || strings.HasSuffix(trimmed, "\t") {
			text = strings.TrimSpace(trimmed)
		}
	}
	return n, text, true
}

// isQuizTitle matches a folded heading against the folded section titles.
// "Quiz", "Quiz:" and "Quiz Time" match; "Quizzes" does not.
func isQuizTitle(heading string, titles []string) bool {
	for _, t := range titles {
		if !strings.HasPrefix(heading, t) {
			continue
		}
		rest := heading[len(t):]
		if rest == "" {
			return true
		}
		r, _ := utf8.DecodeRuneInString(rest)
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// scanQuestions classifies each line as a question stem, an option, or
// anything else. A stem opens a question; options must follow it without a
// gap. Questions that collect no options are dropped.
func scanQuestions(lines []string) []Question {
	var (
		questions []Question
		current   *Question
	)
	flush := func() {
		if current != nil && len(current.Choices) > 0 {
			questions = append(questions, *current)
		}
		current = nil
	}

	for _, line := range lines {
		if stem, ok := parseStem(line); ok {
			flush()
			current = &Question{
				Prompt:        stem,
				CorrectChoice: 0,
				Explanation:   DefaultExplanation,
			}
			continue
		}
		if current != nil {
			if choice, ok := parseChoice(line); ok {
				current.Choices = append(current.Choices, choice)
				continue
			}
		}
		flush()
	}
	flush()

	return questions
}

// parseStem matches "12. question text".
func parseStem(line string) (string, bool) {
	t := strings.TrimLeft(line, " \t")
	n := 0
	for n < len(t) && t[n] >= '0' && t[n] <= '9' {
		n++
	}
	if n == 0 || n+1 >= len(t) || t[n] != '.' {
		return "", false
	}
	if t[n+1] != ' ' && t[n+1] != '\t' {
		return "", false
	}
	stem := strings.TrimSpace(t[n+1:])
	if stem == "" {
		return "", false
	}
	return stem, true
}

// parseChoice matches "A) text", "b. text" or "C text".
func parseChoice(line string) (string, bool) {
	t := strings.TrimLeft(line, " \t")
	if len(t) < 2 {
		return "", false
	}
	switch t[0] {
	case 'A', 'B', 'C', 'D', 'a', 'b', 'c', 'd':
	default:
		return "", false
	}
	switch t[1] {
	case '.', ')', ' ', '\t':
	default:
		return "", false
	}
	text := strings.TrimSpace(t[2:])
	if text == "" {
		return "", false
	}
	return text, true
}
