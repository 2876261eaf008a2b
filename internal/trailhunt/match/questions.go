package match

import "strings"

// ParseQuestions splits the raw operator-edited text into the playable
// question list: one question per non-blank line, surrounding whitespace
// trimmed. Inline math stays as-is between single dollar signs; rendering
// happens in the browser.
func ParseQuestions(text string) []string {
	var questions []string
	for _, line := range strings.Split(text, "\n") {
		if q := strings.TrimSpace(line); q != "" {
			questions = append(questions, q)
		}
	}

	return questions
}
