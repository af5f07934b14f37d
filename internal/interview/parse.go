package interview

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ParseQuestions extracts the numbered items from free generator output.
// A line is kept when, after trimming, it is non-empty and starts with a decimal digit.
// Preambles, blank lines and unnumbered commentary are dropped.
func ParseQuestions(raw string) []string {
	var questions []string

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if first, _ := utf8.DecodeRuneInString(line); !unicode.IsDigit(first) {
			continue
		}
		questions = append(questions, line)
	}

	return questions
}
