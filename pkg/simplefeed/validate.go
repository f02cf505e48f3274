package simplefeed

import (
	"regexp"
	"strings"
)

const (
	minPasswordLength = 5
	minTitleLength    = 5
	minContentLength  = 5
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func validEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// validLength reports whether the trimmed value is at least min runes.
func validLength(value string, min int) bool {
	return len([]rune(strings.TrimSpace(value))) >= min
}

// validatePostInput checks title and content together so a caller sees
// every problem in one response.
func validatePostInput(title, content string) error {
	verr := &ValidationError{}
	if !validLength(title, minTitleLength) {
		verr.Add("title", "Title is invalid")
	}
	if !validLength(content, minContentLength) {
		verr.Add("content", "Content is invalid")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}
