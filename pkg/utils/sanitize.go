package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var tagRegex = regexp.MustCompile(`<[^>]*>`)

// Free text is stored as typed. Every rendered document escapes on output,
// so these helpers only trim and drop control characters.

// SanitizeString trims a single-line value and strips control characters.
func SanitizeString(input string) string {
	return removeControlChars(strings.TrimSpace(input), false)
}

// SanitizeEmail sanitizes email input
func SanitizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	email = stripHTML(email)
	return removeControlChars(email, false)
}

// SanitizePhone sanitizes phone number input
func SanitizePhone(phone string) string {
	phone = stripHTML(strings.TrimSpace(phone))

	var result strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) || r == '+' || r == '-' || r == ' ' || r == '(' || r == ')' {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// SanitizeText sanitizes multi-line text input, keeping line breaks and tabs.
func SanitizeText(input string) string {
	return removeControlChars(strings.TrimSpace(input), true)
}

// SanitizeOptional applies SanitizeString and maps blank results to nil.
func SanitizeOptional(input *string) *string {
	if input == nil {
		return nil
	}
	s := SanitizeString(*input)
	if s == "" {
		return nil
	}
	return &s
}

func StringPtr(s string) *string {
	return &s
}

func stripHTML(input string) string {
	return tagRegex.ReplaceAllString(input, "")
}

func removeControlChars(input string, keepLayout bool) string {
	var result strings.Builder
	for _, r := range input {
		if keepLayout && (r == '\n' || r == '\t' || r == '\r') {
			result.WriteRune(r)
			continue
		}
		if unicode.IsPrint(r) || r == ' ' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
