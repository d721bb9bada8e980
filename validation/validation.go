package validation

import (
	"strings"
	"unicode"
)

// IsValidQuestion checks if a question makes sense (not gibberish)
// Returns true if the question appears to be valid, false if it's likely gibberish
func IsValidQuestion(question string) bool {
	trimmed := strings.TrimSpace(question)

	// Check minimum length (at least 3 characters)
	if len(trimmed) < 3 {
		return false
	}

	// Check maximum reasonable length (prevent extremely long gibberish)
	if len(trimmed) > 10000 {
		return false
	}

	words := strings.Fields(trimmed)
	if len(words) < 2 {
		// Single word might be valid if it's long enough and has meaning
		if len(words) == 1 && len(words[0]) >= 3 && !isRepeatedCharacters(words[0]) {
			return true
		}
		return false
	}

	// Check for excessive character repetition (e.g., "aaaaaa", "111111")
	if hasExcessiveRepetition(trimmed) {
		return false
	}

	// Should have some letters (at least 30% of characters should be letters)
	letterCount := 0
	totalChars := 0
	digitCount := 0
	for _, r := range trimmed {
		if unicode.IsLetter(r) {
			letterCount++
		}
		if unicode.IsDigit(r) {
			digitCount++
		}
		if !unicode.IsSpace(r) {
			totalChars++
		}
	}
	if totalChars == 0 {
		return false
	}
	if float64(letterCount)/float64(totalChars) < 0.3 {
		return false
	}

	// Check for excessive numbers (more than 50% numbers is suspicious)
	if float64(digitCount)/float64(totalChars) > 0.5 {
		return false
	}

	// Check for keyboard mashing patterns (e.g., "asdfgh", "qwerty")
	if hasKeyboardMashing(trimmed) {
		return false
	}

	return true
}

// isRepeatedCharacters checks if a string is just repeated characters
func isRepeatedCharacters(s string) bool {
	if len(s) < 3 {
		return false
	}
	firstChar := s[0]
	for i := 1; i < len(s); i++ {
		if s[i] != firstChar {
			return false
		}
	}
	return true
}

// hasExcessiveRepetition checks for 4+ consecutive identical characters
func hasExcessiveRepetition(s string) bool {
	if len(s) < 4 {
		return false
	}
	for i := 0; i <= len(s)-4; i++ {
		char := s[i]
		count := 1
		for j := i + 1; j < len(s) && s[j] == char; j++ {
			count++
		}
		if count >= 4 {
			return true
		}
	}
	return false
}

// hasKeyboardMashing checks for keyboard mashing patterns
func hasKeyboardMashing(s string) bool {
	lower := strings.ToLower(s)

	mashingPatterns := []string{
		"asdfghjkl", "qwertyuiop", "zxcvbnm",
		"asdf", "qwer", "zxcv", "hjkl",
	}

	for _, pattern := range mashingPatterns {
		if strings.Contains(lower, pattern) && len(s) < 30 {
			return true
		}
	}
	return false
}
