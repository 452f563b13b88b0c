package utils

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// TruncateRunes cuts s to at most n characters without splitting a multi-byte rune.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// StripExtension returns the base file name without its final extension.
func StripExtension(fileName string) string {
	base := filepath.Base(fileName)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		return strings.TrimSuffix(base, ext)
	}
	return base
}

// ExtractJSONObject returns the first {...} span of s, which is how models
// tend to wrap JSON in prose or code fences. ok is false if there is none.
func ExtractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// CleanTitle trims the quotes and punctuation models like to wrap titles in.
func CleanTitle(title string) string {
	return strings.Trim(strings.TrimSpace(title), "\"'`\n\r\t .")
}

var overviewPhrases = []string{
	"what is this course about",
	"what will i learn",
	"course overview",
}

// IsCourseOverviewQuestion reports whether text asks about the course as a whole.
func IsCourseOverviewQuestion(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range overviewPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
