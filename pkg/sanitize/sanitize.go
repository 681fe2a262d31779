package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	scriptRegex  = regexp.MustCompile(`(?i)<script[^>]*>.*?</script>`)
	styleRegex   = regexp.MustCompile(`(?i)<style[^>]*>.*?</style>`)
	htmlTagRegex = regexp.MustCompile(`<[^>]*>`)
	controlRegex = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// Text strips control characters and trims whitespace. Used for
// user-provided titles, descriptions and message content.
func Text(input string) string {
	input = StripControlCharacters(input)
	return strings.TrimSpace(input)
}

// Filename strips path traversal attempts and control characters from
// an uploaded file name
func Filename(filename string) string {
	filename = strings.TrimSpace(filename)
	filename = strings.ReplaceAll(filename, "../", "")
	filename = strings.ReplaceAll(filename, "./", "")
	filename = strings.ReplaceAll(filename, "..\\", "")
	filename = strings.ReplaceAll(filename, ".\\", "")
	return controlRegex.ReplaceAllString(filename, "")
}

// HTML removes all HTML tags from the input
func HTML(input string) string {
	input = scriptRegex.ReplaceAllString(input, "")
	input = styleRegex.ReplaceAllString(input, "")
	return htmlTagRegex.ReplaceAllString(input, "")
}

// StripControlCharacters removes control characters, keeping newlines and tabs
func StripControlCharacters(input string) string {
	var result strings.Builder
	for _, r := range input {
		if r == '\n' || r == '\t' {
			result.WriteRune(r)
			continue
		}
		if !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// ValidateStringLength checks if string length is within bounds
func ValidateStringLength(input string, minLen, maxLen int) bool {
	return len(input) >= minLen && len(input) <= maxLen
}
