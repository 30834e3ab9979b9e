package ai

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPreviewLength is the maximum length for preview strings in logs
	MaxPreviewLength = 200
	// RedactedValue is the value used to replace sensitive data
	RedactedValue = "[REDACTED]"
)

// SanitizeAPIKey sanitizes an API key for logging
func SanitizeAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return RedactedValue
	}
	return apiKey[:4] + RedactedValue + apiKey[len(apiKey)-4:]
}

// SanitizeResponse creates a safe preview of a model response for logging.
// Control characters are stripped to prevent log injection and the preview is
// truncated to MaxPreviewLength.
func SanitizeResponse(content string) string {
	if content == "" {
		return ""
	}
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "")
	}

	var builder strings.Builder
	builder.Grow(len(content))
	for _, r := range content {
		if unicode.IsPrint(r) || r == ' ' {
			builder.WriteRune(r)
		}
	}
	content = builder.String()

	if len(content) > MaxPreviewLength {
		content = content[:MaxPreviewLength] + "..."
	}
	return content
}
