package observability

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf8"
)

// PIILevel controls how much user content reaches span attributes.
type PIILevel string

const (
	// PIILevelNone redacts user content entirely.
	PIILevelNone PIILevel = "none"
	// PIILevelHashed keeps the text but hashes recognizable PII.
	PIILevelHashed PIILevel = "hashed"
	// PIILevelFull records content unchanged.
	PIILevelFull PIILevel = "full"

	redacted       = "[REDACTED]"
	maxPreviewRune = 256
)

var (
	emailPattern      = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern      = regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`)
	creditCardPattern = regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`)
	ipv4Pattern       = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	bearerPattern     = regexp.MustCompile(`(?i)\b(bearer\s+|sk-|sk-or-v1-)[A-Za-z0-9._\-]{8,}`)
)

// Sanitizer prepares chat content and caller ids for telemetry.
type Sanitizer struct {
	level PIILevel
	salt  string
}

// NewSanitizer returns a sanitizer; unknown levels behave as hashed.
func NewSanitizer(level PIILevel, salt string) *Sanitizer {
	switch PIILevel(strings.ToLower(string(level))) {
	case PIILevelNone:
		level = PIILevelNone
	case PIILevelFull:
		level = PIILevelFull
	default:
		level = PIILevelHashed
	}
	return &Sanitizer{level: level, salt: salt}
}

func (s *Sanitizer) Level() PIILevel {
	return s.level
}

// SanitizeText returns a bounded preview of user or model text.
func (s *Sanitizer) SanitizeText(input string) string {
	if input == "" {
		return ""
	}
	switch s.level {
	case PIILevelNone:
		return redacted
	case PIILevelFull:
		return preview(input)
	}

	result := bearerPattern.ReplaceAllString(input, "[SECRET:REDACTED]")
	result = emailPattern.ReplaceAllStringFunc(result, func(match string) string {
		return "[EMAIL:" + s.hash(match) + "]"
	})
	result = creditCardPattern.ReplaceAllString(result, "[CC:REDACTED]")
	result = phonePattern.ReplaceAllStringFunc(result, func(match string) string {
		return "[PHONE:" + s.hash(match) + "]"
	})
	result = ipv4Pattern.ReplaceAllStringFunc(result, func(match string) string {
		return "[IP:" + s.hash(match) + "]"
	})
	return preview(result)
}

// SanitizeUserID hashes the caller id unless full content is allowed.
func (s *Sanitizer) SanitizeUserID(userID string) string {
	if userID == "" {
		return ""
	}
	switch s.level {
	case PIILevelNone:
		return redacted
	case PIILevelFull:
		return userID
	default:
		return s.hash(userID)
	}
}

func (s *Sanitizer) hash(data string) string {
	sum := sha256.Sum256([]byte(data + s.salt))
	return hex.EncodeToString(sum[:])[:8]
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= maxPreviewRune {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxPreviewRune]) + "..."
}
