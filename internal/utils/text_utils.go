package utils

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// TextProcessor provides utilities for normalising untrusted form text
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// SanitizeUTF8 drops invalid UTF-8 bytes from text
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	sanitized := strings.ToValidUTF8(text, "")

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(sanitized)))

	return sanitized
}

// NormalizeField trims surrounding whitespace, drops invalid UTF-8 and
// composes the text to NFC so that length checks count what a user typed
func (tp *TextProcessor) NormalizeField(text string) string {
	return norm.NFC.String(strings.TrimSpace(tp.SanitizeUTF8(text)))
}

// CharCount returns the number of characters in text
func (tp *TextProcessor) CharCount(text string) int {
	return utf8.RuneCountInString(text)
}

// StripLineBreaks replaces every run of CR/LF characters with a single space
// so the value is safe to place in a mail header
func (tp *TextProcessor) StripLineBreaks(text string) string {
	if !strings.ContainsAny(text, "\r\n") {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	inBreak := false
	for _, r := range text {
		if r == '\r' || r == '\n' {
			if !inBreak {
				b.WriteByte(' ')
				inBreak = true
			}
			continue
		}
		inBreak = false
		b.WriteRune(r)
	}
	return b.String()
}
