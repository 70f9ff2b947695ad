// Package prompts supplies fill-in-the-blank prompt text and synthetic
// answers, either from an external text-generation service or from the
// built-in fallback set.
package prompts

import (
	"context"
	"strings"
)

// BlankMarker terminates every valid prompt. Clients render it as the
// fill-in-the-blank slot.
const BlankMarker = "____"

// MaxPromptLen bounds accepted prompt text.
const MaxPromptLen = 100

// Source supplies candidate prompts for a difficulty tag and synthetic
// answers for bot participants. Implementations may fail or time out; the
// caller is expected to fall back to the builtin content.
type Source interface {
	FetchPrompts(ctx context.Context, difficulty string) ([]string, error)
	GenerateAnswer(ctx context.Context, prompt string) (string, error)
}

// Valid reports whether a prompt string is usable: non-empty, bounded, and
// ending with the blank marker.
func Valid(text string) bool {
	if text == "" || len(text) >= MaxPromptLen {
		return false
	}
	return strings.HasSuffix(strings.TrimSpace(text), BlankMarker)
}
