// Package speech turns lines into voiced audio and scene descriptions into sound effects.
package speech

import (
	"context"

	"mirai/pkg/schema"
)

// Speaker voices text and picks voices for characters.
type Speaker interface {
	Speak(ctx context.Context, text, voiceID string) ([]byte, error)

	// Voice picks a voice for the character that is not in used. A nil subject asks for the narrator.
	Voice(ctx context.Context, language string, used []string, subject *schema.Subject) (string, error)
}

// Effects synthesizes non-speech sound of a given length.
type Effects interface {
	SoundEffect(ctx context.Context, description string, seconds float64) ([]byte, error)
}

// AgeBucket maps an age in years to the catalog's age label.
func AgeBucket(age int) string {
	switch {
	case age <= 29:
		return "young"
	case age <= 59:
		return "middle-aged"
	default:
		return "old"
	}
}
