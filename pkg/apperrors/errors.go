// Package apperrors holds the typed failures surfaced by story generation.
package apperrors

import (
	"fmt"
	"strings"
)

// LanguageValidationError reports a language code that does not name a known language.
type LanguageValidationError struct {
	Code string
}

func (e *LanguageValidationError) Error() string {
	return fmt.Sprintf("invalid language code: %q", e.Code)
}

// GenerationError is returned once a structured generation stage has used up its attempts.
type GenerationError struct {
	Stage      string
	Attempts   int
	Violations []string
	Err        error
}

func (e *GenerationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s generation failed after %d attempt(s)", e.Stage, e.Attempts)
	if len(e.Violations) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Violations, "; "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *GenerationError) Unwrap() error { return e.Err }

// MediaSynthesisError wraps a voice, image, effect or transcription failure.
// Line and Subject are -1 when the failure is not tied to one line or speaker.
type MediaSynthesisError struct {
	Stage   string
	Scene   int
	Line    int
	Subject int
	Err     error
}

func (e *MediaSynthesisError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed (scene %d", e.Stage, e.Scene)
	if e.Line >= 0 {
		fmt.Fprintf(&b, ", line %d", e.Line)
	}
	if e.Subject >= 0 {
		fmt.Fprintf(&b, ", subject #%d", e.Subject)
	}
	b.WriteString(")")
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *MediaSynthesisError) Unwrap() error { return e.Err }

// CompositionError wraps a timeline assembly failure.
type CompositionError struct {
	Stage string
	Err   error
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("composition %s: %v", e.Stage, e.Err)
}

func (e *CompositionError) Unwrap() error { return e.Err }

// NotFoundError reports an unknown story, node or video.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// OwnershipError reports access to a story owned by another user.
type OwnershipError struct {
	StoryID string
	UserID  string
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("story %s is not owned by user %s", e.StoryID, e.UserID)
}

// InvalidInputError reports a request field that cannot be used.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
