// Package generation asks a text model for a structured result, validates it, and retries
// with the violations fed back into the conversation until it passes or attempts run out.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"mirai/pkg/apperrors"
	"mirai/pkg/chat"
	"mirai/pkg/inference"
	"mirai/pkg/schema"
	"mirai/pkg/utils"
)

// Validator inspects a decoded result and returns Violations (or any error) when it is unusable.
type Validator[T any] func(T) error

// Stage describes one structured generation step. Only Format and Validate vary between stages.
type Stage[T any] struct {
	Name     string
	System   string
	Format   schema.Format
	Validate Validator[T]
}

// Generate appends prompt as a user turn and asks for a result under the stage's format.
// Rejected answers stay in the conversation, followed by the violations as a user turn.
func Generate[T any](ctx context.Context, inf inference.Inferencer, c *chat.Chat, prompt string, stage Stage[T], policy Policy) (T, error) {
	var zero T

	checker, err := compile(stage.Format)
	if err != nil {
		return zero, fmt.Errorf("compile %s schema: %w", stage.Name, err)
	}

	c.AddUser(prompt)
	opts := &inference.Options{System: stage.System, Format: &stage.Format}

	var last Violations
	attempts := policy.attempts()
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, policy.Delay(attempt-1)); err != nil {
				return zero, &apperrors.GenerationError{Stage: stage.Name, Attempts: attempt, Violations: last, Err: err}
			}
		}

		raw, err := inf.Chat(ctx, c, opts)
		if err != nil {
			return zero, &apperrors.GenerationError{Stage: stage.Name, Attempts: attempt + 1, Err: err}
		}
		raw = utils.CleanJSON(raw)
		c.AddAssistant(raw)

		result, err := decode[T](checker, raw)
		if err == nil && stage.Validate != nil {
			err = stage.Validate(result)
		}
		if err == nil {
			log.Debug("generation accepted", "stage", stage.Name, "attempt", attempt+1)
			return result, nil
		}

		last = asViolations(err)
		log.Warn("generation rejected", "stage", stage.Name, "attempt", attempt+1, "of", attempts, "violations", len(last))
		c.AddUser(last.Feedback())
	}

	return zero, &apperrors.GenerationError{Stage: stage.Name, Attempts: attempts, Violations: last}
}

func compile(f schema.Format) (*jsonschema.Schema, error) {
	b, err := json.Marshal(f.Schema)
	if err != nil {
		return nil, err
	}
	url := f.Name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(b)); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
}

func decode[T any](checker *jsonschema.Schema, raw string) (T, error) {
	var zero T

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return zero, Violations{fmt.Sprintf("the answer is not valid JSON: %v", err)}
	}
	if err := checker.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return zero, schemaViolations(ve)
		}
		return zero, Violations{err.Error()}
	}

	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return zero, Violations{fmt.Sprintf("the answer does not match the expected structure: %v", err)}
	}
	return out, nil
}

func schemaViolations(ve *jsonschema.ValidationError) Violations {
	var out Violations
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			out = append(out, fmt.Sprintf("at %s: %s", loc, e.Message))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return out
}
