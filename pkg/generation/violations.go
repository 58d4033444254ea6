package generation

import (
	"errors"
	"strings"
)

// Violations is the descriptive list of problems a validator found in a result.
type Violations []string

func (v Violations) Error() string {
	return strings.Join(v, "; ")
}

// Feedback renders the violations as the corrective user turn for the next attempt.
func (v Violations) Feedback() string {
	var b strings.Builder
	b.WriteString("Your previous answer was rejected for the following reasons:\n")
	for _, s := range v {
		b.WriteString("- ")
		b.WriteString(s)
		b.WriteString("\n")
	}
	b.WriteString("Fix every problem listed above and answer again with the complete result.")
	return b.String()
}

// Collector accumulates violations while a validator walks a result.
type Collector struct {
	v Violations
}

func (c *Collector) Add(s string) {
	c.v = append(c.v, s)
}

// Err returns the collected violations, or nil when there are none.
func (c *Collector) Err() error {
	if len(c.v) == 0 {
		return nil
	}
	return c.v
}

func asViolations(err error) Violations {
	var v Violations
	if errors.As(err, &v) {
		return v
	}
	return Violations{err.Error()}
}
