package schema

import (
	"cmp"
	"fmt"
	"slices"
)

type SubjectKind string

const (
	KindCharacter   SubjectKind = "character"
	KindEnvironment SubjectKind = "environment"
)

type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderNeutral Gender = "neutral"
)

// Subject is a character or environment referenced by a stable id within a branch.
type Subject struct {
	ID          int         `json:"id"`
	Kind        SubjectKind `json:"kind"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Age         int         `json:"age,omitempty"`
	Gender      Gender      `json:"gender,omitempty"`
	VoiceID     string      `json:"voice_id,omitempty"`
}

func (s Subject) IsCharacter() bool { return s.Kind == KindCharacter }

// Subjects is the registry of a branch, kept sorted by id. It is only ever extended.
type Subjects []Subject

func (s Subjects) Get(id int) (Subject, bool) {
	i, ok := slices.BinarySearchFunc(s, id, func(sub Subject, id int) int {
		return cmp.Compare(sub.ID, id)
	})
	if !ok {
		return Subject{}, false
	}
	return s[i], true
}

func (s Subjects) Has(id int) bool {
	_, ok := s.Get(id)
	return ok
}

// MaxID returns the highest id in the registry, or 0 when empty.
func (s Subjects) MaxID() int {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].ID
}

// Add inserts a new subject. Redefining an existing id is an error.
func (s *Subjects) Add(sub Subject) error {
	if sub.ID <= 0 {
		return fmt.Errorf("subject id must be positive, got %d", sub.ID)
	}
	i, ok := slices.BinarySearchFunc(*s, sub.ID, func(sub Subject, id int) int {
		return cmp.Compare(sub.ID, id)
	})
	if ok {
		return fmt.Errorf("subject #%d already exists", sub.ID)
	}
	*s = slices.Insert(*s, i, sub)
	return nil
}

// AssignVoice sets the voice of a character once. A second assignment is rejected.
func (s Subjects) AssignVoice(id int, voiceID string) error {
	for i := range s {
		if s[i].ID != id {
			continue
		}
		if !s[i].IsCharacter() {
			return fmt.Errorf("subject #%d is not a character", id)
		}
		if s[i].VoiceID != "" {
			return fmt.Errorf("subject #%d already has voice %s", id, s[i].VoiceID)
		}
		s[i].VoiceID = voiceID
		return nil
	}
	return fmt.Errorf("subject #%d not found", id)
}

// UsedVoices lists the voices already assigned in this registry.
func (s Subjects) UsedVoices() []string {
	var out []string
	for _, sub := range s {
		if sub.VoiceID != "" {
			out = append(out, sub.VoiceID)
		}
	}
	return out
}

// Clone copies the registry so sibling branches never observe each other's changes.
func (s Subjects) Clone() Subjects {
	if s == nil {
		return Subjects{}
	}
	return slices.Clone(s)
}
