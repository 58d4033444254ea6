package script

import (
	"fmt"
	"strings"

	"mirai/pkg/generation"
	"mirai/pkg/schema"
)

// ValidateSubjects accepts only new subjects whose ids continue from the registry's highest id.
func ValidateSubjects(existing schema.Subjects) generation.Validator[schema.SubjectsResult] {
	return func(r schema.SubjectsResult) error {
		var c generation.Collector
		next := existing.MaxID() + 1
		seen := make(map[int]bool)
		for i, d := range r.Subjects {
			want := next + i
			switch {
			case existing.Has(d.ID):
				prev, _ := existing.Get(d.ID)
				c.Add(fmt.Sprintf("subject #%d is already defined as %q; do not redefine existing subjects, only list new ones starting at #%d", d.ID, prev.Name, next))
			case seen[d.ID]:
				c.Add(fmt.Sprintf("subject #%d is listed more than once", d.ID))
			case d.ID != want:
				c.Add(fmt.Sprintf("subject %q has id #%d but ids must be consecutive starting at #%d, so it should be #%d", d.Name, d.ID, next, want))
			}
			seen[d.ID] = true

			if strings.TrimSpace(d.Name) == "" {
				c.Add(fmt.Sprintf("subject #%d has an empty name", d.ID))
			}
			if strings.TrimSpace(d.Description) == "" {
				c.Add(fmt.Sprintf("subject #%d has an empty description", d.ID))
			}
			if HasReferences(d.Name) || HasReferences(d.Description) {
				c.Add(fmt.Sprintf("subject #%d must not contain #<id> references in its name or description", d.ID))
			}
			switch d.Kind {
			case schema.KindCharacter:
				if d.Gender != schema.GenderMale && d.Gender != schema.GenderFemale && d.Gender != schema.GenderNeutral {
					c.Add(fmt.Sprintf("character #%d has invalid gender %q", d.ID, d.Gender))
				}
			case schema.KindEnvironment:
			default:
				c.Add(fmt.Sprintf("subject #%d has invalid kind %q", d.ID, d.Kind))
			}
		}
		return c.Err()
	}
}

// ValidateLines checks every line's speaker against the registry. Dialogue must name a character,
// narration must carry the no-speaker reference.
func ValidateLines(subjects schema.Subjects) generation.Validator[schema.LinesResult] {
	characters := characterList(subjects)
	return func(r schema.LinesResult) error {
		var c generation.Collector
		if strings.TrimSpace(r.Title) == "" {
			c.Add("the title is empty")
		}
		if len(r.Scenes) == 0 {
			c.Add("at least one scene is required")
		}
		for si, scene := range r.Scenes {
			if len(scene.Lines) == 0 {
				c.Add(fmt.Sprintf("scene %d has no lines", si+1))
			}
			for li, line := range scene.Lines {
				at := fmt.Sprintf("scene %d line %d", si+1, li+1)
				if strings.TrimSpace(line.Text) == "" {
					c.Add(at + ": text is empty")
				}
				switch line.Kind {
				case schema.LineNarration:
					if line.SubjectID != schema.NoSpeaker {
						c.Add(fmt.Sprintf("%s: narration must use subject_id %d (no speaker), got %d. Use %d, never 0 or a character id, when nobody speaks",
							at, schema.NoSpeaker, line.SubjectID, schema.NoSpeaker))
					}
				case schema.LineDialogue:
					sub, ok := subjects.Get(line.SubjectID)
					switch {
					case !ok:
						c.Add(fmt.Sprintf("%s: dialogue subject_id %d does not exist; dialogue must use one of the character ids %s, and narration must use subject_id %d",
							at, line.SubjectID, characters, schema.NoSpeaker))
					case !sub.IsCharacter():
						c.Add(fmt.Sprintf("%s: subject_id %d is the environment %q, which cannot speak; dialogue must use one of the character ids %s",
							at, line.SubjectID, sub.Name, characters))
					}
				default:
					c.Add(fmt.Sprintf("%s: kind must be %q or %q, got %q", at, schema.LineDialogue, schema.LineNarration, line.Kind))
				}
			}
		}
		return c.Err()
	}
}

// ValidateVisuals requires exactly one description per scene, each referencing known subjects only.
func ValidateVisuals(subjects schema.Subjects, scenes int) generation.Validator[schema.VisualsResult] {
	return func(r schema.VisualsResult) error {
		if len(r.Descriptions) != scenes {
			return generation.Violations{fmt.Sprintf("expected exactly %d descriptions, one per scene, got %d", scenes, len(r.Descriptions))}
		}
		var c generation.Collector
		for i, d := range r.Descriptions {
			if strings.TrimSpace(d) == "" {
				c.Add(fmt.Sprintf("description %d is empty", i+1))
			}
			for _, id := range References(d) {
				if !subjects.Has(id) {
					c.Add(fmt.Sprintf("description %d references #%d, which is not a known subject", i+1, id))
				}
			}
		}
		return c.Err()
	}
}

func characterList(subjects schema.Subjects) string {
	var ids []string
	for _, s := range subjects {
		if s.IsCharacter() {
			ids = append(ids, fmt.Sprintf("%d (%s)", s.ID, s.Name))
		}
	}
	if len(ids) == 0 {
		return "[none]"
	}
	return "[" + strings.Join(ids, ", ") + "]"
}
