package speech

import (
	"errors"
	"strings"

	"mirai/pkg/language"
	"mirai/pkg/schema"
)

// ErrNoVoice is returned when no catalog voice can serve a character.
var ErrNoVoice = errors.New("no matching voice")

// Voice is a catalog entry with its descriptive labels.
type Voice struct {
	ID     string            `json:"voice_id"`
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels"`
}

func (v Voice) label(k string) string {
	return strings.ToLower(strings.TrimSpace(v.Labels[k]))
}

// pickVoice chooses among voices that match the character's gender and are not in used.
// A "character" use case wins outright; otherwise language and then age break ties,
// falling back to the first eligible voice.
func pickVoice(voices []Voice, lang string, used []string, subject schema.Subject) (string, error) {
	taken := make(map[string]bool, len(used))
	for _, id := range used {
		taken[id] = true
	}
	gender := string(subject.Gender)
	if gender == "" {
		gender = string(schema.GenderNeutral)
	}
	base := language.Base(lang)
	age := AgeBucket(subject.Age)

	best, bestScore := "", -1
	for _, v := range voices {
		if taken[v.ID] || v.label("use_case") == "asmr" || v.label("gender") != gender {
			continue
		}
		if v.label("use_case") == "character" {
			return v.ID, nil
		}
		score := 0
		if l := v.label("language"); l == "" || l == base {
			score += 2
		}
		if v.label("age") == age {
			score++
		}
		if score > bestScore {
			best, bestScore = v.ID, score
		}
	}
	if best == "" {
		return "", ErrNoVoice
	}
	return best, nil
}
