package audiovisual

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"mirai/pkg/chat"
	"mirai/pkg/generation"
	"mirai/pkg/schema"
)

const soundSystem = `You are a sound designer for illustrated audio stories.
You add non-speech sound under narrated scenes. You never add music, songs, singing, humming, speech, voices, whispers or any other vocal sound.`

// forbiddenSounds are words that reject a planned sound outright.
var forbiddenSounds = map[string]bool{
	"music": true, "musical": true, "song": true, "songs": true, "sing": true, "sings": true, "singing": true,
	"melody": true, "speech": true, "speak": true, "speaking": true, "voice": true, "voices": true,
	"vocal": true, "vocals": true, "talk": true, "talking": true, "chant": true, "chanting": true, "lyrics": true,
}

func forbiddenWord(description string) (string, bool) {
	words := strings.FieldsFunc(strings.ToLower(description), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if forbiddenSounds[w] {
			return w, true
		}
	}
	return "", false
}

// SoundEffectAudio is a synthesized effect placed on the scene timeline.
type SoundEffectAudio struct {
	Plan   schema.SoundEffectPlan
	Path   string
	Start  float64
	Length float64
}

func (p *Producer) soundPrompt(lines []*LineAudio, length float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The image above is the scene's illustration. The scene lasts %.2f seconds. This is what is heard, word by word, with start and end times in seconds:\n", length)
	for _, l := range lines {
		for _, w := range l.Words {
			fmt.Fprintf(&b, "%s [%.2f-%.2f]\n", strings.TrimSpace(w.Text), l.Start+w.Start, l.Start+w.End)
		}
	}
	fmt.Fprintf(&b, `
Propose sound effects for this scene:
- at most one "ambient" sound (background atmosphere) lasting up to %.0f seconds,
- at most %d "effect" sounds triggered by events, each %.0f to %.0f seconds long.
Give each a short, concrete description, a start and an end in seconds within the scene.
Never describe music or any spoken, sung or voiced sound. Return an empty list when silence fits best.`,
		p.cfg.Sound.Max, p.cfg.Sound.MaxEffects, p.cfg.Sound.Min, p.cfg.Sound.EffectMax)
	return b.String()
}

func validateSounds(bounds SoundBounds, length float64) generation.Validator[schema.SoundEffectsResult] {
	return func(r schema.SoundEffectsResult) error {
		var c generation.Collector
		ambient, effects := 0, 0
		for i, e := range r.Effects {
			at := fmt.Sprintf("sound %d", i+1)
			switch e.Kind {
			case schema.SoundAmbient:
				ambient++
			case schema.SoundEffect:
				effects++
			default:
				c.Add(fmt.Sprintf("%s: kind must be %q or %q", at, schema.SoundAmbient, schema.SoundEffect))
			}
			if strings.TrimSpace(e.Description) == "" {
				c.Add(at + ": description is empty")
			}
			if w, bad := forbiddenWord(e.Description); bad {
				c.Add(fmt.Sprintf("%s: %q mentions %q; music and vocal sounds are not allowed", at, e.Description, w))
			}
			if e.Start < 0 {
				c.Add(fmt.Sprintf("%s: start %.2f is negative", at, e.Start))
			}
			if e.End <= e.Start {
				c.Add(fmt.Sprintf("%s: end %.2f must be after start %.2f", at, e.End, e.Start))
			}
			if e.Start >= length {
				c.Add(fmt.Sprintf("%s: start %.2f is after the end of the scene (%.2f)", at, e.Start, length))
			}
		}
		if ambient > 1 {
			c.Add(fmt.Sprintf("at most one ambient sound is allowed, got %d", ambient))
		}
		if effects > bounds.MaxEffects {
			c.Add(fmt.Sprintf("at most %d effect sounds are allowed, got %d", bounds.MaxEffects, effects))
		}
		return c.Err()
	}
}

// clampSound bounds how long a planned sound plays: at least bounds.Min, at most its kind's cap,
// and never past the end of a scene of the given length, so its fade-out is heard.
func clampSound(bounds SoundBounds, e schema.SoundEffectPlan, sceneLength float64) float64 {
	upper := bounds.EffectMax
	if e.Kind == schema.SoundAmbient {
		upper = bounds.Max
	}
	return min(max(e.End-e.Start, bounds.Min), upper, sceneLength-e.Start)
}

// planSounds asks the text model for the scene's sounds. Failures yield no sounds.
func (p *Producer) planSounds(ctx context.Context, image []byte, lines []*LineAudio, length float64) []schema.SoundEffectPlan {
	if p.inf == nil || p.effects == nil {
		return nil
	}
	c := chat.New()
	c.AddUserImage("Scene illustration.", image)
	res, err := generation.Generate(ctx, p.inf, c, p.soundPrompt(lines, length), generation.Stage[schema.SoundEffectsResult]{
		Name:     "sound effects",
		System:   soundSystem,
		Format:   schema.SoundEffectsFormat,
		Validate: validateSounds(p.cfg.Sound, length),
	}, p.cfg.Policy)
	if err != nil {
		log.Warn("sound planning failed, scene keeps its voice track only", "err", err)
		return nil
	}
	return res.Effects
}

// synthesizeSounds renders planned sounds concurrently. A failed sound is logged and skipped.
func (p *Producer) synthesizeSounds(ctx context.Context, sceneID int, plans []schema.SoundEffectPlan, sceneLength float64, dir string) []*SoundEffectAudio {
	out := make([]*SoundEffectAudio, len(plans))
	var g errgroup.Group
	for i, plan := range plans {
		g.Go(func() error {
			length := clampSound(p.cfg.Sound, plan, sceneLength)
			// Providers reject very short requests; a sound starting near the end is generated
			// at the minimum and trimmed in the mix.
			var audio []byte
			err := p.call(ctx, func() (err error) {
				audio, err = p.effects.SoundEffect(ctx, plan.Description, max(length, p.cfg.Sound.Min))
				return err
			})
			if err == nil {
				path := filepath.Join(dir, fmt.Sprintf("sound_%02d.mp3", i))
				if err = os.WriteFile(path, audio, 0644); err == nil {
					out[i] = &SoundEffectAudio{Plan: plan, Path: path, Start: plan.Start, Length: length}
					return nil
				}
			}
			log.Warn("sound effect dropped", "scene", sceneID, "kind", plan.Kind, "description", plan.Description, "err", err)
			return nil
		})
	}
	_ = g.Wait()

	var kept []*SoundEffectAudio
	for _, s := range out {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return kept
}
