package audiovisual

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"mirai/pkg/apperrors"
	"mirai/pkg/imaging"
	"mirai/pkg/media"
	"mirai/pkg/schema"
)

// SceneMedia is a composed scene clip and the pieces it was built from.
type SceneMedia struct {
	SceneID int
	Lines   []*LineAudio
	Sounds  []*SoundEffectAudio
	Image   string
	Audio   string
	Clip    string
	Length  float64
}

func (p *Producer) composeScene(ctx context.Context, job Job, scene schema.Scene, voices voiceBook) (*SceneMedia, error) {
	dir := filepath.Join(job.Dir, fmt.Sprintf("scene_%03d", scene.ID))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &apperrors.CompositionError{Stage: fmt.Sprintf("scene %d workspace", scene.ID), Err: err}
	}
	sm := &SceneMedia{
		SceneID: scene.ID,
		Image:   filepath.Join(dir, "image.png"),
		Audio:   filepath.Join(dir, "audio.wav"),
		Clip:    filepath.Join(dir, "clip.mp4"),
	}

	var image []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lines, err := p.synthesizeLines(gctx, job, scene, dir, voices)
		sm.Lines = lines
		return err
	})
	g.Go(func() error {
		prompt := imaging.Prompt(scene.VisualDescription, job.Style)
		opts := imaging.Options{Width: p.cfg.Frame.Width, Height: p.cfg.Frame.Height, Style: job.Style}
		err := p.call(gctx, func() (err error) {
			image, err = p.images.Generate(gctx, prompt, opts)
			return err
		})
		if err == nil {
			err = os.WriteFile(sm.Image, image, 0644)
		}
		if err != nil {
			return &apperrors.MediaSynthesisError{Stage: "image", Scene: scene.ID, Line: -1, Subject: -1, Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, l := range sm.Lines {
		sm.Length = max(sm.Length, l.End())
	}
	if sm.Length <= 0 {
		return nil, &apperrors.CompositionError{Stage: fmt.Sprintf("scene %d mix", scene.ID), Err: fmt.Errorf("voice track is empty")}
	}

	plans := p.planSounds(ctx, image, sm.Lines, sm.Length)
	sm.Sounds = p.synthesizeSounds(ctx, scene.ID, plans, sm.Length, dir)

	if err := p.editor.Mix(ctx, p.tracks(sm), sm.Length, sm.Audio); err != nil {
		return nil, &apperrors.CompositionError{Stage: fmt.Sprintf("scene %d mix", scene.ID), Err: err}
	}
	if err := p.editor.StillClip(ctx, sm.Image, sm.Audio, p.cfg.Frame, sm.Clip); err != nil {
		return nil, &apperrors.CompositionError{Stage: fmt.Sprintf("scene %d clip", scene.ID), Err: err}
	}

	log.Debug("scene composed", "scene", scene.ID, "lines", len(sm.Lines), "sounds", len(sm.Sounds), "length", fmt.Sprintf("%.2fs", sm.Length))
	return sm, nil
}

// tracks lays the voice lines at full volume and the sounds faded and attenuated beneath them.
func (p *Producer) tracks(sm *SceneMedia) []media.Track {
	out := make([]media.Track, 0, len(sm.Lines)+len(sm.Sounds))
	for _, l := range sm.Lines {
		out = append(out, media.Track{Path: l.Path, Offset: l.Start, Volume: 1})
	}
	for _, s := range sm.Sounds {
		vol := p.cfg.Sound.EffectVolume
		if s.Plan.Kind == schema.SoundAmbient {
			vol = p.cfg.Sound.AmbientVolume
		}
		out = append(out, media.Track{
			Path:   s.Path,
			Offset: s.Start,
			Length: s.Length,
			Volume: vol,
			Fade:   s.Length * p.cfg.Sound.FadeRatio,
		})
	}
	return out
}
