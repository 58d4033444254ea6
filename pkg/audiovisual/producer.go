// Package audiovisual turns an assembled script into a node video: voiced lines placed back to back,
// a still image and layered sound effects per scene, and all scenes joined in order.
package audiovisual

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"mirai/pkg/apperrors"
	"mirai/pkg/generation"
	"mirai/pkg/imaging"
	"mirai/pkg/inference"
	"mirai/pkg/media"
	"mirai/pkg/schema"
	"mirai/pkg/speech"
	"mirai/pkg/transcribe"
)

// SoundBounds clamps planned sound effects before synthesis.
type SoundBounds struct {
	Min           float64 // shortest request, seconds
	Max           float64 // longest ambient request, seconds
	EffectMax     float64 // longest event effect, seconds
	MaxEffects    int
	EffectVolume  float64
	AmbientVolume float64
	FadeRatio     float64 // fade in/out as a share of the effect's own length
}

func DefaultSoundBounds() SoundBounds {
	return SoundBounds{
		Min:           1,
		Max:           22,
		EffectMax:     5,
		MaxEffects:    3,
		EffectVolume:  0.5,
		AmbientVolume: 0.3,
		FadeRatio:     0.1,
	}
}

type Config struct {
	// Concurrency bounds simultaneous calls to speech, image, effect and transcription providers.
	Concurrency int64
	Frame       media.Frame
	Sound       SoundBounds
	Policy      generation.Policy
}

type Producer struct {
	speaker     speech.Speaker
	effects     speech.Effects
	images      imaging.Generator
	transcriber transcribe.Transcriber
	inf         inference.Inferencer
	editor      media.Editor

	gate *semaphore.Weighted
	cfg  Config
}

type Deps struct {
	Speaker     speech.Speaker
	Effects     speech.Effects
	Images      imaging.Generator
	Transcriber transcribe.Transcriber
	Inferencer  inference.Inferencer
	Editor      media.Editor
}

func NewProducer(d Deps, cfg Config) *Producer {
	cfg.Concurrency = max(cfg.Concurrency, 1)
	if cfg.Frame == (media.Frame{}) {
		cfg.Frame = media.DefaultFrame
	}
	if cfg.Sound == (SoundBounds{}) {
		cfg.Sound = DefaultSoundBounds()
	}
	return &Producer{
		speaker:     d.Speaker,
		effects:     d.Effects,
		images:      d.Images,
		transcriber: d.Transcriber,
		inf:         d.Inferencer,
		editor:      d.Editor,
		gate:        semaphore.NewWeighted(cfg.Concurrency),
		cfg:         cfg,
	}
}

// Job is one node's worth of media. Subjects is owned by the caller's request and receives
// voice assignments for characters that speak for the first time.
type Job struct {
	Script    schema.Script
	Subjects  schema.Subjects
	Language  string
	Style     schema.Style
	Dir       string // scratch space for intermediates
	Output    string // final mp4
	Thumbnail string // webp written from the first scene's image
}

type Result struct {
	Subjects  schema.Subjects
	Scenes    []*SceneMedia
	Video     string
	Thumbnail string
	Duration  float64
}

// Produce synthesizes every scene and stitches them. Nothing is returned unless every line,
// image and composite succeeded; sound effects that fail are dropped.
func (p *Producer) Produce(ctx context.Context, job Job) (*Result, error) {
	start := time.Now()
	if len(job.Script.Scenes) == 0 {
		return nil, &apperrors.CompositionError{Stage: "stitch", Err: fmt.Errorf("script has no scenes")}
	}
	if err := os.MkdirAll(job.Dir, 0755); err != nil {
		return nil, &apperrors.CompositionError{Stage: "workspace", Err: err}
	}

	voices, err := p.assignVoices(ctx, job)
	if err != nil {
		return nil, err
	}

	scenes := make([]*SceneMedia, len(job.Script.Scenes))
	g, gctx := errgroup.WithContext(ctx)
	for i, scene := range job.Script.Scenes {
		g.Go(func() error {
			sm, err := p.composeScene(gctx, job, scene, voices)
			if err != nil {
				return err
			}
			scenes[i] = sm
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res, err := p.stitch(ctx, job, scenes)
	if err != nil {
		return nil, err
	}
	res.Subjects = job.Subjects
	log.Info("node video produced", "scenes", len(scenes), "duration", fmt.Sprintf("%.1fs", res.Duration), "took", time.Since(start).Round(time.Millisecond))
	return res, nil
}

// stitch joins scene clips in scene id order and derives the thumbnail from the first scene.
func (p *Producer) stitch(ctx context.Context, job Job, scenes []*SceneMedia) (*Result, error) {
	ordered := slices.Clone(scenes)
	slices.SortStableFunc(ordered, func(a, b *SceneMedia) int { return cmp.Compare(a.SceneID, b.SceneID) })

	clips := make([]string, len(ordered))
	var total float64
	for i, s := range ordered {
		clips[i] = s.Clip
		total += s.Length
	}

	if err := os.MkdirAll(filepath.Dir(job.Output), 0755); err != nil {
		return nil, &apperrors.CompositionError{Stage: "stitch", Err: err}
	}
	if err := p.editor.Concat(ctx, clips, job.Output); err != nil {
		return nil, &apperrors.CompositionError{Stage: "stitch", Err: err}
	}

	if job.Thumbnail != "" {
		img, err := os.ReadFile(ordered[0].Image)
		if err != nil {
			return nil, &apperrors.CompositionError{Stage: "thumbnail", Err: err}
		}
		if err := imaging.Thumbnail(img, job.Thumbnail); err != nil {
			return nil, &apperrors.CompositionError{Stage: "thumbnail", Err: err}
		}
	}

	return &Result{
		Scenes:    ordered,
		Video:     job.Output,
		Thumbnail: job.Thumbnail,
		Duration:  total,
	}, nil
}

// call runs fn while holding one slot of the provider gate.
func (p *Producer) call(ctx context.Context, fn func() error) error {
	if err := p.gate.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.gate.Release(1)
	return fn()
}
