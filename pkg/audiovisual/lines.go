package audiovisual

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"mirai/pkg/apperrors"
	"mirai/pkg/schema"
	"mirai/pkg/transcribe"
)

// LineAudio is a voiced line. Start is relative to the beginning of its scene.
type LineAudio struct {
	Index    int
	Line     schema.Line
	Voice    string
	Path     string
	Words    []transcribe.Word
	Duration float64
	Start    float64
}

func (l *LineAudio) End() float64 { return l.Start + l.Duration }

// voiceBook maps speakers to voices for one job. NoSpeaker maps to the narrator.
type voiceBook map[int]string

// assignVoices gives every speaking character without a voice a new one, in script order,
// so voices never collide within a lineage and the concurrent fan-out only reads.
func (p *Producer) assignVoices(ctx context.Context, job Job) (voiceBook, error) {
	book := voiceBook{}
	for _, scene := range job.Script.Scenes {
		for li, line := range scene.Lines {
			id := schema.NoSpeaker
			if line.Kind == schema.LineDialogue {
				id = line.SubjectID
			}
			if _, ok := book[id]; ok {
				continue
			}

			fail := func(err error) error {
				return &apperrors.MediaSynthesisError{Stage: "voice", Scene: scene.ID, Line: li, Subject: id, Err: err}
			}

			if id == schema.NoSpeaker {
				v, err := p.speaker.Voice(ctx, job.Language, nil, nil)
				if err != nil {
					return nil, fail(err)
				}
				book[id] = v
				continue
			}

			sub, ok := job.Subjects.Get(id)
			if !ok || !sub.IsCharacter() {
				return nil, fail(fmt.Errorf("subject #%d is not a known character", id))
			}
			if sub.VoiceID == "" {
				v, err := p.speaker.Voice(ctx, job.Language, job.Subjects.UsedVoices(), &sub)
				if err != nil {
					return nil, fail(err)
				}
				if err := job.Subjects.AssignVoice(id, v); err != nil {
					return nil, fail(err)
				}
				sub.VoiceID = v
			}
			book[id] = sub.VoiceID
		}
	}
	return book, nil
}

// synthesizeLines voices every line of a scene concurrently and places them back to back
// in script order once all are done.
func (p *Producer) synthesizeLines(ctx context.Context, job Job, scene schema.Scene, dir string, voices voiceBook) ([]*LineAudio, error) {
	out := make([]*LineAudio, len(scene.Lines))
	g, gctx := errgroup.WithContext(ctx)
	for i, line := range scene.Lines {
		g.Go(func() error {
			la, err := p.synthesizeLine(gctx, job, scene.ID, i, line, dir, voices)
			if err != nil {
				return err
			}
			out[i] = la
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	place(out)
	return out, nil
}

func (p *Producer) synthesizeLine(ctx context.Context, job Job, sceneID, index int, line schema.Line, dir string, voices voiceBook) (*LineAudio, error) {
	speaker := schema.NoSpeaker
	if line.Kind == schema.LineDialogue {
		speaker = line.SubjectID
	}
	fail := func(stage string, err error) error {
		return &apperrors.MediaSynthesisError{Stage: stage, Scene: sceneID, Line: index, Subject: speaker, Err: err}
	}

	la := &LineAudio{
		Index: index,
		Line:  line,
		Voice: voices[speaker],
		Path:  filepath.Join(dir, fmt.Sprintf("line_%03d.mp3", index)),
	}

	var audio []byte
	err := p.call(ctx, func() (err error) {
		audio, err = p.speaker.Speak(ctx, line.Text, la.Voice)
		return err
	})
	if err != nil {
		return nil, fail("speech", err)
	}
	if err := os.WriteFile(la.Path, audio, 0644); err != nil {
		return nil, fail("speech", err)
	}

	err = p.call(ctx, func() (err error) {
		la.Words, err = p.transcriber.Transcribe(ctx, audio, job.Language)
		return err
	})
	if err != nil {
		return nil, fail("transcription", err)
	}

	la.Duration, err = p.editor.Duration(ctx, la.Path)
	if err != nil {
		return nil, fail("speech", err)
	}
	return la, nil
}

// place packs lines left to right with no gap and no overlap.
func place(lines []*LineAudio) float64 {
	var at float64
	for _, l := range lines {
		l.Start = at
		at += l.Duration
	}
	return at
}
