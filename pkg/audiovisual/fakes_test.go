package audiovisual

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"mirai/pkg/imaging"
	"mirai/pkg/media"
	"mirai/pkg/schema"
	"mirai/pkg/transcribe"
)

// fakeSpeaker returns the line text as audio. Texts listed in fail fail, and texts in slow
// finish after a delay so completion order differs from script order.
type fakeSpeaker struct {
	mu      sync.Mutex
	fail    map[string]bool
	slow    map[string]time.Duration
	voices  []string
	lookups []int

	running atomic.Int32
	peak    atomic.Int32
}

func (f *fakeSpeaker) Speak(ctx context.Context, text, voice string) ([]byte, error) {
	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if d := f.slow[text]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fail[text] {
		return nil, errors.New("speech provider down")
	}
	return []byte(text), nil
}

func (f *fakeSpeaker) Voice(_ context.Context, _ string, used []string, subject *schema.Subject) (string, error) {
	if subject == nil {
		return "narrator", nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, subject.ID)
	for _, v := range f.voices {
		taken := false
		for _, u := range used {
			taken = taken || u == v
		}
		if !taken {
			return v, nil
		}
	}
	return "", errors.New("no voice left")
}

type fakeEffects struct {
	fail map[string]bool

	mu       sync.Mutex
	requests map[string]float64
}

func (f *fakeEffects) SoundEffect(_ context.Context, description string, seconds float64) ([]byte, error) {
	f.mu.Lock()
	if f.requests == nil {
		f.requests = map[string]float64{}
	}
	f.requests[description] = seconds
	f.mu.Unlock()
	if f.fail[description] {
		return nil, errors.New("effect provider down")
	}
	return []byte("sfx:" + description), nil
}

func pngBytes() []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8)))
	return buf.Bytes()
}

type fakeImages struct {
	fail bool
}

func (f *fakeImages) Generate(context.Context, string, imaging.Options) ([]byte, error) {
	if f.fail {
		return nil, errors.New("image provider down")
	}
	return pngBytes(), nil
}

type fakeTranscriber struct{}

// Transcribe reports one word per space-separated token, 0.1s each.
func (fakeTranscriber) Transcribe(_ context.Context, audio []byte, _ string) ([]transcribe.Word, error) {
	var words []transcribe.Word
	for i, w := range strings.Fields(string(audio)) {
		words = append(words, transcribe.Word{Text: w, Start: float64(i) * 0.1, End: float64(i+1) * 0.1})
	}
	return words, nil
}

type mixCall struct {
	tracks []media.Track
	length float64
	out    string
}

// fakeEditor measures a file by looking its contents up in durations (default 1s) and writes
// placeholder outputs.
type fakeEditor struct {
	durations map[string]float64

	mu     sync.Mutex
	mixes  []mixCall
	stills []string
	concat []string
}

func (f *fakeEditor) Duration(_ context.Context, path string) (float64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	if d, ok := f.durations[string(b)]; ok {
		return d, nil
	}
	return 1, nil
}

func (f *fakeEditor) Mix(_ context.Context, tracks []media.Track, length float64, out string) error {
	f.mu.Lock()
	f.mixes = append(f.mixes, mixCall{tracks: tracks, length: length, out: out})
	f.mu.Unlock()
	return os.WriteFile(out, []byte("mix"), 0644)
}

func (f *fakeEditor) StillClip(_ context.Context, image, audio string, _ media.Frame, out string) error {
	f.mu.Lock()
	f.stills = append(f.stills, out)
	f.mu.Unlock()
	return os.WriteFile(out, []byte(fmt.Sprintf("clip(%s,%s)", image, audio)), 0644)
}

func (f *fakeEditor) Concat(_ context.Context, clips []string, out string) error {
	f.mu.Lock()
	f.concat = append([]string(nil), clips...)
	f.mu.Unlock()
	return os.WriteFile(out, []byte("video"), 0644)
}

func (f *fakeEditor) mixFor(scene int) (mixCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := fmt.Sprintf("scene_%03d", scene)
	for _, m := range f.mixes {
		if strings.Contains(m.out, want) {
			return m, true
		}
	}
	return mixCall{}, false
}
