// Package media drives ffmpeg to mix scene audio, hold stills and join clips.
package media

import "context"

// Track places one audio file on a scene timeline.
type Track struct {
	Path   string
	Offset float64 // seconds from the start of the scene
	Length float64 // seconds to keep; 0 keeps the whole clip
	Volume float64 // 0 is treated as 1
	Fade   float64 // fade in and out, seconds
}

type Frame struct {
	Width  int
	Height int
	FPS    int
}

var DefaultFrame = Frame{Width: 1280, Height: 720, FPS: 24}

type Editor interface {
	// Duration probes the length of a media file in seconds.
	Duration(ctx context.Context, path string) (float64, error)
	// Mix lays tracks over each other and writes length seconds of audio to out.
	Mix(ctx context.Context, tracks []Track, length float64, out string) error
	// StillClip holds image for the length of audio.
	StillClip(ctx context.Context, image, audio string, frame Frame, out string) error
	// Concat joins clips in order with hard cuts.
	Concat(ctx context.Context, clips []string, out string) error
}
