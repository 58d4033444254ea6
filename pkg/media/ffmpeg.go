package media

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

type FFmpeg struct {
	Bin   string
	Probe string
}

func NewFFmpeg(bin, probe string) *FFmpeg {
	return &FFmpeg{
		Bin:   cmp.Or(bin, "ffmpeg"),
		Probe: cmp.Or(probe, "ffprobe"),
	}
}

func (f *FFmpeg) Duration(ctx context.Context, path string) (float64, error) {
	out, err := exec.CommandContext(ctx, f.Probe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", filepath.Base(path), err)
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: unexpected duration %q", filepath.Base(path), strings.TrimSpace(string(out)))
	}
	return d, nil
}

func (f *FFmpeg) Mix(ctx context.Context, tracks []Track, length float64, out string) error {
	if len(tracks) == 0 {
		return errors.New("mix: no tracks")
	}
	if length <= 0 {
		return fmt.Errorf("mix: invalid length %.3f", length)
	}
	args := []string{"-y"}
	for _, t := range tracks {
		args = append(args, "-i", t.Path)
	}
	args = append(args,
		"-filter_complex", mixFilter(tracks),
		"-map", "[aout]",
		"-t", seconds(length),
		"-ar", "44100",
		"-c:a", "pcm_s16le",
		out,
	)
	return f.run(ctx, "mix", args)
}

func (f *FFmpeg) StillClip(ctx context.Context, image, audio string, frame Frame, out string) error {
	return f.run(ctx, "still clip", stillArgs(image, audio, frame, out))
}

func (f *FFmpeg) Concat(ctx context.Context, clips []string, out string) error {
	if len(clips) == 0 {
		return errors.New("concat: no clips")
	}
	listFile := out + ".txt"
	list, err := concatList(clips)
	if err != nil {
		return err
	}
	if err := os.WriteFile(listFile, []byte(list), 0644); err != nil {
		return err
	}
	defer os.Remove(listFile)

	return f.run(ctx, "concat", []string{"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		"-movflags", "+faststart",
		out,
	})
}

func (f *FFmpeg) run(ctx context.Context, what string, args []string) error {
	cmd := exec.CommandContext(ctx, f.Bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	log.Debug("ffmpeg", "step", what, "out", args[len(args)-1])
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg %s: %w: %s", what, err, tail(stderr.String(), 400))
	}
	return nil
}

// mixFilter trims, fades, attenuates and delays every input and sums them without normalization.
func mixFilter(tracks []Track) string {
	var parts, labels []string
	for i, t := range tracks {
		var chain []string
		if t.Length > 0 {
			chain = append(chain, "atrim=0:"+seconds(t.Length), "asetpts=PTS-STARTPTS")
		}
		if t.Fade > 0 && t.Length > 0 {
			fade := min(t.Fade, t.Length/2)
			chain = append(chain,
				"afade=t=in:st=0:d="+seconds(fade),
				"afade=t=out:st="+seconds(t.Length-fade)+":d="+seconds(fade),
			)
		}
		if v := cmp.Or(t.Volume, 1); v != 1 {
			chain = append(chain, fmt.Sprintf("volume=%.2f", v))
		}
		ms := int64(t.Offset*1000 + 0.5)
		chain = append(chain, fmt.Sprintf("adelay=%d:all=1", max(ms, 0)))

		label := fmt.Sprintf("[a%d]", i)
		parts = append(parts, fmt.Sprintf("[%d:a]%s%s", i, strings.Join(chain, ","), label))
		labels = append(labels, label)
	}
	mix := fmt.Sprintf("%samix=inputs=%d:duration=longest:normalize=0[aout]", strings.Join(labels, ""), len(tracks))
	return strings.Join(append(parts, mix), ";")
}

func stillArgs(image, audio string, frame Frame, out string) []string {
	w, h, fps := cmp.Or(frame.Width, DefaultFrame.Width), cmp.Or(frame.Height, DefaultFrame.Height), cmp.Or(frame.FPS, DefaultFrame.FPS)
	vf := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,format=yuv420p", w, h, w, h)
	return []string{"-y",
		"-loop", "1",
		"-i", image,
		"-i", audio,
		"-vf", vf,
		"-r", strconv.Itoa(fps),
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-preset", "fast",
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "192k",
		"-ar", "44100",
		"-shortest",
		out,
	}
}

func concatList(clips []string) (string, error) {
	var b strings.Builder
	for _, c := range clips {
		abs, err := filepath.Abs(c)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	return b.String(), nil
}

func seconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return "..." + s[len(s)-n:]
	}
	return s
}
