package media

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestMixFilter(t *testing.T) {
	got := mixFilter([]Track{
		{Path: "line1.mp3"},
		{Path: "line2.mp3", Offset: 1.25},
		{Path: "door.mp3", Offset: 0.5, Length: 2, Volume: 0.5, Fade: 0.2},
	})
	want := strings.Join([]string{
		"[0:a]adelay=0:all=1[a0]",
		"[1:a]adelay=1250:all=1[a1]",
		"[2:a]atrim=0:2.000,asetpts=PTS-STARTPTS,afade=t=in:st=0:d=0.200,afade=t=out:st=1.800:d=0.200,volume=0.50,adelay=500:all=1[a2]",
		"[a0][a1][a2]amix=inputs=3:duration=longest:normalize=0[aout]",
	}, ";")
	if got != want {
		t.Fatalf("mixFilter =\n%s\nwant\n%s", got, want)
	}
}

func TestMixFilterCapsFade(t *testing.T) {
	got := mixFilter([]Track{{Path: "x", Length: 1, Fade: 3}})
	if !strings.Contains(got, "afade=t=in:st=0:d=0.500") || !strings.Contains(got, "afade=t=out:st=0.500:d=0.500") {
		t.Fatalf("fade not capped at half the length: %s", got)
	}
}

func TestStillArgs(t *testing.T) {
	args := stillArgs("scene.png", "scene.wav", Frame{}, "scene.mp4")
	if args[len(args)-1] != "scene.mp4" {
		t.Fatalf("output not last: %v", args)
	}
	i := slices.Index(args, "-vf")
	if i < 0 || !strings.HasPrefix(args[i+1], "scale=1280:720:") {
		t.Fatalf("default frame not applied: %v", args)
	}
	if !slices.Contains(args, "-shortest") {
		t.Fatal("clip must end with the audio")
	}
}

func TestConcatList(t *testing.T) {
	list, err := concatList([]string{"/tmp/a.mp4", "/tmp/it's.mp4"})
	if err != nil {
		t.Fatal(err)
	}
	want := "file '/tmp/a.mp4'\nfile '/tmp/it'\\''s.mp4'\n"
	if list != want {
		t.Fatalf("concatList = %q, want %q", list, want)
	}
}

func requireFFmpeg(t *testing.T) *FFmpeg {
	t.Helper()
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not installed", bin)
		}
	}
	return NewFFmpeg("", "")
}

func tone(t *testing.T, dir, name string, secs string) string {
	t.Helper()
	out := filepath.Join(dir, name)
	cmd := exec.Command("ffmpeg", "-y", "-f", "lavfi", "-i", "sine=frequency=440:duration="+secs, out)
	if b, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("tone: %v: %s", err, b)
	}
	return out
}

func TestFFmpegMixLength(t *testing.T) {
	f := requireFFmpeg(t)
	dir := t.TempDir()
	a := tone(t, dir, "a.wav", "1")
	b := tone(t, dir, "b.wav", "0.5")
	sfx := tone(t, dir, "sfx.wav", "5")

	out := filepath.Join(dir, "mix.wav")
	err := f.Mix(context.Background(), []Track{
		{Path: a},
		{Path: b, Offset: 1},
		{Path: sfx, Offset: 0.2, Length: 3, Volume: 0.5, Fade: 0.3},
	}, 1.5, out)
	if err != nil {
		t.Fatalf("Mix: %v", err)
	}
	d, err := f.Duration(context.Background(), out)
	if err != nil {
		t.Fatal(err)
	}
	if d < 1.45 || d > 1.55 {
		t.Fatalf("mixed duration = %.3f, want 1.5", d)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatal(err)
	}
}
