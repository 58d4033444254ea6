package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gen2brain/webp"

	"mirai/pkg/schema"
)

func TestPrompt(t *testing.T) {
	got := Prompt("  Lina (an elf) in the forest  ", schema.StyleWatercolor)
	if !strings.HasPrefix(got, "Lina (an elf) in the forest\n") {
		t.Fatalf("description not kept first: %q", got)
	}
	if !strings.Contains(got, "watercolor") || !strings.Contains(got, "No text") {
		t.Fatalf("style or constraints missing: %q", got)
	}
}

func TestAspectRatio(t *testing.T) {
	tests := []struct {
		w, h int
		want string
	}{
		{0, 0, "16:9"},
		{1280, 720, "16:9"},
		{720, 1280, "9:16"},
		{1024, 768, "4:3"},
		{512, 512, "1:1"},
	}
	for _, tt := range tests {
		if got := aspectRatio(Options{Width: tt.w, Height: tt.h}); got != tt.want {
			t.Errorf("aspectRatio(%d, %d) = %s, want %s", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestThumbnail(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 9))
	for x := 0; x < 16; x++ {
		img.Set(x, 4, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "thumbs", "node.webp")
	if err := Thumbnail(buf.Bytes(), path); err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := webp.DecodeConfig(f)
	if err != nil {
		t.Fatalf("not a webp: %v", err)
	}
	if cfg.Width != 16 || cfg.Height != 9 {
		t.Fatalf("size = %dx%d", cfg.Width, cfg.Height)
	}

	if err := Thumbnail([]byte("garbage"), path); err == nil {
		t.Fatal("expected decode error")
	}
}
