package utils

import (
	"path/filepath"
	"testing"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"think", "<think>hmm {no}</think>\n{\"a\":1}", `{"a":1}`},
		{"prose", "Here you go: {\"a\":{\"b\":2}} hope it helps", `{"a":{"b":2}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanJSON(tt.in); got != tt.want {
				t.Fatalf("CleanJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc.json")
	in := map[string]int{"a": 1, "b": 2}
	if err := Save(path, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !Exists(path) {
		t.Fatal("file not written")
	}
	out, err := Load[map[string]int](path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out["a"] != 1 || out["b"] != 2 {
		t.Fatalf("unexpected %v", out)
	}
}

func TestLimitStr(t *testing.T) {
	if got := LimitStr("héllo world", 5); got != "héllo..." {
		t.Fatalf("got %q", got)
	}
	if got := LimitStr("hi", 5); got != "hi" {
		t.Fatalf("got %q", got)
	}
}
