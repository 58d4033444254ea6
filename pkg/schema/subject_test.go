package schema

import (
	"encoding/json"
	"testing"
)

func TestSubjectsAddKeepsOrder(t *testing.T) {
	var s Subjects
	for _, id := range []int{3, 1, 2} {
		if err := s.Add(Subject{ID: id, Kind: KindCharacter, Name: "x"}); err != nil {
			t.Fatalf("add %d: %v", id, err)
		}
	}
	for i, sub := range s {
		if sub.ID != i+1 {
			t.Fatalf("subjects not sorted: %+v", s)
		}
	}
	if s.MaxID() != 3 {
		t.Fatalf("MaxID = %d, want 3", s.MaxID())
	}
	if err := s.Add(Subject{ID: 2}); err == nil {
		t.Fatal("expected redefinition of #2 to fail")
	}
	if err := s.Add(Subject{ID: 0}); err == nil {
		t.Fatal("expected id 0 to be rejected")
	}
}

func TestAssignVoiceOnce(t *testing.T) {
	s := Subjects{
		{ID: 1, Kind: KindCharacter, Name: "Ana"},
		{ID: 2, Kind: KindEnvironment, Name: "Forest"},
	}
	if err := s.AssignVoice(1, "v1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := s.AssignVoice(1, "v2"); err == nil {
		t.Fatal("second assignment must fail")
	}
	if err := s.AssignVoice(2, "v3"); err == nil {
		t.Fatal("environments have no voice")
	}
	if got, _ := s.Get(1); got.VoiceID != "v1" {
		t.Fatalf("voice = %q, want v1", got.VoiceID)
	}
	if used := s.UsedVoices(); len(used) != 1 || used[0] != "v1" {
		t.Fatalf("UsedVoices = %v", used)
	}
}

func TestCloneDoesNotShareVoices(t *testing.T) {
	parent := Subjects{{ID: 1, Kind: KindCharacter, Name: "Ana"}}
	left := parent.Clone()
	right := parent.Clone()

	if err := left.AssignVoice(1, "left"); err != nil {
		t.Fatal(err)
	}
	if got, _ := right.Get(1); got.VoiceID != "" {
		t.Fatalf("sibling observed voice %q", got.VoiceID)
	}
	if got, _ := parent.Get(1); got.VoiceID != "" {
		t.Fatalf("parent observed voice %q", got.VoiceID)
	}
}

func TestFormatsAreStrict(t *testing.T) {
	for _, f := range []Format{SubjectsFormat, LinesFormat, VisualsFormat, SoundEffectsFormat} {
		b, err := json.Marshal(f.Schema)
		if err != nil {
			t.Fatalf("%s: %v", f.Name, err)
		}
		var doc map[string]any
		if err := json.Unmarshal(b, &doc); err != nil {
			t.Fatalf("%s: %v", f.Name, err)
		}
		if doc["additionalProperties"] != false {
			t.Errorf("%s allows additional properties", f.Name)
		}
	}
}
