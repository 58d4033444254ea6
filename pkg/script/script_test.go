package script

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mirai/pkg/apperrors"
	"mirai/pkg/chat"
	"mirai/pkg/generation"
	"mirai/pkg/inference/inferencetest"
	"mirai/pkg/schema"
)

var testSubjects = schema.Subjects{
	{ID: 1, Kind: schema.KindCharacter, Name: "Lina", Description: "a young elf with silver hair", Age: 19, Gender: schema.GenderFemale},
	{ID: 2, Kind: schema.KindEnvironment, Name: "Whispering Forest", Description: "a misty forest of giant oaks"},
}

func TestResolve(t *testing.T) {
	got := Resolve("#1 walks into #2. #1 stops. #9 watches.", testSubjects)
	want := "Lina (a young elf with silver hair) walks into Whispering Forest (a misty forest of giant oaks). Lina stops. #9 watches."
	if got != want {
		t.Fatalf("Resolve =\n%q\nwant\n%q", got, want)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	once := Resolve("#1 meets #2 near #1's house", testSubjects)
	if twice := Resolve(once, testSubjects); twice != once {
		t.Fatalf("second resolution changed the text:\n%q\n%q", once, twice)
	}
	if HasReferences(once) {
		t.Fatalf("references left in %q", once)
	}
}

func TestReferences(t *testing.T) {
	got := References("#3 and #12, then #3 again")
	if len(got) != 3 || got[0] != 3 || got[1] != 12 || got[2] != 3 {
		t.Fatalf("References = %v", got)
	}
}

func TestValidateSubjects(t *testing.T) {
	validate := ValidateSubjects(testSubjects)

	tests := []struct {
		name   string
		drafts []schema.SubjectDraft
		want   string
	}{
		{"ok", []schema.SubjectDraft{
			{ID: 3, Kind: schema.KindCharacter, Name: "Bram", Description: "an old dwarf", Age: 70, Gender: schema.GenderMale},
			{ID: 4, Kind: schema.KindEnvironment, Name: "Cave", Description: "a damp cave", Gender: schema.GenderNeutral},
		}, ""},
		{"empty is fine", nil, ""},
		{"redefinition", []schema.SubjectDraft{{ID: 1, Kind: schema.KindCharacter, Name: "Lina", Description: "x", Gender: schema.GenderFemale}}, "already defined"},
		{"gap", []schema.SubjectDraft{{ID: 5, Kind: schema.KindCharacter, Name: "Bram", Description: "x", Gender: schema.GenderMale}}, "should be #3"},
		{"reference in description", []schema.SubjectDraft{{ID: 3, Kind: schema.KindCharacter, Name: "Bram", Description: "brother of #1", Gender: schema.GenderMale}}, "#<id> references"},
		{"bad kind", []schema.SubjectDraft{{ID: 3, Kind: "monster", Name: "Bram", Description: "x"}}, "invalid kind"},
		{"duplicate", []schema.SubjectDraft{
			{ID: 3, Kind: schema.KindEnvironment, Name: "Cave", Description: "x", Gender: schema.GenderNeutral},
			{ID: 3, Kind: schema.KindEnvironment, Name: "Cave", Description: "x", Gender: schema.GenderNeutral},
		}, "more than once"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(schema.SubjectsResult{Subjects: tt.drafts})
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected violations: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("got %v, want violation containing %q", err, tt.want)
			}
		})
	}
}

func TestValidateLines(t *testing.T) {
	validate := ValidateLines(testSubjects)
	result := func(lines ...schema.Line) schema.LinesResult {
		return schema.LinesResult{Title: "t", Scenes: []schema.SceneLines{{Lines: lines}}}
	}

	tests := []struct {
		name string
		in   schema.LinesResult
		want string
	}{
		{"ok", result(
			schema.Line{Kind: schema.LineNarration, SubjectID: schema.NoSpeaker, Text: "Night falls."},
			schema.Line{Kind: schema.LineDialogue, SubjectID: 1, Text: "Who's there?"},
		), ""},
		{"narration with zero", result(schema.Line{Kind: schema.LineNarration, SubjectID: 0, Text: "x"}), "never 0"},
		{"unknown speaker", result(schema.Line{Kind: schema.LineDialogue, SubjectID: 7, Text: "x"}), "1 (Lina)"},
		{"environment speaks", result(schema.Line{Kind: schema.LineDialogue, SubjectID: 2, Text: "x"}), "cannot speak"},
		{"empty scene", schema.LinesResult{Title: "t", Scenes: []schema.SceneLines{{}}}, "has no lines"},
		{"no scenes", schema.LinesResult{Title: "t"}, "at least one scene"},
		{"empty title", schema.LinesResult{Scenes: []schema.SceneLines{{Lines: []schema.Line{{Kind: schema.LineNarration, SubjectID: -1, Text: "x"}}}}}, "title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(tt.in)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected violations: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("got %v, want violation containing %q", err, tt.want)
			}
		})
	}
}

func TestValidateVisuals(t *testing.T) {
	validate := ValidateVisuals(testSubjects, 2)
	if err := validate(schema.VisualsResult{Descriptions: []string{"#1 in #2", "#2 at dawn"}}); err != nil {
		t.Fatalf("unexpected violations: %v", err)
	}
	if err := validate(schema.VisualsResult{Descriptions: []string{"#1"}}); err == nil || !strings.Contains(err.Error(), "exactly 2") {
		t.Fatalf("count mismatch not rejected: %v", err)
	}
	if err := validate(schema.VisualsResult{Descriptions: []string{"#1", "#5 arrives"}}); err == nil || !strings.Contains(err.Error(), "#5") {
		t.Fatalf("unknown reference not rejected: %v", err)
	}
}

const rootSubjects = `{"subjects":[
	{"id":1,"kind":"character","name":"Lina","description":"a young elf with silver hair","age":19,"gender":"female"},
	{"id":2,"kind":"environment","name":"Whispering Forest","description":"a misty forest of giant oaks","age":0,"gender":"neutral"}
]}`

const rootLines = `{"title":"The Silver Path","scenes":[
	{"lines":[{"kind":"narration","subject_id":-1,"text":"The forest was silent."},{"kind":"dialogue","subject_id":1,"text":"Hello?"}]},
	{"lines":[{"kind":"narration","subject_id":-1,"text":"Two paths appeared."}]}
],"decisions":["take the left path","take the right path"]}`

const rootVisuals = `{"descriptions":["#1 standing in #2","#2 splitting into two paths"]}`

func rootInferencer() inferencetest.ByFormat {
	return inferencetest.ByFormat{
		"":                         inferencetest.New(inferencetest.Static("Lina entered the forest...")),
		schema.SubjectsFormat.Name: inferencetest.New(inferencetest.Static(rootSubjects)),
		schema.LinesFormat.Name:    inferencetest.New(inferencetest.Static(rootLines)),
		schema.VisualsFormat.Name:  inferencetest.New(inferencetest.Static(rootVisuals)),
	}
}

func TestAssembleRootStory(t *testing.T) {
	var states []State
	a := NewAssembler(rootInferencer(), generation.Policy{MaxAttempts: 2})
	a.OnState = func(s State) { states = append(states, s) }

	res, err := a.Generate(context.Background(), Request{Genre: schema.GenreFantasy, Language: "en"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(states) != 5 || states[0] != NarrativePending || states[4] != Done {
		t.Fatalf("states = %v", states)
	}
	for i, s := range res.Subjects {
		if s.ID != i+1 {
			t.Fatalf("subject ids not contiguous from 1: %+v", res.Subjects)
		}
	}
	if len(res.Script.Scenes) != 2 {
		t.Fatalf("scenes = %d", len(res.Script.Scenes))
	}
	for i, scene := range res.Script.Scenes {
		if scene.ID != i+1 {
			t.Fatalf("scene %d has id %d", i, scene.ID)
		}
		if HasReferences(scene.VisualDescription) {
			t.Fatalf("unresolved reference in %q", scene.VisualDescription)
		}
	}
	if !strings.Contains(res.Script.Scenes[0].VisualDescription, "Lina (a young elf with silver hair)") {
		t.Fatalf("description not resolved: %q", res.Script.Scenes[0].VisualDescription)
	}
	if res.Script.Title != "The Silver Path" || len(res.Script.Decisions) != 2 {
		t.Fatalf("unexpected script %+v", res.Script)
	}
}

func TestAssembleBranchKeepsParentSubjects(t *testing.T) {
	parentChat := chat.New()
	parentChat.AddUser("start")
	parentChat.AddAssistant("Lina entered the forest...")
	parent := testSubjects.Clone()
	if err := parent.AssignVoice(1, "voice-lina"); err != nil {
		t.Fatal(err)
	}

	inf := inferencetest.ByFormat{
		"": inferencetest.New(inferencetest.Static("Bram appeared from the cave.")),
		schema.SubjectsFormat.Name: inferencetest.New(
			// first answer redefines #1, the retry is correct
			inferencetest.Static(`{"subjects":[{"id":1,"kind":"character","name":"Lina","description":"x","age":19,"gender":"female"}]}`),
			inferencetest.Static(`{"subjects":[{"id":3,"kind":"character","name":"Bram","description":"an old dwarf","age":70,"gender":"male"}]}`),
		),
		schema.LinesFormat.Name: inferencetest.New(inferencetest.Static(`{"title":"The Silver Path","scenes":[
			{"lines":[{"kind":"dialogue","subject_id":3,"text":"Who goes there?"},{"kind":"dialogue","subject_id":1,"text":"A friend."}]}
		],"decisions":[]}`)),
		schema.VisualsFormat.Name: inferencetest.New(inferencetest.Static(`{"descriptions":["#3 facing #1 in #2"]}`)),
	}

	a := NewAssembler(inf, generation.Policy{MaxAttempts: 3})
	res, err := a.Generate(context.Background(), Request{
		Chat:     parentChat,
		Subjects: parent,
		Genre:    schema.GenreFantasy,
		Language: "en",
		Decision: "take the left path",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(res.Subjects) != 3 || res.Subjects.MaxID() != 3 {
		t.Fatalf("subjects = %+v", res.Subjects)
	}
	if lina, _ := res.Subjects.Get(1); lina.VoiceID != "voice-lina" || lina.Description != "a young elf with silver hair" {
		t.Fatalf("inherited subject changed: %+v", lina)
	}
	if len(parent) != 2 {
		t.Fatalf("parent registry mutated: %+v", parent)
	}
	if parentChat.Len() != 2 {
		t.Fatalf("parent chat mutated: %d turns", parentChat.Len())
	}
	if res.Chat.Messages[2].Content != decisionPrompt("take the left path") {
		t.Fatalf("decision prompt not used: %q", res.Chat.Messages[2].Content)
	}
	if got := res.Script.Scenes[0].VisualDescription; !strings.HasPrefix(got, "Bram (an old dwarf) facing Lina (") {
		t.Fatalf("description = %q", got)
	}
}

func TestAssembleRejectsInvalidLanguage(t *testing.T) {
	a := NewAssembler(rootInferencer(), generation.Policy{MaxAttempts: 1})
	_, err := a.Generate(context.Background(), Request{Genre: schema.GenreFantasy, Language: "!!"})
	var langErr *apperrors.LanguageValidationError
	if !errors.As(err, &langErr) {
		t.Fatalf("want LanguageValidationError, got %v", err)
	}
}

func TestAssembleSurfacesExhaustedStage(t *testing.T) {
	inf := rootInferencer()
	inf[schema.LinesFormat.Name] = inferencetest.New(inferencetest.Static(`{"title":"t","scenes":[{"lines":[{"kind":"narration","subject_id":0,"text":"x"}]}],"decisions":[]}`))

	a := NewAssembler(inf, generation.Policy{MaxAttempts: 2})
	_, err := a.Generate(context.Background(), Request{Genre: schema.GenreFantasy, Language: "en"})
	var genErr *apperrors.GenerationError
	if !errors.As(err, &genErr) || genErr.Stage != "lines" || genErr.Attempts != 2 {
		t.Fatalf("want lines GenerationError after 2 attempts, got %v", err)
	}
}

func TestAssembleNarrativeFailureIsTyped(t *testing.T) {
	boom := errors.New("model overloaded")
	inf := rootInferencer()
	inf[""] = inferencetest.New(inferencetest.Fail(boom))

	a := NewAssembler(inf, generation.Policy{MaxAttempts: 3})
	_, err := a.Generate(context.Background(), Request{Genre: schema.GenreFantasy, Language: "en"})
	var genErr *apperrors.GenerationError
	if !errors.As(err, &genErr) || genErr.Stage != "narrative" {
		t.Fatalf("want narrative GenerationError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("model error not wrapped: %v", err)
	}
}
