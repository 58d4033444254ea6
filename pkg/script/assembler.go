// Package script turns a decision (or a fresh genre prompt) into a validated, resolved script.
package script

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"mirai/pkg/apperrors"
	"mirai/pkg/chat"
	"mirai/pkg/generation"
	"mirai/pkg/inference"
	"mirai/pkg/language"
	"mirai/pkg/schema"
)

type State int

const (
	NarrativePending State = iota
	SubjectsPending
	LinesPending
	VisualDescriptionsPending
	Done
)

func (s State) String() string {
	switch s {
	case NarrativePending:
		return "narrative"
	case SubjectsPending:
		return "subjects"
	case LinesPending:
		return "lines"
	case VisualDescriptionsPending:
		return "visuals"
	case Done:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Request describes one branch generation. Chat and Subjects belong to the caller's
// parent node; the assembler works on copies.
type Request struct {
	Chat     *chat.Chat
	Subjects schema.Subjects
	Genre    schema.Genre
	Language string
	Decision string
}

type Result struct {
	Script   schema.Script
	Subjects schema.Subjects
	Chat     *chat.Chat
}

type Assembler struct {
	inf    inference.Inferencer
	policy generation.Policy

	// OnState is called on every state transition.
	OnState func(State)
}

func NewAssembler(inf inference.Inferencer, policy generation.Policy) *Assembler {
	return &Assembler{inf: inf, policy: policy}
}

// Generate runs narrative -> subjects -> lines -> visual descriptions.
func (a *Assembler) Generate(ctx context.Context, req Request) (*Result, error) {
	langName, err := language.Validate(req.Language)
	if err != nil {
		return nil, err
	}

	c := req.Chat.Clone()
	subjects := req.Subjects.Clone()

	a.enter(NarrativePending)
	prompt := storyPrompt(req.Genre, langName)
	if strings.TrimSpace(req.Decision) != "" {
		prompt = decisionPrompt(req.Decision)
	}
	c.AddUser(prompt)
	narrative, err := a.inf.Chat(ctx, c, &inference.Options{System: narratorSystem, Temperature: 0.9})
	if err != nil {
		return nil, &apperrors.GenerationError{Stage: "narrative", Attempts: 1, Err: err}
	}
	narrative = strings.TrimSpace(narrative)
	c.AddAssistant(narrative)

	a.enter(SubjectsPending)
	drafts, err := generation.Generate(ctx, a.inf, c, subjectsPrompt(subjects), generation.Stage[schema.SubjectsResult]{
		Name:     "subjects",
		Format:   schema.SubjectsFormat,
		Validate: ValidateSubjects(subjects),
	}, a.policy)
	if err != nil {
		return nil, err
	}
	for _, d := range drafts.Subjects {
		if err := subjects.Add(d.Subject()); err != nil {
			return nil, &apperrors.GenerationError{Stage: "subjects", Attempts: 1, Err: err}
		}
	}

	a.enter(LinesPending)
	lines, err := generation.Generate(ctx, a.inf, c, linesPrompt(subjects), generation.Stage[schema.LinesResult]{
		Name:     "lines",
		Format:   schema.LinesFormat,
		Validate: ValidateLines(subjects),
	}, a.policy)
	if err != nil {
		return nil, err
	}

	a.enter(VisualDescriptionsPending)
	visuals, err := generation.Generate(ctx, a.inf, c, visualsPrompt(subjects, len(lines.Scenes)), generation.Stage[schema.VisualsResult]{
		Name:     "visuals",
		Format:   schema.VisualsFormat,
		Validate: ValidateVisuals(subjects, len(lines.Scenes)),
	}, a.policy)
	if err != nil {
		return nil, err
	}

	script := schema.Script{
		Title:     strings.TrimSpace(lines.Title),
		Narrative: narrative,
		Decisions: lines.Decisions,
		Scenes:    make([]schema.Scene, len(lines.Scenes)),
	}
	for i, sl := range lines.Scenes {
		script.Scenes[i] = schema.Scene{
			ID:                i + 1,
			VisualDescription: Resolve(visuals.Descriptions[i], subjects),
			Lines:             sl.Lines,
		}
	}

	a.enter(Done)
	log.Info("script assembled", "title", script.Title, "scenes", len(script.Scenes), "subjects", len(subjects), "new_subjects", len(drafts.Subjects))
	return &Result{Script: script, Subjects: subjects, Chat: c}, nil
}

func (a *Assembler) enter(s State) {
	log.Debug("script stage", "state", s)
	if a.OnState != nil {
		a.OnState(s)
	}
}
