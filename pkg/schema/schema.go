package schema

import (
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
)

func generateSchema[T any]() *jsonschema.Schema {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return r.Reflect(v)
}

// Format names a structured result and carries the JSON schema the model must follow.
type Format struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
}

// FormatFor reflects T into a strict response format.
func FormatFor[T any](name, description string) Format {
	return Format{
		Name:        name,
		Description: description,
		Schema:      generateSchema[T](),
	}
}

var (
	SubjectsFormat     = FormatFor[SubjectsResult]("story_subjects", "Characters and environments introduced in the narrative")
	LinesFormat        = FormatFor[LinesResult]("story_lines", "Scenes split into narrated and spoken lines")
	VisualsFormat      = FormatFor[VisualsResult]("scene_visuals", "One visual description per scene")
	SoundEffectsFormat = FormatFor[SoundEffectsResult]("scene_sound_effects", "Non-speech sounds layered under a scene")
)

// ResponseFormat converts the format into an OpenAI structured output request.
func (f Format) ResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	p := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        f.Name,
		Description: openai.String(f.Description),
		Schema:      f.Schema,
		Strict:      openai.Bool(true),
	}
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: p},
	}
}
