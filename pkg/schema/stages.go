package schema

// SubjectDraft is a subject as proposed by the model.
type SubjectDraft struct {
	ID          int         `json:"id" jsonschema_description:"New unique integer id, continuing from the highest id already in use"`
	Kind        SubjectKind `json:"kind" jsonschema:"enum=character,enum=environment" jsonschema_description:"character for people and creatures, environment for places"`
	Name        string      `json:"name" jsonschema_description:"Short name used to refer to the subject"`
	Description string      `json:"description" jsonschema_description:"Consistent visual description used for every image"`
	Age         int         `json:"age" jsonschema_description:"Age in years for characters, 0 for environments"`
	Gender      Gender      `json:"gender" jsonschema:"enum=male,enum=female,enum=neutral" jsonschema_description:"Gender of a character; neutral for environments"`
}

func (d SubjectDraft) Subject() Subject {
	s := Subject{
		ID:          d.ID,
		Kind:        d.Kind,
		Name:        d.Name,
		Description: d.Description,
	}
	if d.Kind == KindCharacter {
		s.Age = d.Age
		s.Gender = d.Gender
	}
	return s
}

type SubjectsResult struct {
	Subjects []SubjectDraft `json:"subjects" jsonschema_description:"Only the subjects introduced in this part of the story"`
}

type SceneLines struct {
	Lines []Line `json:"lines" jsonschema_description:"Ordered lines of the scene"`
}

type LinesResult struct {
	Title     string       `json:"title" jsonschema_description:"Title of the story so far"`
	Scenes    []SceneLines `json:"scenes" jsonschema_description:"Scenes in chronological order"`
	Decisions []string     `json:"decisions" jsonschema_description:"Choices offered to the protagonist; empty when the story ends"`
}

type VisualsResult struct {
	Descriptions []string `json:"descriptions" jsonschema_description:"One visual description per scene, referencing subjects as #<id>"`
}

type SoundKind string

const (
	SoundAmbient SoundKind = "ambient"
	SoundEffect  SoundKind = "effect"
)

type SoundEffectPlan struct {
	Description string    `json:"description" jsonschema_description:"Short description of a non-speech, non-music sound"`
	Kind        SoundKind `json:"kind" jsonschema:"enum=ambient,enum=effect"`
	Start       float64   `json:"start" jsonschema_description:"Start in seconds from the beginning of the scene"`
	End         float64   `json:"end" jsonschema_description:"End in seconds from the beginning of the scene"`
}

type SoundEffectsResult struct {
	Effects []SoundEffectPlan `json:"effects"`
}
