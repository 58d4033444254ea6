package schema

type LineKind string

const (
	LineDialogue  LineKind = "dialogue"
	LineNarration LineKind = "narration"
)

// NoSpeaker is the subject reference carried by narration lines.
const NoSpeaker = -1

// Line is a single spoken or narrated utterance.
type Line struct {
	Kind      LineKind `json:"kind" jsonschema:"enum=dialogue,enum=narration" jsonschema_description:"dialogue when a character speaks, narration otherwise"`
	SubjectID int      `json:"subject_id" jsonschema_description:"id of the speaking character for dialogue; -1 for narration"`
	Text      string   `json:"text" jsonschema_description:"Exact words to be spoken aloud"`
}

// Scene is one unit of narrative time with a fully resolved visual description.
type Scene struct {
	ID                int    `json:"id"`
	VisualDescription string `json:"visual_description"`
	Lines             []Line `json:"lines"`
}

type Script struct {
	Title     string   `json:"title"`
	Narrative string   `json:"narrative,omitempty"`
	Scenes    []Scene  `json:"scenes"`
	Decisions []string `json:"decisions"`
}
