package script

import (
	"fmt"
	"strings"

	"mirai/pkg/schema"
)

const narratorSystem = `You are the narrator of an interactive audiovisual story. Write vivid, coherent prose with consistent characters and places.
Keep the content family-friendly: no graphic violence, gore or disturbing content.`

func storyPrompt(genre schema.Genre, language string) string {
	return fmt.Sprintf(`Write a %s narrative in %s up to a crucial decision moment. The story should be engaging, with a clear progression of events, culminating in a meaningful choice for the protagonist.

Describe characters, places, lighting, weather, sounds and objects precisely and keep them consistent, so that every moment can be illustrated and voiced.
Write prose only. Do not list choices yet.`, genre, language)
}

func decisionPrompt(decision string) string {
	return fmt.Sprintf(`I decided to %s.

Continue the narrative and describe the unfolding events up to the next crucial decision moment or the story's conclusion. Keep the same language, characters and places. Write prose only.`, strings.TrimSuffix(strings.TrimSpace(decision), "."))
}

func subjectsPrompt(existing schema.Subjects) string {
	var b strings.Builder
	b.WriteString("List the characters and environments that appear in the narrative you just wrote and are not already known.\n")
	if len(existing) == 0 {
		b.WriteString("No subjects are known yet, so ids start at 1.\n")
	} else {
		b.WriteString("Already known subjects (do not list them again):\n")
		for _, s := range existing {
			fmt.Fprintf(&b, "- #%d %s: %s\n", s.ID, s.Kind, s.Name)
		}
		fmt.Fprintf(&b, "New ids start at %d.\n", existing.MaxID()+1)
	}
	b.WriteString("Ids are consecutive integers. Descriptions must be visual, self-contained and never mention other subjects by id.\n")
	b.WriteString("Use age 0 and gender neutral for environments. Return an empty list when nothing new appears.")
	return b.String()
}

func linesPrompt(subjects schema.Subjects) string {
	var b strings.Builder
	b.WriteString("Split the narrative you just wrote into scenes, and each scene into the lines that will be read aloud.\n")
	b.WriteString("Known subjects:\n")
	for _, s := range subjects {
		fmt.Fprintf(&b, "- #%d %s: %s\n", s.ID, s.Kind, s.Name)
	}
	fmt.Fprintf(&b, `Rules:
- A line is "dialogue" when a character speaks; its subject_id is that character's id.
- A line is "narration" otherwise; its subject_id is %d. Never use 0 for narration.
- Environments never speak.
- Keep lines short enough to be spoken in one breath and write them in the story's language.
- Give the story a title and list the choices offered to the protagonist at the decision point (empty if the story ended).`, schema.NoSpeaker)
	return b.String()
}

func visualsPrompt(subjects schema.Subjects, scenes int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write exactly %d visual descriptions, one for each scene in order, to be used as image prompts.\n", scenes)
	b.WriteString("Refer to subjects only as #<id> (for example #1); they will be expanded automatically:\n")
	for _, s := range subjects {
		fmt.Fprintf(&b, "- #%d %s\n", s.ID, s.Name)
	}
	b.WriteString("Describe composition, poses, expressions, lighting and setting. Do not include text, captions or speech bubbles.")
	return b.String()
}
