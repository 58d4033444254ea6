package script

import (
	"regexp"
	"strconv"

	"mirai/pkg/schema"
)

var referenceRX = regexp.MustCompile(`#(\d+)`)

// References returns the subject ids referenced as #<id> in text, in order of appearance.
func References(text string) []int {
	var out []int
	for _, m := range referenceRX.FindAllStringSubmatch(text, -1) {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}

// HasReferences reports whether any #<id> token remains in text.
func HasReferences(text string) bool {
	return referenceRX.MatchString(text)
}

// Resolve replaces every #<id> with "<name> (<description>)" on its first occurrence in text
// and with "<name>" afterwards. Unknown ids are left untouched.
func Resolve(text string, subjects schema.Subjects) string {
	seen := make(map[int]bool)
	return referenceRX.ReplaceAllStringFunc(text, func(tok string) string {
		id, err := strconv.Atoi(tok[1:])
		if err != nil {
			return tok
		}
		sub, ok := subjects.Get(id)
		if !ok {
			return tok
		}
		if seen[id] {
			return sub.Name
		}
		seen[id] = true
		return sub.Name + " (" + sub.Description + ")"
	})
}
