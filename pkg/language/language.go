// Package language validates the locale a story is told in.
package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"mirai/pkg/apperrors"
)

const Default = "pt-BR"

// Validate accepts ISO 639-1/639-2 codes and BCP 47 tags (e.g. "en", "por", "pt-BR")
// and returns the lower-case English name of the base language.
func Validate(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", &apperrors.LanguageValidationError{Code: code}
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", &apperrors.LanguageValidationError{Code: code}
	}
	base, conf := tag.Base()
	if conf == language.No || base.String() == "und" {
		return "", &apperrors.LanguageValidationError{Code: code}
	}
	name := display.English.Languages().Name(base)
	if name == "" {
		return "", &apperrors.LanguageValidationError{Code: code}
	}
	return strings.ToLower(name), nil
}

// Base returns the two or three letter base language of a valid code.
func Base(code string) string {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return strings.ToLower(strings.SplitN(code, "-", 2)[0])
	}
	base, _ := tag.Base()
	return base.String()
}
