package schema

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und)

// PropertyLabel converts a display name into a property label. The
// transform is a pure function of its inputs: the same display name
// always yields the same label.
//
// The relaxed variant strips separator characters and lowercases only
// the first rune, leaving the original casing of the remainder intact.
// The strict variant rebuilds the name as canonical lower camel case:
// the first word fully lowercased, every later word title-cased.
func PropertyLabel(displayName string, strictCamelCase bool) string {
	words := splitWords(displayName)
	if len(words) == 0 {
		return ""
	}

	if !strictCamelCase {
		return lowerFirst(strings.Join(words, ""))
	}

	var b strings.Builder
	b.WriteString(strings.ToLower(words[0]))
	for _, w := range words[1:] {
		b.WriteString(titleCaser.String(w))
	}
	return b.String()
}

// ClassLabel converts a display name into a class label: upper camel
// case with separators removed.
func ClassLabel(displayName string) string {
	words := splitWords(displayName)
	var b strings.Builder
	for _, w := range words {
		b.WriteString(upperFirst(w))
	}
	return b.String()
}

// splitWords breaks a display name on anything that is not a letter or
// digit.
func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func lowerFirst(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func upperFirst(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
