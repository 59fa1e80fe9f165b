package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CollapseWhitespace replaces every run of Unicode whitespace (no-break,
// em and thin spaces included) with a single space and trims both ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// StripAccents decomposes s and drops the combining marks, so "São João"
// becomes "Sao Joao".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

var apostrophes = strings.NewReplacer("'", "", "’", "")

// Slug turns a display name into the path segment used by the detail pages:
// lower case, no apostrophes, spaces as hyphens, no accents.
func Slug(name string) string {
	name = strings.ToLower(name)
	name = apostrophes.Replace(name)
	name = strings.ReplaceAll(name, " ", "-")
	return StripAccents(name)
}
