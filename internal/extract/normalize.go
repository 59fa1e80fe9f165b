package extract

import (
	"strings"

	"ibge-panorama/lib/textutil"
)

// Normalize collapses every run of Unicode whitespace into a single space
// and trims the ends.
func Normalize(s string) string {
	return textutil.CollapseWhitespace(s)
}

// the pages sometimes carry a literal, double escaped entity after the value
const strayEntity = " &nbsp;"

// NormalizeValue is Normalize plus the removal of the stray " &nbsp;"
// artifact. Removing it can join two spaces, so both steps repeat until
// the value stops changing.
func NormalizeValue(s string) string {
	s = Normalize(s)
	for {
		next := Normalize(strings.ReplaceAll(s, strayEntity, ""))
		if next == s {
			return s
		}
		s = next
	}
}
