package extract

import (
	"ibge-panorama/lib/htmlutil"

	"golang.org/x/net/html"
)

// Scan walks the subtree of root once, depth first, holding a pending label
// and a pending value. A label element overwrites the pending label, a value
// element the pending value, and as soon as both are non-blank they are
// emitted as a pair and cleared. A label with no value after it is dropped.
func Scan(root *html.Node, key, value Matcher) []Pair {
	var pairs []Pair
	var pendingKey, pendingValue string

	htmlutil.Descendants(root, func(n *html.Node) {
		if key.Match(n) {
			pendingKey = Normalize(htmlutil.GetText(n))
		}
		if value.Match(n) {
			pendingValue = NormalizeValue(htmlutil.GetText(n))
		}
		if pendingKey != "" && pendingValue != "" {
			pairs = append(pairs, Pair{Key: pendingKey, Value: pendingValue})
			pendingKey, pendingValue = "", ""
		}
	})

	return pairs
}
