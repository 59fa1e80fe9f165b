package extract

// NameKey is the key of the record that opens every unit's record set.
const NameKey = "unit display name"

// Record is one key/value line of the output. LineIndex starts at 1 for
// every unit, UnitIndex is the unit's 0-based position in the catalog.
type Record struct {
	LineIndex int
	UnitIndex int
	Key       string
	Value     string
}

// Pair is a label and its value as found by Scan, already normalized.
type Pair struct {
	Key   string
	Value string
}

// Result is what Extract found in one document.
type Result struct {
	Records []Record
	// SummaryMissing is set when the document has no summary region, the
	// records then hold the name record only.
	SummaryMissing bool
}
