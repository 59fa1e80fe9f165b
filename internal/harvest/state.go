package harvest

import (
	"fmt"
	"time"

	"ibge-panorama/internal/catalog"
	"ibge-panorama/internal/extract"
)

// State is where a unit is in its way through a run.
//
//	Fetching -> Extracting -> Accumulating -> Persisting -> Done
//	Fetching -> Skipped
//
// A document that cannot be parsed at all also ends in Skipped.
type State int

const (
	Fetching State = iota
	Extracting
	Accumulating
	Persisting
	Done
	Skipped
)

func (s State) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Extracting:
		return "extracting"
	case Accumulating:
		return "accumulating"
	case Persisting:
		return "persisting"
	case Done:
		return "done"
	case Skipped:
		return "skipped"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Outcome is the result of processing one unit, Kind is either Done or
// Skipped. A skipped unit has a Reason and no records.
type Outcome struct {
	Kind    State
	Records []extract.Record
	Reason  error
}

// Skip describes a unit that contributed nothing to the output.
type Skip struct {
	Index  int
	Unit   catalog.Unit
	URL    string
	Reason error
}

type Summary struct {
	Units   int
	Done    int
	Skipped int
	Records int
	Elapsed time.Duration

	SkippedUnits []Skip
}
