package extract

import (
	"fmt"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Matcher decides whether an element plays a role in a region, a label or
// a value for instance.
type Matcher interface {
	Match(n *html.Node) bool
}

// MatcherFunc adapts a plain function to a Matcher.
type MatcherFunc func(n *html.Node) bool

func (f MatcherFunc) Match(n *html.Node) bool {
	return f(n)
}

// Layout names the elements of the two regions of a detail page.
type Layout struct {
	SummaryRoot  cascadia.Sel
	SummaryKey   cascadia.Sel
	SummaryValue cascadia.Sel

	TableRoot  cascadia.Sel
	TableKey   cascadia.Sel
	TableValue cascadia.Sel

	// ScanTablesWithoutSummary lets the tables be read from a page that has
	// no summary region. Off by default, such pages yield the name record
	// only.
	ScanTablesWithoutSummary bool
}

// Selectors is the textual form of a Layout, as found in the config file.
type Selectors struct {
	SummaryRoot  string `json:"summary_root"`
	SummaryKey   string `json:"summary_key"`
	SummaryValue string `json:"summary_value"`

	TableRoot  string `json:"table_root"`
	TableKey   string `json:"table_key"`
	TableValue string `json:"table_value"`

	ScanTablesWithoutSummary bool `json:"scan_tables_without_summary"`
}

// DefaultSelectors describes the panorama pages.
func DefaultSelectors() Selectors {
	return Selectors{
		SummaryRoot:  "div.topo",
		SummaryKey:   ".topo__titulo",
		SummaryValue: ".topo__valor",
		TableRoot:    "table.lista",
		TableKey:     ".lista__nome",
		TableValue:   ".lista__valor",
	}
}

// Compile turns every selector into a matcher, an empty selector falls back
// to its default.
func (s Selectors) Compile() (Layout, error) {
	def := DefaultSelectors()
	layout := Layout{ScanTablesWithoutSummary: s.ScanTablesWithoutSummary}

	var err error
	compile := func(out *cascadia.Sel, name, selector, fallback string) {
		if err != nil {
			return
		}
		if selector == "" {
			selector = fallback
		}
		sel, compileErr := cascadia.Parse(selector)
		if compileErr != nil {
			err = fmt.Errorf("selector %s %q: %w", name, selector, compileErr)
			return
		}
		*out = sel
	}
	compile(&layout.SummaryRoot, "summary_root", s.SummaryRoot, def.SummaryRoot)
	compile(&layout.SummaryKey, "summary_key", s.SummaryKey, def.SummaryKey)
	compile(&layout.SummaryValue, "summary_value", s.SummaryValue, def.SummaryValue)
	compile(&layout.TableRoot, "table_root", s.TableRoot, def.TableRoot)
	compile(&layout.TableKey, "table_key", s.TableKey, def.TableKey)
	compile(&layout.TableValue, "table_value", s.TableValue, def.TableValue)
	if err != nil {
		return Layout{}, err
	}
	return layout, nil
}

// DefaultLayout is DefaultSelectors compiled.
func DefaultLayout() Layout {
	layout, err := DefaultSelectors().Compile()
	if err != nil {
		panic(err)
	}
	return layout
}
