package extract

import (
	"bytes"
	"fmt"

	"ibge-panorama/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

type Extractor struct {
	layout Layout
}

func NewExtractor(layout Layout) Extractor {
	return Extractor{layout: layout}
}

// Extract reads the records of one unit out of its detail page. The name
// record always comes first, then the pairs of every summary region and
// then those of every table, numbered on from 2.
//
// It only fails when the document cannot be parsed at all.
func (e Extractor) Extract(body []byte, unitIndex int, unitName string) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return Result{}, fmt.Errorf("parse document: %w", err)
	}

	var result Result
	emit := func(key, value string) {
		result.Records = append(result.Records, Record{
			LineIndex: len(result.Records) + 1,
			UnitIndex: unitIndex,
			Key:       key,
			Value:     value,
		})
	}
	emit(NameKey, Normalize(unitName))

	summaries := roots(doc, e.layout.SummaryRoot)
	if len(summaries) == 0 {
		result.SummaryMissing = true
		if !e.layout.ScanTablesWithoutSummary {
			return result, nil
		}
	}

	for _, root := range summaries {
		for _, pair := range Scan(root, e.layout.SummaryKey, e.layout.SummaryValue) {
			emit(pair.Key, pair.Value)
		}
	}
	for _, root := range roots(doc, e.layout.TableRoot) {
		for _, pair := range Scan(root, e.layout.TableKey, e.layout.TableValue) {
			emit(pair.Key, pair.Value)
		}
	}

	return result, nil
}

// roots finds the region roots in document order, a root nested in another
// one is covered by the outer scan and is left out.
func roots(doc *goquery.Document, matcher Matcher) []*html.Node {
	var found []*html.Node
	for _, top := range doc.Nodes {
		htmlutil.Descendants(top, func(n *html.Node) {
			if matcher.Match(n) {
				found = append(found, n)
			}
		})
	}
	return htmlutil.Outermost(found)
}
