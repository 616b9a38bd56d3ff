// Package ranking orders investor-relations documents for display.
//
// Every listing on the investor pages goes through RankDocuments: documents are
// filtered to the selected fiscal year and sorted newest first by published
// date, then by creation time, then by position in the source list.
package ranking

import (
	"slices"
	"time"

	"github.com/corpsite/corpsite-api/internal/investor"
)

type ranked struct {
	doc       investor.Document
	index     int
	published time.Time
	hasPub    bool
	created   time.Time
	hasCreate bool
}

// RankDocuments returns the documents tagged with selectedYear (all of them when
// selectedYear is empty) in display order. The input slice is not modified and
// the result is never nil.
//
// Documents without any usable date sort after dated ones; among themselves a
// later position in the source list counts as newer. That only holds while the
// CMS appends new entries to the end of a list.
func RankDocuments(documents []investor.Document, selectedYear string) []investor.Document {
	items := make([]ranked, 0, len(documents))
	for _, d := range documents {
		if selectedYear != "" && d.Year != selectedYear {
			continue
		}
		r := ranked{doc: d, index: len(items)}
		r.published, r.hasPub = ParseDate(d.PublishedDate)
		r.created, r.hasCreate = ParseDate(d.CreatedAt)
		items = append(items, r)
	}

	slices.SortStableFunc(items, compare)

	out := make([]investor.Document, len(items))
	for i, r := range items {
		out[i] = r.doc
	}
	return out
}

// compare returns a negative number when a should be listed before b.
func compare(a, b ranked) int {
	switch {
	case a.hasPub && b.hasPub:
		return b.published.Compare(a.published)
	case a.hasPub:
		return -1
	case b.hasPub:
		return 1
	}
	switch {
	case a.hasCreate && b.hasCreate:
		return b.created.Compare(a.created)
	case a.hasCreate:
		return -1
	case b.hasCreate:
		return 1
	}
	return b.index - a.index
}
