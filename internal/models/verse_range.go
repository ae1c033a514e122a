package models

// VerseRange is the roster entry for a single page: the contiguous verses of
// one chapter (unit) it spans and the juz it belongs to.
type VerseRange struct {
	PageNumber int    `db:"page_number" json:"pageNumber" yaml:"page"`
	UnitName   string `db:"unit_name" json:"unitName" yaml:"unit"`
	VerseStart int    `db:"verse_start" json:"verseStart" yaml:"start"`
	VerseEnd   int    `db:"verse_end" json:"verseEnd" yaml:"end"`
	JuzNumber  int    `db:"juz_number" json:"juzNumber" yaml:"juz"`
}

// Contains reports whether verse falls inside the page.
func (r VerseRange) Contains(verse int) bool {
	return verse >= r.VerseStart && verse <= r.VerseEnd
}

// Size is the number of verses on the page.
func (r VerseRange) Size() int {
	if r.VerseEnd < r.VerseStart {
		return 0
	}
	return r.VerseEnd - r.VerseStart + 1
}

// Verses returns every verse of the page in ascending order.
func (r VerseRange) Verses() VerseSet {
	return RangeSet(r.VerseStart, r.VerseEnd)
}

// Covers reports whether set holds every verse of the page.
func (r VerseRange) Covers(set VerseSet) bool {
	return r.Verses().IsSubsetOf(set)
}
