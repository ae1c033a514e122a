// Package roster loads the page to verse range reference table from a YAML
// file.
//
//	pages:
//	  - page: 1
//	    unit: Al-Fatihah
//	    start: 1
//	    end: 7
//	    juz: 1
package roster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/tahfidz-api/internal/models"
)

// ErrPageNotFound is returned for pages absent from the roster.
var ErrPageNotFound = errors.New("roster: page not found")

type document struct {
	Pages []models.VerseRange `yaml:"pages"`
}

// Roster is an immutable in-memory roster.
type Roster struct {
	pages   map[int]models.VerseRange
	ordered []models.VerseRange
}

// Load reads and validates a roster file.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML roster document.
func Parse(data []byte) (*Roster, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	return New(doc.Pages)
}

// New validates pages and builds a roster from them.
func New(pages []models.VerseRange) (*Roster, error) {
	if len(pages) == 0 {
		return nil, errors.New("roster: no pages defined")
	}
	r := &Roster{pages: make(map[int]models.VerseRange, len(pages))}
	for _, p := range pages {
		if p.PageNumber <= 0 {
			return nil, fmt.Errorf("roster: invalid page number %d", p.PageNumber)
		}
		if p.VerseStart < 1 || p.VerseEnd < p.VerseStart {
			return nil, fmt.Errorf("roster: page %d has invalid range %d-%d", p.PageNumber, p.VerseStart, p.VerseEnd)
		}
		if _, dup := r.pages[p.PageNumber]; dup {
			return nil, fmt.Errorf("roster: page %d defined twice", p.PageNumber)
		}
		r.pages[p.PageNumber] = p
		r.ordered = append(r.ordered, p)
	}
	sort.Slice(r.ordered, func(i, j int) bool { return r.ordered[i].PageNumber < r.ordered[j].PageNumber })
	return r, nil
}

// Len returns the number of pages.
func (r *Roster) Len() int { return len(r.ordered) }

// FindByPage returns the range of page or ErrPageNotFound.
func (r *Roster) FindByPage(_ context.Context, page int) (*models.VerseRange, error) {
	p, ok := r.pages[page]
	if !ok {
		return nil, ErrPageNotFound
	}
	return &p, nil
}

// ListByJuz returns the pages of a juz in page order, or every page when juz
// is zero.
func (r *Roster) ListByJuz(_ context.Context, juz int) ([]models.VerseRange, error) {
	out := make([]models.VerseRange, 0, len(r.ordered))
	for _, p := range r.ordered {
		if juz > 0 && p.JuzNumber != juz {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
