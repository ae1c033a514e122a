package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrMalformedVerseSet is returned when a stored or submitted verse list cannot
// be decoded into a set.
var ErrMalformedVerseSet = errors.New("malformed verse set")

// VerseSet is an ordered set of verse numbers. Members are unique and keep
// their insertion order for display; equality and membership ignore order.
// It is persisted as a JSON array in a jsonb column.
type VerseSet []int

// NewVerseSet builds a set from the given verses, dropping repeats.
func NewVerseSet(verses ...int) VerseSet {
	set := make(VerseSet, 0, len(verses))
	for _, v := range verses {
		set, _ = set.Add(v)
	}
	return set
}

// RangeSet returns the ascending set [start, end].
func RangeSet(start, end int) VerseSet {
	if end < start {
		return VerseSet{}
	}
	set := make(VerseSet, 0, end-start+1)
	for v := start; v <= end; v++ {
		set = append(set, v)
	}
	return set
}

// Len returns the number of members.
func (s VerseSet) Len() int { return len(s) }

// IsEmpty reports whether the set has no members.
func (s VerseSet) IsEmpty() bool { return len(s) == 0 }

// Contains reports membership.
func (s VerseSet) Contains(verse int) bool {
	for _, v := range s {
		if v == verse {
			return true
		}
	}
	return false
}

// Add appends verse when absent. The returned bool is false for a repeat.
func (s VerseSet) Add(verse int) (VerseSet, bool) {
	if s.Contains(verse) {
		return s, false
	}
	out := make(VerseSet, len(s), len(s)+1)
	copy(out, s)
	return append(out, verse), true
}

// Union returns s followed by the members of other not already in s.
func (s VerseSet) Union(other VerseSet) VerseSet {
	out := s.Clone()
	for _, v := range other {
		out, _ = out.Add(v)
	}
	return out
}

// Difference returns the members of s absent from other, in s order.
func (s VerseSet) Difference(other VerseSet) VerseSet {
	out := make(VerseSet, 0, len(s))
	for _, v := range s {
		if !other.Contains(v) {
			out = append(out, v)
		}
	}
	return out
}

// IsSubsetOf reports whether every member of s is in other.
func (s VerseSet) IsSubsetOf(other VerseSet) bool {
	for _, v := range s {
		if !other.Contains(v) {
			return false
		}
	}
	return true
}

// Equal reports set equality regardless of order.
func (s VerseSet) Equal(other VerseSet) bool {
	return len(s) == len(other) && s.IsSubsetOf(other)
}

// Clone returns an independent copy. A nil set clones to an empty one.
func (s VerseSet) Clone() VerseSet {
	out := make(VerseSet, len(s))
	copy(out, s)
	return out
}

// Sorted returns an ascending copy.
func (s VerseSet) Sorted() VerseSet {
	out := s.Clone()
	sort.Ints(out)
	return out
}

// MarshalJSON encodes the set as an array; nil becomes [].
func (s VerseSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int(s))
}

// UnmarshalJSON decodes an array of integers, rejecting null members and
// duplicates.
func (s *VerseSet) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty payload", ErrMalformedVerseSet)
	}
	if bytes.Equal(trimmed, []byte("null")) {
		*s = VerseSet{}
		return nil
	}
	var raw []*int
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedVerseSet, err)
	}
	set := make(VerseSet, 0, len(raw))
	for i, member := range raw {
		if member == nil {
			return fmt.Errorf("%w: null member at index %d", ErrMalformedVerseSet, i)
		}
		v := *member
		var added bool
		if set, added = set.Add(v); !added {
			return fmt.Errorf("%w: duplicate verse %d", ErrMalformedVerseSet, v)
		}
	}
	*s = set
	return nil
}

// Value implements driver.Valuer.
func (s VerseSet) Value() (driver.Value, error) {
	payload, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(payload), nil
}

// Scan implements sql.Scanner.
func (s *VerseSet) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = VerseSet{}
		return nil
	case []byte:
		return s.UnmarshalJSON(v)
	case string:
		return s.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("%w: unsupported column type %T", ErrMalformedVerseSet, src)
	}
}
