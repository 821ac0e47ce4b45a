package kripke

import "sort"

// Tag is a label attached to a transition or a state by the model.
// Resolution from model text to Tag happens before tags reach a metric.
type Tag string

// ----- Tag sets -----

type TagSet map[Tag]struct{}

func NewTagSet(tags ...Tag) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

func (s TagSet) Has(t Tag) bool { _, ok := s[t]; return ok }
func (s TagSet) Add(t Tag)      { s[t] = struct{}{} }
func (s TagSet) Size() int      { return len(s) }
func (s TagSet) Copy() TagSet {
	out := make(TagSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// ToSlice returns the tags in sorted order.
func (s TagSet) ToSlice() []Tag {
	out := make([]Tag, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Intersect returns the tags present in both sets.
func (s TagSet) Intersect(other TagSet) TagSet {
	out := NewTagSet()
	for k := range s {
		if other.Has(k) {
			out.Add(k)
		}
	}
	return out
}

// AnyOf reports whether at least one of tags is in the set.
func (s TagSet) AnyOf(tags []Tag) bool {
	for _, t := range tags {
		if s.Has(t) {
			return true
		}
	}
	return false
}

// TagSets holds the start, end and drop filters of a path metric.
// The sets are disjoint by convention; overlap is allowed and is
// resolved by a Policy.
type TagSets struct {
	From TagSet
	To   TagSet
	Drop TagSet
}

// NewTagSets builds TagSets from plain slices.
func NewTagSets(from, to, drop []Tag) TagSets {
	return TagSets{
		From: NewTagSet(from...),
		To:   NewTagSet(to...),
		Drop: NewTagSet(drop...),
	}
}

func (ts TagSets) clone() TagSets {
	return TagSets{
		From: ts.From.Copy(),
		To:   ts.To.Copy(),
		Drop: ts.Drop.Copy(),
	}
}

// Overlaps returns, for each pair of sets, the tags they share.
// The metric never rejects overlapping sets; loaders use this to warn.
func (ts TagSets) Overlaps() map[string][]Tag {
	out := make(map[string][]Tag)
	if both := ts.From.Intersect(ts.To); both.Size() > 0 {
		out["from/to"] = both.ToSlice()
	}
	if both := ts.From.Intersect(ts.Drop); both.Size() > 0 {
		out["from/drop"] = both.ToSlice()
	}
	if both := ts.To.Intersect(ts.Drop); both.Size() > 0 {
		out["to/drop"] = both.ToSlice()
	}
	return out
}
