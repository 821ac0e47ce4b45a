package kripke

import "strings"

// Event is one executed transition as observed by a coverage metric.
// Action identifies the transition and is the element appended to paths.
// Tags carries the labels of the transition and of its target state.
type Event struct {
	Action string
	From   StateID
	To     StateID
	Tags   []Tag
}

// Match is the set of tag categories an event falls into.
type Match uint8

const (
	MatchStart Match = 1 << iota
	MatchEnd
	MatchDrop

	MatchNone Match = 0
)

func (m Match) Has(flag Match) bool { return m&flag != 0 }

func (m Match) String() string {
	if m == MatchNone {
		return "none"
	}
	var parts []string
	if m.Has(MatchStart) {
		parts = append(parts, "start")
	}
	if m.Has(MatchEnd) {
		parts = append(parts, "end")
	}
	if m.Has(MatchDrop) {
		parts = append(parts, "drop")
	}
	return strings.Join(parts, "|")
}

// Classify matches an event against the tag sets. It is a pure function;
// an event without tags matches nothing.
func Classify(ev Event, sets TagSets) Match {
	m := MatchNone
	if sets.From.AnyOf(ev.Tags) {
		m |= MatchStart
	}
	if sets.To.AnyOf(ev.Tags) {
		m |= MatchEnd
	}
	if sets.Drop.AnyOf(ev.Tags) {
		m |= MatchDrop
	}
	return m
}

// Action is what the path tracker does with one event.
type Action int

const (
	ActionIgnore Action = iota
	ActionStart
	ActionAppend
	ActionDrop
	ActionComplete
	ActionCompleteAndStart
)

var actionNames = [...]string{
	ActionIgnore:           "ignore",
	ActionStart:            "start",
	ActionAppend:           "append",
	ActionDrop:             "drop",
	ActionComplete:         "complete",
	ActionCompleteAndStart: "complete+start",
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// Policy resolves events that match more than one category.
type Policy struct {
	// DropBeforeEnd makes a drop tag win over an end tag on the same event.
	DropBeforeEnd bool
	// ReopenOnEnd lets an event that ends a path and is also start-tagged
	// open the next path, seeded with itself.
	ReopenOnEnd bool
	// DropBlocksStart keeps a start+drop tagged event from opening a path,
	// including the path ReopenOnEnd would open.
	DropBlocksStart bool
}

// DefaultPolicy: drop beats end, end does not reopen, drop blocks start.
func DefaultPolicy() Policy {
	return Policy{
		DropBeforeEnd:   true,
		ReopenOnEnd:     false,
		DropBlocksStart: true,
	}
}

// Resolve maps a match to an action. tracking reports whether a path is
// currently being accumulated.
func (p Policy) Resolve(m Match, tracking bool) Action {
	if !tracking {
		if !m.Has(MatchStart) {
			return ActionIgnore
		}
		if m.Has(MatchDrop) && p.DropBlocksStart {
			return ActionIgnore
		}
		return ActionStart
	}

	drop := m.Has(MatchDrop)
	end := m.Has(MatchEnd)
	if drop && end {
		if p.DropBeforeEnd {
			end = false
		} else {
			drop = false
		}
	}

	switch {
	case drop:
		return ActionDrop
	case end:
		if m.Has(MatchDrop) && p.DropBlocksStart {
			return ActionComplete
		}
		if p.ReopenOnEnd && m.Has(MatchStart) {
			return ActionCompleteAndStart
		}
		return ActionComplete
	default:
		return ActionAppend
	}
}
