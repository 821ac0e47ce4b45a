package kripke

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	sets := NewTagSets([]Tag{"begin", "both"}, []Tag{"finish", "both"}, []Tag{"abort"})

	cases := []struct {
		name string
		tags []Tag
		want Match
	}{
		{"untagged", nil, MatchNone},
		{"unknown tag", []Tag{"other"}, MatchNone},
		{"start", []Tag{"begin"}, MatchStart},
		{"end", []Tag{"finish"}, MatchEnd},
		{"drop", []Tag{"abort"}, MatchDrop},
		{"start and end via one tag", []Tag{"both"}, MatchStart | MatchEnd},
		{"end and drop via two tags", []Tag{"finish", "abort"}, MatchEnd | MatchDrop},
		{"all three", []Tag{"begin", "finish", "abort"}, MatchStart | MatchEnd | MatchDrop},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(Event{Action: "x", Tags: tc.tags}, sets)
			assert.Equal(t, tc.want, got, "got %s", got)
		})
	}
}

func TestMatchString(t *testing.T) {
	assert.Equal(t, "none", MatchNone.String())
	assert.Equal(t, "start|drop", (MatchStart | MatchDrop).String())
	assert.Equal(t, "start|end|drop", (MatchStart | MatchEnd | MatchDrop).String())
}

// TestPolicy_ResolveTable pins the action for every match combination in
// both tracker states under the default policy.
func TestPolicy_ResolveTable(t *testing.T) {
	p := DefaultPolicy()
	S, E, D := MatchStart, MatchEnd, MatchDrop

	idle := map[Match]Action{
		MatchNone: ActionIgnore,
		S:         ActionStart,
		E:         ActionIgnore,
		D:         ActionIgnore,
		S | E:     ActionStart,
		S | D:     ActionIgnore,
		E | D:     ActionIgnore,
		S | E | D: ActionIgnore,
	}
	tracking := map[Match]Action{
		MatchNone: ActionAppend,
		S:         ActionAppend,
		E:         ActionComplete,
		D:         ActionDrop,
		S | E:     ActionComplete,
		S | D:     ActionDrop,
		E | D:     ActionDrop,
		S | E | D: ActionDrop,
	}

	for m := Match(0); m <= S|E|D; m++ {
		want, ok := idle[m]
		require.True(t, ok, "missing idle expectation for %s", m)
		assert.Equal(t, want, p.Resolve(m, false), "idle + %s", m)

		want, ok = tracking[m]
		require.True(t, ok, "missing tracking expectation for %s", m)
		assert.Equal(t, want, p.Resolve(m, true), "tracking + %s", m)
	}
}

func TestPolicy_Overrides(t *testing.T) {
	S, E, D := MatchStart, MatchEnd, MatchDrop

	p := DefaultPolicy()
	p.DropBeforeEnd = false
	assert.Equal(t, ActionComplete, p.Resolve(E|D, true))
	assert.Equal(t, ActionDrop, p.Resolve(D, true))

	p = DefaultPolicy()
	p.ReopenOnEnd = true
	assert.Equal(t, ActionCompleteAndStart, p.Resolve(S|E, true))
	assert.Equal(t, ActionComplete, p.Resolve(E, true))
	assert.Equal(t, ActionDrop, p.Resolve(S|E|D, true))

	p = DefaultPolicy()
	p.DropBlocksStart = false
	assert.Equal(t, ActionStart, p.Resolve(S|D, false))

	// end wins over drop, but the drop tag still keeps the next path closed
	p = Policy{DropBeforeEnd: false, ReopenOnEnd: true, DropBlocksStart: true}
	assert.Equal(t, ActionComplete, p.Resolve(S|E|D, true))
	assert.Equal(t, ActionCompleteAndStart, p.Resolve(S|E, true))

	p.DropBlocksStart = false
	assert.Equal(t, ActionCompleteAndStart, p.Resolve(S|E|D, true))
}

func TestPathCoverage_DropTagNeverSeedsReopenedPath(t *testing.T) {
	pc := NewPathCoverage(NewTagSets([]Tag{"A", "M"}, []Tag{"M"}, []Tag{"M"}), nil,
		WithPolicy(Policy{DropBeforeEnd: false, ReopenOnEnd: true, DropBlocksStart: true}))

	feed(pc, "A", "M")
	assert.Equal(t, 1.0, pc.Coverage())
	assert.Equal(t, 0, pc.Pending())
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "complete+start", ActionCompleteAndStart.String())
	assert.Equal(t, "unknown", Action(42).String())
}
