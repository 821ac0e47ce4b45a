package kripke

import "log/slog"

// Coverage is the contract every coverage metric satisfies.
//
// The engine calls OnTransition once per executed transition, in execution
// order, and OnRestart whenever the model returns to its initial
// configuration. Coverage may be called at any time and has no side
// effects; its value never decreases across OnTransition and OnRestart
// calls within a run.
//
// Implementations are not safe for concurrent use. The engine is the only
// caller and serializes all calls on an instance.
type Coverage interface {
	OnTransition(ev Event)
	OnRestart()
	Coverage() float64
}

// Lookahead is implemented by metrics that can save and restore their
// state, letting a heuristic try a transition and take it back.
type Lookahead interface {
	Push()
	// Pop restores the state saved by the matching Push. It reports
	// false when there is nothing to restore.
	Pop() bool
}

// Resettable metrics can be cleared completely between runs.
type Resettable interface {
	Reset()
}

// ItemSet is the set of counted items behind a coverage value. Items are
// opaque keys; the set only grows, except through Reset or a lookahead
// rollback. Outside this package only its size is observable.
type ItemSet struct {
	index map[string]int
	order []string
}

// Add inserts key and reports its position in insertion order and whether
// it was new.
func (s *ItemSet) Add(key string) (int, bool) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[key]; ok {
		return i, false
	}
	s.index[key] = len(s.order)
	s.order = append(s.order, key)
	return len(s.order) - 1, true
}

func (s *ItemSet) Has(key string) bool { _, ok := s.index[key]; return ok }
func (s *ItemSet) Len() int            { return len(s.order) }

// Reset empties the set.
func (s *ItemSet) Reset() {
	s.index = nil
	s.order = nil
}

// truncate drops every item added after the set held n items.
func (s *ItemSet) truncate(n int) {
	if n >= len(s.order) {
		return
	}
	for _, key := range s.order[n:] {
		delete(s.index, key)
	}
	s.order = s.order[:n]
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
