package kripke

import (
	"fmt"
	"sync"
)

// State represents a state of the model under test
type State interface {
	ID() StateID
	HasTag(tag Tag) bool
	Tags() []Tag
}

// BasicState is a simple implementation of State
type BasicState struct {
	id   StateID
	tags TagSet
}

func NewBasicState(id StateID, tags ...Tag) *BasicState {
	return &BasicState{
		id:   id,
		tags: NewTagSet(tags...),
	}
}

func (s *BasicState) ID() StateID {
	return s.id
}

func (s *BasicState) HasTag(tag Tag) bool {
	return s.tags.Has(tag)
}

// Tags returns the state's tags in sorted order.
func (s *BasicState) Tags() []Tag {
	return s.tags.ToSlice()
}

// Transition represents a labeled edge of the model
type Transition struct {
	From   StateID
	To     StateID
	Action string // Action that triggers this transition
	Tags   []Tag
}

// Model is a tagged transition system with a single initial state.
type Model struct {
	Name    string
	Initial StateID

	states map[StateID]State
	order  []StateID
	out    map[StateID][]Transition
	mu     sync.RWMutex
}

func NewModel(name string, initial State) *Model {
	m := &Model{
		Name:    name,
		Initial: initial.ID(),
		states:  make(map[StateID]State),
		out:     make(map[StateID][]Transition),
	}
	m.AddState(initial)
	return m
}

// AddState adds a state to the model, replacing any state with the same ID
func (m *Model) AddState(state State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.states[state.ID()]; !exists {
		m.order = append(m.order, state.ID())
	}
	m.states[state.ID()] = state
}

// AddTransition adds an edge between two known states
func (m *Model) AddTransition(from, to StateID, action string, tags ...Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.states[from]; !ok {
		return fmt.Errorf("transition %q: unknown source state %s", action, from)
	}
	if _, ok := m.states[to]; !ok {
		return fmt.Errorf("transition %q: unknown target state %s", action, to)
	}
	m.out[from] = append(m.out[from], Transition{
		From:   from,
		To:     to,
		Action: action,
		Tags:   append([]Tag(nil), tags...),
	})
	return nil
}

// GetState retrieves a state by ID
func (m *Model) GetState(id StateID) (State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.states[id]
	return state, ok
}

// States returns state IDs in insertion order
func (m *Model) States() []StateID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]StateID(nil), m.order...)
}

// Enabled returns all transitions leaving the given state
func (m *Model) Enabled(id StateID) []Transition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Transition(nil), m.out[id]...)
}

// Transitions returns every transition, grouped by source state in
// state insertion order.
func (m *Model) Transitions() []Transition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []Transition
	for _, id := range m.order {
		all = append(all, m.out[id]...)
	}
	return all
}

// Graph returns the successor relation for CTL evaluation.
func (m *Model) Graph() *Graph {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g := &Graph{
		States: append([]StateID(nil), m.order...),
		Succ:   make(map[StateID][]StateID, len(m.order)),
	}
	for _, id := range m.order {
		for _, t := range m.out[id] {
			g.Succ[id] = append(g.Succ[id], t.To)
		}
	}
	return g
}

// EventFor builds the event a metric observes when t executes: the
// transition's tags followed by the target state's tags.
func (m *Model) EventFor(t Transition) Event {
	tags := append([]Tag(nil), t.Tags...)
	if s, ok := m.GetState(t.To); ok {
		tags = append(tags, s.Tags()...)
	}
	return Event{
		Action: t.Action,
		From:   t.From,
		To:     t.To,
		Tags:   tags,
	}
}

// CanComplete returns the states from which some path still reaches a
// transition that ends a path under sets.
func (m *Model) CanComplete(sets TagSets) StateSet {
	enders := NewStateSet()
	for _, t := range m.Transitions() {
		if Classify(m.EventFor(t), sets).Has(MatchEnd) {
			enders.Add(t.From)
		}
	}
	return EF{F: Atom{States: enders}}.Sat(m.Graph())
}
