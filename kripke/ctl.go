package kripke

// CTL reachability over the state graph of a Model.
// Only the existential fragment the walker needs is kept: Atom, EU, EF.

import "sort"

type StateID string

// Graph is a finite Kripke structure: states + successor relation.
type Graph struct {
	States []StateID
	Succ   map[StateID][]StateID // R(s) = Succ[s]
}

// ----- State sets -----

type StateSet map[StateID]struct{}

func NewStateSet(ids ...StateID) StateSet {
	s := make(StateSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s StateSet) Has(id StateID) bool { _, ok := s[id]; return ok }
func (s StateSet) Add(id StateID)      { s[id] = struct{}{} }
func (s StateSet) Size() int           { return len(s) }
func (s StateSet) Copy() StateSet {
	out := NewStateSet()
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}
func (s StateSet) ToSlice() []StateID {
	out := make([]StateID, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
func (s StateSet) Equals(other StateSet) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if !other.Has(k) {
			return false
		}
	}
	return true
}
func (s StateSet) Intersect(other StateSet) StateSet {
	out := NewStateSet()
	for k := range s {
		if other.Has(k) {
			out.Add(k)
		}
	}
	return out
}
func (s StateSet) Union(other StateSet) StateSet {
	out := s.Copy()
	for k := range other {
		out.Add(k)
	}
	return out
}

// Universe builds a set containing all states in the graph.
func Universe(g *Graph) StateSet {
	return NewStateSet(g.States...)
}

// Pre_E returns predecessors with SOME successor in W:
// Pre_E(W) = { s | ∃ s' . R(s,s') ∧ s' ∈ W }
func Pre_E(W StateSet, g *Graph) StateSet {
	out := NewStateSet()
	for s, succs := range g.Succ {
		for _, s2 := range succs {
			if W.Has(s2) {
				out.Add(s)
				break
			}
		}
	}
	return out
}

// ----- CTL Formula AST -----

// Formula is a CTL state formula.
// Sat(g) returns the set of states satisfying the formula in graph g.
type Formula interface {
	Sat(g *Graph) StateSet
}

// Atom: an atomic proposition is represented as the set of states
// where it holds.
type Atom struct {
	States StateSet
}

func (a Atom) Sat(g *Graph) StateSet {
	return a.States.Copy()
}

// EU(p, q): "there exists a path where p holds UNTIL q holds"
type EU struct {
	P, Q Formula
}

func (eu EU) Sat(g *Graph) StateSet {
	satP := eu.P.Sat(g)
	satQ := eu.Q.Sat(g)

	// Least fixpoint:
	// W0 = Sat(Q)
	// W_{i+1} = W_i ∪ (Sat(P) ∩ Pre_E(W_i))
	W := satQ.Copy()
	for {
		pre := Pre_E(W, g).Intersect(satP)
		next := W.Union(pre)
		if next.Equals(W) {
			return W
		}
		W = next
	}
}

// EF φ: "there exists a path where EVENTUALLY φ"
type EF struct {
	F Formula
}

func (ef EF) Sat(g *Graph) StateSet {
	// EF φ ≡ E[ true U φ ]
	return EU{P: Atom{States: Universe(g)}, Q: ef.F}.Sat(g)
}

// SatIn evaluates a formula and asks if a given state satisfies it.
func SatIn(f Formula, g *Graph, s StateID) bool {
	return f.Sat(g).Has(s)
}
