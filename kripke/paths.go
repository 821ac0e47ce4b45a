package kripke

import (
	"log/slog"
	"strconv"
	"strings"
)

// Path is a completed sequence of transition actions, from a start-tagged
// transition to an end-tagged one.
type Path []string

func (p Path) String() string { return strings.Join(p, " -> ") }

// key encodes the path so that two paths share a key only if their
// element sequences are identical.
func (p Path) key() string {
	var sb strings.Builder
	for _, e := range p {
		sb.WriteString(strconv.Itoa(len(e)))
		sb.WriteByte(':')
		sb.WriteString(e)
	}
	return sb.String()
}

func (p Path) clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// PathStat describes one distinct completed path.
type PathStat struct {
	Path  Path
	Count int // completions observed, including repeats
}

// PathTotals are running event counters kept alongside the coverage value.
type PathTotals struct {
	Transitions int
	Restarts    int
	Started     int
	Dropped     int
	Completed   int
}

// PathOption configures a PathCoverage.
type PathOption func(*PathCoverage)

// WithPolicy overrides how events matching several tag sets are handled.
func WithPolicy(p Policy) PathOption {
	return func(pc *PathCoverage) {
		pc.policy = p
	}
}

// PathCoverage counts distinct completed paths between From- and To-tagged
// transitions, abandoning any attempt that crosses a Drop tag.
type PathCoverage struct {
	sets   TagSets
	policy Policy
	log    *slog.Logger

	counted ItemSet
	stats   []PathStat
	current Path
	totals  PathTotals

	frames  []pathFrame
	journal []int
}

type pathFrame struct {
	current Path
	items   int
	journal int
	totals  PathTotals
}

// NewPathCoverage creates a path metric. The tag sets are copied; later
// changes to the caller's sets have no effect.
func NewPathCoverage(sets TagSets, logger *slog.Logger, opts ...PathOption) *PathCoverage {
	pc := &PathCoverage{
		sets:   sets.clone(),
		policy: DefaultPolicy(),
		log:    orDiscard(logger).With("metric", "paths"),
	}
	for _, opt := range opts {
		opt(pc)
	}
	return pc
}

// OnTransition feeds one executed transition to the path state machine.
func (pc *PathCoverage) OnTransition(ev Event) {
	pc.totals.Transitions++
	m := Classify(ev, pc.sets)

	switch pc.policy.Resolve(m, len(pc.current) > 0) {
	case ActionIgnore:
	case ActionStart:
		pc.start(ev.Action)
	case ActionAppend:
		pc.current = append(pc.current, ev.Action)
	case ActionDrop:
		pc.totals.Dropped++
		if !pc.trial() {
			pc.log.Debug("Path dropped.", "action", ev.Action, "length", len(pc.current))
		}
		pc.current = pc.current[:0]
	case ActionComplete:
		pc.complete(ev.Action)
	case ActionCompleteAndStart:
		pc.complete(ev.Action)
		pc.start(ev.Action)
	}
}

// OnRestart abandons the path in progress. Completed paths are kept.
func (pc *PathCoverage) OnRestart() {
	pc.totals.Restarts++
	if len(pc.current) > 0 && !pc.trial() {
		pc.log.Debug("Restart discarded path in progress.", "length", len(pc.current))
	}
	pc.current = pc.current[:0]
}

// Coverage returns the number of distinct completed paths.
func (pc *PathCoverage) Coverage() float64 {
	return float64(pc.counted.Len())
}

func (pc *PathCoverage) start(action string) {
	pc.totals.Started++
	pc.current = append(pc.current[:0], action)
}

func (pc *PathCoverage) complete(action string) {
	pc.current = append(pc.current, action)
	done := pc.current.clone()
	pc.current = pc.current[:0]
	pc.totals.Completed++

	i, added := pc.counted.Add(done.key())
	if added {
		pc.stats = append(pc.stats, PathStat{Path: done, Count: 1})
	} else {
		pc.stats[i].Count++
	}
	if pc.trial() {
		pc.journal = append(pc.journal, i)
		return
	}
	if added {
		pc.log.Debug("New path covered.", "path", done.String(), "coverage", pc.counted.Len())
	}
}

// trial reports whether a lookahead frame is open; changes made now are
// taken back by Pop and are not logged.
func (pc *PathCoverage) trial() bool {
	return len(pc.frames) > 0
}

// Pending returns the length of the path in progress; zero when idle.
func (pc *PathCoverage) Pending() int {
	return len(pc.current)
}

// Totals returns the running event counters.
func (pc *PathCoverage) Totals() PathTotals {
	return pc.totals
}

// Paths returns copies of the distinct completed paths in the order they
// were first completed.
func (pc *PathCoverage) Paths() []PathStat {
	out := make([]PathStat, len(pc.stats))
	for i, st := range pc.stats {
		out[i] = PathStat{Path: st.Path.clone(), Count: st.Count}
	}
	return out
}

// TagSets returns a copy of the metric's filters.
func (pc *PathCoverage) TagSets() TagSets {
	return pc.sets.clone()
}

// Push saves the current state for a later Pop.
func (pc *PathCoverage) Push() {
	pc.frames = append(pc.frames, pathFrame{
		current: pc.current.clone(),
		items:   pc.counted.Len(),
		journal: len(pc.journal),
		totals:  pc.totals,
	})
}

// Pop restores the state saved by the latest Push.
func (pc *PathCoverage) Pop() bool {
	if len(pc.frames) == 0 {
		pc.log.Warn("Pop without matching Push.")
		return false
	}
	f := pc.frames[len(pc.frames)-1]
	pc.frames = pc.frames[:len(pc.frames)-1]

	for j := len(pc.journal) - 1; j >= f.journal; j-- {
		pc.stats[pc.journal[j]].Count--
	}
	pc.journal = pc.journal[:f.journal]
	pc.counted.truncate(f.items)
	pc.stats = pc.stats[:f.items]
	pc.current = f.current
	pc.totals = f.totals
	return true
}

// Reset clears completed paths, the path in progress, counters and any
// saved lookahead frames.
func (pc *PathCoverage) Reset() {
	pc.counted.Reset()
	pc.stats = nil
	pc.current = nil
	pc.totals = PathTotals{}
	pc.frames = nil
	pc.journal = nil
}

var (
	_ Coverage   = (*PathCoverage)(nil)
	_ Lookahead  = (*PathCoverage)(nil)
	_ Resettable = (*PathCoverage)(nil)
)
