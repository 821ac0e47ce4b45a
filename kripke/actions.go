package kripke

import "log/slog"

// ActionCoverage counts distinct executed actions. Restarts do not affect it.
type ActionCoverage struct {
	log     *slog.Logger
	counted ItemSet
	frames  []int
}

func NewActionCoverage(logger *slog.Logger) *ActionCoverage {
	return &ActionCoverage{log: orDiscard(logger).With("metric", "actions")}
}

func (ac *ActionCoverage) OnTransition(ev Event) {
	if ev.Action == "" {
		return
	}
	if _, added := ac.counted.Add(ev.Action); added && len(ac.frames) == 0 {
		ac.log.Debug("New action covered.", "action", ev.Action, "coverage", ac.counted.Len())
	}
}

func (ac *ActionCoverage) OnRestart() {}

func (ac *ActionCoverage) Coverage() float64 {
	return float64(ac.counted.Len())
}

func (ac *ActionCoverage) Push() {
	ac.frames = append(ac.frames, ac.counted.Len())
}

func (ac *ActionCoverage) Pop() bool {
	if len(ac.frames) == 0 {
		ac.log.Warn("Pop without matching Push.")
		return false
	}
	n := ac.frames[len(ac.frames)-1]
	ac.frames = ac.frames[:len(ac.frames)-1]
	ac.counted.truncate(n)
	return true
}

func (ac *ActionCoverage) Reset() {
	ac.counted.Reset()
	ac.frames = nil
}

var (
	_ Coverage   = (*ActionCoverage)(nil)
	_ Lookahead  = (*ActionCoverage)(nil)
	_ Resettable = (*ActionCoverage)(nil)
)
