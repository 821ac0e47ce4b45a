package kripke

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/rfielding/kripke-cover/kripke")

// ErrNoTransitions is returned when the initial state has nothing enabled,
// so a restart cannot make progress.
var ErrNoTransitions = errors.New("initial state has no enabled transitions")

// reachBonus ranks a candidate whose target can still complete a path above
// one that cannot, without outweighing a real coverage gain.
const reachBonus = 0.5

// RestartReason says why the walker returned the model to its initial state.
type RestartReason string

const (
	RestartDeadEnd RestartReason = "dead_end"
	RestartLimit   RestartReason = "limit"
	RestartManual  RestartReason = "manual"
)

// WalkObserver receives progress callbacks from a Walker.
type WalkObserver interface {
	OnStep(runID string, ev Event, coverage float64)
	OnRestart(runID string, reason RestartReason)
}

// WalkConfig bounds a walk.
type WalkConfig struct {
	Steps        int   // transitions to execute
	RestartEvery int   // force a restart after this many steps; 0 disables
	Seed         int64 // tie-break randomness
}

// WalkResult summarizes a finished walk.
type WalkResult struct {
	RunID    string
	Steps    int
	Restarts int
	Coverage float64
	Duration time.Duration
}

// WalkerOption configures a Walker.
type WalkerOption func(*Walker)

// WithObserver attaches a progress observer.
func WithObserver(o WalkObserver) WalkerOption {
	return func(w *Walker) {
		w.observers = append(w.observers, o)
	}
}

// WithMetrics adds metrics that are notified but do not steer the walk.
func WithMetrics(extra ...Coverage) WalkerOption {
	return func(w *Walker) {
		w.metrics = append(w.metrics, extra...)
	}
}

// WithLogger sets the walker's logger.
func WithLogger(l *slog.Logger) WalkerOption {
	return func(w *Walker) {
		w.log = orDiscard(l)
	}
}

// Walker generates a test by walking a Model, choosing at each step the
// transition that most increases the target metric.
type Walker struct {
	model     *Model
	target    Coverage
	metrics   []Coverage
	observers []WalkObserver
	cfg       WalkConfig
	rng       *rand.Rand
	log       *slog.Logger

	current     StateID
	canComplete StateSet
	runID       string
}

// NewWalker creates a walker positioned at the model's initial state. When
// target exposes its tag sets, ties are broken toward states that can still
// complete a path.
func NewWalker(model *Model, target Coverage, cfg WalkConfig, opts ...WalkerOption) *Walker {
	w := &Walker{
		model:   model,
		target:  target,
		metrics: []Coverage{target},
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		log:     orDiscard(nil),
		current: model.Initial,
	}
	for _, opt := range opts {
		opt(w)
	}
	if tagged, ok := target.(interface{ TagSets() TagSets }); ok {
		w.canComplete = model.CanComplete(tagged.TagSets())
	}
	return w
}

// Current returns the state the model is in.
func (w *Walker) Current() StateID {
	return w.current
}

// Run executes up to cfg.Steps transitions. It stops early, returning the
// context's error, when ctx is done.
func (w *Walker) Run(ctx context.Context) (WalkResult, error) {
	w.runID = uuid.NewString()
	res := WalkResult{RunID: w.runID}
	start := time.Now()

	ctx, span := tracer.Start(ctx, "kripke.Walk", trace.WithAttributes(
		attribute.String("model", w.model.Name),
		attribute.String("run_id", w.runID),
		attribute.Int("steps", w.cfg.Steps),
	))
	defer span.End()

	log := w.log.With("run_id", w.runID, "model", w.model.Name)
	log.Info("Walk started.", "steps", w.cfg.Steps, "restart_every", w.cfg.RestartEvery, "seed", w.cfg.Seed)

	fail := func(err error) (WalkResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		res.Coverage = w.target.Coverage()
		res.Duration = time.Since(start)
		return res, err
	}

	sinceRestart := 0
	for res.Steps < w.cfg.Steps {
		if err := ctx.Err(); err != nil {
			return fail(fmt.Errorf("walk %s stopped after %d steps: %w", w.runID, res.Steps, err))
		}
		if w.cfg.RestartEvery > 0 && sinceRestart >= w.cfg.RestartEvery {
			w.restart(RestartLimit)
			res.Restarts++
			sinceRestart = 0
		}

		cands := w.model.Enabled(w.current)
		if len(cands) == 0 {
			if w.current == w.model.Initial {
				return fail(fmt.Errorf("walk %s: %w", w.runID, ErrNoTransitions))
			}
			log.Debug("Dead end reached.", "state", w.current)
			w.restart(RestartDeadEnd)
			res.Restarts++
			sinceRestart = 0
			continue
		}

		w.execute(w.choose(cands))
		res.Steps++
		sinceRestart++
	}

	res.Coverage = w.target.Coverage()
	res.Duration = time.Since(start)
	span.SetAttributes(
		attribute.Float64("coverage", res.Coverage),
		attribute.Int("restarts", res.Restarts),
	)
	log.Info("Walk finished.", "executed", res.Steps, "restarts", res.Restarts, "coverage", res.Coverage, "duration", res.Duration)
	return res, nil
}

// Execute runs the enabled transition labeled action from the current
// state. If several match, one is picked at random.
func (w *Walker) Execute(action string) (Event, error) {
	var matching []Transition
	for _, t := range w.model.Enabled(w.current) {
		if t.Action == action {
			matching = append(matching, t)
		}
	}
	if len(matching) == 0 {
		return Event{}, fmt.Errorf("no transition found for action %s from state %s", action, w.current)
	}
	return w.execute(matching[w.rng.Intn(len(matching))]), nil
}

// Restart returns the model to its initial state and notifies all metrics.
func (w *Walker) Restart() {
	w.restart(RestartManual)
}

func (w *Walker) execute(t Transition) Event {
	ev := w.model.EventFor(t)
	w.current = t.To
	for _, m := range w.metrics {
		m.OnTransition(ev)
	}
	cov := w.target.Coverage()
	for _, o := range w.observers {
		o.OnStep(w.runID, ev, cov)
	}
	return ev
}

func (w *Walker) restart(reason RestartReason) {
	w.current = w.model.Initial
	for _, m := range w.metrics {
		m.OnRestart()
	}
	for _, o := range w.observers {
		o.OnRestart(w.runID, reason)
	}
}

// choose scores each candidate by the target's coverage gain, measured with
// Push/Pop when the target supports lookahead, and picks uniformly among
// the best.
func (w *Walker) choose(cands []Transition) Transition {
	la, canLook := w.target.(Lookahead)
	base := w.target.Coverage()

	var best []Transition
	bestScore := -1.0
	for _, t := range cands {
		score := 0.0
		if canLook {
			la.Push()
			w.target.OnTransition(w.model.EventFor(t))
			score = w.target.Coverage() - base
			la.Pop()
		}
		if w.canComplete.Has(t.To) {
			score += reachBonus
		}
		switch {
		case score > bestScore:
			bestScore = score
			best = append(best[:0], t)
		case score == bestScore:
			best = append(best, t)
		}
	}
	return best[w.rng.Intn(len(best))]
}
