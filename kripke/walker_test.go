package kripke

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	steps    int
	restarts map[RestartReason]int
	last     float64
	runIDs   map[string]bool
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		restarts: make(map[RestartReason]int),
		runIDs:   make(map[string]bool),
	}
}

func (o *recordingObserver) OnStep(runID string, ev Event, coverage float64) {
	o.steps++
	o.last = coverage
	o.runIDs[runID] = true
}

func (o *recordingObserver) OnRestart(runID string, reason RestartReason) {
	o.restarts[reason]++
}

func TestWalker_CoversOrderPaths(t *testing.T) {
	pc := NewPathCoverage(OrderTagSets(), nil)
	ac := NewActionCoverage(nil)
	obs := newRecordingObserver()
	w := NewWalker(OrderModel(), pc, WalkConfig{Steps: 200, Seed: 3}, WithMetrics(ac), WithObserver(obs))

	res, err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 200, res.Steps)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, pc.Coverage(), res.Coverage)
	assert.GreaterOrEqual(t, res.Coverage, 3.0)
	assert.Equal(t, 200, obs.steps)
	assert.Equal(t, res.Coverage, obs.last)
	assert.Len(t, obs.runIDs, 1)

	// iCancel never completes or extends a path, so the greedy walk avoids it.
	assert.Equal(t, 0, pc.Totals().Dropped)
	assert.LessOrEqual(t, ac.Coverage(), 5.0)

	for _, st := range pc.Paths() {
		require.GreaterOrEqual(t, len(st.Path), 2)
		assert.Equal(t, "iAccept", st.Path[0])
		assert.Equal(t, "iDeliver", st.Path[len(st.Path)-1])
		for _, mid := range st.Path[1 : len(st.Path)-1] {
			assert.Equal(t, "iUpdate", mid)
		}
	}
}

func TestWalker_SameSeedSamePaths(t *testing.T) {
	run := func() []PathStat {
		pc := NewPathCoverage(OrderTagSets(), nil)
		_, err := NewWalker(OrderModel(), pc, WalkConfig{Steps: 120, RestartEvery: 7, Seed: 11}).Run(context.Background())
		require.NoError(t, err)
		return pc.Paths()
	}

	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("walks with the same seed diverged (-first +second):\n%s", diff)
	}
}

func TestWalker_RestartEvery(t *testing.T) {
	pc := NewPathCoverage(OrderTagSets(), nil)
	obs := newRecordingObserver()
	w := NewWalker(OrderModel(), pc, WalkConfig{Steps: 6, RestartEvery: 2}, WithObserver(obs))

	res, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Restarts)
	assert.Equal(t, 2, obs.restarts[RestartLimit])
	assert.Equal(t, 2, pc.Totals().Restarts)
}

func TestWalker_DeadEndRestarts(t *testing.T) {
	m := NewModel("dead", NewBasicState("s0"))
	m.AddState(NewBasicState("s1", "end"))
	require.NoError(t, m.AddTransition("s0", "s1", "go", "start"))

	pc := NewPathCoverage(NewTagSets([]Tag{"start"}, []Tag{"never"}, nil), nil)
	obs := newRecordingObserver()
	res, err := NewWalker(m, pc, WalkConfig{Steps: 3}, WithObserver(obs)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Steps)
	assert.Equal(t, 2, res.Restarts)
	assert.Equal(t, 2, obs.restarts[RestartDeadEnd])
	assert.Equal(t, 0.0, res.Coverage)
	assert.Equal(t, 1, pc.Pending(), "the last attempt is still open")
}

func TestWalker_NoTransitions(t *testing.T) {
	m := NewModel("empty", NewBasicState("s0"))
	pc := NewPathCoverage(NewTagSets(nil, nil, nil), nil)

	_, err := NewWalker(m, pc, WalkConfig{Steps: 5}).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoTransitions))
}

func TestWalker_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pc := NewPathCoverage(OrderTagSets(), nil)
	res, err := NewWalker(OrderModel(), pc, WalkConfig{Steps: 10}).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, res.Steps)
}

func TestWalker_ManualExecution(t *testing.T) {
	pc := NewPathCoverage(OrderTagSets(), nil)
	w := NewWalker(OrderModel(), pc, WalkConfig{})

	_, err := w.Execute("iAccept")
	require.NoError(t, err)
	_, err = w.Execute("iUpdate")
	require.NoError(t, err)
	assert.Equal(t, StateID("accepted"), w.Current())

	w.Restart()
	assert.Equal(t, StateID("new"), w.Current())
	assert.Equal(t, 0, pc.Pending())

	_, err = w.Execute("iAccept")
	require.NoError(t, err)
	ev, err := w.Execute("iDeliver")
	require.NoError(t, err)
	assert.Equal(t, []Tag{"delivered"}, ev.Tags)
	assert.Equal(t, 1.0, pc.Coverage())

	_, err = w.Execute("iCancel")
	assert.Error(t, err, "iCancel is not enabled in delivered")
}

func TestWalker_LookaheadLeavesTargetUntouched(t *testing.T) {
	pc := NewPathCoverage(OrderTagSets(), nil)
	w := NewWalker(OrderModel(), pc, WalkConfig{Seed: 1})

	_, err := w.Execute("iAccept")
	require.NoError(t, err)
	before := pc.Totals()

	picked := w.choose(OrderModel().Enabled("accepted"))
	assert.Equal(t, "iDeliver", picked.Action, "the only candidate with a coverage gain")
	assert.Equal(t, before, pc.Totals())
	assert.Equal(t, 1, pc.Pending())
	assert.Equal(t, 0.0, pc.Coverage())
}

func TestWalker_LookaheadDoesNotLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	pc := NewPathCoverage(OrderTagSets(), logger)
	ac := NewActionCoverage(logger)
	w := NewWalker(OrderModel(), pc, WalkConfig{Seed: 1}, WithMetrics(ac))

	_, err := w.Execute("iAccept")
	require.NoError(t, err)
	buf.Reset()

	w.choose(OrderModel().Enabled("accepted"))
	assert.Empty(t, buf.String())
	assert.Equal(t, 0.0, pc.Coverage())

	_, err = w.Execute("iDeliver")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `msg="New path covered." metric=paths path="iAccept -> iDeliver"`)
}

func TestWalker_LookaheadOnActionTargetDoesNotLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ac := NewActionCoverage(logger)
	w := NewWalker(OrderModel(), ac, WalkConfig{Seed: 1})

	w.choose(OrderModel().Enabled("new"))
	assert.Empty(t, buf.String())
	assert.Equal(t, 0.0, ac.Coverage())
}
