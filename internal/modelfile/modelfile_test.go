package modelfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rfielding/kripke-cover/kripke"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orderYAML = `
name: order
initial: new
states:
  - id: new
  - id: accepted
    tags: [accepted]
  - id: delivered
    tags: [delivered]
transitions:
  - {from: new, to: accepted, action: iAccept, tags: [start]}
  - {from: accepted, to: delivered, action: iDeliver}
  - {from: delivered, to: new, action: iReorder}
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(orderYAML))
	require.NoError(t, err)

	assert.Equal(t, "order", m.Name)
	assert.Equal(t, kripke.StateID("new"), m.Initial)
	assert.Equal(t, []kripke.StateID{"new", "accepted", "delivered"}, m.States())

	enabled := m.Enabled("new")
	require.Len(t, enabled, 1)
	ev := m.EventFor(enabled[0])
	assert.Equal(t, []kripke.Tag{"start", "accepted"}, ev.Tags)
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"no initial":         "states: [{id: a}]",
		"undeclared initial": "initial: b\nstates: [{id: a}]",
		"duplicate state":    "initial: a\nstates: [{id: a}, {id: a}]",
		"empty state id":     "initial: a\nstates: [{id: a}, {tags: [x]}]",
		"dangling target":    "initial: a\nstates: [{id: a}]\ntransitions: [{from: a, to: z, action: go}]",
		"missing action":     "initial: a\nstates: [{id: a}]\ntransitions: [{from: a, to: a}]",
		"unknown field":      "initial: a\nstates: [{id: a, label: x}]",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestLoad_NamesModelAfterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkout.yaml")
	require.NoError(t, os.WriteFile(path, []byte("initial: a\nstates: [{id: a}]\n"), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "checkout", m.Name)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRoundTripOrderModel(t *testing.T) {
	orig := kripke.OrderModel()
	data, err := FromModel(orig).Marshal()
	require.NoError(t, err)

	back, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, orig.Name, back.Name)
	if diff := cmp.Diff(orig.States(), back.States()); diff != "" {
		t.Errorf("states mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(orig.Transitions(), back.Transitions()); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}
}
