// Package modelfile reads tagged test models from YAML.
package modelfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rfielding/kripke-cover/kripke"
	"gopkg.in/yaml.v3"
)

// File mirrors the YAML layout of a model.
type File struct {
	Name        string           `yaml:"name"`
	Initial     string           `yaml:"initial"`
	States      []StateSpec      `yaml:"states"`
	Transitions []TransitionSpec `yaml:"transitions"`
}

type StateSpec struct {
	ID   string   `yaml:"id"`
	Tags []string `yaml:"tags,omitempty"`
}

type TransitionSpec struct {
	From   string   `yaml:"from"`
	To     string   `yaml:"to"`
	Action string   `yaml:"action"`
	Tags   []string `yaml:"tags,omitempty"`
}

// Load reads a model file. A model without a name is named after the file.
func Load(path string) (*kripke.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file %s: %w", path, err)
	}
	f, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode model file %s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	m, err := f.Build()
	if err != nil {
		return nil, fmt.Errorf("invalid model file %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes and builds a model from YAML bytes.
func Parse(data []byte) (*kripke.Model, error) {
	f, err := decode(data)
	if err != nil {
		return nil, err
	}
	return f.Build()
}

func decode(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Build validates the file and constructs the model.
func (f *File) Build() (*kripke.Model, error) {
	if f.Initial == "" {
		return nil, errors.New("initial state must be set")
	}

	states := make(map[string]kripke.State, len(f.States))
	for _, s := range f.States {
		if s.ID == "" {
			return nil, errors.New("state with empty id")
		}
		if _, dup := states[s.ID]; dup {
			return nil, fmt.Errorf("duplicate state %s", s.ID)
		}
		states[s.ID] = kripke.NewBasicState(kripke.StateID(s.ID), toTags(s.Tags)...)
	}
	initial, ok := states[f.Initial]
	if !ok {
		return nil, fmt.Errorf("initial state %s is not declared", f.Initial)
	}

	name := f.Name
	if name == "" {
		name = "model"
	}
	m := kripke.NewModel(name, initial)
	for _, s := range f.States {
		m.AddState(states[s.ID])
	}
	for i, t := range f.Transitions {
		if t.Action == "" {
			return nil, fmt.Errorf("transition %d (%s -> %s) has no action", i, t.From, t.To)
		}
		if err := m.AddTransition(kripke.StateID(t.From), kripke.StateID(t.To), t.Action, toTags(t.Tags)...); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// FromModel converts a model back into its file form.
func FromModel(m *kripke.Model) *File {
	f := &File{Name: m.Name, Initial: string(m.Initial)}
	for _, id := range m.States() {
		s, _ := m.GetState(id)
		f.States = append(f.States, StateSpec{ID: string(id), Tags: fromTags(s.Tags())})
	}
	for _, t := range m.Transitions() {
		f.Transitions = append(f.Transitions, TransitionSpec{
			From:   string(t.From),
			To:     string(t.To),
			Action: t.Action,
			Tags:   fromTags(t.Tags),
		})
	}
	return f
}

// Marshal encodes the file as YAML.
func (f *File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

func toTags(ss []string) []kripke.Tag {
	out := make([]kripke.Tag, len(ss))
	for i, s := range ss {
		out[i] = kripke.Tag(s)
	}
	return out
}

func fromTags(tags []kripke.Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}
