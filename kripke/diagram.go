package kripke

import (
	"fmt"
	"io"
	"strings"
)

// DiagramOption configures diagram generation
type DiagramOption func(*diagramOptions)

type diagramOptions struct {
	showTags bool
	covered  map[string]bool
}

// WithTags includes state tags in node labels and transition tags in edge
// labels
func WithTags() DiagramOption {
	return func(opts *diagramOptions) {
		opts.showTags = true
	}
}

// WithCoveredPaths marks every transition whose action occurs in one of
// the given paths. Paths record actions only, so transitions sharing an
// action name are marked together.
func WithCoveredPaths(paths []PathStat) DiagramOption {
	return func(opts *diagramOptions) {
		if opts.covered == nil {
			opts.covered = make(map[string]bool)
		}
		for _, st := range paths {
			for _, action := range st.Path {
				opts.covered[action] = true
			}
		}
	}
}

func applyDiagramOptions(options []DiagramOption) *diagramOptions {
	opts := &diagramOptions{}
	for _, opt := range options {
		opt(opts)
	}
	return opts
}

// WriteMermaidStateDiagram writes a Mermaid stateDiagram-v2 representation
// of the model to w.
func WriteMermaidStateDiagram(m *Model, w io.Writer, options ...DiagramOption) error {
	opts := applyDiagramOptions(options)
	var sb strings.Builder

	sb.WriteString("stateDiagram-v2\n")
	fmt.Fprintf(&sb, "    [*] --> %s\n", m.Initial)

	for _, t := range m.Transitions() {
		label := t.Action
		if opts.showTags && len(t.Tags) > 0 {
			label += " {" + joinTags(t.Tags) + "}"
		}
		if opts.covered[t.Action] {
			label += " ✓"
		}
		fmt.Fprintf(&sb, "    %s --> %s: %s\n", t.From, t.To, label)
	}

	if opts.showTags {
		sb.WriteString("\n")
		for _, id := range m.States() {
			s, _ := m.GetState(id)
			if tags := s.Tags(); len(tags) > 0 {
				fmt.Fprintf(&sb, "    %s: %s\n", id, joinTags(tags))
			}
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteGraphviz writes a Graphviz DOT representation of the model to w.
// Covered transitions are drawn bold.
func WriteGraphviz(m *Model, w io.Writer, options ...DiagramOption) error {
	opts := applyDiagramOptions(options)
	var sb strings.Builder

	fmt.Fprintf(&sb, "digraph %q {\n", m.Name)
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=circle];\n")
	sb.WriteString("\n")

	// Invisible start node pointing to the initial state
	sb.WriteString("  start [shape=point];\n")
	fmt.Fprintf(&sb, "  start -> %q [label=\"start\"];\n", m.Initial)
	sb.WriteString("\n")

	for _, id := range m.States() {
		s, _ := m.GetState(id)
		tags := s.Tags()
		if opts.showTags && len(tags) > 0 {
			fmt.Fprintf(&sb, "  %q [label=\"%s\\n{%s}\"];\n", id, id, joinTags(tags))
		} else {
			fmt.Fprintf(&sb, "  %q [label=%q];\n", id, id)
		}
	}
	sb.WriteString("\n")

	for _, t := range m.Transitions() {
		label := t.Action
		if opts.showTags && len(t.Tags) > 0 {
			label += "\n{" + joinTags(t.Tags) + "}"
		}
		attrs := fmt.Sprintf("label=%q", label)
		if opts.covered[t.Action] {
			attrs += ", penwidth=2, color=darkgreen"
		}
		fmt.Fprintf(&sb, "  %q -> %q [%s];\n", t.From, t.To, attrs)
	}

	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func joinTags(tags []Tag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}
