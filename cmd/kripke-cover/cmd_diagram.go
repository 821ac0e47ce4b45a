package main

import (
	"fmt"

	"github.com/rfielding/kripke-cover/internal/modelfile"
	"github.com/rfielding/kripke-cover/kripke"
	"github.com/spf13/cobra"
)

func newDiagramCmd() *cobra.Command {
	var (
		modelPath string
		format    string
		withTags  bool
	)
	cmd := &cobra.Command{
		Use:   "diagram",
		Short: "Render a model as a Mermaid or Graphviz diagram",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := modelfile.Load(modelPath)
			if err != nil {
				return err
			}
			var opts []kripke.DiagramOption
			if withTags {
				opts = append(opts, kripke.WithTags())
			}
			switch format {
			case "mermaid":
				return kripke.WriteMermaidStateDiagram(model, cmd.OutOrStdout(), opts...)
			case "dot":
				return kripke.WriteGraphviz(model, cmd.OutOrStdout(), opts...)
			default:
				return fmt.Errorf("unknown diagram format %q", format)
			}
		},
	}
	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "YAML model file")
	cmd.Flags().StringVarP(&format, "format", "f", "mermaid", "mermaid or dot")
	cmd.Flags().BoolVar(&withTags, "tags", false, "label states and edges with their tags")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}
