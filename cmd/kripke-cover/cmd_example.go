package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rfielding/kripke-cover/internal/modelfile"
	"github.com/rfielding/kripke-cover/kripke"
	"github.com/spf13/cobra"
)

const exampleRunHCL = `model         = "order.yaml"
steps         = 200
restart_every = 25
seed          = 7

coverage "paths" {
  from = ["accepted"]
  to   = ["delivered"]
  drop = ["cancelled"]
}

coverage "actions" {}
`

func newExampleCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "example",
		Short: "Write the order example model and a run config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
			data, err := modelfile.FromModel(kripke.OrderModel()).Marshal()
			if err != nil {
				return err
			}
			files := []struct {
				name string
				data []byte
			}{
				{"order.yaml", data},
				{"run.hcl", []byte(exampleRunHCL)},
			}
			for _, f := range files {
				path := filepath.Join(dir, f.name)
				if err := os.WriteFile(path, f.data, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory to write the example into")
	return cmd
}
