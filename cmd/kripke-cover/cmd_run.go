package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rfielding/kripke-cover/internal/config"
	"github.com/rfielding/kripke-cover/internal/logging"
	"github.com/rfielding/kripke-cover/internal/modelfile"
	"github.com/rfielding/kripke-cover/internal/telemetry"
	"github.com/rfielding/kripke-cover/kripke"
	"github.com/spf13/cobra"
)

type runOptions struct {
	configPath  string
	metricsAddr string
	reportPath  string
	logLevel    string
	diagram     string
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Walk a model and report the paths it covered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWalk(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "HCL run configuration")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the walk")
	cmd.Flags().StringVarP(&opts.reportPath, "report", "o", "", "write the markdown report here instead of stdout")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")
	cmd.Flags().StringVar(&opts.diagram, "diagram", "", "append a diagram to the report: mermaid or dot")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func runWalk(ctx context.Context, outW, errW io.Writer, opts *runOptions) error {
	if opts.diagram != "" && opts.diagram != "mermaid" && opts.diagram != "dot" {
		return fmt.Errorf("unknown diagram format %q", opts.diagram)
	}

	cfg, err := config.Load(opts.configPath, logging.New(opts.logLevel, "text", errW))
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger := logging.New(level, cfg.LogFormat, errW)

	model, err := modelfile.Load(cfg.ModelPath)
	if err != nil {
		return err
	}
	logger.Debug("Model loaded.", "model", model.Name, "states", len(model.States()), "transitions", len(model.Transitions()))

	paths := kripke.NewPathCoverage(cfg.Paths.Sets, logger, kripke.WithPolicy(cfg.Paths.Policy))
	walkerOpts := []kripke.WalkerOption{kripke.WithLogger(logger)}

	var actions *kripke.ActionCoverage
	if cfg.Actions {
		actions = kripke.NewActionCoverage(logger)
		walkerOpts = append(walkerOpts, kripke.WithMetrics(actions))
	}

	reg := prometheus.NewRegistry()
	rec := telemetry.NewRecorder(reg, model.Name)
	walkerOpts = append(walkerOpts, kripke.WithObserver(rec))

	if opts.metricsAddr != "" {
		srv := &http.Server{
			Addr:              opts.metricsAddr,
			Handler:           telemetry.Handler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed.", "addr", opts.metricsAddr, "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("Serving metrics.", "addr", opts.metricsAddr)
	}

	res, walkErr := kripke.NewWalker(model, paths, cfg.Walk, walkerOpts...).Run(ctx)
	rec.ObserveTotals(paths.Totals())

	report, err := buildReport(model, res, paths, actions, opts.diagram)
	if err != nil {
		return err
	}
	if err := writeReport(outW, opts.reportPath, report); err != nil {
		return err
	}
	return walkErr
}

func buildReport(model *kripke.Model, res kripke.WalkResult, paths *kripke.PathCoverage, actions *kripke.ActionCoverage, diagram string) (string, error) {
	var sb strings.Builder
	covered := paths.Paths()

	fmt.Fprintf(&sb, "# Path coverage: %s\n\n", model.Name)
	sb.WriteString(kripke.GenerateWalkSummary(res, paths.Totals()))
	sb.WriteString("\n## Paths\n\n")
	sb.WriteString(kripke.GeneratePathTable(covered))

	if actions != nil {
		fmt.Fprintf(&sb, "\n## Actions\n\n%.0f of %d transitions' actions executed.\n",
			actions.Coverage(), len(model.Transitions()))
	}

	switch diagram {
	case "mermaid":
		sb.WriteString("\n## Diagram\n\n```mermaid\n")
		if err := kripke.WriteMermaidStateDiagram(model, &sb, kripke.WithCoveredPaths(covered)); err != nil {
			return "", err
		}
		sb.WriteString("```\n")
	case "dot":
		sb.WriteString("\n## Diagram\n\n```dot\n")
		if err := kripke.WriteGraphviz(model, &sb, kripke.WithCoveredPaths(covered)); err != nil {
			return "", err
		}
		sb.WriteString("```\n")
	}
	return sb.String(), nil
}

func writeReport(outW io.Writer, path, report string) error {
	if path == "" {
		_, err := io.WriteString(outW, report)
		return err
	}
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}
