// Package config loads run configurations written in HCL.
//
// A run config names the model to walk, bounds the walk and declares the
// coverage metrics to attach:
//
//	model         = "order.yaml"
//	steps         = 200
//	restart_every = 25
//	seed          = 7
//
//	coverage "paths" {
//	  from = ["accepted"]
//	  to   = ["delivered"]
//	  drop = ["cancelled"]
//	}
//
//	coverage "actions" {}
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rfielding/kripke-cover/kripke"
)

const (
	DefaultSteps     = 100
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	KindPaths   = "paths"
	KindActions = "actions"
)

// Run is a validated run configuration.
type Run struct {
	ModelPath string // resolved against the config file's directory
	Walk      kripke.WalkConfig
	LogLevel  string
	LogFormat string

	Paths   PathsCoverage
	Actions bool // attach an action coverage metric
}

// PathsCoverage configures the path metric that steers the walk.
type PathsCoverage struct {
	Sets   kripke.TagSets
	Policy kripke.Policy
}

// hclRunFile represents the top-level structure of a run file for decoding.
type hclRunFile struct {
	Model        string         `hcl:"model"`
	Steps        *int           `hcl:"steps,optional"`
	RestartEvery int            `hcl:"restart_every,optional"`
	Seed         int64          `hcl:"seed,optional"`
	LogLevel     string         `hcl:"log_level,optional"`
	LogFormat    string         `hcl:"log_format,optional"`
	Coverage     []*hclCoverage `hcl:"coverage,block"`
}

type hclCoverage struct {
	Kind            string   `hcl:"kind,label"`
	From            []string `hcl:"from,optional"`
	To              []string `hcl:"to,optional"`
	Drop            []string `hcl:"drop,optional"`
	DropBeforeEnd   *bool    `hcl:"drop_before_end,optional"`
	ReopenOnEnd     *bool    `hcl:"reopen_on_end,optional"`
	DropBlocksStart *bool    `hcl:"drop_blocks_start,optional"`
}

// Load parses and validates the run config at filePath.
func Load(filePath string, logger *slog.Logger) (*Run, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
	}
	return decode(file.Body, filePath, logger)
}

// Parse is Load for in-memory sources; filename is used in diagnostics
// and to resolve the model path.
func Parse(src []byte, filename string, logger *slog.Logger) (*Run, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return decode(file.Body, filename, logger)
}

func decode(body hcl.Body, filename string, logger *slog.Logger) (*Run, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var parsed hclRunFile
	if diags := gohcl.DecodeBody(body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	run, err := parsed.toRun(filepath.Dir(filename))
	if err != nil {
		return nil, fmt.Errorf("invalid run file %s: %w", filename, err)
	}

	for pair, tags := range run.Paths.Sets.Overlaps() {
		logger.Warn("Tag sets overlap; precedence policy decides.", "sets", pair, "tags", tags)
	}
	logger.Debug("Successfully decoded run file.", "path", filename, "model", run.ModelPath, "steps", run.Walk.Steps)
	return run, nil
}

func (f *hclRunFile) toRun(baseDir string) (*Run, error) {
	if f.Model == "" {
		return nil, errors.New("model must not be empty")
	}
	run := &Run{
		ModelPath: f.Model,
		Walk: kripke.WalkConfig{
			Steps:        DefaultSteps,
			RestartEvery: f.RestartEvery,
			Seed:         f.Seed,
		},
		LogLevel:  f.LogLevel,
		LogFormat: f.LogFormat,
	}
	if !filepath.IsAbs(run.ModelPath) {
		run.ModelPath = filepath.Join(baseDir, run.ModelPath)
	}
	if f.Steps != nil {
		run.Walk.Steps = *f.Steps
	}
	if run.Walk.Steps <= 0 {
		return nil, fmt.Errorf("steps must be positive, got %d", run.Walk.Steps)
	}
	if run.Walk.RestartEvery < 0 {
		return nil, fmt.Errorf("restart_every must not be negative, got %d", run.Walk.RestartEvery)
	}
	if run.LogLevel == "" {
		run.LogLevel = DefaultLogLevel
	}
	if run.LogFormat == "" {
		run.LogFormat = DefaultLogFormat
	}

	var sawPaths bool
	for _, c := range f.Coverage {
		switch c.Kind {
		case KindPaths:
			if sawPaths {
				return nil, errors.New(`only one coverage "paths" block is allowed`)
			}
			sawPaths = true
			paths, err := c.toPaths()
			if err != nil {
				return nil, err
			}
			run.Paths = paths
		case KindActions:
			run.Actions = true
		default:
			return nil, fmt.Errorf("unknown coverage kind %q", c.Kind)
		}
	}
	if !sawPaths {
		return nil, errors.New(`a coverage "paths" block is required`)
	}
	return run, nil
}

func (c *hclCoverage) toPaths() (PathsCoverage, error) {
	if len(c.From) == 0 {
		return PathsCoverage{}, errors.New(`coverage "paths": from must list at least one tag`)
	}
	if len(c.To) == 0 {
		return PathsCoverage{}, errors.New(`coverage "paths": to must list at least one tag`)
	}

	policy := kripke.DefaultPolicy()
	if c.DropBeforeEnd != nil {
		policy.DropBeforeEnd = *c.DropBeforeEnd
	}
	if c.ReopenOnEnd != nil {
		policy.ReopenOnEnd = *c.ReopenOnEnd
	}
	if c.DropBlocksStart != nil {
		policy.DropBlocksStart = *c.DropBlocksStart
	}

	return PathsCoverage{
		Sets:   kripke.NewTagSets(toTags(c.From), toTags(c.To), toTags(c.Drop)),
		Policy: policy,
	}, nil
}

func toTags(ss []string) []kripke.Tag {
	out := make([]kripke.Tag, len(ss))
	for i, s := range ss {
		out[i] = kripke.Tag(s)
	}
	return out
}
