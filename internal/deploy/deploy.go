// Package deploy applies generated DDL scripts to a deployment target.
package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/leapstack-labs/ldmgen/internal/generator"
	"github.com/leapstack-labs/ldmgen/pkg/core"
)

// ScriptError reports the script that failed.
type ScriptError struct {
	Script string
	Err    error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script %s: %v", e.Script, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }

// Result summarizes a deployment.
type Result struct {
	Applied  []string
	Duration time.Duration
}

// Deployer runs scripts through an adapter, one after the other.
type Deployer struct {
	target core.Adapter
	logger *slog.Logger
}

// New creates a Deployer for a connected adapter.
func New(target core.Adapter, logger *slog.Logger) *Deployer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Deployer{target: target, logger: logger}
}

// Scripts lists the *.sql files of dir in lexical order.
func Scripts(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// Apply executes every *.sql file of dir in lexical order and stops at the
// first failing script. Scripts applied before the failure are reported in
// the result.
func (d *Deployer) Apply(ctx context.Context, dir string) (*Result, error) {
	paths, err := Scripts(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no *.sql scripts in %s", dir)
	}

	scripts := make([]generator.Script, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p) //nolint:gosec // scripts come from the configured output directory
		if err != nil {
			return nil, fmt.Errorf("failed to read script: %w", err)
		}
		scripts = append(scripts, generator.Script{Name: filepath.Base(p), SQL: string(content)})
	}
	return d.ApplyScripts(ctx, scripts)
}

// ApplyScripts executes scripts in the given order and stops at the first
// failure.
func (d *Deployer) ApplyScripts(ctx context.Context, scripts []generator.Script) (*Result, error) {
	start := time.Now()
	res := &Result{}

	for _, s := range scripts {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		d.logger.Info("executing script", slog.String("script", s.Name), slog.String("dialect", d.target.DialectName()))
		if err := d.target.Exec(ctx, s.SQL); err != nil {
			d.logger.Error("script failed", slog.String("script", s.Name), slog.String("error", err.Error()))
			res.Duration = time.Since(start)
			return res, &ScriptError{Script: s.Name, Err: err}
		}
		res.Applied = append(res.Applied, s.Name)
	}

	res.Duration = time.Since(start)
	return res, nil
}
