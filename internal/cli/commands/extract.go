package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/ldmgen/internal/cli/output"
	"github.com/leapstack-labs/ldmgen/internal/export"
	"github.com/leapstack-labs/ldmgen/internal/state"
	"github.com/leapstack-labs/ldmgen/pkg/core"
)

// watchDebounce groups the bursts of events an editor emits on save.
const watchDebounce = 100 * time.Millisecond

// NewExtractCommand creates the extract command.
func NewExtractCommand() *cobra.Command {
	var watch bool
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Resolve a data model document and export it",
		Long: `Resolve a logical data model document into models, entities,
relationships and mappings, and write the result to the output directory.

The document may be the model file itself or its JSON dump. Each run is
recorded in the state database together with its warnings.`,
		Example: `  # Extract the document configured as input
  ldmgen extract

  # Extract a file as YAML
  ldmgen extract models/warehouse.ldm --export-format yaml

  # Re-extract whenever the file changes
  ldmgen extract models/warehouse.ldm --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)
			path, err := c.InputPath(args)
			if err != nil {
				return err
			}
			format, err := export.ParseFormat(c.Cfg.ExportFormat)
			if err != nil {
				return err
			}

			run := func() error { return runExtract(cmd.Context(), c, path, format, !noHistory) }
			if err := run(); err != nil && !watch {
				return err
			} else if err != nil {
				c.Renderer.Error(err.Error())
			}
			if !watch {
				return nil
			}
			return watchFile(cmd.Context(), c, path, run)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-extract when the document changes")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record the run in the state database")

	return cmd
}

func runExtract(ctx context.Context, c *CommandContext, path string, format export.Format, record bool) error {
	var (
		store *state.SQLiteStore
		run   *core.Run
	)
	if record {
		var cleanup func()
		var err error
		if store, cleanup, err = c.OpenStore(); err != nil {
			return err
		}
		defer cleanup()
		if run, err = store.CreateRun(path); err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
	}

	fail := func(err error) error {
		if store != nil {
			if cerr := store.CompleteRun(run.ID, core.RunStatusFailed, core.RunSummary{}, err.Error()); cerr != nil {
				c.Logger.Error("failed to record run", slog.String("error", cerr.Error()))
			}
		}
		return err
	}

	doc, err := c.LoadDocument(ctx, path)
	if err != nil {
		return fail(err)
	}

	outPath := filepath.Join(c.Cfg.OutputDir, export.FileName(path, format))
	if err := export.WriteFile(outPath, doc, format); err != nil {
		return fail(err)
	}

	summary := core.Summarize(doc)
	if store != nil {
		if err := store.SaveWarnings(run.ID, doc.Warnings); err != nil {
			return fail(fmt.Errorf("failed to record warnings: %w", err))
		}
		if err := store.CompleteRun(run.ID, core.RunStatusCompleted, summary, ""); err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
	}

	c.Logger.Info("extracted document",
		slog.String("source", path),
		slog.String("output", outPath),
		slog.Int("warnings", summary.Warnings))

	var runID string
	if run != nil {
		runID = run.ID
	}
	return renderExtract(c.Renderer, runID, path, outPath, summary, doc.Warnings)
}

func renderExtract(r *output.Renderer, runID, source, outPath string, s core.RunSummary, warnings []core.Warning) error {
	if r.EffectiveMode() == output.ModeJSON {
		out := output.ExtractOutput{
			RunID:    runID,
			Source:   source,
			Output:   outPath,
			Summary:  toSummary(s),
			Warnings: make([]string, 0, len(warnings)),
		}
		for _, w := range warnings {
			out.Warnings = append(out.Warnings, w.String())
		}
		return r.JSON(out)
	}

	r.Header(1, "Extracted "+filepath.Base(source))
	r.KeyValue("Models", fmt.Sprint(s.Models))
	r.KeyValue("Entities", fmt.Sprint(s.Entities))
	r.KeyValue("Mappings", fmt.Sprint(s.Mappings))
	r.KeyValue("Warnings", fmt.Sprint(s.Warnings))
	r.KeyValue("Output", outPath)
	if runID != "" {
		r.KeyValue("Run", runID)
	}
	r.Println("")
	for _, w := range warnings {
		r.Warning(w.String())
	}
	return nil
}

func toSummary(s core.RunSummary) output.Summary {
	return output.Summary{Models: s.Models, Entities: s.Entities, Mappings: s.Mappings, Warnings: s.Warnings}
}

// watchFile calls run after each change of path until ctx is done. Failed
// runs are reported and watching continues.
func watchFile(ctx context.Context, c *CommandContext, path string, run func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors often replace the file on save, so the directory is watched.
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	c.Renderer.Muted(fmt.Sprintf("Watching %s for changes (Ctrl+C to stop)", path))

	changes := make(chan struct{}, 1)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, func() {
				select {
				case changes <- struct{}{}:
				default:
				}
			})

		case <-changes:
			c.Logger.Info("change detected", slog.String("file", filepath.Base(path)))
			if err := run(); err != nil {
				c.Renderer.Error(err.Error())
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.Logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}
