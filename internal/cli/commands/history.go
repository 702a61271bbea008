package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/ldmgen/internal/cli/output"
	"github.com/leapstack-labs/ldmgen/pkg/core"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int
	var showWarnings bool

	cmd := &cobra.Command{
		Use:   "history [file]",
		Short: "Show recorded extraction runs",
		Long: `List the extraction runs recorded in the state database, newest
first. Given a file, only the latest run of that document is shown together
with its warnings.`,
		Example: `  # Show the last 10 runs
  ldmgen history

  # Show the latest run of a document
  ldmgen history models/warehouse.ldm

  # Include warnings, as JSON
  ldmgen history --warnings --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)
			store, cleanup, err := c.OpenStore()
			if err != nil {
				return err
			}
			defer cleanup()

			var runs []*core.Run
			if len(args) > 0 {
				path, err := c.InputPath(args)
				if err != nil {
					return err
				}
				latest, err := store.GetLatestRun(path)
				if err != nil {
					return err
				}
				if latest != nil {
					runs = append(runs, latest)
				}
				showWarnings = true
			} else if runs, err = store.ListRuns(limit); err != nil {
				return err
			}

			out := output.HistoryOutput{Runs: make([]output.RunInfo, 0, len(runs))}
			for _, run := range runs {
				info := toRunInfo(run)
				if showWarnings {
					warnings, err := store.GetWarnings(run.ID)
					if err != nil {
						return err
					}
					for _, w := range warnings {
						info.Warnings = append(info.Warnings, w.String())
					}
				}
				out.Runs = append(out.Runs, info)
			}

			if c.Renderer.EffectiveMode() == output.ModeJSON {
				return c.Renderer.JSON(out)
			}
			historyText(c.Renderer, out)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of runs to show (0 = all)")
	cmd.Flags().BoolVar(&showWarnings, "warnings", false, "Include the warnings of each run")

	return cmd
}

func historyText(r *output.Renderer, out output.HistoryOutput) {
	if len(out.Runs) == 0 {
		r.Muted("No runs recorded.")
		return
	}

	r.Header(1, fmt.Sprintf("Runs (%d)", len(out.Runs)))
	rows := make([][]string, 0, len(out.Runs))
	for _, run := range out.Runs {
		rows = append(rows, []string{
			shortID(run.ID),
			filepath.Base(run.Source),
			run.Status,
			run.StartedAt,
			fmt.Sprint(run.Summary.Entities),
			fmt.Sprint(run.Summary.Warnings),
		})
	}
	r.Table([]string{"Run", "Source", "Status", "Started", "Entities", "Warnings"}, rows)

	for _, run := range out.Runs {
		if run.Error != nil {
			r.Error(fmt.Sprintf("%s: %s", shortID(run.ID), *run.Error))
		}
		if len(run.Warnings) == 0 {
			continue
		}
		r.Header(2, "Warnings of "+shortID(run.ID))
		for _, w := range run.Warnings {
			r.Println("- " + w)
		}
	}
}

func toRunInfo(run *core.Run) output.RunInfo {
	info := output.RunInfo{
		ID:        run.ID,
		Source:    run.SourcePath,
		Status:    string(run.Status),
		StartedAt: run.StartedAt.Format(time.RFC3339),
		Summary:   toSummary(run.Summary),
	}
	if run.CompletedAt != nil {
		info.CompletedAt = run.CompletedAt.Format(time.RFC3339)
	}
	if run.Error != "" {
		msg := run.Error
		info.Error = &msg
	}
	return info
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
