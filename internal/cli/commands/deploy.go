package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/ldmgen/internal/cli/output"
	"github.com/leapstack-labs/ldmgen/internal/deploy"
)

// NewDeployCommand creates the deploy command.
func NewDeployCommand() *cobra.Command {
	var dir string
	var generate bool

	cmd := &cobra.Command{
		Use:   "deploy [file]",
		Short: "Apply DDL scripts to the target database",
		Long: `Apply the generated DDL scripts to the configured target, in the
lexical order of their names. Deployment stops at the first failing script.

With --generate the scripts are rendered from the document and applied
directly, without reading them from disk.`,
		Example: `  # Apply <output_dir>/ddl to the dev target
  ldmgen deploy

  # Render and apply in one step against the prod environment
  ldmgen deploy models/warehouse.ldm --generate --env prod`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)
			ctx := cmd.Context()
			if dir == "" {
				dir = filepath.Join(c.Cfg.OutputDir, ddlDir)
			}

			target, closeTarget, err := c.OpenTarget(ctx)
			if err != nil {
				return err
			}
			defer closeTarget()

			d := deploy.New(target, c.Logger)
			var res *deploy.Result
			if generate {
				path, perr := c.InputPath(args)
				if perr != nil {
					return perr
				}
				scripts, gerr := c.GenerateScripts(ctx, path)
				if gerr != nil {
					return gerr
				}
				res, err = d.ApplyScripts(ctx, scripts)
			} else {
				res, err = d.Apply(ctx, dir)
			}
			if res == nil {
				return err
			}
			return renderDeploy(c.Renderer, c.Cfg.Target.Type, res, err)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory of the scripts (default <output_dir>/ddl)")
	cmd.Flags().BoolVar(&generate, "generate", false, "Render scripts from the document instead of reading them")

	return cmd
}

func renderDeploy(r *output.Renderer, targetType string, res *deploy.Result, deployErr error) error {
	if r.EffectiveMode() == output.ModeJSON {
		out := output.DeployOutput{
			Target:     targetType,
			Applied:    res.Applied,
			DurationMS: res.Duration.Milliseconds(),
		}
		if out.Applied == nil {
			out.Applied = []string{}
		}
		if deployErr != nil {
			msg := deployErr.Error()
			out.Error = &msg
		}
		if err := r.JSON(out); err != nil {
			return err
		}
		return deployErr
	}

	r.Header(1, fmt.Sprintf("Deploy (%s)", targetType))
	for _, name := range res.Applied {
		r.StatusLine(name, "success", "")
	}

	var scriptErr *deploy.ScriptError
	if errors.As(deployErr, &scriptErr) {
		r.StatusLine(scriptErr.Script, "failed", scriptErr.Err.Error())
	}
	r.Println("")

	if deployErr != nil {
		r.Muted(fmt.Sprintf("Applied %d scripts before the failure", len(res.Applied)))
		return deployErr
	}
	r.Success(fmt.Sprintf("Applied %d scripts in %s", len(res.Applied), res.Duration.Round(time.Millisecond)))
	return nil
}
