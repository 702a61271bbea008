package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/ldmgen/internal/cli/output"
	"github.com/leapstack-labs/ldmgen/internal/generator"
)

// ddlDir is the default directory for generated scripts, under output_dir.
const ddlDir = "ddl"

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "generate [file]",
		Short: "Generate DDL scripts for the document model",
		Long: `Render one CREATE SCHEMA script for the document model and one
CREATE TABLE script per entity.

Scripts are numbered so that their lexical order is the order to apply them
in. Templates in templates_dir replace the built-in ones of the same name;
run 'ldmgen init' to get editable copies.`,
		Example: `  # Generate into <output_dir>/ddl
  ldmgen generate

  # Generate into a custom directory
  ldmgen generate models/warehouse.ldm --dir build/sql`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)
			path, err := c.InputPath(args)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = filepath.Join(c.Cfg.OutputDir, ddlDir)
			}

			scripts, err := c.GenerateScripts(cmd.Context(), path)
			if err != nil {
				return err
			}
			if err := generator.WriteScripts(dir, scripts); err != nil {
				return err
			}

			out := output.GenerateOutput{Dir: dir, Scripts: make([]string, len(scripts))}
			for i, s := range scripts {
				out.Scripts[i] = s.Name
			}
			if c.Renderer.EffectiveMode() == output.ModeJSON {
				return c.Renderer.JSON(out)
			}

			r := c.Renderer
			r.Header(1, "Generate")
			for _, name := range out.Scripts {
				r.StatusLine(name, "success", "")
			}
			r.Println("")
			r.Success(fmt.Sprintf("Wrote %d scripts to %s", len(scripts), dir))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory for the scripts (default <output_dir>/ddl)")

	return cmd
}
