package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/ldmgen/internal/pdxml"
)

// NewDumpCommand creates the dump command.
func NewDumpCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "dump [file]",
		Short: "Dump the raw document tree as JSON",
		Long: `Decode a data model document and write its raw tree as JSON,
without resolving it. The dump can be read back by every other command in
place of the original file.`,
		Example: `  # Print the tree
  ldmgen dump models/warehouse.ldm

  # Save it next to the document
  ldmgen dump models/warehouse.ldm --out models/warehouse.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)
			path, err := c.InputPath(args)
			if err != nil {
				return err
			}
			root, err := pdxml.ReadFile(path)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out) //nolint:gosec // path is provided by the user
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}
			if err := pdxml.EncodeJSON(w, root); err != nil {
				return err
			}
			if out != "" {
				c.Renderer.Success("Wrote " + out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Write to this file instead of stdout")

	return cmd
}
