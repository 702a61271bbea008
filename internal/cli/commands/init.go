package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/ldmgen/internal/cli/config"
	"github.com/leapstack-labs/ldmgen/internal/generator"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ldmgen project",
		Long: `Initialize a new ldmgen project.

This creates:
  - ldmgen.yaml configuration file
  - models/ directory for data model documents
  - templates/ with editable copies of the DDL templates
  - .gitignore for generated output and the state database`,
		Example: `  # Initialize in current directory
  ldmgen init

  # Initialize in a new directory
  ldmgen init my-project

  # Overwrite existing files
  ldmgen init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(NewCommandContext(cmd), dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")

	return cmd
}

func runInit(c *CommandContext, dir string, force bool) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", config.ConfigFileName)
	}

	files, err := copyTemplate(projectTemplate, dir, force)
	if err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	templates, err := generator.CopyDefaults(filepath.Join(dir, "templates"), force)
	if err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}
	for _, t := range templates {
		if rel, err := filepath.Rel(dir, t); err == nil {
			files = append(files, rel)
		}
	}

	r := c.Renderer
	for _, f := range files {
		r.StatusLine(f, "success", "")
	}

	r.Println("")
	r.Success("ldmgen project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Copy your data model document into models/")
	r.Println("  2. Point input in ldmgen.yaml at it")
	r.Println("  3. Run 'ldmgen extract' to resolve and export it")
	r.Println("  4. Run 'ldmgen generate' and 'ldmgen deploy' to build the schema")

	return nil
}
