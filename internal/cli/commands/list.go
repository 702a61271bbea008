package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/ldmgen/internal/cli/output"
	"github.com/leapstack-labs/ldmgen/pkg/core"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [file]",
		Short: "List the models and entities of a document",
		Long: `List the resolved models of a document with their entities.

External models, whose entities are shortcuts into other documents, are
listed before the document model.

Output adapts to environment:
  - Terminal: Styled tables
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # List the configured input document
  ldmgen list

  # List a file as JSON
  ldmgen list models/warehouse.ldm --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewCommandContext(cmd)
			path, err := c.InputPath(args)
			if err != nil {
				return err
			}
			doc, err := c.LoadDocument(cmd.Context(), path)
			if err != nil {
				return err
			}
			if c.Renderer.EffectiveMode() == output.ModeJSON {
				return c.Renderer.JSON(buildListOutput(doc))
			}
			listText(c.Renderer, doc)
			return nil
		},
	}
	return cmd
}

func listText(r *output.Renderer, doc *core.Document) {
	s := core.Summarize(doc)
	r.Header(1, fmt.Sprintf("Models (%d total, %d entities)", s.Models, s.Entities))

	for _, m := range doc.Models {
		kind := "external"
		if m.IsDocumentModel {
			kind = "document model"
		}
		r.Header(2, fmt.Sprintf("%s (%s)", m.Name, kind))

		rows := make([][]string, 0, len(m.Entities))
		for _, e := range m.Entities {
			rows = append(rows, []string{e.Name, e.Code, fmt.Sprint(len(e.Attributes)), primaryKey(e)})
		}
		if len(rows) == 0 {
			r.Muted("(no entities)")
			r.Println("")
			continue
		}
		r.Table([]string{"Entity", "Code", "Attributes", "Primary key"}, rows)
	}

	if s.Warnings > 0 {
		r.Muted(fmt.Sprintf("%d warnings; run 'ldmgen extract' to see them", s.Warnings))
	}
}

func buildListOutput(doc *core.Document) output.ListOutput {
	s := core.Summarize(doc)
	out := output.ListOutput{
		Models: make([]output.ModelInfo, 0, len(doc.Models)),
		Summary: output.ListSummary{
			Models:   s.Models,
			Entities: s.Entities,
			Mappings: s.Mappings,
			Warnings: s.Warnings,
		},
	}
	for _, m := range doc.Models {
		info := output.ModelInfo{
			ID:              m.ID,
			Name:            m.Name,
			Code:            m.Code,
			IsDocumentModel: m.IsDocumentModel,
			Entities:        make([]output.EntityInfo, 0, len(m.Entities)),
			Relationships:   len(m.Relationships),
		}
		for _, e := range m.Entities {
			info.Entities = append(info.Entities, output.EntityInfo{
				ID:         e.ID,
				Name:       e.Name,
				Code:       e.Code,
				Attributes: len(e.Attributes),
				PrimaryKey: primaryKey(e),
				IsShortcut: e.IsShortcut,
			})
		}
		out.Models = append(out.Models, info)
	}
	return out
}

// primaryKey lists the attribute names of the primary identifier.
func primaryKey(e *core.Entity) string {
	pk := e.PrimaryIdentifier()
	if pk == nil {
		return ""
	}
	names := make([]string, len(pk.Attributes))
	for i, a := range pk.Attributes {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}
