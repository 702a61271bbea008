package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/ldmgen/internal/cli/output"
	"github.com/leapstack-labs/ldmgen/internal/dag"
	"github.com/leapstack-labs/ldmgen/pkg/core"
)

// LineageOptions holds options for the lineage command.
type LineageOptions struct {
	Mapping    string
	Entity     string
	Upstream   bool
	Downstream bool
	Depth      int
}

// NewLineageCommand creates the lineage command.
func NewLineageCommand() *cobra.Command {
	opts := &LineageOptions{}

	cmd := &cobra.Command{
		Use:   "lineage [file]",
		Short: "Show how mapped entities are populated",
		Long: `Display the mappings of a document: for every target entity the
source entities it reads, the FROM and JOIN steps that combine them, and the
source attribute feeding each target attribute.

The load order groups mapped entities into levels; an entity only reads
entities of lower levels. With --entity the entities it reads from and feeds
are listed as well.`,
		Example: `  # Show all mappings
  ldmgen lineage

  # Show one mapping as JSON
  ldmgen lineage models/warehouse.ldm --mapping "Load Customer" --output json

  # Show what feeds an entity, two steps deep
  ldmgen lineage --entity Customer --downstream=false --depth 2`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLineage(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Mapping, "mapping", "", "Only show the mapping with this name")
	cmd.Flags().StringVar(&opts.Entity, "entity", "", "Show the lineage of this entity (name, code or ID)")
	cmd.Flags().BoolVar(&opts.Upstream, "upstream", true, "Include upstream entities")
	cmd.Flags().BoolVar(&opts.Downstream, "downstream", true, "Include downstream entities")
	cmd.Flags().IntVar(&opts.Depth, "depth", 0, "Max traversal depth (0 = unlimited)")

	return cmd
}

func runLineage(cmd *cobra.Command, args []string, opts *LineageOptions) error {
	c := NewCommandContext(cmd)
	path, err := c.InputPath(args)
	if err != nil {
		return err
	}
	doc, err := c.LoadDocument(cmd.Context(), path)
	if err != nil {
		return err
	}
	graph := dag.Build(doc)

	mappings := doc.Mappings
	if opts.Mapping != "" {
		mappings = nil
		for _, m := range doc.Mappings {
			if strings.EqualFold(m.Name, opts.Mapping) {
				mappings = append(mappings, m)
			}
		}
		if len(mappings) == 0 {
			return fmt.Errorf("mapping %q not found", opts.Mapping)
		}
	}

	var entity *output.EntityLineage
	if opts.Entity != "" {
		node, ok := graph.Find(opts.Entity)
		if !ok {
			return fmt.Errorf("entity %q not found", opts.Entity)
		}
		entity = &output.EntityLineage{Name: node.Name(), Upstream: []string{}, Downstream: []string{}}
		if opts.Upstream {
			entity.Upstream = nodeNames(graph, graph.Upstream(node.ID, opts.Depth))
		}
		if opts.Downstream {
			entity.Downstream = nodeNames(graph, graph.Downstream(node.ID, opts.Depth))
		}
		if opts.Mapping == "" {
			mappings = node.Mappings
		}
	}

	out := buildLineageOutput(mappings)
	out.Entity = entity
	if order, err := loadOrder(graph); err != nil {
		c.Logger.Warn("mappings form a cycle", slog.String("error", err.Error()))
	} else {
		out.LoadOrder = order
	}

	if c.Renderer.EffectiveMode() == output.ModeJSON {
		return c.Renderer.JSON(out)
	}
	lineageText(c.Renderer, out)
	return nil
}

// loadOrder returns the names of the mapped entities grouped by level.
// Entities no mapping reads or populates are left out.
func loadOrder(g *dag.Graph) ([][]string, error) {
	var mapped []string
	for _, n := range g.Nodes() {
		if len(g.Parents(n.ID)) > 0 || len(g.Children(n.ID)) > 0 {
			mapped = append(mapped, n.ID)
		}
	}
	levels, err := g.Subgraph(mapped).Levels()
	if err != nil {
		return nil, err
	}
	order := make([][]string, len(levels))
	for i, ids := range levels {
		order[i] = nodeNames(g, ids)
	}
	return order, nil
}

func nodeNames(g *dag.Graph, ids []string) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if n, ok := g.Node(id); ok {
			names = append(names, n.Name())
		}
	}
	return names
}

func lineageText(r *output.Renderer, out output.LineageOutput) {
	if e := out.Entity; e != nil {
		r.Header(1, "Lineage of "+e.Name)
		r.KeyValue("Upstream", joinOrNone(e.Upstream))
		r.KeyValue("Downstream", joinOrNone(e.Downstream))
		r.Println("")
	}

	if len(out.Mappings) == 0 {
		r.Muted("No mappings found.")
		return
	}

	if len(out.LoadOrder) > 0 {
		r.Header(2, "Load order")
		for i, level := range out.LoadOrder {
			r.Printf("%d. %s\n", i+1, strings.Join(level, ", "))
		}
		r.Println("")
	}

	r.Header(1, fmt.Sprintf("Lineage (%d mappings)", len(out.Mappings)))
	for _, m := range out.Mappings {
		r.Header(2, fmt.Sprintf("%s -> %s", m.Name, m.Target))
		r.KeyValue("Sources", strings.Join(m.Sources, ", "))

		if len(m.Compositions) > 0 {
			rows := make([][]string, 0, len(m.Compositions))
			for _, c := range m.Compositions {
				rows = append(rows, []string{fmt.Sprint(c.Order), c.Type, c.Entity, c.Alias, strings.Join(c.Conditions, " AND ")})
			}
			r.Table([]string{"#", "Clause", "Entity", "Alias", "On"}, rows)
		}

		if len(m.Attributes) > 0 {
			rows := make([][]string, 0, len(m.Attributes))
			for _, a := range m.Attributes {
				rows = append(rows, []string{a.Target, a.Source})
			}
			r.Table([]string{"Target", "Source"}, rows)
		}
	}
}

func buildLineageOutput(mappings []*core.Mapping) output.LineageOutput {
	out := output.LineageOutput{Mappings: make([]output.MappingInfo, 0, len(mappings))}
	for _, m := range mappings {
		info := output.MappingInfo{
			Name:         m.Name,
			Target:       entityLabel(m.Target),
			Sources:      make([]string, 0, len(m.Sources)),
			Compositions: make([]output.CompositionInfo, 0, len(m.Compositions)),
			Attributes:   make([]output.AttributeEdge, 0, len(m.AttributeMappings)),
		}
		for _, s := range m.Sources {
			info.Sources = append(info.Sources, entityLabel(s))
		}
		for _, c := range m.Compositions {
			clause := c.Clause
			if clause == "" {
				clause = c.Type.String()
			}
			ci := output.CompositionInfo{
				Order:  c.Order,
				Type:   clause,
				Entity: entityLabel(c.Entity),
				Alias:  c.Alias,
			}
			for _, jc := range c.JoinConditions {
				ci.Conditions = append(ci.Conditions, joinConditionText(c.Alias, jc))
			}
			info.Compositions = append(info.Compositions, ci)
		}
		for _, am := range m.AttributeMappings {
			edge := output.AttributeEdge{Target: attributeLabel(am.Target)}
			if am.Source != nil {
				qualifier := am.Source.EntityAlias
				if qualifier == "" {
					qualifier = entityLabel(am.Source.Entity)
				}
				edge.Source = qualifier + "." + attributeLabel(am.Source.Attribute)
			}
			info.Attributes = append(info.Attributes, edge)
		}
		out.Mappings = append(out.Mappings, info)
	}
	return out
}

// joinConditionText renders a condition as "alias.child = parent.attr".
func joinConditionText(alias string, jc *core.JoinCondition) string {
	op := jc.Operator
	if op == "" {
		op = "="
	}
	left := attributeLabel(jc.ChildAttribute)
	if alias != "" {
		left = alias + "." + left
	}
	var right string
	switch {
	case jc.ParentLiteral != nil:
		right = *jc.ParentLiteral
	case jc.ParentAlias != "":
		right = jc.ParentAlias + "." + attributeLabel(jc.ParentAttribute)
	default:
		right = attributeLabel(jc.ParentAttribute)
	}
	return fmt.Sprintf("%s %s %s", left, op, right)
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}

func entityLabel(e *core.Entity) string {
	if e == nil {
		return "?"
	}
	return e.Name
}

func attributeLabel(a *core.Attribute) string {
	if a == nil {
		return "?"
	}
	return a.Name
}
