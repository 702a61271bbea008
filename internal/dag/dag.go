// Package dag provides the entity dependency graph of a resolved document.
// An edge runs from every source entity of a mapping to the entity the
// mapping populates, so parents must be loaded before their children.
package dag

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/leapstack-labs/ldmgen/pkg/core"
)

// Node is one entity of the graph.
type Node struct {
	// ID is the entity ID.
	ID     string
	Entity *core.Entity
	// Mappings are the mappings populating the entity.
	Mappings []*core.Mapping
}

// Name returns the entity name, or the ID for entities without one.
func (n *Node) Name() string {
	if n.Entity != nil && n.Entity.Name != "" {
		return n.Entity.Name
	}
	return n.ID
}

// Graph is a directed graph of entities.
type Graph struct {
	nodes   map[string]*Node
	edges   map[string][]string // parent -> children (dependents)
	parents map[string][]string // child -> parents (dependencies)
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// Build creates the graph of a document: every entity of every model, and
// one edge per mapping source. A mapping reading its own target adds no edge.
func Build(doc *core.Document) *Graph {
	g := NewGraph()
	if doc == nil {
		return g
	}
	for _, m := range doc.Models {
		for _, e := range m.Entities {
			g.AddEntity(e)
		}
	}
	for _, m := range doc.Mappings {
		if m.Target == nil {
			continue
		}
		target := g.AddEntity(m.Target)
		target.Mappings = append(target.Mappings, m)
		for _, src := range m.Sources {
			if src == nil || src.ID == m.Target.ID {
				continue
			}
			g.AddEntity(src)
			_ = g.AddEdge(src.ID, m.Target.ID)
		}
	}
	return g
}

// AddEntity adds an entity, returning its node. Adding an entity twice
// returns the existing node.
func (g *Graph) AddEntity(e *core.Entity) *Node {
	if n, exists := g.nodes[e.ID]; exists {
		return n
	}
	n := &Node{ID: e.ID, Entity: e}
	g.nodes[e.ID] = n
	g.edges[e.ID] = []string{}
	g.parents[e.ID] = []string{}
	return n
}

// AddEdge adds a directed edge from parent to child (child depends on parent).
func (g *Graph) AddEdge(parentID, childID string) error {
	if _, exists := g.nodes[parentID]; !exists {
		return fmt.Errorf("parent node %q does not exist", parentID)
	}
	if _, exists := g.nodes[childID]; !exists {
		return fmt.Errorf("child node %q does not exist", childID)
	}
	if parentID == childID {
		return fmt.Errorf("self-loop detected: %s", parentID)
	}

	if !slices.Contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !slices.Contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}
	return nil
}

// Node returns a node by ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, exists := g.nodes[id]
	return n, exists
}

// Find returns the node whose entity has the given ID, name or code.
// Names and codes match case-insensitively.
func (g *Graph) Find(ref string) (*Node, bool) {
	if n, ok := g.nodes[ref]; ok {
		return n, true
	}
	for _, n := range g.Nodes() {
		if n.Entity == nil {
			continue
		}
		if strings.EqualFold(n.Entity.Name, ref) || (n.Entity.Code != "" && strings.EqualFold(n.Entity.Code, ref)) {
			return n, true
		}
	}
	return nil, false
}

// Parents returns the dependencies of a node.
func (g *Graph) Parents(id string) []string {
	return g.parents[id]
}

// Children returns the dependents of a node.
func (g *Graph) Children(id string) []string {
	return g.edges[id]
}

// Nodes returns all nodes ordered by ID.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID < nodes[j].ID
	})
	return nodes
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, children := range g.edges {
		count += len(children)
	}
	return count
}

// HasCycle reports whether the graph contains a cycle, along with the
// cycle path.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	from := make(map[string]string)

	var cycle []string
	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		onStack[id] = true

		for _, child := range g.edges[id] {
			if !visited[child] {
				from[child] = id
				if dfs(child) {
					return true
				}
			} else if onStack[child] {
				cycle = []string{child}
				for curr := id; curr != child; curr = from[curr] {
					cycle = append([]string{curr}, cycle...)
				}
				cycle = append([]string{child}, cycle...)
				return true
			}
		}

		onStack[id] = false
		return false
	}

	for _, n := range g.Nodes() {
		if !visited[n.ID] && dfs(n.ID) {
			return true, cycle
		}
	}
	return false, nil
}

// TopologicalSort returns nodes with dependencies before dependents.
// Returns an error if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]*Node, error) {
	if hasCycle, path := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %s", strings.Join(path, " -> "))
	}

	visited := make(map[string]bool)
	var result []*Node

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, parent := range g.parents[id] {
			visit(parent)
		}
		result = append(result, g.nodes[id])
	}

	for _, n := range g.Nodes() {
		visit(n.ID)
	}
	return result, nil
}

// Levels groups node IDs by load level. Level 0 holds entities that depend
// on nothing; entities at level N only read entities of lower levels.
func (g *Graph) Levels() ([][]string, error) {
	if hasCycle, path := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %s", strings.Join(path, " -> "))
	}

	assigned := make(map[string]int)
	var level func(id string) int
	level = func(id string) int {
		if l, ok := assigned[id]; ok {
			return l
		}
		l := 0
		for _, parent := range g.parents[id] {
			l = max(l, level(parent)+1)
		}
		assigned[id] = l
		return l
	}

	maxLevel := -1
	for id := range g.nodes {
		maxLevel = max(maxLevel, level(id))
	}

	levels := make([][]string, maxLevel+1)
	for id, l := range assigned {
		levels[l] = append(levels[l], id)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}

// Upstream returns the IDs of the entities id reads from, directly or
// transitively, up to depth steps away. A depth of 0 means unlimited.
func (g *Graph) Upstream(id string, depth int) []string {
	return g.walk(id, depth, g.parents)
}

// Downstream returns the IDs of the entities populated from id, directly
// or transitively, up to depth steps away. A depth of 0 means unlimited.
func (g *Graph) Downstream(id string, depth int) []string {
	return g.walk(id, depth, g.edges)
}

func (g *Graph) walk(id string, depth int, next map[string][]string) []string {
	seen := map[string]bool{id: true}
	frontier := []string{id}
	var result []string

	for step := 1; len(frontier) > 0 && (depth <= 0 || step <= depth); step++ {
		var following []string
		for _, curr := range frontier {
			for _, n := range next[curr] {
				if seen[n] {
					continue
				}
				seen[n] = true
				result = append(result, n)
				following = append(following, n)
			}
		}
		frontier = following
	}

	sort.Strings(result)
	return result
}

// Roots returns nodes with no dependencies.
func (g *Graph) Roots() []string {
	var roots []string
	for id := range g.nodes {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}

// Leaves returns nodes with no dependents.
func (g *Graph) Leaves() []string {
	var leaves []string
	for id := range g.nodes {
		if len(g.edges[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	sort.Strings(leaves)
	return leaves
}

// Subgraph returns a new graph containing only the given nodes and the
// edges between them.
func (g *Graph) Subgraph(ids []string) *Graph {
	sub := NewGraph()
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		if n, exists := g.nodes[id]; exists {
			keep[id] = true
			sub.nodes[id] = n
			sub.edges[id] = []string{}
			sub.parents[id] = []string{}
		}
	}
	for id := range keep {
		for _, child := range g.edges[id] {
			if keep[child] {
				_ = sub.AddEdge(id, child)
			}
		}
	}
	return sub
}
