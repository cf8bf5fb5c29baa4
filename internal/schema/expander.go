package schema

import (
	"context"
	"slices"

	"github.com/datacurio/schemactl/internal/domain"
	"ocm.software/open-component-model/bindings/go/dag"
)

// Expander resolves a symbolic "all manifests" request into the
// concrete ordered component list by traversing the requiresComponent
// relation. Explicit component lists pass through unchanged.
type Expander struct {
	engine domain.GraphEngine
}

// NewExpander creates a new Expander backed by engine
func NewExpander(engine domain.GraphEngine) *Expander {
	return &Expander{engine: engine}
}

// Expand returns the concrete component list for a request. The
// expansion order is deterministic for a fixed schema: a sorted
// depth-first enumeration of the requirement graph.
func (x *Expander) Expand(ctx context.Context, schemaURL string, dataTypes []string) ([]string, error) {
	if len(dataTypes) != 1 || dataTypes[0] != domain.AllManifests {
		out := make([]string, len(dataTypes))
		copy(out, dataTypes)
		return out, nil
	}

	g, err := x.requirementGraph(ctx, schemaURL)
	if err != nil {
		return nil, err
	}

	components, err := g.TopologicalSort()
	if err != nil {
		return nil, domain.NewSchemaError(schemaURL, err)
	}
	return components, nil
}

// Requirements returns every component reachable from source through
// the requiresComponent relation, excluding source itself.
func (x *Expander) Requirements(ctx context.Context, schemaURL, source string) ([]string, error) {
	g, err := x.requirementGraph(ctx, schemaURL)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{source: true}
	var reachable []string

	var walk func(id string)
	walk = func(id string) {
		vertex, ok := g.Vertices[id]
		if !ok {
			return
		}
		var neighbors []string
		for key := range vertex.Edges {
			neighbors = append(neighbors, key)
		}
		slices.Sort(neighbors)
		for _, n := range neighbors {
			if visited[n] {
				continue
			}
			visited[n] = true
			reachable = append(reachable, n)
			walk(n)
		}
	}
	walk(source)

	return reachable, nil
}

// RequirementEdges returns the requiresComponent edges reachable from
// source as (from, to) pairs in sorted order.
func (x *Expander) RequirementEdges(ctx context.Context, schemaURL, source string) ([][2]string, error) {
	reachable, err := x.Requirements(ctx, schemaURL, source)
	if err != nil {
		return nil, err
	}

	g, err := x.requirementGraph(ctx, schemaURL)
	if err != nil {
		return nil, err
	}

	inScope := map[string]bool{source: true}
	for _, c := range reachable {
		inScope[c] = true
	}

	var edges [][2]string
	for _, edge := range g.GetEdges() {
		if inScope[edge[0]] && inScope[edge[1]] {
			edges = append(edges, edge)
		}
	}
	return edges, nil
}

// requirementGraph builds the requiresComponent DAG of a schema. Only
// nodes incident to at least one requirement edge participate; a cycle
// in the declared requirements is a schema defect.
func (x *Expander) requirementGraph(ctx context.Context, schemaURL string) (*dag.DirectedAcyclicGraph[string], error) {
	graph, err := x.engine.Load(ctx, schemaURL)
	if err != nil {
		return nil, err
	}

	g := dag.NewDirectedAcyclicGraph[string]()
	for _, edge := range graph.Edges(RelationRequiresComponent) {
		if !g.Contains(edge[0]) {
			if err := g.AddVertex(edge[0]); err != nil {
				return nil, domain.NewSchemaError(schemaURL, err)
			}
		}
		if !g.Contains(edge[1]) {
			if err := g.AddVertex(edge[1]); err != nil {
				return nil, domain.NewSchemaError(schemaURL, err)
			}
		}
		if err := g.AddEdge(edge[0], edge[1]); err != nil {
			return nil, domain.NewSchemaError(schemaURL, err)
		}
	}
	return g, nil
}
