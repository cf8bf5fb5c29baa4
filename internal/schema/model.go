package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/datacurio/schemactl/internal/domain"
)

// Relation names used by the schema documents
const (
	RelationRequiresComponent  = "requiresComponent"
	RelationRequiresDependency = "requiresDependency"
)

// Engine parses JSON-LD schema documents into immutable Graph
// snapshots. It implements domain.GraphEngine.
type Engine struct {
	loader *Loader
}

var _ domain.GraphEngine = (*Engine)(nil)

// NewEngine creates a new JSON-LD graph engine backed by loader
func NewEngine(loader *Loader) *Engine {
	return &Engine{loader: loader}
}

// Load fetches and parses the schema document behind schemaURL
func (e *Engine) Load(ctx context.Context, schemaURL string) (domain.SchemaGraph, error) {
	data, err := e.loader.Fetch(ctx, schemaURL)
	if err != nil {
		return nil, err
	}
	graph, err := Parse(data)
	if err != nil {
		return nil, domain.NewSchemaError(schemaURL, err)
	}
	return graph, nil
}

// jsonldDocument is the subset of a JSON-LD data model document the
// graph needs.
type jsonldDocument struct {
	Graph []jsonldNode `json:"@graph"`
}

type jsonldNode struct {
	ID                 string      `json:"@id"`
	Label              string      `json:"rdfs:label"`
	DisplayName        string      `json:"sms:displayName"`
	Required           requiredVal `json:"sms:required"`
	RequiresComponent  refList     `json:"sms:requiresComponent"`
	RequiresDependency refList     `json:"sms:requiresDependency"`
	RangeIncludes      refList     `json:"schema:rangeIncludes"`
	ValidationRules    []string    `json:"sms:validationRules"`
}

// refList accepts both a single {"@id": ...} object and a list of them
type refList []string

func (r *refList) UnmarshalJSON(data []byte) error {
	type ref struct {
		ID string `json:"@id"`
	}
	var many []ref
	if err := json.Unmarshal(data, &many); err == nil {
		for _, item := range many {
			*r = append(*r, stripPrefix(item.ID))
		}
		return nil
	}
	var one ref
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*r = append(*r, stripPrefix(one.ID))
	return nil
}

// requiredVal accepts the "sms:true"/"sms:false" string encoding as
// well as a plain boolean
type requiredVal bool

func (v *requiredVal) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = requiredVal(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = requiredVal(s == "sms:true" || s == "true")
	return nil
}

// stripPrefix removes a namespace prefix such as "bts:" from an @id
func stripPrefix(id string) string {
	if i := strings.IndexByte(id, ':'); i >= 0 {
		return id[i+1:]
	}
	return id
}

// node is one parsed schema node
type node struct {
	label           string
	displayName     string
	required        bool
	dependencies    []string // schema-declared order
	components      []string // requiresComponent targets, declared order
	nodeRange       []string // declared order
	validationRules []string
}

// Graph is an immutable snapshot of one parsed schema document. It is
// safe for concurrent readers; every accessor returns copies.
type Graph struct {
	order     []string // node labels in schema declaration order
	nodes     map[string]*node
	byDisplay map[string]*node
}

var _ domain.SchemaGraph = (*Graph)(nil)

// Parse decodes a JSON-LD data model document into a Graph
func Parse(data []byte) (*Graph, error) {
	var doc jsonldDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse JSON-LD: %w", err)
	}
	if len(doc.Graph) == 0 {
		return nil, fmt.Errorf("schema document has no @graph nodes")
	}

	g := &Graph{
		nodes:     make(map[string]*node, len(doc.Graph)),
		byDisplay: make(map[string]*node, len(doc.Graph)),
	}
	for _, jn := range doc.Graph {
		label := jn.Label
		if label == "" {
			label = stripPrefix(jn.ID)
		}
		if label == "" {
			continue
		}
		display := jn.DisplayName
		if display == "" {
			display = label
		}
		n := &node{
			label:           label,
			displayName:     display,
			required:        bool(jn.Required),
			dependencies:    jn.RequiresDependency,
			components:      jn.RequiresComponent,
			nodeRange:       jn.RangeIncludes,
			validationRules: jn.ValidationRules,
		}
		if _, dup := g.nodes[label]; dup {
			continue
		}
		g.order = append(g.order, label)
		g.nodes[label] = n
		// First declaration wins, matching the duplicate-label guard.
		if _, dup := g.byDisplay[display]; !dup {
			g.byDisplay[display] = n
		}
	}
	return g, nil
}

// Nodes returns every node label in schema declaration order
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Edges returns the (from, to) pairs of the given relation in schema
// declaration order.
func (g *Graph) Edges(relation string) [][2]string {
	var edges [][2]string
	for _, label := range g.order {
		n := g.nodes[label]
		var targets []string
		switch relation {
		case RelationRequiresComponent:
			targets = n.components
		case RelationRequiresDependency:
			targets = n.dependencies
		}
		for _, to := range targets {
			edges = append(edges, [2]string{label, to})
		}
	}
	return edges
}

// lookup resolves a node by label first, then by display name, then by
// the class label derived from the display name.
func (g *Graph) lookup(name string) (*node, error) {
	if n, ok := g.nodes[name]; ok {
		return n, nil
	}
	if n, ok := g.byDisplay[name]; ok {
		return n, nil
	}
	if n, ok := g.nodes[ClassLabel(name)]; ok {
		return n, nil
	}
	return nil, fmt.Errorf("node %q: %w", name, domain.ErrNotFound)
}

// Dependencies returns the immediate dependencies of a node. With
// schemaOrdered the result follows the schema's declared attribute
// order; otherwise it is sorted (graph-native order, cheaper to serve).
func (g *Graph) Dependencies(name string, displayNames, schemaOrdered bool) ([]string, error) {
	n, err := g.lookup(name)
	if err != nil {
		return nil, err
	}
	deps := make([]string, len(n.dependencies))
	copy(deps, n.dependencies)
	if !schemaOrdered {
		sort.Strings(deps)
	}
	if displayNames {
		deps = g.DisplayNames(deps)
	}
	return deps, nil
}

// Range returns the valid values associated with a node
func (g *Graph) Range(name string, displayNames bool) ([]string, error) {
	n, err := g.lookup(name)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(n.nodeRange))
	copy(values, n.nodeRange)
	if displayNames {
		values = g.DisplayNames(values)
	}
	return values, nil
}

// IsRequired reports whether the node with the given display name is
// required.
func (g *Graph) IsRequired(displayName string) (bool, error) {
	n, err := g.lookup(displayName)
	if err != nil {
		return false, err
	}
	return n.required, nil
}

// ValidationRules returns the validation rule descriptors of a node
func (g *Graph) ValidationRules(displayName string) ([]string, error) {
	n, err := g.lookup(displayName)
	if err != nil {
		return nil, err
	}
	rules := make([]string, len(n.validationRules))
	copy(rules, n.validationRules)
	return rules, nil
}

// DisplayNames maps node labels to display names, preserving input
// order. Labels not present in the schema map to themselves.
func (g *Graph) DisplayNames(labels []string) []string {
	out := make([]string, len(labels))
	for i, label := range labels {
		if n, ok := g.nodes[label]; ok {
			out[i] = n.displayName
		} else {
			out[i] = label
		}
	}
	return out
}
