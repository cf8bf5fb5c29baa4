package schema

import (
	"context"

	"github.com/datacurio/schemactl/internal/domain"
)

// Resolver answers node-level queries against a schema reference. It is
// stateless across calls: every query loads the schema through the
// engine, which serves parsed snapshots from its cache.
type Resolver struct {
	engine domain.GraphEngine
}

// NewResolver creates a new Resolver backed by engine
func NewResolver(engine domain.GraphEngine) *Resolver {
	return &Resolver{engine: engine}
}

// Dependencies returns the immediate dependencies of node.
// schemaOrdered selects the schema's declared attribute order at the
// cost of latency; otherwise the order is graph-native.
func (r *Resolver) Dependencies(ctx context.Context, schemaURL, node string, displayNames, schemaOrdered bool) ([]string, error) {
	g, err := r.engine.Load(ctx, schemaURL)
	if err != nil {
		return nil, err
	}
	deps, err := g.Dependencies(node, displayNames, schemaOrdered)
	if err != nil {
		return nil, wrap(schemaURL, err)
	}
	return deps, nil
}

// Range returns the valid values associated with node
func (r *Resolver) Range(ctx context.Context, schemaURL, node string, displayNames bool) ([]string, error) {
	g, err := r.engine.Load(ctx, schemaURL)
	if err != nil {
		return nil, err
	}
	values, err := g.Range(node, displayNames)
	if err != nil {
		return nil, wrap(schemaURL, err)
	}
	return values, nil
}

// IsRequired reports whether the node with the given display name is
// required.
func (r *Resolver) IsRequired(ctx context.Context, schemaURL, displayName string) (bool, error) {
	g, err := r.engine.Load(ctx, schemaURL)
	if err != nil {
		return false, err
	}
	required, err := g.IsRequired(displayName)
	if err != nil {
		return false, wrap(schemaURL, err)
	}
	return required, nil
}

// ValidationRules returns the validation rule descriptors of a node
func (r *Resolver) ValidationRules(ctx context.Context, schemaURL, displayName string) ([]string, error) {
	g, err := r.engine.Load(ctx, schemaURL)
	if err != nil {
		return nil, err
	}
	rules, err := g.ValidationRules(displayName)
	if err != nil {
		return nil, wrap(schemaURL, err)
	}
	return rules, nil
}

// DisplayNames maps node labels to display names, preserving input
// order.
func (r *Resolver) DisplayNames(ctx context.Context, schemaURL string, labels []string) ([]string, error) {
	g, err := r.engine.Load(ctx, schemaURL)
	if err != nil {
		return nil, err
	}
	return g.DisplayNames(labels), nil
}

// EdgesByRelation returns every (from, to) pair connected by the given
// relation, in schema declaration order. Unknown relations yield an
// empty edge list, not an error.
func (r *Resolver) EdgesByRelation(ctx context.Context, schemaURL, relation string) ([][2]string, error) {
	g, err := r.engine.Load(ctx, schemaURL)
	if err != nil {
		return nil, err
	}
	return g.Edges(relation), nil
}

// PropertyLabelFor converts a display name into a property label after
// confirming the schema reference resolves. The transform itself never
// consults the graph.
func (r *Resolver) PropertyLabelFor(ctx context.Context, schemaURL, displayName string, strictCamelCase bool) (string, error) {
	if _, err := r.engine.Load(ctx, schemaURL); err != nil {
		return "", err
	}
	return PropertyLabel(displayName, strictCamelCase), nil
}

// wrap folds node lookup failures into the schema error taxonomy;
// SchemaError is the only failure mode these queries expose.
func wrap(schemaURL string, err error) error {
	if domain.IsSchemaError(err) {
		return err
	}
	return domain.NewSchemaError(schemaURL, err)
}
