package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/datacurio/schemactl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEngine serves one pre-parsed graph for any schema reference.
type stubEngine struct {
	graph domain.SchemaGraph
	err   error
}

func (s *stubEngine) Load(ctx context.Context, schemaURL string) (domain.SchemaGraph, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.graph, nil
}

func testExpander(t *testing.T) *Expander {
	t.Helper()
	return NewExpander(&stubEngine{graph: parseTestModel(t)})
}

func TestExpandPassthrough(t *testing.T) {
	t.Parallel()

	x := testExpander(t)

	requested := []string{"Patient", "Biospecimen"}
	components, err := x.Expand(context.Background(), "https://example.com/model.jsonld", requested)
	require.NoError(t, err)
	assert.Equal(t, requested, components)

	// The input slice is copied, not aliased.
	components[0] = "mutated"
	assert.Equal(t, "Patient", requested[0])
}

func TestExpandAllManifests(t *testing.T) {
	t.Parallel()

	x := testExpander(t)

	components, err := x.Expand(context.Background(), "https://example.com/model.jsonld",
		[]string{domain.AllManifests})
	require.NoError(t, err)

	// Requirement targets come before the components that require them,
	// and only components incident to a requirement edge participate.
	assert.Equal(t, []string{"Patient", "Biospecimen", "ScRNASeq"}, components)
}

func TestExpandAllManifestsDeterministic(t *testing.T) {
	t.Parallel()

	x := testExpander(t)

	first, err := x.Expand(context.Background(), "u", []string{domain.AllManifests})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := x.Expand(context.Background(), "u", []string{domain.AllManifests})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestExpandKeywordAmongOthersIsLiteral(t *testing.T) {
	t.Parallel()

	x := testExpander(t)

	requested := []string{domain.AllManifests, "Patient"}
	components, err := x.Expand(context.Background(), "u", requested)
	require.NoError(t, err)
	assert.Equal(t, requested, components)
}

func TestExpandEngineError(t *testing.T) {
	t.Parallel()

	loadErr := domain.NewSchemaError("u", errors.New("unreachable"))
	x := NewExpander(&stubEngine{err: loadErr})

	_, err := x.Expand(context.Background(), "u", []string{domain.AllManifests})
	assert.ErrorIs(t, err, loadErr)
}

func TestExpandCyclicRequirements(t *testing.T) {
	t.Parallel()

	cyclic, err := Parse([]byte(`{
	  "@graph": [
	    {"@id": "bts:A", "rdfs:label": "A", "sms:requiresComponent": {"@id": "bts:B"}},
	    {"@id": "bts:B", "rdfs:label": "B", "sms:requiresComponent": {"@id": "bts:A"}}
	  ]
	}`))
	require.NoError(t, err)

	x := NewExpander(&stubEngine{graph: cyclic})
	_, err = x.Expand(context.Background(), "u", []string{domain.AllManifests})
	require.Error(t, err)
	assert.True(t, domain.IsSchemaError(err))
}

func TestRequirements(t *testing.T) {
	t.Parallel()

	x := testExpander(t)

	reqs, err := x.Requirements(context.Background(), "u", "ScRNASeq")
	require.NoError(t, err)
	assert.Equal(t, []string{"Biospecimen", "Patient"}, reqs)

	// A leaf component requires nothing.
	leaf, err := x.Requirements(context.Background(), "u", "Patient")
	require.NoError(t, err)
	assert.Empty(t, leaf)

	// Unknown components yield an empty result, not an error.
	unknown, err := x.Requirements(context.Background(), "u", "Missing")
	require.NoError(t, err)
	assert.Empty(t, unknown)
}

func TestRequirementEdges(t *testing.T) {
	t.Parallel()

	x := testExpander(t)

	edges, err := x.RequirementEdges(context.Background(), "u", "ScRNASeq")
	require.NoError(t, err)
	assert.Equal(t, [][2]string{
		{"Biospecimen", "Patient"},
		{"ScRNASeq", "Biospecimen"},
	}, edges)

	// Scoped to the reachable set: starting from Biospecimen excludes
	// the ScRNASeq edge.
	edges, err = x.RequirementEdges(context.Background(), "u", "Biospecimen")
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"Biospecimen", "Patient"}}, edges)
}
