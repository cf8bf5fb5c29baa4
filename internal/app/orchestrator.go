// Package app coordinates manifest generation and the validate, submit,
// and populate workflows for filled manifests.
package app

import (
	"context"
	"fmt"

	"github.com/datacurio/schemactl/internal/domain"
	"github.com/datacurio/schemactl/internal/schema"
	"github.com/datacurio/schemactl/internal/utils"
)

// Orchestrator turns a manifest request into one or more generated
// artifacts. It holds no per-request state: every call is independent.
type Orchestrator struct {
	expander  *schema.Expander
	generator domain.Generator
	logger    *utils.Logger
}

// OrchestratorOptions contains the collaborators of an Orchestrator
type OrchestratorOptions struct {
	Expander  *schema.Expander
	Generator domain.Generator
	Logger    *utils.Logger
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(opts OrchestratorOptions) (*Orchestrator, error) {
	if opts.Expander == nil {
		return nil, fmt.Errorf("expander is required")
	}
	if opts.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return &Orchestrator{
		expander:  opts.Expander,
		generator: opts.Generator,
		logger:    logger.WithComponent("orchestrator"),
	}, nil
}

// Generate validates the request, expands its component list, and
// produces one artifact per (component, dataset) pair. Spreadsheet
// output is limited to a single artifact; the surplus is reported as an
// advisory, not an error. Generator and schema failures propagate
// unchanged.
func (o *Orchestrator) Generate(ctx context.Context, spec *domain.ManifestRequestSpec) (*domain.GenerationResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	components, err := o.expander.Expand(ctx, spec.SchemaURL, spec.DataTypes)
	if err != nil {
		return nil, err
	}
	if len(components) == 0 {
		return nil, domain.NewConflictError("no components resolved for the request")
	}

	// Pairing is re-checked against the expanded list, not the raw
	// request.
	if len(spec.DatasetIDs) > 0 && len(spec.DatasetIDs) != len(components) {
		return nil, domain.NewConflictError(
			"mismatch in the number of expanded components (%d) and dataset_ids (%d)",
			len(components), len(spec.DatasetIDs))
	}

	o.logger.Info().
		Str("schema_url", spec.SchemaURL).
		Str("output_format", string(spec.OutputFormat)).
		Int("components", len(components)).
		Int("dataset_ids", len(spec.DatasetIDs)).
		Msg("Generating manifests")

	if spec.OutputFormat == domain.FormatExcel {
		return o.generateExcel(ctx, spec, components)
	}
	return o.generateEach(ctx, spec, components)
}

// generateExcel produces exactly one spreadsheet artifact from the
// first component and, when supplied, the first dataset id.
func (o *Orchestrator) generateExcel(ctx context.Context, spec *domain.ManifestRequestSpec, components []string) (*domain.GenerationResult, error) {
	result := &domain.GenerationResult{}

	component := components[0]
	title := spec.ManifestTitle(component)

	if len(components) > 1 {
		advisory := fmt.Sprintf(
			"returning multiple manifests as Excel is not supported; only %s will be returned", title)
		o.logger.Warn().Str("title", title).Msg(advisory)
		result.Advisories = append(result.Advisories, advisory)
	}

	var datasetID string
	if len(spec.DatasetIDs) > 0 {
		datasetID = spec.DatasetIDs[0]
		if len(spec.DatasetIDs) > 1 {
			advisory := fmt.Sprintf(
				"returning multiple manifests as Excel is not supported; only the manifest for dataset id %s will be returned with title %s",
				datasetID, title)
			o.logger.Warn().Str("dataset_id", datasetID).Msg(advisory)
			result.Advisories = append(result.Advisories, advisory)
		}
	}

	artifact, err := o.generateOne(ctx, spec, component, datasetID, title)
	if err != nil {
		return nil, err
	}
	result.Artifacts = []domain.Artifact{*artifact}
	return result, nil
}

// generateEach produces one artifact per component in input order,
// pairing each with its dataset id when ids were supplied.
func (o *Orchestrator) generateEach(ctx context.Context, spec *domain.ManifestRequestSpec, components []string) (*domain.GenerationResult, error) {
	result := &domain.GenerationResult{
		Artifacts: make([]domain.Artifact, 0, len(components)),
	}
	for i, component := range components {
		var datasetID string
		if len(spec.DatasetIDs) > 0 {
			datasetID = spec.DatasetIDs[i]
		}
		artifact, err := o.generateOne(ctx, spec, component, datasetID, spec.ManifestTitle(component))
		if err != nil {
			return nil, err
		}
		result.Artifacts = append(result.Artifacts, *artifact)
	}
	return result, nil
}

func (o *Orchestrator) generateOne(ctx context.Context, spec *domain.ManifestRequestSpec, component, datasetID, title string) (*domain.Artifact, error) {
	o.logger.Debug().
		Str("data_type", component).
		Str("dataset_id", datasetID).
		Str("title", title).
		Msg("Requesting manifest")

	artifact, err := o.generator.Generate(ctx, domain.GeneratorRequest{
		SchemaURL:      spec.SchemaURL,
		Component:      component,
		Title:          title,
		DatasetID:      datasetID,
		OutputFormat:   spec.OutputFormat,
		UseAnnotations: spec.UseAnnotations,
		AccessToken:    spec.AccessToken,
	})
	if err != nil {
		return nil, err
	}
	artifact.Component = component
	artifact.Title = title
	artifact.Format = spec.OutputFormat
	return artifact, nil
}
