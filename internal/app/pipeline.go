package app

import (
	"context"
	"fmt"

	"github.com/datacurio/schemactl/internal/domain"
	"github.com/datacurio/schemactl/internal/tabular"
	"github.com/datacurio/schemactl/internal/utils"
)

// Submission defaults applied when the caller leaves them unspecified
const (
	DefaultRecordType        = "table_file_and_entities"
	DefaultTableManipulation = "replace"
)

// Pipeline drives validate, submit, and populate for a single filled
// manifest. Stateless across calls; uploads are normalized to tabular
// form before reaching the metadata engine.
type Pipeline struct {
	engine domain.MetadataEngine
	tmpDir string
	logger *utils.Logger
}

// PipelineOptions contains the collaborators of a Pipeline
type PipelineOptions struct {
	Engine  domain.MetadataEngine
	TempDir string
	Logger  *utils.Logger
}

// NewPipeline creates a new Pipeline
func NewPipeline(opts PipelineOptions) (*Pipeline, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("metadata engine is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return &Pipeline{
		engine: opts.Engine,
		tmpDir: opts.TempDir,
		logger: logger.WithComponent("pipeline"),
	}, nil
}

// ValidateParams describes one manifest validation request
type ValidateParams struct {
	SchemaURL     string
	Component     string
	Upload        *domain.ManifestUpload
	RestrictRules bool
}

// Validate checks a filled manifest against the schema's rules. Rule
// violations land in the result, never in the error return; the error
// return is reserved for infrastructure failures such as an unreadable
// upload or an unresolvable schema.
func (p *Pipeline) Validate(ctx context.Context, params ValidateParams) (*domain.ValidationResult, error) {
	manifestPath, err := tabular.Normalize(params.Upload, p.tmpDir)
	if err != nil {
		return nil, err
	}

	issues, warnings, err := p.engine.Validate(ctx, params.SchemaURL, params.Component, manifestPath, params.RestrictRules)
	if err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("data_type", params.Component).
		Int("errors", len(issues)).
		Int("warnings", len(warnings)).
		Msg("Validated manifest")

	return &domain.ValidationResult{
		Errors:   emptyIfNil(issues),
		Warnings: emptyIfNil(warnings),
	}, nil
}

// SubmitParams describes one manifest submission request. Zero values
// select the documented defaults; UseSchemaLabel is tri-state, with nil
// meaning "use default" (true) as opposed to an explicit false.
type SubmitParams struct {
	SchemaURL         string
	Upload            *domain.ManifestUpload
	DatasetID         string
	AccessToken       string
	RestrictComponent string
	RecordType        string
	TableManipulation string
	UseSchemaLabel    *bool
	RestrictRules     bool
}

// Submit normalizes the upload, applies submission defaults, and hands
// the manifest to the submission engine. Returns the identifier of the
// stored manifest.
func (p *Pipeline) Submit(ctx context.Context, params SubmitParams) (string, error) {
	manifestPath, err := tabular.Normalize(params.Upload, p.tmpDir)
	if err != nil {
		return "", err
	}

	recordType := params.RecordType
	if recordType == "" {
		recordType = DefaultRecordType
	}
	tableManipulation := params.TableManipulation
	if tableManipulation == "" {
		tableManipulation = DefaultTableManipulation
	}
	useSchemaLabel := true
	if params.UseSchemaLabel != nil {
		useSchemaLabel = *params.UseSchemaLabel
	}

	manifestID, err := p.engine.Submit(ctx, domain.SubmitRequest{
		SchemaURL:         params.SchemaURL,
		ManifestPath:      manifestPath,
		DatasetID:         params.DatasetID,
		AccessToken:       params.AccessToken,
		RestrictComponent: params.RestrictComponent,
		RecordType:        recordType,
		TableManipulation: tableManipulation,
		UseSchemaLabel:    useSchemaLabel,
		RestrictRules:     params.RestrictRules,
	})
	if err != nil {
		return "", err
	}

	p.logger.Info().
		Str("dataset_id", params.DatasetID).
		Str("manifest_id", manifestID).
		Str("record_type", recordType).
		Msg("Submitted manifest")

	return manifestID, nil
}

// PopulateParams describes one manifest population request
type PopulateParams struct {
	SchemaURL  string
	Component  string
	Upload     *domain.ManifestUpload
	Title      string
	AsDocument bool
}

// Populate fills a template manifest and returns whatever reference the
// population engine produced, unchanged.
func (p *Pipeline) Populate(ctx context.Context, params PopulateParams) (string, error) {
	manifestPath, err := tabular.Normalize(params.Upload, p.tmpDir)
	if err != nil {
		return "", err
	}

	return p.engine.Populate(ctx, domain.PopulateRequest{
		SchemaURL:    params.SchemaURL,
		Component:    params.Component,
		ManifestPath: manifestPath,
		Title:        params.Title,
		AsDocument:   params.AsDocument,
	})
}

func emptyIfNil(issues []domain.ValidationIssue) []domain.ValidationIssue {
	if issues == nil {
		return []domain.ValidationIssue{}
	}
	return issues
}
