package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/datacurio/schemactl/internal/domain"
	"github.com/datacurio/schemactl/tests/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func csvUpload(content string) *domain.ManifestUpload {
	return &domain.ManifestUpload{
		Filename:    "manifest.csv",
		ContentType: "text/csv",
		Content:     []byte(content),
	}
}

func jsonUpload(content string) *domain.ManifestUpload {
	return &domain.ManifestUpload{
		Filename:    "manifest.json",
		ContentType: domain.ContentTypeJSON,
		Content:     []byte(content),
	}
}

func newTestPipeline(t *testing.T, engine domain.MetadataEngine) *Pipeline {
	t.Helper()
	p, err := NewPipeline(PipelineOptions{Engine: engine, TempDir: t.TempDir()})
	require.NoError(t, err)
	return p
}

func TestNewPipelineRequiresEngine(t *testing.T) {
	t.Parallel()

	_, err := NewPipeline(PipelineOptions{})
	assert.ErrorContains(t, err, "metadata engine is required")
}

func TestValidateReturnsIssuesNotErrors(t *testing.T) {
	t.Parallel()

	issues := []domain.ValidationIssue{{Row: 2, Column: "Patient ID", Message: "missing value"}}
	warnings := []domain.ValidationIssue{{Row: 3, Column: "Sex", Message: "unexpected value", Value: "X"}}

	engine := &mocks.MockMetadataEngine{}
	engine.On("Validate", mock.Anything, "https://example.com/model.jsonld", "Patient",
		mock.AnythingOfType("string"), false).
		Return(issues, warnings, nil)

	p := newTestPipeline(t, engine)

	result, err := p.Validate(context.Background(), ValidateParams{
		SchemaURL: "https://example.com/model.jsonld",
		Component: "Patient",
		Upload:    csvUpload("Patient ID,Sex\n,Female\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, issues, result.Errors)
	assert.Equal(t, warnings, result.Warnings)

	engine.AssertExpectations(t)
}

func TestValidateEmptyResultIsNotNil(t *testing.T) {
	t.Parallel()

	engine := &mocks.MockMetadataEngine{}
	engine.On("Validate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil, nil)

	p := newTestPipeline(t, engine)

	result, err := p.Validate(context.Background(), ValidateParams{
		SchemaURL: "u",
		Upload:    csvUpload("a,b\n1,2\n"),
	})
	require.NoError(t, err)
	assert.NotNil(t, result.Errors)
	assert.NotNil(t, result.Warnings)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateNormalizesJSONUpload(t *testing.T) {
	t.Parallel()

	engine := &mocks.MockMetadataEngine{}
	engine.On("Validate", mock.Anything, mock.Anything, mock.Anything,
		mock.MatchedBy(func(path string) bool { return strings.HasSuffix(path, ".csv") }),
		mock.Anything).
		Return(nil, nil, nil)

	p := newTestPipeline(t, engine)

	_, err := p.Validate(context.Background(), ValidateParams{
		SchemaURL: "u",
		Upload:    jsonUpload(`[{"Patient ID": "p1", "Sex": "Female"}]`),
	})
	require.NoError(t, err)
	engine.AssertExpectations(t)
}

func TestValidateMalformedJSONUpload(t *testing.T) {
	t.Parallel()

	engine := &mocks.MockMetadataEngine{}
	p := newTestPipeline(t, engine)

	_, err := p.Validate(context.Background(), ValidateParams{
		SchemaURL: "u",
		Upload:    jsonUpload(`{"not": "records"`),
	})
	require.Error(t, err)
	assert.True(t, domain.IsFormatError(err))
	engine.AssertNotCalled(t, "Validate")
}

func TestValidateEngineFailure(t *testing.T) {
	t.Parallel()

	engineErr := errors.New("engine unavailable")
	engine := &mocks.MockMetadataEngine{}
	engine.On("Validate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil, engineErr)

	p := newTestPipeline(t, engine)

	_, err := p.Validate(context.Background(), ValidateParams{
		SchemaURL: "u",
		Upload:    csvUpload("a\n1\n"),
	})
	assert.ErrorIs(t, err, engineErr)
}

func TestSubmitAppliesDefaults(t *testing.T) {
	t.Parallel()

	engine := &mocks.MockMetadataEngine{}
	engine.On("Submit", mock.Anything, mock.MatchedBy(func(req domain.SubmitRequest) bool {
		return req.RecordType == DefaultRecordType &&
			req.TableManipulation == DefaultTableManipulation &&
			req.UseSchemaLabel
	})).Return("mf-123", nil)

	p := newTestPipeline(t, engine)

	manifestID, err := p.Submit(context.Background(), SubmitParams{
		SchemaURL: "u",
		Upload:    csvUpload("a\n1\n"),
		DatasetID: "ds1",
	})
	require.NoError(t, err)
	assert.Equal(t, "mf-123", manifestID)
	engine.AssertExpectations(t)
}

func TestSubmitExplicitOverrides(t *testing.T) {
	t.Parallel()

	useSchemaLabel := false
	engine := &mocks.MockMetadataEngine{}
	engine.On("Submit", mock.Anything, mock.MatchedBy(func(req domain.SubmitRequest) bool {
		return req.RecordType == "file_only" &&
			req.TableManipulation == "upsert" &&
			!req.UseSchemaLabel &&
			req.RestrictComponent == "Patient" &&
			req.RestrictRules
	})).Return("mf-456", nil)

	p := newTestPipeline(t, engine)

	manifestID, err := p.Submit(context.Background(), SubmitParams{
		SchemaURL:         "u",
		Upload:            csvUpload("a\n1\n"),
		DatasetID:         "ds1",
		RestrictComponent: "Patient",
		RecordType:        "file_only",
		TableManipulation: "upsert",
		UseSchemaLabel:    &useSchemaLabel,
		RestrictRules:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, "mf-456", manifestID)
	engine.AssertExpectations(t)
}

func TestSubmitExplicitTrueLabel(t *testing.T) {
	t.Parallel()

	useSchemaLabel := true
	engine := &mocks.MockMetadataEngine{}
	engine.On("Submit", mock.Anything, mock.MatchedBy(func(req domain.SubmitRequest) bool {
		return req.UseSchemaLabel
	})).Return("mf-789", nil)

	p := newTestPipeline(t, engine)

	_, err := p.Submit(context.Background(), SubmitParams{
		SchemaURL:      "u",
		Upload:         csvUpload("a\n1\n"),
		DatasetID:      "ds1",
		UseSchemaLabel: &useSchemaLabel,
	})
	require.NoError(t, err)
	engine.AssertExpectations(t)
}

func TestSubmitEngineFailure(t *testing.T) {
	t.Parallel()

	engine := &mocks.MockMetadataEngine{}
	engine.On("Submit", mock.Anything, mock.Anything).Return("", domain.ErrUnauthorized)

	p := newTestPipeline(t, engine)

	_, err := p.Submit(context.Background(), SubmitParams{
		SchemaURL: "u",
		Upload:    csvUpload("a\n1\n"),
		DatasetID: "ds1",
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestPopulate(t *testing.T) {
	t.Parallel()

	engine := &mocks.MockMetadataEngine{}
	engine.On("Populate", mock.Anything, mock.MatchedBy(func(req domain.PopulateRequest) bool {
		return req.Component == "Patient" && req.Title == "MyStudy" && req.AsDocument
	})).Return("https://sheets.example.com/populated", nil)

	p := newTestPipeline(t, engine)

	link, err := p.Populate(context.Background(), PopulateParams{
		SchemaURL:  "u",
		Component:  "Patient",
		Upload:     csvUpload("a\n1\n"),
		Title:      "MyStudy",
		AsDocument: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://sheets.example.com/populated", link)
	engine.AssertExpectations(t)
}
