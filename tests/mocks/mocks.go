// Package mocks provides shared testify mocks for the domain
// collaborator interfaces.
package mocks

import (
	"context"

	"github.com/datacurio/schemactl/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockGenerator mocks the domain.Generator interface
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, req domain.GeneratorRequest) (*domain.Artifact, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Artifact), args.Error(1)
}

// MockMetadataEngine mocks the domain.MetadataEngine interface
type MockMetadataEngine struct {
	mock.Mock
}

func (m *MockMetadataEngine) Validate(ctx context.Context, schemaURL, component, manifestPath string, restrictRules bool) ([]domain.ValidationIssue, []domain.ValidationIssue, error) {
	args := m.Called(ctx, schemaURL, component, manifestPath, restrictRules)
	var errs, warns []domain.ValidationIssue
	if args.Get(0) != nil {
		errs = args.Get(0).([]domain.ValidationIssue)
	}
	if args.Get(1) != nil {
		warns = args.Get(1).([]domain.ValidationIssue)
	}
	return errs, warns, args.Error(2)
}

func (m *MockMetadataEngine) Submit(ctx context.Context, req domain.SubmitRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockMetadataEngine) Populate(ctx context.Context, req domain.PopulateRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockStorage mocks the domain.Storage interface
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Projects(ctx context.Context, cred domain.Credential) ([]domain.Project, error) {
	args := m.Called(ctx, cred)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Project), args.Error(1)
}

func (m *MockStorage) DatasetsInProject(ctx context.Context, cred domain.Credential, projectID string) ([]domain.Dataset, error) {
	args := m.Called(ctx, cred, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Dataset), args.Error(1)
}

func (m *MockStorage) FilesInDataset(ctx context.Context, cred domain.Credential, datasetID string, fileNames []string, fullPath bool) ([]domain.FileEntry, error) {
	args := m.Called(ctx, cred, datasetID, fileNames, fullPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FileEntry), args.Error(1)
}

func (m *MockStorage) ProjectManifests(ctx context.Context, cred domain.Credential, projectID string) ([]domain.ManifestInfo, error) {
	args := m.Called(ctx, cred, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ManifestInfo), args.Error(1)
}

func (m *MockStorage) DownloadManifest(ctx context.Context, cred domain.Credential, manifestID, newName string) (string, error) {
	args := m.Called(ctx, cred, manifestID, newName)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) DatasetManifest(ctx context.Context, cred domain.Credential, datasetID, newName string) (string, error) {
	args := m.Called(ctx, cred, datasetID, newName)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) InAssetView(ctx context.Context, cred domain.Credential, entityID string) (bool, error) {
	args := m.Called(ctx, cred, entityID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) EntityType(ctx context.Context, cred domain.Credential, entityID string) (string, error) {
	args := m.Called(ctx, cred, entityID)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) ManifestComponent(ctx context.Context, cred domain.Credential, manifestID string) (string, error) {
	args := m.Called(ctx, cred, manifestID)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) AssetViewTable(ctx context.Context, cred domain.Credential) ([]map[string]string, error) {
	args := m.Called(ctx, cred)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]map[string]string), args.Error(1)
}

// MockGraphEngine mocks the domain.GraphEngine interface
type MockGraphEngine struct {
	mock.Mock
}

func (m *MockGraphEngine) Load(ctx context.Context, schemaURL string) (domain.SchemaGraph, error) {
	args := m.Called(ctx, schemaURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.SchemaGraph), args.Error(1)
}
