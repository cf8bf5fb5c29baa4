package domain

import (
	"context"
	"time"
)

// GraphEngine loads a schema reference and produces its graph. Parsed
// graphs are immutable snapshots: safe for concurrent readers, never
// mutated in place.
type GraphEngine interface {
	// Load resolves and parses the schema document behind schemaURL.
	Load(ctx context.Context, schemaURL string) (SchemaGraph, error)
}

// SchemaGraph is a read-only view of a parsed schema: components,
// relations between them, and per-node metadata.
type SchemaGraph interface {
	// Nodes returns every node label in the graph.
	Nodes() []string
	// Edges returns the (from, to) pairs connected by the given
	// relation, e.g. "requiresComponent".
	Edges(relation string) [][2]string
	// Dependencies returns the immediate dependencies of a node.
	// schemaOrdered trades speed for the schema's declared attribute
	// order; otherwise the order is graph-native (sorted).
	Dependencies(node string, displayNames, schemaOrdered bool) ([]string, error)
	// Range returns the valid values associated with a node.
	Range(node string, displayNames bool) ([]string, error)
	// IsRequired reports whether the node with the given display name
	// is required.
	IsRequired(displayName string) (bool, error)
	// ValidationRules returns the validation rule descriptors of a node
	// identified by display name.
	ValidationRules(displayName string) ([]string, error)
	// DisplayNames maps node labels to display names, preserving input
	// order. Unknown labels map to themselves.
	DisplayNames(labels []string) []string
}

// GeneratorRequest describes one manifest artifact to produce.
type GeneratorRequest struct {
	SchemaURL      string
	Component      string
	Title          string
	DatasetID      string
	OutputFormat   OutputFormat
	UseAnnotations bool
	AccessToken    string
}

// Generator produces a single manifest artifact for a root component.
// Spreadsheet rendering and sheet provisioning live behind this
// interface; the orchestrator only sequences calls to it.
type Generator interface {
	Generate(ctx context.Context, req GeneratorRequest) (*Artifact, error)
}

// SubmitRequest carries a normalized manifest into the submission engine.
type SubmitRequest struct {
	SchemaURL         string
	ManifestPath      string
	DatasetID         string
	AccessToken       string
	RestrictComponent string
	RecordType        string
	TableManipulation string
	UseSchemaLabel    bool
	RestrictRules     bool
}

// PopulateRequest carries a template manifest into the population engine.
type PopulateRequest struct {
	SchemaURL    string
	Component    string
	ManifestPath string
	Title        string
	AsDocument   bool
}

// MetadataEngine validates, submits, and populates filled manifests
// against a schema. Rule violations come back as issues, not errors:
// the error return is reserved for infrastructure failures.
type MetadataEngine interface {
	Validate(ctx context.Context, schemaURL, component, manifestPath string, restrictRules bool) (errors, warnings []ValidationIssue, err error)
	Submit(ctx context.Context, req SubmitRequest) (manifestID string, err error)
	Populate(ctx context.Context, req PopulateRequest) (linkOrPath string, err error)
}

// Storage is the remote asset store: projects, datasets, files, and
// manifest download. Consumed, not reimplemented; the client in
// internal/storage is a thin adapter over its REST surface.
type Storage interface {
	Projects(ctx context.Context, cred Credential) ([]Project, error)
	DatasetsInProject(ctx context.Context, cred Credential, projectID string) ([]Dataset, error)
	FilesInDataset(ctx context.Context, cred Credential, datasetID string, fileNames []string, fullPath bool) ([]FileEntry, error)
	ProjectManifests(ctx context.Context, cred Credential, projectID string) ([]ManifestInfo, error)
	DownloadManifest(ctx context.Context, cred Credential, manifestID, newName string) (string, error)
	DatasetManifest(ctx context.Context, cred Credential, datasetID, newName string) (string, error)
	InAssetView(ctx context.Context, cred Credential, entityID string) (bool, error)
	EntityType(ctx context.Context, cred Credential, entityID string) (string, error)
	// ManifestComponent returns the component a stored manifest was
	// generated for.
	ManifestComponent(ctx context.Context, cred Credential, manifestID string) (string, error)
	// AssetViewTable returns the asset view's file table as records.
	AssetViewTable(ctx context.Context, cred Credential) ([]map[string]string, error)
}

// Cache defines the interface for schema document caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value in cache with TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Has checks if a key exists in cache
	Has(ctx context.Context, key string) bool
	// Delete removes a key from cache
	Delete(ctx context.Context, key string) error
	// Close releases cache resources
	Close() error
}
