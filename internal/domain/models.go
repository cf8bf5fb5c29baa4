package domain

import "fmt"

// OutputFormat selects the artifact representation returned by manifest
// generation.
type OutputFormat string

const (
	// FormatExcel produces a spreadsheet document written to disk.
	FormatExcel OutputFormat = "excel"
	// FormatGoogleSheet produces a shareable sheet URL.
	FormatGoogleSheet OutputFormat = "google_sheet"
	// FormatDataframe produces an in-memory table.
	FormatDataframe OutputFormat = "dataframe"
)

// Valid reports whether f is a known output format.
func (f OutputFormat) Valid() bool {
	switch f {
	case FormatExcel, FormatGoogleSheet, FormatDataframe:
		return true
	}
	return false
}

// AllManifests is the request keyword that asks for every component
// reachable through the requiresComponent relation instead of an explicit
// component list.
const AllManifests = "all manifests"

// DefaultTitle is the base used for derived manifest titles when the
// request carries none.
const DefaultTitle = "Example"

// ManifestRequestSpec describes one manifest generation request. It is
// treated as immutable after construction: Validate has no side effects
// and the orchestrator never mutates it.
type ManifestRequestSpec struct {
	SchemaURL      string       `json:"schema_url"`
	AccessToken    string       `json:"-"`
	AssetView      string       `json:"asset_view,omitempty"`
	DatasetIDs     []string     `json:"dataset_ids,omitempty"`
	DataTypes      []string     `json:"data_types"`
	Title          string       `json:"title,omitempty"`
	OutputFormat   OutputFormat `json:"output_format"`
	UseAnnotations bool         `json:"use_annotations"`
}

// WantsAllComponents reports whether the request asks for dynamic
// expansion instead of naming components explicitly.
func (s *ManifestRequestSpec) WantsAllComponents() bool {
	return len(s.DataTypes) == 1 && s.DataTypes[0] == AllManifests
}

// Validate checks the cross-parameter invariants of the request.
//
// A non-empty dataset list must pair one-to-one with the data types, and
// the "all manifests" keyword cannot be combined with dataset ids at all.
// Both violations are ConflictErrors.
func (s *ManifestRequestSpec) Validate() error {
	if s.SchemaURL == "" {
		return NewConflictError("schema_url is required")
	}
	if !s.OutputFormat.Valid() {
		return NewConflictError("unknown output_format %q", s.OutputFormat)
	}
	if len(s.DataTypes) == 0 {
		return NewConflictError("at least one data_type is required")
	}
	if len(s.DatasetIDs) == 0 {
		return nil
	}
	if s.WantsAllComponents() {
		return NewConflictError(
			"when submitting %q as the data type, dataset ids cannot also be submitted", AllManifests)
	}
	if len(s.DatasetIDs) != len(s.DataTypes) {
		return NewConflictError(
			"mismatch in the number of data_types (%d) and dataset_ids (%d) submitted",
			len(s.DataTypes), len(s.DatasetIDs))
	}
	return nil
}

// ManifestTitle derives the per-component manifest title.
func (s *ManifestRequestSpec) ManifestTitle(component string) string {
	base := s.Title
	if base == "" {
		base = DefaultTitle
	}
	return fmt.Sprintf("%s.%s.manifest", base, component)
}

// Table is a tabular manifest representation: a header row plus data
// rows, all values carried as strings.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Records converts the table into a list of column→value maps, one per
// row, matching the JSON record form used at the transport boundary.
func (t *Table) Records() []map[string]string {
	records := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		record := make(map[string]string, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(row) {
				record[col] = row[i]
			}
		}
		records = append(records, record)
	}
	return records
}

// Artifact is the tagged result of generating one manifest. Exactly one
// of Path, SheetURL, or Table is populated, selected by Format.
type Artifact struct {
	Component string       `json:"component"`
	Title     string       `json:"title"`
	Format    OutputFormat `json:"format"`
	Path      string       `json:"path,omitempty"`
	SheetURL  string       `json:"sheet_url,omitempty"`
	Table     *Table       `json:"table,omitempty"`
}

// GenerationResult carries the ordered artifacts produced for a request
// together with any non-fatal advisories recorded along the way.
type GenerationResult struct {
	Artifacts  []Artifact `json:"artifacts"`
	Advisories []string   `json:"advisories,omitempty"`
}

// ValidationIssue is one finding from validating a filled manifest
// against schema rules.
type ValidationIssue struct {
	Row     int    `json:"row,omitempty"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// ValidationResult separates "the data failed validation" from "the
// system failed": rule violations land here, never in an error return.
type ValidationResult struct {
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
}

// ManifestUpload is a manifest payload received at the transport
// boundary, before tabular normalization.
type ManifestUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ContentTypeJSON is the declared content type of structured-record
// uploads; anything else is treated as an opaque tabular file.
const ContentTypeJSON = "application/json"

// IsJSON reports whether the upload declared the structured-record type.
func (u *ManifestUpload) IsJSON() bool {
	return u.ContentType == ContentTypeJSON
}

// Credential scopes storage access. The token is opaque: forwarded to
// the backend, never inspected here.
type Credential struct {
	Token     string
	AssetView string
}

// Project is a storage project visible to a credential.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Dataset is a dataset folder within a storage project.
type Dataset struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FileEntry is a file within a storage dataset.
type FileEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
}

// ManifestInfo describes an existing manifest attached to a dataset.
type ManifestInfo struct {
	ID        string `json:"id"`
	DatasetID string `json:"dataset_id"`
	Name      string `json:"name"`
	Component string `json:"component,omitempty"`
}
