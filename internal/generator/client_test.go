package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacurio/schemactl/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientOptions{
		BaseURL: srv.URL,
		TempDir: t.TempDir(),
	})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	t.Parallel()

	_, err := NewClient(ClientOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base URL")
}

func TestGenerateGoogleSheet(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/generate", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://example.com/model.jsonld", body["schema_url"])
		assert.Equal(t, "Patient", body["root"])
		assert.Equal(t, "Example.Patient.manifest", body["title"])
		assert.Equal(t, "ds1", body["dataset_id"])
		assert.Equal(t, "google_sheet", body["output_format"])
		assert.Equal(t, true, body["use_annotations"])

		json.NewEncoder(w).Encode(map[string]string{
			"sheet_url": "https://sheets.example.com/abc",
		})
	})

	artifact, err := client.Generate(context.Background(), domain.GeneratorRequest{
		SchemaURL:      "https://example.com/model.jsonld",
		Component:      "Patient",
		Title:          "Example.Patient.manifest",
		DatasetID:      "ds1",
		OutputFormat:   domain.FormatGoogleSheet,
		UseAnnotations: true,
		AccessToken:    "tok-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://sheets.example.com/abc", artifact.SheetURL)
	assert.Nil(t, artifact.Table)
}

func TestGenerateDataframe(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"table": map[string]any{
				"columns": []string{"Patient ID", "Sex"},
				"rows":    [][]string{},
			},
		})
	})

	artifact, err := client.Generate(context.Background(), domain.GeneratorRequest{
		SchemaURL:    "https://example.com/model.jsonld",
		Component:    "Patient",
		Title:        "Example.Patient.manifest",
		OutputFormat: domain.FormatDataframe,
	})
	require.NoError(t, err)
	require.NotNil(t, artifact.Table)
	assert.Equal(t, []string{"Patient ID", "Sex"}, artifact.Table.Columns)
	assert.Empty(t, artifact.SheetURL)
}

func TestGenerateExcelWritesDocument(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("workbook-bytes"))
	})

	artifact, err := client.Generate(context.Background(), domain.GeneratorRequest{
		SchemaURL:    "https://example.com/model.jsonld",
		Component:    "Patient",
		Title:        "Example.Patient.manifest",
		OutputFormat: domain.FormatExcel,
	})
	require.NoError(t, err)
	require.NotEmpty(t, artifact.Path)
	assert.True(t, strings.HasSuffix(artifact.Path, ".xlsx"))

	data, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	assert.Equal(t, "workbook-bytes", string(data))
}

func TestGenerateExcelUniquePaths(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("workbook"))
	})

	req := domain.GeneratorRequest{
		SchemaURL:    "https://example.com/model.jsonld",
		Component:    "Patient",
		Title:        "Example.Patient.manifest",
		OutputFormat: domain.FormatExcel,
	}

	first, err := client.Generate(context.Background(), req)
	require.NoError(t, err)
	second, err := client.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, first.Path, second.Path)
}

func TestGenerateServerError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Generate(context.Background(), domain.GeneratorRequest{
		SchemaURL:    "https://example.com/model.jsonld",
		Component:    "Patient",
		OutputFormat: domain.FormatGoogleSheet,
	})
	require.Error(t, err)

	var genErr *domain.GeneratorError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, "Patient", genErr.Component)
	assert.Contains(t, err.Error(), "500")
}

func TestGenerateUnreachableService(t *testing.T) {
	t.Parallel()

	client, err := NewClient(ClientOptions{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), domain.GeneratorRequest{
		Component:    "Patient",
		OutputFormat: domain.FormatGoogleSheet,
	})
	var genErr *domain.GeneratorError
	require.True(t, errors.As(err, &genErr))
}
