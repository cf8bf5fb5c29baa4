package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/datacurio/schemactl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(ClientOptions{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		Retrier: RetrierOptions{
			MaxRetries:      2,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
		},
		TempDir: t.TempDir(),
	})
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	t.Parallel()

	_, err := NewClient(ClientOptions{})
	assert.ErrorContains(t, err, "base URL is required")
}

func TestProjects(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "av-1", r.Header.Get("X-Asset-View"))
		json.NewEncoder(w).Encode([]domain.Project{{ID: "syn1", Name: "Study A"}})
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	projects, err := c.Projects(context.Background(),
		domain.Credential{Token: "tok-1", AssetView: "av-1"})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Study A", projects[0].Name)
}

func TestFilesInDatasetQuery(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/datasets/ds1/files", r.URL.Path)
		assert.Equal(t, []string{"a.csv", "b.csv"}, r.URL.Query()["file_name"])
		assert.Equal(t, "true", r.URL.Query().Get("full_path"))
		json.NewEncoder(w).Encode([]domain.FileEntry{{ID: "f1", Name: "a.csv", Path: "/data/a.csv"}})
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	files, err := c.FilesInDataset(context.Background(), domain.Credential{},
		"ds1", []string{"a.csv", "", "b.csv"}, true)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "/data/a.csv", files[0].Path)
}

func TestUnauthorizedMapsToSentinel(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	_, err := c.Projects(context.Background(), domain.Credential{Token: "bad"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	var storageErr *domain.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, http.StatusForbidden, storageErr.StatusCode)
}

func TestNotFoundMapsToSentinel(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	_, err := c.EntityType(context.Background(), domain.Credential{}, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServerErrorsAreRetried(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode([]domain.Project{})
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	_, err := c.Projects(context.Background(), domain.Credential{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestDownloadManifest(t *testing.T) {
	t.Parallel()

	content := "Patient ID,Sex\np1,Female\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/manifests/mf-1/content", r.URL.Path)
		w.Write([]byte(content))
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	path, err := c.DownloadManifest(context.Background(), domain.Credential{}, "mf-1", "renamed.csv")
	require.NoError(t, err)

	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(saved))
	assert.Contains(t, path, "renamed.csv")
}

func TestDatasetManifestDefaultName(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/datasets/ds1/manifest", r.URL.Path)
		w.Write([]byte("a,b\n1,2\n"))
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	path, err := c.DatasetManifest(context.Background(), domain.Credential{}, "ds1", "")
	require.NoError(t, err)
	assert.Contains(t, path, "ds1.manifest.csv")
}

func TestInAssetView(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/assetview/entities/syn42", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]bool{"present": true})
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	present, err := c.InAssetView(context.Background(), domain.Credential{}, "syn42")
	require.NoError(t, err)
	assert.True(t, present)
}

func TestEntityType(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/entities/syn42/type", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"type": "dataset"})
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	entityType, err := c.EntityType(context.Background(), domain.Credential{}, "syn42")
	require.NoError(t, err)
	assert.Equal(t, "dataset", entityType)
}

func TestManifestComponent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/manifests/mf-42/component", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"component": "Biospecimen"})
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	component, err := c.ManifestComponent(context.Background(), domain.Credential{}, "mf-42")
	require.NoError(t, err)
	assert.Equal(t, "Biospecimen", component)
}

func TestAssetViewTable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/assetview/table", r.URL.Path)
		assert.Equal(t, "av-1", r.Header.Get("X-Asset-View"))
		json.NewEncoder(w).Encode([]map[string]string{{"id": "syn1", "name": "a.csv"}})
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	records, err := c.AssetViewTable(context.Background(), domain.Credential{AssetView: "av-1"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a.csv", records[0]["name"])
}
