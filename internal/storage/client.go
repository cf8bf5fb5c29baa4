// Package storage is a thin REST adapter over the remote asset store:
// project, dataset, and file listing plus manifest download. The store
// itself is an external collaborator; nothing here reimplements it.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/datacurio/schemactl/internal/domain"
	"github.com/datacurio/schemactl/internal/utils"
)

// Client implements domain.Storage over the asset store's REST API
type Client struct {
	baseURL string
	client  *http.Client
	retrier *Retrier
	tmpDir  string
	logger  *utils.Logger
}

var _ domain.Storage = (*Client)(nil)

// ClientOptions contains options for creating a Client
type ClientOptions struct {
	BaseURL string
	Timeout time.Duration
	Retrier RetrierOptions
	TempDir string
	Logger  *utils.Logger
}

// NewClient creates a new storage client
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("storage base URL is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return &Client{
		baseURL: opts.BaseURL,
		client:  &http.Client{Timeout: opts.Timeout},
		retrier: NewRetrier(opts.Retrier),
		tmpDir:  opts.TempDir,
		logger:  logger.WithComponent("storage"),
	}, nil
}

// Projects lists the storage projects visible to the credential
func (c *Client) Projects(ctx context.Context, cred domain.Credential) ([]domain.Project, error) {
	var projects []domain.Project
	err := c.getJSON(ctx, cred, "/projects", nil, &projects)
	return projects, err
}

// DatasetsInProject lists the datasets within a project
func (c *Client) DatasetsInProject(ctx context.Context, cred domain.Credential, projectID string) ([]domain.Dataset, error) {
	var datasets []domain.Dataset
	path := fmt.Sprintf("/projects/%s/datasets", url.PathEscape(projectID))
	err := c.getJSON(ctx, cred, path, nil, &datasets)
	return datasets, err
}

// FilesInDataset lists the files within a dataset, optionally filtered
// by name.
func (c *Client) FilesInDataset(ctx context.Context, cred domain.Credential, datasetID string, fileNames []string, fullPath bool) ([]domain.FileEntry, error) {
	query := url.Values{}
	for _, name := range fileNames {
		if name != "" {
			query.Add("file_name", name)
		}
	}
	if fullPath {
		query.Set("full_path", "true")
	}

	var files []domain.FileEntry
	path := fmt.Sprintf("/datasets/%s/files", url.PathEscape(datasetID))
	err := c.getJSON(ctx, cred, path, query, &files)
	return files, err
}

// ProjectManifests lists the manifests attached to a project's datasets
func (c *Client) ProjectManifests(ctx context.Context, cred domain.Credential, projectID string) ([]domain.ManifestInfo, error) {
	var manifests []domain.ManifestInfo
	path := fmt.Sprintf("/projects/%s/manifests", url.PathEscape(projectID))
	err := c.getJSON(ctx, cred, path, nil, &manifests)
	return manifests, err
}

// DownloadManifest downloads a manifest by its identifier and returns
// the local file path.
func (c *Client) DownloadManifest(ctx context.Context, cred domain.Credential, manifestID, newName string) (string, error) {
	path := fmt.Sprintf("/manifests/%s/content", url.PathEscape(manifestID))
	return c.download(ctx, cred, path, manifestID, newName)
}

// DatasetManifest downloads the manifest attached to a dataset and
// returns the local file path.
func (c *Client) DatasetManifest(ctx context.Context, cred domain.Credential, datasetID, newName string) (string, error) {
	path := fmt.Sprintf("/datasets/%s/manifest", url.PathEscape(datasetID))
	return c.download(ctx, cred, path, datasetID, newName)
}

// InAssetView reports whether the entity is listed in the credential's
// asset view.
func (c *Client) InAssetView(ctx context.Context, cred domain.Credential, entityID string) (bool, error) {
	var result struct {
		Present bool `json:"present"`
	}
	path := fmt.Sprintf("/assetview/entities/%s", url.PathEscape(entityID))
	if err := c.getJSON(ctx, cred, path, nil, &result); err != nil {
		return false, err
	}
	return result.Present, nil
}

// ManifestComponent returns the component a stored manifest was
// generated for.
func (c *Client) ManifestComponent(ctx context.Context, cred domain.Credential, manifestID string) (string, error) {
	var result struct {
		Component string `json:"component"`
	}
	path := fmt.Sprintf("/manifests/%s/component", url.PathEscape(manifestID))
	if err := c.getJSON(ctx, cred, path, nil, &result); err != nil {
		return "", err
	}
	return result.Component, nil
}

// AssetViewTable returns the asset view's file table as records
func (c *Client) AssetViewTable(ctx context.Context, cred domain.Credential) ([]map[string]string, error) {
	var records []map[string]string
	err := c.getJSON(ctx, cred, "/assetview/table", nil, &records)
	return records, err
}

// EntityType returns the type of a storage entity
func (c *Client) EntityType(ctx context.Context, cred domain.Credential, entityID string) (string, error) {
	var result struct {
		Type string `json:"type"`
	}
	path := fmt.Sprintf("/entities/%s/type", url.PathEscape(entityID))
	if err := c.getJSON(ctx, cred, path, nil, &result); err != nil {
		return "", err
	}
	return result.Type, nil
}

// getJSON performs an authenticated GET and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, cred domain.Credential, path string, query url.Values, out any) error {
	return c.retrier.Retry(ctx, func() error {
		body, err := c.get(ctx, cred, path, query)
		if err != nil {
			return err
		}
		defer body.Close()
		if err := json.NewDecoder(body).Decode(out); err != nil {
			return domain.NewStorageError(path, 0, err)
		}
		return nil
	})
}

// download performs an authenticated GET and streams the response into
// a request-unique temp file.
func (c *Client) download(ctx context.Context, cred domain.Credential, path, id, newName string) (string, error) {
	name := newName
	if name == "" {
		name = id + ".manifest.csv"
	}
	dest := utils.TempFilePath(c.tmpDir, name)

	err := c.retrier.Retry(ctx, func() error {
		body, err := c.get(ctx, cred, path, nil)
		if err != nil {
			return err
		}
		defer body.Close()

		f, err := os.Create(dest)
		if err != nil {
			return domain.NewStorageError(path, 0, err)
		}
		defer f.Close()

		if _, err := io.Copy(f, body); err != nil {
			os.Remove(dest)
			return domain.NewStorageError(path, 0, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	c.logger.Debug().Str("path", dest).Msg("Downloaded manifest")
	return dest, nil
}

func (c *Client) get(ctx context.Context, cred domain.Credential, path string, query url.Values) (io.ReadCloser, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, domain.NewStorageError(path, 0, err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	if cred.AssetView != "" {
		req.Header.Set("X-Asset-View", cred.AssetView)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.NewStorageError(path, 0, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp.Body, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, domain.NewStorageError(path, resp.StatusCode, domain.ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, domain.NewStorageError(path, resp.StatusCode, domain.ErrNotFound)
	default:
		resp.Body.Close()
		return nil, domain.NewStorageError(path, resp.StatusCode,
			fmt.Errorf("unexpected status"))
	}
}
