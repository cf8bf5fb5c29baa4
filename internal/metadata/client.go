// Package metadata adapts the remote validation and submission engine
// to the domain.MetadataEngine interface. Normalized manifests travel
// as multipart uploads; rule findings come back as issue lists.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/datacurio/schemactl/internal/domain"
	"github.com/datacurio/schemactl/internal/utils"
)

// Client implements domain.MetadataEngine over the metadata service's
// REST API.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *utils.Logger
}

var _ domain.MetadataEngine = (*Client)(nil)

// ClientOptions contains options for creating a Client
type ClientOptions struct {
	BaseURL string
	Timeout time.Duration
	Logger  *utils.Logger
}

// NewClient creates a new metadata client
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("metadata base URL is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return &Client{
		baseURL: opts.BaseURL,
		client:  &http.Client{Timeout: opts.Timeout},
		logger:  logger.WithComponent("metadata"),
	}, nil
}

type validateResponse struct {
	Errors   []domain.ValidationIssue `json:"errors"`
	Warnings []domain.ValidationIssue `json:"warnings"`
}

// Validate uploads a normalized manifest and returns the engine's rule
// findings. A non-empty error list is a result, not a failure.
func (c *Client) Validate(ctx context.Context, schemaURL, component, manifestPath string, restrictRules bool) ([]domain.ValidationIssue, []domain.ValidationIssue, error) {
	fields := url.Values{
		"schema_url":     {schemaURL},
		"restrict_rules": {strconv.FormatBool(restrictRules)},
	}
	if component != "" {
		fields.Set("root", component)
	}

	resp, err := c.postManifest(ctx, "/validate", manifestPath, fields)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("metadata validate: unexpected status %d", resp.StatusCode)
	}

	var out validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, nil, fmt.Errorf("metadata validate: %w", err)
	}
	return out.Errors, out.Warnings, nil
}

// Submit uploads a validated manifest for ingestion and returns the
// identifier of the stored manifest.
func (c *Client) Submit(ctx context.Context, req domain.SubmitRequest) (string, error) {
	fields := url.Values{
		"schema_url":         {req.SchemaURL},
		"dataset_id":         {req.DatasetID},
		"record_type":        {req.RecordType},
		"table_manipulation": {req.TableManipulation},
		"use_schema_label":   {strconv.FormatBool(req.UseSchemaLabel)},
		"restrict_rules":     {strconv.FormatBool(req.RestrictRules)},
	}
	if req.RestrictComponent != "" {
		fields.Set("root", req.RestrictComponent)
	}

	resp, err := c.postManifest(ctx, "/submit", req.ManifestPath, fields, withToken(req.AccessToken))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", domain.ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("metadata submit: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		ManifestID string `json:"manifest_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("metadata submit: %w", err)
	}
	return out.ManifestID, nil
}

// Populate merges an uploaded manifest into a freshly generated
// template and returns either a sheet link or a local document path.
func (c *Client) Populate(ctx context.Context, req domain.PopulateRequest) (string, error) {
	fields := url.Values{
		"schema_url":  {req.SchemaURL},
		"root":        {req.Component},
		"title":       {req.Title},
		"as_document": {strconv.FormatBool(req.AsDocument)},
	}

	resp, err := c.postManifest(ctx, "/populate", req.ManifestPath, fields)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("metadata populate: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Link string `json:"link"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("metadata populate: %w", err)
	}
	return out.Link, nil
}

type requestOption func(*http.Request)

func withToken(token string) requestOption {
	return func(r *http.Request) {
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

func (c *Client) postManifest(ctx context.Context, path, manifestPath string, fields url.Values, opts ...requestOption) (*http.Response, error) {
	f, err := os.Open(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("metadata: open manifest: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, values := range fields {
		for _, v := range values {
			if err := w.WriteField(key, v); err != nil {
				return nil, err
			}
		}
	}
	part, err := w.CreateFormFile("file_name", filepath.Base(manifestPath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	for _, opt := range opts {
		opt(req)
	}

	c.logger.Debug().Str("path", path).Str("manifest", manifestPath).Msg("Posting manifest")
	return c.client.Do(req)
}
