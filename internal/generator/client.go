// Package generator adapts the remote manifest generation service to
// the domain.Generator interface. Spreadsheet rendering and sheet
// provisioning happen on the service side; this client only moves
// requests and artifacts.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/datacurio/schemactl/internal/domain"
	"github.com/datacurio/schemactl/internal/utils"
)

// Client implements domain.Generator over the generation service's
// REST API.
type Client struct {
	baseURL string
	client  *http.Client
	tmpDir  string
	logger  *utils.Logger
}

var _ domain.Generator = (*Client)(nil)

// ClientOptions contains options for creating a Client
type ClientOptions struct {
	BaseURL string
	Timeout time.Duration
	TempDir string
	Logger  *utils.Logger
}

// NewClient creates a new generator client
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("generator base URL is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return &Client{
		baseURL: opts.BaseURL,
		client:  &http.Client{Timeout: opts.Timeout},
		tmpDir:  opts.TempDir,
		logger:  logger.WithComponent("generator"),
	}, nil
}

type generateBody struct {
	SchemaURL      string `json:"schema_url"`
	Component      string `json:"root"`
	Title          string `json:"title"`
	DatasetID      string `json:"dataset_id,omitempty"`
	OutputFormat   string `json:"output_format"`
	UseAnnotations bool   `json:"use_annotations"`
}

type generateResponse struct {
	SheetURL string        `json:"sheet_url,omitempty"`
	Table    *domain.Table `json:"table,omitempty"`
}

// Generate requests one manifest artifact. Spreadsheet responses are
// streamed into a request-unique temp file so a failure can never leave
// a partial file under a name a later request would reuse.
func (c *Client) Generate(ctx context.Context, req domain.GeneratorRequest) (*domain.Artifact, error) {
	body, err := json.Marshal(generateBody{
		SchemaURL:      req.SchemaURL,
		Component:      req.Component,
		Title:          req.Title,
		DatasetID:      req.DatasetID,
		OutputFormat:   string(req.OutputFormat),
		UseAnnotations: req.UseAnnotations,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, &domain.GeneratorError{Component: req.Component, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.AccessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.AccessToken)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &domain.GeneratorError{Component: req.Component, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.GeneratorError{
			Component: req.Component,
			Err:       fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	if req.OutputFormat == domain.FormatExcel {
		return c.writeDocument(resp.Body, req)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &domain.GeneratorError{Component: req.Component, Err: err}
	}
	return &domain.Artifact{SheetURL: out.SheetURL, Table: out.Table}, nil
}

func (c *Client) writeDocument(body io.Reader, req domain.GeneratorRequest) (*domain.Artifact, error) {
	path := utils.TempFilePath(c.tmpDir, req.Title+".xlsx")

	f, err := os.Create(path)
	if err != nil {
		return nil, &domain.GeneratorError{Component: req.Component, Err: err}
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		os.Remove(path)
		return nil, &domain.GeneratorError{Component: req.Component, Err: err}
	}

	c.logger.Debug().Str("path", path).Msg("Wrote manifest document")
	return &domain.Artifact{Path: path}, nil
}
