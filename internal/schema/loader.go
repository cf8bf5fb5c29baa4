// Package schema resolves schema references into parsed graphs and
// answers dependency, range, and label queries against them.
package schema

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/datacurio/schemactl/internal/domain"
	"github.com/datacurio/schemactl/internal/utils"
)

// maxSchemaSize caps schema document downloads at 32 MiB
const maxSchemaSize = 32 << 20

// Loader fetches schema documents over HTTP, with an optional cache
// keyed strictly by schema URL. Cached documents are raw bytes: a
// snapshot that is replaced, never edited.
type Loader struct {
	client *http.Client
	cache  domain.Cache
	ttl    time.Duration
	logger *utils.Logger
}

// LoaderOptions contains options for creating a Loader
type LoaderOptions struct {
	Timeout  time.Duration
	Cache    domain.Cache // nil disables caching
	CacheTTL time.Duration
	Logger   *utils.Logger
}

// NewLoader creates a new schema document loader
func NewLoader(opts LoaderOptions) *Loader {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return &Loader{
		client: &http.Client{Timeout: opts.Timeout},
		cache:  opts.Cache,
		ttl:    opts.CacheTTL,
		logger: logger.WithComponent("schema-loader"),
	}
}

// Fetch returns the raw schema document behind schemaURL. Any failure
// to resolve it is a SchemaError.
func (l *Loader) Fetch(ctx context.Context, schemaURL string) ([]byte, error) {
	log := l.logger.WithSchema(schemaURL)

	if l.cache != nil {
		if data, err := l.cache.Get(ctx, schemaURL); err == nil {
			log.Debug().Msg("Schema cache hit")
			return data, nil
		} else if !errors.Is(err, domain.ErrCacheMiss) {
			log.Warn().Err(err).Msg("Schema cache read failed, fetching")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, schemaURL, nil)
	if err != nil {
		return nil, domain.NewSchemaError(schemaURL, err)
	}
	req.Header.Set("Accept", "application/ld+json, application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, domain.NewSchemaError(schemaURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewSchemaError(schemaURL,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSchemaSize))
	if err != nil {
		return nil, domain.NewSchemaError(schemaURL, err)
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, schemaURL, data, l.ttl); err != nil {
			log.Warn().Err(err).Msg("Schema cache write failed")
		}
	}

	log.Debug().Int("bytes", len(data)).Msg("Fetched schema document")

	return data, nil
}
