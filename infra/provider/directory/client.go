// Package directory resolves customers against the customer directory
// service, or against a static table for local runs.
package directory

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/amirasaad/corebank/config"
	infraprovider "github.com/amirasaad/corebank/infra/provider"
	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/provider"
)

// Client calls GET /customers/{customerRef} on the directory service.
type Client struct {
	http *infraprovider.JSONClient
}

// New creates a directory client from config.
func New(cfg *config.Directory, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http: infraprovider.NewJSONClient(cfg.Url, "", cfg.HTTPTimeout, logger.With("provider", "directory")),
	}
}

// Lookup implements provider.CustomerDirectory.
func (c *Client) Lookup(ctx context.Context, customerRef string) (*provider.Customer, error) {
	var out provider.Customer
	err := c.http.Do(ctx, http.MethodGet, "/customers/"+url.PathEscape(customerRef), nil, &out, nil)
	switch {
	case err == nil:
		if out.Ref == "" {
			out.Ref = customerRef
		}
		return &out, nil
	case infraprovider.IsStatus(err, http.StatusNotFound):
		return nil, domain.ErrNotFound.WithDetail("customer %s not found", customerRef)
	default:
		return nil, err
	}
}

var _ provider.CustomerDirectory = (*Client)(nil)
