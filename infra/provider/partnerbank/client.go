package partnerbank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/amirasaad/corebank/config"
	infraprovider "github.com/amirasaad/corebank/infra/provider"
	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/provider"
)

// Client talks to the partner bank gateway over HTTP.
//
//	GET  /accounts/{bankCode}/{accountNumber}  verification, 404 when unknown
//	POST /settlements                          Idempotency-Key: reference
//	GET  /settlements/{reference}              404 when never received
type Client struct {
	http   *infraprovider.JSONClient
	logger *slog.Logger
}

// New creates a partner bank client from config.
func New(cfg *config.Partner, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("provider", "partnerbank")
	return &Client{
		http:   infraprovider.NewJSONClient(cfg.Url, cfg.ApiKey, cfg.HTTPTimeout, logger),
		logger: logger,
	}
}

// VerifyAccount implements provider.PartnerBank.
func (c *Client) VerifyAccount(ctx context.Context, bankCode, accountNumber string) (*provider.AccountVerification, error) {
	var out provider.AccountVerification
	path := fmt.Sprintf("/accounts/%s/%s", url.PathEscape(bankCode), url.PathEscape(accountNumber))
	err := c.http.Do(ctx, http.MethodGet, path, nil, &out, nil)
	switch {
	case err == nil:
		out.BankCode, out.AccountNumber = bankCode, accountNumber
		return &out, nil
	case infraprovider.IsStatus(err, http.StatusNotFound):
		return &provider.AccountVerification{BankCode: bankCode, AccountNumber: accountNumber}, nil
	default:
		return nil, c.reject(err, "verify account")
	}
}

// Settle implements provider.PartnerBank.
func (c *Client) Settle(ctx context.Context, req provider.SettlementRequest) (*provider.Settlement, error) {
	var out provider.Settlement
	err := c.http.Do(ctx, http.MethodPost, "/settlements", req, &out, map[string]string{"Idempotency-Key": req.Reference})
	if err != nil {
		return nil, c.reject(err, "settle")
	}
	if out.Reference == "" {
		out.Reference = req.Reference
	}
	c.logger.Info("settlement submitted", "reference", req.Reference, "status", out.Status)
	return &out, nil
}

// SettlementStatus implements provider.PartnerBank.
func (c *Client) SettlementStatus(ctx context.Context, reference string) (*provider.Settlement, error) {
	var out provider.Settlement
	err := c.http.Do(ctx, http.MethodGet, "/settlements/"+url.PathEscape(reference), nil, &out, nil)
	switch {
	case err == nil:
		return &out, nil
	case infraprovider.IsStatus(err, http.StatusNotFound):
		return &provider.Settlement{Reference: reference, Status: provider.SettlementNotFound}, nil
	default:
		return nil, c.reject(err, "settlement status")
	}
}

// reject turns a 4xx answer into a business rejection; classified errors pass through.
func (c *Client) reject(err error, op string) error {
	var serr *infraprovider.StatusError
	if !errors.As(err, &serr) || domain.KindOf(err) != domain.KindInternal {
		return err
	}
	return domain.ErrPartnerRejected.WithDetail("%s: partner answered %d", op, serr.StatusCode).Wrap(err)
}

var _ provider.PartnerBank = (*Client)(nil)
