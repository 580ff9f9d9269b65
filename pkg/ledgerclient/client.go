// Package ledgerclient calls a remote ledger over its HTTP surface. Client
// satisfies the orchestrator's ledger port, so the transfer orchestrator can
// run in a different process than the ledger it drives.
package ledgerclient

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	infraprovider "github.com/amirasaad/corebank/infra/provider"
	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/ledger"
	ledgersvc "github.com/amirasaad/corebank/pkg/service/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Client is an HTTP client for the ledger routes.
type Client struct {
	http   *infraprovider.JSONClient
	logger *slog.Logger
}

// New creates a Client for the ledger at baseURL. token is the service JWT
// sent as a bearer token; it may be empty when the ledger runs unprotected.
func New(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "ledgerclient")
	return &Client{
		http:   infraprovider.NewJSONClient(baseURL, token, timeout, logger),
		logger: logger,
	}
}

type envelope[T any] struct {
	Data T `json:"data"`
}

type problem struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
	Title  string `json:"title"`
}

func call[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var out envelope[T]
	if err := c.http.Do(ctx, method, path, body, &out, nil); err != nil {
		return out.Data, translate(err)
	}
	return out.Data, nil
}

// translate turns a problem response back into the domain error the ledger
// answered with. Server errors without a transient code stay UPSTREAM_ERROR.
func translate(err error) error {
	var serr *infraprovider.StatusError
	if !errors.As(err, &serr) {
		return err
	}
	var p problem
	if jerr := json.Unmarshal([]byte(serr.Body), &p); jerr != nil || p.Code == "" {
		if serr.StatusCode >= http.StatusInternalServerError {
			return err
		}
		return domain.ErrInternal.WithDetail("ledger answered %d", serr.StatusCode).Wrap(serr)
	}
	derr := domain.FromCode(domain.Code(p.Code), p.Detail)
	if serr.StatusCode >= http.StatusInternalServerError && !domain.IsTransient(derr) &&
		derr.Kind != domain.KindCircuitOpen {
		return err
	}
	return derr.Wrap(serr)
}

type balanceResult struct {
	AccountNumber        string          `json:"accountNumber"`
	TransactionReference string          `json:"transactionReference"`
	PreviousBalance      decimal.Decimal `json:"previousBalance"`
	NewBalance           decimal.Decimal `json:"newBalance"`
	AvailableBalance     decimal.Decimal `json:"availableBalance"`
	Replayed             bool            `json:"replayed"`
}

func (b balanceResult) toResult() ledgersvc.BalanceResult {
	return ledgersvc.BalanceResult{
		AccountNumber:    b.AccountNumber,
		Reference:        b.TransactionReference,
		PreviousBalance:  b.PreviousBalance,
		NewBalance:       b.NewBalance,
		AvailableBalance: b.AvailableBalance,
		Replayed:         b.Replayed,
	}
}

type movement struct {
	AccountNumber        string          `json:"accountNumber"`
	Amount               decimal.Decimal `json:"amount"`
	TransactionReference string          `json:"transactionReference"`
	Description          string          `json:"description,omitempty"`
	PerformedBy          string          `json:"performedBy,omitempty"`
}

func movementOf(req ledgersvc.MovementRequest) movement {
	return movement{
		AccountNumber:        req.AccountNumber,
		Amount:               req.Amount,
		TransactionReference: req.Reference,
		Description:          req.Description,
		PerformedBy:          req.PerformedBy,
	}
}

// Debit implements the ledger port.
func (c *Client) Debit(ctx context.Context, req ledgersvc.MovementRequest) (ledgersvc.BalanceResult, error) {
	res, err := call[balanceResult](ctx, c, http.MethodPost, "/ledger/debit", movementOf(req))
	if err != nil {
		return ledgersvc.BalanceResult{}, err
	}
	return res.toResult(), nil
}

// Credit implements the ledger port.
func (c *Client) Credit(ctx context.Context, req ledgersvc.MovementRequest) (ledgersvc.BalanceResult, error) {
	res, err := call[balanceResult](ctx, c, http.MethodPost, "/ledger/credit", movementOf(req))
	if err != nil {
		return ledgersvc.BalanceResult{}, err
	}
	return res.toResult(), nil
}

type transaction struct {
	TransactionID         uuid.UUID       `json:"transactionId"`
	TransactionReference  string          `json:"transactionReference"`
	Type                  string          `json:"type"`
	Status                string          `json:"status"`
	SourceAccountNumber   string          `json:"sourceAccountNumber"`
	DestinationAccount    string          `json:"destinationAccountNumber"`
	DestinationBankCode   string          `json:"destinationBankCode"`
	Amount                decimal.Decimal `json:"amount"`
	Fee                   decimal.Decimal `json:"fee"`
	Currency              string          `json:"currency"`
	FeeAccount            string          `json:"feeAccount"`
	SourceBalanceBefore   decimal.Decimal `json:"sourceBalanceBefore"`
	SourceBalanceAfter    decimal.Decimal `json:"sourceBalanceAfter"`
	DestBalanceBefore     decimal.Decimal `json:"destBalanceBefore"`
	DestBalanceAfter      decimal.Decimal `json:"destBalanceAfter"`
	FailureCode           string          `json:"failureCode"`
	FailureReason         string          `json:"failureReason"`
	ReversalOf            *uuid.UUID      `json:"reversalOf"`
	ReversedBy            *uuid.UUID      `json:"reversedBy"`
	CompensationReference string          `json:"compensationReference"`
	Description           string          `json:"description"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
	CompletedAt           *time.Time      `json:"completedAt"`
	Replayed              bool            `json:"replayed"`
}

func (t transaction) toRecord() *ledger.Transaction {
	return &ledger.Transaction{
		ID:                    t.TransactionID,
		TraceID:               t.TransactionReference,
		Type:                  ledger.TransactionType(t.Type),
		Status:                ledger.TransactionStatus(t.Status),
		SourceAccount:         t.SourceAccountNumber,
		DestinationAccount:    t.DestinationAccount,
		DestinationBankCode:   t.DestinationBankCode,
		Amount:                t.Amount,
		Fee:                   t.Fee,
		Currency:              ledger.Currency(t.Currency),
		FeeAccount:            t.FeeAccount,
		Source:                ledger.LegSnapshot{BalanceBefore: t.SourceBalanceBefore, BalanceAfter: t.SourceBalanceAfter},
		Destination:           ledger.LegSnapshot{BalanceBefore: t.DestBalanceBefore, BalanceAfter: t.DestBalanceAfter},
		FailureCode:           domain.Code(t.FailureCode),
		FailureReason:         t.FailureReason,
		ReversalOf:            t.ReversalOf,
		ReversedBy:            t.ReversedBy,
		CompensationReference: t.CompensationReference,
		Description:           t.Description,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
		CompletedAt:           t.CompletedAt,
	}
}

// ExecuteTransfer implements the ledger port.
func (c *Client) ExecuteTransfer(ctx context.Context, req ledgersvc.TransferRequest) (ledgersvc.TransferResult, error) {
	body := map[string]any{
		"sourceAccountNumber":      req.Source,
		"destinationAccountNumber": req.Destination,
		"amount":                   req.Amount,
		"fee":                      req.Fee,
		"transactionReference":     req.Reference,
		"description":              req.Description,
		"performedBy":              req.PerformedBy,
	}
	t, err := call[transaction](ctx, c, http.MethodPost, "/ledger/transfers", body)
	if err != nil {
		return ledgersvc.TransferResult{}, err
	}
	return ledgersvc.TransferResult{Transaction: t.toRecord(), Replayed: t.Replayed}, nil
}

// ReverseTransfer implements the ledger port.
func (c *Client) ReverseTransfer(ctx context.Context, req ledgersvc.ReverseRequest) (ledgersvc.TransferResult, error) {
	body := map[string]string{"reference": req.Reference, "reason": req.Reason, "performedBy": req.PerformedBy}
	path := "/ledger/transfers/" + url.PathEscape(req.OriginalReference) + "/reverse"
	t, err := call[transaction](ctx, c, http.MethodPost, path, body)
	if err != nil {
		return ledgersvc.TransferResult{}, err
	}
	return ledgersvc.TransferResult{Transaction: t.toRecord(), Replayed: t.Replayed}, nil
}

// GetTransaction implements the ledger port.
func (c *Client) GetTransaction(ctx context.Context, reference string) (*ledger.Transaction, error) {
	t, err := call[transaction](ctx, c, http.MethodGet, "/ledger/transactions/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, err
	}
	return t.toRecord(), nil
}

type balance struct {
	AccountNumber    string          `json:"accountNumber"`
	Balance          decimal.Decimal `json:"balance"`
	HoldAmount       decimal.Decimal `json:"holdAmount"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	Currency         string          `json:"currency"`
	Status           string          `json:"status"`
	AsOf             time.Time       `json:"asOf"`
}

// GetBalance implements the ledger port.
func (c *Client) GetBalance(ctx context.Context, accountNumber string) (ledgersvc.Balance, error) {
	b, err := call[balance](ctx, c, http.MethodGet, "/ledger/accounts/"+url.PathEscape(accountNumber)+"/balance", nil)
	if err != nil {
		return ledgersvc.Balance{}, err
	}
	return ledgersvc.Balance{
		AccountNumber:    b.AccountNumber,
		Balance:          b.Balance,
		HoldAmount:       b.HoldAmount,
		AvailableBalance: b.AvailableBalance,
		Currency:         ledger.Currency(b.Currency),
		Status:           ledger.Status(b.Status),
		AsOf:             b.AsOf,
	}, nil
}
