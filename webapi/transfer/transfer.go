// Package transfer exposes the transfer orchestrator over HTTP.
package transfer

import (
	"github.com/amirasaad/corebank/config"
	"github.com/amirasaad/corebank/pkg/middleware"
	transfersvc "github.com/amirasaad/corebank/pkg/service/transfer"
	"github.com/amirasaad/corebank/webapi/common"
	ledgerweb "github.com/amirasaad/corebank/webapi/ledger"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Request is the body of a transfer. An empty destination bank code, or our
// own, makes the transfer internal.
type Request struct {
	TraceID                  string          `json:"traceId" validate:"required,max=128"`
	SourceAccountNumber      string          `json:"sourceAccountNumber" validate:"required,max=34"`
	DestinationAccountNumber string          `json:"destinationAccountNumber" validate:"required,max=34"`
	DestinationBankCode      string          `json:"destinationBankCode" validate:"max=16"`
	Amount                   decimal.Decimal `json:"amount"`
	Fee                      decimal.Decimal `json:"fee"`
	Description              string          `json:"description" validate:"max=255"`
}

// ReverseRequest is the optional body of a reversal.
type ReverseRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}

// Routes registers the orchestrator routes.
//
// Routes:
//   - POST /transfers                   : Execute an internal or interbank transfer.
//   - POST /transfers/:traceId/reverse  : Reverse a completed internal transfer.
func Routes(app *fiber.App, svc *transfersvc.Service, cfg *config.App) {
	var jwtCfg *config.Jwt
	if cfg != nil && cfg.Auth != nil {
		jwtCfg = cfg.Auth.Jwt
	}
	g := app.Group("/transfers", middleware.JwtProtected(jwtCfg))
	g.Post("/", Transfer(svc))
	g.Post("/:traceId/reverse", Reverse(svc))
}

// Transfer returns a Fiber handler running a transfer to completion. A
// transfer whose outcome is not yet known answers 503 and can be resubmitted
// with the same trace id.
// @Summary Execute a transfer
// @Tags transfers
// @Accept json
// @Produce json
// @Success 201 {object} common.Response "Transfer completed"
// @Success 200 {object} common.Response "Transfer already completed"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 409 {object} common.ProblemDetails "Trace id reused for another transfer"
// @Failure 422 {object} common.ProblemDetails "Transfer rejected"
// @Failure 503 {object} common.ProblemDetails "Outcome unknown, retry later"
// @Router /transfers [post]
// @Security Bearer
func Transfer(svc *transfersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[Request](c)
		if input == nil {
			return err
		}
		res, err := svc.Transfer(c.UserContext(), transfersvc.Request{
			TraceID:             input.TraceID,
			Source:              input.SourceAccountNumber,
			Destination:         input.DestinationAccountNumber,
			DestinationBankCode: input.DestinationBankCode,
			Amount:              input.Amount,
			Fee:                 input.Fee,
			Description:         input.Description,
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Transfer failed", err)
		}
		status := fiber.StatusCreated
		if res.Replayed {
			status = fiber.StatusOK
		}
		return common.SuccessResponseJSON(c, status, "Transfer completed", ledgerweb.ToTransactionResponse(res.Transaction, res.Replayed))
	}
}

// Reverse returns a Fiber handler reversing a completed transfer.
func Reverse(svc *transfersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input ReverseRequest
		if len(c.Body()) > 0 {
			in, err := common.BindAndValidate[ReverseRequest](c)
			if in == nil {
				return err
			}
			input = *in
		}
		res, err := svc.Reverse(c.UserContext(), c.Params("traceId"), input.Reason)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Reversal failed", err)
		}
		status := fiber.StatusCreated
		if res.Replayed {
			status = fiber.StatusOK
		}
		return common.SuccessResponseJSON(c, status, "Transfer reversed", ledgerweb.ToTransactionResponse(res.Transaction, res.Replayed))
	}
}
