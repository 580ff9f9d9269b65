// Package account exposes the account sync boundary over HTTP.
package account

import (
	"github.com/amirasaad/corebank/config"
	"github.com/amirasaad/corebank/pkg/domain/ledger"
	"github.com/amirasaad/corebank/pkg/middleware"
	"github.com/amirasaad/corebank/pkg/service/accountsync"
	"github.com/amirasaad/corebank/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the account sync routes.
//
// Routes:
//   - POST  /accounts/sync                   : Create the ledger account of an opened account.
//   - PATCH /accounts/:accountNumber/status  : Change the lifecycle status of an account.
func Routes(app *fiber.App, svc *accountsync.Service, cfg *config.App) {
	var jwtCfg *config.Jwt
	if cfg != nil && cfg.Auth != nil {
		jwtCfg = cfg.Auth.Jwt
	}
	g := app.Group("/accounts", middleware.JwtProtected(jwtCfg))
	g.Post("/sync", SyncAccount(svc))
	g.Patch("/:accountNumber/status", UpdateStatus(svc))
}

// SyncAccount returns a Fiber handler creating the ledger account of an
// account opened elsewhere. Repeating the call is harmless.
// @Summary Sync an account into the ledger
// @Tags accounts
// @Accept json
// @Produce json
// @Success 201 {object} common.Response "Account created"
// @Success 200 {object} common.Response "Account already synced"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 422 {object} common.ProblemDetails "Customer not eligible"
// @Failure 503 {object} common.ProblemDetails "Customer directory unavailable"
// @Router /accounts/sync [post]
// @Security Bearer
func SyncAccount(svc *accountsync.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[SyncAccountRequest](c)
		if input == nil {
			return err
		}
		res, err := svc.Sync(c.UserContext(), accountsync.SyncRequest{
			AccountNumber: input.AccountNumber,
			CustomerRef:   input.CustomerRef,
			Currency:      input.Currency,
			Type:          ledger.Type(input.Type),
			CreditLimit:   input.CreditLimit,
			InterestRate:  input.InterestRate,
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Account sync failed", err)
		}
		if res.AlreadySynced {
			return common.SuccessResponseJSON(c, fiber.StatusOK, "Account already synced", toSyncResponse(res))
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Account synced", toSyncResponse(res))
	}
}

// UpdateStatus returns a Fiber handler changing an account's status.
func UpdateStatus(svc *accountsync.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[UpdateStatusRequest](c)
		if input == nil {
			return err
		}
		res, err := svc.UpdateStatus(c.UserContext(), c.Params("accountNumber"), ledger.Status(input.Status), input.Reason)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Status change failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Account status updated", toStatusResponse(res))
	}
}
