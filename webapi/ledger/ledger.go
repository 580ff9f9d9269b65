// Package ledger exposes the account ledger primitives over HTTP.
package ledger

import (
	"time"

	"github.com/amirasaad/corebank/config"
	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/ledger"
	"github.com/amirasaad/corebank/pkg/middleware"
	ledgersvc "github.com/amirasaad/corebank/pkg/service/ledger"
	"github.com/amirasaad/corebank/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Routes registers the ledger routes.
//
//   - POST /ledger/debit, /ledger/credit
//   - POST /ledger/locks, /ledger/locks/:lockId/unlock, /ledger/locks/release
//   - GET  /ledger/accounts/:accountNumber/locks
//   - POST /ledger/transfers, /ledger/transfers/:reference/reverse
//   - GET  /ledger/transactions/:reference
//   - GET  /ledger/accounts/:accountNumber/balance, .../audit, .../reconcile
//   - GET  /ledger/audit/:reference
func Routes(app *fiber.App, svc *ledgersvc.Service, cfg *config.App) {
	g := app.Group("/ledger", middleware.JwtProtected(jwtConfig(cfg)))
	g.Post("/debit", Debit(svc))
	g.Post("/credit", Credit(svc))
	g.Post("/locks", LockFunds(svc))
	g.Post("/locks/release", ReleaseLock(svc))
	g.Post("/locks/:lockId/unlock", UnlockFunds(svc))
	g.Post("/transfers", ExecuteTransfer(svc))
	g.Post("/transfers/:reference/reverse", ReverseTransfer(svc))
	g.Get("/transactions/:reference", GetTransaction(svc))
	g.Get("/accounts/:accountNumber/balance", GetBalance(svc))
	g.Get("/accounts/:accountNumber/locks", ListLocks(svc))
	g.Get("/accounts/:accountNumber/audit", AuditByAccount(svc))
	g.Get("/accounts/:accountNumber/reconcile", Reconcile(svc))
	g.Get("/audit/:reference", AuditByReference(svc))
}

func jwtConfig(cfg *config.App) *config.Jwt {
	if cfg == nil || cfg.Auth == nil {
		return nil
	}
	return cfg.Auth.Jwt
}

// actor is the audit actor of a request: the one named in the body, else the
// token subject. Empty falls back to the ledger's default.
func actor(c *fiber.Ctx, performedBy string) string {
	if performedBy != "" {
		return performedBy
	}
	return middleware.Subject(c)
}

func movement(c *fiber.Ctx) (*ledgersvc.MovementRequest, error) {
	input, err := common.BindAndValidate[MovementRequest](c)
	if input == nil {
		return nil, err
	}
	return &ledgersvc.MovementRequest{
		AccountNumber: input.AccountNumber,
		Amount:        input.Amount,
		Reference:     input.TransactionReference,
		Description:   input.Description,
		PerformedBy:   actor(c, input.PerformedBy),
	}, nil
}

// Debit returns a Fiber handler that debits an account.
func Debit(svc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := movement(c)
		if req == nil {
			return err
		}
		res, err := svc.Debit(c.UserContext(), *req)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Debit failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Debit applied", toBalanceResponse(res))
	}
}

// Credit returns a Fiber handler that credits an account.
func Credit(svc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := movement(c)
		if req == nil {
			return err
		}
		res, err := svc.Credit(c.UserContext(), *req)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Credit failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Credit applied", toBalanceResponse(res))
	}
}

// LockFunds returns a Fiber handler that places a hold.
func LockFunds(svc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[LockRequest](c)
		if input == nil {
			return err
		}
		res, err := svc.LockFunds(c.UserContext(), ledgersvc.LockRequest{
			AccountNumber: input.AccountNumber,
			Amount:        input.Amount,
			LockType:      ledger.LockType(input.LockType),
			ReferenceID:   input.ReferenceID,
			Description:   input.Description,
			PerformedBy:   actor(c, input.PerformedBy),
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Lock failed", err)
		}
		status := fiber.StatusCreated
		if res.Replayed {
			status = fiber.StatusOK
		}
		return common.SuccessResponseJSON(c, status, "Funds locked", toLockResponse(res.Lock, &res.AvailableBalance, res.Replayed))
	}
}

// UnlockFunds returns a Fiber handler that releases a lock by id.
func UnlockFunds(svc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lockID, err := uuid.Parse(c.Params("lockId"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid lock ID", domain.ErrValidation.Wrap(err), "lock id must be a valid UUID")
		}
		var input UnlockRequest
		if len(c.Body()) > 0 {
			in, err := common.BindAndValidate[UnlockRequest](c)
			if in == nil {
				return err
			}
			input = *in
		}
		res, err := svc.UnlockFunds(c.UserContext(), ledgersvc.UnlockRequest{
			LockID:      lockID,
			Reason:      input.Reason,
			PerformedBy: actor(c, input.PerformedBy),
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unlock failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Funds unlocked", toLockResponse(res.Lock, &res.AvailableBalance, res.Replayed))
	}
}

// ReleaseLock returns a Fiber handler that releases the active lock of a reference.
func ReleaseLock(svc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[ReleaseRequest](c)
		if input == nil {
			return err
		}
		res, err := svc.ReleaseByReference(c.UserContext(), ledgersvc.ReleaseRequest{
			ReferenceID: input.ReferenceID,
			LockType:    ledger.LockType(input.LockType),
			Reason:      input.Reason,
			PerformedBy: actor(c, input.PerformedBy),
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Release failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Funds unlocked", toLockResponse(res.Lock, &res.AvailableBalance, res.Replayed))
	}
}

// ListLocks returns a Fiber handler listing the locks of an account,
// optionally filtered by ?status=.
func ListLocks(svc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		locks, err := svc.ListLocks(c.UserContext(), c.Params("accountNumber"), ledger.LockStatus(c.Query("status")))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list locks", err)
		}
		out := make([]LockResponse, 0, len(locks))
		for _, l := range locks {
			out = append(out, toLockResponse(l, nil, false))
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Locks fetched", out)
	}
}

// ExecuteTransfer returns a Fiber handler for an atomic internal transfer.
func ExecuteTransfer(svc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[TransferRequest](c)
		if input == nil {
			return err
		}
		res, err := svc.ExecuteTransfer(c.UserContext(), ledgersvc.TransferRequest{
			Source:      input.SourceAccountNumber,
			Destination: input.DestinationAccountNumber,
			Amount:      input.Amount,
			Fee:         input.Fee,
			Reference:   input.TransactionReference,
			Description: input.Description,
			PerformedBy: actor(c, input.PerformedBy),
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Transfer failed", err)
		}
		status := fiber.StatusCreated
		if res.Replayed {
			status = fiber.StatusOK
		}
		return common.SuccessResponseJSON(c, status, "Transfer completed", ToTransactionResponse(res.Transaction, res.Replayed))
	}
}

// ReverseTransfer returns a Fiber handler that compensates a completed transfer.
func ReverseTransfer(svc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input ReverseRequest
		if len(c.Body()) > 0 {
			in, err := common.BindAndValidate[ReverseRequest](c)
			if in == nil {
				return err
			}
			input = *in
		}
		res, err := svc.ReverseTransfer(c.UserContext(), ledgersvc.ReverseRequest{
			OriginalReference: c.Params("reference"),
			Reference:         input.Reference,
			Reason:            input.Reason,
			PerformedBy:       actor(c, input.PerformedBy),
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Reversal failed", err)
		}
		status := fiber.StatusCreated
		if res.Replayed {
			status = fiber.StatusOK
		}
		return common.SuccessResponseJSON(c, status, "Transfer reversed", ToTransactionResponse(res.Transaction, res.Replayed))
	}
}

// GetTransaction returns a Fiber handler that reads a record by reference.
func GetTransaction(svc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tx, err := svc.GetTransaction(c.UserContext(), c.Params("reference"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Transaction not available", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction fetched", ToTransactionResponse(tx, false))
	}
}

// GetBalance returns a Fiber handler for the balance of an account.
func GetBalance(svc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := svc.GetBalance(c.UserContext(), c.Params("accountNumber"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Balance not available", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Balance fetched", toBalanceView(b))
	}
}

// AuditByAccount returns a Fiber handler listing audit rows in ?from=&to=.
func AuditByAccount(svc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, err := ParseTime(c.Query("from"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid from", err)
		}
		to, err := ParseTime(c.Query("to"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid to", err)
		}
		entries, err := svc.AuditByAccount(c.UserContext(), c.Params("accountNumber"), from, to)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Audit not available", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Audit fetched", toAuditViews(entries))
	}
}

// AuditByReference returns a Fiber handler listing the audit rows of a reference.
func AuditByReference(svc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		entries, err := svc.AuditByReference(c.UserContext(), c.Params("reference"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Audit not available", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Audit fetched", toAuditViews(entries))
	}
}

// Reconcile returns a Fiber handler that checks an account's invariants.
func Reconcile(svc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := svc.Reconcile(c.UserContext(), c.Params("accountNumber"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Reconciliation failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Reconciliation done", toReconcileView(r))
	}
}

// ParseTime accepts RFC 3339 timestamps and plain dates; empty is the zero time.
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, domain.ErrValidation.WithDetail("invalid time %q, want RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}
