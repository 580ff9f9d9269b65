// Package common holds the response helpers shared by the HTTP handlers.
package common

import (
	"errors"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`         // HTTP status code
	Message string `json:"message"`        // Human-readable explanation
	Data    any    `json:"data,omitempty"` // Response data
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs, extended
// with the stable error code callers branch on.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Code     string `json:"code,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Errors   any    `json:"errors,omitempty"`
}

// ProblemDetailsJSON writes err as problem details. The optional args are a
// detail string overriding err's message and an int overriding the status.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, args ...any) error {
	status := ErrorToStatusCode(err)
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Instance: c.OriginalURL(),
	}
	if err != nil {
		pd.Detail = err.Error()
		var de *domain.Error
		if errors.As(err, &de) {
			pd.Code = string(de.Code)
			pd.Kind = de.Kind.String()
			pd.Detail = de.Message
		}
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			pd.Errors = fieldErrors(ve)
		}
	}
	for _, arg := range args {
		switch v := arg.(type) {
		case string:
			pd.Detail = v
		case int:
			status = v
		}
	}
	pd.Status = status
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(status).JSON(pd)
}

// SuccessResponseJSON writes data as a standard success response.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{Status: status, Message: message, Data: data})
}

// ErrorToStatusCode maps errors to HTTP status codes by their kind, with a
// few codes singled out.
func ErrorToStatusCode(err error) int {
	if err == nil {
		return fiber.StatusInternalServerError
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return fiber.StatusBadRequest
	}

	switch domain.CodeOf(err) {
	case domain.CodeNotFound, domain.CodeAccountNotFound, domain.CodeTransactionNotFound, domain.CodeLockNotFound:
		return fiber.StatusNotFound
	case domain.CodeIdempotencyConflict, domain.CodeAlreadyExists, domain.CodeDuplicateLock:
		return fiber.StatusConflict
	case domain.CodeTimeout, domain.CodeLockTimeout:
		return fiber.StatusGatewayTimeout
	}
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return fiber.StatusBadRequest
	case domain.KindBusiness:
		return fiber.StatusUnprocessableEntity
	case domain.KindTransient, domain.KindCircuitOpen:
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// BindAndValidate parses the request body and validates it using go-playground/validator.
// On failure the problem response is already written and nil is returned.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, ProblemDetailsJSON(c, "Invalid request body", domain.ErrValidation.WithDetail("%s", err.Error()).Wrap(err))
	}
	if err := validate.Struct(input); err != nil {
		return nil, ProblemDetailsJSON(c, "Validation failed", domain.ErrValidation.WithDetail("%s", err.Error()).Wrap(err))
	}
	return &input, nil
}

func fieldErrors(ve validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
