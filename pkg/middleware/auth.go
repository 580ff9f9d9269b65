// Package middleware provides the Fiber middleware of the RPC surface.
package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/amirasaad/corebank/config"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JwtProtected requires an HS256 service token signed with cfg.Secret. With
// no secret configured every request is let through.
func JwtProtected(cfg *config.Jwt) fiber.Handler {
	if cfg == nil || cfg.Secret == "" {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return jwtware.New(jwtware.Config{
		SigningKey:   jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.Secret)},
		ContextKey:   "user",
		ErrorHandler: jwtError,
	})
}

// jwtError hands the failure to the app's error handler, which renders it
// as problem details.
func jwtError(_ *fiber.Ctx, err error) error {
	if strings.EqualFold(err.Error(), "missing or malformed JWT") {
		return fiber.NewError(fiber.StatusBadRequest, "missing or malformed JWT")
	}
	return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired JWT")
}

// IssueToken signs a service token for subject.
func IssueToken(cfg *config.Jwt, subject string) (string, error) {
	if cfg == nil || cfg.Secret == "" {
		return "", errors.New("jwt secret is not configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(cfg.Expiry)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
}

// Subject returns the subject of the verified token, or "" when the route is
// not protected.
func Subject(c *fiber.Ctx) string {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return ""
	}
	sub, _ := token.Claims.GetSubject()
	return sub
}
