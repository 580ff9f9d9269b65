// Package handler serves the ledger API as a single serverless function.
package handler

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/amirasaad/corebank/config"
	"github.com/amirasaad/corebank/infra/initializer"
	"github.com/amirasaad/corebank/pkg/app"
	"github.com/amirasaad/corebank/webapi"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

var (
	once    sync.Once
	served  http.HandlerFunc
	initErr error
)

// Handler is the main entry point of the function.
// Think of it like the main() method
func Handler(w http.ResponseWriter, r *http.Request) {
	// This is needed to set the proper request path in `*fiber.Ctx`
	r.RequestURI = r.URL.String()

	once.Do(func() { served, initErr = build() })
	if initErr != nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	served.ServeHTTP(w, r)
}

// build wires the app once per cold start. Connections stay open for the
// lifetime of the instance.
func build() (http.HandlerFunc, error) {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load application configuration", "error", err)
		return nil, err
	}
	deps, _, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		slog.Error("Failed to initialize dependencies", "error", err)
		return nil, err
	}
	return adaptor.FiberApp(webapi.SetupApp(app.New(deps, cfg))), nil
}
