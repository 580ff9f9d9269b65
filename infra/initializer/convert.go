package initializer

import (
	"github.com/amirasaad/corebank/config"
	"github.com/amirasaad/corebank/pkg/resilience"
)

// ResilienceConfig converts the RESILIENCE_* settings to a pipeline config.
func ResilienceConfig(cfg *config.Resilience) resilience.Config {
	if cfg == nil {
		return resilience.Config{}
	}
	return resilience.Config{
		Timeout: cfg.Timeout,
		Retry: resilience.RetryConfig{
			MaxAttempts:    cfg.MaxAttempts,
			InitialBackoff: cfg.InitialBackoff,
			MaxBackoff:     cfg.MaxBackoff,
		},
		Breaker: resilience.BreakerConfig{
			Window:              cfg.BreakerWindow,
			MinRequests:         cfg.BreakerMinRequests,
			FailureRatio:        cfg.BreakerFailureRatio,
			OpenTimeout:         cfg.BreakerOpenTimeout,
			HalfOpenMaxRequests: cfg.BreakerHalfOpenMax,
		},
	}
}
