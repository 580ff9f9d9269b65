package partnerbank

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/corebank/pkg/cache"
	"github.com/amirasaad/corebank/pkg/provider"
	"golang.org/x/sync/singleflight"
)

// Cached wraps a PartnerBank and caches positive verifications. Concurrent
// verifications of the same account share one upstream call.
// Settlement calls are passed through untouched.
type Cached struct {
	provider.PartnerBank
	cache  cache.VerificationCache
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewCached creates a caching decorator around next.
func NewCached(next provider.PartnerBank, c cache.VerificationCache, ttl time.Duration, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cached{
		PartnerBank: next,
		cache:       c,
		ttl:         ttl,
		logger:      logger.With("component", "partnerbank_cache"),
	}
}

// VerifyAccount answers from the cache when possible. Only usable accounts
// are cached, so a beneficiary that gets opened is seen on the next call.
func (c *Cached) VerifyAccount(ctx context.Context, bankCode, accountNumber string) (*provider.AccountVerification, error) {
	key := cache.VerificationKey(bankCode, accountNumber)
	if v, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("verification cache read failed", "key", key, "error", err)
	} else if v != nil {
		return v, nil
	}

	res, err, shared := c.group.Do(key, func() (any, error) {
		// a flight that just finished may have filled the cache
		if v, err := c.cache.Get(ctx, key); err == nil && v != nil {
			return v, nil
		}
		v, err := c.PartnerBank.VerifyAccount(ctx, bankCode, accountNumber)
		if err != nil {
			return nil, err
		}
		if v.Usable() {
			if err := c.cache.Set(ctx, key, v, c.ttl); err != nil {
				c.logger.Warn("verification cache write failed", "key", key, "error", err)
			}
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("verification shared with concurrent caller", "key", key)
	}
	v := *res.(*provider.AccountVerification)
	return &v, nil
}

var _ provider.PartnerBank = (*Cached)(nil)
