package cache

import (
	"context"
	"time"

	"github.com/amirasaad/corebank/pkg/provider"
)

// VerificationCache caches partner bank account verifications.
// Get returns (nil, nil) on a miss.
type VerificationCache interface {
	Get(ctx context.Context, key string) (*provider.AccountVerification, error)
	Set(ctx context.Context, key string, v *provider.AccountVerification, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// VerificationKey is the cache key of a beneficiary account.
func VerificationKey(bankCode, accountNumber string) string {
	return "verify:" + bankCode + ":" + accountNumber
}
