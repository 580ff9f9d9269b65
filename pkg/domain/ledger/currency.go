package ledger

import (
	"strings"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code.
type Currency string

const (
	VND Currency = "VND"
	JPY Currency = "JPY"
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

// precision is the number of minor-unit digits per supported currency.
var precision = map[Currency]int32{
	VND: 0,
	JPY: 0,
	USD: 2,
	EUR: 2,
	GBP: 2,
}

// ParseCurrency normalizes and validates a currency code.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	if _, ok := precision[c]; !ok {
		return "", domain.ErrUnsupportedCurrency.WithDetail("unsupported currency %q", code)
	}
	return c, nil
}

// Precision returns the fixed number of fractional digits for c.
func (c Currency) Precision() int32 {
	return precision[c]
}

// ValidateAmount checks that amount is strictly positive and carries no more
// fractional digits than the currency allows.
func (c Currency) ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount.WithDetail("amount must be positive, got %s", amount)
	}
	return c.validateScale(amount)
}

// ValidateFee is like ValidateAmount but accepts zero.
func (c Currency) ValidateFee(fee decimal.Decimal) error {
	if fee.IsNegative() {
		return domain.ErrInvalidAmount.WithDetail("fee must not be negative, got %s", fee)
	}
	return c.validateScale(fee)
}

func (c Currency) validateScale(amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(c.Precision())) {
		return domain.ErrInvalidAmount.WithDetail(
			"amount %s exceeds %d decimal places allowed for %s", amount, c.Precision(), c)
	}
	return nil
}
