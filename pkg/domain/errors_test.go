package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	detailed := ErrInsufficientBalance.WithDetail("account %s short by %d", "A", 5)
	assert.ErrorIs(t, detailed, ErrInsufficientBalance)
	assert.NotErrorIs(t, detailed, ErrAccountNotActive)

	wrapped := fmt.Errorf("debit: %w", detailed)
	assert.ErrorIs(t, wrapped, ErrInsufficientBalance)
	assert.Equal(t, KindBusiness, KindOf(wrapped))
	assert.Equal(t, CodeInsufficientBalance, CodeOf(wrapped))
}

func TestError_WrapKeepsInnerCode(t *testing.T) {
	err := ErrServiceUnavailable.Wrap(ErrTimeout)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, IsTransient(err))
	assert.Equal(t, CodeServiceUnavailable, CodeOf(err))
}

func TestKindOf_Unclassified(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.False(t, IsTransient(err))
	assert.False(t, IsTransient(nil))
}

func TestFromCode(t *testing.T) {
	assert.ErrorIs(t, FromCode(CodeLockNotFound, "lock x"), ErrLockNotFound)
	assert.Equal(t, KindTransient, FromCode(CodeTimeout, "").Kind)
	unknown := FromCode("SOMETHING_ELSE", "?")
	assert.Equal(t, KindInternal, unknown.Kind)
}

func TestMessageOf(t *testing.T) {
	err := fmt.Errorf("transfer: %w", ErrAccountNotActive.WithDetail("account %s is FROZEN", "A"))
	assert.Equal(t, "account A is FROZEN", MessageOf(err))
	assert.Equal(t, "boom", MessageOf(errors.New("boom")))
	assert.Equal(t, MessageOf(err), FromCode(CodeOf(err), MessageOf(err)).Message)
}
