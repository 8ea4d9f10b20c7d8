package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngineErrorFormatting(t *testing.T) {
	err := NewEngineError(ErrInsufficientBalance, "not enough points")
	assert.Equal(t, "INSUFFICIENT_BALANCE: not enough points", err.Error())

	wrapped := WrapError(ErrDatabaseError, "saving card", errors.New("disk full"))
	assert.Equal(t, "DATABASE_ERROR: saving card (disk full)", wrapped.Error())
}

func TestWrapErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError(ErrNetworkError, "remote draw", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, cause, err.Unwrap())
}

func TestIsEngineError(t *testing.T) {
	err := NewEngineError(ErrCatalogMismatch, "unknown card id")

	assert.True(t, IsEngineError(err, ErrCatalogMismatch))
	assert.False(t, IsEngineError(err, ErrPointsFailed))
	assert.False(t, IsEngineError(nil, ErrCatalogMismatch))
	assert.False(t, IsEngineError(errors.New("plain"), ErrCatalogMismatch))
}

func TestAs(t *testing.T) {
	var target *EngineError

	assert.False(t, As(errors.New("plain"), &target))
	assert.True(t, As(NewEngineError(ErrInvalidState, "mid-animation"), &target))
	assert.Equal(t, ErrInvalidState, target.Code)
	assert.False(t, As(nil, nil))
}
