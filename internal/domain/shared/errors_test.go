package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	specific := ErrNotFound.WithMessage("Zakat calculation not found")

	assert.Equal(t, "Zakat calculation not found", specific.Error())
	assert.Equal(t, "NOT_FOUND", specific.Code)
	assert.ErrorIs(t, specific, ErrNotFound)
	assert.ErrorIs(t, fmt.Errorf("load: %w", specific), ErrNotFound)
	assert.NotErrorIs(t, specific, ErrInvalidInput)
	assert.NotErrorIs(t, errors.New("NOT_FOUND"), ErrNotFound)
}

func TestDomainError_WithMessageLeavesSentinel(t *testing.T) {
	_ = ErrInvalidInput.WithMessage("bad methodology list")
	assert.Equal(t, "Invalid input provided", ErrInvalidInput.Message)
}

func TestDomainError_As(t *testing.T) {
	err := fmt.Errorf("%w: at least one methodology is required", ErrInvalidInput)

	var domainErr *DomainError
	assert.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_INPUT", domainErr.Code)
}
