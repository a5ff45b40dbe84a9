package serrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaseError_IsMatchesByCode(t *testing.T) {
	a := NewError("FACILITIES_CONFLICT", "resource already reserved", "")
	b := NewError("FACILITIES_CONFLICT", "different message", "")

	require.ErrorIs(t, a, b)
	require.ErrorIs(t, fmt.Errorf("wrapped: %w", a), b)
	require.NotErrorIs(t, a, NewError("FACILITIES_NOT_FOUND", "", ""))
}

func TestBaseError_WithDetailsKeepsCode(t *testing.T) {
	base := NewError("FACILITIES_INVALID_TRANSITION", "illegal transition", "")
	detailed := base.WithDetails("PENDING -> COMPLETED")

	require.Equal(t, "illegal transition: PENDING -> COMPLETED", detailed.Error())
	require.ErrorIs(t, detailed, base)
	// The original error must stay untouched.
	require.Equal(t, "illegal transition", base.Error())
}

func TestNewFieldRequiredError(t *testing.T) {
	err := NewFieldRequiredError("rejection_reason", "Facilities.Fields.rejection_reason")

	var serr *BaseError
	require.True(t, errors.As(err, &serr))
	require.Equal(t, "FIELD_REQUIRED", serr.Code)
	require.Equal(t, "rejection_reason", serr.TemplateData["field"])
}
