package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	err := NewExternalError("classification failed", context.DeadlineExceeded)

	assert.Equal(t, "EXTERNAL: classification failed: context deadline exceeded", err.Error())
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	plain := NewValidationError("symptoms are required")
	assert.Equal(t, "VALIDATION: symptoms are required", plain.Error())
	assert.Nil(t, plain.Unwrap())
}

func TestAsAppError_FindsWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("booking: %w", NewConflictError("slot already booked", nil))

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeConflict, appErr.Type)
	assert.True(t, IsType(wrapped, ErrorTypeConflict))
	assert.False(t, IsType(wrapped, ErrorTypeValidation))

	_, ok = AsAppError(fmt.Errorf("plain"))
	assert.False(t, ok)
}
