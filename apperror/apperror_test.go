package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"validation", NewValidationError(`"email" is required`, nil), http.StatusBadRequest},
		{"conflict", NewConflictError(MsgAlreadyRegistered, nil), http.StatusConflict},
		{"auth", NewAuthError(nil), http.StatusUnauthorized},
		{"internal", NewInternalError(errors.New("boom")), http.StatusInternalServerError},
		{"config", NewConfigError("missing SECRET_KEY", nil), http.StatusInternalServerError},
		{"unknown", NewAppError(UnknownError, "??", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestToResponse_HidesInternalCause(t *testing.T) {
	err := NewAppError(InternalError, "pq: connection refused", errors.New("dial tcp"))

	resp := err.ToResponse()

	assert.Equal(t, MsgInternal, resp.Message)
	assert.Contains(t, err.Error(), "dial tcp")
}

func TestToResponse_KeepsClientMessages(t *testing.T) {
	assert.Equal(t, `"Password" is required`, NewValidationError(`"Password" is required`, nil).ToResponse().Message)
	assert.Equal(t, MsgAlreadyRegistered, NewConflictError(MsgAlreadyRegistered, nil).ToResponse().Message)
	assert.Equal(t, MsgInvalidCredentials, NewAuthError(errors.New("no rows")).ToResponse().Message)
}

func TestFromError_FollowsWrapChain(t *testing.T) {
	inner := NewConflictError(MsgAlreadyRegistered, nil)
	wrapped := fmt.Errorf("register: %w", inner)

	got, ok := FromError(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, got)
	assert.True(t, IsConflictError(wrapped))
	assert.False(t, IsAuthError(wrapped))

	_, ok = FromError(errors.New("plain"))
	assert.False(t, ok)
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := NewInternalError(cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsInternalError(err))
}
