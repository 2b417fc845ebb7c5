package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	t.Run("with wrapped error", func(t *testing.T) {
		err := NotFound("campaign lookup failed", ErrCampaignNotFound)
		assert.Equal(t, "campaign lookup failed: campaign not found", err.Error())
	})

	t.Run("without wrapped error", func(t *testing.T) {
		err := Validation("sender missing", nil)
		assert.Equal(t, "sender missing", err.Error())
	})
}

func TestError_Unwrap(t *testing.T) {
	err := NotFound("not found", ErrLeadNotFound)
	assert.True(t, errors.Is(err, ErrLeadNotFound))
}

func TestError_Kind(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		kind Kind
	}{
		{"not found", NotFound("x", nil), KindNotFound},
		{"validation", Validation("x", nil), KindValidation},
		{"forbidden", Forbidden("x", nil), KindForbidden},
		{"conflict", Conflict("x", nil), KindConflict},
		{"transient", Transient("x", nil), KindTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Kind)
		})
	}
}

func TestProviderError_Error(t *testing.T) {
	t.Run("with detail", func(t *testing.T) {
		err := &ProviderError{Code: ProviderErrCannotResendYet, Detail: "try again in 24h"}
		assert.Equal(t, "provider error: cannot_resend_yet: try again in 24h", err.Error())
	})

	t.Run("without detail", func(t *testing.T) {
		err := &ProviderError{Code: ProviderErrDisconnectedAccount}
		assert.Equal(t, "provider error: disconnected_account", err.Error())
	})
}

func TestProviderError_Is(t *testing.T) {
	err := &ProviderError{Code: ProviderErrCannotResendYet, Detail: "specific instance detail"}

	t.Run("matches on code regardless of detail", func(t *testing.T) {
		assert.True(t, errors.Is(err, &ProviderError{Code: ProviderErrCannotResendYet}))
	})

	t.Run("does not match different code", func(t *testing.T) {
		assert.False(t, errors.Is(err, &ProviderError{Code: ProviderErrNotConfigured}))
	})

	t.Run("does not match unrelated error type", func(t *testing.T) {
		assert.False(t, errors.Is(err, ErrCampaignNotFound))
	})
}
