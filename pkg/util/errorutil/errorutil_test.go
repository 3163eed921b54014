package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"validation", NewValidationError("bad", nil), CodeValidation, http.StatusBadRequest},
		{"not found", NewNotFound("meeting", nil), CodeNotFound, http.StatusNotFound},
		{"unauthorized", NewUnauthorized("no token"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", NewForbidden("hosts only"), CodeForbidden, http.StatusForbidden},
		{"conflict", NewConflict("taken", nil), CodeConflict, http.StatusConflict},
		{"invalid state", NewInvalidState("not scheduled", nil), CodeInvalidState, http.StatusBadRequest},
		{"external", NewExternalServiceError("storage", errors.New("down")), CodeExternalService, http.StatusBadGateway},
		{"parse", NewParseError("bad reply", nil), CodeParse, http.StatusInternalServerError},
		{"internal", NewInternalError(nil), CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			domainErr := ToDomainError(tt.err)
			require.NotNil(t, domainErr)
			assert.Equal(t, tt.code, domainErr.Code)
			assert.Equal(t, tt.status, domainErr.HTTPStatus)
			assert.True(t, IsCode(tt.err, tt.code))
		})
	}
}

func TestToDomainError_Wrapped(t *testing.T) {
	inner := NewInvalidState("only ongoing meetings can be ended", nil)
	wrapped := fmt.Errorf("end meeting: %w", inner)

	assert.Same(t, inner, ToDomainError(wrapped))
	assert.True(t, IsCode(wrapped, CodeInvalidState))
	assert.False(t, IsCode(errors.New("plain"), CodeInvalidState))
}

func TestToDomainError_NoRows(t *testing.T) {
	domainErr := ToDomainError(fmt.Errorf("load: %w", pgx.ErrNoRows))
	assert.Equal(t, CodeNotFound, domainErr.Code)
}

func TestToDomainError_Unknown(t *testing.T) {
	cause := errors.New("boom")
	domainErr := ToDomainError(cause)
	assert.Equal(t, CodeInternal, domainErr.Code)
	assert.ErrorIs(t, domainErr, cause)
	assert.Equal(t, "internal server error: boom", domainErr.Error())

	assert.Nil(t, ToDomainError(nil))
	assert.NoError(t, MapError(nil))
}

func TestNewExternalServiceError_Details(t *testing.T) {
	err := NewExternalServiceError("llm", errors.New("timeout"))
	domainErr := ToDomainError(err)
	assert.Equal(t, "llm unavailable", domainErr.Message)
	assert.Equal(t, "llm", domainErr.Details["service"])
}
