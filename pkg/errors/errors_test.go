package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConstructors(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")

	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
		wantMsg    string
	}{
		{"validation", NewValidationError("bad price"), ErrorTypeValidation, http.StatusBadRequest, "bad price"},
		{"not found", NewNotFoundError(`user "u1"`), ErrorTypeNotFound, http.StatusNotFound, `user "u1" not found`},
		{"conflict", NewConflictError("exists"), ErrorTypeConflict, http.StatusConflict, "exists"},
		{"internal", NewInternalError("boom"), ErrorTypeInternal, http.StatusInternalServerError, "boom"},
		{"unavailable", NewUnavailableError("mongodb"), ErrorTypeUnavailable, http.StatusServiceUnavailable, "service 'mongodb' is unavailable"},
		{"backend", NewBackendError("find user", cause), ErrorTypeBackend, http.StatusBadGateway, "backend operation 'find user' failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus)
			assert.Equal(t, tt.wantMsg, tt.err.Message)
			assert.NotEmpty(t, tt.err.StackTrace)
			assert.True(t, IsType(tt.err, tt.wantType))
		})
	}
}

func TestBackendErrorKeepsCause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := NewBackendError("delete product", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
	assert.True(t, IsBackend(err))
	assert.False(t, IsNotFound(err))
}

func TestHelpersFollowWrappedChains(t *testing.T) {
	err := fmt.Errorf("resolve: %w", NewNotFoundError("product"))

	assert.True(t, IsAppError(err))
	assert.True(t, IsNotFound(err))
	require.NotNil(t, GetAppError(err))
	assert.Nil(t, GetAppError(fmt.Errorf("plain")))
}

func TestExtensions(t *testing.T) {
	err := NewConflictError("user already exists").
		WithCode("DUPLICATE_KEY").
		WithDetails(map[string]interface{}{"id": "u1"})

	ext := err.Extensions()
	assert.Equal(t, "CONFLICT", ext["code"])
	assert.Equal(t, "DUPLICATE_KEY", ext["reason"])
	assert.Equal(t, "u1", ext["id"])
}

func TestExtensionsReportCause(t *testing.T) {
	err := NewBackendError("find user", fmt.Errorf("mongodb find user: connection reset by peer"))

	ext := err.Extensions()
	assert.Equal(t, "BACKEND", ext["code"])
	assert.Equal(t, "mongodb find user: connection reset by peer", ext["cause"])

	_, ok := NewNotFoundError("user").Extensions()["cause"]
	assert.False(t, ok)
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		debug      bool
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "app error",
			err:        NewValidationError("request body is not valid JSON"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION",
			wantMsg:    "request body is not valid JSON",
		},
		{
			name:       "unavailable with cause",
			err:        NewUnavailableError("store").WithCause(fmt.Errorf("connection manager is closed")),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "UNAVAILABLE",
			wantMsg:    "service 'store' is unavailable",
		},
		{
			name:       "plain error hidden",
			err:        fmt.Errorf("secret detail"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL",
			wantMsg:    "An internal error occurred",
		},
		{
			name:       "plain error in debug",
			err:        fmt.Errorf("secret detail"),
			debug:      true,
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL",
			wantMsg:    "secret detail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewErrorHandler(zap.NewNop(), tt.debug)
			req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
			req.Header.Set("X-Request-ID", "req-1")
			rec := httptest.NewRecorder()

			h.Handle(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Len(t, body.Errors, 1)
			assert.Equal(t, tt.wantMsg, body.Errors[0].Message)
			assert.Equal(t, tt.wantCode, body.Errors[0].Extensions["code"])
			assert.Equal(t, "req-1", body.Errors[0].Extensions["request_id"])
		})
	}
}
