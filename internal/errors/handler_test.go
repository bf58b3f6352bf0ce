package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchrecon/internal/infrastructure"
	"switchrecon/internal/shared/testutil"
)

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"deadline exceeded", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout},
		{"api validation", ErrInvalidRequest, http.StatusBadRequest, TypeValidation},
		{"run not found", ErrRunNotFound, http.StatusNotFound, TypeRunNotFound},
		{"run not finished", ErrRunNotFinished, http.StatusConflict, TypeRunNotFinished},
		{"missing input", NewMissingInputError("primary input"), http.StatusBadRequest, TypeMissingInput},
		{"catastrophic", fmt.Errorf("run: %w", NewCatastrophicError("unreadable", nil)), http.StatusUnprocessableEntity, TypeRunFailed},
		{"app not found", NewNotFoundError("run"), http.StatusNotFound, TypeNotFound},
		{"max bytes", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge, TypePayloadTooLarge},
		{"unknown", errors.New("kaboom"), http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, handler := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/abc", nil)
			req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-1"))
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/v1/runs/abc", body["instance"])
			assert.Equal(t, "trace-1", body["trace_id"])
			assert.NotContains(t, body, "stack")

			testutil.AssertLogAttr(t, handler, "component", "error_handler")
		})
	}
}

func TestErrorHandler_NilError(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, handler.Count())
	assert.Empty(t, rec.Body.String())
}

func TestErrorHandler_IncludeStack(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), errors.New("boom"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "stack")
}

func TestErrorHandler_NotFoundAndMethod(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "DELETE")
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.HandlePanic(rec, httptest.NewRequest(http.MethodGet, "/x", nil), "nil map write")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, handler.ContainsMessage("panic recovered"))
}

func TestProblemDetailsMarshal(t *testing.T) {
	p := NewProblemDetails(http.StatusConflict, TypeRunNotFinished, "Conflict", "", "").
		WithExtension("run_id", "r1").
		WithExtension("status", "ignored")

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "r1", body["run_id"])
	assert.Equal(t, float64(http.StatusConflict), body["status"], "standard fields win over extensions")
	assert.NotContains(t, body, "detail")
}
