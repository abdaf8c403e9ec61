package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikepulse/internal/infrastructure"
)

func newTestHandler() *ErrorHandler {
	return NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
	}{
		{"hour range", InvalidHourRange(20, 5), http.StatusBadRequest, TypeInvalidQuery, CodeInvalidHourRange},
		{"bad date", InvalidDate("start", "2011/01/01"), http.StatusBadRequest, TypeInvalidQuery, CodeInvalidDate},
		{"unknown table", UnknownTable("daily", []string{"hourly"}), http.StatusBadRequest, TypeUnknownTable, CodeUnknownTable},
		{"unsupported format", UnsupportedFormat("pdf", []string{"csv"}), http.StatusBadRequest, TypeUnsupportedFormat, CodeUnsupportedFormat},
		{"dataset", ErrDatasetUnavailable, http.StatusServiceUnavailable, TypeDatasetUnavailable, CodeDatasetUnavailable},
		{"wrapped api error", fmt.Errorf("compute: %w", ErrValidation("start_hour", "too big")), http.StatusBadRequest, TypeValidation, CodeValidationFailed},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout, ""},
		{"string not found", fmt.Errorf("season not found"), http.StatusNotFound, TypeNotFound, ""},
		{"unknown", fmt.Errorf("disk on fire"), http.StatusInternalServerError, TypeInternal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
			req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-abc"))
			rec := httptest.NewRecorder()

			newTestHandler().HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/dashboard", body["instance"])
			assert.Equal(t, "trace-abc", body["trace_id"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
			} else {
				assert.NotContains(t, body, "error_code")
			}
		})
	}
}

func TestHandleErrorNil(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler().HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, 0, rec.Body.Len())
}

func TestValidationErrorsExposeFieldList(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "start", Message: "start must be a date"},
		{Field: "end_hour", Message: "end_hour must be at most 23"},
	})
	assert.Equal(t, "start must be a date; end_hour must be at most 23", err.Error())

	rec := httptest.NewRecorder()
	newTestHandler().HandleError(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil), err)

	body := decodeProblem(t, rec)
	fields, ok := body["errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, fields, 2)
	assert.Equal(t, "end_hour", fields[1].(map[string]interface{})["field"])
	assert.NotContains(t, body, "details")
}

func TestHandlePanicAndRecoveryMiddleware(t *testing.T) {
	h := NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), true)
	panicky := RecoveryMiddleware(h)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		panicky.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/hourly", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeInternal, body["type"])
	assert.Equal(t, "boom", body["panic"])
	assert.Contains(t, body, "stack")
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, rec)["type"])

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/hourly", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeMethodNotAllowed, body["type"])
	assert.Contains(t, body["detail"], "DELETE")
}

func TestProblemDetailsMarshalKeepsStandardMembers(t *testing.T) {
	p := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad Request", "", "").
		WithExtension("status", 999).
		WithExtension("hint", "check the dates")

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, float64(http.StatusBadRequest), body["status"])
	assert.Equal(t, "check the dates", body["hint"])
	assert.NotContains(t, body, "detail")
	assert.NotContains(t, body, "instance")

	var zero ProblemDetails
	assert.NotPanics(t, func() { zero.WithExtension("k", "v") })
}
