package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		requestID      string
		handlerStatus  int
		expectedStatus int
		expectLogged   bool
	}{
		{
			name:           "Logged with generated id",
			path:           "/log",
			handlerStatus:  http.StatusOK,
			expectedStatus: http.StatusOK,
			expectLogged:   true,
		},
		{
			name:           "Inbound id reused",
			path:           "/logs",
			requestID:      "abc-123",
			handlerStatus:  http.StatusInternalServerError,
			expectedStatus: http.StatusInternalServerError,
			expectLogged:   true,
		},
		{
			name:           "Health probe not logged",
			path:           "/healthz",
			handlerStatus:  http.StatusOK,
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.InfoLevel)
			mw := NewMiddleware(zap.New(core))

			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.requestID != "" {
				req.Header.Set(RequestIDHeader, tt.requestID)
			}
			rr := httptest.NewRecorder()

			handler := mw.RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
			}))
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			gotID := rr.Header().Get(RequestIDHeader)
			assert.NotEmpty(t, gotID)
			if tt.requestID != "" {
				assert.Equal(t, tt.requestID, gotID)
			}

			if !tt.expectLogged {
				assert.Zero(t, logs.Len())
				return
			}
			require.Equal(t, 1, logs.Len())
			fields := logs.All()[0].ContextMap()
			assert.Equal(t, tt.path, fields["path"])
			assert.Equal(t, int64(tt.expectedStatus), fields["status"])
			assert.Equal(t, gotID, fields["request_id"])
		})
	}
}

func TestRecoverer(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	mw := NewMiddleware(zap.New(core))

	handler := mw.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest("GET", "/logs", nil)
	rr := httptest.NewRecorder()

	assert.NotPanics(t, func() { handler.ServeHTTP(rr, req) })
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, 1, logs.FilterMessage("handler panic").Len())
}
