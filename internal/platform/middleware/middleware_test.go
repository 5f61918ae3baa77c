// Copyright (c) 2026 Mintara. All rights reserved.

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintara/mintara/internal/platform/ctxutil"
	"github.com/mintara/mintara/internal/platform/middleware"
)

/*
TestRequestID verifies correlation-ID handling: a client-supplied ID is
propagated, a missing one is generated, and the ID always reaches both the
response header and the request context.
*/
func TestRequestID(t *testing.T) {
	var seenID string
	next := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		seenID = ctxutil.GetRequestID(request.Context())
	})
	handler := middleware.RequestID()(next)

	t.Run("propagates client-supplied ID", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("X-Request-ID", "client-chosen-id")
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, request)

		assert.Equal(t, "client-chosen-id", recorder.Header().Get("X-Request-ID"))
		assert.Equal(t, "client-chosen-id", seenID)
	})

	t.Run("generates an ID when absent", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, request)

		generated := recorder.Header().Get("X-Request-ID")
		require.NotEmpty(t, generated)
		assert.Equal(t, generated, seenID)
	})
}

/*
TestRealIP verifies client IP resolution order: X-Real-IP first, then the
first entry of X-Forwarded-For, then the connection's remote address.
*/
func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "prefers X-Real-IP",
			headers: map[string]string{"X-Real-IP": "10.0.0.1", "X-Forwarded-For": "10.0.0.2"},
			want:    "10.0.0.1",
		},
		{
			name:    "falls back to first X-Forwarded-For entry",
			headers: map[string]string{"X-Forwarded-For": "10.0.0.2, 10.0.0.3"},
			want:    "10.0.0.2",
		},
		{
			name: "falls back to the remote address",
			want: "192.0.2.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			for key, value := range tt.headers {
				request.Header.Set(key, value)
			}

			assert.Equal(t, tt.want, middleware.RealIP(request))
		})
	}
}
