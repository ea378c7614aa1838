package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func healthy(context.Context) error { return nil }

func TestHealthHandler(t *testing.T) {
	cases := []struct {
		name   string
		db     HealthChecker
		redis  HealthChecker
		status string
		rd     string
	}{
		{"all up", checkerFunc(healthy), checkerFunc(healthy), "healthy", "connected"},
		{"redis disabled", checkerFunc(healthy), nil, "healthy", "disabled"},
		{"redis down", checkerFunc(healthy), checkerFunc(func(context.Context) error { return errors.New("refused") }), "degraded", "disconnected"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(tc.db, tc.redis).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/server/health", nil))

			require.Equal(t, http.StatusOK, rec.Code)
			var body HealthResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tc.status, body.Status)
			assert.Equal(t, tc.rd, body.Redis)
		})
	}
}
