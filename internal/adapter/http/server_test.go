package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct{ err error }

func (f fakeChecker) CheckReadiness(_ context.Context) error { return f.err }

type fakeStats struct{ size int }

func (f fakeStats) CacheSize() int { return f.size }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHealthzReportsCacheSize(t *testing.T) {
	s := NewServer(":0", fakeChecker{}, fakeStats{size: 42}, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cache_size":42`)
}

func TestReadyzReflectsEngineState(t *testing.T) {
	s := NewServer(":0", fakeChecker{err: errors.New("not ready yet")}, nil, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
