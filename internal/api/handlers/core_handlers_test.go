package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cctp-courier/pkg/logger"
)

type fakeChecker struct {
	err   error
	calls int
}

func (f *fakeChecker) Health(ctx context.Context) error {
	f.calls++
	return f.err
}

func coreRouter(checker ReadinessChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewCoreHandlers(checker, logger.NewNop())

	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/health/live", h.Live)
	router.GET("/health/ready", h.Ready)
	router.GET("/version", h.Version)
	router.GET("/metrics", h.Metrics)
	return router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		checker := &fakeChecker{}
		w := get(coreRouter(checker), "/health")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"healthy"`)
		assert.Contains(t, w.Body.String(), "solana_rpc")
		assert.Equal(t, 1, checker.calls)
	})

	t.Run("rpc down", func(t *testing.T) {
		checker := &fakeChecker{err: errors.New("connection refused")}
		w := get(coreRouter(checker), "/health")

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"unhealthy"`)
		assert.Contains(t, w.Body.String(), "connection refused")
	})
}

func TestReady(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		w := get(coreRouter(&fakeChecker{}), "/health/ready")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"ready"`)
	})

	t.Run("not ready", func(t *testing.T) {
		w := get(coreRouter(&fakeChecker{err: errors.New("down")}), "/health/ready")

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"not_ready"`)
	})
}

func TestLive(t *testing.T) {
	// Liveness never consults the RPC.
	checker := &fakeChecker{err: errors.New("down")}
	w := get(coreRouter(checker), "/health/live")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"alive"`)
	assert.Zero(t, checker.calls)
}

func TestVersion(t *testing.T) {
	w := get(coreRouter(&fakeChecker{}), "/version")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cctp-courier")
}

func TestMetricsEndpoint(t *testing.T) {
	w := get(coreRouter(&fakeChecker{}), "/metrics")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
