package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cctp-courier/internal/cctp"
	"github.com/custodia-labs/cctp-courier/internal/config"
	"github.com/custodia-labs/cctp-courier/internal/pipeline"
	"github.com/custodia-labs/cctp-courier/pkg/logger"
)

type stubRunner struct{}

func (stubRunner) Execute(ctx context.Context, req pipeline.TransferRequest) (*pipeline.TransferResult, error) {
	return &pipeline.TransferResult{}, nil
}

func (stubRunner) Resume(ctx context.Context, burnTxHash string, mode cctp.Mode) (*pipeline.TransferResult, error) {
	return &pipeline.TransferResult{}, nil
}

type stubChecker struct{}

func (stubChecker) Health(ctx context.Context) error { return nil }

func testRouter(authToken string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Server: config.ServerConfig{
			RateLimitPerMin: 600,
		},
	}
	return SetupRoutes(cfg, authToken, stubRunner{}, stubChecker{}, logger.NewNop())
}

func do(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpointsRequireNoAuth(t *testing.T) {
	router := testRouter("secret")

	for _, path := range []string{"/health", "/health/live", "/health/ready", "/version", "/metrics"} {
		w := do(router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestTransferRoutesGatedByBearerToken(t *testing.T) {
	router := testRouter("secret")

	t.Run("no token", func(t *testing.T) {
		w := do(router, http.MethodGet, "/v1/transfers/latest", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong token", func(t *testing.T) {
		w := do(router, http.MethodGet, "/v1/transfers/latest", map[string]string{
			"Authorization": "Bearer wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		w := do(router, http.MethodGet, "/v1/transfers/latest", map[string]string{
			"Authorization": "secret",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token reaches the handler", func(t *testing.T) {
		w := do(router, http.MethodGet, "/v1/transfers/latest", map[string]string{
			"Authorization": "Bearer secret",
		})
		// No transfer has run, so the handler itself answers 404.
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTransferRoutesOpenWithoutConfiguredToken(t *testing.T) {
	router := testRouter("")

	w := do(router, http.MethodGet, "/v1/transfers/latest", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResponseHeaders(t *testing.T) {
	router := testRouter("")

	w := do(router, http.MethodGet, "/health/live", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	router := testRouter("")

	w := do(router, http.MethodGet, "/health/live", map[string]string{
		"X-Request-ID": "req-42",
	})
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestMetricsRecordServedRequests(t *testing.T) {
	router := testRouter("")

	do(router, http.MethodGet, "/health/live", nil)
	w := do(router, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "courier_http_requests_total")
}
