package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/barberpro/mpmock/internal/app/service/payment"
	"github.com/barberpro/mpmock/internal/app/service/scenario"
	"github.com/barberpro/mpmock/internal/app/service/webhook"
	"github.com/barberpro/mpmock/pkg/config"
)

type testEnv struct {
	router     *gin.Engine
	cfg        *config.Config
	mgr        payment.Manager
	resolver   *scenario.Resolver
	dispatcher *webhook.Dispatcher
}

func newTestEnv(t *testing.T, webhookURL string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Env: config.EnvDev,
		Webhook: config.WebhookConfig{
			URL:            webhookURL,
			TimeoutSeconds: 1,
			RetryCount:     3,
			HistorySize:    100,
		},
		Scenario: config.ScenarioConfig{File: "testdata/does-not-exist.yaml"},
	}
	log := zap.NewNop().Sugar()
	resolver := scenario.New(cfg, log)
	dispatcher := webhook.NewDispatcher(cfg, log)
	mgr := payment.NewService(cfg, log, payment.NewStore(), resolver, dispatcher)

	r := gin.New()
	RegisterHealthRoutes(r)
	RegisterPaymentRoutes(r.Group("/v1"), mgr, log)
	api := r.Group("/api")
	RegisterWebhookRoutes(api.Group("/webhooks"), cfg, mgr, dispatcher)
	RegisterDashboardRoutes(api.Group("/dashboard"), resolver, mgr, dispatcher)

	return &testEnv{router: r, cfg: cfg, mgr: mgr, resolver: resolver, dispatcher: dispatcher}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, "")
	w := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[map[string]any](t, w)
	require.Equal(t, "ok", body["status"])
	require.Contains(t, body, "uptime")
}
