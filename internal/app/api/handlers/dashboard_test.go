package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/barberpro/mpmock/internal/models"
	"github.com/barberpro/mpmock/pkg/apierr"
)

func TestDashboardScenario_GetAndSet(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodGet, "/api/dashboard/scenario", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[scenarioResp](t, w)
	require.Equal(t, "success", resp.Scenario)
	require.NotEmpty(t, resp.Available)

	w = env.do(t, http.MethodPut, "/api/dashboard/scenario", map[string]any{"scenario": "rejected"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "rejected", decode[scenarioResp](t, w).Scenario)

	// subsequent creations without an explicit scenario now reject
	w = env.do(t, http.MethodPost, "/v1/payments", validPaymentBody())
	require.Equal(t, http.StatusCreated, w.Code)
	p := decode[models.Payment](t, w)
	require.Equal(t, models.PaymentStatusRejected, p.Status)
}

func TestDashboardScenario_RejectsUnknown(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodPut, "/api/dashboard/scenario", map[string]any{"scenario": "bogus"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid_scenario", decode[apierr.Error](t, w).Code)
}

func TestDashboardTransactions_InspectAndClear(t *testing.T) {
	env := newTestEnv(t, "")
	createApprovedPayment(t, env)

	w := env.do(t, http.MethodGet, "/api/dashboard/transactions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[transactionsResp](t, w)
	require.Equal(t, 1, resp.Total)
	require.Len(t, resp.Payments, 1)

	w = env.do(t, http.MethodDelete, "/api/dashboard/transactions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, decode[clearTransactionsResp](t, w).Cleared)

	w = env.do(t, http.MethodGet, "/api/dashboard/transactions", nil)
	resp = decode[transactionsResp](t, w)
	require.Zero(t, resp.Total)
	require.Empty(t, resp.Webhooks)
}

func TestDashboardWebhook_Trigger(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	env := newTestEnv(t, srv.URL)
	p := createApprovedPayment(t, env)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/api/dashboard/webhook/%d", p.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/dashboard/webhook/42", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboardWebhook_DeliveryFailureIs500(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1/webhook")
	p := createApprovedPayment(t, env)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/api/dashboard/webhook/%d", p.ID), nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "delivery_failed", decode[apierr.Error](t, w).Code)
}
