package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/barberpro/mpmock/internal/app/service/payment"
	"github.com/barberpro/mpmock/internal/app/service/scenario"
	"github.com/barberpro/mpmock/internal/app/service/webhook"
	"github.com/barberpro/mpmock/internal/models"
	"github.com/barberpro/mpmock/pkg/apierr"
)

type scenarioResp struct {
	Scenario  string   `json:"scenario"`
	Available []string `json:"available"`
}

type setScenarioRequest struct {
	Scenario string `json:"scenario"`
}

type transactionsResp struct {
	Total    int                      `json:"total"`
	Payments []*models.Payment        `json:"payments"`
	Webhooks []webhook.DeliveryResult `json:"webhooks"`
}

type clearTransactionsResp struct {
	Message string `json:"message"`
	Cleared int    `json:"cleared"`
}

// @Summary      Get active scenario
// @Tags         Dashboard
// @Produce      json
// @Success      200  {object}  scenarioResp
// @Router       /api/dashboard/scenario [get]
func ApiGetScenario(r *scenario.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, scenarioResp{Scenario: r.Default(), Available: r.Names()})
	}
}

// @Summary      Set active scenario
// @Description  Switches the default outcome applied to creation requests that name no scenario.
// @Tags         Dashboard
// @Accept       json
// @Produce      json
// @Param        request body setScenarioRequest true "Scenario name"
// @Success      200  {object}  scenarioResp
// @Failure      400  {object}  apierr.Error
// @Router       /api/dashboard/scenario [put]
func ApiSetScenario(r *scenario.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req setScenarioRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apierr.BadRequest("invalid_request", "request body must be valid JSON"))
			return
		}
		if err := r.SetDefault(req.Scenario); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, scenarioResp{Scenario: r.Default(), Available: r.Names()})
	}
}

// @Summary      Inspect recent transactions
// @Description  Returns stored payments plus the recent webhook delivery history.
// @Tags         Dashboard
// @Produce      json
// @Success      200  {object}  transactionsResp
// @Router       /api/dashboard/transactions [get]
func ApiDashboardTransactions(mgr payment.Manager, d *webhook.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		payments, err := mgr.ListPayments(c.Request.Context(), nil)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, transactionsResp{
			Total:    len(payments),
			Payments: payments,
			Webhooks: d.History(),
		})
	}
}

// @Summary      Clear recent transactions
// @Description  Drops every stored payment and the webhook delivery history.
// @Tags         Dashboard
// @Produce      json
// @Success      200  {object}  clearTransactionsResp
// @Router       /api/dashboard/transactions [delete]
func ApiClearDashboardTransactions(mgr payment.Manager, d *webhook.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		n := mgr.ClearPayments(c.Request.Context())
		d.ClearHistory()
		c.JSON(http.StatusOK, clearTransactionsResp{Message: "transactions cleared", Cleared: n})
	}
}

// @Summary      Trigger webhook from dashboard
// @Description  Synchronously delivers a payment.updated notification for the payment.
// @Tags         Dashboard
// @Produce      json
// @Param        paymentId path int true "Payment id"
// @Success      200  {object}  webhook.DeliveryResult
// @Failure      404  {object}  apierr.Error
// @Failure      500  {object}  apierr.Error
// @Router       /api/dashboard/webhook/{paymentId} [post]
func ApiDashboardTriggerWebhook(mgr payment.Manager, d *webhook.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paymentID(c, "paymentId")
		if !ok {
			return
		}
		p, err := mgr.GetPayment(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		res := d.Send(c.Request.Context(), "", p, models.WebhookActionPaymentUpdated)
		if res.Status == webhook.DeliveryStatusFailed {
			e := apierr.New(http.StatusInternalServerError, "delivery_failed", res.Message)
			c.JSON(e.HTTPStatus(), e)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func RegisterDashboardRoutes(r gin.IRouter, res *scenario.Resolver, mgr payment.Manager, d *webhook.Dispatcher) {
	r.GET("/scenario", ApiGetScenario(res))
	r.PUT("/scenario", ApiSetScenario(res))
	r.GET("/transactions", ApiDashboardTransactions(mgr, d))
	r.DELETE("/transactions", ApiClearDashboardTransactions(mgr, d))
	r.POST("/webhook/:paymentId", ApiDashboardTriggerWebhook(mgr, d))
}
