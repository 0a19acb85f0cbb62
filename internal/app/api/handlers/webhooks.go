package handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/barberpro/mpmock/internal/app/service/payment"
	"github.com/barberpro/mpmock/internal/app/service/webhook"
	"github.com/barberpro/mpmock/internal/models"
	"github.com/barberpro/mpmock/pkg/apierr"
	"github.com/barberpro/mpmock/pkg/config"
)

type triggerWebhookRequest struct {
	Delay       int    `json:"delay"`
	Action      string `json:"action"`
	EnableRetry bool   `json:"enableRetry"`
	WebhookURL  string `json:"webhookUrl"`
}

type triggerWebhookResp struct {
	Scheduled bool                    `json:"scheduled"`
	DelayMs   int                     `json:"delay_ms"`
	Result    *webhook.DeliveryResult `json:"result,omitempty"`
}

type webhookConfigResp struct {
	URL            string `json:"url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	RetryCount     int    `json:"retry_count"`
	HistorySize    int    `json:"history_size"`
}

type webhookConfigRequest struct {
	URL string `json:"url"`
}

type testWebhookRequest struct {
	WebhookURL string `json:"webhookUrl"`
	PaymentID  *int64 `json:"paymentId"`
}

func parseAction(s string) models.WebhookAction {
	if s == string(models.WebhookActionPaymentCreated) {
		return models.WebhookActionPaymentCreated
	}
	return models.WebhookActionPaymentUpdated
}

// @Summary      Trigger webhook
// @Description  Fires a notification for an existing payment. A positive delay schedules the delivery without awaiting it; delay 0 delivers synchronously and returns the result. enableRetry is echoed as metadata only: retries are repeated explicit trigger calls.
// @Tags         Webhooks
// @Accept       json
// @Produce      json
// @Param        paymentId path int true "Payment id"
// @Param        request body triggerWebhookRequest false "Trigger options"
// @Success      200  {object}  triggerWebhookResp
// @Failure      404  {object}  apierr.Error
// @Router       /api/webhooks/trigger/{paymentId} [post]
func ApiTriggerWebhook(mgr payment.Manager, d *webhook.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paymentID(c, "paymentId")
		if !ok {
			return
		}
		var req triggerWebhookRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				writeError(c, apierr.BadRequest("invalid_request", "request body must be valid JSON"))
				return
			}
		}
		p, err := mgr.GetPayment(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}

		action := parseAction(req.Action)
		if req.Delay > 0 {
			d.ScheduleFireAndForget(req.WebhookURL, action, p, time.Duration(req.Delay)*time.Millisecond)
			c.JSON(http.StatusOK, triggerWebhookResp{Scheduled: true, DelayMs: req.Delay})
			return
		}
		res := d.Send(c.Request.Context(), req.WebhookURL, p, action)
		c.JSON(http.StatusOK, triggerWebhookResp{Scheduled: false, Result: &res})
	}
}

// @Summary      Get webhook configuration
// @Tags         Webhooks
// @Produce      json
// @Success      200  {object}  webhookConfigResp
// @Router       /api/webhooks/config [get]
func ApiGetWebhookConfig(cfg *config.Config, d *webhook.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, webhookConfigResp{
			URL:            d.URL(),
			TimeoutSeconds: cfg.Webhook.TimeoutSeconds,
			RetryCount:     cfg.Webhook.RetryCount,
			HistorySize:    cfg.Webhook.HistorySize,
		})
	}
}

// @Summary      Update webhook configuration
// @Description  Sets the process-wide notification target. An empty URL disables deliveries.
// @Tags         Webhooks
// @Accept       json
// @Produce      json
// @Param        request body webhookConfigRequest true "Webhook URL"
// @Success      200  {object}  webhookConfigResp
// @Failure      400  {object}  apierr.Error
// @Router       /api/webhooks/config [put]
func ApiSetWebhookConfig(cfg *config.Config, d *webhook.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req webhookConfigRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apierr.BadRequest("invalid_request", "request body must be valid JSON"))
			return
		}
		if req.URL != "" {
			u, err := url.ParseRequestURI(req.URL)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
				writeError(c, apierr.BadRequest("invalid_url", "webhook url must be a valid http(s) URL"))
				return
			}
		}
		d.SetURL(req.URL)
		c.JSON(http.StatusOK, webhookConfigResp{
			URL:            d.URL(),
			TimeoutSeconds: cfg.Webhook.TimeoutSeconds,
			RetryCount:     cfg.Webhook.RetryCount,
			HistorySize:    cfg.Webhook.HistorySize,
		})
	}
}

// @Summary      Send test webhook
// @Description  Delivers a notification to the given URL, for an existing payment or a synthetic one when paymentId is omitted.
// @Tags         Webhooks
// @Accept       json
// @Produce      json
// @Param        request body testWebhookRequest true "Test target"
// @Success      200  {object}  webhook.DeliveryResult
// @Failure      400  {object}  apierr.Error
// @Failure      404  {object}  apierr.Error
// @Failure      500  {object}  apierr.Error
// @Router       /api/webhooks/test [post]
func ApiTestWebhook(mgr payment.Manager, d *webhook.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req testWebhookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apierr.BadRequest("invalid_request", "request body must be valid JSON"))
			return
		}
		if req.WebhookURL == "" {
			writeError(c, apierr.BadRequest("invalid_url", "webhookUrl is required"))
			return
		}

		var p *models.Payment
		if req.PaymentID != nil {
			existing, err := mgr.GetPayment(c.Request.Context(), *req.PaymentID)
			if err != nil {
				writeError(c, err)
				return
			}
			p = existing
		} else {
			p = syntheticPayment()
		}
		res := d.Send(c.Request.Context(), req.WebhookURL, p, models.WebhookActionPaymentUpdated)
		if res.Status == webhook.DeliveryStatusFailed {
			e := apierr.New(http.StatusInternalServerError, "delivery_failed", res.Message)
			c.JSON(e.HTTPStatus(), e)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// syntheticPayment is a throwaway approved payment for webhook smoke tests;
// it is never stored.
func syntheticPayment() *models.Payment {
	now := time.Now().UTC()
	return &models.Payment{
		ID:                999_999_999,
		Status:            models.PaymentStatusApproved,
		StatusDetail:      "accredited",
		TransactionAmount: 100,
		CurrencyID:        "ARS",
		PaymentMethodID:   "visa",
		PaymentTypeID:     "credit_card",
		Installments:      1,
		Payer:             &models.Payer{Email: "test@example.com"},
		DateCreated:       now,
		DateApproved:      &now,
		AuthorizationCode: "999999",
	}
}

func RegisterWebhookRoutes(r gin.IRouter, cfg *config.Config, mgr payment.Manager, d *webhook.Dispatcher) {
	r.POST("/trigger/:paymentId", ApiTriggerWebhook(mgr, d))
	r.GET("/config", ApiGetWebhookConfig(cfg, d))
	r.PUT("/config", ApiSetWebhookConfig(cfg, d))
	r.POST("/test", ApiTestWebhook(mgr, d))
}
