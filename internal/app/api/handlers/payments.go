package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/barberpro/mpmock/internal/app/service/payment"
	"github.com/barberpro/mpmock/internal/app/service/scenario"
	"github.com/barberpro/mpmock/internal/models"
	"github.com/barberpro/mpmock/pkg/apierr"
	"github.com/barberpro/mpmock/pkg/logctx"
)

type paging struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type listPaymentsResp struct {
	Paging  paging            `json:"paging"`
	Results []*models.Payment `json:"results"`
}

type clearPaymentsResp struct {
	Message string `json:"message"`
	Cleared int    `json:"cleared"`
}

type refundRequest struct {
	Amount *float64 `json:"amount"`
}

// writeError maps service error kinds onto HTTP statuses and the
// {error, message, details?} body every endpoint uses.
func writeError(c *gin.Context, err error) {
	var apiErr *apierr.Error
	var valErr *payment.ValidationError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &valErr):
		apiErr = apierr.Validation(valErr.Violations)
	case errors.Is(err, scenario.ErrInvalidScenario):
		apiErr = apierr.InvalidScenario(err.Error())
	case errors.Is(err, payment.ErrPaymentNotFound):
		apiErr = apierr.NotFound("payment_not_found", err.Error())
	case errors.Is(err, payment.ErrPaymentNotApproved):
		apiErr = apierr.BadRequest("payment_not_approved", err.Error())
	case errors.Is(err, payment.ErrAmountExceedsPayment):
		apiErr = apierr.BadRequest("amount_exceeds_payment", err.Error())
	default:
		apiErr = apierr.Internal("internal server error")
	}
	c.JSON(apiErr.HTTPStatus(), apiErr)
}

func paymentID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil {
		e := apierr.NotFound("payment_not_found", "payment id must be numeric")
		c.JSON(e.HTTPStatus(), e)
		return 0, false
	}
	return id, true
}

// @Summary      Create payment
// @Description  Creates a simulated payment. The optional scenario query parameter overrides the active default scenario.
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        scenario query string false "Scenario name (e.g. success, pending, rejected_insufficient_amount)"
// @Param        request body payment.CreatePaymentRequest true "Payment creation request"
// @Success      201  {object}  models.Payment
// @Failure      400  {object}  apierr.Error
// @Router       /v1/payments [post]
func ApiCreatePayment(mgr payment.Manager, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payment.CreatePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apierr.BadRequest("invalid_request", "request body must be valid JSON"))
			return
		}
		p, err := mgr.CreatePayment(c.Request.Context(), &req, c.Query("scenario"))
		if err != nil {
			logctx.FromGin(c, log).Infow("payment_create_rejected", "error", err.Error())
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// @Summary      Get payment
// @Tags         Payments
// @Produce      json
// @Param        id path int true "Payment id"
// @Success      200  {object}  models.Payment
// @Failure      404  {object}  apierr.Error
// @Router       /v1/payments/{id} [get]
func ApiGetPayment(mgr payment.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paymentID(c, "id")
		if !ok {
			return
		}
		p, err := mgr.GetPayment(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// @Summary      Update payment status
// @Description  Applies the requested status/status_detail as-is; transitions are intentionally unconstrained so tests can simulate provider-side state changes.
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        id path int true "Payment id"
// @Param        request body payment.UpdatePaymentRequest true "Status update"
// @Success      200  {object}  models.Payment
// @Failure      404  {object}  apierr.Error
// @Router       /v1/payments/{id} [put]
func ApiUpdatePayment(mgr payment.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paymentID(c, "id")
		if !ok {
			return
		}
		var req payment.UpdatePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apierr.BadRequest("invalid_request", "request body must be valid JSON"))
			return
		}
		p, err := mgr.UpdatePayment(c.Request.Context(), id, &req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// @Summary      List payments
// @Tags         Payments
// @Produce      json
// @Param        status query string false "Filter by status"
// @Param        external_reference query string false "Filter by external reference"
// @Success      200  {object}  listPaymentsResp
// @Router       /v1/payments [get]
func ApiListPayments(mgr payment.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := mgr.ListPayments(c.Request.Context(), &payment.ListFilter{
			Status:            c.Query("status"),
			ExternalReference: c.Query("external_reference"),
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, listPaymentsResp{
			Paging:  paging{Total: len(results), Limit: len(results)},
			Results: results,
		})
	}
}

// @Summary      Clear all payments
// @Description  Test/dev utility; removes every stored payment.
// @Tags         Payments
// @Produce      json
// @Success      200  {object}  clearPaymentsResp
// @Router       /v1/payments [delete]
func ApiClearPayments(mgr payment.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		n := mgr.ClearPayments(c.Request.Context())
		c.JSON(http.StatusOK, clearPaymentsResp{Message: "all payments cleared", Cleared: n})
	}
}

// @Summary      Create refund
// @Description  Refunds the given amount, or the full remaining amount when omitted.
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        id path int true "Payment id"
// @Param        request body refundRequest false "Refund amount"
// @Success      201  {object}  models.Refund
// @Failure      400  {object}  apierr.Error
// @Failure      404  {object}  apierr.Error
// @Router       /v1/payments/{id}/refunds [post]
func ApiCreateRefund(mgr payment.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paymentID(c, "id")
		if !ok {
			return
		}
		var req refundRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				writeError(c, apierr.BadRequest("invalid_request", "request body must be valid JSON"))
				return
			}
		}
		r, err := mgr.CreateRefund(c.Request.Context(), id, req.Amount)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, r)
	}
}

func RegisterPaymentRoutes(r gin.IRouter, mgr payment.Manager, log *zap.SugaredLogger) {
	r.POST("/payments", ApiCreatePayment(mgr, log))
	r.GET("/payments", ApiListPayments(mgr))
	r.DELETE("/payments", ApiClearPayments(mgr))
	r.GET("/payments/:id", ApiGetPayment(mgr))
	r.PUT("/payments/:id", ApiUpdatePayment(mgr))
	r.POST("/payments/:id/refunds", ApiCreateRefund(mgr))
}
