package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/barberpro/mpmock/internal/app/service/scenario"
	"github.com/barberpro/mpmock/internal/app/service/webhook"
	"github.com/barberpro/mpmock/internal/models"
	"github.com/barberpro/mpmock/pkg/config"
	"github.com/barberpro/mpmock/pkg/logctx"
	"github.com/barberpro/mpmock/pkg/tool"
)

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentNotApproved   = errors.New("payment not approved")
	ErrAmountExceedsPayment = errors.New("amount exceeds payment")
)

// ValidationError carries every violation found in a creation request.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid payment data: " + strings.Join(e.Violations, "; ")
}

type CreatePaymentRequest struct {
	TransactionAmount float64        `json:"transaction_amount"`
	PaymentMethodID   string         `json:"payment_method_id"`
	Payer             *models.Payer  `json:"payer"`
	Installments      *int           `json:"installments"`
	Description       string         `json:"description"`
	Metadata          map[string]any `json:"metadata"`
	NotificationURL   string         `json:"notification_url"`
	ExternalReference string         `json:"external_reference"`
	CurrencyID        string         `json:"currency_id"`
}

type UpdatePaymentRequest struct {
	Status       models.PaymentStatus `json:"status"`
	StatusDetail string               `json:"status_detail"`
}

type ListFilter struct {
	Status            string
	ExternalReference string
}

// Manager executes the payment operations that create or mutate records.
type Manager interface {
	CreatePayment(ctx context.Context, req *CreatePaymentRequest, scenarioName string) (*models.Payment, error)
	GetPayment(ctx context.Context, id int64) (*models.Payment, error)
	UpdatePayment(ctx context.Context, id int64, req *UpdatePaymentRequest) (*models.Payment, error)
	CreateRefund(ctx context.Context, id int64, amount *float64) (*models.Refund, error)
	ListPayments(ctx context.Context, filter *ListFilter) ([]*models.Payment, error)
	ClearPayments(ctx context.Context) int
}

const (
	paymentIDBase = 1_000_000_000
	refundIDBase  = 5_000_000_000

	// simulated MercadoPago processing fee applied to approved payments
	feeRate = 0.0461

	// float comparisons on refund amounts tolerate rounding noise
	amountEpsilon = 1e-9
)

type Service struct {
	cfg        *config.Config
	log        *zap.SugaredLogger
	store      *Store
	scenarios  *scenario.Resolver
	dispatcher *webhook.Dispatcher
	paymentIDs *tool.Sequence
	refundIDs  *tool.Sequence
}

func NewService(cfg *config.Config, log *zap.SugaredLogger, store *Store, scenarios *scenario.Resolver, dispatcher *webhook.Dispatcher) Manager {
	return &Service{
		cfg:        cfg,
		log:        log,
		store:      store,
		scenarios:  scenarios,
		dispatcher: dispatcher,
		paymentIDs: tool.NewSequence(paymentIDBase),
		refundIDs:  tool.NewSequence(refundIDBase),
	}
}

func validateCreate(req *CreatePaymentRequest) []string {
	var violations []string
	if req.TransactionAmount <= 0 {
		violations = append(violations, "transaction_amount must be greater than 0")
	}
	if req.PaymentMethodID == "" {
		violations = append(violations, "payment_method_id is required")
	}
	if req.Payer == nil {
		violations = append(violations, "payer is required")
	} else if req.Payer.Email == "" {
		violations = append(violations, "payer.email is required")
	}
	if req.Installments != nil && (*req.Installments < 1 || *req.Installments > 24) {
		violations = append(violations, "installments must be between 1 and 24")
	}
	return violations
}

func (s *Service) CreatePayment(ctx context.Context, req *CreatePaymentRequest, scenarioName string) (*models.Payment, error) {
	if violations := validateCreate(req); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	outcome, err := s.scenarios.Outcome(scenarioName)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	installments := 1
	if req.Installments != nil {
		installments = *req.Installments
	}
	currency := req.CurrencyID
	if currency == "" {
		currency = "ARS"
	}

	p := &models.Payment{
		ID:                s.paymentIDs.Next(),
		Status:            outcome.Status,
		StatusDetail:      outcome.StatusDetail,
		TransactionAmount: req.TransactionAmount,
		CurrencyID:        currency,
		Description:       req.Description,
		PaymentMethodID:   req.PaymentMethodID,
		PaymentTypeID:     models.PaymentTypeForMethod(req.PaymentMethodID),
		Installments:      installments,
		Payer:             req.Payer,
		Metadata:          req.Metadata,
		ExternalReference: req.ExternalReference,
		NotificationURL:   req.NotificationURL,
		LiveMode:          false,
		DateCreated:       now,
		Refunds:           []*models.Refund{},
	}
	if p.Status == models.PaymentStatusApproved {
		approve(p, now)
	}
	s.store.Insert(p)

	logctx.FromCtx(ctx, s.log).Infow("payment_created",
		"payment_id", p.ID,
		"status", p.Status,
		"status_detail", p.StatusDetail,
		"amount", p.TransactionAmount,
		"method", p.PaymentMethodID,
	)

	// Notification is best-effort and never part of the response path.
	s.dispatcher.ScheduleFireAndForget("", models.WebhookActionPaymentCreated, p, 0)
	return p, nil
}

func (s *Service) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	p, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrPaymentNotFound, id)
	}
	return p, nil
}

// UpdatePayment applies the requested status/status_detail as-is. The mock
// deliberately allows transitions a real provider would forbid (for example
// approved back to pending): test authors use it to simulate provider-side
// state changes under their own control.
func (s *Service) UpdatePayment(ctx context.Context, id int64, req *UpdatePaymentRequest) (*models.Payment, error) {
	p, err := s.store.Mutate(id, func(p *models.Payment) error {
		if req.Status != "" {
			p.Status = req.Status
		}
		if req.StatusDetail != "" {
			p.StatusDetail = req.StatusDetail
		}
		if p.Status == models.PaymentStatusApproved {
			if p.DateApproved == nil || p.AuthorizationCode == "" {
				approve(p, time.Now().UTC())
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrPaymentNotFound, id)
	}
	logctx.FromCtx(ctx, s.log).Infow("payment_updated", "payment_id", id, "status", p.Status, "status_detail", p.StatusDetail)
	return p, nil
}

// CreateRefund refunds amount (or the full remaining amount when nil).
// Partially refunded payments stay refundable until the amount is exhausted.
func (s *Service) CreateRefund(ctx context.Context, id int64, amount *float64) (*models.Refund, error) {
	var refund *models.Refund
	p, err := s.store.Mutate(id, func(p *models.Payment) error {
		if p.Status != models.PaymentStatusApproved && p.Status != models.PaymentStatusPartiallyRefunded {
			return fmt.Errorf("%w: status is %s", ErrPaymentNotApproved, p.Status)
		}
		remaining := p.RemainingRefundable()
		amt := remaining
		if amount != nil {
			amt = *amount
		}
		if amt <= 0 || amt > remaining+amountEpsilon {
			return fmt.Errorf("%w: requested %.2f, refundable %.2f", ErrAmountExceedsPayment, amt, remaining)
		}

		refund = &models.Refund{
			ID:          s.refundIDs.Next(),
			PaymentID:   p.ID,
			Amount:      amt,
			Status:      "approved",
			DateCreated: time.Now().UTC(),
		}
		p.Refunds = append(p.Refunds, refund)
		p.TransactionAmountRefunded = round2(p.TransactionAmountRefunded + amt)
		if p.RemainingRefundable() <= amountEpsilon {
			p.Status = models.PaymentStatusRefunded
		} else {
			p.Status = models.PaymentStatusPartiallyRefunded
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logctx.FromCtx(ctx, s.log).Infow("refund_created",
		"payment_id", p.ID,
		"refund_id", refund.ID,
		"amount", refund.Amount,
		"refunded_total", p.TransactionAmountRefunded,
		"status", p.Status,
	)
	s.dispatcher.ScheduleFireAndForget("", models.WebhookActionPaymentUpdated, p, 0)
	return refund, nil
}

func (s *Service) ListPayments(ctx context.Context, filter *ListFilter) ([]*models.Payment, error) {
	all := s.store.List()
	if filter == nil {
		return all, nil
	}
	return lo.Filter(all, func(p *models.Payment, _ int) bool {
		if filter.Status != "" && string(p.Status) != filter.Status {
			return false
		}
		if filter.ExternalReference != "" && p.ExternalReference != filter.ExternalReference {
			return false
		}
		return true
	}), nil
}

func (s *Service) ClearPayments(ctx context.Context) int {
	n := s.store.Clear()
	logctx.FromCtx(ctx, s.log).Infow("payments_cleared", "count", n)
	return n
}

func approve(p *models.Payment, at time.Time) {
	p.DateApproved = &at
	if p.AuthorizationCode == "" {
		p.AuthorizationCode = fmt.Sprintf("%06d", p.ID%1_000_000)
	}
	p.TransactionDetails = &models.TransactionDetails{
		NetReceivedAmount: round2(p.TransactionAmount * (1 - feeRate)),
		TotalPaidAmount:   p.TransactionAmount,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
