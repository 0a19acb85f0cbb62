package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/barberpro/mpmock/internal/app/service/scenario"
	"github.com/barberpro/mpmock/internal/app/service/webhook"
	"github.com/barberpro/mpmock/internal/models"
	"github.com/barberpro/mpmock/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Env: config.EnvDev,
		Webhook: config.WebhookConfig{
			TimeoutSeconds: 1,
			RetryCount:     3,
			HistorySize:    100,
		},
		Scenario: config.ScenarioConfig{File: "testdata/does-not-exist.yaml"},
	}
}

func newTestService(t *testing.T) Manager {
	t.Helper()
	cfg := testConfig()
	log := zap.NewNop().Sugar()
	store := NewStore()
	resolver := scenario.New(cfg, log)
	dispatcher := webhook.NewDispatcher(cfg, log)
	return NewService(cfg, log, store, resolver, dispatcher)
}

func validCreateRequest() *CreatePaymentRequest {
	return &CreatePaymentRequest{
		TransactionAmount: 100,
		PaymentMethodID:   "visa",
		Payer:             &models.Payer{Email: "test@example.com"},
	}
}

func TestCreatePayment_ValidationCollectsAllViolations(t *testing.T) {
	svc := newTestService(t)

	zero := 0
	_, err := svc.CreatePayment(context.Background(), &CreatePaymentRequest{Installments: &zero}, "")
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	require.Equal(t, []string{
		"transaction_amount must be greater than 0",
		"payment_method_id is required",
		"payer is required",
		"installments must be between 1 and 24",
	}, valErr.Violations)
}

func TestCreatePayment_ValidationMessages(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		mutate  func(*CreatePaymentRequest)
		message string
	}{
		{"negative amount", func(r *CreatePaymentRequest) { r.TransactionAmount = -5 }, "transaction_amount must be greater than 0"},
		{"missing method", func(r *CreatePaymentRequest) { r.PaymentMethodID = "" }, "payment_method_id is required"},
		{"missing payer email", func(r *CreatePaymentRequest) { r.Payer = &models.Payer{} }, "payer.email is required"},
		{"installments too high", func(r *CreatePaymentRequest) { v := 25; r.Installments = &v }, "installments must be between 1 and 24"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreateRequest()
			tc.mutate(req)
			_, err := svc.CreatePayment(ctx, req, "")
			var valErr *ValidationError
			require.ErrorAs(t, err, &valErr)
			require.Contains(t, valErr.Violations, tc.message)
		})
	}
}

func TestCreatePayment_IDsAreUnique(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	seen := map[int64]bool{}
	for i := 0; i < 50; i++ {
		p, err := svc.CreatePayment(ctx, validCreateRequest(), "")
		require.NoError(t, err)
		require.False(t, seen[p.ID], "duplicate id %d", p.ID)
		seen[p.ID] = true
	}
}

func TestCreatePayment_ScenarioDeterminism(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := svc.CreatePayment(ctx, validCreateRequest(), "rejected_insufficient_amount")
		require.NoError(t, err)
		require.Equal(t, models.PaymentStatusRejected, p.Status)
		require.Equal(t, "cc_rejected_insufficient_amount", p.StatusDetail)
		require.Nil(t, p.DateApproved)
		require.Empty(t, p.AuthorizationCode)
	}

	p, err := svc.CreatePayment(ctx, validCreateRequest(), "pending")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPending, p.Status)
	require.Equal(t, "pending_waiting_payment", p.StatusDetail)
}

func TestCreatePayment_UnknownScenario(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CreatePayment(context.Background(), validCreateRequest(), "no-such-scenario")
	require.ErrorIs(t, err, scenario.ErrInvalidScenario)
}

func TestCreatePayment_ApprovedStampsApprovalFields(t *testing.T) {
	svc := newTestService(t)
	p, err := svc.CreatePayment(context.Background(), validCreateRequest(), "success")
	require.NoError(t, err)

	require.Equal(t, models.PaymentStatusApproved, p.Status)
	require.Equal(t, "accredited", p.StatusDetail)
	require.NotNil(t, p.DateApproved)
	require.NotEmpty(t, p.AuthorizationCode)
	require.Equal(t, 1, p.Installments)
	require.Equal(t, "ARS", p.CurrencyID)
	require.Equal(t, "credit_card", p.PaymentTypeID)
	require.NotNil(t, p.TransactionDetails)
	require.InDelta(t, 95.39, p.TransactionDetails.NetReceivedAmount, 0.001)
}

func TestGetPayment_NotFound(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.GetPayment(context.Background(), 42)
	require.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestUpdatePayment_ArbitraryTransitionAndApprovalStamp(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreatePayment(ctx, validCreateRequest(), "pending")
	require.NoError(t, err)
	require.Nil(t, p.DateApproved)

	updated, err := svc.UpdatePayment(ctx, p.ID, &UpdatePaymentRequest{Status: models.PaymentStatusApproved, StatusDetail: "accredited"})
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusApproved, updated.Status)
	require.NotNil(t, updated.DateApproved)
	require.NotEmpty(t, updated.AuthorizationCode)

	// the mock allows transitions a real provider would not
	back, err := svc.UpdatePayment(ctx, p.ID, &UpdatePaymentRequest{Status: models.PaymentStatusPending})
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPending, back.Status)
}

func TestUpdatePayment_NotFound(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.UpdatePayment(context.Background(), 42, &UpdatePaymentRequest{Status: models.PaymentStatusApproved})
	require.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestCreateRefund_FullThenRejectsFurther(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreatePayment(ctx, validCreateRequest(), "success")
	require.NoError(t, err)

	r, err := svc.CreateRefund(ctx, p.ID, nil)
	require.NoError(t, err)
	require.Equal(t, 100.0, r.Amount)
	require.Equal(t, p.ID, r.PaymentID)

	got, err := svc.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusRefunded, got.Status)
	require.Equal(t, 100.0, got.TransactionAmountRefunded)
	require.Len(t, got.Refunds, 1)

	// refunded payments take no further refunds
	_, err = svc.CreateRefund(ctx, p.ID, nil)
	require.ErrorIs(t, err, ErrPaymentNotApproved)
}

func TestCreateRefund_PartialConservation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreatePayment(ctx, validCreateRequest(), "success")
	require.NoError(t, err)

	half := 50.0
	r, err := svc.CreateRefund(ctx, p.ID, &half)
	require.NoError(t, err)
	require.Equal(t, 50.0, r.Amount)

	got, err := svc.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPartiallyRefunded, got.Status)
	require.Equal(t, 50.0, got.TransactionAmountRefunded)

	// more than the remaining amount is rejected and leaves the record alone
	tooMuch := 60.0
	_, err = svc.CreateRefund(ctx, p.ID, &tooMuch)
	require.ErrorIs(t, err, ErrAmountExceedsPayment)

	unchanged, err := svc.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 50.0, unchanged.TransactionAmountRefunded)
	require.Len(t, unchanged.Refunds, 1)

	// the remaining half is still refundable
	rest := 50.0
	_, err = svc.CreateRefund(ctx, p.ID, &rest)
	require.NoError(t, err)

	final, err := svc.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusRefunded, final.Status)
	require.Equal(t, 100.0, final.TransactionAmountRefunded)
	require.Len(t, final.Refunds, 2)
	require.NotEqual(t, final.Refunds[0].ID, final.Refunds[1].ID)
}

func TestCreateRefund_Preconditions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateRefund(ctx, 42, nil)
	require.ErrorIs(t, err, ErrPaymentNotFound)

	p, err := svc.CreatePayment(ctx, validCreateRequest(), "pending")
	require.NoError(t, err)

	_, err = svc.CreateRefund(ctx, p.ID, nil)
	require.ErrorIs(t, err, ErrPaymentNotApproved)

	got, err := svc.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	require.Zero(t, got.TransactionAmountRefunded)
	require.Empty(t, got.Refunds)
}

func TestListPayments_FilterAndClear(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	approved, err := svc.CreatePayment(ctx, validCreateRequest(), "success")
	require.NoError(t, err)
	req := validCreateRequest()
	req.ExternalReference = "booking-77"
	_, err = svc.CreatePayment(ctx, req, "pending")
	require.NoError(t, err)

	all, err := svc.ListPayments(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	onlyApproved, err := svc.ListPayments(ctx, &ListFilter{Status: "approved"})
	require.NoError(t, err)
	require.Len(t, onlyApproved, 1)
	require.Equal(t, approved.ID, onlyApproved[0].ID)

	byRef, err := svc.ListPayments(ctx, &ListFilter{ExternalReference: "booking-77"})
	require.NoError(t, err)
	require.Len(t, byRef, 1)

	require.Equal(t, 2, svc.ClearPayments(ctx))
	empty, err := svc.ListPayments(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}
