package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"

	"github.com/barberpro/mpmock/internal/models"
	"github.com/barberpro/mpmock/pkg/config"
	"github.com/barberpro/mpmock/pkg/logctx"
	"github.com/barberpro/mpmock/pkg/tool"
)

type DeliveryStatus string

const (
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusFailed    DeliveryStatus = "failed"
	DeliveryStatusSkipped   DeliveryStatus = "skipped"
)

// DeliveryResult is the outcome of one delivery attempt. Send never returns
// an error; failures are carried here so callers cannot accidentally let a
// notification problem bubble into request handling.
type DeliveryResult struct {
	Status         DeliveryStatus       `json:"status"`
	Message        string               `json:"message,omitempty"`
	URL            string               `json:"url,omitempty"`
	PaymentID      int64                `json:"payment_id,omitempty"`
	Action         models.WebhookAction `json:"action,omitempty"`
	NotificationID int64                `json:"notification_id,omitempty"`
	HTTPStatus     int                  `json:"http_status,omitempty"`
	DurationMs     int64                `json:"duration_ms"`
	At             time.Time            `json:"at"`
}

// notification ids live in their own range so they never collide with
// payment ids.
const notificationIDBase = 9_000_000_000

type Option func(*Dispatcher)

// WithClock swaps the time source. Default is clockz.RealClock; tests inject
// a fake clock to exercise delayed dispatch deterministically.
func WithClock(clock clockz.Clock) Option {
	return func(d *Dispatcher) { d.clock = clock }
}

func WithSigner(s Signer) Option {
	return func(d *Dispatcher) { d.signer = s }
}

// Dispatcher builds provider-shaped notifications and POSTs them to the
// configured callback URL. Delivery is best-effort: no retry loop (repeat
// trigger calls are the retry mechanism), and scheduled deliveries are lost
// if the process exits before the delay elapses.
type Dispatcher struct {
	cfg    *config.Config
	log    *zap.SugaredLogger
	clock  clockz.Clock
	signer Signer
	client *http.Client
	ids    *tool.Sequence

	mu          sync.RWMutex
	url         string
	history     []DeliveryResult
	historySize int
}

func NewDispatcher(cfg *config.Config, log *zap.SugaredLogger, opts ...Option) *Dispatcher {
	timeout := time.Duration(cfg.Webhook.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	size := cfg.Webhook.HistorySize
	if size < 100 {
		size = 100
	}
	d := &Dispatcher{
		cfg:         cfg,
		log:         log,
		clock:       clockz.RealClock,
		signer:      MockSigner{},
		client:      &http.Client{Timeout: timeout},
		ids:         tool.NewSequence(notificationIDBase),
		url:         cfg.Webhook.URL,
		historySize: size,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// URL returns the process-wide configured callback target.
func (d *Dispatcher) URL() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.url
}

func (d *Dispatcher) SetURL(url string) {
	d.mu.Lock()
	d.url = url
	d.mu.Unlock()
	d.log.Infow("webhook_url_configured", "url", url)
}

// BuildPayload constructs the notification body for a payment event.
// data.id is always the string form of the payment id.
func (d *Dispatcher) BuildPayload(p *models.Payment, action models.WebhookAction) *models.WebhookNotification {
	return models.NewWebhookNotification(d.ids.Next(), p, action)
}

// Send builds, signs and POSTs a notification. The target is resolved in
// order: explicit url argument, the payment's notification_url, the
// configured URL. An empty target is a skip, not an error.
func (d *Dispatcher) Send(ctx context.Context, url string, p *models.Payment, action models.WebhookAction) DeliveryResult {
	target := url
	if target == "" && p != nil {
		target = p.NotificationURL
	}
	if target == "" {
		target = d.URL()
	}

	res := DeliveryResult{
		URL:    target,
		Action: action,
		At:     d.clock.Now().UTC(),
	}
	if p != nil {
		res.PaymentID = p.ID
	}
	if target == "" {
		res.Status = DeliveryStatusSkipped
		res.Message = "No webhook URL configured"
		d.record(ctx, res)
		return res
	}

	payload := d.BuildPayload(p, action)
	res.NotificationID = payload.ID
	body, err := json.Marshal(payload)
	if err != nil {
		res.Status = DeliveryStatusFailed
		res.Message = fmt.Sprintf("failed to encode payload: %v", err)
		d.record(ctx, res)
		return res
	}

	start := d.clock.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		res.Status = DeliveryStatusFailed
		res.Message = fmt.Sprintf("invalid webhook request: %v", err)
		d.record(ctx, res)
		return res
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", d.signer.Sign(payload.Data.ID, payload.ID))
	req.Header.Set("X-Request-Id", tool.GenerateUUIDV7())

	resp, err := d.client.Do(req)
	res.DurationMs = d.clock.Now().Sub(start).Milliseconds()
	if err != nil {
		res.Status = DeliveryStatusFailed
		res.Message = fmt.Sprintf("webhook delivery failed: %v", err)
		d.record(ctx, res)
		return res
	}
	defer resp.Body.Close()

	res.HTTPStatus = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		res.Status = DeliveryStatusDelivered
	} else {
		res.Status = DeliveryStatusFailed
		res.Message = fmt.Sprintf("webhook endpoint returned status %d", resp.StatusCode)
	}
	d.record(ctx, res)
	return res
}

// SendWithDelay waits the stated delay on the injected clock before
// delegating to Send. Context cancellation during the wait fails the attempt.
func (d *Dispatcher) SendWithDelay(ctx context.Context, url string, p *models.Payment, action models.WebhookAction, delay time.Duration) DeliveryResult {
	if delay > 0 {
		select {
		case <-d.clock.After(delay):
		case <-ctx.Done():
			res := DeliveryResult{
				Status:  DeliveryStatusFailed,
				Message: fmt.Sprintf("delivery cancelled during delay: %v", ctx.Err()),
				URL:     url,
				Action:  action,
				At:      d.clock.Now().UTC(),
			}
			if p != nil {
				res.PaymentID = p.ID
			}
			d.record(ctx, res)
			return res
		}
	}
	return d.Send(ctx, url, p, action)
}

// ScheduleFireAndForget starts a delayed delivery the caller does not await.
// The outcome is logged and recorded in history, never surfaced. An empty url
// falls back through the usual target resolution.
func (d *Dispatcher) ScheduleFireAndForget(url string, action models.WebhookAction, p *models.Payment, delay time.Duration) {
	payment := p.Clone()
	go func() {
		d.SendWithDelay(context.Background(), url, payment, action, delay)
	}()
}

// History returns recent delivery attempts, most recent first.
func (d *Dispatcher) History() []DeliveryResult {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return lo.Reverse(append([]DeliveryResult(nil), d.history...))
}

func (d *Dispatcher) ClearHistory() {
	d.mu.Lock()
	d.history = nil
	d.mu.Unlock()
}

func (d *Dispatcher) record(ctx context.Context, res DeliveryResult) {
	d.mu.Lock()
	d.history = append(d.history, res)
	if len(d.history) > d.historySize {
		d.history = d.history[len(d.history)-d.historySize:]
	}
	d.mu.Unlock()

	log := logctx.FromCtx(ctx, d.log)
	switch res.Status {
	case DeliveryStatusDelivered:
		log.Infow("webhook_delivered", "payment_id", res.PaymentID, "action", res.Action, "url", res.URL, "http_status", res.HTTPStatus, "duration_ms", res.DurationMs)
	case DeliveryStatusSkipped:
		log.Infow("webhook_skipped", "payment_id", res.PaymentID, "action", res.Action)
	default:
		log.Warnw("webhook_failed", "payment_id", res.PaymentID, "action", res.Action, "url", res.URL, "error", res.Message)
	}
}
