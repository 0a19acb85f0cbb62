package models

import (
	"strconv"
	"time"
)

type WebhookAction string

const (
	WebhookActionPaymentCreated WebhookAction = "payment.created"
	WebhookActionPaymentUpdated WebhookAction = "payment.updated"
)

type WebhookData struct {
	ID string `json:"id"`
}

// WebhookNotification is the provider-shaped callback body POSTed to the
// configured notification URL. data.id carries the payment id as a string,
// matching MercadoPago's wire format.
type WebhookNotification struct {
	ID          int64         `json:"id"`
	LiveMode    bool          `json:"live_mode"`
	Type        string        `json:"type"`
	Action      WebhookAction `json:"action"`
	APIVersion  string        `json:"api_version"`
	DateCreated time.Time     `json:"date_created"`
	UserID      string        `json:"user_id,omitempty"`
	Data        WebhookData   `json:"data"`
}

func NewWebhookNotification(id int64, payment *Payment, action WebhookAction) *WebhookNotification {
	return &WebhookNotification{
		ID:          id,
		LiveMode:    false,
		Type:        "payment",
		Action:      action,
		APIVersion:  "v1",
		DateCreated: time.Now().UTC(),
		Data:        WebhookData{ID: strconv.FormatInt(payment.ID, 10)},
	}
}
