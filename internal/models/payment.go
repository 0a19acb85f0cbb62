package models

import (
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusApproved          PaymentStatus = "approved"
	PaymentStatusRejected          PaymentStatus = "rejected"
	PaymentStatusInProcess         PaymentStatus = "in_process"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentStatusCancelled         PaymentStatus = "cancelled"
)

type Identification struct {
	Type   string `json:"type,omitempty"`
	Number string `json:"number,omitempty"`
}

type Payer struct {
	Email          string          `json:"email"`
	FirstName      string          `json:"first_name,omitempty"`
	LastName       string          `json:"last_name,omitempty"`
	Identification *Identification `json:"identification,omitempty"`
}

type TransactionDetails struct {
	NetReceivedAmount float64 `json:"net_received_amount"`
	TotalPaidAmount   float64 `json:"total_paid_amount"`
}

type Refund struct {
	ID          int64     `json:"id"`
	PaymentID   int64     `json:"payment_id"`
	Amount      float64   `json:"amount"`
	Status      string    `json:"status"`
	DateCreated time.Time `json:"date_created"`
}

// Payment is one simulated MercadoPago transaction.
type Payment struct {
	ID                        int64               `json:"id"`
	Status                    PaymentStatus       `json:"status"`
	StatusDetail              string              `json:"status_detail"`
	TransactionAmount         float64             `json:"transaction_amount"`
	TransactionAmountRefunded float64             `json:"transaction_amount_refunded"`
	CurrencyID                string              `json:"currency_id"`
	Description               string              `json:"description,omitempty"`
	PaymentMethodID           string              `json:"payment_method_id"`
	PaymentTypeID             string              `json:"payment_type_id"`
	Installments              int                 `json:"installments"`
	Payer                     *Payer              `json:"payer"`
	Metadata                  map[string]any      `json:"metadata,omitempty"`
	ExternalReference         string              `json:"external_reference,omitempty"`
	NotificationURL           string              `json:"notification_url,omitempty"`
	AuthorizationCode         string              `json:"authorization_code,omitempty"`
	LiveMode                  bool                `json:"live_mode"`
	DateCreated               time.Time           `json:"date_created"`
	DateApproved              *time.Time          `json:"date_approved,omitempty"`
	TransactionDetails        *TransactionDetails `json:"transaction_details,omitempty"`
	Refunds                   []*Refund           `json:"refunds"`
}

// RemainingRefundable is how much of the payment can still be refunded.
func (p *Payment) RemainingRefundable() float64 {
	if p == nil {
		return 0
	}
	return p.TransactionAmount - p.TransactionAmountRefunded
}

// Clone deep-copies the payment so callers never alias store-owned state.
func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Payer != nil {
		payer := *p.Payer
		if p.Payer.Identification != nil {
			ident := *p.Payer.Identification
			payer.Identification = &ident
		}
		cp.Payer = &payer
	}
	if p.Metadata != nil {
		cp.Metadata = make(map[string]any, len(p.Metadata))
		for k, v := range p.Metadata {
			cp.Metadata[k] = v
		}
	}
	if p.DateApproved != nil {
		d := *p.DateApproved
		cp.DateApproved = &d
	}
	if p.TransactionDetails != nil {
		td := *p.TransactionDetails
		cp.TransactionDetails = &td
	}
	if p.Refunds != nil {
		cp.Refunds = make([]*Refund, len(p.Refunds))
		for i, r := range p.Refunds {
			rr := *r
			cp.Refunds[i] = &rr
		}
	}
	return &cp
}

// PaymentTypeForMethod maps a payment_method_id to MercadoPago's payment_type_id.
func PaymentTypeForMethod(methodID string) string {
	switch methodID {
	case "rapipago", "pagofacil":
		return "ticket"
	case "account_money":
		return "account_money"
	case "cbu", "debin":
		return "bank_transfer"
	default:
		return "credit_card"
	}
}
