// Package gateway talks to the hosted-checkout payment provider.
package gateway

import (
	"context"
	"errors"
)

// Payment statuses reported by the provider for a checkout session
const (
	StatusPaid              = "paid"
	StatusUnpaid            = "unpaid"
	StatusNoPaymentRequired = "no_payment_required"
)

// ErrSessionNotFound is returned when the provider does not know the session reference
var ErrSessionNotFound = errors.New("checkout session not found")

// CheckoutRequest describes a one-item hosted checkout
type CheckoutRequest struct {
	Amount             float64 // major currency units, e.g. 49.99
	Currency           string
	ProductName        string
	ProductDescription string // optional
	CustomerEmail      string // optional, prefills the checkout form
	SuccessURL         string
	CancelURL          string
	Metadata           map[string]string
}

// CheckoutSession is the provider's answer to a checkout request
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// SessionStatus is the authoritative state of a checkout session
type SessionStatus struct {
	ID              string `json:"id"`
	PaymentStatus   string `json:"payment_status"`
	PaymentIntentID string `json:"payment_intent"`
}

// Paid reports whether the provider considers the session settled
func (s *SessionStatus) Paid() bool {
	return s != nil && s.PaymentStatus == StatusPaid
}

// Gateway is the external payment collaborator. Implementations must honour ctx deadlines.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionRef string) (*SessionStatus, error)
}
