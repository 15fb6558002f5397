package gateway

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory Gateway for tests. Sessions start unpaid; MarkPaid settles them.
type Fake struct {
	mu sync.Mutex

	// CreateErr and RetrieveErr force failures when set
	CreateErr   error
	RetrieveErr error

	sessions map[string]*SessionStatus
	requests []CheckoutRequest
	retrieve int
	next     int
}

// NewFake returns an empty fake gateway
func NewFake() *Fake {
	return &Fake{sessions: make(map[string]*SessionStatus)}
}

func (f *Fake) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.next++
	id := fmt.Sprintf("cs_test_%d", f.next)
	f.sessions[id] = &SessionStatus{ID: id, PaymentStatus: StatusUnpaid}
	return &CheckoutSession{ID: id, URL: "https://checkout.test/pay/" + id}, nil
}

func (f *Fake) RetrieveSession(ctx context.Context, sessionRef string) (*SessionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.retrieve++
	if f.RetrieveErr != nil {
		return nil, f.RetrieveErr
	}
	status, ok := f.sessions[sessionRef]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *status
	return &copied, nil
}

// MarkPaid settles a session as the provider would after a successful charge
func (f *Fake) MarkPaid(sessionRef string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if status, ok := f.sessions[sessionRef]; ok {
		status.PaymentStatus = StatusPaid
		status.PaymentIntentID = "pi_" + sessionRef
	}
}

// Requests returns every checkout request received so far
func (f *Fake) Requests() []CheckoutRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CheckoutRequest(nil), f.requests...)
}

// CallCount returns how many create and retrieve calls were made
func (f *Fake) CallCount() (created, retrieved int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests), f.retrieve
}
