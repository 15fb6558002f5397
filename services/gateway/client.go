package gateway

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"github.com/sahilchouksey/elearning-api/utils/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Config holds the provider connection settings
type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// Client is a Stripe-compatible checkout sessions client guarded by a circuit breaker
type Client struct {
	http *resty.Client
	cb   *gobreaker.CircuitBreaker[any]
	log  *logger.Logger
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient builds a client. Every call is bounded by cfg.Timeout even when the
// caller's context has no deadline.
func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.SecretKey).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	metrics.GatewayCircuitState.Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Declined or unknown sessions are answers, not outages
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrSessionNotFound) || isClientError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("payment gateway circuit state changed", "from", from.String(), "to", to.String())
			metrics.GatewayCircuitState.Set(stateToFloat(to))
		},
	})

	return &Client{http: httpClient, cb: cb, log: log}
}

// CreateCheckoutSession opens a hosted checkout for a single course purchase
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	form := map[string]string{
		"mode":        "payment",
		"success_url": req.SuccessURL,
		"cancel_url":  req.CancelURL,

		"line_items[0][quantity]":                       "1",
		"line_items[0][price_data][currency]":           req.Currency,
		"line_items[0][price_data][unit_amount]":        strconv.FormatInt(ToMinorUnits(req.Amount), 10),
		"line_items[0][price_data][product_data][name]": req.ProductName,
	}
	// The provider rejects empty strings for these
	if req.ProductDescription != "" {
		form["line_items[0][price_data][product_data][description]"] = req.ProductDescription
	}
	if req.CustomerEmail != "" {
		form["customer_email"] = req.CustomerEmail
	}
	for k, v := range req.Metadata {
		form["metadata["+k+"]"] = v
	}

	result, err := c.execute("create_session", func() (any, error) {
		var session CheckoutSession
		var apiErr apiError
		resp, err := c.http.R().
			SetContext(ctx).
			SetFormData(form).
			SetResult(&session).
			SetError(&apiErr).
			Post("/v1/checkout/sessions")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, statusError(resp.StatusCode(), apiErr)
		}
		if session.ID == "" || session.URL == "" {
			return nil, errors.New("gateway returned an incomplete checkout session")
		}
		return &session, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*CheckoutSession), nil
}

// RetrieveSession fetches the authoritative payment status of a session
func (c *Client) RetrieveSession(ctx context.Context, sessionRef string) (*SessionStatus, error) {
	result, err := c.execute("retrieve_session", func() (any, error) {
		var status SessionStatus
		var apiErr apiError
		resp, err := c.http.R().
			SetContext(ctx).
			SetPathParam("id", sessionRef).
			SetResult(&status).
			SetError(&apiErr).
			Get("/v1/checkout/sessions/{id}")
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() == http.StatusNotFound {
			return nil, ErrSessionNotFound
		}
		if resp.IsError() {
			return nil, statusError(resp.StatusCode(), apiErr)
		}
		return &status, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*SessionStatus), nil
}

func (c *Client) execute(operation string, fn func() (any, error)) (any, error) {
	start := time.Now()
	result, err := c.cb.Execute(fn)
	metrics.GatewayLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.GatewayRequests.WithLabelValues(operation, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.GatewayRequests.WithLabelValues(operation, "rejected").Inc()
		c.log.Warn("payment gateway call rejected by circuit breaker", "operation", operation)
	default:
		metrics.GatewayRequests.WithLabelValues(operation, "failure").Inc()
		c.log.Warn("payment gateway call failed", "operation", operation, "error", err)
	}
	return result, err
}

// ToMinorUnits converts a decimal amount to integer cents
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// StatusError is a non-2xx provider response
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("gateway responded with status %d: %s", e.StatusCode, e.Message)
}

func statusError(status int, apiErr apiError) error {
	return &StatusError{StatusCode: status, Code: apiErr.Error.Code, Message: apiErr.Error.Message}
}

func isClientError(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 &&
		statusErr.StatusCode != http.StatusTooManyRequests
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
