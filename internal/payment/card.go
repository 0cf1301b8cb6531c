package payment

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/hongminglow/smartsave/internal/config"
)

const productName = "Smart Saving Payment"

// CheckoutRequest is a card payment the user is about to make.
type CheckoutRequest struct {
	UserID   string
	Amount   decimal.Decimal
	LockDays int
}

// SessionStatus is what the card processor reports about a checkout session.
type SessionStatus struct {
	ID          string
	UserID      string
	Paid        bool
	AmountMinor int64
}

// CardProcessor creates hosted checkout sessions and reports their outcome.
type CardProcessor interface {
	CreateSession(ctx context.Context, req CheckoutRequest) (string, error)
	ConfirmSession(ctx context.Context, sessionID string) (SessionStatus, error)
}

// MinorUnits converts an amount to the smallest currency unit, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// SuccessURL appends the payment details and the processor's session
// placeholder to base.
func SuccessURL(base string, req CheckoutRequest) string {
	q := url.Values{}
	q.Set("userId", req.UserID)
	q.Set("amount", req.Amount.StringFixed(2))
	if req.LockDays > 0 {
		q.Set("lockPeriod", strconv.Itoa(req.LockDays))
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	// The placeholder must stay unescaped for the processor to substitute it.
	return base + sep + q.Encode() + "&session_id={CHECKOUT_SESSION_ID}"
}

// StripeCheckout implements CardProcessor with Stripe Checkout.
type StripeCheckout struct {
	api     *client.API
	cfg     config.CheckoutConfig
	timeout time.Duration
}

var _ CardProcessor = (*StripeCheckout)(nil)

// NewStripeCheckout builds a Stripe client whose calls are bounded by timeout.
func NewStripeCheckout(cfg config.CheckoutConfig, timeout time.Duration) *StripeCheckout {
	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(cfg.APIURL)
	}
	api := &client.API{}
	api.Init(cfg.SecretKey, &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
		Connect: stripe.GetBackend(stripe.ConnectBackend),
		Uploads: stripe.GetBackend(stripe.UploadsBackend),
	})
	return &StripeCheckout{api: api, cfg: cfg, timeout: timeout}
}

// CreateSession opens a hosted checkout for req and returns its URL.
func (s *StripeCheckout) CreateSession(ctx context.Context, req CheckoutRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(s.cfg.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(productName),
				},
				UnitAmount: stripe.Int64(MinorUnits(req.Amount)),
			},
			Quantity: stripe.Int64(1),
		}},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(SuccessURL(s.cfg.SuccessURL, req)),
		CancelURL:         stripe.String(s.cfg.CancelURL),
		ClientReferenceID: stripe.String(req.UserID),
	}
	params.Context = ctx
	params.AddMetadata("userId", req.UserID)

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create checkout session: %w", ErrUpstreamUnavailable, err)
	}
	if sess.URL == "" {
		return "", fmt.Errorf("%w: checkout session %s has no url", ErrUpstreamUnavailable, sess.ID)
	}
	return sess.URL, nil
}

// ConfirmSession fetches a checkout session and reports whether it was paid.
func (s *StripeCheckout) ConfirmSession(ctx context.Context, sessionID string) (SessionStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := s.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return SessionStatus{}, fmt.Errorf("%w: fetch checkout session: %w", ErrUpstreamUnavailable, err)
	}
	return SessionStatus{
		ID:          sess.ID,
		UserID:      sess.ClientReferenceID,
		Paid:        sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		AmountMinor: sess.AmountTotal,
	}, nil
}

// CheckPaid verifies that status belongs to userID and covers amount.
func CheckPaid(status SessionStatus, userID string, amount decimal.Decimal) error {
	if !status.Paid {
		return fmt.Errorf("%w: session %s", ErrSessionNotPaid, status.ID)
	}
	if status.UserID != "" && status.UserID != userID {
		return fmt.Errorf("%w: session %s belongs to another user", ErrSessionNotPaid, status.ID)
	}
	if status.AmountMinor != MinorUnits(amount) {
		return fmt.Errorf("%w: session %s paid %d, claimed %d", ErrSessionNotPaid, status.ID, status.AmountMinor, MinorUnits(amount))
	}
	return nil
}
