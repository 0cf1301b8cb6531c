// Package payment builds outbound payment requests and authenticates the
// responses that come back from the providers.
package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/smartsave/internal/checksum"
	"github.com/hongminglow/smartsave/internal/config"
)

const (
	// StatusSuccess is the only callback status that records a payment.
	StatusSuccess = "SUCCESS"

	txnTypeSale    = "SALE"
	paymentModeAll = "ALL"
	formPath       = "/SmartGateway/payment/form"
)

// Field is one hidden input of the gateway form.
type Field struct {
	Name  string
	Value string
}

// FormRequest is the self-submitting form that hands the browser to the gateway.
type FormRequest struct {
	Action  string
	OrderID string
	Fields  []Field
}

// Callback holds the fields the gateway posts back after payment.
type Callback struct {
	MerchantID        string
	ClientID          string
	OrderID           string
	TransactionAmount string
	Status            string
	UserID            string
	Checksum          string
}

// Gateway speaks the bank payment gateway's form protocol.
type Gateway struct {
	cfg config.GatewayConfig
	now func() time.Time
}

// NewGateway returns a gateway client for cfg.
func NewGateway(cfg config.GatewayConfig) *Gateway {
	return &Gateway{cfg: cfg, now: time.Now}
}

// BuildRequest assembles the signed payment form for userID paying amount.
func (g *Gateway) BuildRequest(userID string, amount decimal.Decimal) FormRequest {
	orderID := NewOrderID(g.now())
	fields := []Field{
		{"merchantId", g.cfg.MerchantID},
		{"clientId", g.cfg.ClientID},
		{"orderId", orderID},
		{"transactionAmount", amount.StringFixed(2)},
		{"redirectUrl", g.cfg.RedirectURL},
		{"txnType", txnTypeSale},
		{"paymentMode", paymentModeAll},
		{"currency", g.cfg.Currency},
		{"userDefinedField1", userID},
	}
	values := make([]string, len(fields))
	for i, f := range fields {
		values[i] = f.Value
	}
	fields = append(fields, Field{"checksum", checksum.Sign(g.cfg.RequestKey, values...)})

	return FormRequest{
		Action:  g.cfg.BaseURL + formPath,
		OrderID: orderID,
		Fields:  fields,
	}
}

// VerifyCallback authenticates a callback and checks that it reports success.
func (g *Gateway) VerifyCallback(cb Callback) error {
	ok := checksum.Verify(g.cfg.ResponseKey, cb.Checksum,
		cb.MerchantID, cb.ClientID, cb.OrderID, cb.TransactionAmount, cb.Status, cb.UserID)
	if !ok {
		return fmt.Errorf("%w: checksum mismatch for order %s", ErrInvalidCallback, cb.OrderID)
	}
	if cb.Status != StatusSuccess {
		return fmt.Errorf("%w: status %q", ErrInvalidCallback, cb.Status)
	}
	if strings.TrimSpace(cb.UserID) == "" || strings.TrimSpace(cb.OrderID) == "" {
		return fmt.Errorf("%w: missing user or order id", ErrInvalidCallback)
	}
	return nil
}

// SignCallback computes the checksum the gateway would attach to cb.
// Used to simulate the gateway in tests and local runs.
func (g *Gateway) SignCallback(cb Callback) string {
	return checksum.Sign(g.cfg.ResponseKey,
		cb.MerchantID, cb.ClientID, cb.OrderID, cb.TransactionAmount, cb.Status, cb.UserID)
}
