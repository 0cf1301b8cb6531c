package handlers

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/smartsave/internal/http/respond"
	"github.com/hongminglow/smartsave/internal/ledger"
	"github.com/hongminglow/smartsave/internal/logging"
	"github.com/hongminglow/smartsave/internal/models/dto"
	"github.com/hongminglow/smartsave/internal/payment"
	"github.com/hongminglow/smartsave/internal/roundup"
)

// PaymentHandler starts bank-gateway payments and records their callbacks.
type PaymentHandler struct {
	gateway *payment.Gateway
	ledger  *ledger.Service
	log     logging.Logger
}

// NewPaymentHandler constructs the handler.
func NewPaymentHandler(gateway *payment.Gateway, savings *ledger.Service, log logging.Logger) *PaymentHandler {
	return &PaymentHandler{gateway: gateway, ledger: savings, log: log}
}

// Register attaches the gateway routes to the mux.
func (h *PaymentHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/payment", h.handlePayment)
	mux.HandleFunc("POST /api/callback", h.handleCallback)
}

func (h *PaymentHandler) handlePayment(w http.ResponseWriter, r *http.Request) {
	var req dto.PaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		respond.Error(w, http.StatusBadRequest, "userId is required")
		return
	}
	if err := ledger.ValidateAmount(req.Amount); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if !authorize(w, r, req.UserID) {
		return
	}

	form := h.gateway.BuildRequest(req.UserID, req.Amount)
	h.log.Info(r.Context(), "payment form issued", "user_id", req.UserID, "order_id", form.OrderID, "amount", req.Amount.StringFixed(2))
	renderHTML(w, h.log, r, paymentFormTmpl, form)
}

func (h *PaymentHandler) handleCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respond.Text(w, http.StatusBadRequest, "malformed callback")
		return
	}
	cb := payment.Callback{
		MerchantID:        r.PostForm.Get("merchantId"),
		ClientID:          r.PostForm.Get("clientId"),
		OrderID:           r.PostForm.Get("orderId"),
		TransactionAmount: r.PostForm.Get("transactionAmount"),
		Status:            r.PostForm.Get("status"),
		UserID:            r.PostForm.Get("userDefinedField1"),
		Checksum:          r.PostForm.Get("checksum"),
	}
	if err := h.gateway.VerifyCallback(cb); err != nil {
		h.log.Warn(r.Context(), "callback rejected", "order_id", cb.OrderID, "error", err)
		respond.Text(w, http.StatusBadRequest, "Invalid checksum or payment failed")
		return
	}
	amount, err := decimal.NewFromString(cb.TransactionAmount)
	if err != nil {
		respond.Text(w, http.StatusBadRequest, "Invalid transaction amount")
		return
	}

	tx, sv, err := h.ledger.RecordPayment(r.Context(), ledger.Payment{
		UserID:    cb.UserID,
		Amount:    amount,
		EntryPath: roundup.EntryBankGateway,
		OrderRef:  cb.OrderID,
	})
	switch {
	case err == nil:
	case errors.Is(err, ledger.ErrDuplicatePayment):
		renderHTML(w, h.log, r, receiptTmpl, receipt{OrderID: cb.OrderID, Duplicate: true})
		return
	case errors.Is(err, ledger.ErrInvalidPayment):
		respond.Text(w, http.StatusBadRequest, "Invalid transaction amount")
		return
	default:
		h.log.Error(r.Context(), "record payment failed", "order_id", cb.OrderID, "error", err)
		respond.Text(w, http.StatusInternalServerError, "Failed to record payment")
		return
	}

	renderHTML(w, h.log, r, receiptTmpl, receipt{
		OrderID:     cb.OrderID,
		Amount:      tx.Amount.StringFixed(2),
		Saved:       tx.SavedAmount.StringFixed(2),
		LockedUntil: sv.LockedUntil.Format(time.DateOnly),
	})
}

func renderHTML(w http.ResponseWriter, log logging.Logger, r *http.Request, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.Error(r.Context(), "render template failed", "template", tmpl.Name(), "error", err)
		respond.Text(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond.Raw(w, http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
