package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/smartsave/internal/http/respond"
	"github.com/hongminglow/smartsave/internal/ledger"
	"github.com/hongminglow/smartsave/internal/logging"
	"github.com/hongminglow/smartsave/internal/models/dto"
	"github.com/hongminglow/smartsave/internal/payment"
	"github.com/hongminglow/smartsave/internal/roundup"
)

// CheckoutHandler serves the card-processor checkout flow.
type CheckoutHandler struct {
	cards  payment.CardProcessor
	ledger *ledger.Service
	log    logging.Logger
	// allowUnverified lets save-payment record a payment without a checkout
	// session. Local development only.
	allowUnverified bool
}

// NewCheckoutHandler constructs the handler.
func NewCheckoutHandler(cards payment.CardProcessor, savings *ledger.Service, log logging.Logger, allowUnverified bool) *CheckoutHandler {
	return &CheckoutHandler{cards: cards, ledger: savings, log: log, allowUnverified: allowUnverified}
}

// Register attaches the checkout routes to the mux.
func (h *CheckoutHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/stripe/checkout-session", h.handleCreateSession)
	mux.HandleFunc("POST /api/stripe/save-payment", h.handleSavePayment)
}

func validateCardPayment(userID string, amount decimal.Decimal, lockPeriod int) error {
	if userID == "" {
		return errors.New("userId is required")
	}
	if err := ledger.ValidateAmount(amount); err != nil {
		return err
	}
	if lockPeriod < 0 || lockPeriod > ledger.MaxLockDays {
		return fmt.Errorf("lockPeriod must be between 1 and %d days", ledger.MaxLockDays)
	}
	return nil
}

func (h *CheckoutHandler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if err := validateCardPayment(req.UserID, req.Amount, req.LockPeriod); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if !authorize(w, r, req.UserID) {
		return
	}

	url, err := h.cards.CreateSession(r.Context(), payment.CheckoutRequest{
		UserID:   req.UserID,
		Amount:   req.Amount,
		LockDays: req.LockPeriod,
	})
	if err != nil {
		h.log.Error(r.Context(), "create checkout session failed", "user_id", req.UserID, "error", err)
		respond.Error(w, http.StatusBadGateway, "card processor unavailable")
		return
	}
	respond.JSON(w, http.StatusOK, dto.CheckoutResponse{URL: url})
}

func (h *CheckoutHandler) handleSavePayment(w http.ResponseWriter, r *http.Request) {
	var req dto.SavePaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.SessionID = strings.TrimSpace(req.SessionID)
	if err := validateCardPayment(req.UserID, req.Amount, req.LockPeriod); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SessionID == "" && !h.allowUnverified {
		respond.Error(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if !authorize(w, r, req.UserID) {
		return
	}

	if req.SessionID != "" {
		status, err := h.cards.ConfirmSession(r.Context(), req.SessionID)
		if err != nil {
			h.log.Error(r.Context(), "confirm checkout session failed", "session_id", req.SessionID, "error", err)
			respond.Error(w, http.StatusBadGateway, "card processor unavailable")
			return
		}
		if err := payment.CheckPaid(status, req.UserID, req.Amount); err != nil {
			h.log.Warn(r.Context(), "checkout session rejected", "session_id", req.SessionID, "error", err)
			respond.Error(w, http.StatusBadRequest, "checkout session is not paid for this amount")
			return
		}
	}

	if req.SessionID == "" {
		h.log.Warn(r.Context(), "recording card payment without a checkout session", "user_id", req.UserID)
	}
	tx, sv, err := h.ledger.RecordPayment(r.Context(), ledger.Payment{
		UserID:    req.UserID,
		Amount:    req.Amount,
		EntryPath: roundup.EntryCardCheckout,
		OrderRef:  req.SessionID,
		LockDays:  req.LockPeriod,
	})
	switch {
	case err == nil:
		entry := dto.NewSavingEntry(sv)
		respond.JSON(w, http.StatusOK, dto.SavePaymentResponse{
			Message:     "Payment recorded",
			SavedAmount: tx.SavedAmount.StringFixed(2),
			Saving:      &entry,
		})
	case errors.Is(err, ledger.ErrDuplicatePayment):
		respond.JSON(w, http.StatusOK, dto.SavePaymentResponse{Message: "Payment already recorded"})
	case errors.Is(err, ledger.ErrInvalidPayment):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error(r.Context(), "record card payment failed", "user_id", req.UserID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to save payment")
	}
}
