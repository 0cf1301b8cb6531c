package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hongminglow/smartsave/internal/http/respond"
	"github.com/hongminglow/smartsave/internal/ledger"
	"github.com/hongminglow/smartsave/internal/logging"
	"github.com/hongminglow/smartsave/internal/models/dto"
)

// SavingsHandler lists savings and withdraws unlocked ones.
type SavingsHandler struct {
	ledger *ledger.Service
	log    logging.Logger
}

// NewSavingsHandler constructs the handler.
func NewSavingsHandler(savings *ledger.Service, log logging.Logger) *SavingsHandler {
	return &SavingsHandler{ledger: savings, log: log}
}

// Register attaches the savings routes to the mux.
func (h *SavingsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/savings", h.handleList)
	mux.HandleFunc("POST /api/savings/withdraw", h.handleWithdraw)
}

func (h *SavingsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		respond.Error(w, http.StatusBadRequest, "userId is required")
		return
	}
	if !authorize(w, r, userID) {
		return
	}

	summary, err := h.ledger.ListSavings(r.Context(), userID)
	if err != nil {
		h.log.Error(r.Context(), "list savings failed", "user_id", userID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch savings")
		return
	}
	respond.JSON(w, http.StatusOK, dto.SavingsResponse{
		TotalSaved: summary.TotalSaved.StringFixed(2),
		Entries:    dto.NewSavingEntries(summary.Entries),
	})
}

func (h *SavingsHandler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req dto.WithdrawRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.SavingID = strings.TrimSpace(req.SavingID)
	if req.UserID == "" || req.SavingID == "" {
		respond.Error(w, http.StatusBadRequest, "userId and savingId are required")
		return
	}
	if !authorize(w, r, req.UserID) {
		return
	}

	sv, err := h.ledger.Withdraw(r.Context(), req.UserID, req.SavingID)
	switch {
	case err == nil:
		respond.JSON(w, http.StatusOK, dto.WithdrawResponse{Message: "Withdrawal successful", Saving: dto.NewSavingEntry(sv)})
	case errors.Is(err, ledger.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "Saving not found")
	case errors.Is(err, ledger.ErrAlreadyWithdrawn):
		respond.Error(w, http.StatusBadRequest, "Saving already withdrawn")
	case errors.Is(err, ledger.ErrStillLocked):
		respond.Error(w, http.StatusForbidden, "Saving is still locked")
	default:
		h.log.Error(r.Context(), "withdraw failed", "user_id", req.UserID, "saving_id", req.SavingID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to withdraw saving")
	}
}
