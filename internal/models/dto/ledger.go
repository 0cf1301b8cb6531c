package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/smartsave/internal/models"
)

// Amounts accept both JSON numbers and numeric strings.

type PaymentRequest struct {
	UserID string          `json:"userId"`
	Amount decimal.Decimal `json:"amount"`
}

type CheckoutRequest struct {
	UserID     string          `json:"userId"`
	Amount     decimal.Decimal `json:"amount"`
	LockPeriod int             `json:"lockPeriod,omitempty"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

type SavePaymentRequest struct {
	UserID     string          `json:"userId"`
	Amount     decimal.Decimal `json:"amount"`
	LockPeriod int             `json:"lockPeriod,omitempty"`
	SessionID  string          `json:"sessionId,omitempty"`
}

type SavePaymentResponse struct {
	Message     string       `json:"message"`
	SavedAmount string       `json:"savedAmount,omitempty"`
	Saving      *SavingEntry `json:"saving,omitempty"`
}

type SavingsResponse struct {
	TotalSaved string        `json:"totalSaved"`
	Entries    []SavingEntry `json:"entries"`
}

type WithdrawRequest struct {
	UserID   string `json:"userId"`
	SavingID string `json:"savingId"`
}

type WithdrawResponse struct {
	Message string      `json:"message"`
	Saving  SavingEntry `json:"saving"`
}

// SavingEntry renders a saving with its amount fixed to two decimals.
type SavingEntry struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	TransactionID string     `json:"transactionId"`
	Amount        string     `json:"amount"`
	LockedUntil   time.Time  `json:"lockedUntil"`
	Withdrawn     bool       `json:"isWithdrawn"`
	WithdrawnAt   *time.Time `json:"withdrawnAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func NewSavingEntry(sv models.Saving) SavingEntry {
	return SavingEntry{
		ID:            sv.ID,
		UserID:        sv.UserID,
		TransactionID: sv.TransactionID,
		Amount:        sv.Amount.StringFixed(2),
		LockedUntil:   sv.LockedUntil,
		Withdrawn:     sv.Withdrawn,
		WithdrawnAt:   sv.WithdrawnAt,
		CreatedAt:     sv.CreatedAt,
	}
}

func NewSavingEntries(savings []models.Saving) []SavingEntry {
	out := make([]SavingEntry, 0, len(savings))
	for _, sv := range savings {
		out = append(out, NewSavingEntry(sv))
	}
	return out
}
