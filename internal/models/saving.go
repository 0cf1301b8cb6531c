package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/smartsave/internal/roundup"
)

// Transaction is one completed payment. Immutable once written.
type Transaction struct {
	ID          string            `json:"id"`
	UserID      string            `json:"userId"`
	Amount      decimal.Decimal   `json:"amount"`
	SavedAmount decimal.Decimal   `json:"savedAmount"`
	EntryPath   roundup.EntryPath `json:"entryPath"`
	OrderRef    string            `json:"orderRef,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// Saving is a locked deposit created alongside its Transaction.
type Saving struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	LockedUntil   time.Time       `json:"lockedUntil"`
	Withdrawn     bool            `json:"isWithdrawn"`
	WithdrawnAt   *time.Time      `json:"withdrawnAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Locked reports whether the saving cannot be withdrawn yet at now.
func (s Saving) Locked(now time.Time) bool {
	return now.Before(s.LockedUntil)
}
