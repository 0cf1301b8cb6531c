// Package ledger records round-up savings and governs their withdrawal.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/smartsave/internal/logging"
	"github.com/hongminglow/smartsave/internal/models"
	"github.com/hongminglow/smartsave/internal/roundup"
	"github.com/hongminglow/smartsave/internal/storage"
)

// MaxLockDays bounds any requested or preferred lock period.
const MaxLockDays = 3650

// UserLookup resolves a user's lock preference.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (models.User, error)
}

// Config wires a Service.
type Config struct {
	Policies        roundup.Policies
	DefaultLockDays int
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger logging.Logger
}

// Service is the savings ledger.
type Service struct {
	store           storage.LedgerStore
	users           UserLookup
	policies        roundup.Policies
	defaultLockDays int
	now             func() time.Time
	log             logging.Logger
}

// NewService builds the ledger. users may be nil, in which case only the
// requested or default lock period is used.
func NewService(store storage.LedgerStore, users UserLookup, cfg Config) *Service {
	s := &Service{
		store:           store,
		users:           users,
		policies:        cfg.Policies,
		defaultLockDays: cfg.DefaultLockDays,
		now:             cfg.Now,
		log:             cfg.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	if s.defaultLockDays <= 0 {
		s.defaultLockDays = 90
	}
	return s
}

// Payment describes one successful payment to record.
type Payment struct {
	UserID    string
	Amount    decimal.Decimal
	EntryPath roundup.EntryPath
	// OrderRef is the gateway order id or checkout session id, if any.
	OrderRef string
	// LockDays overrides the user's preference when positive.
	LockDays int
}

// Summary is a user's savings with their total.
type Summary struct {
	TotalSaved decimal.Decimal
	Entries    []models.Saving
}

// ValidateAmount checks that amount is positive with at most two decimal places.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidPayment)
	}
	if !amount.Equal(amount.Truncate(2)) {
		return fmt.Errorf("%w: amount must have at most two decimal places", ErrInvalidPayment)
	}
	return nil
}

// RecordPayment computes the saved amount for the payment's entry path and
// writes the transaction and its locked saving together.
func (s *Service) RecordPayment(ctx context.Context, p Payment) (models.Transaction, models.Saving, error) {
	if strings.TrimSpace(p.UserID) == "" {
		return models.Transaction{}, models.Saving{}, fmt.Errorf("%w: user id is required", ErrInvalidPayment)
	}
	if err := ValidateAmount(p.Amount); err != nil {
		return models.Transaction{}, models.Saving{}, err
	}
	if p.LockDays < 0 || p.LockDays > MaxLockDays {
		return models.Transaction{}, models.Saving{}, fmt.Errorf("%w: lock period must be between 1 and %d days", ErrInvalidPayment, MaxLockDays)
	}
	saved, err := s.policies.Saved(p.EntryPath, p.Amount)
	if err != nil {
		return models.Transaction{}, models.Saving{}, fmt.Errorf("%w: %w", ErrInvalidPayment, err)
	}

	lockDays := s.resolveLockDays(ctx, p)
	now := s.now().UTC()

	tx := models.Transaction{
		ID:          uuid.NewString(),
		UserID:      p.UserID,
		Amount:      p.Amount,
		SavedAmount: saved,
		EntryPath:   p.EntryPath,
		OrderRef:    p.OrderRef,
		CreatedAt:   now,
	}
	sv := models.Saving{
		ID:            uuid.NewString(),
		UserID:        p.UserID,
		TransactionID: tx.ID,
		Amount:        saved,
		LockedUntil:   now.Add(time.Duration(lockDays) * 24 * time.Hour),
		CreatedAt:     now,
	}

	if err := s.store.CreatePayment(ctx, tx, sv); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.Transaction{}, models.Saving{}, ErrDuplicatePayment
		}
		return models.Transaction{}, models.Saving{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.log.Info(ctx, "payment recorded",
		"user_id", p.UserID, "entry_path", string(p.EntryPath), "amount", p.Amount.StringFixed(2),
		"saved", saved.StringFixed(2), "lock_days", lockDays, "order_ref", p.OrderRef)
	return tx, sv, nil
}

func (s *Service) resolveLockDays(ctx context.Context, p Payment) int {
	if p.LockDays > 0 {
		return p.LockDays
	}
	if s.users == nil {
		return s.defaultLockDays
	}
	user, err := s.users.GetUser(ctx, p.UserID)
	switch {
	case err == nil:
		if user.LockPreferenceDays > 0 && user.LockPreferenceDays <= MaxLockDays {
			return user.LockPreferenceDays
		}
	case errors.Is(err, storage.ErrNotFound):
	default:
		s.log.Warn(ctx, "lock preference lookup failed; using default", "user_id", p.UserID, "error", err)
	}
	return s.defaultLockDays
}

// ListSavings returns the user's savings in insertion order and their sum.
func (s *Service) ListSavings(ctx context.Context, userID string) (Summary, error) {
	entries, err := s.store.ListSavings(ctx, userID)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	total := decimal.Zero
	for _, sv := range entries {
		total = total.Add(sv.Amount)
	}
	return Summary{TotalSaved: total, Entries: entries}, nil
}

// Withdraw releases a saving owned by userID once its lock has expired.
// The state change is a single conditional update; when it matches nothing
// the saving is re-read only to pick the error.
func (s *Service) Withdraw(ctx context.Context, userID, savingID string) (models.Saving, error) {
	if _, err := uuid.Parse(savingID); err != nil || strings.TrimSpace(userID) == "" {
		return models.Saving{}, ErrNotFound
	}
	now := s.now().UTC()

	sv, err := s.store.MarkWithdrawn(ctx, savingID, userID, now)
	if err == nil {
		s.log.Info(ctx, "saving withdrawn", "user_id", userID, "saving_id", savingID, "amount", sv.Amount.StringFixed(2))
		return sv, nil
	}
	if !errors.Is(err, storage.ErrNotUpdated) {
		return models.Saving{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	current, err := s.store.GetSaving(ctx, savingID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return models.Saving{}, ErrNotFound
	case err != nil:
		return models.Saving{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	case current.UserID != userID:
		return models.Saving{}, ErrNotFound
	case current.Withdrawn:
		return models.Saving{}, ErrAlreadyWithdrawn
	case current.Locked(now):
		return models.Saving{}, ErrStillLocked
	}
	return models.Saving{}, fmt.Errorf("%w: withdrawal of %s was not applied", ErrPersistence, savingID)
}
