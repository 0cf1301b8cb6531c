package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hongminglow/smartsave/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrNotUpdated indicates a conditional update matched no row.
var ErrNotUpdated = errors.New("no row matched update condition")

// UserStore captures persistence operations for user profiles.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (models.User, error)
}

// LedgerStore persists transactions and savings.
type LedgerStore interface {
	// CreatePayment writes the transaction and its saving atomically.
	// A repeated non-empty OrderRef yields ErrAlreadyExists and writes nothing.
	CreatePayment(ctx context.Context, tx models.Transaction, saving models.Saving) error
	// ListSavings returns a user's savings in insertion order.
	ListSavings(ctx context.Context, userID string) ([]models.Saving, error)
	GetSaving(ctx context.Context, id string) (models.Saving, error)
	// MarkWithdrawn flips withdrawn in a single conditional update that only
	// matches an unwithdrawn saving owned by userID whose lock expired by now.
	// It returns ErrNotUpdated when nothing matched.
	MarkWithdrawn(ctx context.Context, id, userID string, now time.Time) (models.Saving, error)
}

// Store is everything the HTTP layer needs from persistence.
type Store interface {
	UserStore
	LedgerStore
}
