// Package memory is an in-process implementation of storage.Store used by
// tests and local runs without Postgres. It mirrors the Postgres semantics:
// paired inserts are all-or-nothing, order refs are unique and withdrawal is
// a single compare-and-set.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hongminglow/smartsave/internal/models"
	"github.com/hongminglow/smartsave/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps users and ledger rows in maps guarded by one mutex.
type Store struct {
	mu           sync.Mutex
	users        map[string]models.User
	transactions map[string]models.Transaction
	savings      map[string]models.Saving
	savingOrder  []string
	orderRefs    map[string]struct{}

	// FailSavingInsert, when set, makes CreatePayment fail after the
	// transaction row was staged, as a second write failing would.
	FailSavingInsert error
	// Fail, when set, is returned by every other operation.
	Fail error
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:        map[string]models.User{},
		transactions: map[string]models.Transaction{},
		savings:      map[string]models.Saving{},
		orderRefs:    map[string]struct{}{},
	}
}

func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return models.User{}, s.Fail
	}
	if _, ok := s.users[user.ID]; ok {
		return models.User{}, storage.ErrAlreadyExists
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return models.User{}, s.Fail
	}
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return models.User{}, s.Fail
	}
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.IncomeBracket != nil {
		user.IncomeBracket = *update.IncomeBracket
	}
	if update.Goal != nil {
		user.Goal = *update.Goal
	}
	if update.LockPreferenceDays != nil {
		user.LockPreferenceDays = *update.LockPreferenceDays
	}
	user.UpdatedAt = time.Now().UTC()
	s.users[id] = user
	return user, nil
}

func (s *Store) CreatePayment(ctx context.Context, tx models.Transaction, sv models.Saving) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	if tx.OrderRef != "" {
		if _, dup := s.orderRefs[tx.OrderRef]; dup {
			return storage.ErrAlreadyExists
		}
	}
	// FailSavingInsert fails the call before either row is written.
	if s.FailSavingInsert != nil {
		return s.FailSavingInsert
	}
	s.transactions[tx.ID] = tx
	s.savings[sv.ID] = sv
	s.savingOrder = append(s.savingOrder, sv.ID)
	if tx.OrderRef != "" {
		s.orderRefs[tx.OrderRef] = struct{}{}
	}
	return nil
}

func (s *Store) ListSavings(ctx context.Context, userID string) ([]models.Saving, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	out := []models.Saving{}
	for _, id := range s.savingOrder {
		if sv := s.savings[id]; sv.UserID == userID {
			out = append(out, sv)
		}
	}
	return out, nil
}

func (s *Store) GetSaving(ctx context.Context, id string) (models.Saving, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return models.Saving{}, s.Fail
	}
	sv, ok := s.savings[id]
	if !ok {
		return models.Saving{}, storage.ErrNotFound
	}
	return sv, nil
}

func (s *Store) MarkWithdrawn(ctx context.Context, id, userID string, now time.Time) (models.Saving, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return models.Saving{}, s.Fail
	}
	sv, ok := s.savings[id]
	if !ok || sv.UserID != userID || sv.Withdrawn || sv.Locked(now) {
		return models.Saving{}, storage.ErrNotUpdated
	}
	at := now
	sv.Withdrawn = true
	sv.WithdrawnAt = &at
	s.savings[id] = sv
	return sv, nil
}

// Transactions returns a user's transactions, for assertions in tests.
func (s *Store) Transactions(userID string) []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Transaction
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out
}
