package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/smartsave/internal/models"
	"github.com/hongminglow/smartsave/internal/storage"
)

func pair(id, user, ref string, lockedUntil time.Time) (models.Transaction, models.Saving) {
	amount := decimal.RequireFromString("0.60")
	return models.Transaction{ID: "tx-" + id, UserID: user, SavedAmount: amount, OrderRef: ref},
		models.Saving{ID: "sv-" + id, UserID: user, TransactionID: "tx-" + id, Amount: amount, LockedUntil: lockedUntil}
}

func TestCreatePayment_FailureLeavesNothing(t *testing.T) {
	s := New()
	s.FailSavingInsert = errors.New("disk full")

	tx, sv := pair("1", "u", "ORDER_1", time.Now())
	require.Error(t, s.CreatePayment(context.Background(), tx, sv))

	assert.Empty(t, s.Transactions("u"))
	list, err := s.ListSavings(context.Background(), "u")
	require.NoError(t, err)
	assert.Empty(t, list)

	// The order ref was not consumed either.
	s.FailSavingInsert = nil
	assert.NoError(t, s.CreatePayment(context.Background(), tx, sv))
}

func TestCreatePayment_DuplicateOrderRef(t *testing.T) {
	s := New()
	tx, sv := pair("1", "u", "ORDER_1", time.Now())
	require.NoError(t, s.CreatePayment(context.Background(), tx, sv))

	tx2, sv2 := pair("2", "u", "ORDER_1", time.Now())
	assert.ErrorIs(t, s.CreatePayment(context.Background(), tx2, sv2), storage.ErrAlreadyExists)

	tx3, sv3 := pair("3", "u", "", time.Now())
	tx4, sv4 := pair("4", "u", "", time.Now())
	require.NoError(t, s.CreatePayment(context.Background(), tx3, sv3))
	require.NoError(t, s.CreatePayment(context.Background(), tx4, sv4))
	assert.Len(t, s.Transactions("u"), 3)
}

func TestListSavings_InsertionOrderPerUser(t *testing.T) {
	s := New()
	for _, id := range []string{"c", "a", "b"} {
		tx, sv := pair(id, "u", "", time.Now())
		require.NoError(t, s.CreatePayment(context.Background(), tx, sv))
	}
	tx, sv := pair("z", "other", "", time.Now())
	require.NoError(t, s.CreatePayment(context.Background(), tx, sv))

	list, err := s.ListSavings(context.Background(), "u")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"sv-c", "sv-a", "sv-b"}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func TestMarkWithdrawn_Conditions(t *testing.T) {
	s := New()
	now := time.Now()
	tx, sv := pair("1", "u", "", now.Add(-time.Minute))
	require.NoError(t, s.CreatePayment(context.Background(), tx, sv))
	tx, sv = pair("2", "u", "", now.Add(time.Hour))
	require.NoError(t, s.CreatePayment(context.Background(), tx, sv))

	_, err := s.MarkWithdrawn(context.Background(), "sv-1", "intruder", now)
	assert.ErrorIs(t, err, storage.ErrNotUpdated)
	_, err = s.MarkWithdrawn(context.Background(), "sv-2", "u", now)
	assert.ErrorIs(t, err, storage.ErrNotUpdated)
	_, err = s.MarkWithdrawn(context.Background(), "missing", "u", now)
	assert.ErrorIs(t, err, storage.ErrNotUpdated)

	got, err := s.MarkWithdrawn(context.Background(), "sv-1", "u", now)
	require.NoError(t, err)
	assert.True(t, got.Withdrawn)

	_, err = s.MarkWithdrawn(context.Background(), "sv-1", "u", now)
	assert.ErrorIs(t, err, storage.ErrNotUpdated)
}

func TestUsers(t *testing.T) {
	s := New()
	_, err := s.CreateUser(context.Background(), models.User{ID: "u", Name: "A"})
	require.NoError(t, err)
	_, err = s.CreateUser(context.Background(), models.User{ID: "u"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	days := 30
	got, err := s.UpdateProfile(context.Background(), "u", models.ProfileUpdate{LockPreferenceDays: &days})
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)
	assert.Equal(t, 30, got.LockPreferenceDays)

	_, err = s.GetUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
