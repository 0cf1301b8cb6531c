package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/smartsave/internal/models"
	"github.com/hongminglow/smartsave/internal/roundup"
	"github.com/hongminglow/smartsave/internal/storage"
	"github.com/hongminglow/smartsave/internal/storage/memory"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newService(t *testing.T) (*Service, *memory.Store, *clock) {
	t.Helper()
	store := memory.New()
	clk := &clock{t: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)}
	svc := NewService(store, store, Config{
		Policies:        roundup.DefaultPolicies(decimal.NewFromInt(5)),
		DefaultLockDays: 90,
		Now:             clk.Now,
	})
	return svc, store, clk
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRecordPayment_BankRoundUp(t *testing.T) {
	svc, store, clk := newService(t)

	tx, sv, err := svc.RecordPayment(context.Background(), Payment{
		UserID:    "user-123",
		Amount:    dec("150.40"),
		EntryPath: roundup.EntryBankGateway,
		OrderRef:  "ORDER_1",
	})
	require.NoError(t, err)

	assert.True(t, tx.Amount.Equal(dec("150.40")))
	assert.True(t, tx.SavedAmount.Equal(dec("0.60")))
	assert.True(t, sv.Amount.Equal(tx.SavedAmount))
	assert.Equal(t, tx.ID, sv.TransactionID)
	assert.Equal(t, clk.Now().Add(90*24*time.Hour), sv.LockedUntil)
	assert.False(t, sv.Withdrawn)
	assert.Len(t, store.Transactions("user-123"), 1)
}

func TestRecordPayment_CardPercentage(t *testing.T) {
	svc, _, _ := newService(t)

	tx, sv, err := svc.RecordPayment(context.Background(), Payment{
		UserID:    "user-123",
		Amount:    dec("200"),
		EntryPath: roundup.EntryCardCheckout,
		LockDays:  30,
	})
	require.NoError(t, err)
	assert.Equal(t, "10.00", tx.SavedAmount.StringFixed(2))
	assert.Equal(t, tx.CreatedAt.Add(30*24*time.Hour), sv.LockedUntil)
}

func TestRecordPayment_WholeAmountSavesZero(t *testing.T) {
	svc, _, _ := newService(t)

	_, sv, err := svc.RecordPayment(context.Background(), Payment{
		UserID: "user-123", Amount: dec("100"), EntryPath: roundup.EntryBankGateway,
	})
	require.NoError(t, err)
	assert.True(t, sv.Amount.IsZero())
}

func TestRecordPayment_LockPreferenceFromProfile(t *testing.T) {
	svc, store, clk := newService(t)
	_, err := store.CreateUser(context.Background(), models.User{ID: "user-123", LockPreferenceDays: 7})
	require.NoError(t, err)

	_, sv, err := svc.RecordPayment(context.Background(), Payment{
		UserID: "user-123", Amount: dec("9.50"), EntryPath: roundup.EntryBankGateway,
	})
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(7*24*time.Hour), sv.LockedUntil)
}

func TestRecordPayment_Validation(t *testing.T) {
	svc, store, _ := newService(t)

	cases := []Payment{
		{UserID: "", Amount: dec("1"), EntryPath: roundup.EntryBankGateway},
		{UserID: "u", Amount: dec("0"), EntryPath: roundup.EntryBankGateway},
		{UserID: "u", Amount: dec("-5"), EntryPath: roundup.EntryBankGateway},
		{UserID: "u", Amount: dec("1.005"), EntryPath: roundup.EntryBankGateway},
		{UserID: "u", Amount: dec("1"), EntryPath: "cash"},
		{UserID: "u", Amount: dec("1"), EntryPath: roundup.EntryBankGateway, LockDays: MaxLockDays + 1},
	}
	for _, p := range cases {
		_, _, err := svc.RecordPayment(context.Background(), p)
		assert.ErrorIs(t, err, ErrInvalidPayment, "%+v", p)
	}
	assert.Empty(t, store.Transactions("u"))
}

func TestRecordPayment_SecondWriteFailureLeavesNoTransaction(t *testing.T) {
	svc, store, _ := newService(t)
	store.FailSavingInsert = errors.New("savings table unavailable")

	_, _, err := svc.RecordPayment(context.Background(), Payment{
		UserID: "user-123", Amount: dec("150.40"), EntryPath: roundup.EntryBankGateway,
	})
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Empty(t, store.Transactions("user-123"))

	summary, err := svc.ListSavings(context.Background(), "user-123")
	require.NoError(t, err)
	assert.Empty(t, summary.Entries)
}

func TestRecordPayment_DuplicateOrderRef(t *testing.T) {
	svc, store, _ := newService(t)
	p := Payment{UserID: "user-123", Amount: dec("150.40"), EntryPath: roundup.EntryBankGateway, OrderRef: "ORDER_1"}

	_, _, err := svc.RecordPayment(context.Background(), p)
	require.NoError(t, err)
	_, _, err = svc.RecordPayment(context.Background(), p)
	assert.ErrorIs(t, err, ErrDuplicatePayment)
	assert.Len(t, store.Transactions("user-123"), 1)
}

func TestListSavings_TotalIncludesZeroAmounts(t *testing.T) {
	svc, _, _ := newService(t)
	for _, amount := range []string{"150.40", "100", "9.99"} {
		_, _, err := svc.RecordPayment(context.Background(), Payment{
			UserID: "user-123", Amount: dec(amount), EntryPath: roundup.EntryBankGateway,
		})
		require.NoError(t, err)
	}
	_, _, err := svc.RecordPayment(context.Background(), Payment{
		UserID: "someone-else", Amount: dec("0.50"), EntryPath: roundup.EntryBankGateway,
	})
	require.NoError(t, err)

	summary, err := svc.ListSavings(context.Background(), "user-123")
	require.NoError(t, err)
	require.Len(t, summary.Entries, 3)
	assert.True(t, summary.Entries[1].Amount.IsZero())

	sum := decimal.Zero
	for _, e := range summary.Entries {
		sum = sum.Add(e.Amount)
	}
	assert.True(t, summary.TotalSaved.Equal(sum))
	assert.Equal(t, "0.61", summary.TotalSaved.StringFixed(2))
}

func TestListSavings_StoreFailure(t *testing.T) {
	svc, store, _ := newService(t)
	store.Fail = errors.New("down")

	_, err := svc.ListSavings(context.Background(), "user-123")
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestWithdraw_Lifecycle(t *testing.T) {
	svc, store, clk := newService(t)
	ctx := context.Background()

	_, sv, err := svc.RecordPayment(ctx, Payment{UserID: "user-123", Amount: dec("150.40"), EntryPath: roundup.EntryBankGateway})
	require.NoError(t, err)

	_, err = svc.Withdraw(ctx, "user-123", sv.ID)
	assert.ErrorIs(t, err, ErrStillLocked)
	current, err := store.GetSaving(ctx, sv.ID)
	require.NoError(t, err)
	assert.False(t, current.Withdrawn)

	clk.Advance(90 * 24 * time.Hour)

	got, err := svc.Withdraw(ctx, "user-123", sv.ID)
	require.NoError(t, err)
	assert.True(t, got.Withdrawn)
	require.NotNil(t, got.WithdrawnAt)
	assert.Equal(t, sv.LockedUntil, got.LockedUntil)

	_, err = svc.Withdraw(ctx, "user-123", sv.ID)
	assert.ErrorIs(t, err, ErrAlreadyWithdrawn)
}

func TestWithdraw_NotFoundCases(t *testing.T) {
	svc, _, clk := newService(t)
	ctx := context.Background()

	_, sv, err := svc.RecordPayment(ctx, Payment{UserID: "owner", Amount: dec("1.50"), EntryPath: roundup.EntryBankGateway})
	require.NoError(t, err)
	clk.Advance(365 * 24 * time.Hour)

	_, err = svc.Withdraw(ctx, "intruder", sv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Withdraw(ctx, "owner", uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Withdraw(ctx, "owner", "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Withdraw(ctx, "", sv.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The non-owner attempt did not consume the saving.
	_, err = svc.Withdraw(ctx, "owner", sv.ID)
	assert.NoError(t, err)
}

func TestWithdraw_ConcurrentCallsSucceedOnce(t *testing.T) {
	svc, _, clk := newService(t)
	ctx := context.Background()

	_, sv, err := svc.RecordPayment(ctx, Payment{UserID: "user-123", Amount: dec("150.40"), EntryPath: roundup.EntryBankGateway})
	require.NoError(t, err)
	clk.Advance(91 * 24 * time.Hour)

	const callers = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		already   int
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Withdraw(ctx, "user-123", sv.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrAlreadyWithdrawn):
				already++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, already)
}

type failingGetStore struct {
	*memory.Store
}

func (f failingGetStore) GetSaving(ctx context.Context, id string) (models.Saving, error) {
	return models.Saving{}, errors.New("replica lag")
}

func TestWithdraw_PersistenceFailures(t *testing.T) {
	store := memory.New()
	clk := &clock{t: time.Now().UTC()}
	svc := NewService(failingGetStore{store}, nil, Config{
		Policies: roundup.DefaultPolicies(decimal.NewFromInt(5)),
		Now:      clk.Now,
	})
	ctx := context.Background()

	_, sv, err := svc.RecordPayment(ctx, Payment{UserID: "u", Amount: dec("1.50"), EntryPath: roundup.EntryBankGateway})
	require.NoError(t, err)

	_, err = svc.Withdraw(ctx, "u", sv.ID)
	assert.ErrorIs(t, err, ErrPersistence)

	store.Fail = errors.New("down")
	_, err = svc.Withdraw(ctx, "u", sv.ID)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.NotErrorIs(t, err, storage.ErrNotUpdated)
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, ValidateAmount(dec("0.01")))
	assert.NoError(t, ValidateAmount(dec("150.40")))
	assert.Error(t, ValidateAmount(dec("0")))
	assert.Error(t, ValidateAmount(dec("1.001")))
}
