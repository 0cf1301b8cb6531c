package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/smartsave/internal/ledger"
	"github.com/hongminglow/smartsave/internal/models"
	"github.com/hongminglow/smartsave/internal/roundup"
)

// TestLedgerIntegration runs the ledger against a real Postgres database.
func TestLedgerIntegration(t *testing.T) {
	if os.Getenv("RUN_LEDGER_INTEGRATION") != "true" {
		t.Skip("set RUN_LEDGER_INTEGRATION=true to run this integration test")
	}
	_ = godotenv.Load("../../../.env")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	store, err := Open(ctx, dbURL)
	require.NoError(t, err)
	defer store.Close()

	userID := fmt.Sprintf("it-%d", time.Now().UnixNano())
	_, err = store.CreateUser(ctx, models.User{ID: userID, Name: "Integration", Email: userID + "@example.com", LockPreferenceDays: 1})
	require.NoError(t, err)

	now := time.Now().UTC()
	svc := ledger.NewService(store, store, ledger.Config{
		Policies: roundup.DefaultPolicies(decimal.NewFromInt(5)),
		Now:      func() time.Time { return now },
	})

	orderRef := "ORDER_" + userID
	_, sv, err := svc.RecordPayment(ctx, ledger.Payment{
		UserID: userID, Amount: decimal.RequireFromString("150.40"), EntryPath: roundup.EntryBankGateway, OrderRef: orderRef,
	})
	require.NoError(t, err)
	assert.Equal(t, "0.60", sv.Amount.StringFixed(2))

	_, _, err = svc.RecordPayment(ctx, ledger.Payment{
		UserID: userID, Amount: decimal.RequireFromString("150.40"), EntryPath: roundup.EntryBankGateway, OrderRef: orderRef,
	})
	assert.ErrorIs(t, err, ledger.ErrDuplicatePayment)

	summary, err := svc.ListSavings(ctx, userID)
	require.NoError(t, err)
	require.Len(t, summary.Entries, 1)

	_, err = svc.Withdraw(ctx, userID, sv.ID)
	assert.ErrorIs(t, err, ledger.ErrStillLocked)

	// Move the service clock past the one-day lock preference.
	now = now.Add(25 * time.Hour)

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Withdraw(ctx, userID, sv.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case !errors.Is(err, ledger.ErrAlreadyWithdrawn):
				t.Errorf("unexpected withdraw error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
}
