package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hongminglow/smartsave/internal/dbx"
	"github.com/hongminglow/smartsave/internal/models"
	"github.com/hongminglow/smartsave/internal/storage"
)

const savingColumns = `id, user_id, transaction_id, amount, locked_until, withdrawn, withdrawn_at, created_at`

// CreatePayment inserts the transaction and its saving in one database transaction.
func (s *Store) CreatePayment(ctx context.Context, t models.Transaction, sv models.Saving) error {
	const insertTransaction = `
		INSERT INTO transactions (id, user_id, amount, saved_amount, entry_path, order_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	const insertSaving = `
		INSERT INTO savings (id, user_id, transaction_id, amount, locked_until, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		orderRef := sql.NullString{String: t.OrderRef, Valid: t.OrderRef != ""}
		if _, err := tx.ExecContext(ctx, insertTransaction,
			t.ID, t.UserID, t.Amount, t.SavedAmount, string(t.EntryPath), orderRef, t.CreatedAt); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insertSaving,
			sv.ID, sv.UserID, sv.TransactionID, sv.Amount, sv.LockedUntil, sv.CreatedAt); err != nil {
			return fmt.Errorf("insert saving: %w", err)
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// ListSavings returns a user's savings in insertion order.
func (s *Store) ListSavings(ctx context.Context, userID string) ([]models.Saving, error) {
	const query = `SELECT ` + savingColumns + ` FROM savings WHERE user_id = $1 ORDER BY seq`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query savings: %w", err)
	}
	defer rows.Close()

	savings := []models.Saving{}
	for rows.Next() {
		sv, err := scanSaving(rows)
		if err != nil {
			return nil, fmt.Errorf("scan saving: %w", err)
		}
		savings = append(savings, sv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate savings: %w", err)
	}
	return savings, nil
}

// GetSaving fetches one saving by id.
func (s *Store) GetSaving(ctx context.Context, id string) (models.Saving, error) {
	const query = `SELECT ` + savingColumns + ` FROM savings WHERE id = $1`
	sv, err := scanSaving(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Saving{}, storage.ErrNotFound
		}
		return models.Saving{}, fmt.Errorf("get saving: %w", err)
	}
	return sv, nil
}

// MarkWithdrawn performs the withdrawal as one conditional UPDATE so that two
// concurrent callers cannot both succeed.
func (s *Store) MarkWithdrawn(ctx context.Context, id, userID string, now time.Time) (models.Saving, error) {
	const query = `
		UPDATE savings SET withdrawn = TRUE, withdrawn_at = $3
		WHERE id = $1 AND user_id = $2 AND withdrawn = FALSE AND locked_until <= $3
		RETURNING ` + savingColumns
	sv, err := scanSaving(s.db.QueryRowContext(ctx, query, id, userID, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Saving{}, storage.ErrNotUpdated
		}
		return models.Saving{}, fmt.Errorf("mark withdrawn: %w", err)
	}
	return sv, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSaving(row scanner) (models.Saving, error) {
	var (
		sv          models.Saving
		withdrawnAt sql.NullTime
	)
	if err := row.Scan(&sv.ID, &sv.UserID, &sv.TransactionID, &sv.Amount, &sv.LockedUntil,
		&sv.Withdrawn, &withdrawnAt, &sv.CreatedAt); err != nil {
		return models.Saving{}, err
	}
	if withdrawnAt.Valid {
		t := withdrawnAt.Time
		sv.WithdrawnAt = &t
	}
	return sv, nil
}
