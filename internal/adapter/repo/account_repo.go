package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// AccountRepositoryPG implements domain.AccountRepository backed by PostgreSQL.
type AccountRepositoryPG struct {
	sql            infra.SQLExecutor
	initialCredits int
}

// NewAccountRepository creates a new AccountRepositoryPG. initialCredits is
// the balance granted to lazily created accounts.
func NewAccountRepository(sqlExec infra.SQLExecutor, initialCredits int) *AccountRepositoryPG {
	return &AccountRepositoryPG{sql: sqlExec, initialCredits: initialCredits}
}

// GetOrInit reads the account, creating it with the default grant on first access.
// When a concurrent first access wins the insert, the init statement can come
// back empty; the row it committed is then read with a plain select.
func (r *AccountRepositoryPG) GetOrInit(ctx context.Context, userID string) (*domain.Account, error) {
	acc, err := r.scanAccount(r.sql.QueryRow(ctx, sqlinline.QInitAccount, userID, r.initialCredits))
	if errors.Is(err, pgx.ErrNoRows) {
		acc, err = r.scanAccount(r.sql.QueryRow(ctx, sqlinline.QSelectAccount, userID))
	}
	return acc, err
}

func (r *AccountRepositoryPG) scanAccount(row pgx.Row) (*domain.Account, error) {
	var acc domain.Account
	var plan string
	var subID sql.NullString
	if err := row.Scan(&acc.UserID, &acc.Credits, &plan, &subID, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
		return nil, err
	}
	acc.Plan = domain.ParsePlan(plan)
	acc.SubscriptionID = subID.String
	return &acc, nil
}

// TryDebit performs the atomic conditional decrement. A zero-row update means
// the balance was too low; that is a business outcome, not an error.
func (r *AccountRepositoryPG) TryDebit(ctx context.Context, userID string, amount int) (bool, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QTryDebit, userID, amount)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Credit adds credits and sets the subscription fields, upserting if absent.
func (r *AccountRepositoryPG) Credit(ctx context.Context, userID string, amount int, plan domain.Plan, subscriptionID string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QCreditAccount, userID, amount, string(plan), subscriptionID)
	return err
}

// ClearSubscription resets whichever account currently holds the subscription id.
func (r *AccountRepositoryPG) ClearSubscription(ctx context.Context, subscriptionID string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QClearSubscription, subscriptionID)
	return err
}

// GetSubscriptionID returns the stored subscription id, which may be empty.
func (r *AccountRepositoryPG) GetSubscriptionID(ctx context.Context, userID string) (string, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectSubscriptionID, userID)
	var subID string
	if err := row.Scan(&subID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return subID, nil
}

var _ domain.AccountRepository = (*AccountRepositoryPG)(nil)
