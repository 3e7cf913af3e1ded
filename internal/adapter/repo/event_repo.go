package repo

import (
	"context"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// BillingEventRepositoryPG implements domain.BillingEventRepository.
type BillingEventRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewBillingEventRepository creates a new event repository backed by PostgreSQL.
func NewBillingEventRepository(sqlExec infra.SQLExecutor) *BillingEventRepositoryPG {
	return &BillingEventRepositoryPG{sql: sqlExec}
}

// MarkProcessed records the event id; a conflict means a replayed delivery.
func (r *BillingEventRepositoryPG) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QInsertBillingEvent, eventID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Forget removes the marker so the provider's retry can be applied.
func (r *BillingEventRepositoryPG) Forget(ctx context.Context, eventID string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QDeleteBillingEvent, eventID)
	return err
}

var _ domain.BillingEventRepository = (*BillingEventRepositoryPG)(nil)
