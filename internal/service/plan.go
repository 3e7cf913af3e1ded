package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

// PlanStatus is the merged local-plus-provider subscription view.
type PlanStatus struct {
	Plan              domain.Plan
	Credits           int
	Cancelled         bool
	CancelAtPeriodEnd bool
	PeriodEnd         time.Time
}

// Plans answers plan queries and forwards cancellation requests. The local
// ledger stays untouched on cancel; the authoritative transition arrives
// later through the reconciler when the provider confirms the deletion.
type Plans struct {
	accounts domain.AccountRepository
	provider domain.BillingProvider
	log      zerolog.Logger
}

func NewPlans(accounts domain.AccountRepository, provider domain.BillingProvider, log zerolog.Logger) *Plans {
	return &Plans{accounts: accounts, provider: provider, log: log}
}

// Get reads the local record, lazily creating it, and merges live provider
// state when a subscription id is stored. Accounts without a subscription
// never trigger a provider call.
func (p *Plans) Get(ctx context.Context, userID string) (*PlanStatus, error) {
	acc, err := p.accounts.GetOrInit(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	status := &PlanStatus{Plan: acc.Plan, Credits: acc.Credits}
	if acc.SubscriptionID == "" {
		return status, nil
	}

	live, err := p.provider.GetSubscription(ctx, acc.SubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("fetch subscription %s: %w", acc.SubscriptionID, err)
	}
	status.Cancelled = live.Cancelled
	status.CancelAtPeriodEnd = live.CancelAtPeriodEnd
	status.PeriodEnd = live.PeriodEnd
	return status, nil
}

// Cancel requests cancel-at-period-end for the user's stored subscription.
// ErrNoActiveSubscription is returned without any provider call when none is
// stored.
func (p *Plans) Cancel(ctx context.Context, userID string) error {
	subID, err := p.accounts.GetSubscriptionID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNoActiveSubscription
		}
		return fmt.Errorf("load subscription id: %w", err)
	}
	if subID == "" {
		return domain.ErrNoActiveSubscription
	}

	if err := p.provider.CancelAtPeriodEnd(ctx, subID); err != nil {
		return fmt.Errorf("cancel subscription %s: %w", subID, err)
	}
	p.log.Info().Str("user_id", userID).Str("subscription_id", subID).Msg("cancellation requested")
	return nil
}
