package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

// Reconciler turns verified billing provider events into ledger state. Each
// event is applied at most once; replayed deliveries are acknowledged without
// touching the ledger.
type Reconciler struct {
	accounts        domain.AccountRepository
	events          domain.BillingEventRepository
	prices          map[string]domain.Plan
	checkoutCredits int
	log             zerolog.Logger
}

// NewReconciler wires the reconciler. prices maps provider price ids to
// internal plans; unrecognized price ids resolve to PlanNone.
func NewReconciler(accounts domain.AccountRepository, events domain.BillingEventRepository, prices map[string]domain.Plan, checkoutCredits int, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		accounts:        accounts,
		events:          events,
		prices:          prices,
		checkoutCredits: checkoutCredits,
		log:             log,
	}
}

// ApplyCheckoutCompleted credits the purchased plan's grant to the referenced
// account. A transient ledger failure removes the idempotency marker again so
// the provider's redelivery can land.
func (r *Reconciler) ApplyCheckoutCompleted(ctx context.Context, ev domain.CheckoutCompleted) error {
	first, err := r.events.MarkProcessed(ctx, ev.EventID)
	if err != nil {
		return fmt.Errorf("record billing event: %w", err)
	}
	if !first {
		r.log.Info().Str("event_id", ev.EventID).Msg("duplicate checkout event ignored")
		return nil
	}

	plan, ok := r.prices[ev.PriceID]
	if !ok {
		plan = domain.PlanNone
	}
	if err := r.accounts.Credit(ctx, ev.UserID, r.checkoutCredits, plan, ev.SubscriptionID); err != nil {
		if fErr := r.events.Forget(ctx, ev.EventID); fErr != nil {
			r.log.Error().Err(fErr).Str("event_id", ev.EventID).Msg("failed to unmark billing event")
		}
		return fmt.Errorf("credit account: %w", err)
	}

	r.log.Info().
		Str("event_id", ev.EventID).
		Str("user_id", ev.UserID).
		Str("plan", string(plan)).
		Int("credits", r.checkoutCredits).
		Msg("checkout applied")
	return nil
}

// ApplySubscriptionDeleted clears plan and subscription id on whichever
// account holds the subscription. A miss is a no-op, not an error.
func (r *Reconciler) ApplySubscriptionDeleted(ctx context.Context, ev domain.SubscriptionDeleted) error {
	first, err := r.events.MarkProcessed(ctx, ev.EventID)
	if err != nil {
		return fmt.Errorf("record billing event: %w", err)
	}
	if !first {
		r.log.Info().Str("event_id", ev.EventID).Msg("duplicate subscription event ignored")
		return nil
	}

	if err := r.accounts.ClearSubscription(ctx, ev.SubscriptionID); err != nil {
		if fErr := r.events.Forget(ctx, ev.EventID); fErr != nil {
			r.log.Error().Err(fErr).Str("event_id", ev.EventID).Msg("failed to unmark billing event")
		}
		return fmt.Errorf("clear subscription: %w", err)
	}

	r.log.Info().
		Str("event_id", ev.EventID).
		Str("subscription_id", ev.SubscriptionID).
		Msg("subscription cleared")
	return nil
}
