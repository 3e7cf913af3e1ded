package domain

import "context"

// AccountRepository defines the ledger operations the services depend on.
// Implementations must make TryDebit and Credit atomic at the storage layer;
// the ledger is mutated concurrently by the generation path and the webhook
// path.
type AccountRepository interface {
	// GetOrInit reads the account, creating it with the default grant and
	// PlanNone on first access. Concurrent first access must yield exactly
	// one row.
	GetOrInit(ctx context.Context, userID string) (*Account, error)
	// TryDebit decrements credits by amount only if the resulting balance
	// stays non-negative, and reports whether it did. A false return with a
	// nil error means insufficient credits.
	TryDebit(ctx context.Context, userID string, amount int) (bool, error)
	// Credit adds amount to the balance and sets the subscription fields,
	// upserting the account if absent.
	Credit(ctx context.Context, userID string, amount int, plan Plan, subscriptionID string) error
	// ClearSubscription resets plan and subscription id on whichever account
	// holds the given subscription id. No-op when none match.
	ClearSubscription(ctx context.Context, subscriptionID string) error
	// GetSubscriptionID returns the stored subscription id for the user, or
	// ErrNotFound when the account does not exist.
	GetSubscriptionID(ctx context.Context, userID string) (string, error)
}

// BillingEventRepository records processed provider event ids so replayed
// webhook deliveries are not applied twice.
type BillingEventRepository interface {
	// MarkProcessed records the event id and reports whether this call was
	// the first to do so.
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
	// Forget removes a recorded event id so the provider's retry can be
	// applied after a failed ledger write.
	Forget(ctx context.Context, eventID string) error
}
