package domain

import (
	"context"
	"time"
)

// CheckoutCompleted is a verified provider notification that a checkout
// session finished. EventID is the provider's event identifier and drives
// replay suppression.
type CheckoutCompleted struct {
	EventID        string
	UserID         string
	PriceID        string
	SubscriptionID string
}

// SubscriptionDeleted is a verified provider notification that a subscription
// ended. The affected account is located by subscription id, not user id.
type SubscriptionDeleted struct {
	EventID        string
	SubscriptionID string
}

// SubscriptionStatus is the live provider-side view of a subscription.
type SubscriptionStatus struct {
	Cancelled         bool
	CancelAtPeriodEnd bool
	PeriodEnd         time.Time
}

// BillingProvider is the slice of the payment provider's API the services
// need. The concrete implementation wraps the Stripe client.
type BillingProvider interface {
	// CreateCheckout starts a checkout session for the given price and
	// returns the URL the caller should be redirected to. userID is carried
	// as the session's client reference id.
	CreateCheckout(ctx context.Context, userID, priceID string) (string, error)
	// ResolveCheckout fetches a completed checkout session and returns the
	// purchased line-item price id and the created subscription id.
	ResolveCheckout(ctx context.Context, sessionID string) (priceID, subscriptionID string, err error)
	// GetSubscription returns the live status of a subscription.
	GetSubscription(ctx context.Context, subscriptionID string) (SubscriptionStatus, error)
	// CancelAtPeriodEnd requests the provider stop the subscription at the
	// end of the current period. Local state is not touched; the confirmed
	// transition arrives later as a SubscriptionDeleted event.
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error
}
