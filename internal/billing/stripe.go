// Package billing wraps the Stripe client behind the domain.BillingProvider
// contract so the services never touch provider types directly.
package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/subscription"

	"server/internal/domain"
)

// StripeProvider implements domain.BillingProvider against the Stripe API.
type StripeProvider struct {
	successURL string
	cancelURL  string
}

// NewStripeProvider installs the API key and returns the provider.
func NewStripeProvider(secretKey, successURL, cancelURL string) *StripeProvider {
	stripe.Key = secretKey
	return &StripeProvider{successURL: successURL, cancelURL: cancelURL}
}

// CreateCheckout starts a subscription-mode checkout session carrying the
// user id as client reference id, which the webhook reads back later.
func (p *StripeProvider) CreateCheckout(ctx context.Context, userID, priceID string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(userID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.successURL),
		CancelURL:  stripe.String(p.cancelURL),
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// ResolveCheckout re-fetches a completed session with line items expanded and
// returns the purchased price id and the created subscription id.
func (p *StripeProvider) ResolveCheckout(ctx context.Context, sessionID string) (string, string, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items")

	sess, err := session.Get(sessionID, params)
	if err != nil {
		return "", "", fmt.Errorf("fetch checkout session: %w", err)
	}

	priceID := ""
	if sess.LineItems != nil && len(sess.LineItems.Data) > 0 && sess.LineItems.Data[0].Price != nil {
		priceID = sess.LineItems.Data[0].Price.ID
	}
	subID := ""
	if sess.Subscription != nil {
		subID = sess.Subscription.ID
	}
	return priceID, subID, nil
}

// GetSubscription returns the live cancellation state of a subscription.
func (p *StripeProvider) GetSubscription(ctx context.Context, subscriptionID string) (domain.SubscriptionStatus, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := subscription.Get(subscriptionID, params)
	if err != nil {
		return domain.SubscriptionStatus{}, fmt.Errorf("fetch subscription: %w", err)
	}
	return domain.SubscriptionStatus{
		Cancelled:         sub.Status == stripe.SubscriptionStatusCanceled,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		PeriodEnd:         time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
	}, nil
}

// CancelAtPeriodEnd flags the subscription to stop at period end. Ledger
// state is only touched when the deletion event arrives.
func (p *StripeProvider) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	params.Context = ctx

	if _, err := subscription.Update(subscriptionID, params); err != nil {
		return fmt.Errorf("request cancellation: %w", err)
	}
	return nil
}

var _ domain.BillingProvider = (*StripeProvider)(nil)
