package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"server/internal/domain"
)

type checkoutRequest struct {
	Plan string `json:"plan"`
}

// CheckoutCreate starts a provider checkout session for the requested plan
// and returns the redirect URL.
func (a *App) CheckoutCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	var priceID string
	switch domain.ParsePlan(req.Plan) {
	case domain.PlanMonthly:
		priceID = a.PriceMonthly
	case domain.PlanAnnual:
		priceID = a.PriceAnnual
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "unknown plan")
		return
	}
	if priceID == "" {
		a.Logger.Error().Str("plan", req.Plan).Msg("no price configured for plan")
		a.error(w, http.StatusInternalServerError, "internal", "billing not configured")
		return
	}

	url, err := a.Provider.CreateCheckout(r.Context(), userID, priceID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("checkout session failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create checkout session")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"url": url})
}

// Stripe caps event payloads well below this; anything larger is not a
// deliverable event and is rejected rather than truncated, since a truncated
// body could never pass signature verification and Stripe would retry forever.
const maxWebhookBody = int64(1 << 20)

// Webhook verifies the provider signature at the edge and hands typed events
// to the reconciler. Unrecognized event types are acknowledged untouched so
// the provider stops redelivering them; transient ledger failures return 500
// so it retries.
func (a *App) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "payload_too_large", "event body exceeds the webhook limit")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		body,
		r.Header.Get("Stripe-Signature"),
		a.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("webhook signature verification failed")
		a.error(w, http.StatusBadRequest, "bad_request", "signature verification failed")
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid session payload")
			return
		}
		if sess.ClientReferenceID == "" {
			a.Logger.Warn().Str("session_id", sess.ID).Msg("checkout session missing client reference id")
			a.error(w, http.StatusBadRequest, "bad_request", "missing client reference id")
			return
		}
		priceID, subID, err := a.Provider.ResolveCheckout(r.Context(), sess.ID)
		if err != nil {
			a.Logger.Error().Err(err).Str("session_id", sess.ID).Msg("checkout resolution failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to resolve checkout")
			return
		}
		ev := domain.CheckoutCompleted{
			EventID:        event.ID,
			UserID:         sess.ClientReferenceID,
			PriceID:        priceID,
			SubscriptionID: subID,
		}
		if err := a.Reconciler.ApplyCheckoutCompleted(r.Context(), ev); err != nil {
			a.Logger.Error().Err(err).Str("event_id", event.ID).Msg("checkout event failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to apply event")
			return
		}
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid subscription payload")
			return
		}
		ev := domain.SubscriptionDeleted{EventID: event.ID, SubscriptionID: sub.ID}
		if err := a.Reconciler.ApplySubscriptionDeleted(r.Context(), ev); err != nil {
			a.Logger.Error().Err(err).Str("event_id", event.ID).Msg("subscription event failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to apply event")
			return
		}
	default:
		a.Logger.Debug().Str("type", string(event.Type)).Msg("unhandled webhook event type")
	}

	a.json(w, http.StatusOK, map[string]string{"received": "true"})
}
