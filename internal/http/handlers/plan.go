package handlers

import (
	"errors"
	"net/http"
	"time"

	"server/internal/domain"
)

type planResponse struct {
	Plan              string  `json:"plan"`
	Credits           int     `json:"credits"`
	Cancelled         bool    `json:"cancelled"`
	CancelAtPeriodEnd bool    `json:"cancel_at_period_end"`
	PeriodEnd         *string `json:"period_end"`
}

// Plan reports the merged local and provider subscription state.
func (a *App) Plan(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	status, err := a.Plans.Get(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("plan query failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load plan")
		return
	}

	resp := planResponse{
		Plan:              string(status.Plan),
		Credits:           status.Credits,
		Cancelled:         status.Cancelled,
		CancelAtPeriodEnd: status.CancelAtPeriodEnd,
	}
	if !status.PeriodEnd.IsZero() {
		s := status.PeriodEnd.UTC().Format(time.RFC3339)
		resp.PeriodEnd = &s
	}
	a.json(w, http.StatusOK, resp)
}

// CancelSubscription asks the provider to stop the subscription at period
// end. Local state is not mutated here; the confirmed transition arrives via
// the webhook.
func (a *App) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	if err := a.Plans.Cancel(r.Context(), userID); err != nil {
		if errors.Is(err, domain.ErrNoActiveSubscription) {
			a.error(w, http.StatusBadRequest, "bad_request", "no active subscription")
			return
		}
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("cancellation failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to request cancellation")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "cancellation_requested"})
}
