package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/middleware"
	"server/internal/service"
)

// GenerateService is the orchestrator surface the generate handler needs.
type GenerateService interface {
	Generate(ctx context.Context, userID string, payload []byte) (*service.Artifact, error)
}

// ReconcilerService applies verified billing events.
type ReconcilerService interface {
	ApplyCheckoutCompleted(ctx context.Context, ev domain.CheckoutCompleted) error
	ApplySubscriptionDeleted(ctx context.Context, ev domain.SubscriptionDeleted) error
}

// PlanService answers plan queries and cancellation requests.
type PlanService interface {
	Get(ctx context.Context, userID string) (*service.PlanStatus, error)
	Cancel(ctx context.Context, userID string) error
}

// App bundles the handler dependencies.
type App struct {
	Logger     zerolog.Logger
	Generator  GenerateService
	Reconciler ReconcilerService
	Plans      PlanService
	Provider   domain.BillingProvider

	WebhookSecret string
	PriceMonthly  string
	PriceAnnual   string
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": code, "message": message})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
