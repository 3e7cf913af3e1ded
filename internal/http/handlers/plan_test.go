package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/service"
)

type fakePlans struct {
	status    *service.PlanStatus
	getErr    error
	cancelErr error

	cancelled []string
}

func (f *fakePlans) Get(context.Context, string) (*service.PlanStatus, error) {
	return f.status, f.getErr
}

func (f *fakePlans) Cancel(_ context.Context, userID string) error {
	f.cancelled = append(f.cancelled, userID)
	return f.cancelErr
}

func TestPlanReportsSubscriptionState(t *testing.T) {
	periodEnd := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	app := &App{
		Logger: zerolog.Nop(),
		Plans: &fakePlans{status: &service.PlanStatus{
			Plan:              domain.PlanMonthly,
			Credits:           37,
			CancelAtPeriodEnd: true,
			PeriodEnd:         periodEnd,
		}},
	}

	rr := httptest.NewRecorder()
	app.Plan(rr, authedRequest(http.MethodGet, "/billing/plan", ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rr.Code, rr.Body.String())
	}
	var got planResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Plan != "monthly" || got.Credits != 37 || !got.CancelAtPeriodEnd || got.Cancelled {
		t.Fatalf("response = %+v", got)
	}
	if got.PeriodEnd == nil || *got.PeriodEnd != "2026-03-01T12:00:00Z" {
		t.Fatalf("period_end = %v", got.PeriodEnd)
	}
}

func TestPlanOmitsPeriodEndWithoutSubscription(t *testing.T) {
	app := &App{
		Logger: zerolog.Nop(),
		Plans:  &fakePlans{status: &service.PlanStatus{Plan: domain.PlanNone, Credits: 5}},
	}

	rr := httptest.NewRecorder()
	app.Plan(rr, authedRequest(http.MethodGet, "/billing/plan", ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var got planResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Plan != "none" || got.PeriodEnd != nil {
		t.Fatalf("response = %+v", got)
	}
}

func TestCancelForwardsToProvider(t *testing.T) {
	plans := &fakePlans{}
	app := &App{Logger: zerolog.Nop(), Plans: plans}

	rr := httptest.NewRecorder()
	app.CancelSubscription(rr, authedRequest(http.MethodPost, "/billing/cancel", ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rr.Code, rr.Body.String())
	}
	if len(plans.cancelled) != 1 || plans.cancelled[0] != "user-1" {
		t.Fatalf("cancel calls = %#v", plans.cancelled)
	}
}

func TestCancelWithoutSubscription(t *testing.T) {
	app := &App{
		Logger: zerolog.Nop(),
		Plans:  &fakePlans{cancelErr: domain.ErrNoActiveSubscription},
	}

	rr := httptest.NewRecorder()
	app.CancelSubscription(rr, authedRequest(http.MethodPost, "/billing/cancel", ""))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestCancelProviderFailure(t *testing.T) {
	app := &App{
		Logger: zerolog.Nop(),
		Plans:  &fakePlans{cancelErr: fmt.Errorf("provider unavailable")},
	}

	rr := httptest.NewRecorder()
	app.CancelSubscription(rr, authedRequest(http.MethodPost, "/billing/cancel", ""))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
}
