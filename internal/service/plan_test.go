package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

func TestPlanGetWithoutSubscriptionSkipsProvider(t *testing.T) {
	accounts := newMemAccounts(3)
	provider := &fakeProvider{}
	plans := NewPlans(accounts, provider, zerolog.Nop())

	status, err := plans.Get(context.Background(), "new-user")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if status.Plan != domain.PlanNone {
		t.Fatalf("plan = %q, want none", status.Plan)
	}
	if status.Credits != 3 {
		t.Fatalf("credits = %d, want the initial grant 3", status.Credits)
	}
	if provider.getCalls != 0 {
		t.Fatalf("provider contacted %d times for a fresh account, want 0", provider.getCalls)
	}
}

func TestPlanGetMergesLiveProviderState(t *testing.T) {
	accounts := newMemAccounts(0)
	accounts.Credit(context.Background(), "user-1", 50, domain.PlanMonthly, "sub_1")

	periodEnd := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	provider := &fakeProvider{status: domain.SubscriptionStatus{
		CancelAtPeriodEnd: true,
		PeriodEnd:         periodEnd,
	}}
	plans := NewPlans(accounts, provider, zerolog.Nop())

	status, err := plans.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if status.Plan != domain.PlanMonthly {
		t.Fatalf("plan = %q, want monthly", status.Plan)
	}
	if !status.CancelAtPeriodEnd || status.Cancelled {
		t.Fatalf("merged state wrong: %+v", status)
	}
	if !status.PeriodEnd.Equal(periodEnd) {
		t.Fatalf("period end = %v, want %v", status.PeriodEnd, periodEnd)
	}
}

func TestPlanCancelWithoutSubscription(t *testing.T) {
	accounts := newMemAccounts(0)
	accounts.GetOrInit(context.Background(), "user-1")
	provider := &fakeProvider{}
	plans := NewPlans(accounts, provider, zerolog.Nop())

	err := plans.Cancel(context.Background(), "user-1")
	if !errors.Is(err, domain.ErrNoActiveSubscription) {
		t.Fatalf("err = %v, want ErrNoActiveSubscription", err)
	}
	if len(provider.cancelCalls) != 0 {
		t.Fatal("provider must not be called without a stored subscription")
	}
}

func TestPlanCancelRequestsProviderWithoutLocalMutation(t *testing.T) {
	accounts := newMemAccounts(0)
	accounts.Credit(context.Background(), "user-1", 50, domain.PlanAnnual, "sub_9")
	provider := &fakeProvider{}
	plans := NewPlans(accounts, provider, zerolog.Nop())

	if err := plans.Cancel(context.Background(), "user-1"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(provider.cancelCalls) != 1 || provider.cancelCalls[0] != "sub_9" {
		t.Fatalf("cancel calls = %#v, want [sub_9]", provider.cancelCalls)
	}

	// Confirmed state change only arrives via the deleted webhook later.
	acc, _ := accounts.GetOrInit(context.Background(), "user-1")
	if acc.Plan != domain.PlanAnnual || acc.SubscriptionID != "sub_9" {
		t.Fatalf("cancel mutated local state: %+v", acc)
	}
}
