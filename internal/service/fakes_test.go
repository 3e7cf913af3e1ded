package service

import (
	"context"
	"errors"
	"sync"

	"server/internal/domain"
	"server/internal/worker"
)

// memAccounts is an in-memory ledger with the same conditional-update
// semantics as the SQL implementation.
type memAccounts struct {
	mu             sync.Mutex
	initialCredits int
	rows           map[string]*domain.Account

	failDebit  error
	failCredit error
}

func newMemAccounts(initialCredits int) *memAccounts {
	return &memAccounts{initialCredits: initialCredits, rows: make(map[string]*domain.Account)}
}

func (m *memAccounts) getLocked(userID string) *domain.Account {
	acc, ok := m.rows[userID]
	if !ok {
		acc = &domain.Account{UserID: userID, Credits: m.initialCredits, Plan: domain.PlanNone}
		m.rows[userID] = acc
	}
	return acc
}

func (m *memAccounts) GetOrInit(_ context.Context, userID string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc := *m.getLocked(userID)
	return &acc, nil
}

func (m *memAccounts) TryDebit(_ context.Context, userID string, amount int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDebit != nil {
		return false, m.failDebit
	}
	acc := m.getLocked(userID)
	if acc.Credits < amount {
		return false, nil
	}
	acc.Credits -= amount
	return true, nil
}

func (m *memAccounts) Credit(_ context.Context, userID string, amount int, plan domain.Plan, subscriptionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCredit != nil {
		return m.failCredit
	}
	acc := m.getLocked(userID)
	acc.Credits += amount
	acc.Plan = plan
	acc.SubscriptionID = subscriptionID
	return nil
}

func (m *memAccounts) ClearSubscription(_ context.Context, subscriptionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.rows {
		if acc.SubscriptionID == subscriptionID && subscriptionID != "" {
			acc.Plan = domain.PlanNone
			acc.SubscriptionID = ""
		}
	}
	return nil
}

func (m *memAccounts) GetSubscriptionID(_ context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.rows[userID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return acc.SubscriptionID, nil
}

func (m *memAccounts) balance(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(userID).Credits
}

var _ domain.AccountRepository = (*memAccounts)(nil)

// memEvents records processed event ids in memory.
type memEvents struct {
	mu       sync.Mutex
	seen     map[string]bool
	failMark error
}

func newMemEvents() *memEvents {
	return &memEvents{seen: make(map[string]bool)}
}

func (m *memEvents) MarkProcessed(_ context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMark != nil {
		return false, m.failMark
	}
	if m.seen[eventID] {
		return false, nil
	}
	m.seen[eventID] = true
	return true, nil
}

func (m *memEvents) Forget(_ context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, eventID)
	return nil
}

var _ domain.BillingEventRepository = (*memEvents)(nil)

// fakeRunner stands in for the worker process.
type fakeRunner struct {
	mu       sync.Mutex
	dir      string
	execute  func(jobID string, payload []byte) (*worker.Result, error)
	jobIDs   []string
	payloads [][]byte
}

func (f *fakeRunner) Execute(_ context.Context, jobID string, payload []byte) (*worker.Result, error) {
	f.mu.Lock()
	f.jobIDs = append(f.jobIDs, jobID)
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()
	if f.execute != nil {
		return f.execute(jobID, payload)
	}
	return &worker.Result{ExitCode: 0}, nil
}

func (f *fakeRunner) DescriptorPath(jobID string) string {
	return f.dir + "/output_info_" + jobID + ".json"
}

var _ WorkerRunner = (*fakeRunner)(nil)

// fakeProvider implements domain.BillingProvider for plan tests.
type fakeProvider struct {
	status        domain.SubscriptionStatus
	statusErr     error
	getCalls      int
	cancelCalls   []string
	cancelErr     error
	checkoutCalls int
}

func (f *fakeProvider) CreateCheckout(context.Context, string, string) (string, error) {
	f.checkoutCalls++
	return "https://checkout.example/session", nil
}

func (f *fakeProvider) ResolveCheckout(context.Context, string) (string, string, error) {
	return "", "", errors.New("not implemented")
}

func (f *fakeProvider) GetSubscription(_ context.Context, subID string) (domain.SubscriptionStatus, error) {
	f.getCalls++
	if f.statusErr != nil {
		return domain.SubscriptionStatus{}, f.statusErr
	}
	return f.status, nil
}

func (f *fakeProvider) CancelAtPeriodEnd(_ context.Context, subID string) error {
	f.cancelCalls = append(f.cancelCalls, subID)
	return f.cancelErr
}

var _ domain.BillingProvider = (*fakeProvider)(nil)
