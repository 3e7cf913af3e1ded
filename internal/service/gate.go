package service

// Gate is the process-wide single-permit admission gate. Only one generation
// job may be in flight across all callers; excess requests are rejected, not
// queued. It is constructed once in main and injected into the orchestrator.
type Gate struct {
	permits chan struct{}
}

// NewGate returns a gate holding one free permit.
func NewGate() *Gate {
	g := &Gate{permits: make(chan struct{}, 1)}
	g.permits <- struct{}{}
	return g
}

// TryAcquire takes the permit if it is free and reports whether it did.
func (g *Gate) TryAcquire() bool {
	select {
	case <-g.permits:
		return true
	default:
		return false
	}
}

// Release returns the permit. Releasing a free gate panics; every acquire
// must be paired with exactly one release.
func (g *Gate) Release() {
	select {
	case g.permits <- struct{}{}:
	default:
		panic("gate: release without acquire")
	}
}

// Busy reports whether the permit is currently held.
func (g *Gate) Busy() bool {
	return len(g.permits) == 0
}
