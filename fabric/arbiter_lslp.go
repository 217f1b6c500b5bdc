package fabric

import "math/rand"

// lslpArbiter implements round-robin (least-slot-least-priority) selection:
// the winner is the lowest index >= current priority whose request is
// asserted, wrapping around. Latch advances priority to (winner+1) mod N.
// Grounded on src/arbiter/LslpArbiter.cc.
type lslpArbiter struct {
	requestState
	priority     int
	nextPriority int
}

func newLSLPArbiter(n int, rng *rand.Rand) *lslpArbiter {
	start := rng.Intn(n)
	return &lslpArbiter{requestState: newRequestState(n), priority: start, nextPriority: start}
}

func (a *lslpArbiter) Arbitrate() (int, bool) {
	for k := 0; k < a.n; k++ {
		idx := (a.priority + k) % a.n
		if a.request[idx] {
			a.nextPriority = (idx + 1) % a.n
			return idx, true
		}
	}
	a.nextPriority = a.priority
	return NoWinner, false
}

func (a *lslpArbiter) Latch() {
	a.priority = a.nextPriority
}
