package fabric

import "math/rand"

// lruArbiter maintains an ordered priority list initialized to a random
// permutation; the winner is the highest-priority (frontmost) asserted
// requestor, and Latch moves the winner to the tail of the list. Grounded
// on src/arbiter/LruArbiter.cc.
type lruArbiter struct {
	requestState
	order      []int // order[0] is highest priority
	lastWinner int
}

func newLRUArbiter(n int, rng *rand.Rand) *lruArbiter {
	order := rng.Perm(n)
	return &lruArbiter{requestState: newRequestState(n), order: order, lastWinner: NoWinner}
}

func (a *lruArbiter) Arbitrate() (int, bool) {
	for _, idx := range a.order {
		if a.request[idx] {
			a.lastWinner = idx
			return idx, true
		}
	}
	a.lastWinner = NoWinner
	return NoWinner, false
}

func (a *lruArbiter) Latch() {
	if a.lastWinner == NoWinner {
		return
	}
	pos := -1
	for i, idx := range a.order {
		if idx == a.lastWinner {
			pos = i
			break
		}
	}
	if pos < 0 {
		return
	}
	copy(a.order[pos:], a.order[pos+1:])
	a.order[len(a.order)-1] = a.lastWinner
	a.lastWinner = NoWinner
}
