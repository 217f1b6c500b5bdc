package fabric

import "math/rand"

// rSeparableAllocator runs one independent arbiter per resource, each of
// size clients. A client may win multiple resources in a single pass,
// which is only acceptable when AllowMultiGrant is set (SPEC_FULL §9 Open
// Questions). Grounded on src/allocator/RSeparableAllocator.cc.
type rSeparableAllocator struct {
	grid            *Grid
	resourceArbiter []Arbiter
	allowMultiGrant bool
	slipLatch       bool
}

func newRSeparableAllocator(cfg AllocatorConfig, clients, resources int, rng *rand.Rand) *rSeparableAllocator {
	arbCfg := requireArbiterConfig("RSeparableAllocator", cfg.ResourceArbiter)
	a := &rSeparableAllocator{
		grid:            NewGrid(clients, resources),
		resourceArbiter: make([]Arbiter, resources),
		allowMultiGrant: cfg.AllowMultiGrant,
		slipLatch:       cfg.SlipLatch,
	}
	for r := 0; r < resources; r++ {
		a.resourceArbiter[r] = NewArbiter(arbCfg, clients, rng)
	}
	return a
}

func (a *rSeparableAllocator) Grid() *Grid { return a.grid }

func (a *rSeparableAllocator) Allocate() {
	g := a.grid
	g.ClearGrants()
	wonCount := make([]int, g.Clients())
	for r := 0; r < g.Resources(); r++ {
		arb := a.resourceArbiter[r]
		arb.ClearRequests()
		for c := 0; c < g.Clients(); c++ {
			arb.SetRequest(c, g.Request(c, r))
			arb.SetMetadata(c, g.Metadata(c, r))
		}
		winner, ok := arb.Arbitrate()
		if !a.slipLatch {
			arb.Latch()
		} else if ok {
			arb.Latch()
		}
		if !ok {
			continue
		}
		g.SetGrant(winner, r, true)
		wonCount[winner]++
		if wonCount[winner] > 1 && !a.allowMultiGrant {
			invariantf("RSeparableAllocator", "client %d won multiple resources in one cycle but AllowMultiGrant is not set", winner)
		}
	}
}
