package fabric

import "math/rand"

// iterativeSeparableAllocator implements both RC-separable (clientFirst
// false) and CR-separable (clientFirst true) iSLIP-style allocation:
// iteration of a resource-arbiter bank against a client-arbiter bank (or
// the mirror order), clearing matched requests between iterations.
// Grounded on src/allocator/RcSeparableAllocator.cc; CR-sep is its
// documented mirror (spec.md §4.B).
//
// Latch discipline (slipLatch=true, the iSLIP case): the bank that runs
// first in an iteration is NEVER latched inline during its own phase;
// only in the second phase, for a client that actually won, are both the
// winning client's arbiter AND the resource arbiter it won latched. When
// slipLatch=false every arbiter in both banks latches every iteration
// regardless of outcome.
type iterativeSeparableAllocator struct {
	grid        *Grid
	clientFirst bool
	iterations  int
	slipLatch   bool

	resourceArbiter []Arbiter // size resources, each sized clients
	clientArbiter   []Arbiter // size clients, each sized resources
}

func newIterativeSeparableAllocator(cfg AllocatorConfig, clients, resources int, rng *rand.Rand, clientFirst bool) *iterativeSeparableAllocator {
	if cfg.Iterations <= 0 {
		configErrorf("IterativeSeparableAllocator", "iterations must be positive, got %d", cfg.Iterations)
	}
	resArbCfg := requireArbiterConfig("IterativeSeparableAllocator.resource_arbiter", cfg.ResourceArbiter)
	cliArbCfg := requireArbiterConfig("IterativeSeparableAllocator.client_arbiter", cfg.ClientArbiter)

	a := &iterativeSeparableAllocator{
		grid:            NewGrid(clients, resources),
		clientFirst:     clientFirst,
		iterations:      cfg.Iterations,
		slipLatch:       cfg.SlipLatch,
		resourceArbiter: make([]Arbiter, resources),
		clientArbiter:   make([]Arbiter, clients),
	}
	for r := 0; r < resources; r++ {
		a.resourceArbiter[r] = NewArbiter(resArbCfg, clients, rng)
	}
	for c := 0; c < clients; c++ {
		a.clientArbiter[c] = NewArbiter(cliArbCfg, resources, rng)
	}
	return a
}

func (a *iterativeSeparableAllocator) Grid() *Grid { return a.grid }

func (a *iterativeSeparableAllocator) Allocate() {
	g := a.grid
	g.ClearGrants()
	clients, resources := g.Clients(), g.Resources()

	active := make([]bool, clients*resources)
	for c := 0; c < clients; c++ {
		for r := 0; r < resources; r++ {
			active[c*resources+r] = g.Request(c, r)
		}
	}
	matchedClient := make([]bool, clients)
	matchedResource := make([]bool, resources)

	for iter := 0; iter < a.iterations; iter++ {
		if a.clientFirst {
			a.runClientResourceIteration(g, active, matchedClient, matchedResource, clients, resources)
		} else {
			a.runResourceClientIteration(g, active, matchedClient, matchedResource, clients, resources)
		}
	}
}

// runResourceClientIteration implements RC-sep: resource arbiters first,
// client arbiters second.
func (a *iterativeSeparableAllocator) runResourceClientIteration(g *Grid, active []bool, matchedClient, matchedResource []bool, clients, resources int) {
	resourceWinner := make([]int, resources)
	for r := 0; r < resources; r++ {
		resourceWinner[r] = NoWinner
		if matchedResource[r] {
			continue
		}
		arb := a.resourceArbiter[r]
		arb.ClearRequests()
		for c := 0; c < clients; c++ {
			if !matchedClient[c] && active[c*resources+r] {
				arb.SetRequest(c, true)
			}
		}
		winner, ok := arb.Arbitrate()
		if !a.slipLatch {
			arb.Latch()
		}
		if ok {
			resourceWinner[r] = winner
		}
	}

	for c := 0; c < clients; c++ {
		if matchedClient[c] {
			continue
		}
		arb := a.clientArbiter[c]
		arb.ClearRequests()
		for r := 0; r < resources; r++ {
			if resourceWinner[r] == c {
				arb.SetRequest(r, true)
			}
		}
		winner, ok := arb.Arbitrate()
		if !a.slipLatch {
			arb.Latch()
		}
		if !ok {
			continue
		}
		r := winner
		g.SetGrant(c, r, true)
		matchedClient[c] = true
		matchedResource[r] = true
		for rr := 0; rr < resources; rr++ {
			active[c*resources+rr] = false
		}
		for cc := 0; cc < clients; cc++ {
			active[cc*resources+r] = false
		}
		if a.slipLatch {
			arb.Latch()
			a.resourceArbiter[r].Latch()
		}
	}
}

// runClientResourceIteration implements CR-sep: client arbiters first,
// resource arbiters second (the mirror of RC-sep).
func (a *iterativeSeparableAllocator) runClientResourceIteration(g *Grid, active []bool, matchedClient, matchedResource []bool, clients, resources int) {
	clientWinner := make([]int, clients)
	for c := 0; c < clients; c++ {
		clientWinner[c] = NoWinner
		if matchedClient[c] {
			continue
		}
		arb := a.clientArbiter[c]
		arb.ClearRequests()
		for r := 0; r < resources; r++ {
			if !matchedResource[r] && active[c*resources+r] {
				arb.SetRequest(r, true)
			}
		}
		winner, ok := arb.Arbitrate()
		if !a.slipLatch {
			arb.Latch()
		}
		if ok {
			clientWinner[c] = winner
		}
	}

	for r := 0; r < resources; r++ {
		if matchedResource[r] {
			continue
		}
		arb := a.resourceArbiter[r]
		arb.ClearRequests()
		for c := 0; c < clients; c++ {
			if clientWinner[c] == r {
				arb.SetRequest(c, true)
			}
		}
		winner, ok := arb.Arbitrate()
		if !a.slipLatch {
			arb.Latch()
		}
		if !ok {
			continue
		}
		c := winner
		g.SetGrant(c, r, true)
		matchedClient[c] = true
		matchedResource[r] = true
		for rr := 0; rr < resources; rr++ {
			active[c*resources+rr] = false
		}
		for cc := 0; cc < clients; cc++ {
			active[cc*resources+r] = false
		}
		if a.slipLatch {
			arb.Latch()
			a.clientArbiter[c].Latch()
		}
	}
}
