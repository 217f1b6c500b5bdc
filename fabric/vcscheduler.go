package fabric

// VCSchedulerClient receives the one-shot response to a VC request. A
// single call per client per scheduling event, even if that client
// submitted several (vc, metadata) candidate requests in the same cycle
// (SPEC_FULL §4.C).
type VCSchedulerClient interface {
	VcSchedulerResponse(vc int, ok bool)
}

// VCScheduler binds a head flit to exactly one downstream VC from a
// candidate multiset, enforcing that no VC is held by two clients at
// once. Grounded on src/architecture/VcScheduler.h.
type VCScheduler struct {
	sim        *Simulator
	allocator  Allocator
	totalVcs   int
	numClients int

	vcTaken   []bool
	clients   []VCSchedulerClient
	requested []bool
	scheduled bool
}

// NewVCScheduler constructs a VCScheduler over numClients clients and
// totalVcs downstream VCs, using cfg to build its internal Allocator.
func NewVCScheduler(sim *Simulator, cfg AllocatorConfig, numClients, totalVcs int) *VCScheduler {
	rng := sim.RNG.ForSubsystem(SubsystemAllocator)
	return &VCScheduler{
		sim:        sim,
		allocator:  NewAllocator(cfg, numClients, totalVcs, rng),
		totalVcs:   totalVcs,
		numClients: numClients,
		vcTaken:    make([]bool, totalVcs),
		clients:    make([]VCSchedulerClient, numClients),
		requested:  make([]bool, numClients),
	}
}

// SetClient registers the callback target for client index c.
func (s *VCScheduler) SetClient(c int, client VCSchedulerClient) {
	s.checkClient(c)
	s.clients[c] = client
}

// Request registers one candidate (vc, metadata) for client on the
// current cycle. May be called multiple times per client per cycle, once
// per routing-algorithm candidate; the client still receives exactly one
// response. Requesting an already-held VC is legal (it simply cannot
// win) since contention for a just-released VC is expected traffic, not
// a programmer error.
func (s *VCScheduler) Request(client, vc int, metadata uint64) {
	s.checkClient(client)
	if vc < 0 || vc >= s.totalVcs {
		invariantf("VCScheduler", "vc %d out of range [0,%d)", vc, s.totalVcs)
	}
	g := s.allocator.Grid()
	g.SetRequest(client, vc, true)
	g.SetMetadata(client, vc, metadata)
	s.requested[client] = true
	if !s.scheduled {
		s.scheduled = true
		now := s.sim.Now()
		s.sim.Schedule(NewFuncEvent(now+1, EpsilonAllocate, "VCScheduler.allocate", s.runAllocation))
	}
}

// ReleaseVc releases a VC previously granted, making it eligible to be
// granted to another client. Releasing a VC that is not currently held is
// an InvariantViolation — it indicates a double-release or a release by
// a non-holder.
func (s *VCScheduler) ReleaseVc(vc int) {
	if vc < 0 || vc >= s.totalVcs {
		invariantf("VCScheduler", "vc %d out of range [0,%d)", vc, s.totalVcs)
	}
	if !s.vcTaken[vc] {
		invariantf("VCScheduler", "release of vc %d that is not held", vc)
	}
	s.vcTaken[vc] = false
}

// VcTaken reports whether vc is currently held by some client.
func (s *VCScheduler) VcTaken(vc int) bool {
	if vc < 0 || vc >= s.totalVcs {
		invariantf("VCScheduler", "vc %d out of range [0,%d)", vc, s.totalVcs)
	}
	return s.vcTaken[vc]
}

func (s *VCScheduler) runAllocation(sim *Simulator) {
	s.scheduled = false
	g := s.allocator.Grid()
	for c := 0; c < s.numClients; c++ {
		for vc := 0; vc < s.totalVcs; vc++ {
			if s.vcTaken[vc] && g.Request(c, vc) {
				g.SetRequest(c, vc, false)
			}
		}
	}
	s.allocator.Allocate()
	for c := 0; c < s.numClients; c++ {
		if !s.requested[c] {
			continue
		}
		s.requested[c] = false
		vc, ok := g.GrantedResource(c)
		if ok {
			if s.vcTaken[vc] {
				invariantf("VCScheduler", "vc %d granted while already held", vc)
			}
			s.vcTaken[vc] = true
		} else {
			vc = NoWinner
		}
		if s.clients[c] != nil {
			s.clients[c].VcSchedulerResponse(vc, ok)
		}
	}
	g.ClearRequests()
}

func (s *VCScheduler) checkClient(c int) {
	if c < 0 || c >= s.numClients {
		invariantf("VCScheduler", "client %d out of range [0,%d)", c, s.numClients)
	}
}
