package fabric

// CrossbarSchedulerClient receives the per-cycle response to a crossbar
// request.
type CrossbarSchedulerClient interface {
	CrossbarSchedulerResponse(port, vc int, ok bool)
}

// CreditWatcher observes credit lifecycle events on VCs expressed in a
// global index (local vc + globalVcOffset), per SPEC_FULL §4.D's observer
// pattern. The watcher list is only safe to mutate before the simulation
// starts running.
type CreditWatcher interface {
	OnCreditInit(globalVc, n int)
	OnCreditIncrement(globalVc int)
	OnCreditDecrement(globalVc int)
}

// CrossbarSchedulerConfig is the enumerated configuration surface for a
// Crossbar Scheduler (SPEC_FULL §6).
type CrossbarSchedulerConfig struct {
	FullPacket bool            `yaml:"full_packet"`
	PacketLock bool            `yaml:"packet_lock"`
	IdleUnlock bool            `yaml:"idle_unlock"`
	Allocator  AllocatorConfig `yaml:"allocator"`
}

// CrossbarScheduler performs per-cycle matching of input-queue flits to
// output ports under credit-based flow control, with optional
// packet-level port locking. Grounded on
// src/architecture/CrossbarScheduler.cc.
type CrossbarScheduler struct {
	sim  *Simulator
	Name string // component path, used in InvariantViolation context

	numClients     int
	crossbarPorts  int
	totalVcs       int
	globalVcOffset int

	fullPacket bool
	packetLock bool
	idleUnlock bool

	allocator Allocator // numClients x crossbarPorts grid

	requestVC   []int
	requestFlit []*Flit
	requested   []bool

	credits     []int
	maxCredits  []int
	incrCredits map[int]int

	portLocks []int // owner client per port, NoWinner if unlocked

	clients  []CrossbarSchedulerClient
	watchers []CreditWatcher

	scheduled bool
}

// NewCrossbarScheduler constructs a CrossbarScheduler. name is used only
// for diagnostic context in InvariantViolation messages (e.g.
// "Router.InputCrossbar"). Validates idleUnlock=>packetLock at
// construction (ConfigurationError) and emits the wormhole-risk
// OperationalWarning for packetLock && !idleUnlock && !fullPacket.
func NewCrossbarScheduler(sim *Simulator, name string, cfg CrossbarSchedulerConfig, numClients, crossbarPorts, totalVcs, globalVcOffset int) *CrossbarScheduler {
	if numClients <= 0 || crossbarPorts <= 0 || totalVcs <= 0 {
		configErrorf(name, "numClients, crossbarPorts, and totalVcs must all be positive")
	}
	if cfg.IdleUnlock && !cfg.PacketLock {
		configErrorf(name, "idle_unlock requires packet_lock")
	}
	if cfg.PacketLock && !cfg.IdleUnlock && !cfg.FullPacket {
		OperationalWarning(name+":wormhole",
			"%s: packet_lock without idle_unlock and without full_packet buffering is a wormhole-style "+
				"configuration that can deadlock if VCs are relied on for deadlock avoidance", name)
	}

	rng := sim.RNG.ForSubsystem(SubsystemAllocator)
	cs := &CrossbarScheduler{
		sim:            sim,
		Name:           name,
		numClients:     numClients,
		crossbarPorts:  crossbarPorts,
		totalVcs:       totalVcs,
		globalVcOffset: globalVcOffset,
		fullPacket:     cfg.FullPacket,
		packetLock:     cfg.PacketLock,
		idleUnlock:     cfg.IdleUnlock,
		allocator:      NewAllocator(cfg.Allocator, numClients, crossbarPorts, rng),
		requestVC:      make([]int, numClients),
		requestFlit:    make([]*Flit, numClients),
		requested:      make([]bool, numClients),
		credits:        make([]int, totalVcs),
		maxCredits:     make([]int, totalVcs),
		incrCredits:    make(map[int]int),
		portLocks:      make([]int, crossbarPorts),
		clients:        make([]CrossbarSchedulerClient, numClients),
	}
	for p := range cs.portLocks {
		cs.portLocks[p] = NoWinner
	}
	return cs
}

// SetClient registers the callback target for client index c.
func (cs *CrossbarScheduler) SetClient(c int, client CrossbarSchedulerClient) {
	cs.clients[c] = client
}

// AddCreditWatcher registers w to observe credit lifecycle events. Only
// safe to call before the simulation's event loop starts running.
func (cs *CrossbarScheduler) AddCreditWatcher(w CreditWatcher) {
	cs.watchers = append(cs.watchers, w)
}

// InitCreditCount sets the initial and maximum credit count for vc.
func (cs *CrossbarScheduler) InitCreditCount(vc, n int) {
	cs.checkVC(vc)
	cs.credits[vc] = n
	cs.maxCredits[vc] = n
	for _, w := range cs.watchers {
		w.OnCreditInit(cs.globalVcOffset+vc, n)
	}
}

// CreditCount returns the current credit count for vc.
func (cs *CrossbarScheduler) CreditCount(vc int) int {
	cs.checkVC(vc)
	return cs.credits[vc]
}

// MaxCreditCount returns the capacity vc was initialized with.
func (cs *CrossbarScheduler) MaxCreditCount(vc int) int {
	cs.checkVC(vc)
	return cs.maxCredits[vc]
}

// IncrementCreditCount buffers one credit increment for vc, applied at
// the next cycle boundary before allocation.
func (cs *CrossbarScheduler) IncrementCreditCount(vc int) {
	cs.checkVC(vc)
	cs.incrCredits[vc]++
	for _, w := range cs.watchers {
		w.OnCreditIncrement(cs.globalVcOffset + vc)
	}
	cs.scheduleProcess()
}

// DecrementCreditCount immediately consumes one credit of vc. Called by
// the client that accepted a grant, as part of consuming it.
func (cs *CrossbarScheduler) DecrementCreditCount(vc int) {
	cs.checkVC(vc)
	if cs.credits[vc] <= 0 {
		invariantf(cs.Name, "credit underflow on vc %d", vc)
	}
	cs.credits[vc]--
	for _, w := range cs.watchers {
		w.OnCreditDecrement(cs.globalVcOffset + vc)
	}
}

// Request registers intent to forward flit from client to port, consuming
// one credit of vc if granted.
func (cs *CrossbarScheduler) Request(client, port, vc int, flit *Flit) {
	cs.checkClient(client)
	if port < 0 || port >= cs.crossbarPorts {
		invariantf(cs.Name, "port %d out of range [0,%d)", port, cs.crossbarPorts)
	}
	cs.checkVC(vc)
	g := cs.allocator.Grid()
	g.SetRequest(client, port, true)
	cs.requestVC[client] = vc
	cs.requestFlit[client] = flit
	cs.requested[client] = true
	cs.scheduleProcess()
}

func (cs *CrossbarScheduler) scheduleProcess() {
	if cs.scheduled {
		return
	}
	cs.scheduled = true
	now := cs.sim.Now()
	cs.sim.Schedule(NewFuncEvent(now+1, EpsilonAllocate, cs.Name+".process", cs.process))
}

func (cs *CrossbarScheduler) process(sim *Simulator) {
	cs.scheduled = false

	// 1. Apply buffered credit increments.
	for vc, n := range cs.incrCredits {
		cs.credits[vc] += n
		if cs.credits[vc] > cs.maxCredits[vc] {
			invariantf(cs.Name, "credit count for vc %d exceeds maxCredits (%d > %d)", vc, cs.credits[vc], cs.maxCredits[vc])
		}
	}
	cs.incrCredits = make(map[int]int)

	g := cs.allocator.Grid()

	// 2. Credit filter.
	for c := 0; c < cs.numClients; c++ {
		if !cs.requested[c] {
			continue
		}
		vc := cs.requestVC[c]
		flit := cs.requestFlit[c]
		if cs.fullPacket {
			if flit.IsHead {
				needed := flit.Packet.Length()
				if cs.maxCredits[vc] < needed {
					invariantf(cs.Name, "maxCredits for vc %d (%d) smaller than packet length %d under full_packet", vc, cs.maxCredits[vc], needed)
				}
				if cs.credits[vc] < needed {
					cs.clearClientRequest(g, c)
				}
			}
		} else if cs.credits[vc] < 1 {
			cs.clearClientRequest(g, c)
		}
	}

	// 3. Port lock filter.
	if cs.packetLock {
		for port := 0; port < cs.crossbarPorts; port++ {
			owner := cs.portLocks[port]
			if owner == NoWinner {
				continue
			}
			if cs.idleUnlock && !g.Request(owner, port) {
				cs.portLocks[port] = NoWinner
				continue
			}
			for c := 0; c < cs.numClients; c++ {
				if c != owner && g.Request(c, port) {
					g.SetRequest(c, port, false)
				}
			}
		}
	}

	// 4. Allocate.
	cs.allocator.Allocate()

	// 5. Deliver responses.
	for c := 0; c < cs.numClients; c++ {
		if !cs.requested[c] {
			continue
		}
		cs.requested[c] = false
		port, ok := g.GrantedResource(c)
		if !ok {
			port = NoWinner
		} else if cs.packetLock {
			flit := cs.requestFlit[c]
			if flit.IsTail {
				cs.portLocks[port] = NoWinner
			} else {
				cs.portLocks[port] = c
			}
		}
		if cs.clients[c] != nil {
			cs.clients[c].CrossbarSchedulerResponse(port, cs.requestVC[c], ok)
		}
	}
	g.ClearRequests()
}

func (cs *CrossbarScheduler) clearClientRequest(g *Grid, client int) {
	for p := 0; p < cs.crossbarPorts; p++ {
		if g.Request(client, p) {
			g.SetRequest(client, p, false)
		}
	}
}

func (cs *CrossbarScheduler) checkClient(c int) {
	if c < 0 || c >= cs.numClients {
		invariantf(cs.Name, "client %d out of range [0,%d)", c, cs.numClients)
	}
}

func (cs *CrossbarScheduler) checkVC(vc int) {
	if vc < 0 || vc >= cs.totalVcs {
		invariantf(cs.Name, "vc %d out of range [0,%d)", vc, cs.totalVcs)
	}
}
