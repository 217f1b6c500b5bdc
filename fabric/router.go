package fabric

import "fmt"

// OutputMode selects which Output Queue deployment variant a Router
// instantiates for every (port, vc) it owns (SPEC_FULL §4.F).
type OutputMode string

const (
	// OutputModeFlit is the input-output-queued deployment: flits accepted
	// by the main crossbar are buffered per flit and re-scheduled through a
	// secondary per-port crossbar.
	OutputModeFlit OutputMode = "input_output_queued"
	// OutputModePacket is the output-queued deployment: whole packets are
	// transferred into the output buffer only once their tail flit clears
	// the shared RFE/VCA/SWA pipeline, after a fixed transfer latency.
	OutputModePacket OutputMode = "output_queued"
)

// RouterConfig is the enumerated configuration surface for one Router
// (SPEC_FULL §6).
type RouterConfig struct {
	NumPorts   int `yaml:"num_ports"`
	VcsPerPort int `yaml:"vcs_per_port"`

	InputQueue     InputQueueConfig        `yaml:"input_queue"`
	VCAllocator    AllocatorConfig         `yaml:"vc_allocator"`
	Crossbar       CrossbarSchedulerConfig `yaml:"crossbar"`
	OutputCrossbar CrossbarSchedulerConfig `yaml:"output_crossbar"`

	OutputMode OutputMode `yaml:"output_mode"`

	// StagingCredits bounds how many flits of a given local vc class may be
	// in flight across every port's output buffer at once, independent of
	// which physical port they land on. Zero means NumPorts.
	StagingCredits int `yaml:"staging_credits"`
	// ChannelCredits is the number of downstream input-buffer slots this
	// router is initially allowed to assume free on every outgoing
	// (port, vc) channel.
	ChannelCredits int `yaml:"channel_credits"`

	CreditLatency   int64 `yaml:"credit_latency"`
	TransferLatency int64 `yaml:"transfer_latency"`

	Congestion CongestionMode `yaml:"congestion_mode"`

	// MetricsEnabled wires a Metrics instance into this router's main
	// crossbar (as a CreditWatcher), its grant path, its VC-denial path,
	// and its congestion relay (SPEC_FULL §11). Off by default, matching
	// the teacher's EnableMetrics() opt-in gating pattern.
	MetricsEnabled bool `yaml:"metrics_enabled"`
}

type arrivalRecord struct {
	expTime   int64
	expPacket *Packet
}

// Router composes an InputQueue per (port, vc), a shared VC Scheduler and
// main Crossbar Scheduler, and an Output Queue per (port, vc) (in either
// deployment mode) into one complete switching element. Grounded on
// src/router/outputqueued/Router.cc; both deployment modes share the
// inputoutputqueued InputQueue pipeline rather than the pull-based
// outputqueued InputQueue.
type Router struct {
	sim  *Simulator
	Name string
	cfg  RouterConfig

	numPorts   int
	vcsPerPort int

	routing      RoutingAlgorithm
	vcSched      *VCScheduler
	mainCrossbar *CrossbarScheduler

	inputQueues []*InputQueue // port*vcsPerPort + vc

	outputScheds []*CrossbarScheduler // one per output port
	flitQueues   [][]*FlitOutputQueue
	packetQueues [][]*PacketOutputQueue

	arrivals []arrivalRecord

	congestion *CongestionStatus
	metrics    *Metrics

	// OnSendFlit delivers an ejected flit to whatever owns the outgoing
	// channel for port; external wiring, since channel/topology is out of
	// scope (SPEC_FULL §1 Non-goals).
	OnSendFlit func(port int, flit *Flit)
	// OnSendCredit reports that one more buffer slot of (port, vc) on this
	// router's input side became free.
	OnSendCredit func(port, vc int)
	// OnCongestionChanged relays this router's own output-side congestion
	// reading for (port, vc) toward its upstream neighbor, for that
	// neighbor's "downstream" congestion mode.
	OnCongestionChanged func(port, vc int, value float64)
}

// NewRouter constructs a fully wired Router: VC Scheduler, main Crossbar
// Scheduler, one InputQueue per (port, vc), one secondary per-port
// Crossbar Scheduler, and an Output Queue per (port, vc) in the
// configured deployment mode.
func NewRouter(sim *Simulator, name string, cfg RouterConfig, routing RoutingAlgorithm) *Router {
	if cfg.NumPorts <= 0 || cfg.VcsPerPort <= 0 {
		configErrorf(name, "num_ports and vcs_per_port must both be positive")
	}
	numClients := cfg.NumPorts * cfg.VcsPerPort

	r := &Router{
		sim:        sim,
		Name:       name,
		cfg:        cfg,
		numPorts:   cfg.NumPorts,
		vcsPerPort: cfg.VcsPerPort,
		routing:    routing,
	}

	if cfg.MetricsEnabled {
		r.metrics = NewMetrics(name)
	}

	r.vcSched = NewVCScheduler(sim, cfg.VCAllocator, numClients, numClients)
	r.mainCrossbar = NewCrossbarScheduler(sim, name+".crossbar", cfg.Crossbar, numClients, cfg.NumPorts, cfg.VcsPerPort, 0)
	if r.metrics != nil {
		r.mainCrossbar.AddCreditWatcher(r.metrics)
	}
	for vc := 0; vc < cfg.VcsPerPort; vc++ {
		r.mainCrossbar.InitCreditCount(vc, r.stagingCredits())
	}

	r.inputQueues = make([]*InputQueue, numClients)
	r.arrivals = make([]arrivalRecord, numClients)
	for p := 0; p < cfg.NumPorts; p++ {
		for vc := 0; vc < cfg.VcsPerPort; vc++ {
			clientID := p*cfg.VcsPerPort + vc
			q := NewInputQueue(sim, p, vc, clientID, cfg.VcsPerPort, cfg.InputQueue, routing, r.vcSched, r.mainCrossbar, r)
			q.OnAccept = r.onFlitAccepted
			if r.metrics != nil {
				q.OnVCDenied = r.metrics.RecordVCDenial
			}
			r.inputQueues[clientID] = q
			r.arrivals[clientID] = arrivalRecord{expTime: -1}
		}
	}

	r.outputScheds = make([]*CrossbarScheduler, cfg.NumPorts)
	switch cfg.OutputMode {
	case OutputModeFlit:
		r.flitQueues = make([][]*FlitOutputQueue, cfg.NumPorts)
	case OutputModePacket, "":
		r.packetQueues = make([][]*PacketOutputQueue, cfg.NumPorts)
	default:
		configErrorf(name, "unknown output mode %q", cfg.OutputMode)
	}

	for p := 0; p < cfg.NumPorts; p++ {
		outSched := NewCrossbarScheduler(sim, name+".output", cfg.OutputCrossbar, cfg.VcsPerPort, 1, cfg.VcsPerPort, p*cfg.VcsPerPort)
		for vc := 0; vc < cfg.VcsPerPort; vc++ {
			outSched.InitCreditCount(vc, r.channelCredits())
		}
		outSched.AddCreditWatcher(&congestionRelay{router: r, port: p})
		r.outputScheds[p] = outSched

		switch cfg.OutputMode {
		case OutputModeFlit:
			queues := make([]*FlitOutputQueue, cfg.VcsPerPort)
			for vc := 0; vc < cfg.VcsPerPort; vc++ {
				fq := NewFlitOutputQueue(sim, p, vc, vc, outSched, r.mainCrossbar, vc)
				fq.OnEject = r.onFlitEjected
				queues[vc] = fq
			}
			r.flitQueues[p] = queues
		default:
			queues := make([]*PacketOutputQueue, cfg.VcsPerPort)
			for vc := 0; vc < cfg.VcsPerPort; vc++ {
				pq := NewPacketOutputQueue(sim, p, vc, vc, outSched, r.mainCrossbar, vc, nil, 0, false, false)
				pq.OnEject = r.onFlitEjected
				queues[vc] = pq
			}
			r.packetQueues[p] = queues
		}
	}

	r.congestion = NewCongestionStatus(r.congestionMode(), cfg.VcsPerPort, r.occupancyFor)
	return r
}

func (r *Router) stagingCredits() int {
	if r.cfg.StagingCredits > 0 {
		return r.cfg.StagingCredits
	}
	return r.cfg.NumPorts
}

func (r *Router) channelCredits() int {
	if r.cfg.ChannelCredits > 0 {
		return r.cfg.ChannelCredits
	}
	return r.cfg.InputQueue.Depth
}

func (r *Router) congestionMode() CongestionMode {
	if r.cfg.Congestion == "" {
		return CongestionOutput
	}
	return r.cfg.Congestion
}

// Congestion returns the device routing algorithms should consult to bias
// port/VC choices for this router.
func (r *Router) Congestion() *CongestionStatus { return r.congestion }

// CongestionSnapshot reports this router's current congestion-status
// reading for every (port, vc), keyed "port/vc". Intended for the demo
// CLI's optional introspection endpoint (SPEC_FULL §11) — not used by the
// fabric core itself.
func (r *Router) CongestionSnapshot() map[string]float64 {
	out := make(map[string]float64, r.numPorts*r.vcsPerPort)
	for p := 0; p < r.numPorts; p++ {
		for vc := 0; vc < r.vcsPerPort; vc++ {
			out[fmt.Sprintf("%d/%d", p, vc)] = r.congestion.Status(0, 0, p, vc)
		}
	}
	return out
}

// ReceiveFlit delivers a flit arriving on port, destined for local vc
// flit.VC, enforcing back-to-back flit timing on that (port, vc) lane and
// rejecting a new head while any packet on the same port has not yet
// delivered its tail (SPEC_FULL §4.G "back-to-back enforcement").
func (r *Router) ReceiveFlit(port int, flit *Flit) {
	if port < 0 || port >= r.numPorts {
		invariantf(r.Name, "flit arrived on port %d out of range [0,%d)", port, r.numPorts)
	}
	vc := flit.VC
	if vc < 0 || vc >= r.vcsPerPort {
		invariantf(r.Name, "flit arrived with vc %d out of range [0,%d)", vc, r.vcsPerPort)
	}
	idx := port*r.vcsPerPort + vc
	rec := &r.arrivals[idx]
	now := r.sim.Now()

	if flit.IsHead {
		for v := 0; v < r.vcsPerPort; v++ {
			if other := r.arrivals[port*r.vcsPerPort+v].expPacket; other != nil {
				invariantf(r.Name, "port %d vc %d: new head arrived while packet %d still in flight on vc %d", port, vc, other.ID, v)
			}
		}
		rec.expPacket = flit.Packet
	} else {
		if rec.expPacket != flit.Packet {
			invariantf(r.Name, "port %d vc %d: flit for packet %d arrived out of order", port, vc, flit.Packet.ID)
		}
		if rec.expTime >= 0 && now != rec.expTime {
			invariantf(r.Name, "port %d vc %d: back-to-back flit arrived at cycle %d, expected %d", port, vc, now, rec.expTime)
		}
	}

	if flit.IsTail {
		rec.expPacket = nil
		rec.expTime = -1
	} else {
		rec.expTime = now + 1
	}

	r.inputQueues[idx].ReceiveFlit(flit)
}

// ReceiveCredit applies a credit returned by the downstream neighbor on
// this router's outgoing (port, vc) channel.
func (r *Router) ReceiveCredit(port, vc int) {
	if port < 0 || port >= r.numPorts {
		invariantf(r.Name, "credit arrived for port %d out of range [0,%d)", port, r.numPorts)
	}
	r.outputScheds[port].IncrementCreditCount(vc)
}

// ReceiveCongestion records a congestion reading relayed by this router's
// downstream neighbor for its own (port, vc) channel.
func (r *Router) ReceiveCongestion(port, vc int, value float64) {
	r.congestion.SetDownstream(port, vc, value)
}

// ReturnCredit implements CreditSink: called by an InputQueue once a flit
// leaves its FIFO into RFE, freeing one buffer slot on this router's input
// side for the upstream neighbor's reuse.
func (r *Router) ReturnCredit(port, vc int) {
	now := r.sim.Now()
	r.sim.Schedule(NewFuncEvent(now+r.cfg.CreditLatency, EpsilonCredit, r.Name+".sendCredit", func(sim *Simulator) {
		if r.OnSendCredit != nil {
			r.OnSendCredit(port, vc)
		}
	}))
}

// onFlitAccepted is InputQueue.OnAccept: a flit just cleared SWA and was
// granted (outPort, outVc) by the main crossbar.
func (r *Router) onFlitAccepted(outPort, outVc int, flit *Flit) {
	if r.metrics != nil {
		r.metrics.RecordGrant(outVc)
	}
	switch r.cfg.OutputMode {
	case OutputModeFlit:
		r.flitQueues[outPort][outVc].ReceiveFlit(flit)
	default:
		if !flit.IsTail {
			return
		}
		packet := flit.Packet
		now := r.sim.Now()
		r.sim.Schedule(NewFuncEvent(now+r.cfg.TransferLatency, EpsilonDeliveries, r.Name+".transferPacket", func(sim *Simulator) {
			r.packetQueues[outPort][outVc].ReceivePacket(packet)
		}))
	}
}

// onFlitEjected is the Output Queue's OnEject: a flit is leaving this
// router on port, over the channel vc it carries.
func (r *Router) onFlitEjected(port int, flit *Flit) {
	if r.OnSendFlit != nil {
		r.OnSendFlit(port, flit)
	}
}

func (r *Router) occupancyFor(port, vc int) float64 {
	switch r.cfg.OutputMode {
	case OutputModeFlit:
		return r.flitQueues[port][vc].Occupancy(r.channelCredits())
	default:
		return r.packetQueues[port][vc].Occupancy(r.channelCredits())
	}
}

// congestionRelay observes one output port's secondary crossbar credit
// events and reports the resulting occupancy upstream, for a neighbor
// running in CongestionDownstream or CongestionOutputAndDownstream mode
// (SPEC_FULL §6).
type congestionRelay struct {
	router *Router
	port   int
}

func (c *congestionRelay) OnCreditInit(globalVc, n int)   { c.relay(globalVc) }
func (c *congestionRelay) OnCreditIncrement(globalVc int) { c.relay(globalVc) }
func (c *congestionRelay) OnCreditDecrement(globalVc int) { c.relay(globalVc) }

func (c *congestionRelay) relay(globalVc int) {
	vc := globalVc % c.router.vcsPerPort
	sched := c.router.outputScheds[c.port]
	max := sched.MaxCreditCount(vc)
	if max == 0 {
		return
	}
	occ := 1 - float64(sched.CreditCount(vc))/float64(max)
	if c.router.metrics != nil {
		c.router.metrics.RecordCongestion(c.port, vc, occ)
	}
	if c.router.OnCongestionChanged != nil {
		c.router.OnCongestionChanged(c.port, vc, occ)
	}
}
