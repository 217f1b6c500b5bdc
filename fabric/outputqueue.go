package fabric

// outputStage is the single SWA-like stage record the Output Queue
// deployment variants below drive (SPEC_FULL §4.F, §3's pipeline stage
// record).
type outputStage struct {
	state StageState
	flit  *Flit
}

// FlitOutputQueue implements the input-output-queued deployment mode: an
// OQ per (port, vc) that buffers flits the main crossbar has already
// accepted and drives them onto the outgoing channel through a secondary
// single-client (1x1) crossbar scheduler, crediting the main crossbar
// scheduler back as each flit leaves the buffer. Grounded on
// src/router/inputoutputqueued/OutputQueue.cc.
type FlitOutputQueue struct {
	sim *Simulator

	Port, VC       int
	schedulerIndex int // this OQ's client index into its port's secondary scheduler

	outputSched *CrossbarScheduler // per-port secondary scheduler, size numVcs x 1
	mainSched   *CrossbarScheduler // main crossbar scheduler, credited back on buffer pop
	mainVC      int                // global vc index into mainSched

	buffer         []*Flit
	swa            outputStage
	eventScheduled bool

	// OnEject delivers an accepted flit onto the outgoing channel.
	OnEject func(port int, flit *Flit)
}

// NewFlitOutputQueue constructs a FlitOutputQueue and registers it as the
// client of outputSched at schedulerIndex.
func NewFlitOutputQueue(sim *Simulator, port, vc, schedulerIndex int, outputSched, mainSched *CrossbarScheduler, mainVC int) *FlitOutputQueue {
	q := &FlitOutputQueue{
		sim: sim, Port: port, VC: vc, schedulerIndex: schedulerIndex,
		outputSched: outputSched, mainSched: mainSched, mainVC: mainVC,
	}
	outputSched.SetClient(schedulerIndex, q)
	return q
}

// ReceiveFlit pushes one flit accepted by the main crossbar into this
// queue's buffer.
func (q *FlitOutputQueue) ReceiveFlit(flit *Flit) {
	q.buffer = append(q.buffer, flit)
	q.armPipeline()
}

func (q *FlitOutputQueue) armPipeline() {
	if q.eventScheduled {
		return
	}
	q.eventScheduled = true
	now := q.sim.Now()
	q.sim.Schedule(NewFuncEvent(now, EpsilonPipelineB, "FlitOutputQueue.process", q.process))
}

func (q *FlitOutputQueue) process(sim *Simulator) {
	q.eventScheduled = false

	if q.swa.state == StageReadyToAdvance {
		flit := q.swa.flit
		q.outputSched.DecrementCreditCount(q.VC)
		if q.OnEject != nil {
			q.OnEject(q.Port, flit)
		}
		q.swa = outputStage{}
	}

	if q.swa.state == StageEmpty && len(q.buffer) > 0 {
		flit := q.buffer[0]
		q.buffer = q.buffer[1:]
		q.mainSched.IncrementCreditCount(q.mainVC)
		q.swa = outputStage{state: StageWaitingToRequest, flit: flit}
	}

	if q.swa.state == StageWaitingToRequest {
		q.swa.state = StageWaitingForResponse
		q.outputSched.Request(q.schedulerIndex, 0, q.VC, q.swa.flit)
	}

	if q.swa.state != StageWaitingForResponse && len(q.buffer) > 0 {
		q.armPipeline()
	}
}

// CrossbarSchedulerResponse implements CrossbarSchedulerClient for the
// per-port secondary scheduler.
func (q *FlitOutputQueue) CrossbarSchedulerResponse(port, vc int, ok bool) {
	if q.swa.state != StageWaitingForResponse {
		invariantf("FlitOutputQueue", "port %d vc %d crossbar response with SWA not waiting", q.Port, q.VC)
	}
	if ok {
		q.swa.state = StageReadyToAdvance
	} else {
		q.swa.state = StageWaitingToRequest
	}
	q.armPipeline()
}

// Occupancy reports the queue's buffer fill as a fraction of refDepth, for
// congestion-status "output" style reporting.
func (q *FlitOutputQueue) Occupancy(refDepth int) float64 {
	return bufferOccupancy(len(q.buffer), refDepth)
}

// PacketOutputQueue implements the output-queued (whole-packet) deployment
// mode: the router's main crossbar transfers an entire packet into this
// queue at once (after a configurable transfer latency), and the queue
// serializes the packet's flits one per channel cycle through a secondary
// per-port scheduler. Grounded on src/router/outputqueued/OutputQueue.cc.
type PacketOutputQueue struct {
	sim *Simulator

	Port, VC       int
	schedulerIndex int

	outputSched *CrossbarScheduler
	mainSched   *CrossbarScheduler // credited back on buffer pop, mirroring FlitOutputQueue
	mainVC      int

	// creditWatcher relays ejection events into the router's congestion
	// status device, per the incrementOnEject/decrementOnEject style
	// flags Router.cc passes its OutputQueue.
	creditWatcher    CreditWatcher
	creditWatcherVC  int
	incrementOnEject bool
	decrementOnEject bool

	buffer         []*Flit
	swa            outputStage
	eventScheduled bool

	OnEject func(port int, flit *Flit)
}

// NewPacketOutputQueue constructs a PacketOutputQueue and registers it as
// the client of outputSched at schedulerIndex.
func NewPacketOutputQueue(sim *Simulator, port, vc, schedulerIndex int, outputSched, mainSched *CrossbarScheduler, mainVC int, watcher CreditWatcher, watcherVC int, incrementOnEject, decrementOnEject bool) *PacketOutputQueue {
	q := &PacketOutputQueue{
		sim: sim, Port: port, VC: vc, schedulerIndex: schedulerIndex,
		outputSched: outputSched, mainSched: mainSched, mainVC: mainVC,
		creditWatcher: watcher, creditWatcherVC: watcherVC,
		incrementOnEject: incrementOnEject, decrementOnEject: decrementOnEject,
	}
	outputSched.SetClient(schedulerIndex, q)
	return q
}

// ReceivePacket enqueues every flit of a whole packet the router's main
// crossbar transferred after its transfer latency elapsed.
func (q *PacketOutputQueue) ReceivePacket(p *Packet) {
	q.buffer = append(q.buffer, p.Flits...)
	now := q.sim.Now()
	q.sim.Schedule(NewFuncEvent(now+1, EpsilonCredit, "PacketOutputQueue.injected", func(sim *Simulator) {
		q.armPipeline()
	}))
}

func (q *PacketOutputQueue) armPipeline() {
	if q.eventScheduled {
		return
	}
	q.eventScheduled = true
	now := q.sim.Now()
	q.sim.Schedule(NewFuncEvent(now, EpsilonPipelineB, "PacketOutputQueue.process", q.process))
}

func (q *PacketOutputQueue) process(sim *Simulator) {
	q.eventScheduled = false

	if q.swa.state == StageReadyToAdvance {
		flit := q.swa.flit
		q.outputSched.DecrementCreditCount(q.VC)
		if q.incrementOnEject && q.creditWatcher != nil {
			q.creditWatcher.OnCreditIncrement(q.creditWatcherVC)
		}
		if q.decrementOnEject && q.creditWatcher != nil {
			q.creditWatcher.OnCreditDecrement(q.creditWatcherVC)
		}
		if q.OnEject != nil {
			q.OnEject(q.Port, flit)
		}
		q.swa = outputStage{}
	}

	if q.swa.state == StageEmpty && len(q.buffer) > 0 {
		flit := q.buffer[0]
		q.buffer = q.buffer[1:]
		if q.mainSched != nil {
			q.mainSched.IncrementCreditCount(q.mainVC)
		}
		q.swa = outputStage{state: StageWaitingToRequest, flit: flit}
	}

	if q.swa.state == StageWaitingToRequest {
		q.swa.state = StageWaitingForResponse
		q.outputSched.Request(q.schedulerIndex, 0, q.VC, q.swa.flit)
	}

	if q.swa.state != StageWaitingForResponse && len(q.buffer) > 0 {
		q.armPipeline()
	}
}

// CrossbarSchedulerResponse implements CrossbarSchedulerClient for the
// per-port secondary scheduler.
func (q *PacketOutputQueue) CrossbarSchedulerResponse(port, vc int, ok bool) {
	if q.swa.state != StageWaitingForResponse {
		invariantf("PacketOutputQueue", "port %d vc %d crossbar response with SWA not waiting", q.Port, q.VC)
	}
	if ok {
		q.swa.state = StageReadyToAdvance
	} else {
		q.swa.state = StageWaitingToRequest
	}
	q.armPipeline()
}

// Occupancy reports the queue's buffer fill as a fraction of refDepth.
func (q *PacketOutputQueue) Occupancy(refDepth int) float64 {
	return bufferOccupancy(len(q.buffer), refDepth)
}

func bufferOccupancy(length, refDepth int) float64 {
	if refDepth <= 0 {
		return 0
	}
	occ := float64(length) / float64(refDepth)
	if occ > 1 {
		occ = 1
	}
	return occ
}
