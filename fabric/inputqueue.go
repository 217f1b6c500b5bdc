package fabric

// StageState is the state of one pipeline stage record (SPEC_FULL §4.E,
// §3).
type StageState int

const (
	StageEmpty StageState = iota
	StageWaitingToRequest
	StageWaitingForResponse
	StageReadyToAdvance
	StageWaitingForTransfer
)

type stageRecord struct {
	state StageState
	flit  *Flit
}

// CreditSink receives upstream credit returns, one per flit popped from an
// Input Queue FIFO (SPEC_FULL §4.E "Flow control").
type CreditSink interface {
	ReturnCredit(port, vc int)
}

// InputQueue owns the bounded FIFO and three-stage (RFE/VCA/SWA) pipeline
// for one (input port, vc) pair. Grounded on
// src/router/inputoutputqueued/InputQueue.cc.
type InputQueue struct {
	sim *Simulator

	Port, VC int
	ClientID int // this queue's client index into the router's VC/crossbar schedulers
	Depth    int

	vcsPerPort int
	routing    RoutingAlgorithm
	vcSched    *VCScheduler
	crossbar   *CrossbarScheduler
	creditSink CreditSink

	vcaSwaWait bool

	buffer []*Flit

	rfe stageRecord
	vca stageRecord
	swa stageRecord

	// vca bookkeeping for the in-flight head flit
	rfeCandidates []RouteCandidate
	vcaCandidates []RouteCandidate
	allocatedPort int
	allocatedVC   int // global vc index (port*vcsPerPort + local vc)

	// swa target, carried from vca
	swaPort int
	swaVC   int // local vc on swaPort

	lastReceivedTime int64
	eventScheduled   bool

	// OnAccept is called once a flit clears SWA and is injected into the
	// crossbar, with the port/vc it was granted. The owning Router sets
	// this to forward the flit toward the right Output Queue.
	OnAccept func(port, vc int, flit *Flit)
	// OnVCDenied is called each time a VC scheduler request for this
	// queue's head flit comes back empty. Optional; the owning Router
	// wires it to its Metrics when metrics are enabled.
	OnVCDenied func()
}

// InputQueueConfig groups the construction-time parameters for an
// InputQueue not otherwise implied by its router.
type InputQueueConfig struct {
	Depth      int
	VcaSwaWait bool
}

// NewInputQueue constructs an InputQueue bound to one (port, vc) pair of a
// router's fabric.
func NewInputQueue(sim *Simulator, port, vc, clientID, vcsPerPort int, cfg InputQueueConfig, routing RoutingAlgorithm, vcSched *VCScheduler, crossbar *CrossbarScheduler, creditSink CreditSink) *InputQueue {
	if cfg.Depth <= 0 {
		configErrorf("InputQueue", "depth must be positive, got %d", cfg.Depth)
	}
	q := &InputQueue{
		sim:              sim,
		Port:             port,
		VC:               vc,
		ClientID:         clientID,
		Depth:            cfg.Depth,
		vcsPerPort:       vcsPerPort,
		routing:          routing,
		vcSched:          vcSched,
		crossbar:         crossbar,
		creditSink:       creditSink,
		vcaSwaWait:       cfg.VcaSwaWait,
		lastReceivedTime: -1,
	}
	vcSched.SetClient(clientID, q)
	crossbar.SetClient(clientID, q)
	return q
}

// ReceiveFlit pushes an arriving flit onto the FIFO. Panics with an
// InvariantViolation on a depth overflow.
func (q *InputQueue) ReceiveFlit(flit *Flit) {
	if len(q.buffer) >= q.Depth {
		invariantf("InputQueue", "port %d vc %d buffer overflow beyond depth %d", q.Port, q.VC, q.Depth)
	}
	q.buffer = append(q.buffer, flit)
	q.armPipeline()
}

func (q *InputQueue) armPipeline() {
	if q.eventScheduled {
		return
	}
	q.eventScheduled = true
	now := q.sim.Now()
	q.sim.Schedule(NewFuncEvent(now, EpsilonPipelineA, "InputQueue.process", q.process))
}

// process runs one evaluation of the pipeline in reverse stage order, so
// each stage advances at most one step per evaluation. While an evaluation
// moves something, the pipeline re-arms itself for the same cycle, so a
// flit can ripple from RFE to the crossbar within one cycle (SPEC_FULL
// §4.E); a stalled pipeline waits for a response or a new flit.
func (q *InputQueue) process(sim *Simulator) {
	q.eventScheduled = false

	before := [4]int{int(q.rfe.state), int(q.vca.state), int(q.swa.state), len(q.buffer)}
	q.swaAdvance()
	q.swaLoadFromVCA()
	q.swaSubmitRequest()
	q.vcaLoadFromRFE()
	q.vcaSubmitRequest()
	q.rfeLoadFromBuffer()
	q.rfeSubmitRequest()

	after := [4]int{int(q.rfe.state), int(q.vca.state), int(q.swa.state), len(q.buffer)}
	if after != before {
		q.armPipeline()
	}
}

// swaAdvance injects a granted SWA flit into the crossbar's accepted path:
// by the time we reach here the crossbar has already responded (handled in
// CrossbarSchedulerResponse) and swa.state == StageReadyToAdvance means the
// flit is ready to be cleared out, having already been forwarded.
func (q *InputQueue) swaAdvance() {
	if q.swa.state != StageReadyToAdvance {
		return
	}
	q.swa = stageRecord{}
}

func (q *InputQueue) swaLoadFromVCA() {
	if q.swa.state != StageEmpty || q.vca.state != StageReadyToAdvance {
		return
	}
	flit := q.vca.flit
	flit.VC = q.allocatedVC % q.vcsPerPort
	q.swaPort = q.allocatedPort
	q.swaVC = q.allocatedVC % q.vcsPerPort
	q.swa = stageRecord{state: StageWaitingToRequest, flit: flit}
	q.vca = stageRecord{}
}

func (q *InputQueue) swaSubmitRequest() {
	if q.swa.state != StageWaitingToRequest {
		return
	}
	q.swa.state = StageWaitingForResponse
	q.crossbar.Request(q.ClientID, q.swaPort, q.swaVC, q.swa.flit)
}

func (q *InputQueue) vcaLoadFromRFE() {
	if q.vca.state != StageEmpty || q.rfe.state != StageReadyToAdvance {
		return
	}
	flit := q.rfe.flit
	if flit.IsHead {
		q.vcaCandidates = q.rfeCandidates
		q.vca = stageRecord{state: StageWaitingToRequest, flit: flit}
	} else {
		// Body/tail flits inherit the whole-packet VC allocation directly.
		q.vca = stageRecord{state: StageReadyToAdvance, flit: flit}
	}
	q.rfe = stageRecord{}
}

func (q *InputQueue) vcaSubmitRequest() {
	if q.vca.state != StageWaitingToRequest {
		return
	}
	if q.vcaSwaWait && q.swa.state != StageEmpty {
		return
	}
	q.vca.state = StageWaitingForResponse
	for _, cand := range q.vcaCandidates {
		globalVC := cand.Port*q.vcsPerPort + cand.VC
		q.vcSched.Request(q.ClientID, globalVC, q.vca.flit.Packet.MetadataValue())
	}
}

func (q *InputQueue) rfeLoadFromBuffer() {
	if q.rfe.state != StageEmpty || len(q.buffer) == 0 {
		return
	}
	flit := q.buffer[0]
	q.buffer = q.buffer[1:]
	if q.creditSink != nil {
		q.creditSink.ReturnCredit(q.Port, q.VC)
	}
	q.rfe = stageRecord{state: StageWaitingToRequest, flit: flit}
}

func (q *InputQueue) rfeSubmitRequest() {
	if q.rfe.state != StageWaitingToRequest {
		return
	}
	if !q.rfe.flit.IsHead {
		q.rfe.state = StageReadyToAdvance
		return
	}
	q.rfe.state = StageWaitingForResponse
	q.routing.Request(q, q.rfe.flit)
}

// RoutingAlgorithmResponse implements RoutingAlgorithmClient.
func (q *InputQueue) RoutingAlgorithmResponse(candidates []RouteCandidate) {
	if q.rfe.state != StageWaitingForResponse {
		invariantf("InputQueue", "port %d vc %d routing response with RFE not waiting", q.Port, q.VC)
	}
	q.rfeCandidates = candidates
	q.rfe.state = StageReadyToAdvance
	q.armPipeline()
}

// VcSchedulerResponse implements VCSchedulerClient.
func (q *InputQueue) VcSchedulerResponse(vc int, ok bool) {
	if q.vca.state != StageWaitingForResponse {
		invariantf("InputQueue", "port %d vc %d VC scheduler response with VCA not waiting", q.Port, q.VC)
	}
	if !ok {
		// Denied: re-request next cycle from scratch (spec.md §4.C — a
		// denied request is not automatically retried by the scheduler).
		if q.OnVCDenied != nil {
			q.OnVCDenied()
		}
		q.vca.state = StageWaitingToRequest
		q.armPipeline()
		return
	}
	q.allocatedVC = vc
	q.allocatedPort = vc / q.vcsPerPort
	q.vca.state = StageReadyToAdvance
	q.armPipeline()
}

// CrossbarSchedulerResponse implements CrossbarSchedulerClient.
func (q *InputQueue) CrossbarSchedulerResponse(port, vc int, ok bool) {
	if q.swa.state != StageWaitingForResponse {
		invariantf("InputQueue", "port %d vc %d crossbar response with SWA not waiting", q.Port, q.VC)
	}
	if !ok {
		q.swa.state = StageWaitingToRequest
		q.armPipeline()
		return
	}
	flit := q.swa.flit
	q.crossbar.DecrementCreditCount(vc)
	if flit.IsTail {
		q.vcSched.ReleaseVc(q.allocatedVC)
	}
	q.onSwitchAccepted(port, vc, flit)
	q.swa.state = StageReadyToAdvance
	q.armPipeline()
}

func (q *InputQueue) onSwitchAccepted(port, vc int, flit *Flit) {
	if q.OnAccept != nil {
		q.OnAccept(port, vc, flit)
	}
}

// Queued reports the number of flits currently buffered (not yet past
// RFE), for congestion-status occupancy reporting.
func (q *InputQueue) Queued() int { return len(q.buffer) }
