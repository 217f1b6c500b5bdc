package fabric

import "testing"

func TestInputQueue_AcceptsFlitsInOrder(t *testing.T) {
	sim := NewSimulator(SimulationSeed(2))
	arbCfg := ArbiterConfig{Type: ArbiterLSLP}
	vcSched := NewVCScheduler(sim, AllocatorConfig{Type: AllocatorRSeparable, ResourceArbiter: &arbCfg}, 1, 2)
	crossbar := NewCrossbarScheduler(sim, "test", CrossbarSchedulerConfig{
		Allocator: AllocatorConfig{
			Type:            AllocatorRCSeparable,
			Iterations:      1,
			ResourceArbiter: &arbCfg,
			ClientArbiter:   &arbCfg,
		},
	}, 1, 1, 2, 0)
	crossbar.InitCreditCount(0, 100)

	var acceptedIDs []int
	q := NewInputQueue(sim, 0, 0, 0, 2, InputQueueConfig{Depth: 8}, &StaticRoute{Candidates: []RouteCandidate{{Port: 0, VC: 0}}}, vcSched, crossbar, nil)
	q.OnAccept = func(port, vc int, flit *Flit) { acceptedIDs = append(acceptedIDs, int(flit.ID)) }

	packet := buildTestPacket(1, 3)
	for _, flit := range packet.Flits {
		q.ReceiveFlit(flit)
	}
	sim.Run(50)

	if len(acceptedIDs) != 3 {
		t.Fatalf("expected all 3 flits accepted, got %d: %v", len(acceptedIDs), acceptedIDs)
	}
	for i, id := range acceptedIDs {
		if id != i {
			t.Errorf("accepted order %v does not preserve FIFO within the vc", acceptedIDs)
			break
		}
	}
}

func TestInputQueue_OnVCDeniedFiresWhenNoCandidateWins(t *testing.T) {
	sim := NewSimulator(SimulationSeed(3))
	arbCfg := ArbiterConfig{Type: ArbiterLSLP}
	// Only 1 downstream vc, held by another client so the head flit's
	// request always loses.
	vcSched := NewVCScheduler(sim, AllocatorConfig{Type: AllocatorRSeparable, ResourceArbiter: &arbCfg}, 2, 1)
	crossbar := NewCrossbarScheduler(sim, "test", CrossbarSchedulerConfig{
		Allocator: AllocatorConfig{
			Type:            AllocatorRCSeparable,
			Iterations:      1,
			ResourceArbiter: &arbCfg,
			ClientArbiter:   &arbCfg,
		},
	}, 2, 1, 1, 0)
	crossbar.InitCreditCount(0, 100)

	holder := &recordingVCClient{}
	vcSched.SetClient(1, holder)
	vcSched.Request(1, 0, 0)
	sim.Run(-1)
	if !holder.ok {
		t.Fatalf("expected the holder to win the only vc up front")
	}

	denials := 0
	q := NewInputQueue(sim, 0, 0, 0, 1, InputQueueConfig{Depth: 4}, &StaticRoute{Candidates: []RouteCandidate{{Port: 0, VC: 0}}}, vcSched, crossbar, nil)
	q.OnVCDenied = func() { denials++ }

	packet := buildTestPacket(9, 1) // single flit: both head and tail
	q.ReceiveFlit(packet.Flits[0])
	sim.Run(20)

	if denials == 0 {
		t.Fatalf("expected at least one VC denial while the only vc is held")
	}
}
