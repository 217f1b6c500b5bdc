package fabric

import "testing"

func testRouterConfig() RouterConfig {
	arbCfg := ArbiterConfig{Type: ArbiterLSLP}
	return RouterConfig{
		NumPorts:   4,
		VcsPerPort: 2,
		InputQueue: InputQueueConfig{Depth: 8},
		VCAllocator: AllocatorConfig{
			Type:            AllocatorRSeparable,
			ResourceArbiter: &arbCfg,
		},
		Crossbar: CrossbarSchedulerConfig{
			Allocator: AllocatorConfig{
				Type:            AllocatorRCSeparable,
				Iterations:      2,
				ResourceArbiter: &arbCfg,
				ClientArbiter:   &arbCfg,
			},
		},
		OutputCrossbar: CrossbarSchedulerConfig{
			Allocator: AllocatorConfig{
				Type:            AllocatorRCSeparable,
				Iterations:      2,
				ResourceArbiter: &arbCfg,
				ClientArbiter:   &arbCfg,
			},
		},
		OutputMode:      OutputModeFlit,
		ChannelCredits:  8,
		CreditLatency:   1,
		TransferLatency: 1,
	}
}

func buildTestPacket(id uint64, numFlits int) *Packet {
	packet := NewPacket(id)
	msg := NewMessage(id, 1, 3)
	msg.AddPacket(packet)
	for i := 0; i < numFlits; i++ {
		packet.AddFlit(NewFlit(uint64(i)))
	}
	packet.Finalize()
	return packet
}

func TestRouter_FullPipelineWalk(t *testing.T) {
	sim := NewSimulator(SimulationSeed(1))
	routing := &StaticRoute{Candidates: []RouteCandidate{{Port: 3, VC: 0}}}
	router := NewRouter(sim, "r0", testRouterConfig(), routing)

	var ejected []*Flit
	router.OnSendFlit = func(port int, flit *Flit) {
		if port != 3 {
			t.Errorf("flit ejected on unexpected port %d, want 3", port)
		}
		ejected = append(ejected, flit)
	}

	packet := buildTestPacket(1, 4)
	for i, flit := range packet.Flits {
		flit.VC = 0
		t := int64(i)
		flit := flit
		sim.Schedule(NewFuncEvent(t, EpsilonCredit, "inject", func(sim *Simulator) {
			router.ReceiveFlit(1, flit)
		}))
	}

	sim.Run(50)

	if len(ejected) != 4 {
		t.Fatalf("expected all 4 flits to be ejected on port 3, got %d", len(ejected))
	}
	if !ejected[0].IsHead || !ejected[3].IsTail {
		t.Fatalf("expected ejection order to preserve head/tail flags")
	}
	for i, flit := range ejected {
		if flit.ID != packet.Flits[i].ID {
			t.Errorf("ejected flit %d has ID %d, want %d (FIFO order within VC)", i, flit.ID, packet.Flits[i].ID)
		}
	}
}

func TestRouter_BackToBackViolationPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected a panic for a late-arriving non-head flit")
		}
	}()
	sim := NewSimulator(SimulationSeed(2))
	routing := &StaticRoute{Candidates: []RouteCandidate{{Port: 3, VC: 0}}}
	router := NewRouter(sim, "r0", testRouterConfig(), routing)

	packet := buildTestPacket(1, 2)
	head := packet.Flits[0]
	tail := packet.Flits[1]
	head.VC = 0
	tail.VC = 0

	router.ReceiveFlit(1, head)
	// WHEN the tail flit arrives two cycles late instead of back-to-back
	sim.Schedule(NewFuncEvent(2, EpsilonCredit, "late-tail", func(sim *Simulator) {
		router.ReceiveFlit(1, tail)
	}))
	sim.Run(10)
}

func TestRouter_NewHeadWhilePacketInFlightPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected a panic for a new head arriving mid-packet on the same (port,vc)")
		}
	}()
	sim := NewSimulator(SimulationSeed(3))
	routing := &StaticRoute{Candidates: []RouteCandidate{{Port: 3, VC: 0}}}
	router := NewRouter(sim, "r0", testRouterConfig(), routing)

	first := buildTestPacket(1, 3)
	first.Flits[0].VC = 0
	router.ReceiveFlit(1, first.Flits[0])

	second := buildTestPacket(2, 1)
	second.Flits[0].VC = 0
	router.ReceiveFlit(1, second.Flits[0])
}

func TestRouter_CongestionSnapshotCoversEveryPortVC(t *testing.T) {
	sim := NewSimulator(SimulationSeed(4))
	routing := &StaticRoute{Candidates: []RouteCandidate{{Port: 3, VC: 0}}}
	router := NewRouter(sim, "r0", testRouterConfig(), routing)

	snap := router.CongestionSnapshot()
	if len(snap) != 4*2 {
		t.Fatalf("expected %d entries in the congestion snapshot, got %d", 4*2, len(snap))
	}
}

func TestRouter_MetricsEnabledDoesNotPanic(t *testing.T) {
	sim := NewSimulator(SimulationSeed(5))
	cfg := testRouterConfig()
	cfg.MetricsEnabled = true
	routing := &StaticRoute{Candidates: []RouteCandidate{{Port: 3, VC: 0}}}
	router := NewRouter(sim, "r0", cfg, routing)

	packet := buildTestPacket(1, 2)
	for i, flit := range packet.Flits {
		flit.VC = 0
		t := int64(i)
		flit := flit
		sim.Schedule(NewFuncEvent(t, EpsilonCredit, "inject", func(sim *Simulator) {
			router.ReceiveFlit(1, flit)
		}))
	}
	sim.Run(20)
}
