package fabric

import "testing"

func TestSimulator_EventsRunInTimeThenEpsilonOrder(t *testing.T) {
	sim := NewSimulator(SimulationSeed(1))
	var order []string

	sim.Schedule(NewFuncEvent(1, EpsilonDeliveries, "late-eps", func(sim *Simulator) { order = append(order, "t1-eps4") }))
	sim.Schedule(NewFuncEvent(1, EpsilonAllocate, "early-eps", func(sim *Simulator) { order = append(order, "t1-eps0") }))
	sim.Schedule(NewFuncEvent(0, EpsilonCredit, "t0", func(sim *Simulator) { order = append(order, "t0-eps1") }))

	sim.Run(-1)

	want := []string{"t0-eps1", "t1-eps0", "t1-eps4"}
	if len(order) != len(want) {
		t.Fatalf("expected %d events executed, got %d: %v", len(want), len(order), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("position %d: got %q, want %q (full order: %v)", i, order[i], want[i], order)
		}
	}
}

func TestSimulator_SameTimeAndEpsilonPreservesInsertionOrder(t *testing.T) {
	sim := NewSimulator(SimulationSeed(2))
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		sim.Schedule(NewFuncEvent(0, EpsilonCredit, "same", func(sim *Simulator) { order = append(order, i) }))
	}
	sim.Run(-1)

	for i, v := range order {
		if v != i {
			t.Fatalf("expected stable FIFO ordering among ties, got %v", order)
		}
	}
}

func TestSimulator_RunRespectsHorizon(t *testing.T) {
	sim := NewSimulator(SimulationSeed(3))
	ran := false
	sim.Schedule(NewFuncEvent(10, EpsilonCredit, "late", func(sim *Simulator) { ran = true }))

	sim.Run(5)
	if ran {
		t.Fatalf("expected the event scheduled at t=10 to not run within horizon 5")
	}
	if !sim.Pending() {
		t.Fatalf("expected the event to remain pending after a truncated run")
	}

	sim.Run(-1)
	if !ran {
		t.Fatalf("expected the event to run once the horizon is lifted")
	}
}

func TestSimulator_SchedulingInThePastPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected a panic scheduling an event before the current time")
		}
	}()
	sim := NewSimulator(SimulationSeed(4))
	sim.Schedule(NewFuncEvent(5, EpsilonCredit, "future", func(sim *Simulator) {}))
	sim.Run(-1)
	sim.Schedule(NewFuncEvent(0, EpsilonCredit, "past", func(sim *Simulator) {}))
}
