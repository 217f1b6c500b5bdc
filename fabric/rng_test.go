package fabric

import "testing"

func TestPartitionedRNG_DeterministicAcrossRuns(t *testing.T) {
	a := NewPartitionedRNG(SimulationSeed(42))
	b := NewPartitionedRNG(SimulationSeed(42))

	for i := 0; i < 5; i++ {
		va := a.ForSubsystem(SubsystemArbiter).Int63()
		vb := b.ForSubsystem(SubsystemArbiter).Int63()
		if va != vb {
			t.Fatalf("draw %d diverged: %d != %d", i, va, vb)
		}
	}
}

func TestPartitionedRNG_SubsystemsAreIndependent(t *testing.T) {
	rng := NewPartitionedRNG(SimulationSeed(7))
	arb := rng.ForSubsystem(SubsystemArbiter)
	alloc := rng.ForSubsystem(SubsystemAllocator)

	if arb.Int63() == alloc.Int63() {
		// Extremely unlikely collision; re-draw once before failing.
		if arb.Int63() == alloc.Int63() {
			t.Fatalf("arbiter and allocator subsystem RNGs produced identical sequences")
		}
	}
}

func TestPartitionedRNG_SameSubsystemReturnsSameInstance(t *testing.T) {
	rng := NewPartitionedRNG(SimulationSeed(1))
	first := rng.ForSubsystem(SubsystemArbiter)
	second := rng.ForSubsystem(SubsystemArbiter)
	if first != second {
		t.Fatalf("expected ForSubsystem to cache and return the same *rand.Rand")
	}
}

func TestPartitionedRNG_DifferentSeedsDiverge(t *testing.T) {
	a := NewPartitionedRNG(SimulationSeed(1))
	b := NewPartitionedRNG(SimulationSeed(2))
	if a.ForSubsystem(SubsystemWavefront).Int63() == b.ForSubsystem(SubsystemWavefront).Int63() {
		t.Fatalf("different master seeds produced identical draws")
	}
}
