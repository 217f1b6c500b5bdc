package fabric

// RoutingExtension is the discriminated union replacing the reference
// engine's opaque `void*` per-packet routing scratch space (SPEC_FULL §9).
// A routing algorithm that attaches one is the only code allowed to type
// switch on it and is responsible for clearing it when the packet reaches
// the router that consumes it.
type RoutingExtension interface {
	isRoutingExtension()
}

// NoExtension is the zero value: the packet carries no routing-algorithm
// scratch state.
type NoExtension struct{}

func (NoExtension) isRoutingExtension() {}

// IntermediateAddress carries a Valiant-style randomly chosen intermediate
// destination the packet must reach before routing toward its true
// destination.
type IntermediateAddress struct {
	Coordinates []int
	Reached     bool
}

func (*IntermediateAddress) isRoutingExtension() {}

// Deroutes records a set of productive misroute candidates a deroute-aware
// adaptive routing algorithm considered for this packet.
type Deroutes struct {
	Candidates []int
}

func (*Deroutes) isRoutingExtension() {}
