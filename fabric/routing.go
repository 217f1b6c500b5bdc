package fabric

// RouteCandidate is one (port, vc) candidate returned by a routing
// algorithm for a head flit, expressed in per-port-local VC numbering
// (SPEC_FULL §6). No ordering is implied among a response's candidates.
type RouteCandidate struct {
	Port int
	VC   int
}

// RoutingAlgorithmClient is implemented by whatever submitted a routing
// request (an InputQueue) to receive the asynchronous response.
type RoutingAlgorithmClient interface {
	RoutingAlgorithmResponse(candidates []RouteCandidate)
}

// RoutingAlgorithm is the external collaborator the fabric core consumes
// but never implements a topology-specific instance of (SPEC_FULL §1
// Non-goals: "No topology-specific routing"). The core only needs the
// call boundary; concrete algorithms live outside the fabric package.
type RoutingAlgorithm interface {
	// Request asks for a candidate (port, vc) set for flit arriving from
	// client. The implementation must eventually call
	// client.RoutingAlgorithmResponse — synchronously is fine, since the
	// Simulator itself enforces cycle-boundary ordering via events.
	Request(client RoutingAlgorithmClient, flit *Flit)
}

// StaticRoute is a minimal RoutingAlgorithm that always returns the same
// fixed candidate set, regardless of the flit. Useful for tests and the
// demo CLI harness where topology/route computation is explicitly out of
// scope (SPEC_FULL §1 Non-goals); production routing algorithms are
// external collaborators.
type StaticRoute struct {
	Candidates []RouteCandidate
}

func (s *StaticRoute) Request(client RoutingAlgorithmClient, flit *Flit) {
	client.RoutingAlgorithmResponse(s.Candidates)
}
