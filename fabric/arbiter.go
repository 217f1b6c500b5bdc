package fabric

import "math/rand"

// NoWinner is the sentinel returned by Arbitrate when no requestor was
// asserted.
const NoWinner = -1

// Arbiter is a single-winner selector across N requestors (SPEC_FULL §4.A).
// Implementations own their request/metadata state; callers drive them
// through these methods rather than binding shared pointers (SPEC_FULL §9).
type Arbiter interface {
	// Size returns N, the number of requestor ports.
	Size() int
	// SetRequest asserts or clears requestor i's request bit.
	SetRequest(i int, asserted bool)
	// SetMetadata sets requestor i's metadata value (ignored by policies
	// that don't use metadata).
	SetMetadata(i int, v uint64)
	// ClearRequests clears every request and metadata cell, ready for the
	// next cycle's SetRequest/SetMetadata calls.
	ClearRequests()
	// Arbitrate picks at most one asserted requestor and returns its
	// index, or (NoWinner, false) if nothing was asserted. Never returns a
	// winner whose request bit was not set.
	Arbitrate() (winner int, ok bool)
	// Latch commits any internal priority state that changed during the
	// last Arbitrate call. Idempotent to call when Arbitrate produced no
	// winner (a no-op in every policy below).
	Latch()
}

// ArbiterType names a closed set of arbiter policies, dispatched from
// configuration instead of a runtime string-keyed factory registry
// (SPEC_FULL §9).
type ArbiterType string

const (
	ArbiterLSLP           ArbiterType = "lslp"
	ArbiterComparing      ArbiterType = "comparing"
	ArbiterRandom         ArbiterType = "random"
	ArbiterRandomPriority ArbiterType = "random_priority"
	ArbiterLRU            ArbiterType = "lru"
	ArbiterTwoStage       ArbiterType = "two_stage"
)

// ArbiterConfig is the enumerated configuration surface for arbiters
// (SPEC_FULL §6).
type ArbiterConfig struct {
	Type    ArbiterType `yaml:"type"`
	Greater bool        `yaml:"greater"` // Comparing: true=pick greatest metadata, false=least

	// Two-stage only.
	NumClasses int               `yaml:"num_classes"`
	Metadata   ClassAggMode      `yaml:"metadata"`
	Stage1     *ArbiterConfig    `yaml:"stage1"`
	Stage2     *ArbiterConfig    `yaml:"stage2"`
}

// NewArbiter constructs an Arbiter of size n from cfg, using rng for any
// stochastic initialization (initial LSLP priority, LRU permutation).
// Panics with a ConfigurationError on an unrecognized Type or n <= 0.
func NewArbiter(cfg ArbiterConfig, n int, rng *rand.Rand) Arbiter {
	if n <= 0 {
		configErrorf("Arbiter", "size must be positive, got %d", n)
	}
	switch cfg.Type {
	case ArbiterLSLP:
		return newLSLPArbiter(n, rng)
	case ArbiterComparing:
		return newComparingArbiter(n, cfg.Greater, rng)
	case ArbiterRandom:
		return newRandomArbiter(n, rng)
	case ArbiterRandomPriority:
		return newRandomPriorityArbiter(n, rng)
	case ArbiterLRU:
		return newLRUArbiter(n, rng)
	case ArbiterTwoStage:
		return newTwoStageArbiter(cfg, n, rng)
	default:
		configErrorf("Arbiter", "unknown arbiter type %q", cfg.Type)
	}
	panic("unreachable")
}

// requestState is the common owned request/metadata storage every
// non-composed arbiter variant embeds.
type requestState struct {
	n        int
	request  []bool
	metadata []uint64
}

func newRequestState(n int) requestState {
	return requestState{n: n, request: make([]bool, n), metadata: make([]uint64, n)}
}

func (r *requestState) Size() int { return r.n }

func (r *requestState) SetRequest(i int, asserted bool) {
	r.checkIndex(i)
	r.request[i] = asserted
}

func (r *requestState) SetMetadata(i int, v uint64) {
	r.checkIndex(i)
	r.metadata[i] = v
}

func (r *requestState) ClearRequests() {
	for i := range r.request {
		r.request[i] = false
		r.metadata[i] = 0
	}
}

func (r *requestState) checkIndex(i int) {
	if i < 0 || i >= r.n {
		invariantf("Arbiter", "requestor index %d out of range [0,%d)", i, r.n)
	}
}
