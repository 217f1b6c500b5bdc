package fabric

import "math/rand"

// Allocator is a bipartite matcher mapping N clients to M resources in one
// cycle, layered on Arbiters (SPEC_FULL §4.B).
type Allocator interface {
	// Grid exposes the owned request/grant bitmap so callers can populate
	// requests and metadata before calling Allocate, and read grants after.
	Grid() *Grid
	// Allocate runs one matching pass over the current request state,
	// clearing and rewriting the grant bitmap. Idempotent on frozen
	// inputs up to RNG-seeded tie-breaking.
	Allocate()
}

// AllocatorType names a closed set of allocator policies.
type AllocatorType string

const (
	AllocatorRSeparable  AllocatorType = "r_separable"
	AllocatorRCSeparable AllocatorType = "rc_separable"
	AllocatorCRSeparable AllocatorType = "cr_separable"
	AllocatorWavefront   AllocatorType = "wavefront"
)

// WavefrontScheme selects how the wavefront allocator advances its
// starting diagonal between calls.
type WavefrontScheme string

const (
	WavefrontSequential WavefrontScheme = "sequential"
	WavefrontRandom     WavefrontScheme = "random"
)

// AllocatorConfig is the enumerated configuration surface for allocators
// (SPEC_FULL §6).
type AllocatorConfig struct {
	Type            AllocatorType   `yaml:"type"`
	Iterations      int             `yaml:"iterations"`
	SlipLatch       bool            `yaml:"slip_latch"`
	ResourceArbiter *ArbiterConfig  `yaml:"resource_arbiter"`
	ClientArbiter   *ArbiterConfig  `yaml:"client_arbiter"`
	Scheme          WavefrontScheme `yaml:"scheme"`

	// AllowMultiGrant lets an R-sep allocator grant one client several
	// resources in a single pass. When it is unset, a second grant to the
	// same client panics with an InvariantViolation. See SPEC_FULL §9 Open
	// Questions.
	AllowMultiGrant bool `yaml:"allow_multi_grant"`
}

// NewAllocator constructs an Allocator for a clients x resources grid from
// cfg. Panics with a ConfigurationError on an unrecognized Type or
// non-positive dimensions.
func NewAllocator(cfg AllocatorConfig, clients, resources int, rng *rand.Rand) Allocator {
	if clients <= 0 || resources <= 0 {
		configErrorf("Allocator", "dimensions must be positive, got clients=%d resources=%d", clients, resources)
	}
	switch cfg.Type {
	case AllocatorRSeparable:
		return newRSeparableAllocator(cfg, clients, resources, rng)
	case AllocatorRCSeparable:
		return newIterativeSeparableAllocator(cfg, clients, resources, rng, false)
	case AllocatorCRSeparable:
		return newIterativeSeparableAllocator(cfg, clients, resources, rng, true)
	case AllocatorWavefront:
		return newWavefrontAllocator(cfg, clients, resources, rng)
	default:
		configErrorf("Allocator", "unknown allocator type %q", cfg.Type)
	}
	panic("unreachable")
}

func requireArbiterConfig(component string, cfg *ArbiterConfig) ArbiterConfig {
	if cfg == nil {
		configErrorf(component, "an arbiter configuration is required")
	}
	return *cfg
}
