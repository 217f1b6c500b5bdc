package fabric

// Grid is the owned, dense request/grant/metadata bitmap mandated by
// SPEC_FULL §9 in place of the reference engine's pointer-bound storage.
// It is always square-free: N clients by M resources, and is reset and
// rebuilt every arbitration cycle by the component that owns it (an
// Allocator or Scheduler). An Arbiter never holds a Grid directly — it
// owns a single row/column's worth of state and the Allocator copies
// requests into it via SetRequest/SetMetadata.
type Grid struct {
	clients   int
	resources int
	request   []bool
	metadata  []uint64
	grant     []bool
}

// NewGrid allocates a clients x resources Grid, panicking with a
// ConfigurationError if either dimension is non-positive.
func NewGrid(clients, resources int) *Grid {
	if clients <= 0 || resources <= 0 {
		configErrorf("Grid", "dimensions must be positive, got clients=%d resources=%d", clients, resources)
	}
	return &Grid{
		clients:   clients,
		resources: resources,
		request:   make([]bool, clients*resources),
		metadata:  make([]uint64, clients*resources),
		grant:     make([]bool, clients*resources),
	}
}

func (g *Grid) index(c, r int) int {
	if c < 0 || c >= g.clients || r < 0 || r >= g.resources {
		invariantf("Grid", "index (%d,%d) out of range for %dx%d grid", c, r, g.clients, g.resources)
	}
	return c*g.resources + r
}

// Clients returns the number of clients (rows).
func (g *Grid) Clients() int { return g.clients }

// Resources returns the number of resources (columns).
func (g *Grid) Resources() int { return g.resources }

// SetRequest asserts or clears the (client, resource) request bit.
func (g *Grid) SetRequest(c, r int, v bool) { g.request[g.index(c, r)] = v }

// Request reads the (client, resource) request bit.
func (g *Grid) Request(c, r int) bool { return g.request[g.index(c, r)] }

// SetMetadata sets the (client, resource) metadata value, consumed by
// Comparing arbiters and two-stage class aggregation.
func (g *Grid) SetMetadata(c, r int, v uint64) { g.metadata[g.index(c, r)] = v }

// Metadata reads the (client, resource) metadata value.
func (g *Grid) Metadata(c, r int) uint64 { return g.metadata[g.index(c, r)] }

// SetGrant sets the (client, resource) grant bit. Panics with an
// InvariantViolation if the request bit was not set — grant implies
// request is enforced at the single point grants are written.
func (g *Grid) SetGrant(c, r int, v bool) {
	idx := g.index(c, r)
	if v && !g.request[idx] {
		invariantf("Grid", "grant set at (%d,%d) without a matching request", c, r)
	}
	g.grant[idx] = v
}

// Grant reads the (client, resource) grant bit.
func (g *Grid) Grant(c, r int) bool { return g.grant[g.index(c, r)] }

// ClearGrants zeroes every grant bit, leaving requests and metadata intact.
func (g *Grid) ClearGrants() {
	for i := range g.grant {
		g.grant[i] = false
	}
}

// ClearRequests zeroes every request, metadata, and grant bit.
func (g *Grid) ClearRequests() {
	for i := range g.request {
		g.request[i] = false
		g.metadata[i] = 0
		g.grant[i] = false
	}
}

// RequestsForClient returns the resource indices requested by client c.
func (g *Grid) RequestsForClient(c int) []int {
	var out []int
	for r := 0; r < g.resources; r++ {
		if g.Request(c, r) {
			out = append(out, r)
		}
	}
	return out
}

// RequestsForResource returns the client indices requesting resource r.
func (g *Grid) RequestsForResource(r int) []int {
	var out []int
	for c := 0; c < g.clients; c++ {
		if g.Request(c, r) {
			out = append(out, c)
		}
	}
	return out
}

// GrantedResource returns the resource client c was granted this cycle, or
// (-1, false) if client c received no grant.
func (g *Grid) GrantedResource(c int) (int, bool) {
	for r := 0; r < g.resources; r++ {
		if g.Grant(c, r) {
			return r, true
		}
	}
	return -1, false
}

// GrantedClient returns the client resource r was granted to this cycle, or
// (-1, false) if resource r granted nobody.
func (g *Grid) GrantedClient(r int) (int, bool) {
	for c := 0; c < g.clients; c++ {
		if g.Grant(c, r) {
			return c, true
		}
	}
	return -1, false
}
