package fabric

import "math/rand"

// wavefrontAllocator organizes the bipartite problem into a rows x cols
// grid (the larger of clients/resources becomes rows) and sweeps diagonal
// "lines" of cells in a randomized or sequential starting order; the first
// asserted cell along a diagonal that has not yet consumed its row or
// column wins that row/column. Does not use the Arbiter abstraction or
// metadata. Grounded on src/allocator/WavefrontAllocator.cc.
type wavefrontAllocator struct {
	grid         *Grid
	clients      int
	resources    int
	rows         int
	cols         int
	clientIsRows bool // true if clients map to rows (clients >= resources)
	scheme       WavefrontScheme
	startingLine int
	rng          *rand.Rand
}

func newWavefrontAllocator(cfg AllocatorConfig, clients, resources int, rng *rand.Rand) *wavefrontAllocator {
	rows, cols := clients, resources
	clientIsRows := true
	if resources > clients {
		rows, cols = resources, clients
		clientIsRows = false
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = WavefrontSequential
	}
	if scheme != WavefrontSequential && scheme != WavefrontRandom {
		configErrorf("WavefrontAllocator", "unknown scheme %q", cfg.Scheme)
	}
	a := &wavefrontAllocator{
		grid:         NewGrid(clients, resources),
		clients:      clients,
		resources:    resources,
		rows:         rows,
		cols:         cols,
		clientIsRows: clientIsRows,
		scheme:       scheme,
		rng:          rng,
	}
	a.startingLine = rng.Intn(rows)
	return a
}

func (a *wavefrontAllocator) Grid() *Grid { return a.grid }

// toRow maps (line, col) to the row index that diagonal line occupies at
// column col, per WavefrontAllocator.cc: row = col>line ? line+rows-col : line-col.
func (a *wavefrontAllocator) toRow(line, col int) int {
	if col > line {
		return line + a.rows - col
	}
	return line - col
}

func (a *wavefrontAllocator) Allocate() {
	g := a.grid
	g.ClearGrants()

	rowGrants := make([]bool, a.rows)
	colGrants := make([]bool, a.cols)

	for lineOffset := 0; lineOffset < a.rows; lineOffset++ {
		line := (a.startingLine + lineOffset) % a.rows
		for col := 0; col < a.cols; col++ {
			if colGrants[col] {
				continue
			}
			row := a.toRow(line, col)
			if row < 0 || row >= a.rows || rowGrants[row] {
				continue
			}
			var c, r int
			if a.clientIsRows {
				c, r = row, col
			} else {
				c, r = col, row
			}
			if c >= a.clients || r >= a.resources {
				continue
			}
			if !g.Request(c, r) {
				continue
			}
			g.SetGrant(c, r, true)
			rowGrants[row] = true
			colGrants[col] = true
		}
	}

	switch a.scheme {
	case WavefrontSequential:
		a.startingLine = (a.startingLine + 1) % a.rows
	case WavefrontRandom:
		a.startingLine = a.rng.Intn(a.rows)
	}
}
