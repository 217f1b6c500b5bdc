package fabric

// CongestionMode selects how a CongestionStatus device blends local
// output-buffer occupancy with a relayed downstream value (SPEC_FULL §6,
// §12).
type CongestionMode string

const (
	CongestionOutput              CongestionMode = "output"
	CongestionDownstream          CongestionMode = "downstream"
	CongestionOutputAndDownstream CongestionMode = "output_and_downstream"
)

// OccupancyFunc reports the local occupancy fraction (0..1) of the
// output-side buffer for (port, vc).
type OccupancyFunc func(port, vc int) float64

// CongestionStatus implements Router.CongestionStatus for routing
// algorithms (SPEC_FULL §4.G, §6). Grounded on the congestion-mode
// dispatch described in src/router/outputqueued/Router.cc.
type CongestionStatus struct {
	mode       CongestionMode
	occupancy  OccupancyFunc
	downstream map[int]float64
	totalVcs   int
}

// NewCongestionStatus constructs a CongestionStatus device. occupancy
// reports local buffer fill; totalVcs is used to key the downstream map.
func NewCongestionStatus(mode CongestionMode, totalVcs int, occupancy OccupancyFunc) *CongestionStatus {
	switch mode {
	case CongestionOutput, CongestionDownstream, CongestionOutputAndDownstream:
	default:
		configErrorf("CongestionStatus", "unknown congestion mode %q", mode)
	}
	return &CongestionStatus{mode: mode, occupancy: occupancy, downstream: make(map[int]float64), totalVcs: totalVcs}
}

// SetDownstream records the most recently relayed downstream occupancy
// value for (port, vc), as reported by the next-hop router over the
// channel.
func (c *CongestionStatus) SetDownstream(port, vc int, value float64) {
	c.downstream[port*c.totalVcs+vc] = value
}

// Status returns the occupancy estimate routing algorithms read to bias
// port/VC choices. inPort/inVc are accepted for interface symmetry with
// SPEC_FULL §6 but the default styles below only use the output side.
func (c *CongestionStatus) Status(inPort, inVc, outPort, outVc int) float64 {
	switch c.mode {
	case CongestionOutput:
		return c.occupancy(outPort, outVc)
	case CongestionDownstream:
		return c.downstream[outPort*c.totalVcs+outVc]
	case CongestionOutputAndDownstream:
		local := c.occupancy(outPort, outVc)
		down := c.downstream[outPort*c.totalVcs+outVc]
		if down > local {
			return down
		}
		return local
	default:
		return 0
	}
}
