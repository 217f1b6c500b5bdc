package fabric

// Flit is the smallest flow-control unit: a packet is an ordered sequence
// of flits flagged head/body/tail. VC is mutable and is set during VC
// allocation on the head flit; body/tail flits inherit it for the whole
// packet traversal of one router (SPEC_FULL §3, §4.E).
type Flit struct {
	ID          uint64
	IsHead      bool
	IsTail      bool
	VC          int
	Packet      *Packet // non-owning back-reference
	SendTime    int64
	ReceiveTime int64
}

// NewFlit constructs a flit with no VC assigned yet (VC is meaningful only
// after VC allocation for a head flit, or by inheritance for body/tail).
func NewFlit(id uint64) *Flit {
	return &Flit{ID: id, VC: -1}
}

// IsBody reports whether the flit is neither head nor tail.
func (f *Flit) IsBody() bool { return !f.IsHead && !f.IsTail }
