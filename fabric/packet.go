package fabric

// Packet is an ordered, owned sequence of Flits referencing a shared
// Message. HopCount is mutated by each router it traverses. Metadata is an
// optional externally supplied priority value consumed by Comparing
// arbiters; nil means "no metadata set" (SPEC_FULL §3).
type Packet struct {
	ID       uint64
	Message  *Message
	Flits    []*Flit
	HopCount int
	Metadata *uint64

	// Extension is owned by this packet; only the routing algorithm that
	// set it may read or clear it (SPEC_FULL §9).
	Extension RoutingExtension
}

// NewPacket constructs an empty packet with no flits yet attached.
func NewPacket(id uint64) *Packet {
	return &Packet{ID: id, Extension: NoExtension{}}
}

// AddFlit appends f to the packet's owned flit sequence, setting f's
// head/tail flags consistently: the first flit added is marked head, and
// Finalize must be called once all flits are added to mark the last as
// tail.
func (p *Packet) AddFlit(f *Flit) {
	f.Packet = p
	f.IsHead = len(p.Flits) == 0
	p.Flits = append(p.Flits, f)
}

// Finalize marks the last added flit as the tail flit. Safe to call only
// after all flits have been added; idempotent.
func (p *Packet) Finalize() {
	for _, f := range p.Flits {
		f.IsTail = false
	}
	if n := len(p.Flits); n > 0 {
		p.Flits[n-1].IsTail = true
	}
}

// Length returns the number of flits in the packet.
func (p *Packet) Length() int { return len(p.Flits) }

// MetadataValue returns the packet's metadata, or 0 if unset.
func (p *Packet) MetadataValue() uint64 {
	if p.Metadata == nil {
		return 0
	}
	return *p.Metadata
}
