package fabric

// Message is the top-level unit of traffic injected by a Terminal: a set
// of Packets sharing a source/destination and a transaction. Lifetime
// spans injection to delivery; owned by the originating Terminal, never
// freed by a Router (SPEC_FULL §3).
type Message struct {
	ID            uint64
	SourceID      int
	DestinationID int
	SourceAddress []int
	DestAddress   []int
	Transaction   uint64
	TrafficClass  int
	ProtocolClass int
	OpCode        int
	Packets       []*Packet
	InjectionTime int64
	DeliveryTime  int64
}

// NewMessage constructs a Message with no packets yet attached; packets
// are appended via AddPacket, which back-references the message.
func NewMessage(id uint64, sourceID, destinationID int) *Message {
	return &Message{ID: id, SourceID: sourceID, DestinationID: destinationID}
}

// AddPacket appends p to the message's owned packet sequence and sets p's
// back-reference to this message.
func (m *Message) AddPacket(p *Packet) {
	p.Message = m
	m.Packets = append(m.Packets, p)
}
