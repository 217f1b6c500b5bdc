package fabric

import "testing"

func TestPacket_AddFlitSetsHeadFlag(t *testing.T) {
	p := NewPacket(1)
	f0 := NewFlit(0)
	f1 := NewFlit(1)
	p.AddFlit(f0)
	p.AddFlit(f1)

	if !f0.IsHead {
		t.Errorf("expected the first added flit to be marked head")
	}
	if f1.IsHead {
		t.Errorf("expected the second added flit to not be marked head")
	}
}

func TestPacket_FinalizeMarksOnlyLastFlitAsTail(t *testing.T) {
	p := NewPacket(1)
	for i := 0; i < 3; i++ {
		p.AddFlit(NewFlit(uint64(i)))
	}
	p.Finalize()

	for i, f := range p.Flits {
		want := i == len(p.Flits)-1
		if f.IsTail != want {
			t.Errorf("flit %d IsTail=%v, want %v", i, f.IsTail, want)
		}
	}
}

func TestPacket_MetadataValueDefaultsToZero(t *testing.T) {
	p := NewPacket(1)
	if p.MetadataValue() != 0 {
		t.Errorf("expected default metadata value 0, got %d", p.MetadataValue())
	}
	v := uint64(42)
	p.Metadata = &v
	if p.MetadataValue() != 42 {
		t.Errorf("expected metadata value 42, got %d", p.MetadataValue())
	}
}

func TestPacket_ExtensionDefaultsToNoExtension(t *testing.T) {
	p := NewPacket(1)
	if _, ok := p.Extension.(NoExtension); !ok {
		t.Errorf("expected a new packet's Extension to be NoExtension, got %T", p.Extension)
	}
}

func TestMessage_AddPacketSetsBackReference(t *testing.T) {
	m := NewMessage(1, 0, 1)
	p := NewPacket(1)
	m.AddPacket(p)

	if p.Message != m {
		t.Errorf("expected AddPacket to set the packet's Message back-reference")
	}
	if len(m.Packets) != 1 {
		t.Errorf("expected 1 packet attached to message, got %d", len(m.Packets))
	}
}
