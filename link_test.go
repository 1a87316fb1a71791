package simnet

import "testing"

// fakeNode is a minimal [Node] used to observe what a [Link] delivers.
type fakeNode struct {
	id       string
	received []*Packet
}

func (n *fakeNode) ID() string { return n.id }

func (n *fakeNode) Receive(packet *Packet, linkID string) {
	n.received = append(n.received, packet)
}

func TestLinkSerializationAndPropagationDelay(t *testing.T) {
	k := NewKernel(testLogger{}, nil)
	a := &fakeNode{id: "HA"}
	b := &fakeNode{id: "HB"}
	k.RegisterNode(a)
	k.RegisterNode(b)

	// capacity = DataSizeBits bits/sec, so one data packet serializes in
	// exactly 1 second; propagation delay of 2 seconds on top of that.
	link := NewLink(k, "L1", DataSizeBits, 2, 10*DataSizeBits, "HA", "HB")
	k.activeFlows = 1 // pretend a flow is active so Run doesn't bail early

	pkt := NewDataPacket("F1", 0, "HA", "HB", 0)
	link.Enqueue(pkt, "HA")

	k.RunToCompletion()

	if len(b.received) != 1 {
		t.Fatalf("expected exactly one delivered packet, got %d", len(b.received))
	}
	if k.Now() != 3 {
		t.Fatalf("expected delivery at t=3 (1s serialize + 2s propagate), got t=%f", k.Now())
	}
}

func TestLinkFIFOOrdering(t *testing.T) {
	k := NewKernel(testLogger{}, nil)
	a := &fakeNode{id: "HA"}
	b := &fakeNode{id: "HB"}
	k.RegisterNode(a)
	k.RegisterNode(b)

	link := NewLink(k, "L1", DataSizeBits, 0, 10*DataSizeBits, "HA", "HB")
	k.activeFlows = 1 // pretend a flow is active so Run doesn't bail early

	for i := int64(0); i < 3; i++ {
		link.Enqueue(NewDataPacket("F1", i, "HA", "HB", 0), "HA")
	}

	k.RunToCompletion()

	if len(b.received) != 3 {
		t.Fatalf("expected 3 delivered packets, got %d", len(b.received))
	}
	for i, pkt := range b.received {
		if pkt.PacketID != int64(i) {
			t.Fatalf("packet %d arrived out of order: got id %d", i, pkt.PacketID)
		}
	}
}

func TestLinkDropsOnBufferOverflow(t *testing.T) {
	k := NewKernel(testLogger{}, nil)
	a := &fakeNode{id: "HA"}
	b := &fakeNode{id: "HB"}
	k.RegisterNode(a)
	k.RegisterNode(b)

	// buffer can only ever hold one packet's worth of bits; queue a slow
	// link (high propagation/serialization time) so the first packet is
	// still sitting in the buffer when the second arrives.
	link := NewLink(k, "L1", DataSizeBits, 100, DataSizeBits, "HA", "HB")
	k.activeFlows = 1 // pretend a flow is active so Run doesn't bail early

	link.Enqueue(NewDataPacket("F1", 0, "HA", "HB", 0), "HA")
	link.Enqueue(NewDataPacket("F1", 1, "HA", "HB", 0), "HA")

	k.RunToCompletion()

	if len(b.received) != 1 {
		t.Fatalf("expected exactly one packet to survive the overflow, got %d", len(b.received))
	}
	if b.received[0].PacketID != 0 {
		t.Fatalf("expected the surviving packet to be the first one sent, got id %d", b.received[0].PacketID)
	}
}

func TestLinkEnqueueFromNonEndpointPanics(t *testing.T) {
	k := NewKernel(testLogger{}, nil)
	link := NewLink(k, "L1", DataSizeBits, 0, DataSizeBits, "HA", "HB")

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic enqueuing from a non-endpoint node")
		}
	}()
	link.Enqueue(NewDataPacket("F1", 0, "HC", "HB", 0), "HC")
}
