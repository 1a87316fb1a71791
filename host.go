package simnet

//
// Host: a single-link node that terminates flows (spec §4.3).
//

import "fmt"

// Host is a [Node] with exactly one attached [Link] and a set of local
// flows. It never forwards and never synthesises routing packets.
type Host struct {
	hostID string
	link   *Link
	kernel *Kernel
	flows  map[string]*Flow
}

// NewHost creates a new [Host] attached to link and registers it with
// kernel.
func NewHost(kernel *Kernel, hostID string, link *Link) *Host {
	h := &Host{
		hostID: hostID,
		link:   link,
		kernel: kernel,
		flows:  map[string]*Flow{},
	}
	kernel.RegisterNode(h)
	return h
}

// ID implements Node.
func (h *Host) ID() string {
	return h.hostID
}

// Link returns this host's single attached link.
func (h *Host) Link() *Link {
	return h.link
}

// AttachFlow registers a flow as local to this host. Both the sending and
// the receiving host of a flow attach it, since each side needs to
// dispatch packets addressed to that flow id.
func (h *Host) AttachFlow(f *Flow) {
	h.flows[f.FlowID] = f
}

// Send enqueues packet onto this host's link, recording a per-flow send
// sample for data packets (spec §4.3).
func (h *Host) Send(packet *Packet) {
	if packet.Kind == PacketKindData {
		h.kernel.Metrics().RecordFlowRate(packet.FlowID, packet.SizeBits, h.kernel.Now())
	}
	h.link.Enqueue(packet, h.hostID)
}

// Receive implements Node. It asserts the packet belongs to a known local
// flow and dispatches it to that flow's packet handler (spec §4.3).
// Receiving a routing packet at a host, or a packet for an unknown flow,
// is a programming error.
func (h *Host) Receive(packet *Packet, linkID string) {
	if packet.Kind == PacketKindRouting {
		panic(fmt.Sprintf("simnet: host %s: received unexpected routing packet", h.hostID))
	}
	flow, ok := h.flows[packet.FlowID]
	if !ok {
		panic(fmt.Sprintf("simnet: host %s: received packet for unknown flow %s", h.hostID, packet.FlowID))
	}
	if packet.DestNodeID != h.hostID {
		panic(fmt.Sprintf("simnet: host %s: received packet addressed to %s", h.hostID, packet.DestNodeID))
	}
	flow.ReceivePacket(packet)
}

var _ Node = &Host{}
