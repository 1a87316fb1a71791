package simnet

//
// Core data model: packets, constants, logger.
//

import "fmt"

// PacketKind distinguishes the three packet variants the simulator moves.
type PacketKind int

const (
	// PacketKindData carries a fragment of a flow's payload.
	PacketKindData = PacketKind(iota)

	// PacketKindAck acknowledges one or more data packets.
	PacketKindAck

	// PacketKindRouting carries a router's routing-table snapshot.
	PacketKindRouting
)

// String implements fmt.Stringer.
func (k PacketKind) String() string {
	switch k {
	case PacketKindData:
		return "data"
	case PacketKindAck:
		return "ack"
	case PacketKindRouting:
		return "routing"
	default:
		return "unknown"
	}
}

// Size, in bits, of each packet kind. Data packets are 1024 bytes, acks are
// 64 bytes, and routing packets are 128 bytes, all converted to bits.
const (
	DataSizeBits    = 1024 * 8
	AckSizeBits     = 64 * 8
	RoutingSizeBits = 128 * 8
)

// Protocol timing constants, see spec §6.
const (
	// TimeoutDelay is the sender's retransmission timer.
	TimeoutDelay = 1.0

	// ReroutePeriod is the router control-plane cycle period.
	ReroutePeriod = 5.0

	// WindowUpdatePeriod is the delay-based policy's window update period.
	WindowUpdatePeriod = 0.020

	// DelayGamma is the smoothing factor used by the delay-based policy.
	DelayGamma = 0.5

	// DelayAlpha is the additive term used by the delay-based policy.
	DelayAlpha = 15.0
)

// RoutingTableEntry is a single row of a router's next-hop table, as
// carried inside a [PacketKindRouting] packet's payload.
type RoutingTableEntry struct {
	// LinkID is the outgoing link chosen for this destination.
	LinkID string

	// Cost is the total cost to reach the destination via LinkID.
	Cost float64
}

// Packet is an immutable value carried over a [Link]. Routing packets
// additionally populate RoutingTable with the sender's routing-table
// snapshot; other kinds leave it nil.
type Packet struct {
	// PacketID is non-negative and unique within FlowID.
	PacketID int64

	// FlowID identifies the owning flow. Empty for routing packets, which
	// aren't attached to any flow.
	FlowID string

	// SrcNodeID is the node id of the packet's original sender.
	SrcNodeID string

	// DestNodeID is the node id of the packet's final destination.
	DestNodeID string

	// SizeBits is the packet's size in bits.
	SizeBits int64

	// Timestamp is the virtual time at which this packet (or, for an ack,
	// the data packet it acknowledges) was originally emitted.
	Timestamp float64

	// Kind distinguishes data, ack, and routing packets.
	Kind PacketKind

	// RoutingTable is non-nil only for PacketKindRouting packets.
	RoutingTable map[string]RoutingTableEntry
}

// String implements fmt.Stringer, mostly for log messages.
func (p *Packet) String() string {
	return fmt.Sprintf("%s#%d(%s->%s,%d bits)", p.Kind, p.PacketID, p.SrcNodeID, p.DestNodeID, p.SizeBits)
}

// NewDataPacket creates a new data packet.
func NewDataPacket(flowID string, packetID int64, src, dest string, timestamp float64) *Packet {
	return &Packet{
		PacketID:   packetID,
		FlowID:     flowID,
		SrcNodeID:  src,
		DestNodeID: dest,
		SizeBits:   DataSizeBits,
		Timestamp:  timestamp,
		Kind:       PacketKindData,
	}
}

// NewAckPacket creates a new ack packet. The timestamp is copied from the
// data packet being acknowledged so the sender can compute this packet's
// RTT once the ack arrives back.
func NewAckPacket(flowID string, packetID int64, src, dest string, timestamp float64) *Packet {
	return &Packet{
		PacketID:   packetID,
		FlowID:     flowID,
		SrcNodeID:  src,
		DestNodeID: dest,
		SizeBits:   AckSizeBits,
		Timestamp:  timestamp,
		Kind:       PacketKindAck,
	}
}

// NewRoutingPacket creates a new routing packet carrying a snapshot of the
// sender's routing table.
func NewRoutingPacket(src, dest string, timestamp float64, table map[string]RoutingTableEntry) *Packet {
	return &Packet{
		PacketID:     0,
		FlowID:       "",
		SrcNodeID:    src,
		DestNodeID:   dest,
		SizeBits:     RoutingSizeBits,
		Timestamp:    timestamp,
		Kind:         PacketKindRouting,
		RoutingTable: table,
	}
}

// Logger is the logging interface used throughout this package. The
// concrete implementation used by the CLI is github.com/apex/log; tests
// that don't care about log output use internal/nulllog or, inside this
// package, a local no-op logger.
type Logger interface {
	// Debugf formats and emits a debug message.
	Debugf(format string, v ...any)

	// Debug emits a debug message.
	Debug(message string)

	// Infof formats and emits an informational message.
	Infof(format string, v ...any)

	// Info emits an informational message.
	Info(message string)

	// Warnf formats and emits a warning message.
	Warnf(format string, v ...any)

	// Warn emits a warning message.
	Warn(message string)
}

// Node is any addressable endpoint a [Link] can deliver a packet to: a
// [Host] or a [Router].
type Node interface {
	// ID returns this node's id.
	ID() string

	// Receive handles a packet arriving over linkID.
	Receive(packet *Packet, linkID string)
}

// IsHostID reports whether id follows the host naming convention ("H"
// prefix) as opposed to the router convention ("R" prefix). The control
// plane uses [IsRouterID] to decide whether to advertise routes to a
// neighbour.
func IsHostID(id string) bool {
	return len(id) > 0 && id[0] == 'H'
}

// IsRouterID reports whether id follows the router naming convention.
func IsRouterID(id string) bool {
	return len(id) > 0 && id[0] == 'R'
}
