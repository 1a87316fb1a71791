package simnet

//
// Flow: the common sender/receiver state machine shared by the Reno and
// delay-based congestion controllers (spec §4.4).
//

import (
	"fmt"
	"math"
)

// Flow is a unidirectional transfer of a fixed number of bytes between two
// hosts. It owns the congestion window and retransmission state for the
// forward direction and the cumulative-ack bookkeeping for the reverse
// direction. The zero value is invalid; use [NewRenoFlow] or
// [NewFastDelayFlow] to construct one.
type Flow struct {
	// FlowID uniquely identifies this flow.
	FlowID string

	kernel    *Kernel
	srcHost   *Host
	destHost  *Host
	srcID     string
	destID    string
	startTime float64
	policy    FlowPolicy

	numPackets int64

	// sender-side state (spec §3 Flow attributes table)
	windowSize       float64
	firstUnacked     int64
	unacked          map[int64]bool
	dupCounter       int
	canceledTimeouts map[int64]bool
	ssthreshold      float64
	lastRTT          float64
	baseRTT          float64
	completed        bool

	// Reno-only state; zero valued and unused by other policies.
	fastRecovery    bool
	firstPartialAck int64
	lastPartialAck  int64

	// receiver-side state: an always-increasing watermark plus a bitmap of
	// out-of-order ids (spec §9's suggested alternative to an ordered set).
	received      []bool
	recvWatermark int64
}

// newFlow builds the state shared by all policy variants; it does not
// register the flow with the kernel or schedule its start, since that
// needs to happen after the caller has set the policy field.
func newFlow(kernel *Kernel, flowID string, src, dest *Host, totalBits int64, startTime float64) *Flow {
	numPackets := (totalBits + DataSizeBits - 1) / DataSizeBits
	f := &Flow{
		FlowID:           flowID,
		kernel:           kernel,
		srcHost:          src,
		destHost:         dest,
		srcID:            src.ID(),
		destID:           dest.ID(),
		startTime:        startTime,
		numPackets:       numPackets,
		windowSize:       1,
		firstUnacked:     0,
		unacked:          map[int64]bool{},
		dupCounter:       0,
		canceledTimeouts: map[int64]bool{},
		ssthreshold:      math.Inf(1),
		lastRTT:          math.Inf(1),
		baseRTT:          math.Inf(1),
		received:         make([]bool, numPackets),
		recvWatermark:    0,
	}
	return f
}

// start registers the flow with the kernel and schedules its activation
// at f.startTime (spec §3 "Lifecycle").
func (f *Flow) start() {
	f.kernel.RegisterFlow(f)
	f.srcHost.AttachFlow(f)
	f.destHost.AttachFlow(f)
	f.kernel.Schedule(f.startTime, fmt.Sprintf("flow %s start", f.FlowID), func() {
		f.sendWindow()
	})
}

// NumPackets returns the total number of data packets this flow will send.
func (f *Flow) NumPackets() int64 {
	return f.numPackets
}

// FirstUnacked returns the smallest packet id not yet cumulatively acked.
func (f *Flow) FirstUnacked() int64 {
	return f.firstUnacked
}

// WindowSize returns the raw congestion window (not the effective, pacing
// window a policy may inflate).
func (f *Flow) WindowSize() float64 {
	return f.windowSize
}

// Completed reports whether this flow has delivered every packet.
func (f *Flow) Completed() bool {
	return f.completed
}

// InFlight returns the number of packets currently awaiting an ack.
func (f *Flow) InFlight() int {
	return len(f.unacked)
}

// recordWindow reports the current window to metrics; policies call this
// any time they change windowSize.
func (f *Flow) recordWindow() {
	f.kernel.Metrics().RecordWindowSize(f.FlowID, f.windowSize, f.kernel.Now())
}

// sendWindow is the pacing invariant (spec §4.4 "send_window()"): it scans
// packet ids starting at first_unacked, creating and transmitting a fresh
// packet for every id not already in flight, until the in-flight count
// reaches the policy's effective window or every packet has been sent.
func (f *Flow) sendWindow() {
	if f.completed {
		return
	}
	limit := int64(math.Floor(f.policy.EffectiveWindow(f)))
	id := f.firstUnacked
	for int64(len(f.unacked)) < limit && id < f.numPackets {
		if !f.unacked[id] {
			f.transmit(id)
		}
		id++
	}
}

// transmit creates and sends a fresh copy of data packet id, marks it in
// flight, and arms its retransmission timer (spec §4.4 "Sender side").
func (f *Flow) transmit(id int64) {
	packet := NewDataPacket(f.FlowID, id, f.srcID, f.destID, f.kernel.Now())
	f.unacked[id] = true
	f.srcHost.Send(packet)
	f.kernel.Schedule(TimeoutDelay, fmt.Sprintf("flow %s timeout %d", f.FlowID, id), func() {
		f.onTimeout(id)
	})
}

// retransmit resends data packet id, re-arming its retransmission timer.
func (f *Flow) retransmit(id int64) {
	f.transmit(id)
}

// onTimeout handles a retransmission timer firing (spec §4.4
// "on_timeout(packet_id)"). Timeouts are never removed from the event
// queue; instead a fired timeout for a packet recorded in
// canceled_timeouts is a no-op (spec §5 "Cancellation").
func (f *Flow) onTimeout(packetID int64) {
	if f.canceledTimeouts[packetID] {
		delete(f.canceledTimeouts, packetID)
		return
	}
	if f.unacked[packetID] {
		f.policy.OnTimeoutEvent(f)
		f.unacked = map[int64]bool{}
		f.sendWindow()
	}
}

// onAck handles an ack packet arriving at the sender (spec §4.4
// "on_ack(ack)").
func (f *Flow) onAck(ack *Packet) {
	rtt := f.kernel.Now() - ack.Timestamp
	f.kernel.Metrics().RecordRTT(f.FlowID, rtt, f.kernel.Now())
	f.lastRTT = rtt
	if rtt < f.baseRTT {
		f.baseRTT = rtt
	}

	switch {
	case ack.PacketID > f.firstUnacked:
		f.firstUnacked = ack.PacketID
		gcCount := 0
		for id := range f.unacked {
			if id < f.firstUnacked {
				gcCount++
			}
		}
		f.policy.OnNewAck(f, gcCount)
		for id := range f.unacked {
			if id < f.firstUnacked {
				delete(f.unacked, id)
			}
		}
		if f.firstUnacked >= f.numPackets && !f.completed {
			f.completed = true
			f.kernel.DecrementActiveFlows()
		}
		f.sendWindow()

	case ack.PacketID == f.firstUnacked:
		f.dupCounter++
		f.sendWindow()
		if f.dupCounter == 3 && f.policy.CanFastRetransmit(f) {
			f.policy.OnTripleDup(f)
			f.retransmit(f.firstUnacked)
			f.canceledTimeouts[f.firstUnacked] = true
		}
	}
}

// onDataPacket handles a data packet arriving at the receiver (spec §4.4
// "Receiver side"): it marks the id received, advances the watermark past
// any now-contiguous run, and emits a cumulative ack whose id is the
// smallest id still missing (or num_packets if none is missing).
func (f *Flow) onDataPacket(packet *Packet) {
	if packet.PacketID >= 0 && packet.PacketID < f.numPackets {
		f.received[packet.PacketID] = true
	}
	for f.recvWatermark < f.numPackets && f.received[f.recvWatermark] {
		f.recvWatermark++
	}
	ack := NewAckPacket(f.FlowID, f.recvWatermark, f.destID, f.srcID, packet.Timestamp)
	f.destHost.Send(ack)
}

// ReceivePacket dispatches an arriving packet to the sender- or
// receiver-side handler depending on its kind.
func (f *Flow) ReceivePacket(packet *Packet) {
	switch packet.Kind {
	case PacketKindData:
		f.onDataPacket(packet)
	case PacketKindAck:
		f.onAck(packet)
	default:
		panic(fmt.Sprintf("simnet: flow %s: unexpected packet kind %s", f.FlowID, packet.Kind))
	}
}
