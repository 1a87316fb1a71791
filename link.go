package simnet

//
// Link transmission pipeline: a tail-drop buffer feeding a serialiser
// followed by a propagation pipe (spec §4.2).
//

import "fmt"

// linkQueueEntry is one packet waiting to be serialised, paired with the
// endpoint it is headed for.
type linkQueueEntry struct {
	packet *Packet
	dest   string
}

// Link is a full-duplex, point-to-point channel between exactly two
// nodes. It is modelled as a single FIFO queue shared by both directions
// (spec §4.2's "Open question — single-queue vs per-direction link": this
// implementation picks the single-queue design and holds it invariant),
// feeding a transmitter that serialises one packet at a time onto the
// wire, followed by a propagation delay before delivery.
//
// The zero value is invalid; use [NewLink] to construct one.
type Link struct {
	linkID        string
	capacityBps   float64
	propDelaySec  float64
	maxBufferBits int64

	endpointA string
	endpointB string

	kernel *Kernel

	queue        []linkQueueEntry
	bufferedBits int64
	transmitting bool
}

// NewLink creates a new [Link] between endpointA and endpointB and
// registers it with kernel. The link starts idle.
func NewLink(kernel *Kernel, linkID string, capacityBps, propDelaySec float64, maxBufferBits int64, endpointA, endpointB string) *Link {
	l := &Link{
		linkID:        linkID,
		capacityBps:   capacityBps,
		propDelaySec:  propDelaySec,
		maxBufferBits: maxBufferBits,
		endpointA:     endpointA,
		endpointB:     endpointB,
		kernel:        kernel,
		queue:         []linkQueueEntry{},
		bufferedBits:  0,
		transmitting:  false,
	}
	kernel.RegisterLink(l)
	return l
}

// ID returns this link's id.
func (l *Link) ID() string {
	return l.linkID
}

// BufferedBits returns the current queue occupancy in bits.
func (l *Link) BufferedBits() int64 {
	return l.bufferedBits
}

// QueueLength returns the number of packets currently queued.
func (l *Link) QueueLength() int {
	return len(l.queue)
}

// PropDelay returns the link's fixed propagation delay.
func (l *Link) PropDelay() float64 {
	return l.propDelaySec
}

// CapacityBps returns the link's capacity in bits per unit time.
func (l *Link) CapacityBps() float64 {
	return l.capacityBps
}

// otherEndpoint returns the endpoint opposite fromNodeID, or an error if
// fromNodeID is neither endpoint (spec §4.2 step 1).
func (l *Link) otherEndpoint(fromNodeID string) (string, error) {
	switch fromNodeID {
	case l.endpointA:
		return l.endpointB, nil
	case l.endpointB:
		return l.endpointA, nil
	default:
		return "", fmt.Errorf("simnet: link %s: %s is not an endpoint of this link", l.linkID, fromNodeID)
	}
}

// Enqueue attempts to enqueue packet, sent from fromNodeID, onto this
// link. It drops the packet (reporting a loss sample) if doing so would
// exceed the buffer capacity. Enqueueing from a node that is not one of
// this link's two endpoints is a programming error and panics.
func (l *Link) Enqueue(packet *Packet, fromNodeID string) {
	dest, err := l.otherEndpoint(fromNodeID)
	Must0(err)

	if l.bufferedBits+packet.SizeBits > l.maxBufferBits {
		l.kernel.Metrics().RecordPacketLoss(l.linkID, l.kernel.Now())
		l.kernel.Logger().Debugf("simnet: link %s: dropped %s (buffer full)", l.linkID, packet)
		return
	}

	l.queue = append(l.queue, linkQueueEntry{packet: packet, dest: dest})
	l.bufferedBits += packet.SizeBits
	l.kernel.Metrics().RecordBufferOccupancy(l.linkID, len(l.queue), l.kernel.Now())

	if !l.transmitting {
		l.beginTransmission()
	}
}

// beginTransmission starts serialising the head-of-queue packet onto the
// wire; it schedules startPropagation to fire once serialisation
// completes (spec §4.2, "Transmission of the head entry").
func (l *Link) beginTransmission() {
	if len(l.queue) == 0 {
		l.transmitting = false
		return
	}
	l.transmitting = true
	head := l.queue[0]
	serialiseDelay := float64(head.packet.SizeBits) / l.capacityBps
	l.kernel.Schedule(serialiseDelay, fmt.Sprintf("link %s start-propagation", l.linkID), func() {
		l.startPropagation()
	})
}

// startPropagation removes the head packet from the queue, accounting for
// its departure from the buffer, and schedules delivery after the
// propagation delay. If another packet is queued, its transmission begins
// immediately (spec §4.2, "At start_propagation").
func (l *Link) startPropagation() {
	head := l.queue[0]
	l.queue = l.queue[1:]
	l.bufferedBits -= head.packet.SizeBits
	l.kernel.Metrics().RecordBufferOccupancy(l.linkID, len(l.queue), l.kernel.Now())

	l.kernel.Schedule(l.propDelaySec, fmt.Sprintf("link %s deliver", l.linkID), func() {
		l.deliver(head)
	})

	l.beginTransmission()
}

// deliver hands the packet to its destination node and reports the
// link-rate metric (spec §4.2, "At deliver").
func (l *Link) deliver(entry linkQueueEntry) {
	dest := l.kernel.Node(entry.dest)
	if dest == nil {
		panic(fmt.Sprintf("simnet: link %s: destination node %s is not registered", l.linkID, entry.dest))
	}
	dest.Receive(entry.packet, l.linkID)
	l.kernel.Metrics().RecordLinkRate(l.linkID, entry.packet.SizeBits, l.kernel.Now())
}
