package simnet

//
// Flow policy hooks (spec §4.4, §9 "Dynamic dispatch between flow
// variants"): the congestion-control behavior that distinguishes Reno
// from the delay-based variant is isolated behind a small interface so
// the rest of the sender-side state machine in [Flow] stays shared.
//

import "math"

// FlowPolicy supplies the five behaviors that distinguish one congestion
// controller from another. The shared packet-level state machine lives in
// [Flow]; a policy only ever reads and mutates that shared state.
type FlowPolicy interface {
	// Name identifies the policy, used in log messages.
	Name() string

	// OnNewAck is invoked after first_unacked has advanced on a new
	// cumulative ack, before the now-stale entries are garbage collected
	// from f.unacked. gcCount is the number of entries about to be
	// removed (ids below the new first_unacked), made available because
	// Reno's partial-ack handling during fast recovery needs it to deflate
	// dup_counter.
	OnNewAck(f *Flow, gcCount int)

	// OnTripleDup is invoked when the third consecutive duplicate ack on
	// first_unacked arrives, but only if CanFastRetransmit allowed it.
	OnTripleDup(f *Flow)

	// OnTimeoutEvent is invoked when a retransmission timer fires for a
	// packet still in flight.
	OnTimeoutEvent(f *Flow)

	// EffectiveWindow returns the real-valued window used to pace sends.
	EffectiveWindow(f *Flow) float64

	// CanFastRetransmit reports whether a third duplicate ack should
	// trigger OnTripleDup right now. The delay-based policy always
	// returns false (fast retransmit is disabled); Reno returns false
	// while already in fast recovery or still in slow start.
	CanFastRetransmit(f *Flow) bool
}

// baselineOnNewAck implements the Tahoe-like slow-start / congestion
// avoidance window growth shared by both variants' common ancestor (spec
// §4.4 "Baseline (Tahoe-like) behavior"). Reno calls this as the last step
// of its own OnNewAck once it has handled fast recovery.
func baselineOnNewAck(f *Flow) {
	if f.windowSize < f.ssthreshold {
		f.windowSize++
	} else {
		f.windowSize += 1 / math.Floor(f.windowSize)
	}
	f.dupCounter = 0
	f.recordWindow()
}

// baselineOnTripleDup implements the baseline ssthreshold/window reset on
// the third duplicate ack.
func baselineOnTripleDup(f *Flow) {
	f.ssthreshold = math.Max(f.windowSize/2, 1)
	f.windowSize = 1
	f.recordWindow()
}

// baselineOnTimeoutEvent implements the baseline ssthreshold/window reset
// on a retransmission timeout.
func baselineOnTimeoutEvent(f *Flow) {
	f.ssthreshold = math.Max(f.windowSize/2, 1)
	f.windowSize = 1
	f.dupCounter = 0
	f.recordWindow()
}
