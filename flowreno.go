package simnet

//
// Reno policy: loss-based congestion control with fast retransmit and
// fast recovery (spec §4.4 "Reno variant").
//

import "math"

// renoPolicy implements [FlowPolicy] with Reno-style fast retransmit and
// fast recovery. The zero value is ready to use.
type renoPolicy struct{}

// NewRenoFlow creates a flow using the Reno congestion-control policy and
// schedules its activation at startTime.
func NewRenoFlow(kernel *Kernel, flowID string, src, dest *Host, totalBits int64, startTime float64) *Flow {
	f := newFlow(kernel, flowID, src, dest, totalBits, startTime)
	f.policy = &renoPolicy{}
	f.start()
	return f
}

func (p *renoPolicy) Name() string {
	return "reno"
}

// CanFastRetransmit implements spec §4.4: "Triple-dup may only be acted
// on when not already in fast recovery and not in slow start."
func (p *renoPolicy) CanFastRetransmit(f *Flow) bool {
	return !f.fastRecovery && f.windowSize >= f.ssthreshold
}

// OnTripleDup implements the baseline ssthreshold/window reset plus
// entering fast recovery over the current in-flight bracket.
func (p *renoPolicy) OnTripleDup(f *Flow) {
	baselineOnTripleDup(f)
	f.fastRecovery = true
	f.firstPartialAck = minInFlight(f)
	f.lastPartialAck = maxInFlight(f)
}

// EffectiveWindow inflates the window by the duplicate-ack count while in
// fast recovery, permitting one new transmission per duplicate ack.
func (p *renoPolicy) EffectiveWindow(f *Flow) float64 {
	if f.fastRecovery {
		return f.windowSize + float64(f.dupCounter)
	}
	return f.windowSize
}

// OnNewAck implements partial-ack handling during fast recovery, and
// falls through to the baseline ack update once fast recovery has ended.
func (p *renoPolicy) OnNewAck(f *Flow, gcCount int) {
	if f.fastRecovery && f.firstUnacked <= f.lastPartialAck {
		f.retransmit(f.firstUnacked)
		f.canceledTimeouts[f.firstUnacked] = true
		f.dupCounter -= gcCount
		if f.dupCounter < 0 {
			f.dupCounter = 0
		}
		return
	}
	if f.fastRecovery {
		f.fastRecovery = false
		f.windowSize = math.Ceil(f.ssthreshold)
		f.dupCounter = 0
		f.recordWindow()
	}
	baselineOnNewAck(f)
}

// OnTimeoutEvent implements the baseline reset plus leaving fast recovery.
func (p *renoPolicy) OnTimeoutEvent(f *Flow) {
	baselineOnTimeoutEvent(f)
	f.fastRecovery = false
	f.firstPartialAck = 0
	f.lastPartialAck = 0
}

// minInFlight and maxInFlight scan f.unacked, which spec §3 models as a
// set rather than an ordered structure; Reno only needs the bracket's
// endpoints at the moment fast retransmit fires, which is infrequent
// enough that an O(window) scan is the right trade-off over keeping a
// sorted structure updated on every transmit/ack.
func minInFlight(f *Flow) int64 {
	var min int64
	first := true
	for id := range f.unacked {
		if first || id < min {
			min = id
			first = false
		}
	}
	return min
}

func maxInFlight(f *Flow) int64 {
	var max int64
	first := true
	for id := range f.unacked {
		if first || id > max {
			max = id
			first = false
		}
	}
	return max
}

var _ FlowPolicy = &renoPolicy{}
