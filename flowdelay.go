package simnet

//
// FastDelay policy: delay-based congestion control driven by a periodic
// window update rather than by ack arrivals (spec §4.4 "Delay-based
// variant"). The name echoes the "fast_tcp.py" / "tcp_fast.py" delay-based
// controller in the original implementation (_examples/original_source/).
//

import (
	"fmt"
	"math"
)

// fastDelayPolicy implements [FlowPolicy] with a periodic, RTT-ratio
// window update and no loss-based reaction at all.
type fastDelayPolicy struct{}

// NewFastDelayFlow creates a flow using the delay-based congestion-control
// policy, schedules its activation at startTime, and arms the periodic
// window-update timer (spec §4.4: "A periodic event, independent of ack
// arrivals, fires every WINDOW_UPDATE_PERIOD").
func NewFastDelayFlow(kernel *Kernel, flowID string, src, dest *Host, totalBits int64, startTime float64) *Flow {
	f := newFlow(kernel, flowID, src, dest, totalBits, startTime)
	f.policy = &fastDelayPolicy{}
	f.start()
	scheduleWindowUpdate(f)
	return f
}

// scheduleWindowUpdate arms the next periodic window-update event. It
// re-arms itself until the flow completes.
func scheduleWindowUpdate(f *Flow) {
	f.kernel.Schedule(WindowUpdatePeriod, fmt.Sprintf("flow %s window-update", f.FlowID), func() {
		onWindowUpdate(f)
	})
}

// onWindowUpdate applies the delay-based window formula (spec §4.4) and
// re-arms itself, unless the flow has already completed.
func onWindowUpdate(f *Flow) {
	if f.completed {
		return
	}
	if !math.IsInf(f.lastRTT, 1) {
		grown := 2 * f.windowSize
		ratio := f.baseRTT / f.lastRTT
		adjusted := (1-DelayGamma)*f.windowSize + DelayGamma*(ratio*f.windowSize+DelayAlpha)
		if adjusted < grown {
			f.windowSize = adjusted
		} else {
			f.windowSize = grown
		}
		f.recordWindow()
	}
	f.sendWindow()
	scheduleWindowUpdate(f)
}

func (p *fastDelayPolicy) Name() string {
	return "fast_delay"
}

// CanFastRetransmit implements spec §4.4: "on_triple_dup is disabled" for
// the delay-based policy.
func (p *fastDelayPolicy) CanFastRetransmit(f *Flow) bool {
	return false
}

// OnTripleDup is never invoked since CanFastRetransmit always returns
// false, but is implemented to satisfy [FlowPolicy].
func (p *fastDelayPolicy) OnTripleDup(f *Flow) {
}

// EffectiveWindow returns the raw window; the delay-based policy never
// inflates it on duplicate acks.
func (p *fastDelayPolicy) EffectiveWindow(f *Flow) float64 {
	return f.windowSize
}

// OnNewAck only performs the metric/transmission bookkeeping common to
// every new ack; it does not change windowSize (spec §4.4: "on_new_ack
// performs only the metric updates and transmission; it does not change
// window_size").
func (p *fastDelayPolicy) OnNewAck(f *Flow, gcCount int) {
}

// OnTimeoutEvent retransmits (via the caller's clearing of f.unacked and
// subsequent send_window call) without resetting the window (spec §4.4:
// "retransmits only; it does not reset the window").
func (p *fastDelayPolicy) OnTimeoutEvent(f *Flow) {
}

var _ FlowPolicy = &fastDelayPolicy{}
