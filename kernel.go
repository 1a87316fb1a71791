package simnet

//
// Event-driven simulation kernel: virtual clock, ordered event queue,
// dispatch loop.
//

import (
	"container/heap"
	"math"

	"github.com/rs/xid"
)

// EventCallback is the function invoked when a scheduled event fires.
type EventCallback func()

// event is one entry in the kernel's event queue. The zero value is
// invalid; events are only ever constructed by [Kernel.Schedule].
type event struct {
	// time is the virtual time at which this event fires.
	time float64

	// seq is the insertion sequence number, used to break ties between
	// events scheduled for the same virtual time: lower seq fires first.
	seq uint64

	// trace is a correlation id used only for log messages; it never
	// participates in event ordering.
	trace xid.ID

	// description is a short human-readable label, used for log messages.
	description string

	// callback is invoked when this event fires.
	callback EventCallback
}

// eventHeap implements container/heap.Interface over a min-heap of
// [event] ordered by (time, seq). No third-party priority queue was found
// anywhere in the retrieval pack, so this is implemented against the
// standard library's container/heap — see DESIGN.md.
type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Kernel is the discrete-event simulator: it owns the virtual clock, the
// min-priority event queue, and the registries of nodes, links, and
// flows. The zero value is invalid; use [NewKernel] to construct one.
type Kernel struct {
	// curTime is the virtual clock, monotonically non-decreasing.
	curTime float64

	// queue is the pending-event min-heap.
	queue eventHeap

	// seq is the next insertion sequence number to assign.
	seq uint64

	// activeFlows counts flows that have not yet completed.
	activeFlows int

	// logger is the logger used for kernel-level messages.
	logger Logger

	// metrics is the passive observer registered on this kernel.
	metrics Metrics

	// nodes maps node id to [Node].
	nodes map[string]Node

	// links maps link id to [*Link].
	links map[string]*Link

	// flows maps flow id to [*Flow].
	flows map[string]*Flow
}

// NewKernel creates a new, empty [Kernel]. Pass nil for metrics to use
// [NewNullMetrics].
func NewKernel(logger Logger, metrics Metrics) *Kernel {
	if metrics == nil {
		metrics = NewNullMetrics()
	}
	return &Kernel{
		curTime:     0,
		queue:       eventHeap{},
		seq:         0,
		activeFlows: 0,
		logger:      logger,
		metrics:     metrics,
		nodes:       map[string]Node{},
		links:       map[string]*Link{},
		flows:       map[string]*Flow{},
	}
}

// Now returns the current virtual time.
func (k *Kernel) Now() float64 {
	return k.curTime
}

// Logger returns the kernel's logger.
func (k *Kernel) Logger() Logger {
	return k.logger
}

// Metrics returns the kernel's metrics observer.
func (k *Kernel) Metrics() Metrics {
	return k.metrics
}

// Schedule inserts a new event firing delay seconds from now, which
// invokes callback when it fires. description is used only for log
// messages. Scheduling with a negative delay is a programming error and
// aborts the simulation, per spec §4.1.
func (k *Kernel) Schedule(delay float64, description string, callback EventCallback) {
	if delay < 0 {
		panic("simnet: kernel: Schedule called with negative delay")
	}
	ev := &event{
		time:        k.curTime + delay,
		seq:         k.seq,
		trace:       xid.New(),
		description: description,
		callback:    callback,
	}
	k.seq++
	heap.Push(&k.queue, ev)
	k.logger.Debugf("simnet: kernel: [%s] scheduled %q at t=%f", ev.trace, description, ev.time)
}

// RegisterNode registers a node with the kernel.
func (k *Kernel) RegisterNode(n Node) {
	k.nodes[n.ID()] = n
}

// Node returns the node with the given id, or nil.
func (k *Kernel) Node(id string) Node {
	return k.nodes[id]
}

// RegisterLink registers a link with the kernel.
func (k *Kernel) RegisterLink(l *Link) {
	k.links[l.ID()] = l
}

// Link returns the link with the given id, or nil.
func (k *Kernel) Link(id string) *Link {
	return k.links[id]
}

// Links returns all registered links.
func (k *Kernel) Links() []*Link {
	out := make([]*Link, 0, len(k.links))
	for _, l := range k.links {
		out = append(out, l)
	}
	return out
}

// RegisterFlow registers a flow and increments the active-flow counter.
func (k *Kernel) RegisterFlow(f *Flow) {
	k.flows[f.FlowID] = f
	k.activeFlows++
}

// Flow returns the flow with the given id, or nil.
func (k *Kernel) Flow(id string) *Flow {
	return k.flows[id]
}

// Flows returns all registered flows.
func (k *Kernel) Flows() []*Flow {
	out := make([]*Flow, 0, len(k.flows))
	for _, f := range k.flows {
		out = append(out, f)
	}
	return out
}

// ActiveFlows returns the number of flows that have not yet completed.
func (k *Kernel) ActiveFlows() int {
	return k.activeFlows
}

// DecrementActiveFlows is called by a [Flow] once it completes.
func (k *Kernel) DecrementActiveFlows() {
	k.activeFlows--
}

// Run drains the event queue, stopping when the queue is empty, when
// there are no more active flows, or when the virtual clock reaches
// until, whichever happens first. Pass [math.Inf](1) to run to
// completion.
func (k *Kernel) Run(until float64) {
	for {
		if len(k.queue) == 0 {
			return
		}
		if k.activeFlows == 0 {
			return
		}
		next := k.queue[0]
		if next.time >= until {
			return
		}
		k.Step()
	}
}

// RunToCompletion is a convenience wrapper for Run(math.Inf(1)).
func (k *Kernel) RunToCompletion() {
	k.Run(math.Inf(1))
}

// Step pops and invokes exactly one event, advancing the virtual clock to
// its scheduled time. It is a no-op if the queue is empty. Tests use Step
// to assert the invariants in spec §8 hold at every event boundary.
func (k *Kernel) Step() {
	if len(k.queue) == 0 {
		return
	}
	ev := heap.Pop(&k.queue).(*event)
	if ev.time < k.curTime {
		panic("simnet: kernel: event queue popped an event scheduled in the past")
	}
	k.curTime = ev.time
	k.logger.Debugf("simnet: kernel: [%s] firing %q at t=%f", ev.trace, ev.description, k.curTime)
	ev.callback()
}

// Pending returns the number of events still queued.
func (k *Kernel) Pending() int {
	return len(k.queue)
}
