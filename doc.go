// Package simnet is a discrete-event simulator of a small packet-switched
// network of hosts and routers connected by finite-buffer, full-duplex
// links.
//
// The simulator is driven by a single [Kernel], which owns a virtual clock
// and a min-priority queue of future events (see [Kernel.Schedule] and
// [Kernel.Run]). Everything else — [Link] transmission, [Flow] pacing and
// retransmission, [Router] route computation — happens by scheduling more
// events on that same queue; there is no wall-clock time and no real
// network I/O anywhere in this package.
//
// A [Flow] moves a fixed number of bytes from one [Host] to another using
// one of two interchangeable congestion-control policies: [NewRenoFlow]
// (loss-based, Reno-style fast retransmit/fast recovery) or
// [NewFastDelayFlow] (delay-based, periodic window update from the
// observed RTT). Both share the same packet-level state machine in
// [Flow]; only the five policy hooks in [FlowPolicy] differ.
//
// [Router] runs a distance-vector routing control plane independently of
// the data plane: it re-evaluates adjacent link costs and exchanges
// routing packets with its router neighbours on a fixed period,
// recomputing its next-hop table and applying poison reverse to suppress
// routing loops.
//
// The [Metrics] interface is a passive observer registered on the
// [Kernel]; nothing in this package ever reads back from it, so recording
// a sample can never change simulation behavior.
//
// Topologies are normally loaded from JSON using
// github.com/bassosimone/simnet/internal/topology, and a simulation is
// driven end to end by the github.com/bassosimone/simnet/cmd/simnet CLI;
// both of those are outer collaborators, not part of the simulation core.
package simnet
