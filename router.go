package simnet

//
// Router control plane: dynamic distance-vector routing with periodic
// re-evaluation, dynamic per-link cost, and poison reverse (spec §4.5).
//

import (
	"fmt"
	"math"
	"sort"
)

// routerLink pairs a link with the neighbour node reachable through it.
type routerLink struct {
	link      *Link
	neighbour string
}

// Router is a [Node] with possibly many attached links that forwards data
// and ack packets using a next-hop table it builds and maintains itself
// via a periodic distance-vector control-plane cycle. The zero value is
// invalid; use [NewRouter] to construct one.
type Router struct {
	routerID string
	kernel   *Kernel

	// links maps link id to the attached link and its neighbour node.
	links map[string]routerLink

	// routingTable maps destination node id to the chosen next hop.
	routingTable map[string]RoutingTableEntry

	// costTable maps destination -> (link id -> tentative cost via that
	// link), i.e. the per-neighbour distance vectors learned so far.
	costTable map[string]map[string]float64

	// adjLinkCosts is the last computed cost of each adjacent link.
	adjLinkCosts map[string]float64

	// seeded tracks whether the first control-plane cycle (which seeds
	// cost_table from scratch rather than adjusting deltas) has run.
	seeded bool
}

// NewRouter creates a new, portless [Router] and registers it with
// kernel. Attach links with [Router.AddLink], then call
// [Router.StartControlPlane] once the topology is fully built.
func NewRouter(kernel *Kernel, routerID string) *Router {
	r := &Router{
		routerID:     routerID,
		kernel:       kernel,
		links:        map[string]routerLink{},
		routingTable: map[string]RoutingTableEntry{},
		costTable:    map[string]map[string]float64{},
		adjLinkCosts: map[string]float64{},
		seeded:       false,
	}
	kernel.RegisterNode(r)
	return r
}

// ID implements Node.
func (r *Router) ID() string {
	return r.routerID
}

// AddLink attaches link to this router. neighbour is the node id on the
// other end of the link.
func (r *Router) AddLink(link *Link, neighbour string) {
	r.links[link.ID()] = routerLink{link: link, neighbour: neighbour}
}

// RoutingTable returns a snapshot of this router's current next-hop
// table.
func (r *Router) RoutingTable() map[string]RoutingTableEntry {
	out := make(map[string]RoutingTableEntry, len(r.routingTable))
	for k, v := range r.routingTable {
		out[k] = v
	}
	return out
}

// StartControlPlane schedules the first control-plane cycle immediately.
// Call this once every router and link in the topology has been created.
func (r *Router) StartControlPlane() {
	r.kernel.Schedule(0, fmt.Sprintf("router %s control-plane cycle", r.routerID), func() {
		r.runCycle()
	})
}

// linkCost computes the dynamic cost of an adjacent link (spec §4.5 step
// 1): static propagation delay plus queue-induced delay from both the
// packet count and the buffered bits currently sitting in the link.
func linkCost(link *Link) float64 {
	nPackets := float64(link.QueueLength())
	return link.PropDelay() + link.PropDelay()*nPackets + float64(link.BufferedBits())/link.CapacityBps()
}

// runCycle executes one control-plane cycle (spec §4.5 steps 1-5).
func (r *Router) runCycle() {
	// Step 1: recompute each adjacent link's cost.
	newCosts := make(map[string]float64, len(r.links))
	for linkID, rl := range r.links {
		newCosts[linkID] = linkCost(rl.link)
	}

	// Step 2: update the cost table.
	if !r.seeded {
		for linkID, rl := range r.links {
			if r.costTable[rl.neighbour] == nil {
				r.costTable[rl.neighbour] = map[string]float64{}
			}
			r.costTable[rl.neighbour][linkID] = newCosts[linkID]
		}
		r.seeded = true
	} else {
		for _, viaLinks := range r.costTable {
			for linkID, prevCost := range viaLinks {
				if newCost, ok := newCosts[linkID]; ok {
					viaLinks[linkID] = prevCost + (newCost - r.adjLinkCosts[linkID])
				}
			}
		}
	}
	r.adjLinkCosts = newCosts

	// Step 3: recompute the routing table (the periodic cycle advertises
	// unconditionally in step 4 below regardless of whether it changed;
	// onRoutingPacket below only advertises out-of-cycle on a real change).
	r.recomputeRoutingTable()

	// Step 4: advertise to neighbouring routers.
	r.sendRoutingPackets()

	// Step 5: schedule the next cycle.
	r.kernel.Schedule(ReroutePeriod, fmt.Sprintf("router %s control-plane cycle", r.routerID), func() {
		r.runCycle()
	})
}

// recomputeRoutingTable rebuilds routingTable from costTable, choosing for
// each destination the (link, cost) pair that minimizes cost, breaking
// ties by ascending link id for determinism (spec §4.5 step 3, and
// Testable Property 5). It reports whether the table changed.
func (r *Router) recomputeRoutingTable() bool {
	next := make(map[string]RoutingTableEntry, len(r.costTable))
	for dest, viaLinks := range r.costTable {
		if dest == r.routerID {
			continue
		}
		linkIDs := make([]string, 0, len(viaLinks))
		for linkID := range viaLinks {
			linkIDs = append(linkIDs, linkID)
		}
		sort.Strings(linkIDs)

		bestLink := ""
		bestCost := math.Inf(1)
		for _, linkID := range linkIDs {
			cost := viaLinks[linkID]
			if cost < bestCost {
				bestCost = cost
				bestLink = linkID
			}
		}
		if bestLink != "" && !math.IsInf(bestCost, 1) {
			next[dest] = RoutingTableEntry{LinkID: bestLink, Cost: bestCost}
		}
	}

	changed := !routingTablesEqual(r.routingTable, next)
	r.routingTable = next
	return changed
}

func routingTablesEqual(a, b map[string]RoutingTableEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for dest, entry := range a {
		other, ok := b[dest]
		if !ok || other != entry {
			return false
		}
	}
	return true
}

// sendRoutingPackets advertises this router's current routing table to
// every adjacent neighbour that is itself a router; hosts never receive
// routing packets (spec §4.5 step 4).
func (r *Router) sendRoutingPackets() {
	table := r.RoutingTable()
	for _, rl := range r.links {
		if !IsRouterID(rl.neighbour) {
			continue
		}
		packet := NewRoutingPacket(r.routerID, rl.neighbour, r.kernel.Now(), table)
		rl.link.Enqueue(packet, r.routerID)
	}
}

// Receive implements Node: it either updates the routing table (for a
// routing packet) or forwards the packet toward its destination using the
// current routing table (spec §4.5).
func (r *Router) Receive(packet *Packet, linkID string) {
	if packet.Kind == PacketKindRouting {
		r.onRoutingPacket(packet, linkID)
		return
	}
	r.forward(packet)
}

// forward looks up the outgoing link for packet's destination and
// enqueues it there. A destination absent from the routing table is a
// misconfigured topology and is a programming error (spec §4.5
// "Failure modes").
func (r *Router) forward(packet *Packet) {
	entry, ok := r.routingTable[packet.DestNodeID]
	if !ok {
		panic(fmt.Sprintf("simnet: router %s: no route to %s", r.routerID, packet.DestNodeID))
	}
	rl, ok := r.links[entry.LinkID]
	if !ok {
		panic(fmt.Sprintf("simnet: router %s: routing table refers to unknown link %s", r.routerID, entry.LinkID))
	}
	rl.link.Enqueue(packet, r.routerID)
}

// onRoutingPacket applies poison reverse and merges the sender's
// distance vector into this router's cost table (spec §4.5, "On receipt
// of a routing packet").
func (r *Router) onRoutingPacket(packet *Packet, adjLinkID string) {
	adjCost, ok := r.adjLinkCosts[adjLinkID]
	if !ok {
		// the link's cost hasn't been computed yet (e.g. a routing packet
		// raced the first control-plane cycle); treat it as zero extra cost.
		adjCost = 0
	}

	for dest, entry := range packet.RoutingTable {
		if dest == r.routerID {
			continue
		}

		senderCost := entry.Cost
		if entry.LinkID == adjLinkID {
			// poison reverse: the sender reaches dest back through us.
			senderCost = math.Inf(1)
		}

		if r.costTable[dest] == nil {
			r.costTable[dest] = map[string]float64{}
		}
		r.costTable[dest][adjLinkID] = senderCost + adjCost
	}

	if r.recomputeRoutingTable() {
		r.kernel.Schedule(0, fmt.Sprintf("router %s out-of-cycle advertise", r.routerID), func() {
			r.sendRoutingPackets()
		})
	}
}

var _ Node = &Router{}
