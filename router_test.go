package simnet

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRouterRecomputeRoutingTable(t *testing.T) {
	// testcase describes one costTable snapshot and the routingTable it
	// must produce.
	type testcase struct {
		name      string
		costTable map[string]map[string]float64
		want      map[string]RoutingTableEntry
	}

	var testcases = []testcase{{
		name: "picks the lowest-cost link",
		costTable: map[string]map[string]float64{
			"HB": {"L1": 5, "L2": 3},
		},
		want: map[string]RoutingTableEntry{
			"HB": {LinkID: "L2", Cost: 3},
		},
	}, {
		name: "breaks ties by ascending link id",
		costTable: map[string]map[string]float64{
			"HB": {"L9": 4, "L2": 4, "L5": 4},
		},
		want: map[string]RoutingTableEntry{
			"HB": {LinkID: "L2", Cost: 4},
		},
	}, {
		name: "skips destinations only reachable at infinite cost",
		costTable: map[string]map[string]float64{
			"HB": {"L1": math.Inf(1)},
		},
		want: map[string]RoutingTableEntry{},
	}}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			k := NewKernel(testLogger{}, nil)
			r := NewRouter(k, "R1")
			r.costTable = tc.costTable

			r.recomputeRoutingTable()

			if diff := cmp.Diff(tc.want, r.routingTable); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestRouterRecomputeRoutingTableReportsChange(t *testing.T) {
	k := NewKernel(testLogger{}, nil)
	r := NewRouter(k, "R1")
	r.costTable = map[string]map[string]float64{"HB": {"L1": 5}}

	if !r.recomputeRoutingTable() {
		t.Fatal("expected the routing table to change from empty")
	}
	if r.recomputeRoutingTable() {
		t.Fatal("expected no change recomputing from the same cost table")
	}
}

func TestRouterPoisonReverse(t *testing.T) {
	k := NewKernel(testLogger{}, nil)
	r := NewRouter(k, "R2")
	r.adjLinkCosts["L-R1-R2"] = 1

	// R1 advertises that it reaches HA via the very link R2 received this
	// advertisement on: R2 must treat that route as infinite cost rather
	// than adopting it as its own route back to HA (spec §4.5 poison
	// reverse).
	advertisement := NewRoutingPacket("R1", "R2", 0, map[string]RoutingTableEntry{
		"HA": {LinkID: "L-R1-R2", Cost: 2},
	})
	r.onRoutingPacket(advertisement, "L-R1-R2")

	cost := r.costTable["HA"]["L-R1-R2"]
	if !math.IsInf(cost, 1) {
		t.Fatalf("expected poison reverse to record infinite cost, got %f", cost)
	}
	if _, ok := r.routingTable["HA"]; ok {
		t.Fatal("expected no route to HA to survive poison reverse with no other path")
	}
}

func TestRouterOnRoutingPacketSchedulesOutOfCycleAdvertiseOnChange(t *testing.T) {
	k := NewKernel(testLogger{}, nil)
	r := NewRouter(k, "R2")
	r.adjLinkCosts["L1"] = 1

	pendingBefore := k.Pending()
	advertisement := NewRoutingPacket("R1", "R2", 0, map[string]RoutingTableEntry{
		"HA": {LinkID: "L-other", Cost: 2},
	})
	r.onRoutingPacket(advertisement, "L1")

	if k.Pending() <= pendingBefore {
		t.Fatal("expected a routing-table change to schedule an out-of-cycle advertisement")
	}
}

func TestRouterForwardUsesRoutingTable(t *testing.T) {
	k := NewKernel(testLogger{}, nil)
	r := NewRouter(k, "R1")
	link := NewLink(k, "L1", 1e9, 0, 1e9, "R1", "HB")
	r.AddLink(link, "HB")
	b := &fakeNode{id: "HB"}
	k.RegisterNode(b)

	r.routingTable["HB"] = RoutingTableEntry{LinkID: "L1", Cost: 1}
	k.activeFlows = 1 // pretend a flow is active so Run doesn't bail early

	pkt := NewDataPacket("F1", 0, "HA", "HB", 0)
	r.forward(pkt)
	k.RunToCompletion()

	if len(b.received) != 1 {
		t.Fatalf("expected the packet to be forwarded and delivered, got %d deliveries", len(b.received))
	}
}

func TestRouterForwardPanicsWithoutRoute(t *testing.T) {
	k := NewKernel(testLogger{}, nil)
	r := NewRouter(k, "R1")

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic forwarding to an unknown destination")
		}
	}()
	r.forward(NewDataPacket("F1", 0, "HA", "HB", 0))
}

func TestRouterControlPlaneConverges(t *testing.T) {
	// HA - R1 - R2 - HB, and verify R1 eventually learns a route to HB.
	k := NewKernel(testLogger{}, nil)

	linkAR1 := NewLink(k, "L-A-R1", 1e9, 0.01, 1e9, "HA", "R1")
	linkR1R2 := NewLink(k, "L-R1-R2", 1e9, 0.01, 1e9, "R1", "R2")
	linkR2B := NewLink(k, "L-R2-B", 1e9, 0.01, 1e9, "R2", "HB")

	NewHost(k, "HA", linkAR1)
	NewHost(k, "HB", linkR2B)

	r1 := NewRouter(k, "R1")
	r1.AddLink(linkAR1, "HA")
	r1.AddLink(linkR1R2, "R2")

	r2 := NewRouter(k, "R2")
	r2.AddLink(linkR1R2, "R1")
	r2.AddLink(linkR2B, "HB")

	r1.StartControlPlane()
	r2.StartControlPlane()

	// keep a flow alive across the whole window so Run doesn't bail out
	// as soon as the (nonexistent) flow count hits zero.
	k.activeFlows = 1

	k.Run(ReroutePeriod * 3)

	want1 := RoutingTableEntry{LinkID: "L-R1-R2", Cost: 0.02}
	if diff := cmp.Diff(want1, r1.RoutingTable()["HB"]); diff != "" {
		t.Fatalf("R1's route to HB (%s)", diff)
	}
	want2 := RoutingTableEntry{LinkID: "L-R1-R2", Cost: 0.02}
	if diff := cmp.Diff(want2, r2.RoutingTable()["HA"]); diff != "" {
		t.Fatalf("R2's route to HA (%s)", diff)
	}
}
