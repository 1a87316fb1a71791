package simnet

import (
	"math"
	"testing"
)

func TestKernelScheduleOrdering(t *testing.T) {
	k := NewKernel(testLogger{}, nil)
	k.activeFlows = 1 // pretend a flow is active so Run doesn't bail early
	var got []string

	k.Schedule(2, "second", func() { got = append(got, "second") })
	k.Schedule(1, "first", func() { got = append(got, "first") })
	k.Schedule(1, "first-b", func() { got = append(got, "first-b") })

	k.RunToCompletion()

	want := []string{"first", "first-b", "second"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestKernelScheduleNegativeDelayPanics(t *testing.T) {
	k := NewKernel(testLogger{}, nil)
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic scheduling a negative delay")
		}
	}()
	k.Schedule(-1, "bad", func() {})
}

func TestKernelRunStopsAtUntil(t *testing.T) {
	k := NewKernel(testLogger{}, nil)
	k.activeFlows = 1 // pretend a flow is active so Run doesn't bail early

	fired := 0
	k.Schedule(1, "a", func() { fired++ })
	k.Schedule(5, "b", func() { fired++ })

	k.Run(3)

	if fired != 1 {
		t.Fatalf("expected exactly one event to fire before t=3, got %d", fired)
	}
	if k.Now() != 1 {
		t.Fatalf("expected clock at 1, got %f", k.Now())
	}
}

func TestKernelRunStopsWhenNoActiveFlows(t *testing.T) {
	k := NewKernel(testLogger{}, nil)
	fired := false
	k.Schedule(1, "a", func() { fired = true })

	k.Run(math.Inf(1))

	if fired {
		t.Fatal("expected Run to return immediately since activeFlows is zero")
	}
	if k.Pending() != 1 {
		t.Fatalf("expected the event to remain queued, got %d pending", k.Pending())
	}
}

func TestKernelStepPanicsOnTimeTravel(t *testing.T) {
	k := NewKernel(testLogger{}, nil)
	k.Schedule(5, "later", func() {})
	k.Step()

	// Force an out-of-order event directly onto the heap to exercise the
	// invariant check (spec §8: popped events always have scheduled_time
	// >= cur_time).
	k.Schedule(0, "impossible", func() {})
	k.queue[0].time = -1

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic when an event is scheduled in the past")
		}
	}()
	k.Step()
}

func TestKernelActiveFlowsBookkeeping(t *testing.T) {
	k := NewKernel(testLogger{}, nil)
	if k.ActiveFlows() != 0 {
		t.Fatalf("expected zero active flows initially, got %d", k.ActiveFlows())
	}
	f := &Flow{FlowID: "F-1"}
	k.RegisterFlow(f)
	if k.ActiveFlows() != 1 {
		t.Fatalf("expected one active flow, got %d", k.ActiveFlows())
	}
	k.DecrementActiveFlows()
	if k.ActiveFlows() != 0 {
		t.Fatalf("expected zero active flows after completion, got %d", k.ActiveFlows())
	}
}
