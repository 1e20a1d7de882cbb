package events

import (
	"errors"
	"testing"
)

func TestBus_DispatchInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.On(PageRendered, func(Event) { got = append(got, "a") })
	bus.On(PageRendered, func(Event) { got = append(got, "b") })
	bus.On(PagesInit, func(Event) { got = append(got, "other") })

	bus.Dispatch(Event{Name: PageRendered, PageNumber: 3})

	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("handlers ran = %v, want [a b]", got)
	}
}

func TestBus_OffAndOnce(t *testing.T) {
	bus := NewBus()
	calls := 0
	off := bus.On(Idle, func(Event) { calls++ })
	onceCalls := 0
	bus.Once(Idle, func(Event) { onceCalls++ })

	bus.Dispatch(Event{Name: Idle})
	bus.Dispatch(Event{Name: Idle})
	off()
	bus.Dispatch(Event{Name: Idle})

	if calls != 2 || onceCalls != 1 {
		t.Fatalf("calls=%d once=%d, want 2/1", calls, onceCalls)
	}
	if bus.Count(Idle) != 0 {
		t.Fatalf("Count = %d, want 0", bus.Count(Idle))
	}
}

func TestBus_HandlerMayUnsubscribeDuringDispatch(t *testing.T) {
	bus := NewBus()
	var off func()
	seen := 0
	off = bus.On(PageRendered, func(e Event) {
		seen++
		if !errors.Is(e.Err, errTest) {
			t.Fatalf("Err = %v, want errTest", e.Err)
		}
		off()
	})
	bus.On(PageRendered, func(Event) { seen++ })

	bus.Dispatch(Event{Name: PageRendered, Err: errTest})
	bus.Dispatch(Event{Name: PageRendered, Err: errTest})

	if seen != 3 {
		t.Fatalf("seen = %d, want 3", seen)
	}
}

var errTest = errors.New("test")

func TestBus_NilIsSafe(t *testing.T) {
	var bus *Bus
	bus.Dispatch(Event{Name: Idle})
	bus.On(Idle, func(Event) {})()
}
