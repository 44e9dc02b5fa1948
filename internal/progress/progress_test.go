package progress

import (
	"testing"
	"time"
)

func TestOrderPreserved(t *testing.T) {
	ch := NewChannel(16)

	go func() {
		ch.Emit(10, "one")
		ch.Emit(30, "two")
		ch.Emit(100, "three")
		ch.Close()
	}()

	var got []Event
	for ev := range ch.Events() {
		got = append(got, ev)
	}

	want := []Event{{10, "one"}, {30, "two"}, {100, "three"}}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestConcurrentConsumerSeesEverything(t *testing.T) {
	ch := NewChannel(1) // force producer/consumer interleaving

	const n = 100
	done := make(chan []Event)
	go func() {
		var events []Event
		for ev := range ch.Events() {
			events = append(events, ev)
		}
		done <- events
	}()

	for i := 1; i <= n; i++ {
		ch.Emit(i, "step")
	}
	ch.Close()

	select {
	case events := <-done:
		if len(events) != n {
			t.Fatalf("dropped events: got %d, want %d", len(events), n)
		}
		for i, ev := range events {
			if ev.Percent != i+1 {
				t.Fatalf("event %d has percent %d", i, ev.Percent)
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("consumer never finished")
	}
}

func TestCloseWithoutTerminalEvent(t *testing.T) {
	ch := NewChannel(4)
	ch.Emit(50, "halfway")
	ch.Close()

	last := -1
	for ev := range ch.Events() {
		last = ev.Percent
	}
	// The consumer can tell the run died: the channel closed below 100.
	if last == 100 {
		t.Fatal("test setup wrong, expected abnormal close")
	}
}
