// Package progress streams {percent, message} events from the running
// pipeline to a display surface. Single producer, single consumer: the
// active step emits, the UI consumes, and neither sees the other.
package progress

// Event is one progress report. Percent is monotonic across a run and the
// final event of a successful run is always 100.
type Event struct {
	Percent int
	Message string
}

// Channel is an ordered, lossless event stream. The producer calls Emit
// and Close; the consumer ranges over Events. Closure without a 100%
// event means the run terminated abnormally.
type Channel struct {
	events chan Event
}

// NewChannel creates a channel with room for buffer pending events.
// Emit blocks once the buffer fills, which keeps the producer from
// outrunning a stalled consumer without dropping anything.
func NewChannel(buffer int) *Channel {
	return &Channel{events: make(chan Event, buffer)}
}

// Emit reports progress. Events are observed by the consumer in emission
// order.
func (c *Channel) Emit(percent int, message string) {
	c.events <- Event{Percent: percent, Message: message}
}

// Close signals that the run is over. No Emit may follow.
func (c *Channel) Close() {
	close(c.events)
}

// Events exposes the consumer side of the stream.
func (c *Channel) Events() <-chan Event {
	return c.events
}

// Sink is the producer-facing interface steps report through.
type Sink interface {
	Emit(percent int, message string)
}

// Discard is a Sink that drops all events, for runs with no display.
type Discard struct{}

// Emit implements Sink.
func (Discard) Emit(int, string) {}
