package events

// Stream is the bounded per-turn event channel between the session
// manager (publisher) and the SSE transport (consumer). Publishing
// never blocks past the buffer; a terminal Complete/Error closes the
// channel.
type Stream struct {
	ch     chan Event
	closed bool
}

// NewStream creates a stream with the given buffer size.
func NewStream(buffer int) *Stream {
	if buffer <= 0 {
		buffer = 32
	}
	return &Stream{ch: make(chan Event, buffer)}
}

// Publish enqueues an event. Terminal events close the stream; any
// publish after a terminal event is dropped.
func (s *Stream) Publish(e Event) {
	if s.closed {
		return
	}
	s.ch <- e
	if e.Type == TypeComplete || e.Type == TypeError {
		s.closed = true
		close(s.ch)
	}
}

// Events returns the receive side; it is closed after the terminal
// event.
func (s *Stream) Events() <-chan Event {
	return s.ch
}
