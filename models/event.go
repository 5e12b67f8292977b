package models

// EventController is the interrupt/event collaborator threaded through
// every step. The core never interprets events itself; it only hands
// the controller to the backend and to call-other handlers, which may
// raise or consume numbered events.
type EventController interface {
	Raise(event uint32) error
	Pending() (uint32, bool)
}

// EventLatch is a minimal EventController: a FIFO of raised events.
// Single-threaded like the rest of a processor instance.
type EventLatch struct {
	pending []uint32
}

func (l *EventLatch) Raise(event uint32) error {
	l.pending = append(l.pending, event)
	return nil
}

func (l *EventLatch) Pending() (uint32, bool) {
	if len(l.pending) == 0 {
		return 0, false
	}
	ev := l.pending[0]
	l.pending = l.pending[1:]
	return ev, true
}
