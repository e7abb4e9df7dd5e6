package hotkey

// Event is a chord transition delivered to the consumer.
type Event int

const (
	// EventReady is sent once after the hook is installed.
	EventReady Event = iota
	// EventStart is sent when the chord becomes fully held.
	EventStart
	// EventStop is sent when the chord stops being fully held.
	EventStop
)

func (e Event) String() string {
	switch e {
	case EventReady:
		return "ready"
	case EventStart:
		return "start"
	case EventStop:
		return "stop"
	default:
		return "unknown"
	}
}

// detector turns modifier snapshots into Start/Stop edges.
type detector struct {
	chord  Modifiers
	active bool
}

// feed reports the edge, if any, produced by the new modifier snapshot.
// Extra modifiers beyond the chord do not break it.
func (d *detector) feed(flags Modifiers) (Event, bool) {
	held := flags.Has(d.chord)
	switch {
	case held && !d.active:
		d.active = true
		return EventStart, true
	case !held && d.active:
		d.active = false
		return EventStop, true
	}
	return 0, false
}
