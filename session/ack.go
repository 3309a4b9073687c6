package session

import "time"

// ackScheduler decides, once per committed operation, whether the
// submitter's ack goes out immediately or after a delay.
//
// The delayed path exists for the lone-author case: while the ack is held
// back, the author's editor keeps composing local edits into one buffered
// submission instead of sending each keystroke, which cuts operation
// fragmentation when nobody else needs low-latency convergence.
//
// The participant count is read exactly once, at scheduling time. A
// participant joining mid-delay does not cancel or hasten the pending
// ack; that join's first operation gets an immediate ack of its own. This
// single-evaluation policy is a deliberate throughput/latency trade-off.
type ackScheduler struct {
	adaptive bool
	delay    time.Duration
}

// schedule runs send now, or after the configured delay when adaptive
// mode is on and exactly one participant is registered.
func (a ackScheduler) schedule(participants int, send func()) {
	if a.adaptive && participants == 1 && a.delay > 0 {
		time.AfterFunc(a.delay, send)
		return
	}
	send()
}
