package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coedit/coedit/commons"
	"github.com/coedit/coedit/ot"
)

func TestAckSchedulerImmediate(t *testing.T) {
	tests := []struct {
		description  string
		adaptive     bool
		participants int
	}{
		{description: "adaptive disabled, lone participant", adaptive: false, participants: 1},
		{description: "adaptive disabled, many participants", adaptive: false, participants: 5},
		{description: "adaptive enabled, two participants", adaptive: true, participants: 2},
	}

	for _, tc := range tests {
		fired := false
		s := ackScheduler{adaptive: tc.adaptive, delay: time.Hour}
		s.schedule(tc.participants, func() { fired = true })
		if !fired {
			t.Errorf("(%s) expected an immediate ack", tc.description)
		}
	}
}

func TestAckSchedulerDefersForLoneParticipant(t *testing.T) {
	fired := make(chan time.Time, 1)
	s := ackScheduler{adaptive: true, delay: 30 * time.Millisecond}

	start := time.Now()
	s.schedule(1, func() { fired <- time.Now() })

	select {
	case at := <-fired:
		assert.GreaterOrEqual(t, at.Sub(start), 30*time.Millisecond,
			"the lone author's ack must wait out the full delay")
	case <-time.After(time.Second):
		t.Fatal("deferred ack never fired")
	}
}

// TestAdaptiveAckEndToEnd submits through the coordinator: the lone
// author's ack is delayed, and once a second participant is registered
// acks go out immediately again.
func TestAdaptiveAckEndToEnd(t *testing.T) {
	text := ot.NewText("hello")
	const delay = 40 * time.Millisecond
	c := New(text, Config{AdaptiveAck: true, AckDelay: delay})

	a := newFakeConn()
	c.AddParticipant(a)

	start := time.Now()
	c.SubmitOperation(context.Background(), a, opMsg(0, "i,0,X"))

	// The commit itself is immediate; only the ack is held back.
	assert.Equal(t, 1, text.Revision())
	assert.Empty(t, a.byType(commons.AckMessage), "ack must not be emitted before the delay")

	require.Eventually(t, func() bool {
		return len(a.byType(commons.AckMessage)) == 1
	}, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), delay)

	// A second registered participant switches acks back to immediate.
	b := newFakeConn()
	c.AddParticipant(b)
	c.SetPresenceField(b, commons.PresenceName, "bob")

	c.SubmitOperation(context.Background(), a, opMsg(1, "i,1,Y"))
	acks := a.byType(commons.AckMessage)
	require.Len(t, acks, 2, "ack must be immediate with two participants present")
	assert.Equal(t, 2, acks[1].Revision)
}
